package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"sidechat/internal/app/chat"
	"sidechat/internal/app/store"
	"sidechat/internal/configs"
	"sidechat/internal/pkg/auth/jwt"
)

const testJWTSecret = "handler-test-secret"

// fakeStore is an in-memory store.Store for handler tests. User IDs are UUIDs
// because the message routes validate the URL parameter as one.
type fakeStore struct {
	mu       sync.Mutex
	users    map[string]store.User
	messages []store.Message
	seq      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]store.User)}
}

// addUser seeds an account directly, bypassing the signup route.
func (f *fakeStore) addUser(t *testing.T, email, fullName, password string) store.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt hash failed: %v", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	u := store.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeStore) CreateUser(ctx context.Context, email, fullName, passwordHash string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == email {
			return store.User{}, store.ErrDuplicateEmail
		}
	}

	u := store.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return store.User{}, store.ErrNotFound
}

func (f *fakeStore) GetUserByID(ctx context.Context, id string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) ListUsersExcept(ctx context.Context, id string) ([]store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	users := []store.User{}
	for _, u := range f.users {
		if u.ID != id {
			users = append(users, u)
		}
	}
	return users, nil
}

func (f *fakeStore) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.PasswordHash = passwordHash
	f.users[id] = u
	return nil
}

func (f *fakeStore) UpdateUserProfile(ctx context.Context, id, fullName, avatarKey string) (store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	if fullName != "" {
		u.FullName = fullName
	}
	if avatarKey != "" {
		u.AvatarKey = avatarKey
	}
	f.users[id] = u
	return u, nil
}

func (f *fakeStore) CreateMessage(ctx context.Context, senderID, receiverID, text, imageKey string) (store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	m := store.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		ImageKey:   imageKey,
		CreatedAt:  time.Unix(0, 0).Add(time.Duration(f.seq) * time.Millisecond),
	}
	f.messages = append(f.messages, m)
	return m, nil
}

func (f *fakeStore) ListConversation(ctx context.Context, userA, userB string) ([]store.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []store.Message{}
	for _, m := range f.messages {
		if (m.SenderID == userA && m.ReceiverID == userB) ||
			(m.SenderID == userB && m.ReceiverID == userA) {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakeStorage records calls instead of talking to S3.
type fakeStorage struct {
	mu       sync.Mutex
	deleted  []string
	uploaded []string
}

func (f *fakeStorage) PresignUpload(ctx context.Context, key, mimeType string, fileSize int64, duration time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, key)
	return "https://storage.test/upload/" + key, nil
}

func (f *fakeStorage) PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error) {
	return "https://storage.test/download/" + key, nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStorage) GetObjectMetadata(ctx context.Context, key string) (map[string]string, error) {
	return map[string]string{}, nil
}

func (f *fakeStorage) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// newTestApp wires a full router against in-memory fakes.
func newTestApp(t *testing.T) (*AppDeps, *fakeStore, *fakeStorage, http.Handler) {
	t.Helper()

	fs := newFakeStore()
	fst := &fakeStorage{}
	registry := chat.NewRegistry()

	deps := &AppDeps{
		Config: &configs.AppConfig{
			Environment:  "development",
			Port:         9000,
			JWTSecret:    testJWTSecret,
			AssetBaseURL: "https://assets.test",
		},
		Store:    fs,
		Storage:  fst,
		Registry: registry,
	}
	deps.Delivery = chat.NewDelivery(fs, registry, deps.FullAssetURL)

	return deps, fs, fst, Router(deps)
}

// tokenFor mints a session token the way the login handler does.
func tokenFor(t *testing.T, u store.User) string {
	t.Helper()

	token, err := jwt.GenerateToken(&jwt.Payload{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
	}, testJWTSecret, jwt.SessionExpiration)
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}
	return token
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// doJSON performs one request against the router and decodes the response envelope.
func doJSON(t *testing.T, h http.Handler, method, target, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response envelope (%s %s, status %d): %v\nbody: %s",
				method, target, rec.Code, err, rec.Body.String())
		}
	}

	return rec, env
}

func dataField(t *testing.T, env envelope, out any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data field: %v\ndata: %s", err, env.Data)
	}
}

func assertEnvelopeCode(t *testing.T, env envelope, want int) {
	t.Helper()
	if env.Code != want {
		t.Fatalf("expected envelope code %d, got %d (%s)", want, env.Code, env.Message)
	}
}
