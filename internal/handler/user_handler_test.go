package handler

import (
	"net/http"
	"testing"
	"time"

	"sidechat/internal/pkg/errs"
	"sidechat/internal/pkg/randx"
)

func TestListContactsExcludesCaller(t *testing.T) {
	_, fs, _, h := newTestApp(t)
	alice := fs.addUser(t, "alice@example.com", "Alice", "secret123")
	bob := fs.addUser(t, "bob@example.com", "Bob", "secret123")
	carol := fs.addUser(t, "carol@example.com", "Carol", "secret123")

	_, env := doJSON(t, h, http.MethodGet, "/api/messages/users", tokenFor(t, alice), nil)
	assertEnvelopeCode(t, env, 0)

	var data struct {
		Users []struct {
			ID string `json:"id"`
		} `json:"users"`
	}
	dataField(t, env, &data)

	if len(data.Users) != 2 {
		t.Fatalf("expected 2 contacts, got %d", len(data.Users))
	}
	seen := map[string]bool{}
	for _, u := range data.Users {
		if u.ID == alice.ID {
			t.Fatal("contact list contains the caller")
		}
		seen[u.ID] = true
	}
	if !seen[bob.ID] || !seen[carol.ID] {
		t.Fatalf("contact list missing expected users: %+v", data.Users)
	}
}

func TestUpdateProfile(t *testing.T) {
	_, fs, fst, h := newTestApp(t)
	alice := fs.addUser(t, "alice@example.com", "Alice", "secret123")
	token := tokenFor(t, alice)

	// Nothing to update.
	_, env := doJSON(t, h, http.MethodPut, "/api/auth/update-profile", token, map[string]any{})
	assertEnvelopeCode(t, env, errs.ErrInvalidParams)

	// Avatar keys must come from the presign flow's avatar namespace.
	_, env = doJSON(t, h, http.MethodPut, "/api/auth/update-profile", token, map[string]any{
		"avatarKey": "avatars/../../etc/passwd.png",
	})
	assertEnvelopeCode(t, env, errs.ErrInvalidParams)

	// Set name and avatar.
	firstAvatar := randx.AssetKey("avatars", ".png")
	_, env = doJSON(t, h, http.MethodPut, "/api/auth/update-profile", token, map[string]any{
		"fullName":  "Alice B.",
		"avatarKey": firstAvatar,
	})
	assertEnvelopeCode(t, env, 0)

	var data struct {
		User struct {
			FullName string `json:"fullName"`
			Avatar   string `json:"avatar"`
		} `json:"user"`
	}
	dataField(t, env, &data)
	if data.User.FullName != "Alice B." {
		t.Fatalf("unexpected full name: %q", data.User.FullName)
	}
	if data.User.Avatar != "https://assets.test/"+firstAvatar {
		t.Fatalf("unexpected avatar URL: %q", data.User.Avatar)
	}

	// Replacing the avatar deletes the previous object in the background.
	secondAvatar := randx.AssetKey("avatars", ".png")
	_, env = doJSON(t, h, http.MethodPut, "/api/auth/update-profile", token, map[string]any{
		"avatarKey": secondAvatar,
	})
	assertEnvelopeCode(t, env, 0)

	deadline := time.Now().Add(2 * time.Second)
	for {
		keys := fst.deletedKeys()
		if len(keys) == 1 && keys[0] == firstAvatar {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("old avatar %q was not deleted, deletions: %v", firstAvatar, keys)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
