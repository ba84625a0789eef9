/*
Package store defines the persistence contract for user accounts and direct messages,
together with its PostgreSQL implementation.

The Store interface is the source of truth for the application: real-time delivery is
only a notification of facts already persisted here.
*/
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when the requested record does not exist.
var ErrNotFound = errors.New("store: record not found")

// ErrDuplicateEmail is returned when creating a user with an email that is already registered.
var ErrDuplicateEmail = errors.New("store: email already registered")

// User represents a persisted user account.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	AvatarKey    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Message represents one persisted direct message between a pair of users.
// Messages are immutable once created.
type Message struct {
	ID         string
	SenderID   string
	ReceiverID string
	Text       string
	ImageKey   string
	CreatedAt  time.Time
}

// Store is the persistence interface consumed by handlers and the delivery core.
// Implementations must be safe for concurrent use.
type Store interface {
	// CreateUser inserts a new user and returns the stored record with its
	// generated id and timestamps. Returns ErrDuplicateEmail on email conflict.
	CreateUser(ctx context.Context, email, fullName, passwordHash string) (User, error)

	// GetUserByEmail returns the user with the given email, or ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (User, error)

	// GetUserByID returns the user with the given id, or ErrNotFound.
	GetUserByID(ctx context.Context, id string) (User, error)

	// ListUsersExcept returns all users except the one with the given id,
	// ordered by full name. Used for the contact sidebar.
	ListUsersExcept(ctx context.Context, id string) ([]User, error)

	// UpdateUserPassword replaces the stored credential hash.
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error

	// UpdateUserProfile updates the display name and/or avatar key. Empty
	// arguments leave the corresponding column unchanged. Returns the updated record.
	UpdateUserProfile(ctx context.Context, id, fullName, avatarKey string) (User, error)

	// CreateMessage inserts a new message; the store assigns the id and creation
	// timestamp and returns the stored record.
	CreateMessage(ctx context.Context, senderID, receiverID, text, imageKey string) (Message, error)

	// ListConversation returns every message exchanged between the two users,
	// in either direction, ordered by creation time ascending.
	ListConversation(ctx context.Context, userA, userB string) ([]Message, error)
}
