package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sidechat/internal/app/db"
)

// Postgres implements Store on top of a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps the given connection pool in a Store implementation.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const userColumns = `id::text, email, full_name, password_hash, avatar_key, created_at, updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.AvatarKey, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("store: scan user: %w", err)
	}
	return u, nil
}

func (p *Postgres) CreateUser(ctx context.Context, email, fullName, passwordHash string) (User, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO users (email, full_name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		email, fullName, passwordHash,
	)

	u, err := scanUser(row)
	if err != nil && db.IsUniqueViolation(err) {
		return User{}, ErrDuplicateEmail
	}
	return u, err
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	)
	return scanUser(row)
}

func (p *Postgres) GetUserByID(ctx context.Context, id string) (User, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1::uuid`,
		id,
	)
	return scanUser(row)
}

func (p *Postgres) ListUsersExcept(ctx context.Context, id string) ([]User, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users WHERE id <> $1::uuid ORDER BY full_name, email`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (p *Postgres) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1::uuid`,
		id, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("store: update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) UpdateUserProfile(ctx context.Context, id, fullName, avatarKey string) (User, error) {
	row := p.pool.QueryRow(ctx, `
		UPDATE users
		SET full_name  = COALESCE(NULLIF($2, ''), full_name),
		    avatar_key = COALESCE(NULLIF($3, ''), avatar_key),
		    updated_at = now()
		WHERE id = $1::uuid
		RETURNING `+userColumns,
		id, fullName, avatarKey,
	)
	return scanUser(row)
}

const messageColumns = `id::text, sender_id::text, receiver_id::text, body, image_key, created_at`

func scanMessage(row pgx.Row) (Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.ImageKey, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	if err != nil {
		return Message{}, fmt.Errorf("store: scan message: %w", err)
	}
	return m, nil
}

func (p *Postgres) CreateMessage(ctx context.Context, senderID, receiverID, text, imageKey string) (Message, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO messages (sender_id, receiver_id, body, image_key)
		VALUES ($1::uuid, $2::uuid, $3, $4)
		RETURNING `+messageColumns,
		senderID, receiverID, text, imageKey,
	)
	return scanMessage(row)
}

func (p *Postgres) ListConversation(ctx context.Context, userA, userB string) ([]Message, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE (sender_id = $1::uuid AND receiver_id = $2::uuid)
		   OR (sender_id = $2::uuid AND receiver_id = $1::uuid)
		ORDER BY created_at ASC`,
		userA, userB,
	)
	if err != nil {
		return nil, fmt.Errorf("store: list conversation: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
