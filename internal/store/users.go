package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint is violated.
var ErrDuplicate = errors.New("already exists")

// User is an account row. Provider is "email", "github", or "google";
// ProviderID is the provider's identifier for the account (the email
// address itself for email accounts).
type User struct {
	ID           int64     `json:"id"`
	Provider     string    `json:"provider"`
	ProviderID   string    `json:"provider_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Picture      string    `json:"picture"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	LastLogin    time.Time `json:"last_login"`
}

// CreateUser inserts a user. Returns ErrDuplicate when the
// (provider, provider_id) pair already exists.
func (s *Store) CreateUser(ctx context.Context, u *User) (*User, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (provider, provider_id, email, name, picture, password_hash, created_at, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Provider, u.ProviderID, u.Email, u.Name, u.Picture, u.PasswordHash, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user %s/%s: %w", u.Provider, u.ProviderID, ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read user id: %w", err)
	}

	out := *u
	out.ID = id
	out.CreatedAt = now
	out.LastLogin = now
	return &out, nil
}

// GetUser fetches a user by ID.
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, provider, provider_id, email, name, picture, password_hash, created_at, last_login
		FROM users WHERE id = ?`, id))
}

// GetUserByProvider fetches a user by its (provider, provider_id) pair.
func (s *Store) GetUserByProvider(ctx context.Context, provider, providerID string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, provider, provider_id, email, name, picture, password_hash, created_at, last_login
		FROM users WHERE provider = ? AND provider_id = ?`, provider, providerID))
}

// TouchLastLogin updates the user's last_login timestamp.
func (s *Store) TouchLastLogin(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update last_login: %w", err)
	}
	return nil
}

func (s *Store) scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Provider, &u.ProviderID, &u.Email, &u.Name,
		&u.Picture, &u.PasswordHash, &u.CreatedAt, &u.LastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}
