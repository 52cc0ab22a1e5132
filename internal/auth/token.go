package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

const tokenExpiry = 15 * time.Minute

// ErrInvalidToken is returned for unknown, used or expired magic link tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// TokenStore manages magic link tokens in SQLite.
type TokenStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewTokenStore creates a token store.
func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db, now: utcNow}
}

// Create generates a single-use magic link token for email.
func (s *TokenStore) Create(ctx context.Context, email string) (string, error) {
	token, err := randomHex(32)
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO auth_tokens (token, email, expires_at) VALUES (?, ?, ?)",
		token, strings.ToLower(email), s.now().Add(tokenExpiry),
	); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}
	return token, nil
}

// Consume checks a token, marks it used and returns its email.
func (s *TokenStore) Consume(ctx context.Context, token string) (string, error) {
	// The used = 0 guard makes concurrent consumption single-winner.
	result, err := s.db.ExecContext(ctx,
		"UPDATE auth_tokens SET used = 1 WHERE token = ? AND used = 0 AND expires_at > ?",
		token, s.now(),
	)
	if err != nil {
		return "", fmt.Errorf("consuming token: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return "", ErrInvalidToken
	}

	var email string
	if err := s.db.QueryRowContext(ctx, "SELECT email FROM auth_tokens WHERE token = ?", token).Scan(&email); err != nil {
		return "", fmt.Errorf("querying token: %w", err)
	}
	return email, nil
}

// Cleanup removes expired tokens.
func (s *TokenStore) Cleanup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM auth_tokens WHERE expires_at < ?", s.now()); err != nil {
		return fmt.Errorf("cleaning up tokens: %w", err)
	}
	return nil
}

func utcNow() time.Time { return time.Now().UTC() }

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
