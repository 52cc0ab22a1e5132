package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	sessionExpiry = 30 * 24 * time.Hour // 30 days
	cookieName    = "uninest_session"
)

// ErrNoSession is returned when a request carries no valid session.
var ErrNoSession = errors.New("no valid session")

// Sessions stores browser sessions keyed by an opaque id.
type Sessions interface {
	Create(ctx context.Context, uid string, expiresAt time.Time) (string, error)
	Lookup(ctx context.Context, id string) (string, error)
	Destroy(ctx context.Context, id string) error
}

// StartSession creates a session for uid and sets the cookie.
func StartSession(ctx context.Context, w http.ResponseWriter, s Sessions, uid string) error {
	expiresAt := time.Now().Add(sessionExpiry)
	id, err := s.Create(ctx, uid, expiresAt)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// SessionUID returns the uid of the request's session.
func SessionUID(r *http.Request, s Sessions) (string, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return "", ErrNoSession
	}
	return s.Lookup(r.Context(), cookie.Value)
}

// EndSession destroys the request's session and clears the cookie.
func EndSession(w http.ResponseWriter, r *http.Request, s Sessions) error {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil // nothing to destroy
	}
	if err := s.Destroy(r.Context(), cookie.Value); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// SessionStore keeps sessions in SQLite.
type SessionStore struct {
	db *sql.DB
}

// NewSessionStore creates a SQLite session store.
func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Create stores a new session for uid.
func (s *SessionStore) Create(ctx context.Context, uid string, expiresAt time.Time) (string, error) {
	id, err := randomHex(32)
	if err != nil {
		return "", fmt.Errorf("generating session ID: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, uid, expires_at) VALUES (?, ?, ?)",
		id, uid, expiresAt.UTC(),
	); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}
	return id, nil
}

// Lookup returns the uid of a live session. Expired sessions are removed.
func (s *SessionStore) Lookup(ctx context.Context, id string) (string, error) {
	var uid string
	var expiresAt time.Time
	err := s.db.QueryRowContext(ctx,
		"SELECT uid, expires_at FROM sessions WHERE id = ?", id,
	).Scan(&uid, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("querying session: %w", err)
	}

	if time.Now().After(expiresAt) {
		if err := s.Destroy(ctx, id); err != nil {
			return "", fmt.Errorf("deleting expired session: %w", err)
		}
		return "", ErrNoSession
	}
	return uid, nil
}

// Destroy removes a session.
func (s *SessionStore) Destroy(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Cleanup removes expired sessions.
func (s *SessionStore) Cleanup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", utcNow()); err != nil {
		return fmt.Errorf("cleaning up sessions: %w", err)
	}
	return nil
}
