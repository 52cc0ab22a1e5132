package auth

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	apiKeyBytes  = 32 // 256-bit keys
	apiKeyPrefix = "un_"
)

// ErrKeyNotFound is returned when deleting a key the caller does not own.
var ErrKeyNotFound = errors.New("api key not found")

// APIKey is the stored representation of an API key. The raw key is never
// stored.
type APIKey struct {
	ID         int64      `json:"id"`
	UID        string     `json:"uid"`
	Name       string     `json:"name"`
	KeyPrefix  string     `json:"key_prefix"` // first 8 chars for identification
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// APIKeyStore manages API keys in SQLite. Every key acts as one user.
type APIKeyStore struct {
	db *sql.DB
}

// NewAPIKeyStore creates an API key store.
func NewAPIKeyStore(db *sql.DB) *APIKeyStore {
	return &APIKeyStore{db: db}
}

// Create issues a new key for uid. It returns the raw key, which is shown
// once, and the stored record.
func (s *APIKeyStore) Create(ctx context.Context, uid, name string) (string, *APIKey, error) {
	secret, err := randomHex(apiKeyBytes)
	if err != nil {
		return "", nil, fmt.Errorf("generating key: %w", err)
	}
	raw := apiKeyPrefix + secret
	key := &APIKey{UID: uid, Name: name, KeyPrefix: raw[:8], CreatedAt: utcNow()}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO api_keys (uid, name, key_prefix, key_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		uid, name, key.KeyPrefix, hashAPIKey(raw), key.CreatedAt,
	)
	if err != nil {
		return "", nil, fmt.Errorf("storing key: %w", err)
	}
	if key.ID, err = result.LastInsertId(); err != nil {
		return "", nil, fmt.Errorf("getting key id: %w", err)
	}
	return raw, key, nil
}

// List returns the keys belonging to uid, newest first.
func (s *APIKeyStore) List(ctx context.Context, uid string) ([]APIKey, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, uid, name, key_prefix, created_at, last_used_at FROM api_keys WHERE uid = ? ORDER BY created_at DESC, id DESC",
		uid,
	)
	if err != nil {
		return nil, fmt.Errorf("querying keys: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "err", cerr)
		}
	}()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		if err := rows.Scan(&k.ID, &k.UID, &k.Name, &k.KeyPrefix, &k.CreatedAt, &k.LastUsedAt); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Delete revokes key id if it belongs to uid.
func (s *APIKeyStore) Delete(ctx context.Context, uid string, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM api_keys WHERE id = ? AND uid = ?", id, uid)
	if err != nil {
		return fmt.Errorf("deleting key: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrKeyNotFound
	}
	return nil
}

// Validate resolves a raw key to its uid and records its use. It returns
// "" for unknown keys.
func (s *APIKeyStore) Validate(ctx context.Context, rawKey string) (string, error) {
	var uid string
	err := s.db.QueryRowContext(ctx,
		"UPDATE api_keys SET last_used_at = ? WHERE key_hash = ? RETURNING uid",
		utcNow(), hashAPIKey(rawKey),
	).Scan(&uid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("validating key: %w", err)
	}
	return uid, nil
}

func hashAPIKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}
