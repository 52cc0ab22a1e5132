package auth

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
)

// ErrCredentialNotFound is returned when deleting an unknown passkey.
var ErrCredentialNotFound = errors.New("credential not found")

// PasskeyUser implements webauthn.User. The user handle is the uid, so a
// discoverable login resolves straight to the account.
type PasskeyUser struct {
	uid         string
	email       string
	credentials []webauthn.Credential
}

// NewPasskeyUser creates a PasskeyUser.
func NewPasskeyUser(uid, email string, credentials []webauthn.Credential) *PasskeyUser {
	return &PasskeyUser{uid: uid, email: email, credentials: credentials}
}

// WebAuthnID returns the uid.
func (u *PasskeyUser) WebAuthnID() []byte { return []byte(u.uid) }

// WebAuthnName returns the email.
func (u *PasskeyUser) WebAuthnName() string { return u.email }

// WebAuthnDisplayName returns the email.
func (u *PasskeyUser) WebAuthnDisplayName() string { return u.email }

// WebAuthnCredentials returns the stored credentials.
func (u *PasskeyUser) WebAuthnCredentials() []webauthn.Credential { return u.credentials }

// UID returns the user's id.
func (u *PasskeyUser) UID() string { return u.uid }

// StoredCredential is a passkey credential with metadata.
type StoredCredential struct {
	ID         string
	UID        string
	Name       string
	Credential webauthn.Credential
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

func credentialID(cred *webauthn.Credential) string {
	return hex.EncodeToString(cred.ID)
}

// PasskeyStore manages passkey credentials in SQLite.
type PasskeyStore struct {
	db *sql.DB
}

// NewPasskeyStore creates a passkey store.
func NewPasskeyStore(db *sql.DB) *PasskeyStore {
	return &PasskeyStore{db: db}
}

// Save stores a new credential for uid.
func (s *PasskeyStore) Save(ctx context.Context, uid, name string, cred *webauthn.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshaling credential: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO passkey_credentials (id, uid, name, credential_json) VALUES (?, ?, ?, ?)",
		credentialID(cred), uid, name, string(data),
	); err != nil {
		return fmt.Errorf("storing credential: %w", err)
	}
	return nil
}

// List returns every credential of uid.
func (s *PasskeyStore) List(ctx context.Context, uid string) ([]StoredCredential, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, uid, name, credential_json, created_at, last_used_at
		 FROM passkey_credentials WHERE uid = ? ORDER BY created_at, id`, uid,
	)
	if err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Warn("closing rows", "err", err)
		}
	}()

	var result []StoredCredential
	for rows.Next() {
		var sc StoredCredential
		var data string
		var lastUsed sql.NullTime
		if err := rows.Scan(&sc.ID, &sc.UID, &sc.Name, &data, &sc.CreatedAt, &lastUsed); err != nil {
			return nil, fmt.Errorf("scanning credential: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &sc.Credential); err != nil {
			return nil, fmt.Errorf("unmarshaling credential: %w", err)
		}
		if lastUsed.Valid {
			sc.LastUsedAt = &lastUsed.Time
		}
		result = append(result, sc)
	}
	return result, rows.Err()
}

// WebAuthnCredentials returns just the credentials of uid.
func (s *PasskeyStore) WebAuthnCredentials(ctx context.Context, uid string) ([]webauthn.Credential, error) {
	stored, err := s.List(ctx, uid)
	if err != nil {
		return nil, err
	}
	creds := make([]webauthn.Credential, len(stored))
	for i, sc := range stored {
		creds[i] = sc.Credential
	}
	return creds, nil
}

// Touch stores cred as updated by a login (sign count, clone warning) and
// records the time of use.
func (s *PasskeyStore) Touch(ctx context.Context, uid string, cred *webauthn.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshaling credential: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE passkey_credentials SET credential_json = ?, last_used_at = ? WHERE id = ? AND uid = ?",
		string(data), time.Now().UTC(), credentialID(cred), uid,
	)
	if err != nil {
		return fmt.Errorf("updating credential: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

// Delete removes credential id of uid.
func (s *PasskeyStore) Delete(ctx context.Context, uid, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM passkey_credentials WHERE id = ? AND uid = ?", id, uid,
	)
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrCredentialNotFound
	}
	return nil
}
