package auth

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/uninest/uninest/internal/db"
)

// testDB opens a migrated database with users u1 and u2.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	now := time.Now().UTC()
	for _, uid := range []string{"u1", "u2"} {
		if _, err := d.Exec(
			"INSERT INTO users (uid, email, role, full_name, created_at, updated_at) VALUES (?, ?, 'student', ?, ?, ?)",
			uid, uid+"@example.com", uid, now, now,
		); err != nil {
			t.Fatalf("insert user: %v", err)
		}
	}
	return d
}

type fakeIdentities map[string]string

func (f fakeIdentities) Email(_ context.Context, uid string) (string, error) {
	email, ok := f[uid]
	if !ok {
		return "", fmt.Errorf("user %s not found", uid)
	}
	return email, nil
}

var identities = fakeIdentities{"u1": "u1@example.com", "u2": "u2@example.com"}
