package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpenConfiguresConnection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "uninest.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file: %v", err)
	}

	pragmas := []struct {
		name string
		want string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"busy_timeout", "5000"},
	}
	for _, p := range pragmas {
		var got string
		if err := d.QueryRow("PRAGMA " + p.name).Scan(&got); err != nil {
			t.Fatalf("PRAGMA %s: %v", p.name, err)
		}
		if got != p.want {
			t.Errorf("%s = %q, want %q", p.name, got, p.want)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uninest.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	insertFixtures(t, d)
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}

	d, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = d.Close() }()

	var title string
	if err := d.QueryRow(`SELECT title FROM properties WHERE id = 'p1'`).Scan(&title); err != nil {
		t.Fatalf("fixture lost after reopen: %v", err)
	}
}

func TestDefaultPathUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, ".uninest", "uninest.db"); p != want {
		t.Errorf("DefaultPath() = %q, want %q", p, want)
	}
}

func TestMigrations(t *testing.T) {
	tests := []struct {
		table string
		cols  []string
	}{
		{"users", []string{"uid", "email", "role", "full_name", "phone_number", "profile_picture_url", "national_id", "student_id", "university", "next_of_kin", "saved_properties", "created_at", "updated_at"}},
		{"reviews", []string{"id", "property_id", "student_id", "student_name", "rating", "comment", "created_at", "updated_at"}},
		{"enrollments", []string{"id", "property_id", "property_title", "landlord_id", "student_id", "student_name", "interest_id", "lease_start_date", "lease_end_date", "monthly_rent", "is_active", "created_at", "updated_at", "actual_checkout_date"}},
		{"sessions", []string{"id", "uid", "expires_at", "created_at"}},
		{"api_keys", []string{"id", "uid", "name", "key_prefix", "key_hash", "created_at", "last_used_at"}},
	}

	d := openTestDB(t)

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			cols := tableColumns(t, d, tt.table)
			if len(cols) != len(tt.cols) {
				t.Fatalf("got %d columns, want %d: %v", len(cols), len(tt.cols), cols)
			}
			for i, want := range tt.cols {
				if cols[i] != want {
					t.Errorf("column %d = %q, want %q", i, cols[i], want)
				}
			}
		})
	}
}

func TestCounterConstraint(t *testing.T) {
	d := openTestDB(t)
	insertFixtures(t, d)

	_, err := d.Exec(`UPDATE properties SET view_count = -1 WHERE id = 'p1'`)
	if err == nil {
		t.Error("expected check constraint error for negative counter")
	}
	_, err = d.Exec(`UPDATE properties SET average_rating = 5.5 WHERE id = 'p1'`)
	if err == nil {
		t.Error("expected check constraint error for rating above 5")
	}
}

func TestCascadeDelete(t *testing.T) {
	d := openTestDB(t)
	insertFixtures(t, d)

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		_, err := d.Exec(
			`INSERT INTO reviews (id, property_id, student_id, rating, created_at, updated_at) VALUES (?, 'p1', 's1', 4, ?, ?)`,
			fmt.Sprintf("r%d", i), now, now,
		)
		if err != nil {
			t.Fatalf("insert review %d: %v", i, err)
		}
	}

	if _, err := d.Exec(`DELETE FROM properties WHERE id = 'p1'`); err != nil {
		t.Fatalf("delete property: %v", err)
	}

	var count int
	if err := d.QueryRow(`SELECT COUNT(*) FROM reviews WHERE property_id = 'p1'`).Scan(&count); err != nil {
		t.Fatalf("count reviews after delete: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 reviews after cascade delete, got %d", count)
	}
}

func TestInTx(t *testing.T) {
	d := openTestDB(t)
	insertFixtures(t, d)
	ctx := context.Background()

	errBoom := errors.New("boom")
	err := InTx(ctx, d, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE properties SET view_count = 7 WHERE id = 'p1'`); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("InTx error = %v, want %v", err, errBoom)
	}

	var views int
	if err := d.QueryRow(`SELECT view_count FROM properties WHERE id = 'p1'`).Scan(&views); err != nil {
		t.Fatalf("query: %v", err)
	}
	if views != 0 {
		t.Errorf("view_count = %d after rollback, want 0", views)
	}

	err = InTx(ctx, d, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE properties SET view_count = 7 WHERE id = 'p1'`)
		return err
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if err := d.QueryRow(`SELECT view_count FROM properties WHERE id = 'p1'`).Scan(&views); err != nil {
		t.Fatalf("query: %v", err)
	}
	if views != 7 {
		t.Errorf("view_count = %d after commit, want 7", views)
	}
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "uninest.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close test db: %v", err)
		}
	})
	return d
}

// insertFixtures adds a landlord, a student and property p1.
func insertFixtures(t *testing.T, d *sql.DB) {
	t.Helper()
	now := time.Now().UTC()
	stmts := []struct {
		query string
		args  []any
	}{
		{`INSERT INTO users (uid, email, role, full_name, created_at, updated_at) VALUES ('l1', 'l1@rent.test', 'landlord', 'Lee', ?, ?)`, []any{now, now}},
		{`INSERT INTO users (uid, email, role, full_name, created_at, updated_at) VALUES ('s1', 's1@uni.test', 'student', 'Sam', ?, ?)`, []any{now, now}},
		{`INSERT INTO properties (id, landlord_id, title, address, city, property_type, monthly_rent, created_at, updated_at)
			VALUES ('p1', 'l1', 'Room', '1 High St', 'Nairobi', 'room', 12000, ?, ?)`, []any{now, now}},
	}
	for _, s := range stmts {
		if _, err := d.Exec(s.query, s.args...); err != nil {
			t.Fatalf("insert fixture: %v", err)
		}
	}
}

// tableColumns returns column names for a table using PRAGMA table_info.
func tableColumns(t *testing.T, d *sql.DB, table string) []string {
	t.Helper()
	rows, err := d.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		t.Fatalf("pragma table_info(%s): %v", table, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			t.Errorf("close rows: %v", err)
		}
	}()

	var cols []string
	for rows.Next() {
		var cid int
		var name, typ string
		var notnull int
		var dflt *string
		var pk int
		if err := rows.Scan(&cid, &name, &typ, &notnull, &dflt, &pk); err != nil {
			t.Fatalf("scan: %v", err)
		}
		cols = append(cols, name)
	}
	return cols
}
