package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		uid                 TEXT     PRIMARY KEY,
		email               TEXT     NOT NULL UNIQUE,
		role                TEXT     NOT NULL CHECK (role IN ('student', 'landlord')),
		full_name           TEXT     NOT NULL,
		phone_number        TEXT,
		profile_picture_url TEXT,
		national_id         TEXT,
		student_id          TEXT,
		university          TEXT,
		next_of_kin         TEXT,
		saved_properties    TEXT,
		created_at          DATETIME NOT NULL,
		updated_at          DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS properties (
		id                      TEXT     PRIMARY KEY,
		landlord_id             TEXT     NOT NULL REFERENCES users(uid),
		landlord_name           TEXT     NOT NULL DEFAULT '',
		title                   TEXT     NOT NULL,
		description             TEXT     NOT NULL DEFAULT '',
		address                 TEXT     NOT NULL,
		city                    TEXT     NOT NULL,
		university              TEXT     NOT NULL DEFAULT '',
		property_type           TEXT     NOT NULL CHECK (property_type IN ('apartment', 'hostel', 'house', 'room', 'studio')),
		monthly_rent            INTEGER  NOT NULL CHECK (monthly_rent >= 0),
		bedrooms                INTEGER  NOT NULL DEFAULT 0,
		bathrooms               INTEGER  NOT NULL DEFAULT 0,
		capacity                INTEGER  NOT NULL DEFAULT 0,
		amenities               TEXT     NOT NULL DEFAULT '[]',
		images                  TEXT     NOT NULL DEFAULT '[]',
		available               INTEGER  NOT NULL DEFAULT 1,
		view_count              INTEGER  NOT NULL DEFAULT 0 CHECK (view_count >= 0),
		interested_count        INTEGER  NOT NULL DEFAULT 0 CHECK (interested_count >= 0),
		enrolled_students_count INTEGER  NOT NULL DEFAULT 0 CHECK (enrolled_students_count >= 0),
		review_count            INTEGER  NOT NULL DEFAULT 0 CHECK (review_count >= 0),
		average_rating          REAL     NOT NULL DEFAULT 0 CHECK (average_rating >= 0 AND average_rating <= 5),
		created_at              DATETIME NOT NULL,
		updated_at              DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_landlord ON properties(landlord_id)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id           TEXT     PRIMARY KEY,
		property_id  TEXT     NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		student_id   TEXT     NOT NULL REFERENCES users(uid),
		student_name TEXT     NOT NULL DEFAULT '',
		rating       INTEGER  NOT NULL CHECK (rating >= 1 AND rating <= 5),
		comment      TEXT     NOT NULL DEFAULT '',
		created_at   DATETIME NOT NULL,
		updated_at   DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_property ON reviews(property_id, student_id)`,
	`CREATE TABLE IF NOT EXISTS booking_interests (
		id             TEXT     PRIMARY KEY,
		property_id    TEXT     NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		property_title TEXT     NOT NULL DEFAULT '',
		landlord_id    TEXT     NOT NULL REFERENCES users(uid),
		student_id     TEXT     NOT NULL REFERENCES users(uid),
		student_name   TEXT     NOT NULL DEFAULT '',
		student_email  TEXT     NOT NULL DEFAULT '',
		student_phone  TEXT     NOT NULL DEFAULT '',
		message        TEXT     NOT NULL DEFAULT '',
		move_in_date   TEXT     NOT NULL DEFAULT '',
		status         TEXT     NOT NULL CHECK (status IN ('pending', 'contacted', 'rejected', 'accepted', 'archived')),
		created_at     DATETIME NOT NULL,
		updated_at     DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_interests_student ON booking_interests(student_id)`,
	`CREATE INDEX IF NOT EXISTS idx_interests_landlord ON booking_interests(landlord_id)`,
	`CREATE TABLE IF NOT EXISTS enrollments (
		id               TEXT     PRIMARY KEY,
		property_id      TEXT     NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		property_title   TEXT     NOT NULL DEFAULT '',
		landlord_id      TEXT     NOT NULL REFERENCES users(uid),
		student_id       TEXT     NOT NULL REFERENCES users(uid),
		student_name     TEXT     NOT NULL DEFAULT '',
		interest_id      TEXT     NOT NULL,
		lease_start_date DATETIME NOT NULL,
		lease_end_date   DATETIME NOT NULL,
		monthly_rent     INTEGER  NOT NULL,
		is_active        INTEGER  NOT NULL DEFAULT 1,
		created_at       DATETIME NOT NULL,
		updated_at       DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_enrollments_student ON enrollments(student_id)`,
	`CREATE INDEX IF NOT EXISTS idx_enrollments_landlord ON enrollments(landlord_id)`,
	`CREATE TABLE IF NOT EXISTS auth_tokens (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		token      TEXT     NOT NULL UNIQUE,
		email      TEXT     NOT NULL,
		expires_at DATETIME NOT NULL,
		used       INTEGER  DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT     PRIMARY KEY,
		uid        TEXT     NOT NULL REFERENCES users(uid) ON DELETE CASCADE,
		expires_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS passkey_credentials (
		id              TEXT    PRIMARY KEY,
		uid             TEXT    NOT NULL REFERENCES users(uid) ON DELETE CASCADE,
		name            TEXT    NOT NULL DEFAULT '',
		credential_json TEXT    NOT NULL,
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id           INTEGER  PRIMARY KEY AUTOINCREMENT,
		uid          TEXT     NOT NULL REFERENCES users(uid) ON DELETE CASCADE,
		name         TEXT     NOT NULL,
		key_prefix   TEXT     NOT NULL,
		key_hash     TEXT     NOT NULL UNIQUE,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Column additions (idempotent, checks if column exists first)
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"enrollments", "actual_checkout_date", "DATETIME"},
		{"api_keys", "last_used_at", "DATETIME"},
		{"passkey_credentials", "last_used_at", "DATETIME"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) (err error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("checking table info: %w", err)
	}

	found := false
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue any
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterating columns: %w", err)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("closing rows: %w", err)
	}
	if found {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}
