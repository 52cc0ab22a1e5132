package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uninest/uninest/internal/db"
	"github.com/uninest/uninest/internal/rules"
)

var (
	// ErrNotFound is returned when no user document exists for a uid.
	ErrNotFound = errors.New("user not found")
	// ErrExists is returned when the uid or email is already taken.
	ErrExists = errors.New("user already exists")
	// ErrStale is returned when a user document changed after it was read.
	ErrStale = errors.New("user was modified concurrently")
)

// Repository provides data access for user documents.
type Repository struct {
	q db.Querier
}

// NewRepository creates a user repository.
func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{q: tx}
}

const selectColumns = `uid, email, role, full_name, phone_number, profile_picture_url, national_id,
	student_id, university, next_of_kin, saved_properties, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	var role string
	var phone, picture, nationalID, studentID, university, kin, saved sql.NullString

	err := row.Scan(
		&u.UID, &u.Email, &role, &u.FullName, &phone, &picture, &nationalID,
		&studentID, &university, &kin, &saved, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = rules.Role(role)

	for _, f := range []struct {
		src sql.NullString
		dst **string
	}{
		{phone, &u.PhoneNumber},
		{picture, &u.ProfilePictureURL},
		{nationalID, &u.NationalID},
		{studentID, &u.StudentID},
		{university, &u.University},
	} {
		if f.src.Valid {
			s := f.src.String
			*f.dst = &s
		}
	}

	if kin.Valid {
		var k NextOfKin
		if err := json.Unmarshal([]byte(kin.String), &k); err != nil {
			return nil, fmt.Errorf("decoding next of kin: %w", err)
		}
		u.NextOfKin = &k
	}
	if saved.Valid {
		u.SavedProperties = []string{}
		if err := json.Unmarshal([]byte(saved.String), &u.SavedProperties); err != nil {
			return nil, fmt.Errorf("decoding saved properties: %w", err)
		}
	}
	return &u, nil
}

// encodeJSON marshals v for a nullable TEXT column.
func encodeJSON(v any, isNil bool) (sql.NullString, error) {
	if isNil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func (u *User) columns() (kin, saved sql.NullString, err error) {
	kin, err = encodeJSON(u.NextOfKin, u.NextOfKin == nil)
	if err != nil {
		return kin, saved, fmt.Errorf("encoding next of kin: %w", err)
	}
	saved, err = encodeJSON(u.SavedProperties, u.SavedProperties == nil)
	if err != nil {
		return kin, saved, fmt.Errorf("encoding saved properties: %w", err)
	}
	return kin, saved, nil
}

// Insert stores a new user document.
func (r *Repository) Insert(ctx context.Context, u *User) error {
	kin, saved, err := u.columns()
	if err != nil {
		return err
	}
	_, err = r.q.ExecContext(ctx, `INSERT INTO users
		(uid, email, role, full_name, phone_number, profile_picture_url, national_id,
		 student_id, university, next_of_kin, saved_properties, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.UID, u.Email, string(u.Role), u.FullName, u.PhoneNumber, u.ProfilePictureURL, u.NationalID,
		u.StudentID, u.University, kin, saved, u.CreatedAt, u.UpdatedAt,
	)
	if db.IsConstraintViolation(err) {
		return fmt.Errorf("inserting user %s: %w", u.Email, ErrExists)
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// Get returns the user document for uid.
func (r *Repository) Get(ctx context.Context, uid string) (*User, error) {
	row := r.q.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM users WHERE uid = ?", uid)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", uid, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %s: %w", uid, err)
	}
	return u, nil
}

// GetByEmail returns the user document registered with email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := r.q.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM users WHERE LOWER(email) = LOWER(?)", email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by email: %w", err)
	}
	return u, nil
}

// Role returns the stored role of uid. The bool is false when there is no
// such user.
func (r *Repository) Role(ctx context.Context, uid string) (rules.Role, bool, error) {
	var role string
	err := r.q.QueryRowContext(ctx, "SELECT role FROM users WHERE uid = ?", uid).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying role of %s: %w", uid, err)
	}
	return rules.Role(role), true, nil
}

// Email returns the email uid registered with.
func (r *Repository) Email(ctx context.Context, uid string) (string, error) {
	var email string
	err := r.q.QueryRowContext(ctx, "SELECT email FROM users WHERE uid = ?", uid).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("user %s: %w", uid, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("querying email of %s: %w", uid, err)
	}
	return email, nil
}

// Update overwrites the mutable columns of a user document whose stored
// updated_at still equals prev.
func (r *Repository) Update(ctx context.Context, u *User, prev time.Time) error {
	kin, saved, err := u.columns()
	if err != nil {
		return err
	}
	result, err := r.q.ExecContext(ctx, `UPDATE users SET
		full_name = ?, phone_number = ?, profile_picture_url = ?, national_id = ?,
		student_id = ?, university = ?, next_of_kin = ?, saved_properties = ?, updated_at = ?
		WHERE uid = ? AND updated_at = ?`,
		u.FullName, u.PhoneNumber, u.ProfilePictureURL, u.NationalID,
		u.StudentID, u.University, kin, saved, u.UpdatedAt, u.UID, prev,
	)
	if err != nil {
		return fmt.Errorf("updating user %s: %w", u.UID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := r.Get(ctx, u.UID); err != nil {
		return err
	}
	return fmt.Errorf("user %s: %w", u.UID, ErrStale)
}
