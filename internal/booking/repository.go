package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uninest/uninest/internal/db"
	"github.com/uninest/uninest/internal/rules"
)

// ErrNotFound is returned when a booking interest does not exist.
var ErrNotFound = errors.New("booking interest not found")

// Repository provides data access for booking interests.
type Repository struct {
	q db.Querier
}

// NewRepository creates a booking interest repository.
func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{q: tx}
}

const selectColumns = `id, property_id, property_title, landlord_id, student_id, student_name,
	student_email, student_phone, message, move_in_date, status, created_at, updated_at`

func scanInterest(row interface{ Scan(...any) error }) (*Interest, error) {
	var i Interest
	var status string
	err := row.Scan(&i.ID, &i.PropertyID, &i.PropertyTitle, &i.LandlordID, &i.StudentID, &i.StudentName,
		&i.StudentEmail, &i.StudentPhone, &i.Message, &i.MoveInDate, &status, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	i.Status = rules.InterestStatus(status)
	return &i, nil
}

// Insert stores a new booking interest.
func (r *Repository) Insert(ctx context.Context, i *Interest) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO booking_interests
		(id, property_id, property_title, landlord_id, student_id, student_name,
		 student_email, student_phone, message, move_in_date, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.PropertyID, i.PropertyTitle, i.LandlordID, i.StudentID, i.StudentName,
		i.StudentEmail, i.StudentPhone, i.Message, i.MoveInDate, string(i.Status), i.CreatedAt, i.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting booking interest: %w", err)
	}
	return nil
}

// Get returns a booking interest by ID.
func (r *Repository) Get(ctx context.Context, id string) (*Interest, error) {
	i, err := scanInterest(r.q.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM booking_interests WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("booking interest %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying booking interest %s: %w", id, err)
	}
	return i, nil
}

// ListOptions controls filtering for List.
type ListOptions struct {
	StudentID  string
	LandlordID string
	PropertyID string
	Status     rules.InterestStatus // empty = all
}

// List returns interests matching every set option, newest first.
func (r *Repository) List(ctx context.Context, opts ListOptions) (interests []*Interest, err error) {
	query := "SELECT " + selectColumns + " FROM booking_interests WHERE 1 = 1"
	var args []any
	for _, f := range []struct {
		column, value string
	}{
		{"student_id", opts.StudentID},
		{"landlord_id", opts.LandlordID},
		{"property_id", opts.PropertyID},
		{"status", string(opts.Status)},
	} {
		if f.value != "" {
			query += " AND " + f.column + " = ?"
			args = append(args, f.value)
		}
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing booking interests: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		i, err := scanInterest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning booking interest: %w", err)
		}
		interests = append(interests, i)
	}
	return interests, rows.Err()
}

// SetStatus stores a new status. It only applies when the stored status is
// still from, so concurrent transitions cannot both succeed.
func (r *Repository) SetStatus(ctx context.Context, id string, from, to rules.InterestStatus, at time.Time) error {
	result, err := r.q.ExecContext(ctx,
		"UPDATE booking_interests SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		string(to), at, id, string(from),
	)
	if err != nil {
		return fmt.Errorf("updating status of %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("booking interest %s in status %s: %w", id, from, ErrNotFound)
	}
	return nil
}
