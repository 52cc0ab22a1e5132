package enrollment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uninest/uninest/internal/db"
)

// ErrNotFound is returned when an enrollment does not exist.
var ErrNotFound = errors.New("enrollment not found")

// Repository provides data access for enrollments.
type Repository struct {
	q db.Querier
}

// NewRepository creates an enrollment repository.
func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{q: tx}
}

const selectColumns = `id, property_id, property_title, landlord_id, student_id, student_name, interest_id,
	lease_start_date, lease_end_date, monthly_rent, is_active, actual_checkout_date, created_at, updated_at`

func scanEnrollment(row interface{ Scan(...any) error }) (*Enrollment, error) {
	var e Enrollment
	var checkout sql.NullTime
	err := row.Scan(&e.ID, &e.PropertyID, &e.PropertyTitle, &e.LandlordID, &e.StudentID, &e.StudentName,
		&e.InterestID, &e.LeaseStartDate, &e.LeaseEndDate, &e.MonthlyRent, &e.IsActive, &checkout,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if checkout.Valid {
		e.ActualCheckoutDate = &checkout.Time
	}
	return &e, nil
}

// Insert stores a new enrollment.
func (r *Repository) Insert(ctx context.Context, e *Enrollment) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO enrollments
		(id, property_id, property_title, landlord_id, student_id, student_name, interest_id,
		 lease_start_date, lease_end_date, monthly_rent, is_active, actual_checkout_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.PropertyID, e.PropertyTitle, e.LandlordID, e.StudentID, e.StudentName, e.InterestID,
		e.LeaseStartDate, e.LeaseEndDate, e.MonthlyRent, e.IsActive, e.ActualCheckoutDate, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting enrollment: %w", err)
	}
	return nil
}

// Get returns an enrollment by ID.
func (r *Repository) Get(ctx context.Context, id string) (*Enrollment, error) {
	e, err := scanEnrollment(r.q.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM enrollments WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("enrollment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying enrollment %s: %w", id, err)
	}
	return e, nil
}

// ListOptions controls filtering for List.
type ListOptions struct {
	StudentID  string
	LandlordID string
	PropertyID string
	Active     *bool // nil = active and past
}

// List returns enrollments matching every set option, newest lease first.
func (r *Repository) List(ctx context.Context, opts ListOptions) (enrollments []*Enrollment, err error) {
	query := "SELECT " + selectColumns + " FROM enrollments WHERE 1 = 1"
	var args []any
	for _, f := range []struct {
		column, value string
	}{
		{"student_id", opts.StudentID},
		{"landlord_id", opts.LandlordID},
		{"property_id", opts.PropertyID},
	} {
		if f.value != "" {
			query += " AND " + f.column + " = ?"
			args = append(args, f.value)
		}
	}
	if opts.Active != nil {
		query += " AND is_active = ?"
		args = append(args, *opts.Active)
	}
	query += " ORDER BY lease_start_date DESC, id"

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing enrollments: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// UpdateTerms stores new lease dates and rent.
func (r *Repository) UpdateTerms(ctx context.Context, e *Enrollment) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE enrollments SET lease_start_date = ?, lease_end_date = ?, monthly_rent = ?, updated_at = ?
		WHERE id = ?`,
		e.LeaseStartDate, e.LeaseEndDate, e.MonthlyRent, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating enrollment %s: %w", e.ID, err)
	}
	return requireRow(result, e.ID)
}

// Checkout marks an active enrollment inactive. It fails with ErrNotFound if
// the enrollment is already inactive.
func (r *Repository) Checkout(ctx context.Context, id string, at time.Time) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE enrollments SET is_active = 0, actual_checkout_date = ?, updated_at = ?
		WHERE id = ? AND is_active = 1`,
		at, at, id,
	)
	if err != nil {
		return fmt.Errorf("checking out enrollment %s: %w", id, err)
	}
	return requireRow(result, id)
}

// Delete removes an enrollment and reports whether it was still active at
// the moment it was removed.
func (r *Repository) Delete(ctx context.Context, id string) (wasActive bool, err error) {
	err = r.q.QueryRowContext(ctx, "DELETE FROM enrollments WHERE id = ? RETURNING is_active", id).Scan(&wasActive)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("enrollment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("deleting enrollment %s: %w", id, err)
	}
	return wasActive, nil
}

func requireRow(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("enrollment %s: %w", id, ErrNotFound)
	}
	return nil
}
