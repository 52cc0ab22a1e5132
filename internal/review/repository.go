package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uninest/uninest/internal/db"
)

// ErrNotFound is returned when a review does not exist.
var ErrNotFound = errors.New("review not found")

// Repository provides data access for reviews.
type Repository struct {
	q db.Querier
}

// NewRepository creates a review repository.
func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{q: tx}
}

const selectColumns = `id, property_id, student_id, student_name, rating, comment, created_at, updated_at`

func scanReview(row interface{ Scan(...any) error }) (*Review, error) {
	var rv Review
	err := row.Scan(&rv.ID, &rv.PropertyID, &rv.StudentID, &rv.StudentName,
		&rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

// Insert stores a new review.
func (r *Repository) Insert(ctx context.Context, rv *Review) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO reviews
		(id, property_id, student_id, student_name, rating, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rv.ID, rv.PropertyID, rv.StudentID, rv.StudentName, rv.Rating, rv.Comment, rv.CreatedAt, rv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting review: %w", err)
	}
	return nil
}

// Get returns a review by ID.
func (r *Repository) Get(ctx context.Context, id string) (*Review, error) {
	rv, err := scanReview(r.q.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM reviews WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("review %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying review %s: %w", id, err)
	}
	return rv, nil
}

// Exists reports whether studentID already reviewed propertyID.
func (r *Repository) Exists(ctx context.Context, propertyID, studentID string) (bool, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reviews WHERE property_id = ? AND student_id = ?",
		propertyID, studentID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking existing review: %w", err)
	}
	return n > 0, nil
}

// ListByProperty returns a property's reviews, newest first.
func (r *Repository) ListByProperty(ctx context.Context, propertyID string) (reviews []*Review, err error) {
	rows, err := r.q.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM reviews WHERE property_id = ? ORDER BY created_at DESC, id",
		propertyID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

// Update stores a new rating and comment.
func (r *Repository) Update(ctx context.Context, rv *Review) error {
	result, err := r.q.ExecContext(ctx,
		"UPDATE reviews SET rating = ?, comment = ?, updated_at = ? WHERE id = ?",
		rv.Rating, rv.Comment, rv.UpdatedAt, rv.ID,
	)
	if err != nil {
		return fmt.Errorf("updating review %s: %w", rv.ID, err)
	}
	return requireRow(result, rv.ID)
}

// Delete removes a review.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, "DELETE FROM reviews WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting review %s: %w", id, err)
	}
	return requireRow(result, id)
}

// Stats returns the number of reviews of a property and their mean rating.
func (r *Repository) Stats(ctx context.Context, propertyID string) (count int64, avg float64, err error) {
	err = r.q.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE property_id = ?",
		propertyID,
	).Scan(&count, &avg)
	if err != nil {
		return 0, 0, fmt.Errorf("aggregating reviews of %s: %w", propertyID, err)
	}
	return count, avg, nil
}

func requireRow(result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("review %s: %w", id, ErrNotFound)
	}
	return nil
}
