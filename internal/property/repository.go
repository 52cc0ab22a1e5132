package property

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uninest/uninest/internal/db"
)

var (
	// ErrNotFound is returned when a property does not exist.
	ErrNotFound = errors.New("property not found")
	// ErrCounterConflict is returned when a counter change would take a
	// counter below zero.
	ErrCounterConflict = errors.New("counter cannot go below zero")
	// ErrInvalidType is returned for an unknown propertyType.
	ErrInvalidType = errors.New("unknown property type")
)

// Counter names a property counter column.
type Counter string

const (
	CounterViews      Counter = "view_count"
	CounterInterested Counter = "interested_count"
	CounterEnrolled   Counter = "enrolled_students_count"
)

// field returns the wire name of the counter.
func (c Counter) field() string {
	switch c {
	case CounterViews:
		return "viewCount"
	case CounterInterested:
		return "interestedCount"
	case CounterEnrolled:
		return "enrolledStudentsCount"
	}
	return ""
}

// Repository provides data access for properties.
type Repository struct {
	q db.Querier
}

// NewRepository creates a property repository.
func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{q: tx}
}

const selectColumns = `id, landlord_id, landlord_name, title, description, address, city, university,
	property_type, monthly_rent, bedrooms, bathrooms, capacity, amenities, images, available,
	view_count, interested_count, enrolled_students_count, review_count, average_rating,
	created_at, updated_at`

// Insert stores a new property.
func (r *Repository) Insert(ctx context.Context, p *Property) error {
	amenities, err := encodeList(p.Amenities)
	if err != nil {
		return fmt.Errorf("encoding amenities: %w", err)
	}
	images, err := encodeList(p.Images)
	if err != nil {
		return fmt.Errorf("encoding images: %w", err)
	}

	_, err = r.q.ExecContext(ctx, `INSERT INTO properties
		(id, landlord_id, landlord_name, title, description, address, city, university,
		 property_type, monthly_rent, bedrooms, bathrooms, capacity, amenities, images, available,
		 view_count, interested_count, enrolled_students_count, review_count, average_rating,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.LandlordID, p.LandlordName, p.Title, p.Description, p.Address, p.City, p.University,
		string(p.PropertyType), p.MonthlyRent, p.Bedrooms, p.Bathrooms, p.Capacity, amenities, images, p.Available,
		p.ViewCount, p.InterestedCount, p.EnrolledStudentsCount, p.ReviewCount, p.AverageRating,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting property: %w", err)
	}
	return nil
}

// Get returns a property by its ID.
func (r *Repository) Get(ctx context.Context, id string) (*Property, error) {
	row := r.q.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM properties WHERE id = ?", id)

	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("property %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying property %s: %w", id, err)
	}
	return p, nil
}

// Landlord returns the landlord of a property. The bool is false when the
// property does not exist.
func (r *Repository) Landlord(ctx context.Context, id string) (string, bool, error) {
	var landlordID string
	err := r.q.QueryRowContext(ctx, "SELECT landlord_id FROM properties WHERE id = ?", id).Scan(&landlordID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying landlord of %s: %w", id, err)
	}
	return landlordID, true, nil
}

// ListOptions controls filtering for List.
type ListOptions struct {
	City          string
	University    string
	MaxRent       *int64
	LandlordID    string
	AvailableOnly bool
	Limit         int
}

// List returns properties, newest first, optionally filtered.
func (r *Repository) List(ctx context.Context, opts ListOptions) (properties []*Property, err error) {
	query := "SELECT " + selectColumns + " FROM properties"
	var args []any
	var conditions []string

	if opts.City != "" {
		conditions = append(conditions, "LOWER(city) = LOWER(?)")
		args = append(args, opts.City)
	}
	if opts.University != "" {
		conditions = append(conditions, "LOWER(university) = LOWER(?)")
		args = append(args, opts.University)
	}
	if opts.MaxRent != nil {
		conditions = append(conditions, "monthly_rent <= ?")
		args = append(args, *opts.MaxRent)
	}
	if opts.LandlordID != "" {
		conditions = append(conditions, "landlord_id = ?")
		args = append(args, opts.LandlordID)
	}
	if opts.AvailableOnly {
		conditions = append(conditions, "available = 1")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing rows: %w", closeErr)
		}
	}()

	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating properties: %w", err)
	}
	return properties, nil
}

// Update overwrites the landlord-editable columns and updated_at.
func (r *Repository) Update(ctx context.Context, p *Property) error {
	amenities, err := encodeList(p.Amenities)
	if err != nil {
		return fmt.Errorf("encoding amenities: %w", err)
	}
	images, err := encodeList(p.Images)
	if err != nil {
		return fmt.Errorf("encoding images: %w", err)
	}

	result, err := r.q.ExecContext(ctx, `UPDATE properties SET
		landlord_name = ?, title = ?, description = ?, address = ?, city = ?, university = ?,
		property_type = ?, monthly_rent = ?, bedrooms = ?, bathrooms = ?, capacity = ?,
		amenities = ?, images = ?, available = ?, updated_at = ?
		WHERE id = ?`,
		p.LandlordName, p.Title, p.Description, p.Address, p.City, p.University,
		string(p.PropertyType), p.MonthlyRent, p.Bedrooms, p.Bathrooms, p.Capacity,
		amenities, images, p.Available, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating property %s: %w", p.ID, err)
	}
	return requireRow(result, p.ID)
}

// AddToCounter adds delta to a counter in a single statement. It fails
// with ErrCounterConflict rather than let the counter go negative.
func (r *Repository) AddToCounter(ctx context.Context, id string, c Counter, delta int64) error {
	if c.field() == "" {
		return fmt.Errorf("unknown counter %q", c)
	}
	query := fmt.Sprintf("UPDATE properties SET %[1]s = %[1]s + ? WHERE id = ? AND %[1]s + ? >= 0", c)
	result, err := r.q.ExecContext(ctx, query, delta, id, delta)
	if err != nil {
		return fmt.Errorf("updating %s of %s: %w", c, id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		if _, ok, err := r.Landlord(ctx, id); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("property %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("%s of %s: %w", c, id, ErrCounterConflict)
	}
	return nil
}

// SetRating stores a recomputed review count and average.
func (r *Repository) SetRating(ctx context.Context, id string, count int64, avg float64) error {
	result, err := r.q.ExecContext(ctx,
		"UPDATE properties SET review_count = ?, average_rating = ? WHERE id = ?",
		count, avg, id,
	)
	if err != nil {
		return fmt.Errorf("updating rating of %s: %w", id, err)
	}
	return requireRow(result, id)
}

// Delete removes a property. Reviews, interests and enrollments cascade.
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, "DELETE FROM properties WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting property: %w", err)
	}
	return requireRow(result, id)
}

func requireRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("property %s: %w", id, ErrNotFound)
	}
	return nil
}
