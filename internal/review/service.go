package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/uninest/uninest/internal/db"
	"github.com/uninest/uninest/internal/property"
	"github.com/uninest/uninest/internal/rules"
)

// ErrDuplicateReview is returned when a student reviews a property twice.
var ErrDuplicateReview = errors.New("property already reviewed")

// Service writes reviews and keeps the property rating in step.
type Service struct {
	db    *sql.DB
	repo  *Repository
	props *property.Service
	rules *rules.Engine
	now   func() time.Time
}

// NewService creates a review service.
func NewService(database *sql.DB, props *property.Service, engine *rules.Engine) *Service {
	return &Service{
		db:    database,
		repo:  NewRepository(database),
		props: props,
		rules: engine,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput is a new review.
type CreateInput struct {
	Rating      int64  `json:"rating" validate:"required,min=1,max=5"`
	Comment     string `json:"comment" validate:"max=2000"`
	StudentName string `json:"-"`
}

// Create adds the caller's review of propertyID.
func (s *Service) Create(ctx context.Context, auth *rules.Auth, propertyID string, in CreateInput) (*Review, error) {
	if auth == nil {
		return nil, rules.ErrUnauthenticated
	}
	if _, err := s.props.Get(ctx, auth, propertyID); err != nil {
		return nil, err
	}
	// One review per student and property is enforced here only.
	exists, err := s.repo.Exists(ctx, propertyID, auth.UID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateReview
	}

	now := s.now()
	rv := &Review{
		ID:          uuid.NewString(),
		PropertyID:  propertyID,
		StudentID:   auth.UID,
		StudentName: in.StudentName,
		Rating:      in.Rating,
		Comment:     strings.TrimSpace(in.Comment),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.rules.CreateReview(ctx, rules.Request{Auth: auth, ID: rv.ID, Time: now}, rv.Doc()); err != nil {
		return nil, err
	}

	err = db.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).Insert(ctx, rv); err != nil {
			return err
		}
		return s.recompute(ctx, tx, auth, propertyID)
	})
	if err != nil {
		return nil, err
	}
	return rv, nil
}

// List returns the reviews of a property. Reads are public.
func (s *Service) List(ctx context.Context, auth *rules.Auth, propertyID string) ([]*Review, error) {
	if err := s.rules.CanReadReview(auth); err != nil {
		return nil, err
	}
	return s.repo.ListByProperty(ctx, propertyID)
}

// Patch changes a review's rating or comment.
type Patch struct {
	Rating  *int64  `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

// Update edits the caller's review.
func (s *Service) Update(ctx context.Context, auth *rules.Auth, id string, p Patch) (*Review, error) {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	after := *before
	if p.Rating != nil {
		after.Rating = *p.Rating
	}
	if p.Comment != nil {
		after.Comment = strings.TrimSpace(*p.Comment)
	}
	after.UpdatedAt = now

	if err := s.rules.UpdateReview(rules.Request{Auth: auth, ID: id, Time: now}, before.Doc(), after.Doc()); err != nil {
		return nil, err
	}
	err = db.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).Update(ctx, &after); err != nil {
			return err
		}
		return s.recompute(ctx, tx, auth, after.PropertyID)
	})
	if err != nil {
		return nil, err
	}
	return &after, nil
}

// Delete removes the caller's review.
func (s *Service) Delete(ctx context.Context, auth *rules.Auth, id string) error {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.rules.DeleteReview(rules.Request{Auth: auth, ID: id, Time: s.now()}, before.Doc()); err != nil {
		return err
	}
	return db.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			return err
		}
		return s.recompute(ctx, tx, auth, before.PropertyID)
	})
}

// recompute aggregates the property's reviews inside tx and stores the result.
func (s *Service) recompute(ctx context.Context, tx *sql.Tx, auth *rules.Auth, propertyID string) error {
	count, avg, err := s.repo.WithTx(tx).Stats(ctx, propertyID)
	if err != nil {
		return err
	}
	if err := s.props.WithTx(tx).ApplyRating(ctx, auth, propertyID, count, avg); err != nil {
		return fmt.Errorf("recomputing rating of %s: %w", propertyID, err)
	}
	return nil
}
