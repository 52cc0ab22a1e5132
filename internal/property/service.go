package property

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/uninest/uninest/internal/rules"
)

// Service provides property business logic.
type Service struct {
	repo  *Repository
	rules *rules.Engine
	now   func() time.Time
}

// NewService creates a property service.
func NewService(repo *Repository, engine *rules.Engine) *Service {
	return &Service{repo: repo, rules: engine, now: func() time.Time { return time.Now().UTC() }}
}

// WithTx returns a service whose writes run inside tx.
func (s *Service) WithTx(tx *sql.Tx) *Service {
	c := *s
	c.repo = s.repo.WithTx(tx)
	return &c
}

// CreateInput holds the fields of a new listing.
type CreateInput struct {
	Title        string   `json:"title" validate:"required,max=200"`
	Description  string   `json:"description" validate:"max=5000"`
	Address      string   `json:"address" validate:"required,max=300"`
	City         string   `json:"city" validate:"required,max=100"`
	University   string   `json:"university" validate:"max=200"`
	PropertyType string   `json:"propertyType" validate:"required,oneof=apartment hostel house room studio"`
	MonthlyRent  int64    `json:"monthlyRent" validate:"gte=0"`
	Bedrooms     int64    `json:"bedrooms" validate:"gte=0"`
	Bathrooms    int64    `json:"bathrooms" validate:"gte=0"`
	Capacity     int64    `json:"capacity" validate:"gte=0"`
	Amenities    []string `json:"amenities" validate:"dive,max=100"`
	Images       []string `json:"images" validate:"dive,url"`
	Available    *bool    `json:"available"`
	LandlordName string   `json:"landlordName" validate:"max=120"`
}

// Create lists a new property for the calling landlord.
func (s *Service) Create(ctx context.Context, auth *rules.Auth, in CreateInput) (*Property, error) {
	if auth == nil {
		return nil, rules.ErrUnauthenticated
	}
	if !ValidType(in.PropertyType) {
		return nil, fmt.Errorf("%q: %w", in.PropertyType, ErrInvalidType)
	}
	now := s.now()
	p := &Property{
		ID:           uuid.NewString(),
		LandlordID:   auth.UID,
		LandlordName: strings.TrimSpace(in.LandlordName),
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Address:      strings.TrimSpace(in.Address),
		City:         strings.TrimSpace(in.City),
		University:   strings.TrimSpace(in.University),
		PropertyType: Type(in.PropertyType),
		MonthlyRent:  in.MonthlyRent,
		Bedrooms:     in.Bedrooms,
		Bathrooms:    in.Bathrooms,
		Capacity:     in.Capacity,
		Amenities:    nonNil(in.Amenities),
		Images:       nonNil(in.Images),
		Available:    in.Available == nil || *in.Available,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	req := rules.Request{Auth: auth, ID: p.ID, Time: now}
	if err := s.rules.CreateProperty(ctx, req, p.Doc()); err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a property. Reads are public.
func (s *Service) Get(ctx context.Context, auth *rules.Auth, id string) (*Property, error) {
	if err := s.rules.CanReadProperty(auth); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// List returns properties matching opts.
func (s *Service) List(ctx context.Context, auth *rules.Auth, opts ListOptions) ([]*Property, error) {
	if err := s.rules.CanReadProperty(auth); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, opts)
}

// Patch lists the fields of a landlord edit. Nil fields are left alone.
// Counter and ownership fields are accepted so the rules can reject them.
type Patch struct {
	Title        *string   `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description  *string   `json:"description,omitempty" validate:"omitempty,max=5000"`
	Address      *string   `json:"address,omitempty" validate:"omitempty,min=1,max=300"`
	City         *string   `json:"city,omitempty" validate:"omitempty,min=1,max=100"`
	University   *string   `json:"university,omitempty" validate:"omitempty,max=200"`
	PropertyType *string   `json:"propertyType,omitempty" validate:"omitempty,oneof=apartment hostel house room studio"`
	MonthlyRent  *int64    `json:"monthlyRent,omitempty" validate:"omitempty,gte=0"`
	Bedrooms     *int64    `json:"bedrooms,omitempty" validate:"omitempty,gte=0"`
	Bathrooms    *int64    `json:"bathrooms,omitempty" validate:"omitempty,gte=0"`
	Capacity     *int64    `json:"capacity,omitempty" validate:"omitempty,gte=0"`
	Amenities    *[]string `json:"amenities,omitempty"`
	Images       *[]string `json:"images,omitempty"`
	Available    *bool     `json:"available,omitempty"`
	LandlordName *string   `json:"landlordName,omitempty" validate:"omitempty,max=120"`

	LandlordID *string `json:"landlordId,omitempty"`
	ViewCount  *int64  `json:"viewCount,omitempty"`
}

func (p Patch) apply(prop *Property) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&prop.Title, p.Title)
	set(&prop.Address, p.Address)
	set(&prop.City, p.City)
	set(&prop.University, p.University)
	set(&prop.LandlordName, p.LandlordName)
	if p.Description != nil {
		prop.Description = *p.Description
	}
	if p.PropertyType != nil {
		prop.PropertyType = Type(*p.PropertyType)
	}
	for _, n := range []struct {
		dst *int64
		src *int64
	}{
		{&prop.MonthlyRent, p.MonthlyRent},
		{&prop.Bedrooms, p.Bedrooms},
		{&prop.Bathrooms, p.Bathrooms},
		{&prop.Capacity, p.Capacity},
		{&prop.ViewCount, p.ViewCount},
	} {
		if n.src != nil {
			*n.dst = *n.src
		}
	}
	if p.Amenities != nil {
		prop.Amenities = nonNil(*p.Amenities)
	}
	if p.Images != nil {
		prop.Images = nonNil(*p.Images)
	}
	if p.Available != nil {
		prop.Available = *p.Available
	}
	if p.LandlordID != nil {
		prop.LandlordID = *p.LandlordID
	}
}

// Update applies a landlord edit.
func (s *Service) Update(ctx context.Context, auth *rules.Auth, id string, patch Patch) (*Property, error) {
	if patch.PropertyType != nil && !ValidType(*patch.PropertyType) {
		return nil, fmt.Errorf("%q: %w", *patch.PropertyType, ErrInvalidType)
	}
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	after := before.clone()
	patch.apply(after)
	after.UpdatedAt = now

	req := rules.Request{Auth: auth, ID: id, Time: now}
	if err := s.rules.UpdateProperty(ctx, req, before.Doc(), after.Doc()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, after); err != nil {
		return nil, err
	}
	return after, nil
}

// Delete removes a property owned by the caller.
func (s *Service) Delete(ctx context.Context, auth *rules.Auth, id string) error {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.rules.DeleteProperty(rules.Request{Auth: auth, ID: id, Time: s.now()}, before.Doc()); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// RecordView counts one view of a property. Any caller may view.
func (s *Service) RecordView(ctx context.Context, auth *rules.Auth, id string) (*Property, error) {
	return s.adjust(ctx, auth, id, CounterViews, 1)
}

// AdjustInterested moves interestedCount by delta.
func (s *Service) AdjustInterested(ctx context.Context, auth *rules.Auth, id string, delta int64) error {
	_, err := s.adjust(ctx, auth, id, CounterInterested, delta)
	return err
}

// AdjustEnrolled moves enrolledStudentsCount by delta.
func (s *Service) AdjustEnrolled(ctx context.Context, auth *rules.Auth, id string, delta int64) error {
	_, err := s.adjust(ctx, auth, id, CounterEnrolled, delta)
	return err
}

// adjust validates a single-counter change against the stored document and
// applies it atomically in SQL.
func (s *Service) adjust(ctx context.Context, auth *rules.Auth, id string, c Counter, delta int64) (*Property, error) {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	beforeDoc := before.Doc()
	afterDoc := before.Doc()
	current, _ := beforeDoc.Int(c.field())
	afterDoc[c.field()] = current + delta

	req := rules.Request{Auth: auth, ID: id, Time: s.now()}
	if err := s.rules.UpdateProperty(ctx, req, beforeDoc, afterDoc); err != nil {
		return nil, err
	}
	if err := s.repo.AddToCounter(ctx, id, c, delta); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// ApplyRating stores a recomputed review count and average rating. The
// average is rounded to two decimals. Nothing is written when neither
// value changed.
func (s *Service) ApplyRating(ctx context.Context, auth *rules.Auth, id string, count int64, avg float64) error {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	avg = math.Round(avg*100) / 100
	after := before.clone()
	after.ReviewCount = count
	after.AverageRating = avg
	if count == 0 {
		after.AverageRating = 0
	}

	beforeDoc, afterDoc := before.Doc(), after.Doc()
	if len(rules.AffectedKeys(beforeDoc, afterDoc)) == 0 {
		return nil
	}
	req := rules.Request{Auth: auth, ID: id, Time: s.now()}
	if err := s.rules.UpdateProperty(ctx, req, beforeDoc, afterDoc); err != nil {
		return fmt.Errorf("rating update: %w", err)
	}
	return s.repo.SetRating(ctx, id, after.ReviewCount, after.AverageRating)
}
