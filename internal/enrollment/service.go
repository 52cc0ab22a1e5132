package enrollment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/uninest/uninest/internal/booking"
	"github.com/uninest/uninest/internal/db"
	"github.com/uninest/uninest/internal/property"
	"github.com/uninest/uninest/internal/rules"
)

// ErrInvalidInput is returned for malformed lease dates.
var ErrInvalidInput = errors.New("invalid input")

// Service manages tenancies.
type Service struct {
	db        *sql.DB
	repo      *Repository
	interests *booking.Repository
	props     *property.Service
	rules     *rules.Engine
	now       func() time.Time
}

// NewService creates an enrollment service.
func NewService(database *sql.DB, props *property.Service, engine *rules.Engine) *Service {
	return &Service{
		db:        database,
		repo:      NewRepository(database),
		interests: booking.NewRepository(database),
		props:     props,
		rules:     engine,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// EnrollInput holds the lease terms of a new enrollment. MonthlyRent
// defaults to the property's rent.
type EnrollInput struct {
	LeaseStartDate string `json:"leaseStartDate" validate:"required,datetime=2006-01-02"`
	LeaseEndDate   string `json:"leaseEndDate" validate:"required,datetime=2006-01-02"`
	MonthlyRent    *int64 `json:"monthlyRent,omitempty" validate:"omitempty,gte=0"`
}

func parseLease(start, end string) (time.Time, time.Time, error) {
	s, err := ParseDate(start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("lease start %q: %w", start, ErrInvalidInput)
	}
	e, err := ParseDate(end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("lease end %q: %w", end, ErrInvalidInput)
	}
	return s, e, nil
}

// EnrollFromInterest accepts a booking interest and opens the tenancy in one
// transaction: the interest moves to accepted, the enrollment is created and
// the property's enrolled count goes up by one.
func (s *Service) EnrollFromInterest(ctx context.Context, auth *rules.Auth, interestID string, in EnrollInput) (*Enrollment, error) {
	if auth == nil {
		return nil, rules.ErrUnauthenticated
	}
	start, end, err := parseLease(in.LeaseStartDate, in.LeaseEndDate)
	if err != nil {
		return nil, err
	}

	var created *Enrollment
	err = db.InTx(ctx, s.db, func(tx *sql.Tx) error {
		interests := s.interests.WithTx(tx)
		props := s.props.WithTx(tx)

		interest, err := interests.Get(ctx, interestID)
		if err != nil {
			return err
		}
		p, err := props.Get(ctx, auth, interest.PropertyID)
		if err != nil {
			return err
		}

		now := s.now()
		accepted := *interest
		accepted.Status = rules.StatusAccepted
		accepted.UpdatedAt = now
		req := rules.Request{Auth: auth, ID: interestID, Time: now}
		if err := s.rules.UpdateInterest(req, interest.Doc(), accepted.Doc()); err != nil {
			return err
		}

		rent := p.MonthlyRent
		if in.MonthlyRent != nil {
			rent = *in.MonthlyRent
		}
		e := &Enrollment{
			ID:             uuid.NewString(),
			PropertyID:     p.ID,
			PropertyTitle:  p.Title,
			LandlordID:     interest.LandlordID,
			StudentID:      interest.StudentID,
			StudentName:    interest.StudentName,
			InterestID:     interest.ID,
			LeaseStartDate: start,
			LeaseEndDate:   end,
			MonthlyRent:    rent,
			IsActive:       true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		req.ID = e.ID
		if err := s.rules.CreateEnrollment(ctx, req, e.Doc()); err != nil {
			return err
		}

		if err := interests.SetStatus(ctx, interestID, interest.Status, rules.StatusAccepted, now); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Insert(ctx, e); err != nil {
			return err
		}
		if err := props.AdjustEnrolled(ctx, auth, p.ID, 1); err != nil {
			return err
		}
		created = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get returns an enrollment the caller is party to.
func (s *Service) Get(ctx context.Context, auth *rules.Auth, id string) (*Enrollment, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.rules.CanReadEnrollment(auth, e.Doc()); err != nil {
		return nil, err
	}
	return e, nil
}

// Mine returns the caller's enrollments as tenant or landlord. active nil
// includes past tenancies.
func (s *Service) Mine(ctx context.Context, auth *rules.Auth, active *bool) ([]*Enrollment, error) {
	if auth == nil {
		return nil, rules.ErrUnauthenticated
	}
	asTenant, err := s.repo.List(ctx, ListOptions{StudentID: auth.UID, Active: active})
	if err != nil {
		return nil, err
	}
	asLandlord, err := s.repo.List(ctx, ListOptions{LandlordID: auth.UID, Active: active})
	if err != nil {
		return nil, err
	}
	return append(asTenant, asLandlord...), nil
}

// Patch changes lease terms. Nil fields are left alone.
type Patch struct {
	LeaseStartDate *string `json:"leaseStartDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	LeaseEndDate   *string `json:"leaseEndDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	MonthlyRent    *int64  `json:"monthlyRent,omitempty" validate:"omitempty,gte=0"`
}

// Update lets the landlord change the lease dates and rent.
func (s *Service) Update(ctx context.Context, auth *rules.Auth, id string, p Patch) (*Enrollment, error) {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	after := *before
	if p.LeaseStartDate != nil {
		if after.LeaseStartDate, err = ParseDate(*p.LeaseStartDate); err != nil {
			return nil, fmt.Errorf("lease start %q: %w", *p.LeaseStartDate, ErrInvalidInput)
		}
	}
	if p.LeaseEndDate != nil {
		if after.LeaseEndDate, err = ParseDate(*p.LeaseEndDate); err != nil {
			return nil, fmt.Errorf("lease end %q: %w", *p.LeaseEndDate, ErrInvalidInput)
		}
	}
	if p.MonthlyRent != nil {
		after.MonthlyRent = *p.MonthlyRent
	}
	after.UpdatedAt = now

	if err := s.rules.UpdateEnrollment(rules.Request{Auth: auth, ID: id, Time: now}, before.Doc(), after.Doc()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateTerms(ctx, &after); err != nil {
		return nil, err
	}
	return &after, nil
}

// Checkout ends the caller's own tenancy and frees the place at the property.
func (s *Service) Checkout(ctx context.Context, auth *rules.Auth, id string) (*Enrollment, error) {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	after := *before
	after.IsActive = false
	after.ActualCheckoutDate = &now
	after.UpdatedAt = now

	if err := s.rules.UpdateEnrollment(rules.Request{Auth: auth, ID: id, Time: now}, before.Doc(), after.Doc()); err != nil {
		return nil, err
	}
	err = db.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).Checkout(ctx, id, now); err != nil {
			return err
		}
		return s.props.WithTx(tx).AdjustEnrolled(ctx, auth, before.PropertyID, -1)
	})
	if err != nil {
		return nil, err
	}
	return &after, nil
}

// Delete lets the landlord remove an enrollment. Removing one that is still
// active when the row goes also frees its place at the property.
func (s *Service) Delete(ctx context.Context, auth *rules.Auth, id string) error {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.rules.DeleteEnrollment(rules.Request{Auth: auth, ID: id, Time: s.now()}, before.Doc()); err != nil {
		return err
	}
	return db.InTx(ctx, s.db, func(tx *sql.Tx) error {
		wasActive, err := s.repo.WithTx(tx).Delete(ctx, id)
		if err != nil {
			return err
		}
		if !wasActive {
			return nil
		}
		return s.props.WithTx(tx).AdjustEnrolled(ctx, auth, before.PropertyID, -1)
	})
}
