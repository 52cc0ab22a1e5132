package booking

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/uninest/uninest/internal/db"
	"github.com/uninest/uninest/internal/property"
	"github.com/uninest/uninest/internal/rules"
)

// Notifier is told about interest activity. Delivery failures are logged
// and never fail the write.
type Notifier interface {
	InterestCreated(ctx context.Context, i *Interest) error
	InterestStatusChanged(ctx context.Context, i *Interest) error
}

// Service manages booking interests.
type Service struct {
	db       *sql.DB
	repo     *Repository
	props    *property.Service
	rules    *rules.Engine
	notifier Notifier
	now      func() time.Time
}

// NewService creates a booking service. notifier may be nil.
func NewService(database *sql.DB, props *property.Service, engine *rules.Engine, notifier Notifier) *Service {
	return &Service{
		db:       database,
		repo:     NewRepository(database),
		props:    props,
		rules:    engine,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput is a student's application. Student contact fields are
// filled from the caller's user document.
type CreateInput struct {
	PropertyID   string `json:"propertyId" validate:"required"`
	Message      string `json:"message" validate:"max=2000"`
	MoveInDate   string `json:"moveInDate" validate:"omitempty,datetime=2006-01-02"`
	StudentPhone string `json:"studentPhone" validate:"omitempty,max=32"`
	StudentName  string `json:"-"`
	StudentEmail string `json:"-"`
}

// Create records a pending interest and bumps the property's interest count.
func (s *Service) Create(ctx context.Context, auth *rules.Auth, in CreateInput) (*Interest, error) {
	if auth == nil {
		return nil, rules.ErrUnauthenticated
	}
	p, err := s.props.Get(ctx, auth, in.PropertyID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	i := &Interest{
		ID:            uuid.NewString(),
		PropertyID:    p.ID,
		PropertyTitle: p.Title,
		LandlordID:    p.LandlordID,
		StudentID:     auth.UID,
		StudentName:   in.StudentName,
		StudentEmail:  in.StudentEmail,
		StudentPhone:  strings.TrimSpace(in.StudentPhone),
		Message:       strings.TrimSpace(in.Message),
		MoveInDate:    in.MoveInDate,
		Status:        rules.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.rules.CreateInterest(ctx, rules.Request{Auth: auth, ID: i.ID, Time: now}, i.Doc()); err != nil {
		return nil, err
	}

	err = db.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).Insert(ctx, i); err != nil {
			return err
		}
		return s.props.WithTx(tx).AdjustInterested(ctx, auth, p.ID, 1)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, "interest created", i, func(n Notifier) error { return n.InterestCreated(ctx, i) })
	return i, nil
}

// Get returns an interest the caller is party to.
func (s *Service) Get(ctx context.Context, auth *rules.Auth, id string) (*Interest, error) {
	i, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.rules.CanReadInterest(auth, i.Doc()); err != nil {
		return nil, err
	}
	return i, nil
}

// Mine returns the interests the caller sent (as a student) or received
// (as a landlord), optionally limited to one status.
func (s *Service) Mine(ctx context.Context, auth *rules.Auth, status rules.InterestStatus) ([]*Interest, error) {
	if auth == nil {
		return nil, rules.ErrUnauthenticated
	}
	sent, err := s.repo.List(ctx, ListOptions{StudentID: auth.UID, Status: status})
	if err != nil {
		return nil, err
	}
	received, err := s.repo.List(ctx, ListOptions{LandlordID: auth.UID, Status: status})
	if err != nil {
		return nil, err
	}
	return append(sent, received...), nil
}

// SetStatus moves an interest to status. A student withdrawing by archiving
// also releases their place in the property's interest count.
func (s *Service) SetStatus(ctx context.Context, auth *rules.Auth, id string, status rules.InterestStatus) (*Interest, error) {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	after := *before
	after.Status = status
	after.UpdatedAt = now

	if err := s.rules.UpdateInterest(rules.Request{Auth: auth, ID: id, Time: now}, before.Doc(), after.Doc()); err != nil {
		return nil, err
	}

	withdrawn := status == rules.StatusArchived && auth != nil && auth.UID == before.StudentID
	err = db.InTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.repo.WithTx(tx).SetStatus(ctx, id, before.Status, status, now); err != nil {
			return err
		}
		if withdrawn {
			return s.props.WithTx(tx).AdjustInterested(ctx, auth, before.PropertyID, -1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, "interest status changed", &after, func(n Notifier) error { return n.InterestStatusChanged(ctx, &after) })
	return &after, nil
}

// Delete is rejected by the rules for every caller.
func (s *Service) Delete(ctx context.Context, auth *rules.Auth, id string) error {
	before, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.rules.DeleteInterest(rules.Request{Auth: auth, ID: id, Time: s.now()}, before.Doc())
}

func (s *Service) notify(ctx context.Context, event string, i *Interest, send func(Notifier) error) {
	if s.notifier == nil {
		return
	}
	if err := send(s.notifier); err != nil {
		slog.WarnContext(ctx, "notification failed", "event", event, "interest", i.ID, "err", err)
	}
}
