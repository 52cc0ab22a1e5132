package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uninest/uninest/internal/rules"
)

// ErrUnknownProperty is returned when saving a property that does not exist.
var ErrUnknownProperty = errors.New("property not found")

// editAttempts bounds how often an edit re-reads after losing a race.
const editAttempts = 3

// Properties reports the landlord of a property. The bool is false when
// the property does not exist.
type Properties interface {
	Landlord(ctx context.Context, id string) (string, bool, error)
}

// Service applies the user rules around repository writes.
type Service struct {
	repo       *Repository
	properties Properties
	rules      *rules.Engine
	now        func() time.Time
}

// NewService creates a user service.
func NewService(repo *Repository, properties Properties, engine *rules.Engine) *Service {
	return &Service{repo: repo, properties: properties, rules: engine, now: func() time.Time { return time.Now().UTC() }}
}

// CreateInput holds the caller-supplied fields of a new user document.
type CreateInput struct {
	Role        string     `json:"role" validate:"required,oneof=student landlord"`
	FullName    string     `json:"fullName" validate:"required,max=120"`
	PhoneNumber *string    `json:"phoneNumber,omitempty" validate:"omitempty,max=32"`
	NationalID  *string    `json:"nationalId,omitempty" validate:"omitempty,max=64"`
	StudentID   *string    `json:"studentId,omitempty" validate:"omitempty,max=64"`
	University  *string    `json:"university,omitempty" validate:"omitempty,max=120"`
	NextOfKin   *NextOfKin `json:"nextOfKin,omitempty"`
}

// Create writes the caller's own user document. uid and email come from
// the caller's identity.
func (s *Service) Create(ctx context.Context, auth *rules.Auth, in CreateInput) (*User, error) {
	u, err := s.newUser(auth, in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CheckCreate reports whether Create would accept in for auth, without
// writing anything.
func (s *Service) CheckCreate(auth *rules.Auth, in CreateInput) error {
	_, err := s.newUser(auth, in)
	return err
}

func (s *Service) newUser(auth *rules.Auth, in CreateInput) (*User, error) {
	if auth == nil {
		return nil, rules.ErrUnauthenticated
	}
	now := s.now()
	u := &User{
		UID:         auth.UID,
		Email:       auth.Email,
		Role:        rules.Role(in.Role),
		FullName:    strings.TrimSpace(in.FullName),
		PhoneNumber: in.PhoneNumber,
		NationalID:  in.NationalID,
		StudentID:   in.StudentID,
		University:  in.University,
		NextOfKin:   in.NextOfKin,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	req := rules.Request{Auth: auth, ID: auth.UID, Time: now}
	if err := s.rules.CreateUser(req, u.Doc()); err != nil {
		return nil, err
	}
	return u, nil
}

// Get returns a user document.
func (s *Service) Get(ctx context.Context, auth *rules.Auth, uid string) (*User, error) {
	if err := s.rules.CanReadUser(auth); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, uid)
}

// Patch lists the fields a PATCH may carry. Nil fields are left alone.
// Identity fields are accepted so the rules can reject them.
type Patch struct {
	Email             *string    `json:"email,omitempty"`
	Role              *string    `json:"role,omitempty"`
	FullName          *string    `json:"fullName,omitempty" validate:"omitempty,min=1,max=120"`
	PhoneNumber       *string    `json:"phoneNumber,omitempty" validate:"omitempty,max=32"`
	ProfilePictureURL *string    `json:"profilePictureUrl,omitempty" validate:"omitempty,url"`
	NationalID        *string    `json:"nationalId,omitempty" validate:"omitempty,max=64"`
	StudentID         *string    `json:"studentId,omitempty" validate:"omitempty,max=64"`
	University        *string    `json:"university,omitempty" validate:"omitempty,max=120"`
	NextOfKin         *NextOfKin `json:"nextOfKin,omitempty"`
}

func (p Patch) apply(u *User) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Role != nil {
		u.Role = rules.Role(*p.Role)
	}
	if p.FullName != nil {
		u.FullName = strings.TrimSpace(*p.FullName)
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = p.PhoneNumber
	}
	if p.ProfilePictureURL != nil {
		u.ProfilePictureURL = p.ProfilePictureURL
	}
	if p.NationalID != nil {
		u.NationalID = p.NationalID
	}
	if p.StudentID != nil {
		u.StudentID = p.StudentID
	}
	if p.University != nil {
		u.University = p.University
	}
	if p.NextOfKin != nil {
		u.NextOfKin = p.NextOfKin
	}
}

// Update applies p to the caller's own document.
func (s *Service) Update(ctx context.Context, auth *rules.Auth, uid string, p Patch) (*User, error) {
	return s.edit(ctx, auth, uid, p.apply)
}

// SaveProperty adds propertyID to the caller's saved list.
func (s *Service) SaveProperty(ctx context.Context, auth *rules.Auth, propertyID string) (*User, error) {
	if auth == nil {
		return nil, rules.ErrUnauthenticated
	}
	_, ok, err := s.properties.Landlord(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("looking up property %s: %w", propertyID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", propertyID, ErrUnknownProperty)
	}
	return s.edit(ctx, auth, auth.UID, func(u *User) {
		if !u.HasSaved(propertyID) {
			u.SavedProperties = append(u.SavedProperties, propertyID)
		}
	})
}

// UnsaveProperty removes propertyID from the caller's saved list.
func (s *Service) UnsaveProperty(ctx context.Context, auth *rules.Auth, propertyID string) (*User, error) {
	if auth == nil {
		return nil, rules.ErrUnauthenticated
	}
	return s.edit(ctx, auth, auth.UID, func(u *User) {
		kept := make([]string, 0, len(u.SavedProperties))
		for _, id := range u.SavedProperties {
			if id != propertyID {
				kept = append(kept, id)
			}
		}
		u.SavedProperties = kept
	})
}

// edit applies change to the stored document of uid. The write only lands
// if the document is unchanged since it was read; otherwise the edit is
// replayed against a fresh read.
func (s *Service) edit(ctx context.Context, auth *rules.Auth, uid string, change func(*User)) (*User, error) {
	if auth == nil {
		return nil, rules.ErrUnauthenticated
	}
	var err error
	for range editAttempts {
		var u *User
		u, err = s.editOnce(ctx, auth, uid, change)
		if !errors.Is(err, ErrStale) {
			return u, err
		}
	}
	return nil, err
}

func (s *Service) editOnce(ctx context.Context, auth *rules.Auth, uid string, change func(*User)) (*User, error) {
	before, err := s.repo.Get(ctx, uid)
	if err != nil {
		return nil, err
	}

	now := s.now()
	after := before.clone()
	change(after)
	after.UpdatedAt = now

	req := rules.Request{Auth: auth, ID: uid, Time: now}
	if err := s.rules.UpdateUser(req, before.Doc(), after.Doc()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, after, before.UpdatedAt); err != nil {
		return nil, fmt.Errorf("saving user: %w", err)
	}
	return after, nil
}

// Delete is rejected by the rules for every caller.
func (s *Service) Delete(ctx context.Context, auth *rules.Auth, uid string) error {
	before, err := s.repo.Get(ctx, uid)
	if err != nil {
		return err
	}
	return s.rules.DeleteUser(rules.Request{Auth: auth, ID: uid, Time: s.now()}, before.Doc())
}
