// Package rules decides whether a document or file operation is allowed.
//
// Every collection has read, create, update and delete predicates that are
// evaluated against the caller and the proposed document. Writes are judged
// on the shape of the diff between the stored and the proposed document.
// A failing predicate yields ErrPermissionDenied and nothing more.
package rules

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPermissionDenied is returned for every rejected operation.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUnauthenticated is returned by callers of the engine when an
	// operation needs a signed-in caller and none is present.
	ErrUnauthenticated = errors.New("authentication required")
)

// Role is a user's marketplace role.
type Role string

const (
	RoleStudent  Role = "student"
	RoleLandlord Role = "landlord"
)

// ValidRole returns true if s is a known role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleStudent, RoleLandlord:
		return true
	}
	return false
}

// Auth identifies the caller. A nil *Auth is an unauthenticated caller.
type Auth struct {
	UID   string
	Email string
}

func (a *Auth) signedIn() bool {
	return a != nil && a.UID != ""
}

// is reports whether the caller is the user uid.
func (a *Auth) is(uid string) bool {
	return a.signedIn() && uid != "" && a.UID == uid
}

// Directory resolves facts stored in other documents. The bool result is
// false when the referenced document does not exist.
type Directory interface {
	UserRole(ctx context.Context, uid string) (Role, bool, error)
	PropertyLandlord(ctx context.Context, propertyID string) (string, bool, error)
}

// Request describes a single write.
type Request struct {
	Auth *Auth
	ID   string    // ID of the document being written
	Time time.Time // server time; createdAt/updatedAt must equal it
}

// Engine evaluates the rule set.
type Engine struct {
	dir Directory
}

// NewEngine creates an engine that resolves cross-document facts with dir.
func NewEngine(dir Directory) *Engine {
	return &Engine{dir: dir}
}

func allow(ok bool) error {
	if ok {
		return nil
	}
	return ErrPermissionDenied
}

// hasRole reports whether the caller's user document carries role.
func (e *Engine) hasRole(ctx context.Context, auth *Auth, role Role) (bool, error) {
	if !auth.signedIn() {
		return false, nil
	}
	got, ok, err := e.dir.UserRole(ctx, auth.UID)
	if err != nil {
		return false, fmt.Errorf("resolving role of %s: %w", auth.UID, err)
	}
	return ok && got == role, nil
}
