package rules

import (
	"context"
	"fmt"
)

// InterestStatus is the state of a booking interest.
type InterestStatus string

const (
	StatusPending   InterestStatus = "pending"
	StatusContacted InterestStatus = "contacted"
	StatusRejected  InterestStatus = "rejected"
	StatusAccepted  InterestStatus = "accepted"
	StatusArchived  InterestStatus = "archived"
)

// ValidStatus returns true if s is a known interest status.
func ValidStatus(s string) bool {
	switch InterestStatus(s) {
	case StatusPending, StatusContacted, StatusRejected, StatusAccepted, StatusArchived:
		return true
	}
	return false
}

var interestFields = []string{
	"propertyId", "propertyTitle", "landlordId", "studentId", "studentName",
	"studentEmail", "studentPhone", "message", "moveInDate", "status",
	"createdAt", "updatedAt",
}

// landlordTransitions lists the status moves a landlord may make.
var landlordTransitions = map[InterestStatus][]InterestStatus{
	StatusPending:   {StatusContacted, StatusAccepted, StatusRejected, StatusArchived},
	StatusContacted: {StatusAccepted, StatusRejected, StatusArchived},
	StatusRejected:  {StatusArchived},
	StatusAccepted:  {StatusArchived},
}

// LandlordCanTransition reports whether a landlord may move an interest from
// one status to another.
func LandlordCanTransition(from, to InterestStatus) bool {
	for _, s := range landlordTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// StudentCanArchive reports whether a student may archive an interest in
// status from.
func StudentCanArchive(from InterestStatus) bool {
	return from != StatusAccepted && from != StatusArchived && ValidStatus(string(from))
}

// CanReadInterest allows the applying student and the property's landlord.
func (e *Engine) CanReadInterest(auth *Auth, doc Doc) error {
	studentID, _ := doc.String("studentId")
	landlordID, _ := doc.String("landlordId")
	return allow(auth.is(studentID) || auth.is(landlordID))
}

// CreateInterest allows a student to apply to a property as pending. The
// landlordId on the document must be the property's actual landlord.
func (e *Engine) CreateInterest(ctx context.Context, req Request, doc Doc) error {
	studentID, _ := doc.String("studentId")
	if !req.Auth.is(studentID) {
		return ErrPermissionDenied
	}
	ok, err := e.hasRole(ctx, req.Auth, RoleStudent)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}

	status, _ := doc.String("status")
	if !doc.Keys().Equals(interestFields...) || InterestStatus(status) != StatusPending {
		return ErrPermissionDenied
	}
	if !stampedAt(doc, "createdAt", req.Time) || !stampedAt(doc, "updatedAt", req.Time) {
		return ErrPermissionDenied
	}

	propertyID, _ := doc.String("propertyId")
	landlordID, _ := doc.String("landlordId")
	return e.ownsProperty(ctx, landlordID, propertyID)
}

// UpdateInterest allows a status change by the landlord along an allowed
// transition, or archival by the student.
func (e *Engine) UpdateInterest(req Request, before, after Doc) error {
	if !AffectedKeys(before, after).Equals("status", "updatedAt") ||
		!stampedAt(after, "updatedAt", req.Time) {
		return ErrPermissionDenied
	}
	from, _ := before.String("status")
	to, _ := after.String("status")
	studentID, _ := before.String("studentId")
	landlordID, _ := before.String("landlordId")

	switch {
	case req.Auth.is(landlordID):
		return allow(LandlordCanTransition(InterestStatus(from), InterestStatus(to)))
	case req.Auth.is(studentID):
		return allow(InterestStatus(to) == StatusArchived && StudentCanArchive(InterestStatus(from)))
	}
	return ErrPermissionDenied
}

// DeleteInterest always denies; interests are archived instead.
func (e *Engine) DeleteInterest(req Request, before Doc) error {
	return ErrPermissionDenied
}

// ownsProperty allows when landlordID is the recorded landlord of propertyID.
func (e *Engine) ownsProperty(ctx context.Context, landlordID, propertyID string) error {
	got, ok, err := e.dir.PropertyLandlord(ctx, propertyID)
	if err != nil {
		return fmt.Errorf("resolving landlord of %s: %w", propertyID, err)
	}
	return allow(ok && landlordID != "" && got == landlordID)
}
