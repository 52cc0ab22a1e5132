package rules

import "context"

var enrollmentFields = []string{
	"propertyId", "propertyTitle", "landlordId", "studentId", "studentName",
	"interestId", "leaseStartDate", "leaseEndDate", "monthlyRent", "isActive",
	"createdAt", "updatedAt",
}

// CanReadEnrollment allows the tenant and the landlord.
func (e *Engine) CanReadEnrollment(auth *Auth, doc Doc) error {
	studentID, _ := doc.String("studentId")
	landlordID, _ := doc.String("landlordId")
	return allow(auth.is(studentID) || auth.is(landlordID))
}

// CreateEnrollment allows the property's landlord to open an active tenancy.
func (e *Engine) CreateEnrollment(ctx context.Context, req Request, doc Doc) error {
	landlordID, _ := doc.String("landlordId")
	if !req.Auth.is(landlordID) {
		return ErrPermissionDenied
	}
	active, _ := doc.Bool("isActive")
	if !doc.Keys().Equals(enrollmentFields...) || !active || !leaseOrdered(doc) {
		return ErrPermissionDenied
	}
	if !stampedAt(doc, "createdAt", req.Time) || !stampedAt(doc, "updatedAt", req.Time) {
		return ErrPermissionDenied
	}
	propertyID, _ := doc.String("propertyId")
	return e.ownsProperty(ctx, landlordID, propertyID)
}

// UpdateEnrollment allows the landlord to reschedule or reprice, and the
// student to check out. The two paths never overlap.
func (e *Engine) UpdateEnrollment(req Request, before, after Doc) error {
	changed := AffectedKeys(before, after)
	if !changed.Has("updatedAt") || !stampedAt(after, "updatedAt", req.Time) {
		return ErrPermissionDenied
	}
	studentID, _ := before.String("studentId")
	landlordID, _ := before.String("landlordId")

	switch {
	case req.Auth.is(landlordID):
		return allow(changed.HasOnly("leaseStartDate", "leaseEndDate", "monthlyRent", "updatedAt") &&
			leaseOrdered(after))
	case req.Auth.is(studentID):
		was, _ := before.Bool("isActive")
		now, ok := after.Bool("isActive")
		return allow(changed.Equals("isActive", "actualCheckoutDate", "updatedAt") &&
			was && ok && !now &&
			stampedAt(after, "actualCheckoutDate", req.Time))
	}
	return ErrPermissionDenied
}

// DeleteEnrollment allows the landlord.
func (e *Engine) DeleteEnrollment(req Request, before Doc) error {
	landlordID, _ := before.String("landlordId")
	return allow(req.Auth.is(landlordID))
}

func leaseOrdered(d Doc) bool {
	start, ok := d.Time("leaseStartDate")
	if !ok {
		return false
	}
	end, ok := d.Time("leaseEndDate")
	return ok && end.After(start)
}
