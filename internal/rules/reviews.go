package rules

import "context"

var reviewFields = []string{
	"propertyId", "studentId", "studentName", "rating", "comment", "createdAt", "updatedAt",
}

func validRating(d Doc) bool {
	r, ok := d.Int("rating")
	return ok && r >= 1 && r <= 5
}

// CanReadReview allows everyone.
func (e *Engine) CanReadReview(auth *Auth) error {
	return nil
}

// CreateReview allows a student to review under their own uid. Whether the
// student already reviewed the property is not checked here.
func (e *Engine) CreateReview(ctx context.Context, req Request, doc Doc) error {
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
	return allow(doc.Keys().Equals(reviewFields...) &&
		validRating(doc) &&
		stampedAt(doc, "createdAt", req.Time) &&
		stampedAt(doc, "updatedAt", req.Time))
}

// UpdateReview allows the author to change the rating and comment.
func (e *Engine) UpdateReview(req Request, before, after Doc) error {
	studentID, _ := before.String("studentId")
	if !req.Auth.is(studentID) {
		return ErrPermissionDenied
	}
	return allow(AffectedKeys(before, after).HasOnly("rating", "comment", "updatedAt") &&
		validRating(after) &&
		stampedAt(after, "updatedAt", req.Time))
}

// DeleteReview allows the author.
func (e *Engine) DeleteReview(req Request, before Doc) error {
	studentID, _ := before.String("studentId")
	return allow(req.Auth.is(studentID))
}
