package rules

import "context"

var (
	propertyEditableFields = []string{
		"title", "description", "address", "city", "university", "propertyType",
		"monthlyRent", "bedrooms", "bathrooms", "capacity", "amenities", "images",
		"available", "landlordName",
	}
	propertyCounterFields = []string{
		"viewCount", "interestedCount", "enrolledStudentsCount", "reviewCount", "averageRating",
	}
	propertyRequiredFields = []string{
		"landlordId", "title", "address", "city", "propertyType", "monthlyRent",
		"viewCount", "interestedCount", "enrolledStudentsCount", "reviewCount", "averageRating",
		"createdAt", "updatedAt",
	}
)

func propertyValidFields() []string {
	fields := append([]string{"landlordId", "createdAt", "updatedAt"}, propertyEditableFields...)
	return append(fields, propertyCounterFields...)
}

// PropertyUpdateKind is the shape of a property update. Each update must
// match exactly one shape.
type PropertyUpdateKind int

const (
	LandlordEdit PropertyUpdateKind = iota
	ViewIncrement
	InterestIncrement
	RatingUpdate
	EnrollmentCountChange
)

func (k PropertyUpdateKind) String() string {
	switch k {
	case ViewIncrement:
		return "view_increment"
	case InterestIncrement:
		return "interest_increment"
	case RatingUpdate:
		return "rating_update"
	case EnrollmentCountChange:
		return "enrollment_count_change"
	default:
		return "landlord_edit"
	}
}

// ClassifyPropertyUpdate picks the update shape from the diff's affected keys.
// Any diff that is not exactly one counter shape is treated as a landlord edit.
func ClassifyPropertyUpdate(before, after Doc) PropertyUpdateKind {
	changed := AffectedKeys(before, after)
	switch {
	case changed.Equals("viewCount"):
		return ViewIncrement
	case changed.Equals("interestedCount"):
		return InterestIncrement
	case changed.Equals("averageRating", "reviewCount"), changed.Equals("averageRating"):
		return RatingUpdate
	case changed.Equals("enrolledStudentsCount"):
		return EnrollmentCountChange
	default:
		return LandlordEdit
	}
}

// CanReadProperty allows everyone, signed in or not.
func (e *Engine) CanReadProperty(auth *Auth) error {
	return nil
}

// CreateProperty allows a landlord to list a property they own with all
// counters at zero.
func (e *Engine) CreateProperty(ctx context.Context, req Request, doc Doc) error {
	landlordID, _ := doc.String("landlordId")
	if !req.Auth.is(landlordID) {
		return ErrPermissionDenied
	}
	ok, err := e.hasRole(ctx, req.Auth, RoleLandlord)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}

	keys := doc.Keys()
	if !keys.HasAll(propertyRequiredFields...) || !keys.HasOnly(propertyValidFields()...) {
		return ErrPermissionDenied
	}
	for _, c := range propertyCounterFields {
		if n, ok := doc.Number(c); !ok || n != 0 {
			return ErrPermissionDenied
		}
	}
	return allow(stampedAt(doc, "createdAt", req.Time) && stampedAt(doc, "updatedAt", req.Time))
}

// UpdateProperty classifies the update and validates it against its shape.
func (e *Engine) UpdateProperty(ctx context.Context, req Request, before, after Doc) error {
	switch ClassifyPropertyUpdate(before, after) {
	case ViewIncrement:
		d, ok := counterDelta(before, after, "viewCount")
		return allow(ok && d == 1)
	case InterestIncrement:
		return e.checkInterestCount(req, before, after)
	case RatingUpdate:
		return e.checkRatingUpdate(req, before, after)
	case EnrollmentCountChange:
		return e.checkEnrollmentCount(ctx, req, before, after)
	default:
		return e.checkLandlordEdit(req, before, after)
	}
}

func (e *Engine) checkInterestCount(req Request, before, after Doc) error {
	if !req.Auth.signedIn() {
		return ErrPermissionDenied
	}
	d, ok := counterDelta(before, after, "interestedCount")
	n, _ := after.Int("interestedCount")
	return allow(ok && (d == 1 || d == -1) && n >= 0)
}

func (e *Engine) checkRatingUpdate(req Request, before, after Doc) error {
	if !req.Auth.signedIn() {
		return ErrPermissionDenied
	}
	avg, ok := after.Number("averageRating")
	if !ok {
		return ErrPermissionDenied
	}
	count, ok := after.Int("reviewCount")
	if !ok || count < 0 {
		return ErrPermissionDenied
	}
	if AffectedKeys(before, after).Has("reviewCount") {
		if d, ok := counterDelta(before, after, "reviewCount"); !ok || (d != 1 && d != -1) {
			return ErrPermissionDenied
		}
	}
	if count == 0 {
		return allow(avg == 0)
	}
	return allow(avg > 0 && avg <= 5)
}

func (e *Engine) checkEnrollmentCount(ctx context.Context, req Request, before, after Doc) error {
	d, ok := counterDelta(before, after, "enrolledStudentsCount")
	if !ok {
		return ErrPermissionDenied
	}
	if n, _ := after.Int("enrolledStudentsCount"); n < 0 {
		return ErrPermissionDenied
	}

	landlordID, _ := before.String("landlordId")
	if req.Auth.is(landlordID) {
		return allow(d == 1 || d == -1)
	}
	if d != -1 {
		return ErrPermissionDenied
	}
	ok, err := e.hasRole(ctx, req.Auth, RoleStudent)
	if err != nil {
		return err
	}
	return allow(ok)
}

func (e *Engine) checkLandlordEdit(req Request, before, after Doc) error {
	landlordID, _ := before.String("landlordId")
	if !req.Auth.is(landlordID) {
		return ErrPermissionDenied
	}
	changed := AffectedKeys(before, after)
	editable := append([]string{"updatedAt"}, propertyEditableFields...)
	return allow(changed.HasOnly(editable...) &&
		changed.Has("updatedAt") &&
		stampedAt(after, "updatedAt", req.Time))
}

// DeleteProperty allows only the owning landlord.
func (e *Engine) DeleteProperty(req Request, before Doc) error {
	landlordID, _ := before.String("landlordId")
	return allow(req.Auth.is(landlordID))
}
