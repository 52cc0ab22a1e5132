package rules

var (
	userCommonFields = []string{
		"uid", "email", "role", "fullName", "phoneNumber", "profilePictureUrl",
		"nationalId", "createdAt", "updatedAt",
	}
	userStudentFields  = []string{"studentId", "university", "nextOfKin", "savedProperties"}
	userRequiredFields = []string{"uid", "email", "role", "fullName", "createdAt", "updatedAt"}
	userImmutable      = []string{"uid", "email", "role", "createdAt"}
)

// UserFields returns the fields a user document of role may carry.
func UserFields(role Role) []string {
	if role == RoleStudent {
		return append(append([]string{}, userCommonFields...), userStudentFields...)
	}
	return userCommonFields
}

// CanReadUser allows any signed-in caller to read a user document.
func (e *Engine) CanReadUser(auth *Auth) error {
	return allow(auth.signedIn())
}

// CreateUser allows a caller to create only their own user document.
func (e *Engine) CreateUser(req Request, doc Doc) error {
	if !req.Auth.is(req.ID) || req.Auth.Email == "" {
		return ErrPermissionDenied
	}
	uid, _ := doc.String("uid")
	email, _ := doc.String("email")
	role, _ := doc.String("role")
	if uid != req.ID || email != req.Auth.Email || !ValidRole(role) {
		return ErrPermissionDenied
	}

	keys := doc.Keys()
	return allow(keys.HasAll(userRequiredFields...) &&
		keys.HasOnly(UserFields(Role(role))...) &&
		stampedAt(doc, "createdAt", req.Time) &&
		stampedAt(doc, "updatedAt", req.Time))
}

// UpdateUser allows self-edits that leave identity fields untouched and keep
// role-specific fields consistent with the stored role.
func (e *Engine) UpdateUser(req Request, before, after Doc) error {
	if !req.Auth.is(req.ID) {
		return ErrPermissionDenied
	}
	if AffectedKeys(before, after).HasAny(userImmutable...) {
		return ErrPermissionDenied
	}
	role, _ := before.String("role")
	return allow(after.Keys().HasOnly(UserFields(Role(role))...) &&
		stampedAt(after, "updatedAt", req.Time))
}

// DeleteUser always denies; accounts are not removed through the API.
func (e *Engine) DeleteUser(req Request, before Doc) error {
	return ErrPermissionDenied
}
