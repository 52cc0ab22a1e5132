// Package user provides the user document model and data access.
package user

import (
	"time"

	"github.com/uninest/uninest/internal/rules"
)

// NextOfKin is a student's emergency contact.
type NextOfKin struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

// User is a marketplace account. Student-only fields stay nil for landlords.
type User struct {
	UID               string     `json:"uid"`
	Email             string     `json:"email"`
	Role              rules.Role `json:"role"`
	FullName          string     `json:"fullName"`
	PhoneNumber       *string    `json:"phoneNumber,omitempty"`
	ProfilePictureURL *string    `json:"profilePictureUrl,omitempty"`
	NationalID        *string    `json:"nationalId,omitempty"`
	StudentID         *string    `json:"studentId,omitempty"`
	University        *string    `json:"university,omitempty"`
	NextOfKin         *NextOfKin `json:"nextOfKin,omitempty"`
	SavedProperties   []string   `json:"savedProperties,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// IsStudent reports whether the user has the student role.
func (u *User) IsStudent() bool {
	return u.Role == rules.RoleStudent
}

// HasSaved reports whether propertyID is in the saved list.
func (u *User) HasSaved(propertyID string) bool {
	for _, id := range u.SavedProperties {
		if id == propertyID {
			return true
		}
	}
	return false
}

// Doc returns the user as the rule engine sees it. Unset optional fields
// are absent.
func (u *User) Doc() rules.Doc {
	d := rules.Doc{
		"uid":       u.UID,
		"email":     u.Email,
		"role":      string(u.Role),
		"fullName":  u.FullName,
		"createdAt": u.CreatedAt,
		"updatedAt": u.UpdatedAt,
	}
	optional := map[string]*string{
		"phoneNumber":       u.PhoneNumber,
		"profilePictureUrl": u.ProfilePictureURL,
		"nationalId":        u.NationalID,
		"studentId":         u.StudentID,
		"university":        u.University,
	}
	for k, v := range optional {
		if v != nil {
			d[k] = *v
		}
	}
	if u.NextOfKin != nil {
		d["nextOfKin"] = *u.NextOfKin
	}
	if u.SavedProperties != nil {
		d["savedProperties"] = append([]string{}, u.SavedProperties...)
	}
	return d
}

// clone returns a deep copy so edits can be diffed against the original.
func (u *User) clone() *User {
	c := *u
	if u.NextOfKin != nil {
		k := *u.NextOfKin
		c.NextOfKin = &k
	}
	if u.SavedProperties != nil {
		c.SavedProperties = append([]string{}, u.SavedProperties...)
	}
	return &c
}
