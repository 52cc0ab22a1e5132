// Package directory answers the rule engine's cross-document lookups from
// the user and property tables.
package directory

import (
	"context"

	"github.com/uninest/uninest/internal/property"
	"github.com/uninest/uninest/internal/rules"
	"github.com/uninest/uninest/internal/user"
)

// Directory implements rules.Directory.
type Directory struct {
	users      *user.Repository
	properties *property.Repository
}

// New creates a directory over the given repositories.
func New(users *user.Repository, properties *property.Repository) *Directory {
	return &Directory{users: users, properties: properties}
}

// UserRole returns the stored role of uid.
func (d *Directory) UserRole(ctx context.Context, uid string) (rules.Role, bool, error) {
	return d.users.Role(ctx, uid)
}

// PropertyLandlord returns the landlord of a property.
func (d *Directory) PropertyLandlord(ctx context.Context, propertyID string) (string, bool, error) {
	return d.properties.Landlord(ctx, propertyID)
}

var _ rules.Directory = (*Directory)(nil)
