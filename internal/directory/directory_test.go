package directory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/uninest/uninest/internal/db"
	"github.com/uninest/uninest/internal/property"
	"github.com/uninest/uninest/internal/rules"
	"github.com/uninest/uninest/internal/user"
)

func TestLookups(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	ctx := context.Background()

	users := user.NewRepository(database)
	props := property.NewRepository(database)
	now := time.Now().UTC()

	if err := users.Insert(ctx, &user.User{
		UID: "l1", Email: "l1@test", Role: rules.RoleLandlord, FullName: "Lee", CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	if err := props.Insert(ctx, &property.Property{
		ID: "p1", LandlordID: "l1", Title: "Room", Address: "1 High St", City: "Nairobi",
		PropertyType: property.TypeRoom, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("insert property: %v", err)
	}

	dir := New(users, props)

	role, ok, err := dir.UserRole(ctx, "l1")
	if err != nil || !ok || role != rules.RoleLandlord {
		t.Errorf("UserRole(l1) = %q, %v, %v", role, ok, err)
	}
	if _, ok, err := dir.UserRole(ctx, "ghost"); err != nil || ok {
		t.Errorf("UserRole(ghost) = %v, %v", ok, err)
	}

	landlord, ok, err := dir.PropertyLandlord(ctx, "p1")
	if err != nil || !ok || landlord != "l1" {
		t.Errorf("PropertyLandlord(p1) = %q, %v, %v", landlord, ok, err)
	}
	if _, ok, err := dir.PropertyLandlord(ctx, "p404"); err != nil || ok {
		t.Errorf("PropertyLandlord(p404) = %v, %v", ok, err)
	}
}
