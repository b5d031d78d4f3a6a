package testutil_test

import (
	"testing"

	"tillpoint/internal/errors"
	"tillpoint/internal/models"
	"tillpoint/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)

	var count int64
	for _, table := range []string{"users", "business_info", "branches", "local_entries", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_isolated(t *testing.T) {
	a := testutil.SetupTestDB(t)
	b := testutil.SetupTestDB(t)

	testutil.CreateTestUser(t, a, "alice")

	var count int64
	b.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Errorf("expected an empty second database, got %d users", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)

	business := testutil.CreateTestBusiness(t, db)
	if business.ID == 0 {
		t.Fatal("business should have a non-zero ID")
	}

	user := testutil.CreateTestUser(t, db, "alice",
		testutil.WithRole(models.RoleOwner),
		testutil.WithBusiness(business.ID),
		testutil.WithLegacyPIN("1234"),
	)
	if user.ID == 0 {
		t.Fatal("user should have a non-zero ID")
	}

	reloaded := testutil.ReloadUser(t, db, user.ID)
	if !reloaded.Active {
		t.Error("expected active user")
	}
	if reloaded.PrivatePreview {
		t.Error("expected owner to be unapproved by default")
	}
	if reloaded.PIN == nil || *reloaded.PIN != "1234" {
		t.Error("expected legacy PIN to be stored")
	}

	inactive := testutil.CreateTestUser(t, db, "bob", testutil.Inactive())
	if testutil.ReloadUser(t, db, inactive.ID).Active {
		t.Error("expected inactive user to stay inactive")
	}
}

func TestAssertAppError(t *testing.T) {
	testutil.AssertAppError(t, errors.ErrPendingApproval, "PENDING_APPROVAL")
	testutil.AssertNoError(t, nil)
}
