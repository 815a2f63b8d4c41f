package services

import (
	"errors"
	"testing"

	"taskboard/internal/models"
)

func TestRegisterUser(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRegisterService()

	user, err := svc.RegisterUser(db, RegistrationRequest{Username: "  newuser  ", Password: "pass"})
	if err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}
	if user.Username != "newuser" {
		t.Errorf("Expected trimmed username, got %q", user.Username)
	}
	if user.AccessLevel != models.DefaultAccessLevel {
		t.Errorf("Expected default access level %d, got %d", models.DefaultAccessLevel, user.AccessLevel)
	}
	if user.PasswordHash == "pass" || user.PasswordHash == "" {
		t.Error("Expected password to be hashed")
	}
	if !VerifyPassword(user.PasswordHash, "pass") {
		t.Error("Expected stored hash to verify the password")
	}
}

func TestRegisterUser_Duplicate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewRegisterService()

	if _, err := svc.RegisterUser(db, RegistrationRequest{Username: "taken", Password: "pass"}); err != nil {
		t.Fatalf("RegisterUser failed: %v", err)
	}
	if _, err := svc.RegisterUser(db, RegistrationRequest{Username: "taken", Password: "other"}); !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("Expected ErrDuplicateUsername, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService()

	createTestUser(t, db, "bravo", 1)
	createTestUser(t, db, "alpha", 2)

	users, err := svc.ListUsers(db)
	if err != nil {
		t.Fatalf("ListUsers failed: %v", err)
	}
	if len(users) != 2 || users[0].Username != "alpha" {
		t.Errorf("Expected users ordered by username, got %+v", users)
	}
}

func TestSetAccessLevel(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService()
	admin := createTestUser(t, db, "admin", 0)
	manager := createTestUser(t, db, "manager", 1)
	worker := createTestUser(t, db, "worker", 2)

	// Only admins manage levels.
	if _, err := svc.SetAccessLevel(db, manager, worker.ID, 1); !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Expected non-admin to be denied, got %v", err)
	}

	updated, err := svc.SetAccessLevel(db, admin, worker.ID, 1)
	if err != nil {
		t.Fatalf("SetAccessLevel failed: %v", err)
	}
	if updated.AccessLevel != 1 {
		t.Errorf("Expected level 1, got %d", updated.AccessLevel)
	}

	// Negative levels clamp to zero rather than erroring.
	updated, err = svc.SetAccessLevel(db, admin, worker.ID, -5)
	if err != nil {
		t.Fatalf("SetAccessLevel failed: %v", err)
	}
	if updated.AccessLevel != 0 {
		t.Errorf("Expected clamped level 0, got %d", updated.AccessLevel)
	}

	// Admins may not change their own level.
	if _, err := svc.SetAccessLevel(db, admin, admin.ID, 3); !isValidationError(err) {
		t.Errorf("Expected validation error for self change, got %v", err)
	}
}
