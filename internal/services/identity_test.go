package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/lingobridge-backend/internal/apperr"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

func TestRequireStudentProfile(t *testing.T) {
	db := testDB(t)
	svc := newIdentityService(t, db)
	ctx := context.Background()

	userID := createStudent(t, db, types.LevelA2)
	profile, err := svc.RequireStudentProfile(ctx, userID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if profile.FallbackLevel != types.LevelA2 {
		t.Fatalf("fallback level: got %s, want A2", profile.FallbackLevel)
	}

	if _, err := svc.RequireStudentProfile(ctx, uuid.New()); !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestSwitchRoleDiscardsAndRecreates(t *testing.T) {
	db := testDB(t)
	svc := newIdentityService(t, db)
	ctx := context.Background()

	userID := createStudent(t, db, types.LevelB2)
	if err := svc.SwitchRole(ctx, userID, types.RoleTeacher); err != nil {
		t.Fatalf("switch failed: %v", err)
	}

	if _, err := svc.RequireStudentProfile(ctx, userID); !apperr.IsNotFound(err) {
		t.Fatalf("student profile must be discarded, got %v", err)
	}
	var teacherCount int64
	if err := db.Model(&types.TeacherProfile{}).Where("user_id = ?", userID).Count(&teacherCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if teacherCount != 1 {
		t.Fatalf("teacher profiles: got %d, want 1", teacherCount)
	}
	var user types.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		t.Fatalf("user read failed: %v", err)
	}
	if user.Role != types.RoleTeacher {
		t.Fatalf("role: got %s, want teacher", user.Role)
	}

	// switching back constructs a fresh student variant at the floor level
	if err := svc.SwitchRole(ctx, userID, types.RoleStudent); err != nil {
		t.Fatalf("switch back failed: %v", err)
	}
	profile, err := svc.RequireStudentProfile(ctx, userID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if profile.FallbackLevel != types.LevelA1 {
		t.Fatalf("recreated profile keeps no old state, got %s", profile.FallbackLevel)
	}

	// the discard frees the user_id slot outright, nothing lingers
	var rows int64
	if err := db.Unscoped().Model(&types.StudentProfile{}).Where("user_id = ?", userID).Count(&rows).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if rows != 1 {
		t.Fatalf("student profile rows after round trip: got %d, want 1", rows)
	}
}

func TestSwitchRoleRejectsUnknownRole(t *testing.T) {
	db := testDB(t)
	svc := newIdentityService(t, db)

	if err := svc.SwitchRole(context.Background(), uuid.New(), types.UserRole("wizard")); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
