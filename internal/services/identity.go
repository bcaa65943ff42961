package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lingobridge-backend/internal/apperr"
	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/repos"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

// IdentityService is the narrow surface the core consumes from the
// identity domain: profile lookup plus the role-subtype migration.
type IdentityService interface {
	RequireStudentProfile(ctx context.Context, userID uuid.UUID) (*types.StudentProfile, error)
	SwitchRole(ctx context.Context, userID uuid.UUID, newRole types.UserRole) error
}

type identityService struct {
	db          *gorm.DB
	log         *logger.Logger
	userRepo    repos.UserRepo
	profileRepo repos.ProfileRepo
}

func NewIdentityService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, profileRepo repos.ProfileRepo) IdentityService {
	return &identityService{
		db:          db,
		log:         log.With("service", "IdentityService"),
		userRepo:    userRepo,
		profileRepo: profileRepo,
	}
}

func (s *identityService) RequireStudentProfile(ctx context.Context, userID uuid.UUID) (*types.StudentProfile, error) {
	profile, err := s.profileRepo.GetStudentByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching student profile: %w", err)
	}
	if profile == nil {
		return nil, apperr.NotFoundf("student_profile_not_found", "no student profile for user %s", userID)
	}
	return profile, nil
}

// SwitchRole discards the old subtype row and constructs the new variant;
// the old variant is never mutated into the new one.
func (s *identityService) SwitchRole(ctx context.Context, userID uuid.UUID, newRole types.UserRole) error {
	if !newRole.Valid() {
		return apperr.Validationf("invalid_role", "unknown role %q", newRole)
	}

	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return fmt.Errorf("fetching user: %w", err)
	}
	if user == nil {
		return apperr.NotFoundf("user_not_found", "no user %s", userID)
	}
	if user.Role == newRole {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.profileRepo.DeleteAllVariantsByUserID(ctx, tx, userID); err != nil {
			return fmt.Errorf("discarding old profile variant: %w", err)
		}
		switch newRole {
		case types.RoleStudent:
			if err := s.profileRepo.CreateStudent(ctx, tx, &types.StudentProfile{
				ID:            uuid.New(),
				UserID:        userID,
				FallbackLevel: types.LevelA1,
			}); err != nil {
				return err
			}
		case types.RoleTeacher:
			if err := s.profileRepo.CreateTeacher(ctx, tx, &types.TeacherProfile{
				ID:     uuid.New(),
				UserID: userID,
			}); err != nil {
				return err
			}
		case types.RoleAdmin:
			if err := s.profileRepo.CreateAdmin(ctx, tx, &types.AdminProfile{
				ID:     uuid.New(),
				UserID: userID,
			}); err != nil {
				return err
			}
		}
		return s.userRepo.UpdateRole(ctx, tx, userID, newRole)
	})
}
