package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

// ProfileRepo manages the role-subtype rows. Exactly one variant row per
// user; role switches delete the old variant and create the new one.
type ProfileRepo interface {
	GetStudentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.StudentProfile, error)
	CreateStudent(ctx context.Context, tx *gorm.DB, profile *types.StudentProfile) error
	UpdateStudentFallbackLevel(ctx context.Context, tx *gorm.DB, userID uuid.UUID, level types.CEFRLevel) error
	CreateTeacher(ctx context.Context, tx *gorm.DB, profile *types.TeacherProfile) error
	CreateAdmin(ctx context.Context, tx *gorm.DB, profile *types.AdminProfile) error
	DeleteAllVariantsByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	repoLog := baseLog.With("repo", "ProfileRepo")
	return &profileRepo{db: db, log: repoLog}
}

func (pr *profileRepo) GetStudentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.StudentProfile, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.StudentProfile
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (pr *profileRepo) CreateStudent(ctx context.Context, tx *gorm.DB, profile *types.StudentProfile) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).Create(profile).Error
}

func (pr *profileRepo) UpdateStudentFallbackLevel(ctx context.Context, tx *gorm.DB, userID uuid.UUID, level types.CEFRLevel) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.StudentProfile{}).
		Where("user_id = ?", userID).
		Update("fallback_level", level).Error
}

func (pr *profileRepo) CreateTeacher(ctx context.Context, tx *gorm.DB, profile *types.TeacherProfile) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).Create(profile).Error
}

func (pr *profileRepo) CreateAdmin(ctx context.Context, tx *gorm.DB, profile *types.AdminProfile) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).Create(profile).Error
}

func (pr *profileRepo) DeleteAllVariantsByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	// hard delete: the discarded variant must free the user_id slot so a
	// later switch back can recreate it
	if err := transaction.WithContext(ctx).Unscoped().
		Where("user_id = ?", userID).
		Delete(&types.StudentProfile{}).Error; err != nil {
		return err
	}
	if err := transaction.WithContext(ctx).Unscoped().
		Where("user_id = ?", userID).
		Delete(&types.TeacherProfile{}).Error; err != nil {
		return err
	}
	return transaction.WithContext(ctx).Unscoped().
		Where("user_id = ?", userID).
		Delete(&types.AdminProfile{}).Error
}
