package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

type ContentAssignmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, assignments []*types.ContentAssignment) ([]*types.ContentAssignment, error)
	CountActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	GetActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.ContentAssignment, error)
	GetByUserAndContent(ctx context.Context, tx *gorm.DB, userID, contentID uuid.UUID) (*types.ContentAssignment, error)
	CompleteActive(ctx context.Context, tx *gorm.DB, userID, contentID uuid.UUID, completedAt time.Time) (int64, error)
}

type contentAssignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) ContentAssignmentRepo {
	repoLog := baseLog.With("repo", "ContentAssignmentRepo")
	return &contentAssignmentRepo{db: db, log: repoLog}
}

func (ar *contentAssignmentRepo) Create(ctx context.Context, tx *gorm.DB, assignments []*types.ContentAssignment) ([]*types.ContentAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if len(assignments) == 0 {
		return []*types.ContentAssignment{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (ar *contentAssignmentRepo) CountActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ContentAssignment{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (ar *contentAssignmentRepo) GetActiveByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.ContentAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var result types.ContentAssignment
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at ASC").
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (ar *contentAssignmentRepo) GetByUserAndContent(ctx context.Context, tx *gorm.DB, userID, contentID uuid.UUID) (*types.ContentAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var result types.ContentAssignment
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		Order("created_at DESC").
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

// CompleteActive flips the matching ACTIVE assignment to inactive in one
// conditional update and reports rows affected, so two rapid completions
// cannot both observe the active row.
func (ar *contentAssignmentRepo) CompleteActive(ctx context.Context, tx *gorm.DB, userID, contentID uuid.UUID, completedAt time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.ContentAssignment{}).
		Where("user_id = ? AND content_id = ? AND is_active = ?", userID, contentID, true).
		Updates(map[string]interface{}{
			"is_active":    false,
			"completed_at": completedAt,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
