package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

type PlacementResultRepo interface {
	Create(ctx context.Context, tx *gorm.DB, result *types.PlacementResult) error
	GetByTestAndUser(ctx context.Context, tx *gorm.DB, testID, userID uuid.UUID) (*types.PlacementResult, error)
	GetLatestByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.PlacementResult, error)
	UpdateTags(ctx context.Context, tx *gorm.DB, resultID uuid.UUID, strengths, weaknesses datatypes.JSON) error
}

type placementResultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlacementResultRepo(db *gorm.DB, baseLog *logger.Logger) PlacementResultRepo {
	repoLog := baseLog.With("repo", "PlacementResultRepo")
	return &placementResultRepo{db: db, log: repoLog}
}

func (rr *placementResultRepo) Create(ctx context.Context, tx *gorm.DB, result *types.PlacementResult) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	return transaction.WithContext(ctx).Create(result).Error
}

func (rr *placementResultRepo) GetByTestAndUser(ctx context.Context, tx *gorm.DB, testID, userID uuid.UUID) (*types.PlacementResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var result types.PlacementResult
	if err := transaction.WithContext(ctx).
		Where("test_id = ? AND user_id = ?", testID, userID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (rr *placementResultRepo) GetLatestByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.PlacementResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var result types.PlacementResult
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (rr *placementResultRepo) UpdateTags(ctx context.Context, tx *gorm.DB, resultID uuid.UUID, strengths, weaknesses datatypes.JSON) error {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.PlacementResult{}).
		Where("id = ?", resultID).
		Updates(map[string]interface{}{
			"strengths":  strengths,
			"weaknesses": weaknesses,
		}).Error
}
