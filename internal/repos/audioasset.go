package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

type AudioAssetRepo interface {
	UpsertSeed(ctx context.Context, tx *gorm.DB, assets []*types.AudioAsset) error
	GetByID(ctx context.Context, tx *gorm.DB, assetID uuid.UUID) (*types.AudioAsset, error)
	RandomByLevel(ctx context.Context, tx *gorm.DB, level types.CEFRLevel) (*types.AudioAsset, error)
}

type audioAssetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAudioAssetRepo(db *gorm.DB, baseLog *logger.Logger) AudioAssetRepo {
	repoLog := baseLog.With("repo", "AudioAssetRepo")
	return &audioAssetRepo{db: db, log: repoLog}
}

func (ar *audioAssetRepo) UpsertSeed(ctx context.Context, tx *gorm.DB, assets []*types.AudioAsset) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if len(assets) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "seed_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "object_key", "transcript", "level"}),
		}).
		Create(&assets).Error
}

func (ar *audioAssetRepo) GetByID(ctx context.Context, tx *gorm.DB, assetID uuid.UUID) (*types.AudioAsset, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var result types.AudioAsset
	if err := transaction.WithContext(ctx).
		Where("id = ?", assetID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (ar *audioAssetRepo) RandomByLevel(ctx context.Context, tx *gorm.DB, level types.CEFRLevel) (*types.AudioAsset, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var result types.AudioAsset
	if err := transaction.WithContext(ctx).
		Where("level = ?", level).
		Order("RANDOM()").
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}
