package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

type PlacementTestRepo interface {
	CreateWithModules(ctx context.Context, tx *gorm.DB, test *types.PlacementTest, modules []*types.TestModule) error
	GetByID(ctx context.Context, tx *gorm.DB, testID uuid.UUID) (*types.PlacementTest, error)
	GetModule(ctx context.Context, tx *gorm.DB, testID uuid.UUID, moduleType types.ModuleType) (*types.TestModule, error)
	GetModules(ctx context.Context, tx *gorm.DB, testID uuid.UUID) ([]*types.TestModule, error)
	SaveModule(ctx context.Context, tx *gorm.DB, module *types.TestModule) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, testID uuid.UUID, status types.PlacementTestStatus) error
}

type placementTestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlacementTestRepo(db *gorm.DB, baseLog *logger.Logger) PlacementTestRepo {
	repoLog := baseLog.With("repo", "PlacementTestRepo")
	return &placementTestRepo{db: db, log: repoLog}
}

func (pr *placementTestRepo) CreateWithModules(ctx context.Context, tx *gorm.DB, test *types.PlacementTest, modules []*types.TestModule) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if err := transaction.WithContext(ctx).Create(test).Error; err != nil {
		return err
	}
	if len(modules) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&modules).Error
}

func (pr *placementTestRepo) GetByID(ctx context.Context, tx *gorm.DB, testID uuid.UUID) (*types.PlacementTest, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.PlacementTest
	if err := transaction.WithContext(ctx).
		Where("id = ?", testID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (pr *placementTestRepo) GetModule(ctx context.Context, tx *gorm.DB, testID uuid.UUID, moduleType types.ModuleType) (*types.TestModule, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result types.TestModule
	if err := transaction.WithContext(ctx).
		Where("test_id = ? AND module_type = ?", testID, moduleType).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (pr *placementTestRepo) GetModules(ctx context.Context, tx *gorm.DB, testID uuid.UUID) ([]*types.TestModule, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var results []*types.TestModule
	if err := transaction.WithContext(ctx).
		Where("test_id = ?", testID).
		Order("module_type ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (pr *placementTestRepo) SaveModule(ctx context.Context, tx *gorm.DB, module *types.TestModule) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).Save(module).Error
}

func (pr *placementTestRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, testID uuid.UUID, status types.PlacementTestStatus) error {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.PlacementTest{}).
		Where("id = ?", testID).
		Update("status", status).Error
}
