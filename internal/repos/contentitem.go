package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

type ContentItemRepo interface {
	Create(ctx context.Context, tx *gorm.DB, items []*types.ContentItem) ([]*types.ContentItem, error)
	GetByID(ctx context.Context, tx *gorm.DB, contentID uuid.UUID) (*types.ContentItem, error)
}

type contentItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentItemRepo(db *gorm.DB, baseLog *logger.Logger) ContentItemRepo {
	repoLog := baseLog.With("repo", "ContentItemRepo")
	return &contentItemRepo{db: db, log: repoLog}
}

func (cr *contentItemRepo) Create(ctx context.Context, tx *gorm.DB, items []*types.ContentItem) ([]*types.ContentItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if len(items) == 0 {
		return []*types.ContentItem{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (cr *contentItemRepo) GetByID(ctx context.Context, tx *gorm.DB, contentID uuid.UUID) (*types.ContentItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.ContentItem
	if err := transaction.WithContext(ctx).
		Where("id = ?", contentID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}
