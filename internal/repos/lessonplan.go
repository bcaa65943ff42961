package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

type LessonPlanRepo interface {
	GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.LessonPlan, error)
	CreateWithTopics(ctx context.Context, tx *gorm.DB, plan *types.LessonPlan, topics []*types.LessonPlanTopic) error
	ReplaceTopics(ctx context.Context, tx *gorm.DB, planID uuid.UUID, topics []*types.LessonPlanTopic) error
	UpdateTopicMastery(ctx context.Context, tx *gorm.DB, topicID uuid.UUID, masteryPercent int) error
}

type lessonPlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLessonPlanRepo(db *gorm.DB, baseLog *logger.Logger) LessonPlanRepo {
	repoLog := baseLog.With("repo", "LessonPlanRepo")
	return &lessonPlanRepo{db: db, log: repoLog}
}

func (lr *lessonPlanRepo) GetByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.LessonPlan, error) {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	var result types.LessonPlan
	if err := transaction.WithContext(ctx).
		Preload("Topics", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("user_id = ?", userID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (lr *lessonPlanRepo) CreateWithTopics(ctx context.Context, tx *gorm.DB, plan *types.LessonPlan, topics []*types.LessonPlanTopic) error {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	if err := transaction.WithContext(ctx).Create(plan).Error; err != nil {
		return err
	}
	if len(topics) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&topics).Error
}

// ReplaceTopics is the plan-regeneration path; mastery resets here and
// nowhere else.
func (lr *lessonPlanRepo) ReplaceTopics(ctx context.Context, tx *gorm.DB, planID uuid.UUID, topics []*types.LessonPlanTopic) error {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}

	if err := transaction.WithContext(ctx).
		Where("plan_id = ?", planID).
		Delete(&types.LessonPlanTopic{}).Error; err != nil {
		return err
	}
	if len(topics) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&topics).Error
}

func (lr *lessonPlanRepo) UpdateTopicMastery(ctx context.Context, tx *gorm.DB, topicID uuid.UUID, masteryPercent int) error {
	transaction := tx
	if transaction == nil {
		transaction = lr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.LessonPlanTopic{}).
		Where("id = ?", topicID).
		Update("mastery_percent", masteryPercent).Error
}
