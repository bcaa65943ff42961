package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

type QuestionRepo interface {
	UpsertSeed(ctx context.Context, tx *gorm.DB, questions []*types.Question) error
	GetByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.Question, error)
	ListBySkill(ctx context.Context, tx *gorm.DB, skill types.ModuleType) ([]*types.Question, error)
	ListBySkillAndLevel(ctx context.Context, tx *gorm.DB, skill types.ModuleType, level types.CEFRLevel) ([]*types.Question, error)
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	repoLog := baseLog.With("repo", "QuestionRepo")
	return &questionRepo{db: db, log: repoLog}
}

// UpsertSeed is keyed on seed_key so reruns refresh prompts in place
// without minting new ids.
func (qr *questionRepo) UpsertSeed(ctx context.Context, tx *gorm.DB, questions []*types.Question) error {
	transaction := tx
	if transaction == nil {
		transaction = qr.db
	}

	if len(questions) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "seed_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"prompt", "options", "correct_answer", "difficulty", "level"}),
		}).
		Create(&questions).Error
}

func (qr *questionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = qr.db
	}

	var results []*types.Question
	if len(questionIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", questionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (qr *questionRepo) ListBySkill(ctx context.Context, tx *gorm.DB, skill types.ModuleType) ([]*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = qr.db
	}

	var results []*types.Question
	if err := transaction.WithContext(ctx).
		Where("skill = ?", skill).
		Order("level ASC, difficulty ASC, seed_key ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (qr *questionRepo) ListBySkillAndLevel(ctx context.Context, tx *gorm.DB, skill types.ModuleType, level types.CEFRLevel) ([]*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = qr.db
	}

	var results []*types.Question
	if err := transaction.WithContext(ctx).
		Where("skill = ? AND level = ?", skill, level).
		Order("difficulty ASC, seed_key ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
