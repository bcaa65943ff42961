package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/repos"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

const tagListCap = 8

// ResultFinalizer owns the idempotent persistence of an assessment
// result and the tag merge rules: heuristic skill-ranking tags first,
// then analysis tags, de-duplicated preserving first-seen order, capped
// at 8 entries per list.
type ResultFinalizer struct {
	log        *logger.Logger
	resultRepo repos.PlacementResultRepo
}

func NewResultFinalizer(log *logger.Logger, resultRepo repos.PlacementResultRepo) *ResultFinalizer {
	return &ResultFinalizer{
		log:        log.With("service", "ResultFinalizer"),
		resultRepo: resultRepo,
	}
}

// MergeTags concatenates the heuristic and analyzed tag lists, dropping
// duplicates case-insensitively while keeping first-seen casing and
// order, capped at limit entries.
func MergeTags(heuristic, analyzed []string, limit int) []string {
	merged := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)
	for _, tag := range append(append([]string{}, heuristic...), analyzed...) {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, trimmed)
		if len(merged) == limit {
			break
		}
	}
	return merged
}

// HeuristicTags derives the dominant-skill strength and weakest-skill
// weakness from the banded module scores.
func HeuristicTags(scores map[types.ModuleType]int) (strengths, weaknesses []string) {
	dominant, weakest := rankModules(scores)
	return []string{dominant.DisplayName()}, []string{weakest.DisplayName()}
}

// FinalizeInput carries everything needed to build one result row.
type FinalizeInput struct {
	TestID             uuid.UUID
	UserID             uuid.UUID
	PerSkillLevels     map[types.ModuleType]types.CEFRLevel
	ModuleScores       map[types.ModuleType]int
	AnalysisStrengths  []string
	AnalysisWeaknesses []string
}

// Finalize returns the existing result untouched when one is already
// persisted for (test, user); otherwise it builds and creates exactly one
// row. A concurrent create racing past the read is absorbed by the unique
// index: the loser re-reads and returns the winner's row.
func (f *ResultFinalizer) Finalize(ctx context.Context, tx *gorm.DB, input FinalizeInput) (*types.PlacementResult, error) {
	existing, err := f.resultRepo.GetByTestAndUser(ctx, tx, input.TestID, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("checking existing result: %w", err)
	}
	if existing != nil {
		f.log.Debug("Result already exists, returning unchanged", "test_id", input.TestID)
		return existing, nil
	}

	heuristicStrengths, heuristicWeaknesses := HeuristicTags(input.ModuleScores)

	totalScore := 0
	for _, score := range input.ModuleScores {
		totalScore += score
	}

	overall := AverageLevels([]types.CEFRLevel{
		input.PerSkillLevels[types.ModuleReading],
		input.PerSkillLevels[types.ModuleWriting],
		input.PerSkillLevels[types.ModuleListening],
		input.PerSkillLevels[types.ModuleSpeaking],
	})

	result := &types.PlacementResult{
		ID:             uuid.New(),
		TestID:         input.TestID,
		UserID:         input.UserID,
		ReadingLevel:   input.PerSkillLevels[types.ModuleReading],
		WritingLevel:   input.PerSkillLevels[types.ModuleWriting],
		ListeningLevel: input.PerSkillLevels[types.ModuleListening],
		SpeakingLevel:  input.PerSkillLevels[types.ModuleSpeaking],
		OverallLevel:   overall,
		TotalScore:     totalScore,
		Strengths:      types.EncodeStringList(MergeTags(heuristicStrengths, input.AnalysisStrengths, tagListCap)),
		Weaknesses:     types.EncodeStringList(MergeTags(heuristicWeaknesses, input.AnalysisWeaknesses, tagListCap)),
		CompletedAt:    time.Now().UTC(),
	}

	if err := f.resultRepo.Create(ctx, tx, result); err != nil {
		winner, readErr := f.resultRepo.GetByTestAndUser(ctx, tx, input.TestID, input.UserID)
		if readErr == nil && winner != nil {
			f.log.Warn("Lost result creation race, returning existing row", "test_id", input.TestID)
			return winner, nil
		}
		return nil, fmt.Errorf("persisting result: %w", err)
	}
	return result, nil
}
