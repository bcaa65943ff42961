package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/repos"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

// SnapshotService assembles the learner skill snapshot, a derived view
// recomputed on every read. Without a finalized result it falls back to
// the level declared on the student profile, uniform across skills.
type SnapshotService interface {
	SnapshotForUser(ctx context.Context, userID uuid.UUID) (*types.LearnerSkillSnapshot, error)
}

type snapshotService struct {
	log         *logger.Logger
	identity    IdentityService
	resultRepo  repos.PlacementResultRepo
	profileRepo repos.ProfileRepo
}

func NewSnapshotService(log *logger.Logger, identity IdentityService, resultRepo repos.PlacementResultRepo, profileRepo repos.ProfileRepo) SnapshotService {
	return &snapshotService{
		log:         log.With("service", "SnapshotService"),
		identity:    identity,
		resultRepo:  resultRepo,
		profileRepo: profileRepo,
	}
}

func (s *snapshotService) SnapshotForUser(ctx context.Context, userID uuid.UUID) (*types.LearnerSkillSnapshot, error) {
	profile, err := s.identity.RequireStudentProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, err := s.resultRepo.GetLatestByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching latest result: %w", err)
	}

	if result == nil {
		fallback := profile.FallbackLevel
		if fallback.Ordinal() == 0 {
			fallback = types.LevelA1
		}
		perSkill := make(map[types.ModuleType]types.CEFRLevel, len(types.AllModuleTypes))
		for _, moduleType := range types.AllModuleTypes {
			perSkill[moduleType] = fallback
		}
		return &types.LearnerSkillSnapshot{
			OverallLevel:   fallback,
			PerSkillLevels: perSkill,
			Strengths:      []string{},
			Weaknesses:     []string{},
			HasResult:      false,
		}, nil
	}

	perSkill := make(map[types.ModuleType]types.CEFRLevel, len(types.AllModuleTypes))
	for _, moduleType := range types.AllModuleTypes {
		perSkill[moduleType] = result.LevelForModule(moduleType)
	}
	return &types.LearnerSkillSnapshot{
		OverallLevel:   result.OverallLevel,
		PerSkillLevels: perSkill,
		Strengths:      types.DecodeStringList(result.Strengths),
		Weaknesses:     types.DecodeStringList(result.Weaknesses),
		HasResult:      true,
	}, nil
}
