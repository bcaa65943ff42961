package services

import (
	"math"

	"github.com/yungbote/lingobridge-backend/internal/types"
)

// CEFR leveling is pure and deterministic: module score -> level, and
// level set -> averaged overall level. Overall level is computed from
// per-skill levels only, never from summed raw scores.

// LevelForModuleScore maps a module score onto the 4-bucket placement
// table. Reading/listening scores come from banded exact-match grading;
// for writing/speaking the same buckets act as an open-ended dummy scale
// when no analysis is available.
func LevelForModuleScore(moduleType types.ModuleType, score int) types.CEFRLevel {
	switch {
	case score <= 0:
		return types.LevelA1
	case score == 1:
		return types.LevelA2
	case score == 2:
		return types.LevelB1
	default:
		return types.LevelB2
	}
}

// AverageLevels maps each level to its ordinal 1..6, takes the arithmetic
// mean, rounds half to even, clamps to [1,6] and maps back. Empty input
// averages to A1.
func AverageLevels(levels []types.CEFRLevel) types.CEFRLevel {
	if len(levels) == 0 {
		return types.LevelA1
	}
	sum := 0
	for _, level := range levels {
		ordinal := level.Ordinal()
		if ordinal == 0 {
			ordinal = 1
		}
		sum += ordinal
	}
	mean := float64(sum) / float64(len(levels))
	return types.LevelFromOrdinal(int(math.RoundToEven(mean)))
}

// rankModules orders module types by raw score descending, module order
// as the tiebreaker, and returns (dominant, weakest). Used for the
// heuristic strength/weakness tags.
func rankModules(scores map[types.ModuleType]int) (types.ModuleType, types.ModuleType) {
	dominant := types.AllModuleTypes[0]
	weakest := types.AllModuleTypes[0]
	for _, moduleType := range types.AllModuleTypes[1:] {
		if scores[moduleType] > scores[dominant] {
			dominant = moduleType
		}
		if scores[moduleType] < scores[weakest] {
			weakest = moduleType
		}
	}
	return dominant, weakest
}
