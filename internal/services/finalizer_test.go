package services

import (
	"context"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/lingobridge-backend/internal/repos"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

func TestMergeTags(t *testing.T) {
	cases := []struct {
		name      string
		heuristic []string
		analyzed  []string
		limit     int
		want      []string
	}{
		{
			name:      "heuristic first",
			heuristic: []string{"Reading"},
			analyzed:  []string{"vocabulary range"},
			limit:     8,
			want:      []string{"Reading", "vocabulary range"},
		},
		{
			name:      "case insensitive dedupe keeps first seen",
			heuristic: []string{"Reading"},
			analyzed:  []string{"reading", "READING", "grammar"},
			limit:     8,
			want:      []string{"Reading", "grammar"},
		},
		{
			name:      "cap applies after merge",
			heuristic: []string{"a", "b", "c"},
			analyzed:  []string{"d", "e", "f"},
			limit:     4,
			want:      []string{"a", "b", "c", "d"},
		},
		{
			name:      "blank tags dropped",
			heuristic: []string{"", "  ", "Listening"},
			analyzed:  nil,
			limit:     8,
			want:      []string{"Listening"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MergeTags(tc.heuristic, tc.analyzed, tc.limit)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHeuristicTags(t *testing.T) {
	strengths, weaknesses := HeuristicTags(map[types.ModuleType]int{
		types.ModuleReading:   3,
		types.ModuleWriting:   2,
		types.ModuleListening: 1,
		types.ModuleSpeaking:  2,
	})
	if !reflect.DeepEqual(strengths, []string{"Reading"}) {
		t.Fatalf("strengths: got %v", strengths)
	}
	if !reflect.DeepEqual(weaknesses, []string{"Listening"}) {
		t.Fatalf("weaknesses: got %v", weaknesses)
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	db := testDB(t)
	log := testLogger(t)
	finalizer := NewResultFinalizer(log, repos.NewPlacementResultRepo(db, log))
	ctx := context.Background()

	userID := createStudent(t, db, types.LevelA1)
	testID := uuid.New()
	input := FinalizeInput{
		TestID: testID,
		UserID: userID,
		PerSkillLevels: map[types.ModuleType]types.CEFRLevel{
			types.ModuleReading:   types.LevelB2,
			types.ModuleWriting:   types.LevelB1,
			types.ModuleListening: types.LevelA2,
			types.ModuleSpeaking:  types.LevelB1,
		},
		ModuleScores: map[types.ModuleType]int{
			types.ModuleReading:   3,
			types.ModuleWriting:   2,
			types.ModuleListening: 1,
			types.ModuleSpeaking:  2,
		},
	}

	first, err := finalizer.Finalize(ctx, nil, input)
	if err != nil {
		t.Fatalf("first finalize failed: %v", err)
	}
	if first.OverallLevel != types.LevelB1 {
		t.Fatalf("overall: got %s, want B1", first.OverallLevel)
	}
	if first.TotalScore != 8 {
		t.Fatalf("total score: got %d, want 8", first.TotalScore)
	}
	strengths := types.DecodeStringList(first.Strengths)
	if len(strengths) == 0 || strengths[0] != "Reading" {
		t.Fatalf("strengths: got %v", strengths)
	}
	weaknesses := types.DecodeStringList(first.Weaknesses)
	if len(weaknesses) == 0 || weaknesses[0] != "Listening" {
		t.Fatalf("weaknesses: got %v", weaknesses)
	}

	// second finalize with different scores returns the first row unchanged
	input.ModuleScores[types.ModuleReading] = 0
	input.PerSkillLevels[types.ModuleReading] = types.LevelA1
	second, err := finalizer.Finalize(ctx, nil, input)
	if err != nil {
		t.Fatalf("second finalize failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("second finalize minted a new row: %s vs %s", second.ID, first.ID)
	}
	if second.ReadingLevel != types.LevelB2 {
		t.Fatalf("second finalize mutated the row: %s", second.ReadingLevel)
	}

	var count int64
	if err := db.Model(&types.PlacementResult{}).Where("test_id = ?", testID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("got %d result rows, want 1", count)
	}
}

func TestFinalizeMergesAnalysisTagsAfterHeuristics(t *testing.T) {
	db := testDB(t)
	log := testLogger(t)
	finalizer := NewResultFinalizer(log, repos.NewPlacementResultRepo(db, log))

	result, err := finalizer.Finalize(context.Background(), nil, FinalizeInput{
		TestID: uuid.New(),
		UserID: createStudent(t, db, types.LevelA1),
		PerSkillLevels: map[types.ModuleType]types.CEFRLevel{
			types.ModuleReading:   types.LevelB1,
			types.ModuleWriting:   types.LevelB1,
			types.ModuleListening: types.LevelB1,
			types.ModuleSpeaking:  types.LevelB1,
		},
		ModuleScores: map[types.ModuleType]int{
			types.ModuleReading:   2,
			types.ModuleWriting:   2,
			types.ModuleListening: 2,
			types.ModuleSpeaking:  2,
		},
		AnalysisStrengths:  []string{"vocabulary range", "reading"},
		AnalysisWeaknesses: []string{"article usage"},
	})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	strengths := types.DecodeStringList(result.Strengths)
	want := []string{"Reading", "vocabulary range"}
	if !reflect.DeepEqual(strengths, want) {
		t.Fatalf("strengths: got %v, want %v", strengths, want)
	}
}
