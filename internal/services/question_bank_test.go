package services

import (
	"context"
	"testing"

	"github.com/yungbote/lingobridge-backend/internal/repos"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

func newBankFixture(t *testing.T) QuestionBankService {
	t.Helper()
	db := testDB(t)
	log := testLogger(t)
	bank := NewQuestionBankService(db, log, repos.NewQuestionRepo(db, log))
	if err := bank.SeedDefaultBank(context.Background()); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return bank
}

func TestSeedDefaultBankIsIdempotent(t *testing.T) {
	db := testDB(t)
	log := testLogger(t)
	bank := NewQuestionBankService(db, log, repos.NewQuestionRepo(db, log))
	ctx := context.Background()

	if err := bank.SeedDefaultBank(ctx); err != nil {
		t.Fatalf("first seed failed: %v", err)
	}
	var firstCount int64
	if err := db.Model(&types.Question{}).Count(&firstCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if firstCount == 0 {
		t.Fatal("seed produced no questions")
	}

	if err := bank.SeedDefaultBank(ctx); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	var secondCount int64
	if err := db.Model(&types.Question{}).Count(&secondCount).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if secondCount != firstCount {
		t.Fatalf("reseed grew the bank: %d vs %d", secondCount, firstCount)
	}
}

func TestDrawModuleSetShapes(t *testing.T) {
	bank := newBankFixture(t)
	ctx := context.Background()

	for _, moduleType := range []types.ModuleType{types.ModuleReading, types.ModuleListening} {
		drawn, err := bank.DrawModuleSet(ctx, nil, moduleType)
		if err != nil {
			t.Fatalf("draw %s failed: %v", moduleType, err)
		}
		if len(drawn) != 8 {
			t.Fatalf("%s: got %d questions, want 8", moduleType, len(drawn))
		}
		perLevel := map[types.CEFRLevel]int{}
		for _, question := range drawn {
			perLevel[question.Level]++
			if len(question.OptionList()) != 4 {
				t.Fatalf("question %s has %d options", question.SeedKey, len(question.OptionList()))
			}
		}
		for _, level := range placementLevels {
			if perLevel[level] != 2 {
				t.Fatalf("%s at %s: got %d, want 2", moduleType, level, perLevel[level])
			}
		}
	}

	for _, moduleType := range []types.ModuleType{types.ModuleWriting, types.ModuleSpeaking} {
		drawn, err := bank.DrawModuleSet(ctx, nil, moduleType)
		if err != nil {
			t.Fatalf("draw %s failed: %v", moduleType, err)
		}
		if len(drawn) != 1 {
			t.Fatalf("%s: got %d prompts, want 1", moduleType, len(drawn))
		}
		if drawn[0].Level != types.LevelB1 {
			t.Fatalf("%s prompt level: got %s, want B1", moduleType, drawn[0].Level)
		}
	}
}

func TestSeedQuestionIDsAreStable(t *testing.T) {
	first := seedQuestionID("reading_A1_01")
	second := seedQuestionID("reading_A1_01")
	if first != second {
		t.Fatalf("same seed key produced different ids: %s vs %s", first, second)
	}
	other := seedQuestionID("reading_A1_02")
	if first == other {
		t.Fatal("different seed keys collided")
	}
}
