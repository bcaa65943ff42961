package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/repos"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

// QuestionBankService owns the deterministic per-(skill, level) pools the
// placement modules draw from. Seeding is idempotent and keyed, and ids
// are derived from seed keys, so reruns never mint new questions. Module
// question sets are snapshotted at test creation; re-seeding the bank
// never changes an existing module's set.
type QuestionBankService interface {
	SeedDefaultBank(ctx context.Context) error
	DrawModuleSet(ctx context.Context, tx *gorm.DB, moduleType types.ModuleType) ([]*types.Question, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.Question, error)
}

type questionBankService struct {
	db           *gorm.DB
	log          *logger.Logger
	questionRepo repos.QuestionRepo
}

func NewQuestionBankService(db *gorm.DB, log *logger.Logger, questionRepo repos.QuestionRepo) QuestionBankService {
	return &questionBankService{
		db:           db,
		log:          log.With("service", "QuestionBankService"),
		questionRepo: questionRepo,
	}
}

// placementLevels is the band the placement test samples; C1/C2 are only
// reachable through analysis overrides, not bank items.
var placementLevels = []types.CEFRLevel{types.LevelA1, types.LevelA2, types.LevelB1, types.LevelB2}

func seedQuestionID(seedKey string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("question:"+seedKey))
}

func difficultyForLevel(level types.CEFRLevel) int {
	switch level {
	case types.LevelB1:
		return 2
	case types.LevelB2:
		return 3
	default:
		return 1
	}
}

type seedItem struct {
	prompt  string
	options []string
	answer  string
}

var readingSeed = map[types.CEFRLevel][]seedItem{
	types.LevelA1: {
		{"\"The cat is on the chair.\" Where is the cat?", []string{"On the chair", "Under the table", "In the garden", "On the bed"}, "On the chair"},
		{"\"I have two brothers.\" How many brothers does the writer have?", []string{"Two", "One", "Three", "None"}, "Two"},
	},
	types.LevelA2: {
		{"\"Sara takes the bus to work because her car is broken.\" Why does Sara take the bus?", []string{"Her car is broken", "She likes buses", "Work is far away", "Buses are cheap"}, "Her car is broken"},
		{"\"The shop closes at six, but on Fridays it stays open until eight.\" When does the shop close on Fridays?", []string{"At eight", "At six", "At seven", "It does not open"}, "At eight"},
	},
	types.LevelB1: {
		{"\"Despite the rain, the festival went ahead as planned.\" What happened to the festival?", []string{"It took place", "It was cancelled", "It was postponed", "It moved indoors"}, "It took place"},
		{"\"Tom had intended to study medicine, but he eventually chose law.\" What did Tom study?", []string{"Law", "Medicine", "Both subjects", "Neither subject"}, "Law"},
	},
	types.LevelB2: {
		{"\"The committee's findings, though far from conclusive, prompted a review of the policy.\" What did the findings lead to?", []string{"A policy review", "A new policy", "The committee's dismissal", "Conclusive evidence"}, "A policy review"},
		{"\"Had the company invested earlier, it might have weathered the downturn.\" What is implied about the company?", []string{"It struggled in the downturn", "It invested early", "It avoided the downturn", "It made a profit"}, "It struggled in the downturn"},
	},
}

var listeningSeed = map[types.CEFRLevel][]seedItem{
	types.LevelA1: {
		{"Listen: \"My name is Anna. I am from Spain.\" Where is Anna from?", []string{"Spain", "Italy", "France", "Portugal"}, "Spain"},
		{"Listen: \"The train leaves at nine.\" When does the train leave?", []string{"At nine", "At ten", "At eight", "At noon"}, "At nine"},
	},
	types.LevelA2: {
		{"Listen: \"Can we move the meeting to Thursday? Wednesday is difficult for me.\" Which day does the speaker prefer?", []string{"Thursday", "Wednesday", "Friday", "Monday"}, "Thursday"},
		{"Listen: \"The museum is free on Sundays, but you must book ahead.\" What must visitors do on Sundays?", []string{"Book ahead", "Pay extra", "Arrive early", "Join a tour"}, "Book ahead"},
	},
	types.LevelB1: {
		{"Listen: \"I was going to cycle in, but with this weather I thought better of it.\" How did the speaker travel?", []string{"Not by bicycle", "By bicycle", "On foot", "The speaker stayed home"}, "Not by bicycle"},
		{"Listen: \"The flight's been pushed back an hour, so we've got time for a coffee.\" What happened to the flight?", []string{"It was delayed", "It was cancelled", "It left early", "It boarded"}, "It was delayed"},
	},
	types.LevelB2: {
		{"Listen: \"Sales figures notwithstanding, the board remains wary of expansion.\" What is the board's attitude?", []string{"Cautious", "Enthusiastic", "Indifferent", "Hostile"}, "Cautious"},
		{"Listen: \"She hinted that the merger was all but finalized.\" What does the speaker suggest about the merger?", []string{"It is nearly complete", "It collapsed", "It has not started", "It was rejected"}, "It is nearly complete"},
	},
}

var writingPrompts = map[types.CEFRLevel]string{
	types.LevelA1: "Write a few sentences about your family.",
	types.LevelA2: "Write a short message to a friend about your weekend plans.",
	types.LevelB1: "Describe a place you have visited and explain why you would or would not recommend it.",
	types.LevelB2: "Some people believe technology makes us less social. Discuss, giving your own opinion.",
}

var speakingPrompts = map[types.CEFRLevel]string{
	types.LevelA1: "Introduce yourself: your name, where you live, and what you do.",
	types.LevelA2: "Talk about your typical day for one minute.",
	types.LevelB1: "Describe a memorable trip you have taken and what made it special.",
	types.LevelB2: "Explain a decision you found difficult to make and how you reached it.",
}

func (s *questionBankService) SeedDefaultBank(ctx context.Context) error {
	var seeds []*types.Question

	appendChoice := func(skill types.ModuleType, bank map[types.CEFRLevel][]seedItem) {
		for _, level := range placementLevels {
			for i, item := range bank[level] {
				seedKey := fmt.Sprintf("%s_%s_%02d", skill, level, i+1)
				seeds = append(seeds, &types.Question{
					ID:            seedQuestionID(seedKey),
					Skill:         skill,
					Level:         level,
					Difficulty:    difficultyForLevel(level),
					Prompt:        item.prompt,
					Options:       types.EncodeStringList(item.options),
					CorrectAnswer: item.answer,
					SeedKey:       seedKey,
				})
			}
		}
	}
	appendChoice(types.ModuleReading, readingSeed)
	appendChoice(types.ModuleListening, listeningSeed)

	appendOpen := func(skill types.ModuleType, prompts map[types.CEFRLevel]string) {
		for _, level := range placementLevels {
			seedKey := fmt.Sprintf("%s_%s_01", skill, level)
			seeds = append(seeds, &types.Question{
				ID:         seedQuestionID(seedKey),
				Skill:      skill,
				Level:      level,
				Difficulty: difficultyForLevel(level),
				Prompt:     prompts[level],
				Options:    types.EncodeStringList(nil),
				SeedKey:    seedKey,
			})
		}
	}
	appendOpen(types.ModuleWriting, writingPrompts)
	appendOpen(types.ModuleSpeaking, speakingPrompts)

	if err := s.questionRepo.UpsertSeed(ctx, nil, seeds); err != nil {
		return fmt.Errorf("seeding question bank: %w", err)
	}
	s.log.Info("Question bank seeded", "count", len(seeds))
	return nil
}

// DrawModuleSet sizes the draw to the module's scoring scale: reading and
// listening take the full difficulty band (two items per level, A1..B2);
// writing and speaking take a single open-ended mid-band prompt.
func (s *questionBankService) DrawModuleSet(ctx context.Context, tx *gorm.DB, moduleType types.ModuleType) ([]*types.Question, error) {
	switch moduleType {
	case types.ModuleReading, types.ModuleListening:
		var set []*types.Question
		for _, level := range placementLevels {
			questions, err := s.questionRepo.ListBySkillAndLevel(ctx, tx, moduleType, level)
			if err != nil {
				return nil, err
			}
			if len(questions) > 2 {
				questions = questions[:2]
			}
			set = append(set, questions...)
		}
		if len(set) == 0 {
			return nil, fmt.Errorf("question bank empty for %s", moduleType)
		}
		return set, nil
	case types.ModuleWriting, types.ModuleSpeaking:
		questions, err := s.questionRepo.ListBySkillAndLevel(ctx, tx, moduleType, types.LevelB1)
		if err != nil {
			return nil, err
		}
		if len(questions) == 0 {
			return nil, fmt.Errorf("question bank empty for %s", moduleType)
		}
		return questions[:1], nil
	default:
		return nil, fmt.Errorf("unknown module type %q", moduleType)
	}
}

func (s *questionBankService) GetByIDs(ctx context.Context, tx *gorm.DB, questionIDs []uuid.UUID) ([]*types.Question, error) {
	return s.questionRepo.GetByIDs(ctx, tx, questionIDs)
}
