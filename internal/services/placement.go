package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lingobridge-backend/internal/apperr"
	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/repos"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

// PlacementService drives the test session state machine:
// Created -> ModulesSeeded -> four module submits in any order ->
// Finalized. Finalized is terminal and idempotent.
type PlacementService interface {
	InitializeTest(ctx context.Context, userID uuid.UUID) (*TestSessionView, error)
	GetModuleQuestions(ctx context.Context, testID, userID uuid.UUID, moduleType types.ModuleType) ([]*types.Question, error)
	SubmitModule(ctx context.Context, testID, userID uuid.UUID, moduleType types.ModuleType, answers map[string]string) (*ModuleFeedback, error)
	SubmitSpeakingAudio(ctx context.Context, testID, userID, questionID uuid.UUID, audio []byte, contentType string) (*ModuleFeedback, error)
	Finalize(ctx context.Context, testID, userID uuid.UUID) (*types.PlacementResult, error)
}

type TestSessionView struct {
	TestID    uuid.UUID                     `json:"test_id"`
	ModuleIDs map[types.ModuleType]uuid.UUID `json:"module_ids"`
}

// ModuleFeedback is a transient per-module view; it is not part of the
// permanent result.
type ModuleFeedback struct {
	ModuleType types.ModuleType `json:"module_type"`
	RawScore   int              `json:"raw_score"`
	Level      types.CEFRLevel  `json:"level"`
	Feedback   string           `json:"feedback"`
}

type placementService struct {
	db        *gorm.DB
	log       *logger.Logger
	identity  IdentityService
	bank      QuestionBankService
	analysis  AnalysisService
	testRepo  repos.PlacementTestRepo
	finalizer *ResultFinalizer
}

func NewPlacementService(
	db *gorm.DB,
	log *logger.Logger,
	identity IdentityService,
	bank QuestionBankService,
	analysis AnalysisService,
	testRepo repos.PlacementTestRepo,
	finalizer *ResultFinalizer,
) PlacementService {
	return &placementService{
		db:        db,
		log:       log.With("service", "PlacementService"),
		identity:  identity,
		bank:      bank,
		analysis:  analysis,
		testRepo:  testRepo,
		finalizer: finalizer,
	}
}

func (s *placementService) InitializeTest(ctx context.Context, userID uuid.UUID) (*TestSessionView, error) {
	if _, err := s.identity.RequireStudentProfile(ctx, userID); err != nil {
		return nil, err
	}

	test := &types.PlacementTest{
		ID:     uuid.New(),
		UserID: userID,
		Status: types.TestStatusCreated,
	}

	view := &TestSessionView{TestID: test.ID, ModuleIDs: map[types.ModuleType]uuid.UUID{}}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var modules []*types.TestModule
		for _, moduleType := range types.AllModuleTypes {
			drawn, err := s.bank.DrawModuleSet(ctx, tx, moduleType)
			if err != nil {
				return fmt.Errorf("drawing %s set: %w", moduleType, err)
			}
			ids := make([]string, 0, len(drawn))
			for _, question := range drawn {
				ids = append(ids, question.ID.String())
			}
			module := &types.TestModule{
				ID:          uuid.New(),
				TestID:      test.ID,
				ModuleType:  moduleType,
				QuestionIDs: types.EncodeStringList(ids),
				Answers:     types.EncodeAnswerMap(nil),
			}
			modules = append(modules, module)
			view.ModuleIDs[moduleType] = module.ID
		}
		if err := s.testRepo.CreateWithModules(ctx, tx, test, modules); err != nil {
			return fmt.Errorf("persisting test session: %w", err)
		}
		return s.testRepo.UpdateStatus(ctx, tx, test.ID, types.TestStatusSeeded)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Placement test initialized", "test_id", test.ID, "user_id", userID)
	return view, nil
}

func (s *placementService) GetModuleQuestions(ctx context.Context, testID, userID uuid.UUID, moduleType types.ModuleType) ([]*types.Question, error) {
	module, err := s.requireModule(ctx, nil, testID, userID, moduleType)
	if err != nil {
		return nil, err
	}

	orderedIDs := module.OrderedQuestionIDs()
	questionIDs := make([]uuid.UUID, 0, len(orderedIDs))
	for _, raw := range orderedIDs {
		id, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			continue
		}
		questionIDs = append(questionIDs, id)
	}

	questions, err := s.bank.GetByIDs(ctx, nil, questionIDs)
	if err != nil {
		return nil, fmt.Errorf("fetching module questions: %w", err)
	}

	// present in the order fixed at session creation
	byID := make(map[uuid.UUID]*types.Question, len(questions))
	for _, question := range questions {
		byID[question.ID] = question
	}
	ordered := make([]*types.Question, 0, len(questionIDs))
	for _, id := range questionIDs {
		if question, ok := byID[id]; ok {
			ordered = append(ordered, question)
		}
	}
	return ordered, nil
}

func (s *placementService) SubmitModule(ctx context.Context, testID, userID uuid.UUID, moduleType types.ModuleType, answers map[string]string) (*ModuleFeedback, error) {
	if !moduleType.Valid() {
		return nil, apperr.Validationf("invalid_module_type", "unknown module type %q", moduleType)
	}

	var feedback *ModuleFeedback
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		module, err := s.requireModule(ctx, tx, testID, userID, moduleType)
		if err != nil {
			return err
		}

		module.Answers = types.EncodeAnswerMap(answers)
		now := time.Now().UTC()
		module.SubmittedAt = &now

		switch moduleType {
		case types.ModuleReading, types.ModuleListening:
			banded, err := s.scoreChoiceModule(ctx, tx, module, answers)
			if err != nil {
				return err
			}
			module.RawScore = banded
		default:
			// open-ended: store the transcript for later analysis. Once
			// analysis has set a score, later generic submits keep it.
			module.Transcript = joinAnswerText(module.OrderedQuestionIDs(), answers)
			if module.AnalysisCEFR != "" || module.SpeakingAnalysisPayload() != nil {
				s.log.Debug("Preserving analysis-derived score on resubmit",
					"test_id", testID, "module_type", moduleType)
			} else {
				module.RawScore = 0
			}
		}

		if err := s.testRepo.SaveModule(ctx, tx, module); err != nil {
			return fmt.Errorf("persisting module submission: %w", err)
		}

		feedback = s.moduleFeedback(module)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return feedback, nil
}

func (s *placementService) SubmitSpeakingAudio(ctx context.Context, testID, userID, questionID uuid.UUID, audio []byte, contentType string) (*ModuleFeedback, error) {
	if len(audio) == 0 {
		return nil, apperr.Validationf("empty_audio", "audio payload is empty")
	}

	module, err := s.requireModule(ctx, nil, testID, userID, types.ModuleSpeaking)
	if err != nil {
		return nil, err
	}

	prompt := ""
	if questions, qErr := s.bank.GetByIDs(ctx, nil, []uuid.UUID{questionID}); qErr == nil && len(questions) == 1 {
		prompt = questions[0].Prompt
	}

	// mandatory external call: fail the request, commit nothing
	analysis, err := s.analysis.AnalyzeSpeaking(ctx, audio, contentType, prompt)
	if err != nil {
		return nil, apperr.External("speaking_analysis_failed", err)
	}

	var feedback *ModuleFeedback
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		module, err = s.requireModule(ctx, tx, testID, userID, types.ModuleSpeaking)
		if err != nil {
			return err
		}
		module.Transcript = analysis.Transcript
		module.AnalysisCEFR = analysis.CEFRLevel
		module.AnalysisPayload = types.EncodeSpeakingAnalysis(analysis)
		module.RawScore = int(math.Round(analysis.OverallScore / 100 * 3))
		now := time.Now().UTC()
		module.SubmittedAt = &now
		return s.testRepo.SaveModule(ctx, tx, module)
	})
	if err != nil {
		return nil, err
	}

	feedback = s.moduleFeedback(module)
	return feedback, nil
}

func (s *placementService) Finalize(ctx context.Context, testID, userID uuid.UUID) (*types.PlacementResult, error) {
	test, err := s.testRepo.GetByID(ctx, nil, testID)
	if err != nil {
		return nil, fmt.Errorf("fetching test: %w", err)
	}
	if test == nil {
		return nil, apperr.NotFoundf("test_not_found", "no placement test %s", testID)
	}
	if test.UserID != userID {
		return nil, apperr.Permission("test_forbidden", fmt.Errorf("test %s does not belong to user %s", testID, userID))
	}

	modules, err := s.testRepo.GetModules(ctx, nil, testID)
	if err != nil {
		return nil, fmt.Errorf("fetching modules: %w", err)
	}
	byType := make(map[types.ModuleType]*types.TestModule, len(modules))
	for _, module := range modules {
		byType[module.ModuleType] = module
	}
	for _, moduleType := range types.AllModuleTypes {
		if byType[moduleType] == nil {
			return nil, apperr.NotFoundf("module_wiring_missing", "test %s is missing its %s module", testID, moduleType)
		}
	}

	scores := map[types.ModuleType]int{}
	levels := map[types.ModuleType]types.CEFRLevel{}
	for _, moduleType := range types.AllModuleTypes {
		scores[moduleType] = byType[moduleType].RawScore
		levels[moduleType] = LevelForModuleScore(moduleType, byType[moduleType].RawScore)
	}
	// the speaking level prefers the analysis CEFR tag over the dummy scale
	if tag, ok := types.ParseCEFRLevel(byType[types.ModuleSpeaking].AnalysisCEFR); ok {
		levels[types.ModuleSpeaking] = tag
	}

	// best-effort writing analysis: failure degrades to the raw-score level
	var analysisStrengths, analysisWeaknesses []string
	if transcript := strings.TrimSpace(byType[types.ModuleWriting].Transcript); transcript != "" {
		writingAnalysis, wErr := s.analysis.AnalyzeWriting(ctx, transcript)
		if wErr != nil {
			s.log.Warn("Writing analysis failed at finalize, continuing without it",
				"test_id", testID, "error", wErr)
		} else if writingAnalysis != nil {
			if tag, ok := types.ParseCEFRLevel(writingAnalysis.CEFRLevel); ok {
				levels[types.ModuleWriting] = tag
			}
			analysisStrengths = writingAnalysis.StrengthTags
			analysisWeaknesses = writingAnalysis.WeaknessTags
		}
	}
	if speakingPayload := byType[types.ModuleSpeaking].SpeakingAnalysisPayload(); speakingPayload != nil {
		analysisStrengths = append(analysisStrengths, speakingPayload.StrengthTags...)
		analysisWeaknesses = append(analysisWeaknesses, speakingPayload.WeaknessTags...)
	}

	var result *types.PlacementResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result, err = s.finalizer.Finalize(ctx, tx, FinalizeInput{
			TestID:             testID,
			UserID:             userID,
			PerSkillLevels:     levels,
			ModuleScores:       scores,
			AnalysisStrengths:  analysisStrengths,
			AnalysisWeaknesses: analysisWeaknesses,
		})
		if err != nil {
			return err
		}
		return s.testRepo.UpdateStatus(ctx, tx, testID, types.TestStatusFinalized)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// requireModule loads a module and enforces ownership.
func (s *placementService) requireModule(ctx context.Context, tx *gorm.DB, testID, userID uuid.UUID, moduleType types.ModuleType) (*types.TestModule, error) {
	test, err := s.testRepo.GetByID(ctx, tx, testID)
	if err != nil {
		return nil, fmt.Errorf("fetching test: %w", err)
	}
	if test == nil {
		return nil, apperr.NotFoundf("test_not_found", "no placement test %s", testID)
	}
	if test.UserID != userID {
		return nil, apperr.Permission("test_forbidden", fmt.Errorf("test %s does not belong to user %s", testID, userID))
	}

	module, err := s.testRepo.GetModule(ctx, tx, testID, moduleType)
	if err != nil {
		return nil, fmt.Errorf("fetching module: %w", err)
	}
	if module == nil {
		return nil, apperr.NotFoundf("module_not_found", "test %s has no %s module", testID, moduleType)
	}
	return module, nil
}

// scoreChoiceModule grades by exact case-insensitive match, sums the
// per-question point values, and bands the earned points back onto the
// 0..3 placement scale.
func (s *placementService) scoreChoiceModule(ctx context.Context, tx *gorm.DB, module *types.TestModule, answers map[string]string) (int, error) {
	orderedIDs := module.OrderedQuestionIDs()
	questionIDs := make([]uuid.UUID, 0, len(orderedIDs))
	for _, raw := range orderedIDs {
		if id, err := uuid.Parse(raw); err == nil {
			questionIDs = append(questionIDs, id)
		}
	}
	questions, err := s.bank.GetByIDs(ctx, tx, questionIDs)
	if err != nil {
		return 0, fmt.Errorf("fetching questions for scoring: %w", err)
	}

	earned, total := 0, 0
	for _, question := range questions {
		total += question.Points()
		answer, ok := answers[question.ID.String()]
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(question.CorrectAnswer)) {
			earned += question.Points()
		}
	}
	if total == 0 {
		return 0, nil
	}
	return int(math.Round(3 * float64(earned) / float64(total))), nil
}

func (s *placementService) moduleFeedback(module *types.TestModule) *ModuleFeedback {
	level := LevelForModuleScore(module.ModuleType, module.RawScore)
	if tag, ok := types.ParseCEFRLevel(module.AnalysisCEFR); ok {
		level = tag
	}
	return &ModuleFeedback{
		ModuleType: module.ModuleType,
		RawScore:   module.RawScore,
		Level:      level,
		Feedback:   feedbackForLevel(level),
	}
}

func feedbackForLevel(level types.CEFRLevel) string {
	switch level {
	case types.LevelA1:
		return "You are at the starting line. Focus on everyday words and simple sentences."
	case types.LevelA2:
		return "You handle familiar topics. Push into short connected texts and routine exchanges."
	case types.LevelB1:
		return "Solid independent basics. Work on nuance, longer texts and spontaneous speech."
	case types.LevelB2:
		return "Confident and fluent on most topics. Refine precision and idiomatic range."
	default:
		return "Advanced command. Keep sharpening register, idiom and specialist vocabulary."
	}
}

// joinAnswerText concatenates free-text answers in question order into
// the module transcript.
func joinAnswerText(orderedIDs []string, answers map[string]string) string {
	parts := make([]string, 0, len(answers))
	seen := make(map[string]struct{}, len(answers))
	for _, id := range orderedIDs {
		if text, ok := answers[id]; ok && strings.TrimSpace(text) != "" {
			parts = append(parts, strings.TrimSpace(text))
			seen[id] = struct{}{}
		}
	}
	// answers keyed off-list still count, appended in stable order
	var extras []string
	for id, text := range answers {
		if _, ok := seen[id]; ok || strings.TrimSpace(text) == "" {
			continue
		}
		extras = append(extras, strings.TrimSpace(text))
	}
	sort.Strings(extras)
	return strings.Join(append(parts, extras...), "\n")
}
