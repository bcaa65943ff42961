package services

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/lingobridge-backend/internal/apperr"
	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/repos"
	"github.com/yungbote/lingobridge-backend/internal/types"
	"github.com/yungbote/lingobridge-backend/internal/utils"
)

// listeningQuestionCount is how many comprehension checks a listening
// item carries over its clip transcript.
const listeningQuestionCount = 5

// ContentDeliveryService runs the adaptive loop: prepare exactly one
// active content item per learner, serve it, grade its completion and
// fold the outcome back into topic mastery.
type ContentDeliveryService interface {
	PrepareContent(ctx context.Context, userID uuid.UUID, opts PrepareOptions) (*ContentView, error)
	GetContent(ctx context.Context, userID, contentID uuid.UUID) (*ContentView, error)
	CompleteContent(ctx context.Context, userID, contentID uuid.UUID, answers map[int]string) (*CompletionView, error)
	EnsurePlan(ctx context.Context, userID uuid.UUID) (*types.LessonPlan, error)
	RegeneratePlan(ctx context.Context, userID uuid.UUID) (*types.LessonPlan, error)
}

// PrepareOptions narrows generation. Zero values defer to the learner's
// snapshot and plan.
type PrepareOptions struct {
	Level  types.CEFRLevel  `json:"level"`
	Skill  types.ModuleType `json:"skill"`
	Topics []string         `json:"topics"`
}

// ContentView is the serving shape of an assigned content item.
type ContentView struct {
	ContentID   uuid.UUID            `json:"content_id"`
	Title       string               `json:"title"`
	SkillTarget types.ModuleType     `json:"skill_target"`
	Level       types.CEFRLevel      `json:"level"`
	Blocks      []types.ContentBlock `json:"blocks"`
	Rationale   string               `json:"rationale"`
}

type CompletionView struct {
	ContentID      uuid.UUID `json:"content_id"`
	ScorePercent   int       `json:"score_percent"`
	CorrectCount   int       `json:"correct_count"`
	GradedCount    int       `json:"graded_count"`
	MasteryTopic   string    `json:"mastery_topic"`
	MasteryPercent int       `json:"mastery_percent"`
}

type contentDeliveryService struct {
	db             *gorm.DB
	log            *logger.Logger
	identity       IdentityService
	snapshot       SnapshotService
	analysis       AnalysisService
	audio          AudioAssetService
	lock           LearnerLock
	contentRepo    repos.ContentItemRepo
	assignmentRepo repos.ContentAssignmentRepo
	planRepo       repos.LessonPlanRepo
	resultRepo     repos.PlacementResultRepo
	batchSize      int
}

func NewContentDeliveryService(
	db *gorm.DB,
	log *logger.Logger,
	identity IdentityService,
	snapshot SnapshotService,
	analysis AnalysisService,
	audio AudioAssetService,
	lock LearnerLock,
	contentRepo repos.ContentItemRepo,
	assignmentRepo repos.ContentAssignmentRepo,
	planRepo repos.LessonPlanRepo,
	resultRepo repos.PlacementResultRepo,
) ContentDeliveryService {
	batchSize := utils.GetEnvAsInt("CONTENT_BATCH_SIZE", 1, log)
	if batchSize < 1 {
		batchSize = 1
	}
	return &contentDeliveryService{
		db:             db,
		log:            log.With("service", "ContentDeliveryService"),
		identity:       identity,
		snapshot:       snapshot,
		analysis:       analysis,
		audio:          audio,
		lock:           lock,
		contentRepo:    contentRepo,
		assignmentRepo: assignmentRepo,
		planRepo:       planRepo,
		resultRepo:     resultRepo,
		batchSize:      batchSize,
	}
}

// contentSlot is one generated batch entry before persistence.
type contentSlot struct {
	item      *types.ContentItem
	rationale string
	topicName string
	skill     types.ModuleType
	level     types.CEFRLevel
	blocks    []types.ContentBlock
}

// PrepareContent returns the learner's active item, generating a new
// batch when none exists. Only the first slot of a batch is activated;
// later slots are staged with their batch index and picked up by review
// surfaces. The per-learner lock keeps concurrent prepares from racing
// the single-active invariant; the in-transaction recount is the
// backstop when the lock is degraded to noop.
func (s *contentDeliveryService) PrepareContent(ctx context.Context, userID uuid.UUID, opts PrepareOptions) (*ContentView, error) {
	if _, err := s.identity.RequireStudentProfile(ctx, userID); err != nil {
		return nil, err
	}

	release, acquired, err := s.lock.Acquire(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("acquiring learner lock: %w", err)
	}
	if !acquired {
		return nil, apperr.Validationf("preparation_in_progress", "content preparation already running for this learner")
	}
	defer release()

	if active, err := s.assignmentRepo.GetActiveByUser(ctx, nil, userID); err != nil {
		return nil, fmt.Errorf("checking active assignment: %w", err)
	} else if active != nil {
		return s.viewForAssignment(ctx, active)
	}

	snap, err := s.snapshot.SnapshotForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	plan, err := s.EnsurePlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	ranked := rankTopics(plan.Topics)
	if len(opts.Topics) == 0 && len(ranked) == 0 {
		return nil, apperr.NotFoundf("plan_exhausted", "lesson plan for user %s has no topics", userID)
	}

	slots := make([]*contentSlot, s.batchSize)
	group, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < s.batchSize; i++ {
		i := i
		topicName, mastery := slotTopic(opts, ranked, i)
		skill := resolveSkill(opts, snap, topicName)
		level := resolveLevel(opts, snap, skill)
		group.Go(func() error {
			slots[i] = s.buildSlot(groupCtx, skill, level, topicName, mastery)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	items := make([]*types.ContentItem, 0, len(slots))
	assignments := make([]*types.ContentAssignment, 0, len(slots))
	for i, slot := range slots {
		items = append(items, slot.item)
		assignments = append(assignments, &types.ContentAssignment{
			ID:         uuid.New(),
			UserID:     userID,
			ContentID:  slot.item.ID,
			IsActive:   i == 0,
			Rationale:  slot.rationale,
			TopicName:  slot.topicName,
			BatchIndex: i,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		activeCount, countErr := s.assignmentRepo.CountActiveByUser(ctx, tx, userID)
		if countErr != nil {
			return countErr
		}
		if activeCount > 0 {
			return apperr.Validationf("active_item_exists", "learner already has an active content item")
		}
		if _, createErr := s.contentRepo.Create(ctx, tx, items); createErr != nil {
			return fmt.Errorf("persisting content items: %w", createErr)
		}
		_, createErr := s.assignmentRepo.Create(ctx, tx, assignments)
		return createErr
	})
	if err != nil {
		if apperr.IsValidation(err) {
			// lost the race to another prepare, serve whatever won
			if active, activeErr := s.assignmentRepo.GetActiveByUser(ctx, nil, userID); activeErr == nil && active != nil {
				return s.viewForAssignment(ctx, active)
			}
		}
		return nil, err
	}

	first := slots[0]
	s.log.Info("Content prepared", "user_id", userID, "content_id", first.item.ID,
		"skill_target", first.skill, "level", first.level, "batch_size", len(slots))
	return &ContentView{
		ContentID:   first.item.ID,
		Title:       first.item.Title,
		SkillTarget: first.skill,
		Level:       first.level,
		Blocks:      first.blocks,
		Rationale:   first.rationale,
	}, nil
}

// buildSlot generates one content item. Speaking items come from the
// local prompt table; listening items pull a clip and comprehension
// checks over its transcript; everything else goes through the generic
// generation prompt.
func (s *contentDeliveryService) buildSlot(ctx context.Context, skill types.ModuleType, level types.CEFRLevel, topicName string, mastery int) *contentSlot {
	var title string
	var blocks []types.ContentBlock

	switch skill {
	case types.ModuleSpeaking:
		title = fmt.Sprintf("Speaking Practice: %s", topicName)
		blocks = []types.ContentBlock{{Kind: "text", Text: speakingPromptForLevel(level)}}
	case types.ModuleListening:
		generated := s.analysis.GenerateContent(ctx, string(skill), level, topicName)
		title = generated.Title
		blocks = generated.Blocks
		clip, clipErr := s.audio.RandomClipForLevel(ctx, level)
		if clipErr != nil {
			// no clip at this level is not fatal, the item just ships without audio
			s.log.Warn("No listening clip for generated item", "level", level, "error", clipErr)
			break
		}
		if len(blocks) > 0 {
			blocks[0].AudioURL = clip.URL
		}
		// comprehension checks over the clip transcript
		for _, q := range s.analysis.GenerateListeningQuestions(ctx, clip.Transcript, listeningQuestionCount) {
			blocks = append(blocks, types.ContentBlock{
				Kind:          "multiple_choice",
				Question:      q.Question,
				Options:       q.Options,
				CorrectAnswer: q.CorrectAnswer,
				AudioURL:      clip.URL,
			})
		}
	default:
		generated := s.analysis.GenerateContent(ctx, string(skill), level, topicName)
		title = generated.Title
		blocks = generated.Blocks
	}

	rationale := fmt.Sprintf("targets %s at %s, plan topic %q (%d%%)",
		skill.DisplayName(), level, topicName, mastery)
	return &contentSlot{
		item: &types.ContentItem{
			ID:          uuid.New(),
			Title:       title,
			Body:        types.EncodeContentBlocks(blocks),
			SkillTarget: string(skill),
			Level:       level,
		},
		rationale: rationale,
		topicName: topicName,
		skill:     skill,
		level:     level,
		blocks:    blocks,
	}
}

// slotTopic resolves the topic for one batch slot: caller-provided
// topics win, then the ranked plan topics, cycling when the batch is
// larger than either list.
func slotTopic(opts PrepareOptions, ranked []*types.LessonPlanTopic, slot int) (string, int) {
	if len(opts.Topics) > 0 {
		return opts.Topics[slot%len(opts.Topics)], 0
	}
	topic := ranked[slot%len(ranked)]
	return topic.Name, topic.MasteryPercent
}

// resolveSkill prefers the caller's choice, then the weakest assessed
// skill; learners with no result yet get a skill implied by the topic
// text.
func resolveSkill(opts PrepareOptions, snap *types.LearnerSkillSnapshot, topicName string) types.ModuleType {
	if opts.Skill.Valid() {
		return opts.Skill
	}
	if snap.HasResult {
		return weakestSkill(snap)
	}
	candidates := skillsImpliedByTopic(topicName)
	return candidates[rand.Intn(len(candidates))]
}

func resolveLevel(opts PrepareOptions, snap *types.LearnerSkillSnapshot, skill types.ModuleType) types.CEFRLevel {
	if opts.Level.Ordinal() > 0 {
		return opts.Level
	}
	level := snap.PerSkillLevels[skill]
	if level.Ordinal() == 0 {
		level = snap.OverallLevel
	}
	return level
}

// skillsImpliedByTopic maps topic text onto candidate skills: explicit
// skill words win, otherwise the text-heavy skills stand in.
func skillsImpliedByTopic(topicName string) []types.ModuleType {
	lower := strings.ToLower(topicName)
	var implied []types.ModuleType
	for _, moduleType := range types.AllModuleTypes {
		if strings.Contains(lower, string(moduleType)) {
			implied = append(implied, moduleType)
		}
	}
	if strings.Contains(lower, "conversation") || strings.Contains(lower, "pronunciation") {
		implied = append(implied, types.ModuleSpeaking)
	}
	if len(implied) == 0 {
		implied = []types.ModuleType{types.ModuleReading, types.ModuleWriting}
	}
	return implied
}

func (s *contentDeliveryService) GetContent(ctx context.Context, userID, contentID uuid.UUID) (*ContentView, error) {
	assignment, err := s.assignmentRepo.GetByUserAndContent(ctx, nil, userID, contentID)
	if err != nil {
		return nil, fmt.Errorf("fetching assignment: %w", err)
	}
	if assignment == nil {
		return nil, apperr.NotFoundf("content_not_assigned", "content %s is not assigned to this learner", contentID)
	}
	return s.viewForAssignment(ctx, assignment)
}

// CompleteContent grades the interactive blocks, retires the active
// assignment exactly once and bumps topic mastery. The trailing tag
// re-analysis is best effort and never fails the completion.
func (s *contentDeliveryService) CompleteContent(ctx context.Context, userID, contentID uuid.UUID, answers map[int]string) (*CompletionView, error) {
	assignment, err := s.assignmentRepo.GetByUserAndContent(ctx, nil, userID, contentID)
	if err != nil {
		return nil, fmt.Errorf("fetching assignment: %w", err)
	}
	if assignment == nil || !assignment.IsActive {
		return nil, apperr.NotFoundf("active_assignment_not_found", "content %s is not active for this learner", contentID)
	}

	item, err := s.contentRepo.GetByID(ctx, nil, contentID)
	if err != nil {
		return nil, fmt.Errorf("fetching content item: %w", err)
	}
	if item == nil {
		return nil, apperr.NotFoundf("content_not_found", "no content item %s", contentID)
	}

	correct, graded := gradeBlocks(item.Blocks(), answers)
	scorePercent := 100
	if graded > 0 {
		scorePercent = int(math.Round(100 * float64(correct) / float64(graded)))
	}

	view := &CompletionView{
		ContentID:    contentID,
		ScorePercent: scorePercent,
		CorrectCount: correct,
		GradedCount:  graded,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, completeErr := s.assignmentRepo.CompleteActive(ctx, tx, userID, contentID, time.Now().UTC())
		if completeErr != nil {
			return completeErr
		}
		if rows == 0 {
			return apperr.NotFoundf("active_assignment_not_found", "content %s is not active for this learner", contentID)
		}

		plan, planErr := s.planRepo.GetByUser(ctx, tx, userID)
		if planErr != nil {
			return planErr
		}
		if plan == nil {
			return nil
		}
		// credit the topic the item was generated for; caller-requested
		// topics outside the plan earn no mastery
		topic := topicByName(plan.Topics, assignment.TopicName)
		if topic == nil {
			return nil
		}
		mastery := topic.MasteryPercent + masteryDelta(scorePercent)
		if mastery > 100 {
			mastery = 100
		}
		view.MasteryTopic = topic.Name
		view.MasteryPercent = mastery
		return s.planRepo.UpdateTopicMastery(ctx, tx, topic.ID, mastery)
	})
	if err != nil {
		return nil, err
	}

	s.refreshResultTags(ctx, userID, types.ModuleType(item.SkillTarget), item.Level, scorePercent)

	s.log.Info("Content completed", "user_id", userID, "content_id", contentID,
		"score_percent", scorePercent, "mastery_topic", view.MasteryTopic)
	return view, nil
}

func (s *contentDeliveryService) EnsurePlan(ctx context.Context, userID uuid.UUID) (*types.LessonPlan, error) {
	plan, err := s.planRepo.GetByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching lesson plan: %w", err)
	}
	if plan != nil {
		return plan, nil
	}

	snap, err := s.snapshot.SnapshotForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	plan = &types.LessonPlan{ID: uuid.New(), UserID: userID}
	topics := defaultTopicsForLevel(plan.ID, snap.OverallLevel)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.planRepo.CreateWithTopics(ctx, tx, plan, topics)
	})
	if err != nil {
		return nil, fmt.Errorf("creating lesson plan: %w", err)
	}
	return s.planRepo.GetByUser(ctx, nil, userID)
}

// RegeneratePlan rebuilds the topic list from the current snapshot.
// This is the one path where mastery resets.
func (s *contentDeliveryService) RegeneratePlan(ctx context.Context, userID uuid.UUID) (*types.LessonPlan, error) {
	plan, err := s.EnsurePlan(ctx, userID)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot.SnapshotForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	topics := defaultTopicsForLevel(plan.ID, snap.OverallLevel)
	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if replaceErr := s.planRepo.ReplaceTopics(ctx, tx, plan.ID, topics); replaceErr != nil {
			return replaceErr
		}
		return tx.WithContext(ctx).
			Model(&types.LessonPlan{}).
			Where("id = ?", plan.ID).
			Update("regenerated_at", now).Error
	})
	if err != nil {
		return nil, fmt.Errorf("regenerating lesson plan: %w", err)
	}
	return s.planRepo.GetByUser(ctx, nil, userID)
}

func (s *contentDeliveryService) viewForAssignment(ctx context.Context, assignment *types.ContentAssignment) (*ContentView, error) {
	item, err := s.contentRepo.GetByID(ctx, nil, assignment.ContentID)
	if err != nil {
		return nil, fmt.Errorf("fetching content item: %w", err)
	}
	if item == nil {
		return nil, apperr.NotFoundf("content_not_found", "no content item %s", assignment.ContentID)
	}
	return &ContentView{
		ContentID:   item.ID,
		Title:       item.Title,
		SkillTarget: types.ModuleType(item.SkillTarget),
		Level:       item.Level,
		Blocks:      item.Blocks(),
		Rationale:   assignment.Rationale,
	}, nil
}

// refreshResultTags asks the model to re-read the learner's standing
// after a completion and rewrites the tags on the latest result. Purely
// best effort.
func (s *contentDeliveryService) refreshResultTags(ctx context.Context, userID uuid.UUID, skillTarget types.ModuleType, level types.CEFRLevel, scorePercent int) {
	result, err := s.resultRepo.GetLatestByUser(ctx, nil, userID)
	if err != nil {
		s.log.Warn("Failed to load latest result for tag refresh", "user_id", userID, "error", err)
		return
	}
	if result == nil {
		return
	}
	strengths, weaknesses, err := s.analysis.ReAnalyzeCompletion(ctx, string(skillTarget), level, scorePercent)
	if err != nil {
		s.log.Warn("Completion re-analysis failed", "user_id", userID, "error", err)
		return
	}
	merged := MergeTags(types.DecodeStringList(result.Strengths), strengths, tagListCap)
	mergedWeak := MergeTags(types.DecodeStringList(result.Weaknesses), weaknesses, tagListCap)
	if err := s.resultRepo.UpdateTags(ctx, nil, result.ID,
		types.EncodeStringList(merged), types.EncodeStringList(mergedWeak)); err != nil {
		s.log.Warn("Failed to update result tags", "user_id", userID, "error", err)
	}
}

func topicByName(topics []types.LessonPlanTopic, name string) *types.LessonPlanTopic {
	if name == "" {
		return nil
	}
	for i := range topics {
		if topics[i].Name == name {
			return &topics[i]
		}
	}
	return nil
}

// rankTopics orders plan topics for targeting: unmastered topics first,
// then by priority desc, lower mastery, plan position. Fully mastered
// plans still rank so completion always has a topic to credit.
func rankTopics(topics []types.LessonPlanTopic) []*types.LessonPlanTopic {
	ranked := make([]*types.LessonPlanTopic, 0, len(topics))
	for i := range topics {
		ranked = append(ranked, &topics[i])
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		ta, tb := ranked[a], ranked[b]
		if (ta.MasteryPercent < 100) != (tb.MasteryPercent < 100) {
			return ta.MasteryPercent < 100
		}
		if ta.Priority != tb.Priority {
			return ta.Priority > tb.Priority
		}
		if ta.MasteryPercent != tb.MasteryPercent {
			return ta.MasteryPercent < tb.MasteryPercent
		}
		return ta.Position < tb.Position
	})
	return ranked
}

// weakestSkill returns the lowest per-skill level, module order breaking
// ties.
func weakestSkill(snap *types.LearnerSkillSnapshot) types.ModuleType {
	weakest := types.AllModuleTypes[0]
	for _, moduleType := range types.AllModuleTypes[1:] {
		if snap.PerSkillLevels[moduleType].Ordinal() < snap.PerSkillLevels[weakest].Ordinal() {
			weakest = moduleType
		}
	}
	return weakest
}

// gradeBlocks grades fill_in_blank and multiple_choice blocks by exact
// case-insensitive match against the stored answer. Text and matching
// blocks are presentation only.
func gradeBlocks(blocks []types.ContentBlock, answers map[int]string) (correct, graded int) {
	for i, block := range blocks {
		if block.Kind != "fill_in_blank" && block.Kind != "multiple_choice" {
			continue
		}
		graded++
		answer, ok := answers[i]
		if !ok {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(block.CorrectAnswer)) {
			correct++
		}
	}
	return correct, graded
}

func masteryDelta(scorePercent int) int {
	switch {
	case scorePercent >= 80:
		return 10
	case scorePercent >= 50:
		return 5
	default:
		return 2
	}
}

var speakingPromptTemplates = map[types.CEFRLevel][]string{
	types.LevelA1: {
		"Introduce yourself. Say your name, where you are from, and one thing you like.",
		"Describe your family in a few simple sentences.",
	},
	types.LevelA2: {
		"Describe your last weekend. What did you do, and who were you with?",
		"Talk about your favourite place in your town and why you like it.",
	},
	types.LevelB1: {
		"Describe a problem you solved recently and how you solved it.",
		"Talk about a trip you would like to take and what you would do there.",
	},
	types.LevelB2: {
		"Do you think social media does more harm than good? Argue your position.",
		"Describe a decision you disagreed with and how you voiced that disagreement.",
	},
	types.LevelC1: {
		"Discuss how your field of work or study is likely to change in the next decade.",
		"Argue for or against mandatory civic service, anticipating the strongest counterargument.",
	},
	types.LevelC2: {
		"Critique a widely held assumption in your culture and trace where it comes from.",
		"Explain a complex idea from your expertise to a lay audience without losing nuance.",
	},
}

func speakingPromptForLevel(level types.CEFRLevel) string {
	prompts, ok := speakingPromptTemplates[level]
	if !ok {
		prompts = speakingPromptTemplates[types.LevelA1]
	}
	return prompts[rand.Intn(len(prompts))]
}

var topicCatalog = map[types.CEFRLevel][]struct {
	name     string
	category string
	priority int
}{
	types.LevelA1: {
		{"Greetings and Introductions", "vocabulary", 3},
		{"Numbers and Time", "vocabulary", 2},
		{"Present Simple", "grammar", 3},
		{"Everyday Objects", "vocabulary", 1},
	},
	types.LevelA2: {
		{"Past Simple", "grammar", 3},
		{"Shopping and Services", "vocabulary", 2},
		{"Making Plans", "functions", 2},
		{"Comparatives", "grammar", 1},
	},
	types.LevelB1: {
		{"Present Perfect", "grammar", 3},
		{"Expressing Opinions", "functions", 3},
		{"Work and Careers", "vocabulary", 2},
		{"Conditionals", "grammar", 2},
	},
	types.LevelB2: {
		{"Reported Speech", "grammar", 3},
		{"Debate and Argument", "functions", 3},
		{"Idioms and Collocations", "vocabulary", 2},
		{"Passive Constructions", "grammar", 1},
	},
	types.LevelC1: {
		{"Nuanced Register", "functions", 3},
		{"Advanced Discourse Markers", "grammar", 2},
		{"Abstract Topics", "vocabulary", 2},
		{"Inversion and Emphasis", "grammar", 1},
	},
	types.LevelC2: {
		{"Stylistic Range", "functions", 3},
		{"Rhetorical Devices", "functions", 2},
		{"Specialist Vocabulary", "vocabulary", 2},
		{"Near-Native Idiom", "vocabulary", 1},
	},
}

func defaultTopicsForLevel(planID uuid.UUID, level types.CEFRLevel) []*types.LessonPlanTopic {
	entries, ok := topicCatalog[level]
	if !ok {
		entries = topicCatalog[types.LevelA1]
	}
	topics := make([]*types.LessonPlanTopic, 0, len(entries))
	for i, entry := range entries {
		topics = append(topics, &types.LessonPlanTopic{
			ID:       uuid.New(),
			PlanID:   planID,
			Name:     entry.name,
			Category: entry.category,
			Priority: entry.priority,
			Position: i,
		})
	}
	return topics
}
