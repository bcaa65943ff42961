package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lingobridge-backend/internal/apperr"
	"github.com/yungbote/lingobridge-backend/internal/repos"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

type busyLock struct{}

func (busyLock) Acquire(ctx context.Context, userID uuid.UUID) (func(), bool, error) {
	return func() {}, false, nil
}

type deliveryFixture struct {
	db             *gorm.DB
	svc            ContentDeliveryService
	audio          AudioAssetService
	analysis       *scriptedAnalysis
	assignmentRepo repos.ContentAssignmentRepo
	planRepo       repos.LessonPlanRepo
	userID         uuid.UUID
}

func newDeliveryFixture(t *testing.T, lock LearnerLock) *deliveryFixture {
	t.Helper()
	db := testDB(t)
	log := testLogger(t)

	identity := newIdentityService(t, db)
	resultRepo := repos.NewPlacementResultRepo(db, log)
	profileRepo := repos.NewProfileRepo(db, log)
	snapshot := NewSnapshotService(log, identity, resultRepo, profileRepo)
	analysis := &scriptedAnalysis{}
	audio := NewAudioAssetService(log, repos.NewAudioAssetRepo(db, log), &fakeBucket{})
	assignmentRepo := repos.NewContentAssignmentRepo(db, log)
	planRepo := repos.NewLessonPlanRepo(db, log)
	if lock == nil {
		lock = NewNoopLearnerLock()
	}

	svc := NewContentDeliveryService(
		db,
		log,
		identity,
		snapshot,
		analysis,
		audio,
		lock,
		repos.NewContentItemRepo(db, log),
		assignmentRepo,
		planRepo,
		resultRepo,
	)

	return &deliveryFixture{
		db:             db,
		svc:            svc,
		audio:          audio,
		analysis:       analysis,
		assignmentRepo: assignmentRepo,
		planRepo:       planRepo,
		userID:         createStudent(t, db, types.LevelA1),
	}
}

func (f *deliveryFixture) activeCount(t *testing.T) int64 {
	t.Helper()
	count, err := f.assignmentRepo.CountActiveByUser(context.Background(), nil, f.userID)
	if err != nil {
		t.Fatalf("active count failed: %v", err)
	}
	return count
}

func TestPrepareContentSingleActiveItem(t *testing.T) {
	f := newDeliveryFixture(t, nil)
	ctx := context.Background()

	first, err := f.svc.PrepareContent(ctx, f.userID, PrepareOptions{})
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	if count := f.activeCount(t); count != 1 {
		t.Fatalf("active count after prepare: got %d, want 1", count)
	}
	if first.Rationale == "" {
		t.Fatal("prepared item must carry a rationale")
	}

	// a second prepare returns the same active item, never a second one
	second, err := f.svc.PrepareContent(ctx, f.userID, PrepareOptions{})
	if err != nil {
		t.Fatalf("second prepare failed: %v", err)
	}
	if second.ContentID != first.ContentID {
		t.Fatalf("second prepare minted new content: %s vs %s", second.ContentID, first.ContentID)
	}
	if count := f.activeCount(t); count != 1 {
		t.Fatalf("active count after second prepare: got %d, want 1", count)
	}
}

func TestPrepareContentRejectedWhileLockHeld(t *testing.T) {
	f := newDeliveryFixture(t, busyLock{})

	if _, err := f.svc.PrepareContent(context.Background(), f.userID, PrepareOptions{}); !apperr.IsValidation(err) {
		t.Fatalf("expected validation error while lock held, got %v", err)
	}
	if count := f.activeCount(t); count != 0 {
		t.Fatalf("nothing should be created under a held lock, got %d active", count)
	}
}

func TestGetContentRequiresAssignment(t *testing.T) {
	f := newDeliveryFixture(t, nil)
	ctx := context.Background()

	if _, err := f.svc.GetContent(ctx, f.userID, uuid.New()); !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found for unassigned content, got %v", err)
	}

	view, err := f.svc.PrepareContent(ctx, f.userID, PrepareOptions{})
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	got, err := f.svc.GetContent(ctx, f.userID, view.ContentID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ContentID != view.ContentID || len(got.Blocks) == 0 {
		t.Fatalf("unexpected view: %+v", got)
	}

	// the assignment does not leak to other learners
	stranger := createStudent(t, f.db, types.LevelA1)
	if _, err := f.svc.GetContent(ctx, stranger, view.ContentID); !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found for another learner, got %v", err)
	}
}

func TestCompleteContentFlow(t *testing.T) {
	f := newDeliveryFixture(t, nil)
	ctx := context.Background()

	view, err := f.svc.PrepareContent(ctx, f.userID, PrepareOptions{})
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}

	// the fallback lesson has one gradable block: "She ___ to school" -> goes
	answers := map[int]string{}
	for i, block := range view.Blocks {
		if block.Kind == "fill_in_blank" {
			answers[i] = strings.ToUpper(block.CorrectAnswer)
		}
	}
	done, err := f.svc.CompleteContent(ctx, f.userID, view.ContentID, answers)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if done.ScorePercent != 100 {
		t.Fatalf("score: got %d, want 100", done.ScorePercent)
	}
	if done.MasteryPercent != 10 {
		t.Fatalf("mastery after perfect score: got %d, want 10", done.MasteryPercent)
	}
	if count := f.activeCount(t); count != 0 {
		t.Fatalf("active count after complete: got %d, want 0", count)
	}

	// completing the now-inactive item again is not found
	if _, err := f.svc.CompleteContent(ctx, f.userID, view.ContentID, answers); !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found on repeat completion, got %v", err)
	}
}

func TestCompleteContentMasteryClamp(t *testing.T) {
	f := newDeliveryFixture(t, nil)
	ctx := context.Background()

	view, err := f.svc.PrepareContent(ctx, f.userID, PrepareOptions{})
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	plan, err := f.svc.EnsurePlan(ctx, f.userID)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	for _, topic := range plan.Topics {
		if err := f.planRepo.UpdateTopicMastery(ctx, nil, topic.ID, 95); err != nil {
			t.Fatalf("mastery update failed: %v", err)
		}
	}

	answers := map[int]string{}
	for i, block := range view.Blocks {
		if block.Kind == "fill_in_blank" || block.Kind == "multiple_choice" {
			answers[i] = block.CorrectAnswer
		}
	}
	done, err := f.svc.CompleteContent(ctx, f.userID, view.ContentID, answers)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if done.MasteryPercent != 100 {
		t.Fatalf("mastery must clamp at 100, got %d", done.MasteryPercent)
	}
}

func TestMasteryDelta(t *testing.T) {
	cases := []struct {
		score int
		want  int
	}{
		{100, 10}, {80, 10}, {79, 5}, {50, 5}, {49, 2}, {0, 2},
	}
	for _, tc := range cases {
		if got := masteryDelta(tc.score); got != tc.want {
			t.Fatalf("delta(%d): got %d, want %d", tc.score, got, tc.want)
		}
	}
}

func TestGradeBlocks(t *testing.T) {
	blocks := []types.ContentBlock{
		{Kind: "text", Text: "intro"},
		{Kind: "fill_in_blank", Question: "I ___ tea.", CorrectAnswer: "drink"},
		{Kind: "multiple_choice", Question: "Pick one", Options: []string{"a", "b"}, CorrectAnswer: "b"},
		{Kind: "matching", Pairs: map[string]string{"cat": "chat"}},
	}
	correct, graded := gradeBlocks(blocks, map[int]string{1: " DRINK ", 2: "a"})
	if graded != 2 {
		t.Fatalf("graded: got %d, want 2", graded)
	}
	if correct != 1 {
		t.Fatalf("correct: got %d, want 1", correct)
	}
}

func TestEnsurePlanAndRegenerate(t *testing.T) {
	f := newDeliveryFixture(t, nil)
	ctx := context.Background()

	plan, err := f.svc.EnsurePlan(ctx, f.userID)
	if err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	if len(plan.Topics) == 0 {
		t.Fatal("fresh plan must have topics")
	}

	again, err := f.svc.EnsurePlan(ctx, f.userID)
	if err != nil {
		t.Fatalf("second ensure failed: %v", err)
	}
	if again.ID != plan.ID {
		t.Fatalf("ensure minted a second plan: %s vs %s", again.ID, plan.ID)
	}

	target := rankTopics(plan.Topics)[0]
	if err := f.planRepo.UpdateTopicMastery(ctx, nil, target.ID, 60); err != nil {
		t.Fatalf("mastery update failed: %v", err)
	}

	regenerated, err := f.svc.RegeneratePlan(ctx, f.userID)
	if err != nil {
		t.Fatalf("regenerate failed: %v", err)
	}
	if regenerated.ID != plan.ID {
		t.Fatalf("regeneration must keep the plan row, got %s vs %s", regenerated.ID, plan.ID)
	}
	if regenerated.RegeneratedAt == nil {
		t.Fatal("regenerated_at must be stamped")
	}
	for _, topic := range regenerated.Topics {
		if topic.MasteryPercent != 0 {
			t.Fatalf("regeneration must reset mastery, topic %q has %d", topic.Name, topic.MasteryPercent)
		}
	}
}

func TestPrepareListeningContentCarriesAudio(t *testing.T) {
	f := newDeliveryFixture(t, nil)
	ctx := context.Background()

	if err := f.audio.SeedDefaultCatalog(ctx); err != nil {
		t.Fatalf("audio seed failed: %v", err)
	}

	// a finalized result with listening as the weakest skill
	result := &types.PlacementResult{
		ID:             uuid.New(),
		TestID:         uuid.New(),
		UserID:         f.userID,
		ReadingLevel:   types.LevelB1,
		WritingLevel:   types.LevelB1,
		ListeningLevel: types.LevelA1,
		SpeakingLevel:  types.LevelB1,
		OverallLevel:   types.LevelB1,
		Strengths:      types.EncodeStringList(nil),
		Weaknesses:     types.EncodeStringList([]string{"Listening"}),
		CompletedAt:    time.Now().UTC(),
	}
	if err := f.db.Create(result).Error; err != nil {
		t.Fatalf("result insert failed: %v", err)
	}

	view, err := f.svc.PrepareContent(ctx, f.userID, PrepareOptions{})
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	if view.SkillTarget != types.ModuleListening {
		t.Fatalf("skill target: got %s, want listening", view.SkillTarget)
	}
	if view.Level != types.LevelA1 {
		t.Fatalf("level: got %s, want A1", view.Level)
	}

	hasAudio := false
	mcq := 0
	for _, block := range view.Blocks {
		if block.AudioURL != "" {
			hasAudio = true
			if !strings.HasPrefix(block.AudioURL, "https://cdn.test/") {
				t.Fatalf("audio url not resolved through bucket: %q", block.AudioURL)
			}
		}
		if block.Kind == "multiple_choice" {
			mcq++
		}
	}
	if !hasAudio {
		t.Fatal("listening content must carry a clip URL")
	}
	if mcq != listeningQuestionCount {
		t.Fatalf("listening content should append %d comprehension checks, got %d", listeningQuestionCount, mcq)
	}
}

func TestPrepareContentHonorsCallerOptions(t *testing.T) {
	f := newDeliveryFixture(t, nil)
	ctx := context.Background()

	view, err := f.svc.PrepareContent(ctx, f.userID, PrepareOptions{
		Level:  types.LevelB2,
		Skill:  types.ModuleWriting,
		Topics: []string{"Job interviews"},
	})
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	if view.SkillTarget != types.ModuleWriting {
		t.Fatalf("skill target: got %s, want writing", view.SkillTarget)
	}
	if view.Level != types.LevelB2 {
		t.Fatalf("level: got %s, want B2", view.Level)
	}
	if !strings.Contains(view.Rationale, "Job interviews") {
		t.Fatalf("rationale should name the requested topic, got %q", view.Rationale)
	}
}

func TestPrepareSpeakingContentUsesPromptTable(t *testing.T) {
	f := newDeliveryFixture(t, nil)
	ctx := context.Background()

	view, err := f.svc.PrepareContent(ctx, f.userID, PrepareOptions{Skill: types.ModuleSpeaking})
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	if view.SkillTarget != types.ModuleSpeaking {
		t.Fatalf("skill target: got %s, want speaking", view.SkillTarget)
	}
	if len(view.Blocks) != 1 || view.Blocks[0].Kind != "text" || view.Blocks[0].Text == "" {
		t.Fatalf("speaking item must be a single local prompt block, got %+v", view.Blocks)
	}
	// prompt comes from the template table for the learner's level
	found := false
	for _, prompt := range speakingPromptTemplates[types.LevelA1] {
		if prompt == view.Blocks[0].Text {
			found = true
		}
	}
	if !found {
		t.Fatalf("prompt %q is not in the A1 template table", view.Blocks[0].Text)
	}
}

func TestCompleteContentCreditsItemTopic(t *testing.T) {
	f := newDeliveryFixture(t, nil)
	ctx := context.Background()

	// target a plan topic that is not the ranking head
	view, err := f.svc.PrepareContent(ctx, f.userID, PrepareOptions{Topics: []string{"Numbers and Time"}})
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}

	answers := map[int]string{}
	for i, block := range view.Blocks {
		if block.Kind == "fill_in_blank" || block.Kind == "multiple_choice" {
			answers[i] = block.CorrectAnswer
		}
	}
	done, err := f.svc.CompleteContent(ctx, f.userID, view.ContentID, answers)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if done.MasteryTopic != "Numbers and Time" {
		t.Fatalf("mastery credited to %q, want the item's own topic", done.MasteryTopic)
	}

	plan, err := f.svc.EnsurePlan(ctx, f.userID)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	for _, topic := range plan.Topics {
		want := 0
		if topic.Name == "Numbers and Time" {
			want = 10
		}
		if topic.MasteryPercent != want {
			t.Fatalf("topic %q mastery: got %d, want %d", topic.Name, topic.MasteryPercent, want)
		}
	}
}

func TestCompleteContentUnplannedTopicEarnsNoMastery(t *testing.T) {
	f := newDeliveryFixture(t, nil)
	ctx := context.Background()

	view, err := f.svc.PrepareContent(ctx, f.userID, PrepareOptions{Topics: []string{"Job interviews"}})
	if err != nil {
		t.Fatalf("prepare failed: %v", err)
	}
	done, err := f.svc.CompleteContent(ctx, f.userID, view.ContentID, nil)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if done.MasteryTopic != "" {
		t.Fatalf("no plan topic matches, but %q was credited", done.MasteryTopic)
	}

	plan, err := f.svc.EnsurePlan(ctx, f.userID)
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}
	for _, topic := range plan.Topics {
		if topic.MasteryPercent != 0 {
			t.Fatalf("topic %q mastery moved to %d", topic.Name, topic.MasteryPercent)
		}
	}
}

func TestRankTopicsPrefersUnmasteredByPriority(t *testing.T) {
	topics := []types.LessonPlanTopic{
		{Name: "done", Priority: 3, MasteryPercent: 100, Position: 0},
		{Name: "low", Priority: 1, MasteryPercent: 0, Position: 1},
		{Name: "high", Priority: 3, MasteryPercent: 40, Position: 2},
		{Name: "tied", Priority: 3, MasteryPercent: 20, Position: 3},
	}
	ranked := rankTopics(topics)
	if ranked[0].Name != "tied" {
		t.Fatalf("head: got %q, want tied (highest priority, lowest mastery)", ranked[0].Name)
	}
	if ranked[len(ranked)-1].Name != "done" {
		t.Fatalf("tail: got %q, want the mastered topic last", ranked[len(ranked)-1].Name)
	}
}
