package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/yungbote/lingobridge-backend/internal/types"
)

func newAnalysisForTest(t *testing.T, ai *fakeAIClient, speech SpeechTranscriber) AnalysisService {
	t.Helper()
	if speech == nil {
		speech = &fakeTranscriber{transcript: "hello there"}
	}
	return NewAnalysisService(testLogger(t), ai, speech)
}

func TestDecodeModelJSONRecoveryLadder(t *testing.T) {
	type payload struct {
		Level string `json:"cefr_level"`
	}
	variants := map[string]string{
		"direct":        `{"cefr_level":"B1"}`,
		"fenced":        "```json\n{\"cefr_level\":\"B1\"}\n```",
		"fenced no tag": "```\n{\"cefr_level\":\"B1\"}\n```",
		"prose wrapped": `Sure! Here is the assessment: {"cefr_level":"B1"} Hope that helps.`,
	}
	for name, raw := range variants {
		t.Run(name, func(t *testing.T) {
			var out payload
			if !decodeModelJSON(raw, &out) {
				t.Fatalf("failed to decode %q", raw)
			}
			if out.Level != "B1" {
				t.Fatalf("got level %q, want B1", out.Level)
			}
		})
	}

	var out payload
	if decodeModelJSON("no json here at all", &out) {
		t.Fatal("expected decode failure for plain prose")
	}
	if decodeModelJSON("", &out) {
		t.Fatal("expected decode failure for empty input")
	}
}

func TestAnalyzeWritingStrictRetryExactlyOnce(t *testing.T) {
	ai := &fakeAIClient{responses: []string{
		"I think the learner is about B1, maybe B2?",
		`{"cefr_level":"B1","strength_tags":["vocabulary range"],"weakness_tags":["article usage"]}`,
	}}
	svc := newAnalysisForTest(t, ai, nil)

	analysis, err := svc.AnalyzeWriting(context.Background(), "Yesterday I go to the market and buyed apples.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis == nil || analysis.CEFRLevel != "B1" {
		t.Fatalf("got %+v, want B1 analysis", analysis)
	}
	if len(ai.calls) != 2 {
		t.Fatalf("got %d model calls, want 2", len(ai.calls))
	}
	retry := ai.calls[1]
	if retry.Options == nil || retry.Options.Temperature == nil || *retry.Options.Temperature != 0 {
		t.Fatalf("strict retry must run at temperature 0, got %+v", retry.Options)
	}
	if len(retry.Messages) != 4 {
		t.Fatalf("strict retry should echo the bad reply, got %d messages", len(retry.Messages))
	}
}

func TestAnalyzeWritingGivesUpAfterOneRetry(t *testing.T) {
	ai := &fakeAIClient{responses: []string{"still not json", "nope, still prose"}}
	svc := newAnalysisForTest(t, ai, nil)

	analysis, err := svc.AnalyzeWriting(context.Background(), "sample")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis != nil {
		t.Fatalf("expected nil analysis after failed retry, got %+v", analysis)
	}
	if len(ai.calls) != 2 {
		t.Fatalf("got %d model calls, want exactly 2", len(ai.calls))
	}
}

func TestAnalyzeSpeakingDegradesToZeroScore(t *testing.T) {
	ai := &fakeAIClient{responses: []string{"prose", "more prose"}}
	svc := newAnalysisForTest(t, ai, &fakeTranscriber{transcript: "I like travel very much"})

	analysis, err := svc.AnalyzeSpeaking(context.Background(), []byte{1, 2, 3}, "audio/wav", "Describe your hobbies")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis == nil {
		t.Fatal("expected degraded analysis, got nil")
	}
	if analysis.Transcript != "I like travel very much" {
		t.Fatalf("degraded analysis must carry the transcript, got %q", analysis.Transcript)
	}
	if analysis.OverallScore != 0 || analysis.CEFRLevel != "" {
		t.Fatalf("degraded analysis must score zero, got %+v", analysis)
	}
}

func TestAnalyzeSpeakingTranscriptionFailureIsHard(t *testing.T) {
	ai := &fakeAIClient{}
	svc := newAnalysisForTest(t, ai, &fakeTranscriber{err: fmt.Errorf("speech unavailable")})

	if _, err := svc.AnalyzeSpeaking(context.Background(), []byte{1}, "audio/wav", "q"); err == nil {
		t.Fatal("expected error when transcription fails")
	}
	if len(ai.calls) != 0 {
		t.Fatalf("scoring must not run after failed transcription, got %d calls", len(ai.calls))
	}
}

func TestGenerateListeningQuestionsFallbackSet(t *testing.T) {
	ai := &fakeAIClient{responses: []string{"not json"}}
	svc := newAnalysisForTest(t, ai, nil)

	questions := svc.GenerateListeningQuestions(context.Background(), "transcript", 5)
	if len(questions) != 3 {
		t.Fatalf("fallback set must have 3 questions, got %d", len(questions))
	}
	// no strict retry on this path
	if len(ai.calls) != 1 {
		t.Fatalf("got %d model calls, want 1", len(ai.calls))
	}
	for _, q := range questions {
		if !validateGeneratedQuestion(q) {
			t.Fatalf("fallback question failed validation: %+v", q)
		}
	}
}

func TestGenerateListeningQuestionsDropsInvalid(t *testing.T) {
	ai := &fakeAIClient{responses: []string{
		`{"questions":[` +
			`{"question":"Good one?","options":["A","B","C","D"],"correct_answer":"a"},` +
			`{"question":"Three options","options":["A","B","C"],"correct_answer":"A"},` +
			`{"question":"Answer missing","options":["A","B","C","D"],"correct_answer":"E"}]}`,
	}}
	svc := newAnalysisForTest(t, ai, nil)

	questions := svc.GenerateListeningQuestions(context.Background(), "transcript", 5)
	if len(questions) != 1 {
		t.Fatalf("got %d questions, want 1 valid survivor", len(questions))
	}
	if questions[0].Question != "Good one?" {
		t.Fatalf("wrong survivor: %+v", questions[0])
	}
}

func TestGenerateContentFallback(t *testing.T) {
	ai := &fakeAIClient{responses: []string{`{"title":"","blocks":[]}`}}
	svc := newAnalysisForTest(t, ai, nil)

	content := svc.GenerateContent(context.Background(), "reading", types.LevelA2, "Past Simple")
	if content == nil || content.Title == "" {
		t.Fatalf("fallback content missing: %+v", content)
	}
	if !hasInteractiveBlock(content.Blocks) {
		t.Fatal("fallback content must include an interactive block")
	}
}

func TestGenerateContentAcceptsValidOutput(t *testing.T) {
	ai := &fakeAIClient{responses: []string{
		`{"title":"Market Words","blocks":[{"kind":"text","text":"Shops sell things."},{"kind":"fill_in_blank","question":"I ___ bread.","correct_answer":"buy"}]}`,
	}}
	svc := newAnalysisForTest(t, ai, nil)

	content := svc.GenerateContent(context.Background(), "vocabulary", types.LevelA1, "Shopping")
	if content.Title != "Market Words" {
		t.Fatalf("got title %q", content.Title)
	}
	if len(content.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(content.Blocks))
	}
}
