package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/lingobridge-backend/internal/logger"
	"github.com/yungbote/lingobridge-backend/internal/types"
)

// AnalysisService wraps the generative model behind strict JSON
// contracts. Malformed model output never escapes this boundary: every
// call resolves to a validated structure, a degraded structure, or a
// deterministic fallback. Only hard transport failures return an error.
type AnalysisService interface {
	AnalyzeWriting(ctx context.Context, transcript string) (*WritingAnalysis, error)
	AnalyzeSpeaking(ctx context.Context, audio []byte, contentType, question string) (*types.SpeakingAnalysis, error)
	GenerateListeningQuestions(ctx context.Context, transcript string, count int) []GeneratedQuestion
	GenerateContent(ctx context.Context, skillTarget string, level types.CEFRLevel, topic string) *GeneratedContent
	ReAnalyzeCompletion(ctx context.Context, skillTarget string, level types.CEFRLevel, score int) ([]string, []string, error)
}

type WritingAnalysis struct {
	CEFRLevel    string   `json:"cefr_level"`
	StrengthTags []string `json:"strength_tags"`
	WeaknessTags []string `json:"weakness_tags"`
}

type GeneratedQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

type GeneratedContent struct {
	Title  string               `json:"title"`
	Blocks []types.ContentBlock `json:"blocks"`
}

type analysisService struct {
	log    *logger.Logger
	ai     AIClient
	speech SpeechTranscriber
}

func NewAnalysisService(log *logger.Logger, ai AIClient, speech SpeechTranscriber) AnalysisService {
	return &analysisService{
		log:    log.With("service", "AnalysisService"),
		ai:     ai,
		speech: speech,
	}
}

// ---- JSON recovery ----

// decodeModelJSON attempts, in order: a direct parse of the full text, a
// parse after stripping markdown code fences, and a parse of the first
// '{' .. last '}' span. It reports whether any attempt produced valid
// JSON into out.
func decodeModelJSON(raw string, out any) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}
	if json.Unmarshal([]byte(trimmed), out) == nil {
		return true
	}

	stripped := stripCodeFences(trimmed)
	if stripped != trimmed && json.Unmarshal([]byte(stripped), out) == nil {
		return true
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		span := trimmed[start : end+1]
		if json.Unmarshal([]byte(span), out) == nil {
			return true
		}
	}
	return false
}

func stripCodeFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	body := strings.TrimPrefix(s, "```")
	if idx := strings.Index(body, "\n"); idx >= 0 {
		// drop the language tag line ("json", "JSON", ...)
		body = body[idx+1:]
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}

const rawLogChunkSize = 900

// logRawResponse logs the complete model output in chunks so audit trails
// survive log-line truncation.
func (s *analysisService) logRawResponse(label, raw string) {
	total := (len(raw) + rawLogChunkSize - 1) / rawLogChunkSize
	if total == 0 {
		s.log.Debug("Model response empty", "label", label)
		return
	}
	for i := 0; i < len(raw); i += rawLogChunkSize {
		end := i + rawLogChunkSize
		if end > len(raw) {
			end = len(raw)
		}
		s.log.Debug("Model response chunk",
			"label", label,
			"chunk", i/rawLogChunkSize+1,
			"of", total,
			"content", raw[i:end],
		)
	}
}

// chatParsed runs a chat call and tries the recovery ladder. When the
// first response is unparseable it issues exactly one stricter retry at
// temperature 0 before reporting failure.
func (s *analysisService) chatParsed(ctx context.Context, label, system, user string, out any) (bool, error) {
	raw, err := s.ai.Chat(ctx, []AIMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, nil)
	if err != nil {
		return false, err
	}
	s.logRawResponse(label, raw)
	if decodeModelJSON(raw, out) {
		return true, nil
	}

	s.log.Warn("Model response unparseable, issuing strict retry", "label", label)
	zero := 0.0
	retryRaw, err := s.ai.Chat(ctx, []AIMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
		{Role: "assistant", Content: raw},
		{Role: "user", Content: "Your previous reply was not valid JSON. Re-emit the complete JSON object on a single line with no surrounding text or code fences."},
	}, &AIOptions{Temperature: &zero})
	if err != nil {
		return false, err
	}
	s.logRawResponse(label+"_retry", retryRaw)
	if decodeModelJSON(retryRaw, out) {
		return true, nil
	}
	s.log.Warn("Model response unparseable after strict retry, giving up", "label", label)
	return false, nil
}

// ---- Writing ----

const writingSystemPrompt = `You are an English language assessor. Reply with exactly one minified JSON object matching:
{"cefr_level":"A1|A2|B1|B2|C1|C2","strength_tags":["..."],"weakness_tags":["..."]}
No prose, no markdown.`

func (s *analysisService) AnalyzeWriting(ctx context.Context, transcript string) (*WritingAnalysis, error) {
	user := fmt.Sprintf("Assess the CEFR level of this learner writing sample and tag up to 4 strengths and 4 weaknesses:\n\n%s", transcript)

	var parsed WritingAnalysis
	ok, err := s.chatParsed(ctx, "writing_analysis", writingSystemPrompt, user, &parsed)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if _, valid := types.ParseCEFRLevel(parsed.CEFRLevel); !valid {
		s.log.Warn("Writing analysis returned unrecognized CEFR level", "level", parsed.CEFRLevel)
		return nil, nil
	}
	return &parsed, nil
}

// ---- Speaking ----

const speakingSystemPrompt = `You are an English speaking assessor. Reply with exactly one minified JSON object matching:
{"transcript":"...","pronunciation_score":0,"fluency_score":0,"grammar_score":0,"vocabulary_score":0,"overall_score":0,"cefr_level":"A1|A2|B1|B2|C1|C2","strength_tags":["..."],"weakness_tags":["..."]}
Scores are 0-100. No prose, no markdown.`

// AnalyzeSpeaking transcribes the recording and scores the transcript.
// The transcription step is mandatory: its failure is the one hard error
// this path can return. Unparseable scoring output degrades to a
// zero-score analysis carrying the transcript.
func (s *analysisService) AnalyzeSpeaking(ctx context.Context, audio []byte, contentType, question string) (*types.SpeakingAnalysis, error) {
	transcript, err := s.speech.TranscribeBytes(ctx, audio, contentType)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	user := fmt.Sprintf("Question asked: %s\n\nLearner transcript: %s\n\nScore the response.", question, transcript)

	var parsed types.SpeakingAnalysis
	ok, err := s.chatParsed(ctx, "speaking_analysis", speakingSystemPrompt, user, &parsed)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.SpeakingAnalysis{Transcript: transcript}, nil
	}
	if parsed.Transcript == "" {
		parsed.Transcript = transcript
	}
	if _, valid := types.ParseCEFRLevel(parsed.CEFRLevel); !valid {
		parsed.CEFRLevel = ""
	}
	return &parsed, nil
}

// ---- Listening question generation ----

const listeningSystemPrompt = `You write listening comprehension checks. Reply with exactly one minified JSON object matching:
{"questions":[{"question":"...","options":["...","...","...","..."],"correct_answer":"..."}]}
Every question has exactly 4 options and the correct answer appears among them. No prose, no markdown.`

type listeningQuestionSet struct {
	Questions []GeneratedQuestion `json:"questions"`
}

// GenerateListeningQuestions never fails the caller: malformed model
// output skips straight to the deterministic fallback set, with no strict
// retry for this path.
func (s *analysisService) GenerateListeningQuestions(ctx context.Context, transcript string, count int) []GeneratedQuestion {
	if count <= 0 {
		count = 5
	}
	user := fmt.Sprintf("Write %d comprehension questions over this transcript:\n\n%s", count, transcript)

	raw, err := s.ai.Chat(ctx, []AIMessage{
		{Role: "system", Content: listeningSystemPrompt},
		{Role: "user", Content: user},
	}, nil)
	if err != nil {
		s.log.Warn("Listening question generation failed, using fallback set", "error", err)
		return fallbackListeningQuestions()
	}
	s.logRawResponse("listening_questions", raw)

	var parsed listeningQuestionSet
	if !decodeModelJSON(raw, &parsed) {
		s.log.Warn("Listening question response unparseable, using fallback set")
		return fallbackListeningQuestions()
	}

	valid := make([]GeneratedQuestion, 0, len(parsed.Questions))
	for _, q := range parsed.Questions {
		if validateGeneratedQuestion(q) {
			valid = append(valid, q)
		}
	}
	if len(valid) == 0 {
		s.log.Warn("No valid questions after validation, using fallback set")
		return fallbackListeningQuestions()
	}
	if len(valid) > count {
		valid = valid[:count]
	}
	return valid
}

// validateGeneratedQuestion drops (never substitutes) items without
// exactly 4 options or whose correct answer is missing from them.
func validateGeneratedQuestion(q GeneratedQuestion) bool {
	if strings.TrimSpace(q.Question) == "" || len(q.Options) != 4 {
		return false
	}
	if strings.TrimSpace(q.CorrectAnswer) == "" {
		return false
	}
	for _, option := range q.Options {
		if strings.EqualFold(strings.TrimSpace(option), strings.TrimSpace(q.CorrectAnswer)) {
			return true
		}
	}
	return false
}

func fallbackListeningQuestions() []GeneratedQuestion {
	return []GeneratedQuestion{
		{
			Question:      "What was the main topic of the recording?",
			Options:       []string{"Daily life", "Science", "Travel", "History"},
			CorrectAnswer: "Daily life",
		},
		{
			Question:      "How many speakers did you hear?",
			Options:       []string{"One", "Two", "Three", "Four"},
			CorrectAnswer: "One",
		},
		{
			Question:      "What was the overall tone of the recording?",
			Options:       []string{"Neutral", "Angry", "Excited", "Sad"},
			CorrectAnswer: "Neutral",
		},
	}
}

// ---- Content generation ----

const contentSystemPrompt = `You write short language learning lessons. Reply with exactly one minified JSON object matching:
{"title":"...","blocks":[{"kind":"text","text":"..."},{"kind":"matching","pairs":{"word":"meaning"}},{"kind":"fill_in_blank","question":"... ___ ...","correct_answer":"..."}]}
Include at least one matching or fill_in_blank block. No prose, no markdown.`

// GenerateContent resolves to generated blocks or a deterministic
// fallback lesson; like listening generation it never fails the caller.
func (s *analysisService) GenerateContent(ctx context.Context, skillTarget string, level types.CEFRLevel, topic string) *GeneratedContent {
	user := fmt.Sprintf("Write a %s lesson at CEFR level %s on the topic %q.", skillTarget, level, topic)

	raw, err := s.ai.Chat(ctx, []AIMessage{
		{Role: "system", Content: contentSystemPrompt},
		{Role: "user", Content: user},
	}, nil)
	if err != nil {
		s.log.Warn("Content generation failed, using fallback lesson", "error", err)
		return fallbackContent(skillTarget, level, topic)
	}
	s.logRawResponse("content_generation", raw)

	var parsed GeneratedContent
	if !decodeModelJSON(raw, &parsed) || parsed.Title == "" || !hasInteractiveBlock(parsed.Blocks) {
		s.log.Warn("Content generation response invalid, using fallback lesson")
		return fallbackContent(skillTarget, level, topic)
	}
	return &parsed
}

func hasInteractiveBlock(blocks []types.ContentBlock) bool {
	for _, block := range blocks {
		if block.Kind == "matching" || block.Kind == "fill_in_blank" {
			return true
		}
	}
	return false
}

func fallbackContent(skillTarget string, level types.CEFRLevel, topic string) *GeneratedContent {
	return &GeneratedContent{
		Title: fmt.Sprintf("Practice: %s (%s)", topic, level),
		Blocks: []types.ContentBlock{
			{Kind: "text", Text: fmt.Sprintf("Review the core %s patterns for %s and try the exercise below.", skillTarget, topic)},
			{Kind: "fill_in_blank", Question: "She ___ to school every day.", CorrectAnswer: "goes"},
		},
	}
}

// ---- Post-completion re-analysis ----

const reanalysisSystemPrompt = `You review a learner's latest practice outcome. Reply with exactly one minified JSON object matching:
{"strength_tags":["..."],"weakness_tags":["..."]}
No prose, no markdown.`

type reanalysisResult struct {
	StrengthTags []string `json:"strength_tags"`
	WeaknessTags []string `json:"weakness_tags"`
}

func (s *analysisService) ReAnalyzeCompletion(ctx context.Context, skillTarget string, level types.CEFRLevel, score int) ([]string, []string, error) {
	user := fmt.Sprintf("The learner completed a %s item at level %s scoring %d%%. Tag up to 2 strengths and 2 weaknesses.", skillTarget, level, score)

	var parsed reanalysisResult
	ok, err := s.chatParsed(ctx, "completion_reanalysis", reanalysisSystemPrompt, user, &parsed)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, nil
	}
	return parsed.StrengthTags, parsed.WeaknessTags, nil
}
