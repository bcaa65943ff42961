package types

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// JSON text columns are stored as versioned envelopes so that older rows
// can be recognized and skipped instead of crashing a decode path. Decoding
// degrades to the zero value on any error.

const PayloadSchemaVersion = 1

type stringListEnvelope struct {
	SchemaVersion int      `json:"schema_version"`
	Items         []string `json:"items"`
}

func EncodeStringList(items []string) datatypes.JSON {
	if items == nil {
		items = []string{}
	}
	raw, err := json.Marshal(stringListEnvelope{SchemaVersion: PayloadSchemaVersion, Items: items})
	if err != nil {
		return datatypes.JSON(`{"schema_version":1,"items":[]}`)
	}
	return datatypes.JSON(raw)
}

func DecodeStringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var env stringListEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Items == nil {
		return []string{}
	}
	return env.Items
}

type answerMapEnvelope struct {
	SchemaVersion int               `json:"schema_version"`
	Answers       map[string]string `json:"answers"`
}

// Answer maps are keyed by question id.
func EncodeAnswerMap(answers map[string]string) datatypes.JSON {
	if answers == nil {
		answers = map[string]string{}
	}
	raw, err := json.Marshal(answerMapEnvelope{SchemaVersion: PayloadSchemaVersion, Answers: answers})
	if err != nil {
		return datatypes.JSON(`{"schema_version":1,"answers":{}}`)
	}
	return datatypes.JSON(raw)
}

func DecodeAnswerMap(raw datatypes.JSON) map[string]string {
	if len(raw) == 0 {
		return map[string]string{}
	}
	var env answerMapEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Answers == nil {
		return map[string]string{}
	}
	return env.Answers
}

// SpeakingAnalysis is the structured payload written onto a speaking
// module after audio analysis.
type SpeakingAnalysis struct {
	Transcript         string   `json:"transcript"`
	PronunciationScore float64  `json:"pronunciation_score"`
	FluencyScore       float64  `json:"fluency_score"`
	GrammarScore       float64  `json:"grammar_score"`
	VocabularyScore    float64  `json:"vocabulary_score"`
	OverallScore       float64  `json:"overall_score"`
	CEFRLevel          string   `json:"cefr_level"`
	StrengthTags       []string `json:"strength_tags"`
	WeaknessTags       []string `json:"weakness_tags"`
}

type speakingAnalysisEnvelope struct {
	SchemaVersion int               `json:"schema_version"`
	Analysis      *SpeakingAnalysis `json:"analysis"`
}

func EncodeSpeakingAnalysis(a *SpeakingAnalysis) datatypes.JSON {
	raw, err := json.Marshal(speakingAnalysisEnvelope{SchemaVersion: PayloadSchemaVersion, Analysis: a})
	if err != nil {
		return datatypes.JSON(`{"schema_version":1,"analysis":null}`)
	}
	return datatypes.JSON(raw)
}

func DecodeSpeakingAnalysis(raw datatypes.JSON) *SpeakingAnalysis {
	if len(raw) == 0 {
		return nil
	}
	var env speakingAnalysisEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil
	}
	return env.Analysis
}

// ContentBlock is one renderable block of a generated content item. Kind
// is "text", "matching", "fill_in_blank" or "multiple_choice".
type ContentBlock struct {
	Kind          string            `json:"kind"`
	Text          string            `json:"text,omitempty"`
	Pairs         map[string]string `json:"pairs,omitempty"`
	Question      string            `json:"question,omitempty"`
	Options       []string          `json:"options,omitempty"`
	CorrectAnswer string            `json:"correct_answer,omitempty"`
	AudioURL      string            `json:"audio_url,omitempty"`
}

type contentBlocksEnvelope struct {
	SchemaVersion int            `json:"schema_version"`
	Blocks        []ContentBlock `json:"blocks"`
}

func EncodeContentBlocks(blocks []ContentBlock) datatypes.JSON {
	if blocks == nil {
		blocks = []ContentBlock{}
	}
	raw, err := json.Marshal(contentBlocksEnvelope{SchemaVersion: PayloadSchemaVersion, Blocks: blocks})
	if err != nil {
		return datatypes.JSON(`{"schema_version":1,"blocks":[]}`)
	}
	return datatypes.JSON(raw)
}

func DecodeContentBlocks(raw datatypes.JSON) []ContentBlock {
	if len(raw) == 0 {
		return []ContentBlock{}
	}
	var env contentBlocksEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Blocks == nil {
		return []ContentBlock{}
	}
	return env.Blocks
}
