package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PlacementTestStatus string

const (
	TestStatusCreated   PlacementTestStatus = "created"
	TestStatusSeeded    PlacementTestStatus = "modules_seeded"
	TestStatusFinalized PlacementTestStatus = "finalized"
)

// PlacementTest is one placement attempt for one learner. It owns exactly
// four TestModule rows, one per module type. Identity is immutable after
// creation; once a PlacementResult exists the test is superseded, not
// mutated.
type PlacementTest struct {
	ID        uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID           `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User               `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Status    PlacementTestStatus `gorm:"column:status;not null;default:'created'" json:"status"`
	Modules   []TestModule        `gorm:"foreignKey:TestID;references:ID" json:"modules,omitempty"`
	CreatedAt time.Time           `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time           `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt      `gorm:"index" json:"deleted_at,omitempty"`
}

func (PlacementTest) TableName() string { return "placement_test" }

// TestModule carries one skill module of a placement test. QuestionIDs is
// fixed at creation; re-seeding the question bank never changes it.
// AnalysisPayload and AnalysisCEFR are written only by the external
// analysis path for writing/speaking modules.
type TestModule struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TestID          uuid.UUID      `gorm:"type:uuid;not null;index:idx_test_module,unique" json:"test_id"`
	ModuleType      ModuleType     `gorm:"column:module_type;not null;index:idx_test_module,unique" json:"module_type"`
	QuestionIDs     datatypes.JSON `gorm:"type:jsonb;column:question_ids" json:"question_ids"`
	RawScore        int            `gorm:"column:raw_score;not null;default:0" json:"raw_score"`
	Answers         datatypes.JSON `gorm:"type:jsonb;column:answers" json:"answers"`
	Transcript      string         `gorm:"column:transcript" json:"transcript"`
	AnalysisCEFR    string         `gorm:"column:analysis_cefr" json:"analysis_cefr"`
	AnalysisPayload datatypes.JSON `gorm:"type:jsonb;column:analysis_payload" json:"analysis_payload"`
	SubmittedAt     *time.Time     `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TestModule) TableName() string { return "test_module" }

// OrderedQuestionIDs decodes the snapshotted question id list.
func (m *TestModule) OrderedQuestionIDs() []string {
	return DecodeStringList(m.QuestionIDs)
}

// SpeakingAnalysisPayload decodes the analysis envelope; nil when no
// analysis has run.
func (m *TestModule) SpeakingAnalysisPayload() *SpeakingAnalysis {
	return DecodeSpeakingAnalysis(m.AnalysisPayload)
}
