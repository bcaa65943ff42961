package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PlacementResult is append-only: at most one row per (test, user), later
// finalize attempts return the existing row unchanged. The unique index is
// the storage-level backstop for that invariant.
type PlacementResult struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TestID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_result_test_user,unique" json:"test_id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_result_test_user,unique" json:"user_id"`
	User           *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ReadingLevel   CEFRLevel      `gorm:"column:reading_level;not null" json:"reading_level"`
	WritingLevel   CEFRLevel      `gorm:"column:writing_level;not null" json:"writing_level"`
	ListeningLevel CEFRLevel      `gorm:"column:listening_level;not null" json:"listening_level"`
	SpeakingLevel  CEFRLevel      `gorm:"column:speaking_level;not null" json:"speaking_level"`
	OverallLevel   CEFRLevel      `gorm:"column:overall_level;not null" json:"overall_level"`
	TotalScore     int            `gorm:"column:total_score;not null;default:0" json:"total_score"`
	Strengths      datatypes.JSON `gorm:"type:jsonb;column:strengths" json:"strengths"`
	Weaknesses     datatypes.JSON `gorm:"type:jsonb;column:weaknesses" json:"weaknesses"`
	CompletedAt    time.Time      `gorm:"column:completed_at;not null" json:"completed_at"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PlacementResult) TableName() string { return "placement_result" }

// LevelForModule reads the per-skill level stored on the result.
func (r *PlacementResult) LevelForModule(moduleType ModuleType) CEFRLevel {
	switch moduleType {
	case ModuleReading:
		return r.ReadingLevel
	case ModuleWriting:
		return r.WritingLevel
	case ModuleListening:
		return r.ListeningLevel
	case ModuleSpeaking:
		return r.SpeakingLevel
	}
	return ""
}

// LearnerSkillSnapshot is a derived read-only view recomputed on demand
// from the latest result plus the student profile fallback. It is never
// persisted.
type LearnerSkillSnapshot struct {
	OverallLevel   CEFRLevel                `json:"overall_level"`
	PerSkillLevels map[ModuleType]CEFRLevel `json:"per_skill_levels"`
	Strengths      []string                 `json:"strengths"`
	Weaknesses     []string                 `json:"weaknesses"`
	HasResult      bool                     `json:"has_result"`
}
