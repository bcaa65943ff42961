package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Question is one bank item. Difficulty 1..3 doubles as the point value
// for reading/listening scoring; writing/speaking prompts carry no
// options or correct answer.
type Question struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Skill         ModuleType     `gorm:"column:skill;not null;index:idx_question_skill_level" json:"skill"`
	Level         CEFRLevel      `gorm:"column:level;not null;index:idx_question_skill_level" json:"level"`
	Difficulty    int            `gorm:"column:difficulty;not null;default:1" json:"difficulty"`
	Prompt        string         `gorm:"column:prompt;not null" json:"prompt"`
	Options       datatypes.JSON `gorm:"type:jsonb;column:options" json:"options"`
	CorrectAnswer string         `gorm:"column:correct_answer" json:"correct_answer"`
	SeedKey       string         `gorm:"column:seed_key;uniqueIndex" json:"seed_key,omitempty"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Question) TableName() string { return "question" }

func (q *Question) OptionList() []string {
	return DecodeStringList(q.Options)
}

// Points is the score awarded for a correct answer.
func (q *Question) Points() int {
	if q.Difficulty < 1 {
		return 1
	}
	if q.Difficulty > 3 {
		return 3
	}
	return q.Difficulty
}
