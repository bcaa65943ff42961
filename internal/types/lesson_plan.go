package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LessonPlan is the per-learner ordered topic plan driving adaptive
// delivery. Topic mastery is monotonically non-decreasing except when the
// plan is regenerated.
type LessonPlan struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User          *User             `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Topics        []LessonPlanTopic `gorm:"foreignKey:PlanID;references:ID" json:"topics,omitempty"`
	RegeneratedAt *time.Time        `gorm:"column:regenerated_at" json:"regenerated_at,omitempty"`
	CreatedAt     time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt    `gorm:"index" json:"deleted_at,omitempty"`
}

func (LessonPlan) TableName() string { return "lesson_plan" }

type LessonPlanTopic struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PlanID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"plan_id"`
	Name           string         `gorm:"column:name;not null" json:"name"`
	Category       string         `gorm:"column:category" json:"category"`
	Priority       int            `gorm:"column:priority;not null;default:0" json:"priority"`
	MasteryPercent int            `gorm:"column:mastery_percent;not null;default:0" json:"mastery_percent"`
	Position       int            `gorm:"column:position;not null;default:0" json:"position"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LessonPlanTopic) TableName() string { return "lesson_plan_topic" }
