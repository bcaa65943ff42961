package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContentItem is a generated learning artifact. Immutable once created.
type ContentItem struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Body        datatypes.JSON `gorm:"type:jsonb;column:body" json:"body"`
	SkillTarget string         `gorm:"column:skill_target;not null" json:"skill_target"`
	Level       CEFRLevel      `gorm:"column:level;not null" json:"level"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ContentItem) TableName() string { return "content_item" }

func (c *ContentItem) Blocks() []ContentBlock {
	return DecodeContentBlocks(c.Body)
}

// ContentAssignment links a learner to a content item. At most one row
// with is_active=true exists per learner at any time; the completion path
// flips it exactly once and stamps completed_at.
type ContentAssignment struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ContentID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"content_id"`
	Content     *ContentItem   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ContentID;references:ID" json:"content,omitempty"`
	IsActive    bool           `gorm:"column:is_active;not null;default:false;index" json:"is_active"`
	Rationale   string         `gorm:"column:rationale" json:"rationale"`
	TopicName   string         `gorm:"column:topic_name" json:"topic_name"`
	BatchIndex  int            `gorm:"column:batch_index;not null;default:0" json:"batch_index"`
	CompletedAt *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ContentAssignment) TableName() string { return "content_assignment" }
