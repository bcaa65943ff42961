package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AudioAsset is a listening clip stored in the media bucket. The public
// URL is resolved through the bucket service from ObjectKey, never stored.
type AudioAsset struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Level      CEFRLevel      `gorm:"column:level;not null;index" json:"level"`
	Title      string         `gorm:"column:title;not null" json:"title"`
	ObjectKey  string         `gorm:"column:object_key;not null" json:"object_key"`
	Transcript string         `gorm:"column:transcript;not null" json:"transcript"`
	SeedKey    string         `gorm:"column:seed_key;uniqueIndex" json:"seed_key,omitempty"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (AudioAsset) TableName() string { return "audio_asset" }
