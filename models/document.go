package models

import (
	"time"

	"gorm.io/datatypes"
)

type Document struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	ProjectID  uint           `gorm:"not null;index" json:"project_id"`
	UploadedBy uint           `gorm:"not null" json:"uploaded_by"`
	Name       string         `gorm:"not null;size:300" json:"name"`
	URL        string         `gorm:"size:1000" json:"url"`
	StorageKey string         `gorm:"uniqueIndex;size:64" json:"storage_key"`
	Tags       datatypes.JSON `json:"tags"`
}

// Activity is an audit entry: who did what to which entity.
type Activity struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
	ActorID    uint           `gorm:"not null;index" json:"actor_id"`
	Actor      *User          `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	ProjectID  *uint          `gorm:"index" json:"project_id"`
	EntityType string         `gorm:"not null;size:50" json:"entity_type"`
	EntityID   uint           `json:"entity_id"`
	Action     string         `gorm:"not null;size:50" json:"action"`
	Metadata   datatypes.JSON `json:"metadata"`
}
