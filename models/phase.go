package models

import (
	"time"
)

// Phase is a stage of a project's delivery, such as concept or design
// development.
type Phase struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ProjectID uint       `gorm:"not null;index" json:"project_id"`
	Name      string     `gorm:"not null;size:200" json:"name"`
	Sequence  int        `json:"sequence"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Progress  float64    `json:"progress"`
}

type Milestone struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ProjectID   uint       `gorm:"not null;index" json:"project_id"`
	PhaseID     *uint      `gorm:"index" json:"phase_id"`
	Title       string     `gorm:"not null;size:200" json:"title"`
	DueDate     time.Time  `gorm:"not null;index" json:"due_date"`
	Completed   bool       `gorm:"default:false" json:"completed"`
	CompletedAt *time.Time `json:"completed_at"`
}
