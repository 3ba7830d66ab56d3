package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrInvalid is returned by save hooks and constructors when a field value
// is not allowed.
var ErrInvalid = errors.New("invalid value")

type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
)

// ProjectStatuses lists every project status in lifecycle order.
var ProjectStatuses = []ProjectStatus{ProjectPlanning, ProjectActive, ProjectOnHold, ProjectCompleted, ProjectCancelled}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func validPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Project struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
	Code        string          `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Name        string          `gorm:"not null;size:200" json:"name"`
	Description string          `gorm:"size:2000" json:"description"`
	ClientID    *uint           `gorm:"index" json:"client_id"`
	Client      *Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Status      ProjectStatus   `gorm:"not null;size:20;index" json:"status"`
	Priority    Priority        `gorm:"not null;size:20" json:"priority"`
	Budget      float64         `json:"budget"`
	StartDate   *time.Time      `json:"start_date"`
	EndDate     *time.Time      `json:"end_date"`
	Progress    float64         `json:"progress"`
	Members     []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	Tasks       []Task          `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
	Phases      []Phase         `gorm:"foreignKey:ProjectID" json:"phases,omitempty"`
	Milestones  []Milestone     `gorm:"foreignKey:ProjectID" json:"milestones,omitempty"`
}

// BeforeSave fills defaults and rejects unknown status, priority or
// progress values.
func (p *Project) BeforeSave(tx *gorm.DB) error {
	if p.Status == "" {
		p.Status = ProjectPlanning
	}
	if p.Priority == "" {
		p.Priority = PriorityMedium
	}
	valid := false
	for _, s := range ProjectStatuses {
		if p.Status == s {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: project status %q", ErrInvalid, p.Status)
	}
	if !validPriority(p.Priority) {
		return fmt.Errorf("%w: priority %q", ErrInvalid, p.Priority)
	}
	if p.Progress < 0 || p.Progress > 100 {
		return fmt.Errorf("%w: progress %.1f outside 0-100", ErrInvalid, p.Progress)
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrInvalid)
	}
	return nil
}

// ProjectMember assigns a user to a project with a role on that project.
type ProjectMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ProjectID uint      `gorm:"not null;uniqueIndex:idx_project_member" json:"project_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_project_member;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      string    `gorm:"size:50" json:"role"`
}
