package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskReview     TaskStatus = "review"
	TaskCompleted  TaskStatus = "completed"
)

// TaskStatuses lists every task status in workflow order.
var TaskStatuses = []TaskStatus{TaskTodo, TaskInProgress, TaskReview, TaskCompleted}

func ValidTaskStatus(s TaskStatus) bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Task struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	ProjectID      uint           `gorm:"not null;index" json:"project_id"`
	Project        *Project       `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	ParentID       *uint          `gorm:"index" json:"parent_id"`
	Subtasks       []Task         `gorm:"foreignKey:ParentID" json:"subtasks,omitempty"`
	AssigneeID     *uint          `gorm:"index" json:"assignee_id"`
	Assignee       *User          `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	Title          string         `gorm:"not null;size:300" json:"title"`
	Description    string         `gorm:"size:5000" json:"description"`
	Status         TaskStatus     `gorm:"not null;size:20;index" json:"status"`
	Priority       Priority       `gorm:"not null;size:20" json:"priority"`
	DueDate        *time.Time     `gorm:"index" json:"due_date"`
	CompletedAt    *time.Time     `json:"completed_at"`
	EstimatedHours float64        `json:"estimated_hours"`
	ActualHours    float64        `json:"actual_hours"`
	Comments       []Comment      `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
}

// BeforeSave keeps CompletedAt in step with the status: it is stamped when a
// task becomes completed and cleared when it leaves that status.
func (t *Task) BeforeSave(tx *gorm.DB) error {
	if t.Status == "" {
		t.Status = TaskTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !ValidTaskStatus(t.Status) {
		return fmt.Errorf("%w: task status %q", ErrInvalid, t.Status)
	}
	if !validPriority(t.Priority) {
		return fmt.Errorf("%w: priority %q", ErrInvalid, t.Priority)
	}
	if t.EstimatedHours < 0 || t.ActualHours < 0 {
		return fmt.Errorf("%w: negative hours", ErrInvalid)
	}

	if t.Status == TaskCompleted {
		if t.CompletedAt == nil {
			now := time.Now()
			t.CompletedAt = &now
		}
	} else {
		t.CompletedAt = nil
	}
	return nil
}

// IsOverdue reports whether the task is open and past its due date.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status != TaskCompleted && t.DueDate != nil && t.DueDate.Before(now)
}

type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	TaskID    uint           `gorm:"not null;index" json:"task_id"`
	AuthorID  uint           `gorm:"not null" json:"author_id"`
	Author    *User          `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Body      string         `gorm:"not null;size:5000" json:"body"`
}
