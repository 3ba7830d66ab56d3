package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleMember  Role = "MEMBER"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMember:
		return true
	}
	return false
}

type User struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
	Username           string         `gorm:"uniqueIndex;not null;size:100" json:"username"`
	FullName           string         `gorm:"not null;size:200" json:"full_name"`
	Email              string         `gorm:"size:200" json:"email"`
	PasswordHash       string         `gorm:"not null" json:"-"`
	Role               Role           `gorm:"not null;size:20" json:"role"`
	MustChangePassword bool           `gorm:"default:true" json:"must_change_password"`
	AssignedTasks      []Task         `gorm:"foreignKey:AssigneeID" json:"assigned_tasks,omitempty"`
}

func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsManager() bool {
	return u.Role == RoleManager
}

func (u *User) IsMember() bool {
	return u.Role == RoleMember
}

// CanManageProjects covers creating, editing and deleting projects and
// their phases, milestones and members.
func (u *User) CanManageProjects() bool {
	return u.IsAdmin() || u.IsManager()
}

// CanEditTask reports whether u may change a task. Members may only change
// tasks assigned to them.
func (u *User) CanEditTask(t *Task) bool {
	if u.CanManageProjects() {
		return true
	}
	return t.AssigneeID != nil && *t.AssigneeID == u.ID
}

func (u *User) CanExport() bool {
	return u.IsAdmin() || u.IsManager()
}

func (u *User) CanCreateInvites() bool {
	return u.IsAdmin()
}
