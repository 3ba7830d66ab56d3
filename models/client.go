package models

import (
	"time"

	"gorm.io/gorm"
)

type Client struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Name         string         `gorm:"uniqueIndex;not null;size:200" json:"name"`
	ContactName  string         `gorm:"size:200" json:"contact_name"`
	ContactEmail string         `gorm:"size:200" json:"contact_email"`
	Phone        string         `gorm:"size:50" json:"phone"`
	Projects     []Project      `gorm:"foreignKey:ClientID" json:"projects,omitempty"`
}
