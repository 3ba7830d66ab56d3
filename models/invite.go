package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Invite states as reported by State.
const (
	InvitePending = "pending"
	InviteUsed    = "used"
	InviteExpired = "expired"
)

// Invite lets someone register with a preassigned role. The code is sent to
// them out of band and works once.
type Invite struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Code      string         `gorm:"uniqueIndex;not null;size:64" json:"code"`
	FullName  string         `gorm:"not null;size:200" json:"full_name"`
	Email     string         `gorm:"size:200" json:"email"`
	Role      Role           `gorm:"not null;size:20" json:"role"`
	Used      bool           `gorm:"default:false" json:"used"`
	CreatedBy uint           `gorm:"not null" json:"created_by"`
	Creator   *User          `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	ExpiresAt time.Time      `gorm:"not null" json:"expires_at"`
}

// NewInvite prepares an invite from createdBy that expires after ttl.
func NewInvite(fullName, email string, role Role, createdBy uint, ttl time.Duration) (*Invite, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf("%w: role %q", ErrInvalid, role)
	}
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, fmt.Errorf("%w: full name is required", ErrInvalid)
	}

	code, err := generateInviteCode()
	if err != nil {
		return nil, err
	}
	return &Invite{
		Code:      code,
		FullName:  fullName,
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Role:      role,
		CreatedBy: createdBy,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

func generateInviteCode() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

func (i *Invite) IsValid(now time.Time) bool {
	return i.State(now) == InvitePending
}

func (i *Invite) State(now time.Time) string {
	switch {
	case i.Used:
		return InviteUsed
	case !now.Before(i.ExpiresAt):
		return InviteExpired
	default:
		return InvitePending
	}
}
