package models

import (
	"time"

	"github.com/amirphl/vitrine/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Staff is a dashboard account
type Staff struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_staff_members_uuid" json:"uuid"`
	Username     string    `gorm:"size:255;not null;uniqueIndex:uk_staff_members_username" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`

	IsActive    *bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func (Staff) TableName() string {
	return "staff_members"
}

func (s *Staff) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	if s.IsActive == nil {
		s.IsActive = utils.ToPtr(true)
	}
	now := utils.UTCNow()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	return nil
}

// StaffFilter represents filter criteria for staff queries
type StaffFilter struct {
	ID       *uint
	UUID     *uuid.UUID
	Username *string
	IsActive *bool
}

// AllModels lists every persisted model in migration order
func AllModels() []any {
	return []any{
		&Staff{},
		&FormSettings{},
		&ContactSubmission{},
		&PageView{},
		&DailySummary{},
	}
}
