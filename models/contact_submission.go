// Package models contains domain entities for the marketing site and its dashboard
package models

import (
	"math"
	"path"
	"time"

	"github.com/amirphl/vitrine/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContactSubmission is one completed contact-form entry.
// Name, WhatsApp, Email, ProjectDescription, attachment fields and CreatedAt never change after creation.
type ContactSubmission struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UUID               uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_contact_submissions_uuid" json:"uuid"`
	Name               string    `gorm:"size:100;not null" json:"name"`
	WhatsApp           string    `gorm:"column:whatsapp;size:20;not null" json:"whatsapp"`
	Email              string    `gorm:"size:254;not null;index:idx_contact_submissions_email" json:"email"`
	ProjectDescription string    `gorm:"type:text;not null" json:"project_description"`
	AttachmentPath     string    `gorm:"size:512;not null;default:''" json:"-"`
	AttachmentName     string    `gorm:"size:255;not null;default:''" json:"attachment_name,omitempty"`
	AttachmentSize     int64     `gorm:"not null;default:0" json:"attachment_size,omitempty"`
	IsRead             bool      `gorm:"not null;default:false;index:idx_contact_submissions_is_read" json:"is_read"`
	Notes              string    `gorm:"type:text;not null;default:''" json:"notes"`
	CreatedAt          time.Time `gorm:"not null;index:idx_contact_submissions_created_at" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null" json:"updated_at"`
}

func (ContactSubmission) TableName() string {
	return "contact_submissions"
}

// BeforeCreate ensures UUID and timestamps are set.
func (c *ContactSubmission) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	now := utils.UTCNow()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	return nil
}

// HasAttachment reports whether a file was uploaded with the submission
func (c *ContactSubmission) HasAttachment() bool {
	return c.AttachmentPath != ""
}

// AttachmentFilename returns the original filename, falling back to the stored base name
func (c *ContactSubmission) AttachmentFilename() string {
	if !c.HasAttachment() {
		return ""
	}
	if c.AttachmentName != "" {
		return c.AttachmentName
	}
	return path.Base(c.AttachmentPath)
}

// AttachmentSizeMB returns the attachment size in MB rounded to two decimals
func (c *ContactSubmission) AttachmentSizeMB() float64 {
	if !c.HasAttachment() {
		return 0
	}
	return math.Round(float64(c.AttachmentSize)/float64(utils.BytesPerMB)*100) / 100
}

// ContactSubmissionFilter represents filter criteria for contact submission queries
type ContactSubmissionFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	IsRead        *bool
	Search        *string
	CreatedAfter  *time.Time // inclusive
	CreatedBefore *time.Time // exclusive
}
