package models

import (
	"time"

	"github.com/amirphl/vitrine/utils"
	"gorm.io/gorm"
)

// FormSettingsSingletonKey is the only allowed value of FormSettings.SingletonKey.
// The unique index on that column keeps the table at one row.
const FormSettingsSingletonKey = "default"

const (
	DefaultNotificationEmail = "admin@example.com"
	DefaultAutoReplySubject  = "Obrigado pelo seu contato!"
	DefaultMaxFileSizeMB     = 10
	DefaultAllowedFileTypes  = "pdf,doc,docx,txt"
	DefaultAutoReplyMessage  = `Olá {name},

Obrigado por entrar em contato conosco!

Recebemos sua mensagem e retornaremos em breve. Nosso tempo de resposta é de até 2 horas durante o horário comercial.

Detalhes da sua mensagem:
- Nome: {name}
- Email: {email}
- WhatsApp: {whatsapp}
- Data: {date}

Atenciosamente,
Equipe DevPro`
)

// FormSettings configures contact form notifications and attachment limits
type FormSettings struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	SingletonKey       string    `gorm:"size:16;not null;uniqueIndex:uk_form_settings_singleton_key" json:"-"`
	EmailNotifications bool      `gorm:"not null" json:"email_notifications"`
	NotificationEmail  string    `gorm:"size:254;not null;default:''" json:"notification_email"`
	AutoReplyEnabled   bool      `gorm:"not null" json:"auto_reply_enabled"`
	AutoReplySubject   string    `gorm:"size:200;not null;default:''" json:"auto_reply_subject"`
	AutoReplyMessage   string    `gorm:"type:text;not null" json:"auto_reply_message"`
	MaxFileSizeMB      int       `gorm:"not null;default:10" json:"max_file_size_mb"`
	AllowedFileTypes   string    `gorm:"size:200;not null;default:''" json:"allowed_file_types"`
	CreatedAt          time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null" json:"updated_at"`
}

func (FormSettings) TableName() string {
	return "form_settings"
}

// DefaultFormSettings returns the settings row created on first access
func DefaultFormSettings() FormSettings {
	return FormSettings{
		SingletonKey:       FormSettingsSingletonKey,
		EmailNotifications: true,
		NotificationEmail:  DefaultNotificationEmail,
		AutoReplyEnabled:   true,
		AutoReplySubject:   DefaultAutoReplySubject,
		AutoReplyMessage:   DefaultAutoReplyMessage,
		MaxFileSizeMB:      DefaultMaxFileSizeMB,
		AllowedFileTypes:   DefaultAllowedFileTypes,
	}
}

// BeforeCreate pins the singleton key and stamps timestamps.
func (s *FormSettings) BeforeCreate(tx *gorm.DB) error {
	s.SingletonKey = FormSettingsSingletonKey
	now := utils.UTCNow()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = now
	}
	return nil
}

// AllowedExtensions returns the trimmed, lower-cased allow-list
func (s *FormSettings) AllowedExtensions() []string {
	return utils.SplitCSV(s.AllowedFileTypes)
}

// MaxFileSizeBytes converts MaxFileSizeMB to bytes
func (s *FormSettings) MaxFileSizeBytes() int64 {
	return int64(s.MaxFileSizeMB) * utils.BytesPerMB
}
