package dto

// FormSettingsDTO is the contact form configuration
type FormSettingsDTO struct {
	EmailNotifications bool   `json:"email_notifications"`
	NotificationEmail  string `json:"notification_email"`
	AutoReplyEnabled   bool   `json:"auto_reply_enabled"`
	AutoReplySubject   string `json:"auto_reply_subject"`
	AutoReplyMessage   string `json:"auto_reply_message"`
	MaxFileSizeMB      int    `json:"max_file_size_mb"`
	AllowedFileTypes   string `json:"allowed_file_types"`
	UpdatedAt          string `json:"updated_at"`
}

// UpdateFormSettingsRequest replaces every field of the form settings
type UpdateFormSettingsRequest struct {
	EmailNotifications bool   `json:"email_notifications"`
	NotificationEmail  string `json:"notification_email" validate:"omitempty,email,max=254"`
	AutoReplyEnabled   bool   `json:"auto_reply_enabled"`
	AutoReplySubject   string `json:"auto_reply_subject" validate:"max=200"`
	AutoReplyMessage   string `json:"auto_reply_message" validate:"max=10000"`
	MaxFileSizeMB      int    `json:"max_file_size_mb" validate:"min=1,max=100"`
	AllowedFileTypes   string `json:"allowed_file_types" validate:"required,max=200"`
}
