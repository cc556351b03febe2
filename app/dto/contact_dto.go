package dto

// SubmitContactRequest holds the contact form text fields; the attachment travels as a multipart file
type SubmitContactRequest struct {
	Name               string `json:"name" form:"name" example:"Maria Silva"`
	WhatsApp           string `json:"whatsapp" form:"whatsapp" example:"(11) 98765-4321"`
	Email              string `json:"email" form:"email" example:"maria@example.com"`
	ProjectDescription string `json:"project_description" form:"project_description" example:"Site institucional com blog"`
}

// SubmitContactResponse is returned after a contact form is accepted
type SubmitContactResponse struct {
	Message string `json:"message" example:"Mensagem enviada com sucesso! Entraremos em contato em breve."`
	ID      uint   `json:"id" example:"12"`
	UUID    string `json:"uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// ContactSubmissionDTO is a contact submission as shown in the dashboard
type ContactSubmissionDTO struct {
	ID                 uint    `json:"id"`
	UUID               string  `json:"uuid"`
	Name               string  `json:"name"`
	WhatsApp           string  `json:"whatsapp"`
	Email              string  `json:"email"`
	ProjectDescription string  `json:"project_description"`
	HasAttachment      bool    `json:"has_attachment"`
	AttachmentName     string  `json:"attachment_name,omitempty"`
	AttachmentSizeMB   float64 `json:"attachment_size_mb,omitempty"`
	IsRead             bool    `json:"is_read"`
	Notes              string  `json:"notes"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

// ListContactsRequest carries dashboard list and export filters.
// Dates are YYYY-MM-DD in the site time zone; unparsable dates are ignored.
type ListContactsRequest struct {
	Search   string `query:"search" json:"search"`
	Status   string `query:"status" json:"status" validate:"omitempty,oneof=read unread"`
	DateFrom string `query:"date_from" json:"date_from"`
	DateTo   string `query:"date_to" json:"date_to"`
	Page     int    `query:"page" json:"page"`
}

// ListContactsResponse is one page of contacts, newest first
type ListContactsResponse struct {
	Items      []ContactSubmissionDTO `json:"items"`
	Page       int                    `json:"page"`
	PerPage    int                    `json:"per_page"`
	TotalPages int                    `json:"total_pages"`
	TotalCount int64                  `json:"total_count"`
}

// UpdateContactNotesRequest replaces the staff notes of a contact
type UpdateContactNotesRequest struct {
	Notes string `json:"notes" validate:"max=10000"`
}
