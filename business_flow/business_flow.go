package businessflow

import (
	"time"

	"github.com/amirphl/vitrine/app/dto"
	"github.com/amirphl/vitrine/models"
)

// ClientMetadata holds what the HTTP layer knows about the caller
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	Referer   string `json:"referer,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetSessionID sets the session ID
func (cm *ClientMetadata) SetSessionID(sessionID string) {
	cm.SessionID = sessionID
}

// ToContactSubmissionDTO converts a submission for dashboard responses
func ToContactSubmissionDTO(c models.ContactSubmission) dto.ContactSubmissionDTO {
	return dto.ContactSubmissionDTO{
		ID:                 c.ID,
		UUID:               c.UUID.String(),
		Name:               c.Name,
		WhatsApp:           c.WhatsApp,
		Email:              c.Email,
		ProjectDescription: c.ProjectDescription,
		HasAttachment:      c.HasAttachment(),
		AttachmentName:     c.AttachmentFilename(),
		AttachmentSizeMB:   c.AttachmentSizeMB(),
		IsRead:             c.IsRead,
		Notes:              c.Notes,
		CreatedAt:          c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func ToContactSubmissionDTOs(rows []*models.ContactSubmission) []dto.ContactSubmissionDTO {
	out := make([]dto.ContactSubmissionDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, ToContactSubmissionDTO(*r))
	}
	return out
}

func ToFormSettingsDTO(s models.FormSettings) dto.FormSettingsDTO {
	return dto.FormSettingsDTO{
		EmailNotifications: s.EmailNotifications,
		NotificationEmail:  s.NotificationEmail,
		AutoReplyEnabled:   s.AutoReplyEnabled,
		AutoReplySubject:   s.AutoReplySubject,
		AutoReplyMessage:   s.AutoReplyMessage,
		MaxFileSizeMB:      s.MaxFileSizeMB,
		AllowedFileTypes:   s.AllowedFileTypes,
		UpdatedAt:          s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func ToStaffDTO(s models.Staff) dto.StaffDTO {
	out := dto.StaffDTO{
		ID:       s.ID,
		UUID:     s.UUID.String(),
		Username: s.Username,
	}
	if s.LastLoginAt != nil {
		v := s.LastLoginAt.UTC().Format(time.RFC3339)
		out.LastLoginAt = &v
	}
	return out
}

func ToStaffSessionDTO(accessToken, refreshToken string, ttl time.Duration) dto.StaffSessionDTO {
	return dto.StaffSessionDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(ttl.Seconds()),
	}
}

func ToDailySummaryDTO(s models.DailySummary) dto.DailySummaryDTO {
	countries := s.TopCountries.Data()
	top := make([]dto.CountryCountDTO, 0, len(countries))
	for _, c := range countries {
		top = append(top, dto.CountryCountDTO{Country: c.Country, Count: c.Count})
	}
	return dto.DailySummaryDTO{
		Date:               s.Date,
		TotalViews:         s.TotalViews,
		UniqueVisitors:     s.UniqueVisitors,
		DistinctVisitors:   s.DistinctVisitors,
		ContactSubmissions: s.ContactSubmissions,
		TopCountries:       top,
		DesktopViews:       s.DesktopViews,
		MobileViews:        s.MobileViews,
		TabletViews:        s.TabletViews,
		UpdatedAt:          s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toCountryCounts(rows []models.LabelCount) []dto.CountryCountDTO {
	out := make([]dto.CountryCountDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.CountryCountDTO{Country: r.Label, Count: r.Count})
	}
	return out
}

func toDeviceCounts(rows []models.LabelCount) []dto.DeviceCountDTO {
	out := make([]dto.DeviceCountDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.DeviceCountDTO{DeviceType: r.Label, Count: r.Count})
	}
	return out
}

func toBrowserCounts(rows []models.LabelCount) []dto.BrowserCountDTO {
	out := make([]dto.BrowserCountDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.BrowserCountDTO{Browser: r.Label, Count: r.Count})
	}
	return out
}
