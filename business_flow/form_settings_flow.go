package businessflow

import (
	"context"
	"errors"
	"strings"

	"github.com/amirphl/vitrine/app/dto"
	"github.com/amirphl/vitrine/models"
	"github.com/amirphl/vitrine/repository"
	"github.com/amirphl/vitrine/utils"
)

const (
	minMaxFileSizeMB = 1
	maxMaxFileSizeMB = 100
)

// FormSettingsFlow reads and edits the contact form settings singleton
type FormSettingsFlow interface {
	Get(ctx context.Context) (*dto.FormSettingsDTO, error)
	Update(ctx context.Context, req *dto.UpdateFormSettingsRequest) (*dto.FormSettingsDTO, error)
	// Create inserts the singleton; it fails once a row exists
	Create(ctx context.Context, req *dto.UpdateFormSettingsRequest) (*dto.FormSettingsDTO, error)
}

type FormSettingsFlowImpl struct {
	repo repository.FormSettingsRepository
}

func NewFormSettingsFlow(repo repository.FormSettingsRepository) FormSettingsFlow {
	return &FormSettingsFlowImpl{repo: repo}
}

func (f *FormSettingsFlowImpl) Get(ctx context.Context) (*dto.FormSettingsDTO, error) {
	settings, err := f.repo.GetOrCreate(ctx)
	if err != nil {
		return nil, NewBusinessError("FORM_SETTINGS_LOAD_FAILED", "Failed to load form settings", err)
	}
	out := ToFormSettingsDTO(*settings)
	return &out, nil
}

// ValidateFormSettings checks a settings change and returns the normalized allow-list
func ValidateFormSettings(req *dto.UpdateFormSettingsRequest) (string, error) {
	if req == nil {
		return "", NewBusinessError(CodeFormSettingsInvalid, "Form settings are required", ErrInvalidFormSettings)
	}
	email := strings.TrimSpace(req.NotificationEmail)
	if req.EmailNotifications && !emailPattern.MatchString(email) {
		return "", NewBusinessError(CodeFormSettingsInvalid, "A valid notification email is required when notifications are enabled", ErrInvalidFormSettings)
	}
	if email != "" && !emailPattern.MatchString(email) {
		return "", NewBusinessError(CodeFormSettingsInvalid, "Invalid notification email", ErrInvalidFormSettings)
	}
	if req.MaxFileSizeMB < minMaxFileSizeMB || req.MaxFileSizeMB > maxMaxFileSizeMB {
		return "", NewBusinessErrorf(CodeFormSettingsInvalid, "Max file size must be between %d and %d MB", ErrInvalidFormSettings, minMaxFileSizeMB, maxMaxFileSizeMB)
	}
	allowed := utils.SplitCSV(req.AllowedFileTypes)
	if len(allowed) == 0 {
		return "", NewBusinessError(CodeFormSettingsInvalid, "At least one allowed file type is required", ErrInvalidFormSettings)
	}
	for i, ext := range allowed {
		allowed[i] = strings.TrimPrefix(ext, ".")
	}
	return strings.Join(allowed, ","), nil
}

func applyFormSettings(dst *models.FormSettings, req *dto.UpdateFormSettingsRequest, allowed string) {
	dst.EmailNotifications = req.EmailNotifications
	dst.NotificationEmail = strings.TrimSpace(req.NotificationEmail)
	dst.AutoReplyEnabled = req.AutoReplyEnabled
	dst.AutoReplySubject = strings.TrimSpace(req.AutoReplySubject)
	dst.AutoReplyMessage = req.AutoReplyMessage
	dst.MaxFileSizeMB = req.MaxFileSizeMB
	dst.AllowedFileTypes = allowed
}

func (f *FormSettingsFlowImpl) Update(ctx context.Context, req *dto.UpdateFormSettingsRequest) (*dto.FormSettingsDTO, error) {
	allowed, err := ValidateFormSettings(req)
	if err != nil {
		return nil, err
	}

	settings, err := f.repo.GetOrCreate(ctx)
	if err != nil {
		return nil, NewBusinessError("FORM_SETTINGS_LOAD_FAILED", "Failed to load form settings", err)
	}
	applyFormSettings(settings, req, allowed)
	settings.UpdatedAt = utils.UTCNow()

	if err := f.repo.Update(ctx, settings); err != nil {
		return nil, NewBusinessError("FORM_SETTINGS_UPDATE_FAILED", "Failed to update form settings", err)
	}
	out := ToFormSettingsDTO(*settings)
	return &out, nil
}

func (f *FormSettingsFlowImpl) Create(ctx context.Context, req *dto.UpdateFormSettingsRequest) (*dto.FormSettingsDTO, error) {
	allowed, err := ValidateFormSettings(req)
	if err != nil {
		return nil, err
	}

	settings := models.DefaultFormSettings()
	applyFormSettings(&settings, req, allowed)

	if err := f.repo.Create(ctx, &settings); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, NewBusinessError(CodeFormSettingsExists, "Form settings already exist", ErrFormSettingsAlreadyExists)
		}
		return nil, NewBusinessError("FORM_SETTINGS_CREATE_FAILED", "Failed to create form settings", err)
	}
	out := ToFormSettingsDTO(settings)
	return &out, nil
}
