package businessflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"regexp"
	"slices"
	"strings"

	"github.com/amirphl/vitrine/app/metrics"
	"github.com/amirphl/vitrine/app/services"
	"github.com/amirphl/vitrine/models"
	"github.com/amirphl/vitrine/repository"
	"github.com/amirphl/vitrine/utils"
)

// ContactSubmittedMessage is shown to the visitor after a successful submission
const ContactSubmittedMessage = "Mensagem enviada com sucesso! Entraremos em contato em breve."

const (
	msgRequiredFields  = "Todos os campos obrigatórios devem ser preenchidos"
	msgInvalidEmail    = "Email inválido"
	msgInvalidWhatsApp = "Número de WhatsApp inválido"
	msgFileTooLarge    = "Arquivo muito grande. Máximo permitido: %dMB"
	msgFileType        = "Tipo de arquivo não permitido. Tipos aceitos: %s"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AttachmentUpload is an uploaded file not yet stored
type AttachmentUpload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// SubmitContactRequest is a contact form submission with an optional attachment
type SubmitContactRequest struct {
	Name               string
	WhatsApp           string
	Email              string
	ProjectDescription string
	Attachment         *AttachmentUpload
}

// ContactIntake validates, stores and announces contact form submissions
type ContactIntake interface {
	Submit(ctx context.Context, req SubmitContactRequest, metadata *ClientMetadata) (*models.ContactSubmission, error)
}

type ContactIntakeImpl struct {
	contactRepo  repository.ContactSubmissionRepository
	settingsRepo repository.FormSettingsRepository
	storage      services.AttachmentStorage
	dispatcher   services.NotificationDispatcher
	statsCache   services.StatsCache
}

func NewContactIntake(
	contactRepo repository.ContactSubmissionRepository,
	settingsRepo repository.FormSettingsRepository,
	storage services.AttachmentStorage,
	dispatcher services.NotificationDispatcher,
	statsCache services.StatsCache,
) ContactIntake {
	if statsCache == nil {
		statsCache = services.NoopStatsCache{}
	}
	return &ContactIntakeImpl{
		contactRepo:  contactRepo,
		settingsRepo: settingsRepo,
		storage:      storage,
		dispatcher:   dispatcher,
		statsCache:   statsCache,
	}
}

func (ci *ContactIntakeImpl) Submit(ctx context.Context, req SubmitContactRequest, metadata *ClientMetadata) (*models.ContactSubmission, error) {
	req = normalizeContactRequest(req)

	settings, err := ci.settingsRepo.GetOrCreate(ctx)
	if err != nil {
		metrics.RecordContactSubmission("error")
		return nil, NewBusinessError(CodeContactSaveFailed, "Erro interno do servidor. Tente novamente.", err)
	}

	if err := ValidateContactSubmission(req, settings); err != nil {
		metrics.RecordContactSubmission("invalid")
		return nil, err
	}

	submission := &models.ContactSubmission{
		Name:               req.Name,
		WhatsApp:           req.WhatsApp,
		Email:              req.Email,
		ProjectDescription: req.ProjectDescription,
		CreatedAt:          utils.UTCNow(),
	}

	if req.Attachment != nil {
		stored, err := ci.storeAttachment(req.Attachment, settings, submission)
		if err != nil {
			metrics.RecordContactSubmission("error")
			return nil, err
		}
		submission.AttachmentPath = stored.Path
		submission.AttachmentName = req.Attachment.Filename
		submission.AttachmentSize = stored.Size
	}

	if err := ci.contactRepo.Save(ctx, submission); err != nil {
		if submission.AttachmentPath != "" {
			if rmErr := ci.storage.Remove(submission.AttachmentPath); rmErr != nil {
				log.Printf("contact intake: failed to remove orphaned attachment %s: %v", submission.AttachmentPath, rmErr)
			}
		}
		metrics.RecordContactSubmission("error")
		return nil, NewBusinessError(CodeContactSaveFailed, "Erro interno do servidor. Tente novamente.", err)
	}
	metrics.RecordContactSubmission("success")

	if metadata != nil {
		log.Printf("contact intake: submission %d stored (ip=%s request=%s)", submission.ID, metadata.IPAddress, metadata.RequestID)
	}

	ci.statsCache.Invalidate(ctx, DashboardCacheKey, PublicStatsCacheKey)

	if ci.dispatcher != nil {
		notifyCtx := context.WithoutCancel(ctx)
		sub := *submission
		cfg := *settings
		go ci.dispatcher.Dispatch(notifyCtx, &sub, &cfg)
	}

	return submission, nil
}

func (ci *ContactIntakeImpl) storeAttachment(upload *AttachmentUpload, settings *models.FormSettings, submission *models.ContactSubmission) (*services.StoredAttachment, error) {
	if upload.Open == nil {
		return nil, NewBusinessError(CodeContactSaveFailed, "Erro interno do servidor. Tente novamente.", errors.New("attachment has no reader"))
	}
	src, err := upload.Open()
	if err != nil {
		return nil, NewBusinessError(CodeContactSaveFailed, "Erro interno do servidor. Tente novamente.", err)
	}
	defer src.Close()

	stored, err := ci.storage.Save(src, upload.Filename, settings.MaxFileSizeBytes(), submission.CreatedAt)
	if err != nil {
		if errors.Is(err, services.ErrAttachmentTooLarge) {
			return nil, NewBusinessErrorf(CodeContactFileTooLarge, msgFileTooLarge, ErrFileTooLarge, settings.MaxFileSizeMB)
		}
		return nil, NewBusinessError(CodeContactSaveFailed, "Erro interno do servidor. Tente novamente.", err)
	}
	return stored, nil
}

func normalizeContactRequest(req SubmitContactRequest) SubmitContactRequest {
	req.Name = strings.TrimSpace(req.Name)
	req.WhatsApp = strings.TrimSpace(req.WhatsApp)
	req.Email = strings.TrimSpace(req.Email)
	req.ProjectDescription = strings.TrimSpace(req.ProjectDescription)
	return req
}

// ValidateContactSubmission applies the contact form rules in order and returns the first failure.
// Text fields are expected to be trimmed already.
func ValidateContactSubmission(req SubmitContactRequest, settings *models.FormSettings) error {
	if req.Name == "" || req.WhatsApp == "" || req.Email == "" || req.ProjectDescription == "" {
		return NewBusinessError(CodeContactRequiredFields, msgRequiredFields, ErrRequiredFieldsMissing)
	}

	if !emailPattern.MatchString(req.Email) {
		return NewBusinessError(CodeContactInvalidEmail, msgInvalidEmail, ErrInvalidEmail)
	}

	if digits := utils.DigitsOnly(req.WhatsApp); len(digits) < 10 || len(digits) > 11 {
		return NewBusinessError(CodeContactInvalidWhatsApp, msgInvalidWhatsApp, ErrInvalidWhatsApp)
	}

	if req.Attachment == nil {
		return nil
	}

	if req.Attachment.Size > settings.MaxFileSizeBytes() {
		return NewBusinessErrorf(CodeContactFileTooLarge, msgFileTooLarge, ErrFileTooLarge, settings.MaxFileSizeMB)
	}

	allowed := settings.AllowedExtensions()
	if !slices.Contains(allowed, FileExtension(req.Attachment.Filename)) {
		return NewBusinessError(CodeContactFileTypeNotAllowed, fmt.Sprintf(msgFileType, strings.Join(allowed, ", ")), ErrFileTypeNotAllowed)
	}

	return nil
}

// FileExtension returns the lower-cased text after the last dot, or the whole name when there is none
func FileExtension(filename string) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		return strings.ToLower(filename[i+1:])
	}
	return strings.ToLower(filename)
}
