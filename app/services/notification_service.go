// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/amirphl/vitrine/app/metrics"
	"github.com/amirphl/vitrine/models"
	"github.com/amirphl/vitrine/utils"
)

// NotificationDispatcher sends the staff notification and the applicant auto-reply
type NotificationDispatcher interface {
	NotifyAdmin(ctx context.Context, sub *models.ContactSubmission, settings *models.FormSettings) error
	NotifyApplicant(ctx context.Context, sub *models.ContactSubmission, settings *models.FormSettings) error
	// Dispatch runs both notifications, logging failures instead of returning them
	Dispatch(ctx context.Context, sub *models.ContactSubmission, settings *models.FormSettings)
}

// NotificationDispatcherImpl implements NotificationDispatcher
type NotificationDispatcherImpl struct {
	emailProvider EmailProvider
	storage       AttachmentStorage
	dashboardURL  string
	loc           *time.Location
}

// NewNotificationDispatcher creates a new notification dispatcher
func NewNotificationDispatcher(emailProvider EmailProvider, storage AttachmentStorage, publicBaseURL string, loc *time.Location) NotificationDispatcher {
	if loc == nil {
		loc = time.UTC
	}
	return &NotificationDispatcherImpl{
		emailProvider: emailProvider,
		storage:       storage,
		dashboardURL:  strings.TrimRight(publicBaseURL, "/") + "/dashboard/",
		loc:           loc,
	}
}

func (d *NotificationDispatcherImpl) NotifyAdmin(ctx context.Context, sub *models.ContactSubmission, settings *models.FormSettings) error {
	if settings == nil || !settings.EmailNotifications || strings.TrimSpace(settings.NotificationEmail) == "" {
		metrics.RecordNotification("admin", "skipped")
		return nil
	}
	if d.emailProvider == nil {
		return fmt.Errorf("email provider not configured")
	}

	msg := EmailMessage{
		To:      settings.NotificationEmail,
		Subject: fmt.Sprintf("Novo contato do site - %s", sub.Name),
		Body:    d.adminBody(sub),
	}

	if sub.HasAttachment() && d.storage != nil {
		data, contentType, err := d.storage.Read(sub.AttachmentPath)
		if err != nil {
			log.Printf("notification: attachment %s unreadable, sending without it: %v", sub.AttachmentPath, err)
		} else {
			msg.Attachments = append(msg.Attachments, EmailAttachment{
				Filename:    sub.AttachmentFilename(),
				ContentType: contentType,
				Content:     data,
			})
		}
	}

	if err := d.emailProvider.SendEmail(ctx, msg); err != nil {
		metrics.RecordNotification("admin", "failed")
		return fmt.Errorf("failed to send admin notification: %w", err)
	}
	metrics.RecordNotification("admin", "sent")
	return nil
}

func (d *NotificationDispatcherImpl) NotifyApplicant(ctx context.Context, sub *models.ContactSubmission, settings *models.FormSettings) error {
	if settings == nil || !settings.AutoReplyEnabled {
		metrics.RecordNotification("auto_reply", "skipped")
		return nil
	}
	if d.emailProvider == nil {
		return fmt.Errorf("email provider not configured")
	}

	msg := EmailMessage{
		To:      sub.Email,
		Subject: settings.AutoReplySubject,
		Body:    RenderAutoReply(settings.AutoReplyMessage, sub, d.loc),
	}
	if err := d.emailProvider.SendEmail(ctx, msg); err != nil {
		metrics.RecordNotification("auto_reply", "failed")
		return fmt.Errorf("failed to send auto-reply: %w", err)
	}
	metrics.RecordNotification("auto_reply", "sent")
	return nil
}

func (d *NotificationDispatcherImpl) Dispatch(ctx context.Context, sub *models.ContactSubmission, settings *models.FormSettings) {
	if err := d.NotifyAdmin(ctx, sub, settings); err != nil {
		log.Printf("notification: contact %d: %v", sub.ID, err)
	}
	if err := d.NotifyApplicant(ctx, sub, settings); err != nil {
		log.Printf("notification: contact %d: %v", sub.ID, err)
	}
}

func (d *NotificationDispatcherImpl) adminBody(sub *models.ContactSubmission) string {
	var b strings.Builder
	b.WriteString("Novo contato recebido através do site:\n\n")
	fmt.Fprintf(&b, "Nome: %s\n", sub.Name)
	fmt.Fprintf(&b, "Email: %s\n", sub.Email)
	fmt.Fprintf(&b, "WhatsApp: %s\n", sub.WhatsApp)
	fmt.Fprintf(&b, "Data: %s\n\n", sub.CreatedAt.In(d.loc).Format(utils.SubmissionDateLayout))
	b.WriteString("Descrição do projeto:\n")
	b.WriteString(sub.ProjectDescription)
	b.WriteString("\n\n")
	if sub.HasAttachment() {
		fmt.Fprintf(&b, "Arquivo anexado: %s\n", sub.AttachmentFilename())
	} else {
		b.WriteString("Nenhum arquivo anexado\n")
	}
	b.WriteString("\n---\n")
	fmt.Fprintf(&b, "Acesse o painel administrativo para mais detalhes: %s\n", d.dashboardURL)
	return b.String()
}

// RenderAutoReply substitutes {name}, {email}, {whatsapp} and {date} in template.
// Any other braces are left as they are.
func RenderAutoReply(template string, sub *models.ContactSubmission, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	r := strings.NewReplacer(
		"{name}", sub.Name,
		"{email}", sub.Email,
		"{whatsapp}", sub.WhatsApp,
		"{date}", sub.CreatedAt.In(loc).Format(utils.SubmissionDateLayout),
	)
	return r.Replace(template)
}
