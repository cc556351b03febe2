package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/amirphl/vitrine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notificationFixture() *models.ContactSubmission {
	return &models.ContactSubmission{
		ID:                 7,
		Name:               "Maria",
		Email:              "maria@example.com",
		WhatsApp:           "(11) 91234-5678",
		ProjectDescription: "Um app de agendamento",
		CreatedAt:          time.Date(2024, 3, 10, 17, 45, 0, 0, time.UTC),
	}
}

func TestRenderAutoReply(t *testing.T) {
	sub := notificationFixture()
	out := RenderAutoReply("Olá {name} ({email}, {whatsapp}) em {date}. {unknown} {", sub, time.UTC)
	assert.Equal(t, "Olá Maria (maria@example.com, (11) 91234-5678) em 10/03/2024 às 17:45. {unknown} {", out)
}

func TestNotificationDispatcher(t *testing.T) {
	ctx := context.Background()
	settings := models.DefaultFormSettings()
	settings.NotificationEmail = "ops@example.com"

	t.Run("SendsBoth", func(t *testing.T) {
		provider := NewMockEmailProvider()
		dispatcher := NewNotificationDispatcher(provider, nil, "https://site.example/", time.UTC)
		dispatcher.Dispatch(ctx, notificationFixture(), &settings)

		sent := provider.Sent()
		require.Len(t, sent, 2)
		assert.Equal(t, "ops@example.com", sent[0].To)
		assert.Equal(t, "Novo contato do site - Maria", sent[0].Subject)
		assert.Contains(t, sent[0].Body, "Nenhum arquivo anexado")
		assert.Contains(t, sent[0].Body, "https://site.example/dashboard/")
		assert.Equal(t, "maria@example.com", sent[1].To)
		assert.Equal(t, settings.AutoReplySubject, sent[1].Subject)
		assert.True(t, strings.HasPrefix(sent[1].Body, "Olá Maria,"))
	})

	t.Run("AttachesStoredFile", func(t *testing.T) {
		storage := NewDiskAttachmentStorage(t.TempDir())
		stored, err := storage.Save(strings.NewReader("%PDF-1.4"), "brief.pdf", 0, time.Now())
		require.NoError(t, err)

		sub := notificationFixture()
		sub.AttachmentPath = stored.Path
		sub.AttachmentName = "brief.pdf"

		provider := NewMockEmailProvider()
		dispatcher := NewNotificationDispatcher(provider, storage, "", time.UTC)
		require.NoError(t, dispatcher.NotifyAdmin(ctx, sub, &settings))

		sent := provider.Sent()
		require.Len(t, sent, 1)
		require.Len(t, sent[0].Attachments, 1)
		assert.Equal(t, "brief.pdf", sent[0].Attachments[0].Filename)
		assert.Contains(t, sent[0].Body, "Arquivo anexado: brief.pdf")
	})

	t.Run("SkipsDisabled", func(t *testing.T) {
		off := settings
		off.EmailNotifications = false
		off.AutoReplyEnabled = false

		provider := NewMockEmailProvider()
		dispatcher := NewNotificationDispatcher(provider, nil, "", time.UTC)
		dispatcher.Dispatch(ctx, notificationFixture(), &off)
		assert.Empty(t, provider.Sent())
	})

	t.Run("FailureIsReturnedNotPanicked", func(t *testing.T) {
		provider := NewMockEmailProvider()
		provider.FailWith(errors.New("smtp down"))
		dispatcher := NewNotificationDispatcher(provider, nil, "", time.UTC)

		err := dispatcher.NotifyApplicant(ctx, notificationFixture(), &settings)
		assert.ErrorContains(t, err, "smtp down")
		assert.NotPanics(t, func() { dispatcher.Dispatch(ctx, notificationFixture(), &settings) })
	})
}
