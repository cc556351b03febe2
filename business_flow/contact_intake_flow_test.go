package businessflow

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/amirphl/vitrine/app/services"
	"github.com/amirphl/vitrine/models"
	"github.com/amirphl/vitrine/repository"
	testingutil "github.com/amirphl/vitrine/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []*models.ContactSubmission
}

func (d *recordingDispatcher) NotifyAdmin(context.Context, *models.ContactSubmission, *models.FormSettings) error {
	return nil
}

func (d *recordingDispatcher) NotifyApplicant(context.Context, *models.ContactSubmission, *models.FormSettings) error {
	return nil
}

func (d *recordingDispatcher) Dispatch(_ context.Context, sub *models.ContactSubmission, _ *models.FormSettings) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, sub)
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func upload(name string, data []byte) *AttachmentUpload {
	return &AttachmentUpload{
		Filename: name,
		Size:     int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func validRequest() SubmitContactRequest {
	return SubmitContactRequest{
		Name:               "Maria Silva",
		WhatsApp:           "(11) 91234-5678",
		Email:              "maria@example.com",
		ProjectDescription: "Preciso de um site institucional",
	}
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var be *BusinessError
	require.True(t, errors.As(err, &be), "expected BusinessError, got %v", err)
	return be.Code
}

func TestValidateContactSubmission(t *testing.T) {
	settings := models.DefaultFormSettings()

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, ValidateContactSubmission(validRequest(), &settings))
	})

	t.Run("RequiredFields", func(t *testing.T) {
		for _, mutate := range []func(*SubmitContactRequest){
			func(r *SubmitContactRequest) { r.Name = "" },
			func(r *SubmitContactRequest) { r.WhatsApp = "" },
			func(r *SubmitContactRequest) { r.Email = "" },
			func(r *SubmitContactRequest) { r.ProjectDescription = "" },
		} {
			req := validRequest()
			mutate(&req)
			err := ValidateContactSubmission(req, &settings)
			assert.Equal(t, CodeContactRequiredFields, codeOf(t, err))
			assert.True(t, IsValidationError(err))
		}
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		for _, email := range []string{"abc", "a@b", "a b@c.d"} {
			req := validRequest()
			req.Email = email
			err := ValidateContactSubmission(req, &settings)
			assert.Equal(t, CodeContactInvalidEmail, codeOf(t, err), email)
		}
	})

	t.Run("WhatsAppDigits", func(t *testing.T) {
		req := validRequest()
		req.WhatsApp = "11912345678"
		assert.NoError(t, ValidateContactSubmission(req, &settings))

		req.WhatsApp = "123"
		err := ValidateContactSubmission(req, &settings)
		assert.Equal(t, CodeContactInvalidWhatsApp, codeOf(t, err))

		req.WhatsApp = "+55 (11) 91234-5678"
		err = ValidateContactSubmission(req, &settings)
		assert.Equal(t, CodeContactInvalidWhatsApp, codeOf(t, err))
	})

	t.Run("AttachmentTooLarge", func(t *testing.T) {
		req := validRequest()
		req.Attachment = &AttachmentUpload{Filename: "brief.pdf", Size: 11 * 1024 * 1024}
		err := ValidateContactSubmission(req, &settings)
		assert.Equal(t, CodeContactFileTooLarge, codeOf(t, err))
		assert.Contains(t, err.Error(), "10MB")
	})

	t.Run("AttachmentType", func(t *testing.T) {
		req := validRequest()
		req.Attachment = &AttachmentUpload{Filename: "evil.exe", Size: 10}
		err := ValidateContactSubmission(req, &settings)
		assert.Equal(t, CodeContactFileTypeNotAllowed, codeOf(t, err))
		assert.Contains(t, err.Error(), "pdf, doc, docx, txt")

		req.Attachment = &AttachmentUpload{Filename: "Brief.PDF", Size: 10}
		assert.NoError(t, ValidateContactSubmission(req, &settings))
	})
}

func TestFileExtension(t *testing.T) {
	assert.Equal(t, "pdf", FileExtension("report.final.PDF"))
	assert.Equal(t, "txt", FileExtension("notes.txt"))
	assert.Equal(t, "readme", FileExtension("README"))
	assert.Equal(t, "", FileExtension("trailing."))
}

func TestContactIntakeSubmit(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		ctx := testingutil.CreateTestContext()
		contactRepo := repository.NewContactSubmissionRepository(testDB.DB)
		settingsRepo := repository.NewFormSettingsRepository(testDB.DB)
		root := t.TempDir()
		storage := services.NewDiskAttachmentStorage(root)
		dispatcher := &recordingDispatcher{}
		intake := NewContactIntake(contactRepo, settingsRepo, storage, dispatcher, nil)

		t.Run("TrimsAndPersists", func(t *testing.T) {
			req := validRequest()
			req.Name = "  Maria Silva  "
			req.Email = " maria@example.com "

			sub, err := intake.Submit(ctx, req, NewClientMetadata("203.0.113.7", "test-agent"))
			require.NoError(t, err)
			require.NotZero(t, sub.ID)
			assert.Equal(t, "Maria Silva", sub.Name)
			assert.Equal(t, "maria@example.com", sub.Email)
			assert.False(t, sub.IsRead)
			assert.Empty(t, sub.Notes)

			stored, err := contactRepo.ByID(ctx, sub.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, sub.UUID, stored.UUID)

			require.Eventually(t, func() bool { return dispatcher.count() == 1 }, time.Second, 10*time.Millisecond)
		})

		t.Run("StoresAttachment", func(t *testing.T) {
			req := validRequest()
			req.Attachment = upload("brief.pdf", []byte("%PDF-1.4 brief"))

			sub, err := intake.Submit(ctx, req, nil)
			require.NoError(t, err)
			assert.Equal(t, "brief.pdf", sub.AttachmentName)
			assert.Equal(t, int64(len("%PDF-1.4 brief")), sub.AttachmentSize)
			assert.True(t, strings.HasPrefix(sub.AttachmentPath, "contact_attachments/"))

			data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(sub.AttachmentPath)))
			require.NoError(t, err)
			assert.Equal(t, "%PDF-1.4 brief", string(data))
		})

		t.Run("RejectsWithoutSaving", func(t *testing.T) {
			before, err := contactRepo.Count(ctx, models.ContactSubmissionFilter{})
			require.NoError(t, err)
			calls := dispatcher.count()

			req := validRequest()
			req.WhatsApp = "123"
			_, err = intake.Submit(ctx, req, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidWhatsApp))

			after, err := contactRepo.Count(ctx, models.ContactSubmissionFilter{})
			require.NoError(t, err)
			assert.Equal(t, before, after)
			assert.Equal(t, calls, dispatcher.count())
		})

		return nil
	})
	require.NoError(t, err)
}
