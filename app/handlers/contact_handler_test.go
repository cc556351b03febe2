package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/amirphl/vitrine/app/dto"
	businessflow "github.com/amirphl/vitrine/business_flow"
	"github.com/amirphl/vitrine/models"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validatingIntake runs the real validation rules and records what it accepted
type validatingIntake struct {
	received   *businessflow.SubmitContactRequest
	attachment []byte
}

func (f *validatingIntake) Submit(_ context.Context, req businessflow.SubmitContactRequest, _ *businessflow.ClientMetadata) (*models.ContactSubmission, error) {
	settings := models.DefaultFormSettings()
	if err := businessflow.ValidateContactSubmission(req, &settings); err != nil {
		return nil, err
	}
	f.received = &req
	if req.Attachment != nil {
		rc, err := req.Attachment.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		f.attachment, _ = io.ReadAll(rc)
	}
	return &models.ContactSubmission{ID: 42, UUID: uuid.New(), Name: req.Name}, nil
}

// apiEnvelope mirrors dto.APIResponse with a typed error detail
type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    any             `json:"data"`
	Error   dto.ErrorDetail `json:"error"`
}

func decodeResponse(t *testing.T, resp *http.Response) apiEnvelope {
	t.Helper()
	defer resp.Body.Close()
	var out apiEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func formBody(fields map[string]string) io.Reader {
	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	return strings.NewReader(values.Encode())
}

func validFields() map[string]string {
	return map[string]string{
		"name":                "Maria",
		"whatsapp":            "(11) 91234-5678",
		"email":               "maria@example.com",
		"project_description": "Site novo",
	}
}

func TestContactHandlerSubmit(t *testing.T) {
	intake := &validatingIntake{}
	app := fiber.New()
	app.Post("/contact", NewContactHandler(intake).Submit)

	t.Run("URLEncodedSuccess", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/contact", formBody(validFields()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

		body := decodeResponse(t, resp)
		assert.True(t, body.Success)
		assert.Equal(t, businessflow.ContactSubmittedMessage, body.Message)
		require.NotNil(t, intake.received)
		assert.Nil(t, intake.received.Attachment)
	})

	t.Run("MultipartWithAttachment", func(t *testing.T) {
		buf := &bytes.Buffer{}
		w := multipart.NewWriter(buf)
		for k, v := range validFields() {
			require.NoError(t, w.WriteField(k, v))
		}
		part, err := w.CreateFormFile("attachment", "brief.pdf")
		require.NoError(t, err)
		_, _ = part.Write([]byte("%PDF-1.4"))
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/contact", buf)
		req.Header.Set("Content-Type", w.FormDataContentType())

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
		require.NotNil(t, intake.received.Attachment)
		assert.Equal(t, "brief.pdf", intake.received.Attachment.Filename)
		assert.Equal(t, "%PDF-1.4", string(intake.attachment))
	})

	t.Run("ValidationMessage", func(t *testing.T) {
		fields := validFields()
		fields["email"] = "abc"
		req := httptest.NewRequest(http.MethodPost, "/contact", formBody(fields))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		body := decodeResponse(t, resp)
		assert.False(t, body.Success)
		assert.Equal(t, businessflow.CodeContactInvalidEmail, body.Error.Code)
		assert.Equal(t, "Email inválido", body.Message)
	})
}
