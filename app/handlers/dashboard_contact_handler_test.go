package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/amirphl/vitrine/app/dto"
	businessflow "github.com/amirphl/vitrine/business_flow"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubContactManagement struct {
	lastList   *dto.ListContactsRequest
	lastFormat string
}

func (s *stubContactManagement) List(_ context.Context, req *dto.ListContactsRequest) (*dto.ListContactsResponse, error) {
	s.lastList = req
	return &dto.ListContactsResponse{Items: []dto.ContactSubmissionDTO{}, Page: 1, PerPage: 20, TotalPages: 1}, nil
}

func (s *stubContactManagement) Detail(_ context.Context, ref string) (*dto.ContactSubmissionDTO, error) {
	return nil, businessflow.NewBusinessError(businessflow.CodeContactNotFound, "Contact not found", businessflow.ErrContactNotFound)
}

func (s *stubContactManagement) UpdateNotes(_ context.Context, _ string, _ *dto.UpdateContactNotesRequest) (*dto.ContactSubmissionDTO, error) {
	return &dto.ContactSubmissionDTO{}, nil
}

func (s *stubContactManagement) DownloadAttachment(_ context.Context, _ string) (*businessflow.FileDownload, error) {
	return &businessflow.FileDownload{Filename: "brief.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}, nil
}

func (s *stubContactManagement) Export(_ context.Context, req *dto.ListContactsRequest, format string) (*businessflow.FileDownload, error) {
	s.lastList = req
	s.lastFormat = format
	if format != "csv" {
		return nil, businessflow.NewBusinessError(businessflow.CodeInvalidExportFormat, "Unsupported export format", businessflow.ErrInvalidExportFormat)
	}
	return &businessflow.FileDownload{Filename: "contatos_20240310.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("Nome\n")}, nil
}

func newDashboardContactApp(flow businessflow.ContactManagementFlow) *fiber.App {
	h := NewDashboardContactHandler(flow)
	app := fiber.New()
	app.Get("/contacts", h.List)
	app.Get("/contacts/:id", h.Detail)
	app.Get("/contacts/:id/attachment", h.DownloadAttachment)
	app.Get("/export/contacts/:format", h.Export)
	return app
}

func TestDashboardContactHandlerList(t *testing.T) {
	flow := &stubContactManagement{}
	app := newDashboardContactApp(flow)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/contacts?search=maria&status=unread&page=3", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, flow.lastList)
	assert.Equal(t, "maria", flow.lastList.Search)
	assert.Equal(t, "unread", flow.lastList.Status)
	assert.Equal(t, 3, flow.lastList.Page)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/contacts?status=archived", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", decodeResponse(t, resp).Error.Code)
}

func TestDashboardContactHandlerDetailNotFound(t *testing.T) {
	app := newDashboardContactApp(&stubContactManagement{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/contacts/99", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, businessflow.CodeContactNotFound, decodeResponse(t, resp).Error.Code)
}

func TestDashboardContactHandlerExport(t *testing.T) {
	flow := &stubContactManagement{}
	app := newDashboardContactApp(flow)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/export/contacts/csv?search=site", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "attachment; filename=contatos_20240310.csv", resp.Header.Get(fiber.HeaderContentDisposition))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/csv")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Nome\n", string(body))
	assert.Equal(t, "site", flow.lastList.Search)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/export/contacts/docx", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, businessflow.CodeInvalidExportFormat, decodeResponse(t, resp).Error.Code)
}

func TestDashboardContactHandlerDownloadAttachment(t *testing.T) {
	app := newDashboardContactApp(&stubContactManagement{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/contacts/1/attachment", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "brief.pdf")
	assert.Equal(t, "application/pdf", resp.Header.Get(fiber.HeaderContentType))
}
