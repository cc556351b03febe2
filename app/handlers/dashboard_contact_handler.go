package handlers

import (
	"log"

	"github.com/amirphl/vitrine/app/dto"
	businessflow "github.com/amirphl/vitrine/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// DashboardContactHandlerInterface defines the staff contact endpoints
type DashboardContactHandlerInterface interface {
	List(c fiber.Ctx) error
	Detail(c fiber.Ctx) error
	UpdateNotes(c fiber.Ctx) error
	DownloadAttachment(c fiber.Ctx) error
	Export(c fiber.Ctx) error
}

// DashboardContactHandler implements DashboardContactHandlerInterface
type DashboardContactHandler struct {
	flow      businessflow.ContactManagementFlow
	validator *validator.Validate
}

func NewDashboardContactHandler(flow businessflow.ContactManagementFlow) DashboardContactHandlerInterface {
	return &DashboardContactHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *DashboardContactHandler) bindListRequest(c fiber.Ctx) (*dto.ListContactsRequest, error) {
	var req dto.ListContactsRequest
	if err := c.Bind().Query(&req); err != nil {
		return nil, err
	}
	if err := h.validator.Struct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns one page of contacts, newest first
// @Summary List contacts
// @Tags Dashboard Contacts
// @Produce json
// @Security BearerAuth
// @Param search query string false "Matches name, email, whatsapp or description"
// @Param status query string false "read or unread"
// @Param date_from query string false "YYYY-MM-DD"
// @Param date_to query string false "YYYY-MM-DD"
// @Param page query int false "Page number"
// @Success 200 {object} dto.APIResponse{data=dto.ListContactsResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 401 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/dashboard/contacts [get]
func (h *DashboardContactHandler) List(c fiber.Ctx) error {
	req, err := h.bindListRequest(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/dashboard/contacts", defaultRequestTimeout)
	defer cancel()

	resp, err := h.flow.List(ctx, req)
	if err != nil {
		log.Println("List contacts failed", err)
		return businessErrorResponse(c, err, "Failed to list contacts", "CONTACT_LIST_FAILED")
	}
	return SuccessResponse(c, fiber.StatusOK, "Contacts retrieved", resp)
}

// Detail returns one contact and marks it read
// @Summary Contact detail
// @Tags Dashboard Contacts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contact id or uuid"
// @Success 200 {object} dto.APIResponse{data=dto.ContactSubmissionDTO}
// @Failure 404 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/dashboard/contacts/{id} [get]
func (h *DashboardContactHandler) Detail(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/dashboard/contacts/:id", defaultRequestTimeout)
	defer cancel()

	resp, err := h.flow.Detail(ctx, c.Params("id"))
	if err != nil {
		if !businessflow.IsContactNotFound(err) {
			log.Println("Contact detail failed", err)
		}
		return businessErrorResponse(c, err, "Failed to load contact", "CONTACT_DETAIL_FAILED")
	}
	return SuccessResponse(c, fiber.StatusOK, "Contact retrieved", resp)
}

// UpdateNotes replaces the staff notes of a contact
// @Summary Update contact notes
// @Tags Dashboard Contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contact id or uuid"
// @Param request body dto.UpdateContactNotesRequest true "Notes"
// @Success 200 {object} dto.APIResponse{data=dto.ContactSubmissionDTO}
// @Failure 400 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/dashboard/contacts/{id}/notes [put]
func (h *DashboardContactHandler) UpdateNotes(c fiber.Ctx) error {
	var req dto.UpdateContactNotesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/dashboard/contacts/:id/notes", defaultRequestTimeout)
	defer cancel()

	resp, err := h.flow.UpdateNotes(ctx, c.Params("id"), &req)
	if err != nil {
		if !businessflow.IsContactNotFound(err) {
			log.Println("Update contact notes failed", err)
		}
		return businessErrorResponse(c, err, "Failed to update notes", "CONTACT_NOTES_UPDATE_FAILED")
	}
	return SuccessResponse(c, fiber.StatusOK, "Notes updated", resp)
}

// DownloadAttachment streams the file uploaded with a contact
// @Summary Download contact attachment
// @Tags Dashboard Contacts
// @Produce application/octet-stream
// @Security BearerAuth
// @Param id path string true "Contact id or uuid"
// @Success 200 {string} string "Binary file"
// @Failure 404 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/dashboard/contacts/{id}/attachment [get]
func (h *DashboardContactHandler) DownloadAttachment(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/dashboard/contacts/:id/attachment", defaultRequestTimeout)
	defer cancel()

	file, err := h.flow.DownloadAttachment(ctx, c.Params("id"))
	if err != nil {
		log.Println("Download attachment failed", err)
		return businessErrorResponse(c, err, "Failed to download attachment", "ATTACHMENT_DOWNLOAD_FAILED")
	}

	c.Attachment(file.Filename)
	c.Set(fiber.HeaderContentType, file.ContentType)
	return c.Send(file.Data)
}

// Export downloads the filtered contacts as csv, pdf or xlsx
// @Summary Export contacts
// @Tags Dashboard Contacts
// @Produce octet-stream
// @Security BearerAuth
// @Param format path string true "csv, pdf or xlsx"
// @Param search query string false "Matches name, email, whatsapp or description"
// @Param status query string false "read or unread"
// @Param date_from query string false "YYYY-MM-DD"
// @Param date_to query string false "YYYY-MM-DD"
// @Success 200 {string} string "Export file"
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/dashboard/export/contacts/{format} [get]
func (h *DashboardContactHandler) Export(c fiber.Ctx) error {
	req, err := h.bindListRequest(c)
	if err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/dashboard/export/contacts/:format", 2*defaultRequestTimeout)
	defer cancel()

	file, err := h.flow.Export(ctx, req, c.Params("format"))
	if err != nil {
		log.Println("Export contacts failed", err)
		return businessErrorResponse(c, err, "Failed to export contacts", businessflow.CodeExportFailed)
	}

	c.Set(fiber.HeaderContentType, file.ContentType)
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+file.Filename)
	return c.Send(file.Data)
}
