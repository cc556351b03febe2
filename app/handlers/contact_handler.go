package handlers

import (
	"errors"
	"io"
	"log"
	"mime/multipart"

	"github.com/amirphl/vitrine/app/dto"
	"github.com/amirphl/vitrine/app/middleware"
	businessflow "github.com/amirphl/vitrine/business_flow"
	"github.com/gofiber/fiber/v3"
	"github.com/valyala/fasthttp"
)

const msgInternalError = "Erro interno do servidor. Tente novamente."

// ContactHandlerInterface defines the public contact form endpoint
type ContactHandlerInterface interface {
	Submit(c fiber.Ctx) error
}

// ContactHandler implements ContactHandlerInterface
type ContactHandler struct {
	intake businessflow.ContactIntake
}

func NewContactHandler(intake businessflow.ContactIntake) ContactHandlerInterface {
	return &ContactHandler{intake: intake}
}

// Submit accepts the contact form
// @Summary Submit contact form
// @Description Validates and stores a contact request with an optional attachment, then notifies staff and the applicant
// @Tags Contact
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Name"
// @Param whatsapp formData string true "WhatsApp number"
// @Param email formData string true "Email"
// @Param project_description formData string true "Project description"
// @Param attachment formData file false "Optional attachment"
// @Success 201 {object} dto.APIResponse{data=dto.SubmitContactResponse} "Contact stored"
// @Failure 400 {object} dto.APIResponse "Validation failed"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/contact [post]
func (h *ContactHandler) Submit(c fiber.Ctx) error {
	req := businessflow.SubmitContactRequest{
		Name:               c.FormValue("name"),
		WhatsApp:           c.FormValue("whatsapp"),
		Email:              c.FormValue("email"),
		ProjectDescription: c.FormValue("project_description"),
	}

	fileHeader, err := c.FormFile("attachment")
	switch {
	case err == nil && fileHeader != nil && fileHeader.Filename != "":
		req.Attachment = uploadFromHeader(fileHeader)
	case err != nil && !errors.Is(err, fasthttp.ErrMissingFile) && !errors.Is(err, fasthttp.ErrNoMultipartForm):
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	ctx, cancel := createRequestContext(c, "/api/v1/contact", defaultRequestTimeout)
	defer cancel()

	metadata := clientMetadata(c, middleware.ClientIP(c))
	submission, err := h.intake.Submit(ctx, req, metadata)
	if err != nil {
		if businessflow.IsValidationError(err) {
			var be *businessflow.BusinessError
			if errors.As(err, &be) {
				return ErrorResponse(c, fiber.StatusBadRequest, be.Message, be.Code, nil)
			}
		}
		log.Println("Contact submission failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, msgInternalError, "CONTACT_SUBMIT_FAILED", nil)
	}

	return SuccessResponse(c, fiber.StatusCreated, businessflow.ContactSubmittedMessage, dto.SubmitContactResponse{
		Message: businessflow.ContactSubmittedMessage,
		ID:      submission.ID,
		UUID:    submission.UUID.String(),
	})
}

func uploadFromHeader(fh *multipart.FileHeader) *businessflow.AttachmentUpload {
	return &businessflow.AttachmentUpload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
