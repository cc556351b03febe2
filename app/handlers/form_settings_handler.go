package handlers

import (
	"log"

	"github.com/amirphl/vitrine/app/dto"
	businessflow "github.com/amirphl/vitrine/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// FormSettingsHandlerInterface defines the contact form settings endpoints
type FormSettingsHandlerInterface interface {
	Get(c fiber.Ctx) error
	Update(c fiber.Ctx) error
}

// FormSettingsHandler implements FormSettingsHandlerInterface
type FormSettingsHandler struct {
	flow      businessflow.FormSettingsFlow
	validator *validator.Validate
}

func NewFormSettingsHandler(flow businessflow.FormSettingsFlow) FormSettingsHandlerInterface {
	return &FormSettingsHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

// Get returns the contact form settings, creating defaults on first access
// @Summary Get form settings
// @Tags Dashboard Settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.FormSettingsDTO}
// @Failure 401 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/dashboard/settings [get]
func (h *FormSettingsHandler) Get(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/dashboard/settings", defaultRequestTimeout)
	defer cancel()

	resp, err := h.flow.Get(ctx)
	if err != nil {
		log.Println("Get form settings failed", err)
		return businessErrorResponse(c, err, "Failed to load settings", "FORM_SETTINGS_LOAD_FAILED")
	}
	return SuccessResponse(c, fiber.StatusOK, "Settings retrieved", resp)
}

// Update replaces the contact form settings
// @Summary Update form settings
// @Tags Dashboard Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateFormSettingsRequest true "Settings"
// @Success 200 {object} dto.APIResponse{data=dto.FormSettingsDTO}
// @Failure 400 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/dashboard/settings [put]
func (h *FormSettingsHandler) Update(c fiber.Ctx) error {
	var req dto.UpdateFormSettingsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/dashboard/settings", defaultRequestTimeout)
	defer cancel()

	resp, err := h.flow.Update(ctx, &req)
	if err != nil {
		log.Println("Update form settings failed", err)
		return businessErrorResponse(c, err, "Failed to update settings", "FORM_SETTINGS_UPDATE_FAILED")
	}
	return SuccessResponse(c, fiber.StatusOK, "Settings updated", resp)
}
