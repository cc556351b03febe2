package handlers

import (
	"log"

	"github.com/amirphl/vitrine/app/dto"
	"github.com/amirphl/vitrine/app/middleware"
	businessflow "github.com/amirphl/vitrine/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// StaffAuthHandlerInterface defines the dashboard auth endpoints
type StaffAuthHandlerInterface interface {
	InitCaptcha(c fiber.Ctx) error
	Login(c fiber.Ctx) error
	Refresh(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
}

// StaffAuthHandler implements StaffAuthHandlerInterface
type StaffAuthHandler struct {
	flow      businessflow.StaffAuthFlow
	validator *validator.Validate
}

func NewStaffAuthHandler(flow businessflow.StaffAuthFlow) StaffAuthHandlerInterface {
	return &StaffAuthHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

// InitCaptcha starts the staff login by returning a rotate captcha challenge
// @Summary Staff captcha init
// @Description Initialize rotate captcha for staff login (returns base64 images and challenge ID)
// @Tags Dashboard Authentication
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.StaffCaptchaInitResponse} "Captcha initialized"
// @Failure 500 {object} dto.APIResponse "Failed to initialize captcha"
// @Router /api/v1/dashboard/auth/captcha/init [get]
func (h *StaffAuthHandler) InitCaptcha(c fiber.Ctx) error {
	ctx, cancel := createRequestContext(c, "/api/v1/dashboard/auth/captcha/init", defaultRequestTimeout)
	defer cancel()

	resp, err := h.flow.InitCaptcha(ctx)
	if err != nil {
		log.Println("Staff captcha init failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Staff captcha init failed", "STAFF_CAPTCHA_INIT_FAILED", nil)
	}
	return SuccessResponse(c, fiber.StatusOK, "Captcha initialized", resp)
}

// Login verifies captcha and credentials and issues tokens
// @Summary Staff login
// @Description Verify captcha and authenticate staff with username/password
// @Tags Dashboard Authentication
// @Accept json
// @Produce json
// @Param request body dto.StaffLoginRequest true "Staff login data"
// @Success 200 {object} dto.APIResponse{data=dto.StaffLoginResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse "Invalid request or captcha"
// @Failure 401 {object} dto.APIResponse "Incorrect credentials or staff not found"
// @Failure 403 {object} dto.APIResponse "Staff inactive"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/dashboard/auth/login [post]
func (h *StaffAuthHandler) Login(c fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/dashboard/auth/login", defaultRequestTimeout)
	defer cancel()

	result, err := h.flow.Login(ctx, &req, clientMetadata(c, middleware.ClientIP(c)))
	if err != nil {
		if !businessflow.IsIncorrectPassword(err) {
			log.Println("Staff login failed", err)
		}
		return businessErrorResponse(c, err, "Login failed", "LOGIN_FAILED")
	}
	return SuccessResponse(c, fiber.StatusOK, "Login successful", result)
}

// Refresh exchanges a refresh token for a new token pair
// @Summary Staff token refresh
// @Tags Dashboard Authentication
// @Accept json
// @Produce json
// @Param request body dto.StaffRefreshRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.StaffSessionDTO}
// @Failure 400 {object} dto.APIResponse
// @Failure 401 {object} dto.APIResponse
// @Router /api/v1/dashboard/auth/refresh [post]
func (h *StaffAuthHandler) Refresh(c fiber.Ctx) error {
	var req dto.StaffRefreshRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationDetails(err))
	}

	ctx, cancel := createRequestContext(c, "/api/v1/dashboard/auth/refresh", defaultRequestTimeout)
	defer cancel()

	session, err := h.flow.Refresh(ctx, &req)
	if err != nil {
		return businessErrorResponse(c, err, "Token refresh failed", "TOKEN_REFRESH_FAILED")
	}
	return SuccessResponse(c, fiber.StatusOK, "Token refreshed", session)
}

// Logout revokes the current access token
// @Summary Staff logout
// @Tags Dashboard Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse
// @Failure 401 {object} dto.APIResponse
// @Failure 500 {object} dto.APIResponse
// @Router /api/v1/dashboard/auth/logout [post]
func (h *StaffAuthHandler) Logout(c fiber.Ctx) error {
	token, _ := c.Locals(middleware.LocalAccessToken).(string)
	if token == "" {
		return ErrorResponse(c, fiber.StatusUnauthorized, "Access token is required", "MISSING_ACCESS_TOKEN", nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/dashboard/auth/logout", defaultRequestTimeout)
	defer cancel()

	if err := h.flow.Logout(ctx, token); err != nil {
		log.Println("Staff logout failed", err)
		return ErrorResponse(c, fiber.StatusInternalServerError, "Logout failed", "LOGOUT_FAILED", nil)
	}
	return SuccessResponse(c, fiber.StatusOK, "Logged out", nil)
}
