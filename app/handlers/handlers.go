// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/vitrine/app/dto"
	businessflow "github.com/amirphl/vitrine/business_flow"
	"github.com/amirphl/vitrine/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

const defaultRequestTimeout = 30 * time.Second

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must be at least " + err.Param()
	case "max":
		return err.Field() + " must be at most " + err.Param()
	case "len":
		return err.Field() + " must be exactly " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "numeric":
		return err.Field() + " must contain only numbers"
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

func validationDetails(err error) []string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		out = append(out, getValidationErrorMessage(fe))
	}
	return out
}

// ErrorResponse standard JSON error
func ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

// SuccessResponse standard JSON success
func SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// statusForCode maps business error codes onto HTTP statuses
func statusForCode(code string) int {
	switch code {
	case businessflow.CodeContactRequiredFields,
		businessflow.CodeContactInvalidEmail,
		businessflow.CodeContactInvalidWhatsApp,
		businessflow.CodeContactFileTooLarge,
		businessflow.CodeContactFileTypeNotAllowed,
		businessflow.CodeInvalidExportFormat,
		businessflow.CodeFormSettingsInvalid,
		businessflow.CodeInvalidSummaryDate,
		businessflow.CodeInvalidDateRange,
		businessflow.CodeCaptchaInvalid,
		"STAFF_LOGIN_VALIDATION_FAILED":
		return fiber.StatusBadRequest
	case businessflow.CodeStaffNotFound,
		businessflow.CodeStaffIncorrectPassword,
		businessflow.CodeInvalidRefreshToken:
		return fiber.StatusUnauthorized
	case businessflow.CodeStaffInactive:
		return fiber.StatusForbidden
	case businessflow.CodeContactNotFound,
		businessflow.CodeAttachmentNotFound:
		return fiber.StatusNotFound
	case businessflow.CodeFormSettingsExists:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// businessErrorResponse answers with the status mapped from the error code.
// Server errors hide the underlying message behind fallback.
func businessErrorResponse(c fiber.Ctx, err error, fallback, fallbackCode string) error {
	var be *businessflow.BusinessError
	if errors.As(err, &be) {
		status := statusForCode(be.Code)
		if status != fiber.StatusInternalServerError {
			return ErrorResponse(c, status, be.Message, be.Code, nil)
		}
	}
	return ErrorResponse(c, fiber.StatusInternalServerError, fallback, fallbackCode, nil)
}

// createRequestContext carries request-scoped values into the flows
func createRequestContext(c fiber.Ctx, endpoint string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	if staffID, ok := c.Locals("staff_id").(uint); ok {
		ctx = context.WithValue(ctx, utils.StaffIDKey, staffID)
	}
	return ctx, cancel
}

func clientMetadata(c fiber.Ctx, ip string) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(ip, c.Get("User-Agent"))
	metadata.Referer = c.Get("Referer")
	metadata.SetRequestID(c.Get("X-Request-ID"))
	return metadata
}
