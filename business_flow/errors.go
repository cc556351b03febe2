// Package businessflow contains the use cases behind the public site and the staff dashboard
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Contact form validation
	ErrRequiredFieldsMissing = errors.New("required fields missing")
	ErrInvalidEmail          = errors.New("invalid email")
	ErrInvalidWhatsApp       = errors.New("invalid whatsapp number")
	ErrFileTooLarge          = errors.New("attachment too large")
	ErrFileTypeNotAllowed    = errors.New("attachment type not allowed")

	// Contact management
	ErrContactNotFound       = errors.New("contact not found")
	ErrAttachmentNotFound    = errors.New("attachment not found")
	ErrInvalidExportFormat   = errors.New("invalid export format")
	ErrInvalidSummaryDate    = errors.New("invalid summary date")
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")

	// Form settings
	ErrFormSettingsAlreadyExists = errors.New("form settings already exist")
	ErrInvalidFormSettings       = errors.New("invalid form settings")

	// Staff authentication
	ErrStaffNotFound     = errors.New("staff not found")
	ErrStaffInactive     = errors.New("staff account is inactive")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrInvalidCaptcha    = errors.New("invalid captcha")
)

// Error codes surfaced to API clients
const (
	CodeContactRequiredFields     = "CONTACT_REQUIRED_FIELDS"
	CodeContactInvalidEmail       = "CONTACT_INVALID_EMAIL"
	CodeContactInvalidWhatsApp    = "CONTACT_INVALID_WHATSAPP"
	CodeContactFileTooLarge       = "CONTACT_FILE_TOO_LARGE"
	CodeContactFileTypeNotAllowed = "CONTACT_FILE_TYPE_NOT_ALLOWED"
	CodeContactSaveFailed         = "CONTACT_SAVE_FAILED"
	CodeContactNotFound           = "CONTACT_NOT_FOUND"
	CodeAttachmentNotFound        = "ATTACHMENT_NOT_FOUND"
	CodeInvalidExportFormat       = "INVALID_EXPORT_FORMAT"
	CodeExportFailed              = "EXPORT_FAILED"
	CodeFormSettingsExists        = "FORM_SETTINGS_ALREADY_EXISTS"
	CodeFormSettingsInvalid       = "FORM_SETTINGS_INVALID"
	CodeInvalidSummaryDate        = "INVALID_SUMMARY_DATE"
	CodeInvalidDateRange          = "INVALID_DATE_RANGE"
	CodeCaptchaInvalid            = "CAPTCHA_INVALID"
	CodeStaffNotFound             = "STAFF_NOT_FOUND"
	CodeStaffInactive             = "STAFF_INACTIVE"
	CodeStaffIncorrectPassword    = "STAFF_INCORRECT_PASSWORD"
	CodeTokenGenerationFailed     = "TOKEN_GENERATION_FAILED"
	CodeInvalidRefreshToken       = "INVALID_REFRESH_TOKEN"
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// IsValidationError reports whether err is a contact form validation failure
func IsValidationError(err error) bool {
	return errors.Is(err, ErrRequiredFieldsMissing) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrInvalidWhatsApp) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrFileTypeNotAllowed)
}

func IsContactNotFound(err error) bool {
	return errors.Is(err, ErrContactNotFound)
}

func IsFormSettingsAlreadyExists(err error) bool {
	return errors.Is(err, ErrFormSettingsAlreadyExists)
}

func IsIncorrectPassword(err error) bool {
	return errors.Is(err, ErrIncorrectPassword)
}
