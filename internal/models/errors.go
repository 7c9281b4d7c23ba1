package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code,omitempty"`
	DomainCode int    `json:"domain_code,omitempty"`
	Details    string `json:"details,omitempty"`
}

// AppError represents a custom application error. Status is the HTTP status the
// boundary should use; DomainCode is the numeric client-facing code.
type AppError struct {
	Code       string
	Message    string
	Status     int
	DomainCode int
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s with ID %v not found", resource, id),
		Status:     fiber.StatusNotFound,
		DomainCode: CodeNoData,
	}
}

// NewNoDataError is returned when a relationship row targeted by a mutation is missing.
func NewNoDataError() *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    "No data or end of list data",
		Status:     fiber.StatusNotFound,
		DomainCode: CodeNoData,
	}
}

func NewUserNotFoundError(id interface{}) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("User with ID %v not found", id),
		Status:     fiber.StatusNotFound,
		DomainCode: CodeUserNotValidated,
	}
}

func NewPostNotFoundError(id interface{}) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("Post with ID %v does not exist", id),
		Status:     fiber.StatusNotFound,
		DomainCode: CodePostNotExist,
	}
}

func NewValidationError(message string) *AppError {
	return NewDomainValidationError(message, CodeParamsValueInvalid)
}

// NewDomainValidationError builds a 400 error carrying a specific domain code.
func NewDomainValidationError(message string, domainCode int) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		Status:     fiber.StatusBadRequest,
		DomainCode: domainCode,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:       "FORBIDDEN",
		Message:    message,
		Status:     fiber.StatusForbidden,
		DomainCode: CodeNotAccess,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:       "UNAUTHORIZED",
		Message:    message,
		Status:     fiber.StatusUnauthorized,
		DomainCode: CodeTokenInvalid,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:       "CONFLICT",
		Message:    message,
		Status:     fiber.StatusConflict,
		DomainCode: CodeActionHasDone,
	}
}

func NewUploadFailedError(err error) *AppError {
	return &AppError{
		Code:       "UPLOAD_FAILED",
		Message:    "Upload file failed",
		Status:     fiber.StatusBadRequest,
		DomainCode: CodeUploadFileFailed,
		Err:        err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "Internal server error",
		Status:     fiber.StatusInternalServerError,
		DomainCode: CodeExceptionError,
		Err:        err,
	}
}

// StatusFor returns the HTTP status hint carried by err, or 500.
func StatusFor(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return fiber.StatusInternalServerError
}

// IsCode reports whether err is an AppError with the given string code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error:      appErr.Message,
			Code:       appErr.Code,
			DomainCode: appErr.DomainCode,
		}
		if appErr.Err != nil && status < fiber.StatusInternalServerError {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}

// RespondWithAppError writes err using its own status hint.
func RespondWithAppError(c *fiber.Ctx, err error) error {
	return RespondWithError(c, StatusFor(err), err)
}
