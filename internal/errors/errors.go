// Package errors provides the error taxonomy shared by services and
// HTTP handlers: sentinel errors for the service layer and a mapping
// to HTTP status codes and response bodies.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors returned by the service layer. Handlers translate
// them with ToHTTPError; services wrap them with context via %w.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicate          = errors.New("already exists")
	ErrForbidden          = errors.New("permission denied")
	ErrUnauthorized       = errors.New("authentication required")
	ErrHasSubsidiaries    = errors.New("company has linked subsidiaries")
	ErrMalformedCompanyID = errors.New("existing company id does not match COM-NNN pattern")
)

// DomainError carries a client-facing message with an explicit status.
type DomainError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	ErrorCode  string `json:"code"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewValidationError reports a malformed request body or field.
func NewValidationError(message string) *DomainError {
	return &DomainError{Message: message, StatusCode: http.StatusBadRequest, ErrorCode: "VALIDATION_ERROR"}
}

// NewNotFoundError reports an unknown resource id.
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{Message: fmt.Sprintf("%s not found", resource), StatusCode: http.StatusNotFound, ErrorCode: "NOT_FOUND"}
}

// NewPermissionDeniedError reports a failed permission check.
func NewPermissionDeniedError(permission string) *DomainError {
	return &DomainError{Message: fmt.Sprintf("Permission denied: %s", permission), StatusCode: http.StatusForbidden, ErrorCode: "PERMISSION_DENIED"}
}

// NewDomainRuleError reports a violated business rule.
func NewDomainRuleError(message string) *DomainError {
	return &DomainError{Message: message, StatusCode: http.StatusBadRequest, ErrorCode: "DOMAIN_RULE"}
}

// ToHTTPError converts any error into an HTTP status and response body.
func ToHTTPError(err error) (int, map[string]interface{}) {
	if err == nil {
		return http.StatusOK, nil
	}

	var de *DomainError
	if errors.As(err, &de) {
		return de.StatusCode, map[string]interface{}{
			"error":   de.ErrorCode,
			"message": de.Message,
		}
	}

	status := http.StatusInternalServerError
	code := "INTERNAL_ERROR"
	switch {
	case errors.Is(err, ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, ErrInvalidInput):
		status, code = http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, ErrDuplicate):
		status, code = http.StatusConflict, "CONFLICT"
	case errors.Is(err, ErrForbidden):
		status, code = http.StatusForbidden, "PERMISSION_DENIED"
	case errors.Is(err, ErrUnauthorized):
		status, code = http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, ErrHasSubsidiaries), errors.Is(err, ErrMalformedCompanyID):
		status, code = http.StatusBadRequest, "DOMAIN_RULE"
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	return status, map[string]interface{}{
		"error":   code,
		"message": message,
	}
}
