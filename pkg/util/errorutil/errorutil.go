package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spec-kit/account-service/internal/domain"
)

// DomainError standardizes application errors for the HTTP layer.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status}
}

func NewValidationError(message string) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized)
}

func NewUnprocessable(code, message string) error {
	return NewDomainError(code, message, http.StatusUnprocessableEntity)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// sentinelMapping maps the service error taxonomy to HTTP responses.
// Scheduling and store failures deliberately collapse into the generic
// internal error so no infrastructure detail leaks to callers.
var sentinelMapping = []struct {
	err     error
	code    string
	message string
	status  int
}{
	{domain.ErrInvalidCredentials, "INVALID_CREDENTIALS", "invalid username or password", http.StatusUnauthorized},
	{domain.ErrTokenExpired, "TOKEN_EXPIRED", "token expired", http.StatusUnauthorized},
	{domain.ErrTokenInvalid, "TOKEN_INVALID", "token invalid", http.StatusUnauthorized},
	{domain.ErrTokenSubjectMismatch, "TOKEN_SUBJECT_MISMATCH", "token subjects do not match", http.StatusForbidden},
	{domain.ErrUsernameTaken, "USERNAME_TAKEN", "username already taken", http.StatusConflict},
	{domain.ErrEmailTaken, "EMAIL_TAKEN", "email already registered", http.StatusConflict},
	{domain.ErrEmailNonexistent, "EMAIL_NONEXISTENT", "email address does not exist", http.StatusUnprocessableEntity},
	{domain.ErrAlreadyActive, "USER_IS_ACTIVE", "user already active", http.StatusForbidden},
	{domain.ErrUserNotFound, "USER_NOT_FOUND", "user not found", http.StatusUnprocessableEntity},
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	for _, m := range sentinelMapping {
		if errors.Is(err, m.err) {
			return &DomainError{Code: m.code, Message: m.message, HTTPStatus: m.status, Err: err}
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError converts generic errors to DomainError.
func MapError(err error) error {
	return ToDomainError(err)
}
