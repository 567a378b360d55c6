package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by the service layer and the HTTP adapter.
const (
	CodeInvalidFormat   = "INVALID_FORMAT"
	CodeDuplicate       = "DUPLICATE"
	CodeConsistency     = "CONSISTENCY"
	CodeImmutableField  = "IMMUTABLE_FIELD"
	CodeInvalidTeam     = "INVALID_TEAM"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeAccountInactive = "ACCOUNT_INACTIVE"
	CodeInternal        = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
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
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewInvalidFormat reports a malformed username, role, status or field value.
func NewInvalidFormat(message string, details map[string]any) error {
	return NewDomainError(CodeInvalidFormat, message, http.StatusBadRequest, details)
}

// NewDuplicate reports a username collision among live accounts.
func NewDuplicate(message string, details map[string]any) error {
	return NewDomainError(CodeDuplicate, message, http.StatusConflict, details)
}

// NewConsistency reports a role/team or role/prefix mismatch.
func NewConsistency(message string, details map[string]any) error {
	return NewDomainError(CodeConsistency, message, http.StatusBadRequest, details)
}

// NewImmutableField reports an attempt to change a write-once field.
func NewImmutableField(field string) error {
	return NewDomainError(CodeImmutableField, fmt.Sprintf("%s cannot be changed", field), http.StatusBadRequest,
		map[string]any{"field": field})
}

// NewInvalidTeam reports a reference to a team that does not exist.
func NewInvalidTeam(teamID int64, err error) error {
	return &DomainError{
		Code:       CodeInvalidTeam,
		Message:    fmt.Sprintf("team %d does not exist", teamID),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"team_id": teamID},
		Err:        err,
	}
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

// NewAccountInactive is returned by login for accounts switched to Inactive.
func NewAccountInactive() error {
	return NewDomainError(CodeAccountInactive, "user account is inactive", http.StatusForbidden, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
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
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
