package domain

import (
	"errors"
	"fmt"
)

// Error codes surfaced by the progression engine and the HTTP layer.
const (
	CodeLockedActivity  = "LOCKED_ACTIVITY"
	CodeOutOfRange      = "OUT_OF_RANGE"
	CodeMalformedAnswer = "MALFORMED_ANSWER"
	CodePersistence     = "PERSISTENCE_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeValidation      = "VALIDATION_ERROR"
	CodeConflict        = "CONFLICT"
	CodeRateLimited     = "RATE_LIMITED"
	CodeInternal        = "INTERNAL_ERROR"
)

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// HasCode reports whether err (or anything it wraps) is an AppError with code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Standard domain error constructors.

func ErrLockedActivity(levelID, activityID string) *AppError {
	return &AppError{
		Code:    CodeLockedActivity,
		Message: fmt.Sprintf("activity %s/%s is locked", levelID, activityID),
		Status:  403,
	}
}

func ErrOutOfRange(msg string) *AppError {
	return &AppError{Code: CodeOutOfRange, Message: msg, Status: 409}
}

func ErrMalformedAnswer(msg string) *AppError {
	return &AppError{Code: CodeMalformedAnswer, Message: msg, Status: 400}
}

func ErrPersistence(msg string, cause error) *AppError {
	return &AppError{Code: CodePersistence, Message: msg, Status: 500, Cause: cause}
}

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg, Status: 400}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: CodeConflict, Message: msg, Status: 409}
}

func ErrRateLimited(msg string) *AppError {
	return &AppError{Code: CodeRateLimited, Message: msg, Status: 429}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: msg, Status: 500, Cause: cause}
}
