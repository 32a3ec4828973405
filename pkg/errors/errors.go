package errors

import (
	"errors"
	"fmt"
)

const (
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeConfig        = "CONFIG_ERROR"
	ErrCodeTransient     = "TRANSIENT_UPSTREAM"
	ErrCodeBlocked       = "CONTENT_BLOCKED"
	ErrCodeNoImage       = "NO_IMAGE_RETURNED"
	ErrCodeGeminiAPI     = "GEMINI_API_ERROR"
	ErrCodeRender        = "RENDER_ERROR"
	ErrCodeStorage       = "STORAGE_ERROR"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeAllCandidates = "ALL_CANDIDATES_FAILED"
)

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Newf(code, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is reports whether err (or anything it wraps) carries the given code.
func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Code == code {
			return true
		}
		if appErr.Cause != nil {
			return Is(appErr.Cause, code)
		}
	}
	return false
}

// Code returns the outermost AppError code, or ErrCodeInternal for plain errors.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsTransient reports whether err is a retriable upstream failure.
func IsTransient(err error) bool {
	return Is(err, ErrCodeTransient)
}
