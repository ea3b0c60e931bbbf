package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *AppError with the same code, so the
// sentinels below work with errors.Is regardless of message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// HasCode reports whether any error in err's chain is an AppError with code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	for err != nil {
		if stderrors.As(err, &appErr) {
			if appErr.Code == code {
				return true
			}
			err = appErr.Err
			continue
		}
		return false
	}
	return false
}

// Common error codes
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeAlreadyExists      = "ALREADY_EXISTS"
	ErrCodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	ErrCodeInvalidCoordinate  = "INVALID_COORDINATE"
	ErrCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	ErrCodeSessionBusy        = "SESSION_BUSY"
)

var (
	ErrInvalidCoordinate  = New(ErrCodeInvalidCoordinate, "invalid coordinate")
	ErrStorageUnavailable = New(ErrCodeStorageUnavailable, "storage unavailable")
	ErrSessionBusy        = New(ErrCodeSessionBusy, "session is busy")
	ErrAlreadyExists      = New(ErrCodeAlreadyExists, "already exists")
	ErrNotFound           = New(ErrCodeNotFound, "not found")
	ErrRateLimitExceeded  = New(ErrCodeRateLimitExceeded, "rate limit exceeded")
	ErrValidation         = New(ErrCodeValidation, "validation failed")
)
