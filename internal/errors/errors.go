package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
	// Row is the 1-based data row the error refers to, 0 when not row specific.
	Row int64
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
			Row:     appErr.Row,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
			Row:     appErr.Row,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the first AppError in the chain, otherwise "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	return err != nil && GetCode(err) == code
}

// GetRow returns the row attached to err, or 0.
func GetRow(err error) int64 {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Row
	}
	return 0
}

// Predefined error codes
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeMalformedRecord  = "MALFORMED_RECORD"
	CodeUnparseableDate  = "UNPARSEABLE_DATE"
	CodeEmptyInput       = "EMPTY_INPUT"
	CodeInvalidSelection = "INVALID_SELECTION"
	CodeResourceLimit    = "RESOURCE_LIMIT"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// MalformedRecord reports a row that does not have the expected shape.
func MalformedRecord(row int64, cause error) *AppError {
	return &AppError{
		Code:    CodeMalformedRecord,
		Message: fmt.Sprintf("malformed record at row %d", row),
		Cause:   cause,
		Row:     row,
	}
}

// UnparseableDate reports a strict-mode date failure.
func UnparseableDate(row int64, field, value string) *AppError {
	return &AppError{
		Code:    CodeUnparseableDate,
		Message: fmt.Sprintf("unparseable date %q in field %q at row %d", value, field, row),
		Row:     row,
	}
}

// EmptyInput reports a source without data rows.
func EmptyInput(source string) *AppError {
	return New(CodeEmptyInput, fmt.Sprintf("%s has no data rows", source))
}

// InvalidSelection reports a selected field that does not exist.
func InvalidSelection(name string) *AppError {
	return New(CodeInvalidSelection, fmt.Sprintf("selected field %q not found in header", name))
}

// ResourceLimit reports a field population that grew past the configured cap.
func ResourceLimit(field string, limit int) *AppError {
	return New(CodeResourceLimit, fmt.Sprintf("field %q holds more than %d values for order statistics", field, limit))
}
