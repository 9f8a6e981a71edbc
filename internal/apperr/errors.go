package apperr

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a galaxy error.
type ErrorType string

const (
	// ErrorTypeParse indicates malformed text or binary input (addresses, saved JSON shapes).
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeWrongVersion indicates a save that names an unknown generator or version.
	ErrorTypeWrongVersion ErrorType = "wrong_version"
	// ErrorTypeCorruptSave indicates a save whose shape or checksum does not match.
	ErrorTypeCorruptSave ErrorType = "corrupt_save"
	// ErrorTypeNotFound indicates a missing save slot or definition.
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeInternal indicates everything else.
	ErrorTypeInternal ErrorType = "internal"
)

// AppError is the base error type for classified errors.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
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

// Parsef creates a parse error with formatting.
func Parsef(format string, args ...any) error {
	return &AppError{Type: ErrorTypeParse, Message: fmt.Sprintf(format, args...)}
}

// WrapParse wraps err as a parse error.
func WrapParse(message string, err error) error {
	return &AppError{Type: ErrorTypeParse, Message: message, Err: err}
}

// WrongVersionf creates a wrong version error with formatting.
func WrongVersionf(format string, args ...any) error {
	return &AppError{Type: ErrorTypeWrongVersion, Message: fmt.Sprintf(format, args...)}
}

// CorruptSavef creates a corrupt save error with formatting.
func CorruptSavef(format string, args ...any) error {
	return &AppError{Type: ErrorTypeCorruptSave, Message: fmt.Sprintf(format, args...)}
}

// WrapCorruptSave wraps err as a corrupt save error.
func WrapCorruptSave(message string, err error) error {
	return &AppError{Type: ErrorTypeCorruptSave, Message: message, Err: err}
}

// NotFoundf creates a not found error with formatting.
func NotFoundf(format string, args ...any) error {
	return &AppError{Type: ErrorTypeNotFound, Message: fmt.Sprintf(format, args...)}
}

// WrapInternal wraps err as an internal error.
func WrapInternal(message string, err error) error {
	return &AppError{Type: ErrorTypeInternal, Message: message, Err: err}
}

// GetType returns the type of the first AppError in err's chain,
// or ErrorTypeInternal when there is none.
func GetType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// Is reports whether err carries an AppError of type t.
func Is(err error, t ErrorType) bool {
	if err == nil {
		return false
	}
	return GetType(err) == t
}

// Refusable reports whether a save load failed in a way the host must refuse
// rather than fall back to a fresh galaxy.
func Refusable(err error) bool {
	t := GetType(err)
	return t == ErrorTypeWrongVersion || t == ErrorTypeCorruptSave
}
