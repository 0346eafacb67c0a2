package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	// Catalog page structure
	ErrorTypeMissingLabel     ErrorType = "missing_label"
	ErrorTypeMissingHref      ErrorType = "missing_href"
	ErrorTypeInvalidHref      ErrorType = "invalid_href"
	ErrorTypeInvalidTitle     ErrorType = "invalid_title"
	ErrorTypeMissingAssetID   ErrorType = "missing_asset_id"
	ErrorTypeEmptyCategory    ErrorType = "empty_category"
	ErrorTypeTooFewCategories ErrorType = "too_few_categories"

	// Asset content
	ErrorTypeNotAnImage ErrorType = "not_an_image"

	// Local filesystem
	ErrorTypeFilesystem ErrorType = "filesystem"

	// Transport
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeHTTPStatus ErrorType = "http_status"

	ErrorTypeUnknown ErrorType = "unknown"
)

// Exit codes reported by the CLI for each error class
const (
	ExitCodeGeneric    = 1
	ExitCodeStructural = 3
	ExitCodeContent    = 4
	ExitCodeFilesystem = 5
	ExitCodeTransport  = 6
)

// Error represents a walldl error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error: %s", e.Type, e.Message)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a typed error around a cause
func Wrap(t ErrorType, err error, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...), Err: err}
}

// TypeOf returns the type of the first *Error in err's chain, or
// ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err carries the given error type
func Is(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// IsStructural reports whether the error means the catalog page no longer
// has the expected layout.
func IsStructural(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeMissingLabel, ErrorTypeMissingHref, ErrorTypeInvalidHref,
		ErrorTypeInvalidTitle, ErrorTypeMissingAssetID, ErrorTypeEmptyCategory,
		ErrorTypeTooFewCategories:
		return true
	default:
		return false
	}
}

// ExitCode maps an error to the process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if IsStructural(err) {
		return ExitCodeStructural
	}
	switch TypeOf(err) {
	case ErrorTypeNotAnImage:
		return ExitCodeContent
	case ErrorTypeFilesystem:
		return ExitCodeFilesystem
	case ErrorTypeNetwork, ErrorTypeHTTPStatus:
		return ExitCodeTransport
	default:
		return ExitCodeGeneric
	}
}
