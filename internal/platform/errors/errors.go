package errors

import (
	stderrors "errors"

	"github.com/louisbranch/chronoquest/internal/platform/errors/i18n"
)

// Domain is the error domain for chronoquest errors.
const Domain = "github.com/louisbranch/chronoquest"

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs/telemetry)
	Metadata map[string]string // Additional context for templating
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata creates a domain error with metadata for i18n templating.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// LocalizedMessage renders the user-facing message for locale.
func (e *Error) LocalizedMessage(locale string) string {
	return i18n.GetCatalog(locale).Format(string(e.Code), e.Metadata)
}

// GetCode returns the code of the first *Error in err's chain, or CodeUnknown.
func GetCode(err error) Code {
	var domainErr *Error
	if stderrors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeUnknown
}

// IsCode reports whether err carries code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}
