package core

import "github.com/pkg/errors"

// FieldError ties an error message to the struct field that caused it.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries per-field messages so the API layer can render a
// field -> message map instead of a single opaque string.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown marks an error the process cannot recover from, such as a lost
// database connection. The API error handler stops the server when it sees one.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

// IsShutdown reports whether err, at its cause, is a shutdown error.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
