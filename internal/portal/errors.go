package portal

import "github.com/pkg/errors"

// ErrNotFound is the cause of every lookup failure; wrapped errors name
// what was missing.
var ErrNotFound = errors.New("not found")

// IsNotFound reports whether err was caused by a missing record.
func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}

// FieldError is used to indicate an error with a specific request field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError reports invalid input, optionally per field.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// AsValidationError returns the *ValidationError behind err, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	ve, ok := errors.Cause(err).(*ValidationError)
	return ve, ok
}
