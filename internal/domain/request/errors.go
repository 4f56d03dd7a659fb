package request

import "errors"

// ValidationError reports a caller-input precondition failure. It maps to a
// 400 at the API boundary and is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func MissingField(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "is required"}
}

// IsValidation reports whether err (anywhere in its chain) is caller fault.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	ErrEmptyUpdate   = &ValidationError{Reason: "no updatable fields"}
	ErrInvalidStatus = &ValidationError{Field: "status", Reason: "must be Pending, Rejected or Implemented"}
)
