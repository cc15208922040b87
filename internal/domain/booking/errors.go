package booking

import "errors"

// ValidationError marks a request that can never succeed as submitted.
type ValidationError struct {
	Field string
	msg   string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	return e.msg
}

// Invalid builds a ValidationError for field.
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, msg: msg}
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
