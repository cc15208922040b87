package booking

import (
	"errors"
	"fmt"

	"tinyhome/internal/domain/shared/daterange"
)

var (
	ErrPaymentNotCompleted = errors.New("booking: payment not completed")
	ErrNotConfigured       = errors.New("booking: service missing dependencies")
)

// ConflictError means the requested stay overlaps an already booked night.
type ConflictError struct {
	Range daterange.Range
	Day   daterange.Day
	// AfterPayment is set when the overlap appeared while the payment was being verified.
	AfterPayment bool
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking: %s..%s overlaps booked night %s", e.Range.Start, e.Range.End, e.Day)
}

func IsConflict(err error) bool {
	var cErr *ConflictError
	return errors.As(err, &cErr)
}
