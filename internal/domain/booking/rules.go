package booking

import (
	"time"

	"tinyhome/internal/domain/shared/daterange"
)

// SundayMinNights is the minimum stay for a Sunday arrival.
const SundayMinNights = 2

// ValidateStay enforces the stay rules that live outside the availability index.
// today is the current calendar day of the house.
func ValidateStay(r daterange.Range, today daterange.Day) error {
	if !r.Start.Valid() || !r.End.Valid() {
		return Invalid("range", "dates must be formatted as YYYY-MM-DD")
	}
	nights := r.Nights()
	if nights < 1 {
		return Invalid("range", "stay must be at least one night")
	}
	if today != "" && r.Start.Before(today) {
		return Invalid("range", "check-in date is in the past")
	}
	if r.Start.Weekday() == time.Sunday && nights < SundayMinNights {
		return Invalid("range", "a Sunday arrival requires at least 2 nights")
	}
	return nil
}
