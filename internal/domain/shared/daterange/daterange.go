package daterange

import (
	"errors"
	"iter"
	"time"
)

// Layout is the canonical calendar-day key format.
const Layout = "2006-01-02"

var (
	ErrInvalidDay   = errors.New("daterange: day must be formatted as YYYY-MM-DD")
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
)

// Day is a calendar-day key (YYYY-MM-DD) in a fixed reference calendar.
// It carries no timezone; projecting an instant into a Day is the only place a location matters.
type Day string

// DayOf projects an instant onto its calendar day in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	return Day(t.In(loc).Format(Layout))
}

// ParseDay validates and normalizes a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return "", ErrInvalidDay
	}
	return Day(t.Format(Layout)), nil
}

// MustParseDay panics on invalid input; meant for fixtures and tests.
func MustParseDay(s string) Day {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

// FromDate builds a Day from its components, normalizing overflow the way time.Date does.
func FromDate(year int, month time.Month, day int) Day {
	return Day(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(Layout))
}

func (d Day) String() string { return string(d) }

// Valid reports whether d is a well-formed calendar day.
func (d Day) Valid() bool {
	_, ok := d.date()
	return ok
}

// Time returns midnight UTC of d, or the zero time for an invalid day.
func (d Day) Time() time.Time {
	t, _ := d.date()
	return t
}

// In returns local midnight of d in loc.
func (d Day) In(loc *time.Location) time.Time {
	t, ok := d.date()
	if !ok {
		return time.Time{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func (d Day) AddDays(n int) Day {
	t, ok := d.date()
	if !ok {
		return d
	}
	return Day(t.AddDate(0, 0, n).Format(Layout))
}

func (d Day) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// MonthDay returns the year-independent part of d.
func (d Day) MonthDay() (time.Month, int) {
	t := d.Time()
	return t.Month(), t.Day()
}

func (d Day) Before(other Day) bool { return d < other }

func (d Day) After(other Day) bool { return d > other }

func (d Day) date() (time.Time, bool) {
	if len(d) != len(Layout) {
		return time.Time{}, false
	}
	t, err := time.Parse(Layout, string(d))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DaysBetween returns the night count from a to b. Zero or negative means an invalid stay.
func DaysBetween(a, b Day) int {
	ta, okA := a.date()
	tb, okB := b.date()
	if !okA || !okB {
		return 0
	}
	return int(tb.Sub(ta).Hours() / 24)
}

// Enumerate yields every day in [start, endExclusive). The sequence is lazy and may be ranged over repeatedly.
func Enumerate(start, endExclusive Day) iter.Seq[Day] {
	return func(yield func(Day) bool) {
		from, okFrom := start.date()
		to, okTo := endExclusive.date()
		if !okFrom || !okTo {
			return
		}
		for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
			if !yield(Day(d.Format(Layout))) {
				return
			}
		}
	}
}

// Range represents a half-open interval of nights [Start, End).
type Range struct {
	Start Day `json:"start"`
	End   Day `json:"end"`
}

func New(start, end Day) (Range, error) {
	r := Range{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Parse builds a Range from two YYYY-MM-DD strings.
func Parse(start, end string) (Range, error) {
	s, err := ParseDay(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseDay(end)
	if err != nil {
		return Range{}, err
	}
	return New(s, e)
}

func (r Range) Validate() error {
	if !r.Start.Valid() || !r.End.Valid() {
		return ErrInvalidDay
	}
	if r.Nights() <= 0 {
		return ErrInvalidRange
	}
	return nil
}

func (r Range) Nights() int {
	return DaysBetween(r.Start, r.End)
}

// Days yields the nights of the range; the checkout day is excluded.
func (r Range) Days() iter.Seq[Day] {
	return Enumerate(r.Start, r.End)
}

func (r Range) Overlaps(other Range) bool {
	return r.Start < other.End && other.Start < r.End
}

func (r Range) Contains(d Day) bool {
	return d >= r.Start && d < r.End
}
