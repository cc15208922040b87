package availability

import (
	"sort"
	"time"
)

// Source tags where an event came from.
type Source string

const (
	SourceFeed        Source = "feed"
	SourceReservation Source = "reservation"
)

// Event is a calendar occupation, either from the remote feed or projected from a local reservation.
type Event struct {
	UID     string    `json:"uid,omitempty"`
	Summary string    `json:"summary,omitempty"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	AllDay  bool      `json:"allDay"`
	Source  Source    `json:"source,omitempty"`
}

// Valid reports whether the event can block anything.
func (e Event) Valid() bool {
	return !e.Start.IsZero() && !e.End.IsZero() && !e.End.Before(e.Start)
}

// Merge concatenates feed and reservation events and sorts them by start ascending.
// Ties keep their input order, feed first.
func Merge(groups ...[]Event) []Event {
	total := 0
	for _, g := range groups {
		total += len(g)
	}
	out := make([]Event, 0, total)
	for _, g := range groups {
		out = append(out, g...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
