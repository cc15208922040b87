package dto

import (
	"time"

	"tinyhome/internal/domain/availability"
	"tinyhome/internal/domain/shared/daterange"
)

type CalendarEvent struct {
	UID     *string   `json:"uid"`
	Summary *string   `json:"summary"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	AllDay  bool      `json:"allDay"`
	Source  string    `json:"source,omitempty"`
}

// Availability is the merged feed and reservation list, sorted by start.
type Availability struct {
	Source string          `json:"source"`
	Events []CalendarEvent `json:"events"`
}

// CalendarView is the server-side day index used by the booking calendar.
type CalendarView struct {
	Today       string   `json:"today"`
	Horizon     string   `json:"horizon"`
	BookedDays  []string `json:"bookedDays"`
	ArrivalDays []string `json:"arrivalDays"`
}

func MapEvents(evs []availability.Event) []CalendarEvent {
	out := make([]CalendarEvent, 0, len(evs))
	for _, ev := range evs {
		out = append(out, CalendarEvent{
			UID:     optional(ev.UID),
			Summary: optional(ev.Summary),
			Start:   ev.Start.UTC(),
			End:     ev.End.UTC(),
			AllDay:  ev.AllDay,
			Source:  string(ev.Source),
		})
	}
	return out
}

func MapDays(days []daterange.Day) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.String()
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
