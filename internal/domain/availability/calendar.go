package availability

import (
	"sort"
	"time"

	"tinyhome/internal/domain/shared/daterange"
)

// Index is the derived occupation of the house: booked nights and distinct arrival days.
// It is rebuilt from events on every read and never stored.
type Index struct {
	booked   map[daterange.Day]struct{}
	arrivals map[daterange.Day]struct{}
	dropped  int
}

type buildOptions struct {
	horizon daterange.Day
}

type Option func(*buildOptions)

// WithHorizon clamps every event so that no night on or after horizon is enumerated.
func WithHorizon(horizon daterange.Day) Option {
	return func(o *buildOptions) {
		o.horizon = horizon
	}
}

// Build projects events onto calendar days in loc. Events with End before Start are dropped.
// Work is proportional to the number of blocked days.
func Build(events []Event, loc *time.Location, opts ...Option) *Index {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}
	idx := &Index{
		booked:   make(map[daterange.Day]struct{}),
		arrivals: make(map[daterange.Day]struct{}),
	}
	starts := make([]daterange.Day, 0, len(events))
	for _, ev := range events {
		if !ev.Valid() {
			idx.dropped++
			continue
		}
		start := daterange.DayOf(ev.Start, loc)
		end := daterange.DayOf(ev.End, loc)
		if o.horizon != "" && end.After(o.horizon) {
			end = o.horizon
		}
		starts = append(starts, start)
		for day := range daterange.Enumerate(start, end) {
			idx.booked[day] = struct{}{}
		}
	}
	// arrivals need the complete booked set, adjoining stays may come in any order
	for _, start := range starts {
		if o.horizon != "" && !start.Before(o.horizon) {
			continue
		}
		if _, mid := idx.booked[start.AddDays(-1)]; mid {
			continue
		}
		idx.arrivals[start] = struct{}{}
	}
	return idx
}

func (i *Index) IsBooked(day daterange.Day) bool {
	_, ok := i.booked[day]
	return ok
}

func (i *Index) IsArrival(day daterange.Day) bool {
	_, ok := i.arrivals[day]
	return ok
}

// IsRangeFree is true iff no night in [start, endExclusive) is booked. A zero-night range is free.
func (i *Index) IsRangeFree(start, endExclusive daterange.Day) bool {
	_, conflict := i.FirstConflict(start, endExclusive)
	return !conflict
}

// FirstConflict returns the earliest booked night in [start, endExclusive).
func (i *Index) FirstConflict(start, endExclusive daterange.Day) (daterange.Day, bool) {
	for day := range daterange.Enumerate(start, endExclusive) {
		if i.IsBooked(day) {
			return day, true
		}
	}
	return "", false
}

func (i *Index) BookedDays() []daterange.Day {
	return sortedKeys(i.booked)
}

func (i *Index) ArrivalDays() []daterange.Day {
	return sortedKeys(i.arrivals)
}

// Dropped counts events ignored because they ended before they started.
func (i *Index) Dropped() int {
	return i.dropped
}

func sortedKeys(set map[daterange.Day]struct{}) []daterange.Day {
	out := make([]daterange.Day, 0, len(set))
	for day := range set {
		out = append(out, day)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}
