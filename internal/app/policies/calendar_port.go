package policies

import (
	"context"
	"time"

	"tinyhome/internal/domain/availability"
)

// CalendarSource fetches the remote occupation feed.
type CalendarSource interface {
	Fetch(ctx context.Context) ([]availability.Event, error)
}

// FeedCache serves the remote feed for up to its TTL and can be forced stale.
type FeedCache interface {
	Get(ctx context.Context, now time.Time) (events []availability.Event, fromCache bool, err error)
	Invalidate(ctx context.Context) error
}

// FetchError is returned when the feed is unreachable or cannot be parsed.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	if e.Op == "" {
		return "calendar feed: " + e.Err.Error()
	}
	return "calendar feed " + e.Op + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }
