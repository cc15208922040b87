package cache

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"tinyhome/internal/app/policies"
	"tinyhome/internal/domain/availability"
)

// Snapshot is one fetched copy of the remote feed.
type Snapshot struct {
	FetchedAt time.Time            `json:"fetchedAt"`
	Events    []availability.Event `json:"events"`
}

// Store keeps the latest snapshot. Load returns nil when nothing is stored.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	// Expire forces the next Get to refetch regardless of TTL.
	Expire(ctx context.Context) error
}

const flightKey = "feed"

// Calendar serves the remote feed for up to TTL. Concurrent refetches are coalesced into one
// call to the source. A failed fetch is returned as is; stale data is never served instead.
type Calendar struct {
	Source policies.CalendarSource
	Store  Store
	TTL    time.Duration
	Logger *slog.Logger

	group singleflight.Group
}

func New(source policies.CalendarSource, store Store, ttl time.Duration, logger *slog.Logger) *Calendar {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Calendar{Source: source, Store: store, TTL: ttl, Logger: logger}
}

func (c *Calendar) Get(ctx context.Context, now time.Time) ([]availability.Event, bool, error) {
	snap, err := c.Store.Load(ctx)
	if err != nil {
		c.log().Warn("calendar snapshot load failed", "error", err)
		snap = nil
	}
	if snap != nil && snap.Events != nil && now.Sub(snap.FetchedAt) < c.TTL {
		return cloneEvents(snap.Events), true, nil
	}
	v, err, shared := c.group.Do(flightKey, func() (any, error) {
		// joined callers must not inherit the first caller's cancellation
		fetchCtx := context.WithoutCancel(ctx)
		events, err := c.Source.Fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		if events == nil {
			events = []availability.Event{}
		}
		if err := c.Store.Save(fetchCtx, Snapshot{FetchedAt: now, Events: events}); err != nil {
			c.log().Warn("calendar snapshot save failed", "error", err)
		}
		return events, nil
	})
	if err != nil {
		return nil, false, err
	}
	if shared {
		c.log().Debug("calendar refetch coalesced")
	}
	return cloneEvents(v.([]availability.Event)), false, nil
}

func (c *Calendar) Invalidate(ctx context.Context) error {
	c.group.Forget(flightKey)
	return c.Store.Expire(ctx)
}

func (c *Calendar) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func cloneEvents(in []availability.Event) []availability.Event {
	out := make([]availability.Event, len(in))
	copy(out, in)
	return out
}

var _ policies.FeedCache = (*Calendar)(nil)
