package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinyhome/internal/app/policies"
	"tinyhome/internal/domain/availability"
)

var t0 = time.Date(2025, 11, 1, 10, 0, 0, 0, time.UTC)

type countingSource struct {
	calls  atomic.Int32
	err    error
	events []availability.Event
	gate   chan struct{}
}

func (s *countingSource) Fetch(context.Context) ([]availability.Event, error) {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.events, nil
}

func feedEvents() []availability.Event {
	return []availability.Event{{
		UID:    "a@feed",
		Start:  time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2025, 12, 3, 0, 0, 0, 0, time.UTC),
		AllDay: true,
		Source: availability.SourceFeed,
	}}
}

func TestCalendar_FetchesOnceWithinTTL(t *testing.T) {
	src := &countingSource{events: feedEvents()}
	c := New(src, nil, 15*time.Minute, nil)

	first, fromCache, err := c.Get(context.Background(), t0)
	require.NoError(t, err)
	assert.False(t, fromCache)
	second, fromCache, err := c.Get(context.Background(), t0.Add(14*time.Minute))
	require.NoError(t, err)
	assert.True(t, fromCache)

	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, first, second)

	_, fromCache, err = c.Get(context.Background(), t0.Add(15*time.Minute))
	require.NoError(t, err)
	assert.False(t, fromCache, "ttl elapsed")
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCalendar_InvalidateForcesOneFetch(t *testing.T) {
	src := &countingSource{events: feedEvents()}
	c := New(src, nil, time.Hour, nil)
	ctx := context.Background()

	_, _, err := c.Get(ctx, t0)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx))

	_, fromCache, err := c.Get(ctx, t0.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, fromCache)
	_, fromCache, err = c.Get(ctx, t0.Add(2*time.Second))
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCalendar_FetchErrorIsNotMaskedByStaleData(t *testing.T) {
	src := &countingSource{events: feedEvents()}
	c := New(src, nil, time.Minute, nil)
	ctx := context.Background()
	_, _, err := c.Get(ctx, t0)
	require.NoError(t, err)

	src.err = &policies.FetchError{Op: "fetch", Err: errors.New("503")}
	events, _, err := c.Get(ctx, t0.Add(time.Hour))

	var fe *policies.FetchError
	assert.ErrorAs(t, err, &fe)
	assert.Nil(t, events)
}

func TestCalendar_EmptyFeedIsCached(t *testing.T) {
	src := &countingSource{}
	c := New(src, nil, time.Minute, nil)

	events, _, err := c.Get(context.Background(), t0)
	require.NoError(t, err)
	assert.NotNil(t, events)
	_, fromCache, err := c.Get(context.Background(), t0)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestCalendar_ConcurrentRefetchesAreCoalesced(t *testing.T) {
	src := &countingSource{events: feedEvents(), gate: make(chan struct{})}
	c := New(src, nil, time.Minute, nil)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.Get(context.Background(), t0)
			errs <- err
		}()
	}
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
	// give the other callers time to join the in-flight fetch
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), src.calls.Load())
}

// cancelSource blocks until gate closes or ctx is done.
type cancelSource struct {
	calls atomic.Int32
	gate  chan struct{}
}

func (s *cancelSource) Fetch(ctx context.Context) ([]availability.Event, error) {
	s.calls.Add(1)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.gate:
		return feedEvents(), nil
	}
}

func TestCalendar_CancelledCallerDoesNotFailJoinedCallers(t *testing.T) {
	src := &cancelSource{gate: make(chan struct{})}
	c := New(src, nil, time.Minute, nil)

	first, cancel := context.WithCancel(context.Background())
	defer cancel()
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := c.Get(first, t0)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		events []availability.Event
		err    error
	}
	second := make(chan result, 1)
	go func() {
		events, _, err := c.Get(context.Background(), t0)
		second <- result{events, err}
	}()
	// let the second caller join the in-flight fetch
	time.Sleep(20 * time.Millisecond)
	cancel()
	time.Sleep(10 * time.Millisecond)
	close(src.gate)

	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, feedEvents(), got.events)
	assert.NoError(t, <-firstErr)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestCalendar_CallersCannotMutateCache(t *testing.T) {
	src := &countingSource{events: feedEvents()}
	c := New(src, nil, time.Minute, nil)

	events, _, err := c.Get(context.Background(), t0)
	require.NoError(t, err)
	events[0].UID = "mutated"

	again, _, err := c.Get(context.Background(), t0)
	require.NoError(t, err)
	assert.Equal(t, "a@feed", again[0].UID)
}

func TestRedisStore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, "", time.Hour)
	ctx := context.Background()
	snap := Snapshot{FetchedAt: t0, Events: feedEvents()}
	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	mock.ExpectGet(DefaultRedisKey).RedisNil()
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	mock.ExpectSet(DefaultRedisKey, raw, time.Hour).SetVal("OK")
	require.NoError(t, store.Save(ctx, snap))

	mock.ExpectGet(DefaultRedisKey).SetVal(string(raw))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.FetchedAt.Equal(t0))
	require.Len(t, got.Events, 1)
	assert.Equal(t, "a@feed", got.Events[0].UID)

	mock.ExpectDel(DefaultRedisKey).SetVal(1)
	require.NoError(t, store.Expire(ctx))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendar_RedisOutageFallsBackToSource(t *testing.T) {
	db, mock := redismock.NewClientMock()
	src := &countingSource{events: feedEvents()}
	c := New(src, NewRedisStore(db, "k", 0), time.Minute, nil)

	mock.ExpectGet("k").SetErr(errors.New("connection refused"))
	mock.Regexp().ExpectSet("k", `.*`, 0).SetErr(errors.New("connection refused"))

	events, fromCache, err := c.Get(context.Background(), t0)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Len(t, events, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
