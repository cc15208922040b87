package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	appoutbox "tinyhome/internal/app/outbox"
	infraoutbox "tinyhome/internal/infra/outbox"
)

var ErrRecordNotFound = errors.New("memory: outbox record not found")

// Outbox holds encoded events until the dispatch worker publishes them.
type Outbox struct {
	mu      sync.Mutex
	records []*infraoutbox.Record
	wake    chan struct{}
	now     func() time.Time
}

func NewOutbox() *Outbox {
	return &Outbox{wake: make(chan struct{}, 1), now: time.Now}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, &infraoutbox.Record{
		EventRecord: record,
		State:       infraoutbox.StateNew,
		NextAttempt: o.now().UTC(),
	})
	return nil
}

// Flush wakes the worker without waiting for it.
func (o *Outbox) Flush(ctx context.Context) error {
	select {
	case o.wake <- struct{}{}:
	default:
	}
	return nil
}

func (o *Outbox) Wake() <-chan struct{} {
	return o.wake
}

func (o *Outbox) Claim(ctx context.Context, workerID string, now time.Time) (*infraoutbox.Record, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, rec := range o.records {
		if rec.State != infraoutbox.StateNew && rec.State != infraoutbox.StateFailed {
			continue
		}
		if rec.NextAttempt.After(now) {
			continue
		}
		rec.State = infraoutbox.StateClaimed
		rec.ClaimedBy = workerID
		rec.ClaimedAt = now.UTC()
		claimed := *rec
		return &claimed, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string, at time.Time) error {
	return o.update(id, func(rec *infraoutbox.Record) {
		rec.State = infraoutbox.StateSent
		rec.SentAt = at.UTC()
		rec.LastError = ""
	})
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	return o.update(id, func(rec *infraoutbox.Record) {
		rec.State = infraoutbox.StateFailed
		rec.NextAttempt = next.UTC()
		rec.LastError = errMsg
		rec.Attempts++
	})
}

// Records returns a snapshot of every record and its delivery state.
func (o *Outbox) Records() []infraoutbox.Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]infraoutbox.Record, 0, len(o.records))
	for _, rec := range o.records {
		out = append(out, *rec)
	}
	return out
}

func (o *Outbox) update(id string, fn func(rec *infraoutbox.Record)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, rec := range o.records {
		if rec.ID == id {
			fn(rec)
			return nil
		}
	}
	return ErrRecordNotFound
}

var (
	_ appoutbox.Outbox  = (*Outbox)(nil)
	_ infraoutbox.Store = (*Outbox)(nil)
	_ infraoutbox.Waker = (*Outbox)(nil)
)
