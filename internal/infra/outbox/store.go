package outbox

import (
	"context"
	"time"

	appoutbox "tinyhome/internal/app/outbox"
)

const (
	StateNew     = "NEW"
	StateClaimed = "CLAIMED"
	StateSent    = "SENT"
	StateFailed  = "FAILED"
)

// Record is an outbox entry with its delivery bookkeeping.
type Record struct {
	appoutbox.EventRecord
	State       string
	Attempts    int
	NextAttempt time.Time
	ClaimedBy   string
	ClaimedAt   time.Time
	SentAt      time.Time
	LastError   string
}

// Store is the dispatch side of an outbox.
type Store interface {
	// Claim returns the next due record, or nil when nothing is due.
	Claim(ctx context.Context, workerID string, now time.Time) (*Record, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

// Waker is implemented by stores that can signal new records between polls.
type Waker interface {
	Wake() <-chan struct{}
}
