package policies

import (
	"context"
	"errors"
)

// ErrNotifierDisabled is returned by notifiers that have no delivery channel configured.
var ErrNotifierDisabled = errors.New("notifier: not configured")

type Message struct {
	To      string
	Subject string
	Body    string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NotifyError is a failed delivery. It never changes a booking outcome.
type NotifyError struct {
	To  string
	Err error
}

func (e *NotifyError) Error() string {
	return "notify " + e.To + ": " + e.Err.Error()
}

func (e *NotifyError) Unwrap() error { return e.Err }
