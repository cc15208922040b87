package booking

import (
	"errors"
	"time"
)

var ErrInvalidTransition = errors.New("booking: invalid state transition")

type State string

const (
	StateRequested        State = "REQUESTED"
	StatePaymentVerifying State = "PAYMENT_VERIFYING"
	StatePaymentRejected  State = "PAYMENT_REJECTED"
	StatePersisted        State = "PERSISTED"
	StateNotifyAttempted  State = "NOTIFY_ATTEMPTED"
	StateDone             State = "DONE"
	StateFailed           State = "FAILED"
)

var transitions = map[State][]State{
	StateRequested:        {StatePaymentVerifying, StateFailed},
	StatePaymentVerifying: {StatePaymentRejected, StatePersisted, StateFailed},
	StatePersisted:        {StateNotifyAttempted},
	StateNotifyAttempted:  {StateDone},
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

// Transition is one step of an attempt, kept for logging.
type Transition struct {
	From State
	To   State
	At   time.Time
}

// Attempt tracks one booking completion request. Once Persisted it can only move forward,
// a failed notification never rolls the reservation back.
type Attempt struct {
	OrderReference string
	State          State
	History        []Transition
}

func NewAttempt(orderReference string, now time.Time) *Attempt {
	return &Attempt{
		OrderReference: orderReference,
		State:          StateRequested,
		History:        []Transition{{To: StateRequested, At: now.UTC()}},
	}
}

func (a *Attempt) To(next State, now time.Time) error {
	for _, allowed := range transitions[a.State] {
		if allowed == next {
			a.History = append(a.History, Transition{From: a.State, To: next, At: now.UTC()})
			a.State = next
			return nil
		}
	}
	return ErrInvalidTransition
}

// Persisted reports whether the reservation has been written.
func (a *Attempt) Persisted() bool {
	switch a.State {
	case StatePersisted, StateNotifyAttempted, StateDone:
		return true
	}
	return false
}
