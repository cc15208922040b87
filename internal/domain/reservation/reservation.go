package reservation

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"tinyhome/internal/domain/availability"
	"tinyhome/internal/domain/shared/daterange"
	"tinyhome/internal/domain/shared/events"
	"tinyhome/internal/domain/shared/money"
)

var (
	ErrNotFound       = errors.New("reservation: not found")
	ErrInvalidNights  = errors.New("reservation: nights must be at least 1")
	ErrInvalidRange   = errors.New("reservation: date range is invalid")
	ErrMissingOrderID = errors.New("reservation: order reference required")
)

type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentOther     PaymentStatus = "OTHER"
)

// StatusFromProcessor maps a processor status string onto PaymentStatus.
func StatusFromProcessor(status string) PaymentStatus {
	if strings.EqualFold(strings.TrimSpace(status), string(PaymentCompleted)) {
		return PaymentCompleted
	}
	return PaymentOther
}

type Guest struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

func (g Guest) FullName() string {
	return strings.TrimSpace(g.Name + " " + g.Surname)
}

// Reservation is a paid stay. It is created once, at payment completion, and never mutated afterwards.
type Reservation struct {
	OrderID          string          `json:"orderId"`
	Guest            Guest           `json:"guest"`
	Range            daterange.Range `json:"range"`
	Nights           int             `json:"nights"`
	FinalPrice       money.Money     `json:"finalPrice"`
	PaymentStatus    PaymentStatus   `json:"paymentStatus"`
	Payer            json.RawMessage `json:"payer,omitempty"`
	PaymentCreatedAt time.Time       `json:"paymentCreatedAt"`
	CreatedAt        time.Time       `json:"createdAt"`

	events.EventRecorder `json:"-"`
}

type CreateParams struct {
	OrderID          string
	Guest            Guest
	Range            daterange.Range
	FinalPrice       money.Money
	PaymentStatus    PaymentStatus
	Payer            json.RawMessage
	PaymentCreatedAt time.Time
	CreatedAt        time.Time
}

func New(params CreateParams) (*Reservation, error) {
	if strings.TrimSpace(params.OrderID) == "" {
		return nil, ErrMissingOrderID
	}
	if err := params.Range.Validate(); err != nil {
		return nil, ErrInvalidRange
	}
	nights := params.Range.Nights()
	if nights < 1 {
		return nil, ErrInvalidNights
	}
	now := params.CreatedAt.UTC()
	paid := params.PaymentCreatedAt.UTC()
	if paid.IsZero() {
		paid = now
	}
	r := &Reservation{
		OrderID:          params.OrderID,
		Guest:            params.Guest,
		Range:            params.Range,
		Nights:           nights,
		FinalPrice:       params.FinalPrice,
		PaymentStatus:    params.PaymentStatus,
		Payer:            append(json.RawMessage(nil), params.Payer...),
		PaymentCreatedAt: paid,
		CreatedAt:        now,
	}
	r.Record(Confirmed{
		OrderID:    r.OrderID,
		Guest:      r.Guest,
		Range:      r.Range,
		Nights:     r.Nights,
		FinalPrice: r.FinalPrice,
		At:         now,
	})
	return r, nil
}

// UID is the order reference, or a content hash when none is known.
// The same reservation always yields the same UID.
func (r *Reservation) UID() string {
	if r.OrderID != "" {
		return r.OrderID
	}
	payload, _ := json.Marshal(struct {
		Guest  Guest           `json:"guest"`
		Range  daterange.Range `json:"range"`
		Nights int             `json:"nights"`
		Price  string          `json:"price"`
		At     time.Time       `json:"createdAt"`
	}{r.Guest, r.Range, r.Nights, r.FinalPrice.String(), r.CreatedAt})
	sum := sha1.Sum(payload)
	return "res-" + hex.EncodeToString(sum[:])[:8]
}

// Event projects the reservation as an all-day calendar event at local midnight in loc.
func (r *Reservation) Event(loc *time.Location) availability.Event {
	return availability.Event{
		UID:     r.UID(),
		Summary: "Reservation (paid) - " + r.Guest.FullName(),
		Start:   r.Range.Start.In(loc),
		End:     r.Range.End.In(loc),
		AllDay:  true,
		Source:  availability.SourceReservation,
	}
}

// ProjectEvents maps reservations onto calendar events, preserving order.
func ProjectEvents(rs []*Reservation, loc *time.Location) []availability.Event {
	out := make([]availability.Event, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Event(loc))
	}
	return out
}

// Store is an append-only collection of reservations. It does not enforce uniqueness of order references.
type Store interface {
	Append(ctx context.Context, r *Reservation) error
	List(ctx context.Context) ([]*Reservation, error)
	ByOrderID(ctx context.Context, orderID string) (*Reservation, error)
	AsEvents(ctx context.Context, loc *time.Location) ([]availability.Event, error)
}
