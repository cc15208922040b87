package reservation

import (
	"time"

	"tinyhome/internal/domain/shared/daterange"
	"tinyhome/internal/domain/shared/money"
)

const EventConfirmed = "reservation.confirmed"

type Confirmed struct {
	OrderID    string          `json:"orderId"`
	Guest      Guest           `json:"guest"`
	Range      daterange.Range `json:"range"`
	Nights     int             `json:"nights"`
	FinalPrice money.Money     `json:"finalPrice"`
	At         time.Time       `json:"confirmedAt"`
}

func (e Confirmed) EventName() string     { return EventConfirmed }
func (e Confirmed) AggregateID() string   { return e.OrderID }
func (e Confirmed) OccurredAt() time.Time { return e.At }
