package booking

import (
	"context"

	"tinyhome/internal/app/commands"
	"tinyhome/internal/app/dto"
	"tinyhome/internal/app/middleware"
	bookingsvc "tinyhome/internal/app/services/booking"
	"tinyhome/internal/domain/reservation"
)

const completeBookingKey = "booking.complete"

type Completer interface {
	Complete(ctx context.Context, req bookingsvc.CompleteRequest) (*bookingsvc.CompleteResult, error)
}

// CompleteBookingCommand records a paid stay. Range holds the raw start and end instants.
type CompleteBookingCommand struct {
	OrderReference string        `json:"orderReference" validate:"required"`
	Guest          dto.GuestInfo `json:"guestInfo"`
	Range          []string      `json:"range" validate:"len=2,dive,required"`
	Nights         int           `json:"nights" validate:"gte=0"`
	FinalPrice     string        `json:"finalPrice" validate:"omitempty,numeric"`
}

func (c CompleteBookingCommand) Key() string { return completeBookingKey }

func (c CompleteBookingCommand) IdempotencyKey() string { return c.OrderReference }

func (c CompleteBookingCommand) ResultPrototype() any { return &dto.BookingResult{} }

type CompleteBookingHandler struct {
	Service Completer
}

func (h *CompleteBookingHandler) Handle(ctx context.Context, cmd CompleteBookingCommand) (*dto.BookingResult, error) {
	res, err := h.Service.Complete(ctx, bookingsvc.CompleteRequest{
		OrderReference: cmd.OrderReference,
		Guest: reservation.Guest{
			Name:    cmd.Guest.Name,
			Surname: cmd.Guest.Surname,
			Phone:   cmd.Guest.Phone,
			Email:   cmd.Guest.Email,
		},
		Range:      cmd.Range,
		Nights:     cmd.Nights,
		FinalPrice: cmd.FinalPrice,
	})
	if err != nil {
		return nil, err
	}
	return &dto.BookingResult{
		Success:        true,
		Message:        res.Message,
		OrderReference: res.Reservation.OrderID,
		Duplicate:      res.Duplicate,
	}, nil
}

func Register(bus *commands.InMemoryBus, svc Completer) {
	commands.RegisterHandler[CompleteBookingCommand, *dto.BookingResult](bus, completeBookingKey, &CompleteBookingHandler{Service: svc})
}

var (
	_ commands.Handler[CompleteBookingCommand, *dto.BookingResult] = (*CompleteBookingHandler)(nil)
	_ middleware.IdempotentCommand                                 = CompleteBookingCommand{}
)
