package availability

import (
	"context"

	"tinyhome/internal/app/dto"
	"tinyhome/internal/app/queries"
	bookingsvc "tinyhome/internal/app/services/booking"
)

const (
	getAvailabilityKey = "availability.list"
	getCalendarKey     = "availability.calendar"
)

type Reader interface {
	Availability(ctx context.Context) (bookingsvc.AvailabilityResult, error)
	Calendar(ctx context.Context) (bookingsvc.CalendarResult, error)
}

type GetAvailabilityQuery struct{}

func (GetAvailabilityQuery) Key() string { return getAvailabilityKey }

type GetAvailabilityHandler struct {
	Reader Reader
}

func (h *GetAvailabilityHandler) Handle(ctx context.Context, _ GetAvailabilityQuery) (dto.Availability, error) {
	res, err := h.Reader.Availability(ctx)
	if err != nil {
		return dto.Availability{}, err
	}
	source := "remote"
	if res.FromCache {
		source = "cache"
	}
	return dto.Availability{Source: source, Events: dto.MapEvents(res.Events)}, nil
}

type GetCalendarQuery struct{}

func (GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	Reader Reader
}

func (h *GetCalendarHandler) Handle(ctx context.Context, _ GetCalendarQuery) (dto.CalendarView, error) {
	res, err := h.Reader.Calendar(ctx)
	if err != nil {
		return dto.CalendarView{}, err
	}
	return dto.CalendarView{
		Today:       res.Today.String(),
		Horizon:     res.Horizon.String(),
		BookedDays:  dto.MapDays(res.Index.BookedDays()),
		ArrivalDays: dto.MapDays(res.Index.ArrivalDays()),
	}, nil
}

// Register wires both availability queries onto bus.
func Register(bus *queries.InMemoryBus, reader Reader) {
	queries.RegisterHandler[GetAvailabilityQuery, dto.Availability](bus, getAvailabilityKey, &GetAvailabilityHandler{Reader: reader})
	queries.RegisterHandler[GetCalendarQuery, dto.CalendarView](bus, getCalendarKey, &GetCalendarHandler{Reader: reader})
}

var (
	_ queries.Handler[GetAvailabilityQuery, dto.Availability] = (*GetAvailabilityHandler)(nil)
	_ queries.Handler[GetCalendarQuery, dto.CalendarView]     = (*GetCalendarHandler)(nil)
)
