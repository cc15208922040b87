package memory

import (
	"context"
	"sync"
	"time"

	"tinyhome/internal/domain/availability"
	"tinyhome/internal/domain/reservation"
)

// ReservationStore keeps confirmed reservations for the lifetime of the process.
type ReservationStore struct {
	mu    sync.RWMutex
	items []*reservation.Reservation
}

func NewReservationStore() *ReservationStore {
	return &ReservationStore{}
}

// Append adds r. Order references are not checked for uniqueness here.
func (s *ReservationStore) Append(ctx context.Context, r *reservation.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, r)
	return nil
}

func (s *ReservationStore) List(ctx context.Context) ([]*reservation.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*reservation.Reservation, len(s.items))
	copy(out, s.items)
	return out, nil
}

// ByOrderID returns the first reservation recorded for orderID.
func (s *ReservationStore) ByOrderID(ctx context.Context, orderID string) (*reservation.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.items {
		if r.OrderID == orderID {
			return r, nil
		}
	}
	return nil, reservation.ErrNotFound
}

func (s *ReservationStore) AsEvents(ctx context.Context, loc *time.Location) ([]availability.Event, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return reservation.ProjectEvents(items, loc), nil
}

var _ reservation.Store = (*ReservationStore)(nil)
