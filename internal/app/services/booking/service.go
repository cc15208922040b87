package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"tinyhome/internal/app/outbox"
	"tinyhome/internal/app/policies"
	"tinyhome/internal/domain/availability"
	domainbooking "tinyhome/internal/domain/booking"
	"tinyhome/internal/domain/pricing"
	"tinyhome/internal/domain/reservation"
	"tinyhome/internal/domain/shared/daterange"
	"tinyhome/internal/domain/shared/money"
)

// Service merges the remote feed with local reservations and runs booking completions.
// Concurrent completions for overlapping stays are not serialized: both can pass the
// availability check before either is persisted.
type Service struct {
	Cache        policies.FeedCache
	Reservations reservation.Store
	Payments     policies.PaymentVerifier
	Notifier     policies.Notifier
	Pricing      *pricing.Engine
	Outbox       outbox.Outbox
	Encoder      outbox.EventEncoder
	Location     *time.Location
	OwnerEmail   string
	// HorizonDays bounds how far ahead stays can end and how far events are enumerated.
	HorizonDays int
	Now         func() time.Time
	Logger      *slog.Logger
}

type AvailabilityResult struct {
	FromCache bool
	Events    []availability.Event
}

type CalendarResult struct {
	Today   daterange.Day
	Horizon daterange.Day
	Index   *availability.Index
}

// CompleteRequest is a booking completion as submitted by the client after checkout.
type CompleteRequest struct {
	OrderReference string
	Guest          reservation.Guest
	// Range holds the raw start and end instants, e.g. "2025-12-15T23:00:00.000Z".
	Range []string
	// Nights and FinalPrice are what the client displayed; zero/empty when unknown.
	Nights     int
	FinalPrice string
}

type CompleteResult struct {
	Reservation *reservation.Reservation
	Duplicate   bool
	Message     string
}

func (s *Service) Availability(ctx context.Context) (AvailabilityResult, error) {
	if err := s.ensureReads(); err != nil {
		return AvailabilityResult{}, err
	}
	feed, fromCache, err := s.Cache.Get(ctx, s.now())
	if err != nil {
		return AvailabilityResult{}, asFetchError(err)
	}
	local, err := s.Reservations.AsEvents(ctx, s.location())
	if err != nil {
		return AvailabilityResult{}, err
	}
	return AvailabilityResult{FromCache: fromCache, Events: availability.Merge(feed, local)}, nil
}

func (s *Service) Calendar(ctx context.Context) (CalendarResult, error) {
	res, err := s.Availability(ctx)
	if err != nil {
		return CalendarResult{}, err
	}
	today, horizon := s.window()
	idx := availability.Build(res.Events, s.location(), availability.WithHorizon(horizon))
	if n := idx.Dropped(); n > 0 {
		s.logger().WarnContext(ctx, "calendar events ignored", "count", n, "reason", "end before start")
	}
	return CalendarResult{Today: today, Horizon: horizon, Index: idx}, nil
}

// Quote prices [from, to). It does not check availability.
func (s *Service) Quote(ctx context.Context, from, to daterange.Day) (pricing.Quote, error) {
	if s.Pricing == nil {
		return pricing.Quote{}, ErrNotConfigured
	}
	r := daterange.Range{Start: from, End: to}
	if err := r.Validate(); err != nil {
		return pricing.Quote{}, domainbooking.Invalid("range", err.Error())
	}
	return s.Pricing.ComputeStay(from, to), nil
}

func (s *Service) Complete(ctx context.Context, req CompleteRequest) (*CompleteResult, error) {
	if err := s.ensureWrites(); err != nil {
		return nil, err
	}
	logger := s.logger().With("order_reference", req.OrderReference)
	attempt := domainbooking.NewAttempt(req.OrderReference, s.now())
	logger.InfoContext(ctx, "booking attempt", "state", attempt.State)

	fail := func(err error) (*CompleteResult, error) {
		if !attempt.Persisted() {
			_ = attempt.To(domainbooking.StateFailed, s.now())
		}
		logger.WarnContext(ctx, "booking attempt failed", "state", attempt.State, "error", err)
		return nil, err
	}

	stay, err := s.validate(req)
	if err != nil {
		return fail(err)
	}

	existing, err := s.Reservations.ByOrderID(ctx, req.OrderReference)
	switch {
	case err == nil:
		logger.InfoContext(ctx, "order already recorded", "range", existing.Range)
		return &CompleteResult{Reservation: existing, Duplicate: true, Message: MessageDuplicate}, nil
	case !errors.Is(err, reservation.ErrNotFound):
		return fail(err)
	}

	// checked before the processor is called so a conflicting stay is never charged
	if err := s.ensureFree(ctx, stay, false); err != nil {
		return fail(err)
	}

	if err := s.transition(ctx, logger, attempt, domainbooking.StatePaymentVerifying); err != nil {
		return fail(err)
	}
	order, err := s.Payments.GetOrder(ctx, req.OrderReference)
	if err != nil {
		return fail(asVerifierError(err))
	}
	status := reservation.StatusFromProcessor(order.Status)
	if status != reservation.PaymentCompleted {
		_ = s.transition(ctx, logger, attempt, domainbooking.StatePaymentRejected)
		return nil, fmt.Errorf("%w: status %q", ErrPaymentNotCompleted, order.Status)
	}

	if err := s.ensureFree(ctx, stay, true); err != nil {
		// the guest has been charged at this point
		logger.ErrorContext(ctx, "paid stay not recorded, refund required", "range", stay, "error", err)
		return fail(err)
	}

	price := s.finalPrice(ctx, logger, req, stay)
	res, err := reservation.New(reservation.CreateParams{
		OrderID:          req.OrderReference,
		Guest:            normalizeGuest(req.Guest),
		Range:            stay,
		FinalPrice:       price,
		PaymentStatus:    status,
		Payer:            order.Payer,
		PaymentCreatedAt: order.CreateTime,
		CreatedAt:        s.now(),
	})
	if err != nil {
		return fail(domainbooking.Invalid("range", err.Error()))
	}
	if err := s.Reservations.Append(ctx, res); err != nil {
		logger.ErrorContext(ctx, "reservation not persisted after payment", "error", err)
		return fail(err)
	}
	_ = s.transition(ctx, logger, attempt, domainbooking.StatePersisted)

	if err := s.Cache.Invalidate(ctx); err != nil {
		logger.WarnContext(ctx, "calendar cache not invalidated", "error", err)
	}
	if err := outbox.RecordDomainEvents(ctx, s.Outbox, s.Encoder, res.Drain()); err != nil {
		logger.WarnContext(ctx, "reservation event not recorded", "error", err)
	}

	_ = s.transition(ctx, logger, attempt, domainbooking.StateNotifyAttempted)
	message := s.notify(ctx, logger, res)
	_ = s.transition(ctx, logger, attempt, domainbooking.StateDone)

	return &CompleteResult{Reservation: res, Message: message}, nil
}

func (s *Service) validate(req CompleteRequest) (daterange.Range, error) {
	if strings.TrimSpace(req.OrderReference) == "" {
		return daterange.Range{}, domainbooking.Invalid("orderReference", "order reference is required")
	}
	guest := normalizeGuest(req.Guest)
	required := []struct{ field, value string }{
		{"name", guest.Name},
		{"surname", guest.Surname},
		{"phone", guest.Phone},
		{"email", guest.Email},
	}
	for _, r := range required {
		if r.value == "" {
			return daterange.Range{}, domainbooking.Invalid(r.field, r.field+" is required")
		}
	}
	if _, err := mail.ParseAddress(guest.Email); err != nil {
		return daterange.Range{}, domainbooking.Invalid("email", "email address is invalid")
	}
	if len(req.Range) != 2 {
		return daterange.Range{}, domainbooking.Invalid("range", "range must contain a start and an end")
	}
	stay, err := ProjectRange(req.Range[0], req.Range[1], s.location())
	if err != nil {
		return daterange.Range{}, err
	}
	today, horizon := s.window()
	if err := domainbooking.ValidateStay(stay, today); err != nil {
		return daterange.Range{}, err
	}
	if s.HorizonDays > 0 && stay.End.After(horizon) {
		return daterange.Range{}, domainbooking.Invalid("range", "stay ends beyond the booking horizon")
	}
	return stay, nil
}

// ProjectRange turns the raw instants into calendar days. The start is projected onto the
// local day in loc, the end keeps the date part of its UTC string. Both conversions are
// deliberate: a local arrival at midnight is 23:00Z the previous day in UTC+1.
func ProjectRange(startRaw, endRaw string, loc *time.Location) (daterange.Range, error) {
	start, err := parseInstant(strings.TrimSpace(startRaw), loc)
	if err != nil {
		return daterange.Range{}, domainbooking.Invalid("range", "start is not a valid date")
	}
	endRaw = strings.TrimSpace(endRaw)
	if len(endRaw) < len(daterange.Layout) {
		return daterange.Range{}, domainbooking.Invalid("range", "end is not a valid date")
	}
	end, err := daterange.ParseDay(endRaw[:len(daterange.Layout)])
	if err != nil {
		return daterange.Range{}, domainbooking.Invalid("range", "end is not a valid date")
	}
	return daterange.Range{Start: daterange.DayOf(start, loc), End: end}, nil
}

func parseInstant(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(daterange.Layout, raw, loc)
}

func (s *Service) ensureFree(ctx context.Context, stay daterange.Range, afterPayment bool) error {
	res, err := s.Availability(ctx)
	if err != nil {
		return err
	}
	_, horizon := s.window()
	if stay.End.After(horizon) {
		horizon = stay.End
	}
	idx := availability.Build(res.Events, s.location(), availability.WithHorizon(horizon))
	if day, conflict := idx.FirstConflict(stay.Start, stay.End); conflict {
		return &ConflictError{Range: stay, Day: day, AfterPayment: afterPayment}
	}
	return nil
}

func (s *Service) finalPrice(ctx context.Context, logger *slog.Logger, req CompleteRequest, stay daterange.Range) money.Money {
	quote := s.Pricing.ComputeStay(stay.Start, stay.End)
	if req.Nights != 0 && req.Nights != quote.Nights {
		logger.WarnContext(ctx, "submitted nights differ from range", "submitted", req.Nights, "computed", quote.Nights)
	}
	if strings.TrimSpace(req.FinalPrice) == "" {
		return quote.FinalPrice
	}
	submitted, err := money.Parse(req.FinalPrice, quote.FinalPrice.Currency)
	if err != nil {
		logger.WarnContext(ctx, "submitted price unreadable, using quote", "submitted", req.FinalPrice, "error", err)
		return quote.FinalPrice
	}
	submitted = submitted.Round2()
	if !submitted.Equal(quote.FinalPrice) {
		logger.WarnContext(ctx, "submitted price differs from quote", "submitted", submitted.String(), "quoted", quote.FinalPrice.String())
	}
	// the submitted amount is what the processor charged
	return submitted
}

// notify sends the owner and guest confirmations independently and summarizes the outcome.
func (s *Service) notify(ctx context.Context, logger *slog.Logger, res *reservation.Reservation) string {
	if s.Notifier == nil {
		logger.WarnContext(ctx, "confirmation emails skipped", "reason", "notifier not configured")
		return MessageNotifyDisabled
	}
	sent, disabled, failed := 0, 0, 0
	deliver := func(msg policies.Message, renderErr error) {
		if renderErr != nil {
			failed++
			logger.ErrorContext(ctx, "confirmation email not rendered", "to", msg.To, "error", renderErr)
			return
		}
		err := s.Notifier.Send(ctx, msg)
		switch {
		case err == nil:
			sent++
			logger.InfoContext(ctx, "confirmation email sent", "to", msg.To)
		case errors.Is(err, policies.ErrNotifierDisabled):
			disabled++
		default:
			failed++
			logger.ErrorContext(ctx, "confirmation email failed", "error", &policies.NotifyError{To: msg.To, Err: err})
		}
	}
	if s.OwnerEmail == "" {
		logger.WarnContext(ctx, "owner email skipped", "reason", "owner address not configured")
	} else {
		deliver(ownerMessage(s.OwnerEmail, res))
	}
	deliver(guestMessage(res))

	switch {
	case failed > 0:
		return MessageNotifyFailed
	case sent == 0 && disabled > 0:
		logger.WarnContext(ctx, "confirmation emails skipped", "reason", "notifier not configured")
		return MessageNotifyDisabled
	default:
		return MessageNotified
	}
}

func (s *Service) transition(ctx context.Context, logger *slog.Logger, a *domainbooking.Attempt, next domainbooking.State) error {
	if err := a.To(next, s.now()); err != nil {
		logger.ErrorContext(ctx, "booking transition rejected", "from", a.State, "to", next)
		return err
	}
	logger.InfoContext(ctx, "booking attempt", "state", a.State)
	return nil
}

func (s *Service) window() (today, horizon daterange.Day) {
	today = daterange.DayOf(s.now(), s.location())
	days := s.HorizonDays
	if days <= 0 {
		days = 730
	}
	return today, today.AddDays(days)
}

func (s *Service) ensureReads() error {
	if s.Cache == nil || s.Reservations == nil {
		return ErrNotConfigured
	}
	return nil
}

func (s *Service) ensureWrites() error {
	if err := s.ensureReads(); err != nil {
		return err
	}
	if s.Payments == nil || s.Pricing == nil {
		return ErrNotConfigured
	}
	return nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func normalizeGuest(g reservation.Guest) reservation.Guest {
	return reservation.Guest{
		Name:    strings.TrimSpace(g.Name),
		Surname: strings.TrimSpace(g.Surname),
		Phone:   strings.TrimSpace(g.Phone),
		Email:   strings.TrimSpace(g.Email),
	}
}

func asFetchError(err error) error {
	var fErr *policies.FetchError
	if errors.As(err, &fErr) {
		return err
	}
	return &policies.FetchError{Op: "get", Err: err}
}

func asVerifierError(err error) error {
	var vErr *policies.VerifierError
	if errors.As(err, &vErr) {
		return err
	}
	return &policies.VerifierError{Err: err}
}
