package ical

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"tinyhome/internal/app/policies"
	"tinyhome/internal/domain/availability"
)

const (
	dateLayout      = "20060102"
	dateTimeLayout  = "20060102T150405"
	defaultTimeout  = 20 * time.Second
	maxFeedBodySize = 8 << 20
)

// Source reads the channel manager's iCalendar export.
type Source struct {
	URL      string
	Client   *http.Client
	Location *time.Location
	Timeout  time.Duration
	Logger   *slog.Logger
}

func NewSource(url string, timeout time.Duration, loc *time.Location, logger *slog.Logger) *Source {
	return &Source{URL: url, Client: &http.Client{}, Location: loc, Timeout: timeout, Logger: logger}
}

func (s *Source) Fetch(ctx context.Context) ([]availability.Event, error) {
	if s == nil || s.URL == "" {
		return nil, &policies.FetchError{Op: "fetch", Err: errors.New("feed url not configured")}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, &policies.FetchError{Op: "fetch", Err: err}
	}
	req.Header.Set("Accept", "text/calendar")
	resp, err := s.client().Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			err = fmt.Errorf("timeout after %s", s.timeout())
		}
		s.logError("calendar feed request failed", err)
		return nil, &policies.FetchError{Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		s.logError("calendar feed returned error", err)
		return nil, &policies.FetchError{Op: "fetch", Err: err}
	}

	events, err := Parse(io.LimitReader(resp.Body, maxFeedBodySize), s.location())
	if err != nil {
		s.logError("calendar feed parse failed", err)
		return nil, &policies.FetchError{Op: "parse", Err: err}
	}
	return events, nil
}

// Parse converts VEVENTs into availability events. Date-only values become midnight in loc.
// Events without a usable DTSTART are skipped.
func Parse(r io.Reader, loc *time.Location) ([]availability.Event, error) {
	if loc == nil {
		loc = time.UTC
	}
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, err
	}
	out := make([]availability.Event, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		startProp := ve.GetProperty(ics.ComponentPropertyDtStart)
		if startProp == nil {
			continue
		}
		start, allDay, err := parseValue(startProp, loc)
		if err != nil {
			continue
		}
		end := start
		if endProp := ve.GetProperty(ics.ComponentPropertyDtEnd); endProp != nil {
			if parsed, _, err := parseValue(endProp, loc); err == nil {
				end = parsed
			}
		} else if allDay {
			end = start.AddDate(0, 0, 1)
		}
		out = append(out, availability.Event{
			UID:     ve.Id(),
			Summary: propertyValue(ve, ics.ComponentPropertySummary),
			Start:   start,
			End:     end,
			AllDay:  allDay,
			Source:  availability.SourceFeed,
		})
	}
	return out, nil
}

func parseValue(prop *ics.IANAProperty, loc *time.Location) (time.Time, bool, error) {
	value := strings.TrimSpace(prop.Value)
	if isDateOnly(prop, value) {
		t, err := time.ParseInLocation(dateLayout, value, loc)
		return t, true, err
	}
	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse(dateTimeLayout+"Z", value)
		return t, false, err
	}
	zone := loc
	if tzids, ok := prop.ICalParameters[string(ics.ParameterTzid)]; ok && len(tzids) > 0 {
		if named, err := time.LoadLocation(tzids[0]); err == nil {
			zone = named
		}
	}
	t, err := time.ParseInLocation(dateTimeLayout, value, zone)
	return t, false, err
}

func isDateOnly(prop *ics.IANAProperty, value string) bool {
	if kinds, ok := prop.ICalParameters[string(ics.ParameterValue)]; ok && len(kinds) > 0 {
		return strings.EqualFold(kinds[0], "DATE")
	}
	return len(value) == len(dateLayout)
}

func propertyValue(ve *ics.VEvent, prop ics.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

func (s *Source) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}

func (s *Source) timeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return defaultTimeout
}

func (s *Source) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

func (s *Source) logError(msg string, err error) {
	if s.Logger == nil {
		return
	}
	s.Logger.Error(msg, "url", s.URL, "error", err)
}

var _ policies.CalendarSource = (*Source)(nil)
