package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinyhome/internal/app/commands"
	"tinyhome/internal/app/dto"
	availabilityapp "tinyhome/internal/app/handlers/availability"
	bookingapp "tinyhome/internal/app/handlers/booking"
	pricingapp "tinyhome/internal/app/handlers/pricing"
	"tinyhome/internal/app/policies"
	"tinyhome/internal/app/queries"
	bookingsvc "tinyhome/internal/app/services/booking"
	"tinyhome/internal/domain/booking"
	"tinyhome/internal/infra/config"
	"tinyhome/internal/infra/obs"
	"tinyhome/internal/infra/storage/s3"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPhotos struct {
	photos []s3.Photo
	err    error
}

func (s stubPhotos) List(context.Context) ([]s3.Photo, error) { return s.photos, s.err }

func newTestRouter(qb queries.Bus, cb commands.Bus, photos PhotoLister) *gin.Engine {
	h := Handlers{
		Availability: AvailabilityHandler{Queries: qb},
		Pricing:      PricingHandler{Queries: qb},
		Booking:      BookingHandler{Commands: cb},
	}
	if photos != nil {
		h.Gallery = GalleryHandler{Photos: photos}
	}
	cfg := config.Config{CORSOrigins: []string{"https://tinyhome.example"}}
	return NewRouter(cfg, obs.Middleware{}, obs.HealthHandlers{}, h)
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAvailability_ReturnsEvents(t *testing.T) {
	qb := queries.BusFunc(func(_ context.Context, q queries.Query) (any, error) {
		_, ok := q.(availabilityapp.GetAvailabilityQuery)
		require.True(t, ok)
		return dto.Availability{Source: "cache", Events: []dto.CalendarEvent{}}, nil
	})
	rec := do(t, newTestRouter(qb, nil, nil), http.MethodGet, "/api/availability", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "cache", body["source"])
	assert.Equal(t, []any{}, body["events"])
}

func TestAvailability_FeedFailureIs500(t *testing.T) {
	qb := queries.BusFunc(func(context.Context, queries.Query) (any, error) {
		return nil, &policies.FetchError{Op: "fetch", Err: errors.New("dial tcp: refused")}
	})
	rec := do(t, newTestRouter(qb, nil, nil), http.MethodGet, "/api/availability", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "calendar feed unavailable", decode(t, rec)["error"])
}

func TestCalendar_ReturnsDays(t *testing.T) {
	qb := queries.BusFunc(func(context.Context, queries.Query) (any, error) {
		return dto.CalendarView{Today: "2025-07-01", Horizon: "2027-07-01", BookedDays: []string{"2025-07-10"}, ArrivalDays: []string{"2025-07-10"}}, nil
	})
	rec := do(t, newTestRouter(qb, nil, nil), http.MethodGet, "/api/calendar", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "2025-07-01", body["today"])
	assert.Equal(t, []any{"2025-07-10"}, body["bookedDays"])
}

func TestQuote_PassesDays(t *testing.T) {
	qb := queries.BusFunc(func(_ context.Context, q queries.Query) (any, error) {
		quote, ok := q.(pricingapp.GetQuoteQuery)
		require.True(t, ok)
		assert.Equal(t, "2025-07-01", quote.From)
		assert.Equal(t, "2025-07-03", quote.To)
		return dto.Quote{From: quote.From, To: quote.To, Nights: 2, FinalPrice: 298, Currency: "EUR"}, nil
	})
	rec := do(t, newTestRouter(qb, nil, nil), http.MethodGet, "/api/quote?from=2025-07-01&to=%202025-07-03", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 2, body["nights"])
	assert.EqualValues(t, 298, body["finalPrice"])
}

func TestQuote_ValidationIs400(t *testing.T) {
	qb := queries.BusFunc(func(context.Context, queries.Query) (any, error) {
		return nil, booking.Invalid("from", "from must be a date formatted 2006-01-02")
	})
	rec := do(t, newTestRouter(qb, nil, nil), http.MethodGet, "/api/quote?from=x", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "from")
}

func completeBody() map[string]any {
	return map[string]any{
		"orderReference": "ORDER-1",
		"guestInfo":      map[string]any{"name": "Ada", "surname": "Lovelace", "phone": "+33600000000", "email": "ada@example.com"},
		"range":          []string{"2025-07-01T14:00:00.000Z", "2025-07-03T10:00:00.000Z"},
		"nights":         2,
		"finalPrice":     298.5,
	}
}

func TestBookingComplete_DispatchesCommand(t *testing.T) {
	var got bookingapp.CompleteBookingCommand
	cb := commands.BusFunc(func(_ context.Context, cmd commands.Command) (any, error) {
		got = cmd.(bookingapp.CompleteBookingCommand)
		return &dto.BookingResult{Success: true, Message: "Reservation recorded and emails sent", OrderReference: "ORDER-1"}, nil
	})
	rec := do(t, newTestRouter(nil, cb, nil), http.MethodPost, "/api/booking/complete", completeBody())

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Reservation recorded and emails sent", body["message"])

	assert.Equal(t, "ORDER-1", got.OrderReference)
	assert.Equal(t, "Ada", got.Guest.Name)
	assert.Equal(t, 2, got.Nights)
	assert.Equal(t, "298.5", got.FinalPrice)
	assert.Len(t, got.Range, 2)
}

func TestBookingComplete_ErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", booking.Invalid("guestInfo.email", "guestInfo.email must be a valid email address"), http.StatusBadRequest, "guestInfo.email"},
		{"payment", bookingsvc.ErrPaymentNotCompleted, http.StatusBadRequest, "payment not completed"},
		{"conflict", &bookingsvc.ConflictError{}, http.StatusConflict, "no longer available"},
		{"verifier", &policies.VerifierError{Status: 503, Err: errors.New("unavailable")}, http.StatusInternalServerError, "payment verification failed"},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cb := commands.BusFunc(func(context.Context, commands.Command) (any, error) { return nil, tc.err })
			rec := do(t, newTestRouter(nil, cb, nil), http.MethodPost, "/api/booking/complete", completeBody())

			assert.Equal(t, tc.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Contains(t, body["message"], tc.message)
		})
	}
}

func TestBookingComplete_MalformedBody(t *testing.T) {
	cb := commands.BusFunc(func(context.Context, commands.Command) (any, error) {
		t.Fatal("bus must not be called")
		return nil, nil
	})
	router := newTestRouter(nil, cb, nil)

	rec := do(t, router, http.MethodPost, "/api/booking/complete", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])

	body := completeBody()
	body["nights"] = 2.5
	rec = do(t, router, http.MethodPost, "/api/booking/complete", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["message"], "nights")
}

func TestLegacyPayPalComplete_MapsPayload(t *testing.T) {
	var got bookingapp.CompleteBookingCommand
	cb := commands.BusFunc(func(_ context.Context, cmd commands.Command) (any, error) {
		got = cmd.(bookingapp.CompleteBookingCommand)
		return &dto.BookingResult{Success: true, Message: "ok"}, nil
	})
	payload := map[string]any{
		"orderId": " PAY-9 ",
		"reservationData": map[string]any{
			"nom": "Lovelace", "prenom": "Ada", "tel": "0600", "email": "ada@example.com",
			"range": []string{"2025-07-01", "2025-07-04"}, "nights": "3", "finalPrice": "447",
		},
	}
	rec := do(t, newTestRouter(nil, cb, nil), http.MethodPost, "/api/paypal/complete", payload)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PAY-9", got.OrderReference)
	assert.Equal(t, "Ada", got.Guest.Name)
	assert.Equal(t, "Lovelace", got.Guest.Surname)
	assert.Equal(t, "0600", got.Guest.Phone)
	assert.Equal(t, 3, got.Nights)
	assert.Equal(t, "447", got.FinalPrice)
}

func TestLegacyPayPalComplete_ErrorShape(t *testing.T) {
	cb := commands.BusFunc(func(context.Context, commands.Command) (any, error) {
		return nil, bookingsvc.ErrPaymentNotCompleted
	})
	rec := do(t, newTestRouter(nil, cb, nil), http.MethodPost, "/api/paypal/complete", map[string]any{"orderId": "X"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "payment not completed", decode(t, rec)["error"])
}

func TestGallery(t *testing.T) {
	photos := stubPhotos{photos: []s3.Photo{{Key: "a.jpg", URL: "https://cdn.example/a.jpg"}}}
	rec := do(t, newTestRouter(nil, nil, photos), http.MethodGet, "/api/gallery", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)["photos"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "https://cdn.example/a.jpg", list[0].(map[string]any)["url"])

	rec = do(t, newTestRouter(nil, nil, stubPhotos{}), http.MethodGet, "/api/gallery", nil)
	assert.Equal(t, []any{}, decode(t, rec)["photos"])
}

func TestHealthAndDocs(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/livez", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/readyz", nil).Code)

	rec := do(t, router, http.MethodGet, "/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), docsSpecPath)

	rec = do(t, router, http.MethodGet, docsSpecPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3.0.3", decode(t, rec)["openapi"])
}

func TestCORS_AllowsConfiguredOrigin(t *testing.T) {
	router := newTestRouter(nil, nil, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/availability", nil)
	req.Header.Set("Origin", "https://tinyhome.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://tinyhome.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
