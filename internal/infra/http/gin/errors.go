package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"tinyhome/internal/app/policies"
	bookingsvc "tinyhome/internal/app/services/booking"
	"tinyhome/internal/domain/booking"
)

// statusFor maps the booking error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var (
		fetchErr    *policies.FetchError
		verifierErr *policies.VerifierError
	)
	switch {
	case booking.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, bookingsvc.ErrPaymentNotCompleted):
		return http.StatusBadRequest
	case bookingsvc.IsConflict(err):
		return http.StatusConflict
	case errors.As(err, &fetchErr), errors.As(err, &verifierErr):
		return http.StatusInternalServerError
	case errors.Is(err, bookingsvc.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides upstream details from clients; validation and conflict messages are safe to show.
func publicMessage(err error, status int) string {
	switch {
	case status == http.StatusBadRequest && errors.Is(err, bookingsvc.ErrPaymentNotCompleted):
		return "payment not completed"
	case status == http.StatusConflict:
		return "the selected dates are no longer available"
	case status < http.StatusInternalServerError:
		return err.Error()
	}
	var fetchErr *policies.FetchError
	if errors.As(err, &fetchErr) {
		return "calendar feed unavailable"
	}
	var verifierErr *policies.VerifierError
	if errors.As(err, &verifierErr) {
		return "payment verification failed, please retry"
	}
	return "internal error"
}

func logFailure(logger *slog.Logger, c *gin.Context, status int, err error) {
	if logger == nil {
		return
	}
	fields := []any{"status", status, "error", err, "path", c.FullPath(), "request_id", c.GetString("request_id")}
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
		return
	}
	logger.Warn("request rejected", fields...)
}

// writeError answers read endpoints with {error}.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	logFailure(logger, c, status, err)
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": publicMessage(err, status)})
}

// writeBookingError answers booking endpoints with {success:false, message}.
func writeBookingError(c *gin.Context, logger *slog.Logger, err error) {
	status := statusFor(err)
	logFailure(logger, c, status, err)
	_ = c.Error(err)
	c.JSON(status, gin.H{"success": false, "message": publicMessage(err, status)})
}
