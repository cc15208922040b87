package ginserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"tinyhome/internal/app/commands"
	"tinyhome/internal/app/dto"
	bookingapp "tinyhome/internal/app/handlers/booking"
	"tinyhome/internal/domain/booking"
)

type BookingHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type completeBookingRequest struct {
	OrderReference string        `json:"orderReference"`
	GuestInfo      dto.GuestInfo `json:"guestInfo"`
	Range          []string      `json:"range"`
	Nights         json.Number   `json:"nights"`
	FinalPrice     json.Number   `json:"finalPrice"`
}

type legacyReservation struct {
	Nom        string      `json:"nom"`
	Prenom     string      `json:"prenom"`
	Tel        string      `json:"tel"`
	Email      string      `json:"email"`
	Range      []string    `json:"range"`
	Nights     json.Number `json:"nights"`
	FinalPrice json.Number `json:"finalPrice"`
}

type legacyCompleteRequest struct {
	OrderID         string            `json:"orderId"`
	ReservationData legacyReservation `json:"reservationData"`
}

func (h BookingHandler) Complete(c *gin.Context) {
	var req completeBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBookingError(c, h.Logger, booking.Invalid("body", "malformed JSON body"))
		return
	}
	cmd, err := newCompleteCommand(req.OrderReference, req.GuestInfo, req.Range, req.Nights, req.FinalPrice)
	if err != nil {
		writeBookingError(c, h.Logger, err)
		return
	}
	result, err := h.dispatch(c, cmd)
	if err != nil {
		writeBookingError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// LegacyPayPalComplete accepts the payload shape older front-ends still post.
func (h BookingHandler) LegacyPayPalComplete(c *gin.Context) {
	var req legacyCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.Logger, booking.Invalid("body", "malformed JSON body"))
		return
	}
	data := req.ReservationData
	guest := dto.GuestInfo{
		Name:    data.Prenom,
		Surname: data.Nom,
		Phone:   data.Tel,
		Email:   data.Email,
	}
	cmd, err := newCompleteCommand(req.OrderID, guest, data.Range, data.Nights, data.FinalPrice)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	result, err := h.dispatch(c, cmd)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) dispatch(c *gin.Context, cmd bookingapp.CompleteBookingCommand) (*dto.BookingResult, error) {
	result, err := commands.Dispatch[bookingapp.CompleteBookingCommand, *dto.BookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("ginserver: empty booking result")
	}
	return result, nil
}

func newCompleteCommand(order string, guest dto.GuestInfo, stay []string, nights, price json.Number) (bookingapp.CompleteBookingCommand, error) {
	cmd := bookingapp.CompleteBookingCommand{
		OrderReference: strings.TrimSpace(order),
		Guest:          guest,
		Range:          stay,
		FinalPrice:     strings.TrimSpace(price.String()),
	}
	if nights != "" {
		n, err := nights.Int64()
		if err != nil {
			return cmd, booking.Invalid("nights", "nights must be a whole number")
		}
		cmd.Nights = int(n)
	}
	return cmd, nil
}

var _ BookingHTTP = BookingHandler{}
