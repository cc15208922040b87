package booking

import (
	"bytes"
	"text/template"

	"tinyhome/internal/app/policies"
	"tinyhome/internal/domain/reservation"
	"tinyhome/internal/domain/shared/daterange"
)

const (
	MessageNotified       = "Reservation recorded and emails sent"
	MessageNotifyDisabled = "Reservation recorded (email not sent: notifier not configured)"
	MessageNotifyFailed   = "Reservation recorded (email delivery failed)"
	MessageDuplicate      = "Reservation already recorded"
)

var ownerTemplate = template.Must(template.New("owner").Parse(`Hello,

A new reservation has been paid and confirmed.

GUEST
- Name: {{.Guest.Name}} {{.Guest.Surname}}
- Phone: {{or .Guest.Phone "-"}}
- Email: {{.Guest.Email}}

STAY
- Arrival: {{.Arrival}}
- Departure: {{.Departure}}
- Nights: {{.Nights}}
- Amount paid: {{.Amount}}

PAYMENT
- Reference: {{.OrderID}}
- Status: {{.Status}}

ACTION REQUIRED
Block these dates on the other booking channels to avoid a double booking.
`))

var guestTemplate = template.Must(template.New("guest").Parse(`Hello {{.Guest.Name}},

Thank you for booking The Tiny Home! We confirm receipt of your payment of {{.Amount}}.

YOUR STAY
- Name: {{.Guest.Name}} {{.Guest.Surname}}
- Phone: {{or .Guest.Phone "-"}}
- Arrival: {{.Arrival}}, check-in from 16:00
- Departure: {{.Departure}}, check-out until 12:00
- Nights: {{.Nights}} for 2 guests

HOUSE RULES
{{range .Rules}}- {{.}}
{{end}}
If you have any question, reply to this email.

See you soon,
The Tiny Home
`))

// HouseRules are listed in the guest confirmation.
var HouseRules = []string{
	"No parties or events.",
	"Quiet on the spa terrace after 22:00.",
	"No unannounced visitors.",
	"Dishes clean and put away, a dishwasher is available.",
	"Shoes off inside, no food or drinks in the bedrooms.",
	"No smoking, no pets.",
	"Lost keys are charged 40 EUR, damaged linen 50 EUR, extra cleaning 150 EUR.",
}

type messageData struct {
	Guest     reservation.Guest
	Arrival   string
	Departure string
	Nights    int
	Amount    string
	OrderID   string
	Status    string
	Rules     []string
}

func newMessageData(r *reservation.Reservation) messageData {
	return messageData{
		Guest:     r.Guest,
		Arrival:   displayDay(r.Range.Start),
		Departure: displayDay(r.Range.End),
		Nights:    r.Nights,
		Amount:    r.FinalPrice.String(),
		OrderID:   r.OrderID,
		Status:    string(r.PaymentStatus),
		Rules:     HouseRules,
	}
}

// displayDay renders a day as DD/MM/YYYY.
func displayDay(d daterange.Day) string {
	t := d.Time()
	if t.IsZero() {
		return d.String()
	}
	return t.Format("02/01/2006")
}

func ownerMessage(to string, r *reservation.Reservation) (policies.Message, error) {
	var buf bytes.Buffer
	if err := ownerTemplate.Execute(&buf, newMessageData(r)); err != nil {
		return policies.Message{}, err
	}
	return policies.Message{
		To:      to,
		Subject: "New reservation - " + r.Guest.FullName(),
		Body:    buf.String(),
	}, nil
}

func guestMessage(r *reservation.Reservation) (policies.Message, error) {
	var buf bytes.Buffer
	if err := guestTemplate.Execute(&buf, newMessageData(r)); err != nil {
		return policies.Message{}, err
	}
	return policies.Message{
		To:      r.Guest.Email,
		Subject: "Your reservation is confirmed",
		Body:    buf.String(),
	}, nil
}
