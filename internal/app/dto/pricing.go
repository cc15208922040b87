package dto

import (
	"tinyhome/internal/domain/pricing"
)

type NightPrice struct {
	Day   string  `json:"day"`
	Price float64 `json:"price"`
	Rule  string  `json:"rule,omitempty"`
}

type Quote struct {
	From            string       `json:"from"`
	To              string       `json:"to"`
	Nights          int          `json:"nights"`
	Nightly         []NightPrice `json:"nightly"`
	Subtotal        float64      `json:"subtotal"`
	DiscountPercent int64        `json:"discountPercent"`
	DiscountAmount  float64      `json:"discountAmount"`
	FinalPrice      float64      `json:"finalPrice"`
	Currency        string       `json:"currency"`
}

func MapQuote(q pricing.Quote) Quote {
	nightly := make([]NightPrice, 0, len(q.Nightly))
	for _, n := range q.Nightly {
		nightly = append(nightly, NightPrice{Day: n.Day.String(), Price: n.Price.Float(), Rule: n.Rule})
	}
	return Quote{
		From:            q.Range.Start.String(),
		To:              q.Range.End.String(),
		Nights:          q.Nights,
		Nightly:         nightly,
		Subtotal:        q.Subtotal.Float(),
		DiscountPercent: q.DiscountPercent,
		DiscountAmount:  q.DiscountAmount.Float(),
		FinalPrice:      q.FinalPrice.Float(),
		Currency:        q.FinalPrice.Currency,
	}
}
