package pricing

import (
	"context"

	"tinyhome/internal/app/dto"
	"tinyhome/internal/app/queries"
	domainpricing "tinyhome/internal/domain/pricing"
	"tinyhome/internal/domain/shared/daterange"
)

const getQuoteKey = "pricing.quote"

type Quoter interface {
	Quote(ctx context.Context, from, to daterange.Day) (domainpricing.Quote, error)
}

type GetQuoteQuery struct {
	From string `validate:"required,datetime=2006-01-02"`
	To   string `validate:"required,datetime=2006-01-02"`
}

func (GetQuoteQuery) Key() string { return getQuoteKey }

type GetQuoteHandler struct {
	Quoter Quoter
}

func (h *GetQuoteHandler) Handle(ctx context.Context, q GetQuoteQuery) (dto.Quote, error) {
	quote, err := h.Quoter.Quote(ctx, daterange.Day(q.From), daterange.Day(q.To))
	if err != nil {
		return dto.Quote{}, err
	}
	return dto.MapQuote(quote), nil
}

func Register(bus *queries.InMemoryBus, quoter Quoter) {
	queries.RegisterHandler[GetQuoteQuery, dto.Quote](bus, getQuoteKey, &GetQuoteHandler{Quoter: quoter})
}

var _ queries.Handler[GetQuoteQuery, dto.Quote] = (*GetQuoteHandler)(nil)
