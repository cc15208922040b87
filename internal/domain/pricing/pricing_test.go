package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinyhome/internal/domain/shared/daterange"
	"tinyhome/internal/domain/shared/money"
)

func TestComputeStay_ChristmasWindow(t *testing.T) {
	e := DefaultEngine()

	q := e.ComputeStay("2025-12-24", "2025-12-27")

	require.Equal(t, 3, q.Nights)
	require.Len(t, q.Nightly, 3)
	wantDays := []daterange.Day{"2025-12-24", "2025-12-25", "2025-12-26"}
	for i, night := range q.Nightly {
		assert.Equal(t, wantDays[i], night.Day)
		assert.Equal(t, "200.00 EUR", night.Price.String())
		assert.Equal(t, "christmas", night.Rule)
	}
	assert.Equal(t, "600.00 EUR", q.Subtotal.String())
	assert.Equal(t, int64(10), q.DiscountPercent)
	assert.Equal(t, "60.00 EUR", q.DiscountAmount.String())
	assert.Equal(t, "540.00 EUR", q.FinalPrice.String())
}

func TestComputeStay_SevenDefaultNights(t *testing.T) {
	e := DefaultEngine()

	q := e.ComputeStay("2025-03-03", "2025-03-10")

	assert.Equal(t, 7, q.Nights)
	assert.Equal(t, "1043.00 EUR", q.Subtotal.String())
	assert.Equal(t, int64(15), q.DiscountPercent)
	assert.Equal(t, "156.45 EUR", q.DiscountAmount.String())
	assert.Equal(t, "886.55 EUR", q.FinalPrice.String())
	for _, night := range q.Nightly {
		assert.Empty(t, night.Rule)
	}
}

func TestComputeStay_DiscountTiers(t *testing.T) {
	e := DefaultEngine()
	cases := []struct {
		from, to string
		percent  int64
		final    string
	}{
		{"2025-03-03", "2025-03-04", 0, "149.00 EUR"},
		{"2025-03-03", "2025-03-05", 0, "298.00 EUR"},
		{"2025-03-03", "2025-03-06", 10, "402.30 EUR"},
		{"2025-03-03", "2025-03-09", 10, "804.60 EUR"},
		{"2025-03-03", "2025-03-13", 15, "1266.50 EUR"},
	}
	for _, tc := range cases {
		q := e.ComputeStay(daterange.Day(tc.from), daterange.Day(tc.to))
		assert.Equal(t, tc.percent, q.DiscountPercent, tc.from+".."+tc.to)
		assert.Equal(t, tc.final, q.FinalPrice.String(), tc.from+".."+tc.to)
	}
}

func TestComputeStay_NonPositiveNightsIsAllZero(t *testing.T) {
	e := DefaultEngine()
	for _, q := range []Quote{
		e.ComputeStay("2025-03-03", "2025-03-03"),
		e.ComputeStay("2025-03-05", "2025-03-03"),
		e.ComputeStay("", "2025-03-03"),
	} {
		assert.Zero(t, q.Nights)
		assert.Empty(t, q.Nightly)
		assert.True(t, q.Subtotal.IsZero())
		assert.True(t, q.DiscountAmount.IsZero())
		assert.True(t, q.FinalPrice.IsZero())
		assert.Zero(t, q.DiscountPercent)
	}
}

func TestPriceForNight_WrapAroundNewYear(t *testing.T) {
	e := DefaultEngine()
	assert.Equal(t, "250.00 EUR", e.PriceForNight("2025-12-31").String())
	assert.Equal(t, "250.00 EUR", e.PriceForNight("2026-01-01").String())
	assert.Equal(t, "149.00 EUR", e.PriceForNight("2026-01-02").String())
	assert.Equal(t, "149.00 EUR", e.PriceForNight("2025-12-30").String())
	// year independent
	assert.Equal(t, "200.00 EUR", e.PriceForNight("2031-12-25").String())
	assert.Equal(t, "250.00 EUR", e.PriceForNight("2027-02-13").String())
}

func TestPriceForNight_FirstMatchWins(t *testing.T) {
	wide := SpecialPriceRule{Name: "winter", Start: MonthDay{time.December, 1}, End: MonthDay{time.December, 31}, Price: money.Must("180", "EUR")}
	narrow := SpecialPriceRule{Name: "christmas", Start: MonthDay{time.December, 24}, End: MonthDay{time.December, 26}, Price: money.Must("200", "EUR")}

	wideFirst, err := NewEngine(money.Must("149", "EUR"), []SpecialPriceRule{wide, narrow}, nil)
	require.NoError(t, err)
	narrowFirst, err := NewEngine(money.Must("149", "EUR"), []SpecialPriceRule{narrow, wide}, nil)
	require.NoError(t, err)

	assert.Equal(t, "180.00 EUR", wideFirst.PriceForNight("2025-12-25").String())
	assert.Equal(t, "200.00 EUR", narrowFirst.PriceForNight("2025-12-25").String())
	assert.Equal(t, "180.00 EUR", narrowFirst.PriceForNight("2025-12-27").String())
}

func TestRuleMatches_MultiMonthWindowWithoutWrap(t *testing.T) {
	summer := SpecialPriceRule{Start: MonthDay{time.July, 15}, End: MonthDay{time.September, 15}, Price: money.Must("190", "EUR")}
	assert.True(t, summer.Matches("2025-07-15"))
	assert.True(t, summer.Matches("2025-08-10"))
	assert.True(t, summer.Matches("2025-09-15"))
	assert.False(t, summer.Matches("2025-07-14"))
	assert.False(t, summer.Matches("2025-09-16"))
	assert.False(t, summer.Matches("2025-01-10"))
}

func TestParseRules(t *testing.T) {
	rules, err := ParseRules("christmas@12-24..12-26=200, 02-14=250,new-year@2025-12-31..2026-01-01=250.50", "EUR")
	require.NoError(t, err)
	require.Len(t, rules, 3)

	assert.Equal(t, "christmas", rules[0].Name)
	assert.Equal(t, MonthDay{time.December, 24}, rules[0].Start)
	assert.Equal(t, MonthDay{time.December, 26}, rules[0].End)
	assert.Equal(t, "special-2", rules[1].Name)
	assert.Equal(t, rules[1].Start, rules[1].End)
	assert.Equal(t, "250.50 EUR", rules[2].Price.String())
	assert.Equal(t, MonthDay{time.January, 1}, rules[2].End)

	_, err = ParseRules("12-24", "EUR")
	assert.ErrorIs(t, err, ErrInvalidRule)
	_, err = ParseRules("13-01=100", "EUR")
	assert.ErrorIs(t, err, ErrInvalidRule)

	empty, err := ParseRules("", "EUR")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(money.Must("0", "EUR"), nil, nil)
	assert.ErrorIs(t, err, ErrNonPositivePrice)

	usd := SpecialPriceRule{Start: MonthDay{time.May, 1}, End: MonthDay{time.May, 1}, Price: money.Must("10", "USD")}
	_, err = NewEngine(money.Must("149", "EUR"), []SpecialPriceRule{usd}, nil)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	_, err = NewEngine(money.Must("149", "EUR"), nil, []DiscountTier{{MinNights: 2, Percent: 120}})
	assert.ErrorIs(t, err, ErrInvalidPercentage)

	e, err := NewEngine(money.Must("149", "EUR"), nil, []DiscountTier{{MinNights: 3, Percent: 10}, {MinNights: 7, Percent: 15}})
	require.NoError(t, err)
	assert.Equal(t, int64(15), e.DiscountPercent(8), "tiers are ordered by threshold")
}
