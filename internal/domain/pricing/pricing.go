package pricing

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"tinyhome/internal/domain/shared/daterange"
	"tinyhome/internal/domain/shared/money"
)

var (
	ErrInvalidMonthDay   = errors.New("pricing: month/day must be formatted as MM-DD")
	ErrInvalidRule       = errors.New("pricing: special price rule must look like MM-DD..MM-DD=PRICE")
	ErrCurrencyMismatch  = errors.New("pricing: rule currency differs from default nightly price")
	ErrNonPositivePrice  = errors.New("pricing: nightly price must be positive")
	ErrInvalidPercentage = errors.New("pricing: discount percent must be within 0..100")
)

// MonthDay is a year-independent calendar position.
type MonthDay struct {
	Month time.Month
	Day   int
}

// ParseMonthDay accepts "MM-DD" or a full "YYYY-MM-DD" whose year is ignored.
func ParseMonthDay(s string) (MonthDay, error) {
	s = strings.TrimSpace(s)
	if len(s) == len(daterange.Layout) {
		d, err := daterange.ParseDay(s)
		if err != nil {
			return MonthDay{}, ErrInvalidMonthDay
		}
		m, day := d.MonthDay()
		return MonthDay{Month: m, Day: day}, nil
	}
	// Leap year so that 02-29 is accepted.
	t, err := time.Parse("2006-01-02", "2024-"+s)
	if err != nil {
		return MonthDay{}, ErrInvalidMonthDay
	}
	return MonthDay{Month: t.Month(), Day: t.Day()}, nil
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}

func (md MonthDay) ordinal() int {
	return int(md.Month)*100 + md.Day
}

// SpecialPriceRule overrides the nightly price inside a recurring month/day window (both ends inclusive).
type SpecialPriceRule struct {
	Name  string
	Start MonthDay
	End   MonthDay
	Price money.Money
}

// Matches reports whether the night of day falls inside the rule window.
func (r SpecialPriceRule) Matches(day daterange.Day) bool {
	m, d := day.MonthDay()
	at := MonthDay{Month: m, Day: d}.ordinal()
	start, end := r.Start.ordinal(), r.End.ordinal()
	switch {
	case r.Start.Month == r.End.Month:
		return at >= start && at <= end
	case start > end:
		// wraps over the new year, e.g. 12-31..01-01
		return at >= start || at <= end
	default:
		return at >= start && at <= end
	}
}

// DiscountTier grants Percent off the subtotal for stays of at least MinNights.
type DiscountTier struct {
	MinNights int
	Percent   int64
}

// DefaultTiers are 15% from 7 nights and 10% from 3 nights.
var DefaultTiers = []DiscountTier{
	{MinNights: 7, Percent: 15},
	{MinNights: 3, Percent: 10},
}

type NightPrice struct {
	Day   daterange.Day
	Price money.Money
	Rule  string
}

// Quote is the full price computation for a stay.
type Quote struct {
	Range           daterange.Range
	Nights          int
	Nightly         []NightPrice
	Subtotal        money.Money
	DiscountPercent int64
	DiscountAmount  money.Money
	FinalPrice      money.Money
}

// Engine computes nightly prices. Rules are evaluated in declaration order and the first match wins.
type Engine struct {
	DefaultNightly money.Money
	Rules          []SpecialPriceRule
	Tiers          []DiscountTier
}

func NewEngine(defaultNightly money.Money, rules []SpecialPriceRule, tiers []DiscountTier) (*Engine, error) {
	if !defaultNightly.Amount.IsPositive() {
		return nil, ErrNonPositivePrice
	}
	for _, rule := range rules {
		if rule.Price.Currency != defaultNightly.Currency {
			return nil, ErrCurrencyMismatch
		}
		if !rule.Price.Amount.IsPositive() {
			return nil, ErrNonPositivePrice
		}
	}
	if tiers == nil {
		tiers = DefaultTiers
	}
	sorted := append([]DiscountTier(nil), tiers...)
	for _, tier := range sorted {
		if tier.Percent < 0 || tier.Percent > 100 {
			return nil, ErrInvalidPercentage
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinNights > sorted[j].MinNights })
	return &Engine{
		DefaultNightly: defaultNightly,
		Rules:          append([]SpecialPriceRule(nil), rules...),
		Tiers:          sorted,
	}, nil
}

// DefaultRules mirror the house's published seasonal prices.
func DefaultRules(currency string) []SpecialPriceRule {
	return []SpecialPriceRule{
		{Name: "christmas", Start: MonthDay{time.December, 24}, End: MonthDay{time.December, 26}, Price: money.Must("200", currency)},
		{Name: "valentines-day", Start: MonthDay{time.February, 14}, End: MonthDay{time.February, 14}, Price: money.Must("250", currency)},
		{Name: "valentines-eve", Start: MonthDay{time.February, 13}, End: MonthDay{time.February, 13}, Price: money.Must("250", currency)},
		{Name: "new-year", Start: MonthDay{time.December, 31}, End: MonthDay{time.January, 1}, Price: money.Must("250", currency)},
	}
}

// DefaultEngine prices nights at 149 EUR with the default rules and tiers.
func DefaultEngine() *Engine {
	e, err := NewEngine(money.Must("149", "EUR"), DefaultRules("EUR"), DefaultTiers)
	if err != nil {
		panic(err)
	}
	return e
}

// RuleFor returns the first rule matching day.
func (e *Engine) RuleFor(day daterange.Day) (SpecialPriceRule, bool) {
	for _, rule := range e.Rules {
		if rule.Matches(day) {
			return rule, true
		}
	}
	return SpecialPriceRule{}, false
}

func (e *Engine) PriceForNight(day daterange.Day) money.Money {
	if rule, ok := e.RuleFor(day); ok {
		return rule.Price
	}
	return e.DefaultNightly
}

func (e *Engine) DiscountPercent(nights int) int64 {
	for _, tier := range e.Tiers {
		if nights >= tier.MinNights {
			return tier.Percent
		}
	}
	return 0
}

// ComputeStay prices every night in [start, end). Non-positive stays yield an all-zero quote.
func (e *Engine) ComputeStay(start, end daterange.Day) Quote {
	currency := e.DefaultNightly.Currency
	zero := money.Zero(currency)
	quote := Quote{
		Range:          daterange.Range{Start: start, End: end},
		Subtotal:       zero,
		DiscountAmount: zero,
		FinalPrice:     zero,
	}
	nights := daterange.DaysBetween(start, end)
	if nights <= 0 {
		return quote
	}
	quote.Nights = nights
	quote.Nightly = make([]NightPrice, 0, nights)

	subtotal := zero
	for day := range daterange.Enumerate(start, end) {
		price := e.DefaultNightly
		ruleName := ""
		if rule, ok := e.RuleFor(day); ok {
			price = rule.Price
			ruleName = rule.Name
		}
		// currencies are validated by NewEngine
		subtotal, _ = subtotal.Add(price)
		quote.Nightly = append(quote.Nightly, NightPrice{Day: day, Price: price, Rule: ruleName})
	}

	quote.Subtotal = subtotal.Round2()
	quote.DiscountPercent = e.DiscountPercent(nights)
	quote.DiscountAmount = quote.Subtotal.Percent(quote.DiscountPercent)
	final, _ := quote.Subtotal.Sub(quote.DiscountAmount)
	quote.FinalPrice = final.Round2()
	return quote
}

// ParseRules reads a comma separated list of "[name@]MM-DD..MM-DD=PRICE" entries.
// A single day may be written as "MM-DD=PRICE". Declaration order is preserved.
// A window that does not wrap the new year covers every day between its ends, so
// 07-15..09-15 also matches all of August.
func ParseRules(list, currency string) ([]SpecialPriceRule, error) {
	var rules []SpecialPriceRule
	for i, raw := range strings.Split(list, ",") {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		name := "special-" + strconv.Itoa(i+1)
		if at := strings.Index(entry, "@"); at >= 0 {
			name = strings.TrimSpace(entry[:at])
			entry = entry[at+1:]
		}
		window, priceRaw, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRule, raw)
		}
		startRaw, endRaw, isRange := strings.Cut(window, "..")
		if !isRange {
			endRaw = startRaw
		}
		start, err := ParseMonthDay(startRaw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRule, raw)
		}
		end, err := ParseMonthDay(endRaw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRule, raw)
		}
		price, err := money.Parse(priceRaw, currency)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRule, raw)
		}
		rules = append(rules, SpecialPriceRule{Name: name, Start: start, End: end, Price: price})
	}
	return rules, nil
}
