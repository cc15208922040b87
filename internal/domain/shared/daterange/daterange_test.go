package daterange

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayOf_ProjectsIntoLocation(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)

	// 23:00 UTC on Dec 15 is already Dec 16 in Paris (UTC+1 in winter).
	instant := time.Date(2025, 12, 15, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, Day("2025-12-16"), DayOf(instant, paris))
	assert.Equal(t, Day("2025-12-15"), DayOf(instant, time.UTC))
	assert.Equal(t, Day("2025-12-15"), DayOf(instant, nil))

	// 22:00 UTC in summer is midnight in Paris (UTC+2).
	summer := time.Date(2025, 7, 1, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, Day("2025-07-02"), DayOf(summer, paris))
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2025-01-03")
	require.NoError(t, err)
	assert.Equal(t, Day("2025-01-03"), d)

	for _, raw := range []string{"", "2025-1-3", "2025-13-01", "2025-02-30", "03/01/2025"} {
		_, err := ParseDay(raw)
		assert.ErrorIs(t, err, ErrInvalidDay, raw)
	}
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 3, DaysBetween("2025-12-24", "2025-12-27"))
	assert.Equal(t, 0, DaysBetween("2025-12-24", "2025-12-24"))
	assert.Equal(t, -2, DaysBetween("2025-01-03", "2025-01-01"))
	assert.Equal(t, 1, DaysBetween("2024-02-28", "2024-02-29"))
	// DST change in Europe does not matter for day keys.
	assert.Equal(t, 1, DaysBetween("2025-03-30", "2025-03-31"))
	assert.Equal(t, 0, DaysBetween("garbage", "2025-03-31"))
}

func TestEnumerate_IsEndExclusiveAndRestartable(t *testing.T) {
	seq := Enumerate("2025-12-30", "2026-01-02")
	first := slices.Collect(seq)
	second := slices.Collect(seq)

	assert.Equal(t, []Day{"2025-12-30", "2025-12-31", "2026-01-01"}, first)
	assert.Equal(t, first, second)

	assert.Empty(t, slices.Collect(Enumerate("2025-01-01", "2025-01-01")))
	assert.Empty(t, slices.Collect(Enumerate("2025-01-05", "2025-01-01")))
}

func TestEnumerate_StopsEarly(t *testing.T) {
	var got []Day
	for d := range Enumerate("2025-01-01", "2025-02-01") {
		got = append(got, d)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []Day{"2025-01-01", "2025-01-02"}, got)
}

func TestRange(t *testing.T) {
	r, err := Parse("2025-01-01", "2025-01-03")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Nights())
	assert.True(t, r.Contains("2025-01-02"))
	assert.False(t, r.Contains("2025-01-03"), "checkout day is not a night")

	_, err = Parse("2025-01-03", "2025-01-03")
	assert.ErrorIs(t, err, ErrInvalidRange)

	other := Range{Start: "2025-01-03", End: "2025-01-05"}
	assert.False(t, r.Overlaps(other), "back-to-back stays do not overlap")
	assert.True(t, r.Overlaps(Range{Start: "2025-01-02", End: "2025-01-04"}))
}

func TestDayHelpers(t *testing.T) {
	d := MustParseDay("2025-12-31")
	assert.Equal(t, Day("2026-01-01"), d.AddDays(1))
	assert.Equal(t, Day("2025-12-30"), d.AddDays(-1))
	assert.Equal(t, time.Wednesday, d.Weekday())
	m, day := d.MonthDay()
	assert.Equal(t, time.December, m)
	assert.Equal(t, 31, day)
	assert.Equal(t, Day("2025-03-01"), FromDate(2025, time.February, 29))

	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 30, 23, 0, 0, 0, time.UTC), d.In(paris).UTC())
}
