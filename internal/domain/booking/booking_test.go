package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinyhome/internal/domain/shared/daterange"
)

func TestValidateStay(t *testing.T) {
	today := daterange.Day("2025-06-01")
	cases := []struct {
		name  string
		start string
		end   string
		ok    bool
	}{
		{"regular", "2025-06-03", "2025-06-05", true},
		{"saturday one night", "2025-06-07", "2025-06-08", true},
		{"today arrival", "2025-06-01", "2025-06-03", true},
		{"zero nights", "2025-06-03", "2025-06-03", false},
		{"inverted", "2025-06-05", "2025-06-03", false},
		{"past arrival", "2025-05-31", "2025-06-03", false},
		{"sunday one night", "2025-06-08", "2025-06-09", false},
		{"sunday two nights", "2025-06-08", "2025-06-10", true},
		{"malformed", "2025-6-8", "2025-06-10", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateStay(daterange.Range{Start: daterange.Day(tc.start), End: daterange.Day(tc.end)}, today)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestAttempt_HappyPath(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := NewAttempt("ORDER-1", now)

	require.NoError(t, a.To(StatePaymentVerifying, now))
	require.NoError(t, a.To(StatePersisted, now))
	assert.True(t, a.Persisted())
	require.NoError(t, a.To(StateNotifyAttempted, now))
	require.NoError(t, a.To(StateDone, now))

	assert.True(t, a.State.Terminal())
	assert.Len(t, a.History, 5)
	assert.Equal(t, StateNotifyAttempted, a.History[4].From)
}

func TestAttempt_NoRollbackAfterPersisted(t *testing.T) {
	now := time.Now()
	a := NewAttempt("ORDER-1", now)
	require.NoError(t, a.To(StatePaymentVerifying, now))
	require.NoError(t, a.To(StatePersisted, now))

	assert.ErrorIs(t, a.To(StateFailed, now), ErrInvalidTransition)
	assert.ErrorIs(t, a.To(StatePaymentRejected, now), ErrInvalidTransition)
	assert.Equal(t, StatePersisted, a.State)
}

func TestAttempt_RejectedIsTerminal(t *testing.T) {
	now := time.Now()
	a := NewAttempt("ORDER-1", now)
	require.NoError(t, a.To(StatePaymentVerifying, now))
	require.NoError(t, a.To(StatePaymentRejected, now))

	assert.True(t, a.State.Terminal())
	assert.False(t, a.Persisted())
	assert.ErrorIs(t, a.To(StatePersisted, now), ErrInvalidTransition)
}
