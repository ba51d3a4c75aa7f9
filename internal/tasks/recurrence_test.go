package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/formdesk/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 17, 0, 0, 0, time.UTC)
}

func TestExpand(t *testing.T) {
	testCases := []struct {
		name     string
		spec     RecurrenceSpec
		expected []time.Time
	}{
		{
			name:     "single occurrence",
			spec:     RecurrenceSpec{Start: date(2026, 3, 2), Frequency: 1, Count: 1, Unit: models.UnitDay},
			expected: []time.Time{date(2026, 3, 2)},
		},
		{
			name:     "every other day",
			spec:     RecurrenceSpec{Start: date(2026, 2, 27), Frequency: 2, Count: 3, Unit: models.UnitDay},
			expected: []time.Time{date(2026, 2, 27), date(2026, 3, 1), date(2026, 3, 3)},
		},
		{
			name:     "weekly across year end",
			spec:     RecurrenceSpec{Start: date(2026, 12, 24), Frequency: 1, Count: 3, Unit: models.UnitWeek},
			expected: []time.Time{date(2026, 12, 24), date(2026, 12, 31), date(2027, 1, 7)},
		},
		{
			name: "monthly clamps to month end without drifting",
			spec: RecurrenceSpec{Start: date(2026, 1, 31), Frequency: 1, Count: 4, Unit: models.UnitMonth},
			expected: []time.Time{
				date(2026, 1, 31), date(2026, 2, 28), date(2026, 3, 31), date(2026, 4, 30),
			},
		},
		{
			name:     "quarterly",
			spec:     RecurrenceSpec{Start: date(2026, 11, 15), Frequency: 3, Count: 3, Unit: models.UnitMonth},
			expected: []time.Time{date(2026, 11, 15), date(2027, 2, 15), date(2027, 5, 15)},
		},
		{
			name:     "leap day yearly",
			spec:     RecurrenceSpec{Start: date(2028, 2, 29), Frequency: 1, Count: 3, Unit: models.UnitYear},
			expected: []time.Time{date(2028, 2, 29), date(2029, 2, 28), date(2030, 2, 28)},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Expand(tc.spec)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestExpandKeepsWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata not available: %v", err)
	}
	start := time.Date(2026, 3, 7, 9, 0, 0, 0, loc)

	got, err := Expand(RecurrenceSpec{Start: start, Frequency: 1, Count: 2, Unit: models.UnitDay})
	require.NoError(t, err)

	assert.Equal(t, 9, got[1].Hour())
	assert.Equal(t, 8, got[1].Day())
	assert.Equal(t, 23*time.Hour, got[1].Sub(got[0]))
}

func TestExpandValidation(t *testing.T) {
	valid := RecurrenceSpec{Start: date(2026, 1, 1), Frequency: 1, Count: 1, Unit: models.UnitDay}

	testCases := []struct {
		name   string
		mutate func(*RecurrenceSpec)
		err    error
	}{
		{"missing start", func(s *RecurrenceSpec) { s.Start = time.Time{} }, ErrMissingStart},
		{"zero frequency", func(s *RecurrenceSpec) { s.Frequency = 0 }, ErrInvalidFrequency},
		{"zero count", func(s *RecurrenceSpec) { s.Count = 0 }, ErrInvalidCount},
		{"count too large", func(s *RecurrenceSpec) { s.Count = MaxOccurrences + 1 }, ErrInvalidCount},
		{"unknown unit", func(s *RecurrenceSpec) { s.Unit = "fortnight" }, ErrInvalidUnit},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			spec := valid
			tc.mutate(&spec)
			_, err := Expand(spec)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestNextAndLast(t *testing.T) {
	spec := RecurrenceSpec{Start: date(2026, 1, 5), Frequency: 1, Count: 3, Unit: models.UnitWeek}

	next, ok := spec.Next(date(2026, 1, 6))
	require.True(t, ok)
	assert.Equal(t, date(2026, 1, 12), next)

	next, ok = spec.Next(date(2025, 12, 1))
	require.True(t, ok)
	assert.Equal(t, date(2026, 1, 5), next)

	_, ok = spec.Next(date(2026, 1, 19))
	assert.False(t, ok)

	assert.Equal(t, date(2026, 1, 19), spec.Last())
}

func TestAddMonthsClampedNegative(t *testing.T) {
	assert.Equal(t, date(2025, 11, 30), addMonthsClamped(date(2026, 3, 31), -4))
	assert.Equal(t, date(2025, 12, 31), addMonthsClamped(date(2026, 1, 31), -1))
}
