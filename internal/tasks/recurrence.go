package tasks

import (
	"errors"
	"time"

	"github.com/zfogg/formdesk/internal/models"
)

// MaxOccurrences bounds the size of a single recurring series.
const MaxOccurrences = 366

var (
	ErrInvalidFrequency = errors.New("frequency must be at least 1")
	ErrInvalidCount     = errors.New("count must be between 1 and 366")
	ErrInvalidUnit      = errors.New("unit must be one of day, week, month, year")
	ErrMissingStart     = errors.New("first deadline is required")
)

// RecurrenceSpec describes a series of deadlines: Count occurrences, each
// Frequency Units after the previous one, starting at Start.
type RecurrenceSpec struct {
	Start     time.Time             `json:"start"`
	Frequency int                   `json:"frequency"`
	Count     int                   `json:"count"`
	Unit      models.RecurrenceUnit `json:"unit"`
}

// Validate checks frequency, count, unit and start.
func (s RecurrenceSpec) Validate() error {
	switch {
	case s.Start.IsZero():
		return ErrMissingStart
	case s.Frequency < 1:
		return ErrInvalidFrequency
	case s.Count < 1 || s.Count > MaxOccurrences:
		return ErrInvalidCount
	case !s.Unit.Valid():
		return ErrInvalidUnit
	}
	return nil
}

// At returns the i-th deadline of the series (0-based). Every occurrence is
// computed from Start so month clamping never accumulates: a series starting
// on Jan 31 lands on Feb 28, Mar 31, Apr 30.
func (s RecurrenceSpec) At(i int) time.Time {
	steps := i * s.Frequency
	switch s.Unit {
	case models.UnitDay:
		return s.Start.AddDate(0, 0, steps)
	case models.UnitWeek:
		return s.Start.AddDate(0, 0, 7*steps)
	case models.UnitMonth:
		return addMonthsClamped(s.Start, steps)
	case models.UnitYear:
		return addMonthsClamped(s.Start, 12*steps)
	}
	return s.Start
}

// Expand returns every deadline of the series in order.
func Expand(spec RecurrenceSpec) ([]time.Time, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	deadlines := make([]time.Time, spec.Count)
	for i := range deadlines {
		deadlines[i] = spec.At(i)
	}
	return deadlines, nil
}

// Next returns the first deadline strictly after t, if any remain.
func (s RecurrenceSpec) Next(t time.Time) (time.Time, bool) {
	for i := 0; i < s.Count; i++ {
		if d := s.At(i); d.After(t) {
			return d, true
		}
	}
	return time.Time{}, false
}

// Last returns the final deadline of the series.
func (s RecurrenceSpec) Last() time.Time {
	return s.At(s.Count - 1)
}

// addMonthsClamped moves t by n calendar months, clamping the day to the end
// of the target month and keeping the wall-clock time.
func addMonthsClamped(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	total := int(month) - 1 + n
	year += total / 12
	total %= 12
	if total < 0 {
		total += 12
		year--
	}
	target := time.Month(total + 1)

	if last := daysIn(year, target); day > last {
		day = last
	}
	return time.Date(year, target, day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
