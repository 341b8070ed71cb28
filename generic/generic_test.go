package generic

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateKey(t *testing.T) {
	tp, err := ParseDateKey(" 2025-03-10 ", nil)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", tp.Key())
	assert.Equal(t, time.UTC, tp.Time.Location())

	_, err = ParseDateKey("10/03/2025", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDateKey))
	assert.True(t, IsClientError(err))

	var dke *DateKeyError
	require.True(t, errors.As(err, &dke))
	assert.Equal(t, "10/03/2025", dke.Key)
}

func TestTimePoint_DayBoundsFollowWallClock(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skip("tzdata not available")
	}

	// GIVEN the spring-forward day in Rome
	day := NewTimePointIn(2025, time.March, 30, rome)

	// THEN the day is one hour short
	assert.Equal(t, 23*time.Hour, day.End().Sub(day.Start()))
	assert.Equal(t, "2025-03-31", day.AddDays(1).Key())
}

func TestOverlap(t *testing.T) {
	base := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

	assert.Equal(t, 2*time.Hour, Overlap(at(8), at(12), at(10), at(14)))
	assert.Equal(t, 4*time.Hour, Overlap(at(8), at(12), at(0), at(24)))
	assert.Zero(t, Overlap(at(8), at(12), at(12), at(14)))
	assert.Zero(t, Overlap(at(8), at(12), at(14), at(16)))
}

func TestHours(t *testing.T) {
	assert.Equal(t, 7*time.Hour+30*time.Minute, Hours(7.5))
	assert.Equal(t, time.Duration(0), Hours(0))
	assert.Equal(t, time.Duration(0), Hours(-3))
	assert.Equal(t, time.Duration(0), Hours(math.NaN()))
	assert.Equal(t, MaxDuration.Truncate(time.Millisecond), Hours(3e6))
	assert.Equal(t, MaxDuration.Truncate(time.Millisecond), Hours(math.Inf(1)))
}

func TestPeriod(t *testing.T) {
	feb := MonthPeriod(2024, time.February)
	assert.Len(t, feb.Days(), 29)
	assert.Equal(t, "[2024-02-01, 2024-02-29]", feb.String())

	year := YearPeriod(2025)
	assert.Len(t, year.Days(), 365)
	assert.True(t, year.ContainsKey("2025-12-31"))
	assert.False(t, year.ContainsKey("2026-01-01"))
	assert.False(t, year.ContainsKey("not-a-date"))
}

func TestAmount(t *testing.T) {
	h := NewAmountFromDuration(90*time.Minute, UnitHours)
	assert.Equal(t, "1.5", h.Value.String())

	m := NewAmountFromDuration(90*time.Minute, UnitMinutes)
	assert.Equal(t, "90", m.Value.String())

	assert.True(t, NewAmountFromDuration(time.Hour, UnitDays).IsZero())

	left := NewAmount(10, UnitHours).Sub(NewAmount(12.5, UnitHours))
	assert.True(t, left.IsNegative())
	assert.Equal(t, "-2.5 hours", left.String())
	assert.True(t, NewAmount(2, UnitDays).Equal(NewAmountFromInt(2, UnitDays)))
	assert.False(t, NewAmount(2, UnitDays).Equal(NewAmount(2, UnitHours)))
}

func TestErrorHelpers(t *testing.T) {
	settings := &SettingsError{Field: "standard_day_hours", Reason: "must be within [0, 24]"}
	assert.Equal(t, "invalid work settings: standard_day_hours must be within [0, 24]", settings.Error())
	assert.True(t, errors.Is(settings, ErrInvalidSettings))
	assert.True(t, IsClientError(settings))

	dup := fmt.Errorf("append: %w", ErrDuplicateOvertime)
	assert.True(t, IsConflict(dup))
	assert.False(t, IsClientError(dup))

	assert.True(t, IsNotFound(fmt.Errorf("day 2025-03-10: %w", ErrNotFound)))
}
