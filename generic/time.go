package generic

import (
	"math"
	"strings"
	"time"
)

// =============================================================================
// TIME POINT - Calendar day (or hour) in a location
// =============================================================================

// DateKeyLayout is the calendar-date string used as the key of every per-day
// record handed to the engine.
const DateKeyLayout = "2006-01-02"

type TimePoint struct {
	Time        time.Time
	Granularity Granularity
}

type Granularity int

const (
	GranularityDay Granularity = iota
	GranularityHour
	GranularityMinute
)

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), Granularity: GranularityDay}
}

func NewTimePointIn(year int, month time.Month, day int, loc *time.Location) TimePoint {
	if loc == nil {
		loc = time.UTC
	}
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, loc), Granularity: GranularityDay}
}

func NewTimePointWithHour(year int, month time.Month, day, hour int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, hour, 0, 0, 0, time.UTC), Granularity: GranularityHour}
}

// DayOf truncates t to the start of its calendar day in t's own location.
func DayOf(t time.Time) TimePoint {
	return NewTimePointIn(t.Year(), t.Month(), t.Day(), t.Location())
}

// ParseDateKey parses a YYYY-MM-DD key into a day in loc (UTC when nil).
func ParseDateKey(key string, loc *time.Location) (TimePoint, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateKeyLayout, strings.TrimSpace(key), loc)
	if err != nil {
		return TimePoint{}, &DateKeyError{Key: key, Err: err}
	}
	return TimePoint{Time: t, Granularity: GranularityDay}, nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.normalize().Before(other.normalize()) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.normalize().Equal(other.normalize()) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.normalize().After(other.normalize()) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return tp.Before(other) || tp.Equal(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return tp.After(other) || tp.Equal(other) }

func (tp TimePoint) normalize() time.Time {
	loc := tp.Time.Location()
	switch tp.Granularity {
	case GranularityDay:
		return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), 0, 0, 0, 0, loc)
	case GranularityHour:
		return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), tp.Time.Hour(), 0, 0, 0, loc)
	default:
		return tp.Time
	}
}

// Arithmetic. AddDate keeps wall-clock midnight across DST changes.
func (tp TimePoint) AddDays(n int) TimePoint {
	return TimePoint{Time: tp.Time.AddDate(0, 0, n), Granularity: tp.Granularity}
}
func (tp TimePoint) AddMonths(n int) TimePoint {
	return TimePoint{Time: tp.Time.AddDate(0, n, 0), Granularity: tp.Granularity}
}

// At returns the wall-clock instant hour:minute on this day.
func (tp TimePoint) At(hour, minute int) time.Time {
	return time.Date(tp.Time.Year(), tp.Time.Month(), tp.Time.Day(), hour, minute, 0, 0, tp.Time.Location())
}

// Start and End bound the day as [Start, End).
func (tp TimePoint) Start() time.Time { return tp.At(0, 0) }
func (tp TimePoint) End() time.Time   { return tp.AddDays(1).At(0, 0) }

// Properties
func (tp TimePoint) Year() int             { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month     { return tp.Time.Month() }
func (tp TimePoint) Day() int              { return tp.Time.Day() }
func (tp TimePoint) Weekday() time.Weekday { return tp.Time.Weekday() }
func (tp TimePoint) IsZero() bool          { return tp.Time.IsZero() }

// Key returns the YYYY-MM-DD date key of the day.
func (tp TimePoint) Key() string { return tp.Time.Format(DateKeyLayout) }

func (tp TimePoint) String() string {
	switch tp.Granularity {
	case GranularityDay:
		return tp.Time.Format(DateKeyLayout)
	case GranularityHour:
		return tp.Time.Format("2006-01-02 15:00")
	default:
		return tp.Time.Format(time.RFC3339)
	}
}

// =============================================================================
// TIME UTILITIES
// =============================================================================

func StartOfYear(year int) TimePoint { return NewTimePoint(year, time.January, 1) }
func EndOfYear(year int) TimePoint   { return NewTimePoint(year, time.December, 31) }

func StartOfMonth(year int, month time.Month) TimePoint { return NewTimePoint(year, month, 1) }
func EndOfMonth(year int, month time.Month) TimePoint {
	t := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return TimePoint{Time: t, Granularity: GranularityDay}
}

// Overlap returns the length of the intersection of [aStart,aEnd) and
// [bStart,bEnd), or zero when they do not intersect.
func Overlap(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !end.After(start) {
		return 0
	}
	return end.Sub(start)
}

// MaxDuration is the largest duration Hours returns.
const MaxDuration = time.Duration(math.MaxInt64)

// Hours converts a fractional hour count to a duration, truncated to the
// millisecond. The result saturates to [0, MaxDuration]; NaN gives 0.
func Hours(h float64) time.Duration {
	if math.IsNaN(h) || h <= 0 {
		return 0
	}
	ns := h * float64(time.Hour)
	if ns >= float64(math.MaxInt64) {
		return MaxDuration.Truncate(time.Millisecond)
	}
	return time.Duration(ns).Truncate(time.Millisecond)
}
