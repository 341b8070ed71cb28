package generic

import "time"

// =============================================================================
// PERIOD - Inclusive range of calendar days
// =============================================================================

// Period is an inclusive range of days. Ledgers are always computed for a
// period (the target year), never for an open-ended history.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// YearPeriod returns Jan 1 - Dec 31 of year.
func YearPeriod(year int) Period {
	return Period{Start: StartOfYear(year), End: EndOfYear(year)}
}

// MonthPeriod returns the first to last day of month.
func MonthPeriod(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// Contains returns true if the time point is within the period [Start, End].
// Comparison is on the calendar date only, so a day parsed in any location
// matches.
func (p Period) Contains(t TimePoint) bool {
	d := NewTimePoint(t.Year(), t.Month(), t.Day())
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// ContainsKey reports whether a YYYY-MM-DD key falls inside the period.
// Unparseable keys are never contained.
func (p Period) ContainsKey(key string) bool {
	tp, err := ParseDateKey(key, time.UTC)
	if err != nil {
		return false
	}
	return p.Contains(tp)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
