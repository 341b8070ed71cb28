/*
classifier.go - One day of punches into payroll buckets

PURPOSE:
  Classify turns a day's clock punches, its declarations and any manual
  overtime into a WorkDaySummary. It is a pure function: the same inputs
  always give a deep-equal summary, inputs are never modified, and bad
  punches are skipped instead of failing the day.

ALGORITHM:
  1. Pair punches (in → next out). Punches more than a day away from the
     classified date are ignored.
  2. Cut every closed interval at midnight and at the night-window edges.
     Each slice knows whether it is nocturnal and whether it falls on a
     holiday (today's flag before midnight, tomorrow's after).
  3. Auto-break: when the closed total exceeds the threshold, remove the
     break from the slices in BreakOrder, latest slice first.
  4. Holiday slices go to the holiday buckets when TreatHolidayAsOvertime.
  5. Other slices fill the standard quota in time order; the rest is
     excess. Manual overtime re-tags excess, earliest first, into the
     diurnal or nocturnal overtime bucket of the slice it takes.
  6. An on-call day with no closed interval books the on-call span
     (22:00 → 07:00 next day) as null hours.

INVARIANT:
  StandardWork + ExcessHours + OvertimeDiurnal + OvertimeNocturnal +
  OvertimeHoliday + OvertimeNocturnalHoliday == TotalWork

EXAMPLE:
  08:00-12:00, 13:00-17:00, 6h standard day, no night overlap:
    TotalWork 8h = StandardWork 6h + ExcessHours 2h

SEE ALSO:
  - night.go: Night window and slicing
  - intervals.go: Punch pairing
*/
package worktime

import (
	"time"

	"github.com/warp/attendance-engine/generic"
)

// On-call span, fixed by business rule.
const (
	OnCallStartHour = 22
	OnCallEndHour   = 7
)

// Upper bounds the settings factory enforces. The classifier clamps to
// them as well so out-of-range settings cannot overflow a duration.
const (
	MaxStandardHours    = 24
	MaxAutoBreakMinutes = 24 * 60
)

// Classify computes the categorized breakdown of worked time for date.
//
// nextDay is the following day's context; its Holiday flag applies to the
// part of any interval that runs past midnight.
func Classify(
	date generic.TimePoint,
	punches []Punch,
	day DayInfo,
	nextDay DayInfo,
	overtime []ManualOvertime,
	settings WorkSettings,
) WorkDaySummary {
	loc := settings.Location
	if loc == nil {
		loc = date.Time.Location()
	}
	today := generic.NewTimePointIn(date.Year(), date.Month(), date.Day(), loc)
	night := settings.NightWindow()

	// 1. Pair, after dropping punches outside the day ±1 day.
	lo, hi := today.AddDays(-1).Start(), today.AddDays(2).Start()
	kept := make([]Punch, 0, len(punches))
	for _, p := range punches {
		if p.Timestamp.Before(lo) || !p.Timestamp.Before(hi) {
			continue
		}
		kept = append(kept, p)
	}
	closed, open := PairPunches(kept)

	summary := WorkDaySummary{
		ClosedIntervals: len(closed),
		MissingPunch:    len(open) > 0,
	}

	// 2. Slice.
	tomorrow := today.AddDays(1).Start()
	var slices []slice
	for _, iv := range closed {
		for _, s := range cut(iv.Start, iv.End, night, loc) {
			if s.start.Before(tomorrow) {
				s.holiday = day.Holiday
			} else {
				s.holiday = nextDay.Holiday
			}
			slices = append(slices, s)
		}
	}

	// 3. Auto-break.
	gross := sumSlices(slices)
	if settings.DeductAutoBreak && settings.AutoBreakMinutes > 0 &&
		gross > generic.Hours(settings.AutoBreakThresholdHours) {
		brk := gross
		if int64(settings.AutoBreakMinutes) <= int64(gross/time.Minute) {
			brk = time.Duration(settings.AutoBreakMinutes) * time.Minute
		}
		summary.BreakDeducted = deductBreak(slices, brk, settings.BreakOrder)
	}

	// 4 + 5. Allocate.
	quota := standardQuota(day, settings)
	var excess []slice
	for _, s := range slices {
		if s.duration <= 0 {
			continue
		}
		summary.TotalWork += s.duration
		if s.nocturnal {
			summary.NocturnalWork += s.duration
		} else {
			summary.DiurnalWork += s.duration
		}

		if s.holiday && settings.TreatHolidayAsOvertime {
			if s.nocturnal {
				summary.OvertimeNocturnalHoliday += s.duration
			} else {
				summary.OvertimeHoliday += s.duration
			}
			continue
		}

		fill := min(quota, s.duration)
		quota -= fill
		summary.StandardWork += fill
		if rest := s.duration - fill; rest > 0 {
			s.duration = rest
			excess = append(excess, s)
		}
	}

	retag := manualOvertimeTotal(overtime)
	for _, s := range excess {
		take := min(retag, s.duration)
		retag -= take
		if s.nocturnal {
			summary.OvertimeNocturnal += take
		} else {
			summary.OvertimeDiurnal += take
		}
		summary.ExcessHours += s.duration - take
	}
	summary.UnmatchedOvertime = retag

	// 6. On-call without any worked interval.
	if len(closed) == 0 && day.IsOnCall() {
		summary.NullHours += onCallSpan(today)
	}

	return summary
}

// deductBreak removes brk from the slices in place and returns what was
// actually removed. Slices are consumed from the latest backwards within
// each pass.
func deductBreak(slices []slice, brk time.Duration, order BreakOrder) time.Duration {
	passes := []bool{false, true} // diurnal, then nocturnal
	if order == BreakNocturnalFirst {
		passes = []bool{true, false}
	}
	remaining := brk
	for _, nocturnal := range passes {
		for i := len(slices) - 1; i >= 0 && remaining > 0; i-- {
			if slices[i].nocturnal != nocturnal {
				continue
			}
			take := min(remaining, slices[i].duration)
			slices[i].duration -= take
			remaining -= take
		}
	}
	return brk - remaining
}

// standardQuota is the day's standard hours: the assigned shift's own
// figure when it has one, the settings-wide figure otherwise.
func standardQuota(day DayInfo, settings WorkSettings) time.Duration {
	hours := settings.StandardDayHours
	for _, id := range day.ShiftIDs() {
		if sh, ok := settings.Shift(id); ok && sh.StandardHours > 0 {
			hours = sh.StandardHours
			break
		}
	}
	if !(hours > 0) {
		return 0
	}
	return min(generic.Hours(hours), generic.Hours(MaxStandardHours))
}

func manualOvertimeTotal(entries []ManualOvertime) time.Duration {
	var total time.Duration
	for _, e := range entries {
		if e.Duration > 0 {
			total += e.Duration
		}
	}
	return total
}

func onCallSpan(day generic.TimePoint) time.Duration {
	return day.AddDays(1).At(OnCallEndHour, 0).Sub(day.At(OnCallStartHour, 0))
}

func sumSlices(slices []slice) time.Duration {
	var total time.Duration
	for _, s := range slices {
		total += s.duration
	}
	return total
}
