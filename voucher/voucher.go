// Package voucher decides whether a day of punches earns a meal voucher.
//
// The rule looks at raw punches only. Shifts, leave and holidays play no
// part, and each day is evaluated on its own.
package voucher

import (
	"time"

	"github.com/warp/attendance-engine/worktime"
)

// Rule holds the voucher thresholds.
//
// A day earns the voucher when one closed interval lasts at least
// MinContinuous, or when the closed intervals add up to at least MinTotal
// and the gaps between consecutive intervals add up to at most MaxBreak.
type Rule struct {
	MinContinuous time.Duration
	MinTotal      time.Duration
	MaxBreak      time.Duration
}

var DefaultRule = Rule{
	MinContinuous: 7 * time.Hour,
	MinTotal:      6 * time.Hour,
	MaxBreak:      2 * time.Hour,
}

type Reason string

const (
	ReasonContinuous   Reason = "continuous"     // one long interval
	ReasonSplitShift   Reason = "split_shift"    // enough hours, short break
	ReasonTooShort     Reason = "too_short"      // not enough hours
	ReasonBreakTooLong Reason = "break_too_long" // enough hours, break too long
)

// Decision explains the outcome of a Rule.
type Decision struct {
	Earned  bool
	Reason  Reason
	Longest time.Duration
	Worked  time.Duration
	Break   time.Duration
}

// Evaluate applies the rule to one day of punches.
func (r Rule) Evaluate(punches []worktime.Punch) Decision {
	intervals, _ := worktime.PairPunches(punches)

	var d Decision
	for i, iv := range intervals {
		dur := iv.Duration()
		d.Worked += dur
		if dur > d.Longest {
			d.Longest = dur
		}
		if i > 0 {
			if gap := iv.Start.Sub(intervals[i-1].End); gap > 0 {
				d.Break += gap
			}
		}
	}

	switch {
	case len(intervals) > 0 && d.Longest >= r.MinContinuous:
		d.Earned, d.Reason = true, ReasonContinuous
	case d.Worked < r.MinTotal || len(intervals) == 0:
		d.Reason = ReasonTooShort
	case d.Break > r.MaxBreak:
		d.Reason = ReasonBreakTooLong
	default:
		d.Earned, d.Reason = true, ReasonSplitShift
	}
	return d
}

// IsVoucherEarned applies DefaultRule.
func IsVoucherEarned(punches []worktime.Punch) bool {
	return DefaultRule.Evaluate(punches).Earned
}
