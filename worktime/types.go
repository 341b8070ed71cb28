// Package worktime classifies one day of clock punches into the worked-time
// categories used for payroll and compliance.
// It is a pure calculation package: no I/O, no logging, no shared state.
package worktime

import (
	"time"

	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// PUNCHES
// =============================================================================

type PunchType string

const (
	PunchIn  PunchType = "in"
	PunchOut PunchType = "out"
)

func (t PunchType) Valid() bool { return t == PunchIn || t == PunchOut }

// Punch is a single clock-in or clock-out event. Punches are stored unordered.
type Punch struct {
	ID        string
	Type      PunchType
	Timestamp time.Time
}

// Interval is a derived in→out pairing. It is never stored.
type Interval struct {
	Start time.Time
	End   time.Time
	InID  string
	OutID string
}

func (iv Interval) Duration() time.Duration { return iv.End.Sub(iv.Start) }

// =============================================================================
// DAY CONTEXT
// =============================================================================

type EventKind string

const (
	EventShift  EventKind = "shift"
	EventLeave  EventKind = "leave"
	EventOnCall EventKind = "on_call"
)

// Leave declares an absence against a benefit code. Hours is only meaningful
// for hour-based codes.
type Leave struct {
	BenefitCode string   `json:"benefit_code"`
	Hours       *float64 `json:"hours,omitempty"`
}

// DayEvent is one declaration on a day. Exactly one of ShiftID/Leave is set
// depending on Kind; on-call events carry nothing else.
type DayEvent struct {
	Kind    EventKind `json:"kind"`
	ShiftID string    `json:"shift_id,omitempty"`
	Leave   *Leave    `json:"leave,omitempty"`
}

// DayInfo is what a day declares. Events, when present, is authoritative;
// ShiftID, Leave and OnCall are the legacy single-valued view of the same day.
// Holiday is set by the caller's calendar and trusted verbatim.
type DayInfo struct {
	ShiftID string     `json:"shift_id,omitempty"`
	Leave   *Leave     `json:"leave,omitempty"`
	OnCall  bool       `json:"on_call,omitempty"`
	Holiday bool       `json:"holiday,omitempty"`
	Events  []DayEvent `json:"events,omitempty"`
}

// ManualOvertime is operator-declared extra time. BenefitCode is the free-text
// tag matched against a code description; BenefitCodeRef, when set, names the
// code directly and wins over the tag.
type ManualOvertime struct {
	ID             string
	Duration       time.Duration
	BenefitCode    string
	BenefitCodeRef string
	Note           string
	SourcePunchIDs []string
}

// =============================================================================
// SETTINGS
// =============================================================================

// Shift is a named schedule. StandardHours, when positive, replaces the
// settings-wide daily quota on days the shift is assigned.
type Shift struct {
	ID            string  `json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	Start         string  `json:"start" yaml:"start"`
	End           string  `json:"end" yaml:"end"`
	StandardHours float64 `json:"standard_hours,omitempty" yaml:"standard_hours,omitempty"`
}

// BreakOrder decides which part of the day pays for the automatic break.
type BreakOrder string

const (
	BreakDiurnalFirst   BreakOrder = "diurnal_first"
	BreakNocturnalFirst BreakOrder = "nocturnal_first"
)

type WorkSettings struct {
	StandardDayHours        float64
	NightWindowStartHour    int
	NightWindowEndHour      int
	TreatHolidayAsOvertime  bool
	DeductAutoBreak         bool
	AutoBreakThresholdHours float64
	AutoBreakMinutes        int
	BreakOrder              BreakOrder
	Shifts                  []Shift

	// Location anchors wall-clock rules (night window, on-call span).
	// Nil means the location of the classified date.
	Location *time.Location
}

// Shift returns the shift definition with the given ID.
func (s WorkSettings) Shift(id string) (Shift, bool) {
	for _, sh := range s.Shifts {
		if sh.ID == id {
			return sh, true
		}
	}
	return Shift{}, false
}

func (s WorkSettings) NightWindow() NightWindow {
	return NightWindow{StartHour: s.NightWindowStartHour, EndHour: s.NightWindowEndHour}
}

// =============================================================================
// SUMMARY
// =============================================================================

// WorkDaySummary is the categorized breakdown of one day.
//
// The six worked buckets (StandardWork through OvertimeNocturnalHoliday)
// partition TotalWork exactly. NullHours is declared-but-unworked time and
// sits outside the partition, as do the informational fields below it.
type WorkDaySummary struct {
	TotalWork                time.Duration
	StandardWork             time.Duration
	ExcessHours              time.Duration
	OvertimeDiurnal          time.Duration
	OvertimeNocturnal        time.Duration
	OvertimeHoliday          time.Duration
	OvertimeNocturnalHoliday time.Duration
	NullHours                time.Duration

	DiurnalWork       time.Duration
	NocturnalWork     time.Duration
	BreakDeducted     time.Duration
	UnmatchedOvertime time.Duration
	ClosedIntervals   int
	MissingPunch      bool
}

// BucketSum adds up the six partition buckets. It equals TotalWork.
func (s WorkDaySummary) BucketSum() time.Duration {
	return s.StandardWork + s.ExcessHours +
		s.OvertimeDiurnal + s.OvertimeNocturnal +
		s.OvertimeHoliday + s.OvertimeNocturnalHoliday
}

// Hours renders a bucket as decimal hours for ledgers and displays.
func Hours(d time.Duration) generic.Amount {
	return generic.NewAmountFromDuration(d, generic.UnitHours)
}
