package worktime

import (
	"sort"
	"time"

	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// NIGHT WINDOW - [StartHour, EndHour), may wrap midnight
// =============================================================================

// NightWindow is the clock-hour range treated as nocturnal. 22→6 wraps past
// midnight. A zero-length or out-of-range window disables the night
// differential.
type NightWindow struct {
	StartHour int
	EndHour   int
}

func (w NightWindow) Active() bool {
	if w.StartHour == w.EndHour {
		return false
	}
	return inHourRange(w.StartHour) && inHourRange(w.EndHour)
}

func (w NightWindow) wraps() bool { return w.EndHour < w.StartHour }

// Contains reports whether the wall-clock instant t (in loc) is nocturnal.
// The window start belongs to the night, the window end does not.
func (w NightWindow) Contains(t time.Time, loc *time.Location) bool {
	if !w.Active() {
		return false
	}
	t = t.In(loc)
	tod := time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
	start := time.Duration(w.StartHour) * time.Hour
	end := time.Duration(w.EndHour) * time.Hour
	if w.wraps() {
		return tod >= start || tod < end
	}
	return tod >= start && tod < end
}

// Split divides an interval into its diurnal and nocturnal parts.
// diurnal + nocturnal always equals iv.Duration().
func (w NightWindow) Split(iv Interval, loc *time.Location) (diurnal, nocturnal time.Duration) {
	if loc == nil {
		loc = iv.Start.Location()
	}
	for _, s := range cut(iv.Start, iv.End, w, loc) {
		if s.nocturnal {
			nocturnal += s.duration
		} else {
			diurnal += s.duration
		}
	}
	return diurnal, nocturnal
}

// boundaries returns the night-window edges and midnights of every calendar
// day that can touch [start, end), strictly inside the interval.
func boundaries(start, end time.Time, w NightWindow, loc *time.Location) []time.Time {
	var cuts []time.Time
	add := func(t time.Time) {
		if t.After(start) && t.Before(end) {
			cuts = append(cuts, t)
		}
	}
	day := generic.DayOf(start.In(loc)).AddDays(-1)
	last := generic.DayOf(end.In(loc))
	for !day.After(last) {
		add(day.Start())
		if w.Active() {
			add(day.At(w.StartHour, 0))
			add(day.At(w.EndHour, 0))
		}
		day = day.AddDays(1)
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i].Before(cuts[j]) })
	return cuts
}

// slice is a chronological piece of worked time that lies entirely on one
// side of every night boundary and within one calendar day.
type slice struct {
	start     time.Time
	duration  time.Duration
	nocturnal bool
	holiday   bool
}

func cut(start, end time.Time, w NightWindow, loc *time.Location) []slice {
	var out []slice
	from := start
	for _, c := range append(boundaries(start, end, w, loc), end) {
		if !c.After(from) {
			continue
		}
		out = append(out, slice{
			start:     from,
			duration:  c.Sub(from),
			nocturnal: w.Contains(from, loc),
		})
		from = c
	}
	return out
}

func inHourRange(h int) bool { return h >= 0 && h < 24 }
