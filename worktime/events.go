package worktime

// Normalize returns the day's declarations as a list of typed events.
//
// When Events is non-empty it is authoritative and the legacy fields are
// ignored, so a day is never counted twice. The returned slice is a copy.
func (d DayInfo) Normalize() []DayEvent {
	if len(d.Events) > 0 {
		events := make([]DayEvent, 0, len(d.Events))
		for _, e := range d.Events {
			if e.Kind == EventLeave && e.Leave == nil {
				continue
			}
			if e.Leave != nil {
				l := *e.Leave
				e.Leave = &l
			}
			events = append(events, e)
		}
		return events
	}

	var events []DayEvent
	if d.ShiftID != "" {
		events = append(events, DayEvent{Kind: EventShift, ShiftID: d.ShiftID})
	}
	if d.Leave != nil {
		l := *d.Leave
		events = append(events, DayEvent{Kind: EventLeave, Leave: &l})
	}
	if d.OnCall {
		events = append(events, DayEvent{Kind: EventOnCall})
	}
	return events
}

// IsOnCall reports whether any declaration marks the day as on-call.
func (d DayInfo) IsOnCall() bool {
	for _, e := range d.Normalize() {
		if e.Kind == EventOnCall {
			return true
		}
	}
	return false
}

// ShiftIDs lists the assigned shifts in declaration order.
func (d DayInfo) ShiftIDs() []string {
	var ids []string
	for _, e := range d.Normalize() {
		if e.Kind == EventShift && e.ShiftID != "" {
			ids = append(ids, e.ShiftID)
		}
	}
	return ids
}

// Leaves lists the declared absences in declaration order.
func (d DayInfo) Leaves() []Leave {
	var leaves []Leave
	for _, e := range d.Normalize() {
		if e.Kind == EventLeave && e.Leave != nil {
			leaves = append(leaves, *e.Leave)
		}
	}
	return leaves
}

// Clone returns a deep copy of the day context.
func (d DayInfo) Clone() DayInfo {
	out := d
	if d.Leave != nil {
		l := d.Leave.clone()
		out.Leave = &l
	}
	if d.Events != nil {
		out.Events = make([]DayEvent, len(d.Events))
		for i, e := range d.Events {
			if e.Leave != nil {
				l := e.Leave.clone()
				e.Leave = &l
			}
			out.Events[i] = e
		}
	}
	return out
}

func (l Leave) clone() Leave {
	if l.Hours != nil {
		h := *l.Hours
		l.Hours = &h
	}
	return l
}
