package worktime

import (
	"sort"
	"time"
)

// =============================================================================
// PAIRING - in → next out
// =============================================================================

// IssueKind classifies a punch that could not be paired cleanly.
type IssueKind string

const (
	IssueOrphanOut  IssueKind = "orphan_out"   // out with no preceding open in
	IssueMissingOut IssueKind = "missing_out"  // in never closed
	IssueDuplicate  IssueKind = "duplicate_in" // in while another in was open
	IssueZeroLength IssueKind = "zero_length"  // out at the same instant as its in
	IssueInvalid    IssueKind = "invalid"      // unknown type or zero timestamp
)

type PunchIssue struct {
	Kind    IssueKind
	PunchID string
	At      time.Time
}

type pairing struct {
	closed []Interval
	open   []Punch
	issues []PunchIssue
}

// SortPunches returns a chronologically sorted copy. At equal instants an out
// sorts before an in, so "out 12:00, in 12:00" stays two intervals.
func SortPunches(punches []Punch) []Punch {
	sorted := make([]Punch, len(punches))
	copy(sorted, punches)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.Type != b.Type {
			return a.Type == PunchOut
		}
		return a.ID < b.ID
	})
	return sorted
}

func pair(punches []Punch) pairing {
	var (
		p       pairing
		current *Punch
	)
	for _, punch := range SortPunches(punches) {
		if !punch.Type.Valid() || punch.Timestamp.IsZero() {
			p.issues = append(p.issues, PunchIssue{Kind: IssueInvalid, PunchID: punch.ID, At: punch.Timestamp})
			continue
		}
		switch punch.Type {
		case PunchIn:
			if current != nil {
				p.open = append(p.open, *current)
				p.issues = append(p.issues, PunchIssue{Kind: IssueDuplicate, PunchID: current.ID, At: current.Timestamp})
			}
			current = &punch
		case PunchOut:
			if current == nil {
				p.issues = append(p.issues, PunchIssue{Kind: IssueOrphanOut, PunchID: punch.ID, At: punch.Timestamp})
				continue
			}
			if !punch.Timestamp.After(current.Timestamp) {
				p.issues = append(p.issues, PunchIssue{Kind: IssueZeroLength, PunchID: punch.ID, At: punch.Timestamp})
				current = nil
				continue
			}
			p.closed = append(p.closed, Interval{
				Start: current.Timestamp,
				End:   punch.Timestamp,
				InID:  current.ID,
				OutID: punch.ID,
			})
			current = nil
		}
	}
	if current != nil {
		p.open = append(p.open, *current)
		p.issues = append(p.issues, PunchIssue{Kind: IssueMissingOut, PunchID: current.ID, At: current.Timestamp})
	}
	return p
}

// PairPunches pairs each in with the next chronological out.
//
// Malformed punches are dropped: an out with nothing open, an out that does
// not come after its in, and punches with an unknown type or no timestamp.
// Ins that never close are returned as open.
func PairPunches(punches []Punch) (closed []Interval, open []Punch) {
	p := pair(punches)
	return p.closed, p.open
}

// ReviewPunches lists every punch the pairing had to drop or leave open.
// An empty result means the day pairs cleanly.
func ReviewPunches(punches []Punch) []PunchIssue {
	return pair(punches).issues
}

// NeedsReview reports whether the day has any pairing issue.
func NeedsReview(punches []Punch) bool {
	return len(ReviewPunches(punches)) > 0
}

// TotalDuration sums the lengths of the intervals.
func TotalDuration(intervals []Interval) time.Duration {
	var total time.Duration
	for _, iv := range intervals {
		total += iv.Duration()
	}
	return total
}
