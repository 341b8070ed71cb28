/*
Package store defines persistence for attendance records.

PURPOSE:
  The engine is pure; this package is where its inputs live between calls.
  Every record is filed under the date key (YYYY-MM-DD) of the work day it
  belongs to. A night shift that clocks out after midnight keeps both
  punches under the day it started.

RECORDS:
  punches         append-only, unique by ID (retries are safe)
  day info        one document per date, replaced as a whole
  manual overtime many per date, deletable by ID
  benefit codes   upserted by (code, year)
  settings        one settings document, replaced as a whole

IMPLEMENTATIONS:
  - store/memory: maps behind a RWMutex, for tests and dev
  - store/sqlite: database/sql + go-sqlite3

SEE ALSO:
  - api/handlers.go: Reads records and feeds the engine
*/
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/warp/attendance-engine/benefits"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/worktime"
)

// DayRecord is everything stored for one date.
type DayRecord struct {
	Date     string
	Punches  []worktime.Punch
	Info     worktime.DayInfo
	Overtime []worktime.ManualOvertime
}

// IsEmpty reports whether nothing is stored for the date.
func (r DayRecord) IsEmpty() bool {
	return len(r.Punches) == 0 && len(r.Overtime) == 0 &&
		len(r.Info.Normalize()) == 0 && !r.Info.Holiday
}

// Store persists attendance records.
type Store interface {
	// AppendPunch stores a punch under date. Returns ErrDuplicatePunch when
	// the ID is already stored.
	AppendPunch(ctx context.Context, date string, p worktime.Punch) error

	// DeletePunch removes a punch. Returns ErrNotFound for an unknown ID.
	DeletePunch(ctx context.Context, id string) error

	// SaveDayInfo replaces the day context of date.
	SaveDayInfo(ctx context.Context, date string, info worktime.DayInfo) error

	// AddOvertime stores a manual overtime entry under date. Returns
	// ErrDuplicateOvertime when the ID is already stored.
	AddOvertime(ctx context.Context, date string, ot worktime.ManualOvertime) error

	// DeleteOvertime removes an overtime entry. Returns ErrNotFound for an unknown ID.
	DeleteOvertime(ctx context.Context, id string) error

	// GetDay returns the record of date. A date with nothing stored gives an
	// empty record, not an error.
	GetDay(ctx context.Context, date string) (DayRecord, error)

	// LoadRange returns the non-empty records with from <= date <= to,
	// sorted by date.
	LoadRange(ctx context.Context, from, to string) ([]DayRecord, error)

	// ListCodes returns the benefit-code catalog in insertion order.
	ListCodes(ctx context.Context) (benefits.Catalog, error)

	// SaveCode inserts or replaces a code, keyed by (code, year).
	SaveCode(ctx context.Context, item benefits.StatusItem) error

	// LoadSettings returns the stored settings document, ErrNotFound when none.
	LoadSettings(ctx context.Context) ([]byte, error)

	// SaveSettings replaces the settings document.
	SaveSettings(ctx context.Context, doc []byte) error
}

// =============================================================================
// HELPERS
// =============================================================================

// NewID returns a fresh record ID.
func NewID() string {
	return uuid.New().String()
}

// CheckDate validates a date key.
func CheckDate(date string) error {
	_, err := generic.ParseDateKey(date, time.UTC)
	return err
}

// CheckPunch validates a punch before it is stored.
func CheckPunch(p worktime.Punch) error {
	if p.ID == "" || !p.Type.Valid() || p.Timestamp.IsZero() {
		return generic.ErrInvalidPunch
	}
	return nil
}

// YearRange returns the first and last date keys of year.
func YearRange(year int) (string, string) {
	p := generic.YearPeriod(year)
	return p.Start.Key(), p.End.Key()
}

// Split turns records into the per-date maps the ledger consumes.
func Split(records []DayRecord) (map[string]worktime.DayInfo, map[string][]worktime.ManualOvertime) {
	days := make(map[string]worktime.DayInfo, len(records))
	overtime := make(map[string][]worktime.ManualOvertime, len(records))
	for _, r := range records {
		days[r.Date] = r.Info
		if len(r.Overtime) > 0 {
			overtime[r.Date] = r.Overtime
		}
	}
	return days, overtime
}
