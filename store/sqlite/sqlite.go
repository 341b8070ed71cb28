/*
Package sqlite provides a SQLite-backed implementation of store.Store.

KEY TABLES:
  punches          append-only clock events, primary key = punch ID
  day_info         one JSON day-context document per date
  manual_overtime  operator-declared overtime, durations in milliseconds
  benefit_codes    catalog, primary key = (code, year), position keeps order
  settings         single-row settings document

IDEMPOTENCY:
  A punch ID can be written once. A retried append fails with
  generic.ErrDuplicatePunch and leaves the stored punch untouched.

TIMESTAMPS:
  Stored as fixed-width RFC3339 with nanoseconds in UTC, so lexical
  order is time order. Wall-clock rules (night window, on-call) are
  applied by the engine in the configured location, never here.

WAL MODE:
  Opened with WAL so readers do not block the single writer.

USAGE:
  s, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer s.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - store/store.go: Interface
  - store/memory: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/warp/attendance-engine/benefits"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/store"
	"github.com/warp/attendance-engine/worktime"
)

// Fixed-width so that lexical order matches time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ store.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Punches (append-only)
	CREATE TABLE IF NOT EXISTS punches (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		punch_type TEXT NOT NULL,
		ts TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_punches_date
		ON punches(date, ts);

	-- Day context
	CREATE TABLE IF NOT EXISTS day_info (
		date TEXT PRIMARY KEY,
		info_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Manual overtime
	CREATE TABLE IF NOT EXISTS manual_overtime (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		benefit_code TEXT,
		benefit_code_ref TEXT,
		note TEXT,
		source_punch_ids_json TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_manual_overtime_date
		ON manual_overtime(date);

	-- Benefit-code catalog
	CREATE TABLE IF NOT EXISTS benefit_codes (
		code TEXT NOT NULL,
		year INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL,
		class TEXT NOT NULL,
		entitlement TEXT NOT NULL,
		category TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (code, year)
	);

	-- Settings (single row)
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		doc TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PUNCHES
// =============================================================================

// AppendPunch adds a single punch. Append-only.
func (s *Store) AppendPunch(ctx context.Context, date string, p worktime.Punch) error {
	if err := store.CheckDate(date); err != nil {
		return err
	}
	if err := store.CheckPunch(p); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO punches (id, date, punch_type, ts, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		date,
		string(p.Type),
		p.Timestamp.UTC().Format(timestampLayout),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicatePunch
		}
		return fmt.Errorf("failed to append punch: %w", err)
	}
	return nil
}

// DeletePunch removes a punch by ID.
func (s *Store) DeletePunch(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteByID(ctx, "DELETE FROM punches WHERE id = ?", id)
}

func (s *Store) queryPunches(ctx context.Context, query string, args ...any) (map[string][]worktime.Punch, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query punches: %w", err)
	}
	defer rows.Close()

	punches := make(map[string][]worktime.Punch)
	for rows.Next() {
		var (
			p     worktime.Punch
			date  string
			typ   string
			stamp string
		)
		if err := rows.Scan(&p.ID, &date, &typ, &stamp); err != nil {
			return nil, fmt.Errorf("failed to scan punch: %w", err)
		}
		p.Type = worktime.PunchType(typ)
		p.Timestamp, err = time.Parse(timestampLayout, stamp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse punch %s timestamp: %w", p.ID, err)
		}
		punches[date] = append(punches[date], p)
	}
	return punches, rows.Err()
}

// =============================================================================
// DAY INFO
// =============================================================================

// SaveDayInfo replaces the day context of date.
func (s *Store) SaveDayInfo(ctx context.Context, date string, info worktime.DayInfo) error {
	if err := store.CheckDate(date); err != nil {
		return err
	}
	infoJSON, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to encode day info: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO day_info (date, info_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			info_json = excluded.info_json,
			updated_at = excluded.updated_at
	`

	_, err = s.db.ExecContext(ctx, query, date, string(infoJSON), time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *Store) queryDayInfo(ctx context.Context, query string, args ...any) (map[string]worktime.DayInfo, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query day info: %w", err)
	}
	defer rows.Close()

	infos := make(map[string]worktime.DayInfo)
	for rows.Next() {
		var date, infoJSON string
		if err := rows.Scan(&date, &infoJSON); err != nil {
			return nil, fmt.Errorf("failed to scan day info: %w", err)
		}
		var info worktime.DayInfo
		if err := json.Unmarshal([]byte(infoJSON), &info); err != nil {
			return nil, fmt.Errorf("failed to decode day info %s: %w", date, err)
		}
		infos[date] = info
	}
	return infos, rows.Err()
}

// =============================================================================
// MANUAL OVERTIME
// =============================================================================

// AddOvertime stores a manual overtime entry. A missing ID is generated.
func (s *Store) AddOvertime(ctx context.Context, date string, ot worktime.ManualOvertime) error {
	if err := store.CheckDate(date); err != nil {
		return err
	}
	if ot.ID == "" {
		ot.ID = store.NewID()
	}
	sourceJSON, _ := json.Marshal(ot.SourcePunchIDs)

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO manual_overtime
		(id, date, duration_ms, benefit_code, benefit_code_ref, note, source_punch_ids_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		ot.ID,
		date,
		ot.Duration.Milliseconds(),
		nullString(ot.BenefitCode),
		nullString(ot.BenefitCodeRef),
		nullString(ot.Note),
		string(sourceJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateOvertime
		}
		return fmt.Errorf("failed to add overtime: %w", err)
	}
	return nil
}

// DeleteOvertime removes an overtime entry by ID.
func (s *Store) DeleteOvertime(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteByID(ctx, "DELETE FROM manual_overtime WHERE id = ?", id)
}

func (s *Store) queryOvertime(ctx context.Context, query string, args ...any) (map[string][]worktime.ManualOvertime, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query overtime: %w", err)
	}
	defer rows.Close()

	overtime := make(map[string][]worktime.ManualOvertime)
	for rows.Next() {
		var (
			ot         worktime.ManualOvertime
			date       string
			durationMs int64
			code       sql.NullString
			ref        sql.NullString
			note       sql.NullString
			sourceJSON sql.NullString
		)
		if err := rows.Scan(&ot.ID, &date, &durationMs, &code, &ref, &note, &sourceJSON); err != nil {
			return nil, fmt.Errorf("failed to scan overtime: %w", err)
		}
		ot.Duration = time.Duration(durationMs) * time.Millisecond
		ot.BenefitCode = code.String
		ot.BenefitCodeRef = ref.String
		ot.Note = note.String
		if sourceJSON.Valid && sourceJSON.String != "" {
			json.Unmarshal([]byte(sourceJSON.String), &ot.SourcePunchIDs)
		}
		overtime[date] = append(overtime[date], ot)
	}
	return overtime, rows.Err()
}

// =============================================================================
// DAY RECORDS
// =============================================================================

// GetDay returns everything stored for date.
func (s *Store) GetDay(ctx context.Context, date string) (store.DayRecord, error) {
	if err := store.CheckDate(date); err != nil {
		return store.DayRecord{}, err
	}
	records, err := s.load(ctx, date, date)
	if err != nil {
		return store.DayRecord{}, err
	}
	if r, ok := records[date]; ok {
		return r, nil
	}
	return store.DayRecord{Date: date}, nil
}

// LoadRange returns the records with from <= date <= to, sorted by date.
func (s *Store) LoadRange(ctx context.Context, from, to string) ([]store.DayRecord, error) {
	if err := store.CheckDate(from); err != nil {
		return nil, err
	}
	if err := store.CheckDate(to); err != nil {
		return nil, err
	}
	records, err := s.load(ctx, from, to)
	if err != nil {
		return nil, err
	}

	result := make([]store.DayRecord, 0, len(records))
	for _, r := range records {
		if !r.IsEmpty() {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result, nil
}

func (s *Store) load(ctx context.Context, from, to string) (map[string]store.DayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	punches, err := s.queryPunches(ctx, `
		SELECT id, date, punch_type, ts FROM punches
		WHERE date BETWEEN ? AND ?
		ORDER BY date ASC, ts ASC, id ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	infos, err := s.queryDayInfo(ctx, `
		SELECT date, info_json FROM day_info
		WHERE date BETWEEN ? AND ?
	`, from, to)
	if err != nil {
		return nil, err
	}
	overtime, err := s.queryOvertime(ctx, `
		SELECT id, date, duration_ms, benefit_code, benefit_code_ref, note, source_punch_ids_json
		FROM manual_overtime
		WHERE date BETWEEN ? AND ?
		ORDER BY date ASC, created_at ASC, rowid ASC
	`, from, to)
	if err != nil {
		return nil, err
	}

	records := make(map[string]store.DayRecord)
	get := func(date string) store.DayRecord {
		if r, ok := records[date]; ok {
			return r
		}
		return store.DayRecord{Date: date}
	}
	for date, ps := range punches {
		r := get(date)
		r.Punches = ps
		records[date] = r
	}
	for date, info := range infos {
		r := get(date)
		r.Info = info
		records[date] = r
	}
	for date, ots := range overtime {
		r := get(date)
		r.Overtime = ots
		records[date] = r
	}
	return records, nil
}

// =============================================================================
// BENEFIT CODES
// =============================================================================

// SaveCode inserts or replaces a code. A replaced code keeps its position.
func (s *Store) SaveCode(ctx context.Context, item benefits.StatusItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO benefit_codes (code, year, description, class, entitlement, category, position)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM benefit_codes))
		ON CONFLICT(code, year) DO UPDATE SET
			description = excluded.description,
			class = excluded.class,
			entitlement = excluded.entitlement,
			category = excluded.category
	`

	_, err := s.db.ExecContext(ctx, query,
		item.Code,
		item.Year,
		item.Description,
		string(item.Class),
		item.Entitlement.String(),
		string(item.Category),
	)
	if err != nil {
		return fmt.Errorf("failed to save benefit code: %w", err)
	}
	return nil
}

// ListCodes returns the catalog in insertion order.
func (s *Store) ListCodes(ctx context.Context) (benefits.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT code, year, description, class, entitlement, category
		FROM benefit_codes
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query benefit codes: %w", err)
	}
	defer rows.Close()

	var catalog benefits.Catalog
	for rows.Next() {
		var (
			item        benefits.StatusItem
			class       string
			entitlement string
			category    string
		)
		if err := rows.Scan(&item.Code, &item.Year, &item.Description, &class, &entitlement, &category); err != nil {
			return nil, fmt.Errorf("failed to scan benefit code: %w", err)
		}
		item.Class = benefits.Class(class)
		item.Category = benefits.Category(category)
		item.Entitlement = generic.MustParseDecimal(entitlement)
		catalog = append(catalog, item)
	}
	return catalog, rows.Err()
}

// =============================================================================
// SETTINGS
// =============================================================================

func (s *Store) LoadSettings(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT doc FROM settings WHERE id = 1").Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return []byte(doc), nil
}

func (s *Store) SaveSettings(ctx context.Context, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO settings (id, doc, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			doc = excluded.doc,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, string(doc), time.Now().UTC().Format(time.RFC3339))
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

// deleteByID runs a single-row delete. Caller holds mu.
func (s *Store) deleteByID(ctx context.Context, query, id string) error {
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return generic.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
