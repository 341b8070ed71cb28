// Package memory provides an in-memory Store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/attendance-engine/benefits"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/store"
	"github.com/warp/attendance-engine/worktime"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	punches  map[string][]worktime.Punch
	punchDay map[string]string // punch ID → date
	info     map[string]worktime.DayInfo
	overtime map[string][]worktime.ManualOvertime
	codes    benefits.Catalog
	settings []byte
}

var _ store.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		punches:  make(map[string][]worktime.Punch),
		punchDay: make(map[string]string),
		info:     make(map[string]worktime.DayInfo),
		overtime: make(map[string][]worktime.ManualOvertime),
	}
}

// AppendPunch adds a single punch. Append-only; an existing ID is rejected.
func (m *Memory) AppendPunch(_ context.Context, date string, p worktime.Punch) error {
	if err := store.CheckDate(date); err != nil {
		return err
	}
	if err := store.CheckPunch(p); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.punchDay[p.ID]; exists {
		return generic.ErrDuplicatePunch
	}
	m.punches[date] = append(m.punches[date], p)
	m.punchDay[p.ID] = date
	return nil
}

func (m *Memory) DeletePunch(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	date, ok := m.punchDay[id]
	if !ok {
		return generic.ErrNotFound
	}
	kept := m.punches[date][:0]
	for _, p := range m.punches[date] {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	m.punches[date] = kept
	delete(m.punchDay, id)
	return nil
}

func (m *Memory) SaveDayInfo(_ context.Context, date string, info worktime.DayInfo) error {
	if err := store.CheckDate(date); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.info[date] = info.Clone()
	return nil
}

func (m *Memory) AddOvertime(_ context.Context, date string, ot worktime.ManualOvertime) error {
	if err := store.CheckDate(date); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if ot.ID == "" {
		ot.ID = store.NewID()
	}
	for _, entries := range m.overtime {
		for _, existing := range entries {
			if existing.ID == ot.ID {
				return generic.ErrDuplicateOvertime
			}
		}
	}
	ot.SourcePunchIDs = append([]string(nil), ot.SourcePunchIDs...)
	m.overtime[date] = append(m.overtime[date], ot)
	return nil
}

func (m *Memory) DeleteOvertime(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for date, entries := range m.overtime {
		for i, ot := range entries {
			if ot.ID == id {
				m.overtime[date] = append(entries[:i:i], entries[i+1:]...)
				return nil
			}
		}
	}
	return generic.ErrNotFound
}

func (m *Memory) GetDay(_ context.Context, date string) (store.DayRecord, error) {
	if err := store.CheckDate(date); err != nil {
		return store.DayRecord{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.recordLocked(date), nil
}

func (m *Memory) LoadRange(_ context.Context, from, to string) ([]store.DayRecord, error) {
	if err := store.CheckDate(from); err != nil {
		return nil, err
	}
	if err := store.CheckDate(to); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	dates := make(map[string]bool)
	for date := range m.punches {
		dates[date] = true
	}
	for date := range m.info {
		dates[date] = true
	}
	for date := range m.overtime {
		dates[date] = true
	}

	var result []store.DayRecord
	for date := range dates {
		if date < from || date > to {
			continue
		}
		if r := m.recordLocked(date); !r.IsEmpty() {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result, nil
}

// recordLocked assembles a copy of the stored record. Caller holds mu.
func (m *Memory) recordLocked(date string) store.DayRecord {
	r := store.DayRecord{
		Date:    date,
		Punches: append([]worktime.Punch(nil), m.punches[date]...),
		Info:    m.info[date].Clone(),
	}
	for _, ot := range m.overtime[date] {
		ot.SourcePunchIDs = append([]string(nil), ot.SourcePunchIDs...)
		r.Overtime = append(r.Overtime, ot)
	}
	return r
}

func (m *Memory) ListCodes(_ context.Context) (benefits.Catalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append(benefits.Catalog(nil), m.codes...), nil
}

func (m *Memory) SaveCode(_ context.Context, item benefits.StatusItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.codes {
		if existing.Code == item.Code && existing.Year == item.Year {
			m.codes[i] = item
			return nil
		}
	}
	m.codes = append(m.codes, item)
	return nil
}

func (m *Memory) LoadSettings(_ context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.settings == nil {
		return nil, generic.ErrNotFound
	}
	return append([]byte(nil), m.settings...), nil
}

func (m *Memory) SaveSettings(_ context.Context, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings = append([]byte(nil), doc...)
	return nil
}
