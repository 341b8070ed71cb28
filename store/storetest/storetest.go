// Package storetest holds the behaviour every store.Store must share.
// Implementations call Run from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/benefits"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/store"
	"github.com/warp/attendance-engine/worktime"
)

// Factory returns an empty store.
type Factory func(t *testing.T) store.Store

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("PunchAppendIsIdempotentByID", func(t *testing.T) { testPunchIdempotency(t, newStore(t)) })
	t.Run("PunchValidation", func(t *testing.T) { testPunchValidation(t, newStore(t)) })
	t.Run("DeletePunch", func(t *testing.T) { testDeletePunch(t, newStore(t)) })
	t.Run("DayInfoReplaced", func(t *testing.T) { testDayInfo(t, newStore(t)) })
	t.Run("Overtime", func(t *testing.T) { testOvertime(t, newStore(t)) })
	t.Run("LoadRange", func(t *testing.T) { testLoadRange(t, newStore(t)) })
	t.Run("Codes", func(t *testing.T) { testCodes(t, newStore(t)) })
	t.Run("Settings", func(t *testing.T) { testSettings(t, newStore(t)) })
}

func ts(day, hour int) time.Time {
	return time.Date(2025, time.March, day, hour, 0, 0, 0, time.UTC)
}

func testPunchIdempotency(t *testing.T, s store.Store) {
	ctx := context.Background()
	p := worktime.Punch{ID: "p1", Type: worktime.PunchIn, Timestamp: ts(10, 8)}

	require.NoError(t, s.AppendPunch(ctx, "2025-03-10", p))
	err := s.AppendPunch(ctx, "2025-03-10", worktime.Punch{ID: "p1", Type: worktime.PunchOut, Timestamp: ts(10, 9)})
	assert.ErrorIs(t, err, generic.ErrDuplicatePunch)

	day, err := s.GetDay(ctx, "2025-03-10")
	require.NoError(t, err)
	require.Len(t, day.Punches, 1)
	assert.Equal(t, worktime.PunchIn, day.Punches[0].Type, "first write wins")
	assert.True(t, p.Timestamp.Equal(day.Punches[0].Timestamp))
}

func testPunchValidation(t *testing.T, s store.Store) {
	ctx := context.Background()

	err := s.AppendPunch(ctx, "10/03/2025", worktime.Punch{ID: "x", Type: worktime.PunchIn, Timestamp: ts(10, 8)})
	assert.ErrorIs(t, err, generic.ErrInvalidDateKey)

	err = s.AppendPunch(ctx, "2025-03-10", worktime.Punch{ID: "x", Type: "pause", Timestamp: ts(10, 8)})
	assert.ErrorIs(t, err, generic.ErrInvalidPunch)

	err = s.AppendPunch(ctx, "2025-03-10", worktime.Punch{ID: "x", Type: worktime.PunchIn})
	assert.ErrorIs(t, err, generic.ErrInvalidPunch)
}

func testDeletePunch(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.AppendPunch(ctx, "2025-03-10", worktime.Punch{ID: "a", Type: worktime.PunchIn, Timestamp: ts(10, 8)}))
	require.NoError(t, s.AppendPunch(ctx, "2025-03-10", worktime.Punch{ID: "b", Type: worktime.PunchOut, Timestamp: ts(10, 12)}))

	require.NoError(t, s.DeletePunch(ctx, "a"))
	assert.ErrorIs(t, s.DeletePunch(ctx, "a"), generic.ErrNotFound)

	day, err := s.GetDay(ctx, "2025-03-10")
	require.NoError(t, err)
	require.Len(t, day.Punches, 1)
	assert.Equal(t, "b", day.Punches[0].ID)

	// The ID is free again once deleted.
	assert.NoError(t, s.AppendPunch(ctx, "2025-03-10", worktime.Punch{ID: "a", Type: worktime.PunchIn, Timestamp: ts(10, 9)}))
}

func testDayInfo(t *testing.T, s store.Store) {
	ctx := context.Background()
	hours := 4.0

	require.NoError(t, s.SaveDayInfo(ctx, "2025-03-10", worktime.DayInfo{ShiftID: "morning", OnCall: true}))
	require.NoError(t, s.SaveDayInfo(ctx, "2025-03-10", worktime.DayInfo{
		Holiday: true,
		Events: []worktime.DayEvent{
			{Kind: worktime.EventLeave, Leave: &worktime.Leave{BenefitCode: "40", Hours: &hours}},
		},
	}))

	day, err := s.GetDay(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Empty(t, day.Info.ShiftID)
	assert.False(t, day.Info.OnCall)
	assert.True(t, day.Info.Holiday)
	require.Len(t, day.Info.Leaves(), 1)
	assert.Equal(t, 4.0, *day.Info.Leaves()[0].Hours)

	empty, err := s.GetDay(ctx, "2025-03-11")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, "2025-03-11", empty.Date)
}

func testOvertime(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.AddOvertime(ctx, "2025-03-10", worktime.ManualOvertime{
		ID:             "ot-1",
		Duration:       90 * time.Minute,
		BenefitCode:    "Straordinario",
		Note:           "release night",
		SourcePunchIDs: []string{"a", "b"},
	}))
	require.NoError(t, s.AddOvertime(ctx, "2025-03-10", worktime.ManualOvertime{Duration: time.Hour, BenefitCodeRef: "45"}))
	err := s.AddOvertime(ctx, "2025-03-11", worktime.ManualOvertime{ID: "ot-1", Duration: time.Hour})
	assert.ErrorIs(t, err, generic.ErrDuplicateOvertime)

	day, err := s.GetDay(ctx, "2025-03-10")
	require.NoError(t, err)
	require.Len(t, day.Overtime, 2)
	assert.Equal(t, "ot-1", day.Overtime[0].ID)
	assert.Equal(t, 90*time.Minute, day.Overtime[0].Duration)
	assert.Equal(t, []string{"a", "b"}, day.Overtime[0].SourcePunchIDs)
	assert.NotEmpty(t, day.Overtime[1].ID, "missing IDs are generated")
	assert.Equal(t, "45", day.Overtime[1].BenefitCodeRef)

	require.NoError(t, s.DeleteOvertime(ctx, "ot-1"))
	assert.ErrorIs(t, s.DeleteOvertime(ctx, "ot-1"), generic.ErrNotFound)
}

func testLoadRange(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.AppendPunch(ctx, "2025-01-31", worktime.Punch{ID: "a", Type: worktime.PunchIn, Timestamp: time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC)}))
	require.NoError(t, s.SaveDayInfo(ctx, "2025-03-10", worktime.DayInfo{Leave: &worktime.Leave{BenefitCode: "15"}}))
	require.NoError(t, s.AddOvertime(ctx, "2025-02-14", worktime.ManualOvertime{Duration: time.Hour}))
	require.NoError(t, s.SaveDayInfo(ctx, "2025-02-01", worktime.DayInfo{}))
	require.NoError(t, s.SaveDayInfo(ctx, "2026-01-01", worktime.DayInfo{Holiday: true}))

	records, err := s.LoadRange(ctx, "2025-01-01", "2025-12-31")
	require.NoError(t, err)

	var dates []string
	for _, r := range records {
		dates = append(dates, r.Date)
	}
	assert.Equal(t, []string{"2025-01-31", "2025-02-14", "2025-03-10"}, dates)

	days, overtime := store.Split(records)
	assert.Len(t, days, 3)
	assert.Len(t, overtime, 1)
	assert.Equal(t, "15", days["2025-03-10"].Leave.BenefitCode)

	_, err = s.LoadRange(ctx, "2025", "2025-12-31")
	assert.ErrorIs(t, err, generic.ErrInvalidDateKey)
}

func testCodes(t *testing.T, s store.Store) {
	ctx := context.Background()
	ferie := benefits.StatusItem{Code: "15", Description: "Ferie", Class: benefits.ClassConsumption, Entitlement: generic.MustParseDecimal("26"), Category: benefits.CategoryLeaveDay}
	rol := benefits.StatusItem{Code: "40", Description: "ROL", Year: 2025, Class: benefits.ClassConsumption, Entitlement: generic.MustParseDecimal("72.5"), Category: benefits.CategoryLeaveHours}

	require.NoError(t, s.SaveCode(ctx, ferie))
	require.NoError(t, s.SaveCode(ctx, rol))
	ferie.Entitlement = generic.MustParseDecimal("28")
	require.NoError(t, s.SaveCode(ctx, ferie))

	codes, err := s.ListCodes(ctx)
	require.NoError(t, err)
	require.Len(t, codes, 2)
	assert.Equal(t, "15", codes[0].Code, "replacing a code keeps its position")
	assert.Equal(t, "28", codes[0].Entitlement.String())
	assert.Equal(t, "72.5", codes[1].Entitlement.String())
	assert.Equal(t, 2025, codes[1].Year)
}

func testSettings(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.LoadSettings(ctx)
	assert.ErrorIs(t, err, generic.ErrNotFound)

	require.NoError(t, s.SaveSettings(ctx, []byte(`{"standard_day_hours": 8}`)))
	require.NoError(t, s.SaveSettings(ctx, []byte(`{"standard_day_hours": 6}`)))

	doc, err := s.LoadSettings(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"standard_day_hours": 6}`, string(doc))
}
