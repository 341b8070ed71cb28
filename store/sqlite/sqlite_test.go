package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/store"
	"github.com/warp/attendance-engine/store/sqlite"
	"github.com/warp/attendance-engine/store/storetest"
	"github.com/warp/attendance-engine/worktime"
)

func newStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite(t *testing.T) {
	storetest.Run(t, newStore)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	// GIVEN: A punch written to a file database
	// WHEN: The database is closed and reopened
	// THEN: The punch is still there with its instant intact

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "attendance.db")
	stamp := time.Date(2025, time.March, 10, 21, 30, 15, 250_000_000, time.FixedZone("CET", 3600))

	s, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s.AppendPunch(ctx, "2025-03-10", worktime.Punch{ID: "p1", Type: worktime.PunchIn, Timestamp: stamp}))
	require.NoError(t, s.Close())

	s, err = sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()

	day, err := s.GetDay(ctx, "2025-03-10")
	require.NoError(t, err)
	require.Len(t, day.Punches, 1)
	assert.True(t, stamp.Equal(day.Punches[0].Timestamp))
}

func TestSQLite_PunchesOrderedByInstant(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendPunch(ctx, "2025-03-10", worktime.Punch{ID: "late", Type: worktime.PunchOut, Timestamp: base.Add(time.Second)}))
	require.NoError(t, s.AppendPunch(ctx, "2025-03-10", worktime.Punch{ID: "early", Type: worktime.PunchIn, Timestamp: base.Add(500 * time.Millisecond)}))

	day, err := s.GetDay(ctx, "2025-03-10")
	require.NoError(t, err)
	require.Len(t, day.Punches, 2)
	assert.Equal(t, "early", day.Punches[0].ID)
}
