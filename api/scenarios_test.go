package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListScenarios(t *testing.T) {
	s := newTestServer(t)

	list := decode[[]ScenarioDTO](t, s.do(http.MethodGet, "/api/scenarios", nil))

	require.Len(t, list, 3)
	for _, sc := range list {
		assert.NotEmpty(t, sc.ID)
		assert.NotEmpty(t, sc.From)
		assert.NotEmpty(t, sc.To)
	}
}

func TestLoadScenario_OfficeWeek(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "office-week"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	days := decode[[]DayDTO](t, s.do(http.MethodGet, "/api/days?from=2025-03-10&to=2025-03-14", nil))
	require.Len(t, days, 5)
	for _, d := range days[:4] {
		assert.False(t, d.NeedsReview, d.Date)
		assert.True(t, d.Voucher.Earned, d.Date)
	}
	assert.True(t, days[4].NeedsReview)
}

func TestLoadScenario_NightShifts(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "night-shifts"}).Code)

	// The last night (24th → 25th) runs into the holiday
	day := decode[DayDTO](t, s.do(http.MethodGet, "/api/days/2025-04-24", nil))
	assert.Equal(t, (5 * time.Hour).Milliseconds(), day.Summary.OvertimeNocturnalHolidayMs)
	assert.Len(t, day.Overtime, 1)

	day = decode[DayDTO](t, s.do(http.MethodGet, "/api/days/2025-04-22", nil))
	assert.Zero(t, day.Summary.OvertimeNocturnalHolidayMs)
}

func TestLoadScenario_LeaveYearIsIdempotent(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "leave-year"}).Code)
	}

	ledger := decode[LedgerDTO](t, s.do(http.MethodGet, "/api/ledger/2025", nil))
	balances := make(map[string]string, len(ledger.Lines))
	for _, l := range ledger.Lines {
		balances[l.Code] = l.Balance.String()
	}
	assert.Equal(t, "22", balances["15"])
	assert.Equal(t, "64", balances["40"])
	assert.Equal(t, "6", balances["50"])
}

func TestLoadScenario_Unknown(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"}).Code)
}
