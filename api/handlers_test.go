/*
handlers_test.go - HTTP tests for the API handlers

Tests for:
- Punch recording, idempotency and removal
- Day classification through the router (including the next-day holiday)
- Day context replacement with consumption warnings
- Manual overtime and the yearly ledger
- Settings and catalog endpoints
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/benefits"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/metrics"
	"github.com/warp/attendance-engine/store/memory"
	"github.com/warp/attendance-engine/worktime"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type testServer struct {
	t      *testing.T
	store  *memory.Memory
	router http.Handler
	reg    *prometheus.Registry
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := memory.New()
	reg := prometheus.NewRegistry()
	h := NewHandler(st, metrics.NewCollector(reg), quietLogger())
	return &testServer{t: t, store: st, router: NewRouter(h, reg), reg: reg}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) seedCodes(items ...benefits.StatusItem) {
	s.t.Helper()
	for _, item := range items {
		require.NoError(s.t, s.store.SaveCode(context.Background(), item))
	}
}

func (s *testServer) punch(date, id, kind string, ts time.Time) {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/days/"+date+"/punches", CreatePunchRequest{ID: id, Type: kind, Timestamp: ts})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func utc(day, hour int) time.Time {
	return time.Date(2025, time.March, day, hour, 0, 0, 0, time.UTC)
}

func code(c, description string, class benefits.Class, entitlement int64, category benefits.Category) benefits.StatusItem {
	return benefits.StatusItem{
		Code:        c,
		Description: description,
		Class:       class,
		Entitlement: decimal.NewFromInt(entitlement),
		Category:    category,
	}
}

const sixHourDay = `{"standard_day_hours": 6, "deduct_auto_break": false}`

// =============================================================================
// PUNCHES AND DAYS
// =============================================================================

func TestPunchLifecycle(t *testing.T) {
	// GIVEN: A 6h standard day and a split shift 08-12, 13-17
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(http.MethodPut, "/api/settings", sixHourDay).Code)

	s.punch("2025-03-10", "p1", "in", utc(10, 8))
	s.punch("2025-03-10", "p2", "out", utc(10, 12))
	s.punch("2025-03-10", "p3", "in", utc(10, 13))
	s.punch("2025-03-10", "p4", "out", utc(10, 17))

	// WHEN: The first punch is sent again
	rec := s.do(http.MethodPost, "/api/days/2025-03-10/punches", CreatePunchRequest{ID: "p1", Type: "in", Timestamp: utc(10, 8)})

	// THEN: It is accepted without being recorded twice
	assert.Equal(t, http.StatusOK, rec.Code)

	day := decode[DayDTO](t, s.do(http.MethodGet, "/api/days/2025-03-10", nil))
	assert.Len(t, day.Punches, 4)
	assert.Equal(t, (6 * time.Hour).Milliseconds(), day.Summary.StandardWorkMs)
	assert.Equal(t, (2 * time.Hour).Milliseconds(), day.Summary.ExcessHoursMs)
	assert.Equal(t, (8 * time.Hour).Milliseconds(), day.Summary.TotalWorkMs)
	assert.True(t, day.Voucher.Earned)
	assert.Equal(t, "split_shift", day.Voucher.Reason)
	assert.False(t, day.NeedsReview)
	assert.Empty(t, day.Issues)

	// WHEN: The last out is removed
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/punches/p4", nil).Code)

	// THEN: The open in is flagged and adds no work
	day = decode[DayDTO](t, s.do(http.MethodGet, "/api/days/2025-03-10", nil))
	assert.True(t, day.NeedsReview)
	assert.True(t, day.Summary.MissingPunch)
	assert.Equal(t, (4 * time.Hour).Milliseconds(), day.Summary.TotalWorkMs)
	require.Len(t, day.Issues, 1)
	assert.Equal(t, "missing_out", day.Issues[0].Kind)
	assert.Equal(t, "p3", day.Issues[0].PunchID)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/punches/p4", nil).Code)
}

func TestCreatePunch_GeneratesID(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/days/2025-03-10/punches", CreatePunchRequest{Type: "IN", Timestamp: utc(10, 8)})

	require.Equal(t, http.StatusCreated, rec.Code)
	p := decode[PunchDTO](t, rec)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "in", p.Type)
}

func TestCreatePunch_Invalid(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		path string
		body any
	}{
		{"bad date", "/api/days/2025-13-01/punches", CreatePunchRequest{Type: "in", Timestamp: utc(10, 8)}},
		{"bad type", "/api/days/2025-03-10/punches", CreatePunchRequest{Type: "break", Timestamp: utc(10, 8)}},
		{"no timestamp", "/api/days/2025-03-10/punches", CreatePunchRequest{Type: "in"}},
		{"malformed body", "/api/days/2025-03-10/punches", `{"type":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
		})
	}
}

func TestGetDay_NightShiftIntoHoliday(t *testing.T) {
	// GIVEN: 21:00 → 05:00 filed under the 10th, the 11th is a holiday
	s := newTestServer(t)
	require.Equal(t, http.StatusOK, s.do(http.MethodPut, "/api/settings", `{"standard_day_hours": 3, "deduct_auto_break": false}`).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodPut, "/api/days/2025-03-11/info", worktime.DayInfo{Holiday: true}).Code)

	s.punch("2025-03-10", "n1", "in", utc(10, 21))
	s.punch("2025-03-10", "n2", "out", utc(11, 5))

	// WHEN: Classifying the 10th
	day := decode[DayDTO](t, s.do(http.MethodGet, "/api/days/2025-03-10", nil))

	// THEN: The hours past midnight are nocturnal holiday overtime
	assert.Equal(t, (3 * time.Hour).Milliseconds(), day.Summary.StandardWorkMs)
	assert.Equal(t, (5 * time.Hour).Milliseconds(), day.Summary.OvertimeNocturnalHolidayMs)
	assert.Equal(t, (7 * time.Hour).Milliseconds(), day.Summary.NocturnalWorkMs)
	assert.False(t, day.NeedsReview)
}

func TestGetDay_Empty(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/days/2025-03-10", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	day := decode[DayDTO](t, rec)
	assert.Zero(t, day.Summary.TotalWorkMs)
	assert.Equal(t, "too_short", day.Voucher.Reason)
}

func TestListDays(t *testing.T) {
	s := newTestServer(t)
	s.punch("2025-03-10", "a1", "in", utc(10, 8))
	s.punch("2025-03-10", "a2", "out", utc(10, 12))
	s.punch("2025-03-12", "b1", "in", utc(12, 8))
	s.punch("2025-03-14", "c1", "in", utc(14, 8))

	rec := s.do(http.MethodGet, "/api/days?from=2025-03-10&to=2025-03-13", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	days := decode[[]DayDTO](t, rec)
	require.Len(t, days, 2)
	assert.Equal(t, "2025-03-10", days[0].Date)
	assert.Equal(t, "2025-03-12", days[1].Date)
	assert.True(t, days[1].NeedsReview)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/days?from=2025-03-10", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/days?from=2025-03-10&to=2025-03-01", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/days?from=2024-01-01&to=2025-12-31", nil).Code)
}

func TestGetDay_RecordsMetrics(t *testing.T) {
	s := newTestServer(t)
	s.punch("2025-03-10", "p1", "in", utc(10, 8))

	s.do(http.MethodGet, "/api/days/2025-03-10", nil)

	rec := s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "attendance_days_classified_total 1")
	assert.Contains(t, body, "attendance_days_missing_punch_total 1")
	assert.Contains(t, body, "attendance_punches_recorded_total 1")
}

// =============================================================================
// DAY CONTEXT
// =============================================================================

func leaveOn(c string) worktime.DayInfo {
	return worktime.DayInfo{Leave: &worktime.Leave{BenefitCode: c}}
}

func TestPutDayInfo_ConsumptionWarning(t *testing.T) {
	// GIVEN: Two leave days a year, one already taken
	s := newTestServer(t)
	s.seedCodes(code("15", "Ferie", benefits.ClassConsumption, 2, benefits.CategoryLeaveDay))
	require.Equal(t, http.StatusOK, s.do(http.MethodPut, "/api/days/2025-01-02/info", leaveOn("15")).Code)

	// WHEN: Checking a second leave day without saving
	rec := s.do(http.MethodPut, "/api/days/2025-01-03/info?dry_run=true", leaveOn("15"))

	// THEN: The balance would reach zero; nothing is stored
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[DayInfoResponse](t, rec)
	assert.False(t, resp.Saved)
	require.Len(t, resp.Warnings, 1)
	w := resp.Warnings[0]
	assert.Equal(t, "15", w.Code)
	assert.Equal(t, "1", w.Current.String())
	assert.Equal(t, "0", w.Projected.String())
	assert.True(t, w.NearZero)
	assert.False(t, w.Negative)

	day := decode[DayDTO](t, s.do(http.MethodGet, "/api/days/2025-01-03", nil))
	assert.Nil(t, day.Info.Leave)

	// WHEN: Saving it, then saving the same day again
	resp = decode[DayInfoResponse](t, s.do(http.MethodPut, "/api/days/2025-01-03/info", leaveOn("15")))
	assert.True(t, resp.Saved)
	resp = decode[DayInfoResponse](t, s.do(http.MethodPut, "/api/days/2025-01-03/info", leaveOn("15")))

	// THEN: Replacing the day does not count its old leave twice
	require.Len(t, resp.Warnings, 1)
	assert.Equal(t, "0", resp.Warnings[0].Projected.String())
}

func TestPutDayInfo_NoWarningWithRoomLeft(t *testing.T) {
	s := newTestServer(t)
	s.seedCodes(code("15", "Ferie", benefits.ClassConsumption, 26, benefits.CategoryLeaveDay))

	resp := decode[DayInfoResponse](t, s.do(http.MethodPut, "/api/days/2025-01-03/info", leaveOn("15")))

	assert.True(t, resp.Saved)
	assert.NotNil(t, resp.Warnings)
	assert.Empty(t, resp.Warnings)
}

func TestPutDayInfo_UnknownLeaveCode(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPut, "/api/days/2025-01-03/info", leaveOn("77"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Details, "unknown benefit code")
}

// =============================================================================
// OVERTIME AND LEDGER
// =============================================================================

func TestOvertimeAndLedger(t *testing.T) {
	// GIVEN: A leave-day code and an overtime code
	s := newTestServer(t)
	s.seedCodes(
		code("15", "Ferie", benefits.ClassConsumption, 26, benefits.CategoryLeaveDay),
		code("50", "Straordinario", benefits.ClassAccrual, 0, benefits.CategoryOvertime),
	)
	s.do(http.MethodPut, "/api/days/2025-02-03/info", leaveOn("15"))
	s.do(http.MethodPut, "/api/days/2025-02-04/info", leaveOn("15"))

	rec := s.do(http.MethodPost, "/api/days/2025-02-05/overtime", OvertimeDTO{
		DurationMs:  (2 * time.Hour).Milliseconds(),
		BenefitCode: "Straordinario",
		Note:        "release night",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[OvertimeDTO](t, rec)
	assert.NotEmpty(t, created.ID)

	// WHEN: Building the 2025 ledger
	rec = s.do(http.MethodGet, "/api/ledger/2025", nil)

	// THEN: GPO leave is taken from the entitlement, ACC overtime adds up
	require.Equal(t, http.StatusOK, rec.Code)
	ledger := decode[LedgerDTO](t, rec)
	require.Len(t, ledger.Lines, 2)

	leave := ledger.Lines[0]
	assert.Equal(t, "15", leave.Code)
	assert.Equal(t, "days", leave.Unit)
	assert.Equal(t, "2", leave.Usage.String())
	assert.Equal(t, "24", leave.Balance.String())
	require.Len(t, leave.Monthly, 12)
	assert.Equal(t, "-2", leave.Monthly[1].String())
	assert.True(t, leave.Monthly[0].IsZero())

	ot := ledger.Lines[1]
	assert.Equal(t, "2", ot.Usage.String())
	assert.Equal(t, "2", ot.Balance.String())
	assert.Equal(t, "2", ot.Monthly[1].String())

	// WHEN: The overtime entry is removed
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/api/overtime/"+created.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/api/overtime/"+created.ID, nil).Code)

	// THEN: The overtime balance is back to zero
	ledger = decode[LedgerDTO](t, s.do(http.MethodGet, "/api/ledger/2025", nil))
	assert.True(t, ledger.Lines[1].Balance.IsZero())
}

func TestCreateOvertime_Invalid(t *testing.T) {
	s := newTestServer(t)
	s.seedCodes(
		code("50", "Straordinario", benefits.ClassAccrual, 0, benefits.CategoryOvertime),
		code("15", "Ferie", benefits.ClassConsumption, 26, benefits.CategoryLeaveDay),
	)

	assert.Equal(t, http.StatusBadRequest,
		s.do(http.MethodPost, "/api/days/2025-02-05/overtime", OvertimeDTO{DurationMs: 0, BenefitCodeRef: "50"}).Code)

	// A leave code cannot absorb overtime hours
	rec := s.do(http.MethodPost, "/api/days/2025-02-05/overtime", OvertimeDTO{DurationMs: 1000, BenefitCodeRef: "15"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Details, "not an overtime code")

	rec = s.do(http.MethodPost, "/api/days/2025-02-05/overtime", OvertimeDTO{DurationMs: 1000, BenefitCodeRef: "99"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Details, "unknown benefit code")

	assert.Equal(t, http.StatusCreated,
		s.do(http.MethodPost, "/api/days/2025-02-05/overtime", OvertimeDTO{DurationMs: 1000, BenefitCodeRef: "50"}).Code)
}

func TestGetLedger_InvalidYear(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/ledger/abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/ledger/0", nil).Code)
}

// =============================================================================
// CONFIGURATION
// =============================================================================

func TestSettingsEndpoints(t *testing.T) {
	s := newTestServer(t)

	// Defaults before anything is stored
	doc := decode[factory.SettingsJSON](t, s.do(http.MethodGet, "/api/settings", nil))
	require.NotNil(t, doc.StandardDayHours)
	assert.Equal(t, factory.DefaultStandardDayHours, *doc.StandardDayHours)

	// Invalid documents are rejected with the offending field
	rec := s.do(http.MethodPut, "/api/settings", `{"night_window_start_hour": 30}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Details, "night_window_start_hour")

	// A valid document is stored normalized
	rec = s.do(http.MethodPut, "/api/settings", `{"standard_day_hours": 7.5, "break_order": "nocturnal_first"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	doc = decode[factory.SettingsJSON](t, s.do(http.MethodGet, "/api/settings", nil))
	assert.Equal(t, 7.5, *doc.StandardDayHours)
	assert.Equal(t, "nocturnal_first", doc.BreakOrder)
	require.NotNil(t, doc.NightWindowStartHour)
	assert.Equal(t, factory.DefaultNightWindowStartHour, *doc.NightWindowStartHour)
}

func TestBenefitCodeEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/benefit-codes", factory.StatusItemJSON{
		Code: "40", Description: "Permessi", Entitlement: 72, Category: "leave-hours",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "GPO", decode[factory.StatusItemJSON](t, rec).Class)

	rec = s.do(http.MethodPost, "/api/benefit-codes", factory.StatusItemJSON{Code: "41", Category: "vacation"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	codes := decode[[]factory.StatusItemJSON](t, s.do(http.MethodGet, "/api/benefit-codes", nil))
	require.Len(t, codes, 1)
	assert.Equal(t, "40", codes[0].Code)
	assert.Equal(t, 72.0, codes[0].Entitlement)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
