/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
	Provides pre-built scenarios that populate the store with realistic
	attendance data. Each scenario writes punches, day contexts and manual
	overtime that exercise a specific part of the engine.

AVAILABLE SCENARIOS:
	office-week:   Split shifts Monday to Friday, a forgotten out on Friday
	night-shifts:  Three nights across midnight, the last one into a holiday
	leave-year:    Leave days, hour permits and overtime spread over a year

HOW SCENARIOS WORK:
 1. Seed the starter catalog when no codes are stored
 2. Append punches with fixed IDs (reloading is a no-op)
 3. Replace the day context of the scenario days
 4. Add overtime with fixed IDs

USAGE VIA API:
	POST /api/scenarios/load
	{"scenario_id": "night-shifts"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to LoadScenario handler

NOTE:
	Scenarios overwrite the day context of the days they touch. Only use in
	development/demo environments.

SEE ALSO:
  - handlers.go: Endpoints the loaded data is read through
  - factory/catalog.go: DefaultCatalogJSON
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/worktime"
)

// =============================================================================
// SCENARIO CATALOG
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// From and To bound the days the scenario writes, for GET /api/days.
	From string `json:"from"`
	To   string `json:"to"`
}

// LoadScenarioRequest selects a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

var scenarios = []ScenarioDTO{
	{
		ID:          "office-week",
		Name:        "Office Week",
		Description: "08-12 / 13-17 every weekday; Friday is missing its last out",
		From:        "2025-03-10",
		To:          "2025-03-14",
	},
	{
		ID:          "night-shifts",
		Name:        "Night Shifts",
		Description: "21:00-05:00 three nights in a row; the last one runs into a holiday",
		From:        "2025-04-22",
		To:          "2025-04-25",
	},
	{
		ID:          "leave-year",
		Name:        "Leave Year",
		Description: "Leave days on 15, ROL hours on 40 and overtime on 50 across 2025",
		From:        "2025-01-01",
		To:          "2025-12-31",
	},
}

// ListScenarios returns the available demo scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario writes a scenario into the store.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	var err error
	switch req.ScenarioID {
	case "office-week":
		err = h.loadOfficeWeekScenario(ctx)
	case "night-shifts":
		err = h.loadNightShiftsScenario(ctx)
	case "leave-year":
		err = h.loadLeaveYearScenario(ctx)
	default:
		writeError(w, http.StatusNotFound, "Unknown scenario", fmt.Errorf("%w: %q", generic.ErrNotFound, req.ScenarioID))
		return
	}
	if err != nil {
		h.writeStoreError(w, "Failed to load scenario", err)
		return
	}

	h.Log.WithField("scenario", req.ScenarioID).Info("scenario loaded")
	for _, s := range scenarios {
		if s.ID == req.ScenarioID {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
}

// =============================================================================
// LOADERS
// =============================================================================

func (h *Handler) loadOfficeWeekScenario(ctx context.Context) error {
	if err := h.ensureCatalog(ctx); err != nil {
		return err
	}
	monday := generic.NewTimePointIn(2025, time.March, 10, h.Location)
	for i := 0; i < 5; i++ {
		day := monday.AddDays(i)
		punches := []worktime.Punch{
			{ID: fmt.Sprintf("office-%d-1", i), Type: worktime.PunchIn, Timestamp: day.At(8, 0)},
			{ID: fmt.Sprintf("office-%d-2", i), Type: worktime.PunchOut, Timestamp: day.At(12, 0)},
			{ID: fmt.Sprintf("office-%d-3", i), Type: worktime.PunchIn, Timestamp: day.At(13, 0)},
		}
		if i < 4 {
			punches = append(punches, worktime.Punch{ID: fmt.Sprintf("office-%d-4", i), Type: worktime.PunchOut, Timestamp: day.At(17, 0)})
		}
		if err := h.appendPunches(ctx, day.Key(), punches); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadNightShiftsScenario(ctx context.Context) error {
	if err := h.ensureCatalog(ctx); err != nil {
		return err
	}
	first := generic.NewTimePointIn(2025, time.April, 22, h.Location)
	for i := 0; i < 3; i++ {
		day := first.AddDays(i)
		punches := []worktime.Punch{
			{ID: fmt.Sprintf("night-%d-in", i), Type: worktime.PunchIn, Timestamp: day.At(21, 0)},
			{ID: fmt.Sprintf("night-%d-out", i), Type: worktime.PunchOut, Timestamp: day.AddDays(1).At(5, 0)},
		}
		if err := h.appendPunches(ctx, day.Key(), punches); err != nil {
			return err
		}
	}
	// The last night ends on a public holiday.
	holiday := first.AddDays(3)
	if err := h.Store.SaveDayInfo(ctx, holiday.Key(), worktime.DayInfo{Holiday: true}); err != nil {
		return err
	}
	return h.addOvertime(ctx, first.AddDays(2).Key(), worktime.ManualOvertime{
		ID:          "night-ot",
		Duration:    time.Hour,
		BenefitCode: "Straordinario",
		Note:        "handover",
	})
}

func (h *Handler) loadLeaveYearScenario(ctx context.Context) error {
	if err := h.ensureCatalog(ctx); err != nil {
		return err
	}
	rol := 4.0
	days := map[string]worktime.DayInfo{
		"2025-01-02": {Leave: &worktime.Leave{BenefitCode: "15"}},
		"2025-01-03": {Leave: &worktime.Leave{BenefitCode: "15"}},
		"2025-04-18": {Leave: &worktime.Leave{BenefitCode: "40", Hours: &rol}},
		"2025-08-11": {Events: []worktime.DayEvent{
			{Kind: worktime.EventLeave, Leave: &worktime.Leave{BenefitCode: "15"}},
		}},
		"2025-08-12": {Leave: &worktime.Leave{BenefitCode: "15"}},
		"2025-11-07": {Leave: &worktime.Leave{BenefitCode: "40", Hours: &rol}},
	}
	for date, info := range days {
		if err := h.Store.SaveDayInfo(ctx, date, info); err != nil {
			return err
		}
	}

	for i, month := range []time.Month{time.February, time.June, time.October} {
		date := generic.NewTimePointIn(2025, month, 14, h.Location)
		if err := h.addOvertime(ctx, date.Key(), worktime.ManualOvertime{
			ID:             fmt.Sprintf("leave-year-ot-%d", i),
			Duration:       2 * time.Hour,
			BenefitCodeRef: "50",
			Note:           "month-end close",
		}); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// ensureCatalog seeds the starter catalog when no codes are stored.
func (h *Handler) ensureCatalog(ctx context.Context) error {
	codes, err := h.Store.ListCodes(ctx)
	if err != nil || len(codes) > 0 {
		return err
	}
	catalog, err := h.CatalogFactory.ParseCatalog([]byte(factory.DefaultCatalogJSON), factory.FormatJSON)
	if err != nil {
		return err
	}
	for _, item := range catalog {
		if err := h.Store.SaveCode(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) appendPunches(ctx context.Context, date string, punches []worktime.Punch) error {
	for _, p := range punches {
		err := h.Store.AppendPunch(ctx, date, p)
		if err != nil && !generic.IsConflict(err) {
			return err
		}
		if err == nil && h.Metrics != nil {
			h.Metrics.RecordPunch()
		}
	}
	return nil
}

func (h *Handler) addOvertime(ctx context.Context, date string, ot worktime.ManualOvertime) error {
	err := h.Store.AddOvertime(ctx, date, ot)
	if generic.IsConflict(err) {
		h.Log.WithFields(logrus.Fields{"date": date, "id": ot.ID}).Debug("overtime already loaded")
		return nil
	}
	return err
}
