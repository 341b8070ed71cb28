/*
handlers.go - HTTP API handlers for the attendance engine

PURPOSE:
  Exposes the classifier, the voucher rule and the benefit ledger via REST.
  Handlers read stored records, call the pure engine and serialize the
  result. The engine never sees the store.

ENDPOINTS:
  Days:
    GET    /api/days?from=&to=            Classified days in a range
    GET    /api/days/{date}               One classified day
    POST   /api/days/{date}/punches       Record a punch (idempotent by ID)
    PUT    /api/days/{date}/info          Replace the day context (?dry_run=true)
    POST   /api/days/{date}/overtime      Declare manual overtime
    DELETE /api/punches/{id}              Remove a punch
    DELETE /api/overtime/{id}             Remove an overtime entry

  Ledger:
    GET    /api/ledger/{year}             Yearly balances with monthly movement

  Configuration:
    GET    /api/settings                  Effective work settings
    PUT    /api/settings                  Replace work settings
    GET    /api/benefit-codes             Benefit-code catalog
    POST   /api/benefit-codes             Insert or replace a code

  Scenarios (scenarios.go):
    GET    /api/scenarios                 List demo scenarios
    POST   /api/scenarios/load            Load a demo scenario

RECORD CONVENTION:
  Everything is filed under the date of the work day. A night shift keeps
  its out punch under the day it started; the next day's record only
  contributes its holiday flag.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict
  - 500: Internal errors

SEE ALSO:
  - engine.go: Engine calls shared with the CLI
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/attendance-engine/benefits"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/metrics"
	"github.com/warp/attendance-engine/store"
	"github.com/warp/attendance-engine/voucher"
	"github.com/warp/attendance-engine/worktime"
)

// MaxRangeDays caps GET /api/days.
const MaxRangeDays = 366

const maxBodyBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   store.Store
	Metrics *metrics.Collector // nil disables recording
	Log     logrus.FieldLogger

	SettingsFactory *factory.SettingsFactory
	CatalogFactory  *factory.CatalogFactory

	// DefaultSettings apply until a settings document is stored.
	DefaultSettings worktime.WorkSettings
	// Location interprets date keys and fills settings without a timezone.
	Location      *time.Location
	VoucherRule   voucher.Rule
	WarnThreshold decimal.Decimal
}

// NewHandler creates a handler with factory defaults.
func NewHandler(st store.Store, m *metrics.Collector, log logrus.FieldLogger) *Handler {
	sf := factory.NewSettingsFactory()
	defaults, err := sf.ParseSettings([]byte(factory.DefaultSettingsJSON), factory.FormatJSON)
	if err != nil {
		panic(fmt.Sprintf("default settings: %v", err))
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Store:           st,
		Metrics:         m,
		Log:             log,
		SettingsFactory: sf,
		CatalogFactory:  factory.NewCatalogFactory(),
		DefaultSettings: defaults,
		Location:        time.UTC,
		VoucherRule:     voucher.DefaultRule,
		WarnThreshold:   decimal.NewFromInt(1),
	}
}

// Settings returns the stored settings, or the defaults when none are stored.
func (h *Handler) Settings(ctx context.Context) (worktime.WorkSettings, error) {
	doc, err := h.Store.LoadSettings(ctx)
	if errors.Is(err, generic.ErrNotFound) {
		return h.withLocation(h.DefaultSettings), nil
	}
	if err != nil {
		return worktime.WorkSettings{}, err
	}
	s, err := h.SettingsFactory.ParseSettings(doc, factory.FormatJSON)
	if err != nil {
		return worktime.WorkSettings{}, fmt.Errorf("stored settings: %w", err)
	}
	return h.withLocation(s), nil
}

func (h *Handler) withLocation(s worktime.WorkSettings) worktime.WorkSettings {
	if s.Location == nil {
		s.Location = h.Location
	}
	return s
}

func (h *Handler) parseDate(key string) (generic.TimePoint, error) {
	return generic.ParseDateKey(key, h.Location)
}

// =============================================================================
// DAY HANDLERS
// =============================================================================

// GetDay returns one classified day.
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	date, err := h.parseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	settings, err := h.Settings(r.Context())
	if err != nil {
		h.writeStoreError(w, "Failed to load settings", err)
		return
	}

	day, err := h.Store.GetDay(r.Context(), date.Key())
	if err != nil {
		h.writeStoreError(w, "Failed to load day", err)
		return
	}
	next, err := h.Store.GetDay(r.Context(), date.AddDays(1).Key())
	if err != nil {
		h.writeStoreError(w, "Failed to load next day", err)
		return
	}

	writeJSON(w, http.StatusOK, h.classify(date, day, next, settings).DTO)
}

// ListDays returns the classified days in [from, to] that have records.
func (h *Handler) ListDays(w http.ResponseWriter, r *http.Request) {
	from, err := h.parseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date", err)
		return
	}
	to, err := h.parseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date", err)
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to must not be before from", nil)
		return
	}
	if from.AddDays(MaxRangeDays - 1).Before(to) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Range exceeds %d days", MaxRangeDays), nil)
		return
	}

	settings, err := h.Settings(r.Context())
	if err != nil {
		h.writeStoreError(w, "Failed to load settings", err)
		return
	}

	// One extra day so the last day sees its successor's holiday flag.
	records, err := h.Store.LoadRange(r.Context(), from.Key(), to.AddDays(1).Key())
	if err != nil {
		h.writeStoreError(w, "Failed to load days", err)
		return
	}
	byDate := make(map[string]store.DayRecord, len(records))
	for _, rec := range records {
		byDate[rec.Date] = rec
	}

	dtos := make([]DayDTO, 0, len(records))
	for _, rec := range records {
		if rec.Date > to.Key() {
			continue
		}
		date, err := h.parseDate(rec.Date)
		if err != nil {
			h.Log.WithError(err).WithField("date", rec.Date).Warn("skipping record with bad date key")
			continue
		}
		next := byDate[date.AddDays(1).Key()]
		dtos = append(dtos, h.classify(date, rec, next, settings).DTO)
	}

	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) classify(date generic.TimePoint, day, next store.DayRecord, settings worktime.WorkSettings) DayResult {
	start := time.Now()
	res := BuildDay(date, day, next, settings, h.VoucherRule)
	if h.Metrics != nil {
		h.Metrics.RecordClassification(res.Summary, res.Decision.Earned, time.Since(start))
	}
	return res
}

// CreatePunch records a punch under the given work day. Sending an ID that
// is already stored is a successful no-op (200 instead of 201).
func (h *Handler) CreatePunch(w http.ResponseWriter, r *http.Request) {
	date, err := h.parseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	var req CreatePunchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	p := worktime.Punch{
		ID:        strings.TrimSpace(req.ID),
		Type:      worktime.PunchType(strings.ToLower(strings.TrimSpace(req.Type))),
		Timestamp: req.Timestamp,
	}
	if p.ID == "" {
		p.ID = store.NewID()
	}
	if err := store.CheckPunch(p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid punch", err)
		return
	}

	dto := PunchDTO{ID: p.ID, Type: string(p.Type), Timestamp: p.Timestamp}
	err = h.Store.AppendPunch(r.Context(), date.Key(), p)
	switch {
	case generic.IsConflict(err):
		writeJSON(w, http.StatusOK, dto)
		return
	case err != nil:
		h.writeStoreError(w, "Failed to record punch", err)
		return
	}

	if h.Metrics != nil {
		h.Metrics.RecordPunch()
	}
	h.Log.WithFields(logrus.Fields{
		"date":  date.Key(),
		"punch": p.ID,
		"type":  p.Type,
	}).Debug("punch recorded")

	writeJSON(w, http.StatusCreated, dto)
}

// DeletePunch removes a punch by ID.
func (h *Handler) DeletePunch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.DeletePunch(r.Context(), id); err != nil {
		h.writeStoreError(w, "Failed to delete punch", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PutDayInfo replaces the day context. Leave against an unknown code is
// rejected. The response carries a warning for every consumption code the
// new context drives below or near zero; with dry_run=true nothing is saved.
func (h *Handler) PutDayInfo(w http.ResponseWriter, r *http.Request) {
	date, err := h.parseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	var info worktime.DayInfo
	if err := decodeBody(r, &info); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	codes, err := h.Store.ListCodes(ctx)
	if err != nil {
		h.writeStoreError(w, "Failed to load benefit codes", err)
		return
	}
	for _, leave := range info.Leaves() {
		if _, ok := codes.Find(leave.BenefitCode, date.Year()); !ok {
			writeError(w, http.StatusBadRequest, "Unknown leave code",
				fmt.Errorf("%w: %q", generic.ErrUnknownBenefitCode, leave.BenefitCode))
			return
		}
	}

	from, to := store.YearRange(date.Year())
	records, err := h.Store.LoadRange(ctx, from, to)
	if err != nil {
		h.writeStoreError(w, "Failed to load year", err)
		return
	}
	days, overtime := store.Split(records)
	warnings := CheckDayConsumption(date, info, days, codes, overtime, h.WarnThreshold)

	dryRun, _ := strconv.ParseBool(r.URL.Query().Get("dry_run"))
	if !dryRun {
		if err := h.Store.SaveDayInfo(ctx, date.Key(), info); err != nil {
			h.writeStoreError(w, "Failed to save day info", err)
			return
		}
	}
	if len(warnings) > 0 {
		h.Log.WithFields(logrus.Fields{
			"date":     date.Key(),
			"warnings": len(warnings),
			"dry_run":  dryRun,
		}).Info("day info drives a balance low")
	}
	if warnings == nil {
		warnings = []ConsumptionWarningDTO{}
	}

	writeJSON(w, http.StatusOK, DayInfoResponse{
		Date:     date.Key(),
		Info:     info,
		Saved:    !dryRun,
		Warnings: warnings,
	})
}

// CreateOvertime declares manual overtime on a day.
func (h *Handler) CreateOvertime(w http.ResponseWriter, r *http.Request) {
	date, err := h.parseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	var req OvertimeDTO
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.DurationMs <= 0 {
		writeError(w, http.StatusBadRequest, "duration_ms must be positive", nil)
		return
	}

	if ref := strings.TrimSpace(req.BenefitCodeRef); ref != "" {
		codes, err := h.Store.ListCodes(r.Context())
		if err != nil {
			h.writeStoreError(w, "Failed to load benefit codes", err)
			return
		}
		if item, ok := codes.Find(ref, date.Year()); !ok || item.Category != benefits.CategoryOvertime {
			writeError(w, http.StatusBadRequest, "Unknown overtime code",
				fmt.Errorf("%w: %q is not an overtime code", generic.ErrUnknownBenefitCode, ref))
			return
		}
	}

	ot := toOvertime(req)
	if ot.ID == "" {
		ot.ID = store.NewID()
	}
	if err := h.Store.AddOvertime(r.Context(), date.Key(), ot); err != nil {
		h.writeStoreError(w, "Failed to save overtime", err)
		return
	}

	writeJSON(w, http.StatusCreated, toOvertimeDTOs([]worktime.ManualOvertime{ot})[0])
}

// DeleteOvertime removes an overtime entry by ID.
func (h *Handler) DeleteOvertime(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteOvertime(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeStoreError(w, "Failed to delete overtime", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// GetLedger returns the yearly ledger of every applicable code.
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || year < 1 || year > 9999 {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	ctx := r.Context()
	codes, err := h.Store.ListCodes(ctx)
	if err != nil {
		h.writeStoreError(w, "Failed to load benefit codes", err)
		return
	}
	from, to := store.YearRange(year)
	records, err := h.Store.LoadRange(ctx, from, to)
	if err != nil {
		h.writeStoreError(w, "Failed to load year", err)
		return
	}

	start := time.Now()
	days, overtime := store.Split(records)
	ledger := BuildLedger(year, days, codes, overtime)
	if h.Metrics != nil {
		h.Metrics.RecordLedger(time.Since(start))
	}

	writeJSON(w, http.StatusOK, ledger)
}

// =============================================================================
// CONFIGURATION HANDLERS
// =============================================================================

// GetSettings returns the effective work settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Settings(r.Context())
	if err != nil {
		h.writeStoreError(w, "Failed to load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, h.SettingsFactory.ToJSON(s))
}

// PutSettings validates and replaces the settings document. The stored
// document is the normalized form, with every default filled in.
func (h *Handler) PutSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}

	s, err := h.SettingsFactory.ParseSettings(body, factory.FormatJSON)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settings", err)
		return
	}

	doc := h.SettingsFactory.ToJSON(s)
	data, err := json.Marshal(doc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode settings", err)
		return
	}
	if err := h.Store.SaveSettings(r.Context(), data); err != nil {
		h.writeStoreError(w, "Failed to save settings", err)
		return
	}

	h.Log.WithField("standard_day_hours", s.StandardDayHours).Info("settings replaced")
	writeJSON(w, http.StatusOK, doc)
}

// ListCodes returns the benefit-code catalog.
func (h *Handler) ListCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.Store.ListCodes(r.Context())
	if err != nil {
		h.writeStoreError(w, "Failed to list benefit codes", err)
		return
	}
	writeJSON(w, http.StatusOK, h.codesToJSON(codes))
}

// SaveCode inserts or replaces a code, keyed by code and year.
func (h *Handler) SaveCode(w http.ResponseWriter, r *http.Request) {
	var req factory.StatusItemJSON
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	item, err := h.CatalogFactory.ItemFromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid benefit code", err)
		return
	}
	if err := h.Store.SaveCode(r.Context(), item); err != nil {
		h.writeStoreError(w, "Failed to save benefit code", err)
		return
	}

	writeJSON(w, http.StatusCreated, h.CatalogFactory.ToJSON(item))
}

func (h *Handler) codesToJSON(codes benefits.Catalog) []factory.StatusItemJSON {
	out := make([]factory.StatusItemJSON, len(codes))
	for i, c := range codes {
		out[i] = h.CatalogFactory.ToJSON(c)
	}
	return out
}

// Healthz reports whether the store answers.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeStoreError maps a store or engine error to its HTTP status.
func (h *Handler) writeStoreError(w http.ResponseWriter, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case generic.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Log.WithError(err).Error(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}
