/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Engine types carry
  time.Duration and decimal values; the wire format uses milliseconds for
  durations and decimal strings for balances, so clients never see
  nanoseconds or float rounding.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Days:
    DayDTO, SummaryDTO, VoucherDTO, IssueDTO, PunchDTO, OvertimeDTO
    CreatePunchRequest, DayInfoResponse, ConsumptionWarningDTO

  Ledger:
    LedgerDTO, BalanceLineDTO

  Offline (CLI):
    ClassifyRequest, LedgerRequest

SEE ALSO:
  - handlers.go: Uses these types
  - factory/settings.go: SettingsJSON
  - factory/catalog.go: StatusItemJSON
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/benefits"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/voucher"
	"github.com/warp/attendance-engine/worktime"
)

// =============================================================================
// DAYS
// =============================================================================

// PunchDTO represents a punch in API requests and responses.
type PunchDTO struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// CreatePunchRequest is the request to record a punch. A missing ID is
// generated; sending the same ID twice records the punch once.
type CreatePunchRequest struct {
	ID        string    `json:"id,omitempty"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// OvertimeDTO represents a manual overtime entry.
type OvertimeDTO struct {
	ID             string   `json:"id,omitempty"`
	DurationMs     int64    `json:"duration_ms"`
	BenefitCode    string   `json:"benefit_code,omitempty"`
	BenefitCodeRef string   `json:"benefit_code_ref,omitempty"`
	Note           string   `json:"note,omitempty"`
	SourcePunchIDs []string `json:"source_punch_ids,omitempty"`
}

// SummaryDTO is worktime.WorkDaySummary in milliseconds.
type SummaryDTO struct {
	TotalWorkMs                int64 `json:"total_work_ms"`
	StandardWorkMs             int64 `json:"standard_work_ms"`
	ExcessHoursMs              int64 `json:"excess_hours_ms"`
	OvertimeDiurnalMs          int64 `json:"overtime_diurnal_ms"`
	OvertimeNocturnalMs        int64 `json:"overtime_nocturnal_ms"`
	OvertimeHolidayMs          int64 `json:"overtime_holiday_ms"`
	OvertimeNocturnalHolidayMs int64 `json:"overtime_nocturnal_holiday_ms"`
	NullHoursMs                int64 `json:"null_hours_ms"`
	DiurnalWorkMs              int64 `json:"diurnal_work_ms"`
	NocturnalWorkMs            int64 `json:"nocturnal_work_ms"`
	BreakDeductedMs            int64 `json:"break_deducted_ms"`
	UnmatchedOvertimeMs        int64 `json:"unmatched_overtime_ms"`
	ClosedIntervals            int   `json:"closed_intervals"`
	MissingPunch               bool  `json:"missing_punch"`
}

// VoucherDTO explains the meal-voucher decision.
type VoucherDTO struct {
	Earned    bool   `json:"earned"`
	Reason    string `json:"reason"`
	LongestMs int64  `json:"longest_ms"`
	WorkedMs  int64  `json:"worked_ms"`
	BreakMs   int64  `json:"break_ms"`
}

// IssueDTO is a punch the pairing had to skip or leave open.
type IssueDTO struct {
	Kind    string    `json:"kind"`
	PunchID string    `json:"punch_id"`
	At      time.Time `json:"at"`
}

// DayDTO is everything known about one day, classified.
type DayDTO struct {
	Date        string           `json:"date"`
	Punches     []PunchDTO       `json:"punches"`
	Info        worktime.DayInfo `json:"info"`
	Overtime    []OvertimeDTO    `json:"overtime"`
	Summary     SummaryDTO       `json:"summary"`
	Voucher     VoucherDTO       `json:"voucher"`
	Issues      []IssueDTO       `json:"issues"`
	NeedsReview bool             `json:"needs_review"`
}

// ConsumptionWarningDTO flags a GPO code that the saved day pushes below
// or close to zero.
type ConsumptionWarningDTO struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Current     decimal.Decimal `json:"current"`
	Projected   decimal.Decimal `json:"projected"`
	Negative    bool            `json:"negative"`
	NearZero    bool            `json:"near_zero"`
}

// DayInfoResponse is returned after a day context is saved (or checked,
// with dry_run).
type DayInfoResponse struct {
	Date     string                  `json:"date"`
	Info     worktime.DayInfo        `json:"info"`
	Saved    bool                    `json:"saved"`
	Warnings []ConsumptionWarningDTO `json:"warnings"`
}

// =============================================================================
// LEDGER
// =============================================================================

// BalanceLineDTO is one code of the yearly ledger. Monthly holds the signed
// movement of each month, January first.
type BalanceLineDTO struct {
	Code        string            `json:"code"`
	Description string            `json:"description"`
	Class       string            `json:"class"`
	Category    string            `json:"category"`
	Unit        string            `json:"unit"`
	Entitlement decimal.Decimal   `json:"entitlement"`
	Usage       decimal.Decimal   `json:"usage"`
	Balance     decimal.Decimal   `json:"balance"`
	Monthly     []decimal.Decimal `json:"monthly"`
}

type LedgerDTO struct {
	Year  int              `json:"year"`
	Lines []BalanceLineDTO `json:"lines"`
}

// =============================================================================
// OFFLINE INPUTS
// =============================================================================

// ClassifyRequest is a self-contained day for offline classification.
// Settings fall back to factory defaults when absent.
type ClassifyRequest struct {
	Date     string                `json:"date"`
	Punches  []PunchDTO            `json:"punches"`
	Info     worktime.DayInfo      `json:"info"`
	NextInfo worktime.DayInfo      `json:"next_info"`
	Overtime []OvertimeDTO         `json:"overtime"`
	Settings *factory.SettingsJSON `json:"settings,omitempty"`
}

// LedgerRequest is a self-contained year of records for offline ledgers.
type LedgerRequest struct {
	Year     int                         `json:"year"`
	Codes    []factory.StatusItemJSON    `json:"codes"`
	Days     map[string]worktime.DayInfo `json:"days"`
	Overtime map[string][]OvertimeDTO    `json:"overtime"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

// PunchesFromDTOs converts wire punches to engine punches.
func PunchesFromDTOs(dtos []PunchDTO) []worktime.Punch {
	punches := make([]worktime.Punch, len(dtos))
	for i, d := range dtos {
		punches[i] = worktime.Punch{ID: d.ID, Type: worktime.PunchType(d.Type), Timestamp: d.Timestamp}
	}
	return punches
}

func toPunchDTOs(punches []worktime.Punch) []PunchDTO {
	dtos := make([]PunchDTO, len(punches))
	for i, p := range worktime.SortPunches(punches) {
		dtos[i] = PunchDTO{ID: p.ID, Type: string(p.Type), Timestamp: p.Timestamp}
	}
	return dtos
}

func toOvertime(d OvertimeDTO) worktime.ManualOvertime {
	return worktime.ManualOvertime{
		ID:             d.ID,
		Duration:       time.Duration(d.DurationMs) * time.Millisecond,
		BenefitCode:    d.BenefitCode,
		BenefitCodeRef: d.BenefitCodeRef,
		Note:           d.Note,
		SourcePunchIDs: d.SourcePunchIDs,
	}
}

// OvertimeFromDTOs converts wire overtime entries to engine entries.
func OvertimeFromDTOs(dtos []OvertimeDTO) []worktime.ManualOvertime {
	out := make([]worktime.ManualOvertime, len(dtos))
	for i, d := range dtos {
		out[i] = toOvertime(d)
	}
	return out
}

func toOvertimeDTOs(entries []worktime.ManualOvertime) []OvertimeDTO {
	dtos := make([]OvertimeDTO, len(entries))
	for i, e := range entries {
		dtos[i] = OvertimeDTO{
			ID:             e.ID,
			DurationMs:     e.Duration.Milliseconds(),
			BenefitCode:    e.BenefitCode,
			BenefitCodeRef: e.BenefitCodeRef,
			Note:           e.Note,
			SourcePunchIDs: e.SourcePunchIDs,
		}
	}
	return dtos
}

func toSummaryDTO(s worktime.WorkDaySummary) SummaryDTO {
	return SummaryDTO{
		TotalWorkMs:                s.TotalWork.Milliseconds(),
		StandardWorkMs:             s.StandardWork.Milliseconds(),
		ExcessHoursMs:              s.ExcessHours.Milliseconds(),
		OvertimeDiurnalMs:          s.OvertimeDiurnal.Milliseconds(),
		OvertimeNocturnalMs:        s.OvertimeNocturnal.Milliseconds(),
		OvertimeHolidayMs:          s.OvertimeHoliday.Milliseconds(),
		OvertimeNocturnalHolidayMs: s.OvertimeNocturnalHoliday.Milliseconds(),
		NullHoursMs:                s.NullHours.Milliseconds(),
		DiurnalWorkMs:              s.DiurnalWork.Milliseconds(),
		NocturnalWorkMs:            s.NocturnalWork.Milliseconds(),
		BreakDeductedMs:            s.BreakDeducted.Milliseconds(),
		UnmatchedOvertimeMs:        s.UnmatchedOvertime.Milliseconds(),
		ClosedIntervals:            s.ClosedIntervals,
		MissingPunch:               s.MissingPunch,
	}
}

func toVoucherDTO(d voucher.Decision) VoucherDTO {
	return VoucherDTO{
		Earned:    d.Earned,
		Reason:    string(d.Reason),
		LongestMs: d.Longest.Milliseconds(),
		WorkedMs:  d.Worked.Milliseconds(),
		BreakMs:   d.Break.Milliseconds(),
	}
}

func toIssueDTOs(issues []worktime.PunchIssue) []IssueDTO {
	dtos := make([]IssueDTO, len(issues))
	for i, is := range issues {
		dtos[i] = IssueDTO{Kind: string(is.Kind), PunchID: is.PunchID, At: is.At}
	}
	return dtos
}

func toWarningDTO(item benefits.StatusItem, check benefits.ConsumptionCheck) ConsumptionWarningDTO {
	return ConsumptionWarningDTO{
		Code:        item.Code,
		Description: item.Description,
		Unit:        string(item.Unit()),
		Current:     check.Current.Value,
		Projected:   check.Projected.Value,
		Negative:    check.Negative,
		NearZero:    check.NearZero,
	}
}
