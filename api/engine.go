package api

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/benefits"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/store"
	"github.com/warp/attendance-engine/voucher"
	"github.com/warp/attendance-engine/worktime"
)

// =============================================================================
// ENGINE CALLS - Pure, shared by the HTTP handlers and the CLI
// =============================================================================

// DayResult is a classified day: the wire form plus the engine outputs the
// metrics are fed from.
type DayResult struct {
	DTO      DayDTO
	Summary  worktime.WorkDaySummary
	Decision voucher.Decision
}

// BuildDay classifies one stored day. next is the following day's record;
// only its context is used.
func BuildDay(date generic.TimePoint, day, next store.DayRecord, settings worktime.WorkSettings, rule voucher.Rule) DayResult {
	summary := worktime.Classify(date, day.Punches, day.Info, next.Info, day.Overtime, settings)
	decision := rule.Evaluate(day.Punches)
	issues := worktime.ReviewPunches(day.Punches)

	return DayResult{
		DTO: DayDTO{
			Date:        date.Key(),
			Punches:     toPunchDTOs(day.Punches),
			Info:        day.Info.Clone(),
			Overtime:    toOvertimeDTOs(day.Overtime),
			Summary:     toSummaryDTO(summary),
			Voucher:     toVoucherDTO(decision),
			Issues:      toIssueDTOs(issues),
			NeedsReview: len(issues) > 0,
		},
		Summary:  summary,
		Decision: decision,
	}
}

// BuildLedger computes the yearly ledger with its monthly breakdown.
func BuildLedger(year int, days map[string]worktime.DayInfo, codes benefits.Catalog, overtime map[string][]worktime.ManualOvertime) LedgerDTO {
	lines := benefits.Ledger(year, days, codes, overtime)
	monthly := benefits.MonthlyUsage(year, days, codes, overtime)

	dto := LedgerDTO{Year: year, Lines: make([]BalanceLineDTO, 0, len(lines))}
	for _, l := range lines {
		months := monthly[strings.TrimSpace(l.Item.Code)]
		values := make([]decimal.Decimal, len(months))
		for i, m := range months {
			values[i] = m.Value
		}
		dto.Lines = append(dto.Lines, BalanceLineDTO{
			Code:        l.Item.Code,
			Description: l.Item.Description,
			Class:       string(l.Item.Class),
			Category:    string(l.Item.Category),
			Unit:        string(l.Item.Unit()),
			Entitlement: l.Item.Entitlement,
			Usage:       l.Usage.Value,
			Balance:     l.Balance.Value,
			Monthly:     values,
		})
	}
	return dto
}

// CheckDayConsumption projects what saving info on date does to every GPO
// code it books leave against. days must hold the year's stored contexts;
// the stored context of date itself is replaced by info, not added to.
// Only codes that warn are returned, in code order.
func CheckDayConsumption(
	date generic.TimePoint,
	info worktime.DayInfo,
	days map[string]worktime.DayInfo,
	codes benefits.Catalog,
	overtime map[string][]worktime.ManualOvertime,
	threshold decimal.Decimal,
) []ConsumptionWarningDTO {
	year := date.Year()
	catalog := codes.ForYear(year)

	requested := make(map[string]generic.Amount)
	for _, leave := range info.Leaves() {
		item, ok := catalog.Find(leave.BenefitCode, year)
		if !ok {
			continue
		}
		var amount generic.Amount
		switch item.Category {
		case benefits.CategoryLeaveDay:
			amount = generic.NewAmountFromInt(1, generic.UnitDays)
		case benefits.CategoryLeaveHours:
			if leave.Hours == nil || *leave.Hours <= 0 {
				continue
			}
			amount = generic.NewAmount(*leave.Hours, generic.UnitHours)
		default:
			continue
		}
		code := strings.TrimSpace(item.Code)
		if prev, ok := requested[code]; ok {
			amount = prev.Add(amount)
		}
		requested[code] = amount
	}
	if len(requested) == 0 {
		return nil
	}

	others := make(map[string]worktime.DayInfo, len(days))
	for k, v := range days {
		if k != date.Key() {
			others[k] = v
		}
	}
	usage := benefits.ComputeUsage(year, others, catalog, overtime)

	codesSorted := make([]string, 0, len(requested))
	for code := range requested {
		codesSorted = append(codesSorted, code)
	}
	sort.Strings(codesSorted)

	var warnings []ConsumptionWarningDTO
	for _, code := range codesSorted {
		item, _ := catalog.Find(code, year)
		check := benefits.CheckConsumption(item, usage.Get(item), requested[code], threshold)
		if check.Warn() {
			warnings = append(warnings, toWarningDTO(item, check))
		}
	}
	return warnings
}
