/*
usage.go - Per-year aggregation of leave and overtime

PURPOSE:
  ComputeUsage answers "how much of each benefit code was used in year Y?"
  from the full history of day contexts and manual overtime entries.

RULES:
  Leave (one entry per normalized leave event):
    leave-hours  adds the declared hours
    leave-day    adds exactly 1 day
    other        ignored

  Manual overtime (positive durations only):
    BenefitCodeRef set  joined to that code directly
    otherwise           joined by exact trimmed description of an
                        overtime code; no match drops the entry,
                        several matches take the first in catalog order
    amount              duration converted to decimal hours

  Only date keys inside the target year count. Keys that do not parse as
  YYYY-MM-DD are skipped. Nothing here fails: a bad record just does not
  contribute.

EXAMPLE:
  code 15 (ACC, leave-day, 20 days), two leave days in 2025:
    usage["15"] = 2 days, balance = 22 days

SEE ALSO:
  - balance.go: Sign conventions
*/
package benefits

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/worktime"
)

// movement is one contribution of a record to a code.
type movement struct {
	item   StatusItem
	month  time.Month
	amount decimal.Decimal
}

// ComputeUsage aggregates leave and manual overtime per code for year.
// Every code applicable to year is present in the result, zero when unused.
func ComputeUsage(
	year int,
	days map[string]worktime.DayInfo,
	codes []StatusItem,
	overtime map[string][]worktime.ManualOvertime,
) Usage {
	catalog := Catalog(codes).ForYear(year)
	usage := make(Usage, len(catalog))
	for _, item := range catalog {
		usage[strings.TrimSpace(item.Code)] = generic.Amount{Value: decimal.Zero, Unit: item.Unit()}
	}
	walk(year, days, catalog, overtime, func(m movement) {
		code := strings.TrimSpace(m.item.Code)
		usage[code] = usage[code].Add(generic.Amount{Value: m.amount, Unit: m.item.Unit()})
	})
	return usage
}

// MonthlyUsage breaks usage down by calendar month (index 0 = January).
// GPO movements are negated so consumption reads as a negative movement.
func MonthlyUsage(
	year int,
	days map[string]worktime.DayInfo,
	codes []StatusItem,
	overtime map[string][]worktime.ManualOvertime,
) map[string][12]generic.Amount {
	catalog := Catalog(codes).ForYear(year)
	out := make(map[string][12]generic.Amount, len(catalog))
	for _, item := range catalog {
		var months [12]generic.Amount
		for i := range months {
			months[i] = generic.Amount{Value: decimal.Zero, Unit: item.Unit()}
		}
		out[strings.TrimSpace(item.Code)] = months
	}
	walk(year, days, catalog, overtime, func(m movement) {
		code := strings.TrimSpace(m.item.Code)
		amount := m.amount
		if m.item.Class == ClassConsumption {
			amount = amount.Neg()
		}
		months := out[code]
		months[m.month-1] = months[m.month-1].Add(generic.Amount{Value: amount, Unit: m.item.Unit()})
		out[code] = months
	})
	return out
}

// walk visits every movement of year in date-key order so the decimal sums
// are built in the same order on every call.
func walk(
	year int,
	days map[string]worktime.DayInfo,
	catalog Catalog,
	overtime map[string][]worktime.ManualOvertime,
	emit func(movement),
) {
	period := generic.YearPeriod(year)

	for _, key := range sortedKeys(days) {
		date, ok := dayIn(period, key)
		if !ok {
			continue
		}
		for _, leave := range days[key].Leaves() {
			item, found := catalog.Find(leave.BenefitCode, year)
			if !found {
				continue
			}
			switch item.Category {
			case CategoryLeaveHours:
				if leave.Hours == nil || !validHours(*leave.Hours) {
					continue
				}
				emit(movement{item: item, month: date.Month(), amount: decimal.NewFromFloat(*leave.Hours)})
			case CategoryLeaveDay:
				emit(movement{item: item, month: date.Month(), amount: decimal.NewFromInt(1)})
			}
		}
	}

	for _, key := range sortedKeys(overtime) {
		date, ok := dayIn(period, key)
		if !ok {
			continue
		}
		for _, entry := range overtime[key] {
			if entry.Duration <= 0 {
				continue
			}
			item, found := matchOvertime(catalog, entry, year)
			if !found {
				continue
			}
			hours := generic.NewAmountFromDuration(entry.Duration, generic.UnitHours)
			emit(movement{item: item, month: date.Month(), amount: hours.Value})
		}
	}
}

func matchOvertime(catalog Catalog, entry worktime.ManualOvertime, year int) (StatusItem, bool) {
	if ref := strings.TrimSpace(entry.BenefitCodeRef); ref != "" {
		item, ok := catalog.Find(ref, year)
		if !ok || item.Category != CategoryOvertime {
			return StatusItem{}, false
		}
		return item, true
	}
	return catalog.FindOvertimeByDescription(entry.BenefitCode, year)
}

func dayIn(period generic.Period, key string) (generic.TimePoint, bool) {
	date, err := generic.ParseDateKey(key, time.UTC)
	if err != nil || !period.Contains(date) {
		return generic.TimePoint{}, false
	}
	return date, true
}

func validHours(h float64) bool {
	return h > 0 && !math.IsInf(h, 0) && !math.IsNaN(h)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
