package benefits

import (
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
	"github.com/warp/attendance-engine/worktime"
)

// =============================================================================
// BALANCE - Sign rule applied at presentation time
// =============================================================================

// ComputeBalance derives the remaining (GPO) or accrued (ACC) balance.
//
//	ACC: entitlement + usage
//	GPO: entitlement - usage
//
// Codes with an unknown class follow the consumption rule. A negative
// balance is a valid result.
func ComputeBalance(item StatusItem, usage generic.Amount) generic.Amount {
	entitlement := item.EntitlementAmount()
	if item.Class == ClassAccrual {
		return entitlement.Add(usage)
	}
	return entitlement.Sub(usage)
}

// BalanceLine is one row of a yearly ledger.
type BalanceLine struct {
	Item    StatusItem
	Usage   generic.Amount
	Balance generic.Amount
}

// Ledger joins every code applicable to year with its usage and balance,
// in catalog order.
func Ledger(
	year int,
	days map[string]worktime.DayInfo,
	codes []StatusItem,
	overtime map[string][]worktime.ManualOvertime,
) []BalanceLine {
	usage := ComputeUsage(year, days, codes, overtime)
	catalog := Catalog(codes).ForYear(year)
	lines := make([]BalanceLine, 0, len(catalog))
	for _, item := range catalog {
		used := usage.Get(item)
		lines = append(lines, BalanceLine{
			Item:    item,
			Usage:   used,
			Balance: ComputeBalance(item, used),
		})
	}
	return lines
}

// =============================================================================
// CONSUMPTION CHECK - Warning only, never a refusal
// =============================================================================

// ConsumptionCheck is what a caller shows before letting an operator book
// more usage against a code.
type ConsumptionCheck struct {
	Current   generic.Amount
	Projected generic.Amount
	Negative  bool // projected balance below zero
	NearZero  bool // projected balance within threshold of zero
}

// Warn reports whether the operator should confirm the booking.
func (c ConsumptionCheck) Warn() bool { return c.Negative || c.NearZero }

// CheckConsumption projects the balance after booking requested more usage.
// Only GPO codes can be driven toward zero by usage; ACC codes never warn
// unless their entitlement is already negative.
func CheckConsumption(item StatusItem, usage, requested generic.Amount, threshold decimal.Decimal) ConsumptionCheck {
	current := ComputeBalance(item, usage)
	projected := ComputeBalance(item, usage.Add(requested))
	check := ConsumptionCheck{
		Current:   current,
		Projected: projected,
		Negative:  projected.IsNegative(),
	}
	if item.Class != ClassAccrual && !check.Negative {
		check.NearZero = projected.Value.LessThanOrEqual(threshold)
	}
	return check
}
