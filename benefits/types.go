// Package benefits implements the per-year leave and overtime ledger.
// It aggregates declared leave and manual overtime per benefit code and
// derives balances under the accrual (ACC) or consumption (GPO) convention.
package benefits

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/generic"
)

// =============================================================================
// BENEFIT CODES
// =============================================================================

// Class is the accounting convention of a code.
type Class string

const (
	ClassAccrual     Class = "ACC" // usage adds to the entitlement
	ClassConsumption Class = "GPO" // usage is taken from the entitlement
)

type Category string

const (
	CategoryLeaveDay   Category = "leave-day"
	CategoryLeaveHours Category = "leave-hours"
	CategoryOvertime   Category = "overtime"
	CategoryBalance    Category = "balance"
	CategoryInfo       Category = "info"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryLeaveDay, CategoryLeaveHours, CategoryOvertime, CategoryBalance, CategoryInfo:
		return true
	}
	return false
}

// StatusItem is one benefit code of the catalog. Year zero means the code
// applies to every year.
type StatusItem struct {
	Code        string
	Description string
	Year        int
	Class       Class
	Entitlement decimal.Decimal
	Category    Category
}

// Unit is days for leave-day codes and hours for everything else.
func (s StatusItem) Unit() generic.Unit {
	if s.Category == CategoryLeaveDay {
		return generic.UnitDays
	}
	return generic.UnitHours
}

func (s StatusItem) EntitlementAmount() generic.Amount {
	return generic.Amount{Value: s.Entitlement, Unit: s.Unit()}
}

func (s StatusItem) appliesTo(year int) bool { return s.Year == 0 || s.Year == year }

// Catalog is the master list of benefit codes, in display order.
type Catalog []StatusItem

// ForYear returns the codes applicable to year, first occurrence of each
// code only.
func (c Catalog) ForYear(year int) Catalog {
	seen := make(map[string]bool, len(c))
	var out Catalog
	for _, item := range c {
		code := strings.TrimSpace(item.Code)
		if !item.appliesTo(year) || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, item)
	}
	return out
}

// Find returns the code applicable to year.
func (c Catalog) Find(code string, year int) (StatusItem, bool) {
	code = strings.TrimSpace(code)
	for _, item := range c {
		if strings.TrimSpace(item.Code) == code && item.appliesTo(year) {
			return item, true
		}
	}
	return StatusItem{}, false
}

// FindOvertimeByDescription joins a free-text overtime tag to an overtime
// code by exact trimmed description. The first match in catalog order wins.
func (c Catalog) FindOvertimeByDescription(tag string, year int) (StatusItem, bool) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return StatusItem{}, false
	}
	for _, item := range c {
		if item.Category != CategoryOvertime || !item.appliesTo(year) {
			continue
		}
		if strings.TrimSpace(item.Description) == tag {
			return item, true
		}
	}
	return StatusItem{}, false
}

// =============================================================================
// USAGE
// =============================================================================

// Usage maps a benefit code to its total consumption for one year. Amounts
// are unsigned sums; the ACC/GPO sign rule is applied by ComputeBalance.
type Usage map[string]generic.Amount

// Get returns the usage of code, zero in the code's unit when absent.
func (u Usage) Get(item StatusItem) generic.Amount {
	if a, ok := u[strings.TrimSpace(item.Code)]; ok {
		return a
	}
	return generic.Amount{Value: decimal.Zero, Unit: item.Unit()}
}
