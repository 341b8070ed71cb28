/*
Package generic provides the shared vocabulary of the attendance engine.

PURPOSE:
  This package holds the domain-agnostic building blocks that the worktime,
  voucher and benefits packages speak: quantities with units, calendar days,
  periods and the error taxonomy. Nothing in here knows what a punch or a
  benefit code is.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 2 days, 7.5 hours)
  - Unit:   days, hours or minutes

DESIGN PRINCIPLES:
  1. Immutability: Every helper returns a new value, inputs are never touched
  2. Precision: Uses decimal.Decimal so hour sums never drift
  3. Totality: Helpers never panic; bad input degrades to zero

USAGE:
  used := generic.NewAmount(4, generic.UnitHours)
  left := generic.NewAmount(10, generic.UnitHours).Sub(used) // 6 hours

SEE ALSO:
  - time.go: Calendar days and date keys
  - period.go: Year and month boundaries
  - errors.go: Sentinel and structured errors
*/
package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit (always time-based for this system)
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitDays    Unit = "days"
	UnitHours   Unit = "hours"
	UnitMinutes Unit = "minutes"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func NewAmountFromInt(value int, unit Unit) Amount {
	return Amount{Value: decimal.NewFromInt(int64(value)), Unit: unit}
}

// NewAmountFromDuration converts a duration into an hours or minutes amount.
// Days are not derivable from a duration and yield zero.
func NewAmountFromDuration(d time.Duration, unit Unit) Amount {
	ms := decimal.NewFromInt(d.Milliseconds())
	switch unit {
	case UnitHours:
		return Amount{Value: ms.Div(decimal.NewFromInt(int64(time.Hour / time.Millisecond))), Unit: unit}
	case UnitMinutes:
		return Amount{Value: ms.Div(decimal.NewFromInt(int64(time.Minute / time.Millisecond))), Unit: unit}
	default:
		return Amount{Value: decimal.Zero, Unit: unit}
	}
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }
func (a Amount) Neg() Amount                  { return Amount{Value: a.Value.Neg(), Unit: a.Unit} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }

// Equal compares unit and numeric value: 2.0 hours equals 2 hours but never 2 days.
func (a Amount) Equal(b Amount) bool { return a.Unit == b.Unit && a.Value.Equal(b.Value) }

// Float64 is for presentation only. Arithmetic stays in decimal.
func (a Amount) Float64() float64 {
	f, _ := a.Value.Float64()
	return f
}

func (a Amount) String() string { return a.Value.String() + " " + string(a.Unit) }
