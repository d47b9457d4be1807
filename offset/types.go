/*
Package offset provides the emissions and offset accounting engine.

PURPOSE:
  Turns a baseline emissions figure and a list of user-configured offset
  strategies into per-strategy impact, combined offset, net emissions,
  reduction percentage and net-zero status. Everything else in the
  repository (HTTP, CLI, PDF rendering, telemetry) sits on top of this.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A decimal quantity with a unit (e.g., 25 tCO2e, 1000 trees)
  - OffsetType: Immutable registry entry describing a kind of strategy
  - Strategy: One user-added offset row (type + value)
  - Summary: Derived view, recomputed on every input change

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal so identical inputs give identical output
  2. One unit: Every emissions quantity is tCO2e, conversion factors are
     baked into each OffsetType's ImpactRatePerUnit
  3. Tagged variants: Percentage-based strategies are a Kind, not a name

USAGE:
  registry := offset.DefaultRegistry()
  engine := offset.NewEngine(registry)
  summary := engine.Aggregate(strategies, offset.Tonnes(1000))

SEE ALSO:
  - registry.go: OffsetType catalog
  - strategy.go: Strategy Store
  - impact.go: Impact Calculator
  - aggregate.go: Aggregation Engine
  - planner.go: Session object wiring store, engine and persistence
*/
package offset

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitTCO2e   Unit = "tCO2e"
	UnitTrees   Unit = "trees"
	UnitMWh     Unit = "MWh"
	UnitPercent Unit = "%"
)

var hundred = decimal.NewFromInt(100)

// NetZeroTolerance is the largest net emissions figure still reported as net-zero.
var NetZeroTolerance = decimal.RequireFromString("0.1")

// Tonnes returns an emissions amount in tCO2e.
func Tonnes(value float64) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: UnitTCO2e}
}

// TonnesFromDecimal returns an emissions amount in tCO2e.
func TonnesFromDecimal(value decimal.Decimal) Amount {
	return Amount{Value: value, Unit: UnitTCO2e}
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Unit: a.Unit} }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) GreaterThan(b Amount) bool    { return a.Value.GreaterThan(b.Value) }
func (a Amount) LessThan(b Amount) bool       { return a.Value.LessThan(b.Value) }
func (a Amount) Equal(b Amount) bool          { return a.Value.Equal(b.Value) && a.Unit == b.Unit }
func (a Amount) Float64() float64             { return a.Value.InexactFloat64() }

// NonNegative floors the amount at zero.
func (a Amount) NonNegative() Amount {
	if a.IsNegative() {
		return a.Zero()
	}
	return a
}

// =============================================================================
// OFFSET TYPE - Registry entry
// =============================================================================

// Kind selects how a strategy's value turns into avoided emissions.
type Kind string

const (
	// KindAbsolute strategies contribute value * ImpactRatePerUnit.
	KindAbsolute Kind = "absolute"

	// KindPercentage strategies contribute baseline * value/100 * EfficiencyFactor.
	KindPercentage Kind = "percentage"
)

// OffsetType describes one kind of offset strategy. Instances are owned by
// a Registry and never change after it is built.
type OffsetType struct {
	Name              string
	Unit              Unit
	ImpactRatePerUnit decimal.Decimal // tCO2e per Unit, ignored for KindPercentage
	Kind              Kind
	EfficiencyFactor  decimal.Decimal // share of substituted volume that becomes avoided emissions

	// Presentation hints for the dashboard.
	Icon  string
	Color string
}

func (t OffsetType) IsPercentageBased() bool { return t.Kind == KindPercentage }

// =============================================================================
// STRATEGY - One user-configured offset row
// =============================================================================

type StrategyID string

// Strategy is a single offset row. Unit and ImpactRate are copies of the
// registry entry for Type, taken at the last type change.
type Strategy struct {
	ID         StrategyID
	Type       string
	Value      decimal.Decimal
	Unit       Unit
	ImpactRate decimal.Decimal
}

// =============================================================================
// SUMMARY - Derived view over baseline + strategies
// =============================================================================

// StrategyImpact is one strategy's contribution, in store order.
type StrategyImpact struct {
	StrategyID StrategyID
	Type       string
	Value      decimal.Decimal
	Unit       Unit
	Impact     Amount
	Share      decimal.Decimal // percent of TotalOffset, 0 when TotalOffset is 0
}

// Summary is recomputable from its inputs at any time and is never persisted.
type Summary struct {
	Baseline            Amount
	PerStrategyImpact   map[StrategyID]Amount
	Lines               []StrategyImpact
	TotalOffset         Amount
	NetEmissions        Amount
	ReductionPercentage decimal.Decimal
	IsNetZero           bool
}
