/*
aggregate.go - Aggregation Engine

PURPOSE:
  Combines a baseline and the strategy list into a Summary. This is the
  central calculation that answers "how close are we to net-zero?"

STEPS:
  1. Impact per strategy (Calculator)
  2. TotalOffset = sum of impacts (0 for an empty list)
  3. NetEmissions = max(0, baseline - TotalOffset)
  4. ReductionPercentage = min(100, TotalOffset / baseline * 100), 0 when baseline is 0
  5. IsNetZero = NetEmissions <= 0.1

DETERMINISM:
  Decimal arithmetic only, no clock, no randomness, no cached state.
  Calling Aggregate twice with the same inputs gives equal Summaries.

EXAMPLE:
  baseline 1000, [1000 trees @ 0.025, 5 credits @ 1]
    -> impacts [25, 5], total 30, net 970, reduction 3%, not net-zero

SEE ALSO:
  - impact.go: Per-strategy calculation
  - planner.go: Calls Aggregate after every mutation
*/
package offset

import "github.com/shopspring/decimal"

// Engine aggregates strategies against a baseline.
type Engine struct {
	Calc *Calculator
}

func NewEngine(registry *Registry) *Engine {
	return &Engine{Calc: NewCalculator(registry)}
}

// Aggregate computes the Summary for strategies against baseline. A
// negative baseline is treated as zero.
func (e *Engine) Aggregate(strategies []Strategy, baseline Amount) Summary {
	baseline = TonnesFromDecimal(baseline.Value).NonNegative()

	perStrategy := make(map[StrategyID]Amount, len(strategies))
	lines := make([]StrategyImpact, 0, len(strategies))
	total := TonnesFromDecimal(decimal.Zero)

	for _, s := range strategies {
		impact := e.Calc.Impact(s, baseline)
		perStrategy[s.ID] = impact
		total = total.Add(impact)
		lines = append(lines, StrategyImpact{
			StrategyID: s.ID,
			Type:       s.Type,
			Value:      s.Value,
			Unit:       s.Unit,
			Impact:     impact,
		})
	}

	for i := range lines {
		lines[i].Share = percentOf(lines[i].Impact.Value, total.Value)
	}

	net := baseline.Sub(total).NonNegative()

	reduction := decimal.Zero
	if baseline.IsPositive() {
		reduction = decimal.Min(hundred, percentOf(total.Value, baseline.Value))
	}

	return Summary{
		Baseline:            baseline,
		PerStrategyImpact:   perStrategy,
		Lines:               lines,
		TotalOffset:         total,
		NetEmissions:        net,
		ReductionPercentage: reduction,
		IsNetZero:           net.Value.LessThanOrEqual(NetZeroTolerance),
	}
}

// percentOf returns part/whole*100, or 0 when whole is 0.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole)
}
