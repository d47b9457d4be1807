/*
impact.go - Impact Calculator

PURPOSE:
  Computes the tCO2e one strategy removes from the baseline. This is a pure
  function of (strategy, baseline); it holds no state besides the registry
  it reads the strategy's Kind from.

VARIANTS:
  KindAbsolute:    impact = value * impactRate
  KindPercentage:  impact = baseline * (value / 100) * efficiencyFactor

  The variant comes from the strategy type's Kind, never from comparing
  type names. Absolute strategies use their own denormalized ImpactRate.

UNITS:
  No conversion happens here. Rates are tCO2e per unit and the baseline is
  tCO2e; anything else is a registry definition bug.

EXAMPLE:
  1000 trees at 0.025 t/tree                  -> 25 tCO2e
  SAF Usage 20% of a 5000 t baseline, eff 0.8 -> 800 tCO2e
*/
package offset

// Calculator computes per-strategy impact.
type Calculator struct {
	Registry *Registry
}

func NewCalculator(registry *Registry) *Calculator {
	return &Calculator{Registry: registry}
}

// Impact returns the offset contributed by s against baseline. The result
// is never negative.
func (c *Calculator) Impact(s Strategy, baseline Amount) Amount {
	def, _ := c.Registry.Resolve(s.Type)

	var impact Amount
	switch def.Kind {
	case KindPercentage:
		// Shift(-2) divides by 100 exactly.
		impact = TonnesFromDecimal(baseline.Value.Mul(s.Value.Shift(-2)).Mul(def.EfficiencyFactor))
	default:
		impact = TonnesFromDecimal(s.Value.Mul(s.ImpactRate))
	}
	return impact.NonNegative()
}
