package offset_test

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"github.com/YazeedAlwehaibi/skyzero-dashboard/offset"
)

// buildStrategies pairs values with registry types by index. Values are in
// hundredths so fractional quantities are covered.
func buildStrategies(values []int, kinds []int) []offset.Strategy {
	types := offset.DefaultRegistry().List()
	s := offset.NewStrategyStore(offset.DefaultRegistry())
	for i := 0; i < len(values) && i < len(kinds); i++ {
		def := types[kinds[i]%len(types)]
		s.Add(def.Name, decimal.New(int64(values[i]), -2))
	}
	return s.List()
}

func TestAggregateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	engine := offset.NewEngine(offset.DefaultRegistry())

	properties.Property("net is baseline minus offset, floored at zero", prop.ForAll(
		func(baseline int, values []int, kinds []int) bool {
			b := offset.TonnesFromDecimal(decimal.New(int64(baseline), -2))
			s := engine.Aggregate(buildStrategies(values, kinds), b)
			want := decimal.Max(decimal.Zero, b.Value.Sub(s.TotalOffset.Value))
			return s.NetEmissions.Value.Equal(want)
		},
		gen.IntRange(0, 10_000_000),
		gen.SliceOf(gen.IntRange(-1000, 500_000)),
		gen.SliceOf(gen.IntRange(0, 9)),
	))

	properties.Property("total is the sum of per-strategy impacts", prop.ForAll(
		func(baseline int, values []int, kinds []int) bool {
			b := offset.TonnesFromDecimal(decimal.New(int64(baseline), -2))
			s := engine.Aggregate(buildStrategies(values, kinds), b)
			sum := decimal.Zero
			for _, line := range s.Lines {
				if line.Impact.IsNegative() {
					return false
				}
				sum = sum.Add(line.Impact.Value)
			}
			return sum.Equal(s.TotalOffset.Value) && len(s.Lines) == len(s.PerStrategyImpact)
		},
		gen.IntRange(0, 10_000_000),
		gen.SliceOf(gen.IntRange(0, 500_000)),
		gen.SliceOf(gen.IntRange(0, 9)),
	))

	properties.Property("reduction percentage stays within 0..100", prop.ForAll(
		func(baseline int, values []int, kinds []int) bool {
			b := offset.TonnesFromDecimal(decimal.New(int64(baseline), -2))
			r := engine.Aggregate(buildStrategies(values, kinds), b).ReductionPercentage
			return !r.IsNegative() && r.LessThanOrEqual(decimal.NewFromInt(100))
		},
		gen.IntRange(-1000, 10_000_000),
		gen.SliceOf(gen.IntRange(0, 5_000_000)),
		gen.SliceOf(gen.IntRange(0, 9)),
	))

	properties.Property("net-zero iff net within tolerance", prop.ForAll(
		func(baseline int, values []int, kinds []int) bool {
			b := offset.TonnesFromDecimal(decimal.New(int64(baseline), -2))
			s := engine.Aggregate(buildStrategies(values, kinds), b)
			return s.IsNetZero == s.NetEmissions.Value.LessThanOrEqual(offset.NetZeroTolerance)
		},
		gen.IntRange(0, 100_000),
		gen.SliceOf(gen.IntRange(0, 100_000)),
		gen.SliceOf(gen.IntRange(0, 9)),
	))

	properties.TestingRun(t)
}

func TestStoreProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	registry := offset.DefaultRegistry()
	types := registry.List()

	properties.Property("unit and rate always match the registry entry", prop.ForAll(
		func(values []int, kinds []int, switches []int) bool {
			s := offset.NewStrategyStore(registry)
			for _, st := range buildStrategies(values, kinds) {
				s.Add(st.Type, st.Value)
			}
			for i, st := range s.List() {
				if i < len(switches) {
					if _, err := s.SetType(st.ID, types[switches[i]%len(types)].Name); err != nil {
						return false
					}
				}
			}
			for _, st := range s.List() {
				def, err := registry.Lookup(st.Type)
				if err != nil || st.Unit != def.Unit || !st.ImpactRate.Equal(def.ImpactRatePerUnit) {
					return false
				}
				if st.Value.IsNegative() {
					return false
				}
				if def.IsPercentageBased() && st.Value.GreaterThan(decimal.NewFromInt(100)) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(-100_000, 1_000_000)),
		gen.SliceOf(gen.IntRange(0, 9)),
		gen.SliceOf(gen.IntRange(0, 9)),
	))

	properties.Property("ids stay unique across adds and removes", prop.ForAll(
		func(ops []int) bool {
			s := offset.NewStrategyStore(registry)
			for _, op := range ops {
				if op%3 == 0 && s.Len() > 0 {
					s.Remove(s.List()[op%s.Len()].ID)
					continue
				}
				s.Add(offset.TypeCarbonCredit, decimal.NewFromInt(int64(op)))
			}
			seen := make(map[offset.StrategyID]bool)
			for _, st := range s.List() {
				if seen[st.ID] {
					return false
				}
				seen[st.ID] = true
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.Property("save then load reproduces the list", prop.ForAll(
		func(values []int, kinds []int) bool {
			in := buildStrategies(values, kinds)
			payload, err := offset.EncodeStrategies(in)
			if err != nil {
				return false
			}
			out, err := offset.DecodeStrategies(payload)
			if err != nil || len(out) != len(in) {
				return false
			}
			for i := range in {
				if fmt.Sprint(in[i].ID, in[i].Type, in[i].Unit) != fmt.Sprint(out[i].ID, out[i].Type, out[i].Unit) {
					return false
				}
				if !in[i].Value.Equal(out[i].Value) || !in[i].ImpactRate.Equal(out[i].ImpactRate) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1_000_000)),
		gen.SliceOf(gen.IntRange(0, 9)),
	))

	properties.TestingRun(t)
}

func TestImpactProperties(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())
	calc := offset.NewCalculator(offset.DefaultRegistry())
	saf, _ := offset.DefaultRegistry().Lookup(offset.TypeSAFUsage)

	properties.Property("absolute impact is value times rate and monotone in value", prop.ForAll(
		func(v, extra, rateMilli int) bool {
			rate := decimal.New(int64(rateMilli), -3)
			low := offset.Strategy{ID: "a", Type: offset.TypeCarbonCredit, Value: decimal.New(int64(v), -2), ImpactRate: rate}
			high := low
			high.Value = low.Value.Add(decimal.New(int64(extra), -2))

			lo := calc.Impact(low, offset.Tonnes(0))
			hi := calc.Impact(high, offset.Tonnes(0))
			return lo.Value.Equal(low.Value.Mul(rate)) && !hi.LessThan(lo)
		},
		gen.IntRange(0, 1_000_000),
		gen.IntRange(0, 1_000_000),
		gen.IntRange(0, 50_000),
	))

	properties.Property("percentage impact spans 0 to baseline times efficiency", prop.ForAll(
		func(baseline int) bool {
			b := offset.TonnesFromDecimal(decimal.New(int64(baseline), -2))
			none := calc.Impact(offset.Strategy{Type: saf.Name, Value: decimal.Zero}, b)
			full := calc.Impact(offset.Strategy{Type: saf.Name, Value: decimal.NewFromInt(100)}, b)
			return none.IsZero() && full.Value.Equal(b.Value.Mul(saf.EfficiencyFactor))
		},
		gen.IntRange(0, 10_000_000),
	))

	properties.TestingRun(t)
}
