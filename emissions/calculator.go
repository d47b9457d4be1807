package emissions

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Calculate builds a snapshot from activity data. Sources without a factor
// are skipped; sources without activity are reported as zero.
//
// Total sums every source, negative ones included, and is the denominator
// of each source's Change. Gross sums the positive sources only.
func Calculate(factors Factors, activities []Activity, now time.Time) Snapshot {
	amounts := make(map[Source]decimal.Decimal, len(activities))
	for _, a := range activities {
		amounts[a.Source] = a.Amount
	}

	names := make(map[string]decimal.Decimal, len(factors))
	for src, factor := range factors {
		names[string(src)] = amounts[src].Mul(factor).Round(2)
	}

	total, gross, avoided := decimal.Zero, decimal.Zero, decimal.Zero
	for _, v := range names {
		total = total.Add(v)
		if v.IsPositive() {
			gross = gross.Add(v)
		} else {
			avoided = avoided.Sub(v)
		}
	}

	snap := Snapshot{
		Total:      total,
		Gross:      gross,
		Net:        decimal.Max(decimal.Zero, total),
		Efficiency: percentOf(avoided, gross).Round(1),
		ComputedAt: now,
	}
	for _, name := range orderedNames(names) {
		v := names[name]
		snap.Breakdown = append(snap.Breakdown, SourceEmission{
			Source: Source(name),
			Value:  v,
			Change: percentOf(v, total).Round(1),
		})
	}
	return snap
}

func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole)
}
