package emissions

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Sources lists the known sources in display order.
var Sources = []Source{
	SourceGSE,
	SourceElectricity,
	SourceWater,
	SourceWaste,
	SourceTransport,
	SourceRenewable,
	SourceConstruction,
	SourceAircraft,
}

// Factors maps a source to tCO2e per activity unit.
type Factors map[Source]decimal.Decimal

// DefaultFactors returns the standard airport emission factors.
func DefaultFactors() Factors {
	return Factors{
		SourceGSE:          decimal.RequireFromString("2.68"),
		SourceElectricity:  decimal.RequireFromString("0.42"),
		SourceWater:        decimal.RequireFromString("0.344"),
		SourceWaste:        decimal.RequireFromString("1.7"),
		SourceTransport:    decimal.RequireFromString("0.21"),
		SourceRenewable:    decimal.RequireFromString("0.25"),
		SourceConstruction: decimal.NewFromInt(500),
		SourceAircraft:     decimal.NewFromInt(115),
	}
}

// DefaultActivities returns the seed activity amounts. Renewable is
// negative: on-site generation displaces grid electricity.
func DefaultActivities() map[Source]decimal.Decimal {
	return map[Source]decimal.Decimal{
		SourceGSE:          decimal.NewFromInt(300),
		SourceElectricity:  decimal.NewFromInt(4400),
		SourceWater:        decimal.NewFromInt(100),
		SourceWaste:        decimal.RequireFromString("52.6"),
		SourceTransport:    decimal.NewFromInt(3205),
		SourceRenewable:    decimal.NewFromInt(-1000),
		SourceConstruction: decimal.RequireFromString("0.6"),
		SourceAircraft:     decimal.NewFromInt(42),
	}
}

// Known reports whether src has a factor.
func (f Factors) Known(src Source) bool {
	_, ok := f[src]
	return ok
}

func orderedNames[V any](m map[string]V) []string {
	rank := make(map[string]int, len(Sources))
	for i, s := range Sources {
		rank[string(s)] = i
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ri, iKnown := rank[names[i]]
		rj, jKnown := rank[names[j]]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown != jKnown:
			return iKnown
		default:
			return names[i] < names[j]
		}
	})
	return names
}
