/*
Package emissions computes the airport emissions snapshot that feeds the
offset planner.

PURPOSE:
  Turns activity data (litres of fuel, MWh of electricity, flights, ...) into
  tCO2e per source using fixed emission factors, and summarizes the result
  the way the dashboard feed reports it.

KEY CONCEPTS:
  Source:    One emissions category (GSE, Electricity, Aircraft, ...)
  Activity:  Measured amount for a source, in the source's own unit
  Factor:    tCO2e per activity unit
  Snapshot:  Per-source emissions plus gross/net totals

TOTALS:
  Total sums every source, negative (avoided) ones such as on-site
  renewables included; it is the baseline the offset engine works against
  and the denominator of each source's change. Net is Total floored at
  zero. Gross sums the positive sources only, and Efficiency is
  avoided / gross as a percentage.

SEE ALSO:
  - calculator.go: Calculate
  - client.go:     Reading the feed over HTTP
  - offset/planner.go: Consumes Snapshot.Total as baseline
*/
package emissions

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source names an emissions category.
type Source string

const (
	SourceGSE          Source = "GSE"
	SourceElectricity  Source = "Electricity"
	SourceWater        Source = "Water"
	SourceWaste        Source = "Waste"
	SourceTransport    Source = "Transport"
	SourceRenewable    Source = "Renewable"
	SourceConstruction Source = "Construction"
	SourceAircraft     Source = "Aircraft"
)

// Activity is the measured activity amount for one source.
type Activity struct {
	Source    Source
	Amount    decimal.Decimal
	UpdatedAt time.Time
}

// SourceEmission is one line of the breakdown.
type SourceEmission struct {
	Source Source
	// Value is amount x factor in tCO2e, rounded to 2 places.
	Value decimal.Decimal
	// Change is Value as a percentage of Total, rounded to 1 place.
	Change decimal.Decimal
}

// Snapshot is the computed emissions picture at one instant.
type Snapshot struct {
	// Total sums every source, avoided (negative) ones included. It is the
	// offset planner's baseline.
	Total decimal.Decimal
	// Gross sums the positive sources only.
	Gross      decimal.Decimal
	Net        decimal.Decimal
	Efficiency decimal.Decimal
	Breakdown  []SourceEmission
	ComputedAt time.Time
}

// Lookup returns the breakdown line for src.
func (s Snapshot) Lookup(src Source) (SourceEmission, bool) {
	for _, e := range s.Breakdown {
		if e.Source == src {
			return e, true
		}
	}
	return SourceEmission{}, false
}

// =============================================================================
// WIRE FORMAT
// =============================================================================

// Feed is the JSON shape of GET /api/total_emissions.
type Feed struct {
	Total        float64               `json:"total"`
	Gross        float64               `json:"gross"`
	NetEmissions float64               `json:"net_emissions"`
	Efficiency   float64               `json:"efficiency"`
	Breakdown    map[string]FeedSource `json:"breakdown"`
}

type FeedSource struct {
	Value  float64 `json:"value"`
	Change float64 `json:"change"`
}

// ToFeed converts a snapshot to its wire form.
func (s Snapshot) ToFeed() Feed {
	f := Feed{
		Total:        s.Total.InexactFloat64(),
		Gross:        s.Gross.InexactFloat64(),
		NetEmissions: s.Net.InexactFloat64(),
		Efficiency:   s.Efficiency.InexactFloat64(),
		Breakdown:    make(map[string]FeedSource, len(s.Breakdown)),
	}
	for _, e := range s.Breakdown {
		f.Breakdown[string(e.Source)] = FeedSource{
			Value:  e.Value.InexactFloat64(),
			Change: e.Change.InexactFloat64(),
		}
	}
	return f
}

// Snapshot converts a received feed back into a Snapshot. Breakdown order
// follows Sources, then any unknown source names alphabetically.
func (f Feed) Snapshot() Snapshot {
	s := Snapshot{
		Total:      decimal.NewFromFloat(f.Total),
		Gross:      decimal.NewFromFloat(f.Gross),
		Net:        decimal.NewFromFloat(f.NetEmissions),
		Efficiency: decimal.NewFromFloat(f.Efficiency),
	}
	for _, name := range orderedNames(f.Breakdown) {
		src := f.Breakdown[name]
		s.Breakdown = append(s.Breakdown, SourceEmission{
			Source: Source(name),
			Value:  decimal.NewFromFloat(src.Value),
			Change: decimal.NewFromFloat(src.Change),
		})
	}
	return s
}
