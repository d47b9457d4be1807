/*
Package factory converts offset type definitions from configuration into
registry entries.

PURPOSE:
  Operators can extend or re-rate the offset catalogue (e.g. a new REC
  supplier rate) from the YAML config or a JSON document, without a code
  change. The factory validates the definitions and builds an
  offset.Registry.

JSON SCHEMA:
  [
    {"name": "Tree Planting", "unit": "trees", "kind": "absolute",
     "impact_rate": 0.025, "icon": "🌳", "color": "#22c55e"},
    {"name": "SAF Usage", "unit": "%", "kind": "percentage",
     "efficiency": 0.8, "icon": "✈️", "color": "#f97316"}
  ]

DEFAULTS:
  - kind defaults to "absolute"
  - unit defaults to "%" for percentage types, "tCO2e" otherwise
  - An empty list yields the built-in registry

USAGE:
  f := NewOffsetTypeFactory()
  registry, err := f.BuildRegistry(cfg.OffsetTypes)

SEE ALSO:
  - offset/registry.go: Registry and DefaultTypes
  - config/config.go: offset_types section
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/YazeedAlwehaibi/skyzero-dashboard/offset"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// OffsetTypeJSON is the configuration representation of an offset type.
type OffsetTypeJSON struct {
	Name       string  `json:"name" yaml:"name"`
	Unit       string  `json:"unit,omitempty" yaml:"unit,omitempty"`
	Kind       string  `json:"kind,omitempty" yaml:"kind,omitempty"`             // absolute, percentage
	ImpactRate float64 `json:"impact_rate,omitempty" yaml:"impact_rate,omitempty"` // tCO2e per unit
	Efficiency float64 `json:"efficiency,omitempty" yaml:"efficiency,omitempty"`   // percentage types only
	Icon       string  `json:"icon,omitempty" yaml:"icon,omitempty"`
	Color      string  `json:"color,omitempty" yaml:"color,omitempty"`
}

// =============================================================================
// OFFSET TYPE FACTORY
// =============================================================================

// OffsetTypeFactory converts configuration entries into offset types.
type OffsetTypeFactory struct{}

func NewOffsetTypeFactory() *OffsetTypeFactory {
	return &OffsetTypeFactory{}
}

// ParseOffsetTypes parses a JSON array of offset type definitions.
func (f *OffsetTypeFactory) ParseOffsetTypes(jsonStr string) ([]offset.OffsetType, error) {
	var entries []OffsetTypeJSON
	if err := json.Unmarshal([]byte(jsonStr), &entries); err != nil {
		return nil, fmt.Errorf("failed to parse offset types JSON: %w", err)
	}

	types := make([]offset.OffsetType, 0, len(entries))
	for _, e := range entries {
		t, err := f.FromJSON(e)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// FromJSON converts one entry, applying defaults.
func (f *OffsetTypeFactory) FromJSON(e OffsetTypeJSON) (offset.OffsetType, error) {
	kind, err := parseKind(e.Kind)
	if err != nil {
		return offset.OffsetType{}, fmt.Errorf("offset type %q: %w", e.Name, err)
	}

	t := offset.OffsetType{
		Name:  e.Name,
		Unit:  offset.Unit(e.Unit),
		Kind:  kind,
		Icon:  e.Icon,
		Color: e.Color,
	}
	switch kind {
	case offset.KindPercentage:
		t.EfficiencyFactor = decimal.NewFromFloat(e.Efficiency)
		if t.Unit == "" {
			t.Unit = offset.UnitPercent
		}
	default:
		t.ImpactRatePerUnit = decimal.NewFromFloat(e.ImpactRate)
		if t.Unit == "" {
			t.Unit = offset.UnitTCO2e
		}
	}
	return t, nil
}

// ToJSON converts an offset type back to its configuration form.
func (f *OffsetTypeFactory) ToJSON(t offset.OffsetType) OffsetTypeJSON {
	e := OffsetTypeJSON{
		Name:  t.Name,
		Unit:  string(t.Unit),
		Kind:  string(t.Kind),
		Icon:  t.Icon,
		Color: t.Color,
	}
	if t.IsPercentageBased() {
		e.Efficiency = t.EfficiencyFactor.InexactFloat64()
	} else {
		e.ImpactRate = t.ImpactRatePerUnit.InexactFloat64()
	}
	return e
}

// BuildRegistry converts entries and builds a registry. An empty list
// returns the built-in registry; the first entry becomes the fallback type.
func (f *OffsetTypeFactory) BuildRegistry(entries []OffsetTypeJSON) (*offset.Registry, error) {
	if len(entries) == 0 {
		return offset.DefaultRegistry(), nil
	}

	types := make([]offset.OffsetType, 0, len(entries))
	for _, e := range entries {
		t, err := f.FromJSON(e)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return offset.NewRegistry(types...)
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseKind(s string) (offset.Kind, error) {
	switch s {
	case "", "absolute":
		return offset.KindAbsolute, nil
	case "percentage", "percent":
		return offset.KindPercentage, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", offset.ErrInvalidOffsetType, s)
	}
}
