/*
registry.go - OffsetType catalog

PURPOSE:
  Maps a strategy kind name ("Tree Planting", "SAF Usage", ...) to its unit,
  impact rate and calculation variant. The registry is built once at process
  start and is read-only afterwards; it has no mutating methods.

HOW IT WORKS:
  1. DefaultRegistry() returns the built-in catalog
  2. factory.BuildRegistry() can build one from config instead
  3. Lookup(name) fails with ErrUnknownStrategyType for unknown names
  4. Resolve(name) never fails: unknown names fall back to Default()

FALLBACK:
  A strategy referencing a removed or misspelled type must not break the
  dashboard. Callers use Resolve (or Lookup + Default) and keep going.

SEE ALSO:
  - types.go: OffsetType definition
  - factory/offset_types.go: JSON/YAML to OffsetType conversion
*/
package offset

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Built-in offset type names.
const (
	TypeTreePlanting    = "Tree Planting"
	TypeRECs            = "RECs"
	TypeCarbonCredit    = "Carbon Credit"
	TypeRenewableEnergy = "Renewable Energy"
	TypeSAFUsage        = "SAF Usage"
)

// Registry is an immutable catalog of offset types.
type Registry struct {
	types  []OffsetType
	byName map[string]int
}

// NewRegistry validates the definitions and builds a registry. The first
// definition is the fallback type.
func NewRegistry(types ...OffsetType) (*Registry, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("%w: registry needs at least one type", ErrInvalidOffsetType)
	}

	r := &Registry{
		types:  make([]OffsetType, 0, len(types)),
		byName: make(map[string]int, len(types)),
	}
	for _, t := range types {
		if err := validateType(t); err != nil {
			return nil, err
		}
		if _, dup := r.byName[t.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidOffsetType, t.Name)
		}
		r.byName[t.Name] = len(r.types)
		r.types = append(r.types, t)
	}
	return r, nil
}

// MustNewRegistry is NewRegistry for static definitions; it panics on error.
func MustNewRegistry(types ...OffsetType) *Registry {
	r, err := NewRegistry(types...)
	if err != nil {
		panic(err)
	}
	return r
}

func validateType(t OffsetType) error {
	if t.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidOffsetType)
	}
	switch t.Kind {
	case KindAbsolute:
		if t.ImpactRatePerUnit.IsNegative() {
			return fmt.Errorf("%w: %q has a negative impact rate", ErrInvalidOffsetType, t.Name)
		}
	case KindPercentage:
		if !t.EfficiencyFactor.IsPositive() || t.EfficiencyFactor.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: %q efficiency factor must be in (0, 1]", ErrInvalidOffsetType, t.Name)
		}
	default:
		return fmt.Errorf("%w: %q has unknown kind %q", ErrInvalidOffsetType, t.Name, t.Kind)
	}
	return nil
}

// Lookup returns the definition for name.
func (r *Registry) Lookup(name string) (OffsetType, error) {
	i, ok := r.byName[name]
	if !ok {
		return OffsetType{}, &UnknownStrategyTypeError{Name: name}
	}
	return r.types[i], nil
}

// Resolve returns the definition for name, or Default() when name is
// unknown. The boolean reports whether name itself was found.
func (r *Registry) Resolve(name string) (OffsetType, bool) {
	if i, ok := r.byName[name]; ok {
		return r.types[i], true
	}
	return r.Default(), false
}

// Default returns the fallback type.
func (r *Registry) Default() OffsetType {
	return r.types[0]
}

// List returns all definitions in registration order.
func (r *Registry) List() []OffsetType {
	out := make([]OffsetType, len(r.types))
	copy(out, r.types)
	return out
}

func (r *Registry) Len() int { return len(r.types) }

// =============================================================================
// BUILT-IN CATALOG
// =============================================================================

// DefaultTypes returns the built-in offset types. Rates are tCO2e per unit:
// a tree absorbs about 25 kg per year in a hot arid climate, a MWh of
// renewable supply displaces 0.568 t on the Saudi grid, and a credit is one
// tonne by definition.
func DefaultTypes() []OffsetType {
	return []OffsetType{
		{
			Name:              TypeTreePlanting,
			Unit:              UnitTrees,
			ImpactRatePerUnit: decimal.RequireFromString("0.025"),
			Kind:              KindAbsolute,
			Icon:              "🌳",
			Color:             "#22c55e",
		},
		{
			Name:              TypeRECs,
			Unit:              UnitMWh,
			ImpactRatePerUnit: decimal.RequireFromString("0.568"),
			Kind:              KindAbsolute,
			Icon:              "📜",
			Color:             "#eab308",
		},
		{
			Name:              TypeCarbonCredit,
			Unit:              UnitTCO2e,
			ImpactRatePerUnit: decimal.NewFromInt(1),
			Kind:              KindAbsolute,
			Icon:              "📜",
			Color:             "#a855f7",
		},
		{
			Name:              TypeRenewableEnergy,
			Unit:              UnitMWh,
			ImpactRatePerUnit: decimal.RequireFromString("0.568"),
			Kind:              KindAbsolute,
			Icon:              "⚡",
			Color:             "#3b82f6",
		},
		{
			Name:             TypeSAFUsage,
			Unit:             UnitPercent,
			Kind:             KindPercentage,
			EfficiencyFactor: decimal.RequireFromString("0.8"),
			Icon:             "✈️",
			Color:            "#f97316",
		},
	}
}

// DefaultRegistry returns a registry over DefaultTypes.
func DefaultRegistry() *Registry {
	return MustNewRegistry(DefaultTypes()...)
}
