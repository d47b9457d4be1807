/*
strategy.go - Strategy Store

PURPOSE:
  The mutable, ordered list of active offset strategies. It knows nothing
  about calculation; the Planner recomputes the summary after each call.

OPERATIONS:
  Add(type, value)        New strategy with a fresh id, unit/rate from registry
  Remove(id)              No-op when id is absent
  Update(id, field, val)  Type changes re-derive unit/rate in the same call
  List()                  Insertion order, copied

VALUE CLAMPING:
  Negative values become 0. Percentage-based values are capped at 100,
  including when a type change turns an absolute strategy into a
  percentage one (1000 trees -> SAF Usage 100%).

NOT SAFE FOR CONCURRENT USE:
  The store is single-owner. Planner serializes access with its own mutex.
*/
package offset

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Field names an editable strategy attribute.
type Field string

const (
	FieldType  Field = "type"
	FieldValue Field = "value"
)

// StrategyStore holds the ordered strategy list.
type StrategyStore struct {
	registry   *Registry
	strategies []Strategy
	newID      func() StrategyID
}

// StoreOption configures a StrategyStore.
type StoreOption func(*StrategyStore)

// WithIDGenerator replaces the UUID id source. Generated ids must be unique.
func WithIDGenerator(gen func() StrategyID) StoreOption {
	return func(s *StrategyStore) { s.newID = gen }
}

func NewStrategyStore(registry *Registry, opts ...StoreOption) *StrategyStore {
	s := &StrategyStore{
		registry: registry,
		newID:    func() StrategyID { return StrategyID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends a strategy of the named type. Unknown names fall back to the
// registry default.
func (s *StrategyStore) Add(typeName string, initial decimal.Decimal) Strategy {
	def, _ := s.registry.Resolve(typeName)
	st := Strategy{
		ID:         s.newID(),
		Type:       def.Name,
		Value:      clampValue(def, initial),
		Unit:       def.Unit,
		ImpactRate: def.ImpactRatePerUnit,
	}
	s.strategies = append(s.strategies, st)
	return st
}

// Remove deletes the strategy with id and reports whether it existed.
func (s *StrategyStore) Remove(id StrategyID) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.strategies = append(s.strategies[:i], s.strategies[i+1:]...)
	return true
}

// Update changes one field of a strategy. The value is parsed according to
// the field: a type name for FieldType, a decimal for FieldValue.
func (s *StrategyStore) Update(id StrategyID, field Field, value string) (Strategy, error) {
	switch field {
	case FieldType:
		return s.SetType(id, value)
	case FieldValue:
		v, err := decimal.NewFromString(value)
		if err != nil {
			return Strategy{}, &InvalidUpdateError{Field: field, Value: value, Reason: "not a number"}
		}
		return s.SetValue(id, v)
	default:
		return Strategy{}, &InvalidUpdateError{Field: field, Value: value, Reason: "unknown field"}
	}
}

// SetType switches a strategy to another type and re-derives Unit and
// ImpactRate from the registry. Unknown names fall back to the default type.
func (s *StrategyStore) SetType(id StrategyID, typeName string) (Strategy, error) {
	i := s.indexOf(id)
	if i < 0 {
		return Strategy{}, ErrStrategyNotFound
	}
	def, _ := s.registry.Resolve(typeName)
	st := &s.strategies[i]
	st.Type = def.Name
	st.Unit = def.Unit
	st.ImpactRate = def.ImpactRatePerUnit
	st.Value = clampValue(def, st.Value)
	return *st, nil
}

// SetValue changes a strategy's quantity, clamped to the valid range.
func (s *StrategyStore) SetValue(id StrategyID, value decimal.Decimal) (Strategy, error) {
	i := s.indexOf(id)
	if i < 0 {
		return Strategy{}, ErrStrategyNotFound
	}
	def, _ := s.registry.Resolve(s.strategies[i].Type)
	s.strategies[i].Value = clampValue(def, value)
	return s.strategies[i], nil
}

// Get returns the strategy with id.
func (s *StrategyStore) Get(id StrategyID) (Strategy, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return Strategy{}, false
	}
	return s.strategies[i], true
}

// List returns a copy of the strategies in insertion order.
func (s *StrategyStore) List() []Strategy {
	out := make([]Strategy, len(s.strategies))
	copy(out, s.strategies)
	return out
}

func (s *StrategyStore) Len() int { return len(s.strategies) }

// Replace swaps the whole list, e.g. with loaded state. Records are
// sanitized: unknown types fall back to the default, unit and rate are
// always taken from the registry entry, values are clamped, and missing or
// repeated ids get fresh ones. It returns how many records had a type, unit
// or rate that disagreed with the registry.
func (s *StrategyStore) Replace(strategies []Strategy) int {
	repaired := 0
	seen := make(map[StrategyID]bool, len(strategies))
	out := make([]Strategy, 0, len(strategies))
	for _, st := range strategies {
		def, _ := s.registry.Resolve(st.Type)
		if st.Type != def.Name || st.Unit != def.Unit || !st.ImpactRate.Equal(def.ImpactRatePerUnit) {
			repaired++
		}
		st.Type = def.Name
		st.Unit = def.Unit
		st.ImpactRate = def.ImpactRatePerUnit
		st.Value = clampValue(def, st.Value)
		if st.ID == "" || seen[st.ID] {
			st.ID = s.newID()
		}
		seen[st.ID] = true
		out = append(out, st)
	}
	s.strategies = out
	return repaired
}

func (s *StrategyStore) indexOf(id StrategyID) int {
	for i := range s.strategies {
		if s.strategies[i].ID == id {
			return i
		}
	}
	return -1
}

func clampValue(def OffsetType, v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	if def.IsPercentageBased() && v.GreaterThan(hundred) {
		return hundred
	}
	return v
}
