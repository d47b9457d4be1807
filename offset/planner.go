/*
planner.go - Offset planning session

PURPOSE:
  Owns one Strategy Store, the last received baseline and the Summary
  derived from them. Every mutation recomputes the Summary before it
  returns, then saves the strategy list, so readers never see a summary
  that disagrees with its inputs.

LIFECYCLE:
  1. NewPlanner loads saved state once
  2. No saved state, or a malformed payload -> one default strategy
  3. Add/Remove/Update/Replace mutate, recompute, save
  4. SetBaseline swaps the snapshot baseline and recomputes

CONCURRENCY:
  HTTP handlers call the planner from many goroutines. A single mutex
  serializes mutations (last write wins); reads take the read lock.

PERSISTENCE FAILURES:
  A failed Save is logged. The in-memory mutation stands, and the next
  successful Save writes the full list again.
*/
package offset

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultStrategyValue is the tree count of the initial strategy.
var DefaultStrategyValue = decimal.NewFromInt(1000)

// State is a consistent view of the planner's inputs and output.
type State struct {
	Baseline   Amount
	Strategies []Strategy
	Summary    Summary
}

// Planner is the session object behind the API and CLI.
type Planner struct {
	mu sync.RWMutex

	registry  *Registry
	engine    *Engine
	store     *StrategyStore
	persister Persister
	logger    zerolog.Logger

	baseline Amount
	summary  Summary
}

// PlannerOption configures a Planner.
type PlannerOption func(*plannerConfig)

type plannerConfig struct {
	logger    zerolog.Logger
	storeOpts []StoreOption
	baseline  Amount
}

func WithLogger(logger zerolog.Logger) PlannerOption {
	return func(c *plannerConfig) { c.logger = logger }
}

func WithStoreOptions(opts ...StoreOption) PlannerOption {
	return func(c *plannerConfig) { c.storeOpts = append(c.storeOpts, opts...) }
}

// WithInitialBaseline seeds the baseline used before the first snapshot.
func WithInitialBaseline(baseline Amount) PlannerOption {
	return func(c *plannerConfig) { c.baseline = baseline }
}

// NewPlanner builds a planner and seeds it from persister. It never fails:
// unreadable state is logged and replaced by the default strategy.
func NewPlanner(ctx context.Context, registry *Registry, persister Persister, opts ...PlannerOption) *Planner {
	cfg := plannerConfig{
		logger:   zerolog.Nop(),
		baseline: TonnesFromDecimal(decimal.Zero),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Planner{
		registry:  registry,
		engine:    NewEngine(registry),
		store:     NewStrategyStore(registry, cfg.storeOpts...),
		persister: persister,
		logger:    cfg.logger,
		baseline:  cfg.baseline,
	}

	saved, err := persister.Load(ctx)
	switch {
	case err == nil:
		if repaired := p.store.Replace(saved); repaired > 0 {
			p.logger.Warn().Int("repaired", repaired).Msg("saved offset strategies disagreed with the registry, re-derived unit and rate")
		}
		p.logger.Info().Int("strategies", p.store.Len()).Msg("loaded saved offset strategies")
	case errors.Is(err, ErrNoSavedState):
		p.seedDefault()
		p.logger.Info().Msg("no saved offset strategies, starting from default")
	case errors.Is(err, ErrMalformedPersistedState):
		p.seedDefault()
		p.logger.Warn().Err(err).Msg("discarding malformed offset strategies")
	default:
		p.seedDefault()
		p.logger.Error().Err(err).Msg("failed to load offset strategies, starting from default")
	}

	p.recompute()
	return p
}

func (p *Planner) seedDefault() {
	p.store.Replace(nil)
	p.store.Add(p.registry.Default().Name, DefaultStrategyValue)
}

// =============================================================================
// READS
// =============================================================================

func (p *Planner) Registry() *Registry { return p.registry }

func (p *Planner) Baseline() Amount {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.baseline
}

func (p *Planner) Summary() Summary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.summary
}

func (p *Planner) Strategies() []Strategy {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.store.List()
}

// State returns baseline, strategies and summary from the same instant.
func (p *Planner) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot()
}

// snapshot copies the current state. Caller holds p.mu.
func (p *Planner) snapshot() State {
	return State{Baseline: p.baseline, Strategies: p.store.List(), Summary: p.summary}
}

// =============================================================================
// MUTATIONS
// =============================================================================

// SetBaseline replaces the baseline with the latest snapshot value.
func (p *Planner) SetBaseline(baseline Amount) Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.baseline = TonnesFromDecimal(baseline.Value)
	p.recompute()
	return p.summary
}

// Add appends a strategy. Unknown type names fall back to the default type.
// The returned state is taken under the same lock as the mutation, so it
// always contains the new strategy.
func (p *Planner) Add(ctx context.Context, typeName string, value decimal.Decimal) (Strategy, State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.warnUnknownType(typeName)
	st := p.store.Add(typeName, value)
	p.commit(ctx)
	return st, p.snapshot()
}

// Remove deletes a strategy; absent ids are a no-op.
func (p *Planner) Remove(ctx context.Context, id StrategyID) Summary {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.store.Remove(id) {
		p.commit(ctx)
	}
	return p.summary
}

// Update changes one field of a strategy and returns it with the state
// right after the change.
func (p *Planner) Update(ctx context.Context, id StrategyID, field Field, value string) (Strategy, State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if field == FieldType {
		p.warnUnknownType(value)
	}
	st, err := p.store.Update(id, field, value)
	if err != nil {
		return Strategy{}, p.snapshot(), err
	}
	p.commit(ctx)
	return st, p.snapshot(), nil
}

// Replace swaps the whole strategy list.
func (p *Planner) Replace(ctx context.Context, strategies []Strategy) Summary {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.store.Replace(strategies)
	p.commit(ctx)
	return p.summary
}

// commit recomputes and saves. Caller holds p.mu.
func (p *Planner) commit(ctx context.Context) {
	p.recompute()
	if err := p.persister.Save(ctx, p.store.List()); err != nil {
		p.logger.Error().Err(err).Msg("failed to save offset strategies")
	}
}

func (p *Planner) recompute() {
	p.summary = p.engine.Aggregate(p.store.List(), p.baseline)
}

func (p *Planner) warnUnknownType(name string) {
	if _, err := p.registry.Lookup(name); err != nil {
		p.logger.Warn().
			Err(err).
			Str("fallback", p.registry.Default().Name).
			Msg("unknown strategy type, using fallback")
	}
}
