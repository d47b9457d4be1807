package offset_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YazeedAlwehaibi/skyzero-dashboard/offset"
	"github.com/YazeedAlwehaibi/skyzero-dashboard/offset/store"
)

func newPlanner(t *testing.T, states *store.Memory, opts ...offset.PlannerOption) *offset.Planner {
	t.Helper()
	opts = append([]offset.PlannerOption{offset.WithStoreOptions(sequentialIDs())}, opts...)
	return offset.NewPlanner(context.Background(), offset.DefaultRegistry(), offset.NewStatePersister(states), opts...)
}

func TestPlanner_DefaultWhenNothingSaved(t *testing.T) {
	// GIVEN: An empty state store
	// WHEN: Creating a planner
	// THEN: One tree planting strategy of 1000 trees exists
	p := newPlanner(t, store.NewMemory(), offset.WithInitialBaseline(tonnes("5000")))

	list := p.Strategies()
	require.Len(t, list, 1)
	assert.Equal(t, offset.TypeTreePlanting, list[0].Type)
	assertDecimal(t, "1000", list[0].Value)
	assertDecimal(t, "25", p.Summary().TotalOffset.Value)
	assertDecimal(t, "4975", p.Summary().NetEmissions.Value)
}

func TestPlanner_MalformedStateFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	states := store.NewMemory()
	require.NoError(t, states.PutState(ctx, offset.StorageKey, []byte(`not json at all`)))

	var logs bytes.Buffer
	p := newPlanner(t, states, offset.WithLogger(zerolog.New(&logs)))

	list := p.Strategies()
	require.Len(t, list, 1)
	assert.Equal(t, offset.TypeTreePlanting, list[0].Type)
	assert.Contains(t, logs.String(), "discarding malformed offset strategies")
}

func TestPlanner_LoadRederivesUnitAndRate(t *testing.T) {
	// GIVEN: Saved records without unit and rate, and a tree planting record
	// carrying the old add-button rate of 22
	// WHEN: Loading them against a 1000 t baseline
	// THEN: Unit and rate come from the registry and impacts follow them
	ctx := context.Background()
	states := store.NewMemory()
	payload := `[{"id":"1","type":"Carbon Credit","value":5},` +
		`{"id":"2","type":"Tree Planting","value":100,"unit":"trees","impactRate":22}]`
	require.NoError(t, states.PutState(ctx, offset.StorageKey, []byte(payload)))

	var logs bytes.Buffer
	p := newPlanner(t, states, offset.WithInitialBaseline(tonnes("1000")), offset.WithLogger(zerolog.New(&logs)))

	list := p.Strategies()
	require.Len(t, list, 2)
	assert.Equal(t, offset.UnitTCO2e, list[0].Unit)
	assertDecimal(t, "1", list[0].ImpactRate)
	assertDecimal(t, "0.025", list[1].ImpactRate)

	summary := p.Summary()
	assertDecimal(t, "5", summary.PerStrategyImpact["1"].Value)
	assertDecimal(t, "2.5", summary.PerStrategyImpact["2"].Value)
	assertDecimal(t, "7.5", summary.TotalOffset.Value)
	assert.Contains(t, logs.String(), "re-derived unit and rate")
}

func TestPlanner_LoadsSavedState(t *testing.T) {
	// GIVEN: A planner that was mutated and saved
	// WHEN: A second planner loads the same store
	// THEN: It sees the same list, ids included
	ctx := context.Background()
	states := store.NewMemory()

	first := newPlanner(t, states)
	first.Add(ctx, offset.TypeSAFUsage, dec("20"))
	_, _, err := first.Update(ctx, "s-1", offset.FieldValue, "250")
	require.NoError(t, err)

	second := offset.NewPlanner(ctx, offset.DefaultRegistry(), offset.NewStatePersister(states))

	assert.Equal(t, len(first.Strategies()), len(second.Strategies()))
	for i, want := range first.Strategies() {
		got := second.Strategies()[i]
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Type, got.Type)
		assertDecimal(t, want.Value.String(), got.Value)
	}
}

func TestPlanner_MutationsRecomputeSummary(t *testing.T) {
	ctx := context.Background()
	p := newPlanner(t, store.NewMemory(), offset.WithInitialBaseline(tonnes("1000")))

	st, state := p.Add(ctx, offset.TypeCarbonCredit, dec("5"))
	assertDecimal(t, "30", state.Summary.TotalOffset.Value)

	_, state, err := p.Update(ctx, st.ID, offset.FieldValue, "75")
	require.NoError(t, err)
	assertDecimal(t, "100", state.Summary.TotalOffset.Value)

	summary := p.Remove(ctx, "s-1")
	assertDecimal(t, "75", summary.TotalOffset.Value)
	assertDecimal(t, "925", summary.NetEmissions.Value)
	assert.Equal(t, summary, p.Summary())
}

func TestPlanner_SetBaselineRecomputes(t *testing.T) {
	ctx := context.Background()
	p := newPlanner(t, store.NewMemory())
	p.Replace(ctx, nil)
	p.Add(ctx, offset.TypeSAFUsage, dec("10"))

	summary := p.SetBaseline(tonnes("8578.87"))

	assertDecimal(t, "686.3096", summary.TotalOffset.Value)
	assertDecimal(t, "8578.87", p.Baseline().Value)
	assertDecimal(t, "8", summary.ReductionPercentage)
}

func TestPlanner_SaveFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	states := store.NewMemory()
	var logs bytes.Buffer
	p := newPlanner(t, states, offset.WithLogger(zerolog.New(&logs)))
	states.PutErr = errors.New("disk full")

	_, state := p.Add(ctx, offset.TypeCarbonCredit, dec("10"))

	assert.Len(t, p.Strategies(), 2)
	assertDecimal(t, "35", state.Summary.TotalOffset.Value)
	assert.Contains(t, logs.String(), "failed to save offset strategies")
}

func TestPlanner_UpdateUnknownID(t *testing.T) {
	ctx := context.Background()
	p := newPlanner(t, store.NewMemory())
	before := p.Summary()

	_, state, err := p.Update(ctx, "missing", offset.FieldValue, "1")

	assert.ErrorIs(t, err, offset.ErrStrategyNotFound)
	assert.Equal(t, before, state.Summary)
}

func TestPlanner_RemoveAbsentDoesNotSave(t *testing.T) {
	ctx := context.Background()
	states := store.NewMemory()
	p := newPlanner(t, states)

	p.Remove(ctx, "missing")

	assert.Equal(t, 0, states.Keys())
}

func TestPlanner_UnknownTypeIsLogged(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	p := newPlanner(t, store.NewMemory(), offset.WithLogger(zerolog.New(&logs)))

	st, _ := p.Add(ctx, "Kelp Farming", dec("3"))

	assert.Equal(t, offset.TypeTreePlanting, st.Type)
	assert.Contains(t, logs.String(), "unknown strategy type")
}

func TestPlanner_StateIsConsistent(t *testing.T) {
	ctx := context.Background()
	p := newPlanner(t, store.NewMemory(), offset.WithInitialBaseline(tonnes("200")))
	p.Add(ctx, offset.TypeRECs, dec("100"))

	state := p.State()

	assert.Equal(t, newEngine().Aggregate(state.Strategies, state.Baseline), state.Summary)
}

func TestPlanner_MutationStateIncludesResult(t *testing.T) {
	// GIVEN: A goroutine that keeps clearing the strategy list
	// WHEN: Adding strategies at the same time
	// THEN: Each returned state still lists the strategy just added
	ctx := context.Background()
	p := newPlanner(t, store.NewMemory(), offset.WithInitialBaseline(tonnes("1000")))

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				p.Replace(ctx, nil)
			}
		}
	}()

	for i := 0; i < 50; i++ {
		st, state := p.Add(ctx, offset.TypeCarbonCredit, dec("2"))
		assert.Contains(t, strategyIDs(state.Strategies), st.ID)
		assertDecimal(t, "2", state.Summary.PerStrategyImpact[st.ID].Value)

		updated, state, err := p.Update(ctx, st.ID, offset.FieldValue, "4")
		if errors.Is(err, offset.ErrStrategyNotFound) {
			continue
		}
		require.NoError(t, err)
		assert.Contains(t, strategyIDs(state.Strategies), updated.ID)
		assertDecimal(t, "4", state.Summary.PerStrategyImpact[updated.ID].Value)
	}
	close(done)
	wg.Wait()
}

func strategyIDs(list []offset.Strategy) []offset.StrategyID {
	ids := make([]offset.StrategyID, len(list))
	for i, st := range list {
		ids[i] = st.ID
	}
	return ids
}
