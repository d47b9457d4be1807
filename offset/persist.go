/*
persist.go - Persistence interface for the strategy list

PURPOSE:
  Defines the boundary between the engine and durable storage. The engine
  only needs "load last saved state" and "save current state"; how bytes
  reach disk is the adapter's business.

KEY INTERFACES:
  Persister:  Load/Save of the whole strategy list
  StateStore: Key/value blob storage (SQLite, memory)

CONTRACT:
  - Load is called once at start-up. ErrNoSavedState means nothing was
    ever saved; a *MalformedStateError means the payload is unreadable.
    Planner treats both as "start from defaults".
  - Save is called after every successful mutation.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: app_state table
  - offset/store/memory.go: In-memory for tests

SEE ALSO:
  - codec.go: Payload format
  - planner.go: Calls Load and Save
*/
package offset

import (
	"context"
	"fmt"
)

// =============================================================================
// PERSISTER - Strategy list round trip
// =============================================================================

type Persister interface {
	// Load returns the last saved list, ErrNoSavedState, or a
	// *MalformedStateError.
	Load(ctx context.Context) ([]Strategy, error)

	// Save replaces the saved list.
	Save(ctx context.Context, strategies []Strategy) error
}

// StateStore stores opaque payloads under string keys.
type StateStore interface {
	// GetState returns the payload for key, or ErrNoSavedState.
	GetState(ctx context.Context, key string) ([]byte, error)

	// PutState creates or replaces the payload for key.
	PutState(ctx context.Context, key string, payload []byte) error
}

// =============================================================================
// STATE PERSISTER - Persister over a StateStore
// =============================================================================

// StatePersister encodes the strategy list into a StateStore under Key.
type StatePersister struct {
	States StateStore
	Key    string
}

func NewStatePersister(states StateStore) *StatePersister {
	return &StatePersister{States: states, Key: StorageKey}
}

func (p *StatePersister) Load(ctx context.Context) ([]Strategy, error) {
	payload, err := p.States.GetState(ctx, p.Key)
	if err != nil {
		return nil, err
	}
	return DecodeStrategies(payload)
}

func (p *StatePersister) Save(ctx context.Context, strategies []Strategy) error {
	payload, err := EncodeStrategies(strategies)
	if err != nil {
		return fmt.Errorf("encode strategies: %w", err)
	}
	return p.States.PutState(ctx, p.Key, payload)
}
