package offset

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// StorageKey is the fixed key the strategy list is saved under.
const StorageKey = "offset_strategies"

// strategyRecord is the persisted shape of a Strategy. Decimals are written
// as JSON strings and read from strings or numbers, so payloads saved by the
// browser dashboard (plain numbers) still load.
type strategyRecord struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Value      decimal.Decimal `json:"value"`
	Unit       string          `json:"unit"`
	ImpactRate decimal.Decimal `json:"impactRate"`
}

// EncodeStrategies serializes the list as a single JSON array.
func EncodeStrategies(strategies []Strategy) ([]byte, error) {
	records := make([]strategyRecord, len(strategies))
	for i, s := range strategies {
		records[i] = strategyRecord{
			ID:         string(s.ID),
			Type:       s.Type,
			Value:      s.Value,
			Unit:       string(s.Unit),
			ImpactRate: s.ImpactRate,
		}
	}
	return json.Marshal(records)
}

// DecodeStrategies parses a payload written by EncodeStrategies. Anything
// that is not an array of records with ids is a *MalformedStateError.
func DecodeStrategies(data []byte) ([]Strategy, error) {
	var records []strategyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &MalformedStateError{Cause: err}
	}
	if records == nil {
		return nil, &MalformedStateError{Cause: errors.New("payload is null")}
	}

	strategies := make([]Strategy, len(records))
	for i, r := range records {
		if r.ID == "" {
			return nil, &MalformedStateError{Cause: fmt.Errorf("record %d has no id", i)}
		}
		strategies[i] = Strategy{
			ID:         StrategyID(r.ID),
			Type:       r.Type,
			Value:      r.Value,
			Unit:       Unit(r.Unit),
			ImpactRate: r.ImpactRate,
		}
	}
	return strategies, nil
}
