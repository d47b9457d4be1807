/*
scenarios.go - Demo strategy mixes

PURPOSE:
  Provides named offset strategy mixes for demos and for exercising the
  dashboard. Loading a scenario replaces the whole strategy list (and saves
  it) but leaves activity data untouched.

AVAILABLE SCENARIOS:
  tree-planting:  The default single strategy, 1000 trees
  balanced-mix:   Trees, RECs, carbon credits and a little SAF
  saf-transition: Fuel-led decarbonization with on-site renewables
  net-zero:       Enough SAF and credits to neutralize the seeded airport

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "balanced-mix"}

ADDING NEW SCENARIOS:
  1. Add to 'scenarios' with ID, name, description
  2. Add its strategy mix to 'scenarioMixes'

SEE ALSO:
  - handlers.go: Handler
  - offset/planner.go: Replace
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/YazeedAlwehaibi/skyzero-dashboard/offset"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "tree-planting",
		Name:        "Tree Planting",
		Description: "Starting point: 1000 trees",
	},
	{
		ID:          "balanced-mix",
		Name:        "Balanced Mix",
		Description: "Trees, renewable certificates, carbon credits and 10% SAF",
	},
	{
		ID:          "saf-transition",
		Name:        "SAF Transition",
		Description: "30% sustainable aviation fuel plus on-site renewable energy",
	},
	{
		ID:          "net-zero",
		Name:        "Net Zero",
		Description: "Full SAF substitution topped up with carbon credits",
	},
}

type mixEntry struct {
	Type  string
	Value string
}

var scenarioMixes = map[string][]mixEntry{
	"tree-planting": {
		{offset.TypeTreePlanting, "1000"},
	},
	"balanced-mix": {
		{offset.TypeTreePlanting, "20000"},
		{offset.TypeRECs, "1500"},
		{offset.TypeCarbonCredit, "1000"},
		{offset.TypeSAFUsage, "10"},
	},
	"saf-transition": {
		{offset.TypeSAFUsage, "30"},
		{offset.TypeRenewableEnergy, "2000"},
	},
	"net-zero": {
		{offset.TypeSAFUsage, "100"},
		{offset.TypeCarbonCredit, "1666"},
	},
}

// scenarioStrategies builds a mix against the planner's registry. Types the
// registry does not define fall back to its default type.
func scenarioStrategies(registry *offset.Registry, id string) ([]offset.Strategy, bool) {
	mix, ok := scenarioMixes[id]
	if !ok {
		return nil, false
	}
	out := make([]offset.Strategy, 0, len(mix))
	for _, e := range mix {
		def, _ := registry.Resolve(e.Type)
		out = append(out, offset.Strategy{
			Type:       def.Name,
			Value:      decimal.RequireFromString(e.Value),
			Unit:       def.Unit,
			ImpactRate: def.ImpactRatePerUnit,
		})
	}
	return out, true
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the last loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario replaces the strategy list with a predefined mix.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	strategies, ok := scenarioStrategies(h.Planner.Registry(), req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	h.Planner.Replace(r.Context(), strategies)

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	h.Logger.Info().Str("scenario", req.ScenarioID).Int("strategies", len(strategies)).Msg("scenario loaded")
	writeJSON(w, http.StatusOK, toSummaryDTO(h.Planner.State()))
}
