/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Engine values are
  decimals; the dashboard consumes plain JSON numbers, so conversion
  happens here and nowhere else.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Offset:
    OffsetTypeDTO, StrategyDTO, SummaryDTO, StrategyMutationDTO
    AddStrategyRequest, UpdateStrategyRequest

  Emissions:
    UpdateActivityRequest (the feed itself is emissions.Feed)

  Reports:
    ReportExportDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/YazeedAlwehaibi/skyzero-dashboard/offset"
	"github.com/YazeedAlwehaibi/skyzero-dashboard/store/sqlite"
)

// =============================================================================
// OFFSET TYPES
// =============================================================================

// OffsetTypeDTO is one registry entry.
type OffsetTypeDTO struct {
	Name            string  `json:"name"`
	Unit            string  `json:"unit"`
	Kind            string  `json:"kind"`
	ImpactRate      float64 `json:"impactRate"`
	Efficiency      float64 `json:"efficiency,omitempty"`
	PercentageBased bool    `json:"percentageBased"`
	Icon            string  `json:"icon"`
	Color           string  `json:"color"`
}

func toOffsetTypeDTO(t offset.OffsetType) OffsetTypeDTO {
	dto := OffsetTypeDTO{
		Name:            t.Name,
		Unit:            string(t.Unit),
		Kind:            string(t.Kind),
		ImpactRate:      t.ImpactRatePerUnit.InexactFloat64(),
		PercentageBased: t.IsPercentageBased(),
		Icon:            t.Icon,
		Color:           t.Color,
	}
	if t.IsPercentageBased() {
		dto.Efficiency = t.EfficiencyFactor.InexactFloat64()
	}
	return dto
}

// =============================================================================
// STRATEGIES
// =============================================================================

// StrategyDTO is a strategy plus its current impact and share of the total.
type StrategyDTO struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	ImpactRate float64 `json:"impactRate"`
	Impact     float64 `json:"impact"`
	Share      float64 `json:"share"`
}

// SummaryDTO is the aggregation result the dashboard renders.
type SummaryDTO struct {
	BaselineEmissions   float64       `json:"baselineEmissions"`
	TotalOffset         float64       `json:"totalOffset"`
	NetEmissions        float64       `json:"netEmissions"`
	ReductionPercentage float64       `json:"reductionPercentage"`
	IsNetZero           bool          `json:"isNetZero"`
	Strategies          []StrategyDTO `json:"strategies"`
}

// StrategyMutationDTO is returned by add and update.
type StrategyMutationDTO struct {
	Strategy StrategyDTO `json:"strategy"`
	Summary  SummaryDTO  `json:"summary"`
}

// AddStrategyRequest adds a strategy. Value defaults to 100 when omitted.
type AddStrategyRequest struct {
	Type  string   `json:"type"`
	Value *float64 `json:"value,omitempty"`
}

// UpdateStrategyRequest changes one field. Value may be a JSON string or
// number: {"field":"type","value":"RECs"}, {"field":"value","value":250}.
type UpdateStrategyRequest struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

func toStrategyDTO(s offset.Strategy, summary offset.Summary) StrategyDTO {
	dto := StrategyDTO{
		ID:         string(s.ID),
		Type:       s.Type,
		Value:      s.Value.InexactFloat64(),
		Unit:       string(s.Unit),
		ImpactRate: s.ImpactRate.InexactFloat64(),
	}
	for _, line := range summary.Lines {
		if line.StrategyID == s.ID {
			dto.Impact = line.Impact.Value.Round(4).InexactFloat64()
			dto.Share = line.Share.Round(2).InexactFloat64()
			break
		}
	}
	return dto
}

func toSummaryDTO(state offset.State) SummaryDTO {
	dto := SummaryDTO{
		BaselineEmissions:   state.Summary.Baseline.Value.Round(2).InexactFloat64(),
		TotalOffset:         state.Summary.TotalOffset.Value.Round(4).InexactFloat64(),
		NetEmissions:        state.Summary.NetEmissions.Value.Round(4).InexactFloat64(),
		ReductionPercentage: state.Summary.ReductionPercentage.Round(2).InexactFloat64(),
		IsNetZero:           state.Summary.IsNetZero,
		Strategies:          make([]StrategyDTO, 0, len(state.Strategies)),
	}
	for _, s := range state.Strategies {
		dto.Strategies = append(dto.Strategies, toStrategyDTO(s, state.Summary))
	}
	return dto
}

// =============================================================================
// EMISSIONS
// =============================================================================

// UpdateActivityRequest sets the activity amount for one source.
type UpdateActivityRequest struct {
	Amount *float64 `json:"amount"`
}

// =============================================================================
// REPORTS
// =============================================================================

// ReportExportDTO is one export history entry.
type ReportExportDTO struct {
	ID            string  `json:"id"`
	Filename      string  `json:"filename"`
	SizeBytes     int     `json:"sizeBytes"`
	Baseline      float64 `json:"baselineEmissions"`
	TotalOffset   float64 `json:"totalOffset"`
	NetEmissions  float64 `json:"netEmissions"`
	StrategyCount int     `json:"strategyCount"`
	Status        string  `json:"status"`
	Error         string  `json:"error,omitempty"`
	CreatedAt     string  `json:"createdAt"`
}

func toReportExportDTO(rec sqlite.ExportRecord) ReportExportDTO {
	return ReportExportDTO{
		ID:            rec.ID,
		Filename:      rec.Filename,
		SizeBytes:     rec.SizeBytes,
		Baseline:      rec.Baseline.InexactFloat64(),
		TotalOffset:   rec.TotalOffset.InexactFloat64(),
		NetEmissions:  rec.NetEmissions.InexactFloat64(),
		StrategyCount: rec.StrategyCount,
		Status:        string(rec.Status),
		Error:         rec.Error,
		CreatedAt:     rec.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo strategy mix.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
