/*
Package report turns an offset summary into a downloadable PDF.

PURPOSE:
  Builds the export payload from the engine's summary, hands it to a
  document renderer (the bundled PDF renderer or a remote
  document-generation service) and returns the produced file.

FLOW:
  Planner.State() -> BuildRequest -> Exporter.Export -> Renderer.Render
                                                          |
                                             PDFRenderer | HTTPRenderer

FAILURES:
  Every failure is an *ExportFailure (errors.Is ErrExport). There is no
  retry. A call overtaken by a newer one returns ErrExportSuperseded.

SEE ALSO:
  - pdf.go:      Document layout
  - exporter.go: Timeout and supersession
  - api/handlers.go: POST /api/offset/report
*/
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/YazeedAlwehaibi/skyzero-dashboard/offset"
)

// Request is the JSON payload sent to the document-generation service.
// All emission figures are tCO2e.
type Request struct {
	BaselineEmissions   float64        `json:"baselineEmissions"`
	TotalOffset         float64        `json:"totalOffset"`
	NetEmissions        float64        `json:"netEmissions"`
	ReductionPercentage float64        `json:"reductionPercentage"`
	Strategies          []StrategyLine `json:"strategies"`
}

// StrategyLine is one strategy in the report.
type StrategyLine struct {
	Type       string  `json:"type"`
	Value      float64 `json:"value"`
	Impact     float64 `json:"impact"`
	Percentage float64 `json:"percentage"`
}

// Artifact is a rendered report.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
	// Pages is set by renderers that know the page count.
	Pages int
}

const (
	DefaultFilename = "offset-report.pdf"
	ContentTypePDF  = "application/pdf"
)

// BuildRequest assembles the payload from one consistent planner state.
// Impacts are rounded to 2 places and shares to 1; shares are 0 when the
// total offset is 0.
func BuildRequest(baseline offset.Amount, summary offset.Summary, strategies []offset.Strategy) Request {
	req := Request{
		BaselineEmissions:   baseline.NonNegative().Value.Round(2).InexactFloat64(),
		TotalOffset:         summary.TotalOffset.Value.Round(2).InexactFloat64(),
		NetEmissions:        summary.NetEmissions.Value.Round(2).InexactFloat64(),
		ReductionPercentage: summary.ReductionPercentage.Round(1).InexactFloat64(),
		Strategies:          make([]StrategyLine, 0, len(strategies)),
	}

	lines := make(map[offset.StrategyID]offset.StrategyImpact, len(summary.Lines))
	for _, l := range summary.Lines {
		lines[l.StrategyID] = l
	}

	for _, s := range strategies {
		line := StrategyLine{Type: s.Type, Value: s.Value.InexactFloat64()}
		if l, ok := lines[s.ID]; ok {
			line.Impact = l.Impact.Value.Round(2).InexactFloat64()
			if summary.TotalOffset.IsPositive() {
				line.Percentage = l.Share.Round(1).InexactFloat64()
			}
		}
		req.Strategies = append(req.Strategies, line)
	}
	return req
}

// wireRequest accepts numbers or numeric strings; the browser dashboard
// sends impact and percentage as toFixed() strings.
type wireRequest struct {
	BaselineEmissions   decimal.Decimal `json:"baselineEmissions"`
	TotalOffset         decimal.Decimal `json:"totalOffset"`
	NetEmissions        decimal.Decimal `json:"netEmissions"`
	ReductionPercentage decimal.Decimal `json:"reductionPercentage"`
	Strategies          []struct {
		Type       string          `json:"type"`
		Value      decimal.Decimal `json:"value"`
		Impact     decimal.Decimal `json:"impact"`
		Percentage decimal.Decimal `json:"percentage"`
	} `json:"strategies"`
}

// DecodeRequest reads a Request posted by a client.
func DecodeRequest(r io.Reader) (Request, error) {
	var w wireRequest
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return Request{}, fmt.Errorf("decode report request: %w", err)
	}
	req := Request{
		BaselineEmissions:   w.BaselineEmissions.InexactFloat64(),
		TotalOffset:         w.TotalOffset.InexactFloat64(),
		NetEmissions:        w.NetEmissions.InexactFloat64(),
		ReductionPercentage: w.ReductionPercentage.InexactFloat64(),
		Strategies:          make([]StrategyLine, 0, len(w.Strategies)),
	}
	for _, s := range w.Strategies {
		req.Strategies = append(req.Strategies, StrategyLine{
			Type:       s.Type,
			Value:      s.Value.InexactFloat64(),
			Impact:     s.Impact.InexactFloat64(),
			Percentage: s.Percentage.InexactFloat64(),
		})
	}
	return req, nil
}
