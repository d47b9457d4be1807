package report_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YazeedAlwehaibi/skyzero-dashboard/offset"
	"github.com/YazeedAlwehaibi/skyzero-dashboard/report"
)

func sampleState() (offset.Amount, offset.Summary, []offset.Strategy) {
	strategies := []offset.Strategy{
		{ID: "trees", Type: offset.TypeTreePlanting, Value: decimal.NewFromInt(1000), Unit: offset.UnitTrees, ImpactRate: decimal.RequireFromString("0.025")},
		{ID: "credits", Type: offset.TypeCarbonCredit, Value: decimal.NewFromInt(5), Unit: offset.UnitTCO2e, ImpactRate: decimal.NewFromInt(1)},
	}
	baseline := offset.Tonnes(1000)
	summary := offset.NewEngine(offset.DefaultRegistry()).Aggregate(strategies, baseline)
	return baseline, summary, strategies
}

// =============================================================================
// REQUEST
// =============================================================================

func TestBuildRequest(t *testing.T) {
	baseline, summary, strategies := sampleState()

	req := report.BuildRequest(baseline, summary, strategies)

	assert.Equal(t, 1000.0, req.BaselineEmissions)
	assert.Equal(t, 30.0, req.TotalOffset)
	assert.Equal(t, 970.0, req.NetEmissions)
	assert.Equal(t, 3.0, req.ReductionPercentage)
	require.Len(t, req.Strategies, 2)
	assert.Equal(t, report.StrategyLine{Type: offset.TypeTreePlanting, Value: 1000, Impact: 25, Percentage: 83.3}, req.Strategies[0])
	assert.Equal(t, report.StrategyLine{Type: offset.TypeCarbonCredit, Value: 5, Impact: 5, Percentage: 16.7}, req.Strategies[1])
}

func TestBuildRequest_ZeroTotalGivesZeroPercentages(t *testing.T) {
	strategies := []offset.Strategy{{ID: "a", Type: offset.TypeRECs, Value: decimal.Zero, ImpactRate: decimal.RequireFromString("0.568")}}
	summary := offset.NewEngine(offset.DefaultRegistry()).Aggregate(strategies, offset.Tonnes(500))

	req := report.BuildRequest(offset.Tonnes(500), summary, strategies)

	require.Len(t, req.Strategies, 1)
	assert.Zero(t, req.Strategies[0].Percentage)
}

func TestBuildRequest_WireNames(t *testing.T) {
	baseline, summary, strategies := sampleState()

	data, err := json.Marshal(report.BuildRequest(baseline, summary, strategies))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"baselineEmissions", "totalOffset", "netEmissions", "reductionPercentage", "strategies"} {
		assert.Contains(t, raw, key)
	}
}

func TestDecodeRequest_AcceptsNumericStrings(t *testing.T) {
	// GIVEN: A dashboard payload with toFixed() strings for impact and share
	body := `{"baselineEmissions": 8328.87, "totalOffset": "25.00", "netEmissions": 8303.87,
		"reductionPercentage": 0.3,
		"strategies": [{"type": "Tree Planting", "value": 1000, "impact": "25.00", "percentage": "100.0"}]}`

	req, err := report.DecodeRequest(bytes.NewBufferString(body))

	require.NoError(t, err)
	assert.InDelta(t, 8328.87, req.BaselineEmissions, 1e-9)
	assert.InDelta(t, 25, req.TotalOffset, 1e-9)
	require.Len(t, req.Strategies, 1)
	assert.Equal(t, offset.TypeTreePlanting, req.Strategies[0].Type)
	assert.InDelta(t, 25, req.Strategies[0].Impact, 1e-9)
	assert.InDelta(t, 100, req.Strategies[0].Percentage, 1e-9)
}

func TestDecodeRequest_Malformed(t *testing.T) {
	tests := []string{
		`{`,
		`{"totalOffset": "many"}`,
		`{"strategies": {}}`,
	}

	for _, body := range tests {
		_, err := report.DecodeRequest(bytes.NewBufferString(body))
		assert.Error(t, err, body)
	}
}

func TestFormatTonnes(t *testing.T) {
	tests := []struct {
		in     string
		places int32
		want   string
	}{
		{"8578.87", 1, "8,578.9"},
		{"1234567.891", 2, "1,234,567.89"},
		{"12", 0, "12"},
		{"-2500.5", 1, "-2,500.5"},
		{"0", 2, "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, report.FormatTonnes(decimal.RequireFromString(tt.in), tt.places))
		})
	}
}

// =============================================================================
// PDF RENDERER
// =============================================================================

func fixedRenderer() *report.PDFRenderer {
	return &report.PDFRenderer{
		Now: func() time.Time { return time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC) },
	}
}

func TestPDFRenderer_Render(t *testing.T) {
	baseline, summary, strategies := sampleState()

	art, err := fixedRenderer().Render(context.Background(), report.BuildRequest(baseline, summary, strategies))

	require.NoError(t, err)
	assert.Equal(t, "offset-report.pdf", art.Filename)
	assert.Equal(t, "application/pdf", art.ContentType)
	assert.True(t, bytes.HasPrefix(art.Data, []byte("%PDF-")))
	assert.Equal(t, 1, art.Pages)
	assert.Contains(t, string(art.Data), "Carbon Offset Report")
	assert.Contains(t, string(art.Data), "Generated on: 2026-05-04 09:30:00")
	assert.Contains(t, string(art.Data), "Net Emissions: 970.0 tCO2e")
	assert.Contains(t, string(art.Data), "- Tree Planting: -25.00 tCO2e (83.3%)")
}

func TestPDFRenderer_Paginates(t *testing.T) {
	req := report.Request{BaselineEmissions: 1000}
	for i := 0; i < 42; i++ {
		req.Strategies = append(req.Strategies, report.StrategyLine{Type: fmt.Sprintf("Strategy %d", i), Impact: 1})
	}

	art, err := fixedRenderer().Render(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, art.Pages)

	req.Strategies = req.Strategies[:41]
	art, err = fixedRenderer().Render(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, art.Pages)
}

func TestPDFRenderer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fixedRenderer().Render(ctx, report.Request{})

	assert.ErrorIs(t, err, report.ErrExport)
}

// =============================================================================
// HTTP RENDERER
// =============================================================================

func TestHTTPRenderer_Success(t *testing.T) {
	var got report.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.3 fake"))
	}))
	defer srv.Close()

	baseline, summary, strategies := sampleState()
	art, err := report.NewHTTPRenderer(srv.URL, 0).Render(context.Background(), report.BuildRequest(baseline, summary, strategies))

	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.3 fake"), art.Data)
	assert.Equal(t, 30.0, got.TotalOffset)
	assert.Len(t, got.Strategies, 2)
}

func TestHTTPRenderer_Non2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		http.Error(w, "renderer crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := report.NewHTTPRenderer(srv.URL, time.Second).Render(context.Background(), report.Request{})

	assert.ErrorIs(t, err, report.ErrExport)
	var failure *report.ExportFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "document service returned 500", failure.Cause)
}

func TestHTTPRenderer_OversizedDocumentIsFailure(t *testing.T) {
	// GIVEN: A service that returns 11 bytes and a 10 byte limit
	// WHEN: Rendering
	// THEN: An export failure instead of a truncated document
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte("%PDF-1.3 xx"))
	}))
	defer srv.Close()

	renderer := report.NewHTTPRenderer(srv.URL, time.Second)
	renderer.MaxBytes = 10
	art, err := renderer.Render(context.Background(), report.Request{})

	assert.ErrorIs(t, err, report.ErrExport)
	var failure *report.ExportFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "document exceeds 10 bytes", failure.Cause)
	assert.Nil(t, art.Data)
}

func TestHTTPRenderer_DocumentAtLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte("%PDF-1.3 x"))
	}))
	defer srv.Close()

	renderer := report.NewHTTPRenderer(srv.URL, time.Second)
	renderer.MaxBytes = 10
	art, err := renderer.Render(context.Background(), report.Request{})

	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.3 x"), art.Data)
}

// =============================================================================
// EXPORTER
// =============================================================================

func TestExporter_Success(t *testing.T) {
	exporter := report.NewExporter(fixedRenderer(), 0, zerolog.Nop())
	baseline, summary, strategies := sampleState()

	art, err := exporter.Export(context.Background(), baseline, summary, strategies)

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(art.Data, []byte("%PDF-")))
}

func TestExporter_TimeoutIsExportFailure(t *testing.T) {
	slow := report.RendererFunc(func(ctx context.Context, _ report.Request) (report.Artifact, error) {
		<-ctx.Done()
		return report.Artifact{}, ctx.Err()
	})
	exporter := report.NewExporter(slow, 20*time.Millisecond, zerolog.Nop())

	_, err := exporter.ExportRequest(context.Background(), report.Request{})

	var failure *report.ExportFailure
	require.ErrorAs(t, err, &failure)
	assert.Contains(t, failure.Cause, "timed out")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExporter_WrapsPlainErrors(t *testing.T) {
	broken := report.RendererFunc(func(context.Context, report.Request) (report.Artifact, error) {
		return report.Artifact{}, errors.New("boom")
	})

	_, err := report.NewExporter(broken, time.Second, zerolog.Nop()).ExportRequest(context.Background(), report.Request{})

	assert.ErrorIs(t, err, report.ErrExport)
}

func TestExporter_DiscardsSupersededResult(t *testing.T) {
	// GIVEN: A first export blocked inside the renderer
	// WHEN: A second export starts and completes
	// THEN: The first export's late result is discarded
	release := make(chan struct{})
	var calls sync.WaitGroup
	calls.Add(1)
	first := true
	var mu sync.Mutex
	renderer := report.RendererFunc(func(ctx context.Context, _ report.Request) (report.Artifact, error) {
		mu.Lock()
		isFirst := first
		first = false
		mu.Unlock()
		if isFirst {
			calls.Done()
			<-release
		}
		return report.Artifact{Data: []byte("%PDF-")}, nil
	})
	exporter := report.NewExporter(renderer, time.Second, zerolog.Nop())

	firstErr := make(chan error, 1)
	go func() {
		_, err := exporter.ExportRequest(context.Background(), report.Request{})
		firstErr <- err
	}()
	calls.Wait()

	_, err := exporter.ExportRequest(context.Background(), report.Request{})
	require.NoError(t, err)

	close(release)
	assert.ErrorIs(t, <-firstErr, report.ErrExportSuperseded)
}
