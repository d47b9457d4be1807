/*
handlers.go - HTTP API handlers for the SkyZero dashboard backend

PURPOSE:
  Exposes the emissions feed and the offset planner via REST API. Handles
  HTTP request/response and JSON serialization, and delegates to the
  planner, the emissions calculator and the report exporter.

ENDPOINTS:
  Emissions:
    GET    /api/total_emissions          Current emissions feed
    PUT    /api/activity/{source}        Update one source's activity amount

  Offsets:
    GET    /api/offset/types             Offset type registry
    GET    /api/offset/strategies        Ordered strategy list
    POST   /api/offset/strategies        Add strategy
    PATCH  /api/offset/strategies/{id}   Update one field
    DELETE /api/offset/strategies/{id}   Remove (no-op when absent)
    GET    /api/offset/summary           Baseline + aggregation summary

  Reports:
    POST   /api/offset/report            Export the planner state as PDF
    POST   /api/export_offset_report     Render a posted report request
    GET    /api/offset/reports           Export history

  Scenarios:
    GET    /api/scenarios                List demo strategy mixes
    POST   /api/scenarios/load           Replace strategies with a mix

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call the planner (which recomputes and saves)
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Strategy or source not found
  - 409: Export superseded by a newer export
  - 502: Document service failed
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - refresher.go: Periodic snapshot recomputation
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/YazeedAlwehaibi/skyzero-dashboard/emissions"
	"github.com/YazeedAlwehaibi/skyzero-dashboard/offset"
	"github.com/YazeedAlwehaibi/skyzero-dashboard/report"
	"github.com/YazeedAlwehaibi/skyzero-dashboard/store/sqlite"
)

// newStrategyValue is the quantity of a strategy added without a value.
const newStrategyValue = 100

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Planner *offset.Planner
	Logger  zerolog.Logger

	// Activities feeds the emissions snapshot; defaults to Store.
	Activities emissions.ActivityStore

	// Exporter renders the planner state for POST /api/offset/report.
	Exporter *report.Exporter
	// Documents renders client-built requests for POST /api/export_offset_report.
	Documents report.Renderer
	// Factors converts activity data into emissions.
	Factors emissions.Factors

	mu              sync.RWMutex
	snapshot        emissions.Snapshot
	currentScenario string
}

// NewHandler creates a handler that renders PDFs in-process with the
// default emission factors. Callers may replace Exporter, Documents and
// Factors before serving.
func NewHandler(store *sqlite.Store, planner *offset.Planner, logger zerolog.Logger) *Handler {
	pdf := report.NewPDFRenderer()
	return &Handler{
		Store:      store,
		Planner:    planner,
		Logger:     logger,
		Activities: store,
		Exporter:   report.NewExporter(pdf, report.DefaultTimeout, logger),
		Documents:  pdf,
		Factors:    emissions.DefaultFactors(),
	}
}

// RefreshSnapshot recomputes emissions from stored activity data and pushes
// the feed total into the planner as its baseline. On failure the planner
// keeps its last baseline.
func (h *Handler) RefreshSnapshot(ctx context.Context) (emissions.Snapshot, error) {
	activities, err := h.Activities.ListActivities(ctx)
	if err != nil {
		return emissions.Snapshot{}, fmt.Errorf("list activities: %w", err)
	}

	snap := emissions.Calculate(h.Factors, activities, time.Now().UTC())
	h.mu.Lock()
	h.snapshot = snap
	h.mu.Unlock()

	h.Planner.SetBaseline(offset.TonnesFromDecimal(snap.Total))
	return snap, nil
}

// Snapshot returns the last computed emissions snapshot.
func (h *Handler) Snapshot() emissions.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshot
}

// =============================================================================
// EMISSIONS HANDLERS
// =============================================================================

// GetTotalEmissions returns the emissions feed.
func (h *Handler) GetTotalEmissions(w http.ResponseWriter, r *http.Request) {
	snap, err := h.RefreshSnapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute emissions", err)
		return
	}
	writeJSON(w, http.StatusOK, snap.ToFeed())
}

// UpdateActivity sets the activity amount for one source.
func (h *Handler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	source := emissions.Source(chi.URLParam(r, "source"))
	if !h.Factors.Known(source) {
		writeError(w, http.StatusNotFound, "Unknown emissions source", fmt.Errorf("%w: %s", emissions.ErrUnknownSource, source))
		return
	}

	var req UpdateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, "amount is required", nil)
		return
	}

	activity := emissions.Activity{
		Source:    source,
		Amount:    decimal.NewFromFloat(*req.Amount),
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.Activities.SaveActivity(r.Context(), activity); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save activity", err)
		return
	}

	snap, err := h.RefreshSnapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute emissions", err)
		return
	}
	h.Logger.Info().
		Str("source", string(source)).
		Str("amount", activity.Amount.String()).
		Str("total", snap.Total.String()).
		Msg("activity updated")
	writeJSON(w, http.StatusOK, snap.ToFeed())
}

// =============================================================================
// OFFSET HANDLERS
// =============================================================================

// ListOffsetTypes returns the registry in declaration order.
func (h *Handler) ListOffsetTypes(w http.ResponseWriter, r *http.Request) {
	types := h.Planner.Registry().List()
	dtos := make([]OffsetTypeDTO, len(types))
	for i, t := range types {
		dtos[i] = toOffsetTypeDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListStrategies returns the strategies in insertion order.
func (h *Handler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSummaryDTO(h.Planner.State()).Strategies)
}

// GetSummary returns baseline, totals and per-strategy impacts.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toSummaryDTO(h.Planner.State()))
}

// AddStrategy appends a strategy. Unknown types fall back to the default.
func (h *Handler) AddStrategy(w http.ResponseWriter, r *http.Request) {
	var req AddStrategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Type == "" {
		req.Type = h.Planner.Registry().Default().Name
	}
	value := decimal.NewFromInt(newStrategyValue)
	if req.Value != nil {
		value = decimal.NewFromFloat(*req.Value)
	}

	st, state := h.Planner.Add(r.Context(), req.Type, value)
	writeJSON(w, http.StatusCreated, StrategyMutationDTO{
		Strategy: toStrategyDTO(st, state.Summary),
		Summary:  toSummaryDTO(state),
	})
}

// UpdateStrategy changes the type or value of a strategy.
func (h *Handler) UpdateStrategy(w http.ResponseWriter, r *http.Request) {
	id := offset.StrategyID(chi.URLParam(r, "id"))

	var req UpdateStrategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	value, err := rawValue(req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "value must be a string or number", err)
		return
	}

	st, state, err := h.Planner.Update(r.Context(), id, offset.Field(req.Field), value)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StrategyMutationDTO{
		Strategy: toStrategyDTO(st, state.Summary),
		Summary:  toSummaryDTO(state),
	})
}

// RemoveStrategy deletes a strategy. Removing an absent id succeeds.
func (h *Handler) RemoveStrategy(w http.ResponseWriter, r *http.Request) {
	h.Planner.Remove(r.Context(), offset.StrategyID(chi.URLParam(r, "id")))
	w.WriteHeader(http.StatusNoContent)
}

// rawValue turns a JSON string or number into its text form.
func rawValue(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errors.New("value is required")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// ExportReport renders the current planner state as a PDF.
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	art, err := h.Export(r.Context())
	if errors.Is(err, report.ErrExportSuperseded) {
		writeError(w, http.StatusConflict, "Export superseded by a newer request", err)
		return
	}
	if err != nil {
		writeExportError(w, err)
		return
	}
	writeArtifact(w, art)
}

// Export renders the current planner state and records the attempt in the
// export history. Superseded exports are not recorded.
func (h *Handler) Export(ctx context.Context) (report.Artifact, error) {
	state := h.Planner.State()

	art, err := h.Exporter.Export(ctx, state.Baseline, state.Summary, state.Strategies)
	if errors.Is(err, report.ErrExportSuperseded) {
		return report.Artifact{}, err
	}

	rec := sqlite.ExportRecord{
		ID:            uuid.NewString(),
		Filename:      report.DefaultFilename,
		Baseline:      state.Baseline.Value,
		TotalOffset:   state.Summary.TotalOffset.Value,
		NetEmissions:  state.Summary.NetEmissions.Value,
		StrategyCount: len(state.Strategies),
		Status:        sqlite.ExportSucceeded,
	}
	if err != nil {
		rec.Status = sqlite.ExportFailed
		rec.Error = err.Error()
	} else {
		rec.Filename = art.Filename
		rec.SizeBytes = len(art.Data)
	}
	if recErr := h.Store.RecordExport(ctx, rec); recErr != nil {
		h.Logger.Error().Err(recErr).Str("export_id", rec.ID).Msg("failed to record report export")
	}
	return art, err
}

// RenderReport renders a report request built by the client.
func (h *Handler) RenderReport(w http.ResponseWriter, r *http.Request) {
	req, err := report.DecodeRequest(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid report request", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), report.DefaultTimeout)
	defer cancel()

	art, err := h.Documents.Render(ctx, req)
	if err != nil {
		writeExportError(w, err)
		return
	}
	writeArtifact(w, art)
}

// ListReports returns recent exports, newest first.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = n
	}

	records, err := h.Store.ListExports(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list exports", err)
		return
	}
	dtos := make([]ReportExportDTO, len(records))
	for i, rec := range records {
		dtos[i] = toReportExportDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports whether the database is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps offset errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case offset.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Strategy not found", err)
	case offset.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid strategy update", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeExportError(w http.ResponseWriter, err error) {
	var failure *report.ExportFailure
	if errors.As(err, &failure) {
		writeError(w, http.StatusBadGateway, "Report export failed: "+failure.Cause, err)
		return
	}
	writeError(w, http.StatusInternalServerError, "Report export failed", err)
}

func writeArtifact(w http.ResponseWriter, art report.Artifact) {
	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", art.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(art.Data)
}
