package simd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/plot/vg"

	"github.com/GoSim-25-26J-441/seqlearn/internal/metrics"
	"github.com/GoSim-25-26J-441/seqlearn/internal/report"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/logger"
	"github.com/GoSim-25-26J-441/seqlearn/pkg/models"
)

const maxRequestBytes = 32 << 20

type HTTPServer struct {
	mux      *http.ServeMux
	store    *RunStore
	Executor *RunExecutor
}

// NewHTTPServer wires the run API. When collector is non-nil its registry
// is served on /metrics.
func NewHTTPServer(store *RunStore, executor *RunExecutor, collector *metrics.Collector) *HTTPServer {
	s := &HTTPServer{
		mux:      http.NewServeMux(),
		store:    store,
		Executor: executor,
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/runs", s.handleRuns)
	s.mux.HandleFunc("/v1/runs/", s.handleRunByID)
	if collector != nil {
		s.mux.Handle("/metrics", collector.Handler())
	}

	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.mux
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// handleRuns handles /v1/runs endpoint
func (s *HTTPServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateRun(w, r)
	case http.MethodGet:
		s.handleListRuns(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleRunByID handles /v1/runs/{id} and related endpoints
func (s *HTTPServer) handleRunByID(w http.ResponseWriter, r *http.Request) {
	// /v1/runs/{id}, /v1/runs/{id}:stop, /v1/runs/{id}/history,
	// /v1/runs/{id}/summary or /v1/runs/{id}/plot
	path := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "run ID is required")
		return
	}

	if strings.HasSuffix(path, ":stop") {
		runID := strings.TrimSuffix(path, ":stop")
		if r.Method == http.MethodPost {
			s.handleStopRun(w, r, runID)
		} else {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	for suffix, handle := range map[string]func(http.ResponseWriter, *http.Request, string){
		"/history": s.handleGetHistory,
		"/summary": s.handleGetSummary,
		"/plot":    s.handleGetPlot,
	} {
		if strings.HasSuffix(path, suffix) {
			runID := strings.TrimSuffix(path, suffix)
			if r.Method == http.MethodGet {
				handle(w, r, runID)
			} else {
				s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			}
			return
		}
	}

	if strings.Contains(path, "/") {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method == http.MethodGet {
		s.handleGetRun(w, r, path)
	} else {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleCreateRun handles POST /v1/runs: validate, store and start
func (s *HTTPServer) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RunID string    `json:"run_id,omitempty"`
		Input *RunInput `json:"input"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	exp, ds, err := ParseRunInput(req.Input)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	rec, err := s.store.Create(req.RunID, req.Input, exp, ds)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	logger.Info("run created", "run_id", rec.Run.ID)

	started, err := s.Executor.Start(rec.Run.ID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"run": newRunView(started)})
}

// handleListRuns handles GET /v1/runs?limit=N&status=S
func (s *HTTPServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	status := models.RunStatus(strings.ToLower(r.URL.Query().Get("status")))

	recs := s.store.List(limit, status)
	runs := make([]runView, 0, len(recs))
	for _, rec := range recs {
		runs = append(runs, newRunView(rec))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *HTTPServer) handleGetRun(w http.ResponseWriter, _ *http.Request, runID string) {
	rec, ok := s.store.Get(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"run": newRunView(rec)})
}

func (s *HTTPServer) handleStopRun(w http.ResponseWriter, _ *http.Request, runID string) {
	updated, err := s.Executor.Stop(runID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	logger.Info("run cancelled", "run_id", runID)
	s.writeJSON(w, http.StatusOK, map[string]any{"run": newRunView(updated)})
}

// handleGetHistory serves one model's acquisition history as JSON or CSV
func (s *HTTPServer) handleGetHistory(w http.ResponseWriter, r *http.Request, runID string) {
	series, ok := s.lookupSeries(w, r, runID)
	if !ok {
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		if err := report.WriteHistoryCSV(w, series.History); err != nil {
			logger.Error("failed to write history csv", "run_id", runID, "error", err)
		}
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"run_id":  runID,
		"label":   series.Label,
		"history": series.History,
	})
}

// handleGetSummary serves one model's summary curves, or every model's
// when no model is named and format is json.
func (s *HTTPServer) handleGetSummary(w http.ResponseWriter, r *http.Request, runID string) {
	q := r.URL.Query()
	if q.Get("model") == "" && q.Get("format") != "csv" {
		rec, ok := s.store.Get(runID)
		if !ok {
			s.writeError(w, http.StatusNotFound, "run not found")
			return
		}
		if _, err := seriesFor(rec, ""); err != nil {
			s.writeServiceError(w, err)
			return
		}
		out := make([]map[string]any, 0, len(rec.Results))
		for _, res := range rec.Results {
			out = append(out, map[string]any{"label": res.Label, "model": res.Model, "summary": res.Summary})
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"run_id": runID, "summaries": out})
		return
	}

	series, ok := s.lookupSeries(w, r, runID)
	if !ok {
		return
	}
	if q.Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		if err := report.WriteSummaryCSV(w, series.Summary); err != nil {
			logger.Error("failed to write summary csv", "run_id", runID, "error", err)
		}
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"run_id":  runID,
		"label":   series.Label,
		"summary": series.Summary,
	})
}

// handleGetPlot renders every model of a completed run as a PNG
func (s *HTTPServer) handleGetPlot(w http.ResponseWriter, _ *http.Request, runID string) {
	rec, ok := s.store.Get(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if _, err := seriesFor(rec, ""); err != nil {
		s.writeServiceError(w, err)
		return
	}
	series := make([]report.Series, len(rec.Results))
	for i, res := range rec.Results {
		series[i] = report.Series{Label: res.Label, Summary: res.Summary}
	}
	title := runID
	if rec.Experiment != nil && rec.Experiment.Report.Title != "" {
		title = rec.Experiment.Report.Title
	}
	p, err := report.NewPlot(series, report.PlotOptions{Title: title, ShowUpper: true})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	wt, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if _, err := wt.WriteTo(w); err != nil {
		logger.Error("failed to write plot", "run_id", runID, "error", err)
	}
}

func (s *HTTPServer) lookupSeries(w http.ResponseWriter, r *http.Request, runID string) (*SeriesResult, bool) {
	rec, ok := s.store.Get(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return nil, false
	}
	series, err := seriesFor(rec, r.URL.Query().Get("model"))
	if err != nil {
		s.writeServiceError(w, err)
		return nil, false
	}
	return series, true
}

// Helper functions

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": message,
	})
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	s.writeError(w, httpStatus(err), err.Error())
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrRunIDMissing):
		return http.StatusBadRequest
	case isNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, ErrRunExists), errors.Is(err, ErrRunTerminal):
		return http.StatusConflict
	case errors.Is(err, ErrResultsUnavailable):
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}
