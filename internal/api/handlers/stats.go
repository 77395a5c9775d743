package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sv650s/springboard/internal/contracts"
	"github.com/sv650s/springboard/internal/external/quandl"
	"github.com/sv650s/springboard/internal/service"
	"github.com/sv650s/springboard/internal/stats"
	"github.com/sv650s/springboard/internal/store"
	"github.com/sv650s/springboard/pkg/config"
	"github.com/sv650s/springboard/pkg/logger"
)

// Analyzer runs dataset analyses
type Analyzer interface {
	Analyze(ctx context.Context, req quandl.Request) (*service.Report, error)
	Summary(ctx context.Context, req quandl.Request) (contracts.DatasetSummary, error)
}

// StatsReader returns persisted stats runs
type StatsReader interface {
	LatestStats(ctx context.Context, database, ticker string) (*contracts.StatsRun, error)
}

// StatsHandler handles dataset statistics endpoints
// ⭐ SSOT: dataset API handlers live in this struct only
type StatsHandler struct {
	analyzer Analyzer
	reader   StatsReader
	defaults config.QuandlConfig
	logger   *logger.Logger
}

// NewStatsHandler creates a new stats handler. reader may be nil when no database is configured.
func NewStatsHandler(analyzer Analyzer, reader StatsReader, defaults config.QuandlConfig, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		analyzer: analyzer,
		reader:   reader,
		defaults: defaults,
		logger:   log,
	}
}

// GetStats computes statistics for a dataset
// GET /api/datasets/{database}/{ticker}/stats?start_date=&end_date=&order=&format=
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	report, err := h.analyzer.Analyze(r.Context(), req)
	if err != nil {
		h.fail(w, req, err, "Failed to compute statistics")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// GetSummary describes a dataset without computing statistics
// GET /api/datasets/{database}/{ticker}/summary
func (h *StatsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	summary, err := h.analyzer.Summary(r.Context(), req)
	if err != nil {
		h.fail(w, req, err, "Failed to fetch dataset")
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// GetLatestStats returns the most recent persisted stats run
// GET /api/datasets/{database}/{ticker}/stats/latest
func (h *StatsHandler) GetLatestStats(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		respondError(w, http.StatusServiceUnavailable, "Persistence is not configured")
		return
	}

	vars := mux.Vars(r)
	run, err := h.reader.LatestStats(r.Context(), vars["database"], vars["ticker"])
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No stats run recorded for this dataset")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get latest stats")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve stats")
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// parseRequest builds a validated request from path and query, falling back to configured defaults
func (h *StatsHandler) parseRequest(w http.ResponseWriter, r *http.Request) (quandl.Request, bool) {
	vars := mux.Vars(r)
	q := r.URL.Query()

	req := quandl.Request{
		Database:  vars["database"],
		Ticker:    vars["ticker"],
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
		Order:     valueOr(q.Get("order"), h.defaults.Order),
		Format:    valueOr(q.Get("format"), h.defaults.Format),
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	return req, true
}

func (h *StatsHandler) fail(w http.ResponseWriter, req quandl.Request, err error, message string) {
	status := statusFor(err)
	h.logger.WithError(err).WithFields(map[string]interface{}{
		"database": req.Database,
		"ticker":   req.Ticker,
		"status":   status,
	}).Error(message)

	if status == http.StatusInternalServerError {
		respondError(w, status, message)
		return
	}
	respondError(w, status, err.Error())
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var (
		apiErr     *quandl.APIError
		missingCol *stats.MissingColumnError
		outOfRange *stats.IndexOutOfRangeError
		invalid    *stats.InvalidValueError
	)

	switch {
	case errors.As(err, &apiErr):
		if apiErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.Is(err, quandl.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, stats.ErrNoData), errors.Is(err, stats.ErrNonFiniteResult),
		errors.As(err, &missingCol), errors.As(err, &outOfRange), errors.As(err, &invalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
