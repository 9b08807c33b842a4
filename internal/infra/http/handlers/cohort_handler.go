package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/xavierca1/dental-funnel/internal/infra/export"
	"github.com/xavierca1/dental-funnel/internal/infra/http/middleware"
	"github.com/xavierca1/dental-funnel/internal/pipeline"
	"github.com/xavierca1/dental-funnel/internal/usecase"
)

type CohortService interface {
	Query(ctx context.Context, name, date string) (*usecase.CohortResult, error)
	DailyStatistics(ctx context.Context, date string) (*usecase.DailyStatisticsOutput, error)
}

type CohortHandler struct {
	Cohorts CohortService
	Logger  zerolog.Logger
}

func NewCohortHandler(cohorts CohortService, logger zerolog.Logger) *CohortHandler {
	return &CohortHandler{Cohorts: cohorts, Logger: logger}
}

// List (GET /api/cohorts)
func (h *CohortHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cohorts":   pipeline.Cohorts,
		"statistic": pipeline.StatisticCohorts,
	})
}

// Query (GET /api/cohorts/{cohort}?date=YYYY-MM-DD)
func (h *CohortHandler) Query(w http.ResponseWriter, r *http.Request) {
	result, ok := h.query(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Export (GET /api/cohorts/{cohort}/export.xlsx?date=)
func (h *CohortHandler) Export(w http.ResponseWriter, r *http.Request) {
	result, ok := h.query(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCohort(&buf, result); err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}

	filename := fmt.Sprintf("%s-%s.xlsx", result.Cohort, result.Date)
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *CohortHandler) query(w http.ResponseWriter, r *http.Request) (*usecase.CohortResult, bool) {
	name := chi.URLParam(r, "cohort")
	result, err := h.Cohorts.Query(r.Context(), name, r.URL.Query().Get("date"))
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return nil, false
	}
	middleware.RecordCohortQuery(string(result.Cohort), string(result.Mode), result.Skipped)
	return result, true
}

// DailyStatistics (GET /api/statistics/daily?date=)
func (h *CohortHandler) DailyStatistics(w http.ResponseWriter, r *http.Request) {
	out, err := h.Cohorts.DailyStatistics(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
