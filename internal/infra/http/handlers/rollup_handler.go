package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/xavierca1/dental-funnel/internal/entity"
	"github.com/xavierca1/dental-funnel/internal/infra/export"
	"github.com/xavierca1/dental-funnel/internal/usecase"
)

type RollupService interface {
	Daily(ctx context.Context, date string) (*entity.Rollup, error)
	Monthly(ctx context.Context, yearMonth string) (*entity.Rollup, error)
	Bucket(ctx context.Context, yearMonth, bucket string) (*usecase.BucketOutput, error)
}

type RollupHandler struct {
	Rollups RollupService
	Logger  zerolog.Logger
}

func NewRollupHandler(rollups RollupService, logger zerolog.Logger) *RollupHandler {
	return &RollupHandler{Rollups: rollups, Logger: logger}
}

// Daily (GET /api/rollups/daily/{date})
func (h *RollupHandler) Daily(w http.ResponseWriter, r *http.Request) {
	rollup, err := h.Rollups.Daily(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rollup)
}

// Monthly (GET /api/rollups/monthly/{yearMonth})
func (h *RollupHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	rollup, err := h.Rollups.Monthly(r.Context(), chi.URLParam(r, "yearMonth"))
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rollup)
}

// ExportMonthly (GET /api/rollups/monthly/{yearMonth}/export.xlsx)
func (h *RollupHandler) ExportMonthly(w http.ResponseWriter, r *http.Request) {
	rollup, err := h.Rollups.Monthly(r.Context(), chi.URLParam(r, "yearMonth"))
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteRollup(&buf, rollup); err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "rollup-"+rollup.Period.Key+".xlsx"))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Bucket (GET /api/rollups/monthly/{yearMonth}/buckets/{bucket})
func (h *RollupHandler) Bucket(w http.ResponseWriter, r *http.Request) {
	out, err := h.Rollups.Bucket(r.Context(), chi.URLParam(r, "yearMonth"), chi.URLParam(r, "bucket"))
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
