package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/xavierca1/dental-funnel/internal/entity"
	"github.com/xavierca1/dental-funnel/internal/infra/http/middleware"
	"github.com/xavierca1/dental-funnel/internal/usecase"
)

type ReportService interface {
	Generate(ctx context.Context, input usecase.GenerateReportInput) (*entity.ReportSnapshot, bool, error)
	Get(ctx context.Context, id string) (*entity.ReportSnapshot, error)
	List(ctx context.Context, kind string, limit int) ([]*entity.ReportSnapshot, error)
	UpdateCommentary(ctx context.Context, id string, input usecase.UpdateCommentaryInput) (*entity.ReportSnapshot, error)
	AddFeedback(ctx context.Context, reportID string, input usecase.AddFeedbackInput) (*entity.Feedback, error)
	Refresh(ctx context.Context, id string) (*entity.ReportSnapshot, error)
	RequestRefresh(ctx context.Context, id, requestedBy string) error
}

type ReportHandler struct {
	Reports ReportService
	Logger  zerolog.Logger
}

func NewReportHandler(reports ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{Reports: reports, Logger: logger}
}

// Generate (POST /api/reports) returns 201 for a new snapshot and 200 when
// the period already had one.
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var input usecase.GenerateReportInput
	if !decodeJSON(w, r, &input) {
		return
	}

	report, created, err := h.Reports.Generate(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, report)
}

// List (GET /api/reports?kind=&limit=)
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	reports, err := h.Reports.List(r.Context(), r.URL.Query().Get("kind"), limit)
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	if reports == nil {
		reports = []*entity.ReportSnapshot{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": reports})
}

// Get (GET /api/reports/{id})
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, err := h.Reports.Get(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, report, err)
}

// UpdateCommentary (PATCH /api/reports/{id})
func (h *ReportHandler) UpdateCommentary(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateCommentaryInput
	if !decodeJSON(w, r, &input) {
		return
	}

	report, err := h.Reports.UpdateCommentary(r.Context(), chi.URLParam(r, "id"), input)
	h.respond(w, report, err)
}

// AddFeedback (POST /api/reports/{id}/feedback)
func (h *ReportHandler) AddFeedback(w http.ResponseWriter, r *http.Request) {
	var input usecase.AddFeedbackInput
	if !decodeJSON(w, r, &input) {
		return
	}
	if input.Author == "" {
		input.Author = middleware.ActorFromContext(r.Context())
	}

	feedback, err := h.Reports.AddFeedback(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, feedback)
}

// Refresh (POST /api/reports/{id}/refresh?async=true)
func (h *ReportHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		if err := h.Reports.RequestRefresh(r.Context(), id, middleware.ActorFromContext(r.Context())); err != nil {
			writeUseCaseError(w, h.Logger, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "report_id": id})
		return
	}

	report, err := h.Reports.Refresh(r.Context(), id)
	h.respond(w, report, err)
}

func (h *ReportHandler) respond(w http.ResponseWriter, report *entity.ReportSnapshot, err error) {
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
