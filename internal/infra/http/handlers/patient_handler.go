package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/xavierca1/dental-funnel/internal/entity"
	"github.com/xavierca1/dental-funnel/internal/infra/http/middleware"
	"github.com/xavierca1/dental-funnel/internal/usecase"
)

type PatientService interface {
	Create(ctx context.Context, input usecase.CreatePatientInput) (*entity.Patient, error)
	Get(ctx context.Context, id string) (*entity.Patient, error)
	History(ctx context.Context, id string) ([]entity.StatusChange, error)
	ChangeStatus(ctx context.Context, id string, input usecase.ChangeStatusInput) (*entity.Patient, error)
	AddCallback(ctx context.Context, id string, input usecase.AddCallbackInput) (*entity.CallbackEntry, error)
	CompleteCallback(ctx context.Context, id, callbackID string, input usecase.SettleCallbackInput) (*entity.Patient, error)
	CancelCallback(ctx context.Context, id, callbackID string, input usecase.SettleCallbackInput) (*entity.Patient, error)
	ConfirmVisit(ctx context.Context, id string, input usecase.ConfirmVisitInput) (*entity.Patient, error)
	CancelVisitConfirmation(ctx context.Context, id, actor string) (*entity.Patient, error)
	Close(ctx context.Context, id, actor string) (*entity.Patient, error)
	Reopen(ctx context.Context, id, actor string) (*entity.Patient, error)
}

type PatientHandler struct {
	Patients PatientService
	Logger   zerolog.Logger
}

func NewPatientHandler(patients PatientService, logger zerolog.Logger) *PatientHandler {
	return &PatientHandler{Patients: patients, Logger: logger}
}

// Create (POST /api/patients)
func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreatePatientInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.Actor = middleware.ActorFromContext(r.Context())

	p, err := h.Patients.Create(r.Context(), input)
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Get (GET /api/patients/{id})
func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Patients.Get(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, p, err)
}

// History (GET /api/patients/{id}/history)
func (h *PatientHandler) History(w http.ResponseWriter, r *http.Request) {
	changes, err := h.Patients.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	if changes == nil {
		changes = []entity.StatusChange{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"changes": changes})
}

// ChangeStatus (POST /api/patients/{id}/status)
func (h *PatientHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var input usecase.ChangeStatusInput
	if !decodeJSON(w, r, &input) {
		return
	}
	input.Actor = middleware.ActorFromContext(r.Context())

	p, err := h.Patients.ChangeStatus(r.Context(), chi.URLParam(r, "id"), input)
	h.respond(w, p, err)
}

// AddCallback (POST /api/patients/{id}/callbacks)
func (h *PatientHandler) AddCallback(w http.ResponseWriter, r *http.Request) {
	var input usecase.AddCallbackInput
	if !decodeJSON(w, r, &input) {
		return
	}

	entry, err := h.Patients.AddCallback(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// CompleteCallback (POST /api/patients/{id}/callbacks/{callbackId}/complete)
func (h *PatientHandler) CompleteCallback(w http.ResponseWriter, r *http.Request) {
	input, ok := settleInput(w, r)
	if !ok {
		return
	}
	p, err := h.Patients.CompleteCallback(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "callbackId"), input)
	h.respond(w, p, err)
}

// CancelCallback (POST /api/patients/{id}/callbacks/{callbackId}/cancel)
func (h *PatientHandler) CancelCallback(w http.ResponseWriter, r *http.Request) {
	input, ok := settleInput(w, r)
	if !ok {
		return
	}
	p, err := h.Patients.CancelCallback(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "callbackId"), input)
	h.respond(w, p, err)
}

// ConfirmVisit (POST /api/patients/{id}/visit-confirmation)
func (h *PatientHandler) ConfirmVisit(w http.ResponseWriter, r *http.Request) {
	var input usecase.ConfirmVisitInput
	if r.ContentLength != 0 && !decodeJSON(w, r, &input) {
		return
	}
	input.Actor = middleware.ActorFromContext(r.Context())

	p, err := h.Patients.ConfirmVisit(r.Context(), chi.URLParam(r, "id"), input)
	h.respond(w, p, err)
}

// CancelVisitConfirmation (DELETE /api/patients/{id}/visit-confirmation)
func (h *PatientHandler) CancelVisitConfirmation(w http.ResponseWriter, r *http.Request) {
	p, err := h.Patients.CancelVisitConfirmation(r.Context(), chi.URLParam(r, "id"), middleware.ActorFromContext(r.Context()))
	h.respond(w, p, err)
}

// Close (POST /api/patients/{id}/close)
func (h *PatientHandler) Close(w http.ResponseWriter, r *http.Request) {
	p, err := h.Patients.Close(r.Context(), chi.URLParam(r, "id"), middleware.ActorFromContext(r.Context()))
	h.respond(w, p, err)
}

// Reopen (POST /api/patients/{id}/reopen)
func (h *PatientHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	p, err := h.Patients.Reopen(r.Context(), chi.URLParam(r, "id"), middleware.ActorFromContext(r.Context()))
	h.respond(w, p, err)
}

func (h *PatientHandler) respond(w http.ResponseWriter, p *entity.Patient, err error) {
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// settleInput accepts an empty body; notes are optional.
func settleInput(w http.ResponseWriter, r *http.Request) (usecase.SettleCallbackInput, bool) {
	var input usecase.SettleCallbackInput
	if r.ContentLength != 0 && !decodeJSON(w, r, &input) {
		return input, false
	}
	return input, true
}
