package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/xavierca1/dental-funnel/internal/usecase"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

var domainStatus = map[string]int{
	usecase.CodeValidation:    http.StatusBadRequest,
	usecase.CodeNotFound:      http.StatusNotFound,
	usecase.CodeUnknownCohort: http.StatusNotFound,
	usecase.CodeConflict:      http.StatusConflict,
	usecase.CodeInvalidState:  http.StatusUnprocessableEntity,
}

// writeUseCaseError maps domain errors to 4xx and everything else to 5xx.
// Technical details are logged, not returned.
func writeUseCaseError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		status, ok := domainStatus[de.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		writeErrorResponse(w, status, de.Code, de.Message)
		return
	}

	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		logger.Error().Err(err).Str("code", te.Code).Msg("request failed")
		status := http.StatusInternalServerError
		if te.Code == usecase.CodeStoreUnavailable || te.Code == usecase.CodeQueue {
			status = http.StatusServiceUnavailable
		}
		writeErrorResponse(w, status, te.Code, "service temporarily unavailable")
		return
	}

	logger.Error().Err(err).Msg("unexpected error")
	writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "unexpected error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "invalid JSON body")
		return false
	}
	return true
}
