package handlers

import (
	"net/http"
	"strconv"

	"github.com/xavierca1/dental-funnel/internal/entity"
)

type StatusMappingResponse struct {
	Stage entity.CanonicalState `json:"stage"`
	Known bool                  `json:"known"`
}

// StatusMapping (GET /api/status-mapping?status=&visitConfirmed=&postVisitStatus=&isCompleted=)
// folds a legacy single-status record into its canonical stage.
func StatusMapping(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	visitConfirmed, _ := strconv.ParseBool(q.Get("visitConfirmed"))
	isCompleted, _ := strconv.ParseBool(q.Get("isCompleted"))

	stage, known := entity.MapLegacyStatus(q.Get("status"), visitConfirmed, q.Get("postVisitStatus"), isCompleted)
	writeJSON(w, http.StatusOK, StatusMappingResponse{Stage: stage, Known: known})
}
