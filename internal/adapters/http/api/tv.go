package api

import (
	"context"
	"net/http"

	"github.com/okian/battlegrounds/internal/domain/tv"
)

// TVDependencies defines the office display read.
type TVDependencies interface {
	TV(ctx context.Context) tv.State
}

// TVHandler handles TV display requests.
type TVHandler struct {
	deps TVDependencies
}

// NewTVHandler creates a new TV handler.
func NewTVHandler(deps TVDependencies) *TVHandler {
	return &TVHandler{deps: deps}
}

// HandleGetTV handles GET /tv.
func (h *TVHandler) HandleGetTV(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.TV(r.Context()))
}
