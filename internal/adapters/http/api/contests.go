package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/battlegrounds/internal/domain/battle"
	"github.com/okian/battlegrounds/internal/domain/model"
	"github.com/okian/battlegrounds/internal/domain/tv"
)

// ContestDependencies defines the per-contest read operations and the
// current-contest selection.
type ContestDependencies interface {
	AgentDeals(ctx context.Context, contestID, agentID string) []model.Deal
	ActiveBattles(ctx context.Context, contestID string) []battle.Progress
	Countdown(ctx context.Context, contestID string) (tv.Countdown, bool)

	CurrentContest(ctx context.Context) (model.Contest, bool)
	SelectContest(ctx context.Context, id string) bool
	ClearContest(ctx context.Context)
}

// ContestsHandler handles contest requests.
type ContestsHandler struct {
	deps ContestDependencies
}

// NewContestsHandler creates a new contests handler.
func NewContestsHandler(deps ContestDependencies) *ContestsHandler {
	return &ContestsHandler{deps: deps}
}

type currentContestResponse struct {
	Contest *model.Contest `json:"contest"`
}

type selectContestRequest struct {
	ContestID string `json:"contest_id"`
}

type selectContestResponse struct {
	ContestID string `json:"contest_id"`
	Selected  bool   `json:"selected"`
}

type countdownResponse struct {
	ContestID string `json:"contest_id"`
	Found     bool   `json:"found"`
	tv.Countdown
}

// HandleGetAgentDeals handles GET /contests/{id}/agents/{agentId}/deals.
func (h *ContestsHandler) HandleGetAgentDeals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.AgentDeals(r.Context(), r.PathValue("id"), r.PathValue("agentId")))
}

// HandleGetBattles handles GET /contests/{id}/battles.
func (h *ContestsHandler) HandleGetBattles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.ActiveBattles(r.Context(), r.PathValue("id")))
}

// HandleGetCountdown handles GET /contests/{id}/countdown.
func (h *ContestsHandler) HandleGetCountdown(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	cd, found := h.deps.Countdown(r.Context(), id)
	writeJSON(w, http.StatusOK, countdownResponse{ContestID: id, Found: found, Countdown: cd})
}

// HandleGetCurrent handles GET /contests/current. No selection yields
// {"contest": null}.
func (h *ContestsHandler) HandleGetCurrent(w http.ResponseWriter, r *http.Request) {
	var resp currentContestResponse
	if c, ok := h.deps.CurrentContest(r.Context()); ok {
		resp.Contest = &c
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleSelectCurrent handles PUT /contests/current. Unknown ids leave the
// selection unchanged and report selected=false.
func (h *ContestsHandler) HandleSelectCurrent(w http.ResponseWriter, r *http.Request) {
	const op = "api.select_contest"
	var req selectContestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.ContestID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing contest_id")))
		return
	}
	selected := h.deps.SelectContest(r.Context(), req.ContestID)
	writeJSON(w, http.StatusOK, selectContestResponse{ContestID: req.ContestID, Selected: selected})
}

// HandleClearCurrent handles DELETE /contests/current.
func (h *ContestsHandler) HandleClearCurrent(w http.ResponseWriter, r *http.Request) {
	h.deps.ClearContest(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
