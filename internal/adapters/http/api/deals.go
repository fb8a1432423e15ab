package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/okian/battlegrounds/internal/domain/dedupe"
	"github.com/okian/battlegrounds/internal/domain/model"
)

// DealDependencies defines the interface for deal submission and review.
type DealDependencies interface {
	dedupe.Deduper

	// Enqueue pushes a submission for async processing. Returns false on
	// backpressure.
	Enqueue(ctx context.Context, s model.Submission) bool

	// UpdateDeal merges patch into deal id and reports whether it existed.
	UpdateDeal(ctx context.Context, id string, patch model.DealPatch) bool
}

// DealsHandler handles deal requests.
type DealsHandler struct {
	deps  DealDependencies
	newID func() string
}

// NewDealsHandler creates a new deals handler.
func NewDealsHandler(deps DealDependencies) *DealsHandler {
	return &DealsHandler{deps: deps, newID: uuid.NewString}
}

// HandlePostDeal handles POST /deals requests.
func (h *DealsHandler) HandlePostDeal(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_deal"
	var req dealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	sub := req.submission(h.newID)

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), sub.ID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", ID: sub.ID, Duplicate: true})
		return
	}

	if ok := h.deps.Enqueue(r.Context(), sub); !ok {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), sub.ID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: sub.ID})
}

// HandlePatchDeal handles PATCH /deals/{id} requests. An unknown id is not an
// error; the response reports updated=false.
func (h *DealsHandler) HandlePatchDeal(w http.ResponseWriter, r *http.Request) {
	const op = "api.patch_deal"
	id := r.PathValue("id")
	var req dealPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	updated := h.deps.UpdateDeal(r.Context(), id, req.patch())
	writeJSON(w, http.StatusOK, updateResponse{ID: id, Updated: updated})
}
