package ideas

import (
	"net/http"

	"github.com/dalemusser/classforge/internal/app/ideaflow"
	"github.com/dalemusser/classforge/internal/app/system/respond"
)

type reviewRequest struct {
	Status   string `json:"status"`
	Feedback string `json:"feedback"`
}

// HandleReview handles POST /api/ideas/{id}/review.
func (h *Handler) HandleReview(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := objectIDParam(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	var req reviewRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	idea, err := h.Ideas.Review(r.Context(), a, id, req.Status, req.Feedback)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, idea)
}

// HandleMerge handles POST /api/ideas/merge.
func (h *Handler) HandleMerge(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}

	var in ideaflow.MergeInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	idea, err := h.Ideas.Merge(r.Context(), a, in)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, idea)
}
