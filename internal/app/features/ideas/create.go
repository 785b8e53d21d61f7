package ideas

import (
	"net/http"

	"github.com/dalemusser/classforge/internal/app/ideaflow"
	"github.com/dalemusser/classforge/internal/app/system/respond"
)

// HandleCreate handles POST /api/ideas.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}

	var in ideaflow.SubmitInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	idea, err := h.Ideas.Submit(r.Context(), a, in)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, idea)
}

// HandleDelete handles DELETE /api/ideas/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := objectIDParam(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	if err := h.Ideas.Delete(r.Context(), a, id); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"id": id.Hex()})
}
