package ideas

import (
	"net/http"

	"github.com/dalemusser/classforge/internal/app/system/respond"
)

type commentRequest struct {
	Text string `json:"text"`
}

// ServeComments handles GET /api/ideas/{id}/comments.
func (h *Handler) ServeComments(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r); !ok {
		return
	}
	id, err := objectIDParam(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	list, err := h.Ideas.ListComments(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// HandleAddComment handles POST /api/ideas/{id}/comments.
func (h *Handler) HandleAddComment(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := objectIDParam(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !h.allowComment(w, a) {
		return
	}

	var req commentRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	c, err := h.Ideas.AddComment(r.Context(), a, id, req.Text)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusCreated, c)
}

// HandleDeleteComment handles DELETE /api/ideas/{id}/comments/{commentID}.
func (h *Handler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	ideaID, err := objectIDParam(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	commentID, err := objectIDParam(r, "commentID")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	if err := h.Ideas.DeleteComment(r.Context(), a, ideaID, commentID); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"id": commentID.Hex()})
}
