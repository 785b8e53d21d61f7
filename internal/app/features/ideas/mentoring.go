package ideas

import (
	"net/http"

	"github.com/dalemusser/classforge/internal/app/ideaflow"
	"github.com/dalemusser/classforge/internal/app/system/respond"
)

// HandleInterest handles POST /api/ideas/{id}/interest.
func (h *Handler) HandleInterest(w http.ResponseWriter, r *http.Request) {
	h.interest(w, r, true)
}

// HandleWithdrawInterest handles DELETE /api/ideas/{id}/interest.
func (h *Handler) HandleWithdrawInterest(w http.ResponseWriter, r *http.Request) {
	h.interest(w, r, false)
}

func (h *Handler) interest(w http.ResponseWriter, r *http.Request, interested bool) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := objectIDParam(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	call := h.Ideas.WithdrawInterest
	if interested {
		call = h.Ideas.ShowInterest
	}
	idea, err := call(r.Context(), a, id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, idea)
}

// HandleMeeting handles POST /api/ideas/{id}/meeting.
func (h *Handler) HandleMeeting(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, err := objectIDParam(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	var in ideaflow.MeetingInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	idea, err := h.Ideas.ShareMeeting(r.Context(), a, id, in)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, idea)
}
