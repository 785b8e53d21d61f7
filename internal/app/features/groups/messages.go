package groups

import (
	"context"
	"net/http"
	"unicode/utf8"

	"github.com/dalemusser/classforge/internal/app/system/apperr"
	"github.com/dalemusser/classforge/internal/app/system/htmlsanitize"
	"github.com/dalemusser/classforge/internal/app/system/paging"
	"github.com/dalemusser/classforge/internal/app/system/realtime"
	"github.com/dalemusser/classforge/internal/app/system/respond"
	"github.com/dalemusser/classforge/internal/app/system/timeouts"
	"github.com/dalemusser/classforge/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxMessageRunes caps a chat message.
const MaxMessageRunes = 2000

// Message history page sizes.
const (
	defaultHistory = 50
	maxHistory     = 200
)

type postMessageRequest struct {
	Text string `json:"text"`
}

// HandlePostMessage handles POST /api/groups/{id}/messages. The stored
// message is pushed to everyone subscribed to the group channel.
func (h *Handler) HandlePostMessage(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	groupID, err := groupIDParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	var req postMessageRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	text := htmlsanitize.PlainText(req.Text)
	if text == "" {
		respond.Error(w, r, h.Log, apperr.Validation("message text is required"))
		return
	}
	if utf8.RuneCountInString(text) > MaxMessageRunes {
		respond.Error(w, r, h.Log, apperr.Validation("message must be at most %d characters", MaxMessageRunes))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, _, err := h.membership(ctx, groupID, a.ID); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !h.allowPost(w, a) {
		return
	}

	msg, err := h.Messages.Create(ctx, models.GroupMessage{
		GroupID:    groupID,
		SenderID:   a.ID,
		SenderName: a.Name,
		Text:       text,
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	h.Realtime.Publish(ctx, realtime.GroupChannel(groupID.Hex()), realtime.Event{
		Type: realtime.EventNewMessage,
		Data: msg,
	})
	respond.JSON(w, http.StatusCreated, msg)
}

// ServeMessages handles GET /api/groups/{id}/messages?before=&limit=.
// Messages come back oldest first; pass the first id as before to page back.
func (h *Handler) ServeMessages(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	groupID, err := groupIDParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	var before primitive.ObjectID
	if raw := query.Get(r, "before"); raw != "" {
		before, err = primitive.ObjectIDFromHex(raw)
		if err != nil {
			respond.Error(w, r, h.Log, apperr.Validation("invalid before id %q", raw))
			return
		}
	}
	limit := paging.ParseLimit(r, defaultHistory, maxHistory)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, _, err := h.membership(ctx, groupID, a.ID); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	list, err := h.Messages.ListRecent(ctx, groupID, before, int64(limit))
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}
