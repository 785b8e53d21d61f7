// internal/app/features/notifications/handler.go
package notifications

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	notificationstore "github.com/dalemusser/classforge/internal/app/store/notifications"
	"github.com/dalemusser/classforge/internal/app/system/apperr"
	"github.com/dalemusser/classforge/internal/app/system/authz"
	"github.com/dalemusser/classforge/internal/app/system/paging"
	"github.com/dalemusser/classforge/internal/app/system/respond"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the signed-in user's notifications. Every operation is
// scoped to the caller; another user's notification answers 404.
type Handler struct {
	Store *notificationstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Store: notificationstore.New(db),
		Log:   logger,
	}
}

// unreadResponse is returned by every mutation so clients can reconcile
// their badge counters.
type unreadResponse struct {
	Unread int64 `json:"unread_count"`
}

// ServeList handles GET /api/notifications?unread_only=&page=&per_page=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.ActorFrom(r)
	if !ok {
		respond.Unauthorized(w, "sign in required")
		return
	}

	unreadOnly, _ := strconv.ParseBool(query.Get(r, "unread_only"))
	p := paging.Parse(r)

	list, total, err := h.Store.ListByRecipient(r.Context(), a.ID, unreadOnly, p.Skip(), p.Limit())
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSONWithMeta(w, http.StatusOK, list, p.Meta(total))
}

// ServeUnreadCount handles GET /api/notifications/unread-count.
func (h *Handler) ServeUnreadCount(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.ActorFrom(r)
	if !ok {
		respond.Unauthorized(w, "sign in required")
		return
	}

	n, err := h.Store.CountUnread(r.Context(), a.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, unreadResponse{Unread: n})
}

// HandleMarkRead handles POST /api/notifications/{id}/read.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	h.mutateOne(w, r, h.Store.MarkRead)
}

// HandleDelete handles DELETE /api/notifications/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	h.mutateOne(w, r, h.Store.Delete)
}

func (h *Handler) mutateOne(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id, recipient primitive.ObjectID) (int64, error)) {
	a, ok := authz.ActorFrom(r)
	if !ok {
		respond.Unauthorized(w, "sign in required")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, h.Log, apperr.Validation("invalid notification id"))
		return
	}

	unread, err := op(r.Context(), id, a.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("notification"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, unreadResponse{Unread: unread})
}

// HandleMarkAllRead handles POST /api/notifications/read-all.
func (h *Handler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.ActorFrom(r)
	if !ok {
		respond.Unauthorized(w, "sign in required")
		return
	}

	unread, err := h.Store.MarkAllRead(r.Context(), a.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, unreadResponse{Unread: unread})
}

// HandleDeleteAll handles DELETE /api/notifications.
func (h *Handler) HandleDeleteAll(w http.ResponseWriter, r *http.Request) {
	a, ok := authz.ActorFrom(r)
	if !ok {
		respond.Unauthorized(w, "sign in required")
		return
	}

	n, err := h.Store.DeleteAll(r.Context(), a.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Log.Debug("notifications cleared", zap.String("user_id", a.ID.Hex()), zap.Int64("deleted", n))
	respond.JSON(w, http.StatusOK, map[string]int64{"deleted": n, "unread_count": 0})
}
