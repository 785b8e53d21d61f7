// internal/app/features/groups/handler.go
package groups

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	groupstore "github.com/dalemusser/classforge/internal/app/store/groups"
	membershipstore "github.com/dalemusser/classforge/internal/app/store/memberships"
	messagestore "github.com/dalemusser/classforge/internal/app/store/messages"
	userstore "github.com/dalemusser/classforge/internal/app/store/users"
	"github.com/dalemusser/classforge/internal/app/system/apperr"
	"github.com/dalemusser/classforge/internal/app/system/auditlog"
	"github.com/dalemusser/classforge/internal/app/system/authz"
	"github.com/dalemusser/classforge/internal/app/system/ratelimit"
	"github.com/dalemusser/classforge/internal/app/system/realtime"
	"github.com/dalemusser/classforge/internal/app/system/respond"
	"github.com/dalemusser/classforge/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the group chat feature.
type Handler struct {
	DB          *mongo.Database
	Groups      *groupstore.Store
	Memberships *membershipstore.Store
	Messages    *messagestore.Store
	Users       *userstore.Store
	Realtime    realtime.Hub
	// Posting limits chat messages per user. Nil disables the limit.
	Posting *ratelimit.Limiter
	Audit   *auditlog.Logger
	Log     *zap.Logger
}

// NewHandler constructs the groups Handler. A nil hub disables pushes.
func NewHandler(db *mongo.Database, hub realtime.Hub, posting *ratelimit.Limiter, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	if hub == nil {
		hub = realtime.NopPublisher{}
	}
	return &Handler{
		DB:          db,
		Groups:      groupstore.New(db),
		Memberships: membershipstore.New(db),
		Messages:    messagestore.New(db),
		Users:       userstore.New(db),
		Realtime:    hub,
		Posting:     posting,
		Audit:       audit,
		Log:         logger,
	}
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (authz.Actor, bool) {
	a, ok := authz.ActorFrom(r)
	if !ok {
		respond.Unauthorized(w, "sign in required")
	}
	return a, ok
}

func groupIDParam(r *http.Request) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, "id")
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid group id %q", raw)
	}
	return id, nil
}

// membership loads the group and the caller's membership in it. A missing
// group is NotFound; a non-member is Forbidden.
func (h *Handler) membership(ctx context.Context, groupID, userID primitive.ObjectID) (models.Group, models.GroupMembership, error) {
	g, err := h.Groups.GetByID(ctx, groupID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Group{}, models.GroupMembership{}, apperr.NotFound("group")
	}
	if err != nil {
		return models.Group{}, models.GroupMembership{}, err
	}
	m, err := h.Memberships.Get(ctx, groupID, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Group{}, models.GroupMembership{}, apperr.Forbidden("you are not a member of this group")
	}
	if err != nil {
		return models.Group{}, models.GroupMembership{}, err
	}
	return g, m, nil
}

func (h *Handler) allowPost(w http.ResponseWriter, a authz.Actor) bool {
	if h.Posting == nil {
		return true
	}
	key := a.ID.Hex()
	if h.Posting.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(h.Posting.RetryAfter(key).Seconds())+1))
	respond.TooManyRequests(w, "you are posting too fast; try again shortly")
	return false
}
