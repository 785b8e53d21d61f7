// internal/app/features/ideas/handler.go
package ideas

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/classforge/internal/app/ideaflow"
	"github.com/dalemusser/classforge/internal/app/system/apperr"
	"github.com/dalemusser/classforge/internal/app/system/authz"
	"github.com/dalemusser/classforge/internal/app/system/ratelimit"
	"github.com/dalemusser/classforge/internal/app/system/respond"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the idea, merge, mentoring, and comment endpoints.
type Handler struct {
	Ideas *ideaflow.Service
	// Comments limits comment posting per user. Nil disables the limit.
	Comments *ratelimit.Limiter
	Log      *zap.Logger
}

func NewHandler(svc *ideaflow.Service, commentLimiter *ratelimit.Limiter, logger *zap.Logger) *Handler {
	return &Handler{
		Ideas:    svc,
		Comments: commentLimiter,
		Log:      logger,
	}
}

// actor returns the signed-in caller or answers 401.
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (authz.Actor, bool) {
	a, ok := authz.ActorFrom(r)
	if !ok {
		respond.Unauthorized(w, "sign in required")
	}
	return a, ok
}

// objectIDParam parses a chi URL parameter as an ObjectID.
func objectIDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := chi.URLParam(r, name)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid %s %q", name, raw)
	}
	return id, nil
}

// allowComment applies the per-user posting limit.
func (h *Handler) allowComment(w http.ResponseWriter, a authz.Actor) bool {
	if h.Comments == nil {
		return true
	}
	key := a.ID.Hex()
	if h.Comments.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(h.Comments.RetryAfter(key).Seconds())+1))
	respond.TooManyRequests(w, "you are posting too fast; try again shortly")
	return false
}
