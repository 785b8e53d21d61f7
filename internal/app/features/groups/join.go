package groups

import (
	"context"
	"errors"
	"net/http"

	groupstore "github.com/dalemusser/classforge/internal/app/store/groups"
	membershipstore "github.com/dalemusser/classforge/internal/app/store/memberships"
	"github.com/dalemusser/classforge/internal/app/system/apperr"
	"github.com/dalemusser/classforge/internal/app/system/respond"
	"github.com/dalemusser/classforge/internal/app/system/timeouts"
	"github.com/dalemusser/classforge/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

type joinRequest struct {
	Code string `json:"code"`
}

// HandleJoin handles POST /api/groups/join. Joining a group you already
// belong to succeeds without changing your role.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req joinRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	code := groupstore.NormalizeCode(req.Code)
	if code == "" {
		respond.Error(w, r, h.Log, apperr.Validation("group code is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := h.Groups.GetByCode(ctx, code)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apperr.NotFound("group"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	exists, err := h.Memberships.Exists(ctx, g.ID, a.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !exists {
		err := h.Memberships.Add(ctx, g.ID, a.ID, models.GroupRoleMember)
		switch {
		case errors.Is(err, membershipstore.ErrDuplicateMembership):
			// Lost a race with another join by the same user.
		case err != nil:
			respond.Error(w, r, h.Log, err)
			return
		default:
			h.Audit.MemberJoined(ctx, a.ID, g.ID)
		}
	}
	respond.JSON(w, http.StatusOK, g)
}
