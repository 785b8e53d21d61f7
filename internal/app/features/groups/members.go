package groups

import (
	"context"
	"errors"
	"net/http"

	membershipstore "github.com/dalemusser/classforge/internal/app/store/memberships"
	"github.com/dalemusser/classforge/internal/app/system/apperr"
	"github.com/dalemusser/classforge/internal/app/system/inputval"
	"github.com/dalemusser/classforge/internal/app/system/realtime"
	"github.com/dalemusser/classforge/internal/app/system/respond"
	"github.com/dalemusser/classforge/internal/app/system/timeouts"
	"github.com/dalemusser/classforge/internal/app/system/txn"
	"github.com/dalemusser/classforge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type inviteRequest struct {
	UserID string `json:"user_id" validate:"required,objectid" label:"User"`
}

// HandleInvite handles POST /api/groups/{id}/invite. Only group admins may
// add people.
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	groupID, err := groupIDParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	var req inviteRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if res := inputval.Validate(req); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation("%s", res.First()))
		return
	}
	userID, _ := primitive.ObjectIDFromHex(req.UserID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	_, me, err := h.membership(ctx, groupID, a.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if me.Role != models.GroupRoleAdmin {
		respond.Error(w, r, h.Log, apperr.Forbidden("only group admins can invite"))
		return
	}

	u, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && u.Status == models.UserDisabled) {
		respond.Error(w, r, h.Log, apperr.NotFound("user"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	err = h.Memberships.Add(ctx, groupID, userID, models.GroupRoleMember)
	if errors.Is(err, membershipstore.ErrDuplicateMembership) {
		respond.Error(w, r, h.Log, apperr.Conflict("user is already a member of this group"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	h.Audit.MemberInvited(ctx, a.ID, groupID, userID)
	respond.JSON(w, http.StatusOK, map[string]string{"group_id": groupID.Hex(), "user_id": userID.Hex()})
}

// HandleLeave handles POST /api/groups/{id}/leave.
//
// The last admin cannot leave while anyone else remains. When the last
// member leaves, the group and its messages are removed.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	groupID, err := groupIDParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	_, me, err := h.membership(ctx, groupID, a.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	var disbanded bool
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		disbanded = false
		total, err := h.Memberships.CountByGroup(ctx, groupID, "")
		if err != nil {
			return err
		}
		if me.Role == models.GroupRoleAdmin && total > 1 {
			admins, err := h.Memberships.CountByGroup(ctx, groupID, models.GroupRoleAdmin)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return apperr.Validation("the last admin cannot leave while other members remain")
			}
		}

		if _, err := h.Memberships.Remove(ctx, groupID, a.ID); err != nil {
			return err
		}
		if total > 1 {
			return nil
		}
		if _, err := h.Messages.DeleteByGroup(ctx, groupID); err != nil {
			return err
		}
		if _, err := h.Groups.Delete(ctx, groupID); err != nil {
			return err
		}
		disbanded = true
		return nil
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	channel := realtime.GroupChannel(groupID.Hex())
	if disbanded {
		h.Realtime.DropChannel(ctx, channel)
		h.Log.Info("group disbanded", zap.String("group_id", groupID.Hex()))
	} else {
		h.Realtime.UnsubscribeUser(ctx, a.ID.Hex(), channel)
	}
	h.Audit.MemberLeft(ctx, a.ID, groupID)
	respond.JSON(w, http.StatusOK, map[string]any{"group_id": groupID.Hex(), "disbanded": disbanded})
}
