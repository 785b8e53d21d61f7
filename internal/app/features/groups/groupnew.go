// internal/app/features/groups/groupnew.go
package groups

import (
	"context"
	"net/http"

	"github.com/dalemusser/classforge/internal/app/system/apperr"
	"github.com/dalemusser/classforge/internal/app/system/htmlsanitize"
	"github.com/dalemusser/classforge/internal/app/system/inputval"
	"github.com/dalemusser/classforge/internal/app/system/respond"
	"github.com/dalemusser/classforge/internal/app/system/timeouts"
	"github.com/dalemusser/classforge/internal/app/system/txn"
	"github.com/dalemusser/classforge/internal/domain/models"
	"go.uber.org/zap"
)

// createGroupInput defines validation rules for creating a group.
type createGroupInput struct {
	Name        string `json:"name" validate:"notblank,max=100" label:"Name"`
	Description string `json:"description" validate:"max=500" label:"Description"`
}

// HandleCreateGroup handles POST /api/groups. The creator becomes the
// group's first admin.
func (h *Handler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}

	var in createGroupInput
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in.Name = htmlsanitize.PlainText(in.Name)
	in.Description = htmlsanitize.PlainText(in.Description)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation("%s", res.First()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var group models.Group
	err := txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		g, err := h.Groups.Create(ctx, models.Group{
			Name:        in.Name,
			Description: in.Description,
			CreatedBy:   a.ID,
		})
		if err != nil {
			return err
		}
		group = g
		return h.Memberships.Add(ctx, g.ID, a.ID, models.GroupRoleAdmin)
	})
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	h.Log.Info("group created",
		zap.String("group_id", group.ID.Hex()),
		zap.String("actor_id", a.ID.Hex()))
	h.Audit.GroupCreated(ctx, a.ID, group.ID, group.Name)
	respond.JSON(w, http.StatusCreated, group)
}
