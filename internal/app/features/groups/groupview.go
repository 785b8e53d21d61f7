// internal/app/features/groups/groupview.go
package groups

import (
	"context"
	"net/http"

	"github.com/dalemusser/classforge/internal/app/system/respond"
	"github.com/dalemusser/classforge/internal/app/system/timeouts"
	"github.com/dalemusser/classforge/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memberView is one row of a group's member list.
type memberView struct {
	UserID   primitive.ObjectID `json:"user_id"`
	FullName string             `json:"full_name"`
	Role     string             `json:"role"`
}

type groupView struct {
	models.Group
	MyRole  string       `json:"my_role"`
	Members []memberView `json:"members"`
}

// ServeMyGroups handles GET /api/groups: the caller's groups, by name.
func (h *Handler) ServeMyGroups(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ids, err := h.Memberships.GroupIDsForUser(ctx, a.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	list, err := h.Groups.ListByIDs(ctx, ids)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

// ServeGroup handles GET /api/groups/{id}. Members only.
func (h *Handler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}
	groupID, err := groupIDParam(r)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, me, err := h.membership(ctx, groupID, a.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	rows, err := h.Memberships.ListByGroup(ctx, groupID, "")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	ids := make([]primitive.ObjectID, len(rows))
	for i, m := range rows {
		ids[i] = m.UserID
	}
	contacts, err := h.Users.GetContacts(ctx, ids)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	view := groupView{Group: g, MyRole: me.Role, Members: make([]memberView, 0, len(rows))}
	for _, m := range rows {
		view.Members = append(view.Members, memberView{
			UserID:   m.UserID,
			FullName: contacts[m.UserID].FullName,
			Role:     m.Role,
		})
	}
	respond.JSON(w, http.StatusOK, view)
}
