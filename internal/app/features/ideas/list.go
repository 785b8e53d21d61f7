package ideas

import (
	"net/http"

	"github.com/dalemusser/classforge/internal/app/ideaflow"
	"github.com/dalemusser/classforge/internal/app/system/apperr"
	"github.com/dalemusser/classforge/internal/app/system/normalize"
	"github.com/dalemusser/classforge/internal/app/system/paging"
	"github.com/dalemusser/classforge/internal/app/system/respond"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList handles GET /api/ideas.
//
// Query: status, domain, submitter (user id or "me"), page, per_page.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	a, ok := h.actor(w, r)
	if !ok {
		return
	}

	p := paging.Parse(r)
	f := ideaflow.ListFilter{
		Status: normalize.Filter(query.Get(r, "status")),
		Domain: normalize.Filter(query.Get(r, "domain")),
		Skip:   p.Skip(),
		Limit:  p.Limit(),
	}
	switch sub := normalize.QueryParam(query.Get(r, "submitter")); sub {
	case "":
	case "me":
		f.Submitter = &a.ID
	default:
		id, err := primitive.ObjectIDFromHex(sub)
		if err != nil {
			respond.Error(w, r, h.Log, apperr.Validation("invalid submitter %q", sub))
			return
		}
		f.Submitter = &id
	}

	list, total, err := h.Ideas.List(r.Context(), f)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSONWithMeta(w, http.StatusOK, list, p.Meta(total))
}

// ServeGet handles GET /api/ideas/{id}. The idea embeds its comments.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.actor(w, r); !ok {
		return
	}
	id, err := objectIDParam(r, "id")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	detail, err := h.Ideas.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, detail)
}
