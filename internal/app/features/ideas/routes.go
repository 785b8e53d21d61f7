// internal/app/features/ideas/routes.go
package ideas

import (
	"github.com/dalemusser/classforge/internal/app/system/auth"
	"github.com/dalemusser/classforge/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/ideas. The service repeats every role check;
// the guards here only turn students away before a body is read.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	reviewers := sm.RequireRole(models.RoleTeacher, models.RoleAdmin)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.With(reviewers).Post("/merge", h.HandleMerge)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.ServeGet)
		r.Delete("/", h.HandleDelete)
		r.With(reviewers).Post("/review", h.HandleReview)
		r.Post("/interest", h.HandleInterest)
		r.Delete("/interest", h.HandleWithdrawInterest)
		r.Post("/meeting", h.HandleMeeting)

		r.Get("/comments", h.ServeComments)
		r.Post("/comments", h.HandleAddComment)
		r.Delete("/comments/{commentID}", h.HandleDeleteComment)
	})
	return r
}
