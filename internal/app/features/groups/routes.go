// internal/app/features/groups/routes.go
package groups

import (
	"github.com/dalemusser/classforge/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/groups.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeMyGroups)
		pr.Post("/", h.HandleCreateGroup)
		pr.Post("/join", h.HandleJoin)

		pr.Get("/{id}", h.ServeGroup)
		pr.Post("/{id}/invite", h.HandleInvite)
		pr.Post("/{id}/leave", h.HandleLeave)

		pr.Get("/{id}/messages", h.ServeMessages)
		pr.Post("/{id}/messages", h.HandlePostMessage)
	})

	return r
}
