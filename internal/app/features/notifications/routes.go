// internal/app/features/notifications/routes.go
package notifications

import (
	"github.com/dalemusser/classforge/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/notifications.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Delete("/", h.HandleDeleteAll)
	r.Get("/unread-count", h.ServeUnreadCount)
	r.Post("/read-all", h.HandleMarkAllRead)
	r.Post("/{id}/read", h.HandleMarkRead)
	r.Delete("/{id}", h.HandleDelete)
	return r
}
