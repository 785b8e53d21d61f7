// internal/app/features/ws/routes.go
package ws

import (
	"github.com/dalemusser/classforge/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/realtime. The socket endpoint authenticates on
// its own so ticket holders without a cookie can connect.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.With(sm.RequireSignedIn).Get("/ticket", h.ServeTicket)
	r.Get("/ws", h.ServeWS)
	return r
}
