// internal/app/features/ws/handler.go
package ws

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/classforge/internal/app/system/auth"
	"github.com/dalemusser/classforge/internal/app/system/realtime"
	"github.com/dalemusser/classforge/internal/app/system/respond"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler serves the realtime ticket and WebSocket endpoints.
type Handler struct {
	Server  *realtime.Server
	Tickets *realtime.Tickets
	Users   auth.UserFetcher
	Log     *zap.Logger

	upgrader websocket.Upgrader
	origins  map[string]struct{}
}

// NewHandler builds the handler. allowedOrigins lists the browser origins
// (scheme://host[:port]) that may open a socket in addition to same-host
// requests; "*" allows any.
func NewHandler(server *realtime.Server, tickets *realtime.Tickets, users auth.UserFetcher, allowedOrigins []string, logger *zap.Logger) *Handler {
	h := &Handler{
		Server:  server,
		Tickets: tickets,
		Users:   users,
		Log:     logger,
		origins: make(map[string]struct{}, len(allowedOrigins)),
	}
	for _, o := range allowedOrigins {
		if o = strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/"); o != "" {
			h.origins[o] = struct{}{}
		}
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if _, ok := h.origins["*"]; ok {
		return true
	}
	if _, ok := h.origins[strings.ToLower(origin)]; ok {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

type ticketResponse struct {
	Ticket    string    `json:"ticket"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ServeTicket handles GET /api/realtime/ticket. The ticket authenticates one
// socket upgrade for a short time, for clients that cannot send the cookie.
func (h *Handler) ServeTicket(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Unauthorized(w, "sign in required")
		return
	}
	tok, exp, err := h.Tickets.Issue(u.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.JSON(w, http.StatusOK, ticketResponse{Ticket: tok, ExpiresAt: exp})
}

// ServeWS handles GET /api/realtime/ws. The caller is identified by the
// session cookie or, failing that, by ?ticket=. The user channel is joined
// automatically.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID, err := h.identify(r)
	if err != nil {
		h.Log.Debug("realtime: upgrade refused", zap.Error(err))
		respond.Unauthorized(w, "sign in or provide a valid ticket")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.Log.Debug("realtime: upgrade failed", zap.Error(err))
		return
	}
	h.Server.Serve(r.Context(), conn, userID)
}

var errNoIdentity = errors.New("no session or ticket")

func (h *Handler) identify(r *http.Request) (string, error) {
	if u, ok := auth.CurrentUser(r); ok {
		return u.ID, nil
	}
	ticket := query.Get(r, "ticket")
	if ticket == "" || h.Tickets == nil {
		return "", errNoIdentity
	}
	userID, err := h.Tickets.Verify(ticket)
	if err != nil {
		return "", err
	}
	// The account may have been disabled since the ticket was issued.
	if h.Users != nil && h.Users.FetchUser(r.Context(), userID) == nil {
		return "", errors.New("ticket user is unknown or disabled")
	}
	return userID, nil
}
