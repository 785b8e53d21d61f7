// internal/app/features/userinfo/handler.go
package userinfo

import (
	"net/http"

	"github.com/dalemusser/classforge/internal/app/system/auth"
	"github.com/dalemusser/classforge/internal/app/system/respond"
)

// Handler serves the current user's identity.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Me is the identity the SPA keeps for the signed-in user.
type Me struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	ID              string `json:"id,omitempty"`
	Name            string `json:"name"`
	LoginID         string `json:"login_id"`
	Email           string `json:"email,omitempty"`
	Role            string `json:"role,omitempty"`
}

// FromSession converts a session identity; nil means signed out.
func FromSession(u *auth.SessionUser) Me {
	if u == nil {
		return Me{}
	}
	return Me{
		IsAuthenticated: true,
		ID:              u.ID,
		Name:            u.Name,
		LoginID:         u.LoginID,
		Email:           u.Email,
		Role:            u.Role,
	}
}

// ServeMe handles GET /api/auth/me. Signed-out callers get 200 with
// is_authenticated=false so the SPA can check sign-in without handling an error.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	respond.JSON(w, http.StatusOK, FromSession(u))
}
