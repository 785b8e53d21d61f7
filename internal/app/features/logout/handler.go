// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/classforge/internal/app/system/auditlog"
	"github.com/dalemusser/classforge/internal/app/system/auth"
	"github.com/dalemusser/classforge/internal/app/system/respond"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
	}
}

// HandleLogout handles POST /api/auth/logout. Signing out twice is fine.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.SessionMgr.SessionUserID(r)

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
		respond.Error(w, r, h.Log, err)
		return
	}
	if userID != "" {
		h.AuditLog.Logout(r.Context(), r, userID)
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"signed_out": true})
}
