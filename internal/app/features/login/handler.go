// internal/app/features/login/handler.go
package login

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - LoginID / loginID / login_id: The human-readable string users type to sign in

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/classforge/internal/app/features/userinfo"
	userstore "github.com/dalemusser/classforge/internal/app/store/users"
	"github.com/dalemusser/classforge/internal/app/system/apperr"
	"github.com/dalemusser/classforge/internal/app/system/auditlog"
	"github.com/dalemusser/classforge/internal/app/system/auth"
	"github.com/dalemusser/classforge/internal/app/system/inputval"
	"github.com/dalemusser/classforge/internal/app/system/normalize"
	"github.com/dalemusser/classforge/internal/app/system/ratelimit"
	"github.com/dalemusser/classforge/internal/app/system/respond"
	"github.com/dalemusser/classforge/internal/app/system/timeouts"
	"github.com/dalemusser/classforge/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the development trust sign-in: knowing a login id is enough.
// It is only mounted when trust_login is enabled.
type Handler struct {
	Users      *userstore.Store
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Attempts   *ratelimit.Limiter // keyed by client IP; nil disables throttling
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, audit *auditlog.Logger, attempts *ratelimit.Limiter, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Attempts:   attempts,
		Log:        logger,
	}
}

type loginRequest struct {
	LoginID string `json:"login_id" validate:"notblank,max=100"`
}

// HandleLogin handles POST /api/auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if h.Attempts != nil {
		ip := ratelimit.ClientIP(r)
		if !h.Attempts.Allow(ip) {
			secs := int(h.Attempts.RetryAfter(ip).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			respond.TooManyRequests(w, "too many sign-in attempts; try again later")
			return
		}
	}

	var in loginRequest
	if err := respond.Decode(w, r, &in); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	in.LoginID = strings.TrimSpace(in.LoginID)
	if res := inputval.Validate(in); res.HasErrors() {
		respond.Error(w, r, h.Log, apperr.Validation("%s", res.First()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByLoginID(ctx, in.LoginID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.AuditLog.LoginFailed(ctx, r, in.LoginID, "unknown login id")
		respond.Unauthorized(w, "unknown login id")
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if normalize.Status(u.Status) == models.UserDisabled {
		h.AuditLog.LoginFailed(ctx, r, in.LoginID, "account disabled")
		respond.Forbidden(w, "this account is disabled")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("login: save session", zap.Error(err))
		respond.Error(w, r, h.Log, err)
		return
	}
	if h.Attempts != nil {
		h.Attempts.Reset(ratelimit.ClientIP(r))
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.LoginID)
	h.Log.Info("trust sign-in", zap.String("user_id", u.ID.Hex()), zap.String("login_id", u.LoginID))

	respond.JSON(w, http.StatusOK, userinfo.FromSession(&auth.SessionUser{
		ID:      u.ID.Hex(),
		Name:    u.FullName,
		LoginID: u.LoginID,
		Email:   u.Email,
		Role:    normalize.Role(u.Role),
	}))
}
