package auth

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - LoginID / loginID / login_id: The human-readable string users type to sign in

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/classforge/internal/app/system/respond"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	isAuthKey = "is_authenticated"
	userIDKey = "user_id"
)

// SessionUser is the identity injected into r.Context() for signed-in requests.
type SessionUser struct {
	ID      string
	Name    string
	LoginID string
	Email   string
	Role    string
}

// UserFetcher loads fresh user data for a session's user id. It returns nil
// when the user no longer exists or is disabled.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *SessionUser
}

// SessionManager owns the cookie store and the identity middleware.
type SessionManager struct {
	store   *sessions.CookieStore
	name    string
	log     *zap.Logger
	fetcher UserFetcher
}

// NewSessionManager builds a cookie-backed session manager.
//
// In production (secure=true) cookies are Secure + SameSite=None so the SPA
// can call the API cross-site over HTTPS. In local dev over http://localhost,
// use secure=false (SameSite=Lax).
func NewSessionManager(sessionKey, name, domain string, maxAge time.Duration, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide 32+ random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}
	if name == "" {
		name = "classforge-session"
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.MaxAge(int(maxAge.Seconds()))
	store.Options.Domain = domain
	store.Options.Path = "/"
	store.Options.Secure = secure
	store.Options.HttpOnly = true
	if secure {
		store.Options.SameSite = http.SameSiteNoneMode
	} else {
		store.Options.SameSite = http.SameSiteLaxMode
	}

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// SetUserFetcher makes LoadSessionUser fetch the user on each request so role
// changes and disabled accounts take effect immediately.
func (sm *SessionManager) SetUserFetcher(f UserFetcher) { sm.fetcher = f }

// Store exposes the underlying cookie store.
func (sm *SessionManager) Store() *sessions.CookieStore { return sm.store }

// GetSession returns the request's session. On a decode error (rotated key,
// tampered cookie) a fresh session is still returned alongside the error.
func (sm *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return sm.store.Get(r, sm.name)
}

// SignIn marks the session as belonging to userID.
func (sm *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, userID string) error {
	sess, err := sm.GetSession(r)
	if err != nil && !IsDecodeError(err) {
		return err
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = userID
	return sess.Save(r, w)
}

// SignOut expires the session cookie.
func (sm *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, err := sm.GetSession(r)
	if err != nil && !IsDecodeError(err) {
		return err
	}
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// SessionUserID returns the user id stored in the session cookie, if any.
func (sm *SessionManager) SessionUserID(r *http.Request) (string, bool) {
	sess, err := sm.GetSession(r)
	if err != nil {
		if IsDecodeError(err) {
			sm.log.Debug("session cookie could not be decoded; treating as signed out", zap.Error(err))
		}
		return "", false
	}
	if isAuth, _ := sess.Values[isAuthKey].(bool); !isAuth {
		return "", false
	}
	id, ok := sess.Values[userIDKey].(string)
	return id, ok && id != ""
}

// LoadSessionUser injects the signed-in user into the request context.
// Requests without a valid session pass through unauthenticated.
func (sm *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := sm.SessionUserID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if sm.fetcher == nil {
			next.ServeHTTP(w, r)
			return
		}
		if u := sm.fetcher.FetchUser(r.Context(), userID); u != nil {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn answers 401 unless a user is in context.
func (sm *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			respond.Unauthorized(w, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole answers 401 when signed out and 403 when the user's role is not
// one of allowed. Role comparison is case-insensitive.
func (sm *SessionManager) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				respond.Unauthorized(w, "sign in required")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				respond.Forbidden(w, "your role cannot perform this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IsDecodeError reports whether err came from an undecodable cookie.
func IsDecodeError(err error) bool {
	var scErr securecookie.Error
	if errors.As(err, &scErr) {
		return scErr.IsDecode()
	}
	return false
}

/*─────────────────────────────────────────────────────────────────────────────*
| Context helpers                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	return UserFromContext(r.Context())
}

// UserFromContext is CurrentUser for code that only has a context.
func UserFromContext(ctx context.Context) (*SessionUser, bool) {
	u, ok := ctx.Value(currentUserKey).(*SessionUser)
	return u, ok && u != nil
}

// ContextWithUser returns ctx carrying u.
func ContextWithUser(ctx context.Context, u *SessionUser) context.Context {
	return context.WithValue(ctx, currentUserKey, u)
}

// WithTestUser injects u the way LoadSessionUser would. Used by tests and by
// the realtime ticket path.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(ContextWithUser(r.Context(), u))
}
