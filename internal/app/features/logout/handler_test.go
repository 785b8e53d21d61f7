package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/classforge/internal/app/features/logout"
	"github.com/dalemusser/classforge/internal/app/system/auth"
	"github.com/dalemusser/classforge/internal/testutil"
	"go.uber.org/zap"
)

func newSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return sm
}

func TestHandleLogout_ClearsSessionCookie(t *testing.T) {
	sm := newSessionManager(t)
	h := logout.NewHandler(sm, nil, zap.NewNop())

	// Sign in first to obtain a real cookie.
	signin := httptest.NewRecorder()
	if err := sm.SignIn(signin, httptest.NewRequest(http.MethodPost, "/", nil), "64b000000000000000000001"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	for _, c := range signin.Result().Cookies() {
		req.AddCookie(c)
	}
	if _, ok := sm.SessionUserID(req); !ok {
		t.Fatal("expected the request to carry a signed-in session")
	}

	rec := testutil.NewRecorder()
	h.HandleLogout(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var expired bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge < 0 {
			expired = true
		}
	}
	if !expired {
		t.Error("expected the session cookie to be expired")
	}
}

func TestHandleLogout_WithoutSession(t *testing.T) {
	h := logout.NewHandler(newSessionManager(t), nil, zap.NewNop())

	rec := testutil.NewRecorder()
	h.HandleLogout(rec, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))
	rec.AssertStatus(t, http.StatusOK)
}

func TestHandleLogout_UndecodableCookie(t *testing.T) {
	h := logout.NewHandler(newSessionManager(t), nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "test-session", Value: "not-a-valid-cookie"})

	rec := testutil.NewRecorder()
	h.HandleLogout(rec, req)
	rec.AssertStatus(t, http.StatusOK)
}
