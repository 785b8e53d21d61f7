package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/classforge/internal/app/system/auth"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		logger,
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

type stubFetcher struct {
	users map[string]*auth.SessionUser
	calls int
}

func (f *stubFetcher) FetchUser(_ context.Context, userID string) *auth.SessionUser {
	f.calls++
	return f.users[userID]
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewSessionManager_EmptyKey(t *testing.T) {
	_, err := auth.NewSessionManager("", "x", "", time.Hour, false, zap.NewNop())
	if err == nil {
		t.Fatal("expected error for empty session key")
	}
}

func TestRequireSignedIn_NoUser_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)

	req := httptest.NewRequest("GET", "/api/ideas", nil)
	rec := httptest.NewRecorder()
	sm.RequireSignedIn(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body.Success {
		t.Error("expected success=false")
	}
	if body.Error.Code != "UNAUTHORIZED" {
		t.Errorf("expected code UNAUTHORIZED, got %q", body.Error.Code)
	}
}

func TestRequireRole_NoUser_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)

	req := httptest.NewRequest("POST", "/api/ideas/merge", nil)
	rec := httptest.NewRecorder()
	sm.RequireRole("teacher")(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireRole_WrongRole_Returns403(t *testing.T) {
	sm := newTestSessionManager(t)

	req := withTestUser(httptest.NewRequest("POST", "/api/ideas/merge", nil), "student")
	rec := httptest.NewRecorder()
	sm.RequireRole("teacher", "admin")(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
}

func TestRequireRole_MultipleRoles(t *testing.T) {
	sm := newTestSessionManager(t)
	handler := sm.RequireRole("teacher", "admin")(okHandler())

	tests := []struct {
		role     string
		expected int
	}{
		{"teacher", http.StatusOK},
		{"admin", http.StatusOK},
		{"student", http.StatusForbidden},
		{"", http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			req := withTestUser(httptest.NewRequest("GET", "/review", nil), tc.role)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.expected {
				t.Errorf("role %q: expected status %d, got %d", tc.role, tc.expected, rec.Code)
			}
		})
	}
}

func TestRequireRole_CaseInsensitive(t *testing.T) {
	sm := newTestSessionManager(t)

	req := withTestUser(httptest.NewRequest("GET", "/admin", nil), "ADMIN")
	rec := httptest.NewRecorder()
	sm.RequireRole("admin")(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d for uppercase role, got %d", http.StatusOK, rec.Code)
	}
}

func TestCurrentUser_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	user, ok := auth.CurrentUser(req)
	if ok {
		t.Error("expected ok to be false when no user in context")
	}
	if user != nil {
		t.Error("expected user to be nil when no user in context")
	}
}

func TestCurrentUser_WithUser(t *testing.T) {
	req := withTestUser(httptest.NewRequest("GET", "/", nil), "teacher")

	user, ok := auth.CurrentUser(req)
	if !ok || user == nil {
		t.Fatal("expected a user in context")
	}
	if user.Role != "teacher" {
		t.Errorf("expected role 'teacher', got %q", user.Role)
	}
}

func TestSignIn_LoadSessionUser_RoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)
	const userID = "507f1f77bcf86cd799439011"
	fetcher := &stubFetcher{users: map[string]*auth.SessionUser{
		userID: {ID: userID, Name: "Ada", LoginID: "ada", Role: "student"},
	}}
	sm.SetUserFetcher(fetcher)

	signInRec := httptest.NewRecorder()
	if err := sm.SignIn(signInRec, httptest.NewRequest("POST", "/login", nil), userID); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := signInRec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	var got *auth.SessionUser
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	}))

	req := httptest.NewRequest("GET", "/api/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected LoadSessionUser to inject the user")
	}
	if got.Name != "Ada" {
		t.Errorf("Name = %q, want Ada", got.Name)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher calls = %d, want 1", fetcher.calls)
	}
}

func TestLoadSessionUser_DisabledUser_SignedOut(t *testing.T) {
	sm := newTestSessionManager(t)
	sm.SetUserFetcher(&stubFetcher{users: map[string]*auth.SessionUser{}})

	signInRec := httptest.NewRecorder()
	if err := sm.SignIn(signInRec, httptest.NewRequest("POST", "/login", nil), "507f1f77bcf86cd799439011"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	found := true
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = auth.CurrentUser(r)
	}))
	req := httptest.NewRequest("GET", "/api/me", nil)
	for _, c := range signInRec.Result().Cookies() {
		req.AddCookie(c)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if found {
		t.Error("expected no user when fetcher returns nil")
	}
}

func TestLoadSessionUser_TamperedCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	fetcher := &stubFetcher{}
	sm.SetUserFetcher(fetcher)

	found := true
	handler := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = auth.CurrentUser(r)
	}))
	req := httptest.NewRequest("GET", "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "test-session", Value: "not-a-valid-cookie"})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if found {
		t.Error("expected tampered cookie to be treated as signed out")
	}
	if fetcher.calls != 0 {
		t.Errorf("fetcher should not be called, got %d calls", fetcher.calls)
	}
}

func TestSignOut_ExpiresCookie(t *testing.T) {
	sm := newTestSessionManager(t)

	rec := httptest.NewRecorder()
	if err := sm.SignOut(rec, httptest.NewRequest("POST", "/logout", nil)); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected an expiring cookie")
	}
	if cookies[0].MaxAge >= 0 {
		t.Errorf("expected negative MaxAge, got %d", cookies[0].MaxAge)
	}
}

// withTestUser injects a SessionUser into the request context for testing.
func withTestUser(r *http.Request, role string) *http.Request {
	user := &auth.SessionUser{
		ID:      "507f1f77bcf86cd799439011",
		Name:    "Test User",
		LoginID: "test",
		Role:    role,
	}
	return auth.WithTestUser(r, user)
}
