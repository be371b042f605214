package handlers

import (
	"net/http"
	"testing"

	"github.com/sockheadrps/pycourse/internal/http/middleware"
)

func newAuthRouter(a *stubAuth) http.Handler {
	h := New(&stubGuides{}, &stubViews{}, a, 0)
	r := newTestEngine()
	r.POST("/api/auth/login", h.Login)
	gated := r.Group("/api/auth", middleware.RequireSession(a.Verify))
	gated.GET("/verify", h.Verify)
	gated.POST("/logout", h.Logout)
	return r
}

func TestLogin(t *testing.T) {
	r := newAuthRouter(&stubAuth{password: "pw"})

	w := do(t, r, http.MethodPost, "/api/auth/login", `{"password":"pw"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login -> %d", w.Code)
	}
	resp := decode[LoginResponse](t, w)
	if resp.Token != "tok-1" || resp.ExpiresAt.IsZero() {
		t.Fatalf("unexpected login response %+v", resp)
	}

	expectError(t, do(t, r, http.MethodPost, "/api/auth/login", `{"password":"nope"}`), http.StatusUnauthorized, ErrCodeUnauthorized)
	expectError(t, do(t, r, http.MethodPost, "/api/auth/login", `{"password":`), http.StatusBadRequest, ErrCodeBadRequest)
	expectError(t, do(t, r, http.MethodPost, "/api/auth/login", `{}`), http.StatusBadRequest, ErrCodeBadRequest)
}

func TestVerifyAndLogout(t *testing.T) {
	a := &stubAuth{password: "pw"}
	r := newAuthRouter(a)

	if w := do(t, r, http.MethodGet, "/api/auth/verify", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("verify without token -> %d", w.Code)
	}

	w := do(t, r, http.MethodGet, "/api/auth/verify", "", "Authorization", "Bearer tok-1")
	if w.Code != http.StatusOK || !decode[VerifyResponse](t, w).Valid {
		t.Fatalf("verify -> %d %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodPost, "/api/auth/logout", "", "Authorization", "Bearer tok-1")
	if w.Code != http.StatusOK {
		t.Fatalf("logout -> %d", w.Code)
	}
	if len(a.revoked) != 1 || a.revoked[0] != "tok-1" {
		t.Fatalf("revoked = %v", a.revoked)
	}
}

func TestNew_DefaultTopLimit(t *testing.T) {
	if h := New(&stubGuides{}, &stubViews{}, &stubAuth{}, 0); h.topLimit != 10 {
		t.Fatalf("topLimit = %d", h.topLimit)
	}
}
