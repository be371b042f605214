package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newAuthRouter(valid string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	admin := r.Group("/admin", RequireSession(func(tok string) bool { return tok == valid }))
	admin.GET("/whoami", func(c *gin.Context) { c.String(http.StatusOK, SessionToken(c)) })
	return r
}

func TestRequireSession(t *testing.T) {
	r := newAuthRouter("good-token")

	cases := []struct {
		name   string
		header string
		query  string
		code   int
	}{
		{"missing header", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good-token", "", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", "", http.StatusUnauthorized},
		{"query token ignored", "", "?token=good-token", http.StatusUnauthorized},
		{"valid", "Bearer good-token", "", http.StatusOK},
		{"scheme case-insensitive", "bearer good-token", "", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/whoami"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.code {
				t.Fatalf("status = %d; want %d", w.Code, tc.code)
			}
			if tc.code == http.StatusOK {
				if w.Body.String() != "good-token" {
					t.Fatalf("token not exposed to handler: %q", w.Body.String())
				}
				return
			}
			if w.Header().Get("WWW-Authenticate") == "" {
				t.Fatalf("missing WWW-Authenticate header")
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body["code"] != "unauthorized" || body["status"] != "error" || body["request_id"] == "" {
				t.Fatalf("unexpected envelope: %v", body)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	if BearerToken(c) != "" {
		t.Fatalf("expected empty token without header")
	}
	c.Request.Header.Set("Authorization", "  Bearer   abc  ")
	if got := BearerToken(c); got != "abc" {
		t.Fatalf("BearerToken = %q", got)
	}
	c.Request.Header.Set("Authorization", "Bearer")
	if got := BearerToken(c); got != "" {
		t.Fatalf("scheme without token = %q", got)
	}
}
