package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/sockheadrps/pycourse/internal/services"
)

func Test_fail_500_LogsAndBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-500")
		c.Set("logger", &logger)
		c.Next()
	})
	r.GET("/boom", func(c *gin.Context) {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "kaboom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	want := ErrorResponse{RequestID: "rid-500", Status: "error", Code: ErrCodeInternal, Message: "kaboom"}
	if resp != want {
		t.Fatalf("body = %+v; want %+v", resp, want)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("expected error log, got: %s", buf.String())
	}
}

func Test_Fail_4xx_NotLogged(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r.Use(func(c *gin.Context) {
		c.Set("logger", &logger)
		c.Next()
	})
	r.GET("/missing", func(c *gin.Context) { Fail(c, http.StatusNotFound, ErrCodeNotFound, "nope") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if buf.Len() != 0 {
		t.Fatalf("4xx should not be logged by fail: %s", buf.String())
	}
}

func Test_successAndHTMLHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/done", func(c *gin.Context) { success(c, "saved") })
	r.GET("/page", func(c *gin.Context) { html(c, []byte("<p>hi</p>")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/done", nil))
	var st StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil || st.Status != "success" || st.Message != "saved" {
		t.Fatalf("unexpected success body %q err=%v", w.Body.String(), err)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/page", nil))
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}
	if w.Body.String() != "<p>hi</p>" {
		t.Fatalf("body = %q", w.Body.String())
	}
}

func Test_serviceError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrGuideNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrTutorialNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrDraftNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrPreviewNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrInvalidSlug, http.StatusBadRequest, ErrCodeInvalidSlug},
		{services.ErrSlugTaken, http.StatusConflict, ErrCodeConflict},
		{services.ErrInvalidGuide, http.StatusBadRequest, ErrCodeInvalidGuide},
		{services.ErrInvalidCredentials, http.StatusUnauthorized, ErrCodeUnauthorized},
		{errors.New("disk on fire"), http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		wrapped := fmt.Errorf("ctx: %w", tc.err)
		status, code, msg := serviceError(wrapped, "fallback")
		if status != tc.status || code != tc.code {
			t.Fatalf("%v -> (%d, %s); want (%d, %s)", tc.err, status, code, tc.status, tc.code)
		}
		if status == http.StatusInternalServerError && msg != "fallback" {
			t.Fatalf("internal errors must not leak details, got %q", msg)
		}
	}
}
