package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsByRouteAndUnmatched(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/guides/:slug/stats", func(c *gin.Context) { c.String(http.StatusOK, "{}") })
	r.GET("/empty", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	baseRoute := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/guides/:slug/stats", "200"))
	baseMiss := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedPath, "404"))
	baseEmpty := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/empty", "204"))

	for _, p := range []string{"/guides/a/stats", "/guides/b/stats", "/nope/1", "/nope/2", "/empty"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/guides/:slug/stats", "200")); got != baseRoute+2 {
		t.Fatalf("route counter = %v; want %v", got, baseRoute+2)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedPath, "404")); got != baseMiss+2 {
		t.Fatalf("unmatched counter = %v; want %v", got, baseMiss+2)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/empty", "204")); got != baseEmpty+1 {
		t.Fatalf("empty counter = %v; want %v", got, baseEmpty+1)
	}
	if got := testutil.ToFloat64(httpInflight); got != 0 {
		t.Fatalf("httpInflight = %v; want 0", got)
	}
}
