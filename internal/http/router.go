// Package httpapi wires the HTTP transport (Gin) to the guide, view and auth
// services. It owns the middleware chain: tracing, request IDs, access
// logging, panic recovery, body limits, compression, metrics, rate limiting,
// CORS and security headers.
package httpapi

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/sockheadrps/pycourse/docs"
	"github.com/sockheadrps/pycourse/internal/config"
	"github.com/sockheadrps/pycourse/internal/http/handlers"
	"github.com/sockheadrps/pycourse/internal/http/middleware"
)

// Deps are the services the routes are served from.
type Deps struct {
	Guides handlers.GuideService
	Views  handlers.ViewLedger
	Auth   handlers.AuthService
}

var corsHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}

// RegisterRoutes attaches the middleware chain and every endpoint to r.
//
// Only peers in cfg.TrustedProxies may set X-Forwarded-For. With none
// configured, c.ClientIP() is the socket peer, which the view ledger and
// the rate limiter both key on.
//
// Middleware order matters:
//  1. OpenTelemetry
//  2. RequestID, so every later log line carries it
//  3. access logging (redacting unless disabled)
//  4. Recovery, after the logger
//  5. body size limit
//  6. gzip (not for /metrics, which negotiates its own encoding)
//  7. metrics
//  8. per-IP rate limiter
//  9. CORS and security headers
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Warn().Err(err).Strs("proxies", cfg.TrustedProxies).Msg("invalid trusted proxies; trusting none")
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	if cfg.LogRedact {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))
	} else {
		r.Use(middleware.Logger())
	}
	r.Use(middleware.Recovery())
	r.Use(limitBody(cfg.MaxBodyBytes))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	if dirExists(cfg.StaticDir) {
		r.Static("/guides/static", cfg.StaticDir)
	}

	h := handlers.New(deps.Guides, deps.Views, deps.Auth, cfg.TopGuidesLimit)

	// Reader-facing pages and JSON
	r.GET("/", h.Index)
	r.GET("/guides", h.ListGuideSlugs)
	r.GET("/guides/api/guides", h.ListGuides)
	r.GET("/guides/search", h.SearchGuides)
	r.GET("/guides/:slug/tutorial", h.Tutorial)
	r.GET("/guides/:slug/stats", h.GuideStats)

	// Sessions
	r.POST("/api/auth/login", h.Login)
	requireSession := middleware.RequireSession(deps.Auth.Verify)
	authAPI := r.Group("/api/auth", requireSession)
	{
		authAPI.GET("/verify", h.Verify)
		authAPI.POST("/logout", h.Logout)
	}

	// Authoring
	admin := r.Group("/admin", requireSession)
	{
		admin.GET("/guides/:slug/draft", h.GetDraft)
		admin.POST("/save-draft", h.SaveDraft)
		admin.POST("/publish-guide", h.PublishGuide)
		admin.POST("/regenerate-guide/:slug", h.RegenerateGuide)
		admin.GET("/preview-guide/:slug", h.PreviewDraft)
		admin.POST("/preview-guide", h.PreviewGuide)
		admin.DELETE("/preview-guide/:slug", h.ClearPreview)
		admin.DELETE("/delete-guide/:slug", h.DeleteGuide)
		admin.POST("/regenerate", h.RegenerateAll)
		admin.GET("/check-slug", h.CheckSlug)
		admin.GET("/stats", h.AdminStats)
	}
}

// corsMiddleware allows every origin when origins is empty and otherwise
// echoes allowlisted origins. Credentials are never allowed: the admin token
// travels in the Authorization header, not in cookies.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     corsHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		base.AllowAllOrigins = true
		// Set ACAO even without an Origin header so plain clients see it too.
		star := func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		}
		return []gin.HandlerFunc{star, cors.New(base)}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	echo := func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			if _, ok := allowed[origin]; ok {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
		}
		c.Next()
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{echo, cors.New(base)}
}

// limitBody caps every request body at maxBytes. Reads past the cap fail,
// which JSON binding reports as a bad request.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func dirExists(path string) bool {
	if path == "" {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
