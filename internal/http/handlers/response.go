package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sockheadrps/pycourse/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Always "error"
	Status string `json:"status" example:"error"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"guide not found"`
}

// StatusResponse acknowledges a write that has nothing else to report.
type StatusResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message,omitempty" example:"preview cleared"`
}

// fail aborts the request with the error envelope. 5xx responses are logged
// with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: requestID(c),
		Status:    "error",
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

func success(c *gin.Context, msg string) {
	ok(c, http.StatusOK, StatusResponse{Status: "success", Message: msg})
}

func html(c *gin.Context, page []byte) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// requestID prefers the ID stored by middleware and falls back to the
// response header for handlers mounted without it.
func requestID(c *gin.Context) string {
	if rid := middleware.RequestIDFrom(c); rid != "" {
		return rid
	}
	return c.Writer.Header().Get("X-Request-ID")
}
