package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sockheadrps/pycourse/internal/services"
)

// Error codes carried in ErrorResponse.Code. Clients branch on these, never
// on messages.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeInvalidSlug  = "invalid_slug"
	ErrCodeInvalidGuide = "invalid_guide"
	ErrCodeRenderFailed = "render_failed"
)

// serviceError maps a service sentinel to status, code and a client-safe
// message. Unknown errors become a generic 500 with fallback as message.
func serviceError(err error, fallback string) (int, string, string) {
	switch {
	case errors.Is(err, services.ErrGuideNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "guide not found"
	case errors.Is(err, services.ErrTutorialNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "tutorial not found"
	case errors.Is(err, services.ErrDraftNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "draft not found"
	case errors.Is(err, services.ErrPreviewNotFound):
		return http.StatusNotFound, ErrCodeNotFound, "preview not found"
	case errors.Is(err, services.ErrInvalidSlug):
		return http.StatusBadRequest, ErrCodeInvalidSlug, "slug must be 3-50 characters of letters, digits, '-' or '_'"
	case errors.Is(err, services.ErrSlugTaken):
		return http.StatusConflict, ErrCodeConflict, "slug already taken"
	case errors.Is(err, services.ErrInvalidGuide):
		return http.StatusBadRequest, ErrCodeInvalidGuide, err.Error()
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrCodeUnauthorized, "invalid password"
	default:
		return http.StatusInternalServerError, ErrCodeInternal, fallback
	}
}

// failService writes the envelope for err. The raw error is attached to the
// gin context so the access log carries it.
func failService(c *gin.Context, err error, fallback string) {
	status, code, msg := serviceError(err, fallback)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	fail(c, status, code, msg)
}
