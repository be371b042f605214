// Admin authentication endpoints.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sockheadrps/pycourse/internal/http/middleware"
)

// LoginRequest carries the shared admin password.
type LoginRequest struct {
	Password string `json:"password" binding:"required" example:"s3cret"`
}

// LoginResponse returns the bearer token of a new session.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VerifyResponse confirms that the presented token is live.
type VerifyResponse struct {
	Valid bool `json:"valid"`
}

// Login godoc
// @ID          login
// @Summary     Start an admin session
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
// @Success     200  {object}  handlers.LoginResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /api/auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "password required")
		return
	}
	sess, err := h.auth.Login(c.Request.Context(), req.Password)
	if err != nil {
		failService(c, err, "login failed")
		return
	}
	ok(c, http.StatusOK, LoginResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt})
}

// Verify godoc
// @ID          verifySession
// @Summary     Check the current session
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.VerifyResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /api/auth/verify [get]
func (h *Handlers) Verify(c *gin.Context) {
	// RequireSession has already rejected anything invalid.
	ok(c, http.StatusOK, VerifyResponse{Valid: true})
}

// Logout godoc
// @ID          logout
// @Summary     End the current session
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.StatusResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /api/auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	h.auth.Logout(middleware.SessionToken(c))
	success(c, "logged out")
}
