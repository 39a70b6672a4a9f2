package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/guest-risk-scorer/internal/auth"
	"github.com/ajharbinger/guest-risk-scorer/internal/logger"
	"github.com/ajharbinger/guest-risk-scorer/internal/models"
	"github.com/ajharbinger/guest-risk-scorer/internal/services"
)

// AuthHandler handles admin login for the scoring configuration endpoints
type AuthHandler struct {
	authService services.AuthService
	logger      logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService services.AuthService, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      log,
	}
}

// AuthResponse represents an authentication response. The token itself
// travels in the auth cookie; API clients can use it as a Bearer token.
type AuthResponse struct {
	Admin     models.Admin `json:"admin"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	CSRFToken string       `json:"csrf_token"`
}

// setSecureCookie sets a secure HTTP-only cookie
func setSecureCookie(c *gin.Context, name, value string, maxAge int) {
	secure := c.Request.Header.Get("X-Forwarded-Proto") == "https" || c.Request.TLS != nil
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, value, maxAge, "/", "", secure, true)
}

// clearCookie clears a cookie by setting it to empty with past expiration
func clearCookie(c *gin.Context, name string) {
	setSecureCookie(c, name, "", -1)
}

// Login handles admin login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	response, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		h.logger.Warn("Admin login failed", "email", req.Email, "client_ip", c.ClientIP())
		respondError(c, h.logger, err)
		return
	}

	maxAge := int(time.Until(response.ExpiresAt).Seconds())
	setSecureCookie(c, auth.AuthCookie, response.Token, maxAge)
	setSecureCookie(c, auth.CSRFCookie, response.CSRFToken, maxAge)

	h.logger.Info("Admin logged in", "admin_id", response.Admin.ID.String())
	c.JSON(http.StatusOK, AuthResponse{
		Admin:     response.Admin,
		Token:     response.Token,
		ExpiresAt: response.ExpiresAt,
		CSRFToken: response.CSRFToken,
	})
}

// Logout clears the auth cookies
func (h *AuthHandler) Logout(c *gin.Context) {
	clearCookie(c, auth.AuthCookie)
	clearCookie(c, auth.CSRFCookie)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
