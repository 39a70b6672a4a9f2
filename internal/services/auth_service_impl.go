package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/ajharbinger/guest-risk-scorer/internal/auth"
	"github.com/ajharbinger/guest-risk-scorer/internal/errors"
	"github.com/ajharbinger/guest-risk-scorer/internal/models"
	"github.com/ajharbinger/guest-risk-scorer/pkg/config"
)

// LoginResponse represents the response from login
type LoginResponse struct {
	Token     string       `json:"token"`
	CSRFToken string       `json:"csrf_token"`
	Admin     models.Admin `json:"admin"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// authServiceImpl implements AuthService against the single configured admin
type authServiceImpl struct {
	jwtService *auth.JWTService
	cfg        *config.Config
}

// newAuthService creates a new auth service implementation
func newAuthService(cfg *config.Config) AuthService {
	return &authServiceImpl{
		jwtService: auth.NewJWTService(cfg.JWTSecret),
		cfg:        cfg,
	}
}

// Login checks the admin credentials and issues a token
func (s *authServiceImpl) Login(email, password string) (*LoginResponse, error) {
	if !s.cfg.HasAdminCredentials() {
		return nil, errors.Forbidden("Admin login is not configured", nil)
	}

	if !strings.EqualFold(strings.TrimSpace(email), s.cfg.AdminEmail) ||
		!auth.CheckPassword(password, s.cfg.AdminPasswordHash) {
		return nil, errors.Unauthorized("Invalid credentials", nil)
	}

	admin := models.Admin{
		ID:    models.AdminID(s.cfg.AdminEmail),
		Email: s.cfg.AdminEmail,
		Role:  string(models.RoleAdmin),
	}

	token, expiresAt, err := s.jwtService.GenerateToken(auth.Claims{
		AdminID: admin.ID,
		Email:   admin.Email,
		Role:    admin.Role,
	})
	if err != nil {
		return nil, errors.InternalError("failed to generate token", err)
	}

	csrfToken, err := auth.GenerateCSRFToken()
	if err != nil {
		return nil, errors.InternalError("failed to generate CSRF token", err)
	}

	return &LoginResponse{
		Token:     token,
		CSRFToken: csrfToken,
		Admin:     admin,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken validates a token and returns the admin it was issued to
func (s *authServiceImpl) ValidateToken(token string) (*models.Admin, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, errors.Unauthorized("Invalid token", fmt.Errorf("invalid token: %w", err))
	}
	if !strings.EqualFold(claims.Email, s.cfg.AdminEmail) {
		return nil, errors.Unauthorized("Token no longer matches the configured admin", nil)
	}

	return &models.Admin{
		ID:    claims.AdminID,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}
