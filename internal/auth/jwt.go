package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Context keys set by JWTMiddleware
const (
	AdminIDKey    = "admin_id"
	AdminEmailKey = "admin_email"
	AdminRoleKey  = "admin_role"
)

// Cookie and header names shared with the handlers
const (
	AuthCookie = "auth_token"
	CSRFCookie = "csrf_token"
	CSRFHeader = "X-CSRF-Token"
)

const defaultTokenTTL = 12 * time.Hour

// Claims represents JWT claims
type Claims struct {
	AdminID uuid.UUID `json:"admin_id"`
	Email   string    `json:"email"`
	Role    string    `json:"role"`
	jwt.RegisteredClaims
}

// JWTService handles JWT token operations
type JWTService struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewJWTService creates a new JWT service
func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		ttl:    defaultTokenTTL,
		issuer: "guest-risk-scorer",
	}
}

// WithTTL returns a copy of the service issuing tokens with a different lifetime
func (j *JWTService) WithTTL(ttl time.Duration) *JWTService {
	clone := *j
	clone.ttl = ttl
	return &clone
}

// GenerateToken signs a token for the given claims
func (j *JWTService) GenerateToken(claims Claims) (string, time.Time, error) {
	if len(j.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("jwt secret is not configured")
	}

	now := time.Now()
	expiresAt := now.Add(j.ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    j.issuer,
		Subject:   claims.AdminID.String(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ValidateToken validates a JWT token and returns claims
func (j *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	if len(j.secret) == 0 {
		return nil, fmt.Errorf("jwt secret is not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithIssuer(j.issuer))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// JWTMiddleware validates the token from the auth cookie or a Bearer header
func JWTMiddleware(service *JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(AuthCookie)
		if err != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
				return
			}

			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
				return
			}
		}

		claims, err := service.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(AdminIDKey, claims.AdminID)
		c.Set(AdminEmailKey, claims.Email)
		c.Set(AdminRoleKey, claims.Role)
		c.Next()
	}
}

// RequireRole rejects authenticated callers without the given role
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(AdminRoleKey) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

// CSRFMiddleware requires the csrf cookie to match the X-CSRF-Token header on
// state-changing requests. Bearer-authenticated calls carry no cookies and skip the check.
func CSRFMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if _, err := c.Cookie(AuthCookie); err != nil && strings.HasPrefix(c.GetHeader("Authorization"), "Bearer ") {
			c.Next()
			return
		}

		csrfCookie, err := c.Cookie(CSRFCookie)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "CSRF token required in cookie"})
			return
		}

		csrfHeader := c.GetHeader(CSRFHeader)
		if csrfHeader == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "CSRF token required in X-CSRF-Token header"})
			return
		}

		if csrfCookie != csrfHeader {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "CSRF token mismatch"})
			return
		}

		c.Next()
	}
}
