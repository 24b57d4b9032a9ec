package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/campus-hub/helpdesk-service/internal/models"
	"github.com/campus-hub/helpdesk-service/internal/repositories"
)

// JWTAuthMiddleware authenticates requests with HMAC-signed bearer tokens.
// The token carries only the user name; roles are always re-read from the
// store so a grant or mute takes effect without re-login.
type JWTAuthMiddleware struct {
	secret   []byte
	issuer   string
	tokenTTL time.Duration
	userRepo repositories.UserRepository
}

type tokenClaims struct {
	jwt.RegisteredClaims
}

func NewJWTAuthMiddleware(secret, issuer string, tokenTTL time.Duration, userRepo repositories.UserRepository) *JWTAuthMiddleware {
	return &JWTAuthMiddleware{
		secret:   []byte(secret),
		issuer:   issuer,
		tokenTTL: tokenTTL,
		userRepo: userRepo,
	}
}

// IssueToken creates a signed token for the user.
func (m *JWTAuthMiddleware) IssueToken(userName string) (string, time.Time, error) {
	expiresAt := time.Now().Add(m.tokenTTL)
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userName,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// AuthMiddleware validates the bearer token and loads the user's current
// role set into the context.
func (m *JWTAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userName, ok := m.parseBearer(c)
		if !ok {
			return
		}

		roles, err := m.userRepo.GetRoleSet(c.Request.Context(), nil, userName)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "unknown user",
			})
			c.Abort()
			return
		}

		c.Set("user_name", userName)
		c.Set("user_roles", roles)
		c.Next()
	}
}

// OptionalAuthMiddleware loads user identity when a valid token is present
// and continues anonymously otherwise. Public listings use it: the same
// endpoint serves both slices depending on who asks.
func (m *JWTAuthMiddleware) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		token, ok := splitBearer(authHeader)
		if !ok {
			c.Next()
			return
		}
		userName, err := m.parseToken(token)
		if err != nil {
			c.Next()
			return
		}

		if roles, err := m.userRepo.GetRoleSet(c.Request.Context(), nil, userName); err == nil {
			c.Set("user_name", userName)
			c.Set("user_roles", roles)
		}
		c.Next()
	}
}

// RequireRoleMiddleware aborts with 403 unless the user holds one of the
// given roles. Admin always passes.
func (m *JWTAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRoles, exists := c.Get("user_roles")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "user roles not found in context",
			})
			c.Abort()
			return
		}

		roles, ok := userRoles.(models.RoleSet)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "invalid role format in context",
			})
			c.Abort()
			return
		}

		hasRequiredRole := roles.IsAdmin()
		for _, required := range requiredRoles {
			if roles.Has(required) {
				hasRequiredRole = true
				break
			}
		}

		if !hasRequiredRole {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (m *JWTAuthMiddleware) parseBearer(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "authorization header missing",
		})
		c.Abort()
		return "", false
	}

	token, ok := splitBearer(authHeader)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "invalid authorization header format",
		})
		c.Abort()
		return "", false
	}

	userName, err := m.parseToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": fmt.Sprintf("invalid token: %v", err),
		})
		c.Abort()
		return "", false
	}
	return userName, true
}

func (m *JWTAuthMiddleware) parseToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("invalid token claims")
	}
	return claims.Subject, nil
}

func splitBearer(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	return parts[1], true
}
