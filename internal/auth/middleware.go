package auth

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/wired-social/auth-service/internal/config"
)

const (
	// accountIDKey is the gin context key holding the authenticated account id.
	accountIDKey = "auth.account_id"
	// usernameKey is the gin context key holding the authenticated username.
	usernameKey = "auth.username"
)

type Middleware struct {
	config *config.AuthConfig
}

func NewMiddleware(config *config.AuthConfig) *Middleware {
	return &Middleware{
		config: config,
	}
}

// RequireAuth rejects requests without a valid bearer token and stores
// the token's identity on the request context.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": CodeInvalidCredentials})
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": CodeInvalidCredentials})
			return
		}

		claims, err := validateToken(token, m.config.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": CodeInvalidCredentials})
			return
		}

		accountID, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": CodeInvalidCredentials})
			return
		}

		c.Set(accountIDKey, uint(accountID))
		c.Set(usernameKey, claims.Username)
		c.Next()
	}
}

// AccountIDFromContext returns the authenticated account id, if any.
func AccountIDFromContext(c *gin.Context) (uint, bool) {
	v, exists := c.Get(accountIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// UsernameFromContext returns the authenticated username, if any.
func UsernameFromContext(c *gin.Context) (string, bool) {
	v, exists := c.Get(usernameKey)
	if !exists {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}

func validateToken(tokenString string, secretKey string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}
