package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/relateos/internal/auth"
)

const (
	// UserIDKey is the gin context key for the authenticated user ID.
	UserIDKey = "user_id"
	// EmailKey is the gin context key for the authenticated user's email.
	EmailKey = "email"
	// NameKey is the gin context key for the authenticated user's display name.
	NameKey = "name"
)

// GetUserID extracts the user ID from the gin context.
// Returns empty string if not found.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// GetEmail extracts the user email from the gin context.
func GetEmail(c *gin.Context) string {
	return c.GetString(EmailKey)
}

// bearerToken returns the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", auth.ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", auth.ErrInvalidToken
	}
	return parts[1], nil
}

// RequireAuth validates the bearer JWT and stores the caller's identity in
// the gin context. Requests without a valid token get 401.
func RequireAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		claims, err := jwtManager.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)
		c.Set(NameKey, claims.Name)
		c.Next()
	}
}

// IdentityFromRequest resolves the user of a relay upgrade request.
// Browsers cannot set headers on WebSocket upgrades, so the token query
// parameter is checked first, then the Authorization header.
func IdentityFromRequest(jwtManager *auth.JWTManager) func(*http.Request) (string, error) {
	return func(r *http.Request) (string, error) {
		token := r.URL.Query().Get("token")
		if token == "" {
			var err error
			token, err = bearerToken(r.Header.Get("Authorization"))
			if err != nil {
				return "", err
			}
		}

		claims, err := jwtManager.Validate(token)
		if err != nil {
			return "", err
		}
		return claims.UserID, nil
	}
}
