package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rideshare/internal/domain"
	"rideshare/internal/service"
)

const (
	userContextKey   = "user"
	userIDContextKey = "user_id"
)

// UserResolver turns a bearer token into a user.
type UserResolver interface {
	Resolve(ctx context.Context, token string) (*domain.User, error)
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// Auth rejects requests without a valid bearer token and stores the resolved
// user in the context.
func Auth(resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.Request)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		user, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		SetUser(c, user)
		c.Next()
	}
}

// SetUser stores the authenticated user in the context.
func SetUser(c *gin.Context, user *domain.User) {
	c.Set(userContextKey, user)
	c.Set(userIDContextKey, user.ID)
}

// CurrentUser returns the user stored by Auth, or nil.
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(userContextKey); ok {
		if user, ok := v.(*domain.User); ok {
			return user
		}
	}
	return nil
}
