package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskhub/internal/auth"
	"taskhub/internal/domain"
	"taskhub/internal/repository"
)

const userContextKey = "taskhub.user"

// authRequired gates a request on a bearer token. It verifies the token,
// confirms the claimed user still exists, and attaches the resolved user to
// the gin context. Every failure path aborts before downstream handlers run:
// missing, malformed or expired tokens and deleted users yield 401, a store
// failure during the existence check yields 500.
func (h *Handler) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token is missing"})
			return
		}

		claims, err := h.tokens.Verify(strings.TrimPrefix(header, auth.Scheme))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token is invalid or expired"})
			return
		}

		user, err := h.users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
				return
			}
			h.logger.WithError(err).Error("auth gate user lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to verify user"})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	user, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	resolved, ok := user.(*domain.User)
	if !ok {
		return nil
	}
	return resolved
}
