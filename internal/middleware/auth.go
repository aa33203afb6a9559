package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/blogposts/backend/internal/auth"
	"github.com/emilythestrangee/blogposts/backend/internal/logger"
	"github.com/emilythestrangee/blogposts/backend/internal/models"
	"github.com/emilythestrangee/blogposts/backend/internal/services"
)

//go:generate mockgen -source=auth.go -destination=mock_authenticator_test.go -package=middleware

const (
	userIDKey = "user_id"
	userKey   = "user"
)

// Authenticator resolves a bearer token to the user it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the resolved user on the gin context.
func AuthMiddleware(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.TokenFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			logger.Log.Infow("authorization failed", "err", err)
			Unauthorized(c, "Not authenticated")
			return
		}

		user, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrUnauthenticated) {
				logger.Log.Infow("authorization failed", "err", err)
				Unauthorized(c, err.Error())
				return
			}
			logger.Log.Errorw("failed to authenticate request", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.Set(userIDKey, user.ID)
		c.Set(userKey, user)
		c.Next()
	}
}

// Unauthorized aborts with 401 and a bearer challenge.
func Unauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

// CurrentUser returns the user stored by AuthMiddleware.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
