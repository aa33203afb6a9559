package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/blogposts/backend/internal/logger"
	"github.com/emilythestrangee/blogposts/backend/internal/middleware"
	"github.com/emilythestrangee/blogposts/backend/internal/services"
)

// Handler combines all handler types
type Handler struct {
	Auth *AuthHandler
	Post *PostHandler
	User *UserHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(users *services.UserService, posts *services.PostService, votes *services.VoteService, authn *services.AuthService) *Handler {
	return &Handler{
		Auth: NewAuthHandler(users, authn),
		Post: NewPostHandler(posts, votes),
		User: NewUserHandler(users, posts, votes),
	}
}

// respondError maps service errors onto status codes. Anything unrecognised
// is logged and reported as a 500.
func respondError(c *gin.Context, err error) {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		switch {
		case errors.Is(svcErr, services.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": svcErr.Message})
			return
		case errors.Is(svcErr, services.ErrConflict), errors.Is(svcErr, services.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": svcErr.Message})
			return
		case errors.Is(svcErr, services.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": svcErr.Message})
			return
		case errors.Is(svcErr, services.ErrUnauthenticated):
			middleware.Unauthorized(c, svcErr.Message)
			return
		}
	}

	logger.Log.Errorw("request failed",
		"method", c.Request.Method,
		"route", c.FullPath(),
		"err", err,
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// pathID parses the :id parameter. An id that is not a positive integer
// cannot name any row, so it is reported as notFound.
func pathID(c *gin.Context, notFound *services.Error) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, notFound)
		return 0, false
	}
	return uint(id), true
}

// currentUserID is only called behind AuthMiddleware.
func currentUserID(c *gin.Context) (uint, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		middleware.Unauthorized(c, "Not authenticated")
	}
	return id, ok
}
