package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/blogposts/backend/internal/middleware"
	"github.com/emilythestrangee/blogposts/backend/internal/models"
	"github.com/emilythestrangee/blogposts/backend/internal/monitoring"
	"github.com/emilythestrangee/blogposts/backend/internal/services"
)

type AuthHandler struct {
	users *services.UserService
	authn *services.AuthService
}

func NewAuthHandler(users *services.UserService, authn *services.AuthService) *AuthHandler {
	return &AuthHandler{users: users, authn: authn}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	monitoring.RegisterSuccess.Inc()
	c.JSON(http.StatusOK, user)
}

// Login handles user login. Both JSON and form-encoded credentials are accepted.
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := c.ShouldBind(&input); err != nil {
		monitoring.LoginFailure.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.authn.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		var loginErr *services.LoginError
		if errors.As(err, &loginErr) {
			monitoring.LoginFailure.WithLabelValues(loginErr.Reason).Inc()
		}
		respondError(c, err)
		return
	}

	monitoring.LoginSuccess.Inc()
	c.JSON(http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// GetMe returns the current authenticated user
func (h *AuthHandler) GetMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Unauthorized(c, "Not authenticated")
		return
	}

	c.JSON(http.StatusOK, user)
}
