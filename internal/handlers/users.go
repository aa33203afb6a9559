package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/blogposts/backend/internal/models"
	"github.com/emilythestrangee/blogposts/backend/internal/services"
)

type UserHandler struct {
	users *services.UserService
	posts *services.PostService
	votes *services.VoteService
}

func NewUserHandler(users *services.UserService, posts *services.PostService, votes *services.VoteService) *UserHandler {
	return &UserHandler{users: users, posts: posts, votes: votes}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) SearchUsers(c *gin.Context) {
	users, err := h.users.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// GetUser returns a user's public profile
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c, services.ErrUserNotFound)
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetUserPosts returns all posts by a specific user, optionally filtered by ?q=
func (h *UserHandler) GetUserPosts(c *gin.Context) {
	id, ok := pathID(c, services.ErrUserNotFound)
	if !ok {
		return
	}

	posts, err := h.posts.ListByAuthor(c.Request.Context(), id, c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}

	decorated, err := h.votes.Decorate(c.Request.Context(), posts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, decorated)
}

// UpdateMe applies a partial update to the caller's own profile
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input models.UserUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Update(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser removes an account. Users may only delete themselves.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, ok := pathID(c, services.ErrUserNotFound)
	if !ok {
		return
	}

	if _, err := h.users.Get(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	if id != userID {
		respondError(c, services.ErrAccountForbidden)
		return
	}

	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
