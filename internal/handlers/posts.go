package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/blogposts/backend/internal/models"
	"github.com/emilythestrangee/blogposts/backend/internal/monitoring"
	"github.com/emilythestrangee/blogposts/backend/internal/services"
)

type PostHandler struct {
	posts *services.PostService
	votes *services.VoteService
}

func NewPostHandler(posts *services.PostService, votes *services.VoteService) *PostHandler {
	return &PostHandler{posts: posts, votes: votes}
}

func (h *PostHandler) GetPosts(c *gin.Context) {
	posts, err := h.posts.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondList(c, posts)
}

func (h *PostHandler) SearchPosts(c *gin.Context) {
	posts, err := h.posts.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondList(c, posts)
}

// GetPost returns a single post by ID
func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := pathID(c, services.ErrPostNotFound)
	if !ok {
		return
	}

	post, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondOne(c, post)
}

// CreatePost creates a new post (PROTECTED - requires authentication)
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input models.PostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.posts.Create(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	monitoring.PostsCreated.Inc()
	h.respondOne(c, post)
}

// UpdatePost updates an existing post (PROTECTED - requires ownership)
func (h *PostHandler) UpdatePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, ok := pathID(c, services.ErrPostNotFound)
	if !ok {
		return
	}

	var input models.PostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.posts.Update(c.Request.Context(), id, userID, input)
	if err != nil {
		respondError(c, err)
		return
	}

	h.respondOne(c, post)
}

// DeletePost deletes a post (PROTECTED - requires ownership)
func (h *PostHandler) DeletePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, ok := pathID(c, services.ErrPostNotFound)
	if !ok {
		return
	}

	if err := h.posts.Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// VotePost records an upvote or downvote (PROTECTED - requires authentication).
// The vote comes from ?vote= when present, otherwise from the JSON body.
func (h *PostHandler) VotePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, ok := pathID(c, services.ErrPostNotFound)
	if !ok {
		return
	}

	voteType := models.VoteType(c.Query("vote"))
	if voteType == "" {
		var input models.VoteRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, services.ErrInvalidVote)
			return
		}
		voteType = input.Vote
	}

	counts, _, err := h.votes.Cast(c.Request.Context(), id, userID, voteType)
	if err != nil {
		respondError(c, err)
		return
	}

	post, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PostWithVotes{Post: *post, VoteCount: counts})
}

// GetVotes returns the post's current tally
func (h *PostHandler) GetVotes(c *gin.Context) {
	id, ok := pathID(c, services.ErrPostNotFound)
	if !ok {
		return
	}

	counts, err := h.votes.CountsForPost(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, counts)
}

// GetMyVote returns the caller's vote on the post, or null
func (h *PostHandler) GetMyVote(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, ok := pathID(c, services.ErrPostNotFound)
	if !ok {
		return
	}

	vote, err := h.votes.VoteOf(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if vote == nil {
		c.JSON(http.StatusOK, gin.H{"vote": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vote": vote.VoteType})
}

func (h *PostHandler) respondOne(c *gin.Context, post *models.Post) {
	decorated, err := h.votes.DecorateOne(c.Request.Context(), post)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, decorated)
}

func (h *PostHandler) respondList(c *gin.Context, posts []models.Post) {
	decorated, err := h.votes.Decorate(c.Request.Context(), posts)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, decorated)
}
