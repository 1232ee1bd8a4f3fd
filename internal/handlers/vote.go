package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Upvote godoc
// @Summary Add one to a post's rating
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post id"
// @Success 200 {object} Envelope
// @Failure 401 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /posts/upvote/{id} [put]
func (h *PostHandler) Upvote(c *gin.Context) {
	rating, err := h.posts.Upvote(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, rating)
}

// Downvote godoc
// @Summary Subtract one from a post's rating
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post id"
// @Success 200 {object} Envelope
// @Failure 401 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /posts/downvote/{id} [put]
func (h *PostHandler) Downvote(c *gin.Context) {
	rating, err := h.posts.Downvote(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, rating)
}
