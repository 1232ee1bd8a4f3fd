package handlers

import (
	"log/slog"
	"net/http"

	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.CommentService
	logger   *slog.Logger
}

func NewCommentHandler(comments *services.CommentService, logger *slog.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: services.ResolveLogger(logger)}
}

type commentRequest struct {
	PostID  string `json:"post_id"`
	Content string `json:"content"`
}

// List godoc
// @Summary List comments
// @Tags comments
// @Produce json
// @Success 200 {object} Envelope
// @Router /comments [get]
func (h *CommentHandler) List(c *gin.Context) {
	comments, err := h.comments.List(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, comments)
}

// Create godoc
// @Summary Comment on a post; responds with the updated post
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body commentRequest true "Comment"
// @Success 201 {object} Envelope
// @Failure 400 {object} Envelope
// @Failure 401 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /comments [post]
func (h *CommentHandler) Create(c *gin.Context) {
	req := bind[commentRequest](c)
	post, err := h.comments.Create(c.Request.Context(), actor(c), req.PostID, req.Content)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusCreated, post)
}

// Get godoc
// @Summary Fetch a comment
// @Tags comments
// @Produce json
// @Param id path string true "Comment id"
// @Success 200 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /comments/{id} [get]
func (h *CommentHandler) Get(c *gin.Context) {
	comment, err := h.comments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, comment)
}

// Update godoc
// @Summary Edit a comment (owner or admin)
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Comment id"
// @Param body body commentRequest true "New content"
// @Success 200 {object} Envelope
// @Failure 400 {object} Envelope
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /comments/{id} [put]
func (h *CommentHandler) Update(c *gin.Context) {
	req := bind[commentRequest](c)
	comment, err := h.comments.Update(c.Request.Context(), actor(c), c.Param("id"), req.Content)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, comment)
}

// Delete godoc
// @Summary Delete a comment (owner or admin)
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Comment id"
// @Success 200 {object} Envelope
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /comments/{id} [delete]
func (h *CommentHandler) Delete(c *gin.Context) {
	comment, err := h.comments.Delete(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, comment)
}
