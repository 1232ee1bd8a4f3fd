package handlers

import (
	"log/slog"
	"net/http"

	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	posts  *services.PostService
	logger *slog.Logger
}

func NewPostHandler(posts *services.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{posts: posts, logger: services.ResolveLogger(logger)}
}

type postRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// List godoc
// @Summary List posts
// @Tags posts
// @Produce json
// @Success 200 {object} Envelope
// @Router /posts [get]
func (h *PostHandler) List(c *gin.Context) {
	posts, err := h.posts.List(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, posts)
}

// ListLight godoc
// @Summary List posts without content or comment ids
// @Tags posts
// @Produce json
// @Success 200 {object} Envelope
// @Router /posts/light [get]
func (h *PostHandler) ListLight(c *gin.Context) {
	posts, err := h.posts.ListLight(c.Request.Context())
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, posts)
}

// Create godoc
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body postRequest true "Post"
// @Success 201 {object} Envelope
// @Failure 400 {object} Envelope
// @Failure 401 {object} Envelope
// @Router /posts [post]
func (h *PostHandler) Create(c *gin.Context) {
	req := bind[postRequest](c)
	post, err := h.posts.Create(c.Request.Context(), actor(c), services.PostInput{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
	})
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusCreated, post)
}

// Get godoc
// @Summary Fetch a post
// @Tags posts
// @Produce json
// @Param id path string true "Post id"
// @Success 200 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /posts/{id} [get]
func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, post)
}

// Update godoc
// @Summary Update a post (owner or admin)
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post id"
// @Param body body postRequest true "Fields to replace"
// @Success 200 {object} Envelope
// @Failure 400 {object} Envelope
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /posts/{id} [put]
func (h *PostHandler) Update(c *gin.Context) {
	req := bind[postRequest](c)
	post, err := h.posts.Update(c.Request.Context(), actor(c), c.Param("id"), services.PostPatch{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
	})
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, post)
}

// Delete godoc
// @Summary Delete a post and its comments (owner or admin)
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post id"
// @Success 200 {object} Envelope
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /posts/{id} [delete]
func (h *PostHandler) Delete(c *gin.Context) {
	post, err := h.posts.Delete(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, post)
}
