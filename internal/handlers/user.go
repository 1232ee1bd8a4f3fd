package handlers

import (
	"log/slog"
	"net/http"

	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users  *services.UserService
	logger *slog.Logger
}

func NewUserHandler(users *services.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: services.ResolveLogger(logger)}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register godoc
// @Summary Register a new user
// @Tags users
// @Accept json
// @Produce json
// @Param body body registerRequest true "Registration"
// @Success 201 {object} Envelope
// @Failure 400 {object} Envelope
// @Failure 409 {object} Envelope
// @Router /users [post]
func (h *UserHandler) Register(c *gin.Context) {
	req := bind[registerRequest](c)
	res, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusCreated, res)
}

// Login godoc
// @Summary Exchange credentials for a token
// @Tags users
// @Accept json
// @Produce json
// @Param body body loginRequest true "Credentials"
// @Success 200 {object} Envelope
// @Failure 403 {object} Envelope
// @Router /users/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	req := bind[loginRequest](c)
	res, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// List godoc
// @Summary List all users (admin)
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Envelope
// @Failure 401 {object} Envelope
// @Failure 403 {object} Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, users)
}

// Get godoc
// @Summary Public user profile
// @Tags users
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, user)
}

// Update godoc
// @Summary Update a user (not supported yet)
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User id"
// @Failure 501 {object} Envelope
// @Router /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	if err := h.users.Update(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

// Delete godoc
// @Summary Delete a user (self or admin)
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User id"
// @Success 200 {object} Envelope
// @Failure 403 {object} Envelope
// @Failure 404 {object} Envelope
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.users.Delete(c.Request.Context(), actor(c), id); err != nil {
		fail(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"_id": id})
}
