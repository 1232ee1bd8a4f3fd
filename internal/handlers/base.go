package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"agora/internal/middleware"
	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(c *gin.Context, code int, data any) {
	c.JSON(code, Envelope{Success: true, Data: data})
}

// fail writes the error envelope. Errors outside the service taxonomy are
// logged and reported as a bare 500.
func fail(c *gin.Context, logger *slog.Logger, err error) {
	code := statusFor(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		logger.Error("request failed",
			"event", "http_internal_error",
			"module", "internal/handlers",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err.Error(),
		)
		message = "internal error"
	}
	c.AbortWithStatusJSON(code, Envelope{Success: false, Error: message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusForbidden
	case errors.Is(err, services.ErrMissingFields),
		errors.Is(err, services.ErrMissingPostID),
		errors.Is(err, services.ErrEmptyPatch):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrPostNotFound),
		errors.Is(err, services.ErrCommentNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, services.ErrNotImplemented):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// actor builds the per-request actor from whatever the identity gate found.
func actor(c *gin.Context) *services.Actor {
	return services.NewActor(middleware.CurrentIdentity(c))
}

// bind decodes the JSON body into dst. A malformed body counts as an empty
// one so the presence checks downstream report it.
func bind[T any](c *gin.Context) T {
	var dst T
	if err := c.ShouldBindJSON(&dst); err != nil {
		var zero T
		return zero
	}
	return dst
}
