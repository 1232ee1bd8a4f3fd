package router

import (
	"log/slog"
	"time"

	"agora/internal/auth"
	_ "agora/internal/docs"
	"agora/internal/handlers"
	"agora/internal/middleware"
	"agora/internal/services"
	"agora/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Dependencies struct {
	Services    *services.Services
	Tokens      *auth.TokenManager
	Store       store.Store
	Logger      *slog.Logger
	CORSOrigins []string
	Swagger     bool
}

// New builds the engine with middleware and every route registered.
func New(deps Dependencies) *gin.Engine {
	logger := services.ResolveLogger(deps.Logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.New(corsConfig(deps.CORSOrigins)))
	r.Use(middleware.LoadIdentity(deps.Tokens))

	RegisterRoutes(r, deps, logger)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

func RegisterRoutes(r *gin.Engine, deps Dependencies, logger *slog.Logger) {
	// Handlers
	userHandler := handlers.NewUserHandler(deps.Services.Users, logger)
	postHandler := handlers.NewPostHandler(deps.Services.Posts, logger)
	commentHandler := handlers.NewCommentHandler(deps.Services.Comments, logger)
	healthHandler := handlers.NewHealthHandler(deps.Store, logger)

	r.GET("/healthz", healthHandler.Check) // liveness and database ping
	if deps.Swagger {
		r.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))))
	}

	// users
	users := r.Group("/users")
	{
		users.POST("", userHandler.Register)     // register
		users.POST("/login", userHandler.Login)  // login
		users.GET("", userHandler.List)          // admin only
		users.GET("/:id", userHandler.Get)       // public profile
		users.PUT("/:id", userHandler.Update)    // not implemented
		users.DELETE("/:id", userHandler.Delete) // self or admin
	}

	// posts
	posts := r.Group("/posts")
	{
		posts.GET("", postHandler.List)                  // full listing
		posts.GET("/light", postHandler.ListLight)       // no content, no comment ids
		posts.POST("", postHandler.Create)               // create
		posts.GET("/:id", postHandler.Get)               // detail
		posts.PUT("/:id", postHandler.Update)            // owner or admin
		posts.DELETE("/:id", postHandler.Delete)         // cascades to comments
		posts.PUT("/upvote/:id", postHandler.Upvote)     // +1
		posts.PUT("/downvote/:id", postHandler.Downvote) // -1
	}

	// comments
	comments := r.Group("/comments")
	{
		comments.GET("", commentHandler.List)          // full listing
		comments.POST("", commentHandler.Create)       // returns the parent post
		comments.GET("/:id", commentHandler.Get)       // detail
		comments.PUT("/:id", commentHandler.Update)    // owner or admin
		comments.DELETE("/:id", commentHandler.Delete) // owner or admin
	}
}
