package main

//go:generate swag init -g main.go -d ./,../../internal/handlers -o ../../internal/docs

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agora/internal/auth"
	"agora/internal/config"
	"agora/internal/db"
	"agora/internal/logging"
	"agora/internal/router"
	"agora/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// @title Agora API
// @version 1.0
// @description Users, posts and comments with bearer-token auth.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token.
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	st, err := db.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("database unavailable", "event", "startup_failed", "error", err.Error())
		os.Exit(1)
	}

	tokens := auth.NewTokenManager(cfg.TokenSecret)
	svc := services.New(st, tokens, logger)

	engine := router.New(router.Dependencies{
		Services:    svc,
		Tokens:      tokens,
		Store:       st,
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
		Swagger:     cfg.SwaggerEnabled,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("http server starting", "event", "http_server_starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", "event", "http_server_failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	<-quit
	logger.Info("shutting down server", "event", "http_server_stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "event", "http_server_shutdown_failed", "error", err.Error())
	}
	if err := st.Close(shutdownCtx); err != nil {
		logger.Error("closing store failed", "event", "store_close_failed", "error", err.Error())
	}

	logger.Info("server exiting", "event", "http_server_stopped")
}
