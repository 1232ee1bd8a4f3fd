package config

import (
	"errors"
	"os"
	"strings"
)

// Config is everything the server reads from the environment.
type Config struct {
	DatabaseURL string
	TokenSecret string
	Port        string
	CORSOrigins []string
	LogLevel    string
	LogFormat   string
	// SwaggerEnabled controls the /swagger/*any route.
	SwaggerEnabled bool
}

var ErrMissingSecret = errors.New("ACCESS_TOKEN_SECRET is required")

func Load() (Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		// older deployments
		dbURL = os.Getenv("CONNECTION_LINK")
	}
	if dbURL == "" {
		dbURL = "sqlite://agora.db"
	}

	secret := os.Getenv("ACCESS_TOKEN_SECRET")
	if secret == "" {
		return Config{}, ErrMissingSecret
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	var origins []string
	for _, value := range strings.Split(os.Getenv("CORS_ORIGIN"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			origins = append(origins, value)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return Config{
		DatabaseURL:    dbURL,
		TokenSecret:    secret,
		Port:           port,
		CORSOrigins:    origins,
		LogLevel:       envString("LOG_LEVEL", "info"),
		LogFormat:      envString("LOG_FORMAT", "text"),
		SwaggerEnabled: envBool("SWAGGER_ENABLED", true),
	}, nil
}

func envString(name, fallback string) string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return strings.ToLower(raw)
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
