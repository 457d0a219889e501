package config

import (
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	logrus "github.com/sirupsen/logrus"
)

// AppConfig holds the process-wide settings read from the environment.
type AppConfig struct {
	Port          string
	GinMode       string
	JWTSecret     string
	JWTExpiration time.Duration
	// Location decides which calendar day a truck entry belongs to.
	Location *time.Location
	LogFile  string
	LogLevel string
	// CORSOrigins restricts the reflected origins; empty accepts any.
	CORSOrigins   []string
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

const defaultJWTSecret = "supersecret"

// App is the globally accessible configuration. It starts with defaults so
// packages can be used before Load runs (tests, tooling).
var App = defaults()

func defaults() *AppConfig {
	return &AppConfig{
		Port:          "8080",
		GinMode:       "debug",
		JWTSecret:     defaultJWTSecret,
		JWTExpiration: 24 * time.Hour,
		Location:      time.UTC,
		LogFile:       "./logs/app.log",
		LogLevel:      "info",
		AdminName:     "Administrateur Principal",
		AdminEmail:    "admin@carriere.com",
		AdminPassword: "admin123",
	}
}

// Load reads .env (if present) and the environment into App.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found – relying on env vars")
	}

	cfg := defaults()
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.GinMode = getEnv("GIN_MODE", cfg.GinMode)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	if origins := getEnv("CORS_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}
	cfg.AdminName = getEnv("ADMIN_NAME", cfg.AdminName)
	cfg.AdminEmail = getEnv("ADMIN_EMAIL", cfg.AdminEmail)
	cfg.AdminPassword = getEnv("ADMIN_PASSWORD", cfg.AdminPassword)

	expiration, err := time.ParseDuration(getEnv("JWT_EXPIRATION", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION: %w", err)
	}
	cfg.JWTExpiration = expiration

	loc, err := time.LoadLocation(getEnv("APP_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.JWTSecret == defaultJWTSecret {
		logrus.Warn("JWT_SECRET not set, using the built-in development secret")
	}

	App = cfg
	return cfg, nil
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists && v != "" {
		return v
	}
	return defaultValue
}
