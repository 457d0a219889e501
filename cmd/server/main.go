package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"

	"camion_tracker/internal/config"
	"camion_tracker/internal/logger"
	"camion_tracker/internal/middleware"
	"camion_tracker/internal/routes"
	"camion_tracker/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	// Initialize structured logging to file
	logger.Setup(cfg.LogFile, cfg.LogLevel, cfg.GinMode != gin.ReleaseMode)
	gin.SetMode(cfg.GinMode)

	// Connect to the database
	config.InitDB()
	ensureAdmin(cfg)

	r := routes.SetupRouter()

	// Wrap with CORS
	handler := middleware.EnableCORS(r, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.Infof("Server running at :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("forced shutdown")
	}
}

// ensureAdmin bootstraps a fresh database with the configured admin account.
func ensureAdmin(cfg *config.AppConfig) {
	ok, err := seed.HasAdmin(config.DB)
	if err != nil {
		logrus.Fatalf("failed to look up admin accounts: %v", err)
	}
	if ok {
		return
	}
	admin := seed.Admin{Name: cfg.AdminName, Email: cfg.AdminEmail, Password: cfg.AdminPassword}
	if _, _, err := seed.EnsureAdmin(config.DB, admin); err != nil {
		logrus.Fatalf("failed to create admin account: %v", err)
	}
	logrus.WithField("email", cfg.AdminEmail).Warn("No admin account found, created the default one. Change its password.")
}
