package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is stamped at build time with -ldflags "-X camion_tracker/internal/controllers.Version=...".
var Version = "dev"

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "camion-tracker",
		"version": Version,
	})
}
