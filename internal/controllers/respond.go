package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"camion_tracker/internal/config"
	"camion_tracker/internal/middleware"
)

// now is the clock used for entry dates and timestamps.
var now = func() time.Time {
	return time.Now().In(config.App.Location)
}

func today() string {
	return now().Format("2006-01-02")
}

// badRequest answers 400 with a user-facing message and, when present, the cause.
func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"message": message}
	if err != nil {
		body["error"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, gin.H{"message": message})
}

// serverError logs err with the request id and answers a generic 500.
func serverError(c *gin.Context, what string, err error) {
	middleware.Log(c).WithError(err).Error(what)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Erreur serveur", "error": err.Error()})
}

var errInvalidID = errors.New("identifiant invalide")

// paramID parses the :id route parameter.
func paramID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidID
	}
	return uint(id), nil
}
