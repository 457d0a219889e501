package routes

import (
	"net/http"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"camion_tracker/internal/controllers"
	"camion_tracker/internal/logger"
	"camion_tracker/internal/middleware"
	"camion_tracker/internal/validation"
)

func SetupRouter() *gin.Engine {
	if err := validation.Register(); err != nil {
		panic(err)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(ginlog.SetLogger(
		ginlog.WithWriter(logger.Output()),
		ginlog.WithSkipPath([]string{"/health"}),
	))
	r.Use(gin.Recovery())

	r.GET("/health", controllers.Health)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route non trouvée"})
	})

	AuthRoutes(r)
	TruckRoutes(r)
	AdminRoutes(r)
	WebSocketRoutes(r)

	return r
}
