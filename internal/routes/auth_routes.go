package routes

import (
	"github.com/gin-gonic/gin"

	"camion_tracker/internal/controllers"
	"camion_tracker/internal/middleware"
)

func AuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", controllers.Login)
		auth.POST("/register", middleware.OptionalAuth(), controllers.Register)
	}

	account := r.Group("/auth")
	account.Use(middleware.RequireAuth())
	{
		account.PUT("/change-password", controllers.ChangePassword)
		account.GET("/me", controllers.Me)
	}
}
