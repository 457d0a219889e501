package routes

import (
	"github.com/gin-gonic/gin"

	"camion_tracker/internal/controllers"
	"camion_tracker/internal/middleware"
	"camion_tracker/internal/models"
)

func AdminRoutes(r *gin.Engine) {
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAuthWithRole(models.RoleAdmin))
	{
		admin.GET("/stats-globales", controllers.GlobalStats)
		admin.GET("/camions", controllers.ListTrucksAdmin)
		admin.GET("/paiements", controllers.Payments)
		admin.GET("/rapport-journalier/:date", controllers.DailyReport)
		admin.GET("/stats-detaillees", controllers.DetailedStats)
		admin.GET("/utilisateurs", controllers.ListUsers)
	}
}
