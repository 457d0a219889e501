package routes

import (
	"github.com/gin-gonic/gin"

	"camion_tracker/internal/controllers"
	"camion_tracker/internal/middleware"
)

func TruckRoutes(r *gin.Engine) {
	trucks := r.Group("/camions")
	trucks.Use(middleware.OptionalAuth())
	{
		trucks.POST("/entree", controllers.RegisterEntry)
		trucks.GET("", controllers.ListTrucks)
		trucks.GET("/historique", controllers.TruckHistory)
		trucks.PUT("/charger/:id", controllers.LoadTruck)
		trucks.PUT("/valider-chargement", controllers.ValidateLoading)
		trucks.PUT("/sortie/:id", controllers.RegisterExit)

		trucks.GET("/stats", controllers.TruckStats)
		trucks.GET("/stats-journalieres", controllers.DailyStats)
		trucks.GET("/stats-mensuelles", controllers.MonthlyStats)
		trucks.GET("/stats-annuelles", controllers.YearlyStats)
		trucks.GET("/stats-completes", controllers.CompleteStats)

		trucks.GET("/statuts/:id", controllers.TruckStatusHistory)
		trucks.GET("/cycle", controllers.Lifecycle)
	}
}
