package routes

import (
	"github.com/gin-gonic/gin"

	"camion_tracker/internal/controllers"
)

// WebSocketRoutes mounts the live feed. It authenticates through the token
// query parameter, not the Authorization header.
func WebSocketRoutes(r *gin.Engine) {
	ws := r.Group("/ws")
	{
		ws.GET("/camions", controllers.HandleYardWebSocket)
	}
}
