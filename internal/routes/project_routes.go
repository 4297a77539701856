package routes

import (
	"github.com/gin-gonic/gin"

	"roadtrack/internal/controllers"
)

func ProjectRoutes(api *gin.RouterGroup, pc *controllers.ProjectController) {
	projects := api.Group("/projects")
	{
		projects.GET("/search", pc.SearchProjects)
		projects.GET("/:id", pc.GetProject)
		projects.GET("", pc.ListProjects)
	}
	api.GET("/stats", pc.GetStats)
}
