package routes

import (
	"github.com/gin-gonic/gin"

	"roadtrack/internal/controllers"
	"roadtrack/internal/middleware"
	"roadtrack/internal/models"
)

func AdminRoutes(api *gin.RouterGroup, apc *controllers.AdminProjectController) {
	admin := api.Group("/admin")
	admin.Use(middleware.RequireRole(models.RoleDataEntry))
	{
		admin.POST("/projects", apc.CreateProject)
	}
}
