package routes

import (
	"github.com/gin-gonic/gin"

	"roadtrack/internal/controllers"
	"roadtrack/internal/middleware"
	"roadtrack/internal/models"
)

func AuthRoutes(api *gin.RouterGroup, ac *controllers.AuthController) {
	authGroup := api.Group("/admin/auth")
	{
		authGroup.POST("/login", ac.Login)
		authGroup.POST("/register", middleware.RequireRole(models.RoleSuperAdmin), ac.Register)
		authGroup.GET("/me", middleware.RequireAuth(), ac.Me)
	}
}
