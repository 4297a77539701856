package routes

import (
	"github.com/gin-gonic/gin"

	"roadtrack/internal/controllers"
)

func ReportRoutes(api *gin.RouterGroup, rc *controllers.ReportController) {
	reports := api.Group("/reports")
	{
		reports.GET("", rc.ListReports)
		reports.POST("", rc.SubmitReport)
	}
}
