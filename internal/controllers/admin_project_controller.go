package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"roadtrack/internal/apperr"
	"roadtrack/internal/middleware"
	"roadtrack/internal/services"
)

type AdminProjectController struct {
	admin *services.AdminService
}

func NewAdminProjectController(admin *services.AdminService) *AdminProjectController {
	return &AdminProjectController{admin: admin}
}

// CreateProject stores a project with GeoJSON LineString segments.
func (ac *AdminProjectController) CreateProject(c *gin.Context) {
	var input services.CreateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.RespondError(c, apperr.Validation("Invalid input: "+err.Error()))
		return
	}
	detail, err := ac.admin.CreateProject(c.Request.Context(), middleware.CurrentUser(c), input)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}
