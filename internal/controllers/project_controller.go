package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"roadtrack/internal/apperr"
	"roadtrack/internal/middleware"
	"roadtrack/internal/services"
)

// ProjectController serves the public project endpoints.
type ProjectController struct {
	projects *services.ProjectService
}

func NewProjectController(projects *services.ProjectService) *ProjectController {
	return &ProjectController{projects: projects}
}

// SearchProjects returns matching road segments as GeoJSON for the map.
func (pc *ProjectController) SearchProjects(c *gin.Context) {
	fc, err := pc.projects.Search(c.Request.Context(), services.SearchParams{
		Query:    c.Query("q"),
		District: c.Query("district"),
		City:     c.Query("city"),
		State:    c.Query("state"),
		Pincode:  c.Query("pincode"),
		Status:   c.Query("status"),
		RoadType: c.Query("road_type"),
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fc)
}

// GetProject returns one project with its accountability chain.
func (pc *ProjectController) GetProject(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		middleware.RespondError(c, apperr.Validation("invalid project id"))
		return
	}
	detail, err := pc.projects.Detail(c.Request.Context(), uint(id))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation(name + " must be an integer")
	}
	return v, nil
}

// ListProjects returns one page of projects, newest first.
func (pc *ProjectController) ListProjects(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	pageSize, err := queryInt(c, "page_size", pc.projects.DefaultPageSize())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	result, err := pc.projects.List(c.Request.Context(), services.ListParams{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
		RoadType: c.Query("road_type"),
		District: c.Query("district"),
		State:    c.Query("state"),
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetStats returns portfolio-wide aggregates.
func (pc *ProjectController) GetStats(c *gin.Context) {
	stats, err := pc.projects.Stats(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
