package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"roadtrack/internal/apperr"
	"roadtrack/internal/middleware"
	"roadtrack/internal/services"
)

// ReportController serves the public citizen report endpoints.
type ReportController struct {
	reports *services.ReportService
}

func NewReportController(reports *services.ReportService) *ReportController {
	return &ReportController{reports: reports}
}

// ListReports returns one page of reports, optionally for a single project.
func (rc *ReportController) ListReports(c *gin.Context) {
	var projectID uint64
	if raw := c.Query("project_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			middleware.RespondError(c, apperr.Validation("invalid project_id"))
			return
		}
		projectID = id
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	pageSize, err := queryInt(c, "page_size", rc.reports.DefaultPageSize())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	result, err := rc.reports.List(c.Request.Context(), services.ReportListParams{
		ProjectID: uint(projectID),
		Page:      page,
		PageSize:  pageSize,
		Status:    c.Query("status"),
		IssueType: c.Query("issue_type"),
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SubmitReport files a citizen report against a project.
func (rc *ReportController) SubmitReport(c *gin.Context) {
	var input services.SubmitReportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middleware.RespondError(c, apperr.Validation("Invalid input: "+err.Error()))
		return
	}
	report, err := rc.reports.Submit(c.Request.Context(), input)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}
