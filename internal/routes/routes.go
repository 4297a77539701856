package routes

import (
	"io"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"roadtrack/internal/auth"
	"roadtrack/internal/controllers"
	"roadtrack/internal/middleware"
	"roadtrack/internal/services"
)

const apiPrefix = "/api/v1"

// Deps are the services the router dispatches to.
type Deps struct {
	Auth     *auth.Service
	Projects *services.ProjectService
	Reports  *services.ReportService
	Admin    *services.AdminService
	Health   *controllers.HealthController

	// AccessLog receives one line per request. Nil disables access logging.
	AccessLog io.Writer
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()

	errOut := d.AccessLog
	if errOut == nil {
		errOut = io.Discard
	}
	r.Use(middleware.Recovery(errOut))
	r.Use(middleware.RequestID())
	r.Use(middleware.ProcessTime())
	if d.AccessLog != nil {
		r.Use(ginlog.SetLogger(
			ginlog.WithWriter(d.AccessLog),
			ginlog.WithUTC(true),
			ginlog.WithSkipPath([]string{"/health"}),
		))
	}
	r.Use(middleware.LoadUser(d.Auth))

	r.GET("/", d.Health.Root)
	r.GET("/health", d.Health.Health)

	api := r.Group(apiPrefix)
	ProjectRoutes(api, controllers.NewProjectController(d.Projects))
	ReportRoutes(api, controllers.NewReportController(d.Reports))
	AuthRoutes(api, controllers.NewAuthController(d.Auth, d.Admin))
	AdminRoutes(api, controllers.NewAdminProjectController(d.Admin))

	return r
}
