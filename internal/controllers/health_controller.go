package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const healthTimeout = 2 * time.Second

// Pinger is anything whose reachability the health check reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

// AppInfo identifies the running service.
type AppInfo struct {
	Name        string
	Version     string
	Environment string
}

type HealthController struct {
	info AppInfo
	deps map[string]Pinger
}

func NewHealthController(info AppInfo, deps map[string]Pinger) *HealthController {
	return &HealthController{info: info, deps: deps}
}

// Health reports the app identity and each dependency's reachability.
func (hc *HealthController) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status, code := "healthy", http.StatusOK
	checks := make(map[string]string, len(hc.deps))
	for name, dep := range hc.deps {
		if err := dep.Ping(ctx); err != nil {
			logrus.WithError(err).WithField("dependency", name).Warn("health check failed")
			checks[name] = "unavailable"
			status, code = "unhealthy", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	c.JSON(code, gin.H{
		"status":      status,
		"app":         hc.info.Name,
		"version":     hc.info.Version,
		"environment": hc.info.Environment,
		"checks":      checks,
	})
}

func (hc *HealthController) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to " + hc.info.Name + " API",
		"version": hc.info.Version,
		"health":  "/health",
	})
}
