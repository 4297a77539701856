package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"roadtrack/internal/auth"
	"roadtrack/internal/cache"
	"roadtrack/internal/config"
	"roadtrack/internal/controllers"
	"roadtrack/internal/logger"
	"roadtrack/internal/middleware"
	"roadtrack/internal/routes"
	"roadtrack/internal/services"
	"roadtrack/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}

	// Structured logging to a rotating file
	logOut := logger.Setup(cfg.Log)
	logrus.WithFields(logrus.Fields{
		"app":         cfg.AppName,
		"version":     cfg.Version,
		"environment": cfg.Environment,
	}).Info("starting")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := map[string]controllers.Pinger{}

	var st store.Store
	switch cfg.Database.Driver {
	case "memory":
		logrus.Warn("using in-memory store, data is lost on restart")
		st = store.NewMemoryStore()
	default:
		db, err := config.OpenDB(cfg.Database, logger.GormLogger())
		if err != nil {
			logrus.WithError(err).Fatal("connect database")
		}
		st = store.NewGormStore(db)
	}
	deps["database"] = st

	var c cache.Cache
	switch cfg.Cache.Backend {
	case "memory":
		c = cache.NewMemoryCache()
	default:
		rc, err := cache.NewRedisCache(cfg.Cache.RedisURL)
		if err != nil {
			logrus.WithError(err).Fatal("configure redis")
		}
		defer rc.Close()
		c = rc
		deps["cache"] = rc
	}

	tokens, err := auth.NewTokenIssuer(cfg.Auth.SecretKey, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL)
	if err != nil {
		logrus.WithError(err).Fatal("configure tokens")
	}

	opts := services.ProjectServiceOptions{
		StatsTTL:        cfg.Cache.DefaultTTL,
		DefaultPageSize: cfg.Pagination.DefaultPageSize,
		MaxPageSize:     cfg.Pagination.MaxPageSize,
	}
	router := routes.SetupRouter(routes.Deps{
		Auth:     auth.NewService(st, tokens),
		Projects: services.NewProjectService(st, c, opts),
		Reports:  services.NewReportService(st, c, opts),
		Admin:    services.NewAdminService(st, c),
		Health: controllers.NewHealthController(controllers.AppInfo{
			Name:        cfg.AppName,
			Version:     cfg.Version,
			Environment: cfg.Environment,
		}, deps),
		AccessLog: logOut,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           middleware.EnableCORS(cfg.HTTP.CORSOrigins, router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logrus.WithField("addr", cfg.HTTP.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
}
