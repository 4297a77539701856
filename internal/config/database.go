package config

import (
	"fmt"
	"time"

	_ "github.com/lib/pq" // registers the "postgres" database/sql driver
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"roadtrack/internal/models"
)

// OpenDB connects to Postgres through lib/pq and migrates the schema.
// PostGIS is enabled when available so segment geometry can be indexed later.
func OpenDB(cfg DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	gormLog := gormlogger.New(log, gormlogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})

	db, err := gorm.Open(postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        cfg.DSN(),
	}), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS postgis;").Error; err != nil {
		log.WithError(err).Warn("postgis extension unavailable, continuing without it")
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Firm{},
		&models.Minister{},
		&models.Official{},
		&models.Project{},
		&models.RoadSegment{},
		&models.PublicReport{},
		&models.Disbursement{},
		&models.Document{},
	)
	if err != nil {
		return nil, fmt.Errorf("auto-migration failed: %w", err)
	}
	return db, nil
}
