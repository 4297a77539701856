package logger

import (
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	logrus "github.com/sirupsen/logrus"

	"roadtrack/internal/config"
)

// Setup points the standard Logrus logger at a rotating file (and stdout when
// configured) and returns the writer so the HTTP access log can share it.
func Setup(cfg config.LogConfig) io.Writer {
	// 1) Lumberjack for file rotation
	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB, // megabytes
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays, // days
		Compress:   cfg.Compress,
	}

	var out io.Writer = rotator
	if cfg.Stdout {
		out = io.MultiWriter(os.Stdout, rotator)
	}

	// 2) Configure Logrus to write there
	logrus.SetOutput(out)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
		logrus.WithField("level", cfg.Level).Warn("unknown log level, using info")
	}
	logrus.SetLevel(level)
	return out
}

// GormLogger returns the standard Logrus logger for GORM
func GormLogger() *logrus.Logger {
	return logrus.StandardLogger()
}
