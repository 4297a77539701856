package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is built once at startup and handed by value to every component.
type Config struct {
	AppName     string         `yaml:"appName"`
	Version     string         `yaml:"version"`
	Environment string         `yaml:"environment"`
	HTTP        HTTPConfig     `yaml:"http"`
	Database    DatabaseConfig `yaml:"database"`
	Cache       CacheConfig    `yaml:"cache"`
	Auth        AuthConfig     `yaml:"auth"`
	Log         LogConfig      `yaml:"log"`
	Pagination  PageConfig     `yaml:"pagination"`
}

type HTTPConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"corsOrigins"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "postgres" or "memory"
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslMode"`
	TimeZone string `yaml:"timeZone"`
}

// DSN returns URL when set, otherwise a key/value DSN from the parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.TimeZone,
	)
}

type CacheConfig struct {
	Backend    string        `yaml:"backend"` // "redis" or "memory"
	RedisURL   string        `yaml:"redisURL"`
	DefaultTTL time.Duration `yaml:"defaultTTL"`
}

type AuthConfig struct {
	SecretKey      string        `yaml:"secretKey"`
	Issuer         string        `yaml:"issuer"`
	AccessTokenTTL time.Duration `yaml:"accessTokenTTL"`
}

type LogConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	Stdout     bool   `yaml:"stdout"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

type PageConfig struct {
	DefaultPageSize int `yaml:"defaultPageSize"`
	MaxPageSize     int `yaml:"maxPageSize"`
}

const devSecretKey = "roadtrack-development-secret"

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		AppName:     "RoadTrack",
		Version:     "1.0.0",
		Environment: "development",
		HTTP: HTTPConfig{
			Addr:        "0.0.0.0:8000",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "password",
			Name:     "roadtrack",
			SSLMode:  "disable",
			TimeZone: "UTC",
		},
		Cache: CacheConfig{
			Backend:    "redis",
			RedisURL:   "redis://localhost:6379/0",
			DefaultTTL: time.Hour,
		},
		Auth: AuthConfig{
			Issuer:         "roadtrack",
			AccessTokenTTL: 30 * time.Minute,
		},
		Log: LogConfig{
			File:       "./logs/app.log",
			Level:      "info",
			Stdout:     true,
			MaxSizeMB:  10,
			MaxBackups: 7,
			MaxAgeDays: 7,
			Compress:   true,
		},
		Pagination: PageConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (or
// $CONFIG_FILE) if any, then environment variables (a .env file is loaded first).
func Load(path string) (Config, error) {
	// Missing .env is fine, plain env vars are used instead.
	_ = godotenv.Load()

	cfg := Defaults()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if cfg.Auth.SecretKey == "" && !cfg.IsProduction() {
		logrus.Warn("SECRET_KEY not set, using the development secret")
		cfg.Auth.SecretKey = devSecretKey
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.AppName = getEnv("APP_NAME", cfg.AppName)
	cfg.Version = getEnv("APP_VERSION", cfg.Version)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", cfg.HTTP.Addr)
	if v, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		cfg.HTTP.CORSOrigins = splitList(v)
	}

	cfg.Database.Driver = getEnv("STORE_DRIVER", cfg.Database.Driver)
	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)
	cfg.Database.TimeZone = getEnv("DB_TIMEZONE", cfg.Database.TimeZone)

	cfg.Cache.Backend = getEnv("CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.RedisURL = getEnv("REDIS_URL", cfg.Cache.RedisURL)
	ttl, err := getEnvSeconds("CACHE_DEFAULT_TTL", cfg.Cache.DefaultTTL)
	if err != nil {
		return err
	}
	cfg.Cache.DefaultTTL = ttl

	cfg.Auth.SecretKey = getEnv("SECRET_KEY", cfg.Auth.SecretKey)
	cfg.Auth.Issuer = getEnv("JWT_ISSUER", cfg.Auth.Issuer)
	if v, ok := os.LookupEnv("ACCESS_TOKEN_EXPIRE_MINUTES"); ok {
		minutes, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES: %w", err)
		}
		cfg.Auth.AccessTokenTTL = time.Duration(minutes) * time.Minute
	}

	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	if cfg.Log.Stdout, err = getEnvBool("LOG_STDOUT", cfg.Log.Stdout); err != nil {
		return err
	}

	if cfg.Pagination.DefaultPageSize, err = getEnvInt("DEFAULT_PAGE_SIZE", cfg.Pagination.DefaultPageSize); err != nil {
		return err
	}
	if cfg.Pagination.MaxPageSize, err = getEnvInt("MAX_PAGE_SIZE", cfg.Pagination.MaxPageSize); err != nil {
		return err
	}
	return nil
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Database.Driver)
	}
	switch c.Cache.Backend {
	case "redis", "memory":
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}
	if c.Auth.SecretKey == "" {
		if c.IsProduction() {
			return errors.New("SECRET_KEY is required in production")
		}
		return errors.New("SECRET_KEY must not be empty")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return errors.New("access token ttl must be positive")
	}
	if c.Pagination.MaxPageSize < 1 {
		return errors.New("MAX_PAGE_SIZE must be positive")
	}
	if c.Pagination.DefaultPageSize < 1 || c.Pagination.DefaultPageSize > c.Pagination.MaxPageSize {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be within [1, %d]", c.Pagination.MaxPageSize)
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getEnvSeconds(key string, defaultValue time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return time.Duration(secs) * time.Second, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
