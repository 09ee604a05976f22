// Package config reads settings from the environment (and an optional .env
// file) through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting the server and the CLI read.
type Config struct {
	AppPort string

	DatabaseDriver string
	DatabaseDSN    string

	JWTSecret   string
	RabbitMQURL string

	Storage Storage

	ServerURL      string
	AccessToken    string
	RequestTimeout time.Duration
	ImageMaxDim    int

	LogLevel string
}

// Storage selects where product images are written.
type Storage struct {
	Driver          string
	Dir             string
	URLPrefix       string
	S3Region        string
	S3Bucket        string
	S3Prefix        string
	S3PublicBaseURL string
}

// New returns a viper instance with defaults set and environment lookup on.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "storefront.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("STORAGE_DIR", "./storage/uploads")
	v.SetDefault("STORAGE_URL_PREFIX", "/uploads")
	v.SetDefault("S3_REGION", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_PREFIX", "uploads")
	v.SetDefault("S3_PUBLIC_BASE_URL", "")
	v.SetDefault("SERVER_URL", "http://localhost:8080")
	v.SetDefault("ACCESS_TOKEN", "")
	v.SetDefault("REQUEST_TIMEOUT", "0s")
	v.SetDefault("IMAGE_MAX_DIM", 1600)
	v.SetDefault("LOG_LEVEL", "info")
	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads the given .env files into the process environment. Missing
// files are skipped; variables already set win.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads a Config from v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		AppPort:        v.GetString("APP_PORT"),
		DatabaseDriver: strings.ToLower(v.GetString("DATABASE_DRIVER")),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		Storage: Storage{
			Driver:          strings.ToLower(v.GetString("STORAGE_DRIVER")),
			Dir:             v.GetString("STORAGE_DIR"),
			URLPrefix:       v.GetString("STORAGE_URL_PREFIX"),
			S3Region:        v.GetString("S3_REGION"),
			S3Bucket:        v.GetString("S3_BUCKET"),
			S3Prefix:        v.GetString("S3_PREFIX"),
			S3PublicBaseURL: v.GetString("S3_PUBLIC_BASE_URL"),
		},
		ServerURL:      strings.TrimRight(v.GetString("SERVER_URL"), "/"),
		AccessToken:    v.GetString("ACCESS_TOKEN"),
		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		ImageMaxDim:    v.GetInt("IMAGE_MAX_DIM"),
		LogLevel:       v.GetString("LOG_LEVEL"),
	}
	if !strings.HasPrefix(cfg.AppPort, ":") && !strings.Contains(cfg.AppPort, ":") {
		cfg.AppPort = ":" + cfg.AppPort
	}

	switch cfg.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return Config{}, fmt.Errorf("unknown DATABASE_DRIVER: %s", cfg.DatabaseDriver)
	}
	switch cfg.Storage.Driver {
	case "local":
	case "s3":
		if cfg.Storage.S3Region == "" || cfg.Storage.S3Bucket == "" || cfg.Storage.S3PublicBaseURL == "" {
			return Config{}, fmt.Errorf("S3 config missing: S3_REGION, S3_BUCKET, S3_PUBLIC_BASE_URL required")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_DRIVER: %s", cfg.Storage.Driver)
	}
	return cfg, nil
}

// RequireServerSecrets checks the settings only the API server needs.
func (c Config) RequireServerSecrets() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("missing required env var: JWT_SECRET")
	}
	return nil
}
