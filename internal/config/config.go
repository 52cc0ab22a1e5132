// Package config loads server configuration from UNINEST_ environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/uninest/uninest/internal/auth"
	"github.com/uninest/uninest/internal/storage"
)

const prefix = "UNINEST_"

// Config is the server configuration.
type Config struct {
	Port     int
	DBPath   string // empty means db.DefaultPath
	DevMode  bool
	Auth     auth.Config
	RedisURL string // empty keeps sessions in SQLite
	Minio    storage.MinioConfig
}

// UseMinio reports whether an object store is configured. Without one,
// uploads are kept in memory.
func (c Config) UseMinio() bool {
	return c.Minio.Endpoint != ""
}

// Load reads envFile (if it exists) into the environment without
// overriding variables already set, then builds the Config.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

// FromEnv builds the Config from the environment.
func FromEnv() (Config, error) {
	port, err := intVar("PORT", 8080)
	if err != nil {
		return Config{}, err
	}
	smtpPort, err := intVar("SMTP_PORT", 587)
	if err != nil {
		return Config{}, err
	}
	devMode, err := boolVar("DEV_MODE")
	if err != nil {
		return Config{}, err
	}
	useSSL, err := boolVar("MINIO_USE_SSL")
	if err != nil {
		return Config{}, err
	}

	baseURL := stringVar("BASE_URL", fmt.Sprintf("http://localhost:%d", port))
	cfg := Config{
		Port:    port,
		DBPath:  stringVar("DB_PATH", ""),
		DevMode: devMode,
		Auth: auth.Config{
			SMTPHost: stringVar("SMTP_HOST", ""),
			SMTPPort: smtpPort,
			SMTPUser: stringVar("SMTP_USER", ""),
			SMTPPass: stringVar("SMTP_PASS", ""),
			SMTPFrom: stringVar("SMTP_FROM", ""),
			DevMode:  devMode,
			BaseURL:  baseURL,
		},
		RedisURL: stringVar("REDIS_URL", ""),
		Minio: storage.MinioConfig{
			Endpoint:  stringVar("MINIO_ENDPOINT", ""),
			AccessKey: stringVar("MINIO_ACCESS_KEY", ""),
			SecretKey: stringVar("MINIO_SECRET_KEY", ""),
			Bucket:    stringVar("MINIO_BUCKET", "uninest"),
			UseSSL:    useSSL,
		},
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if !c.DevMode && c.Auth.SMTPHost == "" {
		return errors.New(prefix + "SMTP_HOST is required outside dev mode")
	}
	if c.UseMinio() && (c.Minio.AccessKey == "" || c.Minio.SecretKey == "") {
		return errors.New(prefix + "MINIO_ACCESS_KEY and " + prefix + "MINIO_SECRET_KEY are required with " + prefix + "MINIO_ENDPOINT")
	}
	return nil
}

func stringVar(name, fallback string) string {
	if v := os.Getenv(prefix + name); v != "" {
		return v
	}
	return fallback
}

func intVar(name string, fallback int) (int, error) {
	v := os.Getenv(prefix + name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", prefix, name, err)
	}
	return n, nil
}

func boolVar(name string) (bool, error) {
	v := os.Getenv(prefix + name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s%s: %w", prefix, name, err)
	}
	return b, nil
}
