package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	t.Setenv("UNINEST_DEV_MODE", "true")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.Port != 8080 || cfg.Auth.SMTPPort != 587 {
		t.Errorf("ports = %d/%d", cfg.Port, cfg.Auth.SMTPPort)
	}
	if cfg.Auth.BaseURL != "http://localhost:8080" {
		t.Errorf("base url = %q", cfg.Auth.BaseURL)
	}
	if cfg.UseMinio() || cfg.RedisURL != "" {
		t.Error("optional backends should be off by default")
	}
	if !cfg.Auth.DevMode {
		t.Error("dev mode not propagated to auth config")
	}
}

func TestOverrides(t *testing.T) {
	t.Setenv("UNINEST_PORT", "9090")
	t.Setenv("UNINEST_SMTP_HOST", "smtp.example.com")
	t.Setenv("UNINEST_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("UNINEST_MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("UNINEST_MINIO_ACCESS_KEY", "minio")
	t.Setenv("UNINEST_MINIO_SECRET_KEY", "minio123")
	t.Setenv("UNINEST_MINIO_USE_SSL", "true")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.Port != 9090 || cfg.Auth.BaseURL != "http://localhost:9090" {
		t.Errorf("port = %d, base url = %q", cfg.Port, cfg.Auth.BaseURL)
	}
	if !cfg.UseMinio() || !cfg.Minio.UseSSL || cfg.Minio.Bucket != "uninest" {
		t.Errorf("minio = %+v", cfg.Minio)
	}
	if cfg.RedisURL == "" {
		t.Error("redis url not read")
	}
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"UNINEST_DEV_MODE": "true", "UNINEST_PORT": "eighty"}},
		{"bad bool", map[string]string{"UNINEST_DEV_MODE": "maybe"}},
		{"smtp required in prod", map[string]string{}},
		{"minio without keys", map[string]string{"UNINEST_DEV_MODE": "true", "UNINEST_MINIO_ENDPOINT": "localhost:9000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := FromEnv(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("UNINEST_DEV_MODE=true\nUNINEST_PORT=7070\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	// godotenv sets variables directly; register them for cleanup.
	t.Setenv("UNINEST_DEV_MODE", "")
	t.Setenv("UNINEST_PORT", "")
	if err := os.Unsetenv("UNINEST_DEV_MODE"); err != nil {
		t.Fatal(err)
	}
	if err := os.Unsetenv("UNINEST_PORT"); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 7070 || !cfg.DevMode {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing env file should be ignored: %v", err)
	}
}
