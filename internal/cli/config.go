package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	defaultServerURL = "http://localhost:8080"

	envServerURL = "UNINEST_SERVER_URL"
	envAPIKey    = "UNINEST_API_KEY"
)

// CLIConfig is what login stores in ~/.config/uninest/config.yaml.
type CLIConfig struct {
	ServerURL string `yaml:"server_url,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
	Email     string `yaml:"email,omitempty"`
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "uninest", "config.yaml"), nil
}

// loadConfig reads the stored config. A missing file is an empty config.
func loadConfig() (CLIConfig, error) {
	var cfg CLIConfig
	path, err := configPath()
	if err != nil {
		return cfg, err
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return cfg, nil
	case err != nil:
		return cfg, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// saveConfig writes cfg with owner-only permissions since it holds an API key.
func saveConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// updateConfig loads the stored config, applies change and saves it.
func updateConfig(change func(*CLIConfig)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	change(&cfg)
	return saveConfig(cfg)
}

// settings is the effective client configuration: environment first, then
// the config file, then defaults.
type settings struct {
	ServerURL string
	APIKey    string
	Email     string
	// FromEnv reports that the API key came from UNINEST_API_KEY.
	FromEnv bool
}

func currentSettings() settings {
	cfg, _ := loadConfig()
	s := settings{ServerURL: cfg.ServerURL, APIKey: cfg.APIKey, Email: cfg.Email}
	if v := os.Getenv(envServerURL); v != "" {
		s.ServerURL = v
	}
	if v := os.Getenv(envAPIKey); v != "" {
		s.APIKey, s.FromEnv = v, true
	}
	if s.ServerURL == "" {
		s.ServerURL = defaultServerURL
	}
	return s
}

func getServerURL() string { return currentSettings().ServerURL }

func getAPIKey() string { return currentSettings().APIKey }
