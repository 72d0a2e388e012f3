package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	localDBPath  = ".tosum/tosum.db"
	configDir    = "tosum"
	configFile   = "config.yaml"
	envPrefix    = "TOSUM_"
	defaultLevel = "info"
)

// Config represents the application configuration.
type Config struct {
	Driver        string   `yaml:"driver"`
	DSN           string   `yaml:"dsn"`
	LogLevel      string   `yaml:"log_level"`
	LogFormat     string   `yaml:"log_format"`
	Output        string   `yaml:"output"`
	StrictOrphans bool     `yaml:"strict_orphans"`
	WebhookURLs   []string `yaml:"webhook_urls"`
}

// Load loads configuration from multiple sources with precedence:
// 1. Environment variables
// 2. ./.env.local (dotenv) - walks up parent directories to find it
// 3. ~/.config/tosum/config.yaml (YAML)
// 4. Built-in defaults
func Load() (*Config, error) {
	cfg := &Config{
		Driver:    "sqlite3",
		LogLevel:  defaultLevel,
		LogFormat: "console",
		Output:    "table",
	}

	if envPath := findEnvLocal(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	// YAML config is optional
	if err := loadYAMLConfig(cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.DSN == "" {
		if cfg.Driver != "sqlite3" {
			return nil, fmt.Errorf("%sDSN is required for driver %q", envPrefix, cfg.Driver)
		}
		dsn, err := defaultDSN()
		if err != nil {
			return nil, err
		}
		cfg.DSN = dsn
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if driver := os.Getenv(envPrefix + "DRIVER"); driver != "" {
		cfg.Driver = driver
	}
	if dsn := getEnvOrFile(envPrefix+"DSN", envPrefix+"DSN_FILE"); dsn != "" {
		cfg.DSN = dsn
	}
	if logLevel := os.Getenv(envPrefix + "LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat := os.Getenv(envPrefix + "LOG_FORMAT"); logFormat != "" {
		cfg.LogFormat = logFormat
	}
	if output := os.Getenv(envPrefix + "OUTPUT"); output != "" {
		cfg.Output = output
	}
	if hooks := os.Getenv(envPrefix + "WEBHOOK_URLS"); hooks != "" {
		cfg.WebhookURLs = nil
		for _, u := range strings.Split(hooks, ",") {
			if u = strings.TrimSpace(u); u != "" {
				cfg.WebhookURLs = append(cfg.WebhookURLs, u)
			}
		}
	}
	if strict := os.Getenv(envPrefix + "STRICT_ORPHANS"); strict != "" {
		v, err := strconv.ParseBool(strict)
		if err != nil {
			return fmt.Errorf("invalid %sSTRICT_ORPHANS %q: %w", envPrefix, strict, err)
		}
		cfg.StrictOrphans = v
	}
	return nil
}

// defaultDSN prefers a project-local database, then the user-global one.
func defaultDSN() (string, error) {
	if _, err := os.Stat(localDBPath); err == nil {
		return localDBPath, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "tosum", "tosum.db"), nil
}

// loadYAMLConfig loads configuration from ~/.config/tosum/config.yaml.
func loadYAMLConfig(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(filepath.Join(homeDir, ".config", configDir, configFile))
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

// getEnvOrFile gets an environment variable value, or reads it from a file
// if the _FILE variant is set.
func getEnvOrFile(envVar, fileVar string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}

	if filePath := os.Getenv(fileVar); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(data))
		}
	}

	return ""
}

// findEnvLocal searches for .env.local starting from cwd and walking up
// parent directories. Stops at the user's home directory.
// Returns the path to .env.local if found, empty string otherwise.
func findEnvLocal() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		if _, err := os.Stat(".env.local"); err == nil {
			return ".env.local"
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	homeDir = filepath.Clean(homeDir)
	dir := filepath.Clean(cwd)

	for {
		envPath := filepath.Join(dir, ".env.local")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}

		if dir == homeDir {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	return ""
}
