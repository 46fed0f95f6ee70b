// Package config loads apkbuilder.yaml and applies defaults and validation.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apkerrors "git.home.luguber.info/inful/apkbuilder/internal/errors"
	"git.home.luguber.info/inful/apkbuilder/internal/logfields"
)

// envFiles are loaded in order; variables already set in the process win.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads whichever .env files exist without overriding the
// current environment.
func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Failed to load environment file", logfields.Path(name), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment file", logfields.Path(name))
	}
}

// Load reads configPath, expands ${VAR} references, normalizes enums,
// applies defaults and validates the result.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, apkerrors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, apkerrors.ConfigInvalid(configPath, fmt.Errorf("read: %w", err))
	}

	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, apkerrors.ConfigInvalid(configPath, err)
	}
	return cfg, nil
}

// LoadOptional behaves like Load but returns the default configuration when
// configPath does not exist and the caller did not ask for it explicitly.
func LoadOptional(configPath string, explicit bool) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) && !explicit {
		loadEnvFiles()
		slog.Debug("No configuration file, using defaults", logfields.Path(configPath))
		return Default(), nil
	}
	return Load(configPath)
}

// Parse decodes YAML configuration content that has already been expanded.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if err := normalize(&cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize case-folds the enum fields so that "Strict" and " JSON " are accepted.
func normalize(cfg *Config) error {
	mode, err := ParseExecMode(string(cfg.Build.Mode))
	if err != nil {
		return apkerrors.ValidationFailed("build.mode", err.Error())
	}
	cfg.Build.Mode = mode

	level, err := ParseLogLevel(string(cfg.Logging.Level))
	if err != nil {
		return apkerrors.ValidationFailed("logging.level", err.Error())
	}
	cfg.Logging.Level = level

	format, err := ParseLogFormat(string(cfg.Logging.Format))
	if err != nil {
		return apkerrors.ValidationFailed("logging.format", err.Error())
	}
	cfg.Logging.Format = format
	return nil
}
