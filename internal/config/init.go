package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const exampleHeader = `# apkbuilder configuration.
# Values may reference environment variables as ${VAR}; .env and .env.local
# in the working directory are loaded first. Command line flags win over
# everything in this file.
`

// Example returns the configuration written by Init.
func Example() *Config {
	cfg := Default()
	cfg.SDK.Root = "${ANDROID_HOME}"
	cfg.Project = ProjectConfig{
		Path:    "build/android-arm",
		Deploy:  "deploy",
		Name:    "game",
		Package: "org.example.game",
		ABI:     DefaultABI,
		Version: DefaultVersion,
	}
	cfg.Build.ReportFile = "build/apkbuilder-report.yaml"
	return cfg
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	data, err := yaml.Marshal(Example())
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, append([]byte(exampleHeader), data...), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
