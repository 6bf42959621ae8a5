package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds user-tunable settings read from config.yaml.
type Config struct {
	// DefaultLocale is applied when a workspace is opened without an explicit locale.
	DefaultLocale string `yaml:"default_locale"`

	// LogLevel is the minimum level written to the operations log.
	LogLevel string `yaml:"log_level"`

	// BcdeditPath overrides the bcdedit executable.
	BcdeditPath string `yaml:"bcdedit_path"`

	// BcdbootPath overrides the bcdboot executable.
	BcdbootPath string `yaml:"bcdboot_path"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		BcdeditPath: "bcdedit",
		BcdbootPath: "bcdboot",
	}
}

// Load reads the config file at path. A missing file yields Default().
// Fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return cfg, nil
}
