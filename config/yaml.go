package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadSettingsFile loads settings from a YAML file, layered over defaults.
func LoadSettingsFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return settings, nil
}

// FindConfigFile searches for a config file in standard locations.
// Returns empty string if not found (non-fatal).
func FindConfigFile() string {
	locations := []string{
		"./mixer.yaml",
		"./mixer.yml",
		filepath.Join(os.Getenv("HOME"), ".mixer", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".mixer", "config.yml"),
		"/etc/mixer/config.yaml",
		"/etc/mixer/config.yml",
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveSettingsFile saves settings to a YAML file.
func SaveSettingsFile(settings *Settings, path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
