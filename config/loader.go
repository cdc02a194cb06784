package config

import (
	"fmt"
	"os"
	"runtime"
)

// LoadSettings loads settings with priority: CLI flags > config file > defaults.
func LoadSettings() (*Settings, error) {
	// 1. Start with defaults
	settings := DefaultSettings()

	// 2. Check if -config flag was provided (quick parse to extract it)
	configPath := ""
	for i, arg := range os.Args {
		if (arg == "-config" || arg == "--config") && i+1 < len(os.Args) {
			configPath = os.Args[i+1]
			break
		}
	}

	// If no config flag, try to find a config file in standard locations
	if configPath == "" {
		configPath = FindConfigFile()
	}

	// Load config file if found
	if configPath != "" {
		fileSettings, err := LoadSettingsFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		settings = fileSettings
	}

	// 3. Merge CLI flags (highest priority, overwrites everything)
	if err := settings.MergeFromFlags(); err != nil {
		return nil, err
	}

	// Auto-detect threads if set to 0
	if settings.Threads == 0 {
		settings.Threads = runtime.NumCPU()
	}

	// Validate final configuration
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}
