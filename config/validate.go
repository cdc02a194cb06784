package config

import (
	"fmt"
	"os"
	"strings"

	"mixer/models"
)

// Validate checks if the settings are valid
func (s *Settings) Validate() error {
	var errors []string

	// Required fields
	if len(s.VideoDirs) == 0 {
		errors = append(errors, "at least one video directory is required")
	}
	for _, dir := range s.VideoDirs {
		info, err := os.Stat(dir)
		if err != nil {
			errors = append(errors, fmt.Sprintf("video directory does not exist: %s", dir))
		} else if !info.IsDir() {
			errors = append(errors, fmt.Sprintf("video directory is not a directory: %s", dir))
		}
	}

	if s.BGM == "" {
		errors = append(errors, "bgm path is required")
	} else if _, err := os.Stat(s.BGM); err != nil {
		errors = append(errors, fmt.Sprintf("bgm path does not exist: %s", s.BGM))
	}

	// A .mp4 output spec names files after its stem, which only works with a
	// single input directory
	if strings.HasSuffix(strings.ToLower(s.Output), ".mp4") && len(s.VideoDirs) > 1 {
		errors = append(errors, "a .mp4 output path cannot be combined with multiple video directories")
	}

	// Batch shape
	if s.Outputs < 1 {
		errors = append(errors, "outputs must be at least 1")
	}
	if s.Count < 1 {
		errors = append(errors, "count must be at least 1")
	}
	if s.Threads < 0 {
		errors = append(errors, "threads cannot be negative (use 0 for auto-detect)")
	}

	// Validate normalization config
	if err := s.Normalize.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("normalize config: %v", err))
	}

	// Validate trim config
	if err := s.Trim.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("trim config: %v", err))
	}

	// Validate encoder config
	if err := s.Encode.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("encode config: %v", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// Validate checks if the normalization configuration is valid
func (nc *NormalizeConfig) Validate() error {
	profile := models.NormalizationProfile{
		Width:  nc.Width,
		Height: nc.Height,
		FPS:    nc.FPS,
		Fill:   nc.Fill,
	}
	return profile.Validate()
}

// Validate checks if the trim configuration is valid
func (tc *TrimConfig) Validate() error {
	trim := models.TrimSpec{Head: tc.Head, Tail: tc.Tail}
	return trim.Validate()
}

// Validate checks if the encoder configuration is valid
func (ec *EncodeConfig) Validate() error {
	if !models.IsValidQuality(ec.Quality) {
		return fmt.Errorf("quality must be one of: %s", strings.Join(models.QualityValues(), ", "))
	}
	return nil
}
