package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mixer/models"
)

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()

	if settings.Outputs != 1 {
		t.Errorf("Expected 1 output, got %d", settings.Outputs)
	}
	if settings.Count != 5 {
		t.Errorf("Expected 5 clips per output, got %d", settings.Count)
	}
	if settings.Threads != 4 {
		t.Errorf("Expected 4 threads, got %d", settings.Threads)
	}
	if settings.Seed != 0 {
		t.Errorf("Expected seed 0 (auto), got %d", settings.Seed)
	}
	if !settings.GroupRes {
		t.Error("Expected resolution grouping enabled by default")
	}
	if settings.Normalize.Width != 1080 || settings.Normalize.Height != 1920 {
		t.Errorf("Expected 1080x1920 target, got %dx%d", settings.Normalize.Width, settings.Normalize.Height)
	}
	if settings.Normalize.FPS != 25 {
		t.Errorf("Expected 25 fps, got %d", settings.Normalize.FPS)
	}
	if settings.Normalize.Fill != models.FillPad {
		t.Errorf("Expected fill 'pad', got %s", settings.Normalize.Fill)
	}
	if settings.Trim.Head != 0 || settings.Trim.Tail != 1 {
		t.Errorf("Expected trim head 0 tail 1, got head %v tail %v", settings.Trim.Head, settings.Trim.Tail)
	}
	if !settings.Encode.GPU {
		t.Error("Expected hardware encoding preferred by default")
	}
	if settings.Encode.Quality != models.QualityBalanced {
		t.Errorf("Expected balanced quality, got %s", settings.Encode.Quality)
	}
	if settings.Cache.Precache {
		t.Error("Expected precache disabled by default")
	}
}

// Helper functions

func createClipDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

func createBGMFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		t.Fatalf("Failed to create bgm file: %v", err)
	}
	return path
}

func validSettings(t *testing.T) *Settings {
	t.Helper()
	settings := DefaultSettings()
	settings.VideoDirs = []string{createClipDir(t)}
	settings.BGM = createBGMFile(t)
	return settings
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		settings    func() *Settings
		expectError bool
		errorText   string
	}{
		{
			name:        "valid settings",
			settings:    func() *Settings { return validSettings(t) },
			expectError: false,
		},
		{
			name: "missing video dirs",
			settings: func() *Settings {
				s := validSettings(t)
				s.VideoDirs = nil
				return s
			},
			expectError: true,
			errorText:   "at least one video directory is required",
		},
		{
			name: "nonexistent video dir",
			settings: func() *Settings {
				s := validSettings(t)
				s.VideoDirs = []string{"/nonexistent/clips"}
				return s
			},
			expectError: true,
			errorText:   "video directory does not exist",
		},
		{
			name: "video dir is a file",
			settings: func() *Settings {
				s := validSettings(t)
				s.VideoDirs = []string{s.BGM}
				return s
			},
			expectError: true,
			errorText:   "not a directory",
		},
		{
			name: "missing bgm",
			settings: func() *Settings {
				s := validSettings(t)
				s.BGM = ""
				return s
			},
			expectError: true,
			errorText:   "bgm path is required",
		},
		{
			name: "nonexistent bgm",
			settings: func() *Settings {
				s := validSettings(t)
				s.BGM = "/nonexistent/track.mp3"
				return s
			},
			expectError: true,
			errorText:   "bgm path does not exist",
		},
		{
			name: "mp4 output with single dir",
			settings: func() *Settings {
				s := validSettings(t)
				s.Output = "/out/mix.mp4"
				return s
			},
			expectError: false,
		},
		{
			name: "mp4 output with multiple dirs",
			settings: func() *Settings {
				s := validSettings(t)
				s.VideoDirs = append(s.VideoDirs, createClipDir(t))
				s.Output = "/out/mix.mp4"
				return s
			},
			expectError: true,
			errorText:   "cannot be combined with multiple video directories",
		},
		{
			name: "zero outputs",
			settings: func() *Settings {
				s := validSettings(t)
				s.Outputs = 0
				return s
			},
			expectError: true,
			errorText:   "outputs must be at least 1",
		},
		{
			name: "zero count",
			settings: func() *Settings {
				s := validSettings(t)
				s.Count = 0
				return s
			},
			expectError: true,
			errorText:   "count must be at least 1",
		},
		{
			name: "negative threads",
			settings: func() *Settings {
				s := validSettings(t)
				s.Threads = -1
				return s
			},
			expectError: true,
			errorText:   "threads cannot be negative",
		},
		{
			name: "invalid fill mode",
			settings: func() *Settings {
				s := validSettings(t)
				s.Normalize.Fill = "stretch"
				return s
			},
			expectError: true,
			errorText:   "normalize config",
		},
		{
			name: "odd dimensions",
			settings: func() *Settings {
				s := validSettings(t)
				s.Normalize.Width = 1081
				return s
			},
			expectError: true,
			errorText:   "even",
		},
		{
			name: "negative trim",
			settings: func() *Settings {
				s := validSettings(t)
				s.Trim.Head = -1
				return s
			},
			expectError: true,
			errorText:   "trim config",
		},
		{
			name: "invalid quality",
			settings: func() *Settings {
				s := validSettings(t)
				s.Encode.Quality = "ultra"
				return s
			},
			expectError: true,
			errorText:   "encode config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings().Validate()

			if tt.expectError && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if tt.expectError && err != nil && tt.errorText != "" {
				if !strings.Contains(err.Error(), tt.errorText) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorText, err.Error())
				}
			}
		})
	}
}

func TestSettingsCopy(t *testing.T) {
	settings := DefaultSettings()
	settings.VideoDirs = []string{"/videos/a", "/videos/b"}
	settings.BGM = "/music"
	settings.Threads = 8

	copied := settings.Copy()

	// Modify original
	settings.VideoDirs[0] = "/videos/changed"
	settings.BGM = "/changed"
	settings.Threads = 16
	settings.Normalize.Width = 720

	// Copy should be unchanged
	if copied.VideoDirs[0] != "/videos/a" {
		t.Errorf("Copy video dirs were modified: got '%s'", copied.VideoDirs[0])
	}
	if copied.BGM != "/music" {
		t.Errorf("Copy bgm was modified: got '%s'", copied.BGM)
	}
	if copied.Threads != 8 {
		t.Errorf("Copy threads were modified: got %d", copied.Threads)
	}
	if copied.Normalize.Width != 1080 {
		t.Errorf("Copy normalize config was modified: got width %d", copied.Normalize.Width)
	}
}

func TestSettings_Profile(t *testing.T) {
	settings := DefaultSettings()
	settings.Normalize = NormalizeConfig{Width: 720, Height: 1280, FPS: 30, Fill: models.FillCrop}

	profile := settings.Profile()

	if profile.Width != 720 || profile.Height != 1280 {
		t.Errorf("Expected 720x1280, got %dx%d", profile.Width, profile.Height)
	}
	if profile.FPS != 30 {
		t.Errorf("Expected 30 fps, got %d", profile.FPS)
	}
	if profile.Fill != models.FillCrop {
		t.Errorf("Expected crop fill, got %s", profile.Fill)
	}
	if profile.Tag() != "720x1280_30fps_crop" {
		t.Errorf("Expected tag '720x1280_30fps_crop', got '%s'", profile.Tag())
	}
}

func TestSettings_TrimSpec(t *testing.T) {
	settings := DefaultSettings()
	settings.Trim = TrimConfig{Head: 1.5, Tail: 2}

	trim := settings.TrimSpec()

	if trim.Head != 1.5 || trim.Tail != 2 {
		t.Errorf("Expected head 1.5 tail 2, got head %v tail %v", trim.Head, trim.Tail)
	}
	if trim.Key() != "h1.5_t2" {
		t.Errorf("Expected trim key 'h1.5_t2', got '%s'", trim.Key())
	}
}
