// Package config holds the settings surface of the mixer and its loading
// pipeline: defaults, optional YAML config file, CLI flag overrides.
package config

import (
	"mixer/models"
)

// Settings holds all mixer configuration options.
type Settings struct {
	// Required fields
	VideoDirs []string `yaml:"video_dirs"` // input clip directories, scanned recursively
	BGM       string   `yaml:"bgm"`        // background track: audio file or directory of audio files

	// Output placement: a directory, or a .mp4 path used as a name template
	// (only with a single input directory). Empty derives a sibling of the
	// first input directory.
	Output string `yaml:"output"`

	// Batch shape
	Outputs int   `yaml:"outputs"` // number of mixed videos to produce
	Count   int   `yaml:"count"`   // clips per output
	Threads int   `yaml:"threads"` // worker count, 0 = auto-detect
	Seed    int64 `yaml:"seed"`    // run seed, 0 = derive one and report it

	// Partition clips by native resolution before selection when the
	// catalog is large enough
	GroupRes bool `yaml:"group_res"`

	// Normalization settings
	Normalize NormalizeConfig `yaml:"normalize"`

	// Trim settings
	Trim TrimConfig `yaml:"trim"`

	// Encoder settings
	Encode EncodeConfig `yaml:"encode"`

	// Segment cache settings
	Cache CacheConfig `yaml:"cache"`

	// Behavioral flags
	LogFile string `yaml:"log_file"` // run-log path, empty = derive from output dir
	Verbose bool   `yaml:"verbose"`  // show detailed logs
	DryRun  bool   `yaml:"dry_run"`  // show resolved configuration without mixing
}

// NormalizeConfig holds the uniform format every clip is converted to.
type NormalizeConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	FPS    int    `yaml:"fps"`
	Fill   string `yaml:"fill"` // "pad" or "crop"
}

// TrimConfig holds the seconds cut from each clip before mixing.
type TrimConfig struct {
	Head float64 `yaml:"head"`
	Tail float64 `yaml:"tail"`
}

// EncodeConfig holds encoder family preference and quality tier.
type EncodeConfig struct {
	GPU     bool   `yaml:"gpu"`     // prefer the hardware encoder when present
	Quality string `yaml:"quality"` // "visual", "balanced", "size"
}

// CacheConfig holds segment-cache behavior.
type CacheConfig struct {
	Dir           string `yaml:"dir"`            // cache directory, empty = derive from first input dir
	Precache      bool   `yaml:"precache"`       // warm every (clip, trim) pair before mixing
	ClearMismatch bool   `yaml:"clear_mismatch"` // sweep stale entries up front instead of on miss
}

// DefaultSettings returns the configuration defaults: one vertical 1080x1920
// output of five clips, balanced quality, hardware encoding preferred.
func DefaultSettings() *Settings {
	return &Settings{
		// Required - must be provided by user
		VideoDirs: nil,
		BGM:       "",
		Output:    "",

		Outputs:  1,
		Count:    5,
		Threads:  4,
		Seed:     0,
		GroupRes: true,

		Normalize: NormalizeConfig{
			Width:  1080,
			Height: 1920,
			FPS:    25,
			Fill:   models.FillPad,
		},

		Trim: TrimConfig{
			Head: 0.0,
			Tail: 1.0,
		},

		Encode: EncodeConfig{
			GPU:     true,
			Quality: models.QualityBalanced,
		},

		Cache: CacheConfig{
			Dir:           "",
			Precache:      false,
			ClearMismatch: false,
		},

		LogFile: "",
		Verbose: false,
		DryRun:  false,
	}
}

// Copy creates a deep copy of the settings.
func (s *Settings) Copy() *Settings {
	copied := *s
	copied.VideoDirs = append([]string(nil), s.VideoDirs...)
	return &copied
}

// Profile returns the run-level normalization profile.
func (s *Settings) Profile() models.NormalizationProfile {
	return models.NormalizationProfile{
		Width:  s.Normalize.Width,
		Height: s.Normalize.Height,
		FPS:    s.Normalize.FPS,
		Fill:   s.Normalize.Fill,
	}
}

// TrimSpec returns the run-level trim.
func (s *Settings) TrimSpec() models.TrimSpec {
	return models.TrimSpec{Head: s.Trim.Head, Tail: s.Trim.Tail}
}
