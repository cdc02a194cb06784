package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// outputIsFile reports whether the output setting names an .mp4 template
// instead of a directory.
func (s *Settings) outputIsFile() bool {
	return strings.HasSuffix(strings.ToLower(s.Output), ".mp4")
}

// OutputDir returns the directory final videos are written to. An empty
// output setting derives a sibling of the first input directory.
func (s *Settings) OutputDir() string {
	if s.Output == "" {
		if len(s.VideoDirs) == 0 {
			return ""
		}
		suffix := "_longvideo"
		if len(s.VideoDirs) > 1 {
			suffix = "_longvideo_combined"
		}
		return filepath.Clean(s.VideoDirs[0]) + suffix
	}
	if s.outputIsFile() {
		return filepath.Dir(s.Output)
	}
	return s.Output
}

// OutputPathFor returns the deterministic target path for one job index.
// An .mp4 output setting acts as a name template: "mix.mp4" with index 2
// becomes "mix_2.mp4" in the same directory. A directory setting (or the
// derived default) gets batch-style names carrying the clip count.
func (s *Settings) OutputPathFor(index int) string {
	if s.outputIsFile() {
		base := filepath.Base(s.Output)
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		return filepath.Join(filepath.Dir(s.Output), fmt.Sprintf("%s_%d.mp4", stem, index))
	}
	return filepath.Join(s.OutputDir(), fmt.Sprintf("concat_%dvideos_with_bgm_%d.mp4", s.Count, index))
}

// CacheDir returns the segment cache directory, derived from the first input
// directory when not configured.
func (s *Settings) CacheDir() string {
	if s.Cache.Dir != "" {
		return s.Cache.Dir
	}
	if len(s.VideoDirs) == 0 {
		return ""
	}
	return filepath.Clean(s.VideoDirs[0]) + "_segcache"
}

// LogPath returns the run-log file path, placed next to the outputs when not
// configured.
func (s *Settings) LogPath() string {
	if s.LogFile != "" {
		return s.LogFile
	}
	return filepath.Join(s.OutputDir(), "mixer_run.log")
}
