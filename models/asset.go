package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// SourceAsset represents one raw input clip discovered by the catalog.
//
// Identity is the absolute path plus the modification signature (size and
// mtime) captured at scan time. The stem (file name without extension) is the
// cache-key component shared by every trimmed variant of the clip.
//
// Probe fields (resolution, fps, duration) start at zero and are filled at
// most once via EnsureProbed; after that they are read-only and safe to share
// across workers.
type SourceAsset struct {
	Path    string    `json:"path"`
	Stem    string    `json:"stem"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`

	info      MediaInfo
	probeOnce sync.Once
	probeErr  error
}

// MediaInfo holds the probed technical attributes of a media file.
type MediaInfo struct {
	Width    int
	Height   int
	FPS      float64
	Duration float64
}

// NewSourceAsset creates a SourceAsset from a scanned file.
//
// Returns an error if the path is empty or not absolute; the catalog always
// hands absolute paths so relative inputs indicate a caller bug.
func NewSourceAsset(path string, size int64, modTime time.Time) (*SourceAsset, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("asset path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("asset path must be absolute: %s", path)
	}

	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		return nil, fmt.Errorf("asset path has no usable stem: %s", path)
	}

	return &SourceAsset{
		Path:    path,
		Stem:    stem,
		Size:    size,
		ModTime: modTime,
	}, nil
}

// EnsureProbed fills the probe fields exactly once using the supplied probe
// function. Concurrent callers block until the first probe finishes and then
// share its result. A failed probe is sticky for the life of the asset.
func (a *SourceAsset) EnsureProbed(probe func() (MediaInfo, error)) error {
	a.probeOnce.Do(func() {
		info, err := probe()
		if err != nil {
			a.probeErr = fmt.Errorf("probe %s: %w", a.Path, err)
			return
		}
		a.info = info
	})
	return a.probeErr
}

// Info returns the probed attributes. Zero values mean the asset has not been
// probed (or the probe failed).
func (a *SourceAsset) Info() MediaInfo {
	return a.info
}

// Resolution renders the probed native resolution as "WxH", the grouping key
// for resolution-partitioned selection. Empty until probed.
func (a *SourceAsset) Resolution() string {
	if a.info.Width <= 0 || a.info.Height <= 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", a.info.Width, a.info.Height)
}
