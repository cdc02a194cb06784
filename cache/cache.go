// Package cache maintains the on-disk store of normalized clip segments the
// mix jobs share. Entries are keyed by (clip stem, trim) and carry the run's
// normalization profile in their name, are built at most once per key even
// under concurrent demand, and are published atomically so a crashed or
// cancelled build never leaves a partial file under its final name.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"mixer/command"
	"mixer/command/transcode"
	"mixer/ffmpeg"
	"mixer/models"
)

const cacheExt = ".ts"

// SegmentBuildError reports that one clip failed to become a cache segment.
// The owning job fails; other jobs are unaffected.
type SegmentBuildError struct {
	Asset string
	Cause error
}

func (e *SegmentBuildError) Error() string {
	return fmt.Sprintf("failed to build segment for %s: %v", e.Asset, e.Cause)
}

func (e *SegmentBuildError) Unwrap() error {
	return e.Cause
}

// HardwareEncodeError marks a build failure whose tool output points at the
// hardware encoder rather than the input. The same build is worth retrying
// with the software profile.
type HardwareEncodeError struct {
	Cause error
}

func (e *HardwareEncodeError) Error() string {
	return fmt.Sprintf("hardware encoder failed: %v", e.Cause)
}

func (e *HardwareEncodeError) Unwrap() error {
	return e.Cause
}

// Prober supplies probed media attributes; satisfied by ffprobe.Prober.
type Prober interface {
	MediaInfo(ctx context.Context, path string) (models.MediaInfo, error)
}

// Stats counts cache activity for the run summary.
type Stats struct {
	Hits   int64
	Builds int64
}

// Cache is the shared segment store. Safe for concurrent use; the cache
// directory is the only shared mutable state between jobs.
type Cache struct {
	dir     string
	profile models.NormalizationProfile
	runner  command.Runner
	tool    string
	prober  Prober
	keys    *keyedMutex

	hits   atomic.Int64
	builds atomic.Int64
}

// New creates the cache over the given directory, creating it if needed.
func New(dir string, profile models.NormalizationProfile, runner command.Runner, tool string, prober Prober) (*Cache, error) {
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid normalization profile: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &Cache{
		dir:     dir,
		profile: profile,
		runner:  runner,
		tool:    tool,
		prober:  prober,
		keys:    newKeyedMutex(),
	}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Profile returns the normalization profile entries are built under.
func (c *Cache) Profile() models.NormalizationProfile {
	return c.profile
}

// Stats returns the hit and build counts so far.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Builds: c.builds.Load()}
}

// entryName renders the file name for a key under the given profile tag. The
// full key is recoverable from the name; see parseEntryName.
func entryName(stem string, trim models.TrimSpec, tag string) string {
	return stem + "__" + trim.Key() + "__" + tag + cacheExt
}

// parseEntryName splits a cache file name into stem, trim key, and profile
// tag, parsing from the right since stems may themselves contain "__".
func parseEntryName(name string) (stem, trimKey, tag string, ok bool) {
	if !strings.HasSuffix(name, cacheExt) || strings.HasPrefix(name, ".") {
		return
	}
	base := strings.TrimSuffix(name, cacheExt)

	i := strings.LastIndex(base, "__")
	if i < 0 {
		return
	}
	tag = base[i+2:]

	rest := base[:i]
	j := strings.LastIndex(rest, "__")
	if j < 0 {
		return
	}
	trimKey = rest[j+2:]
	stem = rest[:j]

	ok = stem != "" && trimKey != "" && tag != ""
	return
}

// GetOrBuild returns the cached segment for (asset, trim), building it on
// first use. Two goroutines requesting the same key never build it twice or
// observe a half-written file: the per-key lock serializes them and the
// second caller finds the published entry. A caller that acquires the key
// after a failed build runs its own independent attempt.
func (c *Cache) GetOrBuild(ctx context.Context, asset *models.SourceAsset, trim models.TrimSpec, enc models.EncodingProfile) (models.CacheEntry, error) {
	seg := models.Segment{Asset: asset, Trim: trim}
	key := seg.CacheKey()

	c.keys.lock(key)
	defer c.keys.unlock(key)

	if err := ctx.Err(); err != nil {
		return models.CacheEntry{}, err
	}

	final := filepath.Join(c.dir, entryName(asset.Stem, trim, c.profile.Tag()))
	if _, err := os.Stat(final); err == nil {
		c.hits.Add(1)
		return models.CacheEntry{Path: final, Key: key, Profile: c.profile}, nil
	}

	// Miss: drop stale variants of this stem first so a changed trim or
	// profile can never shadow the fresh entry
	c.purgeStem(asset.Stem, trim)

	if err := c.build(ctx, asset, trim, enc, final); err != nil {
		return models.CacheEntry{}, err
	}

	c.builds.Add(1)
	return models.CacheEntry{Path: final, Key: key, Profile: c.profile}, nil
}

// build runs the transcoder into a temp name and renames the result into
// place, so the final name only ever exists fully written.
func (c *Cache) build(ctx context.Context, asset *models.SourceAsset, trim models.TrimSpec, enc models.EncodingProfile, final string) error {
	probeErr := asset.EnsureProbed(func() (models.MediaInfo, error) {
		return c.prober.MediaInfo(ctx, asset.Path)
	})
	// A tail trim needs the source duration; head-only trims survive an
	// unprobeable source
	if probeErr != nil && trim.Tail > 0 {
		return &SegmentBuildError{Asset: asset.Path, Cause: probeErr}
	}

	start, length := trim.Window(asset.Info().Duration)

	tmp, err := os.CreateTemp(c.dir, "."+filepath.Base(final)+".tmp-*")
	if err != nil {
		return &SegmentBuildError{Asset: asset.Path, Cause: err}
	}
	tmpPath := tmp.Name()
	tmp.Close()

	cmd := transcode.NewTranscodeBuilder(asset.Path, tmpPath).
		SetWindow(start, length).
		SetProfile(c.profile).
		SetEncoding(enc)

	output, err := command.Exec(ctx, c.runner, c.tool, cmd)
	if err != nil {
		os.Remove(tmpPath)
		if enc.Hardware && ffmpeg.IsHardwareFailure(string(output)) {
			return &HardwareEncodeError{Cause: err}
		}
		return &SegmentBuildError{Asset: asset.Path, Cause: err}
	}

	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		return &SegmentBuildError{Asset: asset.Path, Cause: err}
	}
	return nil
}

// purgeStem removes this stem's cache files whose trim key or profile tag
// differs from the current ones. Best effort; a failed removal surfaces
// later as a build error if it actually matters.
func (c *Cache) purgeStem(stem string, trim models.TrimSpec) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}

	trimKey := trim.Key()
	tag := c.profile.Tag()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		s, tk, tg, ok := parseEntryName(entry.Name())
		if !ok || s != stem {
			continue
		}
		if tk != trimKey || tg != tag {
			os.Remove(filepath.Join(c.dir, entry.Name()))
		}
	}
}

// PurgeMismatched sweeps the whole cache directory, removing every entry
// whose trim key or profile tag differs from the current run's. Returns the
// number of entries removed.
func (c *Cache) PurgeMismatched(trim models.TrimSpec) (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory %s: %w", c.dir, err)
	}

	trimKey := trim.Key()
	tag := c.profile.Tag()
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		_, tk, tg, ok := parseEntryName(entry.Name())
		if !ok {
			continue
		}
		if tk != trimKey || tg != tag {
			if err := os.Remove(filepath.Join(c.dir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
