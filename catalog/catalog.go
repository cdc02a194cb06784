// Package catalog discovers the raw inputs of a run: video clips under one
// or more directories and the background music source.
package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"

	"mixer/models"
)

// ErrEmptyCatalog reports that a required input location holds no usable
// media. The run cannot produce any job and aborts before dispatch.
var ErrEmptyCatalog = errors.New("no usable media found")

// VideoExtensions returns the recognized clip container extensions.
func VideoExtensions() []string {
	return []string{".mp4", ".mov", ".mkv", ".avi", ".webm", ".flv", ".m4v"}
}

// AudioExtensions returns the recognized BGM file extensions.
func AudioExtensions() []string {
	return []string{".mp3", ".wav", ".m4a", ".aac", ".flac", ".ogg"}
}

// ListVideos scans every directory recursively and returns the usable clips
// ordered by path. Every directory must contribute at least one clip;
// an empty one fails the whole scan with ErrEmptyCatalog.
func ListVideos(dirs []string) ([]*models.SourceAsset, error) {
	var assets []*models.SourceAsset

	for _, dir := range dirs {
		found, err := scanDir(dir)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("%w: no video files under %s", ErrEmptyCatalog, dir)
		}
		assets = append(assets, found...)
	}

	sort.Slice(assets, func(i, j int) bool {
		return assets[i].Path < assets[j].Path
	})

	return assets, nil
}

func scanDir(dir string) ([]*models.SourceAsset, error) {
	var assets []*models.SourceAsset

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !hasExtension(path, VideoExtensions()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}

		asset, err := models.NewSourceAsset(abs, info.Size(), info.ModTime())
		if err != nil {
			return err
		}
		assets = append(assets, asset)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	return assets, nil
}

// ResolveBGM resolves the background track source. A file path yields a
// singleton list after an extension check; a directory yields every
// recognized audio file under it, ordered by path.
func ResolveBGM(path string) ([]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve bgm path %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("bgm path %s: %w", path, err)
	}

	if !info.IsDir() {
		if !hasExtension(abs, AudioExtensions()) {
			return nil, fmt.Errorf("%w: %s is not a recognized audio file", ErrEmptyCatalog, path)
		}
		return []string{abs}, nil
	}

	var tracks []string
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && hasExtension(p, AudioExtensions()) {
			tracks = append(tracks, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan bgm directory %s: %w", path, err)
	}

	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: no audio files under %s", ErrEmptyCatalog, path)
	}

	sort.Strings(tracks)
	return tracks, nil
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return lo.Contains(exts, ext)
}
