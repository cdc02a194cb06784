// Package concatenator merges cached segments into a single silent video
// using ffmpeg's concat demuxer.
package concatenator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mixer/command"
	"mixer/command/concat"
	"mixer/models"
)

// ErrProfileMismatch reports segments built under different normalization
// profiles. The cache hands out entries for exactly one profile per run, so
// hitting this means a caller mixed entries from different runs.
var ErrProfileMismatch = errors.New("segments built under different normalization profiles")

// Concatenator stitches cache segments into one video by stream copy.
type Concatenator struct {
	runner command.Runner
	tool   string
}

// NewConcatenator creates a concatenator that runs ffmpeg through the given
// runner.
func NewConcatenator(runner command.Runner, tool string) *Concatenator {
	return &Concatenator{
		runner: runner,
		tool:   tool,
	}
}

// Concatenate merges the entries into outputPath in the given playlist order.
// A segment drawn more than once appears once per draw; order and repeats are
// preserved exactly.
func (c *Concatenator) Concatenate(ctx context.Context, entries []models.CacheEntry, outputPath string) error {
	if len(entries) == 0 {
		return fmt.Errorf("no segments to concatenate")
	}

	if err := c.checkProfiles(entries); err != nil {
		return err
	}

	listPath, err := c.createListFile(entries)
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}
	defer os.Remove(listPath)

	cmd := concat.NewConcatBuilder(listPath, outputPath)
	if _, err := command.Exec(ctx, c.runner, c.tool, cmd); err != nil {
		return fmt.Errorf("concat failed: %w", err)
	}

	// Verify output file was created
	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("output file not created: %w", err)
	}

	return nil
}

// checkProfiles verifies every entry carries the same profile tag.
func (c *Concatenator) checkProfiles(entries []models.CacheEntry) error {
	first := entries[0].Profile.Tag()
	for _, entry := range entries[1:] {
		if tag := entry.Profile.Tag(); tag != first {
			return fmt.Errorf("%w: %s vs %s", ErrProfileMismatch, first, tag)
		}
	}
	return nil
}

// createListFile writes the concat-demuxer list, one line per playlist slot:
//
//	file '/path/to/segment.ts'
func (c *Concatenator) createListFile(entries []models.CacheEntry) (string, error) {
	tmpFile, err := os.CreateTemp("", "concat-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer tmpFile.Close()

	for _, entry := range entries {
		absPath, err := filepath.Abs(entry.Path)
		if err != nil {
			os.Remove(tmpFile.Name())
			return "", fmt.Errorf("failed to get absolute path for %s: %w", entry.Path, err)
		}

		// Escape single quotes in path (replace ' with '\'' for the demuxer)
		escapedPath := strings.ReplaceAll(absPath, "'", "'\\''")

		line := fmt.Sprintf("file '%s'\n", escapedPath)
		if _, err := tmpFile.WriteString(line); err != nil {
			os.Remove(tmpFile.Name())
			return "", fmt.Errorf("failed to write to concat list: %w", err)
		}
	}

	return tmpFile.Name(), nil
}
