package concatenator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"mixer/models"
)

// fakeRunner captures the concat invocation and snapshots the list file
// while it still exists, since Concatenate removes it on return.
type fakeRunner struct {
	mu          sync.Mutex
	calls       [][]string
	listContent string
	listPath    string

	err        error
	skipOutput bool
}

func (f *fakeRunner) Run(ctx context.Context, name string, args []string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), args...))
	f.mu.Unlock()

	for i, arg := range args {
		if arg == "-i" && i+1 < len(args) {
			f.listPath = args[i+1]
			if data, err := os.ReadFile(args[i+1]); err == nil {
				f.listContent = string(data)
			}
		}
	}

	if f.err != nil {
		return []byte("concat error output"), f.err
	}
	if !f.skipOutput {
		outPath := args[len(args)-1]
		if err := os.WriteFile(outPath, []byte("video"), 0644); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testEntry(t *testing.T, dir, name string) models.CacheEntry {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("segment"), 0644); err != nil {
		t.Fatalf("Failed to create segment file: %v", err)
	}
	return models.CacheEntry{
		Path:    path,
		Key:     strings.TrimSuffix(name, ".ts"),
		Profile: models.NormalizationProfile{Width: 1080, Height: 1920, FPS: 25, Fill: models.FillPad},
	}
}

func TestNewConcatenator(t *testing.T) {
	runner := &fakeRunner{}
	c := NewConcatenator(runner, "ffmpeg")

	if c == nil {
		t.Fatal("NewConcatenator returned nil")
	}
	if c.tool != "ffmpeg" {
		t.Errorf("Expected tool to be 'ffmpeg', got %s", c.tool)
	}
}

func TestConcatenator_Concatenate_WritesListInOrder(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	c := NewConcatenator(runner, "ffmpeg")

	entries := []models.CacheEntry{
		testEntry(t, dir, "clip03__h0_t1__1080x1920_25fps_pad.ts"),
		testEntry(t, dir, "clip01__h0_t1__1080x1920_25fps_pad.ts"),
		testEntry(t, dir, "clip02__h0_t1__1080x1920_25fps_pad.ts"),
	}
	outputPath := filepath.Join(dir, "out.mp4")

	if err := c.Concatenate(context.Background(), entries, outputPath); err != nil {
		t.Fatalf("Concatenate returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(runner.listContent), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 list lines, got %d: %q", len(lines), runner.listContent)
	}

	// Selection order, not sorted order
	for i, stem := range []string{"clip03", "clip01", "clip02"} {
		if !strings.Contains(lines[i], stem) {
			t.Errorf("Line %d: expected %s, got %s", i, stem, lines[i])
		}
		if !strings.HasPrefix(lines[i], "file '") {
			t.Errorf("Line %d: expected file directive, got %s", i, lines[i])
		}
	}

	if _, err := os.Stat(outputPath); err != nil {
		t.Errorf("Expected output file to exist: %v", err)
	}
}

func TestConcatenator_Concatenate_KeepsRepeats(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	c := NewConcatenator(runner, "ffmpeg")

	entry := testEntry(t, dir, "clip01__h0_t1__1080x1920_25fps_pad.ts")
	entries := []models.CacheEntry{entry, entry, entry}

	if err := c.Concatenate(context.Background(), entries, filepath.Join(dir, "out.mp4")); err != nil {
		t.Fatalf("Concatenate returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(runner.listContent), "\n")
	if len(lines) != 3 {
		t.Errorf("Expected a drawn-thrice segment to appear 3 times, got %d lines", len(lines))
	}
}

func TestConcatenator_Concatenate_EscapesSingleQuotes(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	c := NewConcatenator(runner, "ffmpeg")

	entries := []models.CacheEntry{
		testEntry(t, dir, "it's_a_clip__h0_t1__1080x1920_25fps_pad.ts"),
	}

	if err := c.Concatenate(context.Background(), entries, filepath.Join(dir, "out.mp4")); err != nil {
		t.Fatalf("Concatenate returned error: %v", err)
	}

	if !strings.Contains(runner.listContent, `it'\''s_a_clip`) {
		t.Errorf("Expected single quote to be escaped, got %q", runner.listContent)
	}
}

func TestConcatenator_Concatenate_ProfileMismatch(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	c := NewConcatenator(runner, "ffmpeg")

	a := testEntry(t, dir, "clip01__h0_t1__1080x1920_25fps_pad.ts")
	b := testEntry(t, dir, "clip02__h0_t1__1080x1920_25fps_pad.ts")
	b.Profile = models.NormalizationProfile{Width: 720, Height: 1280, FPS: 30, Fill: models.FillPad}

	err := c.Concatenate(context.Background(), []models.CacheEntry{a, b}, filepath.Join(dir, "out.mp4"))
	if !errors.Is(err, ErrProfileMismatch) {
		t.Fatalf("Expected ErrProfileMismatch, got %v", err)
	}
	if runner.callCount() != 0 {
		t.Errorf("Expected no ffmpeg invocation on mismatch, got %d", runner.callCount())
	}
}

func TestConcatenator_Concatenate_NoSegments(t *testing.T) {
	runner := &fakeRunner{}
	c := NewConcatenator(runner, "ffmpeg")

	err := c.Concatenate(context.Background(), nil, "/tmp/out.mp4")
	if err == nil {
		t.Fatal("Expected error for empty segment list")
	}
}

func TestConcatenator_Concatenate_RunnerError(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{err: errors.New("exit status 1")}
	c := NewConcatenator(runner, "ffmpeg")

	entries := []models.CacheEntry{
		testEntry(t, dir, "clip01__h0_t1__1080x1920_25fps_pad.ts"),
	}

	err := c.Concatenate(context.Background(), entries, filepath.Join(dir, "out.mp4"))
	if err == nil {
		t.Fatal("Expected error from failed concat")
	}
	if !errors.Is(err, runner.err) {
		t.Error("Expected error chain to reach the runner error")
	}
}

func TestConcatenator_Concatenate_OutputMissing(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{skipOutput: true}
	c := NewConcatenator(runner, "ffmpeg")

	entries := []models.CacheEntry{
		testEntry(t, dir, "clip01__h0_t1__1080x1920_25fps_pad.ts"),
	}

	err := c.Concatenate(context.Background(), entries, filepath.Join(dir, "out.mp4"))
	if err == nil {
		t.Fatal("Expected error when ffmpeg produced no output file")
	}
	if !strings.Contains(err.Error(), "output file not created") {
		t.Errorf("Expected output-missing error, got: %v", err)
	}
}

func TestConcatenator_Concatenate_RemovesListFile(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	c := NewConcatenator(runner, "ffmpeg")

	entries := []models.CacheEntry{
		testEntry(t, dir, "clip01__h0_t1__1080x1920_25fps_pad.ts"),
	}

	if err := c.Concatenate(context.Background(), entries, filepath.Join(dir, "out.mp4")); err != nil {
		t.Fatalf("Concatenate returned error: %v", err)
	}

	if runner.listPath == "" {
		t.Fatal("Expected runner to observe a list file path")
	}
	if _, err := os.Stat(runner.listPath); !os.IsNotExist(err) {
		t.Error("Expected concat list file to be removed after use")
	}
}
