package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mixer/models"
)

func writeFileOfSize(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func assetAt(t *testing.T, path string) *models.SourceAsset {
	t.Helper()
	asset, err := models.NewSourceAsset(path, 0, time.Now())
	if err != nil {
		t.Fatalf("NewSourceAsset returned error: %v", err)
	}
	return asset
}

func TestReporter_Fill_ComputesSizes(t *testing.T) {
	dir := t.TempDir()
	clipA := assetAt(t, writeFileOfSize(t, dir, "a.mp4", 1000))
	clipB := assetAt(t, writeFileOfSize(t, dir, "b.mp4", 2000))
	outputPath := writeFileOfSize(t, dir, "out.mp4", 600)

	// clipA drawn twice: its size must count once per draw
	result := models.JobResult{
		Index:      0,
		OutputPath: outputPath,
		Segments: models.SegmentSelection{
			{Asset: clipA},
			{Asset: clipB},
			{Asset: clipA},
		},
	}

	NewReporter().Fill(&result)

	if !result.SizesKnown {
		t.Fatal("Expected sizes to be known")
	}
	if result.InputBytes != 4000 {
		t.Errorf("Expected input bytes 4000, got %d", result.InputBytes)
	}
	if result.OutputBytes != 600 {
		t.Errorf("Expected output bytes 600, got %d", result.OutputBytes)
	}
	if result.Ratio != 0.15 {
		t.Errorf("Expected ratio 0.15, got %f", result.Ratio)
	}
}

func TestReporter_Fill_MissingSourceDegrades(t *testing.T) {
	dir := t.TempDir()
	clip := assetAt(t, filepath.Join(dir, "gone.mp4"))
	outputPath := writeFileOfSize(t, dir, "out.mp4", 600)

	result := models.JobResult{
		Index:      0,
		OutputPath: outputPath,
		Segments:   models.SegmentSelection{{Asset: clip}},
	}

	NewReporter().Fill(&result)

	if result.SizesKnown {
		t.Error("Expected sizes to stay unknown when a source is missing")
	}
	if result.InputBytes != 0 || result.OutputBytes != 0 || result.Ratio != 0 {
		t.Errorf("Expected zero size fields, got in=%d out=%d ratio=%f",
			result.InputBytes, result.OutputBytes, result.Ratio)
	}
	if !result.Succeeded() {
		t.Error("Expected the result to remain a success")
	}
}

func TestReporter_Fill_MissingOutputDegrades(t *testing.T) {
	dir := t.TempDir()
	clip := assetAt(t, writeFileOfSize(t, dir, "a.mp4", 1000))

	result := models.JobResult{
		Index:      0,
		OutputPath: filepath.Join(dir, "never_written.mp4"),
		Segments:   models.SegmentSelection{{Asset: clip}},
	}

	NewReporter().Fill(&result)

	if result.SizesKnown {
		t.Error("Expected sizes to stay unknown when the output is missing")
	}
}

func TestReporter_Fill_IgnoresFailedResults(t *testing.T) {
	result := models.JobResult{
		Index: 0,
		Err:   errors.New("mux failed"),
	}

	NewReporter().Fill(&result)

	if result.SizesKnown {
		t.Error("Expected failed result to be left alone")
	}
	if result.InputBytes != 0 {
		t.Errorf("Expected no input bytes on failed result, got %d", result.InputBytes)
	}
}
