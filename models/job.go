package models

import (
	"fmt"
)

// Segment is one selected clip with the trim applied to it.
type Segment struct {
	Asset *SourceAsset `json:"asset"`
	Trim  TrimSpec     `json:"trim"`
}

// CacheKey returns the canonical key addressing this segment in the clip
// cache: "<stem>__<trimKey>".
func (s Segment) CacheKey() string {
	return s.Asset.Stem + "__" + s.Trim.Key()
}

// SegmentSelection is the ordered clip sequence for one output; final video
// order equals selection order.
type SegmentSelection []Segment

// Assets returns the underlying source assets in selection order, duplicates
// preserved (sampling with replacement may pick a clip twice).
func (sel SegmentSelection) Assets() []*SourceAsset {
	assets := make([]*SourceAsset, len(sel))
	for i, s := range sel {
		assets[i] = s.Asset
	}
	return assets
}

// OutputJob is one requested output video. The scheduler creates it with
// index, seed, and target path; the worker that executes it fills Selection
// and BGM and is the only goroutine allowed to touch it afterwards.
type OutputJob struct {
	Index      int              `json:"index"`
	Seed       int64            `json:"seed"`
	OutputPath string           `json:"output_path"`
	Selection  SegmentSelection `json:"selection"`
	BGM        string           `json:"bgm"`

	// Pool restricts selection to a subset of the catalog (grouped mode);
	// nil means the full catalog.
	Pool []*SourceAsset `json:"-"`
}

// JobResult is the terminal state of one OutputJob.
//
// Exactly one of the success fields (OutputPath) and Err is meaningful; use
// the constructors to keep them consistent. Size fields are filled by the
// compression reporter and stay zero with SizesKnown=false when any size
// could not be read.
type JobResult struct {
	Index      int              `json:"index"`
	OutputPath string           `json:"output_path,omitempty"`
	Segments   SegmentSelection `json:"segments,omitempty"`
	BGM        string           `json:"bgm,omitempty"`
	Err        error            `json:"-"`

	InputBytes  int64   `json:"input_bytes,omitempty"`
	OutputBytes int64   `json:"output_bytes,omitempty"`
	Ratio       float64 `json:"ratio,omitempty"`
	SizesKnown  bool    `json:"sizes_known"`
}

// NewJobSuccess creates a successful result for the given job.
func NewJobSuccess(job OutputJob, outputPath string) JobResult {
	return JobResult{
		Index:      job.Index,
		OutputPath: outputPath,
		Segments:   job.Selection,
		BGM:        job.BGM,
	}
}

// NewJobFailure creates a failed result, annotating the error with the job
// index and failing stage.
func NewJobFailure(job OutputJob, stage string, err error) JobResult {
	return JobResult{
		Index:    job.Index,
		Segments: job.Selection,
		BGM:      job.BGM,
		Err:      fmt.Errorf("job %d: %s: %w", job.Index, stage, err),
	}
}

// Succeeded reports whether the job produced an output.
func (r JobResult) Succeeded() bool {
	return r.Err == nil && r.OutputPath != ""
}

// Validate checks result consistency: a success must carry an output path and
// no error, a failure the reverse.
func (r JobResult) Validate() error {
	if r.Err == nil && r.OutputPath == "" {
		return fmt.Errorf("result without error must have an output path")
	}
	if r.Err != nil && r.OutputPath != "" {
		return fmt.Errorf("failed result cannot have an output path")
	}
	return nil
}

// Message renders a one-line human summary of the result.
func (r JobResult) Message() string {
	if !r.Succeeded() {
		return fmt.Sprintf("output %d failed: %v", r.Index, r.Err)
	}
	if r.SizesKnown {
		return fmt.Sprintf("output %d done: %s (in %s, out %s, ratio %.2f)",
			r.Index, r.OutputPath, FormatBytes(r.InputBytes), FormatBytes(r.OutputBytes), r.Ratio)
	}
	return fmt.Sprintf("output %d done: %s (sizes unknown)", r.Index, r.OutputPath)
}

// FormatBytes renders a byte count in human units, e.g. "12.3 MB".
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
