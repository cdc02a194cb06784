// Package transcode builds the FFmpeg command that turns one raw clip into a
// normalized, audio-free MPEG-TS cache segment.
package transcode

import (
	"fmt"
	"strings"

	"mixer/command"
	"mixer/internal/timeutil"
	"mixer/models"
)

// TranscodeBuilder assembles the arguments for one cache-segment build: head
// seek, duration cap, scale to the normalization profile with pad or crop,
// constant frame rate, audio strip, and timestamp regeneration for sources
// with missing or irregular timing.
type TranscodeBuilder struct {
	sourcePath string
	outputPath string

	// Playback window (seconds); length 0 means through end of stream
	start  float64
	length float64

	profile  models.NormalizationProfile
	encoding models.EncodingProfile
}

// NewTranscodeBuilder creates a transcode command builder for one source clip.
func NewTranscodeBuilder(sourcePath, outputPath string) *TranscodeBuilder {
	return &TranscodeBuilder{
		sourcePath: sourcePath,
		outputPath: outputPath,
	}
}

// SetWindow sets the playback window: start offset and kept length in
// seconds. A length of 0 keeps the clip through end of stream.
func (t *TranscodeBuilder) SetWindow(start, length float64) *TranscodeBuilder {
	t.start = start
	t.length = length
	return t
}

// SetProfile sets the normalization profile (resolution, fps, fill mode).
func (t *TranscodeBuilder) SetProfile(p models.NormalizationProfile) *TranscodeBuilder {
	t.profile = p
	return t
}

// SetEncoding sets the resolved encoder family and its quality knobs.
func (t *TranscodeBuilder) SetEncoding(e models.EncodingProfile) *TranscodeBuilder {
	t.encoding = e
	return t
}

// BuildArgs constructs the ffmpeg arguments for the cache-segment build.
func (t *TranscodeBuilder) BuildArgs() []string {
	args := []string{}

	// Input seek before -i: decode starts at the head offset
	if t.start > 0 {
		args = append(args, "-ss", timeutil.FormatSeconds(t.start))
	}

	// Regenerate presentation timestamps for sources with broken timing
	args = append(args, "-fflags", "+genpts", "-i", t.sourcePath)

	if t.length > 0 {
		args = append(args, "-t", timeutil.FormatSeconds(t.length))
	}

	args = append(args,
		"-vf", t.buildFilterChain(),
		"-sws_flags", "lanczos+accurate_rnd+full_chroma_int",
		"-an",
	)

	if t.encoding.Hardware {
		args = append(args,
			"-c:v", t.encoding.Encoder,
			"-preset", t.encoding.Preset,
			"-rc", "vbr",
			"-cq", fmt.Sprintf("%d", t.encoding.CQ),
			"-b:v", "0",
		)
	} else {
		args = append(args,
			"-c:v", t.encoding.Encoder,
			"-preset", t.encoding.Preset,
			"-crf", fmt.Sprintf("%d", t.encoding.CRF),
		)
	}

	args = append(args,
		"-fps_mode", "cfr",
		"-avoid_negative_ts", "make_zero",
		"-f", "mpegts",
		"-y", t.outputPath,
	)

	return args
}

// buildFilterChain scales to the target resolution and either letterboxes
// (pad) or center-crops (crop) the remainder, then locks fps and pixel
// format. Every cached segment must come out of the same chain so the
// concat demuxer can stream-copy them.
func (t *TranscodeBuilder) buildFilterChain() string {
	w, h := t.profile.Width, t.profile.Height

	var filters []string
	if t.profile.Fill == models.FillCrop {
		filters = []string{
			fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase:flags=lanczos", w, h),
			fmt.Sprintf("crop=%d:%d", w, h),
		}
	} else {
		filters = []string{
			fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease:flags=lanczos", w, h),
			fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black", w, h),
		}
	}

	filters = append(filters,
		fmt.Sprintf("fps=%d", t.profile.FPS),
		"format=yuv420p",
	)

	return strings.Join(filters, ",")
}

// DryRun returns the command that would be executed without running it.
func (t *TranscodeBuilder) DryRun() (string, error) {
	if err := t.profile.Validate(); err != nil {
		return "", fmt.Errorf("cannot build transcode command: %w", err)
	}
	return "ffmpeg " + strings.Join(t.BuildArgs(), " "), nil
}

// GetTaskType returns the task type identifier.
func (t *TranscodeBuilder) GetTaskType() command.TaskType {
	return command.TaskTypeTranscode
}

// GetInputPath returns the input file path.
func (t *TranscodeBuilder) GetInputPath() string {
	return t.sourcePath
}

// GetOutputPath returns the output file path.
func (t *TranscodeBuilder) GetOutputPath() string {
	return t.outputPath
}
