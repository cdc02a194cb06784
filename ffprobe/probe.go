// Package ffprobe provides a typed wrapper around ffprobe's JSON output for
// the media attributes the pipeline needs: duration, resolution, frame rate.
//
// Probing goes through the same Runner seam as every other tool call, so
// tests can fake probe results without an ffprobe binary.
package ffprobe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"mixer/command"
	"mixer/models"
)

// Stream represents a single media stream within the probed file.
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	RFrameRate   string `json:"r_frame_rate,omitempty"`
	AvgFrameRate string `json:"avg_frame_rate,omitempty"`
	Duration     string `json:"duration,omitempty"`
}

// Format represents the container format information. ffprobe renders the
// numeric fields as strings; use the helpers for parsed values.
type Format struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// ProbeResult holds the metadata extracted from one media file.
type ProbeResult struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// GetDuration returns the container duration in seconds, falling back to the
// longest stream duration when the container does not carry one. Returns 0
// when no duration is available at all.
func (r *ProbeResult) GetDuration() float64 {
	if d, err := strconv.ParseFloat(r.Format.Duration, 64); err == nil && d > 0 {
		return d
	}
	var longest float64
	for _, s := range r.Streams {
		if d, err := strconv.ParseFloat(s.Duration, 64); err == nil && d > longest {
			longest = d
		}
	}
	return longest
}

// GetVideoStreams returns all video streams in the file.
func (r *ProbeResult) GetVideoStreams() []Stream {
	var streams []Stream
	for _, s := range r.Streams {
		if s.CodecType == "video" {
			streams = append(streams, s)
		}
	}
	return streams
}

// GetAudioStreams returns all audio streams in the file.
func (r *ProbeResult) GetAudioStreams() []Stream {
	var streams []Stream
	for _, s := range r.Streams {
		if s.CodecType == "audio" {
			streams = append(streams, s)
		}
	}
	return streams
}

// FrameRate parses the stream's frame rate fraction ("30000/1001" → 29.97),
// preferring r_frame_rate and falling back to avg_frame_rate.
func (s Stream) FrameRate() float64 {
	if fps := parseFraction(s.RFrameRate); fps > 0 {
		return fps
	}
	return parseFraction(s.AvgFrameRate)
}

func parseFraction(frac string) float64 {
	num, den, found := strings.Cut(frac, "/")
	if !found {
		f, _ := strconv.ParseFloat(frac, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

// Prober runs ffprobe through the shared Runner.
type Prober struct {
	runner command.Runner
	tool   string
}

// NewProber creates a Prober bound to the given runner and ffprobe
// executable.
func NewProber(runner command.Runner, tool string) *Prober {
	return &Prober{runner: runner, tool: tool}
}

// Probe extracts the streams and format of the given media file with a
// single ffprobe invocation.
//
// Example:
//
//	prober := ffprobe.NewProber(command.ExecRunner{}, tools.FFprobe)
//	result, err := prober.Probe(ctx, "/videos/clip.mp4")
//	if err != nil {
//	    return err
//	}
//	duration := result.GetDuration()
func (p *Prober) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	output, err := p.runner.Run(ctx, p.tool, args)
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output for %s: %w", path, err)
	}

	return &result, nil
}

// MediaInfo probes the file and condenses the first video stream plus the
// container duration into the model the pipeline consumes. Files without a
// video stream are an error; clips must carry video to enter a mix.
func (p *Prober) MediaInfo(ctx context.Context, path string) (models.MediaInfo, error) {
	result, err := p.Probe(ctx, path)
	if err != nil {
		return models.MediaInfo{}, err
	}

	info := models.MediaInfo{Duration: result.GetDuration()}
	if videos := result.GetVideoStreams(); len(videos) > 0 {
		info.Width = videos[0].Width
		info.Height = videos[0].Height
		info.FPS = videos[0].FrameRate()
	}

	if info.Width == 0 || info.Height == 0 {
		return info, fmt.Errorf("no video stream found in %s", path)
	}

	return info, nil
}
