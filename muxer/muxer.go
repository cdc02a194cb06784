// Package muxer replaces the audio track of a stitched video with a looped
// background music track.
package muxer

import (
	"context"
	"fmt"
	"os"

	"mixer/command"
	"mixer/command/mux"
)

// MuxError reports a failed audio replacement. The owning job fails; cached
// segments and other jobs are unaffected.
type MuxError struct {
	Video string
	BGM   string
	Cause error
}

func (e *MuxError) Error() string {
	return fmt.Sprintf("failed to mux %s with %s: %v", e.Video, e.BGM, e.Cause)
}

func (e *MuxError) Unwrap() error {
	return e.Cause
}

// Muxer performs audio replacement through the shared runner.
type Muxer struct {
	runner command.Runner
	tool   string
}

// NewMuxer creates a muxer that runs ffmpeg through the given runner.
func NewMuxer(runner command.Runner, tool string) *Muxer {
	return &Muxer{
		runner: runner,
		tool:   tool,
	}
}

// ReplaceAudio writes outputPath carrying videoPath's video stream and
// bgmPath's audio. The BGM loops for as long as the video runs and is cut at
// the video's end; original audio, if any, is discarded. An empty bitrate
// keeps the builder default.
func (m *Muxer) ReplaceAudio(ctx context.Context, videoPath, bgmPath, outputPath, audioBitrate string) error {
	builder := mux.NewMuxBuilder(videoPath, bgmPath, outputPath)
	if audioBitrate != "" {
		builder.SetAudioBitrate(audioBitrate)
	}

	if _, err := command.Exec(ctx, m.runner, m.tool, builder); err != nil {
		return &MuxError{Video: videoPath, BGM: bgmPath, Cause: err}
	}

	// Verify output file was created
	if _, err := os.Stat(outputPath); err != nil {
		return &MuxError{Video: videoPath, BGM: bgmPath, Cause: fmt.Errorf("output file not created: %w", err)}
	}

	return nil
}
