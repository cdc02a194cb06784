// Package mux builds the FFmpeg command that replaces the audio track of a
// concatenated video with a background music track.
package mux

import (
	"strings"

	"mixer/command"
	"mixer/internal/timeutil"
)

// MuxBuilder assembles the audio-replacement invocation. The BGM input is
// looped indefinitely and -shortest bounds the output to the video length, so
// a short track repeats and a long one is truncated; video is stream-copied
// and audio re-encoded to AAC.
type MuxBuilder struct {
	videoPath  string
	bgmPath    string
	outputPath string

	audioBitrate   string
	targetDuration float64
}

// NewMuxBuilder creates a mux command builder for one final output.
func NewMuxBuilder(videoPath, bgmPath, outputPath string) *MuxBuilder {
	return &MuxBuilder{
		videoPath:    videoPath,
		bgmPath:      bgmPath,
		outputPath:   outputPath,
		audioBitrate: "128k",
	}
}

// SetAudioBitrate sets the AAC bitrate for the replaced track (e.g. "192k").
func (m *MuxBuilder) SetAudioBitrate(bitrate string) *MuxBuilder {
	m.audioBitrate = bitrate
	return m
}

// SetTargetDuration adds an explicit duration cap in seconds. Zero relies on
// -shortest alone, which already ends the mux at the video stream's end.
func (m *MuxBuilder) SetTargetDuration(seconds float64) *MuxBuilder {
	m.targetDuration = seconds
	return m
}

// BuildArgs constructs the ffmpeg arguments for the audio replacement.
func (m *MuxBuilder) BuildArgs() []string {
	args := []string{
		"-fflags", "+genpts",
		"-i", m.videoPath,
		"-stream_loop", "-1",
		"-i", m.bgmPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", m.audioBitrate,
		"-shortest",
	}

	if m.targetDuration > 0 {
		args = append(args, "-t", timeutil.FormatSeconds(m.targetDuration))
	}

	args = append(args,
		"-movflags", "+faststart",
		"-map_metadata", "-1",
		"-y", m.outputPath,
	)

	return args
}

// DryRun returns the command that would be executed without running it.
func (m *MuxBuilder) DryRun() (string, error) {
	return "ffmpeg " + strings.Join(m.BuildArgs(), " "), nil
}

// GetTaskType returns the task type identifier.
func (m *MuxBuilder) GetTaskType() command.TaskType {
	return command.TaskTypeMux
}

// GetInputPath returns the video input path.
func (m *MuxBuilder) GetInputPath() string {
	return m.videoPath
}

// GetOutputPath returns the output file path.
func (m *MuxBuilder) GetOutputPath() string {
	return m.outputPath
}
