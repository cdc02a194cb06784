// Package concat builds the FFmpeg command that stitches normalized cache
// segments into one silent video through the concat demuxer.
package concat

import (
	"strings"

	"mixer/command"
)

// ConcatBuilder assembles the concat-demuxer invocation. Segments are already
// normalized to one profile, so the stitch is a stream copy; timestamps are
// regenerated to stay continuous across segment boundaries.
type ConcatBuilder struct {
	listPath   string
	outputPath string
}

// NewConcatBuilder creates a concat command builder from a concat-demuxer
// list file.
func NewConcatBuilder(listPath, outputPath string) *ConcatBuilder {
	return &ConcatBuilder{
		listPath:   listPath,
		outputPath: outputPath,
	}
}

// BuildArgs constructs the ffmpeg arguments for the stitch.
func (c *ConcatBuilder) BuildArgs() []string {
	return []string{
		"-f", "concat",
		"-safe", "0",
		"-fflags", "+genpts",
		"-i", c.listPath,
		"-c", "copy",
		"-an",
		"-avoid_negative_ts", "make_zero",
		"-movflags", "+faststart",
		"-map_metadata", "-1",
		"-y", c.outputPath,
	}
}

// DryRun returns the command that would be executed without running it.
func (c *ConcatBuilder) DryRun() (string, error) {
	return "ffmpeg " + strings.Join(c.BuildArgs(), " "), nil
}

// GetTaskType returns the task type identifier.
func (c *ConcatBuilder) GetTaskType() command.TaskType {
	return command.TaskTypeConcat
}

// GetInputPath returns the concat list file path.
func (c *ConcatBuilder) GetInputPath() string {
	return c.listPath
}

// GetOutputPath returns the output file path.
func (c *ConcatBuilder) GetOutputPath() string {
	return c.outputPath
}
