// Package command provides the Command interface implemented by the FFmpeg
// argument builders and the Runner seam every external tool call goes
// through.
//
// All specialized builders (Transcode, Concat, Mux) implement the Command
// interface; the pipeline executes them through a single Runner so tests can
// substitute a fake subprocess layer.
package command

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// TaskType represents the type of pipeline task a command performs.
type TaskType string

const (
	TaskTypeTranscode TaskType = "transcode" // normalize one clip into the cache
	TaskTypeConcat    TaskType = "concat"    // stitch cached segments
	TaskTypeMux       TaskType = "mux"       // replace the audio track
	TaskTypeProbe     TaskType = "probe"     // inspect a media file
)

// Command represents an FFmpeg invocation that can be built or previewed.
//
// BuildArgs returns the argument slice suitable for the Runner; DryRun
// renders the full command line without executing it.
type Command interface {
	// BuildArgs constructs the FFmpeg command arguments as a slice.
	BuildArgs() []string

	// DryRun returns the command as a printable string without executing it.
	// Returns an error if the command cannot be built from the current
	// parameters.
	DryRun() (string, error)

	// GetTaskType returns the pipeline task this command performs.
	GetTaskType() TaskType

	// GetInputPath returns the primary input file path for this command.
	GetInputPath() string

	// GetOutputPath returns the output file path for this command.
	GetOutputPath() string
}

// Runner executes an external tool and returns its combined output.
//
// Production code uses ExecRunner; tests substitute a RunnerFunc that fakes
// subprocess behavior. The context must cancel the running process.
type Runner interface {
	Run(ctx context.Context, name string, args []string) ([]byte, error)
}

// RunnerFunc adapts a plain function to the Runner interface.
type RunnerFunc func(ctx context.Context, name string, args []string) ([]byte, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, name string, args []string) ([]byte, error) {
	return f(ctx, name, args)
}

// ExecRunner runs commands through os/exec, capturing stdout and stderr
// together. Cancelling the context kills the subprocess.
type ExecRunner struct{}

// Run executes the command and blocks until it exits.
func (ExecRunner) Run(ctx context.Context, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// maxErrOutput caps how much tool output an error message carries; FFmpeg
// failures report at the end of their output.
const maxErrOutput = 1000

// Exec builds and runs cmd through the given runner, returning the tool's
// combined output. On failure the error embeds the tail of that output.
func Exec(ctx context.Context, r Runner, tool string, cmd Command) ([]byte, error) {
	args := cmd.BuildArgs()
	output, err := r.Run(ctx, tool, args)
	if err != nil {
		return output, fmt.Errorf("ffmpeg command failed: %w (output: %s)", err, tailOf(output))
	}
	return output, nil
}

func tailOf(output []byte) string {
	trimmed := bytes.TrimSpace(output)
	if len(trimmed) > maxErrOutput {
		trimmed = trimmed[len(trimmed)-maxErrOutput:]
	}
	return string(trimmed)
}

// Tools holds the resolved external tool executables.
type Tools struct {
	FFmpeg  string
	FFprobe string
}

// ToolMissingError reports that a required external executable could not be
// located. No job can proceed without it.
type ToolMissingError struct {
	Tool string
	Err  error
}

func (e *ToolMissingError) Error() string {
	return fmt.Sprintf("external tool %q not found: %v", e.Tool, e.Err)
}

func (e *ToolMissingError) Unwrap() error {
	return e.Err
}

// LookupTools resolves the ffmpeg and ffprobe executables. The FFMPEG_PATH
// and FFPROBE_PATH environment variables override PATH lookup, so bundled or
// non-standard installs work without shell configuration.
func LookupTools() (Tools, error) {
	ffmpeg, err := lookupTool("ffmpeg", os.Getenv("FFMPEG_PATH"))
	if err != nil {
		return Tools{}, err
	}
	ffprobe, err := lookupTool("ffprobe", os.Getenv("FFPROBE_PATH"))
	if err != nil {
		return Tools{}, err
	}
	return Tools{FFmpeg: ffmpeg, FFprobe: ffprobe}, nil
}

func lookupTool(name, override string) (string, error) {
	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", &ToolMissingError{Tool: name, Err: err}
		}
		return override, nil
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", &ToolMissingError{Tool: name, Err: err}
	}
	return path, nil
}
