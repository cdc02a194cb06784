package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"mixer/command"
	"mixer/config"
	"mixer/models"
	"mixer/workflow"
)

func main() {
	// Optional .env next to the binary: FFMPEG_PATH, FFPROBE_PATH overrides
	_ = godotenv.Load()

	// Step 1: Load configuration (CLI flags > config file > defaults)
	settings, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Step 2: Handle dry-run mode
	if settings.DryRun {
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println("                      DRY RUN MODE")
		fmt.Println("═══════════════════════════════════════════════════════════")
		settings.PrintConfig()
		fmt.Println("\n✓ Configuration is valid. No mixing will be performed.")
		return
	}

	// Step 3: Set up context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 4: Register signal handlers (Ctrl+C, SIGTERM)
	var interrupted atomic.Bool
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		interrupted.Store(true)
		fmt.Println("\n\n⚠️  Interrupt received, stopping after in-flight work...")
		cancel()
	}()

	// Step 5: Run the mixing workflow
	os.Exit(run(ctx, settings, &interrupted))
}

// run executes the workflow and maps its outcome to an exit code: 0 when at
// least one output was produced, 1 on failure, 2 when an external tool is
// missing, 130 when the user interrupted the run.
func run(ctx context.Context, settings *config.Settings, interrupted *atomic.Bool) int {
	startTime := time.Now()

	logger, closeLog, err := openRunLog(settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to open run log: %v\n", err)
		return 1
	}
	defer closeLog()

	printBanner(settings)
	logger.Info().
		Strs("video_dirs", settings.VideoDirs).
		Str("bgm", settings.BGM).
		Int("outputs", settings.Outputs).
		Int("count", settings.Count).
		Int("threads", settings.Threads).
		Msg("run starting")

	bar := progressbar.NewOptions64(workflow.ProgressScale,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("starting"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	callbacks := workflow.Callbacks{
		OnLog: func(msg string) {
			logger.Info().Msg(msg)
			if settings.Verbose {
				_ = bar.Clear()
				fmt.Printf("  %s\n", msg)
			}
		},
		OnPhase: func(phase string) {
			_ = bar.Clear()
			printPhase(phase)
			bar.Describe(phaseLabel(phase))
		},
		OnProgress: func(current, total int64) {
			_ = bar.Set64(current)
		},
		OnJobDone: func(result models.JobResult) {
			if result.Succeeded() {
				logger.Info().
					Int("index", result.Index).
					Str("output", result.OutputPath).
					Str("bgm", result.BGM).
					Int64("input_bytes", result.InputBytes).
					Int64("output_bytes", result.OutputBytes).
					Float64("ratio", result.Ratio).
					Msg("output done")
				_ = bar.Clear()
				color.Green("  ✓ %s", result.Message())
			} else {
				logger.Error().
					Int("index", result.Index).
					Err(result.Err).
					Msg("output failed")
			}
		},
		OnError: func(err error) {
			logger.Error().Err(err).Msg("error")
			_ = bar.Clear()
			color.Red("  ✗ %v", err)
		},
	}

	w := workflow.New(settings, callbacks)
	summary, err := w.Run(ctx)
	if err != nil {
		_ = bar.Clear()
		var toolErr *command.ToolMissingError
		if errors.As(err, &toolErr) {
			fmt.Fprintf(os.Stderr, "\n❌ %v\n", err)
			fmt.Fprintln(os.Stderr, "   Install FFmpeg or set FFMPEG_PATH / FFPROBE_PATH.")
			logger.Error().Err(err).Msg("missing external tool")
			return 2
		}
		fmt.Fprintf(os.Stderr, "\n❌ Run failed: %v\n", err)
		logger.Error().Err(err).Msg("run aborted")
		return 1
	}
	_ = bar.Clear()

	printSummary(summary, time.Since(startTime))
	logger.Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Int64("seed", summary.Seed).
		Int64("cache_hits", summary.CacheHits).
		Int64("cache_builds", summary.CacheBuilds).
		Dur("elapsed", time.Since(startTime)).
		Msg("run finished")

	if interrupted.Load() {
		fmt.Println("\n⚠️  Run interrupted; results above are partial")
		return 130
	}
	if summary.Succeeded == 0 {
		return 1
	}
	return 0
}

// openRunLog opens the JSONL run log, creating its directory when needed.
func openRunLog(settings *config.Settings) (zerolog.Logger, func(), error) {
	path := settings.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return zerolog.Logger{}, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Logger{}, nil, err
	}
	logger := zerolog.New(f).With().Timestamp().Logger()
	return logger, func() { f.Close() }, nil
}

func printBanner(settings *config.Settings) {
	fmt.Println("╔════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                    MIXER - BATCH RUN START                     ║")
	fmt.Println("╚════════════════════════════════════════════════════════════════╝")
	fmt.Printf("Inputs:  %s\n", strings.Join(settings.VideoDirs, ", "))
	fmt.Printf("BGM:     %s\n", settings.BGM)
	fmt.Printf("Output:  %s\n", settings.OutputDir())
	fmt.Printf("Batch:   %d outputs × %d clips\n", settings.Outputs, settings.Count)
	fmt.Println()
}

func printPhase(phase string) {
	var title string
	switch phase {
	case "scan":
		title = "📊 Catalog Scan"
	case "precache":
		title = "🔥 Cache Warm-up"
	case "mix":
		title = "🎬 Mixing"
	default:
		title = phase
	}
	fmt.Println(title)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
}

func phaseLabel(phase string) string {
	switch phase {
	case "scan":
		return "scanning"
	case "precache":
		return "warming cache"
	case "mix":
		return "mixing"
	}
	return phase
}

func printSummary(summary *workflow.Summary, elapsed time.Duration) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	if summary.Succeeded > 0 {
		color.Green("                     ✅ RUN COMPLETE")
	} else {
		color.Red("                     ❌ RUN FAILED")
	}
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("  Outputs:     %d succeeded, %d failed, %d skipped\n",
		summary.Succeeded, summary.Failed, summary.Skipped)
	fmt.Printf("  Seed:        %d\n", summary.Seed)
	fmt.Printf("  Cache:       %d hits, %d builds\n", summary.CacheHits, summary.CacheBuilds)
	fmt.Printf("  Total time:  %.2fs\n", elapsed.Seconds())
	fmt.Println()
	for _, result := range summary.Results {
		if result.Succeeded() {
			if result.SizesKnown {
				fmt.Printf("  ✓ %s (%s in, %s out, ratio %.2f)\n", result.OutputPath,
					models.FormatBytes(result.InputBytes), models.FormatBytes(result.OutputBytes), result.Ratio)
			} else {
				fmt.Printf("  ✓ %s\n", result.OutputPath)
			}
		} else {
			fmt.Printf("  ✗ output %d: %v\n", result.Index, result.Err)
		}
	}
	fmt.Println("═══════════════════════════════════════════════════════════")
}
