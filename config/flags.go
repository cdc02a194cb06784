package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// MergeFromFlags parses command-line flags and overrides settings values
func (s *Settings) MergeFromFlags() error {
	// Define flags
	fs := flag.NewFlagSet("mixer", flag.ContinueOnError)
	fs.Usage = printUsage

	// Required fields
	videoDirs := fs.String("video-dirs", "", "Comma-separated input clip directories (required)")
	bgm := fs.String("bgm", "", "Background track: audio file or directory (required)")
	output := fs.String("output", "", "Output directory, or .mp4 path used as a name template")

	// Config file override (handled by LoadSettings before this function is called)
	_ = fs.String("config", "", "Path to config file (default: search standard locations)")

	// Batch shape
	outputs := fs.Int("outputs", -1, "Number of mixed videos to produce (default: from config)")
	count := fs.Int("count", -1, "Clips per output (default: from config)")
	threads := fs.Int("threads", -1, "Number of parallel workers (0 = auto-detect, default: from config)")
	seed := fs.Int64("seed", 0, "Run seed for reproducible selection (0 = derive one)")

	// Selection
	groupRes := fs.Bool("group-res", false, "Partition clips by native resolution before selection")
	noGroupRes := fs.Bool("no-group-res", false, "Disable resolution grouping")

	// Normalization settings
	width := fs.Int("width", -1, "Target width (default: from config)")
	height := fs.Int("height", -1, "Target height (default: from config)")
	fps := fs.Int("fps", -1, "Target frame rate (default: from config)")
	fill := fs.String("fill", "", "Aspect fill mode: pad, crop (default: from config)")

	// Trim settings
	trimHead := fs.Float64("trim-head", -1, "Seconds cut from each clip's head (default: from config)")
	trimTail := fs.Float64("trim-tail", -1, "Seconds cut from each clip's tail (default: from config)")

	// Encoder settings
	gpu := fs.Bool("gpu", false, "Prefer the hardware encoder when present")
	noGPU := fs.Bool("no-gpu", false, "Force software encoding")
	quality := fs.String("quality", "", "Quality tier: visual, balanced, size (default: from config)")

	// Cache settings
	cacheDir := fs.String("cache-dir", "", "Segment cache directory (default: derived from first input dir)")
	precache := fs.Bool("precache", false, "Warm every (clip, trim) cache entry before mixing")
	clearMismatch := fs.Bool("clear-cache-mismatch", false, "Sweep stale cache entries up front")

	// Behavioral flags
	logFile := fs.String("log-file", "", "Run-log path (default: derived from output dir)")
	verbose := fs.Bool("verbose", false, "Enable verbose logging")
	dryRun := fs.Bool("dry-run", false, "Show resolved configuration without mixing")

	// Parse flags
	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	// Override with flag values (only if explicitly set)
	if *videoDirs != "" {
		s.VideoDirs = splitDirs(*videoDirs)
	}
	if *bgm != "" {
		s.BGM = *bgm
	}
	if *output != "" {
		s.Output = *output
	}

	// Batch shape (only override if explicitly set, -1 means not set)
	if *outputs >= 0 {
		s.Outputs = *outputs
	}
	if *count >= 0 {
		s.Count = *count
	}
	if *threads >= 0 {
		s.Threads = *threads
	}
	if *seed != 0 {
		s.Seed = *seed
	}

	// Handle bool pairs
	if *groupRes {
		s.GroupRes = true
	}
	if *noGroupRes {
		s.GroupRes = false
	}
	if *gpu {
		s.Encode.GPU = true
	}
	if *noGPU {
		s.Encode.GPU = false
	}

	// Normalization settings
	if *width > 0 {
		s.Normalize.Width = *width
	}
	if *height > 0 {
		s.Normalize.Height = *height
	}
	if *fps > 0 {
		s.Normalize.FPS = *fps
	}
	if *fill != "" {
		s.Normalize.Fill = *fill
	}

	// Trim settings
	if *trimHead >= 0 {
		s.Trim.Head = *trimHead
	}
	if *trimTail >= 0 {
		s.Trim.Tail = *trimTail
	}

	// Encoder settings
	if *quality != "" {
		s.Encode.Quality = *quality
	}

	// Cache settings
	if *cacheDir != "" {
		s.Cache.Dir = *cacheDir
	}
	if *precache {
		s.Cache.Precache = true
	}
	if *clearMismatch {
		s.Cache.ClearMismatch = true
	}

	// Behavioral flags
	if *logFile != "" {
		s.LogFile = *logFile
	}
	if *verbose {
		s.Verbose = true
	}
	if *dryRun {
		s.DryRun = true
	}

	return nil
}

// splitDirs splits a comma-separated directory list, dropping empty entries.
func splitDirs(list string) []string {
	var dirs []string
	for _, dir := range strings.Split(list, ",") {
		dir = strings.TrimSpace(dir)
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// PrintConfig prints the resolved configuration
func (s *Settings) PrintConfig() {
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("                 Effective Configuration                  ")
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Printf("Video Dirs:     %s\n", strings.Join(s.VideoDirs, ", "))
	fmt.Printf("BGM:            %s\n", s.BGM)
	fmt.Printf("Output Dir:     %s\n", s.OutputDir())
	fmt.Printf("Outputs:        %d\n", s.Outputs)
	fmt.Printf("Clips/Output:   %d\n", s.Count)
	fmt.Printf("Threads:        %d\n", s.Threads)
	if s.Seed != 0 {
		fmt.Printf("Seed:           %d\n", s.Seed)
	} else {
		fmt.Println("Seed:           auto")
	}
	fmt.Printf("Group by Res:   %v\n", s.GroupRes)

	fmt.Println("\nNormalization:")
	fmt.Printf("  Resolution:   %dx%d\n", s.Normalize.Width, s.Normalize.Height)
	fmt.Printf("  Frame Rate:   %d\n", s.Normalize.FPS)
	fmt.Printf("  Fill:         %s\n", s.Normalize.Fill)
	fmt.Printf("  Trim:         head %.1fs, tail %.1fs\n", s.Trim.Head, s.Trim.Tail)

	fmt.Println("\nEncoder:")
	fmt.Printf("  GPU Preferred: %v\n", s.Encode.GPU)
	fmt.Printf("  Quality:       %s\n", s.Encode.Quality)

	fmt.Println("\nCache:")
	fmt.Printf("  Directory:    %s\n", s.CacheDir())
	fmt.Printf("  Precache:     %v\n", s.Cache.Precache)
	fmt.Printf("  Clear Stale:  %v\n", s.Cache.ClearMismatch)

	fmt.Println("\nBehavioral Flags:")
	fmt.Printf("  Log File:     %s\n", s.LogPath())
	fmt.Printf("  Verbose:      %v\n", s.Verbose)
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// printUsage prints help text
func printUsage() {
	fmt.Fprintf(os.Stderr, `mixer - Batch mixed-video producer

USAGE:
  mixer -video-dirs DIR[,DIR...] -bgm PATH [OPTIONS]

REQUIRED FLAGS:
  -video-dirs string
        Comma-separated input clip directories (required)
  -bgm string
        Background track: audio file or directory of audio files (required)

CONFIGURATION:
  -config string
        Path to config file (default: search ./mixer.yaml, ~/.mixer/config.yaml, /etc/mixer/config.yaml)

BATCH SHAPE:
  -outputs int
        Number of mixed videos to produce (default: 1)
  -count int
        Clips per output (default: 5)
  -threads int
        Number of parallel workers (0 = auto-detect CPU count) (default: 4)
  -seed int
        Run seed for reproducible selection (0 = derive one and report it)

SELECTION:
  --group-res
        Partition clips by native resolution before selection (default: true)
  --no-group-res
        Disable resolution grouping

NORMALIZATION:
  -width int
        Target width (default: 1080)
  -height int
        Target height (default: 1920)
  -fps int
        Target frame rate (default: 25)
  -fill string
        Aspect fill mode: pad, crop (default: pad)
  -trim-head float
        Seconds cut from each clip's head (default: 0)
  -trim-tail float
        Seconds cut from each clip's tail (default: 1)

ENCODER:
  --gpu
        Prefer the hardware encoder when present (default: true)
  --no-gpu
        Force software encoding
  -quality string
        Quality tier: visual, balanced, size (default: balanced)

CACHE:
  -cache-dir string
        Segment cache directory (default: <first input dir>_segcache)
  --precache
        Warm every (clip, trim) cache entry before mixing
  --clear-cache-mismatch
        Sweep stale cache entries up front instead of on miss

OUTPUT & LOGGING:
  -output string
        Output directory, or a .mp4 path used as a name template (single input dir only)
  -log-file string
        Run-log path (default: <output dir>/mixer_run.log)
  --verbose
        Enable verbose logging
  --dry-run
        Show resolved configuration without mixing

EXAMPLES:
  # One vertical mix of five clips from ./clips with a random BGM from ./music
  mixer -video-dirs ./clips -bgm ./music

  # Ten reproducible outputs, eight clips each, software encoding
  mixer -video-dirs ./clips -bgm track.mp3 -outputs 10 -count 8 -seed 42 --no-gpu
`)
}
