// Package workflow drives a complete mixing run: scan the catalog, resolve
// the encoder, plan the output jobs, warm the segment cache when asked,
// dispatch the jobs, and summarize the outcome.
//
// The workflow owns no presentation. Callers observe the run through
// Callbacks and render progress however they like; every callback is
// optional.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"mixer/cache"
	"mixer/catalog"
	"mixer/command"
	"mixer/concatenator"
	"mixer/config"
	"mixer/ffprobe"
	"mixer/models"
	"mixer/muxer"
	"mixer/profile"
	"mixer/report"
	"mixer/scheduler"
	"mixer/selector"
)

// ProgressScale is the denominator of every OnProgress call; progress runs
// from 0 to ProgressScale over the whole run.
const ProgressScale int64 = 1000

// precacheSpan is the slice of the progress scale the warm-up phase covers
// when enabled; mixing covers the rest.
const precacheSpan int64 = 300

// Callbacks let a caller observe the run. All fields are optional; a nil
// callback is skipped. Callbacks can fire from concurrent worker goroutines
// and must be safe for concurrent use.
type Callbacks struct {
	// OnLog receives one-line human-readable progress messages.
	OnLog func(msg string)

	// OnPhase announces the phase being entered: "scan", "precache", "mix".
	OnPhase func(phase string)

	// OnProgress reports overall completion as current out of ProgressScale.
	OnProgress func(current, total int64)

	// OnJobDone fires once per finished output job, success or failure.
	OnJobDone func(result models.JobResult)

	// OnError receives non-fatal errors: failed jobs, failed warm-ups,
	// failed cache sweeps. Fatal setup errors are returned from Run instead.
	OnError func(err error)
}

// Summary is the terminal state of a run.
type Summary struct {
	Results   []models.JobResult
	Succeeded int
	Failed    int
	Skipped   int

	// Seed is the run seed actually used, derived when the settings left it
	// zero. Passing it back reproduces the run.
	Seed int64

	CacheHits   int64
	CacheBuilds int64
}

// Workflow executes one mixing run over fixed settings.
type Workflow struct {
	settings  *config.Settings
	callbacks Callbacks

	runner        command.Runner
	tools         command.Tools
	toolsResolved bool

	// filled during Run
	trim     models.TrimSpec
	enc      models.EncodingProfile
	assets   []*models.SourceAsset
	tracks   []string
	prober   *ffprobe.Prober
	store    *cache.Cache
	concat   *concatenator.Concatenator
	mux      *muxer.Muxer
	reporter *report.Reporter
}

// New creates a workflow over the real subprocess runner. The external tools
// are resolved from the environment when Run starts.
func New(settings *config.Settings, callbacks Callbacks) *Workflow {
	return &Workflow{
		settings:  settings,
		callbacks: callbacks,
		runner:    command.ExecRunner{},
	}
}

// NewWithRunner creates a workflow with an injected runner and pre-resolved
// tools, so tests can fake the subprocess layer.
func NewWithRunner(settings *config.Settings, callbacks Callbacks, runner command.Runner, tools command.Tools) *Workflow {
	return &Workflow{
		settings:      settings,
		callbacks:     callbacks,
		runner:        runner,
		tools:         tools,
		toolsResolved: true,
	}
}

// Run executes the whole run and returns its summary.
//
// Setup failures (bad settings, missing tools, empty catalog, unusable cache
// directory) return a nil summary and the error. Once jobs are dispatched the
// run always returns a summary: individual job failures and cancellation are
// recorded in it rather than returned.
func (w *Workflow) Run(ctx context.Context) (*Summary, error) {
	if err := w.settings.Validate(); err != nil {
		return nil, err
	}
	if !w.toolsResolved {
		tools, err := command.LookupTools()
		if err != nil {
			return nil, err
		}
		w.tools = tools
	}

	w.trim = w.settings.TrimSpec()
	w.prober = ffprobe.NewProber(w.runner, w.tools.FFprobe)
	w.concat = concatenator.NewConcatenator(w.runner, w.tools.FFmpeg)
	w.mux = muxer.NewMuxer(w.runner, w.tools.FFmpeg)
	w.reporter = report.NewReporter()

	seed := w.settings.Seed
	if seed == 0 {
		seed = selector.AutoSeed()
		w.logf("no seed given, using %d (pass it back to reproduce this run)", seed)
	}

	w.phase("scan")
	assets, err := catalog.ListVideos(w.settings.VideoDirs)
	if err != nil {
		return nil, err
	}
	w.assets = assets
	w.logf("found %d clips under %d directories", len(assets), len(w.settings.VideoDirs))

	tracks, err := catalog.ResolveBGM(w.settings.BGM)
	if err != nil {
		return nil, err
	}
	w.tracks = tracks
	w.logf("found %d background tracks", len(tracks))

	resolver := profile.NewResolver(w.runner, w.tools.FFmpeg)
	enc, err := resolver.Resolve(ctx, w.settings.Encode.GPU, w.settings.Encode.Quality)
	if err != nil {
		return nil, err
	}
	w.enc = enc
	if w.settings.Encode.GPU && !enc.Hardware {
		w.logf("hardware encoder not available, using software encoding")
	}
	w.logf("encoding with %s", enc.Describe())

	store, err := cache.New(w.settings.CacheDir(), w.settings.Profile(), w.runner, w.tools.FFmpeg, w.prober)
	if err != nil {
		return nil, err
	}
	w.store = store

	if w.settings.Cache.ClearMismatch {
		removed, err := w.store.PurgeMismatched(w.trim)
		if err != nil {
			w.reportError(fmt.Errorf("cache sweep failed: %w", err))
		} else if removed > 0 {
			w.logf("removed %d stale cache entries", removed)
		}
	}

	outDir := w.settings.OutputDir()
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outDir, err)
	}

	jobs, grouped, err := w.planJobs(ctx, seed)
	if err != nil {
		return nil, err
	}

	mixBase := int64(0)
	if w.settings.Cache.Precache && ctx.Err() == nil {
		w.phase("precache")
		w.precache(ctx)
		mixBase = precacheSpan
	}

	w.phase("mix")
	workers := w.threadCount()
	w.logf("mixing %d outputs with %d workers", len(jobs), workers)

	outcome := w.dispatch(ctx, jobs, workers, mixBase)

	// A grouped plan can strand every job on a pool that turns out unusable;
	// one flat retry over the full catalog is cheaper than a failed run
	if grouped && outcome.Succeeded() == 0 && ctx.Err() == nil {
		w.logf("no output succeeded under grouped selection, retrying against the full catalog")
		outcome = w.dispatch(ctx, w.flatJobs(seed), workers, mixBase)
	}

	stats := w.store.Stats()
	summary := &Summary{
		Results:     outcome.Results,
		Succeeded:   outcome.Succeeded(),
		Failed:      outcome.Failed(),
		Skipped:     outcome.Skipped,
		Seed:        seed,
		CacheHits:   stats.Hits,
		CacheBuilds: stats.Builds,
	}
	w.logf("run finished: %d succeeded, %d failed, %d skipped (cache: %d hits, %d builds)",
		summary.Succeeded, summary.Failed, summary.Skipped, summary.CacheHits, summary.CacheBuilds)
	return summary, nil
}

// planJobs builds the job list for the run. With resolution grouping enabled
// and at least one group big enough, outputs are split across groups and each
// job draws from its group's pool; otherwise every job draws from the full
// catalog. The boolean reports whether the grouped path was taken.
func (w *Workflow) planJobs(ctx context.Context, seed int64) ([]models.OutputJob, bool, error) {
	if !w.settings.GroupRes {
		return w.flatJobs(seed), false, nil
	}

	groups, err := selector.GroupByResolution(ctx, w.prober, w.assets, w.threadCount())
	if err != nil {
		return nil, false, err
	}
	qualified := selector.QualifiedGroups(groups)
	if len(qualified) == 0 {
		w.logf("no resolution group exceeds %d clips, selecting from the full catalog", selector.MinGroupSize)
		return w.flatJobs(seed), false, nil
	}

	allocs := selector.AllocateOutputs(qualified, w.settings.Outputs)
	var jobs []models.OutputJob
	for _, alloc := range allocs {
		w.logf("resolution group %s: %d clips, %d outputs", alloc.Resolution, len(alloc.Pool), alloc.Outputs)
		for i := 0; i < alloc.Outputs; i++ {
			idx := len(jobs)
			jobs = append(jobs, models.OutputJob{
				Index:      idx,
				Seed:       selector.JobSeed(seed, idx),
				OutputPath: w.settings.OutputPathFor(idx),
				Pool:       alloc.Pool,
			})
		}
	}
	return jobs, true, nil
}

// flatJobs builds one job per requested output, all drawing from the full
// catalog.
func (w *Workflow) flatJobs(seed int64) []models.OutputJob {
	jobs := make([]models.OutputJob, w.settings.Outputs)
	for i := range jobs {
		jobs[i] = models.OutputJob{
			Index:      i,
			Seed:       selector.JobSeed(seed, i),
			OutputPath: w.settings.OutputPathFor(i),
		}
	}
	return jobs
}

// precache warms the cache for every catalog clip under the run trim, so the
// mixing phase mostly hits. Failures are reported and left for the owning job
// to retry; a hardware-encoder failure flips the whole warm-up to software.
func (w *Workflow) precache(ctx context.Context) {
	total := int64(len(w.assets))
	var done atomic.Int64
	var useSoftware atomic.Bool

	var g errgroup.Group
	g.SetLimit(w.threadCount())
	for _, asset := range w.assets {
		asset := asset
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			enc := w.enc
			if useSoftware.Load() {
				enc = profile.Fallback(enc)
			}
			_, err := w.store.GetOrBuild(ctx, asset, w.trim, enc)
			var hwErr *cache.HardwareEncodeError
			if errors.As(err, &hwErr) {
				useSoftware.Store(true)
				_, err = w.store.GetOrBuild(ctx, asset, w.trim, profile.Fallback(enc))
			}
			if err != nil && ctx.Err() == nil {
				w.reportError(fmt.Errorf("precache %s: %w", asset.Stem, err))
			}
			w.progress(done.Add(1) * precacheSpan / total)
			return nil
		})
	}
	g.Wait()
}

// dispatch runs the jobs through the scheduler, mapping job completions onto
// the [base, ProgressScale] progress window.
func (w *Workflow) dispatch(ctx context.Context, jobs []models.OutputJob, workers int, base int64) scheduler.Outcome {
	sched := scheduler.New(workers)
	sched.SetProgressCallback(func(completed, total int, result models.JobResult) {
		w.progress(base + int64(completed)*(ProgressScale-base)/int64(total))
		if result.Succeeded() {
			w.logf("%s", result.Message())
		} else {
			w.reportError(result.Err)
		}
		if w.callbacks.OnJobDone != nil {
			w.callbacks.OnJobDone(result)
		}
	})
	return sched.Run(ctx, jobs, w.executeJob)
}

// executeJob produces one output video: draw the clips and track, build or
// fetch every segment, concatenate, replace the audio. Runs on a scheduler
// worker; everything it touches besides the cache is job-local.
func (w *Workflow) executeJob(ctx context.Context, job models.OutputJob) models.JobResult {
	pool := job.Pool
	if pool == nil {
		pool = w.assets
	}

	draw := selector.New(job.Seed)
	selection, err := draw.Select(pool, w.settings.Count, w.trim)
	if err != nil {
		return models.NewJobFailure(job, "select", err)
	}
	job.Selection = selection

	bgm, err := draw.PickBGM(w.tracks)
	if err != nil {
		return models.NewJobFailure(job, "bgm", err)
	}
	job.BGM = bgm

	// The encoding profile is job-local: a hardware failure downgrades this
	// job's remaining segments without touching its siblings
	enc := w.enc
	entries := make([]models.CacheEntry, len(selection))
	for i, seg := range selection {
		entry, err := w.buildSegment(ctx, seg, &enc)
		if err != nil {
			return models.NewJobFailure(job, "segment", err)
		}
		entries[i] = entry
	}

	concatPath := filepath.Join(w.store.Dir(), fmt.Sprintf("temp_concat_%d.mp4", job.Index))
	defer os.Remove(concatPath)
	if err := w.concat.Concatenate(ctx, entries, concatPath); err != nil {
		return models.NewJobFailure(job, "concat", err)
	}

	if err := w.mux.ReplaceAudio(ctx, concatPath, job.BGM, job.OutputPath, enc.AudioBitrate); err != nil {
		return models.NewJobFailure(job, "mux", err)
	}

	result := models.NewJobSuccess(job, job.OutputPath)
	w.reporter.Fill(&result)
	return result
}

// buildSegment fetches one segment from the cache, retrying once with the
// software profile when the hardware encoder is the thing that failed. The
// downgrade sticks for the rest of the job via enc.
func (w *Workflow) buildSegment(ctx context.Context, seg models.Segment, enc *models.EncodingProfile) (models.CacheEntry, error) {
	entry, err := w.store.GetOrBuild(ctx, seg.Asset, seg.Trim, *enc)
	if err == nil {
		return entry, nil
	}

	var hwErr *cache.HardwareEncodeError
	if !errors.As(err, &hwErr) {
		return models.CacheEntry{}, err
	}

	*enc = profile.Fallback(*enc)
	w.logf("hardware encoder failed on %s, retrying with %s", seg.Asset.Stem, enc.Encoder)
	return w.store.GetOrBuild(ctx, seg.Asset, seg.Trim, *enc)
}

func (w *Workflow) threadCount() int {
	if w.settings.Threads < 1 {
		return 1
	}
	return w.settings.Threads
}

func (w *Workflow) logf(format string, args ...interface{}) {
	if w.callbacks.OnLog != nil {
		w.callbacks.OnLog(fmt.Sprintf(format, args...))
	}
}

func (w *Workflow) reportError(err error) {
	if w.callbacks.OnError != nil {
		w.callbacks.OnError(err)
	}
}

func (w *Workflow) phase(name string) {
	if w.callbacks.OnPhase != nil {
		w.callbacks.OnPhase(name)
	}
}

func (w *Workflow) progress(current int64) {
	if w.callbacks.OnProgress != nil {
		w.callbacks.OnProgress(current, ProgressScale)
	}
}
