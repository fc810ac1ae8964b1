package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/backmassage/streamline/internal/config"
	"github.com/backmassage/streamline/internal/display"
	"github.com/backmassage/streamline/internal/ffmpeg"
	"github.com/backmassage/streamline/internal/logging"
	"github.com/backmassage/streamline/internal/naming"
	"github.com/backmassage/streamline/internal/notify"
	"github.com/backmassage/streamline/internal/planner"
	"github.com/backmassage/streamline/internal/probe"
	"github.com/backmassage/streamline/internal/probecache"
	"github.com/backmassage/streamline/internal/profile"
	"github.com/backmassage/streamline/internal/reconcile"
	"github.com/backmassage/streamline/internal/term"
)

// transcodeFunc runs one synthesized ffmpeg argument list to completion.
type transcodeFunc func(ctx context.Context, argv []string) (ffmpeg.ExecResult, error)

// runner carries everything one batch needs. Run and Analyze build the
// production wiring; tests construct it directly with fakes.
type runner struct {
	cfg       *config.Config
	prof      *profile.Profile
	log       *logging.Logger
	inspector probe.Inspector
	transcode transcodeFunc
	notifier  *notify.Client
	progress  bool
	out       io.Writer
	closers   []io.Closer
}

// scanned is one discovered file after probing and classification. Err is
// the probe error or planner.ErrNoVideoStream; Decision is only meaningful
// when Err is nil.
type scanned struct {
	Path     string
	File     *probe.MediaFile
	Err      error
	Decision planner.Decision
}

// Run is the top-level batch entry point. It discovers and probes every
// file, transcodes the non-compliant ones sequentially, reconciles each
// output, and returns aggregate stats. A non-nil error is a precondition
// failure; per-file problems are counted in RunStats.Failed instead.
func Run(ctx context.Context, cfg *config.Config, prof *profile.Profile, log *logging.Logger) (RunStats, error) {
	r, err := newRunner(cfg, prof, log)
	if err != nil {
		return RunStats{}, err
	}
	defer r.close()
	return r.run(ctx)
}

func newRunner(cfg *config.Config, prof *profile.Profile, log *logging.Logger) (*runner, error) {
	prober := &probe.Prober{
		Binary:  cfg.FFmpeg.FFprobePath,
		Timeout: time.Duration(cfg.FFmpeg.ProbeTimeoutSeconds) * time.Second,
		OnCacheError: func(path string, err error) {
			log.Warn("Probe cache (%s): %v", filepath.Base(path), err)
		},
	}
	r := &runner{
		cfg:       cfg,
		prof:      prof,
		log:       log,
		inspector: prober,
		notifier:  notify.New(cfg.Notify),
		progress:  term.IsTerminal(os.Stderr),
		out:       os.Stdout,
	}
	r.transcode = func(ctx context.Context, argv []string) (ffmpeg.ExecResult, error) {
		var tee io.Writer
		if cfg.Streamline.Debug {
			tee = os.Stderr
		}
		return ffmpeg.Run(ctx, cfg.FFmpeg.FFmpegPath, argv, tee)
	}

	if cfg.Cache.Enabled {
		c, err := probecache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("open probe cache: %w", err)
		}
		prober.Cache = c
		r.closers = append(r.closers, c)
		log.Debug(cfg.Streamline.Debug, "Probe cache: %s", c.Path())
	}
	return r, nil
}

func (r *runner) close() {
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			r.log.Warn("Close: %v", err)
		}
	}
}

func (r *runner) run(ctx context.Context) (RunStats, error) {
	start := time.Now()
	var stats RunStats

	lock, err := acquireLock(r.cfg.Streamline.SourceDirectory)
	if err != nil {
		return stats, err
	}
	defer func() {
		if err := lock.release(); err != nil {
			r.log.Warn("Release run lock: %v", err)
		}
	}()

	entries, err := r.scan(ctx)
	if err != nil {
		return stats, err
	}
	work := r.tally(entries, &stats)
	r.logBatchHeader(&stats)

	claims := naming.NewClaims()
	for i, f := range work {
		if ctx.Err() != nil {
			r.log.Warn("Interrupted: %d of %d files not processed", len(work)-i, len(work))
			break
		}
		r.processFile(ctx, i+1, len(work), f, claims, &stats)
	}

	stats.Duration = time.Since(start)
	r.logSummary(&stats)
	r.sendSummary(ctx, &stats)
	return stats, nil
}

// scan discovers, probes and classifies. Entries come back in discovery
// order regardless of which probe worker finished first.
func (r *runner) scan(ctx context.Context) ([]scanned, error) {
	opts := DiscoverOptionsFrom(r.cfg)
	opts.OnSkip = func(path string, err error) {
		r.log.Warn("Skipping unreadable directory %s: %v", path, err)
	}
	files, err := Discover(opts)
	if err != nil {
		return nil, err
	}
	r.log.Info("Found %d files in %s", len(files), opts.Root)
	if len(files) == 0 {
		return nil, nil
	}

	results := r.probeAll(ctx, files)
	entries := make([]scanned, 0, len(results))
	for _, res := range results {
		s := scanned{Path: res.Path, File: res.File, Err: res.Err}
		switch {
		case res.Err != nil:
		case res.File.PrimaryVideo() == nil:
			s.Err = planner.ErrNoVideoStream
		default:
			s.Decision = planner.Classify(res.File, r.prof)
		}
		entries = append(entries, s)
	}
	return entries, nil
}

func (r *runner) probeAll(ctx context.Context, files []string) []probe.Result {
	bar := display.NewProgress(len(files), "Probing", r.progress)
	results := probe.InspectAll(ctx, r.inspector, files, r.cfg.FFmpeg.FFprobeWorkers,
		func(probe.Result) { bar.Add() })
	bar.Finish()

	order := make(map[string]int, len(files))
	for i, p := range files {
		order[p] = i
	}
	sort.Slice(results, func(i, j int) bool {
		return order[results[i].Path] < order[results[j].Path]
	})
	return results
}

// tally counts scan outcomes into stats, logs per-file errors, and returns
// the files that need a transcode.
func (r *runner) tally(entries []scanned, stats *RunStats) []*probe.MediaFile {
	stats.Found = len(entries)
	debug := r.cfg.Streamline.Debug

	var work []*probe.MediaFile
	for _, e := range entries {
		name := filepath.Base(e.Path)
		switch {
		case errors.Is(e.Err, planner.ErrNoVideoStream):
			r.log.Error("%s: %v", name, e.Err)
			stats.Failed++
		case e.Err != nil:
			r.log.Error("Probe failed: %v", e.Err)
			stats.ProbeFailed++
			stats.Failed++
		case e.Decision.Compliant:
			stats.Compliant++
			r.log.Debug(debug, "Compliant: %s", name)
		default:
			stats.NeedsWork++
			r.log.Debug(debug, "Needs work: %s (%s)", name, strings.Join(e.Decision.Reasons, "; "))
			work = append(work, e.File)
		}
	}
	return work
}

// processFile handles one non-compliant file: plan, claim, execute,
// reconcile.
func (r *runner) processFile(
	ctx context.Context,
	n, total int,
	f *probe.MediaFile,
	claims *naming.Claims,
	stats *RunStats,
) {
	name := filepath.Base(f.Path)
	r.log.Info("[%d/%d] %s", n, total, name)
	logFileStats(r.log, f)

	plan, err := planner.BuildPlan(f, r.prof)
	if err != nil {
		r.log.Error("%s: %v", name, err)
		stats.Failed++
		return
	}
	if err := claims.Claim(f.Path, plan.Output); err != nil {
		if owner, ok := claims.Owner(plan.Output); ok {
			err = fmt.Errorf("%w (kept %s)", err, filepath.Base(owner))
		}
		r.log.Error("%s: %v", name, err)
		stats.Failed++
		return
	}

	cmdline := ffmpeg.FormatCommand(r.cfg.FFmpeg.FFmpegPath, plan.Argv())
	if r.cfg.Streamline.DryRun {
		r.log.Dry("%s", cmdline)
		stats.Planned++
		return
	}
	r.log.Debug(r.cfg.Streamline.Debug, "Command: %s", cmdline)

	srcInfo, err := os.Stat(f.Path)
	if err != nil {
		r.log.Error("%s: %v", name, err)
		stats.Failed++
		return
	}
	if err := prepareOutput(plan.Output); err != nil {
		r.log.Error("%s: %v", name, err)
		stats.Failed++
		return
	}

	// The orchestrator never kills a running ffmpeg; cancellation is
	// honored between files.
	res, err := r.transcode(context.WithoutCancel(ctx), plan.Argv())
	if err != nil {
		r.log.Error("%s: %v", name, err)
		var execErr *ffmpeg.ExecError
		if errors.As(err, &execErr) {
			if hint := ffmpeg.Hint(execErr.StderrTail); hint != "" {
				r.log.Error("Hint: %s", hint)
			}
			logStderr(r.log, execErr.StderrTail)
		}
		if _, statErr := os.Stat(plan.Output); statErr == nil {
			r.log.Warn("Partial output kept: %s", plan.Output)
		}
		stats.Failed++
		return
	}

	outcome, err := reconcile.Apply(r.prof.Output.Policy, f.Path, plan.Output, r.prof.Output.TempSuffix)
	if err != nil {
		r.log.Error("%s: %v", name, err)
		stats.Failed++
		return
	}

	in := srcInfo.Size()
	out := outcome.OutputBytes
	if outcome.Action == reconcile.Discarded {
		out = in
	}
	stats.Succeeded++
	stats.TotalInputBytes += in
	stats.TotalOutputBytes += out
	logOutcome(r.log, outcome, in, res.Duration)
}

// prepareOutput makes sure the output directory exists and that no stale
// temporary file from an earlier interrupted run is in the way.
func prepareOutput(output string) error {
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.Remove(output); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove stale output: %w", err)
	}
	return nil
}

func (r *runner) sendSummary(ctx context.Context, stats *RunStats) {
	if r.notifier == nil {
		return
	}
	err := r.notifier.Send(context.WithoutCancel(ctx), notify.Summary{
		RunID:           r.log.RunID(),
		Source:          r.cfg.Streamline.SourceDirectory,
		DryRun:          r.cfg.Streamline.DryRun,
		Found:           stats.Found,
		ProbeFailed:     stats.ProbeFailed,
		NeedsWork:       stats.NeedsWork,
		Succeeded:       stats.Succeeded,
		Failed:          stats.Failed,
		BytesSaved:      stats.SpaceSaved(),
		DurationSeconds: stats.Duration.Seconds(),
	})
	if err != nil {
		r.log.Warn("Webhook notification failed: %v", err)
		return
	}
	r.log.Debug(r.cfg.Streamline.Debug, "Webhook notified")
}

// --- Logging helpers ---

func logStderr(log *logging.Logger, tail string) {
	if tail == "" {
		return
	}
	log.Error("Last ffmpeg output:")
	for _, l := range strings.Split(tail, "\n") {
		log.Error("  %s", l)
	}
}

func (r *runner) logBatchHeader(stats *RunStats) {
	if stats.Found == 0 {
		return
	}
	r.log.Info("%d compliant, %d need work, %d failed before transcoding",
		stats.Compliant, stats.NeedsWork, stats.Failed)
	r.log.Info("Output: %s (%s), policy: %s",
		r.prof.Output.Extension, r.prof.Output.Format, r.prof.Output.Policy)
	if r.prof.Output.Directory != "" {
		r.log.Info("Output directory: %s", r.prof.Output.Directory)
	}
	if r.cfg.Streamline.DryRun {
		r.log.Info("Dry run: commands are printed, nothing is executed")
	}
}

func logFileStats(log *logging.Logger, f *probe.MediaFile) {
	v := f.PrimaryVideo()
	if v == nil {
		return
	}
	codec := v.Codec
	if codec == "" {
		codec = "unknown"
	}

	suffix := ""
	if f.HDRType() != "sdr" {
		suffix += " [HDR]"
	}
	if f.IsInterlaced() {
		suffix += " [Interlaced]"
	}
	log.Info("  Video: %s | %s | %s%s",
		f.Resolution(), display.FormatBitrate(f.VideoBitRate(v)), codec, suffix)
}

func logOutcome(log *logging.Logger, o reconcile.Outcome, inBytes int64, took time.Duration) {
	ratio := 0
	if inBytes > 0 {
		ratio = int(o.OutputBytes * 100 / inBytes)
	}
	took = took.Round(time.Second)
	switch o.Action {
	case reconcile.Replaced:
		log.Success("Replaced source in %s (%s -> %s, %s, %d%% of original)",
			took, display.FormatBytes(inBytes), display.FormatBytes(o.OutputBytes),
			display.FormatBytesWithSign(o.OutputBytes-inBytes), ratio)
	case reconcile.Discarded:
		log.Warn("Output not smaller (%d%% of original), kept source", ratio)
	default:
		log.Success("Wrote %s in %s (%d%% of original)", filepath.Base(o.FinalPath), took, ratio)
	}
}

func (r *runner) logSummary(stats *RunStats) {
	rows := [][]string{
		{"Found", fmt.Sprint(stats.Found)},
		{"Probe failed", fmt.Sprint(stats.ProbeFailed)},
		{"Compliant", fmt.Sprint(stats.Compliant)},
		{"Needs work", fmt.Sprint(stats.NeedsWork)},
	}
	if r.cfg.Streamline.DryRun {
		rows = append(rows, []string{"Planned (dry run)", fmt.Sprint(stats.Planned)})
	}
	rows = append(rows,
		[]string{"Succeeded", fmt.Sprint(stats.Succeeded)},
		[]string{"Failed", fmt.Sprint(stats.Failed)},
		[]string{"Space saved", display.FormatBytes(stats.SpaceSaved())},
		[]string{"Duration", stats.Duration.Round(time.Second).String()},
	)

	r.log.Info("==============================")
	r.log.Info("Done: %d succeeded, %d failed", stats.Succeeded, stats.Failed)
	fmt.Fprintln(r.out, display.RenderTable(
		[]string{"Summary", "Value"}, rows,
		[]display.ColumnAlignment{display.AlignLeft, display.AlignRight},
	))

	if r.cfg.Streamline.DryRun || stats.Succeeded == 0 {
		return
	}
	saved := stats.SpaceSaved()
	if saved >= 0 {
		r.log.Success("Total space saved: %s (input %s -> output %s)",
			display.FormatBytes(saved),
			display.FormatBytes(stats.TotalInputBytes),
			display.FormatBytes(stats.TotalOutputBytes))
	} else {
		r.log.Warn("Total space saved: -%s (overall output is larger)",
			display.FormatBytes(-saved))
	}
}
