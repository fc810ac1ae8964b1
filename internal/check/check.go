// Package check provides system diagnostics (`streamline check`) and
// pre-run dependency validation (CheckDeps) for ffmpeg, ffprobe and the
// source and output directories.
package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"
	"golang.org/x/sys/unix"

	"github.com/backmassage/streamline/internal/config"
	"github.com/backmassage/streamline/internal/profile"
)

// Sentinel errors returned by CheckDeps.
var (
	ErrFfmpegNotFound   = errors.New("ffmpeg not found")
	ErrFfprobeNotFound  = errors.New("ffprobe not found")
	ErrSourceUnreadable = errors.New("source directory is not readable")
)

// versionTimeout bounds each -version call made by RunCheck.
const versionTimeout = 10 * time.Second

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...any)
	Success(string, ...any)
	Warn(string, ...any)
	Error(string, ...any)
}

// CheckDeps is the pre-run validation: it resolves the configured ffmpeg and
// ffprobe binaries and, when a source directory is set, verifies it can be
// listed. Returns a wrapped sentinel error on failure.
func CheckDeps(cfg *config.Config) error {
	if _, err := exec.LookPath(cfg.FFmpeg.FFmpegPath); err != nil {
		return fmt.Errorf("%w (%s): %v", ErrFfmpegNotFound, cfg.FFmpeg.FFmpegPath, err)
	}
	if _, err := exec.LookPath(cfg.FFmpeg.FFprobePath); err != nil {
		return fmt.Errorf("%w (%s): %v", ErrFfprobeNotFound, cfg.FFmpeg.FFprobePath, err)
	}
	if src := cfg.Streamline.SourceDirectory; src != "" {
		if err := readableDir(src); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, src, err)
		}
	}
	return nil
}

// RunCheck runs the interactive check flow and reports tool versions,
// directory access, free space, thread count and the probe cache. It never
// stops early; the return value is false if any required item failed.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger) bool {
	log.Info("=== System Check ===")

	ok := checkFfmpeg(ctx, cfg.FFmpeg.FFmpegPath, log)
	ok = checkFfprobe(ctx, cfg.FFmpeg.FFprobePath, log) && ok
	ok = checkSource(cfg.Streamline.SourceDirectory, log) && ok
	ok = checkOutput(outputDir(cfg), log) && ok
	checkThreads(cfg.FFmpeg.Threads, log)
	checkCache(cfg.Cache, log)

	if ok {
		log.Success("All checks passed")
	} else {
		log.Error("Some checks failed")
	}
	return ok
}

// checkFfmpeg verifies ffmpeg resolves and logs its version line.
func checkFfmpeg(ctx context.Context, bin string, log Logger) bool {
	path, err := exec.LookPath(bin)
	if err != nil {
		log.Error("ffmpeg not found (%s)", bin)
		return false
	}
	out, err := output(ctx, path, "-hide_banner", "-version")
	if err != nil {
		log.Warn("ffmpeg found at %s but -version failed: %v", path, err)
		return false
	}
	firstLine, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	log.Success("ffmpeg: %s", firstLine)
	return true
}

// checkFfprobe verifies ffprobe resolves and reads its version from the
// JSON program_version block.
func checkFfprobe(ctx context.Context, bin string, log Logger) bool {
	path, err := exec.LookPath(bin)
	if err != nil {
		log.Error("ffprobe not found (%s)", bin)
		return false
	}
	out, err := output(ctx, path, "-v", "quiet", "-print_format", "json", "-show_program_version")
	if err != nil {
		log.Warn("ffprobe found at %s but version query failed: %v", path, err)
		return false
	}
	version := gjson.GetBytes(out, "program_version.version").String()
	if version == "" {
		version = "unknown version"
	}
	log.Success("ffprobe: %s (%s)", version, path)
	return true
}

func checkSource(src string, log Logger) bool {
	if src == "" {
		log.Warn("Source directory: not configured (pass it to `streamline run`)")
		return true
	}
	if err := readableDir(src); err != nil {
		log.Error("Source directory: %s (%v)", src, err)
		return false
	}
	log.Success("Source directory: %s (readable)", src)
	return true
}

// checkOutput reports whether outputs can be written to dir and how much
// space is free there. A directory that does not exist yet is checked via
// its nearest existing parent.
func checkOutput(dir string, log Logger) bool {
	if dir == "" {
		return true
	}
	existing := nearestExisting(dir)
	if err := unix.Access(existing, unix.W_OK|unix.X_OK); err != nil {
		log.Error("Output directory: %s (not writable: %v)", dir, err)
		return false
	}
	if existing != dir {
		log.Success("Output directory: %s (will be created)", dir)
	} else {
		log.Success("Output directory: %s (writable)", dir)
	}

	free, err := freeBytes(existing)
	if err != nil {
		log.Warn("Free space: unknown (%v)", err)
		return true
	}
	log.Info("Free space: %s", humanize.IBytes(free))
	return true
}

func checkThreads(configured int, log Logger) {
	threads := profile.ResolveThreads(configured)
	if configured > 0 {
		log.Info("Threads: %d (configured)", threads)
		return
	}
	log.Info("Threads: %d (all logical CPUs)", threads)
}

func checkCache(c config.Cache, log Logger) {
	if !c.Enabled {
		log.Info("Probe cache: disabled")
		return
	}
	log.Info("Probe cache: %s", c.Path)
}

// --- internal helpers ---

// outputDir is where outputs land: output.directory when set, otherwise
// next to the sources.
func outputDir(cfg *config.Config) string {
	if cfg.Output.Directory != "" {
		return cfg.Output.Directory
	}
	return cfg.Streamline.SourceDirectory
}

func readableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("not a directory")
	}
	return unix.Access(path, unix.R_OK|unix.X_OK)
}

func nearestExisting(dir string) string {
	for p := filepath.Clean(dir); ; p = filepath.Dir(p) {
		if _, err := os.Stat(p); err == nil {
			return p
		}
		if parent := filepath.Dir(p); parent == p {
			return p
		}
	}
}

func freeBytes(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return st.Bavail * uint64(st.Bsize), nil
}

// output runs a short-lived command with a timeout and returns its stdout.
func output(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	return exec.CommandContext(ctx, name, args...).Output()
}
