package pipeline

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/backmassage/streamline/internal/config"
	"github.com/backmassage/streamline/internal/logging"
	"github.com/backmassage/streamline/internal/profile"
)

// --- Discover tests ---

func discoverAll(dir string) DiscoverOptions {
	cfg := config.DefaultConfig()
	opts := DiscoverOptionsFrom(&cfg)
	opts.Root = dir
	return opts
}

func TestDiscover_FiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "movie.mkv")
	touch(t, dir, "show.mp4")
	touch(t, dir, "music.mp3")
	touch(t, dir, "readme.txt")
	touch(t, dir, "anime.avi")
	touch(t, dir, "special.m4v")

	files, err := Discover(discoverAll(dir))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	want := []string{"anime.avi", "movie.mkv", "show.mp4", "special.m4v"}
	got := basenames(files)
	if !sliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDiscover_ExtensionsWithOrWithoutDot(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mkv")
	touch(t, dir, "b.webm")
	touch(t, dir, "c.mp4")

	opts := discoverAll(dir)
	opts.Extensions = []string{".MKV", "webm"}
	files, err := Discover(opts)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if got, want := basenames(files), []string{"a.mkv", "b.webm"}; !sliceEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDiscover_ExcludeDirectories(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "main.mkv")
	mkdir(t, dir, "Extras")
	touch(t, filepath.Join(dir, "Extras"), "bonus.mkv")
	mkdir(t, dir, "Show", "Featurettes")
	touch(t, filepath.Join(dir, "Show", "Featurettes"), "making-of.mkv")
	mkdir(t, dir, "Movie", "Featurettes")
	touch(t, filepath.Join(dir, "Movie", "Featurettes"), "kept.mkv")
	mkdir(t, dir, "MyExtras")
	touch(t, filepath.Join(dir, "MyExtras"), "also-kept.mkv")

	opts := discoverAll(dir)
	opts.Exclude = []string{"Extras", "Show/Featurettes"}
	files, err := Discover(opts)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if got, want := basenames(files), []string{"main.mkv", "kept.mkv", "also-kept.mkv"}; !sameSet(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDiscover_ExcludedRoot(t *testing.T) {
	parent := t.TempDir()
	mkdir(t, parent, "Extras")
	root := filepath.Join(parent, "Extras")
	touch(t, root, "bonus.mkv")

	opts := discoverAll(root)
	opts.Exclude = []string{"Extras"}
	files, err := Discover(opts)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("got %v, want nothing (root is excluded)", files)
	}
}

func TestDiscover_Depth(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "top.mkv")
	mkdir(t, dir, "a", "b", "c")
	touch(t, filepath.Join(dir, "a"), "one.mkv")
	touch(t, filepath.Join(dir, "a", "b"), "two.mkv")
	touch(t, filepath.Join(dir, "a", "b", "c"), "three.mkv")

	cases := []struct {
		name      string
		recursive bool
		maxDepth  int
		want      int
	}{
		{"non-recursive", false, 0, 1},
		{"non-recursive ignores depth", false, 5, 1},
		{"unlimited", true, 0, 4},
		{"one level", true, 1, 2},
		{"two levels", true, 2, 3},
		{"deeper than tree", true, 10, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := discoverAll(dir)
			opts.Recursive = tc.recursive
			opts.MaxDepth = tc.maxDepth
			files, err := Discover(opts)
			if err != nil {
				t.Fatalf("Discover: %v", err)
			}
			if len(files) != tc.want {
				t.Errorf("got %d files (%v), want %d", len(files), basenames(files), tc.want)
			}
		})
	}
}

func TestDiscover_RecursiveAndSorted(t *testing.T) {
	dir := t.TempDir()
	mkdir(t, dir, "Show", "Season 01")
	mkdir(t, dir, "Show", "Season 02")
	touch(t, filepath.Join(dir, "Show", "Season 02"), "ep01.mkv")
	touch(t, filepath.Join(dir, "Show", "Season 01"), "ep02.mkv")
	touch(t, filepath.Join(dir, "Show", "Season 01"), "ep01.mkv")

	files, err := Discover(discoverAll(dir))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(files) != 3 {
		t.Fatalf("got %d files, want 3", len(files))
	}
	// Should be sorted lexicographically.
	for i := 1; i < len(files); i++ {
		if files[i] < files[i-1] {
			t.Errorf("not sorted: %q before %q", files[i-1], files[i])
		}
	}
}

func TestDiscover_EmptyDir(t *testing.T) {
	dir := t.TempDir()
	files, err := Discover(discoverAll(dir))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("got %d files, want 0", len(files))
	}
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := Discover(discoverAll(filepath.Join(t.TempDir(), "missing")))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want ErrNotExist", err)
	}
}

func TestDiscover_CaseInsensitiveExtension(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "MOVIE.MKV")
	touch(t, dir, "Show.Mp4")

	files, err := Discover(discoverAll(dir))
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("got %d files, want 2 (case-insensitive ext matching)", len(files))
	}
}

// --- RunStats tests ---

func TestRunStats_SpaceSaved(t *testing.T) {
	s := RunStats{TotalInputBytes: 1000, TotalOutputBytes: 600}
	if got := s.SpaceSaved(); got != 400 {
		t.Errorf("SpaceSaved: got %d, want 400", got)
	}

	s2 := RunStats{TotalInputBytes: 100, TotalOutputBytes: 150}
	if got := s2.SpaceSaved(); got != -50 {
		t.Errorf("SpaceSaved (negative): got %d, want -50", got)
	}
}

// --- Run lock tests ---

func TestRunLock_Exclusive(t *testing.T) {
	dir := t.TempDir()
	first, err := acquireLock(dir)
	if err != nil {
		t.Fatalf("acquireLock: %v", err)
	}

	if _, err := acquireLock(dir); !errors.Is(err, ErrLocked) {
		t.Fatalf("second acquireLock: err = %v, want ErrLocked", err)
	}
	other, err := acquireLock(t.TempDir())
	if err != nil {
		t.Errorf("other source should not be locked: %v", err)
	}
	other.release()

	if err := first.release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	again, err := acquireLock(dir)
	if err != nil {
		t.Fatalf("acquireLock after release: %v", err)
	}
	again.release()
}

func TestLockPath_KeyedByAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	a, err := lockPath(dir)
	if err != nil {
		t.Fatal(err)
	}
	b, err := lockPath(dir + string(filepath.Separator) + ".")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("lockPath differs for equivalent paths: %q vs %q", a, b)
	}
	if filepath.Dir(a) != filepath.Clean(os.TempDir()) {
		t.Errorf("lock %q not under temp dir", a)
	}
}

// --- Bitrate outlier tests ---

func TestComputeStats_Outliers(t *testing.T) {
	b := computeStats([]float64{4000, 4200, 4400, 4600, 4800, 5000})
	if !b.valid {
		t.Fatal("bounds should be valid")
	}
	cases := []struct {
		kbps float64
		want string
	}{
		{4500, ""},
		{0, ""},
		{6000, "outlier"},
		{9000, "extreme"},
		{2000, "extreme"},
	}
	for _, tc := range cases {
		if got := b.classify(tc.kbps); got != tc.want {
			t.Errorf("classify(%.0f) = %q, want %q", tc.kbps, got, tc.want)
		}
	}

	if small := computeStats([]float64{1, 2, 3}); small.valid {
		t.Error("fewer than 4 samples should not produce bounds")
	}
}

// --- Dry-run integration test ---

func TestDryRunPipeline(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not available")
	}

	inputDir := t.TempDir()

	// Generate two 1-second synthetic H.264 files.
	for _, name := range []string{"Show S01E01.mp4", "Movie (2023).mp4"} {
		path := filepath.Join(inputDir, name)
		gen := exec.Command("ffmpeg",
			"-f", "lavfi", "-i", "testsrc=duration=1:size=1280x720:rate=24",
			"-f", "lavfi", "-i", "sine=frequency=440:duration=1:sample_rate=48000",
			"-c:v", "libx264", "-pix_fmt", "yuv420p",
			"-c:a", "aac", "-ac", "2",
			"-y", path,
		)
		gen.Stderr = os.Stderr
		if err := gen.Run(); err != nil {
			t.Fatalf("generate %s: %v", name, err)
		}
	}

	// Also create an extras dir that should be excluded.
	mkdir(t, inputDir, "Extras")
	genExtras := exec.Command("ffmpeg",
		"-f", "lavfi", "-i", "testsrc=duration=1:size=320x240:rate=24",
		"-c:v", "libx264", "-pix_fmt", "yuv420p",
		"-y", filepath.Join(inputDir, "Extras", "bonus.mp4"),
	)
	genExtras.Stderr = os.Stderr
	genExtras.Run()

	cfg := config.DefaultConfig()
	cfg.Streamline.SourceDirectory = inputDir
	cfg.Streamline.ExcludeDirectories = []string{"Extras"}
	cfg.Streamline.DryRun = true
	cfg.Video.Codec = []string{"hevc"}
	cfg.Logging.Color = config.ColorNever

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer log.Close()

	stats, err := Run(context.Background(), &cfg, profile.FromConfig(&cfg), log)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	t.Logf("Found=%d NeedsWork=%d Planned=%d Failed=%d",
		stats.Found, stats.NeedsWork, stats.Planned, stats.Failed)

	if stats.Found != 2 {
		t.Errorf("Found: got %d, want 2 (extras should be excluded)", stats.Found)
	}
	if stats.Planned != 2 {
		t.Errorf("Planned: got %d, want 2", stats.Planned)
	}
	if stats.Failed != 0 {
		t.Errorf("Failed: got %d, want 0", stats.Failed)
	}
	if matches, _ := filepath.Glob(filepath.Join(inputDir, "*.tmp")); len(matches) != 0 {
		t.Errorf("dry run wrote %v", matches)
	}
}

// --- Helpers ---

func touch(t *testing.T, dir, name string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte{}, 0o644); err != nil {
		t.Fatalf("touch %s: %v", path, err)
	}
}

func mkdir(t *testing.T, dir string, parts ...string) {
	t.Helper()
	path := filepath.Join(append([]string{dir}, parts...)...)
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
}

func basenames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func sliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		if seen[s] == 0 {
			return false
		}
		seen[s]--
	}
	return true
}
