package pipeline

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/backmassage/streamline/internal/config"
	"github.com/backmassage/streamline/internal/display"
	"github.com/backmassage/streamline/internal/logging"
	"github.com/backmassage/streamline/internal/profile"
)

// Decision labels in the analysis table.
const (
	labelCompliant = "compliant"
	labelTranscode = "transcode"
	labelError     = "error"
)

// fileRow holds the per-file data for the analysis table.
type fileRow struct {
	Name        string
	VideoCodec  string
	Resolution  string
	FPS         string
	VideoBPS    int64
	AudioCodecs string
	Decision    string
	Reason      string
}

// Analyze discovers and probes every file under the source directory,
// classifies each against prof, and prints one table row per file. It never
// spawns ffmpeg and takes no run lock.
func Analyze(ctx context.Context, cfg *config.Config, prof *profile.Profile, log *logging.Logger) error {
	r, err := newRunner(cfg, prof, log)
	if err != nil {
		return err
	}
	defer r.close()
	return r.analyze(ctx)
}

func (r *runner) analyze(ctx context.Context) error {
	entries, err := r.scan(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		r.log.Warn("No media files found in %s", r.cfg.Streamline.SourceDirectory)
		return nil
	}

	rows := make([]fileRow, 0, len(entries))
	var bitrates []float64
	var stats RunStats
	r.tally(entries, &stats)

	for _, e := range entries {
		row := fileRow{Name: filepath.Base(e.Path)}
		if e.Err != nil {
			row.Decision = labelError
			row.Reason = e.Err.Error()
			rows = append(rows, row)
			continue
		}

		f := e.File
		v := f.PrimaryVideo()
		row.VideoCodec = v.Codec
		row.Resolution = f.Resolution()
		if v.FrameRate > 0 {
			row.FPS = strconv.FormatFloat(v.FrameRate, 'f', 3, 64)
		}
		row.VideoBPS = f.VideoBitRate(v)
		var audio []string
		for _, a := range f.AudioStreams() {
			audio = append(audio, a.Codec)
		}
		row.AudioCodecs = strings.Join(audio, ",")

		if e.Decision.Compliant {
			row.Decision = labelCompliant
		} else {
			row.Decision = labelTranscode
			row.Reason = strings.Join(e.Decision.Reasons, "; ")
		}
		rows = append(rows, row)
		if row.VideoBPS > 0 {
			bitrates = append(bitrates, float64(row.VideoBPS)/1000)
		}
	}

	bounds := computeStats(bitrates)
	fmt.Fprintln(r.out, renderAnalysisTable(rows, bounds))
	printAnalysisSummary(r.log, &stats, rows, bounds)
	return nil
}

func renderAnalysisTable(rows []fileRow, bounds iqrBounds) string {
	headers := []string{"File", "Video", "Resolution", "FPS", "Bitrate", "Audio", "Decision", "Reason", ""}
	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		name := r.Name
		if len(name) > 50 {
			name = name[:49] + "…"
		}
		table = append(table, []string{
			name,
			r.VideoCodec,
			r.Resolution,
			r.FPS,
			display.FormatBitrate(r.VideoBPS),
			r.AudioCodecs,
			r.Decision,
			r.Reason,
			formatFlag(bounds.classify(float64(r.VideoBPS) / 1000)),
		})
	}
	aligns := []display.ColumnAlignment{
		display.AlignLeft, display.AlignLeft, display.AlignRight,
		display.AlignRight, display.AlignRight,
	}
	return display.RenderTable(headers, table, aligns)
}

func printAnalysisSummary(log *logging.Logger, stats *RunStats, rows []fileRow, bounds iqrBounds) {
	var outliers, extremes int
	for _, r := range rows {
		switch bounds.classify(float64(r.VideoBPS) / 1000) {
		case "extreme":
			extremes++
		case "outlier":
			outliers++
		}
	}

	log.Info("Analyzed %d files: %d compliant, %d need work, %d failed",
		stats.Found, stats.Compliant, stats.NeedsWork, stats.Failed)
	if bounds.valid {
		log.Info("  Video bitrate IQR: %.0f – %.0f kbps (outlier < %.0f or > %.0f)",
			bounds.q1, bounds.q3, bounds.outlierLo, bounds.outlierHi)
	}
	if outliers > 0 {
		log.Warn("  %d bitrate outlier(s) flagged [*]", outliers)
	}
	if extremes > 0 {
		log.Warn("  %d extreme bitrate outlier(s) flagged [!]", extremes)
	}
}

// iqrBounds holds the IQR-based thresholds for bitrate outlier flags.
type iqrBounds struct {
	q1, q3    float64
	outlierLo float64 // Q1 - 1.5*IQR
	outlierHi float64 // Q3 + 1.5*IQR
	extremeLo float64 // Q1 - 3.0*IQR
	extremeHi float64 // Q3 + 3.0*IQR
	valid     bool
}

func computeStats(vals []float64) iqrBounds {
	if len(vals) < 4 {
		return iqrBounds{}
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	q1 := percentile(sorted, 25)
	q3 := percentile(sorted, 75)
	iqr := q3 - q1

	return iqrBounds{
		q1:        q1,
		q3:        q3,
		outlierLo: q1 - 1.5*iqr,
		outlierHi: q3 + 1.5*iqr,
		extremeLo: q1 - 3.0*iqr,
		extremeHi: q3 + 3.0*iqr,
		valid:     iqr > 0,
	}
}

// classify returns "" (normal), "outlier", or "extreme" for a value.
func (b *iqrBounds) classify(v float64) string {
	if !b.valid || v <= 0 {
		return ""
	}
	if v < b.extremeLo || v > b.extremeHi {
		return "extreme"
	}
	if v < b.outlierLo || v > b.outlierHi {
		return "outlier"
	}
	return ""
}

func formatFlag(class string) string {
	switch class {
	case "extreme":
		return "[!]"
	case "outlier":
		return "[*]"
	default:
		return ""
	}
}

// percentile computes the p-th percentile using linear interpolation.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p / 100) * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi || hi >= len(sorted) {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
