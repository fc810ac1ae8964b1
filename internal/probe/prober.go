package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Inspector turns a path into a MediaFile. *Prober is the production
// implementation; tests substitute fakes.
type Inspector interface {
	Inspect(ctx context.Context, path string) (*MediaFile, error)
}

// Cache stores raw ffprobe JSON keyed by path, size and modification time.
// Implementations must be safe for concurrent use.
type Cache interface {
	Lookup(ctx context.Context, path string, size, mtime int64) ([]byte, bool, error)
	Store(ctx context.Context, path string, size, mtime int64, data []byte) error
}

// Prober runs ffprobe. The zero value probes with "ffprobe" from PATH, no
// timeout and no cache.
type Prober struct {
	Binary  string
	Timeout time.Duration // 0 disables the per-call timeout.
	Cache   Cache

	// OnCacheError, when set, receives cache read/write failures. They never
	// fail the probe itself.
	OnCacheError func(path string, err error)
}

// Inspect probes path with a single ffprobe JSON call.
func (p *Prober) Inspect(ctx context.Context, path string) (*MediaFile, error) {
	var size, mtime int64
	if p.Cache != nil {
		if fi, err := os.Stat(path); err == nil {
			size, mtime = fi.Size(), fi.ModTime().UnixNano()
			if data, ok, err := p.Cache.Lookup(ctx, path, size, mtime); err != nil {
				p.cacheError(path, err)
			} else if ok {
				if mf, err := ParseJSON(path, data); err == nil {
					return mf, nil
				}
				// Unparseable cache entry: fall through and re-probe.
			}
		}
	}

	data, err := p.run(ctx, path)
	if err != nil {
		return nil, err
	}
	mf, err := ParseJSON(path, data)
	if err != nil {
		return nil, err
	}

	if p.Cache != nil && size > 0 {
		if err := p.Cache.Store(ctx, path, size, mtime, data); err != nil {
			p.cacheError(path, err)
		}
	}
	return mf, nil
}

func (p *Prober) run(ctx context.Context, path string) ([]byte, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	bin := p.Binary
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("ffprobe %q: timed out after %s: %w", path, p.Timeout, ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("ffprobe %q: %w: %s", path, err, msg)
		}
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	return out, nil
}

func (p *Prober) cacheError(path string, err error) {
	if p.OnCacheError != nil {
		p.OnCacheError(path, err)
	}
}

// ParseJSON converts raw ffprobe output into a MediaFile for path.
// Exported for testing without a real ffprobe binary.
func ParseJSON(path string, data []byte) (*MediaFile, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON for %q: %w", path, err)
	}
	return buildMediaFile(path, &raw), nil
}

// --- ffprobe JSON wire types ---

// lenient accepts a JSON string or number. ffprobe quotes most numeric
// fields but not all, and older builds differ.
type lenient string

func (l *lenient) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*l = lenient(s)
		return nil
	}
	if string(b) == "null" {
		*l = ""
		return nil
	}
	*l = lenient(b)
	return nil
}

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string  `json:"format_name"`
	Duration   lenient `json:"duration"`
	Size       lenient `json:"size"`
	BitRate    lenient `json:"bit_rate"`
}

type ffprobeStream struct {
	Index          int               `json:"index"`
	CodecName      string            `json:"codec_name"`
	CodecType      string            `json:"codec_type"`
	Profile        string            `json:"profile"`
	PixFmt         string            `json:"pix_fmt"`
	Width          lenient           `json:"width"`
	Height         lenient           `json:"height"`
	BitRate        lenient           `json:"bit_rate"`
	FieldOrder     string            `json:"field_order"`
	ColorTransfer  string            `json:"color_transfer"`
	ColorPrimaries string            `json:"color_primaries"`
	AvgFrameRate   string            `json:"avg_frame_rate"`
	RFrameRate     string            `json:"r_frame_rate"`
	Channels       lenient           `json:"channels"`
	SampleRate     lenient           `json:"sample_rate"`
	Disposition    map[string]int    `json:"disposition"`
	Tags           map[string]string `json:"tags"`
}

// --- Conversion from wire types to domain types ---

func buildMediaFile(path string, raw *ffprobeOutput) *MediaFile {
	mf := &MediaFile{
		Path: path,
		Container: Container{
			FormatName: raw.Format.FormatName,
			Duration:   parseFloat(string(raw.Format.Duration)),
			Size:       parseInt64(string(raw.Format.Size)),
			BitRate:    parseInt64(string(raw.Format.BitRate)),
		},
		Streams: make([]Stream, 0, len(raw.Streams)),
	}
	for i := range raw.Streams {
		mf.Streams = append(mf.Streams, convertStream(&raw.Streams[i]))
	}
	return mf
}

func convertStream(s *ffprobeStream) Stream {
	st := Stream{
		Index:      s.Index,
		Kind:       kindOf(s.CodecType),
		Codec:      s.CodecName,
		Profile:    s.Profile,
		PixFmt:     s.PixFmt,
		SampleRate: parseInt(string(s.SampleRate)),
		Channels:   parseInt(string(s.Channels)),
		FrameRate:  parseRate(s.AvgFrameRate),
		BitRate:    streamBitRate(s),
		Language:   strings.TrimSpace(s.Tags["language"]),
		Disposition: Disposition{
			Default:     s.Disposition["default"] == 1,
			Forced:      s.Disposition["forced"] == 1,
			AttachedPic: s.Disposition["attached_pic"] == 1,
		},
		FieldOrder:     s.FieldOrder,
		ColorTransfer:  s.ColorTransfer,
		ColorPrimaries: s.ColorPrimaries,
	}
	if st.FrameRate == 0 {
		st.FrameRate = parseRate(s.RFrameRate)
	}
	if w, h := parseInt(string(s.Width)), parseInt(string(s.Height)); w > 0 && h > 0 {
		st.Size = &FrameSize{Width: w, Height: h}
	}
	return st
}

func kindOf(codecType string) Kind {
	switch codecType {
	case "video":
		return KindVideo
	case "audio":
		return KindAudio
	case "subtitle":
		return KindSubtitle
	default:
		return KindOther
	}
}

// streamBitRate prefers the bit_rate field and falls back to the Matroska
// BPS statistics tag, which mkvmerge writes when the muxer reports none.
func streamBitRate(s *ffprobeStream) int64 {
	if n := parseInt64(string(s.BitRate)); n > 0 {
		return n
	}
	return parseInt64(s.Tags["BPS"])
}

// --- Numeric parsing helpers (ffprobe returns numbers as strings) ---

// parseRate parses "num/den" or a plain decimal. "0/0" and anything
// unparseable yield 0 (unknown).
func parseRate(s string) float64 {
	s = strings.TrimSpace(s)
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return parseFloat(s)
	}
	n, d := parseFloat(num), parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}

func parseInt64(s string) int64 {
	s = strings.TrimSpace(s)
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseInt(s string) int {
	s = strings.TrimSpace(s)
	n, _ := strconv.Atoi(s)
	return n
}
