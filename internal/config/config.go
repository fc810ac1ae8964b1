// Package config holds runtime configuration: the TOML schema, defaults,
// loading (file, environment) and validation. The loaded Config is treated
// as read-only once Validate has passed.
package config

import (
	"strings"
)

// --- Enum types for validated string fields ---

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// LogLevel is the minimum level written to the log file.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info" // Default.
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// Streamline contains source selection and run-mode settings.
type Streamline struct {
	SourceDirectory    string   `toml:"source_directory" mapstructure:"source_directory"`
	Recursive          bool     `toml:"recursive" mapstructure:"recursive"`
	MaxDepth           int      `toml:"max_depth" mapstructure:"max_depth"` // 0 = unlimited.
	FileExtensions     []string `toml:"file_extensions" mapstructure:"file_extensions"`
	ExcludeDirectories []string `toml:"exclude_directories" mapstructure:"exclude_directories"`
	DryRun             bool     `toml:"dry_run" mapstructure:"dry_run"`
	Debug              bool     `toml:"debug" mapstructure:"debug"`
}

// Output controls where transcoded files are written and how they replace
// the source.
type Output struct {
	Directory        string `toml:"directory" mapstructure:"directory"` // Empty = beside the source.
	Extension        string `toml:"extension" mapstructure:"extension"`
	Format           string `toml:"format" mapstructure:"format"` // ffmpeg muxer name passed to -f.
	TemporarySuffix  string `toml:"temporary_suffix" mapstructure:"temporary_suffix"`
	AlwaysReplace    bool   `toml:"always_replace" mapstructure:"always_replace"`
	ReplaceIfSmaller bool   `toml:"replace_if_smaller" mapstructure:"replace_if_smaller"`
}

// FFmpeg contains external tool locations and probe/transcode tuning.
type FFmpeg struct {
	FFmpegPath          string `toml:"ffmpeg_path" mapstructure:"ffmpeg_path"`
	FFprobePath         string `toml:"ffprobe_path" mapstructure:"ffprobe_path"`
	Threads             int    `toml:"threads" mapstructure:"threads"` // 0 = match host parallelism.
	FFprobeWorkers      int    `toml:"ffprobe_workers" mapstructure:"ffprobe_workers"`
	ProbeTimeoutSeconds int    `toml:"probe_timeout_seconds" mapstructure:"probe_timeout_seconds"` // 0 = no timeout.
	LogLevel            string `toml:"log_level" mapstructure:"log_level"`
}

// Video is the video target profile. Zero maxima mean unconstrained.
type Video struct {
	Codec      []string `toml:"codec" mapstructure:"codec"`
	MaxBitrate int64    `toml:"max_bitrate" mapstructure:"max_bitrate"`
	CRF        int      `toml:"crf" mapstructure:"crf"` // Negative = unset.
	Preset     string   `toml:"preset" mapstructure:"preset"`
	MaxWidth   int      `toml:"max_width" mapstructure:"max_width"`
	MaxHeight  int      `toml:"max_height" mapstructure:"max_height"`
	MaxFPS     float64  `toml:"max_fps" mapstructure:"max_fps"`
	Filters    string   `toml:"filters" mapstructure:"filters"`
	Force      bool     `toml:"force" mapstructure:"force"`
	PixFmt     string   `toml:"pix_fmt" mapstructure:"pix_fmt"`
	Tune       string   `toml:"tune" mapstructure:"tune"`
	X265Params string   `toml:"x265_params" mapstructure:"x265_params"`
}

// Audio is the audio target profile.
type Audio struct {
	Codec           []string `toml:"codec" mapstructure:"codec"`
	Language        []string `toml:"language" mapstructure:"language"`
	DefaultLanguage string   `toml:"default_language" mapstructure:"default_language"`
	SampleRate      []int    `toml:"sample_rate" mapstructure:"sample_rate"`
	Channels        int      `toml:"channels" mapstructure:"channels"` // 0 = keep source layout.
	Filters         string   `toml:"filters" mapstructure:"filters"`
	Force           bool     `toml:"force" mapstructure:"force"`
}

// Subtitles is the subtitle target profile.
type Subtitles struct {
	Codec           []string `toml:"codec" mapstructure:"codec"`
	Language        []string `toml:"language" mapstructure:"language"`
	DefaultLanguage string   `toml:"default_language" mapstructure:"default_language"`
}

// Filters enables the built-in video filters.
type Filters struct {
	Deinterlace bool `toml:"deinterlace" mapstructure:"deinterlace"`
	Deblock     int  `toml:"deblock" mapstructure:"deblock"`
	Denoise     int  `toml:"denoise" mapstructure:"denoise"`
}

// Logging configures console colors and the optional log file.
type Logging struct {
	Level LogLevel  `toml:"level" mapstructure:"level"`
	File  string    `toml:"file" mapstructure:"file"`
	Color ColorMode `toml:"color" mapstructure:"color"`
}

// Cache configures the on-disk probe cache.
type Cache struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Path    string `toml:"path" mapstructure:"path"`
}

// Notify configures the completion webhook.
type Notify struct {
	WebhookURL     string `toml:"webhook_url" mapstructure:"webhook_url"`
	TimeoutSeconds int    `toml:"timeout_seconds" mapstructure:"timeout_seconds"`
	Retries        int    `toml:"retries" mapstructure:"retries"`
}

// Config holds all runtime settings, grouped by TOML section.
type Config struct {
	Streamline Streamline `toml:"streamline" mapstructure:"streamline"`
	Output     Output     `toml:"output" mapstructure:"output"`
	FFmpeg     FFmpeg     `toml:"ffmpeg" mapstructure:"ffmpeg"`
	Video      Video      `toml:"video" mapstructure:"video"`
	Audio      Audio      `toml:"audio" mapstructure:"audio"`
	Subtitles  Subtitles  `toml:"subtitles" mapstructure:"subtitles"`
	Filters    Filters    `toml:"filters" mapstructure:"filters"`
	Logging    Logging    `toml:"logging" mapstructure:"logging"`
	Cache      Cache      `toml:"cache" mapstructure:"cache"`
	Notify     Notify     `toml:"notify" mapstructure:"notify"`
}

// Default values.
const (
	defaultTemporarySuffix = "tmp"
	defaultOutputExtension = "mkv"
	defaultOutputFormat    = "matroska"
	defaultProbeWorkers    = 4
	defaultProbeTimeout    = 120
	defaultNotifyTimeout   = 10
	defaultNotifyRetries   = 3
	defaultCachePath       = "~/.cache/streamline/probe.db"
)

// DefaultConfig returns a Config with every default applied. Load layers the
// config file and environment on top of it.
func DefaultConfig() Config {
	return Config{
		Streamline: Streamline{
			Recursive: true,
			FileExtensions: []string{
				"mkv", "mp4", "avi", "m4v", "mov", "wmv",
				"flv", "webm", "ts", "m2ts", "mpg", "mpeg",
			},
			ExcludeDirectories: []string{},
		},
		Output: Output{
			Extension:       defaultOutputExtension,
			Format:          defaultOutputFormat,
			TemporarySuffix: defaultTemporarySuffix,
		},
		FFmpeg: FFmpeg{
			FFmpegPath:          "ffmpeg",
			FFprobePath:         "ffprobe",
			FFprobeWorkers:      defaultProbeWorkers,
			ProbeTimeoutSeconds: defaultProbeTimeout,
			LogLevel:            "error",
		},
		Video: Video{
			Codec: []string{},
			CRF:   -1,
		},
		Audio: Audio{
			Codec:      []string{},
			Language:   []string{},
			SampleRate: []int{},
		},
		Subtitles: Subtitles{
			Codec:    []string{},
			Language: []string{},
		},
		Logging: Logging{
			Level: LogInfo,
			Color: ColorAuto,
		},
		Cache: Cache{
			Path: defaultCachePath,
		},
		Notify: Notify{
			TimeoutSeconds: defaultNotifyTimeout,
			Retries:        defaultNotifyRetries,
		},
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// normalize trims list entries and strips leading dots from extensions so
// later comparisons need not care how the user wrote them.
func (c *Config) normalize() {
	c.Streamline.SourceDirectory = NormalizeDirArg(strings.TrimSpace(c.Streamline.SourceDirectory))
	c.Output.Directory = NormalizeDirArg(strings.TrimSpace(c.Output.Directory))
	c.Output.Extension = strings.TrimPrefix(strings.TrimSpace(c.Output.Extension), ".")
	c.Output.TemporarySuffix = strings.TrimPrefix(strings.TrimSpace(c.Output.TemporarySuffix), ".")

	exts := make([]string, 0, len(c.Streamline.FileExtensions))
	for _, e := range c.Streamline.FileExtensions {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			exts = append(exts, e)
		}
	}
	c.Streamline.FileExtensions = exts

	c.Streamline.ExcludeDirectories = trimAll(c.Streamline.ExcludeDirectories)
	c.Video.Codec = trimAll(c.Video.Codec)
	c.Audio.Codec = trimAll(c.Audio.Codec)
	c.Audio.Language = trimAll(c.Audio.Language)
	c.Subtitles.Codec = trimAll(c.Subtitles.Codec)
	c.Subtitles.Language = trimAll(c.Subtitles.Language)
	c.Logging.Level = LogLevel(strings.ToLower(strings.TrimSpace(string(c.Logging.Level))))
	c.Logging.Color = ColorMode(strings.ToLower(strings.TrimSpace(string(c.Logging.Color))))
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
