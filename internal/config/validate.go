package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrSourceRequired is returned by ValidateRun when no source directory is set.
var ErrSourceRequired = errors.New("streamline.source_directory must be set (config or positional argument)")

// Validate checks value ranges, enum fields and the mutually exclusive
// replace policies. It does not require a source directory so that
// `config validate` and `check` work on a partial config; see ValidateRun.
func (c *Config) Validate() error {
	if err := c.validateStreamline(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateFilters(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	return c.validateNotify()
}

// ValidateRun is Validate plus the settings a batch run cannot do without.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Streamline.SourceDirectory == "" {
		return ErrSourceRequired
	}
	return nil
}

func (c *Config) validateStreamline() error {
	if c.Streamline.MaxDepth < 0 {
		return errors.New("streamline.max_depth must not be negative (0 = unlimited)")
	}
	if len(c.Streamline.FileExtensions) == 0 {
		return errors.New("streamline.file_extensions must list at least one extension")
	}
	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.AlwaysReplace && c.Output.ReplaceIfSmaller {
		return errors.New("output.always_replace and output.replace_if_smaller are mutually exclusive")
	}
	if (c.Output.AlwaysReplace || c.Output.ReplaceIfSmaller) && c.Output.Directory != "" {
		return errors.New("output.directory cannot be combined with always_replace or replace_if_smaller")
	}
	if c.Output.TemporarySuffix == "" {
		return errors.New("output.temporary_suffix must be set")
	}
	if c.Output.Extension == "" {
		return errors.New("output.extension must be set")
	}
	if strings.TrimSpace(c.Output.Format) == "" {
		return errors.New("output.format must be set")
	}
	return nil
}

func (c *Config) validateFFmpeg() error {
	if strings.TrimSpace(c.FFmpeg.FFmpegPath) == "" {
		return errors.New("ffmpeg.ffmpeg_path must be set")
	}
	if strings.TrimSpace(c.FFmpeg.FFprobePath) == "" {
		return errors.New("ffmpeg.ffprobe_path must be set")
	}
	if c.FFmpeg.Threads < 0 {
		return errors.New("ffmpeg.threads must not be negative (0 = match host)")
	}
	if c.FFmpeg.FFprobeWorkers < 1 {
		return errors.New("ffmpeg.ffprobe_workers must be positive")
	}
	if c.FFmpeg.ProbeTimeoutSeconds < 0 {
		return errors.New("ffmpeg.probe_timeout_seconds must not be negative")
	}
	switch c.FFmpeg.LogLevel {
	case "quiet", "panic", "fatal", "error", "warning", "info", "verbose", "debug", "trace":
	default:
		return fmt.Errorf("ffmpeg.log_level %q is not an ffmpeg log level", c.FFmpeg.LogLevel)
	}
	return nil
}

func (c *Config) validateVideo() error {
	v := c.Video
	if v.MaxBitrate < 0 || v.MaxWidth < 0 || v.MaxHeight < 0 || v.MaxFPS < 0 {
		return errors.New("video maxima must not be negative (0 = unconstrained)")
	}
	if v.CRF > 63 {
		return fmt.Errorf("video.crf %d out of range (0-63, or -1 for unset)", v.CRF)
	}
	return nil
}

func (c *Config) validateAudio() error {
	for _, r := range c.Audio.SampleRate {
		if r <= 0 {
			return fmt.Errorf("audio.sample_rate entries must be positive, got %d", r)
		}
	}
	if c.Audio.Channels < 0 {
		return errors.New("audio.channels must not be negative (0 = keep source)")
	}
	return nil
}

func (c *Config) validateFilters() error {
	if c.Filters.Deblock < 0 || c.Filters.Denoise < 0 {
		return errors.New("filters.deblock and filters.denoise must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case LogDebug, LogInfo, LogWarn, LogError:
	default:
		return fmt.Errorf("invalid logging.level %q (use debug, info, warn or error)", c.Logging.Level)
	}
	switch c.Logging.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid logging.color %q (use auto, always or never)", c.Logging.Color)
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Path) == "" {
		return errors.New("cache.path must be set when cache.enabled is true")
	}
	return nil
}

func (c *Config) validateNotify() error {
	if c.Notify.WebhookURL == "" {
		return nil
	}
	u, err := url.Parse(c.Notify.WebhookURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("notify.webhook_url %q must be an http(s) URL", c.Notify.WebhookURL)
	}
	if c.Notify.TimeoutSeconds <= 0 {
		return errors.New("notify.timeout_seconds must be positive")
	}
	if c.Notify.Retries < 0 {
		return errors.New("notify.retries must not be negative")
	}
	return nil
}
