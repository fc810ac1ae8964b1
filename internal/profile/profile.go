// Package profile turns the loaded configuration into the immutable target
// profile that classification and argument synthesis compare files against.
// Every "zero means unconstrained" config value becomes a Limit here, so no
// caller downstream has to remember which zeroes are sentinels.
package profile

import (
	"slices"
	"strings"

	"github.com/backmassage/streamline/internal/config"
	"github.com/backmassage/streamline/internal/lang"
	"github.com/backmassage/streamline/internal/reconcile"
)

// CodecSet is an allowed set of codec names. An empty set allows everything.
type CodecSet []string

// Allows reports whether codec is acceptable. Names compare case-insensitively.
func (s CodecSet) Allows(codec string) bool {
	if len(s) == 0 {
		return true
	}
	for _, c := range s {
		if strings.EqualFold(c, codec) {
			return true
		}
	}
	return false
}

// Preferred returns the replacement codec (the first entry), or "" when the
// set is empty.
func (s CodecSet) Preferred() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// LanguageSet is an allowed set of language tags. An empty set keeps every
// stream.
type LanguageSet []string

// Keeps reports whether a stream tagged with tag is retained. Streams with
// no language tag are always retained.
func (s LanguageSet) Keeps(tag string) bool {
	if len(s) == 0 || strings.TrimSpace(tag) == "" {
		return true
	}
	return lang.MatchAny(tag, s)
}

// SampleRates is an allowed set of audio sample rates in Hz.
type SampleRates []int

// Allows reports whether rate needs no override. An unknown (zero) rate is
// never overridden.
func (s SampleRates) Allows(rate int) bool {
	if len(s) == 0 || rate <= 0 {
		return true
	}
	return slices.Contains(s, rate)
}

// Preferred returns the replacement rate, or 0 when the set is empty.
func (s SampleRates) Preferred() int {
	if len(s) == 0 {
		return 0
	}
	return s[0]
}

// Video is the video target.
type Video struct {
	Codecs     CodecSet
	MaxBitrate Limit[int64]
	MaxWidth   Limit[int]
	MaxHeight  Limit[int]
	MaxFPS     Limit[float64]
	CRF        *int // nil = unset; 0 is a valid CRF.
	Preset     string
	PixFmt     string
	Tune       string
	X265Params string
	Filters    string
	Force      bool
}

// Audio is the audio target.
type Audio struct {
	Codecs          CodecSet
	Languages       LanguageSet
	DefaultLanguage string
	SampleRates     SampleRates
	Channels        Limit[int]
	Filters         string
	Force           bool
}

// Subtitles is the subtitle target.
type Subtitles struct {
	Codecs          CodecSet
	Languages       LanguageSet
	DefaultLanguage string
}

// Filters are the built-in video filters. Zero strengths are off.
type Filters struct {
	Deinterlace bool
	Deblock     int
	Denoise     int
}

// Output describes where and how results are written.
type Output struct {
	Directory  string // Empty = beside the source.
	Extension  string
	Format     string
	TempSuffix string
	Policy     reconcile.Policy
}

// Profile is the complete target. It is built once per run and never mutated.
type Profile struct {
	Video     Video
	Audio     Audio
	Subtitles Subtitles
	Filters   Filters
	Output    Output
	Threads   int
	LogLevel  string // ffmpeg -v level.
}

// Forced reports whether either force switch makes every file non-compliant.
func (p *Profile) Forced() bool {
	return p.Video.Force || p.Audio.Force
}

// FromConfig builds a Profile from a validated config. Slices are copied so
// later config edits cannot leak into a running profile.
func FromConfig(cfg *config.Config) *Profile {
	v, a, s := cfg.Video, cfg.Audio, cfg.Subtitles

	var crf *int
	if v.CRF >= 0 {
		n := v.CRF
		crf = &n
	}

	return &Profile{
		Video: Video{
			Codecs:     CodecSet(slices.Clone(v.Codec)),
			MaxBitrate: LimitFrom(v.MaxBitrate),
			MaxWidth:   LimitFrom(v.MaxWidth),
			MaxHeight:  LimitFrom(v.MaxHeight),
			MaxFPS:     LimitFrom(v.MaxFPS),
			CRF:        crf,
			Preset:     v.Preset,
			PixFmt:     v.PixFmt,
			Tune:       v.Tune,
			X265Params: v.X265Params,
			Filters:    strings.TrimSpace(v.Filters),
			Force:      v.Force,
		},
		Audio: Audio{
			Codecs:          CodecSet(slices.Clone(a.Codec)),
			Languages:       LanguageSet(slices.Clone(a.Language)),
			DefaultLanguage: strings.TrimSpace(a.DefaultLanguage),
			SampleRates:     SampleRates(slices.Clone(a.SampleRate)),
			Channels:        LimitFrom(a.Channels),
			Filters:         strings.TrimSpace(a.Filters),
			Force:           a.Force,
		},
		Subtitles: Subtitles{
			Codecs:          CodecSet(slices.Clone(s.Codec)),
			Languages:       LanguageSet(slices.Clone(s.Language)),
			DefaultLanguage: strings.TrimSpace(s.DefaultLanguage),
		},
		Filters: Filters{
			Deinterlace: cfg.Filters.Deinterlace,
			Deblock:     cfg.Filters.Deblock,
			Denoise:     cfg.Filters.Denoise,
		},
		Output: Output{
			Directory:  cfg.Output.Directory,
			Extension:  cfg.Output.Extension,
			Format:     cfg.Output.Format,
			TempSuffix: cfg.Output.TemporarySuffix,
			Policy:     reconcile.PolicyFor(cfg.Output.AlwaysReplace, cfg.Output.ReplaceIfSmaller),
		},
		Threads:  ResolveThreads(cfg.FFmpeg.Threads),
		LogLevel: cfg.FFmpeg.LogLevel,
	}
}
