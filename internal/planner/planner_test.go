package planner

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/backmassage/streamline/internal/config"
	"github.com/backmassage/streamline/internal/probe"
	"github.com/backmassage/streamline/internal/profile"
)

// --- Helper builders ---

func defaultProfile() *profile.Profile {
	cfg := config.DefaultConfig()
	cfg.FFmpeg.Threads = 4
	return profile.FromConfig(&cfg)
}

func size(w, h int) *probe.FrameSize { return &probe.FrameSize{Width: w, Height: h} }

func h264File() *probe.MediaFile {
	return &probe.MediaFile{
		Path: "/media/show.mp4",
		Streams: []probe.Stream{
			{Index: 0, Kind: probe.KindVideo, Codec: "h264", Size: size(1920, 1080), FrameRate: 23.976, BitRate: 8_000_000},
			{Index: 1, Kind: probe.KindAudio, Codec: "ac3", Channels: 6, SampleRate: 48000, Language: "eng",
				Disposition: probe.Disposition{Default: true}},
			{Index: 2, Kind: probe.KindSubtitle, Codec: "ass", Language: "eng"},
		},
		Container: probe.Container{BitRate: 9_000_000},
	}
}

// multiFile has three audio and three subtitle tracks in mixed languages.
func multiFile() *probe.MediaFile {
	return &probe.MediaFile{
		Path: "/media/anime.mkv",
		Streams: []probe.Stream{
			{Index: 0, Kind: probe.KindVideo, Codec: "hevc", Size: size(1920, 1080)},
			{Index: 1, Kind: probe.KindAudio, Codec: "flac", Language: "jpn", SampleRate: 96000, Channels: 2,
				Disposition: probe.Disposition{Default: true}},
			{Index: 2, Kind: probe.KindAudio, Codec: "aac", Language: "fra", SampleRate: 48000, Channels: 2},
			{Index: 3, Kind: probe.KindAudio, Codec: "aac", Language: "eng", SampleRate: 48000, Channels: 6},
			{Index: 4, Kind: probe.KindSubtitle, Codec: "ass", Language: "eng",
				Disposition: probe.Disposition{Default: true}},
			{Index: 5, Kind: probe.KindSubtitle, Codec: "hdmv_pgs_subtitle", Language: "ger"},
			{Index: 6, Kind: probe.KindSubtitle, Codec: "subrip", Language: "jpn",
				Disposition: probe.Disposition{Default: true}},
		},
	}
}

func mustPlan(t *testing.T, f *probe.MediaFile, p *profile.Profile) *Plan {
	t.Helper()
	plan, err := BuildPlan(f, p)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	return plan
}

// hasPair reports whether flag is immediately followed by val in args.
func hasPair(args []string, flag, val string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag && args[i+1] == val {
			return true
		}
	}
	return false
}

func hasFlag(args []string, flag string) bool { return slices.Contains(args, flag) }

// --- Classify ---

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		tweak  func(p *profile.Profile)
		file   func() *probe.MediaFile
		want   bool
		reason string
	}{
		{"no constraints", func(*profile.Profile) {}, h264File, true, ""},
		{"forced video", func(p *profile.Profile) { p.Video.Force = true }, h264File, false, "forced"},
		{"forced audio", func(p *profile.Profile) { p.Audio.Force = true }, h264File, false, "forced"},
		{"codec allowed", func(p *profile.Profile) { p.Video.Codecs = profile.CodecSet{"H264"} }, h264File, true, ""},
		{"codec not allowed", func(p *profile.Profile) { p.Video.Codecs = profile.CodecSet{"hevc"} }, h264File, false, "video codec h264"},
		{"width exceeded", func(p *profile.Profile) { p.Video.MaxWidth = profile.Bounded(1280) }, h264File, false, "resolution 1920x1080"},
		{"height at limit", func(p *profile.Profile) { p.Video.MaxHeight = profile.Bounded(1080) }, h264File, true, ""},
		{"fps exceeded", func(p *profile.Profile) { p.Video.MaxFPS = profile.Bounded(23.0) }, h264File, false, "fps 23.976"},
		{"bitrate exceeded", func(p *profile.Profile) { p.Video.MaxBitrate = profile.Bounded[int64](5_000_000) }, h264File, false, "bitrate 8000000"},
		{"audio codec", func(p *profile.Profile) { p.Audio.Codecs = profile.CodecSet{"aac"} }, h264File, false, "audio codec ac3"},
		{
			"bitrate falls back to container",
			func(p *profile.Profile) { p.Video.MaxBitrate = profile.Bounded[int64](5_000_000) },
			func() *probe.MediaFile {
				f := h264File()
				f.Streams[0].BitRate = 0
				return f
			},
			false, "bitrate 9000000",
		},
		{
			"unknown size and rate never exceed",
			func(p *profile.Profile) {
				p.Video.MaxWidth = profile.Bounded(640)
				p.Video.MaxFPS = profile.Bounded(10.0)
			},
			func() *probe.MediaFile {
				f := h264File()
				f.Streams[0].Size = nil
				f.Streams[0].FrameRate = 0
				return f
			},
			true, "",
		},
		{
			"attached pic ignored",
			func(p *profile.Profile) { p.Video.Codecs = profile.CodecSet{"h264"} },
			func() *probe.MediaFile {
				f := h264File()
				f.Streams = append(f.Streams, probe.Stream{Index: 3, Kind: probe.KindVideo, Codec: "mjpeg",
					Disposition: probe.Disposition{AttachedPic: true}})
				return f
			},
			true, "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := defaultProfile()
			tc.tweak(p)
			d := Classify(tc.file(), p)
			if d.Compliant != tc.want {
				t.Fatalf("compliant: got %v, want %v (reasons %v)", d.Compliant, tc.want, d.Reasons)
			}
			if tc.want && len(d.Reasons) != 0 {
				t.Errorf("compliant file should have no reasons: %v", d.Reasons)
			}
			if !strings.HasPrefix(d.Reason(), tc.reason) {
				t.Errorf("reason: got %q, want prefix %q", d.Reason(), tc.reason)
			}
		})
	}
}

func TestClassify_ShortCircuits(t *testing.T) {
	p := defaultProfile()
	p.Video.Codecs = profile.CodecSet{"hevc"}
	p.Video.MaxWidth = profile.Bounded(640)
	p.Audio.Codecs = profile.CodecSet{"aac"}

	d := Classify(h264File(), p)
	if len(d.Reasons) != 1 || !strings.HasPrefix(d.Reasons[0], "video codec") {
		t.Errorf("want only the codec reason, got %v", d.Reasons)
	}
}

// --- BuildPlan ---

func TestBuildPlan_NoVideo(t *testing.T) {
	f := &probe.MediaFile{Path: "a.m4a", Streams: []probe.Stream{{Kind: probe.KindAudio, Codec: "aac"}}}
	if _, err := BuildPlan(f, defaultProfile()); !errors.Is(err, ErrNoVideoStream) {
		t.Errorf("got %v, want ErrNoVideoStream", err)
	}
}

func TestBuildPlan_BaseArgs(t *testing.T) {
	plan := mustPlan(t, h264File(), defaultProfile())
	argv := plan.Argv()

	want := []string{
		"-i", "/media/show.mp4",
		"-xerror", "-v", "error", "-f", "matroska",
		"-threads", "4", "-map", "0",
		"/media/show.mkv.tmp",
	}
	if !slices.Equal(argv, want) {
		t.Errorf("argv:\n got %q\nwant %q", argv, want)
	}
	if plan.Output != "/media/show.mkv.tmp" {
		t.Errorf("output: got %q", plan.Output)
	}
}

func TestBuildPlan_VideoOverrides(t *testing.T) {
	p := defaultProfile()
	p.Video.Codecs = profile.CodecSet{"hevc", "av1"}
	p.Video.MaxFPS = profile.Bounded(23.976)
	p.Video.MaxBitrate = profile.Bounded[int64](4_000_000)
	crf := 0
	p.Video.CRF = &crf
	p.Video.Preset = "slow"
	p.Video.PixFmt = "yuv420p10le"
	p.Video.X265Params = "aq-mode=3"

	args := mustPlan(t, h264File(), p).Args

	for _, pair := range [][2]string{
		{"-c:v", "hevc"},
		{"-r", "23.976"},
		{"-b:v", "4000000"},
		{"-crf", "0"},
		{"-preset", "slow"},
		{"-pix_fmt", "yuv420p10le"},
		{"-x265-params", "aq-mode=3"},
	} {
		if !hasPair(args, pair[0], pair[1]) {
			t.Errorf("missing %s %s in %q", pair[0], pair[1], args)
		}
	}
	if hasFlag(args, "-tune") {
		t.Error("-tune should be omitted when empty")
	}
}

func TestBuildPlan_AllowedCodecNotOverridden(t *testing.T) {
	p := defaultProfile()
	p.Video.Codecs = profile.CodecSet{"h264"}
	p.Video.MaxWidth = profile.Bounded(1280)
	args := mustPlan(t, h264File(), p).Args
	if hasFlag(args, "-c:v") {
		t.Errorf("allowed codec must not be overridden: %q", args)
	}
}

func TestBuildPlan_ArgumentOrder(t *testing.T) {
	p := defaultProfile()
	p.Video.Codecs = profile.CodecSet{"hevc"}
	p.Audio.Codecs = profile.CodecSet{"aac"}
	p.Subtitles.Codecs = profile.CodecSet{"subrip"}
	p.Filters.Deinterlace = true

	argv := mustPlan(t, h264File(), p).Argv()
	order := []string{"-i", "-xerror", "-v", "-f", "-threads", "-map", "-c:v", "-c:a:0", "-c:s:0", "-vf"}
	last := -1
	for _, flag := range order {
		i := slices.Index(argv, flag)
		if i <= last {
			t.Fatalf("%s at %d, expected after %d in %q", flag, i, last, argv)
		}
		last = i
	}
	if argv[len(argv)-1] != "/media/show.mkv.tmp" {
		t.Errorf("output must be last: %q", argv)
	}
}

func TestBuildPlan_AudioExclusionAndOrdinals(t *testing.T) {
	p := defaultProfile()
	p.Audio.Languages = profile.LanguageSet{"jpn", "eng"}
	p.Audio.Codecs = profile.CodecSet{"opus"}
	p.Audio.SampleRates = profile.SampleRates{48000}
	p.Audio.Channels = profile.Bounded(2)

	args := mustPlan(t, multiFile(), p).Args

	// fra (absolute index 2) is removed from the selection.
	if !hasPair(args, "-map", "-0:2") {
		t.Errorf("missing exclusion of stream 2: %q", args)
	}
	// Output ordinals skip the excluded stream: jpn=0, eng=1.
	if !hasPair(args, "-c:a:0", "opus") || !hasPair(args, "-c:a:1", "opus") {
		t.Errorf("codec overrides: %q", args)
	}
	if hasFlag(args, "-c:a:2") {
		t.Errorf("no third retained audio stream: %q", args)
	}
	if !hasPair(args, "-ar:a:0", "48000") || hasFlag(args, "-ar:a:1") {
		t.Errorf("sample rate overrides: %q", args)
	}
	if !hasPair(args, "-ac:a:1", "2") || hasFlag(args, "-ac:a:0") {
		t.Errorf("channel overrides: %q", args)
	}
}

func TestBuildPlan_UntaggedAudioKept(t *testing.T) {
	f := h264File()
	f.Streams[1].Language = ""
	p := defaultProfile()
	p.Audio.Languages = profile.LanguageSet{"jpn"}

	args := mustPlan(t, f, p).Args
	if hasPair(args, "-map", "-0:1") {
		t.Errorf("untagged stream must not be excluded: %q", args)
	}
}

func TestBuildPlan_BibliographicLanguageKept(t *testing.T) {
	f := h264File()
	f.Streams[1].Language = "ger"
	p := defaultProfile()
	p.Audio.Languages = profile.LanguageSet{"deu"}

	args := mustPlan(t, f, p).Args
	if hasPair(args, "-map", "-0:1") {
		t.Errorf("ger track must satisfy deu: %q", args)
	}
}

func TestBuildPlan_SubtitleExclusion(t *testing.T) {
	p := defaultProfile()
	p.Subtitles.Languages = profile.LanguageSet{"eng", "jpn"}
	p.Subtitles.Codecs = profile.CodecSet{"ass"}

	args := mustPlan(t, multiFile(), p).Args

	// ger is the second subtitle stream in the input (ordinal 1).
	if !hasPair(args, "-map", "-0:s:1?") {
		t.Errorf("missing subtitle exclusion: %q", args)
	}
	// Retained: eng(ass)=0, jpn(subrip)=1.
	if hasFlag(args, "-c:s:0") {
		t.Errorf("ass is allowed: %q", args)
	}
	if !hasPair(args, "-c:s:1", "ass") {
		t.Errorf("subrip should be converted: %q", args)
	}
}

func TestDispositions(t *testing.T) {
	type st struct {
		lang string
		def  bool
	}
	build := func(in []st) []*probe.Stream {
		out := make([]*probe.Stream, len(in))
		for i, s := range in {
			out[i] = &probe.Stream{Language: s.lang, Disposition: probe.Disposition{Default: s.def}}
		}
		return out
	}
	cases := []struct {
		name    string
		streams []st
		lang    string
		want    map[int]string
	}{
		{"no default language, single default", []st{{"eng", true}, {"jpn", false}}, "", map[int]string{}},
		{"no default language, two defaults", []st{{"eng", true}, {"jpn", true}}, "", map[int]string{1: "0"}},
		{"target is first match", []st{{"eng", true}, {"jpn", false}}, "jpn", map[int]string{1: "default", 0: "0"}},
		{"native default wins among matches", []st{{"jpn", false}, {"ja", true}}, "jpn", map[int]string{1: "default"}},
		{"no match falls back", []st{{"eng", true}, {"fra", true}}, "jpn", map[int]string{1: "0"}},
		{"empty group", nil, "eng", map[int]string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := dispositions(build(tc.streams), tc.lang)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for k, v := range tc.want {
				if got[k] != v {
					t.Errorf("ordinal %d: got %q, want %q", k, got[k], v)
				}
			}
			defaults := 0
			for _, v := range got {
				if v == "default" {
					defaults++
				}
			}
			if defaults > 1 {
				t.Errorf("more than one default: %v", got)
			}
		})
	}
}

func TestBuildPlan_DispositionsUseOutputOrdinals(t *testing.T) {
	p := defaultProfile()
	p.Audio.Languages = profile.LanguageSet{"jpn", "eng"}
	p.Audio.DefaultLanguage = "eng"
	p.Subtitles.DefaultLanguage = "eng"

	args := mustPlan(t, multiFile(), p).Args

	// Audio: jpn(0, native default) cleared, eng(1) becomes default.
	if !hasPair(args, "-disposition:a:1", "default") || !hasPair(args, "-disposition:a:0", "0") {
		t.Errorf("audio dispositions: %q", args)
	}
	// Subtitles: eng(0) is natively default and matches; jpn(2) default cleared.
	if !hasPair(args, "-disposition:s:0", "default") || !hasPair(args, "-disposition:s:2", "0") {
		t.Errorf("subtitle dispositions: %q", args)
	}
}

// --- Filter chain ---

func TestFilterChain_Order(t *testing.T) {
	p := defaultProfile()
	p.Filters = profile.Filters{Deinterlace: true, Deblock: 2, Denoise: 4}
	p.Video.MaxWidth = profile.Bounded(1280)
	p.Video.MaxHeight = profile.Bounded(720)
	p.Video.Filters = "eq=gamma=1.1"
	p.Audio.Filters = "loudnorm"

	plan := mustPlan(t, h264File(), p)
	// Same aspect as the target, so the (negative) pad lands on the width.
	want := "yadif,deblock=2,hqdn3d=4,pad=1280:720:-320:0,eq=gamma=1.1,loudnorm"
	if plan.FilterChain != want {
		t.Errorf("chain:\n got %q\nwant %q", plan.FilterChain, want)
	}
	if !hasPair(plan.Argv(), "-vf", want) {
		t.Errorf("-vf missing from argv")
	}
}

func TestPadFilter(t *testing.T) {
	cases := []struct {
		name       string
		w, h       int
		maxW, maxH int // 0 = unbounded
		want       string
	}{
		{"within bounds", 1280, 720, 1920, 1080, ""},
		{"at bounds", 1920, 1080, 1920, 1080, ""},
		{"wider than target pads height", 3840, 1600, 1920, 1080, "pad=1920:1080:0:-260"},
		{"taller than target pads width", 1440, 1440, 1920, 1080, "pad=1920:1080:240:0"},
		{"only width bounded", 3840, 2160, 1920, 0, "pad=1920:0:-960:0"},
		{"only height bounded", 1920, 1440, 0, 1080, "pad=0:1080:0:-180"},
		{"no bounds", 3840, 2160, 0, 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := &probe.Stream{Kind: probe.KindVideo, Size: size(tc.w, tc.h)}
			target := &profile.Video{
				MaxWidth:  profile.LimitFrom(tc.maxW),
				MaxHeight: profile.LimitFrom(tc.maxH),
			}
			if got := padFilter(v, target); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}

	t.Run("unknown size", func(t *testing.T) {
		target := &profile.Video{MaxWidth: profile.Bounded(640)}
		if got := padFilter(&probe.Stream{}, target); got != "" {
			t.Errorf("got %q, want empty", got)
		}
	})
}

func TestBuildPlan_NoFilterChainOmitsVF(t *testing.T) {
	plan := mustPlan(t, h264File(), defaultProfile())
	if plan.FilterChain != "" || hasFlag(plan.Argv(), "-vf") {
		t.Errorf("expected no -vf, got %q", plan.Argv())
	}
}
