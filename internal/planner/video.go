package planner

import (
	"strconv"

	"github.com/backmassage/streamline/internal/probe"
	"github.com/backmassage/streamline/internal/profile"
)

// videoArgs returns the overrides for the primary video stream. The codec is
// only forced when the current one is outside the allowed set.
func videoArgs(v *probe.Stream, t *profile.Video) []string {
	var args []string
	if !t.Codecs.Allows(v.Codec) {
		args = append(args, "-c:v", t.Codecs.Preferred())
	}
	if fps, ok := t.MaxFPS.Max(); ok {
		args = append(args, "-r", strconv.FormatFloat(fps, 'f', -1, 64))
	}
	if br, ok := t.MaxBitrate.Max(); ok {
		args = append(args, "-b:v", strconv.FormatInt(br, 10))
	}
	if t.CRF != nil {
		args = append(args, "-crf", strconv.Itoa(*t.CRF))
	}
	for _, opt := range []struct{ flag, val string }{
		{"-preset", t.Preset},
		{"-pix_fmt", t.PixFmt},
		{"-tune", t.Tune},
		{"-x265-params", t.X265Params},
	} {
		if opt.val != "" {
			args = append(args, opt.flag, opt.val)
		}
	}
	return args
}
