package planner

import (
	"fmt"
	"strconv"

	"github.com/backmassage/streamline/internal/probe"
	"github.com/backmassage/streamline/internal/profile"
)

// Classify decides whether f already satisfies prof. Checks run in a fixed
// order and stop at the first failure, so Reasons holds a single entry.
//
// Callers must reject files without a video stream first; Classify treats
// them as compliant on the video side.
func Classify(f *probe.MediaFile, prof *profile.Profile) Decision {
	if prof.Forced() {
		return fail("forced")
	}

	v := &prof.Video
	for _, s := range f.VideoStreams() {
		if !v.Codecs.Allows(s.Codec) {
			return fail(fmt.Sprintf("video codec %s not in target list", s.Codec))
		}
		if s.Size != nil && (v.MaxWidth.Exceeded(s.Size.Width) || v.MaxHeight.Exceeded(s.Size.Height)) {
			return fail(fmt.Sprintf("resolution %s exceeds target %sx%s",
				s.Size, v.MaxWidth, v.MaxHeight))
		}
		if s.FrameRate > 0 && v.MaxFPS.Exceeded(s.FrameRate) {
			return fail(fmt.Sprintf("fps %s exceeds target %s",
				strconv.FormatFloat(s.FrameRate, 'f', 3, 64), v.MaxFPS))
		}
		if br := f.VideoBitRate(s); br > 0 && v.MaxBitrate.Exceeded(br) {
			return fail(fmt.Sprintf("bitrate %d exceeds target %s", br, v.MaxBitrate))
		}
	}

	for _, s := range f.AudioStreams() {
		if !prof.Audio.Codecs.Allows(s.Codec) {
			return fail(fmt.Sprintf("audio codec %s not in target list", s.Codec))
		}
	}

	return Decision{Compliant: true}
}

func fail(reason string) Decision {
	return Decision{Reasons: []string{reason}}
}
