package planner

import (
	"fmt"
	"strconv"

	"github.com/backmassage/streamline/internal/probe"
	"github.com/backmassage/streamline/internal/profile"
)

// audioArgs walks audio streams in source order. Streams whose language is
// set and not allowed are subtracted from the -map 0 selection by absolute
// index; every other stream is addressed by its output ordinal, which is
// its position among the retained audio streams.
func audioArgs(streams []*probe.Stream, t *profile.Audio) []string {
	var (
		args     []string
		retained []*probe.Stream
	)
	for _, s := range streams {
		if !t.Languages.Keeps(s.Language) {
			args = append(args, "-map", fmt.Sprintf("-0:%d", s.Index))
			continue
		}
		retained = append(retained, s)
	}

	disp := dispositions(retained, t.DefaultLanguage)
	for n, s := range retained {
		if !t.Codecs.Allows(s.Codec) {
			args = append(args, fmt.Sprintf("-c:a:%d", n), t.Codecs.Preferred())
		}
		if !t.SampleRates.Allows(s.SampleRate) {
			args = append(args, fmt.Sprintf("-ar:a:%d", n), strconv.Itoa(t.SampleRates.Preferred()))
		}
		if s.Channels > 0 && t.Channels.Exceeded(s.Channels) {
			args = append(args, fmt.Sprintf("-ac:a:%d", n), t.Channels.String())
		}
		if val, ok := disp[n]; ok {
			args = append(args, fmt.Sprintf("-disposition:a:%d", n), val)
		}
	}
	return args
}
