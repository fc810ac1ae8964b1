package planner

import (
	"fmt"

	"github.com/backmassage/streamline/internal/probe"
	"github.com/backmassage/streamline/internal/profile"
)

// subtitleArgs mirrors audioArgs for subtitles. Exclusions use the input
// subtitle ordinal with a trailing "?" so a missing stream is not an error.
func subtitleArgs(streams []*probe.Stream, t *profile.Subtitles) []string {
	var (
		args     []string
		retained []*probe.Stream
	)
	for k, s := range streams {
		if !t.Languages.Keeps(s.Language) {
			args = append(args, "-map", fmt.Sprintf("-0:s:%d?", k))
			continue
		}
		retained = append(retained, s)
	}

	disp := dispositions(retained, t.DefaultLanguage)
	for n, s := range retained {
		if !t.Codecs.Allows(s.Codec) {
			args = append(args, fmt.Sprintf("-c:s:%d", n), t.Codecs.Preferred())
		}
		if val, ok := disp[n]; ok {
			args = append(args, fmt.Sprintf("-disposition:s:%d", n), val)
		}
	}
	return args
}
