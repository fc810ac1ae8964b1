package planner

import (
	"github.com/backmassage/streamline/internal/lang"
	"github.com/backmassage/streamline/internal/probe"
)

// dispositions returns, keyed by output ordinal, the -disposition value for
// each retained stream that needs one. At most one stream per group ends up
// default.
//
// With a default language, the target is the natively-default stream if it
// matches, else the first matching stream; it is set to "default" and any
// other natively-default stream is cleared. Without a match, the first
// natively-default stream keeps its flag and later ones are cleared.
func dispositions(retained []*probe.Stream, defaultLang string) map[int]string {
	out := make(map[int]string)

	target := -1
	if defaultLang != "" {
		for n, s := range retained {
			if s.Default && lang.Match(s.Language, defaultLang) {
				target = n
				break
			}
		}
		if target < 0 {
			for n, s := range retained {
				if lang.Match(s.Language, defaultLang) {
					target = n
					break
				}
			}
		}
	}

	if target >= 0 {
		out[target] = "default"
		for n, s := range retained {
			if n != target && s.Default {
				out[n] = "0"
			}
		}
		return out
	}

	seen := false
	for n, s := range retained {
		if !s.Default {
			continue
		}
		if seen {
			out[n] = "0"
		}
		seen = true
	}
	return out
}
