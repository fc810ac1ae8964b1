package ffmpeg

import "regexp"

// Pre-compiled regexes for classifying ffmpeg stderr into a human hint.
// Checked in order; the first match wins.
var hints = []struct {
	re   *regexp.Regexp
	hint string
}{
	{
		regexp.MustCompile(`(?i)Unknown encoder|Encoder .* not found|Unrecognized option 'x265-params'`),
		"encoder not available in this ffmpeg build; check video/audio codec settings",
	},
	{
		regexp.MustCompile(`(?i)No such filter|Error (initializing|reinitializing|parsing) (complex )?filters?|Invalid filter|Filter .* not found`),
		"invalid filter chain; check video.filters, audio.filters and max dimensions",
	},
	{
		regexp.MustCompile(`(?i)No space left on device`),
		"output filesystem is full",
	},
	{
		regexp.MustCompile(`(?i)Permission denied|Operation not permitted`),
		"permission denied writing output or reading source",
	},
	{
		regexp.MustCompile(`(?i)Invalid argument|Error setting option|Option .* not found`),
		"ffmpeg rejected an argument; run with --debug to see the full command",
	},
}

// Hint returns a short explanation for a failed run, or "" when stderr
// matches no known pattern.
func Hint(stderr string) string {
	for _, h := range hints {
		if h.re.MatchString(stderr) {
			return h.hint
		}
	}
	return ""
}
