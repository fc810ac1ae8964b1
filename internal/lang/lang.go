// Package lang compares stream language tags. Containers write ISO 639-2
// ("eng"), ISO 639-1 ("en") or occasionally BCP 47 ("en-US") tags, and
// users write whichever they remember, so tags are compared by their base
// language where both sides parse.
package lang

import (
	"strings"

	"golang.org/x/text/language"
)

// Match reports whether two language tags name the same language. Empty
// tags never match.
func Match(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	if strings.EqualFold(a, b) {
		return true
	}
	ba, okA := base(a)
	bb, okB := base(b)
	return okA && okB && ba == bb
}

// MatchAny reports whether tag matches any entry of set.
func MatchAny(tag string, set []string) bool {
	for _, s := range set {
		if Match(tag, s) {
			return true
		}
	}
	return false
}

// bibliographic maps ISO 639-2/B codes, which mkvmerge and older muxers
// write, to their terminology (639-2/T) forms. x/text only knows the latter.
var bibliographic = map[string]string{
	"alb": "sqi",
	"arm": "hye",
	"baq": "eus",
	"bur": "mya",
	"chi": "zho",
	"cze": "ces",
	"dut": "nld",
	"fre": "fra",
	"geo": "kat",
	"ger": "deu",
	"gre": "ell",
	"ice": "isl",
	"mac": "mkd",
	"mao": "mri",
	"may": "msa",
	"per": "fas",
	"rum": "ron",
	"slo": "slk",
	"tib": "bod",
	"wel": "cym",
}

// base extracts the ISO 639 base of tag. "und" and unparseable tags report
// false so they only ever match by exact spelling.
func base(tag string) (language.Base, bool) {
	if t, ok := bibliographic[strings.ToLower(tag)]; ok {
		tag = t
	}
	if b, err := language.ParseBase(tag); err == nil {
		return b, b.String() != "und"
	}
	t, err := language.Parse(tag)
	if err != nil {
		return language.Base{}, false
	}
	b, conf := t.Base()
	if conf == language.No || b.String() == "und" {
		return language.Base{}, false
	}
	return b, true
}
