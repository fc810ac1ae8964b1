package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"eng", "eng", true},
		{"ENG", "eng", true},
		{"eng", "en", true},
		{"en-US", "eng", true},
		{"jpn", "ja", true},
		{"ger", "deu", true},
		{"ger", "de", true},
		{"GER", "deu", true},
		{"fre", "fra", true},
		{"fre", "fr", true},
		{"chi", "zho", true},
		{"dut", "nl", true},
		{"ger", "fre", false},
		{"eng", "jpn", false},
		{"", "eng", false},
		{"eng", "", false},
		{"", "", false},
		{"und", "eng", false},
		{"und", "und", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Match(tt.a, tt.b), "Match(%q, %q)", tt.a, tt.b)
	}
}

func TestMatchAny(t *testing.T) {
	set := []string{"eng", "jpn"}
	assert.True(t, MatchAny("en", set))
	assert.True(t, MatchAny("jpn", set))
	assert.False(t, MatchAny("fra", set))
	assert.False(t, MatchAny("fra", nil))
	assert.True(t, MatchAny("ger", []string{"deu"}))
}
