package naming

import (
	"path/filepath"
	"strings"

	"github.com/backmassage/streamline/internal/profile"
)

// TempOutputPath returns where ffmpeg writes the output for source:
//
//	<dir>/<stem>.<extension>.<suffix>
//
// dir is out.Directory when set, otherwise the source's own directory.
func TempOutputPath(source string, out profile.Output) string {
	return FinalOutputPath(source, out) + "." + out.TempSuffix
}

// FinalOutputPath is TempOutputPath without the temporary suffix: the name
// safe-rename settles the output on.
func FinalOutputPath(source string, out profile.Output) string {
	base := strings.TrimSuffix(source, filepath.Ext(source))
	if out.Extension != "" {
		base += "." + out.Extension
	}
	if out.Directory != "" {
		base = filepath.Join(out.Directory, filepath.Base(base))
	}
	return base
}
