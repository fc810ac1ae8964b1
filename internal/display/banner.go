package display

import (
	"fmt"
	"io"

	"github.com/backmassage/streamline/internal/term"
)

// PrintBanner prints the ASCII art banner; uses Magenta if colors are enabled.
func PrintBanner(w io.Writer) {
	fmt.Fprint(w, term.Magenta)
	fmt.Fprint(w, ` ____  _                            _ _
/ ___|| |_ _ __ ___  __ _ _ __ ___ | (_)_ __   ___
\___ \| __| '__/ _ \/ _`+"`"+` | '_ `+"`"+` _ \| | | '_ \ / _ \
 ___) | |_| | |  __/ (_| | | | | | | | | | | |  __/
|____/ \__|_|  \___|\__,_|_| |_| |_|_|_|_| |_|\___|
`)
	if term.NC != "" {
		fmt.Fprintln(w, term.NC)
	}
}
