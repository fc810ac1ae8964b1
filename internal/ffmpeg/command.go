package ffmpeg

import "strings"

// FormatCommand renders binary and argv as a single shell-pasteable line.
// Used for dry-run and debug output only; Run never goes through a shell.
func FormatCommand(binary string, argv []string) string {
	parts := make([]string, 0, len(argv)+1)
	parts = append(parts, quote(binary))
	for _, a := range argv {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

// quote single-quotes s when it contains anything outside a conservative
// safe set.
func quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, unsafeRune) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func unsafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("-_./:=,+@%", r)
}
