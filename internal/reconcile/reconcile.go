// Package reconcile decides what happens to a finished transcode: whether
// the temporary output replaces the source, is discarded, or is renamed to
// its final name. Each policy is a single rename (or remove), so a failure
// never leaves a half-renamed source behind.
package reconcile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Policy selects how a completed output is reconciled with its source.
type Policy int

const (
	SafeRename       Policy = iota // Strip the temp suffix; refuse to overwrite (default).
	AlwaysReplace                  // Rename the output over the source.
	ReplaceIfSmaller               // Replace only when the output is strictly smaller.
)

func (p Policy) String() string {
	switch p {
	case AlwaysReplace:
		return "always-replace"
	case ReplaceIfSmaller:
		return "replace-if-smaller"
	default:
		return "safe-rename"
	}
}

// PolicyFor maps the two config switches to a Policy. Config validation has
// already rejected both being set.
func PolicyFor(alwaysReplace, replaceIfSmaller bool) Policy {
	switch {
	case alwaysReplace:
		return AlwaysReplace
	case replaceIfSmaller:
		return ReplaceIfSmaller
	default:
		return SafeRename
	}
}

// Action is the filesystem effect Apply had.
type Action int

const (
	Renamed   Action = iota // Output moved to its final name; source untouched.
	Replaced                // Output moved over the source.
	Discarded               // Output removed; source kept.
)

func (a Action) String() string {
	switch a {
	case Replaced:
		return "replaced"
	case Discarded:
		return "discarded"
	default:
		return "renamed"
	}
}

// Outcome describes a successful reconciliation.
type Outcome struct {
	Action      Action
	FinalPath   string // Where the kept file now lives.
	SourceBytes int64  // 0 under safe-rename, which never looks at the source.
	OutputBytes int64
}

// ErrTargetExists is wrapped by Apply when safe-rename finds a file at the
// desired final name.
var ErrTargetExists = errors.New("file already exists and would be overwritten")

// Error is returned for every reconciliation failure.
type Error struct {
	Op   string // "stat", "rename", "remove", "resolve"
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("reconcile %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Apply reconciles output (a completed temporary file) with source under the
// given policy. tempSuffix is the suffix, without a dot, that safe-rename
// strips to find the final name.
func Apply(policy Policy, source, output, tempSuffix string) (Outcome, error) {
	switch policy {
	case AlwaysReplace:
		return replace(source, output)
	case ReplaceIfSmaller:
		return replaceIfSmaller(source, output)
	default:
		return safeRename(output, tempSuffix)
	}
}

func replace(source, output string) (Outcome, error) {
	srcInfo, err := os.Stat(source)
	if err != nil {
		return Outcome{}, &Error{Op: "stat", Path: source, Err: err}
	}
	outInfo, err := os.Stat(output)
	if err != nil {
		return Outcome{}, &Error{Op: "stat", Path: output, Err: err}
	}
	if err := os.Rename(output, source); err != nil {
		return Outcome{}, &Error{Op: "rename", Path: output, Err: err}
	}
	return Outcome{
		Action:      Replaced,
		FinalPath:   source,
		SourceBytes: srcInfo.Size(),
		OutputBytes: outInfo.Size(),
	}, nil
}

func replaceIfSmaller(source, output string) (Outcome, error) {
	srcInfo, err := os.Stat(source)
	if err != nil {
		return Outcome{}, &Error{Op: "stat", Path: source, Err: err}
	}
	outInfo, err := os.Stat(output)
	if err != nil {
		return Outcome{}, &Error{Op: "stat", Path: output, Err: err}
	}

	out := Outcome{SourceBytes: srcInfo.Size(), OutputBytes: outInfo.Size()}
	if outInfo.Size() < srcInfo.Size() {
		if err := os.Rename(output, source); err != nil {
			return Outcome{}, &Error{Op: "rename", Path: output, Err: err}
		}
		out.Action = Replaced
		out.FinalPath = source
		return out, nil
	}

	if err := os.Remove(output); err != nil {
		return Outcome{}, &Error{Op: "remove", Path: output, Err: err}
	}
	out.Action = Discarded
	out.FinalPath = source
	return out, nil
}

func safeRename(output, tempSuffix string) (Outcome, error) {
	desired, ok := strings.CutSuffix(output, "."+tempSuffix)
	if !ok || desired == "" {
		return Outcome{}, &Error{Op: "resolve", Path: output,
			Err: fmt.Errorf("output does not end in .%s", tempSuffix)}
	}

	if _, err := os.Lstat(desired); err == nil {
		return Outcome{}, &Error{Op: "rename", Path: desired, Err: ErrTargetExists}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Outcome{}, &Error{Op: "stat", Path: desired, Err: err}
	}

	outInfo, err := os.Stat(output)
	if err != nil {
		return Outcome{}, &Error{Op: "stat", Path: output, Err: err}
	}
	if err := os.Rename(output, desired); err != nil {
		return Outcome{}, &Error{Op: "rename", Path: output, Err: err}
	}
	return Outcome{Action: Renamed, FinalPath: desired, OutputBytes: outInfo.Size()}, nil
}
