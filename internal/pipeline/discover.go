package pipeline

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/backmassage/streamline/internal/config"
)

// DiscoverOptions controls which files Discover returns.
type DiscoverOptions struct {
	Root       string
	Recursive  bool
	MaxDepth   int      // Levels below Root to descend; 0 = unlimited.
	Extensions []string // Without leading dot; matched case-insensitively.
	Exclude    []string // Directory path suffixes, matched by component.

	// OnSkip, when set, receives subdirectories that could not be read.
	// They are skipped; only an unreadable Root fails the walk.
	OnSkip func(path string, err error)
}

// DiscoverOptionsFrom builds options from the [streamline] section.
func DiscoverOptionsFrom(cfg *config.Config) DiscoverOptions {
	return DiscoverOptions{
		Root:       cfg.Streamline.SourceDirectory,
		Recursive:  cfg.Streamline.Recursive,
		MaxDepth:   cfg.Streamline.MaxDepth,
		Extensions: cfg.Streamline.FileExtensions,
		Exclude:    cfg.Streamline.ExcludeDirectories,
	}
}

// Discover walks opts.Root, collects files with a configured extension,
// prunes excluded directories, and returns the paths sorted lexicographically
// for deterministic processing order. Symlinked directories are not followed.
func Discover(opts DiscoverOptions) ([]string, error) {
	exts := make(map[string]bool, len(opts.Extensions))
	for _, e := range opts.Extensions {
		exts["."+strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}
	exclude := excludeSuffixes(opts.Exclude)
	root := filepath.Clean(opts.Root)

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if opts.OnSkip != nil {
				opts.OnSkip(path, err)
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if excluded(path, exclude) {
				return filepath.SkipDir
			}
			if path != root && !descend(opts, depth(root, path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if exts[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read source directory %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// descend reports whether a directory at the given depth below the root
// (1 = direct child) is scanned.
func descend(opts DiscoverOptions, depth int) bool {
	if !opts.Recursive {
		return false
	}
	return opts.MaxDepth == 0 || depth <= opts.MaxDepth
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return len(strings.Split(rel, string(filepath.Separator)))
}

func excludeSuffixes(entries []string) [][]string {
	out := make([][]string, 0, len(entries))
	for _, e := range entries {
		parts := splitPath(e)
		if len(parts) > 0 {
			out = append(out, parts)
		}
	}
	return out
}

// excluded reports whether path ends with one of the suffixes, comparing
// whole path components ("Extras" matches "/a/Extras" but not "/a/MyExtras").
func excluded(path string, suffixes [][]string) bool {
	if len(suffixes) == 0 {
		return false
	}
	parts := splitPath(path)
	for _, s := range suffixes {
		if len(s) <= len(parts) && slices.Equal(parts[len(parts)-len(s):], s) {
			return true
		}
	}
	return false
}

func splitPath(p string) []string {
	p = filepath.ToSlash(filepath.Clean(p))
	var parts []string
	for _, c := range strings.Split(p, "/") {
		if c != "" && c != "." {
			parts = append(parts, c)
		}
	}
	return parts
}
