package hypostasis

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPattern matches main-field map units such as
// content/Map/MainField/A-1/A-1_Static.smubin.
const DefaultPattern = "**/MainField/**/?-?_*.smubin"

// Discover returns the absolute paths of regular files under root matching
// pattern (DefaultPattern if empty), sorted.
func Discover(root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &IOError{Op: "resolve", Path: root, Err: err}
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, &IOError{Op: "open project", Path: abs, Err: err}
	}
	if !fi.IsDir() {
		return nil, &IOError{Op: "open project", Path: abs, Err: fmt.Errorf("not a directory")}
	}

	matches, err := doublestar.Glob(os.DirFS(abs), pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q in %s: %w", pattern, abs, err)
	}
	result := make([]string, 0, len(matches))
	for _, m := range matches {
		p := filepath.Join(abs, filepath.FromSlash(m))
		if st, err := os.Stat(p); err != nil || !st.Mode().IsRegular() {
			continue
		}
		result = append(result, p)
	}
	slices.Sort(result)
	return result, nil
}
