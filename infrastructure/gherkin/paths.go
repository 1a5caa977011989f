package gherkin

import (
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
)

// ExpandPaths resolves each argument to files. Existing files are kept as
// given; anything else is treated as a glob pattern such as
// "features/**/*.feature". A pattern matching nothing is an error.
func ExpandPaths(args []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && !info.IsDir() {
			add(arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no file matches %s", arg)
		}
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}
