package agentrunner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafePath is returned for a file block whose path is absolute or
// leaves the output directory.
var ErrUnsafePath = errors.New("path escapes output directory")

// SaveFiles writes files under dir with their content trimmed, creating
// parent directories as needed. Unsafe paths are skipped and reported in
// the joined error; the paths that were written are returned either way.
func SaveFiles(dir string, files []File) ([]string, error) {
	var (
		written []string
		errs    []error
	)
	for _, f := range files {
		target, err := resolve(dir, f.Path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			errs = append(errs, fmt.Errorf("creating directory for %s: %w", f.Path, err))
			continue
		}
		if err := os.WriteFile(target, []byte(strings.TrimSpace(f.Content)), 0o644); err != nil {
			errs = append(errs, fmt.Errorf("writing %s: %w", f.Path, err))
			continue
		}
		written = append(written, target)
	}
	return written, errors.Join(errs...)
}

func resolve(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || !filepath.IsLocal(name) {
		return "", fmt.Errorf("%q: %w", name, ErrUnsafePath)
	}
	target := filepath.Join(dir, name)
	if !isWithinDir(dir, target) {
		return "", fmt.Errorf("%q: %w", name, ErrUnsafePath)
	}
	return target, nil
}

func isWithinDir(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	if rel == ".." {
		return false
	}
	return !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
