package checkfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/checkwatch/checkwatch/internal/config"
)

// LoadDir discovers and parses every checkfile under root, recursively,
// following symlinks. Hidden files and directories (leading ".") are
// skipped. Unreadable files are skipped with a diagnostic on the
// returned file entry rather than failing the scan; only a missing or
// unreadable root is an error.
func LoadDir(root string) ([]*File, error) {
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve checkfile root %s: %w", root, err)
	}

	var files []*File
	seen := map[string]bool{} // resolved dirs, guards symlink cycles

	var walk func(dir string) error
	walk = func(dir string) error {
		real, err := filepath.EvalSymlinks(dir)
		if err != nil {
			return nil // dangling symlink, skip
		}
		if seen[real] {
			return nil
		}
		seen[real] = true

		entries, err := os.ReadDir(dir)
		if err != nil {
			if dir == realRoot {
				return fmt.Errorf("failed to read checkfile root: %w", err)
			}
			return nil
		}

		for _, entry := range entries {
			name := entry.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}
			// The settings file lives in the root but is not a
			// checkfile.
			if name == config.ConfigFileName {
				continue
			}
			path := filepath.Join(dir, name)

			info, err := os.Stat(path) // follows symlinks
			if err != nil {
				continue
			}
			if info.IsDir() {
				if err := walk(path); err != nil {
					return err
				}
				continue
			}

			realPath, err := filepath.EvalSymlinks(path)
			if err != nil {
				continue
			}
			text, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			files = append(files, Parse(path, realPath, string(text)))
		}
		return nil
	}

	if err := walk(realRoot); err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RealPath < files[j].RealPath })
	return files, nil
}
