package batch

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanFiles recursively discovers result files under root. A missing root
// is logged and yields an empty slice, not an error: an empty tree is a
// benign condition for a batch run. The optional strategyFilter restricts
// the scan to top-level directories whose name contains the filter.
func ScanFiles(root, strategyFilter string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Warn("results directory does not exist", "root", root)
			return nil, nil
		}
		return nil, err
	}

	roots := []string{root}
	if strategyFilter != "" {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, err
		}
		roots = roots[:0]
		for _, e := range entries {
			if e.IsDir() && strings.Contains(e.Name(), strategyFilter) {
				roots = append(roots, filepath.Join(root, e.Name()))
			}
		}
	}

	var files []string
	for _, r := range roots {
		err := filepath.WalkDir(r, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

// Limit caps the number of files, a debugging aid for large trees. n <= 0
// means no limit.
func Limit(files []string, n int) []string {
	if n > 0 && len(files) > n {
		return files[:n]
	}
	return files
}
