package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// CountImages returns the number of regular files directly inside dir.
// Subdirectories and their contents are not counted; the toolkit decides
// which files are usable images.
func CountImages(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read image directory: %w", err)
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if entry.Type().IsRegular() {
			count++
			continue
		}
		// Symlinks count when they point at regular files.
		if entry.Type()&os.ModeSymlink != 0 {
			info, err := os.Stat(filepath.Join(dir, entry.Name()))
			if err == nil && info.Mode().IsRegular() {
				count++
			}
		}
	}
	return count, nil
}
