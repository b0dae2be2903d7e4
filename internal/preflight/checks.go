package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"sfmpipe/internal/deps"
	"sfmpipe/internal/toolkit"
	"sfmpipe/internal/workspace"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Detail: "path not set"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckImageDirectory verifies the input directory is readable and holds at
// least one file.
func CheckImageDirectory(path string) Result {
	const name = "Image directory"
	result := checkDirectory(name, path, unix.R_OK|unix.X_OK, "readable")
	if !result.Passed {
		return result
	}
	count, err := workspace.CountImages(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if count == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: no files)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d files)", path, count)}
}

// CheckOutputDirectory verifies the output directory is writable, or that it
// can be created beneath its nearest existing ancestor.
func CheckOutputDirectory(path string) Result {
	const name = "Output directory"
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Detail: "path not set"}
	}
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}
	parent, err := existingAncestor(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if err := unix.Access(parent, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, parent, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minBytes
// available. A zero threshold always passes.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Detail: "path not set"}
	}
	target, err := existingAncestor(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	var stat unix.Statfs_t
	if err := unix.Statfs(target, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", target, err)}
	}
	free := uint64(stat.Bavail) * uint64(stat.Bsize)
	if free < minBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s free on %s, need %s",
			humanize.IBytes(free), target, humanize.IBytes(minBytes))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s free on %s", humanize.IBytes(free), target)}
}

// CheckLibraryPath warns when the library search path does not exist.
func CheckLibraryPath(envName, path string) Result {
	name := fmt.Sprintf("Library path (%s)", envName)
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Warning: true, Detail: "not set; the variable will be empty"}
	}
	var missing []string
	for _, entry := range filepath.SplitList(path) {
		if info, err := os.Stat(entry); err != nil || !info.IsDir() {
			missing = append(missing, entry)
		}
	}
	if len(missing) > 0 {
		return Result{Name: name, Warning: true, Detail: fmt.Sprintf("%s (missing: %s)", path, strings.Join(missing, ", "))}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckToolkit resolves the installation and reports one result per stage
// executable and shared data file in scope. A non-empty tree replaces the
// bundled vocabulary tree.
func CheckToolkit(_ context.Context, dir string, binaries []string, tree string) []Result {
	install, err := toolkit.Open(dir)
	if err != nil {
		return []Result{{Name: "Toolkit", Detail: err.Error()}}
	}
	results := []Result{{Name: "Toolkit", Passed: true, Detail: install.Root()}}
	statuses := deps.CheckBinaries(install.Requirements(binaries...))
	tree = strings.TrimSpace(tree)
	for _, status := range install.DataFiles(binaries...) {
		if tree != "" && status.Command == install.VocabularyTree() {
			status = toolkit.StatFile("Vocabulary tree (configured)", tree, status.Description)
		}
		statuses = append(statuses, status)
	}
	for _, status := range statuses {
		result := Result{Name: status.Name, Passed: status.Available, Warning: status.Optional}
		if status.Available {
			result.Detail = status.Command
		} else {
			result.Detail = status.Detail
		}
		results = append(results, result)
	}
	return results
}

func existingAncestor(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	for dir := abs; ; dir = filepath.Dir(dir) {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return "", fmt.Errorf("%s is not a directory", dir)
			}
			return dir, nil
		}
		if parent := filepath.Dir(dir); parent == dir {
			return "", fmt.Errorf("no existing ancestor for %s", abs)
		}
	}
}
