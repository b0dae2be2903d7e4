package preflight

import (
	"context"
	"fmt"
	"strings"

	"sfmpipe/internal/config"
	"sfmpipe/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name    string
	Passed  bool
	Warning bool
	Detail  string
}

// Blocking reports whether the result should stop a run.
func (r Result) Blocking() bool {
	return !r.Passed && !r.Warning
}

// Request names the directories a run will use.
type Request struct {
	ToolkitDir string
	ImageDir   string
	OutputDir  string
	// Binaries limits the toolkit checks to the executables the run invokes.
	// Empty means every stage.
	Binaries []string
}

// RunAll executes every preflight check for a run.
func RunAll(ctx context.Context, cfg *config.Config, req Request) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckImageDirectory(req.ImageDir))
	results = append(results, CheckOutputDirectory(req.OutputDir))
	results = append(results, CheckFreeSpace("Free space", req.OutputDir, cfg.MinFreeBytes()))
	results = append(results, CheckLibraryPath(cfg.Toolkit.LibraryEnv, cfg.Toolkit.LibraryPath))
	results = append(results, CheckToolkit(ctx, req.ToolkitDir, req.Binaries, cfg.ImageMatching.Tree)...)
	return results
}

// Failures returns the blocking results.
func Failures(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if result.Blocking() {
			failed = append(failed, result)
		}
	}
	return failed
}

// Err returns a validation error naming every blocking failure, or nil.
func Err(results []Result) error {
	failed := Failures(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, result := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", result.Name, result.Detail))
	}
	return services.Wrap(services.ErrValidation, "", "preflight", strings.Join(parts, "; "), nil)
}
