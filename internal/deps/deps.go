// Package deps reports whether the external executables a pipeline run
// depends on can be resolved and executed.
package deps

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

// Requirement defines an external executable the pipeline relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
// Absolute commands are checked in place; bare names are resolved from PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = describeLookupError(cmd, err)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns the required dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if status.Available || status.Optional {
			continue
		}
		missing = append(missing, status)
	}
	return missing
}

// Verify returns an error naming every missing required dependency.
func Verify(requirements []Requirement) error {
	missing := Missing(CheckBinaries(requirements))
	if len(missing) == 0 {
		return nil
	}
	parts := make([]string, 0, len(missing))
	for _, status := range missing {
		parts = append(parts, fmt.Sprintf("%s (%s)", status.Name, status.Detail))
	}
	return fmt.Errorf("missing dependencies: %s", strings.Join(parts, "; "))
}

func describeLookupError(cmd string, err error) string {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, exec.ErrNotFound):
		return fmt.Sprintf("binary %q not found", cmd)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Sprintf("binary %q is not executable", cmd)
	default:
		return fmt.Sprintf("binary %q unusable: %v", cmd, err)
	}
}
