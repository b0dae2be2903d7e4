package execrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// terminationGrace bounds how long Wait blocks for output pipes after the
// process is killed on cancellation.
const terminationGrace = 5 * time.Second

// Executor abstracts process execution for testability. Implementations
// return a nil error for processes that ran to completion, whatever their exit
// code; errors are reserved for processes that could not be started or were
// interrupted.
type Executor interface {
	Execute(ctx context.Context, path string, args []string, env []string) (Result, error)
}

type commandExecutor struct{}

func (commandExecutor) Execute(ctx context.Context, path string, args []string, env []string) (Result, error) {
	cmd := exec.CommandContext(ctx, path, args...) //nolint:gosec
	cmd.Env = env
	cmd.WaitDelay = terminationGrace

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	result := Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
		ExitCode: -1,
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, ctxErr
	}
	if err == nil {
		return result, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return result, nil
	}
	return result, fmt.Errorf("start command: %w", err)
}

// Environ returns base with key set to value. Existing entries for key are
// dropped rather than merged. An empty key returns a copy of base.
func Environ(base []string, key, value string) []string {
	out := make([]string, 0, len(base)+1)
	prefix := key + "="
	for _, entry := range base {
		if key != "" && strings.HasPrefix(entry, prefix) {
			continue
		}
		out = append(out, entry)
	}
	if key != "" {
		out = append(out, prefix+value)
	}
	return out
}
