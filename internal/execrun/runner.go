package execrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"sfmpipe/internal/logging"
	"sfmpipe/internal/services"
)

// Settings controls how the runner launches processes and what it prints.
type Settings struct {
	// Out receives progress lines, echoed commands, and captured streams.
	Out io.Writer
	// Verbose echoes the full command line and the captured stdout.
	Verbose bool
	// Silent suppresses the starting and done progress lines.
	Silent bool
	// LibraryEnv names the variable that receives LibraryPath.
	LibraryEnv  string
	LibraryPath string
	// Timeout bounds each Run call. Zero disables the limit.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Option configures the runner.
type Option func(*Runner)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *Runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithBaseEnv replaces the inherited process environment.
func WithBaseEnv(env []string) Option {
	return func(r *Runner) {
		r.baseEnv = append([]string(nil), env...)
	}
}

// Runner executes toolkit commands one at a time.
type Runner struct {
	settings Settings
	exec     Executor
	baseEnv  []string
	logger   *slog.Logger
}

// New constructs a runner.
func New(settings Settings, opts ...Option) *Runner {
	if settings.Out == nil {
		settings.Out = os.Stdout
	}
	r := &Runner{
		settings: settings,
		exec:     commandExecutor{},
		baseEnv:  os.Environ(),
		logger:   logging.NewComponentLogger(settings.Logger, "runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Env returns the environment handed to every subprocess.
func (r *Runner) Env() []string {
	return Environ(r.baseEnv, r.settings.LibraryEnv, r.settings.LibraryPath)
}

// Run executes cmd once. It returns a nil error only when the process exits
// with code zero. A non-zero exit yields an error marked with
// services.ErrExternalTool; the Result still carries the captured streams.
func (r *Runner) Run(ctx context.Context, cmd Command) (Result, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		name = cmd.Path
	}
	if strings.TrimSpace(cmd.Path) == "" {
		return Result{ExitCode: -1}, services.Wrap(services.ErrValidation, name, "run", "executable path is empty", nil)
	}

	logger := logging.WithContext(ctx, r.logger)
	out := r.settings.Out

	if !r.settings.Silent {
		fmt.Fprintf(out, "Starting %s...\n", name)
	}
	if r.settings.Verbose {
		fmt.Fprintf(out, "$ %s\n", cmd.String())
	}
	logger.Debug("toolkit process starting",
		logging.Event("process_start"),
		logging.String("command", cmd.String()),
		logging.String("library_env", r.settings.LibraryEnv),
		logging.String("library_path", r.settings.LibraryPath),
		logging.Bool("verbose", r.settings.Verbose),
	)

	runCtx := ctx
	if r.settings.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.settings.Timeout)
		defer cancel()
	}

	result, err := r.exec.Execute(runCtx, cmd.Path, cmd.Args, r.Env())
	if r.settings.Verbose {
		writeStream(out, result.Stdout)
	}

	if err != nil {
		fmt.Fprintf(out, "%s could not complete: %v\n", name, err)
		writeStream(out, result.Stderr)
		logger.Error("toolkit process failed to run",
			logging.Event("process_error"),
			logging.Duration("duration", result.Duration),
			logging.Error(err),
		)
		return result, classifyExecError(name, err)
	}

	if !result.Success() {
		fmt.Fprintf(out, "%s failed with exit code %d\n", name, result.ExitCode)
		writeStream(out, result.Stderr)
		logger.Error("toolkit process exited non-zero",
			logging.Event("process_failure"),
			logging.Int("exit_code", result.ExitCode),
			logging.Duration("duration", result.Duration),
		)
		return result, services.Wrap(services.ErrExternalTool, name, "run",
			fmt.Sprintf("toolkit exited with code %d", result.ExitCode), nil)
	}

	if !r.settings.Silent {
		fmt.Fprintf(out, "Done %s (%s)\n", name, result.Duration.Round(time.Millisecond))
	}
	logger.Debug("toolkit process completed",
		logging.Event("process_complete"),
		logging.Duration("duration", result.Duration),
		logging.Int("stdout_bytes", len(result.Stdout)),
	)
	return result, nil
}

func classifyExecError(name string, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrExternalTool, name, "run", "stage timed out", err)
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, fs.ErrNotExist):
		return services.Wrap(services.ErrNotFound, name, "run", "executable not found", err)
	default:
		return services.Wrap(services.ErrExternalTool, name, "run", "could not start executable", err)
	}
}

func writeStream(out io.Writer, data []byte) {
	if len(data) == 0 {
		return
	}
	_, _ = out.Write(data)
	if data[len(data)-1] != '\n' {
		_, _ = io.WriteString(out, "\n")
	}
}
