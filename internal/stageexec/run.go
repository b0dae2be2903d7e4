package stageexec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"sfmpipe/internal/execrun"
	"sfmpipe/internal/ledger"
	"sfmpipe/internal/logging"
	"sfmpipe/internal/services"
	"sfmpipe/internal/stages"
)

// Runner executes a rendered toolkit command.
type Runner interface {
	Run(ctx context.Context, cmd execrun.Command) (execrun.Result, error)
}

// Recorder persists stage outcomes.
type Recorder interface {
	RecordStage(ctx context.Context, runID string, rec ledger.StageRecord) (ledger.StageRun, error)
}

// Options controls stage execution and ledger persistence behavior.
type Options struct {
	Logger     *slog.Logger
	Runner     Runner
	Recorder   Recorder
	RunID      string
	Definition stages.Definition
	Env        stages.Env
}

// Outcome describes what happened to one stage.
type Outcome struct {
	Stage   stages.Name
	Dir     string
	Command execrun.Command
	Result  execrun.Result
	Err     error
}

// Run executes one stage. The returned error is the stage failure, if any;
// ledger write problems are logged and never fail the stage.
func Run(ctx context.Context, opts Options) (Outcome, error) {
	def := opts.Definition
	outcome := Outcome{Stage: def.Name}
	if opts.Runner == nil {
		return outcome, fmt.Errorf("stage runner unavailable: %s", def.Name)
	}

	stageCtx := services.WithStage(ctx, string(def.Name))
	stageLogger := logging.WithContext(stageCtx, opts.Logger)

	dir, err := opts.Env.Layout.EnsureDir(def.Dir)
	if err != nil {
		err = services.Wrap(services.ErrConfiguration, string(def.Name), "prepare", "could not create stage directory", err)
		return outcome, handleFailure(stageCtx, stageLogger, opts, &outcome, err)
	}
	outcome.Dir = dir

	cmd, err := def.Build(opts.Env)
	if err != nil {
		return outcome, handleFailure(stageCtx, stageLogger, opts, &outcome, err)
	}
	outcome.Command = cmd

	stageLogger.Info(
		"stage started",
		logging.Event("stage_start"),
		logging.String("stage_dir", dir),
		logging.String("executable", cmd.Path),
	)

	result, err := opts.Runner.Run(stageCtx, cmd)
	outcome.Result = result
	if err != nil {
		return outcome, handleFailure(stageCtx, stageLogger, opts, &outcome, err)
	}

	record(stageCtx, stageLogger, opts, outcome)
	stageLogger.Info(
		"stage completed",
		logging.Event("stage_complete"),
		logging.Duration("duration", result.Duration),
	)
	return outcome, nil
}

func handleFailure(ctx context.Context, logger *slog.Logger, opts Options, outcome *Outcome, stageErr error) error {
	outcome.Err = stageErr
	details := services.Details(stageErr)
	message := strings.TrimSpace(details.Message)
	if message == "" {
		message = "stage failed"
	}

	logger.Error(
		"stage failed",
		logging.Event("stage_failure"),
		logging.String("failure_kind", details.Kind),
		logging.Int("exit_code", outcome.Result.ExitCode),
		logging.String("error_message", message),
		logging.Error(stageErr),
	)
	record(ctx, logger, opts, *outcome)
	return stageErr
}

func record(ctx context.Context, logger *slog.Logger, opts Options, outcome Outcome) {
	if opts.Recorder == nil || opts.RunID == "" {
		return
	}
	exitCode := outcome.Result.ExitCode
	if outcome.Err != nil && exitCode == 0 {
		exitCode = -1
	}
	// The ledger write must survive a canceled stage context.
	writeCtx := context.WithoutCancel(ctx)
	if _, err := opts.Recorder.RecordStage(writeCtx, opts.RunID, ledger.StageRecord{
		Stage:       string(outcome.Stage),
		CommandLine: outcome.Command.String(),
		ExitCode:    exitCode,
		Duration:    outcome.Result.Duration,
		Stderr:      outcome.Result.Stderr,
		Err:         outcome.Err,
	}); err != nil {
		logger.Warn("failed to record stage outcome", logging.Error(err))
	}
}
