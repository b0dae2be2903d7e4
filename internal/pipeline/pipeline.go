package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"sfmpipe/internal/config"
	"sfmpipe/internal/ledger"
	"sfmpipe/internal/logging"
	"sfmpipe/internal/services"
	"sfmpipe/internal/stageexec"
	"sfmpipe/internal/stages"
	"sfmpipe/internal/toolkit"
	"sfmpipe/internal/workspace"
)

// LockFileName guards an output tree against concurrent runs. It sits directly
// in the output root, outside workspace.StateDir.
const LockFileName = ".sfmpipe.lock"

// Request names the three directories of a run and an optional stage range.
type Request struct {
	ToolkitDir string
	ImageDir   string
	OutputDir  string
	From       string
	To         string
}

// StageOutcome summarizes one executed stage.
type StageOutcome struct {
	Name     stages.Name
	Label    string
	Dir      string
	Command  string
	ExitCode int
	Duration time.Duration
	Err      error
}

// Summary reports what a run did.
type Summary struct {
	RunID      string
	ImageCount int
	OutputDir  string
	Stages     []StageOutcome
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is the wall time of the run.
func (s Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Failed returns the stage that stopped the run, if any.
func (s Summary) Failed() (StageOutcome, bool) {
	for _, outcome := range s.Stages {
		if outcome.Err != nil {
			return outcome, true
		}
	}
	return StageOutcome{}, false
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithRunIDGenerator overrides uuid run ids (primarily for tests).
func WithRunIDGenerator(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// WithoutLedger disables run history regardless of configuration.
func WithoutLedger() Option {
	return func(p *Pipeline) {
		p.ledgerOff = true
	}
}

// Pipeline drives the stage sequence through a runner.
type Pipeline struct {
	cfg       *config.Config
	runner    stageexec.Runner
	logger    *slog.Logger
	newID     func() string
	ledgerOff bool
}

// New constructs a Pipeline. A nil cfg uses defaults.
func New(cfg *config.Config, runner stageexec.Runner, opts ...Option) *Pipeline {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	p := &Pipeline{
		cfg:    cfg,
		runner: runner,
		logger: logging.NewNop(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "pipeline")
	return p
}

// Run executes the selected stages in order and aborts on the first failure.
// The returned summary covers every stage that was attempted.
func (p *Pipeline) Run(ctx context.Context, req Request) (Summary, error) {
	summary := Summary{StartedAt: time.Now()}
	if p.runner == nil {
		return summary, errors.New("pipeline runner unavailable")
	}

	selected, err := stages.Select(req.From, req.To)
	if err != nil {
		return summary, err
	}

	install, err := toolkit.Open(req.ToolkitDir)
	if err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "", "resolve toolkit", "invalid toolkit directory", err)
	}
	layout, err := workspace.NewLayout(req.OutputDir)
	if err != nil {
		return summary, services.Wrap(services.ErrValidation, "", "resolve output", "invalid output directory", err)
	}
	summary.OutputDir = layout.Root()

	if strings.TrimSpace(req.ImageDir) == "" {
		return summary, services.Wrap(services.ErrValidation, "", "resolve images", "image directory required", nil)
	}
	imageDir, err := filepath.Abs(strings.TrimSpace(req.ImageDir))
	if err != nil {
		return summary, services.Wrap(services.ErrValidation, "", "resolve images", "invalid image directory", err)
	}
	count, err := workspace.CountImages(imageDir)
	if err != nil {
		return summary, services.Wrap(services.ErrNotFound, "", "count images", "could not read image directory", err)
	}
	if count == 0 {
		return summary, services.Wrap(services.ErrValidation, "", "count images",
			fmt.Sprintf("no files found in %s", imageDir), nil)
	}
	summary.ImageCount = count

	if err := os.MkdirAll(layout.Root(), 0o755); err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "", "prepare output", "could not create output directory", err)
	}
	lock := flock.New(filepath.Join(layout.Root(), LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return summary, fmt.Errorf("acquire output lock: %w", err)
	}
	if !locked {
		return summary, services.Wrap(services.ErrValidation, "", "acquire output lock",
			fmt.Sprintf("another run is using %s", layout.Root()), nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			p.logger.Warn("failed to release output lock", logging.Error(err))
		}
	}()

	summary.RunID = p.newID()
	runCtx := services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(runCtx, p.logger)

	store := p.openLedger(runCtx, logger, ledger.Run{
		ID:         summary.RunID,
		ToolkitDir: install.Root(),
		ImageDir:   imageDir,
		OutputDir:  layout.Root(),
		ImageCount: count,
		Stages:     joinNames(selected),
	}, layout)
	if store != nil {
		defer store.Close()
	}

	logger.Info("pipeline started",
		logging.Event("run_start"),
		logging.String("toolkit_dir", install.Root()),
		logging.String("image_dir", imageDir),
		logging.String("output_dir", layout.Root()),
		logging.Int("image_count", count),
		logging.Int("stage_count", len(selected)),
	)

	env := stages.Env{
		Toolkit:    install,
		Layout:     layout,
		ImageDir:   imageDir,
		ImageCount: count,
		Config:     p.cfg,
	}
	var recorder stageexec.Recorder
	if store != nil {
		recorder = store
	}

	for _, def := range selected {
		outcome, stageErr := stageexec.Run(runCtx, stageexec.Options{
			Logger:     p.logger,
			Runner:     p.runner,
			Recorder:   recorder,
			RunID:      summary.RunID,
			Definition: def,
			Env:        env,
		})
		summary.Stages = append(summary.Stages, StageOutcome{
			Name:     def.Name,
			Label:    def.Label(),
			Dir:      outcome.Dir,
			Command:  outcome.Command.String(),
			ExitCode: outcome.Result.ExitCode,
			Duration: outcome.Result.Duration,
			Err:      stageErr,
		})
		if stageErr != nil {
			summary.FinishedAt = time.Now()
			p.finishLedger(runCtx, logger, store, summary.RunID, stageErr)
			logger.Error("pipeline aborted",
				logging.Event("run_failure"),
				logging.Stage(string(def.Name)),
				logging.Duration("duration", summary.Duration()),
				logging.Error(stageErr),
			)
			return summary, stageErr
		}
	}

	summary.FinishedAt = time.Now()
	p.finishLedger(runCtx, logger, store, summary.RunID, nil)
	logger.Info("pipeline completed",
		logging.Event("run_complete"),
		logging.Duration("duration", summary.Duration()),
		logging.String("reconstruction", layout.Reconstruction()),
	)
	return summary, nil
}

// openLedger returns nil when history is disabled or unavailable; the run
// proceeds either way.
func (p *Pipeline) openLedger(ctx context.Context, logger *slog.Logger, run ledger.Run, layout workspace.Layout) *ledger.Store {
	if p.ledgerOff || !p.cfg.Ledger.Enabled {
		return nil
	}
	store, err := ledger.Open(layout.StatePath(ledger.FileName))
	if err != nil {
		logger.Warn("run history unavailable", logging.Error(err))
		return nil
	}
	if _, err := store.BeginRun(ctx, run); err != nil {
		logger.Warn("failed to record run start", logging.Error(err))
		_ = store.Close()
		return nil
	}
	return store
}

func (p *Pipeline) finishLedger(ctx context.Context, logger *slog.Logger, store *ledger.Store, runID string, runErr error) {
	if store == nil {
		return
	}
	status := ledger.RunSucceeded
	message := ""
	if runErr != nil {
		status = ledger.RunFailed
		if errors.Is(runErr, context.Canceled) {
			status = ledger.RunCanceled
		}
		message = services.Details(runErr).Message
	}
	if err := store.FinishRun(context.WithoutCancel(ctx), runID, status, message); err != nil {
		logger.Warn("failed to record run result", logging.Error(err))
	}
}

func joinNames(defs []stages.Definition) string {
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, string(def.Name))
	}
	return strings.Join(names, ",")
}
