package stageexec_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sfmpipe/internal/config"
	"sfmpipe/internal/execrun"
	"sfmpipe/internal/ledger"
	"sfmpipe/internal/services"
	"sfmpipe/internal/stageexec"
	"sfmpipe/internal/stages"
	"sfmpipe/internal/toolkit"
	"sfmpipe/internal/workspace"
)

type fakeRunner struct {
	result execrun.Result
	err    error
	calls  []execrun.Command
	stage  string
}

func (f *fakeRunner) Run(ctx context.Context, cmd execrun.Command) (execrun.Result, error) {
	f.calls = append(f.calls, cmd)
	f.stage, _ = services.StageFromContext(ctx)
	return f.result, f.err
}

type fakeRecorder struct {
	runID   string
	records []ledger.StageRecord
	err     error
}

func (f *fakeRecorder) RecordStage(_ context.Context, runID string, rec ledger.StageRecord) (ledger.StageRun, error) {
	f.runID = runID
	f.records = append(f.records, rec)
	return ledger.StageRun{}, f.err
}

func newEnv(t *testing.T) stages.Env {
	t.Helper()
	root := t.TempDir()
	install, err := toolkit.Open(root)
	if err != nil {
		t.Fatalf("open toolkit: %v", err)
	}
	layout, err := workspace.NewLayout(filepath.Join(root, "out"))
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	cfg := config.Default()
	return stages.Env{Toolkit: install, Layout: layout, ImageDir: root, ImageCount: 3, Config: &cfg}
}

func definition(t *testing.T, name stages.Name) stages.Definition {
	t.Helper()
	def, _, ok := stages.Lookup(string(name))
	if !ok {
		t.Fatalf("unknown stage %s", name)
	}
	return def
}

func TestRunCreatesDirectoryAndRecordsSuccess(t *testing.T) {
	env := newEnv(t)
	runner := &fakeRunner{result: execrun.Result{Duration: 2 * time.Second}}
	recorder := &fakeRecorder{}

	outcome, err := stageexec.Run(context.Background(), stageexec.Options{
		Runner:     runner,
		Recorder:   recorder,
		RunID:      "run-42",
		Definition: definition(t, stages.ImageMatching),
		Env:        env,
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	wantDir := filepath.Join(env.Layout.Root(), workspace.ImageMatchingDir)
	if outcome.Dir != wantDir {
		t.Fatalf("dir = %q, want %q", outcome.Dir, wantDir)
	}
	if info, err := os.Stat(wantDir); err != nil || !info.IsDir() {
		t.Fatalf("stage directory not created: %v", err)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("expected one runner call, got %d", len(runner.calls))
	}
	if runner.stage != string(stages.ImageMatching) {
		t.Fatalf("stage not attached to context: %q", runner.stage)
	}
	if recorder.runID != "run-42" || len(recorder.records) != 1 {
		t.Fatalf("unexpected recorder state: %+v", recorder)
	}
	rec := recorder.records[0]
	if rec.Stage != "image_matching" || rec.Err != nil || rec.Duration != 2*time.Second {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.CommandLine != outcome.Command.String() {
		t.Fatalf("command line = %q, want %q", rec.CommandLine, outcome.Command.String())
	}
}

func TestRunPropagatesFailureAndRecordsStderr(t *testing.T) {
	env := newEnv(t)
	failure := services.Wrap(services.ErrExternalTool, "feature_matching", "run", "toolkit exited with code 2", nil)
	runner := &fakeRunner{result: execrun.Result{ExitCode: 2, Stderr: []byte("bad pairs")}, err: failure}
	recorder := &fakeRecorder{}

	outcome, err := stageexec.Run(context.Background(), stageexec.Options{
		Runner:     runner,
		Recorder:   recorder,
		RunID:      "run-7",
		Definition: definition(t, stages.FeatureMatching),
		Env:        env,
	})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if outcome.Err != err {
		t.Fatalf("outcome error not set")
	}
	if len(recorder.records) != 1 {
		t.Fatalf("expected failure to be recorded")
	}
	rec := recorder.records[0]
	if rec.ExitCode != 2 || string(rec.Stderr) != "bad pairs" || rec.Err == nil {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestRunBuildFailureSkipsRunner(t *testing.T) {
	env := newEnv(t)
	env.ImageCount = -1
	runner := &fakeRunner{}
	recorder := &fakeRecorder{}

	_, err := stageexec.Run(context.Background(), stageexec.Options{
		Runner:     runner,
		Recorder:   recorder,
		RunID:      "run-1",
		Definition: definition(t, stages.FeatureExtraction),
		Env:        env,
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("runner should not be invoked when build fails")
	}
	if len(recorder.records) != 1 || recorder.records[0].ExitCode != -1 {
		t.Fatalf("expected build failure recorded with exit -1: %+v", recorder.records)
	}
}

func TestRecorderErrorDoesNotFailStage(t *testing.T) {
	env := newEnv(t)
	runner := &fakeRunner{}
	recorder := &fakeRecorder{err: errors.New("disk full")}

	if _, err := stageexec.Run(context.Background(), stageexec.Options{
		Runner:     runner,
		Recorder:   recorder,
		RunID:      "run-1",
		Definition: definition(t, stages.CameraInit),
		Env:        env,
	}); err != nil {
		t.Fatalf("recorder failure should not fail the stage: %v", err)
	}
}

func TestRunRequiresRunner(t *testing.T) {
	if _, err := stageexec.Run(context.Background(), stageexec.Options{Definition: definition(t, stages.CameraInit)}); err == nil {
		t.Fatal("expected error without runner")
	}
}
