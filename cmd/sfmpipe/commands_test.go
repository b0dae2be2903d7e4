package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"sfmpipe/internal/ledger"
	"sfmpipe/internal/testsupport"
	"sfmpipe/internal/toolkit"
	"sfmpipe/internal/workspace"
)

func TestStagesCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"stages"}, "")
	if err != nil {
		t.Fatalf("stages: %v", err)
	}
	requireContains(t, out, "00_CameraInit")
	requireContains(t, out, "04_StructureFromMotion")
	requireContains(t, out, toolkit.StructureFromMotionBinary)
	requireContains(t, out, "Feature Matching")
}

func TestDoctorCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"doctor", env.toolkitDir, env.imageDir, env.outputDir}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "== Preflight ==")
	requireContains(t, out, "[OK]")
	requireContains(t, out, "Ready to run")
	requireNotContains(t, out, "\x1b[")

	broken := setupCLITestEnv(t, testsupport.WithoutBinary(toolkit.FeatureMatchingBinary))
	out, _, err = runCLI(t, []string{"doctor", broken.toolkitDir, broken.imageDir, broken.outputDir}, broken.configPath)
	if err == nil {
		t.Fatal("expected doctor to fail for a missing executable")
	}
	requireContains(t, out, "[ERROR]")
	requireContains(t, out, toolkit.FeatureMatchingBinary)
}

func TestHistoryCommand(t *testing.T) {
	skipWithoutShell(t)
	env := setupCLITestEnv(t,
		testsupport.WithScript(toolkit.ImageMatchingBinary, "#!/bin/sh\necho 'tree missing' >&2\nexit 2\n"),
	)

	out, _, err := runCLI(t, []string{"history", env.outputDir}, "")
	if err != nil {
		t.Fatalf("history before run: %v", err)
	}
	requireContains(t, out, "No run history")

	if _, _, err := runCLI(t, env.runArgs("-s"), env.configPath); err == nil {
		t.Fatal("expected the run to fail at image matching")
	}

	out, _, err = runCLI(t, []string{"history", env.outputDir}, "")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "failed")

	store := testsupport.MustOpenLedger(t, filepath.Join(env.outputDir, workspace.StateDir, ledger.FileName))
	runs, err := store.ListRuns(context.Background(), 0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected one recorded run, got %d (%v)", len(runs), err)
	}
	_ = store.Close()

	out, _, err = runCLI(t, []string{"history", env.outputDir, "--run", runs[0].ID[:8]}, "")
	if err != nil {
		t.Fatalf("history --run: %v", err)
	}
	requireContains(t, out, "camera_init")
	requireContains(t, out, "image_matching")
	requireContains(t, out, "tree missing")

	if _, _, err := runCLI(t, []string{"history", env.outputDir, "--run", "zzzz"}, ""); err == nil {
		t.Fatal("expected unknown run id to fail")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "LD_LIBRARY_PATH=")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}

	out, _, err = runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("validate sample: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestConfigValidateRejectsBadFile(t *testing.T) {
	env := setupCLITestEnv(t)
	bad := filepath.Join(env.baseDir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[feature_matching]\ndistance_ratio = 2.0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, bad); err == nil {
		t.Fatal("expected validation error")
	}
}
