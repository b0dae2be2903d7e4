package preflight

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sfmpipe/internal/services"
	"sfmpipe/internal/testsupport"
	"sfmpipe/internal/toolkit"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckImageDirectory(t *testing.T) {
	if result := CheckImageDirectory(testsupport.ImageDir(t, 3)); !result.Passed || !strings.Contains(result.Detail, "3 files") {
		t.Fatalf("expected pass with 3 files, got %+v", result)
	}
	if result := CheckImageDirectory(t.TempDir()); result.Passed {
		t.Fatal("expected failure for empty image dir")
	}
	if result := CheckImageDirectory(""); result.Passed {
		t.Fatal("expected failure for unset image dir")
	}
}

func TestCheckOutputDirectory(t *testing.T) {
	base := t.TempDir()
	if result := CheckOutputDirectory(base); !result.Passed {
		t.Fatalf("expected existing dir to pass, got %s", result.Detail)
	}
	result := CheckOutputDirectory(filepath.Join(base, "a", "b"))
	if !result.Passed || !strings.Contains(result.Detail, "will be created") {
		t.Fatalf("expected creatable dir to pass, got %+v", result)
	}
	file := filepath.Join(base, "file")
	testsupport.WriteFile(t, file, 1)
	if result := CheckOutputDirectory(filepath.Join(file, "out")); result.Passed {
		t.Fatal("expected failure beneath a regular file")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 0); !result.Passed {
		t.Fatalf("zero threshold should pass: %s", result.Detail)
	}
	if result := CheckFreeSpace("space", filepath.Join(dir, "missing", "child"), 1); !result.Passed {
		t.Fatalf("missing path should resolve to ancestor: %s", result.Detail)
	}
	if result := CheckFreeSpace("space", dir, math.MaxUint64); result.Passed {
		t.Fatal("expected failure for impossible threshold")
	}
}

func TestCheckLibraryPath(t *testing.T) {
	dir := t.TempDir()
	if result := CheckLibraryPath("LD_LIBRARY_PATH", dir); !result.Passed {
		t.Fatalf("existing library dir should pass: %s", result.Detail)
	}
	result := CheckLibraryPath("LD_LIBRARY_PATH", filepath.Join(dir, "nope"))
	if result.Passed || !result.Warning || result.Blocking() {
		t.Fatalf("missing library dir should warn without blocking: %+v", result)
	}
}

func TestCheckToolkit(t *testing.T) {
	root := testsupport.StubToolkit(t, testsupport.WithoutBinary(toolkit.ImageMatchingBinary))
	results := CheckToolkit(context.Background(), root, nil, "")
	// Installation, five executables, two data files.
	if len(results) != 8 {
		t.Fatalf("expected 8 results, got %d", len(results))
	}
	failed := Failures(results)
	if len(failed) != 1 || failed[0].Name != toolkit.ImageMatchingBinary {
		t.Fatalf("expected only image matching to fail, got %+v", failed)
	}

	missing := CheckToolkit(context.Background(), filepath.Join(t.TempDir(), "nope"), nil, "")
	if len(missing) != 1 || missing[0].Passed {
		t.Fatalf("expected single failing result for missing toolkit, got %+v", missing)
	}
}

func TestCheckToolkitLimitsToSelectedBinaries(t *testing.T) {
	root := testsupport.StubToolkit(t,
		testsupport.WithoutBinary(toolkit.CameraInitBinary),
		testsupport.WithoutData(),
	)
	selected := []string{toolkit.FeatureMatchingBinary, toolkit.StructureFromMotionBinary}
	results := CheckToolkit(context.Background(), root, selected, "")
	// Installation plus the two selected executables; neither reads a data file.
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %+v", results)
	}
	if failed := Failures(results); len(failed) != 0 {
		t.Fatalf("unselected stages should not be checked, got %+v", failed)
	}
}

func TestRunAllUsesConfiguredTree(t *testing.T) {
	root := testsupport.StubToolkit(t)
	install, err := toolkit.Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := os.Remove(install.VocabularyTree()); err != nil {
		t.Fatalf("remove bundled tree: %v", err)
	}
	tree := filepath.Join(t.TempDir(), "custom.tree")
	testsupport.WriteFile(t, tree, 16)

	cfg := testsupport.NewConfig(t, testsupport.WithLibraryPath(t.TempDir()))
	cfg.ImageMatching.Tree = tree
	req := Request{
		ToolkitDir: root,
		ImageDir:   testsupport.ImageDir(t, 2),
		OutputDir:  filepath.Join(t.TempDir(), "out"),
	}
	if err := Err(RunAll(context.Background(), cfg, req)); err != nil {
		t.Fatalf("configured tree should replace the bundled one, got %v", err)
	}

	cfg.ImageMatching.Tree = filepath.Join(t.TempDir(), "missing.tree")
	err = Err(RunAll(context.Background(), cfg, req))
	if err == nil || !strings.Contains(err.Error(), "missing.tree") {
		t.Fatalf("expected failure naming the configured tree, got %v", err)
	}

	cfg.ImageMatching.Tree = ""
	if err := Err(RunAll(context.Background(), cfg, req)); err == nil {
		t.Fatal("expected failure for missing bundled tree without an override")
	}
}

func TestRunAllAndErr(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLibraryPath(t.TempDir()))
	req := Request{
		ToolkitDir: testsupport.StubToolkit(t),
		ImageDir:   testsupport.ImageDir(t, 2),
		OutputDir:  filepath.Join(t.TempDir(), "out"),
	}
	results := RunAll(context.Background(), cfg, req)
	if err := Err(results); err != nil {
		t.Fatalf("expected clean preflight, got %v", err)
	}

	req.ToolkitDir = testsupport.StubToolkit(t, testsupport.WithoutData())
	err := Err(RunAll(context.Background(), cfg, req))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Sensor database") {
		t.Fatalf("error should name the missing data file: %v", err)
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, Request{}); results != nil {
		t.Fatalf("expected nil results, got %+v", results)
	}
}
