package stages_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sfmpipe/internal/config"
	"sfmpipe/internal/services"
	"sfmpipe/internal/stages"
	"sfmpipe/internal/toolkit"
	"sfmpipe/internal/workspace"
)

func newEnv(t *testing.T) stages.Env {
	t.Helper()
	root := t.TempDir()
	install, err := toolkit.Open(root)
	if err != nil {
		t.Fatalf("open toolkit: %v", err)
	}
	layout, err := workspace.NewLayout(filepath.Join(root, "out"))
	if err != nil {
		t.Fatalf("new layout: %v", err)
	}
	cfg := config.Default()
	return stages.Env{
		Toolkit:    install,
		Layout:     layout,
		ImageDir:   filepath.Join(root, "images"),
		ImageCount: 7,
		Config:     &cfg,
	}
}

func build(t *testing.T, name stages.Name, env stages.Env) []string {
	t.Helper()
	def, _, ok := stages.Lookup(string(name))
	if !ok {
		t.Fatalf("lookup %s failed", name)
	}
	cmd, err := def.Build(env)
	if err != nil {
		t.Fatalf("build %s: %v", name, err)
	}
	if cmd.Path != env.Toolkit.Binary(def.Binary) {
		t.Fatalf("path = %q, want %q", cmd.Path, env.Toolkit.Binary(def.Binary))
	}
	if cmd.Name != def.Label() {
		t.Fatalf("name = %q, want %q", cmd.Name, def.Label())
	}
	return cmd.Args
}

func TestCameraInitArguments(t *testing.T) {
	env := newEnv(t)
	got := build(t, stages.CameraInit, env)
	want := []string{
		"--imageFolder", env.ImageDir,
		"--sensorDatabase", env.Toolkit.SensorDatabase(),
		"--output", filepath.Join(env.Layout.Root(), "00_CameraInit", "cameraInit.sfm"),
		"--defaultFieldOfView", "45",
		"--allowSingleView", "1",
		"--verboseLevel", "error",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("camera init args mismatch (-want +got):\n%s", diff)
	}
}

func TestFeatureExtractionUsesImageCountVerbatim(t *testing.T) {
	env := newEnv(t)
	env.ImageCount = 13
	got := build(t, stages.FeatureExtraction, env)
	want := []string{
		"--input", env.Layout.CameraInit(),
		"--output", filepath.Join(env.Layout.Root(), "01_FeatureExtraction"),
		"--describerTypes", "sift",
		"--describerPreset", "normal",
		"--forceCpuExtraction", "1",
		"--rangeStart", "0",
		"--rangeSize", "13",
		"--verboseLevel", "error",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("feature extraction args mismatch (-want +got):\n%s", diff)
	}
}

func TestImageMatchingDefaultsToBundledTree(t *testing.T) {
	env := newEnv(t)
	got := build(t, stages.ImageMatching, env)
	want := []string{
		"--input", env.Layout.CameraInit(),
		"--featuresFolders", env.Layout.FeaturesFolder(),
		"--output", filepath.Join(env.Layout.Root(), "02_ImageMatching", "imageMatches.txt"),
		"--tree", filepath.Join(env.Toolkit.Root(), "share", "aliceVision", "vlfeat_K80L3.SIFT.tree"),
		"--minNbImages", "200",
		"--maxDescriptors", "500",
		"--nbMatches", "50",
		"--verboseLevel", "error",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("image matching args mismatch (-want +got):\n%s", diff)
	}

	env.Config.ImageMatching.Tree = "/custom/tree"
	got = build(t, stages.ImageMatching, env)
	if got[7] != "/custom/tree" {
		t.Fatalf("tree override not applied: %v", got)
	}
}

func TestFeatureMatchingArguments(t *testing.T) {
	env := newEnv(t)
	got := build(t, stages.FeatureMatching, env)
	want := []string{
		"--input", env.Layout.CameraInit(),
		"--featuresFolders", env.Layout.FeaturesFolder(),
		"--output", filepath.Join(env.Layout.Root(), "03_FeatureMatching"),
		"--imagePairsList", env.Layout.ImagePairs(),
		"--describerTypes", "sift",
		"--photometricMatchingMethod", "ANN_L2",
		"--geometricEstimator", "acransac",
		"--geometricFilterType", "fundamental_matrix",
		"--distanceRatio", "0.8",
		"--maxIteration", "2048",
		"--geometricError", "0",
		"--knownPosesGeometricErrorMax", "5",
		"--maxMatches", "0",
		"--savePutativeMatches", "0",
		"--guidedMatching", "0",
		"--exportDebugFiles", "1",
		"--verboseLevel", "error",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("feature matching args mismatch (-want +got):\n%s", diff)
	}
}

func TestStructureFromMotionArguments(t *testing.T) {
	env := newEnv(t)
	env.Config.Toolkit.VerboseLevel = "info"
	got := build(t, stages.StructureFromMotion, env)
	sfmDir := filepath.Join(env.Layout.Root(), "04_StructureFromMotion")
	want := []string{
		"--input", env.Layout.CameraInit(),
		"--output", filepath.Join(sfmDir, "sfm.abc"),
		"--outputViewsAndPoses", filepath.Join(sfmDir, "cameras.sfm"),
		"--extraInfoFolder", sfmDir,
		"--featuresFolders", env.Layout.FeaturesFolder(),
		"--matchesFolders", env.Layout.MatchesFolder(),
		"--describerTypes", "sift",
		"--localizerEstimator", "acransac",
		"--lockScenePreviouslyReconstructed", "0",
		"--useLocalBA", "1",
		"--localBAGraphDistance", "1",
		"--maxNumberOfMatches", "0",
		"--minInputTrackLength", "2",
		"--minNumberOfObservationsForTriangulation", "2",
		"--minAngleForTriangulation", "3",
		"--minAngleForLandmark", "2",
		"--maxReprojectionError", "4",
		"--minAngleInitialPair", "5",
		"--maxAngleInitialPair", "40",
		"--useOnlyMatchesFromInputFolder", "0",
		"--verboseLevel", "info",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sfm args mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRejectsIncompleteEnv(t *testing.T) {
	def, _, _ := stages.Lookup("camera_init")
	env := newEnv(t)
	env.ImageDir = " "
	if _, err := def.Build(env); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing image dir, got %v", err)
	}
	env = newEnv(t)
	env.ImageCount = -1
	if _, err := def.Build(env); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for negative count, got %v", err)
	}
	if _, err := def.Build(stages.Env{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty env, got %v", err)
	}
}

func TestBuildIsPure(t *testing.T) {
	env := newEnv(t)
	def, _, _ := stages.Lookup("feature_matching")
	first, err := def.Build(env)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	second, err := def.Build(env)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated builds differ:\n%s", diff)
	}
}
