package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Stage subdirectory names under the output root.
const (
	CameraInitDir          = "00_CameraInit"
	FeatureExtractionDir   = "01_FeatureExtraction"
	ImageMatchingDir       = "02_ImageMatching"
	FeatureMatchingDir     = "03_FeatureMatching"
	StructureFromMotionDir = "04_StructureFromMotion"
)

// Intermediate file names written by the stages.
const (
	CameraInitFile     = "cameraInit.sfm"
	ImagePairsFile     = "imageMatches.txt"
	ReconstructionFile = "sfm.abc"
	ViewsAndPosesFile  = "cameras.sfm"
)

// StateDir holds the run ledger inside the output root. It is created only
// when history is enabled.
const StateDir = ".sfmpipe"

// Layout resolves stage paths beneath an output root.
type Layout struct {
	root string
}

// NewLayout returns a layout rooted at the absolute form of dir.
func NewLayout(dir string) (Layout, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return Layout{}, errors.New("output directory required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Layout{}, fmt.Errorf("resolve output directory %q: %w", dir, err)
	}
	return Layout{root: abs}, nil
}

// Root returns the output directory.
func (l Layout) Root() string { return l.root }

// Dir returns the absolute path of a stage subdirectory.
func (l Layout) Dir(stageDir string) string { return filepath.Join(l.root, stageDir) }

// CameraInit is the camera initialization description file.
func (l Layout) CameraInit() string {
	return filepath.Join(l.root, CameraInitDir, CameraInitFile)
}

// FeaturesFolder is where feature extraction writes descriptors.
func (l Layout) FeaturesFolder() string { return l.Dir(FeatureExtractionDir) }

// ImagePairs is the image pair list consumed by feature matching.
func (l Layout) ImagePairs() string {
	return filepath.Join(l.root, ImageMatchingDir, ImagePairsFile)
}

// MatchesFolder is where feature matching writes correspondences.
func (l Layout) MatchesFolder() string { return l.Dir(FeatureMatchingDir) }

// Reconstruction is the structure-from-motion result.
func (l Layout) Reconstruction() string {
	return filepath.Join(l.root, StructureFromMotionDir, ReconstructionFile)
}

// ViewsAndPoses is the structure-from-motion views and poses file.
func (l Layout) ViewsAndPoses() string {
	return filepath.Join(l.root, StructureFromMotionDir, ViewsAndPosesFile)
}

// StatePath joins name under the bookkeeping directory.
func (l Layout) StatePath(name string) string {
	return filepath.Join(l.root, StateDir, name)
}

// EnsureDir creates a stage directory if it is absent. Existing contents are
// left untouched.
func (l Layout) EnsureDir(stageDir string) (string, error) {
	dir := l.Dir(stageDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create stage directory %q: %w", dir, err)
	}
	return dir, nil
}
