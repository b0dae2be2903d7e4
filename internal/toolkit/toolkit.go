package toolkit

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"sfmpipe/internal/deps"
)

// Executable names shipped by the toolkit.
const (
	CameraInitBinary          = "aliceVision_cameraInit"
	FeatureExtractionBinary   = "aliceVision_featureExtraction"
	ImageMatchingBinary       = "aliceVision_imageMatching"
	FeatureMatchingBinary     = "aliceVision_featureMatching"
	StructureFromMotionBinary = "aliceVision_incrementalSfM"
)

const (
	sensorDatabaseName = "cameraSensors.db"
	vocabularyTreeName = "vlfeat_K80L3.SIFT.tree"
)

// Installation is a resolved toolkit root directory.
type Installation struct {
	root string
}

// Open resolves dir to an absolute path and verifies it is a directory.
func Open(dir string) (Installation, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return Installation{}, errors.New("toolkit directory required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Installation{}, fmt.Errorf("resolve toolkit directory %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return Installation{}, fmt.Errorf("inspect toolkit directory: %w", err)
	}
	if !info.IsDir() {
		return Installation{}, fmt.Errorf("toolkit path %s is not a directory", abs)
	}
	return Installation{root: abs}, nil
}

// Root returns the installation directory.
func (i Installation) Root() string { return i.root }

// BinDir returns the directory holding the stage executables.
func (i Installation) BinDir() string { return filepath.Join(i.root, "bin") }

// Binary returns the absolute path of the named executable.
func (i Installation) Binary(name string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(name, ".exe") {
		name += ".exe"
	}
	return filepath.Join(i.BinDir(), name)
}

// ShareDir returns the toolkit data directory.
func (i Installation) ShareDir() string {
	return filepath.Join(i.root, "share", "aliceVision")
}

// SensorDatabase returns the camera sensor width database used by camera initialization.
func (i Installation) SensorDatabase() string {
	return filepath.Join(i.ShareDir(), sensorDatabaseName)
}

// VocabularyTree returns the bundled vocabulary tree used by image matching.
func (i Installation) VocabularyTree() string {
	return filepath.Join(i.ShareDir(), vocabularyTreeName)
}

// Binaries lists every stage executable in pipeline order.
func Binaries() []string {
	return []string{
		CameraInitBinary,
		FeatureExtractionBinary,
		ImageMatchingBinary,
		FeatureMatchingBinary,
		StructureFromMotionBinary,
	}
}

// Requirements describes the executables the pipeline needs for dependency
// checks. With no arguments every stage executable is listed; otherwise only the
// named ones, in pipeline order.
func (i Installation) Requirements(binaries ...string) []deps.Requirement {
	names := Binaries()
	reqs := make([]deps.Requirement, 0, len(names))
	for _, name := range names {
		if !inScope(name, binaries) {
			continue
		}
		reqs = append(reqs, deps.Requirement{
			Name:        name,
			Command:     i.Binary(name),
			Description: "Toolkit stage executable",
		})
	}
	return reqs
}

// DataFiles reports availability of the shared data files read by binaries,
// or of every data file when none are named.
func (i Installation) DataFiles(binaries ...string) []deps.Status {
	// binary is the executable that reads the file.
	files := []struct{ name, path, desc, binary string }{
		{"Sensor database", i.SensorDatabase(), "Camera sensor widths for intrinsics", CameraInitBinary},
		{"Vocabulary tree", i.VocabularyTree(), "Image retrieval for pair selection", ImageMatchingBinary},
	}
	out := make([]deps.Status, 0, len(files))
	for _, f := range files {
		if inScope(f.binary, binaries) {
			out = append(out, StatFile(f.name, f.path, f.desc))
		}
	}
	return out
}

// StatFile reports whether path is an existing regular file.
func StatFile(name, path, description string) deps.Status {
	status := deps.Status{Name: name, Command: path, Description: description}
	if info, err := os.Stat(path); err != nil {
		status.Detail = fmt.Sprintf("file %q not found", path)
	} else if info.IsDir() {
		status.Detail = fmt.Sprintf("%q is a directory", path)
	} else {
		status.Available = true
	}
	return status
}

func inScope(name string, binaries []string) bool {
	return len(binaries) == 0 || slices.Contains(binaries, name)
}
