package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Toolkit contains settings shared by every toolkit invocation.
type Toolkit struct {
	// LibraryPath is exported as LibraryEnv for each subprocess, replacing
	// any inherited value.
	LibraryPath  string `toml:"library_path"`
	LibraryEnv   string `toml:"library_env"`
	VerboseLevel string `toml:"verbose_level"`
	// StageTimeout bounds a single stage in seconds. Zero disables the limit.
	StageTimeout int `toml:"stage_timeout"`
	MinFreeGiB   int `toml:"min_free_gib"`
}

// CameraInit contains parameters for the camera initialization stage.
type CameraInit struct {
	DefaultFieldOfView float64 `toml:"default_field_of_view"`
	AllowSingleView    bool    `toml:"allow_single_view"`
}

// FeatureExtraction contains parameters for feature extraction. DescriberTypes
// is shared with the matching and reconstruction stages.
type FeatureExtraction struct {
	DescriberTypes  string `toml:"describer_types"`
	DescriberPreset string `toml:"describer_preset"`
	ForceCPU        bool   `toml:"force_cpu"`
}

// ImageMatching contains parameters for vocabulary-tree image matching.
type ImageMatching struct {
	// Tree overrides the vocabulary tree bundled with the toolkit.
	Tree           string `toml:"tree"`
	MinImages      int    `toml:"min_images"`
	MaxDescriptors int    `toml:"max_descriptors"`
	Matches        int    `toml:"matches"`
}

// FeatureMatching contains parameters for pairwise feature matching.
type FeatureMatching struct {
	PhotometricMethod           string  `toml:"photometric_method"`
	GeometricEstimator          string  `toml:"geometric_estimator"`
	GeometricFilter             string  `toml:"geometric_filter"`
	DistanceRatio               float64 `toml:"distance_ratio"`
	MaxIteration                int     `toml:"max_iteration"`
	GeometricError              float64 `toml:"geometric_error"`
	KnownPosesGeometricErrorMax float64 `toml:"known_poses_geometric_error_max"`
	MaxMatches                  int     `toml:"max_matches"`
	SavePutativeMatches         bool    `toml:"save_putative_matches"`
	GuidedMatching              bool    `toml:"guided_matching"`
	ExportDebugFiles            bool    `toml:"export_debug_files"`
}

// StructureFromMotion contains parameters for incremental reconstruction.
type StructureFromMotion struct {
	LocalizerEstimator         string  `toml:"localizer_estimator"`
	LockScenePreviously        bool    `toml:"lock_scene_previously_reconstructed"`
	UseLocalBA                 bool    `toml:"use_local_ba"`
	LocalBAGraphDistance       int     `toml:"local_ba_graph_distance"`
	MaxNumberOfMatches         int     `toml:"max_number_of_matches"`
	MinInputTrackLength        int     `toml:"min_input_track_length"`
	MinObservationsForTriangle int     `toml:"min_observations_for_triangulation"`
	MinAngleForTriangulation   float64 `toml:"min_angle_for_triangulation"`
	MinAngleForLandmark        float64 `toml:"min_angle_for_landmark"`
	MaxReprojectionError       float64 `toml:"max_reprojection_error"`
	MinAngleInitialPair        float64 `toml:"min_angle_initial_pair"`
	MaxAngleInitialPair        float64 `toml:"max_angle_initial_pair"`
	UseOnlyMatchesFromInput    bool    `toml:"use_only_matches_from_input_folder"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Ledger controls the per-output-tree run history database.
type Ledger struct {
	Enabled bool `toml:"enabled"`
}

// Config encapsulates all configuration values for sfmpipe.
//
// Configuration sections:
//   - Toolkit: library search path, tool verbosity, timeouts
//   - CameraInit, FeatureExtraction, ImageMatching, FeatureMatching,
//     StructureFromMotion: fixed flags passed to each stage executable
//   - Logging: log format and level
//   - Ledger: run history persistence
type Config struct {
	Toolkit             Toolkit             `toml:"toolkit"`
	CameraInit          CameraInit          `toml:"camera_init"`
	FeatureExtraction   FeatureExtraction   `toml:"feature_extraction"`
	ImageMatching       ImageMatching       `toml:"image_matching"`
	FeatureMatching     FeatureMatching     `toml:"feature_matching"`
	StructureFromMotion StructureFromMotion `toml:"structure_from_motion"`
	Logging             Logging             `toml:"logging"`
	Ledger              Ledger              `toml:"ledger"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// StageTimeout returns the per-stage deadline, or zero when unbounded.
func (c *Config) StageTimeout() time.Duration {
	if c.Toolkit.StageTimeout <= 0 {
		return 0
	}
	return time.Duration(c.Toolkit.StageTimeout) * time.Second
}

// MinFreeBytes returns the free-space floor enforced by preflight.
func (c *Config) MinFreeBytes() uint64 {
	if c.Toolkit.MinFreeGiB <= 0 {
		return 0
	}
	return uint64(c.Toolkit.MinFreeGiB) << 30
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
