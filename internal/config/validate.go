package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	verboseLevels       = setOf("fatal", "error", "warning", "info", "debug", "trace")
	describerTypes      = setOf("sift", "sift_float", "sift_upright", "dspsift", "akaze", "akaze_liop", "akaze_mldb", "cctag3", "cctag4", "sift_ocv", "akaze_ocv", "tag16h5")
	describerPresets    = setOf("low", "medium", "normal", "high", "ultra")
	photometricMethods  = setOf("BRUTE_FORCE_L2", "ANN_L2", "CASCADE_HASHING_L2", "FAST_CASCADE_HASHING_L2", "BRUTE_FORCE_HAMMING")
	geometricEstimators = setOf("acransac", "loransac")
	geometricFilters    = setOf("fundamental_matrix", "fundamental_with_distortion", "essential_matrix", "homography_matrix", "homography_growing", "no_filtering")
	localizerEstimators = setOf("acransac", "ransac", "lsmeds", "loransac", "maxconsensus")
	logLevels           = setOf("debug", "info", "warn", "error")
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateToolkit(); err != nil {
		return err
	}
	if err := c.validateCameraInit(); err != nil {
		return err
	}
	if err := c.validateFeatureExtraction(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateStructureFromMotion(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateToolkit() error {
	if c.Toolkit.LibraryPath == "" {
		return fmt.Errorf("toolkit.library_path is required. Set %s or edit the config file", LibraryPathEnv)
	}
	if strings.ContainsAny(c.Toolkit.LibraryEnv, "= \t") {
		return fmt.Errorf("toolkit.library_env %q is not a valid environment variable name", c.Toolkit.LibraryEnv)
	}
	if err := ensureOneOf("toolkit.verbose_level", c.Toolkit.VerboseLevel, verboseLevels); err != nil {
		return err
	}
	return ensureNonNegativeMap(map[string]int{
		"toolkit.stage_timeout": c.Toolkit.StageTimeout,
		"toolkit.min_free_gib":  c.Toolkit.MinFreeGiB,
	})
}

func (c *Config) validateCameraInit() error {
	fov := c.CameraInit.DefaultFieldOfView
	if fov <= 0 || fov >= 180 {
		return errors.New("camera_init.default_field_of_view must be between 0 and 180 degrees")
	}
	return nil
}

func (c *Config) validateFeatureExtraction() error {
	if c.FeatureExtraction.DescriberTypes == "" {
		return errors.New("feature_extraction.describer_types must list at least one describer")
	}
	for _, describer := range strings.Split(c.FeatureExtraction.DescriberTypes, ",") {
		if err := ensureOneOf("feature_extraction.describer_types", describer, describerTypes); err != nil {
			return err
		}
	}
	return ensureOneOf("feature_extraction.describer_preset", c.FeatureExtraction.DescriberPreset, describerPresets)
}

func (c *Config) validateMatching() error {
	if err := ensurePositiveMap(map[string]int{
		"image_matching.min_images":      c.ImageMatching.MinImages,
		"image_matching.max_descriptors": c.ImageMatching.MaxDescriptors,
		"image_matching.matches":         c.ImageMatching.Matches,
		"feature_matching.max_iteration": c.FeatureMatching.MaxIteration,
	}); err != nil {
		return err
	}
	fm := c.FeatureMatching
	if err := ensureOneOf("feature_matching.photometric_method", fm.PhotometricMethod, photometricMethods); err != nil {
		return err
	}
	if err := ensureOneOf("feature_matching.geometric_estimator", fm.GeometricEstimator, geometricEstimators); err != nil {
		return err
	}
	if err := ensureOneOf("feature_matching.geometric_filter", fm.GeometricFilter, geometricFilters); err != nil {
		return err
	}
	if fm.DistanceRatio <= 0 || fm.DistanceRatio > 1 {
		return errors.New("feature_matching.distance_ratio must be within (0, 1]")
	}
	if fm.GeometricError < 0 || fm.KnownPosesGeometricErrorMax < 0 {
		return errors.New("feature_matching geometric error thresholds must be >= 0")
	}
	return ensureNonNegativeMap(map[string]int{
		"feature_matching.max_matches": fm.MaxMatches,
	})
}

func (c *Config) validateStructureFromMotion() error {
	sfm := c.StructureFromMotion
	if err := ensureOneOf("structure_from_motion.localizer_estimator", sfm.LocalizerEstimator, localizerEstimators); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"structure_from_motion.min_input_track_length":             sfm.MinInputTrackLength,
		"structure_from_motion.min_observations_for_triangulation": sfm.MinObservationsForTriangle,
	}); err != nil {
		return err
	}
	if err := ensureNonNegativeMap(map[string]int{
		"structure_from_motion.local_ba_graph_distance": sfm.LocalBAGraphDistance,
		"structure_from_motion.max_number_of_matches":   sfm.MaxNumberOfMatches,
	}); err != nil {
		return err
	}
	if sfm.MaxReprojectionError <= 0 {
		return errors.New("structure_from_motion.max_reprojection_error must be positive")
	}
	if sfm.MinAngleInitialPair >= sfm.MaxAngleInitialPair {
		return errors.New("structure_from_motion.min_angle_initial_pair must be below max_angle_initial_pair")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return ensureOneOf("logging.level", c.Logging.Level, logLevels)
}

func ensureOneOf(key, value string, allowed map[string]struct{}) error {
	if _, ok := allowed[value]; ok {
		return nil
	}
	options := make([]string, 0, len(allowed))
	for option := range allowed {
		options = append(options, option)
	}
	sort.Strings(options)
	return fmt.Errorf("%s: unsupported value %q (expected one of %s)", key, value, strings.Join(options, ", "))
}

func ensurePositiveMap(values map[string]int) error {
	for _, key := range sortedKeys(values) {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

func ensureNonNegativeMap(values map[string]int) error {
	for _, key := range sortedKeys(values) {
		if values[key] < 0 {
			return fmt.Errorf("%s must be >= 0", key)
		}
	}
	return nil
}

func sortedKeys(values map[string]int) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func setOf(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[value] = struct{}{}
	}
	return set
}
