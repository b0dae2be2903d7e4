package config

const (
	defaultConfigPath   = "~/.config/sfmpipe/config.toml"
	projectConfigName   = "sfmpipe.toml"
	defaultLibraryPath  = "~/AliceVision/lib"
	defaultLibraryEnv   = "LD_LIBRARY_PATH"
	defaultVerboseLevel = "error"
	defaultMinFreeGiB   = 2
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"

	// LibraryPathEnv overrides toolkit.library_path when the file leaves it empty.
	LibraryPathEnv = "SFMPIPE_LIBRARY_PATH"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Toolkit: Toolkit{
			LibraryPath:  defaultLibraryPath,
			LibraryEnv:   defaultLibraryEnv,
			VerboseLevel: defaultVerboseLevel,
			MinFreeGiB:   defaultMinFreeGiB,
		},
		CameraInit: CameraInit{
			DefaultFieldOfView: 45,
			AllowSingleView:    true,
		},
		FeatureExtraction: FeatureExtraction{
			DescriberTypes:  "sift",
			DescriberPreset: "normal",
			ForceCPU:        true,
		},
		ImageMatching: ImageMatching{
			MinImages:      200,
			MaxDescriptors: 500,
			Matches:        50,
		},
		FeatureMatching: FeatureMatching{
			PhotometricMethod:           "ANN_L2",
			GeometricEstimator:          "acransac",
			GeometricFilter:             "fundamental_matrix",
			DistanceRatio:               0.8,
			MaxIteration:                2048,
			GeometricError:              0,
			KnownPosesGeometricErrorMax: 5,
			MaxMatches:                  0,
			ExportDebugFiles:            true,
		},
		StructureFromMotion: StructureFromMotion{
			LocalizerEstimator:         "acransac",
			UseLocalBA:                 true,
			LocalBAGraphDistance:       1,
			MinInputTrackLength:        2,
			MinObservationsForTriangle: 2,
			MinAngleForTriangulation:   3,
			MinAngleForLandmark:        2,
			MaxReprojectionError:       4,
			MinAngleInitialPair:        5,
			MaxAngleInitialPair:        40,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Ledger: Ledger{
			Enabled: true,
		},
	}
}
