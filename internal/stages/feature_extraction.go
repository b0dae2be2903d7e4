package stages

import (
	"sfmpipe/internal/toolkit"
	"sfmpipe/internal/workspace"
)

func featureExtractionDefinition() Definition {
	return Definition{
		Name:   FeatureExtraction,
		Dir:    workspace.FeatureExtractionDir,
		Binary: toolkit.FeatureExtractionBinary,
		Inputs: []Name{CameraInit},
		build:  buildFeatureExtraction,
	}
}

// buildFeatureExtraction processes every view in one chunk: the range spans
// the image count of the input directory.
func buildFeatureExtraction(env Env) []string {
	cfg := settings(env).FeatureExtraction
	var args argList
	args.add("--input", env.Layout.CameraInit())
	args.add("--output", env.Layout.FeaturesFolder())
	args.add("--describerTypes", cfg.DescriberTypes)
	args.add("--describerPreset", cfg.DescriberPreset)
	args.addBool("--forceCpuExtraction", cfg.ForceCPU)
	args.addInt("--rangeStart", 0)
	args.addInt("--rangeSize", env.ImageCount)
	args.add("--verboseLevel", verboseLevel(env))
	return args
}
