package stages

import (
	"sfmpipe/internal/toolkit"
	"sfmpipe/internal/workspace"
)

func featureMatchingDefinition() Definition {
	return Definition{
		Name:   FeatureMatching,
		Dir:    workspace.FeatureMatchingDir,
		Binary: toolkit.FeatureMatchingBinary,
		Inputs: []Name{CameraInit, FeatureExtraction, ImageMatching},
		build:  buildFeatureMatching,
	}
}

func buildFeatureMatching(env Env) []string {
	cfg := settings(env)
	fm := cfg.FeatureMatching
	var args argList
	args.add("--input", env.Layout.CameraInit())
	args.add("--featuresFolders", env.Layout.FeaturesFolder())
	args.add("--output", env.Layout.MatchesFolder())
	args.add("--imagePairsList", env.Layout.ImagePairs())
	args.add("--describerTypes", cfg.FeatureExtraction.DescriberTypes)
	args.add("--photometricMatchingMethod", fm.PhotometricMethod)
	args.add("--geometricEstimator", fm.GeometricEstimator)
	args.add("--geometricFilterType", fm.GeometricFilter)
	args.addFloat("--distanceRatio", fm.DistanceRatio)
	args.addInt("--maxIteration", fm.MaxIteration)
	args.addFloat("--geometricError", fm.GeometricError)
	args.addFloat("--knownPosesGeometricErrorMax", fm.KnownPosesGeometricErrorMax)
	args.addInt("--maxMatches", fm.MaxMatches)
	args.addBool("--savePutativeMatches", fm.SavePutativeMatches)
	args.addBool("--guidedMatching", fm.GuidedMatching)
	args.addBool("--exportDebugFiles", fm.ExportDebugFiles)
	args.add("--verboseLevel", verboseLevel(env))
	return args
}
