package stages

import (
	"sfmpipe/internal/toolkit"
	"sfmpipe/internal/workspace"
)

func imageMatchingDefinition() Definition {
	return Definition{
		Name:   ImageMatching,
		Dir:    workspace.ImageMatchingDir,
		Binary: toolkit.ImageMatchingBinary,
		Inputs: []Name{CameraInit, FeatureExtraction},
		build:  buildImageMatching,
	}
}

func buildImageMatching(env Env) []string {
	cfg := settings(env).ImageMatching
	tree := cfg.Tree
	if tree == "" {
		tree = env.Toolkit.VocabularyTree()
	}
	var args argList
	args.add("--input", env.Layout.CameraInit())
	args.add("--featuresFolders", env.Layout.FeaturesFolder())
	args.add("--output", env.Layout.ImagePairs())
	args.add("--tree", tree)
	args.addInt("--minNbImages", cfg.MinImages)
	args.addInt("--maxDescriptors", cfg.MaxDescriptors)
	args.addInt("--nbMatches", cfg.Matches)
	args.add("--verboseLevel", verboseLevel(env))
	return args
}
