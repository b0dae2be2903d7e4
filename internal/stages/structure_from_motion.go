package stages

import (
	"sfmpipe/internal/toolkit"
	"sfmpipe/internal/workspace"
)

func structureFromMotionDefinition() Definition {
	return Definition{
		Name:   StructureFromMotion,
		Dir:    workspace.StructureFromMotionDir,
		Binary: toolkit.StructureFromMotionBinary,
		Inputs: []Name{CameraInit, FeatureExtraction, FeatureMatching},
		build:  buildStructureFromMotion,
	}
}

func buildStructureFromMotion(env Env) []string {
	cfg := settings(env)
	sfm := cfg.StructureFromMotion
	var args argList
	args.add("--input", env.Layout.CameraInit())
	args.add("--output", env.Layout.Reconstruction())
	args.add("--outputViewsAndPoses", env.Layout.ViewsAndPoses())
	args.add("--extraInfoFolder", env.Layout.Dir(workspace.StructureFromMotionDir))
	args.add("--featuresFolders", env.Layout.FeaturesFolder())
	args.add("--matchesFolders", env.Layout.MatchesFolder())
	args.add("--describerTypes", cfg.FeatureExtraction.DescriberTypes)
	args.add("--localizerEstimator", sfm.LocalizerEstimator)
	args.addBool("--lockScenePreviouslyReconstructed", sfm.LockScenePreviously)
	args.addBool("--useLocalBA", sfm.UseLocalBA)
	args.addInt("--localBAGraphDistance", sfm.LocalBAGraphDistance)
	args.addInt("--maxNumberOfMatches", sfm.MaxNumberOfMatches)
	args.addInt("--minInputTrackLength", sfm.MinInputTrackLength)
	args.addInt("--minNumberOfObservationsForTriangulation", sfm.MinObservationsForTriangle)
	args.addFloat("--minAngleForTriangulation", sfm.MinAngleForTriangulation)
	args.addFloat("--minAngleForLandmark", sfm.MinAngleForLandmark)
	args.addFloat("--maxReprojectionError", sfm.MaxReprojectionError)
	args.addFloat("--minAngleInitialPair", sfm.MinAngleInitialPair)
	args.addFloat("--maxAngleInitialPair", sfm.MaxAngleInitialPair)
	args.addBool("--useOnlyMatchesFromInputFolder", sfm.UseOnlyMatchesFromInput)
	args.add("--verboseLevel", verboseLevel(env))
	return args
}
