package stages

import (
	"sfmpipe/internal/toolkit"
	"sfmpipe/internal/workspace"
)

func cameraInitDefinition() Definition {
	return Definition{
		Name:   CameraInit,
		Dir:    workspace.CameraInitDir,
		Binary: toolkit.CameraInitBinary,
		build:  buildCameraInit,
	}
}

func buildCameraInit(env Env) []string {
	cfg := settings(env).CameraInit
	var args argList
	args.add("--imageFolder", env.ImageDir)
	args.add("--sensorDatabase", env.Toolkit.SensorDatabase())
	args.add("--output", env.Layout.CameraInit())
	args.addFloat("--defaultFieldOfView", cfg.DefaultFieldOfView)
	args.addBool("--allowSingleView", cfg.AllowSingleView)
	args.add("--verboseLevel", verboseLevel(env))
	return args
}
