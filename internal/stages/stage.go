package stages

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sfmpipe/internal/config"
	"sfmpipe/internal/execrun"
	"sfmpipe/internal/services"
	"sfmpipe/internal/toolkit"
	"sfmpipe/internal/workspace"
)

// Name identifies a stage.
type Name string

// Canonical stage names in pipeline order.
const (
	CameraInit          Name = "camera_init"
	FeatureExtraction   Name = "feature_extraction"
	ImageMatching       Name = "image_matching"
	FeatureMatching     Name = "feature_matching"
	StructureFromMotion Name = "structure_from_motion"
)

// Env carries everything a builder may reference.
type Env struct {
	Toolkit    toolkit.Installation
	Layout     workspace.Layout
	ImageDir   string
	ImageCount int
	Config     *config.Config
}

// Definition describes one pipeline stage.
type Definition struct {
	Name   Name
	Dir    string
	Binary string
	// Inputs lists the earlier stages whose outputs the command references.
	Inputs []Name
	build  func(Env) []string
}

// Label returns the display name, e.g. "Feature Matching".
func (d Definition) Label() string {
	// Casers are stateful; build one per call.
	return cases.Title(language.English).String(strings.ReplaceAll(string(d.Name), "_", " "))
}

// Build renders the toolkit invocation for env. It fails only when env is
// missing the toolkit root, the output root, or a usable image count.
func (d Definition) Build(env Env) (execrun.Command, error) {
	if env.Toolkit.Root() == "" {
		return execrun.Command{}, services.Wrap(services.ErrValidation, string(d.Name), "build command", "toolkit directory not set", nil)
	}
	if env.Layout.Root() == "" {
		return execrun.Command{}, services.Wrap(services.ErrValidation, string(d.Name), "build command", "output directory not set", nil)
	}
	if d.Name == CameraInit && strings.TrimSpace(env.ImageDir) == "" {
		return execrun.Command{}, services.Wrap(services.ErrValidation, string(d.Name), "build command", "image directory not set", nil)
	}
	if env.ImageCount < 0 {
		return execrun.Command{}, services.Wrap(services.ErrValidation, string(d.Name), "build command",
			fmt.Sprintf("invalid image count %d", env.ImageCount), nil)
	}
	return execrun.Command{
		Name: d.Label(),
		Path: env.Toolkit.Binary(d.Binary),
		Args: d.build(env),
	}, nil
}

type argList []string

func (a *argList) add(flag, value string) {
	*a = append(*a, flag, value)
}

func (a *argList) addInt(flag string, value int) {
	a.add(flag, strconv.Itoa(value))
}

func (a *argList) addFloat(flag string, value float64) {
	a.add(flag, strconv.FormatFloat(value, 'f', -1, 64))
}

func (a *argList) addBool(flag string, value bool) {
	if value {
		a.add(flag, "1")
		return
	}
	a.add(flag, "0")
}

func verboseLevel(env Env) string {
	if env.Config == nil || env.Config.Toolkit.VerboseLevel == "" {
		return "error"
	}
	return env.Config.Toolkit.VerboseLevel
}

func settings(env Env) *config.Config {
	if env.Config != nil {
		return env.Config
	}
	cfg := config.Default()
	return &cfg
}
