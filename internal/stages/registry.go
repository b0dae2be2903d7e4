package stages

import (
	"fmt"
	"strconv"
	"strings"

	"sfmpipe/internal/services"
)

// All returns every stage in pipeline order.
func All() []Definition {
	return []Definition{
		cameraInitDefinition(),
		featureExtractionDefinition(),
		imageMatchingDefinition(),
		featureMatchingDefinition(),
		structureFromMotionDefinition(),
	}
}

// Lookup resolves a stage by canonical name, output directory name, or
// zero-based index. Matching ignores case, dashes, and underscores, so
// "featureMatching", "feature-matching" and "03_FeatureMatching" all resolve.
func Lookup(key string) (Definition, int, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Definition{}, -1, false
	}
	all := All()
	if idx, err := strconv.Atoi(key); err == nil {
		if idx >= 0 && idx < len(all) {
			return all[idx], idx, true
		}
		return Definition{}, -1, false
	}
	want := foldKey(key)
	for i, def := range all {
		if foldKey(string(def.Name)) == want || foldKey(def.Dir) == want || foldKey(def.Dir[3:]) == want {
			return def, i, true
		}
	}
	if want == "sfm" {
		return all[len(all)-1], len(all) - 1, true
	}
	return Definition{}, -1, false
}

// Select returns the contiguous range of stages from..to inclusive. Empty
// bounds default to the first and last stage.
func Select(from, to string) ([]Definition, error) {
	all := All()
	start, end := 0, len(all)-1
	if strings.TrimSpace(from) != "" {
		_, idx, ok := Lookup(from)
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "", "select stages", fmt.Sprintf("unknown stage %q", from), nil)
		}
		start = idx
	}
	if strings.TrimSpace(to) != "" {
		_, idx, ok := Lookup(to)
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "", "select stages", fmt.Sprintf("unknown stage %q", to), nil)
		}
		end = idx
	}
	if start > end {
		return nil, services.Wrap(services.ErrValidation, "", "select stages",
			fmt.Sprintf("stage %s comes after %s", all[start].Name, all[end].Name), nil)
	}
	return all[start : end+1], nil
}

// Names returns the canonical stage names in order.
func Names() []string {
	all := All()
	names := make([]string, 0, len(all))
	for _, def := range all {
		names = append(names, string(def.Name))
	}
	return names
}

func foldKey(value string) string {
	value = strings.ToLower(value)
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(value)
}

// Binaries returns the executables the given stages invoke, in order.
func Binaries(defs []Definition) []string {
	out := make([]string, 0, len(defs))
	for _, def := range defs {
		out = append(out, def.Binary)
	}
	return out
}
