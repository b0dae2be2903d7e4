package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeToolkit(); err != nil {
		return err
	}
	if err := c.normalizeImageMatching(); err != nil {
		return err
	}
	c.normalizeEnums()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeToolkit() error {
	c.Toolkit.LibraryPath = strings.TrimSpace(c.Toolkit.LibraryPath)
	if c.Toolkit.LibraryPath == "" {
		if value, ok := os.LookupEnv(LibraryPathEnv); ok {
			c.Toolkit.LibraryPath = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Toolkit.LibraryPath, err = expandPath(c.Toolkit.LibraryPath); err != nil {
		return fmt.Errorf("toolkit.library_path: %w", err)
	}
	c.Toolkit.LibraryEnv = strings.TrimSpace(c.Toolkit.LibraryEnv)
	if c.Toolkit.LibraryEnv == "" {
		c.Toolkit.LibraryEnv = defaultLibraryEnv
	}
	c.Toolkit.VerboseLevel = strings.ToLower(strings.TrimSpace(c.Toolkit.VerboseLevel))
	if c.Toolkit.VerboseLevel == "" {
		c.Toolkit.VerboseLevel = defaultVerboseLevel
	}
	return nil
}

func (c *Config) normalizeImageMatching() error {
	c.ImageMatching.Tree = strings.TrimSpace(c.ImageMatching.Tree)
	if c.ImageMatching.Tree == "" {
		return nil
	}
	var err error
	if c.ImageMatching.Tree, err = expandPath(c.ImageMatching.Tree); err != nil {
		return fmt.Errorf("image_matching.tree: %w", err)
	}
	return nil
}

// normalizeEnums canonicalizes the casing the toolkit expects: describer and
// estimator names are lower case, photometric methods are upper case.
func (c *Config) normalizeEnums() {
	c.FeatureExtraction.DescriberTypes = normalizeList(c.FeatureExtraction.DescriberTypes)
	c.FeatureExtraction.DescriberPreset = strings.ToLower(strings.TrimSpace(c.FeatureExtraction.DescriberPreset))
	c.FeatureMatching.PhotometricMethod = strings.ToUpper(strings.TrimSpace(c.FeatureMatching.PhotometricMethod))
	c.FeatureMatching.GeometricEstimator = strings.ToLower(strings.TrimSpace(c.FeatureMatching.GeometricEstimator))
	c.FeatureMatching.GeometricFilter = strings.ToLower(strings.TrimSpace(c.FeatureMatching.GeometricFilter))
	c.StructureFromMotion.LocalizerEstimator = strings.ToLower(strings.TrimSpace(c.StructureFromMotion.LocalizerEstimator))
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
		c.Logging.Format = "json"
	default:
		c.Logging.Format = format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func normalizeList(value string) string {
	fields := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		field = strings.ToLower(field)
		if _, ok := seen[field]; ok {
			continue
		}
		seen[field] = struct{}{}
		out = append(out, field)
	}
	return strings.Join(out, ",")
}
