package testsupport

import (
	"path/filepath"
	"testing"

	"sfmpipe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with a unique library path per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Toolkit.LibraryPath = filepath.Join(base, "lib")
	cfgVal.Toolkit.MinFreeGiB = 0
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLedger toggles run history on the test config.
func WithLedger(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ledger.Enabled = enabled
	}
}

// WithLibraryPath overrides the library search path handed to the toolkit.
func WithLibraryPath(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Toolkit.LibraryPath = path
	}
}

// WithMinFreeGiB sets the preflight disk-space threshold.
func WithMinFreeGiB(gib int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Toolkit.MinFreeGiB = gib
	}
}
