package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"sfmpipe/internal/toolkit"
)

// SucceedScript is a stub body that exits cleanly.
const SucceedScript = "#!/bin/sh\nexit 0\n"

// ToolkitOption customizes a stub toolkit tree.
type ToolkitOption func(*toolkitBuilder)

type toolkitBuilder struct {
	scripts  map[string]string
	skip     map[string]bool
	skipData bool
}

// WithScript replaces the body of one stub executable.
func WithScript(binary, script string) ToolkitOption {
	return func(b *toolkitBuilder) {
		b.scripts[binary] = script
	}
}

// WithoutBinary leaves one executable out of bin/.
func WithoutBinary(binary string) ToolkitOption {
	return func(b *toolkitBuilder) {
		b.skip[binary] = true
	}
}

// WithoutData leaves out the sensor database and vocabulary tree.
func WithoutData() ToolkitOption {
	return func(b *toolkitBuilder) {
		b.skipData = true
	}
}

// StubToolkit writes a toolkit installation with shell-script executables
// under t.TempDir and returns its root. Every executable defaults to
// SucceedScript.
func StubToolkit(t testing.TB, opts ...ToolkitOption) string {
	t.Helper()

	builder := &toolkitBuilder{scripts: map[string]string{}, skip: map[string]bool{}}
	for _, opt := range opts {
		opt(builder)
	}

	root := t.TempDir()
	binDir := filepath.Join(root, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	for _, name := range toolkit.Binaries() {
		if builder.skip[name] {
			continue
		}
		script, ok := builder.scripts[name]
		if !ok {
			script = SucceedScript
		}
		if err := os.WriteFile(filepath.Join(binDir, name), []byte(script), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}

	if !builder.skipData {
		install, err := toolkit.Open(root)
		if err != nil {
			t.Fatalf("open stub toolkit: %v", err)
		}
		WriteFile(t, install.SensorDatabase(), 64)
		WriteFile(t, install.VocabularyTree(), 64)
	}
	return root
}
