package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCountImagesCountsOnlyTopLevelFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jpg", "b.JPG", "c.png", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	nested := filepath.Join(dir, "nested")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(nested, "d.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write nested: %v", err)
	}

	count, err := CountImages(dir)
	if err != nil {
		t.Fatalf("CountImages: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 files, got %d", count)
	}
}

func TestCountImagesFollowsFileSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(t.TempDir(), "real.jpg")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatalf("write target: %v", err)
	}
	if err := os.Symlink(target, filepath.Join(dir, "link.jpg")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.Symlink(t.TempDir(), filepath.Join(dir, "dirlink")); err != nil {
		t.Fatalf("symlink dir: %v", err)
	}
	count, err := CountImages(dir)
	if err != nil {
		t.Fatalf("CountImages: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 file, got %d", count)
	}
}

func TestCountImagesEmptyAndMissing(t *testing.T) {
	count, err := CountImages(t.TempDir())
	if err != nil || count != 0 {
		t.Fatalf("expected 0, nil for empty dir, got %d, %v", count, err)
	}
	if _, err := CountImages(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing dir")
	}
}
