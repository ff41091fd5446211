package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestResolveInputsDoubleStar(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "top.et"), "")
	writeFile(t, filepath.Join(root, "net", "sock.et"), "")
	writeFile(t, filepath.Join(root, "net", "deep", "tls.et"), "")
	writeFile(t, filepath.Join(root, "net", "notes.txt"), "")
	writeFile(t, filepath.Join(root, "vendor", "old.et"), "")

	cfg := Config{
		Files:          []string{"**/*.et"},
		IgnorePatterns: []string{"vendor/*"},
	}

	files, err := cfg.ResolveInputs(root)
	if err != nil {
		t.Fatalf("ResolveInputs: %v", err)
	}

	want := []string{
		filepath.Join("net", "deep", "tls.et"),
		filepath.Join("net", "sock.et"),
		"top.et",
	}
	if len(files) != len(want) {
		t.Fatalf("expected %v, got %v", want, files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, files)
		}
	}
}

func TestResolveInputsSimpleGlobDeduplicates(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.et"), "")
	writeFile(t, filepath.Join(root, "sub", "b.et"), "")

	cfg := Config{Files: []string{"*.et", "a.et"}}

	files, err := cfg.ResolveInputs(root)
	if err != nil {
		t.Fatalf("ResolveInputs: %v", err)
	}
	if len(files) != 1 || files[0] != "a.et" {
		t.Fatalf("expected only a.et, got %v", files)
	}
}

func TestResolveInputsNoPatterns(t *testing.T) {
	files, err := (&Config{}).ResolveInputs(t.TempDir())
	if err != nil {
		t.Fatalf("ResolveInputs: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files, got %v", files)
	}
}
