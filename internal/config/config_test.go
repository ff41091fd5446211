package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errgen.json")
	writeFile(t, path, `{
  "lang": "go",
  "goPackage": "codes",
  "emitters": {"enum": true, "messages": true},
  "list": "codes.list",
  "lint": {"enabled": true, "rules": {"tag_case": "off"}}
}`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Lang != "go" || cfg.GoPackage != "codes" || cfg.List != "codes.list" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !cfg.Emitters.Enum || !cfg.Emitters.Messages || cfg.Emitters.Pairs {
		t.Fatalf("unexpected emitters %+v", cfg.Emitters)
	}
	if cfg.OutputDir != "." {
		t.Fatalf("expected default output dir, got %q", cfg.OutputDir)
	}
	if cfg.Path != path {
		t.Fatalf("expected Path %s, got %s", path, cfg.Path)
	}
	if cfg.IsRuleEnabled("tag_case") {
		t.Fatalf("expected tag_case disabled")
	}
	if got := cfg.GetRuleSeverity("empty_group", "warning"); got != "warning" {
		t.Fatalf("expected default severity, got %q", got)
	}
}

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errgen.yaml")
	writeFile(t, path, `
outputDir: gen
emitters:
  defines: true
  pairs: true
files:
  - "**/*.et"
ignorePatterns:
  - "*_old.et"
verify: true
lint:
  rules:
    empty_message: error
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Lang != "c" || cfg.OutputDir != "gen" || !cfg.Verify {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !cfg.Emitters.Defines || !cfg.Emitters.Pairs || !cfg.Emitters.Any() {
		t.Fatalf("unexpected emitters %+v", cfg.Emitters)
	}
	if len(cfg.Files) != 1 || cfg.Files[0] != "**/*.et" {
		t.Fatalf("unexpected files %v", cfg.Files)
	}
	if !cfg.ShouldIgnoreFile("sub/net_old.et") || cfg.ShouldIgnoreFile("sub/net.et") {
		t.Fatalf("ignore patterns not applied")
	}
	if got := cfg.GetRuleSeverity("empty_message", "warning"); got != "error" {
		t.Fatalf("expected severity override, got %q", got)
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"bad.json":     `{"lang": `,
		"lang.json":    `{"lang": "rust"}`,
		"severity.yml": "lint:\n  rules:\n    tag_case: loud\n",
	}
	for name, content := range tests {
		path := filepath.Join(dir, name)
		writeFile(t, path, content)
		_, err := LoadFile(path)
		var cfgErr *Error
		if !errors.As(err, &cfgErr) {
			t.Fatalf("%s: expected *Error, got %v", name, err)
		}
	}

	_, err := LoadFile(filepath.Join(dir, "missing.json"))
	var cfgErr *Error
	if !errors.As(err, &cfgErr) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist config error, got %v", err)
	}
}

func TestLoadSearchesRoot(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Lang != "c" || cfg.Emitters.Any() {
		t.Fatalf("expected defaults without a config file, got %+v", cfg)
	}

	writeFile(t, filepath.Join(root, "errgen.yml"), "lang: go\n")
	cfg, err = Load(root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Lang != "go" {
		t.Fatalf("expected config from root, got %+v", cfg)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"errgen.json", "errgen.yaml"} {
		path := filepath.Join(dir, name)
		if err := Template().Save(path); err != nil {
			t.Fatalf("Save %s: %v", name, err)
		}
		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("LoadFile %s: %v", name, err)
		}
		if !cfg.Emitters.Enum || !cfg.Emitters.Messages || !cfg.Verify || !cfg.Lint.Enabled {
			t.Fatalf("%s: template lost settings: %+v", name, cfg)
		}
		if len(cfg.Files) != 1 || cfg.Files[0] != "**/*.et" {
			t.Fatalf("%s: unexpected files %v", name, cfg.Files)
		}
	}
}
