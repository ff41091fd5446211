package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for errgen
type Config struct {
	// Lang selects the output language: "c" (default) or "go"
	Lang string `json:"lang,omitempty" yaml:"lang,omitempty" jsonschema:"enum=c,enum=go,description=Output language"`

	// OutputDir is where generated files are written (default ".")
	OutputDir string `json:"outputDir,omitempty" yaml:"outputDir,omitempty" jsonschema:"description=Directory for generated files"`

	// GoPackage is the package clause of Go output
	GoPackage string `json:"goPackage,omitempty" yaml:"goPackage,omitempty" jsonschema:"description=Package name used when lang is go"`

	// Emitters turns artifact kinds on; command-line flags add to these
	Emitters EmitterConfig `json:"emitters,omitempty" yaml:"emitters,omitempty"`

	// List is the path of the sequential list file, empty for none
	List string `json:"list,omitempty" yaml:"list,omitempty" jsonschema:"description=Path of the name = sequence list file"`

	// Files is a list of glob patterns used when no input is given on the command line
	Files []string `json:"files,omitempty" yaml:"files,omitempty" jsonschema:"description=Input globs; ** matches any directory depth"`

	// IgnorePatterns drops matching inputs
	IgnorePatterns []string `json:"ignorePatterns,omitempty" yaml:"ignorePatterns,omitempty"`

	// Verify parses every generated file with tree-sitter
	Verify bool `json:"verify,omitempty" yaml:"verify,omitempty"`

	// Lint contains lint policy configuration
	Lint LintConfig `json:"lint,omitempty" yaml:"lint,omitempty"`

	// Timing is a JSONL file receiving stage timings
	Timing string `json:"timing,omitempty" yaml:"timing,omitempty"`

	// Path is the file the configuration was read from, empty for defaults
	Path string `json:"-" yaml:"-"`
}

// EmitterConfig mirrors the -m -p -e -d flags
type EmitterConfig struct {
	Messages bool `json:"messages,omitempty" yaml:"messages,omitempty" jsonschema:"description=Message arrays (-m)"`
	Pairs    bool `json:"pairs,omitempty" yaml:"pairs,omitempty" jsonschema:"description=Forward and backward info tables (-p)"`
	Enum     bool `json:"enum,omitempty" yaml:"enum,omitempty" jsonschema:"description=Enumerations (-e)"`
	Defines  bool `json:"defines,omitempty" yaml:"defines,omitempty" jsonschema:"description=Macro constants (-d)"`
}

// Any reports whether at least one emitter is on.
func (e EmitterConfig) Any() bool {
	return e.Messages || e.Pairs || e.Enum || e.Defines
}

// LintConfig contains linting configuration
type LintConfig struct {
	// Enabled runs the lint policy on every run
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`

	// Rules maps rule names to severity: "off", "info", "warning", "error"
	Rules map[string]string `json:"rules,omitempty" yaml:"rules,omitempty"`

	// PolicyDir holds extra *.rego files evaluated next to the built-in rules
	PolicyDir string `json:"policyDir,omitempty" yaml:"policyDir,omitempty"`
}

// Error is a configuration that could not be read or is invalid.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return "config: " + e.Err.Error()
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Lang:           "c",
		OutputDir:      ".",
		IgnorePatterns: []string{},
		Lint: LintConfig{
			Rules: map[string]string{},
		},
	}
}

// Template is the configuration written by errgen init.
func Template() *Config {
	cfg := DefaultConfig()
	cfg.Files = []string{"**/*.et"}
	cfg.Emitters = EmitterConfig{Messages: true, Enum: true}
	cfg.Verify = true
	cfg.Lint.Enabled = true
	return cfg
}

// SearchNames are the file names Load looks for, in order.
var SearchNames = []string{"errgen.json", ".errgen.json", "errgen.yaml", "errgen.yml"}

// Load finds and loads the configuration file
// Search order:
//  1. SearchNames in the current working directory
//  2. SearchNames in rootPath (if different from cwd)
//  3. ~/.config/errgen/config.json
//
// Returns DefaultConfig if no config file is found
func Load(rootPath string) (*Config, error) {
	cwd, _ := os.Getwd()

	var searchPaths []string
	for _, name := range SearchNames {
		searchPaths = append(searchPaths, filepath.Join(cwd, name))
	}

	if info, err := os.Stat(rootPath); err == nil && info.IsDir() {
		absRoot, _ := filepath.Abs(rootPath)
		if absRoot != cwd {
			for _, name := range SearchNames {
				searchPaths = append(searchPaths, filepath.Join(rootPath, name))
			}
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "errgen", "config.json"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	return DefaultConfig(), nil
}

// LoadFile loads configuration from a specific file. YAML is used for .yaml
// and .yml, JSON otherwise.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("reading config file: %w", err)}
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("parsing config file: %w", err)}
	}

	cfg.applyDefaults()
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	return &cfg, nil
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	if c.Lang == "" {
		c.Lang = "c"
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.IgnorePatterns == nil {
		c.IgnorePatterns = []string{}
	}
	if c.Lint.Rules == nil {
		c.Lint.Rules = make(map[string]string)
	}
}

var severities = map[string]bool{"off": true, "info": true, "warning": true, "error": true}

// Validate rejects values no run could use.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Lang) {
	case "", "c", "go":
	default:
		return fmt.Errorf("unknown lang %q (want c or go)", c.Lang)
	}
	for rule, sev := range c.Lint.Rules {
		if !severities[sev] {
			return fmt.Errorf("lint rule %s: unknown severity %q", rule, sev)
		}
	}
	for _, pattern := range append(append([]string{}, c.Files...), c.IgnorePatterns...) {
		if _, err := filepath.Match(strings.ReplaceAll(pattern, "**", "*"), ""); err != nil {
			return fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
	}
	return nil
}

// Save writes the configuration to a file, as YAML when the extension asks
// for it.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// GetRuleSeverity returns the severity for a rule, or the default if not configured
func (c *Config) GetRuleSeverity(rule string, defaultSeverity string) string {
	if severity, ok := c.Lint.Rules[rule]; ok {
		return severity
	}
	return defaultSeverity
}

// IsRuleEnabled returns true if the rule is not set to "off"
func (c *Config) IsRuleEnabled(rule string) bool {
	if severity, ok := c.Lint.Rules[rule]; ok {
		return severity != "off"
	}
	return true // enabled by default
}

// ShouldIgnoreFile checks if a file should be skipped entirely
func (c *Config) ShouldIgnoreFile(filePath string) bool {
	for _, pattern := range c.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, filePath); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(filePath)); matched {
			return true
		}
	}
	return false
}
