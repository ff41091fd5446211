// Package generator runs one errgen invocation: parse every input, check
// the contract, lint, render, verify and finally commit the outputs.
//
// Nothing reaches the output directory until every unit has been rendered
// (and verified when asked). A failure at any stage aborts all staged files.
package generator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/robert-at-pretension-io/errgen/internal/config"
	"github.com/robert-at-pretension-io/errgen/internal/emit"
	"github.com/robert-at-pretension-io/errgen/internal/facts"
	"github.com/robert-at-pretension-io/errgen/internal/parser"
	"github.com/robert-at-pretension-io/errgen/internal/policy"
	"github.com/robert-at-pretension-io/errgen/internal/validator"
	"github.com/robert-at-pretension-io/errgen/internal/verify"
)

// Generator is the run context. It owns every output stream of a run.
type Generator struct {
	// Effective configuration; flags are merged in by the caller
	Config *config.Config

	// Inputs given on the command line; Config.Files is used when empty
	Inputs []string

	// Root is the base directory for Config.Files patterns
	Root string

	// JSONOutput suppresses the human report on Out
	JSONOutput bool

	// Verbose adds the timing summary to the human report
	Verbose bool

	// TimingPath overrides Config.Timing
	TimingPath string

	Out   io.Writer
	Log   *logrus.Logger
	Now   func() time.Time
	RunID string
}

// Output is one committed file.
type Output struct {
	Kind  string `json:"kind"`
	Group string `json:"group"`
	Path  string `json:"path"`
}

// Stats counts what was parsed.
type Stats struct {
	Files   int `json:"files"`
	Groups  int `json:"groups"`
	Entries int `json:"entries"`
}

// RunResult is the structured result of a run, printed by -json.
type RunResult struct {
	RunID      string             `json:"run_id"`
	Lang       string             `json:"lang"`
	Inputs     []string           `json:"inputs"`
	Outputs    []Output           `json:"outputs"`
	Violations []policy.Violation `json:"violations"`
	Summary    policy.Summary     `json:"summary"`
	Stats      Stats              `json:"stats"`
	Verified   bool               `json:"verified"`
}

// New creates a Generator with a fresh run id.
func New(cfg *config.Config) *Generator {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Generator{
		Config: cfg,
		Root:   ".",
		Out:    os.Stdout,
		Log:    logrus.StandardLogger(),
		Now:    time.Now,
		RunID:  uuid.NewString(),
	}
}

// Kinds maps the emitter switches to artifact kinds, in output order.
func Kinds(e config.EmitterConfig) []emit.Kind {
	var kinds []emit.Kind
	if e.Messages {
		kinds = append(kinds, emit.KindMessages)
	}
	if e.Pairs {
		kinds = append(kinds, emit.KindInfo, emit.KindInfoBackward)
	}
	if e.Enum {
		kinds = append(kinds, emit.KindEnum)
	}
	if e.Defines {
		kinds = append(kinds, emit.KindDefines)
	}
	return kinds
}

// Run executes the pipeline. On a lint failure the partial result (with its
// violations) is returned alongside the error.
func (g *Generator) Run(ctx context.Context) (*RunResult, error) {
	runStart := time.Now()
	log := g.Log.WithField("run_id", g.RunID)
	timing := newTimingRecorder(g.RunID, runStart, g.resolveTimingPath())
	if err := timing.Err(); err != nil {
		log.WithError(err).Warn("timing output disabled")
	}
	defer timing.Close()

	cfg := g.Config
	kinds := Kinds(cfg.Emitters)
	if !cfg.Emitters.Any() && cfg.List == "" {
		return nil, &UsageError{Msg: "no emitter selected (use -m, -p, -e, -d or -list)"}
	}
	if cfg.List != "" {
		// list mode replaces the per-group emitters
		if len(kinds) > 0 {
			log.WithField("list", cfg.List).Debug("list mode, emitter switches ignored")
		}
		kinds = nil
	}

	target, err := emit.TargetFor(cfg.Lang, emit.Options{GoPackage: cfg.GoPackage})
	if err != nil {
		return nil, &UsageError{Msg: err.Error()}
	}

	stamp, err := Stamp(g.Now)
	if err != nil {
		return nil, &UsageError{Msg: err.Error()}
	}

	// 1. Inputs
	stepStart := time.Now()
	inputs := g.Inputs
	if len(inputs) == 0 && len(cfg.Files) > 0 {
		inputs, err = cfg.ResolveInputs(g.Root)
		if err != nil {
			return nil, err
		}
		log.WithField("count", len(inputs)).Debug("inputs resolved from config")
	}
	if len(inputs) == 0 {
		return nil, &UsageError{Msg: "no input files"}
	}
	timing.Stage("scan", stepStart, "")

	result := &RunResult{
		RunID:      g.RunID,
		Lang:       target.Name(),
		Inputs:     inputs,
		Outputs:    []Output{},
		Violations: []policy.Violation{},
	}

	// 2. Parse everything before anything is written
	stepStart = time.Now()
	tables, err := parseAll(inputs, timing, log)
	if err == nil {
		err = checkDecls(tables, kinds, target.Name() == "go")
	}
	timing.Stage("parse", stepStart, statusOf(err))
	if err != nil {
		return nil, err
	}

	// 3. Contract
	stepStart = time.Now()
	factTables := facts.BuildTables(tables)
	v, err := validator.New()
	if err != nil {
		return nil, fmt.Errorf("loading contract: %w", err)
	}
	err = v.ValidateTables(factTables)
	timing.Stage("validate", stepStart, statusOf(err))
	if err != nil {
		return nil, err
	}
	result.Stats = Stats{
		Files:   len(factTables.Files),
		Groups:  len(factTables.Groups),
		Entries: len(factTables.Entries),
	}

	// 4. Lint
	if cfg.Lint.Enabled {
		stepStart = time.Now()
		lintResult, err := g.lint(ctx, factTables)
		if err != nil {
			timing.Stage("lint", stepStart, "error")
			return nil, err
		}
		result.Violations = lintResult.Violations
		result.Summary = lintResult.Summary
		g.reportViolations(lintResult)
		err = lintResult.Check()
		timing.Stage("lint", stepStart, statusOf(err))
		if err != nil {
			return result, err
		}
	}

	// 5. Render, verify and stage
	stepStart = time.Now()
	staged, err := g.stage(ctx, target, kinds, tables, stamp, timing, result)
	defer staged.abort()
	timing.Stage("emit", stepStart, statusOf(err))
	if err != nil {
		return nil, err
	}

	result.Outputs = staged.outputs
	if err := v.ValidateResult(result); err != nil {
		return nil, err
	}

	// 6. Commit
	stepStart = time.Now()
	err = staged.commit()
	timing.Stage("commit", stepStart, statusOf(err))
	if err != nil {
		return nil, err
	}

	if !g.JSONOutput {
		for _, o := range result.Outputs {
			fmt.Fprintf(g.Out, "wrote %s\n", o.Path)
		}
		fmt.Fprintf(g.Out, "%d files, %d groups, %d entries -> %d outputs\n",
			result.Stats.Files, result.Stats.Groups, result.Stats.Entries, len(result.Outputs))
	}

	timing.Stage("total", runStart, "")
	if g.Verbose && !g.JSONOutput {
		fmt.Fprintf(g.Out, "\n=== Timing Summary ===\n")
		for _, ev := range timing.stages {
			fmt.Fprintf(g.Out, "  %-9s %s\n", ev.Phase+":", formatDuration(time.Duration(ev.DurationMS*float64(time.Millisecond))))
		}
	}
	log.WithFields(logrus.Fields{
		"outputs":  len(result.Outputs),
		"duration": time.Since(runStart).String(),
	}).Debug("run complete")

	return result, nil
}

// parseAll parses every input in order and rejects a group name that was
// already used by an earlier file, since both would claim the same outputs.
func parseAll(inputs []string, timing *timingRecorder, log *logrus.Entry) ([]parser.FileTable, error) {
	tables := make([]parser.FileTable, 0, len(inputs))
	seen := make(map[string]*parser.Group)
	for _, path := range inputs {
		fileStart := time.Now()
		ft, err := parser.ParseFile(path)
		timing.File("parse", path, statusOf(err), fileStart)
		if err != nil {
			return nil, err
		}
		for _, grp := range ft.Groups {
			if prev, ok := seen[grp.Name]; ok {
				return nil, &parser.ParseError{
					File: path,
					Line: grp.Line,
					Msg:  fmt.Sprintf("group %s already defined at %s:%d", grp.Name, prev.File, prev.Line),
				}
			}
			seen[grp.Name] = grp
		}
		log.WithFields(logrus.Fields{"file": path, "groups": len(ft.Groups)}).Debug("parsed")
		tables = append(tables, ft)
	}
	return tables, nil
}

// checkDecls rejects a unit that would declare the same constant twice,
// such as a tag named ERRMIN. With sharedPackage (Go output) the names must
// also be unique across all units, which fails for group names that differ
// only in case or an all-caps name emitted as both enum and defines.
func checkDecls(tables []parser.FileTable, kinds []emit.Kind, sharedPackage bool) error {
	declared := make(map[string]*parser.Group)
	for _, ft := range tables {
		for _, grp := range ft.Groups {
			for _, k := range kinds {
				unit := make(map[string]bool)
				for _, name := range emit.Decls(k, grp) {
					prev, ok := declared[name]
					switch {
					case unit[name], sharedPackage && ok && prev == grp:
						return &parser.ParseError{File: grp.File, Line: grp.Line,
							Msg: fmt.Sprintf("group %s: constant %s declared twice (%s output)", grp.Name, name, k)}
					case sharedPackage && ok:
						return &parser.ParseError{File: grp.File, Line: grp.Line,
							Msg: fmt.Sprintf("group %s: Go constant %s already declared by group %s at %s:%d",
								grp.Name, name, prev.Name, prev.File, prev.Line)}
					}
					unit[name] = true
					declared[name] = grp
				}
			}
		}
	}
	return nil
}

func (g *Generator) lint(ctx context.Context, tables facts.Tables) (*policy.Result, error) {
	engine, err := policy.New(ctx, g.Config.Lint.PolicyDir)
	if err != nil {
		return nil, &config.Error{Path: g.Config.Path, Err: err}
	}
	g.Log.WithFields(logrus.Fields{"run_id": g.RunID, "policies": engine.Files()}).Debug("lint policies loaded")
	result, err := engine.Evaluate(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("lint: %w", err)
	}
	result.Apply(g.Config)
	return result, nil
}

func (g *Generator) reportViolations(r *policy.Result) {
	if g.JSONOutput || len(r.Violations) == 0 {
		return
	}
	for _, v := range r.Violations {
		icon := "ℹ"
		if v.Severity == "error" {
			icon = "✗"
		} else if v.Severity == "warning" {
			icon = "⚠"
		}
		fmt.Fprintf(g.Out, "%s [%s] %s:%d - %s\n", icon, v.Rule, v.File, v.Line, v.Message)
	}
	fmt.Fprintf(g.Out, "lint: %d errors, %d warnings, %d info\n", r.Summary.Errors, r.Summary.Warnings, r.Summary.Info)
}

// staging holds the temporary files of a run until commit.
type staging struct {
	sinks   []*emit.FileSink
	outputs []Output
}

func (s *staging) add(sink *emit.FileSink, out Output) {
	s.sinks = append(s.sinks, sink)
	s.outputs = append(s.outputs, out)
}

func (s *staging) commit() error {
	for _, sink := range s.sinks {
		if err := sink.Commit(); err != nil {
			return err
		}
	}
	return nil
}

func (s *staging) abort() {
	for _, sink := range s.sinks {
		sink.Abort()
	}
}

func (g *Generator) stage(ctx context.Context, target emit.Target, kinds []emit.Kind, tables []parser.FileTable, stamp time.Time, timing *timingRecorder, result *RunResult) (*staging, error) {
	staged := &staging{}
	cfg := g.Config

	var checker *verify.Checker
	if cfg.Verify {
		checker = verify.New()
		defer checker.Close()
		result.Verified = true
	}

	var list *emit.List
	if cfg.List != "" {
		sink, err := emit.Create(cfg.List)
		if err != nil {
			return staged, err
		}
		staged.add(sink, Output{Kind: "list", Path: cfg.List})
		list = emit.NewList(sink)
	}

	for _, ft := range tables {
		for _, grp := range ft.Groups {
			for _, k := range kinds {
				name := emit.FileName(k, grp, target.Ext())
				data, err := target.Render(emit.Unit{
					Kind:   k,
					Source: ft.File,
					Stamp:  stamp,
					File:   name,
					Group:  grp,
				})
				if err != nil {
					return staged, fmt.Errorf("rendering %s: %w", name, err)
				}

				if checker != nil {
					checkStart := time.Now()
					err := checker.Check(ctx, name, data)
					timing.File("verify", name, statusOf(err), checkStart)
					if err != nil {
						return staged, err
					}
				}

				dest := filepath.Join(cfg.OutputDir, name)
				sink, err := emit.Create(dest)
				if err != nil {
					return staged, err
				}
				staged.add(sink, Output{Kind: k.String(), Group: grp.Name, Path: dest})
				if _, err := sink.Write(data); err != nil {
					return staged, err
				}
			}
			if list != nil {
				if err := list.Emit(grp); err != nil {
					return staged, err
				}
			}
		}
	}
	if list != nil {
		g.Log.WithFields(logrus.Fields{"run_id": g.RunID, "entries": list.Seq()}).Debug("list staged")
	}
	return staged, nil
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
