package policy

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/robert-at-pretension-io/errgen/internal/config"
	"github.com/robert-at-pretension-io/errgen/internal/facts"
)

//go:embed lint.rego
var builtinPolicy string

const violationsQuery = "data.errgen.lint.violations"

// Engine evaluates OPA policies against fact tables
type Engine struct {
	query rego.PreparedEvalQuery
	files []string
}

// Violation represents a policy violation
type Violation struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Message  string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s:%d: %s: %s [%s]", v.File, v.Line, v.Severity, v.Message, v.Rule)
}

// Result contains the evaluation results
type Result struct {
	Violations []Violation `json:"violations"`
	Summary    Summary     `json:"summary"`
}

// Summary provides aggregate counts
type Summary struct {
	TotalViolations int `json:"total_violations"`
	Errors          int `json:"errors"`
	Warnings        int `json:"warnings"`
	Info            int `json:"info"`
}

// LintError is returned by Check when error-severity violations remain.
type LintError struct {
	Errors int
}

func (e *LintError) Error() string {
	return fmt.Sprintf("lint: %d error-severity violation(s)", e.Errors)
}

// New prepares the built-in rules plus every *.rego file in policyDir.
// Extra policies join package errgen.lint and add to its violations set.
// An empty policyDir uses the built-in rules only.
func New(ctx context.Context, policyDir string) (*Engine, error) {
	engine := &Engine{}
	modules := []func(*rego.Rego){rego.Module("lint.rego", builtinPolicy)}

	if policyDir != "" {
		files, err := filepath.Glob(filepath.Join(policyDir, "*.rego"))
		if err != nil {
			return nil, fmt.Errorf("finding policy files: %w", err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("no policy files found in %s", policyDir)
		}
		sort.Strings(files)
		for _, f := range files {
			content, err := os.ReadFile(f)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", f, err)
			}
			modules = append(modules, rego.Module(f, string(content)))
			engine.files = append(engine.files, f)
		}
	}

	opts := append(modules, rego.Query(violationsQuery))
	query, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("preparing violations query: %w", err)
	}
	engine.query = query

	return engine, nil
}

// Files lists the extra policy files that were loaded.
func (e *Engine) Files() []string {
	return e.files
}

// Evaluate runs the policies against the tables. Violations come back in
// file, line, rule order with the default severities of their rules.
func (e *Engine) Evaluate(ctx context.Context, tables facts.Tables) (*Result, error) {
	inputMap, err := structToMap(tables)
	if err != nil {
		return nil, fmt.Errorf("converting input: %w", err)
	}

	rs, err := e.query.Eval(ctx, rego.EvalInput(inputMap))
	if err != nil {
		return nil, fmt.Errorf("evaluating violations: %w", err)
	}

	result := &Result{Violations: []Violation{}}
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		violations, ok := rs[0].Expressions[0].Value.([]interface{})
		if ok {
			for _, v := range violations {
				vmap, ok := v.(map[string]interface{})
				if !ok {
					continue
				}
				result.Violations = append(result.Violations, Violation{
					Rule:     getString(vmap, "rule"),
					Severity: getString(vmap, "severity"),
					File:     getString(vmap, "file"),
					Line:     getInt(vmap, "line"),
					Message:  getString(vmap, "message"),
				})
			}
		}
	}

	sortViolations(result.Violations)
	result.Summary = Summarize(result.Violations)
	return result, nil
}

// Apply drops rules configured "off" and rewrites overridden severities.
func (r *Result) Apply(cfg *config.Config) {
	if cfg == nil {
		return
	}
	kept := r.Violations[:0]
	for _, v := range r.Violations {
		if !cfg.IsRuleEnabled(v.Rule) {
			continue
		}
		v.Severity = cfg.GetRuleSeverity(v.Rule, v.Severity)
		kept = append(kept, v)
	}
	r.Violations = kept
	r.Summary = Summarize(r.Violations)
}

// Check returns a *LintError when any error-severity violation is present.
func (r *Result) Check() error {
	if r.Summary.Errors > 0 {
		return &LintError{Errors: r.Summary.Errors}
	}
	return nil
}

// Summarize counts violations per severity.
func Summarize(violations []Violation) Summary {
	s := Summary{TotalViolations: len(violations)}
	for _, v := range violations {
		switch v.Severity {
		case "error":
			s.Errors++
		case "warning":
			s.Warnings++
		default:
			s.Info++
		}
	}
	return s
}

func sortViolations(vs []Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		if vs[i].File != vs[j].File {
			return vs[i].File < vs[j].File
		}
		if vs[i].Line != vs[j].Line {
			return vs[i].Line < vs[j].Line
		}
		return vs[i].Rule < vs[j].Rule
	})
}

// Helper functions
func structToMap(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	err = json.Unmarshal(data, &result)
	return result, err
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		case json.Number:
			i, _ := n.Int64()
			return int(i)
		}
	}
	return 0
}
