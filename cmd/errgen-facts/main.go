// errgen-facts prints the relational facts of error tables and diffs them
// against an earlier snapshot. With -check-stable it fails when a published
// code was removed or renumbered.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/robert-at-pretension-io/errgen/internal/config"
	"github.com/robert-at-pretension-io/errgen/internal/exitcode"
	"github.com/robert-at-pretension-io/errgen/internal/facts"
	"github.com/robert-at-pretension-io/errgen/internal/parser"
	"github.com/robert-at-pretension-io/errgen/internal/policy"
	"github.com/robert-at-pretension-io/errgen/internal/validator"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

const usage = "Usage: errgen-facts [-c config] [-o snapshot.json] [-delta-from prev.json [-delta-out delta.json] [-check-stable]] [-lint] file..."

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("errgen-facts", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	output := fs.String("output", "", "write facts snapshot to file (default: stdout)")
	fs.StringVar(output, "o", "", "write facts snapshot to file (shorthand)")
	configPath := fs.String("c", "", "configuration file")
	deltaFrom := fs.String("delta-from", "", "previous snapshot to compute delta from")
	deltaOut := fs.String("delta-out", "", "write delta JSON to file (default: stdout)")
	checkStable := fs.Bool("check-stable", false, "fail if a code in -delta-from was removed or renumbered")
	lint := fs.Bool("lint", false, "print lint violations to stderr")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stdout, usage)
			return exitcode.OK
		}
		fmt.Fprintf(stderr, "errgen-facts: %v\n%s\n", err, usage)
		return exitcode.Usage
	}
	if *checkStable && *deltaFrom == "" {
		fmt.Fprintf(stderr, "errgen-facts: -check-stable requires -delta-from\n%s\n", usage)
		return exitcode.Usage
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return fail(stderr, err)
	}

	inputs := fs.Args()
	if len(inputs) == 0 {
		if inputs, err = cfg.ResolveInputs("."); err != nil {
			return fail(stderr, err)
		}
	}
	if len(inputs) == 0 {
		fmt.Fprintf(stderr, "errgen-facts: no input files\n%s\n", usage)
		return exitcode.Usage
	}

	parsed := make([]parser.FileTable, 0, len(inputs))
	for _, path := range inputs {
		ft, err := parser.ParseFile(path)
		if err != nil {
			return fail(stderr, err)
		}
		parsed = append(parsed, ft)
	}

	tables := facts.BuildTables(parsed)
	v, err := validator.New()
	if err != nil {
		return fail(stderr, err)
	}
	if err := v.ValidateTables(tables); err != nil {
		return fail(stderr, err)
	}

	if *lint {
		ctx := context.Background()
		engine, err := policy.New(ctx, cfg.Lint.PolicyDir)
		if err != nil {
			return fail(stderr, &config.Error{Path: cfg.Path, Err: err})
		}
		result, err := engine.Evaluate(ctx, tables)
		if err != nil {
			return fail(stderr, err)
		}
		result.Apply(cfg)
		for _, violation := range result.Violations {
			fmt.Fprintln(stderr, violation)
		}
	}

	if *output != "" {
		if err := facts.SaveSnapshot(*output, tables); err != nil {
			return fail(stderr, err)
		}
	} else if *deltaFrom == "" {
		if err := writeJSON(stdout, facts.Snapshot{Version: facts.SnapshotVersion, Tables: tables}); err != nil {
			return fail(stderr, err)
		}
	}

	if *deltaFrom == "" {
		return exitcode.OK
	}

	prev, err := facts.LoadSnapshot(*deltaFrom)
	if err != nil {
		return fail(stderr, err)
	}
	// codes of files that were not given this time are not in question
	prev = facts.FilterTablesByFiles(prev, facts.FileSet(tables))
	delta := facts.FilterDeltaByFiles(facts.ComputeDelta(prev, tables), facts.FileSet(tables))

	if *deltaOut != "" {
		f, err := os.Create(*deltaOut)
		if err != nil {
			return fail(stderr, err)
		}
		err = writeJSON(f, delta)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fail(stderr, err)
		}
	} else if *output != "" || !*checkStable {
		if err := writeJSON(stdout, delta); err != nil {
			return fail(stderr, err)
		}
	}

	if *checkStable {
		if changes := facts.CheckStable(prev, tables); len(changes) > 0 {
			return fail(stderr, &facts.StabilityError{Changes: changes})
		}
	}
	return exitcode.OK
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "errgen-facts: %v\n", err)
	return exitcode.For(err)
}

func writeJSON(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
