// errgen turns error-table source files into C headers (or Go source) that
// define each error's numeric code, symbolic name and message.
//
// THE PIPELINE:
//   1. Parser reads every input, assigning codes as each group closes
//   2. Fact tables are built from the parsed groups
//   3. CUE contract checks the tables (a failure here is a bug)
//   4. OPA lint rules run over the tables when -lint is on
//   5. Emitters render one file per group and artifact kind
//   6. Tree-sitter parses each rendered file when -verify is on
//   7. All files are committed together
//
// Nothing is written unless every step succeeds.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/sirupsen/logrus"

	"github.com/robert-at-pretension-io/errgen/internal/config"
	"github.com/robert-at-pretension-io/errgen/internal/exitcode"
	"github.com/robert-at-pretension-io/errgen/internal/generator"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

const usage = `Usage: errgen [options] file...
       errgen init [-yaml] [-force]

Artifacts (at least one, or -list):
  -m                message arrays         (<group>-errmsg-gen.h)
  -p                info tables, forward and backward
                                           (<group>-einfo-gen.h, <group>-einfo-bakw-gen.h)
  -e                enumeration            (<group>-error-enum-gen.h)
  -d                macro constants        (<group>-error-def-gen.h)
  -list path        write "name_tag = n" lines for every entry to path
                    instead of any of the above

Options:
  -c path           configuration file (default: search errgen.json,
                    .errgen.json, errgen.yaml, errgen.yml,
                    ~/.config/errgen/config.json)
  -o dir            output directory
  -lang c|go        output language (default c)
  -go-package name  package clause for -lang go
  -lint             run lint rules, fail on error-severity findings
  -verify           parse every generated file before writing it
  -timing path      write JSONL timings (also $ERRGEN_TIMING_JSONL)
  -json             print the run result as JSON
  -v                verbose diagnostics on stderr
  -h                show this help

With no file arguments the "files" globs of the configuration are used.
Run 'errgen init' to create a configuration file and its JSON Schema.`

type options struct {
	messages, pairs, enum, defines bool

	list, configPath, outDir, lang, goPackage, timing string

	lint, verify, json, verbose bool
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 && args[0] == "init" {
		return runInit(args[1:], stdout, stderr)
	}

	var opts options
	fs := flag.NewFlagSet("errgen", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(&opts.messages, "m", false, "emit message arrays")
	fs.BoolVar(&opts.pairs, "p", false, "emit info tables")
	fs.BoolVar(&opts.enum, "e", false, "emit enumerations")
	fs.BoolVar(&opts.defines, "d", false, "emit macro constants")
	fs.StringVar(&opts.list, "list", "", "sequential list file")
	fs.StringVar(&opts.configPath, "c", "", "configuration file")
	fs.StringVar(&opts.outDir, "o", "", "output directory")
	fs.StringVar(&opts.lang, "lang", "", "output language")
	fs.StringVar(&opts.goPackage, "go-package", "", "Go package name")
	fs.BoolVar(&opts.lint, "lint", false, "run lint rules")
	fs.BoolVar(&opts.verify, "verify", false, "verify generated files")
	fs.StringVar(&opts.timing, "timing", "", "JSONL timing file")
	fs.BoolVar(&opts.json, "json", false, "JSON run result")
	fs.BoolVar(&opts.verbose, "v", false, "verbose")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stdout, usage)
			return exitcode.OK
		}
		fmt.Fprintf(stderr, "errgen: %v\n\n%s\n", err, usage)
		return exitcode.Usage
	}

	log := logrus.New()
	log.SetOutput(stderr)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.InfoLevel)
	if opts.verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "errgen: %v\n", err)
		return exitcode.For(err)
	}
	if cfg.Path != "" {
		log.WithField("path", cfg.Path).Debug("configuration loaded")
	}
	opts.apply(cfg)

	g := generator.New(cfg)
	g.Inputs = fs.Args()
	g.JSONOutput = opts.json
	g.Verbose = opts.verbose
	g.TimingPath = opts.timing
	g.Out = stdout
	g.Log = log

	result, err := g.Run(context.Background())
	if opts.json && result != nil {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(result); encErr != nil {
			fmt.Fprintf(stderr, "errgen: encoding result: %v\n", encErr)
			return exitcode.IOErr
		}
	}
	if err != nil {
		var usageErr *generator.UsageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(stderr, "errgen: %v\n\n%s\n", err, usage)
		} else {
			fmt.Fprintf(stderr, "errgen: %v\n", err)
		}
		code := exitcode.For(err)
		log.WithField("run_id", g.RunID).WithField("exit", code).Debug("run failed")
		return code
	}
	return exitcode.OK
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load(".")
}

// apply merges command-line options over the configuration. Emitter and
// switch flags only ever turn things on.
func (o options) apply(cfg *config.Config) {
	cfg.Emitters.Messages = cfg.Emitters.Messages || o.messages
	cfg.Emitters.Pairs = cfg.Emitters.Pairs || o.pairs
	cfg.Emitters.Enum = cfg.Emitters.Enum || o.enum
	cfg.Emitters.Defines = cfg.Emitters.Defines || o.defines
	cfg.Lint.Enabled = cfg.Lint.Enabled || o.lint
	cfg.Verify = cfg.Verify || o.verify

	if o.list != "" {
		cfg.List = o.list
	}
	if o.outDir != "" {
		cfg.OutputDir = o.outDir
	}
	if o.lang != "" {
		cfg.Lang = strings.ToLower(o.lang)
	}
	if o.goPackage != "" {
		cfg.GoPackage = o.goPackage
	}
}

func runInit(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("errgen init", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	useYAML := fs.Bool("yaml", false, "write errgen.yaml instead of errgen.json")
	force := fs.Bool("force", false, "overwrite existing files")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stderr, "errgen init: %v\n\n%s\n", err, usage)
		return exitcode.Usage
	}

	configPath := "errgen.json"
	if *useYAML {
		configPath = "errgen.yaml"
	}
	schemaPath := "errgen.schema.json"

	if !*force {
		for _, p := range []string{configPath, schemaPath} {
			if _, err := os.Stat(p); err == nil {
				fmt.Fprintf(stderr, "errgen init: %s already exists (use -force to overwrite)\n", p)
				return exitcode.CantCreat
			}
		}
	}

	if err := config.Template().Save(configPath); err != nil {
		fmt.Fprintf(stderr, "errgen init: %v\n", err)
		return exitcode.CantCreat
	}
	if err := writeSchema(schemaPath); err != nil {
		fmt.Fprintf(stderr, "errgen init: %v\n", err)
		return exitcode.CantCreat
	}

	fmt.Fprintf(stdout, "Created %s and %s\n", configPath, schemaPath)
	fmt.Fprintln(stdout, "\nEdit the configuration to set:")
	fmt.Fprintln(stdout, "  - input globs (files)")
	fmt.Fprintln(stdout, "  - emitters, language and output directory")
	fmt.Fprintln(stdout, "  - lint rule severities")
	return exitcode.OK
}

// writeSchema reflects the configuration type into a JSON Schema document.
func writeSchema(path string) error {
	schema := jsonschema.Reflect(&config.Config{})
	schema.Title = "errgen configuration"
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling schema: %w", err)
	}
	if err := os.WriteFile(filepath.Clean(path), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing schema: %w", err)
	}
	return nil
}
