// Package exitcode maps errgen errors to sysexits.h process exit codes.
package exitcode

import (
	"errors"
	"io/fs"

	"github.com/robert-at-pretension-io/errgen/internal/config"
	"github.com/robert-at-pretension-io/errgen/internal/emit"
	"github.com/robert-at-pretension-io/errgen/internal/facts"
	"github.com/robert-at-pretension-io/errgen/internal/generator"
	"github.com/robert-at-pretension-io/errgen/internal/parser"
	"github.com/robert-at-pretension-io/errgen/internal/policy"
	"github.com/robert-at-pretension-io/errgen/internal/validator"
	"github.com/robert-at-pretension-io/errgen/internal/verify"
)

// Exit codes following sysexits.h conventions.
const (
	// OK indicates successful completion.
	OK = 0

	// Failure is used for errors that fit no other class.
	Failure = 1

	// Usage indicates command line usage error (incorrect arguments).
	Usage = 64

	// DataErr indicates the input tables were malformed.
	DataErr = 65

	// NoInput indicates an input file could not be opened.
	NoInput = 66

	// Software indicates an internal error: a broken contract or a
	// generated file that does not parse.
	Software = 70

	// CantCreat indicates an output file could not be created.
	CantCreat = 73

	// IOErr indicates an output file could not be written or committed.
	IOErr = 74

	// Config indicates a configuration error.
	Config = 78
)

// For returns the exit code for err. Typed errors are matched first, so an
// output failure wrapping a *fs.PathError is still an output failure.
func For(err error) int {
	if err == nil {
		return OK
	}

	var (
		usageErr     *generator.UsageError
		configErr    *config.Error
		parseErr     *parser.ParseError
		outputErr    *emit.OutputError
		contractErr  *validator.ContractError
		lintErr      *policy.LintError
		verifyErr    *verify.Error
		stabilityErr *facts.StabilityError
		pathErr      *fs.PathError
	)

	switch {
	case errors.As(err, &usageErr):
		return Usage
	case errors.As(err, &configErr):
		return Config
	case errors.As(err, &parseErr):
		return DataErr
	case errors.As(err, &outputErr):
		if outputErr.Op == "create" {
			return CantCreat
		}
		return IOErr
	case errors.As(err, &contractErr), errors.As(err, &verifyErr):
		return Software
	case errors.As(err, &lintErr), errors.As(err, &stabilityErr):
		return DataErr
	case errors.As(err, &pathErr):
		return NoInput
	}
	return Failure
}
