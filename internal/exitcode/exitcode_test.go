package exitcode

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/errgen/internal/config"
	"github.com/robert-at-pretension-io/errgen/internal/emit"
	"github.com/robert-at-pretension-io/errgen/internal/facts"
	"github.com/robert-at-pretension-io/errgen/internal/generator"
	"github.com/robert-at-pretension-io/errgen/internal/parser"
	"github.com/robert-at-pretension-io/errgen/internal/policy"
	"github.com/robert-at-pretension-io/errgen/internal/validator"
	"github.com/robert-at-pretension-io/errgen/internal/verify"
)

func TestFor(t *testing.T) {
	pathErr := &fs.PathError{Op: "open", Path: "x.et", Err: os.ErrNotExist}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, OK},
		{"usage", &generator.UsageError{Msg: "no emitter"}, Usage},
		{"config", &config.Error{Path: "errgen.json", Err: errors.New("bad")}, Config},
		{"config_wrapping_path", &config.Error{Path: "errgen.json", Err: pathErr}, Config},
		{"parse", &parser.ParseError{File: "a.et", Line: 3, Msg: "malformed entry line"}, DataErr},
		{"parse_wrapped", fmt.Errorf("run: %w", &parser.ParseError{File: "a.et", Line: 1}), DataErr},
		{"no_input", fmt.Errorf("opening input: %w", pathErr), NoInput},
		{"cant_create", &emit.OutputError{Path: "out/a.h", Op: "create", Err: pathErr}, CantCreat},
		{"write", &emit.OutputError{Path: "out/a.h", Op: "write", Err: errors.New("disk full")}, IOErr},
		{"commit", &emit.OutputError{Path: "out/a.h", Op: "commit", Err: errors.New("rename")}, IOErr},
		{"contract", &validator.ContractError{Definition: "#Tables"}, Software},
		{"verify", &verify.Error{File: "a.h", Problems: []verify.Problem{{Line: 1}}}, Software},
		{"lint", &policy.LintError{Errors: 2}, DataErr},
		{"stability", &facts.StabilityError{}, DataErr},
		{"other", errors.New("boom"), Failure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, For(tt.err))
		})
	}
}
