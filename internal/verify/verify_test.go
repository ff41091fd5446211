package verify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/errgen/internal/emit"
	"github.com/robert-at-pretension-io/errgen/internal/parser"
)

const sample = "io = 0x100 \"I/O\" {\nEIO input \"quoted\" failure\nENOSPC\n}\nnet = 10 \"net\" NetErr {\nETIMEDOUT timed out??!\n}\n"

func TestGeneratedFilesParse(t *testing.T) {
	table, err := parser.Parse("sample.et", strings.NewReader(sample))
	require.NoError(t, err)

	c := New()
	defer c.Close()
	ctx := context.Background()

	for _, lang := range []string{"c", "go"} {
		target, err := emit.TargetFor(lang, emit.Options{})
		require.NoError(t, err)
		for _, g := range table.Groups {
			for _, k := range emit.Kinds {
				name := emit.FileName(k, g, target.Ext())
				out, err := target.Render(emit.Unit{
					Kind:   k,
					Source: "sample.et",
					Stamp:  time.Unix(0, 0),
					File:   name,
					Group:  g,
				})
				require.NoError(t, err)
				require.NoError(t, c.Check(ctx, name, out), "%s:\n%s", name, out)
			}
		}
	}
}

func TestBrokenFilesFail(t *testing.T) {
	c := New()
	defer c.Close()
	ctx := context.Background()

	tests := map[string]string{
		"bad.h":  "enum io_errcode {\n\tIO_A = 0x100,\n\tIO_B = = 0x101\n};\n",
		"bad.go": "package errtab\n\nconst (\n\tIO_A = 0x100\n",
	}
	for name, src := range tests {
		err := c.Check(ctx, name, []byte(src))
		var verr *Error
		require.True(t, errors.As(err, &verr), "%s: expected *Error, got %v", name, err)
		require.Equal(t, name, verr.File)
		require.NotEmpty(t, verr.Problems)
		require.GreaterOrEqual(t, verr.Problems[0].Line, 1)
		require.Contains(t, err.Error(), name+":")
	}
}

func TestUnknownExtension(t *testing.T) {
	c := New()
	defer c.Close()
	err := c.Check(context.Background(), "x.rs", []byte("fn main() {}"))
	require.Error(t, err)
	var verr *Error
	require.False(t, errors.As(err, &verr))
}
