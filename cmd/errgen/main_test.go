package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-at-pretension-io/errgen/internal/config"
	"github.com/robert-at-pretension-io/errgen/internal/exitcode"
	"github.com/robert-at-pretension-io/errgen/internal/generator"
)

const table = "io = 0x100 \"I/O\" {\nEIO input failed\nENOSPC no space\n}\n"

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(generator.SourceDateEpochEnv, "0")
	t.Setenv(generator.TimingEnv, "")
	require.NoError(t, os.WriteFile("io.et", []byte(table), 0o644))
	return dir
}

func TestNoEmitterIsUsageError(t *testing.T) {
	setup(t)
	code, _, stderr := runCLI(t, "io.et")
	require.Equal(t, exitcode.Usage, code)
	require.Contains(t, stderr, "no emitter selected")
	require.Contains(t, stderr, "Usage: errgen")
}

func TestBadFlagIsUsageError(t *testing.T) {
	setup(t)
	code, _, _ := runCLI(t, "-x", "io.et")
	require.Equal(t, exitcode.Usage, code)
}

func TestHelp(t *testing.T) {
	code, stdout, _ := runCLI(t, "-h")
	require.Equal(t, exitcode.OK, code)
	require.Contains(t, stdout, "errgen init")
}

func TestGenerateEnum(t *testing.T) {
	dir := setup(t)
	code, stdout, stderr := runCLI(t, "-e", "-o", "gen", "io.et")
	require.Equal(t, exitcode.OK, code, stderr)
	require.Contains(t, stdout, "wrote "+filepath.Join("gen", "io-error-enum-gen.h"))

	enum, err := os.ReadFile(filepath.Join(dir, "gen", "io-error-enum-gen.h"))
	require.NoError(t, err)
	require.Contains(t, string(enum), "IO_EIO = 0x100")
	require.Contains(t, string(enum), "1970-01-01T00:00:00Z")
}

func TestListModeSuppressesEmitters(t *testing.T) {
	dir := setup(t)
	code, _, stderr := runCLI(t, "-e", "-list", "codes.list", "-o", "gen", "io.et")
	require.Equal(t, exitcode.OK, code, stderr)

	list, err := os.ReadFile(filepath.Join(dir, "codes.list"))
	require.NoError(t, err)
	require.Equal(t, "io_EIO = 1\nio_ENOSPC = 2\n", string(list))

	_, err = os.Stat(filepath.Join(dir, "gen", "io-error-enum-gen.h"))
	require.True(t, os.IsNotExist(err))
}

func TestJSONResult(t *testing.T) {
	setup(t)
	code, stdout, stderr := runCLI(t, "-json", "-d", "-verify", "io.et")
	require.Equal(t, exitcode.OK, code, stderr)

	var result generator.RunResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	require.Equal(t, "c", result.Lang)
	require.True(t, result.Verified)
	require.Len(t, result.Outputs, 1)
	require.Equal(t, "error-def", result.Outputs[0].Kind)
	require.Equal(t, 2, result.Stats.Entries)
}

func TestExitCodes(t *testing.T) {
	setup(t)
	require.NoError(t, os.WriteFile("broken.et", []byte("io = 0x100 \"I/O\" {\nEIO\n"), 0o644))

	code, _, stderr := runCLI(t, "-e", "broken.et")
	require.Equal(t, exitcode.DataErr, code)
	require.Contains(t, stderr, "broken.et:1:")

	code, _, _ = runCLI(t, "-e", "missing.et")
	require.Equal(t, exitcode.NoInput, code)

	code, _, _ = runCLI(t, "-e", "-lang", "rust", "io.et")
	require.Equal(t, exitcode.Usage, code)

	code, _, _ = runCLI(t, "-c", "nope.json", "-e", "io.et")
	require.Equal(t, exitcode.Config, code)

	_, err := os.Stat(filepath.Join("io-error-enum-gen.h"))
	require.True(t, os.IsNotExist(err))
}

func TestInitWritesConfigAndSchema(t *testing.T) {
	dir := setup(t)

	code, stdout, stderr := runCLI(t, "init")
	require.Equal(t, exitcode.OK, code, stderr)
	require.Contains(t, stdout, "Created errgen.json and errgen.schema.json")

	cfg, err := config.LoadFile(filepath.Join(dir, "errgen.json"))
	require.NoError(t, err)
	require.Equal(t, []string{"**/*.et"}, cfg.Files)

	raw, err := os.ReadFile(filepath.Join(dir, "errgen.schema.json"))
	require.NoError(t, err)
	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &schema))
	require.Equal(t, "errgen configuration", schema["title"])
	require.Contains(t, string(raw), "outputDir")

	code, _, _ = runCLI(t, "init")
	require.Equal(t, exitcode.CantCreat, code)

	// the template picks up io.et through its globs
	code, _, stderr = runCLI(t)
	require.Equal(t, exitcode.OK, code, stderr)
	_, err = os.Stat(filepath.Join(dir, "io-errmsg-gen.h"))
	require.NoError(t, err)
}
