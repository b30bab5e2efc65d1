package main

import (
	"bytes"
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

const addFunctionJSON = `{
	"name": "add",
	"params": ["i64", "i64"],
	"ret": "i64",
	"blocks": [
		{
			"label": "entry",
			"params": [
				{"id": 0, "type": "i64"},
				{"id": 1, "type": "i64"}
			],
			"instrs": [
				{"op": "add", "has_result": true, "result": 2, "type": "i64",
				 "args": [{"kind": "temp", "temp": 0}, {"kind": "temp", "temp": 1}]},
				{"op": "ret", "args": [{"kind": "temp", "temp": 2}]}
			]
		}
	]
}`

func runMain(t *testing.T, args []string) (int, string, string) {
	t.Helper()
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })
	os.Args = append([]string{"viperc"}, args...)

	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)

	stdOut := &bytes.Buffer{}
	stdErr := &bytes.Buffer{}
	exitCode := doMain(stdOut, stdErr)
	return exitCode, stdOut.String(), stdErr.String()
}

func TestDoMain_Help(t *testing.T) {
	exitCode, _, stdErr := runMain(t, []string{"-h"})
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdErr, "viperc - AArch64 backend driver")
}

func TestDoMain_UnknownCommand(t *testing.T) {
	exitCode, _, stdErr := runMain(t, []string{"bogus"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stdErr, `unknown command "bogus"`)
}

func TestDoMain_CompileFromFile(t *testing.T) {
	path := writeTempIL(t, addFunctionJSON)
	exitCode, stdOut, stdErr := runMain(t, []string{"compile", path})
	require.Equal(t, 0, exitCode, stdErr)
	require.Contains(t, stdOut, ".globl _add")
	require.Contains(t, stdOut, "add ")
	require.Contains(t, stdOut, "ret")
}

func TestDoMain_CompileMissingPath(t *testing.T) {
	exitCode, _, stdErr := runMain(t, []string{"compile"})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stdErr, "missing path to IL JSON file")
}

func TestDoMain_CompileMalformedJSON(t *testing.T) {
	path := writeTempIL(t, `{not valid json`)
	exitCode, _, stdErr := runMain(t, []string{"compile", path})
	require.Equal(t, 1, exitCode)
	require.Contains(t, stdErr, "error decoding IL")
}

func TestDoMain_CompileToOutputFile(t *testing.T) {
	inPath := writeTempIL(t, addFunctionJSON)
	outPath := inPath + ".s"
	exitCode, _, stdErr := runMain(t, []string{"compile", "-o", outPath, inPath})
	require.Equal(t, 0, exitCode, stdErr)

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Contains(t, string(out), ".globl _add")
}

func writeTempIL(t *testing.T, contents string) string {
	t.Helper()
	path := t.TempDir() + "/fn.json"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}
