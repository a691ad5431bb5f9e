// Copyright © 2024 The ELPS authors

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag of c and its subcommands to its default so
// tests sharing rootCmd do not leak flag values into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunText(t *testing.T) {
	out, _, err := execute(t, "", "run", "-e", "let x = 1;")
	require.NoError(t, err)
	assert.Contains(t, out, "[0] block-enter 1:0\n  Start execution\n")
	assert.Contains(t, out, "Declare let x = 1")
	assert.Contains(t, out, "End execution")
}

func TestRunFinalJSON(t *testing.T) {
	out, _, err := execute(t, "", "run", "--final", "--format", "json", "-e", "let a = [1];")
	require.NoError(t, err)
	var steps []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &steps))
	require.Len(t, steps, 1)
	assert.Equal(t, "End execution", steps[0]["description"])
}

func TestRunDOM(t *testing.T) {
	out, _, err := execute(t, "", "run", "--dom", "-e", `document.getElementById("out").textContent = "hi";`)
	require.NoError(t, err)
	assert.Equal(t, "#out\n  text: hi\n", out)
}

func TestRunFailure(t *testing.T) {
	out, stderr, err := execute(t, "", "run", "--color", "never", "-e", "y = 1;")
	assert.ErrorIs(t, err, errFailed)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "error[reference-error]: ReferenceError: y is not defined\n  --> <expr>:1:1\n")
	assert.Contains(t, stderr, " 1 | y = 1;\n   | ^ not defined\n")
}

func TestRunMaxSteps(t *testing.T) {
	_, stderr, err := execute(t, "", "run", "--color", "never", "--max-steps", "2", "-e", "let a = 1; let b = 2;")
	assert.ErrorIs(t, err, errFailed)
	assert.Contains(t, stderr, "step limit of 2 exceeded")
}

func TestRunFileAndStdin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.js")
	require.NoError(t, os.WriteFile(path, []byte("const s = 'hi';\n"), 0600))

	out, _, err := execute(t, "", "run", "--format", "yaml", path)
	require.NoError(t, err)
	assert.Contains(t, out, "name: "+path)
	assert.Contains(t, out, "Declare const s = \"hi\"")

	out, _, err = execute(t, "let n = 2;", "run", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Declare let n = 2")

	_, _, err = execute(t, "", "run", filepath.Join(t.TempDir(), "missing.js"))
	assert.Error(t, err)
}

func TestRunBadArguments(t *testing.T) {
	_, _, err := execute(t, "", "run", "--format", "xml", "-e", "1;")
	assert.ErrorContains(t, err, "unknown format")
	_, _, err = execute(t, "", "run")
	assert.ErrorContains(t, err, "expected one source file")
	_, _, err = execute(t, "", "run", "-e", "1;", "file.js")
	assert.ErrorContains(t, err, "cannot combine")
	_, _, err = execute(t, "", "run", "--trace", "zipkin", "-e", "1;")
	assert.ErrorContains(t, err, "unknown trace kind")
}

func TestRunCallgrind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "callgrind.out")
	_, _, err := execute(t, "", "run", "--trace", "callgrind", "--trace-file", path,
		"-e", "function f() { return 1; }\nlet r = f();")
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "ENTRYPOINT")
	assert.Contains(t, string(b), "calls=1")
}

func TestNewProfiler(t *testing.T) {
	ctx := context.Background()
	logger := log.New(&bytes.Buffer{})

	p, complete, err := newProfiler(ctx, "none", "", logger)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, complete(ctx))

	for _, kind := range []string{"otel", "opencensus", "pprof"} {
		t.Run(kind, func(t *testing.T) {
			p, complete, err := newProfiler(ctx, kind, "", logger)
			require.NoError(t, err)
			require.NotNil(t, p)
			require.NoError(t, p.Enable())
			assert.True(t, p.IsEnabled())
			assert.NoError(t, complete(ctx))
		})
	}
}

func TestRunTraceOTel(t *testing.T) {
	out, _, err := execute(t, "", "run", "--trace", "otel", "--final", "-e",
		"function sq(x) { return x * x; }\nlet r = sq(3);")
	require.NoError(t, err)
	assert.Contains(t, out, "r = 9")
}

func TestReadSource(t *testing.T) {
	name, src, err := readSource(nil, "let a;", nil)
	require.NoError(t, err)
	assert.Equal(t, "<expr>", name)
	assert.Equal(t, "let a;", src)

	name, src, err = readSource([]string{"-"}, "", strings.NewReader("let b;"))
	require.NoError(t, err)
	assert.Equal(t, "<stdin>", name)
	assert.Equal(t, "let b;", src)
}
