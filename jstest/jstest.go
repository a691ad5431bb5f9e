// Copyright © 2024 The ELPS authors

/*
Package jstest contains helpers for testing the interpreter and the tools
built on top of its timelines.
*/
package jstest

import (
	"os"
	"strings"
	"testing"

	"github.com/luthersystems/jsviz/js"
	"github.com/luthersystems/jsviz/parser"
)

// BenchmarkParse returns a benchmark parsing the file at path.
func BenchmarkParse(path string) func(*testing.B) {
	return func(b *testing.B) {
		buf, err := os.ReadFile(path) //#nosec G304
		if err != nil {
			b.Fatalf("Unable to read source file %v: %v", path, err)
		}
		b.SetBytes(int64(len(buf)))
		for i := 0; i < b.N; i++ {
			_, err := parser.Parse("test", string(buf))
			if err != nil {
				b.Fatalf("Parse failure: %v", err)
			}
		}
	}
}

// NewInterpreter returns an interpreter logging to t.  Configs given are
// applied after the logger so they may replace it.
func NewInterpreter(t testing.TB, config ...js.Config) *js.Interpreter {
	config = append([]js.Config{js.WithLogger(NewCharmLogger(t))}, config...)
	return js.NewInterpreter(config...)
}

// Run runs src and fails t immediately if the run does not complete.
func Run(t testing.TB, src string, config ...js.Config) *js.Timeline {
	t.Helper()
	tl := NewInterpreter(t, config...).Run("test.js", src)
	if tl.Err != nil {
		t.Fatalf("run failed: %v", tl.Err)
	}
	return tl
}

// Descriptions returns the description of every step of tl except the
// program boundaries "Start execution" and "End execution".
func Descriptions(tl *js.Timeline) []string {
	var desc []string
	for i := range tl.Steps {
		d := tl.Steps[i].Description
		if d == "Start execution" || d == "End execution" {
			continue
		}
		desc = append(desc, d)
	}
	return desc
}

// Find returns the steps of tl whose description starts with prefix.
func Find(tl *js.Timeline, prefix string) []*js.Step {
	var steps []*js.Step
	for i := range tl.Steps {
		if strings.HasPrefix(tl.Steps[i].Description, prefix) {
			steps = append(steps, &tl.Steps[i])
		}
	}
	return steps
}

// TestSuite is a set of named programs and the steps they record.
type TestSuite []struct {
	Name   string
	Source string
	// Steps are the expected step descriptions, as returned by
	// Descriptions.  A nil Steps is not checked.
	Steps []string
	// Err is the expected error message of a failed run.  An empty Err
	// expects the run to complete.
	Err string
}

// RunTestSuite runs each program in tests on an isolated interpreter.
func RunTestSuite(t *testing.T, tests TestSuite, config ...js.Config) {
	for i, test := range tests {
		t.Logf("test %d -- %s", i, test.Name)
		tl := NewInterpreter(t, config...).Run("test.js", test.Source)
		if test.Err != "" {
			if tl.Err == nil {
				t.Errorf("test %d %q: expected error %q", i, test.Name, test.Err)
			} else if tl.Err.Error() != test.Err {
				t.Errorf("test %d %q: expected error %q (got %q)", i, test.Name, test.Err, tl.Err.Error())
			}
			continue
		}
		if tl.Err != nil {
			t.Errorf("test %d %q: %v", i, test.Name, tl.Err)
			continue
		}
		if test.Steps == nil {
			continue
		}
		desc := Descriptions(tl)
		if len(desc) != len(test.Steps) {
			t.Errorf("test %d %q: expected %d steps (got %d): %q", i, test.Name, len(test.Steps), len(desc), desc)
			continue
		}
		for j := range desc {
			if desc[j] != test.Steps[j] {
				t.Errorf("test %d %q: step %d: expected %q (got %q)", i, test.Name, j, test.Steps[j], desc[j])
			}
		}
	}
}

// RunBenchmark runs a standard benchmark that executes source.
func RunBenchmark(b *testing.B, source string, config ...js.Config) {
	b.StopTimer()
	prog, err := parser.Parse("benchmark", source)
	if err != nil {
		b.Fatalf("parse error: %v", err)
	}
	in := NewInterpreter(b, config...)
	b.StartTimer()
	for i := 0; i < b.N; i++ {
		tl := in.RunProgram(prog)
		if tl.Err != nil {
			b.Fatalf("run %d: %v", i, tl.Err)
		}
	}
}
