// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, r *Renderer, src string, d Diagnostic) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, src, d))
	return buf.String()
}

func plain() *Renderer {
	return &Renderer{Color: ColorNever}
}

func TestRenderLabels(t *testing.T) {
	got := render(t, plain(), "const limit = 3;\nlimit = 4;", Diagnostic{
		Severity: SeverityError,
		Code:     "const-reassignment",
		Message:  "TypeError: Assignment to constant variable 'limit'",
		File:     "test.js",
		Labels: []Label{
			{Line: 2, Col: 1, Text: "assignment to a constant"},
			{Line: 1, Col: 7, Text: "declared const here", Secondary: true},
		},
	})
	expect := `error[const-reassignment]: TypeError: Assignment to constant variable 'limit'
  --> test.js:2:1
   |
 1 | const limit = 3;
   |       ----- declared const here
 2 | limit = 4;
   | ^^^^^ assignment to a constant
   |
`
	assert.Equal(t, expect, got)
}

func TestRenderSameLine(t *testing.T) {
	got := render(t, plain(), "let total = a + $b;", Diagnostic{
		Message: "two labels",
		File:    "x.js",
		Labels: []Label{
			{Line: 1, Col: 17, Text: "second"},
			{Line: 1, Col: 13, Text: "first", Secondary: true},
		},
	})
	expect := `error: two labels
  --> x.js:1:17
   |
 1 | let total = a + $b;
   |             - first
   |                 ^^ second
   |
`
	assert.Equal(t, expect, got)
}

func TestRenderGap(t *testing.T) {
	src := "let a = 1;\nlet b = 2;\nlet c = 3;\n"
	got := render(t, plain(), src, Diagnostic{
		Message: "gap",
		File:    "gap.js",
		Labels: []Label{
			{Line: 3, Col: 5},
			{Line: 1, Col: 5, Secondary: true},
		},
	})
	assert.Contains(t, got, " 1 | let a = 1;\n   |     -\n...\n 3 | let c = 3;\n   |     ^\n")
	assert.NotContains(t, got, "let b")
}

func TestRenderWideGutter(t *testing.T) {
	src := strings.Repeat("\n", 11) + "x;"
	got := render(t, plain(), src, Diagnostic{
		Message: "wide",
		File:    "w.js",
		Labels:  []Label{{Line: 12, Col: 1}},
	})
	assert.Contains(t, got, "    |\n 12 | x;\n    | ^\n    |\n")
}

func TestRenderWarning(t *testing.T) {
	got := render(t, plain(), "let x = 1;\nwith (x) {}", Diagnostic{
		Severity: SeverityWarning,
		Message:  "unsupported syntax: with",
		File:     "test.js",
		Labels:   []Label{{Line: 2, Col: 1}},
	})
	assert.Contains(t, got, "warning: unsupported syntax: with\n")
	assert.Contains(t, got, "--> test.js:2:1")
	assert.Contains(t, got, " 2 | with (x) {}\n   | ^^^^\n")
}

func TestRenderNoSource(t *testing.T) {
	got := render(t, plain(), "", Diagnostic{
		Severity: SeverityError,
		Message:  "some error",
		File:     "<stdin>",
		Labels:   []Label{{Line: 5, Col: 3}},
	})
	assert.Equal(t, "error: some error\n  --> <stdin>:5:3\n   |\n", got)
}

func TestRenderNoFile(t *testing.T) {
	got := render(t, plain(), "", Diagnostic{
		Severity: SeverityError,
		Message:  "open missing.js: no such file or directory",
	})
	assert.Equal(t, "error: open missing.js: no such file or directory\n", got)
}

func TestRenderTabs(t *testing.T) {
	got := render(t, plain(), "if (a) {\n\tb = 1;\n}", Diagnostic{
		Message: "ReferenceError: b is not defined",
		File:    "test.js",
		Labels:  []Label{{Line: 2, Col: 2}},
	})
	assert.Contains(t, got, " 2 |     b = 1;\n")
	assert.Contains(t, got, "\n   |     ^\n")
}

func TestRenderColumnPastEnd(t *testing.T) {
	got := render(t, plain(), "let y = ", Diagnostic{
		Message: "SyntaxError: Unexpected end of input",
		File:    "eof.js",
		Labels:  []Label{{Line: 1, Col: 20}},
	})
	assert.Contains(t, got, " 1 | let y = \n   |         ^\n")
}

func TestRenderStackNotesHelp(t *testing.T) {
	r := plain()
	r.MaxFrames = 3
	var stack []Frame
	for i := 0; i < 9; i++ {
		stack = append(stack, Frame{Name: "f", Line: 1})
	}
	stack = append(stack, Frame{Name: "global"})
	got := render(t, r, "", Diagnostic{
		Message: "RangeError: Maximum call stack size exceeded",
		Stack:   stack,
		Notes:   []string{"a note"},
		Help:    []string{"raise the limit with --max-call-depth"},
	})
	expect := `error: RangeError: Maximum call stack size exceeded
   = at f, called from line 1
   = at f, called from line 1
   = at f, called from line 1
   = ... 7 more frames
   = note: a note
   = help: raise the limit with --max-call-depth
`
	assert.Equal(t, expect, got)
}

func TestRenderMultipleDiagnostics(t *testing.T) {
	src := "let x = 1;\nlet x = 2;\ny = 3;"
	diags := []Diagnostic{
		{Message: "Identifier 'x' has already been declared", File: "t.js", Labels: []Label{{Line: 2, Col: 5}}},
		{Message: "y is not defined", File: "t.js", Labels: []Label{{Line: 3, Col: 1}}},
	}
	var buf bytes.Buffer
	require.NoError(t, plain().RenderAll(&buf, src, diags))
	parts := strings.Split(buf.String(), "\n\n")
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0], "has already been declared")
	assert.Contains(t, parts[1], "y is not defined")
}

func TestRenderColor(t *testing.T) {
	r := &Renderer{Color: ColorAlways}
	got := render(t, r, "", Diagnostic{Severity: SeverityNote, Message: "hello"})
	assert.Contains(t, got, ansiPalette.boldCyan)
	assert.Contains(t, got, ansiPalette.reset)

	// A buffer is never a terminal.
	r.Color = ColorAuto
	got = render(t, r, "", Diagnostic{Severity: SeverityNote, Message: "hello"})
	assert.Equal(t, "note: hello\n", got)
}

func TestParseColorMode(t *testing.T) {
	assert.Equal(t, ColorAlways, ParseColorMode("always"))
	assert.Equal(t, ColorNever, ParseColorMode("never"))
	assert.Equal(t, ColorAuto, ParseColorMode("auto"))
	assert.Equal(t, ColorAuto, ParseColorMode("sometimes"))
}

func TestTokenWidth(t *testing.T) {
	tests := []struct {
		line  string
		at    int
		width int
	}{
		{"let total = $sum(items);", 12, 4},
		{"let total = $sum(items);", 0, 3},
		{`x = "a\"b" + 1;`, 4, 6},
		{"y === 1", 2, 3},
		{"a >>>= 1", 2, 4},
		{"f => f", 2, 2},
		{"n = 1.5e-3;", 4, 6},
		{"0x1F;", 0, 4},
		{"10n", 0, 3},
		{".5 + 1", 0, 2},
		{"'open", 0, 5},
		{"héllo + 1", 0, 6},
		{"(a)", 0, 1},
		{"", 0, 1},
	}
	for _, test := range tests {
		assert.Equal(t, test.width, tokenWidth(test.line, test.at), "%q at %d", test.line, test.at)
	}
}
