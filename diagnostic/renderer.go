// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// DefaultMaxFrames is the number of call stack lines rendered per
// diagnostic when Renderer.MaxFrames is zero.
const DefaultMaxFrames = 8

const tabWidth = 4

// Renderer formats diagnostics against the source they refer to.
type Renderer struct {
	// Color controls ANSI color output. Default is ColorAuto.
	Color ColorMode
	// MaxFrames limits the call stack lines of a diagnostic.
	MaxFrames int
}

// Render writes d to w.  Labels are drawn against src, labels outside of
// src are dropped.
func (r *Renderer) Render(w io.Writer, src string, d Diagnostic) error {
	p := choosePalette(r.Color, w)
	var b strings.Builder
	writeHeader(&b, d, p)
	if writeLocation(&b, d, p) {
		writeSnippet(&b, sourceLines(src), d.Labels, p)
	}
	r.writeStack(&b, d.Stack, p)
	for _, note := range d.Notes {
		fmt.Fprintf(&b, "   %s=%s note: %s\n", p.boldCyan, p.reset, note)
	}
	for _, help := range d.Help {
		fmt.Fprintf(&b, "   %s=%s help: %s\n", p.boldCyan, p.reset, help)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderAll writes diags to w separated by blank lines.
func (r *Renderer) RenderAll(w io.Writer, src string, diags []Diagnostic) error {
	for i, d := range diags {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := r.Render(w, src, d); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(b *strings.Builder, d Diagnostic, p palette) {
	color := p.boldRed
	switch d.Severity {
	case SeverityWarning:
		color = p.yellow
	case SeverityNote:
		color = p.boldCyan
	}
	head := d.Severity.String()
	if d.Code != "" {
		head += "[" + d.Code + "]"
	}
	fmt.Fprintf(b, "%s%s%s%s: %s%s%s\n", color, p.bold, head, p.reset, p.bold, d.Message, p.reset)
}

// writeLocation writes the "-->" line and reports whether d has a file to
// show source from.
func writeLocation(b *strings.Builder, d Diagnostic, p palette) bool {
	if d.File == "" {
		return false
	}
	loc := d.File
	if l, ok := d.Primary(); ok && l.Line > 0 {
		loc += ":" + strconv.Itoa(l.Line)
		if l.Col > 0 {
			loc += ":" + strconv.Itoa(l.Col)
		}
	}
	fmt.Fprintf(b, "  %s-->%s %s\n", p.boldBlue, p.reset, loc)
	return true
}

func writeSnippet(b *strings.Builder, lines []string, labels []Label, p palette) {
	var shown []Label
	for _, l := range labels {
		if l.Line >= 1 && l.Line <= len(lines) {
			shown = append(shown, l)
		}
	}
	if len(shown) == 0 {
		fmt.Fprintf(b, "   %s|%s\n", p.boldBlue, p.reset)
		return
	}
	sort.SliceStable(shown, func(i, j int) bool {
		if shown[i].Line != shown[j].Line {
			return shown[i].Line < shown[j].Line
		}
		return shown[i].Col < shown[j].Col
	})

	width := len(strconv.Itoa(shown[len(shown)-1].Line))
	gutter := func() {
		fmt.Fprintf(b, " %s%s |%s", p.boldBlue, strings.Repeat(" ", width), p.reset)
	}
	gutter()
	b.WriteString("\n")
	prev := 0
	for _, l := range shown {
		source := lines[l.Line-1]
		if l.Line != prev {
			if prev > 0 && l.Line > prev+1 {
				fmt.Fprintf(b, "%s...%s\n", p.boldBlue, p.reset)
			}
			fmt.Fprintf(b, " %s%*d |%s %s\n", p.boldBlue, width, l.Line, p.reset, expandTabs(source))
			prev = l.Line
		}
		start, n := markSpan(source, l)
		mark, color := "^", p.boldRed
		if l.Secondary {
			mark, color = "-", p.boldBlue
		}
		gutter()
		fmt.Fprintf(b, " %s%s%s%s", strings.Repeat(" ", start), color, strings.Repeat(mark, n), p.reset)
		if l.Text != "" {
			fmt.Fprintf(b, " %s%s%s", color, l.Text, p.reset)
		}
		b.WriteString("\n")
	}
	gutter()
	b.WriteString("\n")
}

// markSpan returns the display offset and display width of the text l
// marks in source.
func markSpan(source string, l Label) (start, n int) {
	off := l.Col - 1
	if off < 0 {
		off = 0
	}
	if off > len(source) {
		off = len(source)
	}
	width := l.Width
	if width <= 0 {
		width = tokenWidth(source, off)
	}
	end := off + width
	if end > len(source) {
		end = len(source)
	}
	n = displayWidth(source[off:end])
	if n < 1 {
		n = 1
	}
	return displayWidth(source[:off]), n
}

func (r *Renderer) writeStack(b *strings.Builder, stack []Frame, p palette) {
	limit := r.MaxFrames
	if limit <= 0 {
		limit = DefaultMaxFrames
	}
	for i, f := range stack {
		if i == limit {
			fmt.Fprintf(b, "   %s=%s ... %d more frames\n", p.boldCyan, p.reset, len(stack)-limit)
			return
		}
		fmt.Fprintf(b, "   %s=%s at %s\n", p.boldCyan, p.reset, f)
	}
}

func sourceLines(src string) []string {
	if src == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(src, "\n"), "\n")
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

func displayWidth(s string) int {
	w := 0
	for _, ch := range s {
		if ch == '\t' {
			w += tabWidth
		} else {
			w++
		}
	}
	return w
}
