// Copyright © 2024 The ELPS authors

/*
Package scrubber is an interactive terminal front end for recorded
timelines.  Each command moves a timeline.Cursor or prints part of the
current step's snapshot, so a run can be replayed forward and backward
without executing the program again.
*/
package scrubber

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/luthersystems/jsviz/dom"
	"github.com/luthersystems/jsviz/js"
	"github.com/luthersystems/jsviz/render"
	"github.com/luthersystems/jsviz/timeline"
)

// ErrQuit is returned by Exec when the user asks to leave the scrubber.
var ErrQuit = errors.New("quit")

// listContext is the number of source lines shown on each side of the
// current line by the list command.
const listContext = 4

type command struct {
	names []string
	usage string
	run   func(s *Scrubber, args []string) error
}

var commands []*command

func init() {
	commands = []*command{
		{[]string{"next", "n"}, "move to the next step (n COUNT repeats)", (*Scrubber).next},
		{[]string{"prev", "p"}, "move to the previous step", (*Scrubber).prev},
		{[]string{"over", "o"}, "step over calls made from the current frame", (*Scrubber).stepOver},
		{[]string{"out", "u"}, "step out of the current frame", (*Scrubber).stepOut},
		{[]string{"goto", "g"}, "move to step N", (*Scrubber).seek},
		{[]string{"continue", "c"}, "move forward to the next breakpoint", (*Scrubber).cont},
		{[]string{"rc"}, "move backward to the previous breakpoint", (*Scrubber).reverse},
		{[]string{"break", "b"}, "toggle a breakpoint on LINE, or list breakpoints", (*Scrubber).toggleBreak},
		{[]string{"scope"}, "print the scope chain", (*Scrubber).scope},
		{[]string{"heap"}, "print heap objects", (*Scrubber).heap},
		{[]string{"stack"}, "print the call stack", (*Scrubber).stack},
		{[]string{"list", "l"}, "print source around the current line", (*Scrubber).list},
		{[]string{"dom"}, "print DOM elements as of the current step", (*Scrubber).dom},
		{[]string{"help", "?"}, "print this message", (*Scrubber).help},
		{[]string{"quit", "q", "exit"}, "leave the scrubber", func(*Scrubber, []string) error { return ErrQuit }},
	}
}

func lookupCommand(name string) *command {
	for _, cmd := range commands {
		for _, n := range cmd.names {
			if n == name {
				return cmd
			}
		}
	}
	return nil
}

// Scrubber executes scrubber commands against a timeline.
type Scrubber struct {
	tl     *js.Timeline
	cursor *timeline.Cursor
	out    io.Writer
	text   *render.TextRenderer
	source []string
}

// New returns a Scrubber positioned at the first step of tl that writes to
// out.
func New(tl *js.Timeline, out io.Writer) *Scrubber {
	return &Scrubber{
		tl:     tl,
		cursor: timeline.NewCursor(tl),
		out:    out,
		text:   render.NewTextRenderer(),
		source: strings.Split(strings.TrimSuffix(tl.Source, "\n"), "\n"),
	}
}

// Cursor returns the scrubber's position in the timeline.
func (s *Scrubber) Cursor() *timeline.Cursor {
	return s.cursor
}

// Exec runs one command line.  Blank lines are ignored.  Exec returns
// ErrQuit for the quit command.
func (s *Scrubber) Exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd := lookupCommand(fields[0])
	if cmd == nil {
		return fmt.Errorf("unknown command %q (try help)", fields[0])
	}
	return cmd.run(s, fields[1:])
}

// Show prints the current step.
func (s *Scrubber) Show() error {
	step := s.cursor.Current()
	if step == nil {
		return s.printf("timeline is empty\n")
	}
	return s.text.Step(s.out, step)
}

func (s *Scrubber) printf(format string, v ...interface{}) error {
	_, err := fmt.Fprintf(s.out, format, v...)
	return err
}

func (s *Scrubber) moved(ok bool, stuck string) error {
	if !ok {
		return s.printf("%s\n", stuck)
	}
	return s.Show()
}

func (s *Scrubber) next(args []string) error {
	n := 1
	if len(args) > 0 {
		var err error
		n, err = strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid count: %s", args[0])
		}
	}
	ok := false
	for i := 0; i < n && s.cursor.Next(); i++ {
		ok = true
	}
	return s.moved(ok, "already at the last step")
}

func (s *Scrubber) prev([]string) error {
	return s.moved(s.cursor.Prev(), "already at the first step")
}

func (s *Scrubber) stepOver([]string) error {
	return s.moved(s.cursor.StepOver(), "already at the last step")
}

func (s *Scrubber) stepOut([]string) error {
	return s.moved(s.cursor.StepOut(), "already at the last step")
}

func (s *Scrubber) seek(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: goto N")
	}
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid step: %s", args[0])
	}
	if _, err := s.cursor.Seek(i); err != nil {
		return err
	}
	return s.Show()
}

func (s *Scrubber) cont([]string) error {
	return s.moved(s.cursor.Continue(), "already at the last step")
}

func (s *Scrubber) reverse([]string) error {
	return s.moved(s.cursor.ReverseContinue(), "already at the first step")
}

func (s *Scrubber) toggleBreak(args []string) error {
	bps := s.cursor.Breakpoints()
	if len(args) == 0 {
		all := bps.All()
		if len(all) == 0 {
			return s.printf("no breakpoints\n")
		}
		for _, bp := range all {
			if err := s.printf("breakpoint %d at line %d\n", bp.ID, bp.Line); err != nil {
				return err
			}
		}
		return nil
	}
	line, err := strconv.Atoi(args[0])
	if err != nil || line < 1 {
		return fmt.Errorf("invalid line: %s", args[0])
	}
	if !bps.Toggle(line) {
		return s.printf("removed breakpoint at line %d\n", line)
	}
	return s.printf("set breakpoint at line %d\n", line)
}

func (s *Scrubber) scope([]string) error {
	step := s.cursor.Current()
	if step == nil {
		return nil
	}
	for _, d := range step.Scope.Scopes {
		if err := s.printf("%s %s\n", d.ID, render.FormatScope(d)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scrubber) heap([]string) error {
	step := s.cursor.Current()
	if step == nil {
		return nil
	}
	if len(step.Memory.Heap) == 0 {
		return s.printf("heap is empty\n")
	}
	for _, obj := range step.Memory.Heap {
		if err := s.printf("%s\n", render.FormatObject(obj)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scrubber) stack([]string) error {
	step := s.cursor.Current()
	if step == nil {
		return nil
	}
	frames := step.Memory.Stack
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		var err error
		if f.ReturnAddress > 0 {
			err = s.printf("#%d %s (%s) called from line %d\n", len(frames)-1-i, f.Name, f.ScopeID, f.ReturnAddress)
		} else {
			err = s.printf("#%d %s (%s)\n", len(frames)-1-i, f.Name, f.ScopeID)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Scrubber) list([]string) error {
	step := s.cursor.Current()
	if step == nil || s.tl.Source == "" {
		return s.printf("no source\n")
	}
	lo := step.Line - listContext
	if lo < 1 {
		lo = 1
	}
	hi := step.Line + listContext
	if hi > len(s.source) {
		hi = len(s.source)
	}
	width := len(strconv.Itoa(hi))
	for n := lo; n <= hi; n++ {
		mark := "  "
		if n == step.Line {
			mark = "=>"
		}
		bp := " "
		if s.cursor.Breakpoints().Match(n) != nil {
			bp = "*"
		}
		if err := s.printf("%s%s%*d | %s\n", mark, bp, width, n, s.source[n-1]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scrubber) dom([]string) error {
	var ops []dom.Operation
	for i := 0; i <= s.cursor.Index() && i < s.cursor.Len(); i++ {
		if op := s.cursor.Step(i).DOM; op != nil {
			ops = append(ops, *op)
		}
	}
	if len(ops) == 0 {
		return s.printf("no DOM operations yet\n")
	}
	return s.text.Elements(s.out, dom.Apply(ops))
}

func (s *Scrubber) help([]string) error {
	for _, cmd := range commands {
		if err := s.printf("  %-14s %s\n", strings.Join(cmd.names, ", "), cmd.usage); err != nil {
			return err
		}
	}
	return nil
}

// commandNames returns every command name and alias, sorted.
func commandNames() []string {
	var names []string
	for _, cmd := range commands {
		names = append(names, cmd.names...)
	}
	sort.Strings(names)
	return names
}
