// Copyright © 2024 The ELPS authors

package scrubber

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/luthersystems/jsviz/js"
)

// DefaultPrompt is the prompt used when Run is given an empty one.
const DefaultPrompt = "jsviz> "

type config struct {
	stdin       io.ReadCloser
	stdout      io.Writer
	historyFile string
}

func newConfig(opts ...Option) *config {
	config := &config{
		stdout:      os.Stdout,
		historyFile: historyPath(),
	}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// Option configures Run.
type Option func(*config)

// WithStdin allows overriding the input to the scrubber.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStdout allows overriding the output of the scrubber.
func WithStdout(stdout io.Writer) Option {
	return func(c *config) {
		c.stdout = stdout
	}
}

// WithHistoryFile sets the file command history is kept in.  An empty path
// disables history.
func WithHistoryFile(path string) Option {
	return func(c *config) {
		c.historyFile = path
	}
}

// Run reads commands for tl until the input ends or the user quits.
func Run(tl *js.Timeline, prompt string, opts ...Option) error {
	if prompt == "" {
		prompt = DefaultPrompt
	}
	cfg := newConfig(opts...)
	ensureHistoryFilePermissions(cfg.historyFile)

	rlCfg := &readline.Config{
		Stdout:            cfg.stdout,
		Stderr:            cfg.stdout,
		Prompt:            prompt,
		HistoryFile:       cfg.historyFile,
		HistorySearchFold: true,
		AutoComplete:      commandCompleter{},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return err
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	s := New(tl, cfg.stdout)
	fmt.Fprintf(cfg.stdout, "%s: %d steps (type help for commands)\n", tl.Name, len(tl.Steps)) //nolint:errcheck // best-effort banner
	if err := s.Show(); err != nil {
		return err
	}
	for {
		line, err := rl.ReadSlice()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			// io.EOF ends the session like quit
			return nil
		}
		err = s.Exec(string(bytes.TrimSpace(line)))
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(cfg.stdout, "error: %v\n", err) //nolint:errcheck // best-effort error display
		}
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".jsviz_history")
}

// ensureHistoryFilePermissions creates the history file if needed and
// restricts it to the current user.
func ensureHistoryFilePermissions(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0600) //nolint:gosec // path is the user's own history file
	if err != nil {
		return
	}
	_ = f.Close()
	_ = os.Chmod(path, 0600)
}

// commandCompleter implements readline.AutoCompleter over command names.
type commandCompleter struct{}

func (commandCompleter) Do(line []rune, pos int) ([][]rune, int) {
	prefix := string(line[:pos])
	if strings.ContainsAny(prefix, " \t") {
		return nil, 0
	}
	var result [][]rune
	for _, name := range commandNames() {
		if strings.HasPrefix(name, prefix) && name != prefix {
			result = append(result, []rune(name[len(prefix):]))
		}
	}
	if len(result) == 0 {
		return nil, 0
	}
	return result, len(prefix)
}
