// Copyright © 2024 The ELPS authors

package jstest

import (
	"bytes"
	"io"
	"testing"

	"github.com/charmbracelet/log"
)

// Logger is an io.Writer that forwards complete lines to a test log.
type Logger struct {
	t   testing.TB
	buf []byte
}

var _ io.Writer = (*Logger)(nil)

func NewLogger(t testing.TB) *Logger {
	return &Logger{
		t: t,
	}
}

func (log *Logger) Write(b []byte) (int, error) {
	log.buf = append(log.buf, b...)
	for {
		i := bytes.IndexByte(log.buf, '\n')
		if i < 0 {
			return len(b), nil
		}
		log.t.Log(string(log.buf[:i]))
		log.buf = log.buf[i+1:]
	}
}

func (log *Logger) Flush() {
	if len(log.buf) == 0 {
		return
	}
	log.t.Log(string(log.buf))
	log.buf = nil
}

// NewCharmLogger returns a structured logger writing to the log of t.
func NewCharmLogger(t testing.TB) *log.Logger {
	return log.NewWithOptions(NewLogger(t), log.Options{
		Level:  log.DebugLevel,
		Prefix: t.Name(),
	})
}
