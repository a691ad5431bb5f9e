// Copyright © 2024 The ELPS authors

// Package dapserver implements a DAP (Debug Adapter Protocol) server that
// replays a recorded timeline.  Because every step of the timeline is
// already recorded the server can step and continue in both directions, so
// it advertises stepBack and reverseContinue support to the client.
//
// The server supports two transport modes:
//   - TCP: The server listens on a TCP port and accepts a single client
//     connection.
//   - Stdio: For CLI use (e.g., "jsviz debug --stdio").  The server reads
//     from stdin and writes to stdout, as expected by editors like VS Code
//     when launching a debug adapter as a child process.
package dapserver

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/go-dap"
	"github.com/luthersystems/jsviz/js"
	"github.com/luthersystems/jsviz/timeline"
)

// Server is a DAP protocol server replaying a timeline.
type Server struct {
	tl         *js.Timeline
	cursor     *timeline.Cursor
	logger     *log.Logger
	sourcePath string

	mu     sync.Mutex
	seq    int
	writer io.Writer

	// done is closed when the server should stop processing messages.
	done chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger makes the server log protocol problems to logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSourcePath sets the path reported to the client for the timeline's
// source file.  By default the timeline name is used.
func WithSourcePath(path string) Option {
	return func(s *Server) {
		s.sourcePath = path
	}
}

// New creates a new DAP server replaying tl.
func New(tl *js.Timeline, opts ...Option) *Server {
	s := &Server{
		tl:         tl,
		cursor:     timeline.NewCursor(tl),
		sourcePath: tl.Name,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// Cursor returns the cursor the server moves through the timeline.
func (s *Server) Cursor() *timeline.Cursor {
	return s.cursor
}

// ServeConn serves DAP messages on a single connection.  It blocks until
// the connection is closed or a disconnect request is received.
func (s *Server) ServeConn(conn io.ReadWriteCloser) error {
	defer conn.Close() //nolint:errcheck // best-effort cleanup
	return s.serve(conn, conn)
}

// ServeTCP listens on the given address and serves a single DAP client.
// It blocks until the client disconnects.
func (s *Server) ServeTCP(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close() //nolint:errcheck // best-effort cleanup
	s.logger.Info("DAP server listening", "addr", ln.Addr().String())
	return s.ServeListener(ln)
}

// ServeListener accepts a single connection from the listener and serves
// DAP messages on it.
func (s *Server) ServeListener(ln net.Listener) error {
	conn, err := ln.Accept()
	if err != nil {
		return err
	}
	return s.ServeConn(conn)
}

// ServeStdio serves DAP messages on the given reader and writer,
// typically os.Stdin and os.Stdout.
func (s *Server) ServeStdio(r io.Reader, w io.Writer) error {
	return s.serve(r, w)
}

func (s *Server) serve(r io.Reader, w io.Writer) error {
	s.mu.Lock()
	s.writer = w
	s.mu.Unlock()
	reader := bufio.NewReader(r)
	handler := newHandler(s)

	for {
		select {
		case <-s.done:
			return nil
		default:
		}

		msg, err := dap.ReadProtocolMessage(reader)
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
		}

		handler.handle(msg)
	}
}

// send writes a DAP protocol message to the client.
func (s *Server) send(msg dap.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return dap.WriteProtocolMessage(s.writer, msg)
}

// nextSeq returns the next sequence number for outgoing messages.
func (s *Server) nextSeq() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// close signals the server to stop processing messages.
func (s *Server) close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}
