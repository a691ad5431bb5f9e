// Copyright © 2024 The ELPS authors

package dapserver

import (
	"bufio"
	"encoding/json"
	"io"
	"net"
	"testing"
	"time"

	"github.com/google/go-dap"
	"github.com/luthersystems/jsviz/js"
	"github.com/luthersystems/jsviz/jstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProgram = `function sq(x) {
  let y = x * x;
  return y;
}
let a = sq(2);
let b = [a, 1];
`

func sendDAPRequest(t *testing.T, w io.Writer, msg dap.Message) {
	t.Helper()
	err := dap.WriteProtocolMessage(w, msg)
	require.NoError(t, err)
}

func readDAPMessage(t *testing.T, r *bufio.Reader) dap.Message {
	t.Helper()
	done := make(chan dap.Message, 1)
	errCh := make(chan error, 1)
	go func() {
		msg, err := dap.ReadProtocolMessage(r)
		if err != nil {
			errCh <- err
			return
		}
		done <- msg
	}()
	select {
	case msg := <-done:
		return msg
	case err := <-errCh:
		t.Fatalf("error reading DAP message: %v", err)
		return nil
	case <-time.After(5 * time.Second):
		t.Fatal("timeout reading DAP message")
		return nil
	}
}

// dapTestSession reduces boilerplate for DAP protocol tests.
type dapTestSession struct {
	t      *testing.T
	server *Server
	client net.Conn
	reader *bufio.Reader
	seq    int
}

func setupDAPSession(t *testing.T, tl *js.Timeline) *dapTestSession {
	t.Helper()
	srv := New(tl, WithLogger(jstest.NewCharmLogger(t)), WithSourcePath("/src/test.js"))

	client, server := net.Pipe()
	t.Cleanup(func() { client.Close() }) //nolint:errcheck,gosec

	go func() {
		_ = srv.ServeConn(server)
	}()

	s := &dapTestSession{
		t:      t,
		server: srv,
		client: client,
		reader: bufio.NewReader(client),
	}
	s.send(&dap.InitializeRequest{
		Request: s.request("initialize"),
		Arguments: dap.InitializeRequestArguments{
			AdapterID:     "jsviz",
			LinesStartAt1: true,
		},
	})
	resp, ok := s.read().(*dap.InitializeResponse)
	require.True(t, ok, "expected InitializeResponse")
	assert.True(t, resp.Body.SupportsStepBack)
	_, ok = s.read().(*dap.InitializedEvent)
	require.True(t, ok, "expected InitializedEvent")
	return s
}

func (s *dapTestSession) request(command string) dap.Request {
	s.seq++
	return dap.Request{
		ProtocolMessage: dap.ProtocolMessage{Seq: s.seq, Type: "request"},
		Command:         command,
	}
}

func (s *dapTestSession) send(msg dap.Message) {
	sendDAPRequest(s.t, s.client, msg)
}

func (s *dapTestSession) read() dap.Message {
	return readDAPMessage(s.t, s.reader)
}

func (s *dapTestSession) stopped() *dap.StoppedEvent {
	s.t.Helper()
	msg := s.read()
	evt, ok := msg.(*dap.StoppedEvent)
	require.True(s.t, ok, "expected StoppedEvent, got %T", msg)
	return evt
}

func (s *dapTestSession) configDone() *dap.StoppedEvent {
	s.send(&dap.ConfigurationDoneRequest{Request: s.request("configurationDone")})
	_, ok := s.read().(*dap.ConfigurationDoneResponse)
	require.True(s.t, ok, "expected ConfigurationDoneResponse")
	return s.stopped()
}

func (s *dapTestSession) setBreakpoints(lines ...int) *dap.SetBreakpointsResponse {
	bps := make([]dap.SourceBreakpoint, len(lines))
	for i, line := range lines {
		bps[i] = dap.SourceBreakpoint{Line: line}
	}
	s.send(&dap.SetBreakpointsRequest{
		Request: s.request("setBreakpoints"),
		Arguments: dap.SetBreakpointsArguments{
			Source:      dap.Source{Path: "/src/test.js"},
			Breakpoints: bps,
		},
	})
	msg := s.read()
	resp, ok := msg.(*dap.SetBreakpointsResponse)
	require.True(s.t, ok, "expected SetBreakpointsResponse, got %T", msg)
	return resp
}

func (s *dapTestSession) evaluate(expr string) dap.Message {
	s.send(&dap.EvaluateRequest{
		Request:   s.request("evaluate"),
		Arguments: dap.EvaluateArguments{Expression: expr},
	})
	return s.read()
}

func (s *dapTestSession) disconnect() {
	s.send(&dap.DisconnectRequest{Request: s.request("disconnect")})
	_, ok := s.read().(*dap.DisconnectResponse)
	assert.True(s.t, ok, "expected DisconnectResponse")
	_, ok = s.read().(*dap.TerminatedEvent)
	assert.True(s.t, ok, "expected TerminatedEvent")
}

func TestDAPServer_InitializeAndDisconnect(t *testing.T) {
	t.Parallel()
	s := setupDAPSession(t, jstest.Run(t, testProgram))
	s.disconnect()
}

func TestDAPServer_Breakpoints(t *testing.T) {
	t.Parallel()
	s := setupDAPSession(t, jstest.Run(t, testProgram))

	resp := s.setBreakpoints(2, 9)
	require.Len(t, resp.Body.Breakpoints, 2)
	assert.True(t, resp.Body.Breakpoints[0].Verified)
	assert.Equal(t, 2, resp.Body.Breakpoints[0].Line)
	assert.False(t, resp.Body.Breakpoints[1].Verified)
	assert.NotEmpty(t, resp.Body.Breakpoints[1].Message)

	evt := s.configDone()
	assert.Equal(t, "entry", evt.Body.Reason)
	assert.Equal(t, "Start execution", evt.Body.Description)

	s.send(&dap.ContinueRequest{Request: s.request("continue"), Arguments: dap.ContinueArguments{ThreadId: threadID}})
	_, ok := s.read().(*dap.ContinueResponse)
	require.True(t, ok)
	evt = s.stopped()
	assert.Equal(t, "breakpoint", evt.Body.Reason)
	assert.Equal(t, []int{resp.Body.Breakpoints[0].Id}, evt.Body.HitBreakpointIds)
	assert.Equal(t, "Declare let y = 4", evt.Body.Description)

	s.send(&dap.ReverseContinueRequest{Request: s.request("reverseContinue")})
	_, ok = s.read().(*dap.ReverseContinueResponse)
	require.True(t, ok)
	evt = s.stopped()
	assert.Equal(t, "step", evt.Body.Reason)
	assert.Equal(t, 0, s.server.Cursor().Index())

	s.disconnect()
}

func TestDAPServer_StackScopesVariables(t *testing.T) {
	t.Parallel()
	s := setupDAPSession(t, jstest.Run(t, testProgram))
	s.setBreakpoints(2)
	s.configDone()
	s.send(&dap.ContinueRequest{Request: s.request("continue")})
	s.read()
	s.stopped()

	s.send(&dap.StackTraceRequest{Request: s.request("stackTrace")})
	msg := s.read()
	st, ok := msg.(*dap.StackTraceResponse)
	require.True(t, ok, "expected StackTraceResponse, got %T", msg)
	require.Len(t, st.Body.StackFrames, 2)
	top := st.Body.StackFrames[0]
	assert.Equal(t, "sq", top.Name)
	assert.Equal(t, 2, top.Line)
	assert.Equal(t, 3, top.Column)
	assert.Equal(t, "test.js", top.Source.Name)
	assert.Equal(t, "global", st.Body.StackFrames[1].Name)
	assert.Equal(t, 5, st.Body.StackFrames[1].Line)

	s.send(&dap.ScopesRequest{Request: s.request("scopes"), Arguments: dap.ScopesArguments{FrameId: top.Id}})
	sc, ok := s.read().(*dap.ScopesResponse)
	require.True(t, ok)
	require.Len(t, sc.Body.Scopes, 2)
	assert.Equal(t, "Local: sq", sc.Body.Scopes[0].Name)
	assert.Equal(t, "Global", sc.Body.Scopes[1].Name)

	s.send(&dap.VariablesRequest{
		Request:   s.request("variables"),
		Arguments: dap.VariablesArguments{VariablesReference: sc.Body.Scopes[0].VariablesReference},
	})
	vars, ok := s.read().(*dap.VariablesResponse)
	require.True(t, ok)
	require.Len(t, vars.Body.Variables, 2)
	assert.Equal(t, "x", vars.Body.Variables[0].Name)
	assert.Equal(t, "2", vars.Body.Variables[0].Value)
	assert.Equal(t, "number", vars.Body.Variables[0].Type)
	assert.Equal(t, "y", vars.Body.Variables[1].Name)
	assert.Equal(t, "4", vars.Body.Variables[1].Value)

	s.send(&dap.VariablesRequest{
		Request:   s.request("variables"),
		Arguments: dap.VariablesArguments{VariablesReference: sc.Body.Scopes[1].VariablesReference},
	})
	vars, ok = s.read().(*dap.VariablesResponse)
	require.True(t, ok)
	byName := make(map[string]dap.Variable)
	for _, v := range vars.Body.Variables {
		byName[v.Name] = v
	}
	assert.Equal(t, "function sq(x)", byName["sq"].Value)
	assert.Equal(t, "<uninitialized>", byName["a"].Value)

	eval, ok := s.evaluate("y").(*dap.EvaluateResponse)
	require.True(t, ok)
	assert.Equal(t, "4", eval.Body.Result)

	s.disconnect()
}

func TestDAPServer_Stepping(t *testing.T) {
	t.Parallel()
	s := setupDAPSession(t, jstest.Run(t, testProgram))
	s.configDone()

	step := func(req dap.Message) *dap.StoppedEvent {
		s.send(req)
		s.read()
		return s.stopped()
	}
	evt := step(&dap.StepInRequest{Request: s.request("stepIn")})
	assert.Equal(t, "Declare function sq", evt.Body.Description)
	evt = step(&dap.NextRequest{Request: s.request("next")})
	assert.Equal(t, "Return 4 from sq", evt.Body.Description)
	evt = step(&dap.StepBackRequest{Request: s.request("stepBack")})
	assert.Equal(t, "Declare function sq", evt.Body.Description)
	evt = step(&dap.StepInRequest{Request: s.request("stepIn")})
	assert.Equal(t, "Call sq(2)", evt.Body.Description)
	evt = step(&dap.StepOutRequest{Request: s.request("stepOut")})
	assert.Equal(t, "Return 4 from sq", evt.Body.Description)
	evt = step(&dap.RestartRequest{Request: s.request("restart")})
	assert.Equal(t, "entry", evt.Body.Reason)
	assert.Equal(t, "Start execution", evt.Body.Description)

	s.disconnect()
}

func TestDAPServer_EndOfTimeline(t *testing.T) {
	t.Parallel()
	s := setupDAPSession(t, jstest.Run(t, testProgram))
	s.configDone()

	s.send(&dap.ContinueRequest{Request: s.request("continue")})
	_, ok := s.read().(*dap.ContinueResponse)
	require.True(t, ok)
	out, ok := s.read().(*dap.OutputEvent)
	require.True(t, ok, "expected OutputEvent")
	assert.Equal(t, "console", out.Body.Category)
	evt := s.stopped()
	assert.Equal(t, "End execution", evt.Body.Description)

	eval, ok := s.evaluate("b").(*dap.EvaluateResponse)
	require.True(t, ok)
	assert.Equal(t, "Array(2) [4, 1]", eval.Body.Result)
	assert.Equal(t, "array", eval.Body.Type)
	require.NotZero(t, eval.Body.VariablesReference)

	s.send(&dap.VariablesRequest{
		Request:   s.request("variables"),
		Arguments: dap.VariablesArguments{VariablesReference: eval.Body.VariablesReference},
	})
	vars, ok := s.read().(*dap.VariablesResponse)
	require.True(t, ok)
	require.Len(t, vars.Body.Variables, 3)
	assert.Equal(t, "[0]", vars.Body.Variables[0].Name)
	assert.Equal(t, "4", vars.Body.Variables[0].Value)
	assert.Equal(t, "length", vars.Body.Variables[2].Name)

	for expr, expect := range map[string]string{"b[0]": "4", "b.length": "2", "b['1']": "1"} {
		eval, ok := s.evaluate(expr).(*dap.EvaluateResponse)
		require.True(t, ok, expr)
		assert.Equal(t, expect, eval.Body.Result, expr)
	}
	errResp, ok := s.evaluate("nope").(*dap.ErrorResponse)
	require.True(t, ok, "expected ErrorResponse")
	assert.False(t, errResp.Success)
	assert.Equal(t, "nope is not defined", errResp.Message)

	s.disconnect()
}

func TestDAPServer_LaunchNoStopOnEntry(t *testing.T) {
	t.Parallel()
	s := setupDAPSession(t, jstest.Run(t, testProgram))
	args, err := json.Marshal(map[string]interface{}{"stopOnEntry": false})
	require.NoError(t, err)
	s.send(&dap.LaunchRequest{Request: s.request("launch"), Arguments: args})
	_, ok := s.read().(*dap.LaunchResponse)
	require.True(t, ok)
	s.setBreakpoints(5)

	evt := s.configDone()
	assert.Equal(t, "breakpoint", evt.Body.Reason)
	assert.Equal(t, "Call sq(2)", evt.Body.Description)
	s.disconnect()
}

func TestDAPServer_FailedTimeline(t *testing.T) {
	t.Parallel()
	tl := jstest.NewInterpreter(t).Run("test.js", "let x = ;")
	require.True(t, tl.Failed())
	s := setupDAPSession(t, tl)

	evt := s.configDone()
	assert.Equal(t, "exception", evt.Body.Reason)
	assert.NotEmpty(t, evt.Body.Text)

	s.send(&dap.StackTraceRequest{Request: s.request("stackTrace")})
	st, ok := s.read().(*dap.StackTraceResponse)
	require.True(t, ok)
	assert.Empty(t, st.Body.StackFrames)
	s.disconnect()
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"a"}, splitPath(" a "))
	assert.Equal(t, []string{"a", "b", "0"}, splitPath("a.b[0]"))
	assert.Equal(t, []string{"a", "key"}, splitPath(`a["key"]`))
	assert.Empty(t, splitPath(""))
}
