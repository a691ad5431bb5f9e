// Copyright © 2024 The ELPS authors

package dapserver

import (
	"encoding/json"
	"sync"

	"github.com/google/go-dap"
	"github.com/luthersystems/jsviz/js"
)

// Stop reasons reported in stopped events.
const (
	reasonEntry      = "entry"
	reasonStep       = "step"
	reasonBreakpoint = "breakpoint"
	reasonPause      = "pause"
	reasonException  = "exception"
)

// launchArguments are the launch request arguments the server understands.
type launchArguments struct {
	StopOnEntry *bool `json:"stopOnEntry"`
}

// handler dispatches incoming DAP messages to the appropriate method.
type handler struct {
	server *Server

	mu          sync.Mutex
	initialized bool
	launched    bool
	stopOnEntry bool

	// refs holds the variable containers handed to the client since the
	// last stop.  A variables reference is an index into refs plus one.
	refs []container
}

// container is something the client can expand into variables.
type container struct {
	vars   []js.Variable
	object *js.ObjectData
}

func newHandler(s *Server) *handler {
	return &handler{
		server:      s,
		stopOnEntry: true,
	}
}

// send sends a DAP message and logs any write error.
func (h *handler) send(msg dap.Message) {
	if err := h.server.send(msg); err != nil {
		h.server.logger.Error("dap: send failed", "err", err)
	}
}

func (h *handler) handle(msg dap.Message) {
	switch req := msg.(type) {
	case *dap.InitializeRequest:
		h.onInitialize(req)
	case *dap.LaunchRequest:
		h.onLaunch(req)
	case *dap.AttachRequest:
		h.onAttach(req)
	case *dap.SetBreakpointsRequest:
		h.onSetBreakpoints(req)
	case *dap.SetExceptionBreakpointsRequest:
		h.onSetExceptionBreakpoints(req)
	case *dap.ConfigurationDoneRequest:
		h.onConfigurationDone(req)
	case *dap.ThreadsRequest:
		h.onThreads(req)
	case *dap.StackTraceRequest:
		h.onStackTrace(req)
	case *dap.ScopesRequest:
		h.onScopes(req)
	case *dap.VariablesRequest:
		h.onVariables(req)
	case *dap.ContinueRequest:
		h.onContinue(req)
	case *dap.ReverseContinueRequest:
		h.onReverseContinue(req)
	case *dap.NextRequest:
		h.onNext(req)
	case *dap.StepInRequest:
		h.onStepIn(req)
	case *dap.StepOutRequest:
		h.onStepOut(req)
	case *dap.StepBackRequest:
		h.onStepBack(req)
	case *dap.PauseRequest:
		h.onPause(req)
	case *dap.RestartRequest:
		h.onRestart(req)
	case *dap.EvaluateRequest:
		h.onEvaluate(req)
	case *dap.TerminateRequest:
		h.onTerminate(req)
	case *dap.DisconnectRequest:
		h.onDisconnect(req)
	default:
		h.server.logger.Warn("dap: unhandled message", "type", typeName(msg))
		if r, ok := msg.(dap.RequestMessage); ok {
			req := r.GetRequest()
			h.sendError(req.Seq, req.Command, "unsupported request")
		}
	}
}

func (h *handler) onInitialize(req *dap.InitializeRequest) {
	h.mu.Lock()
	h.initialized = true
	h.mu.Unlock()

	resp := &dap.InitializeResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	resp.Body = dap.Capabilities{
		SupportsConfigurationDoneRequest: true,
		SupportsEvaluateForHovers:        true,
		SupportsStepBack:                 true,
		SupportsRestartRequest:           true,
		SupportsTerminateRequest:         true,
		SupportTerminateDebuggee:         true,
	}
	h.send(resp)

	// Send initialized event to tell the client it can send configuration.
	h.send(&dap.InitializedEvent{
		Event: h.newEvent("initialized"),
	})
}

func (h *handler) onLaunch(req *dap.LaunchRequest) {
	var args launchArguments
	if len(req.Arguments) > 0 {
		if err := json.Unmarshal(req.Arguments, &args); err != nil {
			h.sendError(req.Seq, req.Command, "invalid launch arguments: "+err.Error())
			return
		}
	}
	h.mu.Lock()
	if args.StopOnEntry != nil {
		h.stopOnEntry = *args.StopOnEntry
	}
	h.mu.Unlock()

	resp := &dap.LaunchResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	h.send(resp)
}

func (h *handler) onAttach(req *dap.AttachRequest) {
	resp := &dap.AttachResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	h.send(resp)
}

func (h *handler) onSetBreakpoints(req *dap.SetBreakpointsRequest) {
	lines := make([]int, len(req.Arguments.Breakpoints))
	for i, bp := range req.Arguments.Breakpoints {
		lines[i] = bp.Line
	}
	bps := h.server.cursor.SetBreakpoints(lines)

	resp := &dap.SetBreakpointsResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	resp.Body.Breakpoints = translateBreakpoints(bps, h.server.tl.Steps, h.source())
	h.send(resp)
}

func (h *handler) onSetExceptionBreakpoints(req *dap.SetExceptionBreakpointsRequest) {
	resp := &dap.SetExceptionBreakpointsResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	h.send(resp)
}

func (h *handler) onConfigurationDone(req *dap.ConfigurationDoneRequest) {
	resp := &dap.ConfigurationDoneResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	h.send(resp)

	h.mu.Lock()
	h.launched = true
	stopOnEntry := h.stopOnEntry
	h.mu.Unlock()

	h.server.cursor.Reset()
	if stopOnEntry {
		h.stopped(reasonEntry)
		return
	}
	h.server.cursor.Continue()
	h.stopped(reasonBreakpoint)
}

func (h *handler) onThreads(req *dap.ThreadsRequest) {
	resp := &dap.ThreadsResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	resp.Body.Threads = []dap.Thread{
		{Id: threadID, Name: "main"},
	}
	h.send(resp)
}

func (h *handler) onStackTrace(req *dap.StackTraceRequest) {
	resp := &dap.StackTraceResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)

	step := h.server.cursor.Current()
	if step == nil {
		h.send(resp)
		return
	}

	frames := translateStackFrames(step, h.source())
	resp.Body.TotalFrames = len(frames)

	// Apply paging.
	start := req.Arguments.StartFrame
	if start > len(frames) {
		start = len(frames)
	}
	end := len(frames)
	if req.Arguments.Levels > 0 && start+req.Arguments.Levels < end {
		end = start + req.Arguments.Levels
	}
	resp.Body.StackFrames = frames[start:end]
	h.send(resp)
}

func (h *handler) onScopes(req *dap.ScopesRequest) {
	resp := &dap.ScopesResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)

	step := h.server.cursor.Current()
	if step == nil {
		h.send(resp)
		return
	}
	frameID := req.Arguments.FrameId
	if frameID == len(step.Memory.Stack) {
		for _, d := range step.Scope.Scopes {
			resp.Body.Scopes = append(resp.Body.Scopes, dap.Scope{
				Name:               scopeName(d),
				PresentationHint:   scopeHint(d),
				VariablesReference: h.allocRef(container{vars: d.Variables}),
				NamedVariables:     len(d.Variables),
				Expensive:          false,
			})
		}
	} else if frame := frameByID(step, frameID); frame != nil {
		resp.Body.Scopes = []dap.Scope{{
			Name:               "Locals",
			PresentationHint:   "locals",
			VariablesReference: h.allocRef(container{vars: frame.Variables}),
			NamedVariables:     len(frame.Variables),
		}}
	}
	h.send(resp)
}

func (h *handler) onVariables(req *dap.VariablesRequest) {
	resp := &dap.VariablesResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)

	step := h.server.cursor.Current()
	c, ok := h.getRef(req.Arguments.VariablesReference)
	if !ok || step == nil {
		resp.Body.Variables = []dap.Variable{}
		h.send(resp)
		return
	}
	alloc := h.valueRefAllocator(step)
	if c.object != nil {
		resp.Body.Variables = expandObject(c.object, &step.Memory, alloc)
	} else {
		resp.Body.Variables = translateVariables(c.vars, &step.Memory, alloc)
	}
	h.send(resp)
}

func (h *handler) onContinue(req *dap.ContinueRequest) {
	resp := &dap.ContinueResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	resp.Body.AllThreadsContinued = true
	h.send(resp)
	h.server.cursor.Continue()
	h.stopped(reasonBreakpoint)
}

func (h *handler) onReverseContinue(req *dap.ReverseContinueRequest) {
	resp := &dap.ReverseContinueResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	h.send(resp)
	h.server.cursor.ReverseContinue()
	h.stopped(reasonBreakpoint)
}

func (h *handler) onNext(req *dap.NextRequest) {
	resp := &dap.NextResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	h.send(resp)
	h.server.cursor.StepOver()
	h.stopped(reasonStep)
}

func (h *handler) onStepIn(req *dap.StepInRequest) {
	resp := &dap.StepInResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	h.send(resp)
	h.server.cursor.Next()
	h.stopped(reasonStep)
}

func (h *handler) onStepOut(req *dap.StepOutRequest) {
	resp := &dap.StepOutResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	h.send(resp)
	h.server.cursor.StepOut()
	h.stopped(reasonStep)
}

func (h *handler) onStepBack(req *dap.StepBackRequest) {
	resp := &dap.StepBackResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	h.send(resp)
	h.server.cursor.StepBack()
	h.stopped(reasonStep)
}

func (h *handler) onPause(req *dap.PauseRequest) {
	resp := &dap.PauseResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	h.send(resp)
	h.stopped(reasonPause)
}

func (h *handler) onRestart(req *dap.RestartRequest) {
	resp := &dap.RestartResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	h.send(resp)
	h.server.cursor.Reset()
	h.stopped(reasonEntry)
}

func (h *handler) onEvaluate(req *dap.EvaluateRequest) {
	step := h.server.cursor.Current()
	if step == nil {
		h.sendError(req.Seq, req.Command, "no step")
		return
	}
	v, err := evaluate(step, req.Arguments.FrameId, req.Arguments.Expression)
	if err != nil {
		h.sendError(req.Seq, req.Command, err.Error())
		return
	}
	resp := &dap.EvaluateResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	resp.Body.Result = formatValue(v, &step.Memory)
	resp.Body.Type = valueTypeName(v, &step.Memory)
	resp.Body.VariablesReference = h.valueRefAllocator(step)(v)
	h.send(resp)
}

func (h *handler) onTerminate(req *dap.TerminateRequest) {
	resp := &dap.TerminateResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	h.send(resp)
	h.send(&dap.TerminatedEvent{
		Event: h.newEvent("terminated"),
	})
}

func (h *handler) onDisconnect(req *dap.DisconnectRequest) {
	resp := &dap.DisconnectResponse{}
	resp.Response = h.newResponse(req.Seq, req.Command)
	h.send(resp)

	h.send(&dap.TerminatedEvent{
		Event: h.newEvent("terminated"),
	})
	h.server.close()
}

// stopped reports the cursor's position to the client.  The breakpoint
// reason is downgraded to step when the cursor is not on a breakpoint.
func (h *handler) stopped(reason string) {
	h.resetRefs()
	c := h.server.cursor
	step := c.Current()
	if step == nil {
		h.send(&dap.TerminatedEvent{Event: h.newEvent("terminated")})
		return
	}
	var bpIDs []int
	if reason == reasonBreakpoint {
		if bp := c.Breakpoints().Match(step.Line); bp != nil {
			bpIDs = []int{bp.ID}
		} else {
			reason = reasonStep
		}
	}
	text := ""
	if tl := h.server.tl; tl.Failed() && c.AtEnd() {
		reason = reasonException
		text = tl.Err.Error()
	}
	if reason == reasonStep && c.AtEnd() && len(bpIDs) == 0 {
		h.sendOutput("console", "Reached the end of the timeline\n")
	}

	evt := &dap.StoppedEvent{
		Event: h.newEvent("stopped"),
	}
	evt.Body.Reason = reason
	evt.Body.Description = step.Description
	evt.Body.Text = text
	evt.Body.ThreadId = threadID
	evt.Body.AllThreadsStopped = true
	if len(bpIDs) > 0 {
		evt.Body.HitBreakpointIds = bpIDs
	}
	h.send(evt)
}

func (h *handler) sendOutput(category string, output string) {
	evt := &dap.OutputEvent{
		Event: h.newEvent("output"),
	}
	evt.Body.Category = category
	evt.Body.Output = output
	h.send(evt)
}

// --- variable references ---

func (h *handler) resetRefs() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refs = nil
}

func (h *handler) allocRef(c container) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.refs = append(h.refs, c)
	return len(h.refs)
}

func (h *handler) getRef(ref int) (container, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ref <= 0 || ref > len(h.refs) {
		return container{}, false
	}
	return h.refs[ref-1], true
}

// valueRefAllocator returns a function giving expandable values of step a
// variables reference and every other value zero.
func (h *handler) valueRefAllocator(step *js.Step) func(js.Value) int {
	return func(v js.Value) int {
		if v.Kind != js.VReference {
			return 0
		}
		obj, ok := step.Memory.Object(v.Ref)
		if !ok || !expandable(obj) {
			return 0
		}
		return h.allocRef(container{object: obj})
	}
}

// --- helpers ---

func (h *handler) source() *dap.Source {
	return sourceFor(h.server.sourcePath)
}

func (h *handler) sendError(reqSeq int, command string, message string) {
	resp := &dap.ErrorResponse{}
	resp.Response = h.newResponse(reqSeq, command)
	resp.Success = false
	resp.Message = message
	h.send(resp)
}

func (h *handler) newResponse(reqSeq int, command string) dap.Response {
	return dap.Response{
		ProtocolMessage: dap.ProtocolMessage{Seq: h.server.nextSeq(), Type: "response"},
		RequestSeq:      reqSeq,
		Success:         true,
		Command:         command,
	}
}

func (h *handler) newEvent(event string) dap.Event {
	return dap.Event{
		ProtocolMessage: dap.ProtocolMessage{Seq: h.server.nextSeq(), Type: "event"},
		Event:           event,
	}
}
