// Copyright © 2024 The ELPS authors

package js

// Interface for a profiler
type Profiler interface {
	// Is the profiler enabled?
	IsEnabled() bool
	// Enable the profiler
	Enable() error
	// End the profiling session
	Complete() error
	// Marks the start of a function call.  The returned function marks its
	// end.
	Start(call *CallInfo) func()
}

// CallInfo describes a function call for a Profiler.
type CallInfo struct {
	Name   string
	Params []string
	File   string
	// Line and Column locate the call site.
	Line   int
	Column int
	// Depth is the number of frames on the stack once the call's frame is
	// pushed, including the global frame.
	Depth int
}
