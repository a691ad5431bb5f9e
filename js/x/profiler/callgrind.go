// Copyright © 2024 The ELPS authors

package profiler

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/luthersystems/jsviz/js"
)

// errWriter wraps an io.Writer and captures the first write error,
// short-circuiting subsequent writes after a failure.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = io.WriteString(ew.w, s)
}

// A profiler implementation that builds Callgrind files.  The resulting
// files can be opened in KCacheGrind or QCacheGrind.
type callgrindProfiler struct {
	profiler
	sync.Mutex
	writer     io.Writer
	writeErr   error
	startTime  time.Time
	refs       map[string]int
	refCounter int
	current    *callRef
}

var _ js.Profiler = &callgrindProfiler{}

// NewCallgrindProfiler returns a profiler writing a callgrind profile to w.
// If w is an io.Closer it is closed by Complete.
func NewCallgrindProfiler(w io.Writer, opts ...Option) *callgrindProfiler {
	p := &callgrindProfiler{writer: w}
	p.applyConfigs(opts...)
	return p
}

// Represents something that got called
type callRef struct {
	start       time.Time
	prev        *callRef
	name        string
	children    []*callRef
	duration    time.Duration
	startMemory uint64
	file        string
	line        int
}

func (p *callgrindProfiler) Enable() error {
	p.Lock()
	if p.writer == nil {
		p.Unlock()
		return errors.New("no output set in profiler")
	}
	w := &errWriter{w: p.writer}
	w.printf("version: 1\ncreator: jsviz (Go %s)\n", runtime.Version())
	w.print("cmd: Run\npart: 1\npositions: line\n\n")
	w.print("events: Time_(ns) Memory_(bytes)\n\n")
	if w.err != nil {
		p.Unlock()
		return w.err
	}
	p.startTime = time.Now()
	p.refs = make(map[string]int)
	p.refCounter = 0
	p.current = nil
	p.Unlock()
	p.pushCallRef("ENTRYPOINT", "-", 0)
	return p.profiler.Enable()
}

func (p *callgrindProfiler) Complete() error {
	p.Lock()
	defer p.Unlock()
	ref := p.popCallRef()
	if p.writeErr != nil {
		return p.writeErr
	}
	if ref == nil {
		return errors.New("profiler not enabled")
	}
	ref.duration = time.Since(ref.start)
	w := &errWriter{w: p.writer}
	w.printf("fl=%s\n", p.getRef(ref.file))
	w.printf("fn=%s\n", p.getRef(ref.name))
	w.printf("%d %d %d\n", 0, ref.duration, 0)
	p.writeChildren(w, ref, 0)
	w.print("\n")
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	w.printf("summary %d %d\n\n", time.Since(p.startTime).Nanoseconds(), ms.TotalAlloc)
	if w.err != nil {
		return w.err
	}
	if c, ok := p.writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *callgrindProfiler) getRef(name string) string {
	if ref, ok := p.refs[name]; ok {
		return fmt.Sprintf("(%d)", ref)
	}
	p.refCounter++
	p.refs[name] = p.refCounter
	return fmt.Sprintf("(%d) %s", p.refCounter, name)
}

func (p *callgrindProfiler) Start(call *js.CallInfo) func() {
	if p.skipTrace(call) {
		return func() {}
	}
	prettyLabel, _ := p.prettyFunName(call)
	p.Lock()
	p.pushCallRef(prettyLabel, call.File, call.Line)
	p.Unlock()
	return func() {
		p.end(call)
	}
}

// pushCallRef must be called with p locked, except from Enable.
func (p *callgrindProfiler) pushCallRef(name string, file string, line int) {
	ref := &callRef{
		name: name,
		file: file,
		line: line,
		prev: p.current,
	}
	if p.current != nil {
		p.current.children = append(p.current.children, ref)
	}
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	ref.startMemory = ms.TotalAlloc
	ref.start = time.Now()
	p.current = ref
}

func (p *callgrindProfiler) popCallRef() *callRef {
	ref := p.current
	if ref != nil {
		p.current = ref.prev
	}
	return ref
}

func (p *callgrindProfiler) writeChildren(w *errWriter, ref *callRef, memory uint64) {
	for _, entry := range ref.children {
		w.printf("cfl=%s\n", p.getRef(entry.file))
		w.printf("cfn=%s\n", p.getRef(entry.name))
		w.print("calls=1 0 0\n")
		w.printf("%d %d %d\n", entry.line, entry.duration, memory)
	}
}

func (p *callgrindProfiler) end(call *js.CallInfo) {
	p.Lock()
	defer p.Unlock()
	ref := p.popCallRef()
	if p.writeErr != nil || ref == nil {
		return
	}
	ref.duration = time.Since(ref.start)
	if ref.duration == 0 {
		ref.duration = 1
	}
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	memory := ms.TotalAlloc - ref.startMemory

	w := &errWriter{w: p.writer}
	w.printf("fl=%s\n", p.getRef(ref.file))
	w.printf("fn=%s\n", p.getRef(ref.name))
	w.printf("%d %d %d\n", call.Line, ref.duration, memory)
	p.writeChildren(w, ref, memory)
	w.print("\n")
	if w.err != nil {
		p.writeErr = w.err
	}
}
