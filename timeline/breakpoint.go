// Copyright © 2024 The ELPS authors

package timeline

import (
	"sort"
	"sync"
)

// Breakpoint is a source line where continuing through a timeline stops.
type Breakpoint struct {
	ID      int
	Line    int
	Enabled bool
}

// BreakpointStore manages line breakpoints.  All methods are safe for
// concurrent use so a DAP server goroutine may update breakpoints while a
// cursor is moved elsewhere.
type BreakpointStore struct {
	mu     sync.RWMutex
	byLine map[int]*Breakpoint
	nextID int
}

// NewBreakpointStore returns an empty breakpoint store.
func NewBreakpointStore() *BreakpointStore {
	return &BreakpointStore{
		byLine: make(map[int]*Breakpoint),
	}
}

// Set adds a breakpoint at line, enabling an existing one.
func (s *BreakpointStore) Set(line int) *Breakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	bp, ok := s.byLine[line]
	if ok {
		bp.Enabled = true
		return bp
	}
	s.nextID++
	bp = &Breakpoint{ID: s.nextID, Line: line, Enabled: true}
	s.byLine[line] = bp
	return bp
}

// Remove removes the breakpoint at line.  Returns true if it existed.
func (s *BreakpointStore) Remove(line int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byLine[line]
	delete(s.byLine, line)
	return ok
}

// Toggle removes the breakpoint at line if there is one and sets it
// otherwise.  Toggle returns true if line has a breakpoint afterwards.
func (s *BreakpointStore) Toggle(line int) bool {
	if s.Remove(line) {
		return false
	}
	s.Set(line)
	return true
}

// SetLines replaces every breakpoint.  This implements the DAP
// setBreakpoints semantics (full replacement, not incremental).
func (s *BreakpointStore) SetLines(lines []int) []*Breakpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byLine = make(map[int]*Breakpoint, len(lines))
	result := make([]*Breakpoint, len(lines))
	for i, line := range lines {
		s.nextID++
		bp := &Breakpoint{ID: s.nextID, Line: line, Enabled: true}
		s.byLine[line] = bp
		result[i] = bp
	}
	return result
}

// Match returns the enabled breakpoint at line, or nil.
func (s *BreakpointStore) Match(line int) *Breakpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bp, ok := s.byLine[line]
	if !ok || !bp.Enabled {
		return nil
	}
	return bp
}

// All returns every breakpoint ordered by line.
func (s *BreakpointStore) All() []*Breakpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Breakpoint, 0, len(s.byLine))
	for _, bp := range s.byLine {
		result = append(result, bp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Line < result[j].Line })
	return result
}
