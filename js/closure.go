// Copyright © 2024 The ELPS authors

package js

// captureClosure collects every variable visible from scope, excluding the
// global scope, nearest scope first.
func captureClosure(scope *Scope) []ClosureVariable {
	var captured []ClosureVariable
	for s := scope; s != nil && s.Kind != GlobalScope; s = s.Parent {
		for _, v := range s.Variables() {
			captured = append(captured, ClosureVariable{
				Name:      v.Name,
				Value:     v.Value,
				FromScope: s.Name,
			})
		}
	}
	return captured
}

// refreshClosures recomputes the captured variables of every function that
// captured something when it was created so snapshots show live values.
func refreshClosures(mem *Memory) {
	for _, obj := range mem.Objects() {
		if obj.Type != TypeFunction || !obj.capture || obj.Func == nil {
			continue
		}
		obj.Closure = captureClosure(obj.Func.Scope)
	}
}

// refreshFrames re-reads the locals of every live frame from its scope.
func refreshFrames(mem *Memory, scopes map[ScopeID]*Scope) {
	for _, f := range mem.stack {
		scope, ok := scopes[f.ScopeID]
		if !ok {
			continue
		}
		f.Variables = scope.Variables()
	}
}
