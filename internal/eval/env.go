package eval

import (
	"sort"

	"github.com/temptemp3/reach-lang/internal/ast"
)

// Entry is one environment binding: a security level and a value.
type Entry struct {
	Level SecLevel
	Val   Value
}

// Env is the immutable, insert-once scope mapping. Insert returns a new
// environment; the receiver is never modified, so closures sharing a scope
// can never observe later extensions.
type Env struct {
	vars map[string]Entry
}

// NewEnv returns an empty environment.
func NewEnv() *Env {
	return &Env{vars: map[string]Entry{}}
}

// Lookup finds a binding by name.
func (e *Env) Lookup(name string) (Entry, bool) {
	ent, ok := e.vars[name]
	return ent, ok
}

// Names returns every bound name, sorted. Used for unbound-identifier
// suggestions.
func (e *Env) Names() []string {
	out := make([]string, 0, len(e.vars))
	for k := range e.vars {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of bindings.
func (e *Env) Len() int {
	return len(e.vars)
}

// Insert binds name, failing if it is already bound. The result is a
// fresh environment; the receiver is unchanged.
func (e *Env) Insert(pos ast.Pos, name string, level SecLevel, v Value) (*Env, error) {
	if _, ok := e.vars[name]; ok {
		return nil, errShadowed(pos, name)
	}
	next := make(map[string]Entry, len(e.vars)+1)
	for k, ent := range e.vars {
		next[k] = ent
	}
	next[name] = Entry{Level: level, Val: v}
	return &Env{vars: next}, nil
}

// Merge inserts every overlay entry into base using the same insert-only
// rule, failing on the first collision. Overlay entries are applied in
// sorted-name order so the first collision reported is deterministic.
func Merge(pos ast.Pos, base, overlay *Env) (*Env, error) {
	out := base
	for _, name := range overlay.Names() {
		ent := overlay.vars[name]
		var err error
		out, err = out.Insert(pos, name, ent.Level, ent.Val)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DiffNames returns the names bound in after but not in before, sorted.
// Used to compute the bindings a consensus round introduced.
func DiffNames(after, before *Env) []string {
	var out []string
	for k := range after.vars {
		if _, ok := before.vars[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
