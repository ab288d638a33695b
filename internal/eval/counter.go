package eval

import (
	"github.com/temptemp3/reach-lang/internal/ast"
	"github.com/temptemp3/reach-lang/internal/ir"
)

// Counter is the fresh-identifier allocator owned by one elaboration
// segment. Ids are strictly increasing; no two lifts in a segment receive
// the same id, and counters are never shared across segments.
type Counter struct {
	next int
}

// NewCounter returns a counter starting at 0.
func NewCounter() *Counter {
	return &Counter{}
}

// Alloc returns the next fresh id.
func (c *Counter) Alloc() int {
	n := c.next
	c.next++
	return n
}

// freshVar allocates a fresh IR variable from the segment's counter.
// The root module pass owns no counter, so lifting there is an
// internal-consistency error.
func (ctx *Ctx) freshVar(pos ast.Pos, hint string, t ir.Type) (ir.Var, error) {
	if ctx.Counter == nil {
		return ir.Var{}, errAt(ErrNoCounter, pos, "fresh identifier requested outside an elaboration segment")
	}
	return ir.Var{Idx: ctx.Counter.Alloc(), Hint: hint, Type: t}, nil
}

// freshSlot allocates a fresh prompt/return slot id.
func (ctx *Ctx) freshSlot(pos ast.Pos) (int, error) {
	if ctx.Counter == nil {
		return 0, errAt(ErrNoCounter, pos, "fresh identifier requested outside an elaboration segment")
	}
	return ctx.Counter.Alloc(), nil
}
