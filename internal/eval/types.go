package eval

import (
	"github.com/temptemp3/reach-lang/internal/ast"
	"github.com/temptemp3/reach-lang/internal/ir"
)

// typeOf returns a value's first-order type and its IR argument form.
// Constants embed directly; compound values synthesize nested constant
// structures; values that already live in the IR pass through.
func typeOf(pos ast.Pos, v Value) (ir.Type, ir.Arg, error) {
	switch x := v.(type) {
	case VNull:
		return ir.TNull{}, ir.ConNull{}, nil
	case VBool:
		return ir.TBool{}, ir.ConBool{V: x.V}, nil
	case VInt:
		return ir.TUInt256{}, ir.ConInt{V: x.V}, nil
	case VBytes:
		return ir.TBytes{}, ir.ConBytes{V: x.V}, nil
	case VRef:
		return x.V.Type, ir.VarRef{V: x.V}, nil
	case VTuple:
		elems := make([]ir.Arg, len(x.Elems))
		for i, e := range x.Elems {
			_, a, err := typeOf(pos, e)
			if err != nil {
				return nil, nil, err
			}
			elems[i] = a
		}
		arg := ir.TupleArg{Elems: elems}
		return arg.TypeOf(), arg, nil
	case VObject:
		fields := make(map[string]ir.Arg, len(x.Fields))
		for k, fv := range x.Fields {
			_, a, err := typeOf(pos, fv)
			if err != nil {
				return nil, nil, err
			}
			fields[k] = a
		}
		arg := ir.ObjArg{Fields: fields}
		return arg.TypeOf(), arg, nil
	case *VParticipant:
		if x.Addr == nil {
			return nil, nil, errAt(ErrTypeMismatch, pos, "participant %q has not joined; no address is agreed yet", x.DisplayName())
		}
		return ir.TAddress{}, ir.VarRef{V: *x.Addr}, nil
	default:
		return nil, nil, errAt(ErrTypeMismatch, pos, "%s value has no first-order type", Kind(v))
	}
}

// zipEq is the uniform length-check-then-zip rule: every positional pairing
// in the system (calls, destructuring, primitive argument checks) verifies
// lengths before any per-element work.
func zipEq(pos ast.Pos, what string, expected, got int) error {
	if expected != got {
		return errAt(ErrArgCount, pos, "%s expects %d argument(s), got %d", what, expected, got)
	}
	return nil
}

// checkAndConvert zips expected types against values, failing before any
// per-element check if the lengths differ, and lowers each value into its
// IR argument form.
func checkAndConvert(pos ast.Pos, what string, dom []ir.Type, vals []Value) ([]ir.Arg, error) {
	if err := zipEq(pos, what, len(dom), len(vals)); err != nil {
		return nil, err
	}
	args := make([]ir.Arg, len(vals))
	for i, v := range vals {
		t, a, err := typeOf(pos, v)
		if err != nil {
			return nil, err
		}
		if !typeAccepts(dom[i], t) {
			return nil, errAt(ErrTypeMismatch, pos, "argument %d: expected %s, got %s", i, dom[i], t)
		}
		args[i] = a
	}
	return args, nil
}

// typeAccepts reports whether a value of dynamic type got is legal where
// want is expected. Type variables accept anything; everything else is
// structural equality.
func typeAccepts(want, got ir.Type) bool {
	if _, ok := want.(ir.TVar); ok {
		return true
	}
	return ir.TypeEqual(want, got)
}

// typeMeet unifies two branch result types. Compound types must match
// exactly in size and shape; a type variable unifies with anything.
// Failure reports both contributing locations.
func typeMeet(posA ast.Pos, a ir.Type, posB ast.Pos, b ir.Type) (ir.Type, error) {
	if _, ok := a.(ir.TVar); ok {
		return b, nil
	}
	if _, ok := b.(ir.TVar); ok {
		return a, nil
	}
	if ir.TypeEqual(a, b) {
		return a, nil
	}
	return nil, errAt(ErrTypeMeet, posA, "branch types do not unify: %s (here) vs %s (at %s)", a, b, posB)
}

// ensurePublic returns the value if its level is public and fails
// otherwise.
func ensurePublic(pos ast.Pos, level SecLevel, v Value, what string) (Value, error) {
	if level != Public {
		return nil, errAt(ErrExpectedPublic, pos, "%s must be public; declassify it first", what)
	}
	return v, nil
}
