package eval

import (
	"math/big"
	"sort"

	"github.com/temptemp3/reach-lang/internal/ast"
	"github.com/temptemp3/reach-lang/internal/ir"
)

// Res is the expression evaluation result: the lifts emitted while
// evaluating, the security level, and the produced value. Lifts are
// threaded in strict evaluation order; callers concatenate, never
// reorder.
type Res struct {
	Lifts []ir.Stmt
	Lvl   SecLevel
	Val   Value
}

func pure(lvl SecLevel, v Value) *Res {
	return &Res{Lvl: lvl, Val: v}
}

// EvalExpr evaluates a surface expression against an environment. The
// environment is never mutated.
func (ctx *Ctx) EvalExpr(env *Env, e ast.Expr) (*Res, error) {
	switch n := e.(type) {
	case *ast.Ident:
		ent, ok := env.Lookup(n.Name)
		if !ok {
			return nil, errUnbound(n.Pos, n.Name, env.Names())
		}
		// Participants acquire a display name lazily from their first
		// referencing identifier; it is never overwritten.
		if p, ok := ent.Val.(*VParticipant); ok && p.BoundName == "" {
			p.BoundName = n.Name
		}
		return pure(ent.Level, ent.Val), nil

	case *ast.IntLit:
		v, ok := new(big.Int).SetString(n.Raw, 0)
		if !ok || v.Sign() < 0 {
			return nil, errAt(ErrIllegalExpr, n.Pos, "malformed integer literal %q", n.Raw)
		}
		return pure(Public, VInt{V: v}), nil

	case *ast.BoolLit:
		return pure(Public, VBool{V: n.Value}), nil

	case *ast.NullLit:
		return pure(Public, VNull{}), nil

	case *ast.StrLit:
		return pure(Public, VBytes{V: trimQuotes(n.Raw)}), nil

	case *ast.Unary:
		return ctx.evalUnary(env, n)

	case *ast.Binary:
		return ctx.evalBinary(env, n)

	case *ast.Ternary:
		return ctx.evalTernary(env, n)

	case *ast.Member:
		return ctx.evalMember(env, n)

	case *ast.Index:
		return ctx.evalIndex(env, n)

	case *ast.ArrayLit:
		return ctx.evalArrayLit(env, n)

	case *ast.ObjectLit:
		return ctx.evalObjectLit(env, n)

	case *ast.Func:
		if n.Name != "" {
			return nil, errAt(ErrNamedFuncExpr, n.Pos, "named function %q in expression position; only anonymous functions are legal here", n.Name)
		}
		return pure(Public, &VClosure{Params: n.Params, Body: n.Body, Env: env, Pos: n.Pos}), nil

	case *ast.Call:
		return ctx.evalCall(env, n)

	case *ast.UnsupportedExpr:
		return nil, errAt(ErrIllegalExpr, n.Pos, "%s is not part of the language", n.Kind)

	default:
		return nil, errAt(ErrInternal, e.Loc(), "unhandled expression node %T", e)
	}
}

func trimQuotes(raw string) string {
	if len(raw) >= 2 {
		first, last := raw[0], raw[len(raw)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
			return raw[1 : len(raw)-1]
		}
	}
	return raw
}

func (ctx *Ctx) evalUnary(env *Env, n *ast.Unary) (*Res, error) {
	if n.Op != "!" {
		return nil, errAt(ErrIllegalExpr, n.Pos, "unary operator %q is not part of the language", n.Op)
	}
	sub, err := ctx.EvalExpr(env, n.Operand)
	if err != nil {
		return nil, err
	}
	res, err := ctx.applyPrim(n.Pos, PrimNot, []SecLevel{sub.Lvl}, []Value{sub.Val})
	if err != nil {
		return nil, err
	}
	res.Lifts = append(sub.Lifts, res.Lifts...)
	return res, nil
}

func (ctx *Ctx) evalBinary(env *Env, n *ast.Binary) (*Res, error) {
	// Short-circuit forms desugar to ordinary identifiers so they stay
	// user-level closures rather than special-cased operators.
	if name, ok := surfaceSugar[n.Op]; ok {
		call := &ast.Call{
			Pos:    n.Pos,
			Callee: &ast.Ident{Pos: n.Pos, Name: name},
			Args:   []ast.Expr{n.Left, n.Right},
		}
		return ctx.EvalExpr(env, call)
	}
	op, ok := surfaceBinOps[n.Op]
	if !ok {
		return nil, errAt(ErrIllegalExpr, n.Pos, "binary operator %q is not part of the language", n.Op)
	}
	left, err := ctx.EvalExpr(env, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := ctx.EvalExpr(env, n.Right)
	if err != nil {
		return nil, err
	}
	res, err := ctx.applyPrim(n.Pos, op, []SecLevel{left.Lvl, right.Lvl}, []Value{left.Val, right.Val})
	if err != nil {
		return nil, err
	}
	lifts := append(append([]ir.Stmt{}, left.Lifts...), right.Lifts...)
	res.Lifts = append(lifts, res.Lifts...)
	return res, nil
}

// evalTernary always evaluates both branches eagerly, even under a
// compile-time-known condition, so an invalid untaken branch still fails
// elaboration. Dead-branch lifts are discarded, never emitted.
func (ctx *Ctx) evalTernary(env *Env, n *ast.Ternary) (*Res, error) {
	cond, err := ctx.EvalExpr(env, n.Cond)
	if err != nil {
		return nil, err
	}
	thenR, err := ctx.EvalExpr(env, n.Then)
	if err != nil {
		return nil, err
	}
	elseR, err := ctx.EvalExpr(env, n.Else)
	if err != nil {
		return nil, err
	}

	switch cv := cond.Val.(type) {
	case VBool:
		taken := thenR
		if !cv.V {
			taken = elseR
		}
		return &Res{
			Lifts: append(append([]ir.Stmt{}, cond.Lifts...), taken.Lifts...),
			Lvl:   MeetAll(cond.Lvl, taken.Lvl),
			Val:   taken.Val,
		}, nil

	case VRef:
		if !ir.TypeEqual(cv.V.Type, ir.TBool{}) {
			return nil, errAt(ErrExpectedBool, n.Cond.Loc(), "ternary condition must be a boolean, got %s", cv.V.Type)
		}
		if len(thenR.Lifts) == 0 && len(elseR.Lifts) == 0 {
			res, err := ctx.applyPrim(n.Pos, PrimIte,
				[]SecLevel{cond.Lvl, thenR.Lvl, elseR.Lvl},
				[]Value{cond.Val, thenR.Val, elseR.Val})
			if err != nil {
				return nil, err
			}
			res.Lifts = append(append([]ir.Stmt{}, cond.Lifts...), res.Lifts...)
			return res, nil
		}
		return ctx.promptTernary(n, cond, thenR, elseR)

	default:
		return nil, errAt(ErrExpectedBool, n.Cond.Loc(), "ternary condition must be a boolean, got %s", Kind(cond.Val))
	}
}

// promptTernary wraps lifting branches in a single prompt exposing one
// fresh variable with the unified result type.
func (ctx *Ctx) promptTernary(n *ast.Ternary, cond, thenR, elseR *Res) (*Res, error) {
	tt, ta, err := typeOf(n.Then.Loc(), thenR.Val)
	if err != nil {
		return nil, err
	}
	tf, fa, err := typeOf(n.Else.Loc(), elseR.Val)
	if err != nil {
		return nil, err
	}
	rng, err := typeMeet(n.Then.Loc(), tt, n.Else.Loc(), tf)
	if err != nil {
		return nil, err
	}
	slot, err := ctx.freshSlot(n.Pos)
	if err != nil {
		return nil, err
	}
	dv, err := ctx.freshVar(n.Pos, "", rng)
	if err != nil {
		return nil, err
	}
	_, cargRaw, err := typeOf(n.Cond.Loc(), cond.Val)
	if err != nil {
		return nil, err
	}
	thenLifts := append(append([]ir.Stmt{}, thenR.Lifts...), ir.Return{Slot: slot, Value: ta})
	elseLifts := append(append([]ir.Stmt{}, elseR.Lifts...), ir.Return{Slot: slot, Value: fa})
	prompt := ir.Prompt{
		Slot: slot,
		Var:  dv,
		Body: []ir.Stmt{ir.If{Cond: cargRaw, Then: thenLifts, Else: elseLifts}},
	}
	return &Res{
		Lifts: append(append([]ir.Stmt{}, cond.Lifts...), prompt),
		Lvl:   MeetAll(cond.Lvl, thenR.Lvl, elseR.Lvl),
		Val:   VRef{V: dv},
	}, nil
}

func (ctx *Ctx) evalMember(env *Env, n *ast.Member) (*Res, error) {
	obj, err := ctx.EvalExpr(env, n.Object)
	if err != nil {
		return nil, err
	}

	switch ov := obj.Val.(type) {
	case VObject:
		fv, ok := ov.Fields[n.Field]
		if !ok {
			return nil, errFieldNotFound(n.Pos, n.Field, sortedFieldNames(ov.Fields))
		}
		// A plain-typed interact field is a value read against the
		// participant's declared interface; it lifts immediately.
		if im, ok := fv.(VInteractMethod); ok {
			if _, isFun := im.T.(ir.TFun); !isFun {
				return ctx.liftInteract(n.Pos, obj.Lifts, im, nil, im.T)
			}
		}
		return &Res{Lifts: obj.Lifts, Lvl: obj.Lvl, Val: fv}, nil

	case VRef:
		ot, ok := ov.V.Type.(ir.TObject)
		if !ok {
			return nil, errAt(ErrNotObject, n.Pos, "member access on a %s reference", ov.V.Type)
		}
		ft, ok := ot.Fields[n.Field]
		if !ok {
			return nil, errFieldNotFound(n.Pos, n.Field, sortedTypeFieldNames(ot.Fields))
		}
		dv, err := ctx.freshVar(n.Pos, n.Field, ft)
		if err != nil {
			return nil, err
		}
		lift := ir.Let{Var: dv, Expr: ir.ObjRef{Obj: ir.VarRef{V: ov.V}, Field: n.Field, FieldType: ft}}
		return &Res{
			Lifts: append(append([]ir.Stmt{}, obj.Lifts...), lift),
			Lvl:   obj.Lvl,
			Val:   VRef{V: dv},
		}, nil

	case *VParticipant:
		switch n.Field {
		case "only":
			return &Res{Lifts: obj.Lifts, Lvl: obj.Lvl, Val: VForm{Form: FormOnly{Who: ov}}}, nil
		case "publish", "pay":
			return &Res{Lifts: obj.Lifts, Lvl: obj.Lvl, Val: VForm{Form: FormTCSet{Acc: FormTC{Who: ov}, Field: n.Field}}}, nil
		default:
			return nil, errFieldNotFound(n.Pos, n.Field, []string{"only", "pay", "publish"})
		}

	case VForm:
		acc, ok := ov.Form.(FormTC)
		if !ok {
			return nil, errAt(ErrMalformedForm, n.Pos, "member access on an application form")
		}
		switch n.Field {
		case "publish":
			if acc.PubSet {
				return nil, errAt(ErrDoubleToConsensus, n.Pos, "publish is already set on this consensus transfer")
			}
		case "pay":
			if acc.Pay != nil {
				return nil, errAt(ErrDoubleToConsensus, n.Pos, "pay is already set on this consensus transfer")
			}
		case "timeout":
			if acc.Timeout != nil {
				return nil, errAt(ErrDoubleToConsensus, n.Pos, "timeout is already set on this consensus transfer")
			}
		default:
			return nil, errFieldNotFound(n.Pos, n.Field, []string{"pay", "publish", "timeout"})
		}
		return &Res{Lifts: obj.Lifts, Lvl: obj.Lvl, Val: VForm{Form: FormTCSet{Acc: acc, Field: n.Field}}}, nil

	default:
		return nil, errAt(ErrNotObject, n.Pos, "member access on a %s value", Kind(obj.Val))
	}
}

func (ctx *Ctx) evalIndex(env *Env, n *ast.Index) (*Res, error) {
	obj, err := ctx.EvalExpr(env, n.Object)
	if err != nil {
		return nil, err
	}
	idx, err := ctx.EvalExpr(env, n.Idx)
	if err != nil {
		return nil, err
	}
	lifts := append(append([]ir.Stmt{}, obj.Lifts...), idx.Lifts...)
	lvl := Meet(obj.Lvl, idx.Lvl)

	switch ov := obj.Val.(type) {
	case VTuple:
		switch iv := idx.Val.(type) {
		case VInt:
			i, err := tupleBound(n.Pos, len(ov.Elems), iv.V)
			if err != nil {
				return nil, err
			}
			return &Res{Lifts: lifts, Lvl: lvl, Val: ov.Elems[i]}, nil
		case VRef:
			return ctx.indexConcreteBySymbolic(n, lifts, lvl, ov, iv)
		default:
			return nil, errAt(ErrRefNotInt, n.Pos, "index must be an integer, got %s", Kind(idx.Val))
		}

	case VRef:
		switch ot := ov.V.Type.(type) {
		case ir.TTuple:
			iv, ok := idx.Val.(VInt)
			if !ok {
				if _, isRef := idx.Val.(VRef); isRef {
					return nil, errAt(ErrIndirectNotArr, n.Pos, "symbolic index into a tuple reference; only arrays take symbolic indices")
				}
				return nil, errAt(ErrRefNotInt, n.Pos, "index must be an integer, got %s", Kind(idx.Val))
			}
			i, err := tupleBound(n.Pos, len(ot.Elems), iv.V)
			if err != nil {
				return nil, err
			}
			dv, err := ctx.freshVar(n.Pos, "", ot.Elems[i])
			if err != nil {
				return nil, err
			}
			lift := ir.Let{Var: dv, Expr: ir.TupleRef{Tup: ir.VarRef{V: ov.V}, Arity: len(ot.Elems), Idx: i, Elem: ot.Elems[i]}}
			return &Res{Lifts: append(lifts, lift), Lvl: lvl, Val: VRef{V: dv}}, nil

		case ir.TArray:
			iarg, err := indexArg(n.Pos, idx.Val, ot.Size)
			if err != nil {
				return nil, err
			}
			dv, err := ctx.freshVar(n.Pos, "", ot.Elem)
			if err != nil {
				return nil, err
			}
			lift := ir.Let{Var: dv, Expr: ir.ArrayRef{Arr: ir.VarRef{V: ov.V}, Size: ot.Size, Idx: iarg, Elem: ot.Elem}}
			return &Res{Lifts: append(lifts, lift), Lvl: lvl, Val: VRef{V: dv}}, nil

		default:
			return nil, errAt(ErrRefNotRefable, n.Pos, "%s reference cannot be indexed", ov.V.Type)
		}

	default:
		return nil, errAt(ErrRefNotRefable, n.Pos, "%s value cannot be indexed", Kind(obj.Val))
	}
}

// indexConcreteBySymbolic handles a concrete tuple treated as a fixed
// array under a symbolic index: the element types must agree, and the
// access lowers to a bounds-checked array reference over a constant
// structure.
func (ctx *Ctx) indexConcreteBySymbolic(n *ast.Index, lifts []ir.Stmt, lvl SecLevel, ov VTuple, iv VRef) (*Res, error) {
	if len(ov.Elems) == 0 {
		return nil, errAt(ErrRefOutOfBounds, n.Pos, "index out of bounds: size 0, tried symbolic index")
	}
	if !ir.TypeEqual(iv.V.Type, ir.TUInt256{}) {
		return nil, errAt(ErrRefNotInt, n.Pos, "index must be an integer, got %s", iv.V.Type)
	}
	var elemT ir.Type
	elems := make([]ir.Arg, len(ov.Elems))
	for i, e := range ov.Elems {
		t, a, err := typeOf(n.Pos, e)
		if err != nil {
			return nil, err
		}
		if elemT == nil {
			elemT = t
		} else {
			elemT, err = typeMeet(n.Pos, elemT, n.Pos, t)
			if err != nil {
				return nil, errAt(ErrIndirectNotArr, n.Pos, "symbolic index needs uniform element types; element %d is %s", i, t)
			}
		}
		elems[i] = a
	}
	dv, err := ctx.freshVar(n.Pos, "", elemT)
	if err != nil {
		return nil, err
	}
	arr := ir.ArrayArg{Elem: elemT, Elems: elems}
	lift := ir.Let{Var: dv, Expr: ir.ArrayRef{Arr: arr, Size: len(elems), Idx: ir.VarRef{V: iv.V}, Elem: elemT}}
	return &Res{Lifts: append(lifts, lift), Lvl: lvl, Val: VRef{V: dv}}, nil
}

// tupleBound validates a concrete index against a static size, reporting
// the size and the tried index on failure.
func tupleBound(pos ast.Pos, size int, idx *big.Int) (int, error) {
	if !idx.IsInt64() || idx.Sign() < 0 || idx.Int64() >= int64(size) {
		return 0, errAt(ErrRefOutOfBounds, pos, "index out of bounds: size %d, tried %s", size, idx)
	}
	return int(idx.Int64()), nil
}

func indexArg(pos ast.Pos, idx Value, size int) (ir.Arg, error) {
	switch iv := idx.(type) {
	case VInt:
		if _, err := tupleBound(pos, size, iv.V); err != nil {
			return nil, err
		}
		return ir.ConInt{V: iv.V}, nil
	case VRef:
		if !ir.TypeEqual(iv.V.Type, ir.TUInt256{}) {
			return nil, errAt(ErrRefNotInt, pos, "index must be an integer, got %s", iv.V.Type)
		}
		return ir.VarRef{V: iv.V}, nil
	default:
		return nil, errAt(ErrRefNotInt, pos, "index must be an integer, got %s", Kind(idx))
	}
}

func (ctx *Ctx) evalArrayLit(env *Env, n *ast.ArrayLit) (*Res, error) {
	var lifts []ir.Stmt
	lvl := Public
	elems := make([]Value, 0, len(n.Elems))
	for _, e := range n.Elems {
		r, err := ctx.EvalExpr(env, e)
		if err != nil {
			return nil, err
		}
		lifts = append(lifts, r.Lifts...)
		lvl = Meet(lvl, r.Lvl)
		elems = append(elems, r.Val)
	}
	return &Res{Lifts: lifts, Lvl: lvl, Val: VTuple{Elems: elems}}, nil
}

func (ctx *Ctx) evalObjectLit(env *Env, n *ast.ObjectLit) (*Res, error) {
	var lifts []ir.Stmt
	lvl := Public
	fields := map[string]Value{}

	put := func(pos ast.Pos, name string, v Value) error {
		if _, ok := fields[name]; ok {
			return errAt(ErrDuplicateField, pos, "duplicate object field %q", name)
		}
		fields[name] = v
		return nil
	}

	for _, p := range n.Props {
		switch prop := p.(type) {
		case *ast.PropField:
			r, err := ctx.EvalExpr(env, prop.Value)
			if err != nil {
				return nil, err
			}
			lifts = append(lifts, r.Lifts...)
			lvl = Meet(lvl, r.Lvl)
			if err := put(prop.Pos, prop.Name, r.Val); err != nil {
				return nil, err
			}

		case *ast.PropComputed:
			kr, err := ctx.EvalExpr(env, prop.Key)
			if err != nil {
				return nil, err
			}
			lifts = append(lifts, kr.Lifts...)
			key, ok := kr.Val.(VBytes)
			if !ok {
				return nil, errAt(ErrComputedFieldKind, prop.Pos, "computed field name must be a byte string, got %s", Kind(kr.Val))
			}
			vr, err := ctx.EvalExpr(env, prop.Value)
			if err != nil {
				return nil, err
			}
			lifts = append(lifts, vr.Lifts...)
			lvl = MeetAll(lvl, kr.Lvl, vr.Lvl)
			if err := put(prop.Pos, key.V, vr.Val); err != nil {
				return nil, err
			}

		case *ast.PropSpread:
			r, err := ctx.EvalExpr(env, prop.Value)
			if err != nil {
				return nil, err
			}
			lifts = append(lifts, r.Lifts...)
			lvl = Meet(lvl, r.Lvl)
			src, ok := r.Val.(VObject)
			if !ok {
				return nil, errAt(ErrSpreadNotObject, prop.Pos, "spread of a %s value; only objects spread", Kind(r.Val))
			}
			for _, name := range sortedFieldNames(src.Fields) {
				if err := put(prop.Pos, name, src.Fields[name]); err != nil {
					return nil, err
				}
			}

		default:
			return nil, errAt(ErrInternal, n.Pos, "unhandled property node %T", p)
		}
	}
	return &Res{Lifts: lifts, Lvl: lvl, Val: VObject{Fields: fields}}, nil
}

func (ctx *Ctx) evalCall(env *Env, n *ast.Call) (*Res, error) {
	callee, err := ctx.EvalExpr(env, n.Callee)
	if err != nil {
		return nil, err
	}

	// Forms intercept application: their arguments are surface syntax,
	// not values.
	if f, ok := callee.Val.(VForm); ok {
		res, err := ctx.applyForm(env, n, f.Form)
		if err != nil {
			return nil, err
		}
		res.Lifts = append(append([]ir.Stmt{}, callee.Lifts...), res.Lifts...)
		return res, nil
	}

	lifts := append([]ir.Stmt{}, callee.Lifts...)
	lvls := make([]SecLevel, 0, len(n.Args))
	vals := make([]Value, 0, len(n.Args))
	for _, a := range n.Args {
		r, err := ctx.EvalExpr(env, a)
		if err != nil {
			return nil, err
		}
		lifts = append(lifts, r.Lifts...)
		lvls = append(lvls, r.Lvl)
		vals = append(vals, r.Val)
	}

	var res *Res
	switch cv := callee.Val.(type) {
	case *VClosure:
		res, err = ctx.applyClosure(n.Pos, cv, lvls, vals)
	case VPrim:
		res, err = ctx.applyPrim(n.Pos, cv.Op, lvls, vals)
	case VInteractMethod:
		res, err = ctx.applyInteract(n.Pos, cv, lvls, vals)
	case VTransferTo:
		res, err = ctx.applyTransferTo(n.Pos, cv, lvls, vals)
	default:
		return nil, errAt(ErrNotCallable, n.Pos, "cannot apply a %s value", Kind(callee.Val))
	}
	if err != nil {
		return nil, err
	}
	res.Lifts = append(lifts, res.Lifts...)
	return res, nil
}

// applyClosure binds formals one-to-one, evaluates the body as a
// statement block, and resolves the implicit result. A body with exactly
// one return point whose final lift already delivers that value to the
// slot stays unwrapped; multiple return points get a fresh-slot prompt
// with their types unified.
func (ctx *Ctx) applyClosure(pos ast.Pos, clo *VClosure, lvls []SecLevel, vals []Value) (*Res, error) {
	what := clo.Name
	if what == "" {
		what = "function"
	}
	if err := zipEq(pos, what, len(clo.Params), len(vals)); err != nil {
		return nil, err
	}
	env := clo.Env
	var err error
	for i, p := range clo.Params {
		env, err = env.Insert(pos, p, lvls[i], vals[i])
		if err != nil {
			return nil, err
		}
	}

	slot := -1
	if ctx.Counter != nil {
		slot = ctx.Counter.Alloc()
	}
	sc := &Scope{Env: env, RetSlot: slot, Policy: RetImplicitNull}
	body, err := ctx.EvalStmts(sc, clo.Body)
	if err != nil {
		return nil, err
	}
	return ctx.resolveBody(pos, clo.Name, slot, body)
}

// resolveBody turns a block result into an application result.
func (ctx *Ctx) resolveBody(pos ast.Pos, hint string, slot int, body *StmtsRes) (*Res, error) {
	switch len(body.Rets) {
	case 0:
		return &Res{Lifts: body.Lifts, Lvl: Public, Val: VNull{}}, nil

	case 1:
		ret := body.Rets[0]
		lifts := body.Lifts
		if slot >= 0 && len(lifts) > 0 {
			if last, ok := lifts[len(lifts)-1].(ir.Return); ok && last.Slot == slot {
				if _, arg, err := typeOf(ret.Pos, ret.Val); err == nil && ir.ArgEqual(last.Value, arg) {
					lifts = lifts[:len(lifts)-1]
				}
			}
		}
		return &Res{Lifts: lifts, Lvl: ret.Lvl, Val: ret.Val}, nil

	default:
		var unified ir.Type
		var unifiedPos ast.Pos
		lvl := Public
		for _, ret := range body.Rets {
			t, _, err := typeOf(ret.Pos, ret.Val)
			if err != nil {
				return nil, err
			}
			if unified == nil {
				unified, unifiedPos = t, ret.Pos
			} else {
				unified, err = typeMeet(unifiedPos, unified, ret.Pos, t)
				if err != nil {
					return nil, err
				}
			}
			lvl = Meet(lvl, ret.Lvl)
		}
		dv, err := ctx.freshVar(pos, hint, unified)
		if err != nil {
			return nil, err
		}
		prompt := ir.Prompt{Slot: slot, Var: dv, Body: body.Lifts}
		return &Res{Lifts: []ir.Stmt{prompt}, Lvl: lvl, Val: VRef{V: dv}}, nil
	}
}

func (ctx *Ctx) applyInteract(pos ast.Pos, im VInteractMethod, lvls []SecLevel, vals []Value) (*Res, error) {
	if ctx.Mode != ModeLocalStep {
		return nil, ctx.errMode(pos, "interact")
	}
	ft, ok := im.T.(ir.TFun)
	if !ok {
		return nil, errAt(ErrNotCallable, pos, "interact.%s has type %s and cannot be applied", im.Method, im.T)
	}
	args, err := checkAndConvert(pos, "interact."+im.Method, ft.Dom, vals)
	if err != nil {
		return nil, err
	}
	return ctx.liftInteractArgs(pos, im, args, ft.Rng)
}

func (ctx *Ctx) liftInteract(pos ast.Pos, prior []ir.Stmt, im VInteractMethod, args []ir.Arg, rng ir.Type) (*Res, error) {
	if ctx.Mode != ModeLocalStep {
		return nil, ctx.errMode(pos, "interact")
	}
	res, err := ctx.liftInteractArgs(pos, im, args, rng)
	if err != nil {
		return nil, err
	}
	res.Lifts = append(append([]ir.Stmt{}, prior...), res.Lifts...)
	return res, nil
}

func (ctx *Ctx) liftInteractArgs(pos ast.Pos, im VInteractMethod, args []ir.Arg, rng ir.Type) (*Res, error) {
	dv, err := ctx.freshVar(pos, im.Method, rng)
	if err != nil {
		return nil, err
	}
	lift := ir.Let{Var: dv, Expr: ir.Interact{Who: im.Who, Method: im.Method, Args: args, Rng: rng}}
	return &Res{Lifts: []ir.Stmt{lift}, Lvl: Secret, Val: VRef{V: dv}}, nil
}

func (ctx *Ctx) applyTransferTo(pos ast.Pos, tt VTransferTo, lvls []SecLevel, vals []Value) (*Res, error) {
	if ctx.Mode != ModeConsensus {
		return nil, ctx.errMode(pos, "transfer.to")
	}
	if err := zipEq(pos, "transfer.to", 1, len(vals)); err != nil {
		return nil, err
	}
	t, to, err := typeOf(pos, vals[0])
	if err != nil {
		return nil, err
	}
	if !ir.TypeEqual(t, ir.TAddress{}) {
		return nil, errAt(ErrTypeMismatch, pos, "transfer target must be an address, got %s", t)
	}
	return &Res{
		Lifts: []ir.Stmt{ir.Transfer{To: to, Amount: tt.Amount}},
		Lvl:   Public,
		Val:   VNull{},
	}, nil
}

func sortedFieldNames(fields map[string]Value) []string {
	out := make([]string, 0, len(fields))
	for k := range fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedTypeFieldNames(fields map[string]ir.Type) []string {
	out := make([]string, 0, len(fields))
	for k := range fields {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
