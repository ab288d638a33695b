package eval

import (
	"github.com/temptemp3/reach-lang/internal/ast"
	"github.com/temptemp3/reach-lang/internal/ir"
)

// applyForm dispatches a form application. Forms intercept the call
// before argument evaluation: publish takes bare identifiers, pay and
// timeout defer their expressions to the consensus transition, and only
// runs its thunk against the participant's private environment.
func (ctx *Ctx) applyForm(env *Env, call *ast.Call, f Form) (*Res, error) {
	switch form := f.(type) {
	case FormApp:
		return ctx.applyAppForm(env, call)
	case FormOnly:
		return ctx.applyOnlyForm(env, call, form)
	case FormTCSet:
		return ctx.applyTCSetForm(env, call, form)
	case FormDApp:
		return nil, errAt(ErrNotCallable, call.Pos, "a declared application cannot be applied")
	case FormTC:
		return nil, errAt(ErrMalformedForm, call.Pos, "consensus transfer applied without a field selection")
	case FormOnlyAnswer:
		return nil, errAt(ErrMalformedForm, call.Pos, "local answer applied as a function")
	default:
		return nil, errAt(ErrInternal, call.Pos, "unhandled form %T", f)
	}
}

// applyAppForm handles the program declaration. It captures participant
// specifications and packages the body closure; elaboration of the body
// is deferred to program assembly.
func (ctx *Ctx) applyAppForm(env *Env, call *ast.Call) (*Res, error) {
	if ctx.Mode != ModeModule {
		return nil, ctx.errMode(call.Pos, "Reach.App")
	}
	if err := zipEq(call.Pos, "Reach.App", 3, len(call.Args)); err != nil {
		return nil, err
	}
	optsRes, err := ctx.EvalExpr(env, call.Args[0])
	if err != nil {
		return nil, err
	}
	opts, ok := optsRes.Val.(VObject)
	if !ok {
		return nil, errAt(ErrTypeMismatch, call.Args[0].Loc(), "application options must be an object, got %s", Kind(optsRes.Val))
	}
	partsRes, err := ctx.EvalExpr(env, call.Args[1])
	if err != nil {
		return nil, err
	}
	partsTup, ok := partsRes.Val.(VTuple)
	if !ok {
		return nil, errAt(ErrTypeMismatch, call.Args[1].Loc(), "participants must be an array of [name, interface] pairs, got %s", Kind(partsRes.Val))
	}
	parts := make([]AppPart, 0, len(partsTup.Elems))
	seen := map[string]bool{}
	for _, pe := range partsTup.Elems {
		part, err := appPart(call.Args[1].Loc(), pe)
		if err != nil {
			return nil, err
		}
		if seen[part.Name] {
			return nil, errAt(ErrDuplicateField, call.Args[1].Loc(), "duplicate participant %q", part.Name)
		}
		seen[part.Name] = true
		parts = append(parts, part)
	}
	cloRes, err := ctx.EvalExpr(env, call.Args[2])
	if err != nil {
		return nil, err
	}
	clo, ok := cloRes.Val.(*VClosure)
	if !ok {
		return nil, errAt(ErrTypeMismatch, call.Args[2].Loc(), "application body must be a function, got %s", Kind(cloRes.Val))
	}
	if len(clo.Params) != len(parts) {
		return nil, errAt(ErrClosureArity, call.Pos,
			"application body takes %d participant(s), but %d are declared", len(clo.Params), len(parts))
	}
	return pure(Public, VForm{Form: FormDApp{Opts: opts, Parts: parts, Clo: clo}}), nil
}

func appPart(pos ast.Pos, v Value) (AppPart, error) {
	pair, ok := v.(VTuple)
	if !ok || len(pair.Elems) != 2 {
		return AppPart{}, errAt(ErrTypeMismatch, pos, "each participant must be a [name, interface] pair")
	}
	name, ok := pair.Elems[0].(VBytes)
	if !ok {
		return AppPart{}, errAt(ErrTypeMismatch, pos, "participant name must be a byte string, got %s", Kind(pair.Elems[0]))
	}
	ifaceObj, ok := pair.Elems[1].(VObject)
	if !ok {
		return AppPart{}, errAt(ErrTypeMismatch, pos, "participant interface must be an object of types, got %s", Kind(pair.Elems[1]))
	}
	iface := make(ir.InteractSpec, len(ifaceObj.Fields))
	for field, fv := range ifaceObj.Fields {
		tv, ok := fv.(VType)
		if !ok {
			return AppPart{}, errAt(ErrExpectedType, pos, "interface field %q must be a type, got %s", field, Kind(fv))
		}
		iface[field] = tv.T
	}
	return AppPart{Name: name.V, Iface: iface, IfacePos: pos}, nil
}

// applyOnlyForm runs a participant's local block. The thunk itself is
// evaluated purely; its body is applied against the participant's
// private environment, so captured free variables resolve through the
// shared view rather than the thunk's lexical closure.
func (ctx *Ctx) applyOnlyForm(env *Env, call *ast.Call, form FormOnly) (*Res, error) {
	if ctx.Mode != ModeStep {
		return nil, ctx.errMode(call.Pos, "only")
	}
	if err := zipEq(call.Pos, "only", 1, len(call.Args)); err != nil {
		return nil, err
	}
	thunkRes, err := ctx.withMode(ModeLocal).EvalExpr(env, call.Args[0])
	if err != nil {
		return nil, err
	}
	clo, ok := thunkRes.Val.(*VClosure)
	if !ok {
		return nil, errAt(ErrTypeMismatch, call.Args[0].Loc(), "only takes a function, got %s", Kind(thunkRes.Val))
	}
	if len(clo.Params) != 0 {
		return nil, errAt(ErrClosureArity, call.Pos,
			"only block takes 0 argument(s), got a function of %d (defined at %s)", len(clo.Params), clo.Pos)
	}

	who := form.Who
	penv, ok := ctx.PartEnvs[who.Handle]
	if !ok {
		return nil, errAt(ErrInternal, call.Pos, "no private environment for participant %q", who.Handle)
	}
	interact := VObject{Fields: make(map[string]Value, len(who.Interact))}
	for method, t := range who.Interact {
		interact.Fields[method] = VInteractMethod{Who: who.Handle, Method: method, T: t}
	}
	scratch, err := penv.Insert(call.Pos, "interact", Secret, interact)
	if err != nil {
		return nil, err
	}

	lctx := ctx.withMode(ModeLocalStep)
	lctx.OnlyWho = who.Handle
	slot, err := lctx.freshSlot(call.Pos)
	if err != nil {
		return nil, err
	}
	sc := &Scope{Env: scratch, RetSlot: slot, Policy: RetImplicitNull}
	body, err := lctx.EvalStmts(sc, clo.Body)
	if err != nil {
		return nil, err
	}
	appRes, err := lctx.resolveBody(call.Pos, who.DisplayName(), slot, body)
	if err != nil {
		return nil, err
	}

	// Record only the bindings the block itself introduced; the
	// synthetic interact object stays out of the private environment.
	next := penv
	for _, name := range DiffNames(body.Env, scratch) {
		ent, _ := body.Env.Lookup(name)
		next, err = next.Insert(call.Pos, name, ent.Level, ent.Val)
		if err != nil {
			return nil, err
		}
	}

	// The thunk expression itself ran outside the participant's block, so
	// its lifts stay outside the Only wrapper.
	lifts := append([]ir.Stmt{}, thunkRes.Lifts...)
	if len(appRes.Lifts) > 0 {
		lifts = append(lifts, ir.Only{Who: who.Handle, Body: appRes.Lifts})
	}
	answer := FormOnlyAnswer{Who: who, Penv: next, Lvl: appRes.Lvl, Val: appRes.Val}
	return &Res{Lifts: lifts, Lvl: Public, Val: VForm{Form: answer}}, nil
}

// applyTCSetForm fills one field of a consensus-transfer accumulator.
// The member access already rejected double sets.
func (ctx *Ctx) applyTCSetForm(env *Env, call *ast.Call, form FormTCSet) (*Res, error) {
	if ctx.Mode != ModeStep {
		return nil, ctx.errMode(call.Pos, form.Field)
	}
	acc := form.Acc
	switch form.Field {
	case "publish":
		// Zero names is a pure join: the participant agrees an address
		// without publishing values.
		names := make([]string, len(call.Args))
		for i, a := range call.Args {
			id, ok := a.(*ast.Ident)
			if !ok {
				return nil, errAt(ErrIllegalExpr, a.Loc(), "publish takes plain identifiers")
			}
			names[i] = id.Name
		}
		acc.Pub = names
		acc.PubSet = true

	case "pay":
		if err := zipEq(call.Pos, "pay", 1, len(call.Args)); err != nil {
			return nil, err
		}
		acc.Pay = call.Args[0]

	case "timeout":
		if err := zipEq(call.Pos, "timeout", 2, len(call.Args)); err != nil {
			return nil, err
		}
		acc.Timeout = &TCTimeout{Delay: call.Args[0], Handler: call.Args[1]}

	default:
		return nil, errAt(ErrInternal, call.Pos, "unknown consensus-transfer field %q", form.Field)
	}
	return pure(Public, VForm{Form: acc}), nil
}
