package eval

import (
	"math/big"

	"github.com/temptemp3/reach-lang/internal/ast"
	"github.com/temptemp3/reach-lang/internal/ir"
)

func bigInt(i int) *big.Int {
	return big.NewInt(int64(i))
}

// RetPoint is one return reached while evaluating a statement block.
type RetPoint struct {
	Pos ast.Pos
	Lvl SecLevel
	Val Value
}

// StmtsRes is the statement evaluator's result: the lifts emitted, the
// environment after the block, and every return point reached.
// Continued is set when every control path through the block ended in a
// loop continuation, which discharges the loop body's continue obligation.
type StmtsRes struct {
	Lifts     []ir.Stmt
	Env       *Env
	Rets      []RetPoint
	Continued bool
}

// EvalStmts walks a statement sequence under the scope's return policy.
// It recurses on the tail so that consensus transitions and commits can
// consume the statements that follow them.
func (ctx *Ctx) EvalStmts(sc *Scope, stmts []ast.Stmt) (*StmtsRes, error) {
	if len(stmts) == 0 {
		if sc.Policy == RetMustContinue {
			return nil, errAt(ErrWhileShape, ast.Pos{}, "loop body must end in a continue")
		}
		return &StmtsRes{Env: sc.Env}, nil
	}
	first, rest := stmts[0], stmts[1:]

	if ctx.Mode == ModeModule {
		if err := moduleLegal(first); err != nil {
			return nil, err
		}
	}

	switch s := first.(type) {
	case *ast.Block:
		sub, err := ctx.EvalStmts(sc, s.Body)
		if err != nil {
			return nil, err
		}
		if sub.Continued {
			if len(rest) > 0 {
				return nil, errAt(ErrNonEmptyTail, rest[0].Loc(), "statements after a continue are unreachable")
			}
			return &StmtsRes{Lifts: sub.Lifts, Env: sc.Env, Rets: sub.Rets, Continued: true}, nil
		}
		// Block-local bindings do not escape.
		return ctx.contStmts(sc, sub.Lifts, sc.Env, sub.Rets, rest)

	case *ast.ConstDecl:
		res, err := ctx.EvalExpr(sc.Env, s.Value)
		if err != nil {
			return nil, err
		}
		projLifts, env, err := ctx.destructure(s.Pos, sc.Env, s.Pat, res.Lvl, res.Val)
		if err != nil {
			return nil, err
		}
		lifts := append(append([]ir.Stmt{}, res.Lifts...), projLifts...)
		return ctx.contStmts(sc, lifts, env, nil, rest)

	case *ast.VarDecl:
		return ctx.evalLoopForm(sc, s, rest)

	case *ast.FuncDecl:
		if s.Name == "" {
			return nil, errAt(ErrAnonFuncDecl, s.Pos, "function declarations must be named")
		}
		clo := &VClosure{Name: s.Name, Params: s.Params, Body: s.Body, Env: sc.Env, Pos: s.Pos}
		env, err := sc.Env.Insert(s.Pos, s.Name, Public, clo)
		if err != nil {
			return nil, err
		}
		return ctx.contStmts(sc, nil, env, nil, rest)

	case *ast.If:
		return ctx.evalIf(sc, s, rest)

	case *ast.Return:
		if len(rest) > 0 {
			return nil, errAt(ErrNonEmptyTail, rest[0].Loc(), "statements after a return are unreachable")
		}
		return ctx.evalReturn(sc, s)

	case *ast.ExprStmt:
		return ctx.evalExprStmt(sc, s, rest)

	case *ast.Assign:
		if len(rest) == 0 {
			return nil, errAt(ErrIllegalAssign, s.Pos, "assignment must be immediately followed by continue")
		}
		cont, ok := rest[0].(*ast.Continue)
		if !ok {
			return nil, errAt(ErrIllegalAssign, s.Pos, "assignment must be immediately followed by continue")
		}
		if len(rest) > 1 {
			return nil, errAt(ErrNonEmptyTail, rest[1].Loc(), "statements after a continue are unreachable")
		}
		return ctx.evalContinue(sc, cont.Pos, s)

	case *ast.Continue:
		if len(rest) > 0 {
			return nil, errAt(ErrNonEmptyTail, rest[0].Loc(), "statements after a continue are unreachable")
		}
		return ctx.evalContinue(sc, s.Pos, nil)

	case *ast.While:
		return nil, errAt(ErrWhileShape, s.Pos, "while must follow a var declaration and an invariant")

	case *ast.UnsupportedStmt:
		return nil, errAt(ErrIllegalStmt, s.Pos, "%s is not part of the language", s.Kind)

	default:
		return nil, errAt(ErrInternal, first.Loc(), "unhandled statement node %T", first)
	}
}

func moduleLegal(s ast.Stmt) error {
	switch s := s.(type) {
	case *ast.Return:
		return errAt(ErrTopLevelReturn, s.Pos, "return at module top level")
	case *ast.If, *ast.While, *ast.VarDecl, *ast.Assign, *ast.Continue, *ast.Block:
		return errAt(ErrIllegalAtModule, s.Loc(), "only declarations and expression statements are legal at module top level")
	default:
		return nil
	}
}

// contStmts threads one statement's output into the evaluation of the
// remaining statements.
func (ctx *Ctx) contStmts(sc *Scope, lifts []ir.Stmt, env *Env, rets []RetPoint, rest []ast.Stmt) (*StmtsRes, error) {
	sub, err := ctx.EvalStmts(sc.withEnv(env), rest)
	if err != nil {
		return nil, err
	}
	return &StmtsRes{
		Lifts: append(lifts, sub.Lifts...),
		Env:   sub.Env,
		Rets:  append(rets, sub.Rets...),
	}, nil
}

// destructure binds a pattern against a value. IR-level aggregates get
// one projection lift per bound name.
func (ctx *Ctx) destructure(pos ast.Pos, env *Env, pat ast.Pattern, lvl SecLevel, val Value) ([]ir.Stmt, *Env, error) {
	switch p := pat.(type) {
	case *ast.NamePat:
		env, err := env.Insert(p.Pos, p.Name, lvl, val)
		return nil, env, err

	case *ast.ArrayPat:
		switch v := val.(type) {
		case VTuple:
			if len(v.Elems) != len(p.Names) {
				return nil, nil, errAt(ErrDestructureSize, p.Pos,
					"pattern binds %d name(s), but the value has %d element(s)", len(p.Names), len(v.Elems))
			}
			var err error
			for i, name := range p.Names {
				env, err = env.Insert(p.Pos, name, lvl, v.Elems[i])
				if err != nil {
					return nil, nil, err
				}
			}
			return nil, env, nil

		case VRef:
			return ctx.destructureRef(p, env, lvl, v)

		default:
			return nil, nil, errAt(ErrExpectedTuple, p.Pos, "cannot destructure a %s value", Kind(val))
		}

	default:
		return nil, nil, errAt(ErrInternal, pos, "unhandled pattern node %T", pat)
	}
}

func (ctx *Ctx) destructureRef(p *ast.ArrayPat, env *Env, lvl SecLevel, v VRef) ([]ir.Stmt, *Env, error) {
	var lifts []ir.Stmt
	bind := func(name string, dv ir.Var) error {
		var err error
		env, err = env.Insert(p.Pos, name, lvl, VRef{V: dv})
		return err
	}
	switch t := v.V.Type.(type) {
	case ir.TTuple:
		if len(t.Elems) != len(p.Names) {
			return nil, nil, errAt(ErrDestructureSize, p.Pos,
				"pattern binds %d name(s), but the tuple has %d element(s)", len(p.Names), len(t.Elems))
		}
		for i, name := range p.Names {
			dv, err := ctx.freshVar(p.Pos, name, t.Elems[i])
			if err != nil {
				return nil, nil, err
			}
			lifts = append(lifts, ir.Let{Var: dv, Expr: ir.TupleRef{Tup: ir.VarRef{V: v.V}, Arity: len(t.Elems), Idx: i, Elem: t.Elems[i]}})
			if err := bind(name, dv); err != nil {
				return nil, nil, err
			}
		}
		return lifts, env, nil

	case ir.TArray:
		if t.Size != len(p.Names) {
			return nil, nil, errAt(ErrDestructureSize, p.Pos,
				"pattern binds %d name(s), but the array has %d element(s)", len(p.Names), t.Size)
		}
		for i, name := range p.Names {
			dv, err := ctx.freshVar(p.Pos, name, t.Elem)
			if err != nil {
				return nil, nil, err
			}
			lifts = append(lifts, ir.Let{Var: dv, Expr: ir.ArrayRef{Arr: ir.VarRef{V: v.V}, Size: t.Size, Idx: ir.ConInt{V: bigInt(i)}, Elem: t.Elem}})
			if err := bind(name, dv); err != nil {
				return nil, nil, err
			}
		}
		return lifts, env, nil

	default:
		return nil, nil, errAt(ErrExpectedTuple, p.Pos, "cannot destructure a %s reference", v.V.Type)
	}
}

func (ctx *Ctx) evalIf(sc *Scope, s *ast.If, rest []ast.Stmt) (*StmtsRes, error) {
	cond, err := ctx.EvalExpr(sc.Env, s.Cond)
	if err != nil {
		return nil, err
	}

	branchPolicy := RetMayBeEmpty
	if len(rest) == 0 {
		branchPolicy = sc.Policy
	}
	bsc := &Scope{Env: sc.Env, RetSlot: sc.RetSlot, Policy: branchPolicy, LoopVars: sc.LoopVars}

	switch cv := cond.Val.(type) {
	case VBool:
		branch := s.Then
		if !cv.V {
			branch = s.Else
		}
		sub, err := ctx.EvalStmts(bsc, branch)
		if err != nil {
			return nil, err
		}
		lifts := append(append([]ir.Stmt{}, cond.Lifts...), sub.Lifts...)
		if sub.Continued {
			if len(rest) > 0 {
				return nil, errAt(ErrNonEmptyTail, rest[0].Loc(), "statements after a continue are unreachable")
			}
			return &StmtsRes{Lifts: lifts, Env: sc.Env, Rets: sub.Rets, Continued: true}, nil
		}
		return ctx.contStmts(sc, lifts, sc.Env, sub.Rets, rest)

	case VRef:
		if !ir.TypeEqual(cv.V.Type, ir.TBool{}) {
			return nil, errAt(ErrExpectedBool, s.Cond.Loc(), "if condition must be a boolean, got %s", cv.V.Type)
		}
		thenR, err := ctx.EvalStmts(bsc, s.Then)
		if err != nil {
			return nil, err
		}
		elseR, err := ctx.EvalStmts(bsc, s.Else)
		if err != nil {
			return nil, err
		}
		_, carg, err := typeOf(s.Cond.Loc(), cond.Val)
		if err != nil {
			return nil, err
		}
		lifts := append(append([]ir.Stmt{}, cond.Lifts...),
			ir.If{Cond: carg, Then: thenR.Lifts, Else: elseR.Lifts})
		rets := make([]RetPoint, 0, len(thenR.Rets)+len(elseR.Rets))
		for _, r := range append(thenR.Rets, elseR.Rets...) {
			r.Lvl = Meet(r.Lvl, cond.Lvl)
			rets = append(rets, r)
		}
		if thenR.Continued && elseR.Continued {
			if len(rest) > 0 {
				return nil, errAt(ErrNonEmptyTail, rest[0].Loc(), "statements after a continue are unreachable")
			}
			return &StmtsRes{Lifts: lifts, Env: sc.Env, Rets: rets, Continued: true}, nil
		}
		return ctx.contStmts(sc, lifts, sc.Env, rets, rest)

	default:
		return nil, errAt(ErrExpectedBool, s.Cond.Loc(), "if condition must be a boolean, got %s", Kind(cond.Val))
	}
}

func (ctx *Ctx) evalReturn(sc *Scope, s *ast.Return) (*StmtsRes, error) {
	switch sc.Policy {
	case RetCannot:
		return nil, errAt(ErrIllegalStmt, s.Pos, "return is not legal here")
	case RetMustContinue:
		return nil, errAt(ErrIllegalStmt, s.Pos, "return inside a loop body; end the body with continue")
	}
	res := pure(Public, Value(VNull{}))
	if s.Value != nil {
		var err error
		res, err = ctx.EvalExpr(sc.Env, s.Value)
		if err != nil {
			return nil, err
		}
	}
	lifts := res.Lifts
	if sc.RetSlot >= 0 {
		if _, arg, err := typeOf(s.Pos, res.Val); err == nil {
			lifts = append(append([]ir.Stmt{}, lifts...), ir.Return{Slot: sc.RetSlot, Value: arg})
		}
	}
	return &StmtsRes{
		Lifts: lifts,
		Env:   sc.Env,
		Rets:  []RetPoint{{Pos: s.Pos, Lvl: res.Lvl, Val: res.Val}},
	}, nil
}

// evalExprStmt evaluates an expression for effect. commit and exit are
// intercepted by name before ordinary application; local answers and
// completed consensus transfers dispatch to their statement-level
// transitions.
func (ctx *Ctx) evalExprStmt(sc *Scope, s *ast.ExprStmt, rest []ast.Stmt) (*StmtsRes, error) {
	if call, ok := s.X.(*ast.Call); ok {
		if id, ok := call.Callee.(*ast.Ident); ok {
			if ent, bound := sc.Env.Lookup(id.Name); bound {
				if p, isPrim := ent.Val.(VPrim); isPrim {
					switch p.Op {
					case PrimCommit:
						return ctx.evalCommit(sc, call, rest)
					case PrimExit:
						return ctx.evalExit(sc, call, rest)
					}
				}
			}
		}
	}

	res, err := ctx.EvalExpr(sc.Env, s.X)
	if err != nil {
		return nil, err
	}

	if f, ok := res.Val.(VForm); ok {
		switch form := f.Form.(type) {
		case FormOnlyAnswer:
			if _, isNull := form.Val.(VNull); !isNull {
				return nil, errAt(ErrOnlyResultNotNull, s.Pos,
					"only block result must be null, got %s", Kind(form.Val))
			}
			ctx.PartEnvs[form.Who.Handle] = form.Penv
			return ctx.contStmts(sc, res.Lifts, sc.Env, nil, rest)

		case FormTC:
			if !form.PubSet {
				return nil, errAt(ErrMalformedForm, s.Pos, "consensus transfer is missing its publish")
			}
			return ctx.evalToConsensus(sc, s.Pos, res.Lifts, form, rest)

		case FormDApp, FormApp, FormOnly, FormTCSet:
			return nil, errAt(ErrFormInExpr, s.Pos, "%s has no effect as a statement", Kind(res.Val))
		}
	}
	return ctx.contStmts(sc, res.Lifts, sc.Env, nil, rest)
}

func (ctx *Ctx) evalExit(sc *Scope, call *ast.Call, rest []ast.Stmt) (*StmtsRes, error) {
	if ctx.Mode != ModeStep {
		return nil, errAt(ErrExitOutsideStep, call.Pos, "exit is legal only in step mode, not %s", ctx.Mode)
	}
	if len(call.Args) != 0 {
		return nil, errAt(ErrExitArgs, call.Pos, "exit takes no arguments, got %d", len(call.Args))
	}
	if len(rest) > 0 {
		return nil, errAt(ErrExitNonEmptyTail, rest[0].Loc(), "statements after exit are unreachable")
	}
	return &StmtsRes{Lifts: []ir.Stmt{ir.Stop{}}, Env: sc.Env}, nil
}

// evalCommit closes the consensus round: bindings introduced since the
// round opened propagate into every participant's private environment,
// and the remaining statements run back in step mode inside a single
// from-consensus wrapper.
func (ctx *Ctx) evalCommit(sc *Scope, call *ast.Call, rest []ast.Stmt) (*StmtsRes, error) {
	if ctx.Mode != ModeConsensus {
		return nil, ctx.errMode(call.Pos, "commit")
	}
	if len(call.Args) != 0 {
		return nil, errAt(ErrArgCount, call.Pos, "commit takes no arguments, got %d", len(call.Args))
	}
	if ctx.Snapshot == nil {
		return nil, errAt(ErrInternal, call.Pos, "consensus round has no opening snapshot")
	}

	introduced := DiffNames(sc.Env, ctx.Snapshot)
	for handle, penv := range ctx.PartEnvs {
		next := penv
		for _, name := range introduced {
			if _, bound := next.Lookup(name); bound {
				continue
			}
			ent, _ := sc.Env.Lookup(name)
			var err error
			next, err = next.Insert(call.Pos, name, ent.Level, ent.Val)
			if err != nil {
				return nil, err
			}
		}
		ctx.PartEnvs[handle] = next
	}

	sctx := ctx.withMode(ModeStep)
	sctx.Snapshot = nil
	sub, err := sctx.EvalStmts(sc, rest)
	if err != nil {
		return nil, err
	}
	return &StmtsRes{
		Lifts: []ir.Stmt{ir.FromConsensus{Body: sub.Lifts}},
		Env:   sub.Env,
		Rets:  sub.Rets,
	}, nil
}

// evalToConsensus fires a completed publish chain: the published values
// move from the publisher's private environment into the shared one as
// fresh variables, the optional payment is checked against the
// ledger-native amount, and the remaining statements elaborate in
// consensus mode inside the emitted to-consensus statement.
func (ctx *Ctx) evalToConsensus(sc *Scope, pos ast.Pos, prior []ir.Stmt, acc FormTC, rest []ast.Stmt) (*StmtsRes, error) {
	if ctx.Mode != ModeStep {
		return nil, ctx.errMode(pos, "publish")
	}
	who := acc.Who
	penv, ok := ctx.PartEnvs[who.Handle]
	if !ok {
		return nil, errAt(ErrInternal, pos, "no private environment for participant %q", who.Handle)
	}

	addr, known := ctx.PartAddrs[who.Handle]
	if !known {
		var err error
		addr, err = ctx.freshVar(pos, who.DisplayName(), ir.TAddress{})
		if err != nil {
			return nil, err
		}
		ctx.PartAddrs[who.Handle] = addr
		who.Addr = &addr
	}

	env := sc.Env
	vars := make([]ir.Var, 0, len(acc.Pub))
	for _, name := range acc.Pub {
		ent, bound := penv.Lookup(name)
		if !bound {
			return nil, errUnbound(pos, name, penv.Names())
		}
		if _, err := ensurePublic(pos, ent.Level, ent.Val, "published value "+name); err != nil {
			return nil, err
		}
		t, _, err := typeOf(pos, ent.Val)
		if err != nil {
			return nil, err
		}
		dv, err := ctx.freshVar(pos, name, t)
		if err != nil {
			return nil, err
		}
		vars = append(vars, dv)
		env, err = env.Insert(pos, name, Public, VRef{V: dv})
		if err != nil {
			return nil, err
		}
		for handle, pe := range ctx.PartEnvs {
			if _, bound := pe.Lookup(name); bound {
				continue
			}
			pe, err = pe.Insert(pos, name, Public, VRef{V: dv})
			if err != nil {
				return nil, err
			}
			ctx.PartEnvs[handle] = pe
		}
	}

	lifts := append([]ir.Stmt{}, prior...)
	var payLifts []ir.Stmt
	var amount ir.Arg
	if acc.Pay != nil {
		pctx := ctx.withMode(ModeLocalStep)
		pctx.OnlyWho = who.Handle
		payRes, err := pctx.EvalExpr(ctx.PartEnvs[who.Handle], acc.Pay)
		if err != nil {
			return nil, err
		}
		if _, err := ensurePublic(acc.Pay.Loc(), payRes.Lvl, payRes.Val, "payment amount"); err != nil {
			return nil, err
		}
		t, arg, err := typeOf(acc.Pay.Loc(), payRes.Val)
		if err != nil {
			return nil, err
		}
		if !ir.TypeEqual(t, ir.TUInt256{}) {
			return nil, errAt(ErrTypeMismatch, acc.Pay.Loc(), "payment amount must be uint256, got %s", t)
		}
		if len(payRes.Lifts) > 0 {
			lifts = append(lifts, ir.Only{Who: who.Handle, Body: payRes.Lifts})
		}
		amount = arg
		payLifts, err = ctx.payAssertion(pos, arg)
		if err != nil {
			return nil, err
		}
	}

	var timeout *ir.Timeout
	if acc.Timeout != nil {
		var err error
		timeout, err = ctx.evalTimeout(sc, acc.Timeout)
		if err != nil {
			return nil, err
		}
	}

	cctx := ctx.withMode(ModeConsensus)
	cctx.Snapshot = env
	sub, err := cctx.EvalStmts(sc.withEnv(env), rest)
	if err != nil {
		return nil, err
	}

	tc := ir.ToConsensus{
		Who:       who.Handle,
		FirstJoin: !known,
		Fields:    acc.Pub,
		Vars:      vars,
		Amount:    amount,
		Timeout:   timeout,
		Body:      append(payLifts, sub.Lifts...),
	}
	return &StmtsRes{
		Lifts: append(lifts, tc),
		Env:   sub.Env,
		Rets:  sub.Rets,
	}, nil
}

// payAssertion injects the ledger-native-amount-equals-declared-amount
// requirement at the head of the consensus body.
func (ctx *Ctx) payAssertion(pos ast.Pos, amount ir.Arg) ([]ir.Stmt, error) {
	tv, err := ctx.freshVar(pos, "txn.value", ir.TUInt256{})
	if err != nil {
		return nil, err
	}
	eq, err := ctx.freshVar(pos, "", ir.TBool{})
	if err != nil {
		return nil, err
	}
	return []ir.Stmt{
		ir.Let{Var: tv, Expr: ir.PrimApp{Op: string(PrimTxnValue), Rng: ir.TUInt256{}}},
		ir.Let{Var: eq, Expr: ir.PrimApp{Op: string(PrimEq), Args: []ir.Arg{ir.VarRef{V: tv}, amount}, Rng: ir.TBool{}}},
		ir.Claim{Kind: ir.ClaimRequire, Cond: ir.VarRef{V: eq}},
	}, nil
}

// evalTimeout elaborates the timeout arm eagerly under the shared view.
func (ctx *Ctx) evalTimeout(sc *Scope, to *TCTimeout) (*ir.Timeout, error) {
	delayRes, err := ctx.EvalExpr(sc.Env, to.Delay)
	if err != nil {
		return nil, err
	}
	if _, err := ensurePublic(to.Delay.Loc(), delayRes.Lvl, delayRes.Val, "timeout delay"); err != nil {
		return nil, err
	}
	t, delay, err := typeOf(to.Delay.Loc(), delayRes.Val)
	if err != nil {
		return nil, err
	}
	if !ir.TypeEqual(t, ir.TUInt256{}) {
		return nil, errAt(ErrTypeMismatch, to.Delay.Loc(), "timeout delay must be uint256, got %s", t)
	}

	thunkRes, err := ctx.EvalExpr(sc.Env, to.Handler)
	if err != nil {
		return nil, err
	}
	clo, ok := thunkRes.Val.(*VClosure)
	if !ok {
		return nil, errAt(ErrTypeMismatch, to.Handler.Loc(), "timeout handler must be a function, got %s", Kind(thunkRes.Val))
	}
	handler, err := ctx.applyClosure(to.Handler.Loc(), clo, nil, nil)
	if err != nil {
		return nil, err
	}
	body := append(append([]ir.Stmt{}, delayRes.Lifts...), append(thunkRes.Lifts, handler.Lifts...)...)
	return &ir.Timeout{Delay: delay, Body: body}, nil
}

// evalLoopForm matches and elaborates the var/invariant/while loop.
func (ctx *Ctx) evalLoopForm(sc *Scope, vd *ast.VarDecl, rest []ast.Stmt) (*StmtsRes, error) {
	if ctx.Mode != ModeConsensus {
		return nil, errAt(ErrWhileOutside, vd.Pos, "loops are legal only in consensus mode, not %s", ctx.Mode)
	}
	if len(rest) < 2 {
		return nil, errAt(ErrWhileShape, vd.Pos, "var must be followed by invariant(...) and while(...)")
	}
	invStmt, ok := rest[0].(*ast.ExprStmt)
	if !ok {
		return nil, errAt(ErrWhileShape, rest[0].Loc(), "var must be followed by invariant(...)")
	}
	invCall, ok := invStmt.X.(*ast.Call)
	if !ok {
		return nil, errAt(ErrWhileShape, invStmt.Pos, "var must be followed by invariant(...)")
	}
	invId, ok := invCall.Callee.(*ast.Ident)
	if !ok || invId.Name != "invariant" {
		return nil, errAt(ErrWhileShape, invCall.Pos, "var must be followed by invariant(...)")
	}
	if err := zipEq(invCall.Pos, "invariant", 1, len(invCall.Args)); err != nil {
		return nil, err
	}
	wh, ok := rest[1].(*ast.While)
	if !ok {
		return nil, errAt(ErrWhileShape, rest[1].Loc(), "invariant(...) must be followed by while(...)")
	}
	tail := rest[2:]

	initRes, err := ctx.EvalExpr(sc.Env, vd.Value)
	if err != nil {
		return nil, err
	}
	names, initVals, err := loopInits(vd, initRes.Val)
	if err != nil {
		return nil, err
	}

	env := sc.Env
	loopVars := make(map[string]ir.Var, len(names))
	inits := make([]ir.VarInit, 0, len(names))
	for i, name := range names {
		t, arg, err := typeOf(vd.Pos, initVals[i])
		if err != nil {
			return nil, err
		}
		dv, err := ctx.freshVar(vd.Pos, name, t)
		if err != nil {
			return nil, err
		}
		loopVars[name] = dv
		inits = append(inits, ir.VarInit{Var: dv, Value: arg})
		env, err = env.Insert(vd.Pos, name, initRes.Lvl, VRef{V: dv})
		if err != nil {
			return nil, err
		}
	}

	invariant, err := ctx.boolBlock(env, invCall.Args[0], "loop invariant")
	if err != nil {
		return nil, err
	}
	cond, err := ctx.boolBlock(env, wh.Cond, "loop condition")
	if err != nil {
		return nil, err
	}

	bsc := &Scope{Env: env, RetSlot: sc.RetSlot, Policy: RetMustContinue, LoopVars: loopVars}
	body, err := ctx.EvalStmts(bsc, wh.Body)
	if err != nil {
		return nil, err
	}

	loop := ir.While{Inits: inits, Invariant: invariant, Cond: cond, Body: body.Lifts}
	lifts := append(append([]ir.Stmt{}, initRes.Lifts...), loop)
	return ctx.contStmts(sc, lifts, env, nil, tail)
}

func loopInits(vd *ast.VarDecl, val Value) ([]string, []Value, error) {
	switch p := vd.Pat.(type) {
	case *ast.NamePat:
		return []string{p.Name}, []Value{val}, nil
	case *ast.ArrayPat:
		tup, ok := val.(VTuple)
		if !ok {
			return nil, nil, errAt(ErrExpectedTuple, p.Pos, "loop variable initializer must be a tuple, got %s", Kind(val))
		}
		if len(tup.Elems) != len(p.Names) {
			return nil, nil, errAt(ErrDestructureSize, p.Pos,
				"pattern binds %d name(s), but the initializer has %d element(s)", len(p.Names), len(tup.Elems))
		}
		return p.Names, tup.Elems, nil
	default:
		return nil, nil, errAt(ErrInternal, vd.Pos, "unhandled pattern node %T", vd.Pat)
	}
}

// boolBlock elaborates an expression as a self-contained boolean block.
func (ctx *Ctx) boolBlock(env *Env, e ast.Expr, what string) (ir.Block, error) {
	res, err := ctx.EvalExpr(env, e)
	if err != nil {
		return ir.Block{}, err
	}
	t, arg, err := typeOf(e.Loc(), res.Val)
	if err != nil {
		return ir.Block{}, err
	}
	if !ir.TypeEqual(t, ir.TBool{}) {
		return ir.Block{}, errAt(ErrExpectedBool, e.Loc(), "%s must be a boolean, got %s", what, t)
	}
	return ir.Block{Stmts: res.Lifts, Result: arg}, nil
}

// evalContinue closes a loop body. A trailing destructuring assignment
// supplies the per-variable reassignments; a bare continue carries none.
func (ctx *Ctx) evalContinue(sc *Scope, pos ast.Pos, assign *ast.Assign) (*StmtsRes, error) {
	if sc.LoopVars == nil {
		return nil, errAt(ErrContinueOutside, pos, "continue outside a loop")
	}
	var updates []ir.VarUpdate
	var lifts []ir.Stmt
	if assign != nil {
		names, err := assignNames(assign)
		if err != nil {
			return nil, err
		}
		res, err := ctx.EvalExpr(sc.Env, assign.Rhs)
		if err != nil {
			return nil, err
		}
		tup, ok := res.Val.(VTuple)
		if !ok {
			return nil, errAt(ErrExpectedTuple, assign.Rhs.Loc(), "continue assignment must be a tuple, got %s", Kind(res.Val))
		}
		if len(tup.Elems) != len(names) {
			return nil, errAt(ErrDestructureSize, assign.Pos,
				"continue reassigns %d name(s), but the value has %d element(s)", len(names), len(tup.Elems))
		}
		lifts = res.Lifts
		for i, name := range names {
			lv, ok := sc.LoopVars[name]
			if !ok {
				e := errAt(ErrContinueNotLoopVar, assign.Pos, "%q is not a loop variable", name)
				e.Names = []string{name}
				e.Suggestions = suggest(name, loopVarNames(sc.LoopVars), 5)
				return nil, e
			}
			t, arg, err := typeOf(assign.Pos, tup.Elems[i])
			if err != nil {
				return nil, err
			}
			if _, err := typeMeet(assign.Pos, lv.Type, assign.Pos, t); err != nil {
				return nil, err
			}
			updates = append(updates, ir.VarUpdate{Var: lv, Value: arg})
		}
	}
	return &StmtsRes{
		Lifts:     append(lifts, ir.Continue{Updates: updates}),
		Env:       sc.Env,
		Continued: true,
	}, nil
}

// assignNames accepts only the trivial array-destructuring shape.
func assignNames(assign *ast.Assign) ([]string, error) {
	arr, ok := assign.Lhs.(*ast.ArrayLit)
	if !ok {
		return nil, errAt(ErrIllegalAssign, assign.Pos, "only [name, ...] = [...] assignments are legal, immediately before continue")
	}
	names := make([]string, len(arr.Elems))
	for i, e := range arr.Elems {
		id, ok := e.(*ast.Ident)
		if !ok {
			return nil, errAt(ErrIllegalAssign, e.Loc(), "only plain names are legal on the left of a continue assignment")
		}
		names[i] = id.Name
	}
	return names, nil
}

func loopVarNames(m map[string]ir.Var) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
