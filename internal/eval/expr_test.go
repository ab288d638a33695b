package eval

import (
	"errors"
	"math/big"
	"testing"

	"github.com/temptemp3/reach-lang/internal/ast"
	"github.com/temptemp3/reach-lang/internal/ir"
	"github.com/temptemp3/reach-lang/internal/testutil"
)

func newTestCtx(t *testing.T) (*Ctx, *Env) {
	t.Helper()
	env, err := Stdlib()
	if err != nil {
		t.Fatalf("Stdlib: %v", err)
	}
	ctx := &Ctx{
		Mode:      ModeConsensus,
		Counter:   NewCounter(),
		Base:      env,
		PartAddrs: map[string]ir.Var{},
		PartEnvs:  map[string]*Env{},
	}
	return ctx, env
}

// bindRef extends env with a symbolic variable of the given type.
func bindRef(t *testing.T, ctx *Ctx, env *Env, name string, typ ir.Type, lvl SecLevel) (*Env, ir.Var) {
	t.Helper()
	dv, err := ctx.freshVar(ast.Pos{Line: 1, Col: 1}, name, typ)
	if err != nil {
		t.Fatalf("freshVar: %v", err)
	}
	next, err := env.Insert(ast.Pos{Line: 1, Col: 1}, name, lvl, VRef{V: dv})
	if err != nil {
		t.Fatalf("Insert(%q): %v", name, err)
	}
	return next, dv
}

func TestEvalExpr_ConstantFolding(t *testing.T) {
	ctx, env := newTestCtx(t)
	b := testutil.NewB("t.rsh")

	cases := []struct {
		name string
		e    ast.Expr
		want int64
	}{
		{"add", b.Bin("+", b.IntN(1), b.IntN(2)), 3},
		{"nested", b.Bin("*", b.Bin("+", b.IntN(2), b.IntN(3)), b.IntN(4)), 20},
		{"sub", b.Bin("-", b.IntN(10), b.IntN(4)), 6},
		{"mod", b.Bin("%", b.IntN(9), b.IntN(4)), 1},
	}
	for _, c := range cases {
		res, err := ctx.EvalExpr(env, c.e)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if len(res.Lifts) != 0 {
			t.Errorf("%s: folded expression lifted %d statements", c.name, len(res.Lifts))
		}
		if res.Lvl != Public {
			t.Errorf("%s: level = %s, want Public", c.name, res.Lvl)
		}
		iv, ok := res.Val.(VInt)
		if !ok || iv.V.Int64() != c.want {
			t.Errorf("%s: value = %#v, want %d", c.name, res.Val, c.want)
		}
	}
}

func TestEvalExpr_ConstantFoldingErrors(t *testing.T) {
	ctx, env := newTestCtx(t)
	b := testutil.NewB("t.rsh")

	cases := []struct {
		name string
		e    ast.Expr
	}{
		{"div by zero", b.Bin("/", b.IntN(1), b.IntN(0))},
		{"underflow", b.Bin("-", b.IntN(1), b.IntN(2))},
	}
	for _, c := range cases {
		_, err := ctx.EvalExpr(env, c.e)
		if CodeOf(err) != ErrTypeMismatch {
			t.Errorf("%s: code = %s, want %s", c.name, CodeOf(err), ErrTypeMismatch)
		}
	}
}

func TestEvalExpr_SymbolicArithLifts(t *testing.T) {
	ctx, env := newTestCtx(t)
	b := testutil.NewB("t.rsh")
	env, xv := bindRef(t, ctx, env, "x", ir.TUInt256{}, Public)

	res, err := ctx.EvalExpr(env, b.Bin("+", b.Id("x"), b.IntN(1)))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Lifts) != 1 {
		t.Fatalf("lifted %d statements, want 1", len(res.Lifts))
	}
	let, ok := res.Lifts[0].(ir.Let)
	if !ok {
		t.Fatalf("lift is %T, want ir.Let", res.Lifts[0])
	}
	app, ok := let.Expr.(ir.PrimApp)
	if !ok || app.Op != "ADD" {
		t.Fatalf("lifted expr = %#v, want ADD PrimApp", let.Expr)
	}
	if !ir.ArgEqual(app.Args[0], ir.VarRef{V: xv}) {
		t.Errorf("first operand = %#v, want ref to x", app.Args[0])
	}
	ref, ok := res.Val.(VRef)
	if !ok || !ir.TypeEqual(ref.V.Type, ir.TUInt256{}) {
		t.Errorf("result = %#v, want uint256 ref", res.Val)
	}
}

func TestEvalExpr_UnboundIdentSuggests(t *testing.T) {
	ctx, env := newTestCtx(t)
	b := testutil.NewB("t.rsh")

	_, err := ctx.EvalExpr(env, b.Id("declasify"))
	if CodeOf(err) != ErrUnbound {
		t.Fatalf("code = %s, want %s", CodeOf(err), ErrUnbound)
	}
	var ee *Error
	if !errors.As(err, &ee) {
		t.Fatal("error is not an *Error")
	}
	found := false
	for _, s := range ee.Suggestions {
		if s == "declassify" {
			found = true
		}
	}
	if !found {
		t.Errorf("suggestions = %v, want to include declassify", ee.Suggestions)
	}
}

func TestEvalExpr_TernaryConcreteCondition(t *testing.T) {
	ctx, env := newTestCtx(t)
	b := testutil.NewB("t.rsh")
	env, _ = bindRef(t, ctx, env, "x", ir.TUInt256{}, Public)

	// The untaken branch would lift, but a concrete condition discards it.
	res, err := ctx.EvalExpr(env, b.Tern(b.Bool(false), b.Bin("+", b.Id("x"), b.IntN(1)), b.IntN(9)))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Lifts) != 0 {
		t.Errorf("dead branch contributed %d lifts", len(res.Lifts))
	}
	iv, ok := res.Val.(VInt)
	if !ok || iv.V.Int64() != 9 {
		t.Errorf("value = %#v, want 9", res.Val)
	}

	// Taken branch keeps its lifts.
	res, err = ctx.EvalExpr(env, b.Tern(b.Bool(true), b.Bin("+", b.Id("x"), b.IntN(1)), b.IntN(9)))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Lifts) != 1 {
		t.Errorf("taken branch lifted %d statements, want 1", len(res.Lifts))
	}
}

func TestEvalExpr_TernarySymbolicLiftless(t *testing.T) {
	ctx, env := newTestCtx(t)
	b := testutil.NewB("t.rsh")
	env, _ = bindRef(t, ctx, env, "c", ir.TBool{}, Public)

	res, err := ctx.EvalExpr(env, b.Tern(b.Id("c"), b.IntN(1), b.IntN(2)))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Lifts) != 1 {
		t.Fatalf("lifted %d statements, want a single ite let", len(res.Lifts))
	}
	let, ok := res.Lifts[0].(ir.Let)
	if !ok {
		t.Fatalf("lift is %T, want ir.Let", res.Lifts[0])
	}
	if app, ok := let.Expr.(ir.PrimApp); !ok || app.Op != "IF_THEN_ELSE" {
		t.Fatalf("lifted expr = %#v, want IF_THEN_ELSE PrimApp", let.Expr)
	}
}

func TestEvalExpr_TernarySymbolicWithLiftsPrompts(t *testing.T) {
	ctx, env := newTestCtx(t)
	b := testutil.NewB("t.rsh")
	env, _ = bindRef(t, ctx, env, "c", ir.TBool{}, Public)
	env, _ = bindRef(t, ctx, env, "x", ir.TUInt256{}, Public)

	res, err := ctx.EvalExpr(env, b.Tern(b.Id("c"), b.Bin("+", b.Id("x"), b.IntN(1)), b.IntN(2)))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Lifts) != 1 {
		t.Fatalf("lifted %d statements, want a single prompt", len(res.Lifts))
	}
	prompt, ok := res.Lifts[0].(ir.Prompt)
	if !ok {
		t.Fatalf("lift is %T, want ir.Prompt", res.Lifts[0])
	}
	if len(prompt.Body) != 1 {
		t.Fatalf("prompt body has %d statements, want one if", len(prompt.Body))
	}
	if _, ok := prompt.Body[0].(ir.If); !ok {
		t.Fatalf("prompt body is %T, want ir.If", prompt.Body[0])
	}
	if ref, ok := res.Val.(VRef); !ok || ref.V.Idx != prompt.Var.Idx {
		t.Errorf("result = %#v, want ref to the prompt variable", res.Val)
	}
}

func TestEvalExpr_TupleIndexing(t *testing.T) {
	ctx, env := newTestCtx(t)
	b := testutil.NewB("t.rsh")
	env = mustInsert(t, env, "tup", Public, VTuple{Elems: []Value{
		VInt{V: big.NewInt(10)}, VInt{V: big.NewInt(20)},
	}})

	res, err := ctx.EvalExpr(env, b.Index(b.Id("tup"), b.IntN(1)))
	if err != nil {
		t.Fatal(err)
	}
	if iv, ok := res.Val.(VInt); !ok || iv.V.Int64() != 20 {
		t.Errorf("tup[1] = %#v, want 20", res.Val)
	}

	_, err = ctx.EvalExpr(env, b.Index(b.Id("tup"), b.IntN(2)))
	if CodeOf(err) != ErrRefOutOfBounds {
		t.Errorf("tup[2]: code = %s, want %s", CodeOf(err), ErrRefOutOfBounds)
	}
}

func TestTupleBound(t *testing.T) {
	if _, err := tupleBound(ast.Pos{}, 3, big.NewInt(-1)); CodeOf(err) != ErrRefOutOfBounds {
		t.Errorf("negative index: code = %s, want %s", CodeOf(err), ErrRefOutOfBounds)
	}
	if _, err := tupleBound(ast.Pos{}, 3, big.NewInt(3)); CodeOf(err) != ErrRefOutOfBounds {
		t.Errorf("index == size: code = %s, want %s", CodeOf(err), ErrRefOutOfBounds)
	}
	i, err := tupleBound(ast.Pos{}, 3, big.NewInt(2))
	if err != nil || i != 2 {
		t.Errorf("tupleBound(3, 2) = %d, %v", i, err)
	}
}

func TestEvalExpr_SymbolicTupleRef(t *testing.T) {
	ctx, env := newTestCtx(t)
	b := testutil.NewB("t.rsh")
	tt := ir.TTuple{Elems: []ir.Type{ir.TUInt256{}, ir.TBool{}}}
	env, _ = bindRef(t, ctx, env, "tup", tt, Public)

	res, err := ctx.EvalExpr(env, b.Index(b.Id("tup"), b.IntN(1)))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Lifts) != 1 {
		t.Fatalf("lifted %d statements, want 1", len(res.Lifts))
	}
	let := res.Lifts[0].(ir.Let)
	tr, ok := let.Expr.(ir.TupleRef)
	if !ok || tr.Idx != 1 || tr.Arity != 2 {
		t.Fatalf("lifted expr = %#v, want TupleRef idx 1 arity 2", let.Expr)
	}
	if ref, ok := res.Val.(VRef); !ok || !ir.TypeEqual(ref.V.Type, ir.TBool{}) {
		t.Errorf("result = %#v, want bool ref", res.Val)
	}
}

func TestEvalExpr_Declassify(t *testing.T) {
	ctx, env := newTestCtx(t)
	b := testutil.NewB("t.rsh")
	env, _ = bindRef(t, ctx, env, "s", ir.TUInt256{}, Secret)

	res, err := ctx.EvalExpr(env, b.Call(b.Id("declassify"), b.Id("s")))
	if err != nil {
		t.Fatal(err)
	}
	if res.Lvl != Public {
		t.Errorf("level after declassify = %s, want Public", res.Lvl)
	}

	_, err = ctx.EvalExpr(env, b.Call(b.Id("declassify"), b.Call(b.Id("declassify"), b.Id("s"))))
	if CodeOf(err) != ErrExpectedPrivate {
		t.Errorf("double declassify: code = %s, want %s", CodeOf(err), ErrExpectedPrivate)
	}
}

func TestEvalExpr_ShortCircuitSugar(t *testing.T) {
	ctx, env := newTestCtx(t)
	b := testutil.NewB("t.rsh")

	res, err := ctx.EvalExpr(env, b.Bin("&&", b.Bool(true), b.Bool(false)))
	if err != nil {
		t.Fatal(err)
	}
	if bv, ok := res.Val.(VBool); !ok || bv.V {
		t.Errorf("true && false = %#v, want false", res.Val)
	}

	res, err = ctx.EvalExpr(env, b.Bin("||", b.Bool(false), b.Bool(true)))
	if err != nil {
		t.Fatal(err)
	}
	if bv, ok := res.Val.(VBool); !ok || !bv.V {
		t.Errorf("false || true = %#v, want true", res.Val)
	}

	res, err = ctx.EvalExpr(env, b.Bin("!=", b.IntN(1), b.IntN(2)))
	if err != nil {
		t.Fatal(err)
	}
	if bv, ok := res.Val.(VBool); !ok || !bv.V {
		t.Errorf("1 != 2 = %#v, want true", res.Val)
	}
}

func TestEvalExpr_ObjectLiteral(t *testing.T) {
	ctx, env := newTestCtx(t)
	b := testutil.NewB("t.rsh")

	res, err := ctx.EvalExpr(env, b.Obj(
		b.Field("a", b.IntN(1)),
		b.Field("b", b.Bool(true)),
	))
	if err != nil {
		t.Fatal(err)
	}
	ov, ok := res.Val.(VObject)
	if !ok {
		t.Fatalf("value = %#v, want VObject", res.Val)
	}
	if _, ok := ov.Fields["a"]; !ok {
		t.Error("field a missing")
	}

	// Duplicate keys are rejected, including via spread.
	_, err = ctx.EvalExpr(env, b.Obj(b.Field("a", b.IntN(1)), b.Field("a", b.IntN(2))))
	if err == nil {
		t.Error("duplicate object key did not fail")
	}
}

func TestEvalExpr_MemberNotFound(t *testing.T) {
	ctx, env := newTestCtx(t)
	b := testutil.NewB("t.rsh")
	env = mustInsert(t, env, "o", Public, VObject{Fields: map[string]Value{"a": VNull{}}})

	_, err := ctx.EvalExpr(env, b.Member(b.Id("o"), "b"))
	if CodeOf(err) != ErrFieldNotFound {
		t.Errorf("code = %s, want %s", CodeOf(err), ErrFieldNotFound)
	}
}

func TestEvalExpr_ClosureApplication(t *testing.T) {
	ctx, env := newTestCtx(t)
	b := testutil.NewB("t.rsh")

	// ((x, y) => { return x + y; })(3, 4)
	fn := b.Arrow([]string{"x", "y"}, b.Ret(b.Bin("+", b.Id("x"), b.Id("y"))))
	res, err := ctx.EvalExpr(env, b.Call(fn, b.IntN(3), b.IntN(4)))
	if err != nil {
		t.Fatal(err)
	}
	if iv, ok := res.Val.(VInt); !ok || iv.V.Int64() != 7 {
		t.Errorf("application = %#v, want 7", res.Val)
	}
	if len(res.Lifts) != 0 {
		t.Errorf("constant application lifted %d statements", len(res.Lifts))
	}

	// Application arity goes through the uniform length check.
	_, err = ctx.EvalExpr(env, b.Call(b.Arrow([]string{"x"}, b.Ret(b.Id("x"))), b.IntN(1), b.IntN(2)))
	if CodeOf(err) != ErrArgCount {
		t.Errorf("arity: code = %s, want %s", CodeOf(err), ErrArgCount)
	}
}

func TestEvalExpr_ClosureImplicitNull(t *testing.T) {
	ctx, env := newTestCtx(t)
	b := testutil.NewB("t.rsh")

	res, err := ctx.EvalExpr(env, b.Call(b.Arrow(nil, b.ExprS(b.Bin("+", b.IntN(1), b.IntN(1))))))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Val.(VNull); !ok {
		t.Errorf("no-return body = %#v, want null", res.Val)
	}
}

func TestCheckAndConvert_LengthBeforeTypes(t *testing.T) {
	dom := []ir.Type{ir.TUInt256{}, ir.TUInt256{}}
	// Wrong length and wrong types at once: the length error wins.
	_, err := checkAndConvert(ast.Pos{}, "f", dom, []Value{VBool{V: true}})
	if CodeOf(err) != ErrArgCount {
		t.Errorf("code = %s, want %s", CodeOf(err), ErrArgCount)
	}
}

func TestFreshVar_RequiresCounter(t *testing.T) {
	ctx, _ := newTestCtx(t)
	ctx.Counter = nil
	if _, err := ctx.freshVar(ast.Pos{}, "x", ir.TUInt256{}); CodeOf(err) != ErrNoCounter {
		t.Errorf("code = %s, want %s", CodeOf(err), ErrNoCounter)
	}
}
