package eval

import (
	"math/big"

	"github.com/temptemp3/reach-lang/internal/ast"
	"github.com/temptemp3/reach-lang/internal/ir"
)

// PrimOp enumerates the primitive operators.
type PrimOp string

const (
	PrimAdd PrimOp = "ADD"
	PrimSub PrimOp = "SUB"
	PrimMul PrimOp = "MUL"
	PrimDiv PrimOp = "DIV"
	PrimMod PrimOp = "MOD"

	PrimLt PrimOp = "PLT"
	PrimLe PrimOp = "PLE"
	PrimEq PrimOp = "PEQ"
	PrimGe PrimOp = "PGE"
	PrimGt PrimOp = "PGT"

	PrimBand PrimOp = "BAND"
	PrimBior PrimOp = "BIOR"
	PrimBxor PrimOp = "BXOR"
	PrimLsh  PrimOp = "LSH"
	PrimRsh  PrimOp = "RSH"

	PrimNot PrimOp = "NOT"
	PrimIte PrimOp = "IF_THEN_ELSE"

	// TxnValue reads the ledger-native amount attached to the current
	// consensus transfer; emitted by the payment assertion.
	PrimTxnValue PrimOp = "TXN_VALUE"

	PrimAssert   PrimOp = "CLAIM_ASSERT"
	PrimAssume   PrimOp = "CLAIM_ASSUME"
	PrimRequire  PrimOp = "CLAIM_REQUIRE"
	PrimPossible PrimOp = "CLAIM_POSSIBLE"

	PrimDeclassify PrimOp = "DECLASSIFY"
	PrimCommit     PrimOp = "COMMIT"
	PrimExit       PrimOp = "EXIT"
	PrimTransfer   PrimOp = "TRANSFER"
	PrimMakeEnum   PrimOp = "MAKE_ENUM"

	PrimArrayType  PrimOp = "TYPE_ARRAY"
	PrimTupleType  PrimOp = "TYPE_TUPLE"
	PrimObjectType PrimOp = "TYPE_OBJECT"
	PrimFunType    PrimOp = "TYPE_FUN"
)

// surfaceBinOps maps surface operators to primitives. The short-circuit
// forms && and || and the inequality != are absent on purpose: they
// desugar to ordinary identifiers looked up in the environment.
var surfaceBinOps = map[string]PrimOp{
	"+":  PrimAdd,
	"-":  PrimSub,
	"*":  PrimMul,
	"/":  PrimDiv,
	"%":  PrimMod,
	"<":  PrimLt,
	"<=": PrimLe,
	"==": PrimEq,
	">=": PrimGe,
	">":  PrimGt,
	"&":  PrimBand,
	"|":  PrimBior,
	"^":  PrimBxor,
	"<<": PrimLsh,
	">>": PrimRsh,
}

// surfaceSugar maps short-circuit surface operators to the stdlib
// identifiers they desugar to.
var surfaceSugar = map[string]string{
	"&&": "and",
	"||": "or",
	"!=": "neq",
}

var stdlibPos = ast.Pos{File: "<stdlib>", Line: 1, Col: 1}

// Stdlib builds the shared standard library environment: types, type
// constructors, claims, the consensus primitives, the program
// declaration, and the synthetic and/or/neq closures.
func Stdlib() (*Env, error) {
	env := NewEnv()
	insert := func(name string, v Value) error {
		var err error
		env, err = env.Insert(stdlibPos, name, Public, v)
		return err
	}

	bindings := []struct {
		name string
		v    Value
	}{
		{"UInt256", VType{T: ir.TUInt256{}}},
		{"Bool", VType{T: ir.TBool{}}},
		{"Bytes", VType{T: ir.TBytes{}}},
		{"Address", VType{T: ir.TAddress{}}},
		{"Null", VType{T: ir.TNull{}}},
		{"Array", VPrim{Op: PrimArrayType}},
		{"Tuple", VPrim{Op: PrimTupleType}},
		{"Object", VPrim{Op: PrimObjectType}},
		{"Fun", VPrim{Op: PrimFunType}},
		{"assert", VPrim{Op: PrimAssert}},
		{"assume", VPrim{Op: PrimAssume}},
		{"require", VPrim{Op: PrimRequire}},
		{"possible", VPrim{Op: PrimPossible}},
		{"declassify", VPrim{Op: PrimDeclassify}},
		{"commit", VPrim{Op: PrimCommit}},
		{"exit", VPrim{Op: PrimExit}},
		{"transfer", VPrim{Op: PrimTransfer}},
		{"makeEnum", VPrim{Op: PrimMakeEnum}},
		{"Reach", VObject{Fields: map[string]Value{"App": VForm{Form: FormApp{}}}}},
	}
	for _, b := range bindings {
		if err := insert(b.name, b.v); err != nil {
			return nil, err
		}
	}

	// Short-circuit booleans and inequality are ordinary closures so the
	// operator desugaring stays a plain identifier lookup.
	syn := func(name string, body ast.Expr) *VClosure {
		return &VClosure{
			Name:   name,
			Params: []string{"x", "y"},
			Body:   []ast.Stmt{&ast.Return{Pos: stdlibPos, Value: body}},
			Env:    env,
			Pos:    stdlibPos,
		}
	}
	x := &ast.Ident{Pos: stdlibPos, Name: "x"}
	y := &ast.Ident{Pos: stdlibPos, Name: "y"}
	closures := []struct {
		name string
		body ast.Expr
	}{
		{"and", &ast.Ternary{Pos: stdlibPos, Cond: x, Then: y, Else: &ast.BoolLit{Pos: stdlibPos, Value: false}}},
		{"or", &ast.Ternary{Pos: stdlibPos, Cond: x, Then: &ast.BoolLit{Pos: stdlibPos, Value: true}, Else: y}},
		{"neq", &ast.Unary{Pos: stdlibPos, Op: "!", Operand: &ast.Binary{Pos: stdlibPos, Op: "==", Left: x, Right: y}}},
	}
	for _, c := range closures {
		if err := insert(c.name, syn(c.name, c.body)); err != nil {
			return nil, err
		}
	}
	return env, nil
}

var (
	arithOps = map[PrimOp]bool{
		PrimAdd: true, PrimSub: true, PrimMul: true, PrimDiv: true, PrimMod: true,
		PrimBand: true, PrimBior: true, PrimBxor: true, PrimLsh: true, PrimRsh: true,
	}
	relOps = map[PrimOp]bool{
		PrimLt: true, PrimLe: true, PrimEq: true, PrimGe: true, PrimGt: true,
	}
)

// applyPrim evaluates a primitive application. Compile-time-known
// operands fold to constants; anything touching the IR lifts a PrimApp
// with the meet of the operand levels.
func (ctx *Ctx) applyPrim(pos ast.Pos, op PrimOp, lvls []SecLevel, vals []Value) (*Res, error) {
	switch {
	case arithOps[op]:
		return ctx.applyArith(pos, op, lvls, vals)
	case relOps[op]:
		return ctx.applyRel(pos, op, lvls, vals)
	}

	switch op {
	case PrimNot:
		if err := zipEq(pos, "!", 1, len(vals)); err != nil {
			return nil, err
		}
		if b, ok := vals[0].(VBool); ok {
			return pure(lvls[0], VBool{V: !b.V}), nil
		}
		return ctx.liftPrim(pos, op, []ir.Type{ir.TBool{}}, ir.TBool{}, lvls, vals)

	case PrimIte:
		if err := zipEq(pos, "if-then-else", 3, len(vals)); err != nil {
			return nil, err
		}
		if b, ok := vals[0].(VBool); ok {
			if b.V {
				return pure(MeetAll(lvls[0], lvls[1]), vals[1]), nil
			}
			return pure(MeetAll(lvls[0], lvls[2]), vals[2]), nil
		}
		tt, _, err := typeOf(pos, vals[1])
		if err != nil {
			return nil, err
		}
		tf, _, err := typeOf(pos, vals[2])
		if err != nil {
			return nil, err
		}
		rng, err := typeMeet(pos, tt, pos, tf)
		if err != nil {
			return nil, err
		}
		return ctx.liftPrim(pos, op, []ir.Type{ir.TBool{}, rng, rng}, rng, lvls, vals)

	case PrimAssert, PrimAssume, PrimRequire, PrimPossible:
		return ctx.applyClaim(pos, op, lvls, vals)

	case PrimDeclassify:
		if err := zipEq(pos, "declassify", 1, len(vals)); err != nil {
			return nil, err
		}
		if lvls[0] == Public {
			return nil, errAt(ErrExpectedPrivate, pos, "declassify of an already-public value")
		}
		return pure(Public, vals[0]), nil

	case PrimCommit, PrimExit:
		// Statement-position only; the statement evaluator intercepts
		// these before ordinary application.
		return nil, ctx.errMode(pos, string(op))

	case PrimTransfer:
		return ctx.applyTransferAmount(pos, lvls, vals)

	case PrimMakeEnum:
		return ctx.applyMakeEnum(pos, vals)

	case PrimArrayType, PrimTupleType, PrimObjectType, PrimFunType:
		return applyTypeCtor(pos, op, vals)

	default:
		return nil, errAt(ErrInternal, pos, "unknown primitive %s", op)
	}
}

func (ctx *Ctx) applyArith(pos ast.Pos, op PrimOp, lvls []SecLevel, vals []Value) (*Res, error) {
	if err := zipEq(pos, string(op), 2, len(vals)); err != nil {
		return nil, err
	}
	a, aok := vals[0].(VInt)
	b, bok := vals[1].(VInt)
	if aok && bok {
		v, err := foldArith(pos, op, a.V, b.V)
		if err != nil {
			return nil, err
		}
		return pure(MeetAll(lvls...), VInt{V: v}), nil
	}
	u := ir.TUInt256{}
	return ctx.liftPrim(pos, op, []ir.Type{u, u}, u, lvls, vals)
}

func (ctx *Ctx) applyRel(pos ast.Pos, op PrimOp, lvls []SecLevel, vals []Value) (*Res, error) {
	if err := zipEq(pos, string(op), 2, len(vals)); err != nil {
		return nil, err
	}
	a, aok := vals[0].(VInt)
	b, bok := vals[1].(VInt)
	if aok && bok {
		return pure(MeetAll(lvls...), VBool{V: foldRel(op, a.V.Cmp(b.V))}), nil
	}
	u := ir.TUInt256{}
	return ctx.liftPrim(pos, op, []ir.Type{u, u}, ir.TBool{}, lvls, vals)
}

func foldArith(pos ast.Pos, op PrimOp, a, b *big.Int) (*big.Int, error) {
	out := new(big.Int)
	switch op {
	case PrimAdd:
		out.Add(a, b)
	case PrimSub:
		out.Sub(a, b)
		if out.Sign() < 0 {
			return nil, errAt(ErrTypeMismatch, pos, "uint256 underflow in constant expression")
		}
	case PrimMul:
		out.Mul(a, b)
	case PrimDiv:
		if b.Sign() == 0 {
			return nil, errAt(ErrTypeMismatch, pos, "division by zero in constant expression")
		}
		out.Div(a, b)
	case PrimMod:
		if b.Sign() == 0 {
			return nil, errAt(ErrTypeMismatch, pos, "modulo by zero in constant expression")
		}
		out.Mod(a, b)
	case PrimBand:
		out.And(a, b)
	case PrimBior:
		out.Or(a, b)
	case PrimBxor:
		out.Xor(a, b)
	case PrimLsh:
		out.Lsh(a, uint(b.Uint64()))
	case PrimRsh:
		out.Rsh(a, uint(b.Uint64()))
	}
	return out, nil
}

func foldRel(op PrimOp, cmp int) bool {
	switch op {
	case PrimLt:
		return cmp < 0
	case PrimLe:
		return cmp <= 0
	case PrimEq:
		return cmp == 0
	case PrimGe:
		return cmp >= 0
	default:
		return cmp > 0
	}
}

// liftPrim checks operands against the primitive's domain and lifts a
// PrimApp let-binding with a fresh result variable.
func (ctx *Ctx) liftPrim(pos ast.Pos, op PrimOp, dom []ir.Type, rng ir.Type, lvls []SecLevel, vals []Value) (*Res, error) {
	args, err := checkAndConvert(pos, string(op), dom, vals)
	if err != nil {
		return nil, err
	}
	dv, err := ctx.freshVar(pos, "", rng)
	if err != nil {
		return nil, err
	}
	return &Res{
		Lifts: []ir.Stmt{ir.Let{Var: dv, Expr: ir.PrimApp{Op: string(op), Args: args, Rng: rng}}},
		Lvl:   MeetAll(lvls...),
		Val:   VRef{V: dv},
	}, nil
}

var claimKinds = map[PrimOp]ir.ClaimKind{
	PrimAssert:   ir.ClaimAssert,
	PrimAssume:   ir.ClaimAssume,
	PrimRequire:  ir.ClaimRequire,
	PrimPossible: ir.ClaimPossible,
}

func (ctx *Ctx) applyClaim(pos ast.Pos, op PrimOp, lvls []SecLevel, vals []Value) (*Res, error) {
	kind := claimKinds[op]
	if err := zipEq(pos, string(kind), 1, len(vals)); err != nil {
		return nil, err
	}
	switch kind {
	case ir.ClaimRequire:
		if ctx.Mode != ModeConsensus {
			return nil, ctx.errMode(pos, "require")
		}
	case ir.ClaimAssume:
		if ctx.Mode != ModeLocalStep {
			return nil, ctx.errMode(pos, "assume")
		}
	default:
		if ctx.Mode == ModeModule || ctx.Mode == ModeLocal {
			return nil, ctx.errMode(pos, string(kind))
		}
	}
	t, arg, err := typeOf(pos, vals[0])
	if err != nil {
		return nil, err
	}
	if !ir.TypeEqual(t, ir.TBool{}) {
		return nil, errAt(ErrExpectedBool, pos, "%s needs a boolean, got %s", kind, t)
	}
	return &Res{
		Lifts: []ir.Stmt{ir.Claim{Kind: kind, Cond: arg}},
		Lvl:   Public,
		Val:   VNull{},
	}, nil
}

func (ctx *Ctx) applyTransferAmount(pos ast.Pos, lvls []SecLevel, vals []Value) (*Res, error) {
	if ctx.Mode != ModeConsensus {
		return nil, ctx.errMode(pos, "transfer")
	}
	if err := zipEq(pos, "transfer", 1, len(vals)); err != nil {
		return nil, err
	}
	if _, err := ensurePublic(pos, lvls[0], vals[0], "transfer amount"); err != nil {
		return nil, err
	}
	t, arg, err := typeOf(pos, vals[0])
	if err != nil {
		return nil, err
	}
	if !ir.TypeEqual(t, ir.TUInt256{}) {
		return nil, errAt(ErrTypeMismatch, pos, "transfer amount must be uint256, got %s", t)
	}
	return pure(Public, VObject{Fields: map[string]Value{
		"to": VTransferTo{Amount: arg},
	}}), nil
}

// applyMakeEnum returns a tuple of a bounds-check validator plus the enum
// constants 0..n-1. The validator is a closure built by hand from literal
// surface nodes over the stdlib environment.
func (ctx *Ctx) applyMakeEnum(pos ast.Pos, vals []Value) (*Res, error) {
	if err := zipEq(pos, "makeEnum", 1, len(vals)); err != nil {
		return nil, err
	}
	n, ok := vals[0].(VInt)
	if !ok || !n.V.IsInt64() || n.V.Sign() < 0 {
		return nil, errAt(ErrEnumArg, pos, "makeEnum needs a concrete non-negative integer, got %s", Kind(vals[0]))
	}
	count := int(n.V.Int64())

	// (x) => ((0 <= x) && (x < n))
	x := &ast.Ident{Pos: stdlibPos, Name: "x"}
	check := &ast.Binary{
		Pos: stdlibPos,
		Op:  "&&",
		Left: &ast.Binary{
			Pos: stdlibPos, Op: "<=",
			Left:  &ast.IntLit{Pos: stdlibPos, Raw: "0"},
			Right: x,
		},
		Right: &ast.Binary{
			Pos: stdlibPos, Op: "<",
			Left:  x,
			Right: &ast.IntLit{Pos: stdlibPos, Raw: n.V.String()},
		},
	}
	validator := &VClosure{
		Name:   "enumValidator",
		Params: []string{"x"},
		Body:   []ast.Stmt{&ast.Return{Pos: stdlibPos, Value: check}},
		Env:    ctx.Base,
		Pos:    pos,
	}

	elems := make([]Value, 0, count+1)
	elems = append(elems, validator)
	for i := 0; i < count; i++ {
		elems = append(elems, VInt{V: big.NewInt(int64(i))})
	}
	return pure(Public, VTuple{Elems: elems}), nil
}

func applyTypeCtor(pos ast.Pos, op PrimOp, vals []Value) (*Res, error) {
	asType := func(v Value) (ir.Type, error) {
		tv, ok := v.(VType)
		if !ok {
			return nil, errAt(ErrExpectedType, pos, "expected a type, got %s", Kind(v))
		}
		return tv.T, nil
	}
	switch op {
	case PrimArrayType:
		if err := zipEq(pos, "Array", 2, len(vals)); err != nil {
			return nil, err
		}
		elem, err := asType(vals[0])
		if err != nil {
			return nil, err
		}
		size, ok := vals[1].(VInt)
		if !ok || !size.V.IsInt64() || size.V.Sign() < 0 {
			return nil, errAt(ErrTypeMismatch, pos, "Array size must be a concrete non-negative integer")
		}
		return pure(Public, VType{T: ir.TArray{Elem: elem, Size: int(size.V.Int64())}}), nil

	case PrimTupleType:
		elems := make([]ir.Type, len(vals))
		for i, v := range vals {
			t, err := asType(v)
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		return pure(Public, VType{T: ir.TTuple{Elems: elems}}), nil

	case PrimObjectType:
		if err := zipEq(pos, "Object", 1, len(vals)); err != nil {
			return nil, err
		}
		obj, ok := vals[0].(VObject)
		if !ok {
			return nil, errAt(ErrTypeMismatch, pos, "Object needs an object of field types, got %s", Kind(vals[0]))
		}
		fields := make(map[string]ir.Type, len(obj.Fields))
		for k, fv := range obj.Fields {
			t, err := asType(fv)
			if err != nil {
				return nil, err
			}
			fields[k] = t
		}
		return pure(Public, VType{T: ir.TObject{Fields: fields}}), nil

	default: // PrimFunType
		if err := zipEq(pos, "Fun", 2, len(vals)); err != nil {
			return nil, err
		}
		domTup, ok := vals[0].(VTuple)
		if !ok {
			return nil, errAt(ErrTypeMismatch, pos, "Fun domain must be an array of types, got %s", Kind(vals[0]))
		}
		dom := make([]ir.Type, len(domTup.Elems))
		for i, v := range domTup.Elems {
			t, err := asType(v)
			if err != nil {
				return nil, err
			}
			dom[i] = t
		}
		rng, err := asType(vals[1])
		if err != nil {
			return nil, err
		}
		return pure(Public, VType{T: ir.TFun{Dom: dom, Rng: rng}}), nil
	}
}
