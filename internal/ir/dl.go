package ir

import (
	"fmt"
	"math/big"
)

// Var is a fresh IR variable. Idx is unique within its elaboration
// segment; Hint carries the surface name the variable was lifted from,
// when one exists.
type Var struct {
	Idx  int
	Hint string
	Type Type
}

func (v Var) String() string {
	if v.Hint != "" {
		return fmt.Sprintf("%s/v%d", v.Hint, v.Idx)
	}
	return fmt.Sprintf("v%d", v.Idx)
}

// Arg is a sealed interface over IR-level argument atoms: constants and
// variable references. Compound constants nest.
type Arg interface {
	irArg()
	TypeOf() Type
}

// ConNull is the null constant.
type ConNull struct{}

// ConBool is a boolean constant.
type ConBool struct {
	V bool
}

// ConInt is an arbitrary-precision integer constant.
type ConInt struct {
	V *big.Int
}

// ConBytes is a byte-string constant.
type ConBytes struct {
	V string
}

// VarRef references an already-lifted IR variable.
type VarRef struct {
	V Var
}

// ArrayArg is a constant-structured fixed array.
type ArrayArg struct {
	Elem  Type
	Elems []Arg
}

// TupleArg is a constant-structured tuple.
type TupleArg struct {
	Elems []Arg
}

// ObjArg is a constant-structured object.
type ObjArg struct {
	Fields map[string]Arg
}

func (ConNull) irArg()  {}
func (ConBool) irArg()  {}
func (ConInt) irArg()   {}
func (ConBytes) irArg() {}
func (VarRef) irArg()   {}
func (ArrayArg) irArg() {}
func (TupleArg) irArg() {}
func (ObjArg) irArg()   {}

func (ConNull) TypeOf() Type  { return TNull{} }
func (ConBool) TypeOf() Type  { return TBool{} }
func (ConInt) TypeOf() Type   { return TUInt256{} }
func (ConBytes) TypeOf() Type { return TBytes{} }
func (a VarRef) TypeOf() Type { return a.V.Type }

func (a ArrayArg) TypeOf() Type {
	return TArray{Elem: a.Elem, Size: len(a.Elems)}
}

func (a TupleArg) TypeOf() Type {
	ts := make([]Type, len(a.Elems))
	for i, e := range a.Elems {
		ts[i] = e.TypeOf()
	}
	return TTuple{Elems: ts}
}

func (a ObjArg) TypeOf() Type {
	fs := make(map[string]Type, len(a.Fields))
	for k, v := range a.Fields {
		fs[k] = v.TypeOf()
	}
	return TObject{Fields: fs}
}

// ArgEqual reports whether two args are the same constant or the same
// variable. Used to detect the redundant trailing return of a
// single-exit closure body.
func ArgEqual(a, b Arg) bool {
	switch x := a.(type) {
	case ConNull:
		_, ok := b.(ConNull)
		return ok
	case ConBool:
		y, ok := b.(ConBool)
		return ok && x.V == y.V
	case ConInt:
		y, ok := b.(ConInt)
		return ok && x.V.Cmp(y.V) == 0
	case ConBytes:
		y, ok := b.(ConBytes)
		return ok && x.V == y.V
	case VarRef:
		y, ok := b.(VarRef)
		return ok && x.V.Idx == y.V.Idx
	case ArrayArg:
		y, ok := b.(ArrayArg)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !ArgEqual(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	case TupleArg:
		y, ok := b.(TupleArg)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !ArgEqual(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	case ObjArg:
		y, ok := b.(ObjArg)
		if !ok || len(x.Fields) != len(y.Fields) {
			return false
		}
		for k, xv := range x.Fields {
			yv, ok := y.Fields[k]
			if !ok || !ArgEqual(xv, yv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Expr is a sealed interface over lifted IR expressions, the right-hand
// sides of Let statements.
type Expr interface {
	irExpr()
}

// PrimApp applies a primitive operator to argument atoms.
type PrimApp struct {
	Op   string
	Args []Arg
	Rng  Type
}

// ArrayRef is a bounds-checked array subscript with a statically known
// bound.
type ArrayRef struct {
	Arr  Arg
	Size int
	Idx  Arg
	Elem Type
}

// TupleRef is a positional projection out of a tuple.
type TupleRef struct {
	Tup   Arg
	Arity int
	Idx   int
	Elem  Type
}

// ObjRef is a field projection out of an object.
type ObjRef struct {
	Obj       Arg
	Field     string
	FieldType Type
}

// Interact is a call against a participant's declared interaction
// interface.
type Interact struct {
	Who    string
	Method string
	Args   []Arg
	Rng    Type
}

func (PrimApp) irExpr()  {}
func (ArrayRef) irExpr() {}
func (TupleRef) irExpr() {}
func (ObjRef) irExpr()   {}
func (Interact) irExpr() {}

// ClaimKind distinguishes the claim statements.
type ClaimKind string

const (
	ClaimAssert   ClaimKind = "assert"
	ClaimAssume   ClaimKind = "assume"
	ClaimRequire  ClaimKind = "require"
	ClaimPossible ClaimKind = "possible"
)

// Stmt is a sealed interface over IR lift statements. Lifts are emitted
// in strict surface evaluation order and never reordered.
type Stmt interface {
	irStmt()
}

// Let binds the result of an expression to a fresh variable.
type Let struct {
	Var  Var
	Expr Expr
}

// Claim records an assertion of the given kind over a boolean atom.
type Claim struct {
	Kind ClaimKind
	Cond Arg
}

// If branches on a boolean atom.
type If struct {
	Cond Arg
	Then []Stmt
	Else []Stmt
}

// Return delivers a value to an enclosing prompt slot.
type Return struct {
	Slot  int
	Value Arg
}

// Prompt wraps a body with more than one exit point, exposing a single
// fresh variable holding the unified result.
type Prompt struct {
	Slot int
	Var  Var
	Body []Stmt
}

// Only wraps one participant's local lift sequence.
type Only struct {
	Who  string
	Body []Stmt
}

// Timeout is the optional timeout arm of a consensus transfer.
type Timeout struct {
	Delay Arg
	Body  []Stmt
}

// ToConsensus is a publish/pay/timeout consensus round. Body holds the
// lifts elaborated after the round under consensus mode.
type ToConsensus struct {
	Who       string
	FirstJoin bool
	Fields    []string
	Vars      []Var
	Amount    Arg // nil when the round carries no payment
	Timeout   *Timeout
	Body      []Stmt
}

// FromConsensus wraps the lifts that follow a commit back in step mode.
type FromConsensus struct {
	Body []Stmt
}

// Transfer moves ledger-native funds to an address.
type Transfer struct {
	To     Arg
	Amount Arg
}

// VarInit seeds one loop variable's slot.
type VarInit struct {
	Var   Var
	Value Arg
}

// VarUpdate reassigns one loop variable's slot at a continue.
type VarUpdate struct {
	Var   Var
	Value Arg
}

// Block is a self-contained lift sequence with a result atom, used for
// loop invariants and conditions.
type Block struct {
	Stmts  []Stmt
	Result Arg
}

// While is the compiled loop form. The invariant block is carried for
// downstream verification; this stage does not assert it.
type While struct {
	Inits     []VarInit
	Invariant Block
	Cond      Block
	Body      []Stmt
}

// Continue closes a loop body with per-variable reassignments.
type Continue struct {
	Updates []VarUpdate
}

// Stop halts the program on the ledger.
type Stop struct{}

func (Let) irStmt()           {}
func (Claim) irStmt()         {}
func (If) irStmt()            {}
func (Return) irStmt()        {}
func (Prompt) irStmt()        {}
func (Only) irStmt()          {}
func (ToConsensus) irStmt()   {}
func (FromConsensus) irStmt() {}
func (Transfer) irStmt()      {}
func (While) irStmt()         {}
func (Continue) irStmt()      {}
func (Stop) irStmt()          {}

// InteractSpec maps a participant's interface method names to their
// declared types.
type InteractSpec map[string]Type

// Program is the elaboration result: every participant's interaction
// interface signature plus the fully lifted root statement sequence.
type Program struct {
	Participants map[string]InteractSpec
	Body         []Stmt
}
