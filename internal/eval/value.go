package eval

import (
	"math/big"

	"github.com/temptemp3/reach-lang/internal/ast"
	"github.com/temptemp3/reach-lang/internal/ir"
)

// Value is a sealed interface over the tagged value domain. Values are
// immutable once constructed; legality of a given value in a given
// position is checked where the operation is invoked, never encoded in
// the value itself.
type Value interface {
	value()
}

// VNull is the null value.
type VNull struct{}

// VBool is a boolean.
type VBool struct {
	V bool
}

// VInt is an arbitrary-precision integer.
type VInt struct {
	V *big.Int
}

// VBytes is a byte string.
type VBytes struct {
	V string
}

// VClosure is a surface-level function value. Env is shared by
// reference: scopes are never mutated after creation, so sharing is safe
// and extension stays cheap.
type VClosure struct {
	Name   string
	Params []string
	Body   []ast.Stmt
	Env    *Env
	Pos    ast.Pos
}

// VPrim is a primitive operator.
type VPrim struct {
	Op PrimOp
}

// VType is a first-order type used as a value.
type VType struct {
	T ir.Type
}

// VTuple is an ordered, fixed-length tuple.
type VTuple struct {
	Elems []Value
}

// VObject is a record with unique field names; insertion order is
// irrelevant.
type VObject struct {
	Fields map[string]Value
}

// VParticipant is a named party. BoundName is the display hint acquired
// lazily from the first referencing identifier and never overwritten.
// Addr is the agreed on-ledger address variable once the participant has
// joined a consensus round.
type VParticipant struct {
	Handle    string
	Interact  ir.InteractSpec
	BoundName string
	Addr      *ir.Var
}

// DisplayName returns the participant's human-readable name: the bound
// display variable when one was acquired, else the declared handle.
func (p *VParticipant) DisplayName() string {
	if p.BoundName != "" {
		return p.BoundName
	}
	return p.Handle
}

// VRef is a value already lowered into the IR, carrying its IR type.
type VRef struct {
	V ir.Var
}

// VInteractMethod is one entry of a participant's declared interaction
// interface, bound as a field of the interact object inside only blocks.
type VInteractMethod struct {
	Who    string
	Method string
	T      ir.Type
}

// VTransferTo is the transfer-target produced by transfer(amount),
// awaiting .to(address).
type VTransferTo struct {
	Amount ir.Arg
}

// VForm wraps an application-time-only syntax form.
type VForm struct {
	Form Form
}

func (VNull) value()           {}
func (VBool) value()           {}
func (VInt) value()            {}
func (VBytes) value()          {}
func (*VClosure) value()       {}
func (VPrim) value()           {}
func (VType) value()           {}
func (VTuple) value()          {}
func (VObject) value()         {}
func (*VParticipant) value()   {}
func (VRef) value()            {}
func (VInteractMethod) value() {}
func (VTransferTo) value()     {}
func (VForm) value()           {}

// Form is a sealed interface over application-time-only constructs.
// Forms are never ordinary callables; the evaluators dispatch on them
// explicitly.
type Form interface {
	form()
}

// FormApp is the program declaration primitive (Reach.App).
type FormApp struct{}

// AppPart is one declared participant: a handle plus its interaction
// interface signature.
type AppPart struct {
	Name     string
	Iface    ir.InteractSpec
	IfacePos ast.Pos
}

// FormDApp is a declared application: participant specifications plus the
// packaged program closure, elaboration deferred to program assembly.
type FormDApp struct {
	Opts  VObject
	Parts []AppPart
	Clo   *VClosure
}

// FormOnly is a participant's pending .only, awaiting its thunk.
type FormOnly struct {
	Who *VParticipant
}

// FormOnlyAnswer is the completed local block: the possibly extended
// private environment plus the block's result.
type FormOnlyAnswer struct {
	Who  *VParticipant
	Penv *Env
	Lvl  SecLevel
	Val  Value
}

// TCTimeout is the timeout arm of a pending consensus round.
type TCTimeout struct {
	Delay   ast.Expr
	Handler ast.Expr
}

// FormTC is the publish/pay/timeout accumulator for one participant
// round. Each field may be set at most once; Pub nil means publish has
// not been set. Pay and Timeout hold raw surface expressions because
// their evaluation environment is decided at the consensus transition,
// not at accumulation time.
type FormTC struct {
	Who     *VParticipant
	Pub     []string
	PubSet  bool
	Pay     ast.Expr
	Timeout *TCTimeout
}

// FormTCSet is a pending field setter on an accumulator, produced by
// member access and consumed by application.
type FormTCSet struct {
	Acc   FormTC
	Field string
}

func (FormApp) form()        {}
func (FormDApp) form()       {}
func (FormOnly) form()       {}
func (FormOnlyAnswer) form() {}
func (FormTC) form()         {}
func (FormTCSet) form()      {}

// Kind names a value's variant for diagnostics.
func Kind(v Value) string {
	switch v.(type) {
	case VNull:
		return "null"
	case VBool:
		return "bool"
	case VInt:
		return "int"
	case VBytes:
		return "bytes"
	case *VClosure:
		return "function"
	case VPrim:
		return "primitive"
	case VType:
		return "type"
	case VTuple:
		return "tuple"
	case VObject:
		return "object"
	case *VParticipant:
		return "participant"
	case VRef:
		return "reference"
	case VInteractMethod:
		return "interact method"
	case VTransferTo:
		return "transfer target"
	case VForm:
		return "form"
	default:
		return "unknown"
	}
}
