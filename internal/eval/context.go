package eval

import (
	"github.com/temptemp3/reach-lang/internal/ast"
	"github.com/temptemp3/reach-lang/internal/ir"
)

// Mode is the current position in the evaluation state machine. It
// governs which constructs are legal; the value domain itself stays
// mode-agnostic.
type Mode int

const (
	// ModeModule is top-level module elaboration. No counter, no lifts.
	ModeModule Mode = iota

	// ModeStep is the per-participant round chain of a program body.
	ModeStep

	// ModeLocal is the evaluation of an only thunk expression itself.
	// Participant-interaction primitives are not yet legal here.
	ModeLocal

	// ModeLocalStep is the applied only body: participant-interaction
	// primitives are legal and lift.
	ModeLocalStep

	// ModeConsensus is the shared phase between a publish and its commit.
	ModeConsensus
)

func (m Mode) String() string {
	switch m {
	case ModeModule:
		return "module"
	case ModeStep:
		return "step"
	case ModeLocal:
		return "local"
	case ModeLocalStep:
		return "local step"
	case ModeConsensus:
		return "consensus step"
	default:
		return "unknown"
	}
}

// Ctx threads the mode machine state through evaluation. The maps are
// shared across derived contexts on purpose: participant address and
// private-environment state advances sequentially with the statement
// stream.
type Ctx struct {
	Mode    Mode
	Counter *Counter

	// Base is the standard library environment, captured by synthetic
	// closures such as the makeEnum validator.
	Base *Env

	// PartAddrs maps participant handle to its agreed IR address
	// variable, once the participant has joined a round.
	PartAddrs map[string]ir.Var

	// PartEnvs maps participant handle to its full private environment
	// (the shared view extended with only-introduced bindings).
	PartEnvs map[string]*Env

	// Snapshot is the shared environment as it stood when the current
	// consensus round opened, for diffing at commit.
	Snapshot *Env

	// OnlyWho is the participant whose only body is being evaluated,
	// when Mode is ModeLocalStep.
	OnlyWho string
}

// withMode derives a context in a different mode, sharing the counter
// and participant state.
func (ctx *Ctx) withMode(m Mode) *Ctx {
	next := *ctx
	next.Mode = m
	return &next
}

func (ctx *Ctx) errMode(pos ast.Pos, construct string) *Error {
	return errAt(ErrModeMismatch, pos, "%s is not legal in %s mode", construct, ctx.Mode)
}

// RetPolicy is the return-style contract of a statement block.
type RetPolicy int

const (
	// RetCannot forbids return statements outright.
	RetCannot RetPolicy = iota

	// RetImplicitNull allows falling off the end, producing null.
	RetImplicitNull

	// RetMustContinue requires the block to end in a loop continuation.
	RetMustContinue

	// RetMayBeEmpty allows the block to produce nothing (if branches).
	RetMayBeEmpty
)

// Scope carries the statement evaluator's lexical state: the current
// environment, the optional prompt slot returns deliver to, the return
// policy, and (inside a loop) the loop-variable slot map.
type Scope struct {
	Env      *Env
	RetSlot  int // -1 when no slot
	Policy   RetPolicy
	LoopVars map[string]ir.Var
}

func (sc *Scope) withEnv(env *Env) *Scope {
	next := *sc
	next.Env = env
	return &next
}
