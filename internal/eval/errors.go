package eval

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temptemp3/reach-lang/internal/ast"
)

// Elaboration error codes. Every failure is an immediate, non-recoverable
// abort carrying one of these codes, a source position, and enough payload
// to render a one-line actionable message.
//
// Families:
//
//	E20x  unbound/shadowed identifiers
//	E21x-E22x  illegal syntax shape for the grammar position
//	E23x-E24x  type/shape mismatches
//	E25x  security level violations
//	E26x-E27x  illegal use of a construct in the wrong evaluation mode
//	E29x  internal-consistency violations (evaluator bugs, not user errors)
const (
	ErrUnbound  = "E200" // identifier not in scope
	ErrShadowed = "E201" // rebinding an already-bound name

	ErrIllegalStmt        = "E210" // statement form outside the language
	ErrIllegalExpr        = "E211" // expression form outside the language
	ErrNamedFuncExpr      = "E212" // named function in expression position
	ErrAnonFuncDecl       = "E213" // anonymous function declaration
	ErrIllegalAssign      = "E214" // assignment not in the continue pattern
	ErrContinueOutside    = "E215" // continue outside any while
	ErrContinueNotLoopVar = "E216" // continue updates a non-loop variable
	ErrWhileShape         = "E217" // malformed var/invariant/while form
	ErrNoHeader           = "E218" // module missing the version header
	ErrTopLevelReturn     = "E219" // statement returned a value at module level
	ErrIllegalAtModule    = "E220" // construct not legal at module top level
	ErrSpreadNotObject    = "E221" // spread of a non-object value
	ErrComputedFieldKind  = "E222" // computed field name not a byte string
	ErrNonEmptyTail       = "E223" // statements after a terminal statement
	ErrDuplicateField     = "E224" // duplicate object field name
	ErrFormInExpr         = "E225" // application-time form in value position

	ErrArgCount        = "E230" // expected/actual list length mismatch
	ErrTypeMismatch    = "E231" // dynamic type does not match expected
	ErrTypeMeet        = "E232" // branch result types cannot unify
	ErrRefNotRefable   = "E233" // receiver cannot be indexed
	ErrIndirectNotArr  = "E234" // symbolic index into a non-array
	ErrRefNotInt       = "E235" // index is not an integer
	ErrRefOutOfBounds  = "E236" // index outside static bounds
	ErrFieldNotFound   = "E237" // no such field on receiver
	ErrNotObject       = "E238" // member access on a non-object
	ErrDestructureSize = "E239" // pattern size does not match aggregate
	ErrClosureArity    = "E240" // closure declares the wrong parameter count for its context
	ErrNotCallable     = "E241" // applying a non-callable value
	ErrExpectedBool    = "E242" // condition or claim not a boolean
	ErrExpectedType    = "E243" // value is not a type where one is needed
	ErrExpectedTuple   = "E244" // destructuring a non-aggregate
	ErrEnumArg         = "E245" // makeEnum argument not a concrete integer

	ErrExpectedPublic  = "E250" // secret value where only public is legal
	ErrExpectedPrivate = "E251" // declassify of an already-public value

	ErrModeMismatch      = "E260" // construct illegal in current mode
	ErrWhileOutside      = "E261" // while outside consensus mode
	ErrExitOutsideStep   = "E262" // exit outside step mode
	ErrExitNonEmptyTail  = "E263" // statements after exit
	ErrDoubleToConsensus = "E264" // publish/pay/timeout field set twice
	ErrOnlyResultNotNull = "E265" // bare only block produced a value
	ErrExitArgs          = "E266" // exit takes no arguments
	ErrEntryMissing      = "E267" // entry module does not export the app
	ErrEntrySecret       = "E268" // exported app binding is secret
	ErrNotApp            = "E269" // exported entry value is not an app

	ErrInternal       = "E290" // malformed internal state
	ErrNoCounter      = "E291" // lift requested outside a counted segment
	ErrModuleNotFound = "E292" // import of a module not yet elaborated
	ErrMalformedForm  = "E293" // internal form in an impossible state
)

// Error is the structured elaboration error. Kind-specific payload lives
// in the optional fields; Message is the rendered one-line detail.
type Error struct {
	Code    string
	Pos     ast.Pos
	Message string

	// Names carries offending identifiers or field names, when relevant.
	Names []string

	// Suggestions carries "did you mean" candidates for unbound names,
	// ordered by edit distance then lexically, at most five.
	Suggestions []string
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: [%s] %s", e.Pos, e.Code, e.Message)
	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&b, " (did you mean: %s?)", strings.Join(e.Suggestions, ", "))
	}
	return b.String()
}

// IsInternal reports whether err is an internal-consistency violation,
// indicating a bug in the evaluator rather than in the input program.
func IsInternal(err error) bool {
	var ee *Error
	if errors.As(err, &ee) {
		return strings.HasPrefix(ee.Code, "E29")
	}
	return false
}

// CodeOf extracts the elaboration error code, or "" for foreign errors.
func CodeOf(err error) string {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}

func errAt(code string, pos ast.Pos, format string, args ...any) *Error {
	return &Error{Code: code, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func errUnbound(pos ast.Pos, name string, inScope []string) *Error {
	e := errAt(ErrUnbound, pos, "unbound identifier %q", name)
	e.Names = []string{name}
	e.Suggestions = suggest(name, inScope, maxSuggestions)
	return e
}

func errShadowed(pos ast.Pos, name string) *Error {
	e := errAt(ErrShadowed, pos, "name %q is already bound; shadowing is forbidden", name)
	e.Names = []string{name}
	return e
}

func errFieldNotFound(pos ast.Pos, field string, valid []string) *Error {
	e := errAt(ErrFieldNotFound, pos, "no field %q; valid fields are %s", field, strings.Join(valid, ", "))
	e.Names = []string{field}
	e.Suggestions = suggest(field, valid, maxSuggestions)
	return e
}
