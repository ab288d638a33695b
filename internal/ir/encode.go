package ir

import "fmt"

// CanonicalJSON renders a program as RFC 8785 canonical JSON. The result
// is deterministic for a given program and is what gets hashed, cached,
// and compared against goldens.
func (p *Program) CanonicalJSON() ([]byte, error) {
	return MarshalCanonical(encodeProgram(p))
}

func encodeProgram(p *Program) map[string]any {
	parts := map[string]any{}
	for name, spec := range p.Participants {
		methods := map[string]any{}
		for m, t := range spec {
			methods[m] = encodeType(t)
		}
		parts[name] = methods
	}
	return map[string]any{
		"ir_version":   Version,
		"participants": parts,
		"body":         encodeStmts(p.Body),
	}
}

func encodeType(t Type) map[string]any {
	switch x := t.(type) {
	case TNull:
		return map[string]any{"type": "null"}
	case TBool:
		return map[string]any{"type": "bool"}
	case TUInt256:
		return map[string]any{"type": "uint256"}
	case TBytes:
		return map[string]any{"type": "bytes"}
	case TAddress:
		return map[string]any{"type": "address"}
	case TArray:
		return map[string]any{"type": "array", "elem": encodeType(x.Elem), "size": x.Size}
	case TTuple:
		elems := make([]any, len(x.Elems))
		for i, e := range x.Elems {
			elems[i] = encodeType(e)
		}
		return map[string]any{"type": "tuple", "elems": elems}
	case TObject:
		fields := map[string]any{}
		for k, v := range x.Fields {
			fields[k] = encodeType(v)
		}
		return map[string]any{"type": "object", "fields": fields}
	case TFun:
		dom := make([]any, len(x.Dom))
		for i, d := range x.Dom {
			dom[i] = encodeType(d)
		}
		return map[string]any{"type": "fun", "dom": dom, "rng": encodeType(x.Rng)}
	case TVar:
		return map[string]any{"type": "tvar", "name": x.Name}
	case TForall:
		vars := make([]any, len(x.Vars))
		for i, v := range x.Vars {
			vars[i] = v
		}
		return map[string]any{"type": "forall", "vars": vars, "body": encodeType(x.Body)}
	default:
		panic(fmt.Sprintf("unknown type %T", t))
	}
}

func encodeVar(v Var) map[string]any {
	m := map[string]any{"idx": v.Idx, "type": encodeType(v.Type)}
	if v.Hint != "" {
		m["hint"] = v.Hint
	}
	return m
}

func encodeArg(a Arg) map[string]any {
	switch x := a.(type) {
	case ConNull:
		return map[string]any{"arg": "null"}
	case ConBool:
		return map[string]any{"arg": "bool", "v": x.V}
	case ConInt:
		// Decimal string: canonical JSON integers are limited to int64.
		return map[string]any{"arg": "int", "v": x.V.String()}
	case ConBytes:
		return map[string]any{"arg": "bytes", "v": x.V}
	case VarRef:
		return map[string]any{"arg": "var", "var": encodeVar(x.V)}
	case ArrayArg:
		return map[string]any{"arg": "array", "elem": encodeType(x.Elem), "elems": encodeArgs(x.Elems)}
	case TupleArg:
		return map[string]any{"arg": "tuple", "elems": encodeArgs(x.Elems)}
	case ObjArg:
		fields := map[string]any{}
		for k, v := range x.Fields {
			fields[k] = encodeArg(v)
		}
		return map[string]any{"arg": "object", "fields": fields}
	default:
		panic(fmt.Sprintf("unknown arg %T", a))
	}
}

func encodeArgs(args []Arg) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = encodeArg(a)
	}
	return out
}

func encodeExpr(e Expr) map[string]any {
	switch x := e.(type) {
	case PrimApp:
		return map[string]any{"expr": "primapp", "op": x.Op, "args": encodeArgs(x.Args), "rng": encodeType(x.Rng)}
	case ArrayRef:
		return map[string]any{"expr": "arrayref", "arr": encodeArg(x.Arr), "size": x.Size, "idx": encodeArg(x.Idx), "elem": encodeType(x.Elem)}
	case TupleRef:
		return map[string]any{"expr": "tupleref", "tup": encodeArg(x.Tup), "arity": x.Arity, "idx": x.Idx, "elem": encodeType(x.Elem)}
	case ObjRef:
		return map[string]any{"expr": "objref", "obj": encodeArg(x.Obj), "field": x.Field, "fieldtype": encodeType(x.FieldType)}
	case Interact:
		return map[string]any{"expr": "interact", "who": x.Who, "method": x.Method, "args": encodeArgs(x.Args), "rng": encodeType(x.Rng)}
	default:
		panic(fmt.Sprintf("unknown expr %T", e))
	}
}

func encodeStmt(s Stmt) map[string]any {
	switch x := s.(type) {
	case Let:
		return map[string]any{"stmt": "let", "var": encodeVar(x.Var), "expr": encodeExpr(x.Expr)}
	case Claim:
		return map[string]any{"stmt": "claim", "kind": string(x.Kind), "cond": encodeArg(x.Cond)}
	case If:
		return map[string]any{"stmt": "if", "cond": encodeArg(x.Cond), "then": encodeStmts(x.Then), "else": encodeStmts(x.Else)}
	case Return:
		return map[string]any{"stmt": "return", "slot": x.Slot, "value": encodeArg(x.Value)}
	case Prompt:
		return map[string]any{"stmt": "prompt", "slot": x.Slot, "var": encodeVar(x.Var), "body": encodeStmts(x.Body)}
	case Only:
		return map[string]any{"stmt": "only", "who": x.Who, "body": encodeStmts(x.Body)}
	case ToConsensus:
		m := map[string]any{
			"stmt":       "toconsensus",
			"who":        x.Who,
			"first_join": x.FirstJoin,
			"fields":     stringList(x.Fields),
			"vars":       encodeVars(x.Vars),
			"body":       encodeStmts(x.Body),
		}
		if x.Amount != nil {
			m["amount"] = encodeArg(x.Amount)
		}
		if x.Timeout != nil {
			m["timeout"] = map[string]any{"delay": encodeArg(x.Timeout.Delay), "body": encodeStmts(x.Timeout.Body)}
		}
		return m
	case FromConsensus:
		return map[string]any{"stmt": "fromconsensus", "body": encodeStmts(x.Body)}
	case Transfer:
		return map[string]any{"stmt": "transfer", "to": encodeArg(x.To), "amount": encodeArg(x.Amount)}
	case While:
		inits := make([]any, len(x.Inits))
		for i, vi := range x.Inits {
			inits[i] = map[string]any{"var": encodeVar(vi.Var), "value": encodeArg(vi.Value)}
		}
		return map[string]any{
			"stmt":      "while",
			"inits":     inits,
			"invariant": encodeBlock(x.Invariant),
			"cond":      encodeBlock(x.Cond),
			"body":      encodeStmts(x.Body),
		}
	case Continue:
		updates := make([]any, len(x.Updates))
		for i, u := range x.Updates {
			updates[i] = map[string]any{"var": encodeVar(u.Var), "value": encodeArg(u.Value)}
		}
		return map[string]any{"stmt": "continue", "updates": updates}
	case Stop:
		return map[string]any{"stmt": "stop"}
	default:
		panic(fmt.Sprintf("unknown stmt %T", s))
	}
}

func encodeStmts(stmts []Stmt) []any {
	out := make([]any, len(stmts))
	for i, s := range stmts {
		out[i] = encodeStmt(s)
	}
	return out
}

func encodeBlock(b Block) map[string]any {
	return map[string]any{"stmts": encodeStmts(b.Stmts), "result": encodeArg(b.Result)}
}

func encodeVars(vars []Var) []any {
	out := make([]any, len(vars))
	for i, v := range vars {
		out[i] = encodeVar(v)
	}
	return out
}

func stringList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
