package ast

import (
	"encoding/json"
	"fmt"
)

// The JSON encoding gives every node a "type" discriminator so bundles can
// round-trip through files. The shape is intentionally flat: front ends in
// other processes emit it, and the CLI loader validates it against the
// embedded schema before decoding.

// EncodeBundle serializes a bundle to JSON.
func EncodeBundle(b *Bundle) ([]byte, error) {
	mods := make([]any, len(b.Modules))
	for i, m := range b.Modules {
		items := make([]any, len(m.Items))
		for j, it := range m.Items {
			items[j] = encodeItem(it)
		}
		mods[i] = map[string]any{"key": m.Key, "items": items}
	}
	return json.MarshalIndent(map[string]any{"modules": mods}, "", "  ")
}

// DecodeBundle parses a JSON bundle.
func DecodeBundle(data []byte) (*Bundle, error) {
	var raw struct {
		Modules []struct {
			Key   string            `json:"key"`
			Items []json.RawMessage `json:"items"`
		} `json:"modules"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	b := &Bundle{}
	for _, m := range raw.Modules {
		mod := Module{Key: m.Key}
		for i, it := range m.Items {
			item, err := decodeItem(it)
			if err != nil {
				return nil, fmt.Errorf("module %q item %d: %w", m.Key, i, err)
			}
			mod.Items = append(mod.Items, item)
		}
		b.Modules = append(b.Modules, mod)
	}
	return b, nil
}

func encodePos(p Pos) map[string]any {
	m := map[string]any{"line": p.Line, "col": p.Col}
	if p.File != "" {
		m["file"] = p.File
	}
	return m
}

func encodeItem(it Item) map[string]any {
	switch n := it.(type) {
	case *Import:
		return map[string]any{"type": "import", "pos": encodePos(n.Pos), "path": n.Path}
	case *Export:
		return map[string]any{"type": "export", "pos": encodePos(n.Pos), "decl": encodeStmt(n.Decl)}
	case *ItemStmt:
		return map[string]any{"type": "stmt", "stmt": encodeStmt(n.S)}
	default:
		panic(fmt.Sprintf("unknown item type %T", it))
	}
}

func encodeStmt(s Stmt) map[string]any {
	switch n := s.(type) {
	case *Block:
		return map[string]any{"type": "block", "pos": encodePos(n.Pos), "body": encodeStmts(n.Body)}
	case *ConstDecl:
		return map[string]any{"type": "const", "pos": encodePos(n.Pos), "pat": encodePattern(n.Pat), "value": encodeExpr(n.Value)}
	case *VarDecl:
		return map[string]any{"type": "var", "pos": encodePos(n.Pos), "pat": encodePattern(n.Pat), "value": encodeExpr(n.Value)}
	case *FuncDecl:
		return map[string]any{"type": "funcdecl", "pos": encodePos(n.Pos), "name": n.Name, "params": stringsAny(n.Params), "body": encodeStmts(n.Body)}
	case *If:
		m := map[string]any{"type": "if", "pos": encodePos(n.Pos), "cond": encodeExpr(n.Cond), "then": encodeStmts(n.Then)}
		if n.Else != nil {
			m["else"] = encodeStmts(n.Else)
		}
		return m
	case *ExprStmt:
		return map[string]any{"type": "expr", "pos": encodePos(n.Pos), "x": encodeExpr(n.X)}
	case *Return:
		m := map[string]any{"type": "return", "pos": encodePos(n.Pos)}
		if n.Value != nil {
			m["value"] = encodeExpr(n.Value)
		}
		return m
	case *While:
		return map[string]any{"type": "while", "pos": encodePos(n.Pos), "cond": encodeExpr(n.Cond), "body": encodeStmts(n.Body)}
	case *Assign:
		return map[string]any{"type": "assign", "pos": encodePos(n.Pos), "lhs": encodeExpr(n.Lhs), "rhs": encodeExpr(n.Rhs)}
	case *Continue:
		return map[string]any{"type": "continue", "pos": encodePos(n.Pos)}
	case *UnsupportedStmt:
		return map[string]any{"type": "unsupported", "pos": encodePos(n.Pos), "kind": n.Kind}
	default:
		panic(fmt.Sprintf("unknown stmt type %T", s))
	}
}

func encodeStmts(ss []Stmt) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = encodeStmt(s)
	}
	return out
}

func encodeExpr(e Expr) map[string]any {
	switch n := e.(type) {
	case *Ident:
		return map[string]any{"type": "ident", "pos": encodePos(n.Pos), "name": n.Name}
	case *IntLit:
		return map[string]any{"type": "int", "pos": encodePos(n.Pos), "raw": n.Raw}
	case *BoolLit:
		return map[string]any{"type": "bool", "pos": encodePos(n.Pos), "value": n.Value}
	case *StrLit:
		return map[string]any{"type": "str", "pos": encodePos(n.Pos), "raw": n.Raw}
	case *NullLit:
		return map[string]any{"type": "null", "pos": encodePos(n.Pos)}
	case *Unary:
		return map[string]any{"type": "unary", "pos": encodePos(n.Pos), "op": n.Op, "operand": encodeExpr(n.Operand)}
	case *Binary:
		return map[string]any{"type": "binary", "pos": encodePos(n.Pos), "op": n.Op, "left": encodeExpr(n.Left), "right": encodeExpr(n.Right)}
	case *Ternary:
		return map[string]any{"type": "ternary", "pos": encodePos(n.Pos), "cond": encodeExpr(n.Cond), "then": encodeExpr(n.Then), "else": encodeExpr(n.Else)}
	case *Member:
		return map[string]any{"type": "member", "pos": encodePos(n.Pos), "object": encodeExpr(n.Object), "field": n.Field}
	case *Index:
		return map[string]any{"type": "index", "pos": encodePos(n.Pos), "object": encodeExpr(n.Object), "idx": encodeExpr(n.Idx)}
	case *Call:
		args := make([]any, len(n.Args))
		for i, a := range n.Args {
			args[i] = encodeExpr(a)
		}
		return map[string]any{"type": "call", "pos": encodePos(n.Pos), "callee": encodeExpr(n.Callee), "args": args}
	case *ArrayLit:
		elems := make([]any, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = encodeExpr(el)
		}
		return map[string]any{"type": "array", "pos": encodePos(n.Pos), "elems": elems}
	case *ObjectLit:
		props := make([]any, len(n.Props))
		for i, p := range n.Props {
			props[i] = encodeProp(p)
		}
		return map[string]any{"type": "object", "pos": encodePos(n.Pos), "props": props}
	case *Func:
		m := map[string]any{"type": "func", "pos": encodePos(n.Pos), "params": stringsAny(n.Params), "body": encodeStmts(n.Body)}
		if n.Name != "" {
			m["name"] = n.Name
		}
		return m
	case *UnsupportedExpr:
		return map[string]any{"type": "unsupported", "pos": encodePos(n.Pos), "kind": n.Kind}
	default:
		panic(fmt.Sprintf("unknown expr type %T", e))
	}
}

func encodeProp(p Prop) map[string]any {
	switch n := p.(type) {
	case *PropField:
		return map[string]any{"type": "field", "pos": encodePos(n.Pos), "name": n.Name, "value": encodeExpr(n.Value)}
	case *PropComputed:
		return map[string]any{"type": "computed", "pos": encodePos(n.Pos), "key": encodeExpr(n.Key), "value": encodeExpr(n.Value)}
	case *PropSpread:
		return map[string]any{"type": "spread", "pos": encodePos(n.Pos), "value": encodeExpr(n.Value)}
	default:
		panic(fmt.Sprintf("unknown prop type %T", p))
	}
}

func encodePattern(p Pattern) map[string]any {
	switch n := p.(type) {
	case *NamePat:
		return map[string]any{"type": "name", "pos": encodePos(n.Pos), "name": n.Name}
	case *ArrayPat:
		return map[string]any{"type": "arraypat", "pos": encodePos(n.Pos), "names": stringsAny(n.Names)}
	default:
		panic(fmt.Sprintf("unknown pattern type %T", p))
	}
}

func stringsAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// Decoding.

type rawNode struct {
	Type string `json:"type"`
	Pos  Pos    `json:"pos"`

	Name   string            `json:"name"`
	Raw    string            `json:"raw"`
	Value  json.RawMessage   `json:"value"`
	Path   string            `json:"path"`
	Kind   string            `json:"kind"`
	Op     string            `json:"op"`
	Field  string            `json:"field"`
	Key    json.RawMessage   `json:"key"`
	Params []string          `json:"params"`
	Names  []string          `json:"names"`
	Body   []json.RawMessage `json:"body"`

	Operand json.RawMessage   `json:"operand"`
	Left    json.RawMessage   `json:"left"`
	Right   json.RawMessage   `json:"right"`
	Cond    json.RawMessage   `json:"cond"`
	Then    json.RawMessage   `json:"then"`
	Else    json.RawMessage   `json:"else"`
	Object  json.RawMessage   `json:"object"`
	Idx     json.RawMessage   `json:"idx"`
	Callee  json.RawMessage   `json:"callee"`
	Args    []json.RawMessage `json:"args"`
	Elems   []json.RawMessage `json:"elems"`
	Props   []json.RawMessage `json:"props"`
	X       json.RawMessage   `json:"x"`
	Lhs     json.RawMessage   `json:"lhs"`
	Rhs     json.RawMessage   `json:"rhs"`
	Pat     json.RawMessage   `json:"pat"`
	Decl    json.RawMessage   `json:"decl"`
	Stmt    json.RawMessage   `json:"stmt"`
}

func decodeRaw(data []byte) (*rawNode, error) {
	var n rawNode
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	if n.Type == "" {
		return nil, fmt.Errorf("node missing type discriminator")
	}
	return &n, nil
}

func decodeItem(data []byte) (Item, error) {
	n, err := decodeRaw(data)
	if err != nil {
		return nil, err
	}
	switch n.Type {
	case "import":
		return &Import{Pos: n.Pos, Path: n.Path}, nil
	case "export":
		decl, err := decodeStmt(n.Decl)
		if err != nil {
			return nil, err
		}
		return &Export{Pos: n.Pos, Decl: decl}, nil
	case "stmt":
		s, err := decodeStmt(n.Stmt)
		if err != nil {
			return nil, err
		}
		return &ItemStmt{S: s}, nil
	default:
		return nil, fmt.Errorf("unknown item type %q", n.Type)
	}
}

func decodeStmt(data []byte) (Stmt, error) {
	n, err := decodeRaw(data)
	if err != nil {
		return nil, err
	}
	switch n.Type {
	case "block":
		body, err := decodeStmtList(n.Body)
		if err != nil {
			return nil, err
		}
		return &Block{Pos: n.Pos, Body: body}, nil
	case "const", "var":
		pat, err := decodePattern(n.Pat)
		if err != nil {
			return nil, err
		}
		val, err := decodeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		if n.Type == "const" {
			return &ConstDecl{Pos: n.Pos, Pat: pat, Value: val}, nil
		}
		return &VarDecl{Pos: n.Pos, Pat: pat, Value: val}, nil
	case "funcdecl":
		body, err := decodeStmtList(n.Body)
		if err != nil {
			return nil, err
		}
		return &FuncDecl{Pos: n.Pos, Name: n.Name, Params: n.Params, Body: body}, nil
	case "if":
		cond, err := decodeExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		var thenList, elseList []json.RawMessage
		if err := json.Unmarshal(n.Then, &thenList); err != nil {
			return nil, fmt.Errorf("if then: %w", err)
		}
		thenS, err := decodeStmtList(thenList)
		if err != nil {
			return nil, err
		}
		var elseS []Stmt
		if len(n.Else) > 0 {
			if err := json.Unmarshal(n.Else, &elseList); err != nil {
				return nil, fmt.Errorf("if else: %w", err)
			}
			elseS, err = decodeStmtList(elseList)
			if err != nil {
				return nil, err
			}
		}
		return &If{Pos: n.Pos, Cond: cond, Then: thenS, Else: elseS}, nil
	case "expr":
		x, err := decodeExpr(n.X)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{Pos: n.Pos, X: x}, nil
	case "return":
		var val Expr
		if len(n.Value) > 0 {
			val, err = decodeExpr(n.Value)
			if err != nil {
				return nil, err
			}
		}
		return &Return{Pos: n.Pos, Value: val}, nil
	case "while":
		cond, err := decodeExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		body, err := decodeStmtList(n.Body)
		if err != nil {
			return nil, err
		}
		return &While{Pos: n.Pos, Cond: cond, Body: body}, nil
	case "assign":
		lhs, err := decodeExpr(n.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := decodeExpr(n.Rhs)
		if err != nil {
			return nil, err
		}
		return &Assign{Pos: n.Pos, Lhs: lhs, Rhs: rhs}, nil
	case "continue":
		return &Continue{Pos: n.Pos}, nil
	case "unsupported":
		return &UnsupportedStmt{Pos: n.Pos, Kind: n.Kind}, nil
	default:
		return nil, fmt.Errorf("unknown stmt type %q", n.Type)
	}
}

func decodeStmtList(list []json.RawMessage) ([]Stmt, error) {
	out := make([]Stmt, 0, len(list))
	for i, raw := range list {
		s, err := decodeStmt(raw)
		if err != nil {
			return nil, fmt.Errorf("stmt %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func decodeExpr(data []byte) (Expr, error) {
	n, err := decodeRaw(data)
	if err != nil {
		return nil, err
	}
	switch n.Type {
	case "ident":
		return &Ident{Pos: n.Pos, Name: n.Name}, nil
	case "int":
		return &IntLit{Pos: n.Pos, Raw: n.Raw}, nil
	case "bool":
		var v struct {
			Value bool `json:"value"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return &BoolLit{Pos: n.Pos, Value: v.Value}, nil
	case "str":
		return &StrLit{Pos: n.Pos, Raw: n.Raw}, nil
	case "null":
		return &NullLit{Pos: n.Pos}, nil
	case "unary":
		op, err := decodeExpr(n.Operand)
		if err != nil {
			return nil, err
		}
		return &Unary{Pos: n.Pos, Op: n.Op, Operand: op}, nil
	case "binary":
		l, err := decodeExpr(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := decodeExpr(n.Right)
		if err != nil {
			return nil, err
		}
		return &Binary{Pos: n.Pos, Op: n.Op, Left: l, Right: r}, nil
	case "ternary":
		c, err := decodeExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		t, err := decodeExpr(n.Then)
		if err != nil {
			return nil, err
		}
		f, err := decodeExpr(n.Else)
		if err != nil {
			return nil, err
		}
		return &Ternary{Pos: n.Pos, Cond: c, Then: t, Else: f}, nil
	case "member":
		obj, err := decodeExpr(n.Object)
		if err != nil {
			return nil, err
		}
		return &Member{Pos: n.Pos, Object: obj, Field: n.Field}, nil
	case "index":
		obj, err := decodeExpr(n.Object)
		if err != nil {
			return nil, err
		}
		idx, err := decodeExpr(n.Idx)
		if err != nil {
			return nil, err
		}
		return &Index{Pos: n.Pos, Object: obj, Idx: idx}, nil
	case "call":
		callee, err := decodeExpr(n.Callee)
		if err != nil {
			return nil, err
		}
		args := make([]Expr, 0, len(n.Args))
		for i, raw := range n.Args {
			a, err := decodeExpr(raw)
			if err != nil {
				return nil, fmt.Errorf("arg %d: %w", i, err)
			}
			args = append(args, a)
		}
		return &Call{Pos: n.Pos, Callee: callee, Args: args}, nil
	case "array":
		elems := make([]Expr, 0, len(n.Elems))
		for i, raw := range n.Elems {
			el, err := decodeExpr(raw)
			if err != nil {
				return nil, fmt.Errorf("elem %d: %w", i, err)
			}
			elems = append(elems, el)
		}
		return &ArrayLit{Pos: n.Pos, Elems: elems}, nil
	case "object":
		props := make([]Prop, 0, len(n.Props))
		for i, raw := range n.Props {
			p, err := decodeProp(raw)
			if err != nil {
				return nil, fmt.Errorf("prop %d: %w", i, err)
			}
			props = append(props, p)
		}
		return &ObjectLit{Pos: n.Pos, Props: props}, nil
	case "func":
		body, err := decodeStmtList(n.Body)
		if err != nil {
			return nil, err
		}
		return &Func{Pos: n.Pos, Name: n.Name, Params: n.Params, Body: body}, nil
	case "unsupported":
		return &UnsupportedExpr{Pos: n.Pos, Kind: n.Kind}, nil
	default:
		return nil, fmt.Errorf("unknown expr type %q", n.Type)
	}
}

func decodeProp(data []byte) (Prop, error) {
	n, err := decodeRaw(data)
	if err != nil {
		return nil, err
	}
	val, err := decodeExpr(n.Value)
	if err != nil {
		return nil, err
	}
	switch n.Type {
	case "field":
		return &PropField{Pos: n.Pos, Name: n.Name, Value: val}, nil
	case "computed":
		key, err := decodeExpr(n.Key)
		if err != nil {
			return nil, err
		}
		return &PropComputed{Pos: n.Pos, Key: key, Value: val}, nil
	case "spread":
		return &PropSpread{Pos: n.Pos, Value: val}, nil
	default:
		return nil, fmt.Errorf("unknown prop type %q", n.Type)
	}
}

func decodePattern(data []byte) (Pattern, error) {
	n, err := decodeRaw(data)
	if err != nil {
		return nil, err
	}
	switch n.Type {
	case "name":
		return &NamePat{Pos: n.Pos, Name: n.Name}, nil
	case "arraypat":
		return &ArrayPat{Pos: n.Pos, Names: n.Names}, nil
	default:
		return nil, fmt.Errorf("unknown pattern type %q", n.Type)
	}
}
