// Package testutil provides compact AST constructors for tests.
//
// The builders keep test programs readable: a surface program is written
// as nested constructor calls instead of struct literals, with positions
// derived from a per-file line counter so diagnostics stay meaningful in
// failure output.
package testutil

import (
	"fmt"

	"github.com/temptemp3/reach-lang/internal/ast"
)

// B builds AST nodes for one synthetic source file. Line numbers advance
// with every node so error positions in test failures are distinct.
type B struct {
	File string
	line int
}

// NewB creates a builder for the given synthetic file name.
func NewB(file string) *B {
	return &B{File: file}
}

func (b *B) pos() ast.Pos {
	b.line++
	return ast.Pos{File: b.File, Line: b.line, Col: 1}
}

// Header produces the required opening header item for a module.
func (b *B) Header(version string) ast.Item {
	return b.ItemS(b.ExprS(b.Str(version)))
}

func (b *B) Id(name string) *ast.Ident  { return &ast.Ident{Pos: b.pos(), Name: name} }
func (b *B) Int(raw string) *ast.IntLit { return &ast.IntLit{Pos: b.pos(), Raw: raw} }
func (b *B) IntN(n int) *ast.IntLit     { return b.Int(fmt.Sprintf("%d", n)) }
func (b *B) Bool(v bool) *ast.BoolLit   { return &ast.BoolLit{Pos: b.pos(), Value: v} }
func (b *B) Null() *ast.NullLit         { return &ast.NullLit{Pos: b.pos()} }
func (b *B) Str(s string) *ast.StrLit   { return &ast.StrLit{Pos: b.pos(), Raw: "'" + s + "'"} }

func (b *B) Un(op string, x ast.Expr) *ast.Unary {
	return &ast.Unary{Pos: b.pos(), Op: op, Operand: x}
}

func (b *B) Bin(op string, l, r ast.Expr) *ast.Binary {
	return &ast.Binary{Pos: b.pos(), Op: op, Left: l, Right: r}
}

func (b *B) Tern(c, t, f ast.Expr) *ast.Ternary {
	return &ast.Ternary{Pos: b.pos(), Cond: c, Then: t, Else: f}
}

func (b *B) Member(obj ast.Expr, field string) *ast.Member {
	return &ast.Member{Pos: b.pos(), Object: obj, Field: field}
}

func (b *B) Index(obj, idx ast.Expr) *ast.Index {
	return &ast.Index{Pos: b.pos(), Object: obj, Idx: idx}
}

func (b *B) Call(callee ast.Expr, args ...ast.Expr) *ast.Call {
	return &ast.Call{Pos: b.pos(), Callee: callee, Args: args}
}

func (b *B) Arr(elems ...ast.Expr) *ast.ArrayLit {
	return &ast.ArrayLit{Pos: b.pos(), Elems: elems}
}

func (b *B) Obj(props ...ast.Prop) *ast.ObjectLit {
	return &ast.ObjectLit{Pos: b.pos(), Props: props}
}

func (b *B) Field(name string, v ast.Expr) ast.Prop {
	return &ast.PropField{Pos: b.pos(), Name: name, Value: v}
}

func (b *B) Spread(v ast.Expr) ast.Prop {
	return &ast.PropSpread{Pos: b.pos(), Value: v}
}

// Arrow builds an anonymous function expression.
func (b *B) Arrow(params []string, body ...ast.Stmt) *ast.Func {
	return &ast.Func{Pos: b.pos(), Params: params, Body: body}
}

func (b *B) Const(name string, v ast.Expr) *ast.ConstDecl {
	return &ast.ConstDecl{Pos: b.pos(), Pat: &ast.NamePat{Pos: b.pos(), Name: name}, Value: v}
}

func (b *B) ConstArr(names []string, v ast.Expr) *ast.ConstDecl {
	return &ast.ConstDecl{Pos: b.pos(), Pat: &ast.ArrayPat{Pos: b.pos(), Names: names}, Value: v}
}

func (b *B) VarArr(names []string, v ast.Expr) *ast.VarDecl {
	return &ast.VarDecl{Pos: b.pos(), Pat: &ast.ArrayPat{Pos: b.pos(), Names: names}, Value: v}
}

func (b *B) ExprS(x ast.Expr) *ast.ExprStmt {
	return &ast.ExprStmt{Pos: b.pos(), X: x}
}

func (b *B) Ret(v ast.Expr) *ast.Return {
	return &ast.Return{Pos: b.pos(), Value: v}
}

func (b *B) If(cond ast.Expr, then, els []ast.Stmt) *ast.If {
	return &ast.If{Pos: b.pos(), Cond: cond, Then: then, Else: els}
}

func (b *B) While(cond ast.Expr, body ...ast.Stmt) *ast.While {
	return &ast.While{Pos: b.pos(), Cond: cond, Body: body}
}

func (b *B) Assign(lhs, rhs ast.Expr) *ast.Assign {
	return &ast.Assign{Pos: b.pos(), Lhs: lhs, Rhs: rhs}
}

func (b *B) Continue() *ast.Continue {
	return &ast.Continue{Pos: b.pos()}
}

func (b *B) ItemS(s ast.Stmt) ast.Item   { return &ast.ItemStmt{S: s} }
func (b *B) Export(s ast.Stmt) ast.Item  { return &ast.Export{Pos: b.pos(), Decl: s} }
func (b *B) Import(path string) ast.Item { return &ast.Import{Pos: b.pos(), Path: path} }

// Module assembles a module from items.
func Module(key string, items ...ast.Item) ast.Module {
	return ast.Module{Key: key, Items: items}
}

// Bundle assembles a bundle; the last module is the entry.
func Bundle(mods ...ast.Module) ast.Bundle {
	return ast.Bundle{Modules: mods}
}

// OnlyCall builds who.only(() => { body }).
func (b *B) OnlyCall(who string, body ...ast.Stmt) *ast.ExprStmt {
	return b.ExprS(b.Call(b.Member(b.Id(who), "only"), b.Arrow(nil, body...)))
}

// PublishCall builds who.publish(names...).
func (b *B) PublishCall(who string, names ...string) *ast.ExprStmt {
	args := make([]ast.Expr, len(names))
	for i, n := range names {
		args[i] = b.Id(n)
	}
	return b.ExprS(b.Call(b.Member(b.Id(who), "publish"), args...))
}

// CommitCall builds commit();
func (b *B) CommitCall() *ast.ExprStmt {
	return b.ExprS(b.Call(b.Id("commit")))
}

// AppModule builds a complete single-module bundle around the given body
// statements: header, then export const main = Reach.App(opts, parts,
// (names...) => { body }). Each part is a (name, interface) pair whose
// interface expression may be nil for an empty one.
func AppModule(b *B, parts []AppPart, body ...ast.Stmt) ast.Bundle {
	partExprs := make([]ast.Expr, len(parts))
	params := make([]string, len(parts))
	for i, p := range parts {
		iface := p.Iface
		if iface == nil {
			iface = b.Obj()
		}
		partExprs[i] = b.Arr(b.Str(p.Name), iface)
		params[i] = p.Name
	}
	app := b.Call(
		b.Member(b.Id("Reach"), "App"),
		b.Obj(),
		b.Arr(partExprs...),
		b.Arrow(params, body...),
	)
	mod := Module("main.rsh",
		b.Header("reach 0.1"),
		b.Export(b.Const("main", app)),
	)
	return Bundle(mod)
}

// AppPart declares one participant for AppModule.
type AppPart struct {
	Name  string
	Iface ast.Expr
}
