package ast

import "fmt"

// Pos is a source location attached to every node.
type Pos struct {
	File string `json:"file,omitempty"`
	Line int    `json:"line"`
	Col  int    `json:"col"`
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Col)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Expr is a sealed interface over surface expression nodes.
// Only the types in this package implement it.
type Expr interface {
	exprNode()
	Loc() Pos
}

// Ident is an identifier reference.
type Ident struct {
	Pos  Pos
	Name string
}

// IntLit is an integer literal. Raw preserves the surface spelling,
// which may be decimal, hex (0x...), or octal (0o... or leading 0).
type IntLit struct {
	Pos Pos
	Raw string
}

// BoolLit is true or false.
type BoolLit struct {
	Pos   Pos
	Value bool
}

// StrLit is a byte-string literal. Raw includes the surrounding quotes.
type StrLit struct {
	Pos Pos
	Raw string
}

// NullLit is the null literal.
type NullLit struct {
	Pos Pos
}

// Unary is a prefix operator application.
type Unary struct {
	Pos     Pos
	Op      string
	Operand Expr
}

// Binary is an infix operator application.
type Binary struct {
	Pos   Pos
	Op    string
	Left  Expr
	Right Expr
}

// Ternary is the conditional expression c ? t : f.
type Ternary struct {
	Pos  Pos
	Cond Expr
	Then Expr
	Else Expr
}

// Member is a field access o.field.
type Member struct {
	Pos    Pos
	Object Expr
	Field  string
}

// Index is a subscript access o[i].
type Index struct {
	Pos    Pos
	Object Expr
	Idx    Expr
}

// Call is a function application.
type Call struct {
	Pos    Pos
	Callee Expr
	Args   []Expr
}

// ArrayLit is an array literal.
type ArrayLit struct {
	Pos   Pos
	Elems []Expr
}

// ObjectLit is an object literal.
type ObjectLit struct {
	Pos   Pos
	Props []Prop
}

// Func is a function or arrow expression. Name is empty for anonymous
// functions; named function expressions are rejected by the evaluator.
type Func struct {
	Pos    Pos
	Name   string
	Params []string
	Body   []Stmt
}

// UnsupportedExpr stands for any surface expression shape outside the
// language. Kind names the rejected construct for diagnostics.
type UnsupportedExpr struct {
	Pos  Pos
	Kind string
}

func (*Ident) exprNode()           {}
func (*IntLit) exprNode()          {}
func (*BoolLit) exprNode()         {}
func (*StrLit) exprNode()          {}
func (*NullLit) exprNode()         {}
func (*Unary) exprNode()           {}
func (*Binary) exprNode()          {}
func (*Ternary) exprNode()         {}
func (*Member) exprNode()          {}
func (*Index) exprNode()           {}
func (*Call) exprNode()            {}
func (*ArrayLit) exprNode()        {}
func (*ObjectLit) exprNode()       {}
func (*Func) exprNode()            {}
func (*UnsupportedExpr) exprNode() {}

func (e *Ident) Loc() Pos           { return e.Pos }
func (e *IntLit) Loc() Pos          { return e.Pos }
func (e *BoolLit) Loc() Pos         { return e.Pos }
func (e *StrLit) Loc() Pos          { return e.Pos }
func (e *NullLit) Loc() Pos         { return e.Pos }
func (e *Unary) Loc() Pos           { return e.Pos }
func (e *Binary) Loc() Pos          { return e.Pos }
func (e *Ternary) Loc() Pos         { return e.Pos }
func (e *Member) Loc() Pos          { return e.Pos }
func (e *Index) Loc() Pos           { return e.Pos }
func (e *Call) Loc() Pos            { return e.Pos }
func (e *ArrayLit) Loc() Pos        { return e.Pos }
func (e *ObjectLit) Loc() Pos       { return e.Pos }
func (e *Func) Loc() Pos            { return e.Pos }
func (e *UnsupportedExpr) Loc() Pos { return e.Pos }

// Prop is a sealed interface over object-literal properties.
type Prop interface {
	propNode()
}

// PropField is a plain name: value property.
type PropField struct {
	Pos   Pos
	Name  string
	Value Expr
}

// PropComputed is a [key]: value property. The key expression must
// evaluate to a byte string.
type PropComputed struct {
	Pos   Pos
	Key   Expr
	Value Expr
}

// PropSpread is a ...value property. The value must be an object.
type PropSpread struct {
	Pos   Pos
	Value Expr
}

func (*PropField) propNode()    {}
func (*PropComputed) propNode() {}
func (*PropSpread) propNode()   {}

// Stmt is a sealed interface over surface statement nodes.
type Stmt interface {
	stmtNode()
	Loc() Pos
}

// Block is a nested statement block.
type Block struct {
	Pos  Pos
	Body []Stmt
}

// ConstDecl is a const binding, possibly destructuring.
type ConstDecl struct {
	Pos   Pos
	Pat   Pattern
	Value Expr
}

// VarDecl is a var binding. It is legal only as the head of the
// var/invariant/while loop form.
type VarDecl struct {
	Pos   Pos
	Pat   Pattern
	Value Expr
}

// FuncDecl is a function declaration. Name must be non-empty.
type FuncDecl struct {
	Pos    Pos
	Name   string
	Params []string
	Body   []Stmt
}

// If is a conditional statement. Else may be nil.
type If struct {
	Pos  Pos
	Cond Expr
	Then []Stmt
	Else []Stmt
}

// ExprStmt is an expression evaluated for effect.
type ExprStmt struct {
	Pos Pos
	X   Expr
}

// Return is a return statement. Value may be nil.
type Return struct {
	Pos   Pos
	Value Expr
}

// While is the loop tail of the var/invariant/while form.
type While struct {
	Pos  Pos
	Cond Expr
	Body []Stmt
}

// Assign is an assignment. The only legal shape is a trivial
// array-destructuring assignment immediately followed by Continue.
type Assign struct {
	Pos Pos
	Lhs Expr
	Rhs Expr
}

// Continue is the continue statement closing a loop body.
type Continue struct {
	Pos Pos
}

// UnsupportedStmt stands for any surface statement shape outside the
// language (for, do-while, switch, try, throw, class, ...).
type UnsupportedStmt struct {
	Pos  Pos
	Kind string
}

func (*Block) stmtNode()           {}
func (*ConstDecl) stmtNode()       {}
func (*VarDecl) stmtNode()         {}
func (*FuncDecl) stmtNode()        {}
func (*If) stmtNode()              {}
func (*ExprStmt) stmtNode()        {}
func (*Return) stmtNode()          {}
func (*While) stmtNode()           {}
func (*Assign) stmtNode()          {}
func (*Continue) stmtNode()        {}
func (*UnsupportedStmt) stmtNode() {}

func (s *Block) Loc() Pos           { return s.Pos }
func (s *ConstDecl) Loc() Pos       { return s.Pos }
func (s *VarDecl) Loc() Pos         { return s.Pos }
func (s *FuncDecl) Loc() Pos        { return s.Pos }
func (s *If) Loc() Pos              { return s.Pos }
func (s *ExprStmt) Loc() Pos        { return s.Pos }
func (s *Return) Loc() Pos          { return s.Pos }
func (s *While) Loc() Pos           { return s.Pos }
func (s *Assign) Loc() Pos          { return s.Pos }
func (s *Continue) Loc() Pos        { return s.Pos }
func (s *UnsupportedStmt) Loc() Pos { return s.Pos }

// Pattern is a sealed interface over binding patterns.
type Pattern interface {
	patternNode()
}

// NamePat binds a single name.
type NamePat struct {
	Pos  Pos
	Name string
}

// ArrayPat destructures a tuple or fixed array into names.
type ArrayPat struct {
	Pos   Pos
	Names []string
}

func (*NamePat) patternNode()  {}
func (*ArrayPat) patternNode() {}

// Item is a sealed interface over module-level items.
type Item interface {
	itemNode()
	Loc() Pos
}

// Import brings another module's exports into scope. Path is the module
// key of an earlier bundle entry.
type Import struct {
	Pos  Pos
	Path string
}

// Export evaluates a declaration and also publishes its new bindings in
// the module's export environment.
type Export struct {
	Pos  Pos
	Decl Stmt
}

// ItemStmt is a plain top-level statement.
type ItemStmt struct {
	S Stmt
}

func (*Import) itemNode()   {}
func (*Export) itemNode()   {}
func (*ItemStmt) itemNode() {}

func (i *Import) Loc() Pos   { return i.Pos }
func (i *Export) Loc() Pos   { return i.Pos }
func (i *ItemStmt) Loc() Pos { return i.S.Loc() }

// Module is one source module: a key plus its ordered items.
type Module struct {
	Key   string
	Items []Item
}

// Bundle is an ordered list of modules. The last module is the entry
// module; imports resolve against earlier entries only.
type Bundle struct {
	Modules []Module
}
