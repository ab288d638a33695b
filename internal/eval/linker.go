package eval

import (
	"github.com/temptemp3/reach-lang/internal/ast"
	"github.com/temptemp3/reach-lang/internal/ir"
)

// EntryName is the export program assembly looks up in the entry module.
const EntryName = "main"

// elaborateModule processes one module's items left to right against a
// running environment seeded from the standard library. Exported
// declarations additionally record their new bindings in the module's
// export environment.
func elaborateModule(stdlib *Env, libs map[string]*Env, m ast.Module) (*Env, error) {
	items, err := checkHeader(m)
	if err != nil {
		return nil, err
	}
	ctx := &Ctx{Mode: ModeModule, Base: stdlib}
	env := stdlib
	exports := NewEnv()

	for _, item := range items {
		switch it := item.(type) {
		case *ast.Import:
			lib, ok := libs[it.Path]
			if !ok {
				e := errAt(ErrModuleNotFound, it.Pos, "module %q was not elaborated before %q", it.Path, m.Key)
				e.Suggestions = suggest(it.Path, libKeys(libs), 5)
				return nil, e
			}
			env, err = Merge(it.Pos, env, lib)
			if err != nil {
				return nil, err
			}

		case *ast.Export:
			before := env
			env, err = runModuleStmt(ctx, env, it.Decl)
			if err != nil {
				return nil, err
			}
			for _, name := range DiffNames(env, before) {
				ent, _ := env.Lookup(name)
				exports, err = exports.Insert(it.Pos, name, ent.Level, ent.Val)
				if err != nil {
					return nil, err
				}
			}

		case *ast.ItemStmt:
			env, err = runModuleStmt(ctx, env, it.S)
			if err != nil {
				return nil, err
			}

		default:
			return nil, errAt(ErrInternal, item.Loc(), "unhandled module item %T", item)
		}
	}
	return exports, nil
}

// checkHeader enforces the required opening header literal and returns
// the remaining items.
func checkHeader(m ast.Module) ([]ast.Item, error) {
	want := ir.SourceHeader()
	if len(m.Items) == 0 {
		return nil, errAt(ErrNoHeader, ast.Pos{File: m.Key}, "module %q must open with the header %q", m.Key, want)
	}
	it, ok := m.Items[0].(*ast.ItemStmt)
	if !ok {
		return nil, errAt(ErrNoHeader, m.Items[0].Loc(), "module %q must open with the header %q", m.Key, want)
	}
	es, ok := it.S.(*ast.ExprStmt)
	if !ok {
		return nil, errAt(ErrNoHeader, it.Loc(), "module %q must open with the header %q", m.Key, want)
	}
	lit, ok := es.X.(*ast.StrLit)
	if !ok {
		return nil, errAt(ErrNoHeader, es.Pos, "module %q must open with the header %q", m.Key, want)
	}
	if got := trimQuotes(lit.Raw); got != want {
		return nil, errAt(ErrNoHeader, lit.Pos, "module %q opens with %q; the required header is %q", m.Key, got, want)
	}
	return m.Items[1:], nil
}

func runModuleStmt(ctx *Ctx, env *Env, s ast.Stmt) (*Env, error) {
	sc := &Scope{Env: env, RetSlot: -1, Policy: RetCannot}
	res, err := ctx.EvalStmts(sc, []ast.Stmt{s})
	if err != nil {
		return nil, err
	}
	if len(res.Rets) > 0 {
		return nil, errAt(ErrTopLevelReturn, res.Rets[0].Pos, "return at module top level")
	}
	if len(res.Lifts) > 0 {
		return nil, errAt(ErrInternal, s.Loc(), "module elaboration emitted %d lift(s)", len(res.Lifts))
	}
	return res.Env, nil
}

func libKeys(libs map[string]*Env) []string {
	out := make([]string, 0, len(libs))
	for k := range libs {
		out = append(out, k)
	}
	return out
}

// CompileBundle elaborates every module in order, locates the entry
// export in the last module, and assembles the program: participant
// interface signatures plus the root lift sequence.
func CompileBundle(b ast.Bundle) (*ir.Program, error) {
	if len(b.Modules) == 0 {
		return nil, errAt(ErrModuleNotFound, ast.Pos{}, "empty bundle: no entry module")
	}
	stdlib, err := Stdlib()
	if err != nil {
		return nil, err
	}
	libs := make(map[string]*Env, len(b.Modules))
	var entry *Env
	for _, m := range b.Modules {
		exports, err := elaborateModule(stdlib, libs, m)
		if err != nil {
			return nil, err
		}
		libs[m.Key] = exports
		entry = exports
	}

	entryKey := b.Modules[len(b.Modules)-1].Key
	ent, ok := entry.Lookup(EntryName)
	if !ok {
		e := errAt(ErrEntryMissing, ast.Pos{File: entryKey}, "entry module %q does not export %q", entryKey, EntryName)
		e.Suggestions = suggest(EntryName, entry.Names(), 5)
		return nil, e
	}
	if ent.Level != Public {
		return nil, errAt(ErrEntrySecret, ast.Pos{File: entryKey}, "entry export %q must be public", EntryName)
	}
	form, ok := ent.Val.(VForm)
	if !ok {
		return nil, errAt(ErrNotApp, ast.Pos{File: entryKey}, "entry export %q must be an application, got %s", EntryName, Kind(ent.Val))
	}
	dapp, ok := form.Form.(FormDApp)
	if !ok {
		return nil, errAt(ErrNotApp, ast.Pos{File: entryKey}, "entry export %q must be an application", EntryName)
	}
	return elaborateProgram(stdlib, dapp)
}

// elaborateProgram binds each declared participant to a parameter of the
// application body and elaborates the body in step mode under a fresh
// counter.
func elaborateProgram(stdlib *Env, dapp FormDApp) (*ir.Program, error) {
	clo := dapp.Clo
	ctx := &Ctx{
		Mode:      ModeStep,
		Counter:   NewCounter(),
		Base:      stdlib,
		PartAddrs: map[string]ir.Var{},
		PartEnvs:  map[string]*Env{},
	}

	env := clo.Env
	participants := make(map[string]ir.InteractSpec, len(dapp.Parts))
	var err error
	for i, part := range dapp.Parts {
		pv := &VParticipant{Handle: part.Name, Interact: part.Iface}
		env, err = env.Insert(clo.Pos, clo.Params[i], Public, pv)
		if err != nil {
			return nil, err
		}
		participants[part.Name] = part.Iface
	}
	for _, part := range dapp.Parts {
		ctx.PartEnvs[part.Name] = env
	}

	sc := &Scope{Env: env, RetSlot: ctx.Counter.Alloc(), Policy: RetImplicitNull}
	body, err := ctx.EvalStmts(sc, clo.Body)
	if err != nil {
		return nil, err
	}
	return &ir.Program{Participants: participants, Body: body.Lifts}, nil
}
