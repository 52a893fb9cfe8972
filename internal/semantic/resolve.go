package semantic

import (
	"strings"

	"github.com/p8c/p8c/internal/ast"
)

// scopedNamer is implemented by every declaration kind that caches a
// canonical dotted path for assembly-label emission (spec.md §4.2).
type scopedNamer interface {
	SetScopedName(string)
}

// ResolvePass is the Name/Scope Resolver (spec.md §4.2): it attaches every
// identifier reference to a unique declaration and memoizes each
// declaration's scopedName.
type ResolvePass struct{}

func NewResolvePass() *ResolvePass { return &ResolvePass{} }

func (p *ResolvePass) Name() string { return "Name/Scope Resolution" }

func (p *ResolvePass) Run(program *ast.Program, ctx *Context) error {
	r := &resolver{ctx: ctx}
	for _, m := range program.Modules {
		ctx.Symbols.RegisterModule(m)
	}
	for _, m := range program.Modules {
		r.curModule = m
		r.resolveScope(m, nil, []string{m.Name})
	}
	return nil
}

type resolver struct {
	ctx       *Context
	curModule *ast.Module
}

// declareAll registers every direct declaration of scope's body in its
// SymbolTable before resolving any reference, so forward references within
// the same scope succeed (spec.md §4.2), and memoizes scopedName on each.
func (r *resolver) declareAll(body []ast.Statement, table *SymbolTable, path []string) {
	for _, stmt := range body {
		switch d := stmt.(type) {
		case *ast.VarDecl:
			r.define(table, d.Name, d, path)
		case *ast.SubroutineDecl:
			r.define(table, d.Name, d, path)
		case *ast.LabelDecl:
			r.define(table, d.Name, d, path)
		case *ast.StructDecl:
			r.define(table, d.Name, d, path)
		case *ast.Block:
			r.define(table, d.Name, d, path)
		}
	}
}

func (r *resolver) define(table *SymbolTable, name string, decl ast.Node, path []string) {
	if !table.Define(name, decl) {
		r.ctx.Diags.Report(decl.Pos(), "duplicate declaration of %q", name)
		return
	}
	if sn, ok := decl.(scopedNamer); ok {
		sn.SetScopedName(strings.Join(append(append([]string{}, path...), name), "."))
	}
}

// resolveScope builds scope's table (chained to outer), declares its
// direct members, then resolves every statement in its body. Only
// BodyHolder scopes (Module, Block, SubroutineDecl, AnonScopeStatement)
// reach here; StructDecl's member list is resolved structurally by the
// type checker directly off StructDecl.Members, not through a SymbolTable.
func (r *resolver) resolveScope(scope ast.BodyHolder, outer ast.Scope, path []string) *SymbolTable {
	table := r.ctx.Symbols.TableFor(scope, outer)
	r.declareAll(scope.Body(), table, path)
	for _, stmt := range scope.Body() {
		r.resolveStmt(stmt, scope, table, path)
	}
	return table
}

func (r *resolver) resolveStmt(stmt ast.Statement, scope ast.Scope, table *SymbolTable, path []string) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		if s.Init != nil {
			r.resolveExpr(s.Init, scope, table)
		}
	case *ast.SubroutineDecl:
		sub := s
		subPath := append(append([]string{}, path...), sub.Name)
		inner := r.ctx.Symbols.TableFor(sub, scope)
		for _, p := range sub.Params {
			r.define(inner, p.Name, p, subPath)
		}
		r.declareAll(sub.BodyStmts, inner, subPath)
		for _, st := range sub.BodyStmts {
			r.resolveStmt(st, sub, inner, subPath)
		}
	case *ast.StructDecl:
		// Member declarations do not themselves have initializers that
		// need resolving against the enclosing scope chain.
	case *ast.Block:
		blockPath := append(append([]string{}, path...), s.Name)
		inner := r.ctx.Symbols.TableFor(s, scope)
		r.declareAll(s.Stmts, inner, blockPath)
		for _, st := range s.Stmts {
			r.resolveStmt(st, s, inner, blockPath)
		}
	case *ast.AnonScopeStatement:
		innerPath := append(append([]string{}, path...), s.Name)
		inner := r.ctx.Symbols.TableFor(s, scope)
		r.declareAll(s.BodyStmts, inner, innerPath)
		for _, st := range s.BodyStmts {
			r.resolveStmt(st, s, inner, innerPath)
		}
	case *ast.AssignStatement:
		r.resolveExpr(s.Target, scope, table)
		r.resolveExpr(s.Value, scope, table)
	case *ast.PostfixStatement:
		r.resolveExpr(s.Target, scope, table)
	case *ast.CallStatement:
		r.resolveExpr(s.Call, scope, table)
	case *ast.ReturnStatement:
		for _, v := range s.Values {
			r.resolveExpr(v, scope, table)
		}
	case *ast.JumpStatement:
		if s.Address != nil {
			r.resolveExpr(s.Address, scope, table)
		}
	case *ast.IfStatement:
		r.resolveExpr(s.Condition, scope, table)
		for _, st := range s.Then {
			r.resolveStmt(st, scope, table, path)
		}
		for _, st := range s.Else {
			r.resolveStmt(st, scope, table, path)
		}
	case *ast.BranchStatement:
		for _, st := range s.Body {
			r.resolveStmt(st, scope, table, path)
		}
	case *ast.ForInStatement:
		r.resolveExpr(s.Iterable, scope, table)
		for _, st := range s.Body {
			r.resolveStmt(st, scope, table, path)
		}
	case *ast.WhileStatement:
		r.resolveExpr(s.Condition, scope, table)
		for _, st := range s.Body {
			r.resolveStmt(st, scope, table, path)
		}
	case *ast.UntilStatement:
		for _, st := range s.Body {
			r.resolveStmt(st, scope, table, path)
		}
		r.resolveExpr(s.Condition, scope, table)
	case *ast.RepeatStatement:
		r.resolveExpr(s.Count, scope, table)
		for _, st := range s.Body {
			r.resolveStmt(st, scope, table, path)
		}
	case *ast.WhenStatement:
		r.resolveExpr(s.Subject, scope, table)
		for _, arm := range s.Arms {
			for _, v := range arm.Values {
				r.resolveExpr(v, scope, table)
			}
			for _, st := range arm.Body {
				r.resolveStmt(st, scope, table, path)
			}
		}
	}
}

func (r *resolver) resolveExpr(expr ast.Expression, scope ast.Scope, table *SymbolTable) {
	switch e := expr.(type) {
	case *ast.IdentifierRef:
		r.resolveIdentifier(e, table)
	case *ast.BinaryExpression:
		r.resolveExpr(e.Left, scope, table)
		r.resolveExpr(e.Right, scope, table)
	case *ast.PrefixExpression:
		r.resolveExpr(e.Right, scope, table)
	case *ast.TypecastExpression:
		r.resolveExpr(e.Value, scope, table)
		r.resolveStructRef(e.Target, table)
	case *ast.CallExpression:
		r.resolveExpr(e.Callee, scope, table)
		for _, a := range e.Args {
			r.resolveExpr(a, scope, table)
		}
		if id, ok := e.Callee.(*ast.IdentifierRef); ok {
			if sub, ok := id.Target.(*ast.SubroutineDecl); ok {
				e.Resolved = sub
			}
		}
	case *ast.MemReadExpression:
		r.resolveExpr(e.Address, scope, table)
	case *ast.AddressOfExpression:
		r.resolveExpr(e.Value, scope, table)
	case *ast.RangeExpression:
		r.resolveExpr(e.Start, scope, table)
		r.resolveExpr(e.End, scope, table)
		if e.Step != nil {
			r.resolveExpr(e.Step, scope, table)
		}
	case *ast.IndexExpression:
		r.resolveExpr(e.Array, scope, table)
		r.resolveExpr(e.Index, scope, table)
	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			r.resolveExpr(el, scope, table)
		}
	}
}

// resolveIdentifier ascends table's scope chain to the Module, then falls
// back to the current module's imports (spec.md §4.2: "ascending through
// enclosing scopes to the Module, then consult cross-module imports").
func (r *resolver) resolveIdentifier(ref *ast.IdentifierRef, table *SymbolTable) {
	if len(ref.Path) == 0 {
		return
	}
	head := ref.Path[0]
	if sym, _ := table.Lookup(head); sym != nil {
		ref.Target = sym.Decl
		return
	}
	if r.curModule != nil {
		var hits []ast.Node
		for _, importName := range r.curModule.ImportNames {
			mod, ok := r.ctx.Symbols.Module(importName)
			if !ok {
				continue
			}
			modTable := r.ctx.Symbols.Lookup(mod)
			if modTable == nil {
				continue
			}
			if sym, ok := modTable.LookupLocal(head); ok {
				hits = append(hits, sym.Decl)
			}
		}
		switch len(hits) {
		case 0:
		case 1:
			ref.Target = hits[0]
			return
		default:
			r.ctx.Diags.Report(ref.Pos(), "AMBIGUOUS_NAME: %q is exported by %d imported modules", head, len(hits))
			return
		}
	}
	r.ctx.Diags.Report(ref.Pos(), "UNRESOLVED_NAME: %q", head)
}

func (r *resolver) resolveStructRef(t *ast.TypeRef, table *SymbolTable) {
	if t == nil || t.StructName == "" {
		return
	}
	sym, _ := table.Lookup(t.StructName)
	if sym == nil {
		return
	}
	if sd, ok := sym.Decl.(*ast.StructDecl); ok {
		t.ResolvedStruct = sd
	}
}
