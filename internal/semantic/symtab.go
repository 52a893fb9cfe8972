// Package semantic hosts the Name/Scope Resolver, Type System, Statement
// Reorderer/Desugarer, Constant Folder, Dead-Code Remover, Call Graph and
// Program-Level Checks (spec.md §4.2-§4.8), wired together by a
// PassManager (spec.md §4.1/§9).
//
// Grounded on the teacher's internal/semantic package: its pass.go
// (Pass/PassManager interface), pass_context.go (one shared mutable
// context threaded through every pass) and symbol_table.go (a SymbolTable
// chained to an outer scope via a plain field, not an interface) are kept
// as the architectural skeleton; every OOP-shaped analysis file
// (analyze_classes*.go, analyze_interfaces.go, analyze_enums.go, ...) has
// no P8 analogue (P8 has no classes/interfaces/enums/exceptions/lambdas)
// and was not carried forward — see DESIGN.md.
package semantic

import (
	"strings"

	"github.com/p8c/p8c/internal/ast"
)

// Symbol is one binding in a SymbolTable.
type Symbol struct {
	Name string
	Decl ast.Node // *ast.VarDecl, *ast.SubroutineDecl, *ast.LabelDecl, or *ast.StructDecl
}

// SymbolTable holds the bindings introduced directly by one ast.Scope.
// P8 is case-sensitive (unlike the teacher's Pascal-derived, case-insensitive
// DWScript), so names are stored and looked up as written.
type SymbolTable struct {
	owner   ast.Scope
	outer   *SymbolTable
	symbols map[string]*Symbol
}

func newSymbolTable(owner ast.Scope, outer *SymbolTable) *SymbolTable {
	return &SymbolTable{owner: owner, outer: outer, symbols: make(map[string]*Symbol)}
}

// Define binds name to decl in this table. It returns false if name is
// already bound directly in this scope (spec.md §4.8: duplicate
// detection).
func (st *SymbolTable) Define(name string, decl ast.Node) bool {
	if _, exists := st.symbols[name]; exists {
		return false
	}
	st.symbols[name] = &Symbol{Name: name, Decl: decl}
	return true
}

// LookupLocal looks up name only in this table, not outer scopes.
func (st *SymbolTable) LookupLocal(name string) (*Symbol, bool) {
	s, ok := st.symbols[name]
	return s, ok
}

// Lookup ascends the scope chain, starting from st, looking for name.
// Returns the symbol and the number of scope hops it took (used to detect
// ambiguity at equal distance, spec.md §4.2), or (nil, -1) if unresolved.
func (st *SymbolTable) Lookup(name string) (*Symbol, int) {
	depth := 0
	for cur := st; cur != nil; cur = cur.outer {
		if s, ok := cur.symbols[name]; ok {
			return s, depth
		}
		depth++
	}
	return nil, -1
}

// Outer returns the enclosing table, or nil at the Program root.
func (st *SymbolTable) Outer() *SymbolTable { return st.outer }

// Owner returns the ast.Scope this table was built for.
func (st *SymbolTable) Owner() ast.Scope { return st.owner }

// SymbolRegistry maps every ast.Scope's NodeID to its SymbolTable, built by
// the Name/Scope Resolver pass (spec.md §4.2) and consulted read-only by
// every later pass.
type SymbolRegistry struct {
	tables map[ast.NodeID]*SymbolTable
	// modules maps a module name to its Module node, for cross-module
	// import resolution (spec.md §4.2).
	modules map[string]*ast.Module
}

// NewSymbolRegistry creates an empty registry.
func NewSymbolRegistry() *SymbolRegistry {
	return &SymbolRegistry{tables: make(map[ast.NodeID]*SymbolTable), modules: make(map[string]*ast.Module)}
}

// TableFor returns the SymbolTable for scope, creating one chained to
// outerScope's table (nil outerScope means root) if it doesn't exist yet.
func (r *SymbolRegistry) TableFor(scope ast.Scope, outerScope ast.Scope) *SymbolTable {
	if t, ok := r.tables[scope.ID()]; ok {
		return t
	}
	var outer *SymbolTable
	if outerScope != nil {
		outer = r.TableFor(outerScope, nil)
	}
	t := newSymbolTable(scope, outer)
	r.tables[scope.ID()] = t
	return t
}

// Lookup returns the SymbolTable already built for scope, or nil.
func (r *SymbolRegistry) Lookup(scope ast.Scope) *SymbolTable {
	return r.tables[scope.ID()]
}

// RegisterModule records a module by name for cross-module import lookups.
func (r *SymbolRegistry) RegisterModule(m *ast.Module) { r.modules[m.Name] = m }

// Module returns the module registered under name, if any.
func (r *SymbolRegistry) Module(name string) (*ast.Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// SplitPath splits a dotted reference "a.b.c" into its path segments
// (spec.md §4.2).
func SplitPath(dotted string) []string {
	return strings.Split(dotted, ".")
}
