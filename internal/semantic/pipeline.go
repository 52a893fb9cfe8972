package semantic

import (
	"github.com/p8c/p8c/internal/ast"
	"github.com/p8c/p8c/internal/diag"
	"github.com/p8c/p8c/internal/namegen"
)

// Context is the shared mutable state threaded through every pass,
// generalizing the teacher's PassContext (internal/semantic/pass_context.go)
// from "one analyzer's forward-declaration bookkeeping" to the full
// resolve/typecheck/reorder/fold/deadcode/callgraph pipeline.
type Context struct {
	Arena   *ast.Arena
	Symbols *SymbolRegistry
	Diags   *diag.Bag
	Names   *namegen.Gen
	Calls   *CallGraph

	// FoldCount is spec.md §4.5's "optimizations done" counter, incremented
	// by every successful constant-folder rewrite; exposed here so the
	// driver can report it and tests can assert on it (spec.md §8 property 4).
	FoldCount int

	// EntryPoint is the program's `start` subroutine (spec.md §4.6: dead-code
	// removal "never deletes an entry point"), located by DeadCodePass when it
	// is not already set.
	EntryPoint *ast.SubroutineDecl
}

// NewContext creates a Context for analyzing program.
func NewContext(program *ast.Program) *Context {
	return &Context{
		Arena:   program.Arena,
		Symbols: NewSymbolRegistry(),
		Diags:   diag.NewBag(),
		Names:   namegen.New(),
	}
}

// Pass is a single stage of the semantic pipeline (spec.md §2, §9).
// A Pass should collect diagnostics into ctx.Diags rather than returning
// them; Run only returns an error for a fatal internal failure that must
// halt the whole compilation (spec.md §7: "Internal invariant violation").
type Pass interface {
	Name() string
	Run(program *ast.Program, ctx *Context) error
}

// PassManager runs a fixed sequence of passes in order (spec.md §2:
// "Data flow: parsed AST -> name/scope resolution -> type inference ->
// reorder/desugar -> const-fold (iterated to fixpoint with the above) ->
// dead-code removal -> code generation"), grounded on the teacher's
// pass.go PassManager.
type PassManager struct {
	passes []Pass
}

// NewPassManager creates a manager running passes in the given order.
func NewPassManager(passes ...Pass) *PassManager {
	return &PassManager{passes: passes}
}

// RunAll runs every pass in order, stopping early if a pass returns an
// error or the context accumulates an internal diagnostic. Fatal
// diagnostics do not stop the sequence, so later passes still report.
func (pm *PassManager) RunAll(program *ast.Program, ctx *Context) error {
	for _, p := range pm.passes {
		if err := p.Run(program, ctx); err != nil {
			return err
		}
		if ctx.Diags.HasInternal() {
			break
		}
	}
	return nil
}
