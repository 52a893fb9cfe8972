package semantic

import "github.com/p8c/p8c/internal/ast"

// CallGraph is the caller/callee relation between subroutines (spec.md
// §4.7): "exposes callers(sub), callees(sub), reachableFrom(entryPoint),
// and a traversal hook forAllSubroutines(module, action). Recursion ... is
// reported but does not abort compilation."
//
// Grounded on the teacher's internal/semantic call-graph-shaped bookkeeping
// in pass_context.go (a map-based adjacency built once and consulted by
// later passes), generalized from DWScript's class/method call sites to
// P8's flat subroutine call sites.
type CallGraph struct {
	callees   map[*ast.SubroutineDecl][]*ast.SubroutineDecl
	callers   map[*ast.SubroutineDecl][]*ast.SubroutineDecl
	recursive map[*ast.SubroutineDecl]bool
}

// NewCallGraph creates an empty call graph.
func NewCallGraph() *CallGraph {
	return &CallGraph{
		callees:   make(map[*ast.SubroutineDecl][]*ast.SubroutineDecl),
		callers:   make(map[*ast.SubroutineDecl][]*ast.SubroutineDecl),
		recursive: make(map[*ast.SubroutineDecl]bool),
	}
}

// addEdge records that caller calls callee, skipping duplicate edges.
func (g *CallGraph) addEdge(caller, callee *ast.SubroutineDecl) {
	for _, c := range g.callees[caller] {
		if c == callee {
			return
		}
	}
	g.callees[caller] = append(g.callees[caller], callee)
	g.callers[callee] = append(g.callers[callee], caller)
}

// Callees returns the subroutines sub directly calls.
func (g *CallGraph) Callees(sub *ast.SubroutineDecl) []*ast.SubroutineDecl { return g.callees[sub] }

// Callers returns the subroutines that directly call sub.
func (g *CallGraph) Callers(sub *ast.SubroutineDecl) []*ast.SubroutineDecl { return g.callers[sub] }

// IsRecursive reports whether sub participates in a call cycle (spec.md
// §4.7: reported, not fatal).
func (g *CallGraph) IsRecursive(sub *ast.SubroutineDecl) bool { return g.recursive[sub] }

// ReachableFrom returns every subroutine transitively reachable by calls
// starting at entry, including entry itself.
func (g *CallGraph) ReachableFrom(entry *ast.SubroutineDecl) map[*ast.SubroutineDecl]bool {
	seen := map[*ast.SubroutineDecl]bool{entry: true}
	stack := []*ast.SubroutineDecl{entry}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, callee := range g.callees[cur] {
			if !seen[callee] {
				seen[callee] = true
				stack = append(stack, callee)
			}
		}
	}
	return seen
}

// ForAllSubroutines calls action once per subroutine directly declared in
// module's top-level statements and its blocks (spec.md §4.7
// forAllSubroutines traversal hook).
func ForAllSubroutines(module *ast.Module, action func(*ast.SubroutineDecl)) {
	var walk func(stmts []ast.Statement)
	walk = func(stmts []ast.Statement) {
		for _, stmt := range stmts {
			switch s := stmt.(type) {
			case *ast.SubroutineDecl:
				action(s)
			case *ast.Block:
				walk(s.Stmts)
			}
		}
	}
	walk(module.Stmts)
}

// BuildCallGraphPass walks every subroutine body and records an edge for
// every call expression resolved to a SubroutineDecl, then marks every
// subroutine on a cycle as recursive via Tarjan's strongly-connected-
// components algorithm.
type BuildCallGraphPass struct{}

func NewBuildCallGraphPass() *BuildCallGraphPass { return &BuildCallGraphPass{} }

func (p *BuildCallGraphPass) Name() string { return "Call Graph" }

func (p *BuildCallGraphPass) Run(program *ast.Program, ctx *Context) error {
	g := NewCallGraph()
	for _, m := range program.Modules {
		ForAllSubroutines(m, func(sub *ast.SubroutineDecl) {
			collectCalls(sub, sub.BodyStmts, g)
		})
	}
	markRecursive(g)
	ctx.Calls = g
	return nil
}

// markRecursive flags every subroutine that is its own callee (direct
// self-recursion) or a member of a multi-node call cycle (mutual
// recursion), via Tarjan's strongly-connected-components algorithm.
func markRecursive(g *CallGraph) {
	t := &tarjan{
		g:       g,
		index:   make(map[*ast.SubroutineDecl]int),
		lowlink: make(map[*ast.SubroutineDecl]int),
		onStack: make(map[*ast.SubroutineDecl]bool),
	}
	for sub := range g.callees {
		if _, seen := t.index[sub]; !seen {
			t.strongConnect(sub)
		}
	}
}

type tarjan struct {
	g       *CallGraph
	next    int
	index   map[*ast.SubroutineDecl]int
	lowlink map[*ast.SubroutineDecl]int
	onStack map[*ast.SubroutineDecl]bool
	stack   []*ast.SubroutineDecl
}

func (t *tarjan) strongConnect(v *ast.SubroutineDecl) {
	t.index[v] = t.next
	t.lowlink[v] = t.next
	t.next++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, w := range t.g.callees[v] {
		if _, seen := t.index[w]; !seen {
			t.strongConnect(w)
			if t.lowlink[w] < t.lowlink[v] {
				t.lowlink[v] = t.lowlink[w]
			}
		} else if t.onStack[w] {
			if t.index[w] < t.lowlink[v] {
				t.lowlink[v] = t.index[w]
			}
		}
	}

	if t.lowlink[v] != t.index[v] {
		return
	}
	var scc []*ast.SubroutineDecl
	for {
		n := len(t.stack) - 1
		w := t.stack[n]
		t.stack = t.stack[:n]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == v {
			break
		}
	}
	if len(scc) > 1 {
		for _, w := range scc {
			t.g.recursive[w] = true
		}
		return
	}
	// A single-node SCC is still recursive if it calls itself directly.
	for _, callee := range t.g.callees[v] {
		if callee == v {
			t.g.recursive[v] = true
			break
		}
	}
}

func collectCalls(caller *ast.SubroutineDecl, stmts []ast.Statement, g *CallGraph) {
	for _, stmt := range stmts {
		collectCallsStmt(caller, stmt, g)
	}
}

func collectCallsStmt(caller *ast.SubroutineDecl, stmt ast.Statement, g *CallGraph) {
	switch s := stmt.(type) {
	case *ast.CallStatement:
		collectCallsExpr(caller, s.Call, g)
	case *ast.AssignStatement:
		collectCallsExpr(caller, s.Target, g)
		collectCallsExpr(caller, s.Value, g)
	case *ast.ReturnStatement:
		for _, v := range s.Values {
			collectCallsExpr(caller, v, g)
		}
	case *ast.IfStatement:
		collectCallsExpr(caller, s.Condition, g)
		collectCalls(caller, s.Then, g)
		collectCalls(caller, s.Else, g)
	case *ast.BranchStatement:
		collectCalls(caller, s.Body, g)
	case *ast.ForInStatement:
		collectCallsExpr(caller, s.Iterable, g)
		collectCalls(caller, s.Body, g)
	case *ast.WhileStatement:
		collectCallsExpr(caller, s.Condition, g)
		collectCalls(caller, s.Body, g)
	case *ast.UntilStatement:
		collectCalls(caller, s.Body, g)
		collectCallsExpr(caller, s.Condition, g)
	case *ast.RepeatStatement:
		collectCalls(caller, s.Body, g)
	case *ast.WhenStatement:
		for _, arm := range s.Arms {
			collectCalls(caller, arm.Body, g)
		}
	case *ast.AnonScopeStatement:
		collectCalls(caller, s.BodyStmts, g)
	}
}

func collectCallsExpr(caller *ast.SubroutineDecl, expr ast.Expression, g *CallGraph) {
	switch e := expr.(type) {
	case *ast.CallExpression:
		if e.Resolved != nil {
			g.addEdge(caller, e.Resolved)
		}
		for _, a := range e.Args {
			collectCallsExpr(caller, a, g)
		}
	case *ast.BinaryExpression:
		collectCallsExpr(caller, e.Left, g)
		collectCallsExpr(caller, e.Right, g)
	case *ast.PrefixExpression:
		collectCallsExpr(caller, e.Right, g)
	case *ast.TypecastExpression:
		collectCallsExpr(caller, e.Value, g)
	case *ast.MemReadExpression:
		collectCallsExpr(caller, e.Address, g)
	case *ast.AddressOfExpression:
		collectCallsExpr(caller, e.Value, g)
	case *ast.IndexExpression:
		collectCallsExpr(caller, e.Array, g)
		collectCallsExpr(caller, e.Index, g)
	}
}
