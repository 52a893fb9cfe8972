// Package ast is the AST Core (spec.md §3/§9): node kinds, an arena
// assigning stable NodeIDs so parent links survive insertion/removal
// without needing back-pointers, the scope chain marker interface, and the
// tree-surgery primitives (ReplaceChild) the mutating walker builds on.
//
// Grounded on the teacher's internal/ast package (Node/Expression/Statement
// interface split, one file per syntactic family, TokenLiteral/String/Pos
// per node) generalized per spec.md §9's design note: "Mutable parent
// pointers set after construction ('linkParents'). Replace with an arena +
// explicit parent-id field maintained only by the tree-walker's six
// modification primitives; nodes are otherwise immutable in their
// structural shape." and "Represent node kinds as a tagged sum ... Parent
// links may be stored as an index into an arena of nodes."
package ast

import "github.com/p8c/p8c/internal/token"

// NodeID is a stable arena index. NoParent (zero value) is the sentinel
// parent of root nodes (spec.md §3 invariant: "every reachable node's
// parent is an ancestor in the traversal", except the Program root itself).
type NodeID uint32

const NoParent NodeID = 0

// Node is the base interface implemented by every AST entity.
type Node interface {
	ID() NodeID
	Pos() token.Position
	String() string
}

// Expression is any node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is any node that performs an action.
type Statement interface {
	Node
	statementNode()
}

// Base is embedded by every concrete node and supplies the ID/Pos plumbing.
// Its id field is assigned once, by Arena.Register, and never changes;
// nodes are otherwise immutable in shape (spec.md §9) — the only mutable
// tree-structure state is the parent link, held in the Arena, not here.
type Base struct {
	id  NodeID
	pos token.Position
}

func (b *Base) ID() NodeID         { return b.id }
func (b *Base) Pos() token.Position { return b.pos }

// Arena owns every node in one compilation unit's tree and the one mutable
// piece of cross-node state: parent links.
type Arena struct {
	nodes   []Node // nodes[0] is unused; NodeID 0 is NoParent
	parents []NodeID
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{nodes: []Node{nil}, parents: []NodeID{NoParent}}
}

type idSetter interface {
	setID(NodeID)
}

func (b *Base) setID(id NodeID) { b.id = id }

// Register assigns n a fresh, stable NodeID and records parent as its
// parent link. Every node-constructing helper in this package calls
// Register exactly once per node.
func (a *Arena) Register(n Node, parent NodeID) NodeID {
	id := NodeID(len(a.nodes))
	if setter, ok := n.(idSetter); ok {
		setter.setID(id)
	}
	a.nodes = append(a.nodes, n)
	a.parents = append(a.parents, parent)
	return id
}

// Get returns the node for id, or nil if id is NoParent or out of range.
func (a *Arena) Get(id NodeID) Node {
	if id == NoParent || int(id) >= len(a.nodes) {
		return nil
	}
	return a.nodes[id]
}

// Parent returns id's parent NodeID (NoParent for a root).
func (a *Arena) Parent(id NodeID) NodeID {
	if int(id) >= len(a.parents) {
		return NoParent
	}
	return a.parents[id]
}

// SetParent re-links id's parent. Called only by the tree-walker's six
// modification primitives (internal/walk) and by the initial tree builder.
func (a *Arena) SetParent(id, parent NodeID) {
	if int(id) < len(a.parents) {
		a.parents[id] = parent
	}
}

// AncestorScope walks parent links from id until it finds a node
// implementing Scope, or returns nil at the root.
func (a *Arena) AncestorScope(id NodeID) Scope {
	for cur := a.Parent(id); cur != NoParent; cur = a.Parent(cur) {
		if s, ok := a.Get(cur).(Scope); ok {
			return s
		}
	}
	return nil
}

// Adopt sets parent.ID() as the parent of every child, once parent itself
// has been registered. The front end builds nodes leaf-first, so a child's
// parent link is not known until the enclosing node is registered; Adopt
// is how the builder corrects it in one step.
func (a *Arena) Adopt(parent Node, children ...Node) {
	for _, c := range children {
		if c == nil {
			continue
		}
		a.SetParent(c.ID(), parent.ID())
	}
}

// Replaceable is implemented by any node with typed child slots, giving
// the mutating walker a uniform way to splice in a replacement child
// without knowing the concrete node type (spec.md §4.1: "replace-child
// operation with child identity").
type Replaceable interface {
	// ReplaceChild finds old among the node's direct children and
	// overwrites that slot with new, returning true on success.
	ReplaceChild(old, new Node) bool
	// Children returns the node's direct children in source order.
	Children() []Node
}
