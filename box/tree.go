package box

import "fmt"

// NodeKind tags which of the four BindingBoxTree node forms a Node is.
type NodeKind int

const (
	NodeBox NodeKind = iota
	NodeAnd
	NodeOr
	NodeNot
)

// Edge is a named child reference from one tree node to another.
type Edge struct {
	Child int
	Name  string
}

// Node is one entry in a BindingBoxTree's arena (§9: the tree is
// arena-indexed, not pointer-linked, so evaluation can address nodes by
// plain int and share the arena by reference). Box is populated only for
// NodeBox; NodeAnd/NodeOr/NodeNot carry no BindingBox of their own — they
// are sugar normalized away by Resolve.
type Node struct {
	Kind     NodeKind
	Box      *BindingBox
	Children []Edge
}

// Tree is a BindingBoxTree: an arena of Nodes plus the index of the root.
type Tree struct {
	Nodes []Node
	Root  int
}

// Resolve returns the effective BindingBox and child edges to evaluate at
// nodeIdx. For a NodeBox this is simply the node's own box and edges. For
// And/Or/Not combinators it synthesizes an empty BindingBox holding a
// single Constraint of the matching kind, whose ChildNames are freshly
// assigned "UNNAMED-<i>" labels (0-based position among the combinator's
// own children, per the literal naming spec.md specifies — not the
// original implementation's "UNNAMED - {idx}" with interior spaces).
func (t *Tree) Resolve(nodeIdx int) (*BindingBox, []Edge) {
	n := &t.Nodes[nodeIdx]
	if n.Kind == NodeBox {
		return n.Box, n.Children
	}

	edges := make([]Edge, len(n.Children))
	names := make([]string, len(n.Children))
	for i, e := range n.Children {
		name := fmt.Sprintf("UNNAMED-%d", i)
		edges[i] = Edge{Child: e.Child, Name: name}
		names[i] = name
	}

	var kind ConstraintKind
	switch n.Kind {
	case NodeAnd:
		kind = ConstraintAnd
	case NodeOr:
		kind = ConstraintOr
	case NodeNot:
		kind = ConstraintNot
	}

	return &BindingBox{Constraints: []Constraint{{Kind: kind, ChildNames: names}}}, edges
}
