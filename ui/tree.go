package ui

import (
	"fmt"
	"io"
	"strings"
)

type entry struct {
	action Action
	node   NodeID
}

// Tree owns every node discovered for a web application. Nodes live in a flat
// arena; ownership flows root to children and parents are back-references.
type Tree struct {
	nodes []*Node

	index     map[string]entry // Hash -> (action that reached it, node)
	embedding map[string]int   // Hash -> embedding
	order     []NodeID         // Embedding -> node
	stale     bool             // Structure changed since the last freeze
}

// NewTree creates a tree with a root node built from the descriptor and
// freezes it.
func NewTree(root Descriptor) *Tree {
	t := &Tree{}
	t.nodes = append(t.nodes, newNode(0, root, NoNode))
	t.Freeze()
	return t
}

func (t *Tree) Root() *Node {
	return t.nodes[0]
}

// Node returns the node with the given id, nil if unknown.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// AddTransition classifies the descriptor, creates a child node for it under
// parent and returns the child's id. Identical content produces distinct
// nodes sharing a hash.
func (t *Tree) AddTransition(parent NodeID, d Descriptor) NodeID {
	p := t.Node(parent)
	if p == nil {
		panic(fmt.Sprintf("unknown parent node %d", parent))
	}
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, newNode(id, d, parent))
	p.addChild(Classify(d), id)
	t.stale = true
	return id
}

// Freeze recomputes the hash index and the embeddings with a pre-order
// traversal starting at the root.
func (t *Tree) Freeze() {
	t.index = make(map[string]entry, len(t.nodes))
	t.embedding = make(map[string]int, len(t.nodes))
	t.order = make([]NodeID, 0, len(t.nodes))

	var visit func(action Action, node *Node)
	visit = func(action Action, node *Node) {
		t.index[node.Hash] = entry{action: action, node: node.ID}
		t.embedding[node.Hash] = len(t.order)
		t.order = append(t.order, node.ID)
		for _, tr := range node.Transitions() {
			visit(tr.Action, t.nodes[tr.Node])
		}
	}
	visit(Navigate, t.Root())
	t.stale = false
}

// NodeCount returns the number of nodes visited by the last freeze. Nodes
// sharing content share the embedding of the last one visited, so with
// duplicates some indices below NodeCount belong to no hash.
func (t *Tree) NodeCount() int {
	return len(t.order)
}

// IsStale reports whether the structure changed since the last freeze.
func (t *Tree) IsStale() bool {
	return t.stale
}

// Embedding returns the state index of a node, shared by every node with the
// same content. Looking up a node on a stale tree or with an unknown hash is
// an invariant violation.
func (t *Tree) Embedding(n *Node) int {
	if t.stale {
		panic("tree changed since last freeze")
	}
	e, ok := t.embedding[n.Hash]
	if !ok {
		panic(fmt.Sprintf("node %s has no embedding", n.Hash))
	}
	return e
}

// EmbeddingOf returns the embedding of a content hash as of the last freeze.
func (t *Tree) EmbeddingOf(hash string) (int, bool) {
	e, ok := t.embedding[hash]
	return e, ok
}

// NodeAt returns the node visited at the given pre-order position.
func (t *Tree) NodeAt(embedding int) *Node {
	if embedding < 0 || embedding >= len(t.order) {
		panic(fmt.Sprintf("embedding %d out of range [0, %d)", embedding, len(t.order)))
	}
	return t.nodes[t.order[embedding]]
}

// FindByHash looks a node up by its content hash, refreezing once if the hash
// is not indexed yet.
func (t *Tree) FindByHash(hash string) (Action, *Node, bool) {
	if _, ok := t.index[hash]; !ok {
		t.Freeze()
	}
	e, ok := t.index[hash]
	if !ok {
		return Navigate, nil, false
	}
	return e.action, t.nodes[e.node], true
}

// FindByMetadata runs a breadth-first search from the root and returns the
// first node matching the selector.
func (t *Tree) FindByMetadata(s Selector) *Node {
	queue := []*Node{t.Root()}
	visited := map[NodeID]bool{t.Root().ID: true}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		if s.matches(node) {
			return node
		}
		for _, tr := range node.Transitions() {
			if !visited[tr.Node] {
				visited[tr.Node] = true
				queue = append(queue, t.nodes[tr.Node])
			}
		}
	}
	return nil
}

// SetTerminal marks the first node matching the selector as terminal and
// returns it, nil when nothing matched.
func (t *Tree) SetTerminal(s Selector) *Node {
	return t.markTerminal(s, true)
}

// UnsetTerminal clears the terminal flag of the first node matching the
// selector.
func (t *Tree) UnsetTerminal(s Selector) *Node {
	return t.markTerminal(s, false)
}

func (t *Tree) markTerminal(s Selector, terminal bool) *Node {
	node := t.FindByMetadata(s)
	if node != nil {
		node.SetTerminal(terminal)
	}
	return node
}

// ForEachPair visits every (action, node) pair depth first, each node once.
func (t *Tree) ForEachPair(fn func(Action, *Node)) {
	visited := map[NodeID]bool{t.Root().ID: true}

	var visit func(action Action, node *Node)
	visit = func(action Action, node *Node) {
		fn(action, node)
		for _, tr := range node.Transitions() {
			if !visited[tr.Node] {
				visited[tr.Node] = true
				visit(tr.Action, t.nodes[tr.Node])
			}
		}
	}
	visit(Navigate, t.Root())
}

// Print writes an indented dump of the tree.
func (t *Tree) Print(w io.Writer) error {
	var visit func(action Action, node *Node, depth int) error
	visit = func(action Action, node *Node, depth int) error {
		terminal := ""
		if node.IsTerminal() {
			terminal = " (TERMINAL)"
		}
		if _, err := fmt.Fprintf(w, "%s%s%s: %s\n", strings.Repeat("\t", depth), action, terminal, node); err != nil {
			return err
		}
		for _, tr := range node.Transitions() {
			if err := visit(tr.Action, t.nodes[tr.Node], depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(Navigate, t.Root(), 0)
}
