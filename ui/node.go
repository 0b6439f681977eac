package ui

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// NodeID addresses a node inside its tree's arena.
type NodeID int

// NoNode marks a missing node: the root's parent or an empty transition.
const NoNode NodeID = -1

// Transition is a (action, target node) pair reachable from a node.
type Transition struct {
	Action Action
	Node   NodeID
}

// None returns the empty transition.
func None() Transition {
	return Transition{Node: NoNode}
}

func (t Transition) IsNone() bool {
	return t.Node == NoNode
}

type Node struct {
	ID        NodeID
	Hash      string
	TagName   string
	HTMLID    string
	HTMLClass string
	Content   string

	parent      NodeID
	actions     []Action // Action kinds in order of first use
	transitions map[Action][]NodeID
	terminal    bool
	visits      int
}

func newNode(id NodeID, d Descriptor, parent NodeID) *Node {
	return &Node{
		ID:          id,
		Hash:        HashContent(d.Content),
		TagName:     d.TagName,
		HTMLID:      d.ID,
		HTMLClass:   d.Class,
		Content:     d.Content,
		parent:      parent,
		transitions: make(map[Action][]NodeID),
	}
}

// HashContent returns the identity digest of serialized markup.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func (n *Node) addChild(action Action, child NodeID) {
	if _, ok := n.transitions[action]; !ok {
		n.actions = append(n.actions, action)
	}
	n.transitions[action] = append(n.transitions[action], child)
}

func (n *Node) Parent() NodeID {
	return n.parent
}

func (n *Node) HasParent() bool {
	return n.parent != NoNode
}

func (n *Node) HasChildren() bool {
	for _, children := range n.transitions {
		if len(children) > 0 {
			return true
		}
	}
	return false
}

// Transitions lists the node's outgoing transitions grouped by action in
// first-use order, insertion order within each group.
func (n *Node) Transitions() []Transition {
	var tuples []Transition
	for _, action := range n.actions {
		for _, child := range n.transitions[action] {
			tuples = append(tuples, Transition{Action: action, Node: child})
		}
	}
	return tuples
}

// Children returns the targets reachable with the given action.
func (n *Node) Children(action Action) []NodeID {
	return n.transitions[action]
}

func (n *Node) IsTerminal() bool {
	return n.terminal
}

func (n *Node) SetTerminal(terminal bool) {
	n.terminal = terminal
}

func (n *Node) Visits() int {
	return n.visits
}

func (n *Node) IncrementVisits() {
	n.visits++
}

func (n *Node) SetVisits(visits int) {
	n.visits = visits
}

func (n *Node) String() string {
	return fmt.Sprintf("<%s id=\"%s\" class=\"%s\"> (%d)", n.TagName, n.HTMLID, n.HTMLClass, n.ID)
}
