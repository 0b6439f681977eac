package environment

import "qubot/ui"

type visit struct {
	count  int
	action ui.Action
	node   ui.NodeID
}

// history counts the transitions taken during one episode, keyed by source
// and target hash. Targets keep the order they were first recorded in.
type history struct {
	targets map[string][]string
	visits  map[string]map[string]*visit
}

func newHistory() *history {
	return &history{
		targets: make(map[string][]string),
		visits:  make(map[string]map[string]*visit),
	}
}

func (h *history) record(from *ui.Node, action ui.Action, to *ui.Node) {
	visits, ok := h.visits[from.Hash]
	if !ok {
		visits = make(map[string]*visit)
		h.visits[from.Hash] = visits
	}
	if v, ok := visits[to.Hash]; ok {
		v.count++
		return
	}
	visits[to.Hash] = &visit{count: 1, action: action, node: to.ID}
	h.targets[from.Hash] = append(h.targets[from.Hash], to.Hash)
}

// likely returns the most recorded transition out of the node. Ties go to
// the target recorded first.
func (h *history) likely(from *ui.Node) (ui.Transition, bool) {
	best := 0
	t := ui.None()
	for _, hash := range h.targets[from.Hash] {
		v := h.visits[from.Hash][hash]
		if v.count > best {
			best = v.count
			t = ui.Transition{Action: v.action, Node: v.node}
		}
	}
	return t, best > 0
}

func (h *history) count(from, to *ui.Node) int {
	if v, ok := h.visits[from.Hash][to.Hash]; ok {
		return v.count
	}
	return 0
}
