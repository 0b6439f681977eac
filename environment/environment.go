// Package environment walks a frozen UI tree one transition at a time. The
// caller picks the transition; the environment scores it, tracks the episode
// history and advances the current state.
package environment

import (
	"qubot/reward"
	"qubot/ui"
)

const DefaultStepLimit = 1000

type Option func(e *Environment)

func WithStepLimit(limit int) Option {
	return func(e *Environment) {
		if limit > 0 {
			e.stepLimit = limit
		}
	}
}

func WithRandom(random Random) Option {
	return func(e *Environment) {
		if random != nil {
			e.random = random
		}
	}
}

type Environment struct {
	tree      *ui.Tree
	reward    reward.Func
	random    Random
	stepLimit int

	current      *ui.Node
	history      *history
	steps        int // Lifetime
	episodeSteps int
	rewardSum    int
}

func New(tree *ui.Tree, rewardFn reward.Func, options ...Option) *Environment {
	if tree == nil || rewardFn == nil {
		panic("environment needs a tree and a reward function")
	}
	e := &Environment{ // Default values
		tree:      tree,
		reward:    rewardFn,
		random:    NewRandom(0),
		stepLimit: DefaultStepLimit,
	}
	for _, option := range options {
		option(e)
	}
	if tree.IsStale() {
		tree.Freeze()
	}
	e.current = tree.Root()
	e.history = newHistory()
	return e
}

// Step executes the transition and returns the embedding of the new state,
// the reward and whether the episode is over. The empty transition scores 0
// and ends the episode.
func (e *Environment) Step(t ui.Transition) (int, int, bool) {
	e.steps++
	e.episodeSteps++

	var next *ui.Node
	if !t.IsNone() {
		next = e.tree.Node(t.Node)
	}

	r := 0
	if next != nil {
		r = e.reward(t.Action, next)
	}
	e.rewardSum += r

	done := next == nil ||
		next.IsTerminal() ||
		(!next.HasChildren() && !next.HasParent()) ||
		e.episodeSteps >= e.stepLimit

	if next != nil {
		e.history.record(e.current, t.Action, next)
		e.current = next
	}
	return e.StateEmbedding(), r, done
}

// Reset moves back to the root and clears the history and all counters. Node
// visit counters are left untouched.
func (e *Environment) Reset() *ui.Node {
	e.current = e.tree.Root()
	e.history = newHistory()
	e.steps = 0
	e.episodeSteps = 0
	e.rewardSum = 0
	return e.current
}

// Restart begins a new episode: back to the root with an empty history and
// every node's visit counter zeroed. Lifetime counters are kept.
func (e *Environment) Restart() *ui.Node {
	e.current = e.tree.Root()
	e.history = newHistory()
	e.episodeSteps = 0
	e.ClearVisits()
	return e.current
}

func (e *Environment) ClearVisits() {
	e.tree.ForEachPair(func(_ ui.Action, n *ui.Node) {
		n.SetVisits(0)
	})
}

// Explorative samples one of the current node's transitions uniformly.
func (e *Environment) Explorative() ui.Transition {
	transitions := e.current.Transitions()
	if len(transitions) == 0 {
		return ui.None()
	}
	return transitions[e.random.Intn(len(transitions))]
}

// Exploitative returns the transition taken most often from the current node
// during this episode, or an explorative one when there is none.
func (e *Environment) Exploitative() ui.Transition {
	if t, ok := e.history.likely(e.current); ok {
		return t
	}
	return e.Explorative()
}

func (e *Environment) State() *ui.Node {
	return e.current
}

func (e *Environment) StateEmbedding() int {
	return e.tree.Embedding(e.current)
}

func (e *Environment) Tree() *ui.Tree {
	return e.tree
}

func (e *Environment) Random() Random {
	return e.random
}

func (e *Environment) StepLimit() int {
	return e.stepLimit
}

// Steps returns the number of steps taken since the last Reset.
func (e *Environment) Steps() int {
	return e.steps
}

func (e *Environment) EpisodeSteps() int {
	return e.episodeSteps
}

func (e *Environment) RewardSum() int {
	return e.rewardSum
}
