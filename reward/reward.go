// Package reward maps a transition to a scalar reward. Every preset is a pure
// function of the action and the target node.
package reward

import (
	"qubot/ui"
)

// Func computes the reward of reaching node through action. Both arguments
// are always present; the environment handles empty transitions itself.
type Func func(action ui.Action, node *ui.Node) int

const (
	ExtremeReward  = 100
	LargeReward    = 10
	MediumReward   = 5
	SmallReward    = 1
	NoReward       = 0
	SmallPenalty   = -1
	MediumPenalty  = -5
	LargePenalty   = -10
	ExtremePenalty = -100
)

// EncourageExploration penalizes terminal nodes and rewards clicks.
func EncourageExploration(action ui.Action, node *ui.Node) int {
	switch {
	case node.IsTerminal():
		return LargePenalty
	case !node.HasChildren():
		return NoReward
	case action == ui.LeftClick:
		return MediumReward
	}
	return NoReward
}

// DiscourageExploration rewards reaching a terminal (goal) node.
func DiscourageExploration(action ui.Action, node *ui.Node) int {
	switch {
	case node.IsTerminal():
		return LargeReward
	case !node.HasChildren():
		return NoReward
	case action == ui.LeftClick:
		return MediumReward
	}
	return NoReward
}

// HeavilyEncourageExploration only rewards clicks that lead somewhere new.
func HeavilyEncourageExploration(action ui.Action, node *ui.Node) int {
	if !node.IsTerminal() && node.HasChildren() && action == ui.LeftClick {
		return ExtremeReward
	}
	return SmallPenalty
}

// HeavilyDiscourageExploration only rewards terminal nodes.
func HeavilyDiscourageExploration(action ui.Action, node *ui.Node) int {
	if node.IsTerminal() {
		return ExtremeReward
	}
	return SmallPenalty
}

func RewardRepeatVisits(action ui.Action, node *ui.Node) int {
	if node.Visits() > 0 {
		return LargeReward
	}
	return EncourageExploration(action, node)
}

func PenalizeRepeatVisits(action ui.Action, node *ui.Node) int {
	if node.Visits() > 0 {
		return LargePenalty
	}
	return EncourageExploration(action, node)
}
