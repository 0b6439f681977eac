package engine

import (
	"qubot/learner"
	"qubot/stats"
)

type Engine interface {
	// Run trains the agent then tests it, each phase with its own terminal nodes
	Run() Report
}

type Report struct {
	Summary learner.Summary `json:"summary"`
	History learner.History `json:"history"`
	Metric  stats.RunMetric `json:"metric"`
}

// Records flattens the report's histories for the stats writer.
func (r Report) Records(run string) []stats.EpisodeRecord {
	return stats.Episodes(run, r.History.TrainingRewards, r.History.Epsilons, r.History.TestingRewards, r.History.TestingPenalties)
}
