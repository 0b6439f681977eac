package experiments

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"qubot/config"
	"qubot/engine"
	"qubot/stats"
	"qubot/ui"
)

// Trial is one point of a hyperparameter sweep. Zero values keep the
// configuration's parameter.
type Trial struct {
	ID    int     `json:"id"`
	Alpha float64 `json:"alpha,omitempty"`
	Gamma float64 `json:"gamma,omitempty"`
	Decay float64 `json:"decay,omitempty"`
}

type Result struct {
	Trial  Trial         `json:"trial"`
	Report engine.Report `json:"report"`
}

// Grid returns the cartesian product of the given values. An empty slice
// keeps the configuration's parameter for that axis.
func Grid(alphas, gammas, decays []float64) []Trial {
	axis := func(values []float64) []float64 {
		if len(values) == 0 {
			return []float64{0}
		}
		return values
	}

	trials := []Trial{}
	for _, alpha := range axis(alphas) {
		for _, gamma := range axis(gammas) {
			for _, decay := range axis(decays) {
				trials = append(trials, Trial{ID: len(trials), Alpha: alpha, Gamma: gamma, Decay: decay})
			}
		}
	}
	return trials
}

// Sweep trains and tests one agent per trial on the same tree. Trials run one
// after another since they share the tree's terminal flags and visit counts.
func Sweep(cfg *config.Config, tree *ui.Tree, trials []Trial) ([]Result, error) {
	results := make([]Result, 0, len(trials))

	log.Info().Msgf("starting sweep of %d trials...", len(trials))

	for i, trial := range trials {
		trialCfg, err := apply(cfg, trial)
		if err != nil {
			return nil, err
		}
		log.Info().Msgf("starting trial %d of %d with %+v...", i+1, len(trials), trial)

		report := engine.New(trialCfg, tree, stats.NewCollector()).Run()
		results = append(results, Result{Trial: trial, Report: report})

		log.Info().Msgf("completed trial %d of %d with testing score %.2f", i+1, len(trials), report.Summary.TestingScore)
	}

	log.Info().Msg("completed sweep")
	return results, nil
}

func apply(cfg *config.Config, trial Trial) (*config.Config, error) {
	c := *cfg
	if trial.Alpha != 0 {
		c.Model.Alpha = trial.Alpha
	}
	if trial.Gamma != 0 {
		c.Model.Gamma = trial.Gamma
	}
	if trial.Decay != 0 {
		c.Model.Decay = trial.Decay
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("trial %d: %w", trial.ID, err)
	}
	return &c, nil
}

// Write stores one summary row per trial in trials.csv and every trial's
// episodes in episodes.csv and episodes.parquet.
func Write(writer *stats.Writer, results []Result) error {
	header := []string{"trial", "alpha", "gamma", "decay", "steps", "training_score", "testing_score", "penalty_rate"}
	rows := [][]string{}
	records := []stats.EpisodeRecord{}
	for _, r := range results {
		s := r.Report.Summary
		rows = append(rows, []string{
			strconv.Itoa(r.Trial.ID),
			formatFloat(s.Alpha),
			formatFloat(s.Gamma),
			formatFloat(s.Decay),
			strconv.Itoa(s.Steps),
			formatFloat(s.TrainingScore),
			formatFloat(s.TestingScore),
			formatFloat(s.PenaltyRate),
		})
		records = append(records, r.Report.Records(fmt.Sprintf("%s-%d", writer.RunID(), r.Trial.ID))...)
	}

	err := writer.WriteTable("trials.csv", header, rows)
	if err != nil {
		return fmt.Errorf("failed to store trials: %w", err)
	}
	log.Info().Msg("stored trials")

	err = writer.WriteEpisodes(records)
	if err != nil {
		return fmt.Errorf("failed to store episodes: %w", err)
	}
	err = writer.WriteParquet(records)
	if err != nil {
		return fmt.Errorf("failed to store episodes: %w", err)
	}
	log.Info().Msg("stored episodes")
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}
