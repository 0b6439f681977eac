package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"qubot/builder"
	"qubot/config"
	"qubot/stats"
	"qubot/ui"
)

const page = `<html><body>
  <div id="start">
    <a id="signup" href="/signup">Sign up</a>
    <a id="login" href="/login">Log in</a>
  </div>
  <p class="error">Something broke</p>
</body></html>`

func newConfig(t *testing.T, terminals string) *config.Config {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte(page), 0644))

	cfg, err := config.Parse([]byte(`
html_file: ` + path + `
seed: 7
reward_func: DISCOURAGE_EXPLORATION
terminal_info: ` + terminals + `
model_parameters: {train_episodes: 30, test_episodes: 5, step_limit: 20, decay: 0.2}
`))
	require.NoError(t, err)
	return cfg
}

func newQubot(t *testing.T, cfg *config.Config, collector stats.Collector) *Qubot {
	tree, err := Construct(context.Background(), cfg, nil, collector)
	require.NoError(t, err)
	return New(cfg, tree, collector)
}

func TestConstruct(t *testing.T) {
	t.Run("building from an html file", func(t *testing.T) {
		collector := stats.NewCollector()
		cfg := newConfig(t, "{ids: [login]}")

		tree, err := Construct(context.Background(), cfg, nil, collector)
		require.NoError(t, err)
		require.NotNil(t, tree.FindByMetadata(ui.Selector{ID: "signup"}))
		require.Contains(t, collector.Complete().Timers, stats.ConstructTreeTime)
	})

	t.Run("needing a fetcher for urls", func(t *testing.T) {
		cfg, err := config.Parse([]byte("url: https://example.com\nterminal_info: {ids: [a]}"))
		require.NoError(t, err)

		_, err = Construct(context.Background(), cfg, nil, stats.NewDummyCollector())
		require.Error(t, err)
	})

	t.Run("crawling urls", func(t *testing.T) {
		cfg, err := config.Parse([]byte("url: https://example.com/\nterminal_info: {ids: [a]}"))
		require.NoError(t, err)

		tree, err := Construct(context.Background(), cfg, pageFetcher{}, stats.NewDummyCollector())
		require.NoError(t, err)
		require.NotNil(t, tree.FindByMetadata(ui.Selector{ID: "start"}))
	})
}

type pageFetcher struct{}

func (pageFetcher) Fetch(context.Context, string) (string, error) {
	return page, nil
}

var _ builder.Fetcher = pageFetcher{}

func TestTerminalSwap(t *testing.T) {
	t.Run("swapping phase selectors", func(t *testing.T) {
		cfg := newConfig(t, "{training: {ids: [login]}, testing: {classes: [error]}}")
		q := newQubot(t, cfg, nil)
		login := q.Tree().FindByMetadata(ui.Selector{ID: "login"})
		crash := q.Tree().FindByMetadata(ui.Selector{Class: "error"})

		q.setTerminals(stats.Training)
		require.True(t, login.IsTerminal())
		require.False(t, crash.IsTerminal())

		q.setTerminals(stats.Testing)
		require.False(t, login.IsTerminal(), "Training terminals are cleared before testing")
		require.True(t, crash.IsTerminal())
	})

	t.Run("keeping shared selectors terminal", func(t *testing.T) {
		cfg := newConfig(t, "{ids: [login]}")
		q := newQubot(t, cfg, nil)
		login := q.Tree().FindByMetadata(ui.Selector{ID: "login"})

		q.setTerminals(stats.Training)
		q.setTerminals(stats.Testing)

		require.True(t, login.IsTerminal())
	})
}

func TestRun(t *testing.T) {
	collector := stats.NewCollector()
	cfg := newConfig(t, "{ids: [login]}")
	q := newQubot(t, cfg, collector)

	report := q.Run()

	require.Len(t, report.History.TrainingRewards, 30)
	require.Len(t, report.History.Epsilons, 30)
	require.Len(t, report.History.TestingRewards, 5)
	require.Len(t, report.History.TestingPenalties, 5)
	require.Equal(t, 30, report.Metric.TrainingEpisodes)
	require.Equal(t, 5, report.Metric.TestingEpisodes)
	require.Equal(t, report.Summary.Steps, report.Metric.Steps)
	require.Len(t, report.Records("run"), 35)
	for _, timer := range []string{stats.ConstructTreeTime, stats.TrainingTime, stats.TestingTime} {
		require.Contains(t, report.Metric.Timers, timer)
	}
}

func TestCollectorStart(t *testing.T) {
	t.Run("starting an unstarted collector", func(t *testing.T) {
		collector := stats.NewCollector()
		q := newQubot(t, newConfig(t, "{ids: [login]}"), collector)

		report := q.Run()

		require.False(t, report.Metric.StartTime.IsZero())
		require.Less(t, report.Metric.Duration, time.Hour, "Duration is measured from the run, not the zero time")
	})

	t.Run("keeping the caller's start time", func(t *testing.T) {
		collector := stats.NewCollector()
		collector.Start()
		started := collector.Complete().StartTime
		q := newQubot(t, newConfig(t, "{ids: [login]}"), collector)

		require.Equal(t, started, q.Run().Metric.StartTime)
	})
}
