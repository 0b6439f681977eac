package stats

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	t.Run("counting steps, penalties and episodes", func(t *testing.T) {
		c := NewCollector()
		c.Start()

		c.AddStep(5)
		c.AddStep(-1)
		c.AddStep(0)
		c.AddEpisode(Training, 4, 0.5)
		c.AddEpisode(Testing, -1, 0)

		metric := c.Complete()
		require.Equal(t, 3, metric.Steps)
		require.Equal(t, 1, metric.Penalties, "Only negative rewards are penalties")
		require.Equal(t, 1, metric.TrainingEpisodes)
		require.Equal(t, 1, metric.TestingEpisodes)
		require.Equal(t, 0.5, metric.Epsilon, "Epsilon comes from training episodes")
	})

	t.Run("keeping the first start time", func(t *testing.T) {
		c := NewCollector()
		c.Start()
		first := c.Complete().StartTime
		time.Sleep(time.Millisecond)
		c.Start()

		require.Equal(t, first, c.Complete().StartTime)
	})

	t.Run("accumulating timers", func(t *testing.T) {
		c := NewCollector()

		c.StartTimer(TrainingTime)
		time.Sleep(time.Millisecond)
		first := c.StopTimer(TrainingTime)
		c.StartTimer(TrainingTime)
		second := c.StopTimer(TrainingTime)

		require.Positive(t, first)
		require.Equal(t, first+second, c.Complete().Timers[TrainingTime])
		require.Zero(t, c.StopTimer(TestingTime), "Unstarted timers are ignored")
	})

	t.Run("exposing prometheus series", func(t *testing.T) {
		c := NewCollector()
		c.AddStep(-1)
		c.AddEpisode(Training, -1, 1)

		families, err := c.Gatherer().Gather()
		require.NoError(t, err)

		names := map[string]bool{}
		for _, f := range families {
			names[f.GetName()] = true
		}
		require.True(t, names["qubot_steps_total"])
		require.True(t, names["qubot_penalties_total"])
		require.True(t, names["qubot_episodes_total"])
		require.True(t, names["qubot_epsilon"])
	})

	t.Run("dummy records nothing", func(t *testing.T) {
		c := NewDummyCollector()
		c.AddStep(-1)
		c.AddEpisode(Training, 1, 1)
		require.Equal(t, RunMetric{}, c.Complete())
	})
}

func TestEpisodes(t *testing.T) {
	records := Episodes("run", []int{1, 2}, []float64{0.9, 0.8}, []int{-3}, []int{2})

	require.Len(t, records, 3)
	require.Equal(t, EpisodeRecord{Run: "run", Phase: "training", Episode: 1, Reward: 2, Epsilon: 0.8}, records[1])
	require.Equal(t, EpisodeRecord{Run: "run", Phase: "testing", Episode: 0, Reward: -3, Penalties: 2}, records[2])
}

func TestWriter(t *testing.T) {
	newWriter := func(t *testing.T) (*Writer, []EpisodeRecord) {
		w, err := NewWriter(t.TempDir())
		require.NoError(t, err)
		require.NotEmpty(t, w.RunID())
		return w, Episodes(w.RunID(), []int{10, 5}, []float64{1, 0.99}, []int{-1}, []int{1})
	}

	t.Run("creating one directory per run", func(t *testing.T) {
		root := t.TempDir()
		first, err := NewWriter(root)
		require.NoError(t, err)
		second, err := NewWriter(root)
		require.NoError(t, err)

		require.NotEqual(t, first.Dir(), second.Dir(), "Runs started in the same second must not share a directory")
		require.Contains(t, filepath.Base(first.Dir()), first.RunID()[:8])
		entries, err := os.ReadDir(root)
		require.NoError(t, err)
		require.Len(t, entries, 2)
	})

	t.Run("writing episodes as csv", func(t *testing.T) {
		w, records := newWriter(t)
		require.NoError(t, w.WriteEpisodes(records))

		f, err := os.Open(filepath.Join(w.Dir(), "episodes.csv"))
		require.NoError(t, err)
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)

		require.Len(t, rows, 4, "Header plus one row per episode")
		require.Equal(t, []string{"run", "phase", "episode", "reward", "epsilon", "penalties"}, rows[0])
		require.Equal(t, "testing", rows[3][1])
	})

	t.Run("writing episodes as parquet", func(t *testing.T) {
		w, records := newWriter(t)
		require.NoError(t, w.WriteParquet(records))

		got, err := parquet.ReadFile[EpisodeRecord](filepath.Join(w.Dir(), "episodes.parquet"))
		require.NoError(t, err)
		require.Equal(t, records, got)
	})

	t.Run("writing the summary as json", func(t *testing.T) {
		w, _ := newWriter(t)
		require.NoError(t, w.WriteSummary(map[string]int{"steps": 3}))

		data, err := os.ReadFile(filepath.Join(w.Dir(), "qu_stats.json"))
		require.NoError(t, err)
		var got map[string]int
		require.NoError(t, json.Unmarshal(data, &got))
		require.Equal(t, 3, got["steps"])
	})

	t.Run("writing metrics as a textfile", func(t *testing.T) {
		w, _ := newWriter(t)
		c := NewCollector()
		c.AddStep(1)
		require.NoError(t, w.WriteMetrics(c.Gatherer()))

		data, err := os.ReadFile(filepath.Join(w.Dir(), "metrics.prom"))
		require.NoError(t, err)
		require.True(t, strings.Contains(string(data), "qubot_steps_total 1"))
	})
}
