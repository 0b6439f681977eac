package stats

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Timer names
const (
	ConstructTreeTime = "construct_ui_tree_time"
	TrainingTime      = "training_time"
	TestingTime       = "testing_time"
)

type Phase string

const (
	Training Phase = "training"
	Testing  Phase = "testing"
)

type RunMetric struct {
	StartTime        time.Time                `json:"start_time"`
	Duration         time.Duration            `json:"duration"`
	Steps            int                      `json:"steps"`
	TrainingEpisodes int                      `json:"training_episodes"`
	TestingEpisodes  int                      `json:"testing_episodes"`
	Penalties        int                      `json:"penalties"` // Steps with a negative reward
	Epsilon          float64                  `json:"epsilon"`
	Timers           map[string]time.Duration `json:"timers"`
}

type Collector interface {
	// Start marks the beginning of the run. Later calls keep the first time.
	Start()
	StartTimer(name string)
	StopTimer(name string) time.Duration
	AddStep(reward int)
	AddEpisode(phase Phase, reward int, epsilon float64)
	Gatherer() prometheus.Gatherer
	Complete() RunMetric
}

type collector struct {
	startTime time.Time
	steps     atomic.Int64
	training  atomic.Int64
	testing   atomic.Int64
	penalties atomic.Int64
	epsilon   atomic.Uint64 // math.Float64bits

	mu      sync.Mutex
	started map[string]time.Time
	timers  map[string]time.Duration

	registry       *prometheus.Registry
	stepsTotal     prometheus.Counter
	penaltiesTotal prometheus.Counter
	episodesTotal  *prometheus.CounterVec
	episodeReward  *prometheus.HistogramVec
	epsilonGauge   prometheus.Gauge
	timerSeconds   *prometheus.GaugeVec
}

// NewCollector returns a collector backed by its own Prometheus registry, so
// several runs in one process never share series.
func NewCollector() Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &collector{
		started:  make(map[string]time.Time),
		timers:   make(map[string]time.Duration),
		registry: registry,
		stepsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "qubot_steps_total",
			Help: "Environment steps taken",
		}),
		penaltiesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "qubot_penalties_total",
			Help: "Steps that returned a negative reward",
		}),
		episodesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "qubot_episodes_total",
			Help: "Completed episodes by phase",
		}, []string{"phase"}),
		episodeReward: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "qubot_episode_reward",
			Help:    "Total reward per episode by phase",
			Buckets: []float64{-100, -50, -10, -5, 0, 5, 10, 50, 100, 500},
		}, []string{"phase"}),
		epsilonGauge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "qubot_epsilon",
			Help: "Exploration rate after the last training episode",
		}),
		timerSeconds: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "qubot_timer_seconds",
			Help: "Wall time of the named run phase",
		}, []string{"timer"}),
	}
}

func (c *collector) Start() {
	if c.startTime.IsZero() {
		c.startTime = time.Now()
	}
}

func (c *collector) StartTimer(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started[name] = time.Now()
}

// StopTimer adds the time since the matching StartTimer to the named timer
// and returns the elapsed time. Stopping a timer that never started is a no-op.
func (c *collector) StopTimer(name string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	start, ok := c.started[name]
	if !ok {
		return 0
	}
	delete(c.started, name)
	elapsed := time.Since(start)
	c.timers[name] += elapsed
	c.timerSeconds.WithLabelValues(name).Set(c.timers[name].Seconds())
	return elapsed
}

func (c *collector) AddStep(reward int) {
	c.steps.Add(1)
	c.stepsTotal.Inc()
	if reward < 0 {
		c.penalties.Add(1)
		c.penaltiesTotal.Inc()
	}
}

func (c *collector) AddEpisode(phase Phase, reward int, epsilon float64) {
	switch phase {
	case Training:
		c.training.Add(1)
		c.epsilon.Store(math.Float64bits(epsilon))
		c.epsilonGauge.Set(epsilon)
	case Testing:
		c.testing.Add(1)
	}
	c.episodesTotal.WithLabelValues(string(phase)).Inc()
	c.episodeReward.WithLabelValues(string(phase)).Observe(float64(reward))
}

func (c *collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

func (c *collector) Complete() RunMetric {
	c.mu.Lock()
	timers := make(map[string]time.Duration, len(c.timers))
	for name, d := range c.timers {
		timers[name] = d
	}
	c.mu.Unlock()

	return RunMetric{
		StartTime:        c.startTime,
		Duration:         time.Since(c.startTime),
		Steps:            int(c.steps.Load()),
		TrainingEpisodes: int(c.training.Load()),
		TestingEpisodes:  int(c.testing.Load()),
		Penalties:        int(c.penalties.Load()),
		Epsilon:          math.Float64frombits(c.epsilon.Load()),
		Timers:           timers,
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (c *dummyCollector) Start()                                     {}
func (c *dummyCollector) StartTimer(name string)                     {}
func (c *dummyCollector) StopTimer(name string) time.Duration        { return 0 }
func (c *dummyCollector) AddStep(reward int)                         {}
func (c *dummyCollector) AddEpisode(phase Phase, r int, eps float64) {}
func (c *dummyCollector) Gatherer() prometheus.Gatherer              { return prometheus.NewRegistry() }
func (c *dummyCollector) Complete() RunMetric                        { return RunMetric{} }
