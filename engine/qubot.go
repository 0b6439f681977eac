package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"qubot/builder"
	"qubot/config"
	"qubot/environment"
	"qubot/learner"
	"qubot/stats"
	"qubot/ui"
)

// Qubot explores one web application: it trains on the training terminal
// nodes and is then tested against the testing ones.
type Qubot struct {
	cfg       *config.Config
	tree      *ui.Tree
	learner   *learner.Learner
	collector stats.Collector
}

// Construct builds the tree for the configuration, from html_file when set
// and by crawling url otherwise.
func Construct(ctx context.Context, cfg *config.Config, fetcher builder.Fetcher, collector stats.Collector) (*ui.Tree, error) {
	collector.StartTimer(stats.ConstructTreeTime)
	defer collector.StopTimer(stats.ConstructTreeTime)

	if cfg.HTMLFile != "" {
		data, err := os.ReadFile(cfg.HTMLFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read html file: %w", err)
		}
		return builder.Build(string(data))
	}
	if fetcher == nil {
		return nil, fmt.Errorf("no fetcher to load %s", cfg.URL)
	}
	crawler := &builder.Crawler{Fetcher: fetcher, MaxURLs: cfg.Driver.MaxURLs}
	return crawler.Crawl(ctx, cfg.URL)
}

func New(cfg *config.Config, tree *ui.Tree, collector stats.Collector) *Qubot {
	if collector == nil {
		collector = stats.NewDummyCollector()
	}
	env := environment.New(tree, cfg.RewardFunc(),
		environment.WithStepLimit(cfg.Model.StepLimit),
		environment.WithRandom(environment.NewRandom(cfg.Seed)),
	)
	l := learner.New(env,
		learner.WithAlpha(cfg.Model.Alpha),
		learner.WithGamma(cfg.Model.Gamma),
		learner.WithEpsilon(cfg.Model.Epsilon),
		learner.WithDecay(cfg.Model.Decay),
		learner.WithStepLimit(cfg.Model.StepLimit),
		learner.WithCollector(collector),
	)
	return &Qubot{
		cfg:       cfg,
		tree:      tree,
		learner:   l,
		collector: collector,
	}
}

func (q *Qubot) Run() Report {
	q.Train()
	q.Test()
	return q.Report()
}

// Train starts from a clean learner with the training terminal nodes set.
// The collector is started unless the caller already did.
func (q *Qubot) Train() {
	q.collector.Start()
	q.learner.Reset()
	q.setTerminals(stats.Training)
	q.learner.Train(q.cfg.Model.TrainEpisodes)
}

func (q *Qubot) Test() {
	q.collector.Start()
	q.setTerminals(stats.Testing)
	q.learner.Test(q.cfg.Model.TestEpisodes)
}

// setTerminals clears the other phase's terminal nodes before setting the
// current phase's, so nodes shared by both phases stay terminal.
func (q *Qubot) setTerminals(phase stats.Phase) {
	current, other := q.cfg.TerminalInfo.Training, q.cfg.TerminalInfo.Testing
	if phase == stats.Testing {
		current, other = other, current
	}
	for _, s := range other.Selectors() {
		q.tree.UnsetTerminal(s)
	}
	for _, s := range current.Selectors() {
		if q.tree.SetTerminal(s) == nil {
			log.Warn().Msgf("No %s terminal node matches %+v", phase, s)
		}
	}
}

func (q *Qubot) Report() Report {
	return Report{
		Summary: q.learner.Summary(),
		History: q.learner.History(),
		Metric:  q.collector.Complete(),
	}
}

func (q *Qubot) Tree() *ui.Tree {
	return q.tree
}

func (q *Qubot) Learner() *learner.Learner {
	return q.learner
}
