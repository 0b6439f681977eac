// Package learner trains a tabular Q-learning policy over an exploration
// environment. Rows of the table are state embeddings, columns are target
// node embeddings.
package learner

import (
	"math"
	"slices"

	"github.com/rs/zerolog/log"

	"qubot/environment"
	"qubot/meta"
	"qubot/stats"
	"qubot/ui"
)

const (
	EpsilonMin = 0.01
	EpsilonMax = 1.0
)

// Epsilon returns the exploration rate after the zero-based episode e.
func Epsilon(e int, decay float64) float64 {
	return EpsilonMin + (EpsilonMax-EpsilonMin)*math.Exp(-decay*float64(e))
}

type Option func(l *Learner)

func WithAlpha(alpha float64) Option {
	return func(l *Learner) {
		if alpha > 0 && alpha <= 1 {
			l.alpha = alpha
		}
	}
}

func WithGamma(gamma float64) Option {
	return func(l *Learner) {
		if gamma >= 0 && gamma <= 1 {
			l.gamma = gamma
		}
	}
}

func WithEpsilon(epsilon float64) Option {
	return func(l *Learner) {
		if epsilon >= 0 && epsilon <= 1 {
			l.epsilon = epsilon
			l.originalEpsilon = epsilon
		}
	}
}

func WithDecay(decay float64) Option {
	return func(l *Learner) {
		if decay > 0 {
			l.decay = decay
		}
	}
}

func WithStepLimit(limit int) Option {
	return func(l *Learner) {
		if limit > 0 {
			l.stepLimit = limit
		}
	}
}

// WithRandom replaces the source of the epsilon-greedy draws. Defaults to the
// environment's.
func WithRandom(random environment.Random) Option {
	return func(l *Learner) {
		if random != nil {
			l.random = random
		}
	}
}

func WithCollector(collector stats.Collector) Option {
	return func(l *Learner) {
		if collector != nil {
			l.collector = collector
		}
	}
}

type History struct {
	TrainingRewards  []int     `json:"training_rewards"`
	Epsilons         []float64 `json:"epsilon_history"`
	TestingRewards   []int     `json:"testing_rewards"`
	TestingPenalties []int     `json:"testing_penalties"`
}

type Learner struct {
	env       *environment.Environment
	random    environment.Random
	collector stats.Collector

	alpha           float64
	gamma           float64
	epsilon         float64
	originalEpsilon float64
	decay           float64
	stepLimit       int

	q       [][]float64
	hashes  []string // Pre-order content hashes the table was laid out for
	history History
}

func New(env *environment.Environment, options ...Option) *Learner {
	l := &Learner{ // Default values
		env:             env,
		random:          env.Random(),
		collector:       stats.NewDummyCollector(),
		alpha:           meta.ALPHA,
		gamma:           meta.GAMMA,
		epsilon:         meta.EPSILON,
		originalEpsilon: meta.EPSILON,
		decay:           meta.DECAY,
		stepLimit:       env.StepLimit(),
	}
	for _, option := range options {
		option(l)
	}
	l.resize()
	return l
}

// resize lays the table out for the last freeze of the tree. Values follow
// the content they were learned for, so a node inserted before existing ones
// does not inherit their rows.
func (l *Learner) resize() {
	tree := l.env.Tree()
	if tree.IsStale() {
		tree.Freeze()
	}
	hashes := make([]string, tree.NodeCount())
	for i := range hashes {
		hashes[i] = tree.NodeAt(i).Hash
	}
	if slices.Equal(hashes, l.hashes) {
		return
	}

	// Old embedding -> new embedding, -1 for rows no hash owned or that are gone
	live := make(map[string]int, len(l.hashes))
	for i, h := range l.hashes {
		live[h] = i
	}
	moved := make([]int, len(l.hashes))
	for i, h := range l.hashes {
		moved[i] = -1
		if live[h] != i {
			continue
		}
		if e, ok := tree.EmbeddingOf(h); ok {
			moved[i] = e
		}
	}

	n := len(hashes)
	q := make([][]float64, n)
	for i := range q {
		q[i] = make([]float64, n)
	}
	for i, ni := range moved {
		if ni < 0 {
			continue
		}
		for j, nj := range moved {
			if nj >= 0 {
				q[ni][nj] = l.q[i][j]
			}
		}
	}
	l.q = q
	l.hashes = hashes
}

// Train runs episodes with epsilon-greedy selection and updates the table
// after every non-empty transition.
func (l *Learner) Train(episodes int) {
	l.resize()
	tree := l.env.Tree()

	log.Info().Msgf("Training on %d episodes...", episodes)
	l.collector.StartTimer(stats.TrainingTime)
	defer l.collector.StopTimer(stats.TrainingTime)

	for episode := 0; episode < episodes; episode++ {
		l.env.Restart()
		total := 0
		for step := 0; step < l.stepLimit; step++ {
			state := l.env.StateEmbedding()
			t := l.next()
			visit(tree, t)

			obs, reward, done := l.env.Step(t)
			total += reward
			l.collector.AddStep(reward)

			if !t.IsNone() {
				target := tree.Embedding(tree.Node(t.Node))
				l.q[state][target] += l.alpha * (float64(reward) + l.gamma*maxOf(l.q[obs]) - l.q[state][target])
			}

			if done || step == l.stepLimit-1 {
				l.epsilon = Epsilon(episode, l.decay)
				l.history.TrainingRewards = append(l.history.TrainingRewards, total)
				l.history.Epsilons = append(l.history.Epsilons, l.epsilon)
				l.collector.AddEpisode(stats.Training, total, l.epsilon)
				log.Debug().Msgf("Training episode %d: %d steps, reward %d, epsilon %.4f", episode, step+1, total, l.epsilon)
				break
			}
		}
	}
	log.Info().Msg("Training done.")
}

// Test runs episodes with the learned policy without touching the table and
// counts the steps that were penalized.
func (l *Learner) Test(episodes int) {
	l.resize()
	tree := l.env.Tree()

	log.Info().Msgf("Testing on %d episodes...", episodes)
	l.collector.StartTimer(stats.TestingTime)
	defer l.collector.StopTimer(stats.TestingTime)

	for episode := 0; episode < episodes; episode++ {
		l.env.Restart()
		total, penalties := 0, 0
		for step := 0; step < l.stepLimit; step++ {
			t := l.next()
			visit(tree, t)

			_, reward, done := l.env.Step(t)
			total += reward
			if reward < 0 {
				penalties++
			}
			l.collector.AddStep(reward)

			if done || step == l.stepLimit-1 {
				l.history.TestingRewards = append(l.history.TestingRewards, total)
				l.history.TestingPenalties = append(l.history.TestingPenalties, penalties)
				l.collector.AddEpisode(stats.Testing, total, l.epsilon)
				log.Debug().Msgf("Testing episode %d: %d steps, reward %d, penalties %d", episode, step+1, total, penalties)
				break
			}
		}
	}
	log.Info().Msg("Testing done.")
}

// next picks the transition for the current step: exploit when the draw is
// at least epsilon, explore otherwise or when exploiting found nothing, and
// go back to the parent when the current node offers no way forward.
func (l *Learner) next() ui.Transition {
	t := ui.None()
	if l.random.Float64() >= l.epsilon {
		t = l.exploitative()
	}
	if t.IsNone() {
		t = l.env.Explorative()
	}
	if current := l.env.State(); t.IsNone() && current.HasParent() {
		t = ui.Transition{Action: ui.Navigate, Node: current.Parent()}
	}
	return t
}

// exploitative follows the best known value of the current state. A row that
// has not learned anything yet defers to the episode history.
func (l *Learner) exploitative() ui.Transition {
	tree := l.env.Tree()
	current := l.env.State()
	row := l.q[tree.Embedding(current)]
	if flat(row) {
		return l.env.Exploitative()
	}

	target := tree.NodeAt(argmax(row))
	for _, t := range current.Transitions() {
		if tree.Node(t.Node).Hash == target.Hash {
			return t
		}
	}
	return ui.None()
}

func visit(tree *ui.Tree, t ui.Transition) {
	if node := tree.Node(t.Node); node != nil {
		node.IncrementVisits()
	}
}

// Reset restores the configured epsilon and clears the histories, the visit
// counters and the environment. The table is kept.
func (l *Learner) Reset() {
	l.epsilon = l.originalEpsilon
	l.history = History{}
	l.env.ClearVisits()
	l.env.Reset()
}

func (l *Learner) CurrentEpsilon() float64 {
	return l.epsilon
}

func (l *Learner) Environment() *environment.Environment {
	return l.env
}

// History returns copies of the per-episode records.
func (l *Learner) History() History {
	return History{
		TrainingRewards:  append([]int(nil), l.history.TrainingRewards...),
		Epsilons:         append([]float64(nil), l.history.Epsilons...),
		TestingRewards:   append([]int(nil), l.history.TestingRewards...),
		TestingPenalties: append([]int(nil), l.history.TestingPenalties...),
	}
}

// QTable returns a copy of the value table.
func (l *Learner) QTable() [][]float64 {
	q := make([][]float64, len(l.q))
	for i, row := range l.q {
		q[i] = append([]float64(nil), row...)
	}
	return q
}

func maxOf(row []float64) float64 {
	return row[argmax(row)]
}

// argmax returns the first index holding the largest value.
func argmax(row []float64) int {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best
}

func flat(row []float64) bool {
	for _, v := range row {
		if v != row[0] {
			return false
		}
	}
	return true
}
