package learner

import (
	"fmt"
	"strings"
)

type Summary struct {
	Steps           int     `json:"steps"`
	Alpha           float64 `json:"alpha"`
	Gamma           float64 `json:"gamma"`
	OriginalEpsilon float64 `json:"original_epsilon"`
	Epsilon         float64 `json:"epsilon"`
	Decay           float64 `json:"decay"`
	TrainingRewards int     `json:"training_rewards"`
	TrainingScore   float64 `json:"training_score"` // Mean reward per episode
	TestingRewards  int     `json:"testing_rewards"`
	TestingScore    float64 `json:"testing_score"`
	Penalties       int     `json:"testing_penalties"`
	PenaltyRate     float64 `json:"testing_penalty_rate"` // Mean penalties per episode
}

func (l *Learner) Summary() Summary {
	trainingRewards, trainingScore := sumAndMean(l.history.TrainingRewards)
	testingRewards, testingScore := sumAndMean(l.history.TestingRewards)
	penalties, penaltyRate := sumAndMean(l.history.TestingPenalties)
	return Summary{
		Steps:           l.env.Steps(),
		Alpha:           l.alpha,
		Gamma:           l.gamma,
		OriginalEpsilon: l.originalEpsilon,
		Epsilon:         l.epsilon,
		Decay:           l.decay,
		TrainingRewards: trainingRewards,
		TrainingScore:   trainingScore,
		TestingRewards:  testingRewards,
		TestingScore:    testingScore,
		Penalties:       penalties,
		PenaltyRate:     penaltyRate,
	}
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Steps:                %7d\n", s.Steps)
	fmt.Fprintf(&b, "Alpha:                %7.4f\n", s.Alpha)
	fmt.Fprintf(&b, "Gamma:                %7.4f\n", s.Gamma)
	fmt.Fprintf(&b, "Original epsilon:     %7.4f\n", s.OriginalEpsilon)
	fmt.Fprintf(&b, "Current epsilon:      %7.4f\n", s.Epsilon)
	fmt.Fprintf(&b, "Decay:                %7.4f\n", s.Decay)
	fmt.Fprintf(&b, "Training rewards:     %7d\n", s.TrainingRewards)
	fmt.Fprintf(&b, "Training score:       %7.4f\n", s.TrainingScore)
	fmt.Fprintf(&b, "Testing rewards:      %7d\n", s.TestingRewards)
	fmt.Fprintf(&b, "Testing score:        %7.4f\n", s.TestingScore)
	fmt.Fprintf(&b, "Testing penalties:    %7d\n", s.Penalties)
	fmt.Fprintf(&b, "Testing penalty rate: %7.4f", s.PenaltyRate)
	return b.String()
}

func sumAndMean(values []int) (int, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return sum, float64(sum) / float64(len(values))
}
