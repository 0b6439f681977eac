package reward

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnknownPreset = errors.New("unknown reward preset")

// Preset identifies one of the built-in reward functions.
type Preset int

const (
	Encourage Preset = iota + 1
	Discourage
	PenalizeRepeats
	RewardRepeats
	HeavilyEncourage
	HeavilyDiscourage
)

var presetNames = map[Preset]string{
	Encourage:         "ENCOURAGE_EXPLORATION",
	Discourage:        "DISCOURAGE_EXPLORATION",
	PenalizeRepeats:   "PENALIZE_REPEAT_VISITS",
	RewardRepeats:     "REWARD_REPEAT_VISITS",
	HeavilyEncourage:  "HEAVILY_ENCOURAGE_EXPLORATION",
	HeavilyDiscourage: "HEAVILY_DISCOURAGE_EXPLORATION",
}

var presetFuncs = map[Preset]Func{
	Encourage:         EncourageExploration,
	Discourage:        DiscourageExploration,
	PenalizeRepeats:   PenalizeRepeatVisits,
	RewardRepeats:     RewardRepeatVisits,
	HeavilyEncourage:  HeavilyEncourageExploration,
	HeavilyDiscourage: HeavilyDiscourageExploration,
}

func (p Preset) String() string {
	if name, ok := presetNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Preset(%d)", int(p))
}

// Func returns the reward function of the preset.
func (p Preset) Func() (Func, error) {
	fn, ok := presetFuncs[p]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPreset, int(p))
	}
	return fn, nil
}

// ParsePreset resolves a preset from its name (case-insensitive) or its
// integer key.
func ParsePreset(key string) (Preset, error) {
	key = strings.TrimSpace(key)
	if n, err := strconv.Atoi(key); err == nil {
		p := Preset(n)
		if _, ok := presetFuncs[p]; ok {
			return p, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrUnknownPreset, key)
	}
	for p, name := range presetNames {
		if strings.EqualFold(name, key) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPreset, key)
}

// Parse resolves a reward function from a preset name or key.
func Parse(key string) (Func, error) {
	p, err := ParsePreset(key)
	if err != nil {
		return nil, err
	}
	return p.Func()
}
