package reward

import (
	"testing"

	"github.com/stretchr/testify/require"

	"qubot/ui"
)

type fixture struct {
	tree     *ui.Tree
	branch   *ui.Node // Has children
	leaf     *ui.Node // Dead end
	terminal *ui.Node
}

func newFixture() fixture {
	tree := ui.NewTree(ui.Descriptor{TagName: "html", Content: "<html></html>"})
	branch := tree.AddTransition(0, ui.Descriptor{TagName: "a", ID: "branch", Content: `<a id="branch"></a>`})
	tree.AddTransition(branch, ui.Descriptor{TagName: "span", Content: "<span></span>"})
	leaf := tree.AddTransition(0, ui.Descriptor{TagName: "a", ID: "leaf", Content: `<a id="leaf"></a>`})
	terminal := tree.AddTransition(0, ui.Descriptor{TagName: "a", ID: "goal", Content: `<a id="goal"></a>`})
	tree.Freeze()
	tree.Node(terminal).SetTerminal(true)
	return fixture{
		tree:     tree,
		branch:   tree.Node(branch),
		leaf:     tree.Node(leaf),
		terminal: tree.Node(terminal),
	}
}

func TestPresets(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name     string
		fn       Func
		action   ui.Action
		node     *ui.Node
		expected int
	}{
		{"encourage terminal", EncourageExploration, ui.LeftClick, f.terminal, LargePenalty},
		{"encourage dead end", EncourageExploration, ui.LeftClick, f.leaf, NoReward},
		{"encourage click", EncourageExploration, ui.LeftClick, f.branch, MediumReward},
		{"encourage navigate", EncourageExploration, ui.Navigate, f.branch, NoReward},
		{"discourage terminal", DiscourageExploration, ui.LeftClick, f.terminal, LargeReward},
		{"discourage dead end", DiscourageExploration, ui.Navigate, f.leaf, NoReward},
		{"discourage click", DiscourageExploration, ui.LeftClick, f.branch, MediumReward},
		{"heavily encourage click", HeavilyEncourageExploration, ui.LeftClick, f.branch, ExtremeReward},
		{"heavily encourage terminal", HeavilyEncourageExploration, ui.LeftClick, f.terminal, SmallPenalty},
		{"heavily encourage navigate", HeavilyEncourageExploration, ui.Navigate, f.branch, SmallPenalty},
		{"heavily discourage terminal", HeavilyDiscourageExploration, ui.Navigate, f.terminal, ExtremeReward},
		{"heavily discourage click", HeavilyDiscourageExploration, ui.LeftClick, f.branch, SmallPenalty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.fn(tt.action, tt.node))
		})
	}
}

func TestRepeatVisits(t *testing.T) {
	t.Run("delegating on first visit", func(t *testing.T) {
		f := newFixture()

		require.Equal(t, MediumReward, RewardRepeatVisits(ui.LeftClick, f.branch))
		require.Equal(t, MediumReward, PenalizeRepeatVisits(ui.LeftClick, f.branch))
	})

	t.Run("overriding on repeat visit", func(t *testing.T) {
		f := newFixture()
		f.branch.IncrementVisits()

		require.Equal(t, LargeReward, RewardRepeatVisits(ui.LeftClick, f.branch))
		require.Equal(t, LargePenalty, PenalizeRepeatVisits(ui.LeftClick, f.branch))
	})
}

func TestParse(t *testing.T) {
	t.Run("resolving names and keys", func(t *testing.T) {
		for key, expected := range map[string]Preset{
			"ENCOURAGE_EXPLORATION":          Encourage,
			"discourage_exploration":         Discourage,
			"3":                              PenalizeRepeats,
			" 4 ":                            RewardRepeats,
			"HEAVILY_DISCOURAGE_EXPLORATION": HeavilyDiscourage,
		} {
			got, err := ParsePreset(key)
			require.NoError(t, err, key)
			require.Equal(t, expected, got, key)
		}
	})

	t.Run("returning a usable function", func(t *testing.T) {
		f := newFixture()
		fn, err := Parse("DISCOURAGE_EXPLORATION")
		require.NoError(t, err)
		require.Equal(t, LargeReward, fn(ui.LeftClick, f.terminal))
	})

	t.Run("failing on unknown keys", func(t *testing.T) {
		for _, key := range []string{"", "0", "7", "EXPLORE_EVERYTHING"} {
			_, err := Parse(key)
			require.ErrorIs(t, err, ErrUnknownPreset, "Key %q should not resolve", key)
		}
		_, err := Preset(99).Func()
		require.ErrorIs(t, err, ErrUnknownPreset)
	})
}
