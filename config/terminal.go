package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"qubot/ui"
)

// Selectors lists the elements to mark as terminal in one phase.
type Selectors struct {
	IDs          []string `yaml:"ids,omitempty" validate:"dive,required"`
	Classes      []string `yaml:"classes,omitempty" validate:"dive,required"`
	ContainsText []string `yaml:"contains_text,omitempty" validate:"dive,required"`
}

func (s Selectors) IsEmpty() bool {
	return len(s.IDs) == 0 && len(s.Classes) == 0 && len(s.ContainsText) == 0
}

// Selectors expands the lists into tree selectors, ids first.
func (s Selectors) Selectors() []ui.Selector {
	var selectors []ui.Selector
	for _, id := range s.IDs {
		selectors = append(selectors, ui.Selector{ID: id})
	}
	for _, class := range s.Classes {
		selectors = append(selectors, ui.Selector{Class: class})
	}
	for _, text := range s.ContainsText {
		selectors = append(selectors, ui.Selector{ContainsText: text})
	}
	return selectors
}

// TerminalInfo holds the selectors of both phases. In a file it is either a
// flat selector list used for both phases, or has training and testing
// blocks; a missing block copies the other.
type TerminalInfo struct {
	Training Selectors `yaml:"training"`
	Testing  Selectors `yaml:"testing"`
}

func (t TerminalInfo) IsSet() bool {
	return !t.Training.IsEmpty() || !t.Testing.IsEmpty()
}

func (t *TerminalInfo) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Training  *Selectors `yaml:"training"`
		Testing   *Selectors `yaml:"testing"`
		Selectors `yaml:",inline"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	if raw.Training == nil && raw.Testing == nil {
		if raw.Selectors.IsEmpty() {
			return fmt.Errorf("%w: terminal_info needs ids, classes and/or contains_text", ErrInvalid)
		}
		t.Training = raw.Selectors
		t.Testing = raw.Selectors
		return nil
	}

	for name, s := range map[string]*Selectors{"training": raw.Training, "testing": raw.Testing} {
		if s != nil && s.IsEmpty() {
			return fmt.Errorf("%w: terminal_info.%s needs ids, classes and/or contains_text", ErrInvalid, name)
		}
	}
	if raw.Training == nil {
		raw.Training = raw.Testing
	}
	if raw.Testing == nil {
		raw.Testing = raw.Training
	}
	t.Training = *raw.Training
	t.Testing = *raw.Testing
	return nil
}
