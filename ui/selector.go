package ui

import (
	"errors"
	"strings"
)

var ErrEmptySelector = errors.New("selector needs an id, a class or a text fragment")

// Selector resolves a node by its metadata. The first non-empty criterion
// that matches wins, checked in the order id, class, text.
type Selector struct {
	ID           string
	Class        string
	ContainsText string
}

func (s Selector) Validate() error {
	if s.ID == "" && s.Class == "" && s.ContainsText == "" {
		return ErrEmptySelector
	}
	return nil
}

func (s Selector) matches(n *Node) bool {
	switch {
	case s.ID != "" && n.HTMLID == s.ID:
		return true
	case s.Class != "" && n.HTMLClass == s.Class:
		return true
	case s.ContainsText != "" && strings.Contains(n.Content, s.ContainsText):
		return true
	}
	return false
}
