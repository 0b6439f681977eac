package ui

import "strings"

// Action represents how a transition between two nodes is exercised.
type Action int

const (
	Navigate Action = iota
	LeftClick
	Input
)

func (a Action) String() string {
	switch a {
	case Navigate:
		return "NAVIGATE"
	case LeftClick:
		return "LEFT_CLICK"
	case Input:
		return "INPUT"
	default:
		return "UNKNOWN"
	}
}

// Input types that can be filled with a generated value
var generatableInputTypes = map[string]bool{
	"color":          true,
	"date":           true,
	"datetime-local": true,
	"email":          true,
	"month":          true,
	"number":         true,
	"password":       true,
	"search":         true,
	"tel":            true,
	"text":           true,
	"time":           true,
	"url":            true,
	"week":           true,
}

// Descriptor is the raw element information handed over by the scraper.
type Descriptor struct {
	TagName   string
	ID        string
	Class     string
	InputType string
	Content   string // Serialized markup (outer HTML)
}

// IsGeneratableInput reports whether the element accepts typed input.
func IsGeneratableInput(tagName, inputType string) bool {
	tag := strings.ToLower(tagName)
	if tag == "textarea" {
		return true
	}
	return tag == "input" && generatableInputTypes[strings.ToLower(inputType)]
}

// Classify maps an element descriptor to the action used to reach it.
func Classify(d Descriptor) Action {
	switch strings.ToLower(d.TagName) {
	case "a", "button":
		return LeftClick
	}
	if IsGeneratableInput(d.TagName, d.InputType) {
		return Input
	}
	return Navigate
}
