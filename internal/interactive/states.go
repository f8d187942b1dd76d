package interactive

import (
	"fmt"
	"strings"

	"github.com/district-insights/crimemap/internal/dataset"
	"github.com/district-insights/crimemap/internal/palette"
)

// State is one recoloring mode of the interactive map: a named,
// deterministic category-to-color assignment. The same structure is
// serialized into the document and interpreted by a single generic script
// function, so the recoloring behavior lives here rather than in ad-hoc
// browser code.
type State struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	// Field selects the record attribute the state colors by:
	// "offense", "method", or "" for uniform coloring.
	Field string `json:"field"`
	Rules []Rule `json:"rules"`
	// Default is the color for values no rule matches (and the uniform
	// color when Field is empty).
	Default string `json:"default"`
}

// Rule maps one categorical value to a CSS color.
type Rule struct {
	Value string `json:"value"`
	Color string `json:"color"`
}

// States builds the three selector states from the palette: "all" colors
// uniformly, "by-offense" and "by-weapon" color by category with the last
// legend entry acting as the fallback.
func States(pal *palette.Palette) []State {
	return []State{
		uniformState(pal),
		categoricalState(pal, palette.ModeOffense, "offense", "Offense"),
		categoricalState(pal, palette.ModeMethod, "method", "Weapon"),
	}
}

func uniformState(pal *palette.Palette) State {
	return State{
		Name:    string(palette.ModeAll),
		Label:   "All",
		Default: palette.CSS(pal.Legend(palette.ModeAll)[0].Color),
	}
}

func categoricalState(pal *palette.Palette, mode palette.Mode, field, title string) State {
	entries := pal.Legend(mode)

	var parts []string
	for _, e := range entries {
		parts = append(parts, fmt.Sprintf("%s [%s]", strings.ToLower(e.Label), colorName(e.Color)))
	}

	s := State{
		Name:    string(mode),
		Label:   fmt.Sprintf("%s (%s)", title, strings.Join(parts, ", ")),
		Field:   field,
		Default: palette.CSS(entries[len(entries)-1].Color),
	}
	for _, e := range entries[:len(entries)-1] {
		s.Rules = append(s.Rules, Rule{Value: e.Category, Color: palette.CSS(e.Color)})
	}
	return s
}

func colorName(c any) string {
	switch c {
	case palette.Red:
		return "red"
	case palette.Blue:
		return "blue"
	case palette.Green:
		return "green"
	default:
		return "custom"
	}
}

// ColorFor applies a state to a record. This is the reference
// implementation of the assignment the in-document script mirrors.
func ColorFor(s State, r dataset.Record) string {
	if s.Field == "" {
		return s.Default
	}

	var value string
	switch s.Field {
	case "offense":
		value = r.Offense
	case "method":
		value = r.Method
	}

	for _, rule := range s.Rules {
		if rule.Value == value {
			return rule.Color
		}
	}
	return s.Default
}
