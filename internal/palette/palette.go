// Package palette maps categorical crime attributes to display colors.
//
// Every mode carries an explicit, exhaustive category enumeration. Looking
// up a category outside the enumeration is an error, never a silent
// default, so a dataset with an unexpected offense or weapon value fails
// before anything is drawn.
package palette

import (
	"fmt"
	"image/color"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/district-insights/crimemap/internal/dataset"
)

// Mode names a color-coding scheme.
type Mode string

const (
	// ModeAll colors every record uniformly.
	ModeAll Mode = "all"
	// ModeOffense colors by offense category.
	ModeOffense Mode = "by-offense"
	// ModeMethod colors by weapon method.
	ModeMethod Mode = "by-weapon"
)

// Canonical display colors.
var (
	Red   = color.NRGBA{R: 255, A: 255}
	Blue  = color.NRGBA{B: 255, A: 255}
	Green = color.NRGBA{G: 255, A: 255}
)

// Entry is one legend row: a category, its display label, and its color.
type Entry struct {
	Category string
	Label    string
	Color    color.NRGBA
}

// Palette holds the category color enumeration for each mode.
type Palette struct {
	modes map[Mode][]Entry
}

var titleCaser = cases.Title(language.AmericanEnglish)

func label(category string) string {
	return titleCaser.String(strings.ToLower(category))
}

// Default returns the standard palette: sex abuse and gun red, homicide and
// knife blue, other weapons green.
func Default() *Palette {
	return &Palette{modes: map[Mode][]Entry{
		ModeAll: {
			{Category: "", Label: "Crime", Color: Red},
		},
		ModeOffense: {
			{Category: dataset.OffenseSexAbuse, Label: label(dataset.OffenseSexAbuse), Color: Red},
			{Category: dataset.OffenseHomicide, Label: label(dataset.OffenseHomicide), Color: Blue},
		},
		ModeMethod: {
			{Category: dataset.MethodGun, Label: label(dataset.MethodGun), Color: Red},
			{Category: dataset.MethodKnife, Label: label(dataset.MethodKnife), Color: Blue},
			{Category: dataset.MethodOthers, Label: "Other", Color: Green},
		},
	}}
}

// ColorFor resolves the display color of a category under the given mode.
// ModeAll ignores the category. Any other mode requires the category to be
// in the enumeration.
func (p *Palette) ColorFor(mode Mode, category string) (color.NRGBA, error) {
	entries, ok := p.modes[mode]
	if !ok {
		return color.NRGBA{}, eris.Errorf("palette: unknown mode %q", mode)
	}
	if mode == ModeAll {
		return entries[0].Color, nil
	}
	for _, e := range entries {
		if e.Category == category {
			return e.Color, nil
		}
	}
	return color.NRGBA{}, eris.Errorf("palette: category %q not in %s enumeration", category, mode)
}

// Legend returns the ordered legend entries for a mode.
func (p *Palette) Legend(mode Mode) []Entry {
	return p.modes[mode]
}

// CategoryOf extracts the attribute a mode colors by from a record.
func CategoryOf(mode Mode, r dataset.Record) string {
	switch mode {
	case ModeOffense:
		return r.Offense
	case ModeMethod:
		return r.Method
	default:
		return ""
	}
}

// CSS renders a color as an rgb() string for the interactive document.
func CSS(c color.NRGBA) string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// overrideFile is the YAML shape of a palette override: mode name to
// category to hex color. Overrides may recolor existing categories only;
// they never extend the enumeration.
type overrideFile map[string]map[string]string

// LoadOverrides applies color overrides from a YAML file to the palette.
func (p *Palette) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "palette: read overrides %s", path)
	}

	var of overrideFile
	if err := yaml.Unmarshal(data, &of); err != nil {
		return eris.Wrap(err, "palette: parse overrides")
	}

	for modeName, cats := range of {
		mode := Mode(modeName)
		entries, ok := p.modes[mode]
		if !ok {
			return eris.Errorf("palette: override for unknown mode %q", modeName)
		}
		for category, hex := range cats {
			c, err := parseHex(hex)
			if err != nil {
				return eris.Wrapf(err, "palette: override %s/%s", modeName, category)
			}
			found := false
			for i := range entries {
				if entries[i].Category == category {
					entries[i].Color = c
					found = true
					break
				}
			}
			if !found {
				return eris.Errorf("palette: override for category %q not in %s enumeration", category, modeName)
			}
		}
	}
	return nil
}

func parseHex(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.NRGBA{}, eris.Errorf("expected #rrggbb, got %q", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.NRGBA{}, eris.Wrapf(err, "parse hex %q", s)
	}
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}
