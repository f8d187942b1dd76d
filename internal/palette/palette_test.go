package palette

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/district-insights/crimemap/internal/dataset"
)

func TestColorFor_Offense(t *testing.T) {
	p := Default()

	c, err := p.ColorFor(ModeOffense, dataset.OffenseSexAbuse)
	require.NoError(t, err)
	assert.Equal(t, Red, c)

	c, err = p.ColorFor(ModeOffense, dataset.OffenseHomicide)
	require.NoError(t, err)
	assert.Equal(t, Blue, c)
}

func TestColorFor_Method(t *testing.T) {
	p := Default()

	tests := []struct {
		category string
		want     any
	}{
		{dataset.MethodGun, Red},
		{dataset.MethodKnife, Blue},
		{dataset.MethodOthers, Green},
	}
	for _, tt := range tests {
		c, err := p.ColorFor(ModeMethod, tt.category)
		require.NoError(t, err)
		assert.Equal(t, tt.want, c)
	}
}

func TestColorFor_AllIgnoresCategory(t *testing.T) {
	p := Default()
	c, err := p.ColorFor(ModeAll, "ANYTHING")
	require.NoError(t, err)
	assert.Equal(t, Red, c)
}

func TestColorFor_UnmappedCategory(t *testing.T) {
	p := Default()
	_, err := p.ColorFor(ModeOffense, "ARSON")
	require.Error(t, err)
	assert.ErrorContains(t, err, "not in by-offense enumeration")
}

func TestColorFor_UnknownMode(t *testing.T) {
	p := Default()
	_, err := p.ColorFor(Mode("by-moon-phase"), "GUN")
	require.Error(t, err)
}

func TestLegendLabels(t *testing.T) {
	p := Default()

	offense := p.Legend(ModeOffense)
	require.Len(t, offense, 2)
	assert.Equal(t, "Sex Abuse", offense[0].Label)
	assert.Equal(t, "Homicide", offense[1].Label)

	method := p.Legend(ModeMethod)
	require.Len(t, method, 3)
	assert.Equal(t, "Gun", method[0].Label)
	assert.Equal(t, "Knife", method[1].Label)
	assert.Equal(t, "Other", method[2].Label)
}

func TestCategoryOf(t *testing.T) {
	r := dataset.Record{Offense: dataset.OffenseHomicide, Method: dataset.MethodKnife}
	assert.Equal(t, dataset.OffenseHomicide, CategoryOf(ModeOffense, r))
	assert.Equal(t, dataset.MethodKnife, CategoryOf(ModeMethod, r))
	assert.Equal(t, "", CategoryOf(ModeAll, r))
}

func TestCSS(t *testing.T) {
	assert.Equal(t, "rgb(255,0,0)", CSS(Red))
	assert.Equal(t, "rgb(0,0,255)", CSS(Blue))
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.yaml")
	yaml := `
by-offense:
  HOMICIDE: "#336699"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	p := Default()
	require.NoError(t, p.LoadOverrides(path))

	c, err := p.ColorFor(ModeOffense, dataset.OffenseHomicide)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x33), c.R)
	assert.Equal(t, uint8(0x66), c.G)
	assert.Equal(t, uint8(0x99), c.B)

	// untouched entries keep their defaults
	c, err = p.ColorFor(ModeOffense, dataset.OffenseSexAbuse)
	require.NoError(t, err)
	assert.Equal(t, Red, c)
}

func TestLoadOverrides_RejectsUnknownCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.yaml")
	require.NoError(t, os.WriteFile(path, []byte("by-weapon:\n  BAT: \"#000000\"\n"), 0644))

	p := Default()
	err := p.LoadOverrides(path)
	require.Error(t, err)
	assert.ErrorContains(t, err, "not in by-weapon enumeration")
}

func TestLoadOverrides_BadHex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.yaml")
	require.NoError(t, os.WriteFile(path, []byte("by-weapon:\n  GUN: \"red\"\n"), 0644))

	p := Default()
	require.Error(t, p.LoadOverrides(path))
}
