package interactive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/district-insights/crimemap/internal/dataset"
	"github.com/district-insights/crimemap/internal/palette"
)

func TestStates_ThreeNamedStates(t *testing.T) {
	states := States(palette.Default())
	require.Len(t, states, 3)
	assert.Equal(t, "all", states[0].Name)
	assert.Equal(t, "by-offense", states[1].Name)
	assert.Equal(t, "by-weapon", states[2].Name)

	assert.Equal(t, "All", states[0].Label)
	assert.Equal(t, "Offense (sex abuse [red], homicide [blue])", states[1].Label)
	assert.Equal(t, "Weapon (gun [red], knife [blue], other [green])", states[2].Label)
}

func TestColorFor_AllUniform(t *testing.T) {
	states := States(palette.Default())
	records := []dataset.Record{
		{Offense: dataset.OffenseSexAbuse, Method: dataset.MethodGun},
		{Offense: dataset.OffenseHomicide, Method: dataset.MethodKnife},
		{Offense: dataset.OffenseHomicide, Method: dataset.MethodOthers},
	}
	for _, r := range records {
		assert.Equal(t, "rgb(255,0,0)", ColorFor(states[0], r))
	}
}

// The by-offense state must recolor exactly like the static offense rule.
func TestColorFor_ByOffenseMatchesStaticRule(t *testing.T) {
	pal := palette.Default()
	state := States(pal)[1]

	for _, offense := range []string{dataset.OffenseSexAbuse, dataset.OffenseHomicide} {
		r := dataset.Record{Offense: offense}
		want, err := pal.ColorFor(palette.ModeOffense, offense)
		require.NoError(t, err)
		assert.Equal(t, palette.CSS(want), ColorFor(state, r))
	}
}

// The by-weapon state must recolor exactly like the static method rule.
func TestColorFor_ByWeaponMatchesStaticRule(t *testing.T) {
	pal := palette.Default()
	state := States(pal)[2]

	for _, method := range []string{dataset.MethodGun, dataset.MethodKnife, dataset.MethodOthers} {
		r := dataset.Record{Method: method}
		want, err := pal.ColorFor(palette.ModeMethod, method)
		require.NoError(t, err)
		assert.Equal(t, palette.CSS(want), ColorFor(state, r))
	}
}

func TestColorFor_UnlistedValueFallsBack(t *testing.T) {
	states := States(palette.Default())
	r := dataset.Record{Offense: "ARSON", Method: "BAT"}
	assert.Equal(t, "rgb(0,0,255)", ColorFor(states[1], r))
	assert.Equal(t, "rgb(0,255,0)", ColorFor(states[2], r))
}
