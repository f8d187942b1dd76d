package interactive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/district-insights/crimemap/internal/config"
	"github.com/district-insights/crimemap/internal/dataset"
	"github.com/district-insights/crimemap/internal/palette"
)

func testInteractive(dir string) *Interactive {
	return &Interactive{
		Cfg: config.InteractiveConfig{
			TileURL:     "https://tiles.example/{z}/{x}/{y}.png?key={key}",
			APIKey:      "secret-key",
			CenterLat:   38.89511,
			CenterLon:   -77.03637,
			Zoom:        11,
			Attribution: "test tiles",
		},
		Palette: palette.Default(),
		OutDir:  dir,
	}
}

var mapRecords = []dataset.Record{
	{Latitude: 38.90, Longitude: -77.01, Offense: dataset.OffenseHomicide, Method: dataset.MethodGun, StartDate: "2017-01-04 10:00"},
	{Latitude: 38.91, Longitude: -77.02, Offense: dataset.OffenseSexAbuse, Method: dataset.MethodOthers, StartDate: "2017-02-11 22:15"},
}

func TestRender_WritesDocument(t *testing.T) {
	dir := t.TempDir()
	i := testInteractive(dir)

	path, err := i.Render(mapRecords)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := string(data)

	assert.Contains(t, doc, "Crimes in Washington DC")
	assert.Contains(t, doc, "38.89511")
	assert.Contains(t, doc, "-77.03637")
	// API key substituted into the tile URL, XYZ placeholders untouched.
	assert.Contains(t, doc, "key=secret-key")
	assert.Contains(t, doc, "{z}/{x}/{y}")
	// Record attributes embedded for tooltips and recoloring.
	assert.Contains(t, doc, dataset.OffenseSexAbuse)
	assert.Contains(t, doc, "2017-01-04 10:00")
	// All three selector states serialized.
	assert.Contains(t, doc, "by-offense")
	assert.Contains(t, doc, "by-weapon")
}

func TestRender_EmptyAPIKeyNotValidated(t *testing.T) {
	i := testInteractive(t.TempDir())
	i.Cfg.APIKey = ""

	path, err := i.Render(mapRecords)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), ".png?key='") // blank credential passes through
}

func TestRender_NoRecordsStillRenders(t *testing.T) {
	i := testInteractive(t.TempDir())
	_, err := i.Render(nil)
	require.NoError(t, err)
}

func TestWrite_ValidStructure(t *testing.T) {
	i := testInteractive(t.TempDir())
	var buf bytes.Buffer
	require.NoError(t, i.write(&buf, mapRecords))
	doc := buf.String()
	assert.Contains(t, doc, "<!DOCTYPE html>")
	assert.Contains(t, doc, "L.circleMarker")
	assert.Contains(t, doc, "colorFor")
}
