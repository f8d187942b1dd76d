// Package interactive builds the self-contained browser map document with
// per-record markers, hover tooltips, and a selector that recolors markers
// by offense or weapon.
package interactive

import (
	"encoding/json"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/district-insights/crimemap/internal/config"
	"github.com/district-insights/crimemap/internal/dataset"
	"github.com/district-insights/crimemap/internal/palette"
)

// FileName is the fixed output document name.
const FileName = "crimemap.html"

// Interactive renders the browser map document.
type Interactive struct {
	Cfg     config.InteractiveConfig
	Palette *palette.Palette
	OutDir  string
}

type templateData struct {
	Title       string
	TileURL     string
	Attribution string
	CenterLat   float64
	CenterLon   float64
	Zoom        int
	RecordsJSON template.JS
	StatesJSON  template.JS
}

// Render writes the document into OutDir and returns its path.
//
// The tile URL has {key} replaced with the configured API credential. An
// empty credential is passed through unvalidated: markers stay addressable
// while tiles load blank, matching the provider's behavior.
func (i *Interactive) Render(records []dataset.Record) (string, error) {
	if err := os.MkdirAll(i.OutDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "interactive: create output dir %s", i.OutDir)
	}

	path := filepath.Join(i.OutDir, FileName)
	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrapf(err, "interactive: create %s", path)
	}
	defer f.Close()

	if err := i.write(f, records); err != nil {
		return "", err
	}

	zap.L().Info("interactive map written",
		zap.String("path", path),
		zap.Int("records", len(records)),
	)
	return path, nil
}

func (i *Interactive) write(w io.Writer, records []dataset.Record) error {
	recordsJSON, err := json.Marshal(records)
	if err != nil {
		return eris.Wrap(err, "interactive: marshal records")
	}
	statesJSON, err := json.Marshal(States(i.Palette))
	if err != nil {
		return eris.Wrap(err, "interactive: marshal states")
	}

	data := templateData{
		Title:       "Crimes in Washington DC",
		TileURL:     strings.ReplaceAll(i.Cfg.TileURL, "{key}", i.Cfg.APIKey),
		Attribution: i.Cfg.Attribution,
		CenterLat:   i.Cfg.CenterLat,
		CenterLon:   i.Cfg.CenterLon,
		Zoom:        i.Cfg.Zoom,
		RecordsJSON: template.JS(recordsJSON),
		StatesJSON:  template.JS(statesJSON),
	}

	if err := docTemplate.Execute(w, data); err != nil {
		return eris.Wrap(err, "interactive: execute template")
	}
	return nil
}

var docTemplate = template.Must(template.New("doc").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
  body { margin: 0; font-family: sans-serif; }
  #map { height: 92vh; }
  #controls { padding: 8px; }
  #controls label { margin-right: 12px; }
  h3 { margin: 6px 8px; }
</style>
</head>
<body>
<h3>Scatter plot of crimes in DC</h3>
<div id="controls"></div>
<div id="map"></div>
<script>
var records = {{.RecordsJSON}};
var states = {{.StatesJSON}};

var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLon}}], {{.Zoom}});
L.tileLayer('{{.TileURL}}', {attribution: '{{.Attribution}}'}).addTo(map);

function colorFor(state, rec) {
  if (!state.field) {
    return state['default'];
  }
  var value = state.field === 'offense' ? rec.offense : rec.method;
  for (var i = 0; i < state.rules.length; i++) {
    if (state.rules[i].value === value) {
      return state.rules[i].color;
    }
  }
  return state['default'];
}

var markers = records.map(function (rec) {
  var m = L.circleMarker([rec.lat, rec.lon], {
    radius: 5,
    stroke: false,
    fillColor: colorFor(states[0], rec),
    fillOpacity: 0.5
  }).addTo(map);
  m.bindTooltip(
    'Weapon: ' + rec.method + '<br>' +
    'Offense: ' + rec.offense + '<br>' +
    'Date: ' + rec.start_date,
    {sticky: true}
  );
  return m;
});

function applyState(idx) {
  var state = states[idx];
  for (var i = 0; i < markers.length; i++) {
    markers[i].setStyle({fillColor: colorFor(state, records[i])});
  }
}

var controls = document.getElementById('controls');
states.forEach(function (state, idx) {
  var label = document.createElement('label');
  var radio = document.createElement('input');
  radio.type = 'radio';
  radio.name = 'state';
  radio.checked = idx === 0;
  radio.addEventListener('change', function () { applyState(idx); });
  label.appendChild(radio);
  label.appendChild(document.createTextNode(' ' + state.label));
  controls.appendChild(label);
});
</script>
</body>
</html>
`))
