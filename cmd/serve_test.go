package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/district-insights/crimemap/internal/basemap"
	"github.com/district-insights/crimemap/internal/dataset"
	"github.com/district-insights/crimemap/internal/store"
)

func newServeFixture(t *testing.T) (http.Handler, store.Store, string) {
	t.Helper()

	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 1, 1))))
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(upstream.Close)

	tiles, err := basemap.NewHTTPTileSource(basemap.HTTPTileSourceOptions{
		URLTemplate: upstream.URL + "/{z}/{x}/{y}.png",
	})
	require.NoError(t, err)

	outDir := t.TempDir()
	return newRouter(s, tiles, outDir), s, outDir
}

func TestServeHealth(t *testing.T) {
	router, _, _ := newServeFixture(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestServeRecords(t *testing.T) {
	router, s, _ := newServeFixture(t)

	_, err := s.ReplaceRecords(context.Background(), "crime.csv", []dataset.Record{
		{Latitude: 38.90, Longitude: -77.01, Offense: dataset.OffenseHomicide, Method: dataset.MethodGun, StartDate: "2017-01-04 10:00"},
	}, 0)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/records", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var records []dataset.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, dataset.OffenseHomicide, records[0].Offense)
}

func TestServeStats(t *testing.T) {
	router, _, _ := newServeFixture(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var stats store.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Zero(t, stats.Records)
}

func TestServeTileProxy(t *testing.T) {
	router, _, _ := newServeFixture(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tiles/11/586/783.png", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	_, err := png.Decode(rec.Body)
	assert.NoError(t, err)
}

func TestServeTileProxy_BadPath(t *testing.T) {
	router, _, _ := newServeFixture(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tiles/a/b/c.png", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeArtifacts(t *testing.T) {
	router, _, outDir := newServeFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "crimemap.html"), []byte("<!DOCTYPE html>"), 0644))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/crimemap.html", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<!DOCTYPE html>")
}
