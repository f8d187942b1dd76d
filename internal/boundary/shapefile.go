// Package boundary loads overlay geometries (ward or district outlines)
// from shapefiles for the static renderers.
package boundary

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// LoadShapefile reads line and polygon shapes from a shapefile and returns
// them as geometries in lon/lat order. Point shapes and malformed parts are
// skipped.
func LoadShapefile(path string) ([]geom.T, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "boundary: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	var geoms []geom.T
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		switch s := shape.(type) {
		case *shp.PolyLine:
			if g := polyLineToMultiLineString(s); g != nil {
				geoms = append(geoms, g)
			} else {
				skipped++
			}
		case *shp.Polygon:
			// Shapefile polygons share the PolyLine part layout.
			if g := polygonToGeom((*shp.PolyLine)(s)); g != nil {
				geoms = append(geoms, g)
			} else {
				skipped++
			}
		default:
			skipped++
		}
	}

	if skipped > 0 {
		zap.L().Debug("boundary: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	if len(geoms) == 0 {
		return nil, eris.Errorf("boundary: no usable shapes in %s", path)
	}
	return geoms, nil
}

func polyLineToMultiLineString(pl *shp.PolyLine) geom.T {
	parts := partCoords(pl)
	if len(parts) == 0 {
		return nil
	}

	mls := geom.NewMultiLineString(geom.XY)
	for _, coords := range parts {
		ls := geom.NewLineStringFlat(geom.XY, flatten(coords))
		if err := mls.Push(ls); err != nil {
			zap.L().Debug("boundary: skipping malformed linestring part", zap.Error(err))
		}
	}
	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}

func polygonToGeom(pl *shp.PolyLine) geom.T {
	parts := partCoords(pl)
	if len(parts) == 0 {
		return nil
	}

	poly := geom.NewPolygon(geom.XY)
	for _, coords := range parts {
		if len(coords) < 4 {
			continue // a ring needs at least four coordinates
		}
		ring := geom.NewLinearRingFlat(geom.XY, flatten(coords))
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("boundary: skipping malformed ring", zap.Error(err))
		}
	}
	if poly.NumLinearRings() == 0 {
		return nil
	}
	return poly
}

// partCoords splits a shapefile part table into per-part coordinate runs.
func partCoords(pl *shp.PolyLine) [][]geom.Coord {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil
	}

	out := make([][]geom.Coord, 0, pl.NumParts)
	for i := int32(0); i < pl.NumParts; i++ {
		start := pl.Parts[i]
		end := int32(len(pl.Points))
		if i+1 < pl.NumParts {
			end = pl.Parts[i+1]
		}

		coords := make([]geom.Coord, 0, end-start)
		for j := start; j < end; j++ {
			coords = append(coords, geom.Coord{pl.Points[j].X, pl.Points[j].Y})
		}
		if len(coords) >= 2 {
			out = append(out, coords)
		}
	}
	return out
}

func flatten(coords []geom.Coord) []float64 {
	flat := make([]float64, 0, len(coords)*2)
	for _, c := range coords {
		flat = append(flat, c[0], c[1])
	}
	return flat
}
