package dataset

import (
	"context"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/district-insights/crimemap/internal/config"
	"github.com/district-insights/crimemap/internal/fetcher"
)

// Column names required in the source table.
const (
	colLat       = "lat"
	colLon       = "long"
	colOffense   = "OFFENSE"
	colMethod    = "METHOD"
	colStartDate = "START_DATE"
)

// Load reads the dataset named by cfg.Source (CSV or XLSX; local path or
// http/ftp URL), parses it into records, and applies outlier handling.
//
// By default rows at the configured zero-based data-row indices are removed
// after load, preserving the published subset's cleaning step. When
// cfg.BBoxFilter is set, a coordinate-range filter replaces positional
// dropping. The second return value is the number of rows the cleaning
// step removed.
func Load(ctx context.Context, cfg config.DatasetConfig) ([]Record, int, error) {
	var header []string
	var rows [][]string
	var err error

	if fetcher.IsXLSX(cfg.Source) {
		header, rows, err = loadXLSX(ctx, cfg)
	} else {
		header, rows, err = loadCSV(ctx, cfg.Source)
	}
	if err != nil {
		return nil, 0, err
	}

	records, err := parseRows(header, rows)
	if err != nil {
		return nil, 0, err
	}

	total := len(records)
	if len(cfg.BBoxFilter) == 4 {
		records = filterBBox(records, cfg.BBoxFilter)
	} else {
		records, err = dropRows(records, cfg.DropRows)
		if err != nil {
			return nil, 0, err
		}
	}

	zap.L().Info("dataset loaded",
		zap.String("source", cfg.Source),
		zap.Int("rows", total),
		zap.Int("kept", len(records)),
	)
	return records, total - len(records), nil
}

func loadCSV(ctx context.Context, source string) ([]string, [][]string, error) {
	rc, err := fetcher.Open(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, rc, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return nil, nil, err
		}
	}

	select {
	case header := <-headerCh:
		return header, rows, nil
	default:
		return nil, nil, eris.Errorf("dataset: %s is empty", source)
	}
}

func loadXLSX(ctx context.Context, cfg config.DatasetConfig) ([]string, [][]string, error) {
	path, err := fetcher.Localize(ctx, cfg.Source, os.TempDir())
	if err != nil {
		return nil, nil, err
	}

	all, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{SheetName: cfg.Sheet})
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, eris.Errorf("dataset: %s is empty", cfg.Source)
	}
	return all[0], all[1:], nil
}

// parseRows maps named columns onto Record fields. A missing required
// column or an unparseable coordinate is an error.
func parseRows(header []string, rows [][]string) ([]Record, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, col := range []string{colLat, colLon, colOffense, colMethod, colStartDate} {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("dataset: missing columns: %s", strings.Join(missing, ", "))
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		cell := func(col string) string {
			j := idx[col]
			if j >= len(row) {
				return ""
			}
			return row[j]
		}

		lat, err := strconv.ParseFloat(cell(colLat), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: row %d: parse %s", i, colLat)
		}
		lon, err := strconv.ParseFloat(cell(colLon), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: row %d: parse %s", i, colLon)
		}

		records = append(records, Record{
			Latitude:  lat,
			Longitude: lon,
			Offense:   cell(colOffense),
			Method:    cell(colMethod),
			StartDate: cell(colStartDate),
		})
	}
	return records, nil
}

// dropRows removes records at the given zero-based positions. Indices are
// interpreted against the freshly loaded table, so order of the drop list
// does not matter.
func dropRows(records []Record, drop []int) ([]Record, error) {
	if len(drop) == 0 {
		return records, nil
	}

	sorted := slices.Clone(drop)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	if sorted[0] < 0 || sorted[len(sorted)-1] >= len(records) {
		return nil, eris.Errorf("dataset: drop index out of range (rows=%d, drop=%v)", len(records), drop)
	}

	out := make([]Record, 0, len(records)-len(sorted))
	next := 0
	for i, r := range records {
		if next < len(sorted) && i == sorted[next] {
			next++
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// filterBBox keeps records whose coordinates fall inside
// [minLon, minLat, maxLon, maxLat].
func filterBBox(records []Record, bbox []float64) []Record {
	minLon, minLat, maxLon, maxLat := bbox[0], bbox[1], bbox[2], bbox[3]
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Longitude < minLon || r.Longitude > maxLon || r.Latitude < minLat || r.Latitude > maxLat {
			continue
		}
		out = append(out, r)
	}
	return out
}
