package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"presscount/internal/domain"
	"presscount/internal/util"
)

// Compile-time interface check.
var _ SeriesStore = (*ParquetStore)(nil)

// ParquetStore implements SeriesStore using Parquet files on disk.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// SeriesRecord is the Parquet schema for one day of one filled series.
type SeriesRecord struct {
	Series   string  `parquet:"series"`
	Day      int64   `parquet:"day,timestamp(millisecond)"` // Unix ms, UTC midnight
	Value    float64 `parquet:"value"`
	Observed bool    `parquet:"observed"`
}

// ---------------------------------------------------------------------------
// SeriesStore implementation
// ---------------------------------------------------------------------------

// WriteSeries writes all series to a single snapshot file at:
//
//	<DataDir>/series/<YYYY-MM-DD>.parquet
//
// where the date is the latest day across the series. Rows already in the
// file for the same (series, day) are replaced. It returns the file path.
func (s *ParquetStore) WriteSeries(_ context.Context, series []domain.DailySeries) (string, error) {
	var last time.Time
	var records []SeriesRecord
	for _, ds := range series {
		for _, p := range ds.Points {
			if p.Day.After(last) {
				last = p.Day
			}
			records = append(records, SeriesRecord{
				Series:   ds.Name,
				Day:      p.Day.UnixMilli(),
				Value:    p.Value,
				Observed: p.Observed,
			})
		}
	}
	if len(records) == 0 {
		return "", fmt.Errorf("no points to write")
	}

	path := s.seriesPath(last)
	var existing []SeriesRecord
	if _, err := os.Stat(path); err == nil {
		existing, err = readParquetFile[SeriesRecord](path)
		if err != nil {
			return "", fmt.Errorf("reading existing snapshot %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	merged := mergeSeriesRecords(existing, records)

	if err := writeParquetFile(path, merged); err != nil {
		return "", fmt.Errorf("writing series snapshot %s: %w", path, err)
	}
	return path, nil
}

// ReadSeries reads back the snapshot ending on lastDay. Series keep the order
// in which their names first appear in the file.
func (s *ParquetStore) ReadSeries(_ context.Context, lastDay time.Time) ([]domain.DailySeries, error) {
	path := s.seriesPath(lastDay)
	records, err := readParquetFile[SeriesRecord](path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return recordsToSeries(records), nil
}

// ReadSeriesFile reads a snapshot from an explicit path.
func ReadSeriesFile(path string) ([]domain.DailySeries, error) {
	records, err := readParquetFile[SeriesRecord](path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return recordsToSeries(records), nil
}

// ListSnapshots lists the last days of stored snapshots in ascending order.
func (s *ParquetStore) ListSnapshots(_ context.Context) ([]time.Time, error) {
	dir := filepath.Join(s.DataDir, "series")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var days []time.Time
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".parquet") {
			continue
		}
		d, err := time.Parse(util.DateLayout, strings.TrimSuffix(e.Name(), ".parquet"))
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

// seriesPath returns the filesystem path for a snapshot file.
// Layout: <dataDir>/series/<YYYY-MM-DD>.parquet
func (s *ParquetStore) seriesPath(lastDay time.Time) string {
	return filepath.Join(s.DataDir, "series", lastDay.UTC().Format(util.DateLayout)+".parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeSeriesRecords deduplicates records by (series, day), preferring
// incoming records over existing ones. Series order follows first
// appearance in incoming, then existing; rows within a series are sorted by
// day.
func mergeSeriesRecords(existing, incoming []SeriesRecord) []SeriesRecord {
	type key struct {
		series string
		day    int64
	}
	seen := make(map[key]SeriesRecord, len(existing)+len(incoming))
	order := make(map[string]int)
	note := func(r SeriesRecord) {
		if _, ok := order[r.Series]; !ok {
			order[r.Series] = len(order)
		}
	}
	for _, r := range incoming {
		note(r)
	}
	for _, r := range existing {
		note(r)
		seen[key{r.Series, r.Day}] = r
	}
	for _, r := range incoming {
		seen[key{r.Series, r.Day}] = r
	}

	merged := make([]SeriesRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		oi, oj := order[merged[i].Series], order[merged[j].Series]
		if oi != oj {
			return oi < oj
		}
		return merged[i].Day < merged[j].Day
	})
	return merged
}

func recordsToSeries(records []SeriesRecord) []domain.DailySeries {
	var out []domain.DailySeries
	index := make(map[string]int)
	for _, r := range records {
		i, ok := index[r.Series]
		if !ok {
			i = len(out)
			index[r.Series] = i
			out = append(out, domain.DailySeries{Name: r.Series})
		}
		out[i].Points = append(out[i].Points, domain.Point{
			Day:      time.UnixMilli(r.Day).UTC(),
			Value:    r.Value,
			Observed: r.Observed,
		})
	}
	return out
}
