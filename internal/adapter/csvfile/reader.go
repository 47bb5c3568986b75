// Package csvfile loads climate samples from the gridded CSV export
// (columns lat, lon, year, temp, scenario, in any order).
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/climate-grid-service/internal/domain"
)

var requiredColumns = []string{"lat", "lon", "year", "temp", "scenario"}

// Stats summarizes a CSV load.
type Stats struct {
	Rows    int
	Skipped int
}

// LoadSamples opens path and reads every well-formed sample from it.
func LoadSamples(path string, logger *slog.Logger) ([]domain.Sample, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open samples: %w", err)
	}
	defer f.Close()

	samples, stats, err := ReadSamples(f, logger)
	if err != nil {
		return nil, stats, fmt.Errorf("read %s: %w", path, err)
	}
	return samples, stats, nil
}

// ReadSamples parses a header-indexed samples CSV. A missing required column
// fails the whole read; a malformed row is logged and skipped.
func ReadSamples(r io.Reader, logger *slog.Logger) ([]domain.Sample, Stats, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, Stats{}, errors.New("empty file: missing header")
	}
	if err != nil {
		return nil, Stats{}, fmt.Errorf("read header: %w", err)
	}

	idx, err := indexColumns(header)
	if err != nil {
		return nil, Stats{}, err
	}

	var (
		samples []domain.Sample
		stats   Stats
	)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		stats.Rows++
		if err != nil {
			stats.Skipped++
			logger.Warn("skipping unreadable row", "error", err)
			continue
		}
		line, _ := cr.FieldPos(0)

		s, err := domain.ParseSampleRecord(idx.record(row))
		if err != nil {
			stats.Skipped++
			logger.Warn("skipping malformed row", "line", line, "error", err)
			continue
		}
		samples = append(samples, s)
	}

	logger.Info("samples loaded", "rows", stats.Rows, "samples", len(samples), "skipped", stats.Skipped)
	return samples, stats, nil
}

type columnIndex map[string]int

func indexColumns(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func (c columnIndex) record(row []string) domain.RawSampleRecord {
	field := func(name string) string {
		i := c[name]
		if i >= len(row) {
			return ""
		}
		return row[i]
	}
	return domain.RawSampleRecord{
		Lat:      field("lat"),
		Lon:      field("lon"),
		Year:     field("year"),
		Temp:     field("temp"),
		Scenario: field("scenario"),
	}
}
