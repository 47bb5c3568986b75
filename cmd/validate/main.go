// Command validate performs data integrity checks on a climate samples CSV
// and, optionally, the raw-record JSON fixture derived from it. It verifies
// that every row parses, that the grid is complete for each scenario and
// year, that every region's trend is complete, and that the fixture agrees
// with the CSV.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -csv data/grid_temp_decades.csv \
//	  -json data/mock/raw_climate_samples.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/couchcryptid/climate-grid-service/internal/adapter/csvfile"
	"github.com/couchcryptid/climate-grid-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "path to the samples CSV")
	jsonPath := flag.String("json", "", "optional path to the raw record JSON fixture")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(os.Stdout, *csvPath, *jsonPath))
}

func run(out io.Writer, csvPath, jsonPath string) int {
	fmt.Fprintln(out, "=== Climate Grid Integrity Validation ===")
	fmt.Fprintln(out)

	// Row-level problems are reported by the parse phase, not logged.
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: open samples CSV: %v\n", err)
		return 1
	}
	samples, stats, err := csvfile.ReadSamples(f, quiet)
	f.Close()
	if err != nil {
		fmt.Fprintf(out, "FATAL: read samples CSV: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateParse(stats),
		validateGrid(samples),
		validateTrends(samples),
	}

	var fixture []domain.RawSampleRecord
	if jsonPath != "" {
		fixture, err = loadJSON[domain.RawSampleRecord](jsonPath)
		if err != nil {
			fmt.Fprintf(out, "FATAL: load JSON fixture: %v\n", err)
			return 1
		}
		phases = append(phases, validateFixture(fixture, samples))
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d CSV rows, %d samples, %d JSON fixture\n", stats.Rows, len(samples), len(fixture))
	printRegionCounts(out, samples)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 1: Parse ──

func validateParse(stats csvfile.Stats) *phase {
	p := &phase{name: "Phase 1: Parse (every row well-formed)"}
	if stats.Rows == 0 {
		p.errorf("no data rows")
	}
	if stats.Skipped > 0 {
		p.errorf("%d of %d rows are malformed", stats.Skipped, stats.Rows)
	}
	return p
}

// ── Phase 2: Grid completeness ──
// Every (scenario, year) slice must cover the same set of cells exactly once.

type cell struct{ lon, lat float64 }

type sliceKey struct {
	scenario domain.Scenario
	year     int
}

func validateGrid(samples []domain.Sample) *phase {
	p := &phase{name: "Phase 2: Grid (complete scenario x year slices)"}
	if len(samples) == 0 {
		p.errorf("no samples")
		return p
	}

	allCells := map[cell]bool{}
	slices := map[sliceKey]map[cell]int{}
	for _, s := range samples {
		c := cell{lon: s.Lon, lat: s.Lat}
		allCells[c] = true
		k := sliceKey{scenario: s.Scenario, year: s.Year}
		if slices[k] == nil {
			slices[k] = map[cell]int{}
		}
		slices[k][c]++
	}

	ds := domain.NewDataset(samples)
	for _, sc := range ds.Scenarios() {
		for _, y := range ds.Years() {
			cells := slices[sliceKey{scenario: sc, year: y}]
			if len(cells) == 0 {
				p.errorf("%s %d: slice missing", sc, y)
				continue
			}
			if len(cells) != len(allCells) {
				p.errorf("%s %d: %d of %d cells present", sc, y, len(cells), len(allCells))
			}
			for c, n := range cells {
				if n > 1 {
					p.errorf("%s %d: cell (%g, %g) appears %d times", sc, y, c.lon, c.lat, n)
				}
			}
		}
	}
	return p
}

// ── Phase 3: Trend completeness ──
// Each populated region needs one point per scenario and year, each series
// strictly ascending by year.

func validateTrends(samples []domain.Sample) *phase {
	p := &phase{name: "Phase 3: Trends (one point per scenario x year)"}

	ds := domain.NewDataset(samples)
	want := len(ds.Years()) * len(ds.Scenarios())

	for _, r := range domain.Regions {
		points := ds.Trend(r)
		if len(points) == 0 {
			continue
		}
		if len(points) != want {
			p.errorf("%s: %d trend points, expected %d", r, len(points), want)
		}
		for sc, series := range domain.SeriesByScenario(points) {
			for i := 1; i < len(series); i++ {
				if series[i].Year <= series[i-1].Year {
					p.errorf("%s %s: years not ascending at %d", r, sc, series[i].Year)
				}
			}
		}
	}
	return p
}

// ── Phase 4: Fixture consistency ──

func validateFixture(fixture []domain.RawSampleRecord, samples []domain.Sample) *phase {
	p := &phase{name: "Phase 4: Fixture (JSON records found in CSV)"}
	if len(fixture) == 0 {
		p.errorf("fixture is empty")
		return p
	}

	index := make(map[domain.Sample]bool, len(samples))
	for _, s := range samples {
		index[s] = true
	}

	for i, rec := range fixture {
		s, err := domain.ParseSampleRecord(rec)
		if err != nil {
			p.errorf("record %d: %v", i, err)
			continue
		}
		if !index[s] {
			p.errorf("record %d: %+v not found in CSV", i, s)
		}
	}
	return p
}

func printRegionCounts(out io.Writer, samples []domain.Sample) {
	counts := map[domain.Region]int{}
	for _, s := range samples {
		counts[domain.Classify(s.Lon, s.Lat)]++
	}
	regions := make([]domain.Region, 0, len(counts))
	for r := range counts {
		regions = append(regions, r)
	}
	sort.Slice(regions, func(i, j int) bool { return counts[regions[i]] > counts[regions[j]] })

	fmt.Fprintln(out, "Samples by region:")
	for _, r := range regions {
		fmt.Fprintf(out, "  %-20s %d\n", r, counts[r])
	}
}
