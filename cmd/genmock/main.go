// Command genmock writes the synthetic climate grid used by the service and
// its test suites: a samples CSV in the export's column layout and a JSON
// fixture of raw sample records as they arrive on the source topic.
//
// The grid is deterministic. Longitudes are emitted in [0, 360) like the
// upstream export, so consumers exercise longitude normalization.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -csv-out data/grid_temp_decades.csv \
//	  -json-out data/mock/raw_climate_samples.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/couchcryptid/climate-grid-service/internal/domain"
)

const (
	latStep   = 20
	lonStep   = 30
	firstYear = 2000
	lastYear  = 2100
	yearStep  = 20
)

// warming is the per-century temperature increase of each scenario in °C.
var warming = map[domain.Scenario]float64{
	domain.ScenarioLow:    1.0,
	domain.ScenarioMedium: 2.5,
	domain.ScenarioHigh:   4.5,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvOut := flag.String("csv-out", "", "output path for the samples CSV")
	jsonOut := flag.String("json-out", "", "output path for the raw record JSON fixture")
	jsonYear := flag.Int("json-year", lastYear, "year of the grid slice written to the JSON fixture")
	flag.Parse()

	if *csvOut == "" || *jsonOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv-out, -json-out")
	}

	records := grid()
	log.Printf("grid: %d records", len(records))

	if err := writeCSV(*csvOut, records); err != nil {
		return fmt.Errorf("writing samples CSV: %w", err)
	}
	log.Printf("wrote samples CSV: %s", *csvOut)

	slice := make([]domain.RawSampleRecord, 0, len(records))
	for _, rec := range records {
		if rec.Year == strconv.Itoa(*jsonYear) {
			slice = append(slice, rec)
		}
	}
	if len(slice) == 0 {
		return fmt.Errorf("no records for year %d", *jsonYear)
	}
	if err := writeJSON(*jsonOut, slice); err != nil {
		return fmt.Errorf("writing JSON fixture: %w", err)
	}
	log.Printf("wrote JSON fixture: %s (%d records)", *jsonOut, len(slice))

	printStats(slice)
	return nil
}

// grid returns every record ordered by scenario, year, latitude, longitude.
func grid() []domain.RawSampleRecord {
	var out []domain.RawSampleRecord
	for _, s := range domain.Scenarios {
		for year := firstYear; year <= lastYear; year += yearStep {
			for i, lat := 0, -80; lat <= 80; i, lat = i+1, lat+latStep {
				for j, lon := 0, 0; lon < 360; j, lon = j+1, lon+lonStep {
					out = append(out, domain.RawSampleRecord{
						Lat:      strconv.Itoa(lat),
						Lon:      strconv.Itoa(lon),
						Year:     strconv.Itoa(year),
						Temp:     fmt.Sprintf("%.2f", temperature(s, year, lat, i, j)),
						Scenario: string(s),
					})
				}
			}
		}
	}
	return out
}

// temperature cools linearly toward the poles, warms with the scenario over
// time, and adds a small fixed per-cell offset so cells are distinguishable.
func temperature(s domain.Scenario, year, lat, i, j int) float64 {
	return 28 - 0.45*math.Abs(float64(lat)) +
		warming[s]*float64(year-firstYear)/100 +
		float64((i*7+j*3)%5)*0.1
}

func writeCSV(path string, records []domain.RawSampleRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"lat", "lon", "year", "temp", "scenario"}); err != nil {
		return err
	}
	for _, r := range records {
		if err := w.Write([]string{r.Lat, r.Lon, r.Year, r.Temp, r.Scenario}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func printStats(records []domain.RawSampleRecord) {
	counts := map[domain.Region]int{}
	for _, rec := range records {
		s, err := domain.ParseSampleRecord(rec)
		if err != nil {
			log.Printf("warning: %v", err)
			continue
		}
		counts[domain.Classify(s.Lon, s.Lat)]++
	}

	regions := make([]domain.Region, 0, len(counts))
	for r := range counts {
		regions = append(regions, r)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })

	fmt.Println("\n=== Records by region ===")
	for _, r := range regions {
		fmt.Printf("  %-20s %d\n", r, counts[r])
	}
}
