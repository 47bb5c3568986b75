package domain

import (
	"math"
	"sort"
)

// Dataset is the full sample collection, loaded once and never mutated.
// Derived lookups are computed at construction so concurrent readers need no
// locking.
type Dataset struct {
	samples   []Sample
	years     []int
	scenarios []Scenario
	minTemp   float64
	maxTemp   float64
}

// NewDataset takes ownership of samples; callers must not modify the slice
// afterwards.
func NewDataset(samples []Sample) *Dataset {
	d := &Dataset{
		samples: samples,
		minTemp: math.NaN(),
		maxTemp: math.NaN(),
	}

	yearSet := make(map[int]struct{})
	scenarioSet := make(map[Scenario]struct{})
	for i, s := range samples {
		yearSet[s.Year] = struct{}{}
		scenarioSet[s.Scenario] = struct{}{}
		if i == 0 || s.Temperature < d.minTemp {
			d.minTemp = s.Temperature
		}
		if i == 0 || s.Temperature > d.maxTemp {
			d.maxTemp = s.Temperature
		}
	}

	d.years = make([]int, 0, len(yearSet))
	for y := range yearSet {
		d.years = append(d.years, y)
	}
	sort.Ints(d.years)

	for _, sc := range Scenarios {
		if _, ok := scenarioSet[sc]; ok {
			d.scenarios = append(d.scenarios, sc)
		}
	}
	return d
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.samples) }

// Samples returns the backing slice. Treat it as read-only.
func (d *Dataset) Samples() []Sample { return d.samples }

// Years returns the distinct sample years, ascending.
func (d *Dataset) Years() []int { return d.years }

// Scenarios returns the scenarios present in the data, in display order.
func (d *Dataset) Scenarios() []Scenario { return d.scenarios }

// Extent returns the minimum and maximum temperature. ok is false for an
// empty dataset.
func (d *Dataset) Extent() (lo, hi float64, ok bool) {
	if len(d.samples) == 0 {
		return 0, 0, false
	}
	return d.minTemp, d.maxTemp, true
}

// HasYear reports whether any sample carries the given year.
func (d *Dataset) HasYear(year int) bool {
	i := sort.SearchInts(d.years, year)
	return i < len(d.years) && d.years[i] == year
}

// Grid returns the samples drawn on the map for one scenario and year.
func (d *Dataset) Grid(scenario Scenario, year int) []Sample {
	var out []Sample
	for _, s := range d.samples {
		if s.Scenario == scenario && s.Year == year {
			out = append(out, s)
		}
	}
	return out
}

// Trend aggregates the dataset for region and sorts the result.
func (d *Dataset) Trend(region Region) []TrendPoint {
	points := Aggregate(d.samples, region)
	SortTrend(points)
	return points
}

// LegendStops returns n temperatures evenly spaced from hi down to lo, the
// stop values of the map's colour legend. n below 2 yields just hi.
func LegendStops(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{hi}
	}
	stops := make([]float64, n)
	for i := range stops {
		t := float64(i) / float64(n-1)
		stops[i] = hi - t*(hi-lo)
	}
	return stops
}
