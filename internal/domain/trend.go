package domain

import "sort"

// TrendPoint is the mean temperature of one (year, scenario) group.
type TrendPoint struct {
	Year            int      `json:"year"`
	Scenario        Scenario `json:"scenario"`
	MeanTemperature float64  `json:"mean_temperature"`
}

type trendKey struct {
	year     int
	scenario Scenario
}

type trendSum struct {
	total float64
	count int
}

// Aggregate averages the temperature of every sample classified into region,
// grouped by (year, scenario). Points come back in first-seen group order;
// apply SortTrend before charting.
func Aggregate(samples []Sample, region Region) []TrendPoint {
	sums := make(map[trendKey]*trendSum)
	var order []trendKey

	for _, s := range samples {
		if Classify(s.Lon, s.Lat) != region {
			continue
		}
		k := trendKey{year: s.Year, scenario: s.Scenario}
		sum, ok := sums[k]
		if !ok {
			sum = &trendSum{}
			sums[k] = sum
			order = append(order, k)
		}
		sum.total += s.Temperature
		sum.count++
	}

	points := make([]TrendPoint, 0, len(order))
	for _, k := range order {
		sum := sums[k]
		points = append(points, TrendPoint{
			Year:            k.year,
			Scenario:        k.scenario,
			MeanTemperature: sum.total / float64(sum.count),
		})
	}
	return points
}

// SortTrend orders points by scenario (Low, Medium, High) and then by year
// ascending, in place.
func SortTrend(points []TrendPoint) {
	sort.SliceStable(points, func(i, j int) bool {
		ri, rj := points[i].Scenario.rank(), points[j].Scenario.rank()
		if ri != rj {
			return ri < rj
		}
		return points[i].Year < points[j].Year
	})
}

// SeriesByScenario splits points into one year-ascending series per scenario.
// The input slice is not modified.
func SeriesByScenario(points []TrendPoint) map[Scenario][]TrendPoint {
	sorted := make([]TrendPoint, len(points))
	copy(sorted, points)
	SortTrend(sorted)

	series := make(map[Scenario][]TrendPoint)
	for _, p := range sorted {
		series[p.Scenario] = append(series[p.Scenario], p)
	}
	return series
}
