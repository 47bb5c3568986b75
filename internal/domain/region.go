package domain

import (
	"fmt"
	"math"
	"strings"
)

// Region is a continent-scale label assigned heuristically from coordinates.
type Region string

const (
	RegionNorthAmerica Region = "North America"
	RegionSouthAmerica Region = "South America"
	RegionEurope       Region = "Europe"
	RegionAfrica       Region = "Africa"
	RegionAsia         Region = "Asia"
	RegionOceania      Region = "Australia/Oceania"
	RegionAntarctica   Region = "Antarctica"
	RegionArctic       Region = "Arctic"
	RegionOther        Region = "Other"
)

// Regions lists every label Classify can return.
var Regions = []Region{
	RegionNorthAmerica,
	RegionSouthAmerica,
	RegionEurope,
	RegionAfrica,
	RegionAsia,
	RegionOceania,
	RegionAntarctica,
	RegionArctic,
	RegionOther,
}

// ParseRegion matches a region label case-insensitively.
func ParseRegion(s string) (Region, error) {
	s = strings.TrimSpace(s)
	for _, r := range Regions {
		if strings.EqualFold(string(r), s) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown region %q", s)
}

// box is an inclusive lon/lat bounding box.
type box struct {
	region         Region
	minLon, maxLon float64
	minLat, maxLat float64
}

func (b box) contains(lon, lat float64) bool {
	return lon >= b.minLon && lon <= b.maxLon && lat >= b.minLat && lat <= b.maxLat
}

// Boxes overlap; order resolves the overlaps.
var (
	polarCarveOuts = []box{
		{region: RegionOceania, minLon: 165, maxLon: 180, minLat: -50, maxLat: -34},
		{region: RegionSouthAmerica, minLon: -70, maxLon: -55, minLat: -60, maxLat: -50},
	}

	continentBoxes = []box{
		{region: RegionSouthAmerica, minLon: -85, maxLon: -35, minLat: -55, maxLat: 15},
		{region: RegionOceania, minLon: 110, maxLon: 180, minLat: -50, maxLat: 0},
		{region: RegionAfrica, minLon: -20, maxLon: 50, minLat: -35, maxLat: 37},
		{region: RegionNorthAmerica, minLon: -180, maxLon: -10, minLat: 10, maxLat: 90},
		{region: RegionEurope, minLon: -10, maxLon: 40, minLat: 35, maxLat: 75},
		{region: RegionAsia, minLon: 40, maxLon: 180, minLat: 10, maxLat: 90},
	}
)

const (
	antarcticLatitude = -60
	arcticLatitude    = 75
)

// Classify maps a coordinate to a region. It is total: every input,
// including out-of-range latitudes and NaN, yields a label, with
// RegionOther as the fallback.
func Classify(lon, lat float64) Region {
	lon = NormalizeLongitude(lon)

	if lat < antarcticLatitude {
		for _, b := range polarCarveOuts {
			if b.contains(lon, lat) {
				return b.region
			}
		}
		return RegionAntarctica
	}

	for _, b := range continentBoxes {
		if !b.contains(lon, lat) {
			continue
		}
		// Russia east of the Urals-ish cut belongs to Asia.
		if b.region == RegionEurope && lon > 30 && lat > 60 {
			return RegionAsia
		}
		return b.region
	}

	if lat > arcticLatitude {
		return RegionArctic
	}
	return RegionOther
}

// NormalizeLongitude wraps lon into [-180, 180]. Values already in range are
// returned unchanged, so 180 and -180 both survive.
func NormalizeLongitude(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
