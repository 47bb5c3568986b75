// Package domain models gridded climate projection samples and the two pure
// computations the map is built on: region classification and trend
// aggregation.
//
// # Data Source
//
// Samples come from a decadal grid export, grid_temp_decades.csv, with one
// row per (cell, year, scenario):
//
//	lat,lon,year,temp,scenario
//	48.75,11.25,2050,9.82,Medium Emissions
//
// The same row shape arrives on the Kafka source topic as flat JSON with
// string values, e.g. {"lat":"48.75","lon":"11.25","year":"2050",...}.
//
// # Conventions
//
// Longitude:
//
//	Grid exports use either [-180, 180] or [0, 360). Every longitude is
//	normalized into [-180, 180] on parse, before classification or
//	projection. See [NormalizeLongitude].
//
// Scenario:
//
//	One of three emissions pathways: "Low Emissions", "Medium Emissions",
//	"High Emissions". Labels match case-insensitively; the short forms
//	"low", "medium" and "high" are accepted as well. Anything else is
//	rejected by [ParseScenario].
//
// Temperature:
//
//	Degrees Celsius, decadal mean for the cell.
//
// # Regions
//
// [Classify] assigns a continent-scale [Region] from ordered, overlapping
// bounding boxes. First match wins:
//
//	lat < -60                          Antarctica (two carve-outs checked first)
//	lon[-85,-35]   lat[-55,15]         South America
//	lon[110,180]   lat[-50,0]          Australia/Oceania
//	lon[-20,50]    lat[-35,37]         Africa
//	lon[-180,-10]  lat[10,90]          North America
//	lon[-10,40]    lat[35,75]          Europe (lon>30 and lat>60 is Asia)
//	lon[40,180]    lat[10,90]          Asia
//	lat > 75                           Arctic
//	anything else                      Other
//
// This is a heuristic, not a polygon containment test. Coastal and border
// cells can land in a neighbouring region.
//
// # Trends
//
// [Aggregate] restricts samples to one region and averages temperature per
// (year, scenario). [SortTrend] and [SeriesByScenario] order the result for
// charting.
//
// # ID Generation
//
// Classified sample IDs are deterministic SHA-256 hashes of
// lon|lat|year|scenario so downstream sinks can upsert idempotently
// (ON CONFLICT DO NOTHING). See [generateID].
package domain
