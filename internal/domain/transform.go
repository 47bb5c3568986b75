package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseSampleRecord coerces a raw string record into a Sample. It rejects
// non-numeric fields and unknown scenarios, naming the offending field.
func ParseSampleRecord(rec RawSampleRecord) (Sample, error) {
	lat, err := parseFloatField("lat", rec.Lat)
	if err != nil {
		return Sample{}, err
	}
	lon, err := parseFloatField("lon", rec.Lon)
	if err != nil {
		return Sample{}, err
	}
	temp, err := parseFloatField("temp", rec.Temp)
	if err != nil {
		return Sample{}, err
	}
	year, err := parseYear(rec.Year)
	if err != nil {
		return Sample{}, err
	}
	scenario, err := ParseScenario(rec.Scenario)
	if err != nil {
		return Sample{}, fmt.Errorf("field scenario: %w", err)
	}

	return Sample{
		Lon:         NormalizeLongitude(lon),
		Lat:         lat,
		Year:        year,
		Scenario:    scenario,
		Temperature: temp,
	}, nil
}

// ParseRawEvent deserializes a RawEvent's value into a Sample.
func ParseRawEvent(raw RawEvent) (Sample, error) {
	var rec RawSampleRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return Sample{}, fmt.Errorf("parse raw event: %w", err)
	}
	s, err := ParseSampleRecord(rec)
	if err != nil {
		return Sample{}, fmt.Errorf("parse raw event: %w", err)
	}
	return s, nil
}

// parseFloatField rejects empty, non-numeric and non-finite values.
func parseFloatField(name, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("field %s: empty", name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("field %s: %w", name, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("field %s: not finite", name)
	}
	return v, nil
}

// parseYear accepts integral values, including "2050.0" as some exports
// write years as floats.
func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if y, err := strconv.Atoi(s); err == nil {
		return y, nil
	}
	f, err := parseFloatField("year", s)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("field year: %q is not a whole number", s)
	}
	return int(f), nil
}

// EnrichSample classifies a parsed sample and stamps it with a deterministic
// ID and the processing time.
func EnrichSample(s Sample) ClassifiedSample {
	return ClassifiedSample{
		ID:          generateID(s),
		Sample:      s,
		Region:      Classify(s.Lon, s.Lat),
		ProcessedAt: clock.Now(),
	}
}

// SerializeClassifiedSample marshals a classified sample into an OutputEvent.
func SerializeClassifiedSample(cs ClassifiedSample) (OutputEvent, error) {
	data, err := json.Marshal(cs)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize classified sample: %w", err)
	}
	return OutputEvent{
		Key:   []byte(cs.ID),
		Value: data,
		Headers: map[string]string{
			"region":       string(cs.Region),
			"scenario":     string(cs.Scenario),
			"processed_at": cs.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}

// generateID produces a deterministic ID from the sample's grid key. The same
// cell, year and scenario always yield the same ID, so replays upsert
// rather than duplicate.
func generateID(s Sample) string {
	input := fmt.Sprintf("%.4f|%.4f|%d|%s", s.Lon, s.Lat, s.Year, s.Scenario)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	slug := s.Scenario.slug()
	if slug == "" {
		return short
	}
	return slug + "-" + short
}
