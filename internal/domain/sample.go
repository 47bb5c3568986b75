package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Scenario is an emissions pathway label. Samples of different scenarios
// form independent time series.
type Scenario string

const (
	ScenarioLow    Scenario = "Low Emissions"
	ScenarioMedium Scenario = "Medium Emissions"
	ScenarioHigh   Scenario = "High Emissions"
)

// Scenarios lists every scenario in display order.
var Scenarios = []Scenario{ScenarioLow, ScenarioMedium, ScenarioHigh}

// ParseScenario matches a label case-insensitively, also accepting the short
// forms "low", "medium" and "high".
func ParseScenario(s string) (Scenario, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low emissions", "low":
		return ScenarioLow, nil
	case "medium emissions", "medium":
		return ScenarioMedium, nil
	case "high emissions", "high":
		return ScenarioHigh, nil
	default:
		return "", fmt.Errorf("unknown scenario %q", s)
	}
}

// rank orders scenarios Low < Medium < High. Unknown scenarios sort last.
func (s Scenario) rank() int {
	for i, sc := range Scenarios {
		if sc == s {
			return i
		}
	}
	return len(Scenarios)
}

// slug is the lowercase first word of the label, used as an ID prefix.
func (s Scenario) slug() string {
	head, _, _ := strings.Cut(strings.ToLower(string(s)), " ")
	return head
}

// Sample is one gridded temperature observation. Lon is always within
// [-180, 180].
type Sample struct {
	Lon         float64  `json:"lon"`
	Lat         float64  `json:"lat"`
	Year        int      `json:"year"`
	Scenario    Scenario `json:"scenario"`
	Temperature float64  `json:"temperature"`
}

// RawSampleRecord is the flat string record shared by the CSV export and the
// JSON messages on the source topic.
type RawSampleRecord struct {
	Lat      string `json:"lat"`
	Lon      string `json:"lon"`
	Year     string `json:"year"`
	Temp     string `json:"temp"`
	Scenario string `json:"scenario"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ClassifiedSample is a validated sample tagged with its region.
type ClassifiedSample struct {
	ID string `json:"id"`
	Sample
	Region      Region    `json:"region"`
	ProcessedAt time.Time `json:"processed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
