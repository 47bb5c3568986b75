package csvfile

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/climate-grid-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadSamples_Testdata(t *testing.T) {
	samples, stats, err := LoadSamples(filepath.Join("testdata", "grid_small.csv"), discardLogger())
	require.NoError(t, err)

	assert.Equal(t, 8, stats.Rows)
	assert.Equal(t, 2, stats.Skipped)
	require.Len(t, samples, 6)

	assert.Equal(t, domain.Sample{Lon: 10, Lat: 50, Year: 2000, Scenario: domain.ScenarioLow, Temperature: 9.5}, samples[0])
	assert.Equal(t, domain.ScenarioMedium, samples[3].Scenario)

	// Longitudes in [0,360) are normalized on parse.
	assert.InDelta(t, -10.0, samples[4].Lon, 1e-9)
	assert.Equal(t, domain.RegionAntarctica, domain.Classify(samples[4].Lon, samples[4].Lat))

	assert.Equal(t, domain.ScenarioHigh, samples[5].Scenario)
	assert.InDelta(t, 18.25, samples[5].Temperature, 1e-9)
}

func TestLoadSamples_MissingFile(t *testing.T) {
	_, _, err := LoadSamples(filepath.Join("testdata", "nope.csv"), discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open samples")
}

func TestReadSamples_ColumnOrderAndCase(t *testing.T) {
	in := "Scenario, TEMP ,Year,Lon,Lat\nMedium Emissions,3.5,2030,-60,-20\n"

	samples, stats, err := ReadSamples(strings.NewReader(in), discardLogger())
	require.NoError(t, err)

	assert.Equal(t, Stats{Rows: 1}, stats)
	require.Len(t, samples, 1)
	assert.Equal(t, domain.Sample{Lon: -60, Lat: -20, Year: 2030, Scenario: domain.ScenarioMedium, Temperature: 3.5}, samples[0])
}

func TestReadSamples_ByteOrderMark(t *testing.T) {
	in := "\ufefflat,lon,year,temp,scenario\n1,2,2000,3,low\n"

	samples, _, err := ReadSamples(strings.NewReader(in), discardLogger())
	require.NoError(t, err)
	assert.Len(t, samples, 1)
}

func TestReadSamples_HeaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr string
	}{
		{"empty input", "", "missing header"},
		{"missing temp", "lat,lon,year,scenario\n1,2,2000,low\n", "temp"},
		{"missing several", "lat,lon\n1,2\n", "year, temp, scenario"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadSamples(strings.NewReader(tt.in), discardLogger())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadSamples_ShortAndLongRows(t *testing.T) {
	in := "lat,lon,year,temp,scenario\n" +
		"1,2,2000\n" +
		"1,2,2000,5,low,extra\n"

	samples, stats, err := ReadSamples(strings.NewReader(in), discardLogger())
	require.NoError(t, err)

	assert.Equal(t, Stats{Rows: 2, Skipped: 1}, stats)
	require.Len(t, samples, 1)
	assert.InDelta(t, 5.0, samples[0].Temperature, 1e-9)
}

func TestReadSamples_HeaderOnly(t *testing.T) {
	samples, stats, err := ReadSamples(strings.NewReader("lat,lon,year,temp,scenario\n"), discardLogger())
	require.NoError(t, err)
	assert.Empty(t, samples)
	assert.Equal(t, Stats{}, stats)
}
