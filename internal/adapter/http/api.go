package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/couchcryptid/climate-grid-service/internal/chart"
	"github.com/couchcryptid/climate-grid-service/internal/domain"
	"github.com/couchcryptid/climate-grid-service/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const (
	defaultLegendStops = 10
	maxLegendStops     = 100
)

// API serves the read-only map endpoints over an immutable dataset.
type API struct {
	dataset  *domain.Dataset
	geocoder domain.Geocoder
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewAPI creates the map API. geocoder may be nil, in which case clicked
// points are described by region only.
func NewAPI(dataset *domain.Dataset, geocoder domain.Geocoder, metrics *observability.Metrics, logger *slog.Logger) *API {
	return &API{
		dataset:  dataset,
		geocoder: geocoder,
		metrics:  metrics,
		logger:   logger,
	}
}

// Register mounts the API routes on mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/years", a.instrument("years", a.handleYears))
	mux.Handle("GET /api/scenarios", a.instrument("scenarios", a.handleScenarios))
	mux.Handle("GET /api/regions", a.instrument("regions", a.handleRegions))
	mux.Handle("GET /api/legend", a.instrument("legend", a.handleLegend))
	mux.Handle("GET /api/grid", a.instrument("grid", a.handleGrid))
	mux.Handle("GET /api/classify", a.instrument("classify", a.handleClassify))
	mux.Handle("GET /api/trend", a.instrument("trend", a.handleTrend))
	mux.Handle("GET /api/trend.png", a.instrument("trend_png", a.handleTrendPNG))
}

type yearsResponse struct {
	Years []int `json:"years"`
}

type scenariosResponse struct {
	Scenarios []domain.Scenario `json:"scenarios"`
}

type regionsResponse struct {
	Regions []domain.Region `json:"regions"`
}

type legendResponse struct {
	Min   float64   `json:"min"`
	Max   float64   `json:"max"`
	Stops []float64 `json:"stops"`
}

type gridResponse struct {
	Scenario domain.Scenario `json:"scenario"`
	Year     int             `json:"year"`
	Samples  []domain.Sample `json:"samples"`
}

type trendResponse struct {
	Region domain.Region       `json:"region"`
	Points []domain.TrendPoint `json:"points"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *API) handleYears(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, yearsResponse{Years: nonNil(a.dataset.Years())})
}

func (a *API) handleScenarios(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, scenariosResponse{Scenarios: nonNil(a.dataset.Scenarios())})
}

func (a *API) handleRegions(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, regionsResponse{Regions: domain.Regions})
}

func (a *API) handleLegend(w http.ResponseWriter, r *http.Request) {
	n := defaultLegendStops
	if v := r.URL.Query().Get("stops"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > maxLegendStops {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("stops must be an integer in [1, %d]", maxLegendStops))
			return
		}
		n = parsed
	}

	lo, hi, ok := a.dataset.Extent()
	if !ok {
		writeError(w, http.StatusNotFound, "dataset is empty")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, legendResponse{Min: lo, Max: hi, Stops: domain.LegendStops(lo, hi, n)})
}

func (a *API) handleGrid(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	scenario, err := domain.ParseScenario(q.Get("scenario"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid year %q", q.Get("year")))
		return
	}
	if !a.dataset.HasYear(year) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no samples for year %d", year))
		return
	}

	sharedobs.WriteJSON(w, http.StatusOK, gridResponse{
		Scenario: scenario,
		Year:     year,
		Samples:  nonNil(a.dataset.Grid(scenario, year)),
	})
}

func (a *API) handleClassify(w http.ResponseWriter, r *http.Request) {
	lon, lat, err := parseCoordinate(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	desc := domain.DescribePoint(r.Context(), lon, lat, a.geocoder, a.logger)
	sharedobs.WriteJSON(w, http.StatusOK, desc)
}

func (a *API) handleTrend(w http.ResponseWriter, r *http.Request) {
	region, err := regionFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, trendResponse{
		Region: region,
		Points: nonNil(a.dataset.Trend(region)),
	})
}

func (a *API) handleTrendPNG(w http.ResponseWriter, r *http.Request) {
	region, err := regionFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Render into a buffer so a failure can still produce a JSON error.
	var buf bytes.Buffer
	err = chart.RenderTrend(&buf, region, a.dataset.Trend(region), chart.DefaultWidth, chart.DefaultHeight)
	switch {
	case errors.Is(err, chart.ErrNoData):
		writeError(w, http.StatusNotFound, fmt.Sprintf("no samples in region %s", region))
		return
	case err != nil:
		a.logger.Error("render trend chart", "region", region, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// regionFromQuery accepts either ?region=<label> or ?lon=&lat=, the latter
// classified the same way a map click is.
func regionFromQuery(q url.Values) (domain.Region, error) {
	if name := q.Get("region"); name != "" {
		return domain.ParseRegion(name)
	}
	if q.Get("lon") == "" && q.Get("lat") == "" {
		return "", errors.New("region or lon/lat is required")
	}
	lon, lat, err := parseCoordinate(q)
	if err != nil {
		return "", err
	}
	return domain.Classify(lon, lat), nil
}

func parseCoordinate(q url.Values) (lon, lat float64, err error) {
	lon, err = parseFinite(q, "lon")
	if err != nil {
		return 0, 0, err
	}
	lat, err = parseFinite(q, "lat")
	if err != nil {
		return 0, 0, err
	}
	if lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("lat %g out of range [-90, 90]", lat)
	}
	return lon, lat, nil
}

func parseFinite(q url.Values, key string) (float64, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, errorResponse{Error: msg})
}

// nonNil keeps empty collections encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// instrument counts requests per endpoint and status code.
func (a *API) instrument(endpoint string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		a.metrics.APIRequests.WithLabelValues(endpoint, strconv.Itoa(rec.status)).Inc()
		a.logger.Debug("api request",
			"endpoint", endpoint,
			"query", r.URL.RawQuery,
			"status", rec.status,
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
