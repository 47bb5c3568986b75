package domain

import (
	"context"
	"log/slog"
)

// PointDescription is what the map shows for a clicked coordinate.
type PointDescription struct {
	Lon              float64 `json:"lon"`
	Lat              float64 `json:"lat"`
	Region           Region  `json:"region"`
	PlaceName        string  `json:"place_name,omitempty"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
	GeoConfidence    float64 `json:"geo_confidence,omitempty"`
	GeoSource        string  `json:"geo_source"` // "reverse", "none", "failed"
}

// DescribePoint classifies a coordinate and, when a geocoder is available,
// attaches the place name under it. Geocoding failures degrade to a
// region-only description.
func DescribePoint(ctx context.Context, lon, lat float64, geocoder Geocoder, logger *slog.Logger) PointDescription {
	lon = NormalizeLongitude(lon)
	desc := PointDescription{
		Lon:       lon,
		Lat:       lat,
		Region:    Classify(lon, lat),
		GeoSource: "none",
	}
	if geocoder == nil {
		return desc
	}

	result, err := geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"lat", lat,
			"lon", lon,
			"region", desc.Region,
			"error", err,
		)
		desc.GeoSource = "failed"
		return desc
	}
	if result.FormattedAddress == "" {
		return desc
	}

	desc.PlaceName = result.PlaceName
	desc.FormattedAddress = result.FormattedAddress
	desc.GeoConfidence = result.Confidence
	desc.GeoSource = "reverse"
	return desc
}
