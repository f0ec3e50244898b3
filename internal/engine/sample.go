package engine

import (
	"errors"
	"math"

	"github.com/blambuer11/strun-sub000/internal/engine/geo"
)

// Sample is one raw GPS fix. SpeedMps and HeadingDeg are optional; a zero
// speed means "not reported" and the validator falls back to the implied
// speed between consecutive fixes.
type Sample struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	AccuracyM   float64 `json:"accuracy_m"`
	SpeedMps    float64 `json:"speed_mps,omitempty"`
	HeadingDeg  float64 `json:"heading_deg,omitempty"`
	TimestampMs int64   `json:"timestamp_ms"`
}

var errBadCoordinate = errors.New("sample has invalid coordinates")

// Validate rejects NaN/Inf coordinates and out-of-range lat/lng up front so
// malformed fixes never reach the geometry code.
func (s Sample) Validate() error {
	if math.IsNaN(s.Lat) || math.IsNaN(s.Lng) || math.IsInf(s.Lat, 0) || math.IsInf(s.Lng, 0) {
		return errBadCoordinate
	}
	if s.Lat < -90 || s.Lat > 90 || s.Lng < -180 || s.Lng > 180 {
		return errBadCoordinate
	}
	return nil
}

// Point returns the sample's coordinate.
func (s Sample) Point() geo.Point {
	return geo.Point{Lat: s.Lat, Lng: s.Lng}
}
