package engine

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/blambuer11/strun-sub000/internal/engine/geo"
	"lukechampine.com/blake3"
)

// canonicalVersion is baked into every canonical string so a future change to
// the precision scheme produces disjoint IDs instead of silently colliding
// with zones registered under the old format.
const canonicalVersion = "v1"

// BBox is an axis-aligned bounding box in degrees.
type BBox struct {
	LatMin float64 `json:"lat_min"`
	LonMin float64 `json:"lon_min"`
	LatMax float64 `json:"lat_max"`
	LonMax float64 `json:"lon_max"`
}

// ZoneDescriptor identifies one claimable zone. ID is deterministic over the
// canonical string: two loops enclosing the same rectangle at the same
// precision always hash to the same ID, which is what makes claiming
// idempotent.
type ZoneDescriptor struct {
	ID         string      `json:"id"`
	Canonical  string      `json:"canonical"`
	BBox       BBox        `json:"bbox"`
	Polygon    []geo.Point `json:"polygon"`
	AreaM2     float64     `json:"area_m2"`
	PerimeterM float64     `json:"perimeter_m"`
}

var errPolygonTooSmall = errors.New("polygon needs at least 3 vertices")

// BoundsOf computes the bounding box of a ring.
func BoundsOf(points []geo.Point) BBox {
	b := BBox{LatMin: points[0].Lat, LonMin: points[0].Lng, LatMax: points[0].Lat, LonMax: points[0].Lng}
	for _, p := range points[1:] {
		if p.Lat < b.LatMin {
			b.LatMin = p.Lat
		}
		if p.Lat > b.LatMax {
			b.LatMax = p.Lat
		}
		if p.Lng < b.LonMin {
			b.LonMin = p.Lng
		}
		if p.Lng > b.LonMax {
			b.LonMax = p.Lng
		}
	}
	return b
}

// Canonicalize encodes a bounding box at a fixed decimal precision into a
// stable, human-diffable string. No locale-dependent formatting: %f always
// uses a dot separator.
func Canonicalize(b BBox, precisionDigits int) string {
	return fmt.Sprintf("%s|latMin:%.*f|lonMin:%.*f|latMax:%.*f|lonMax:%.*f|zoom:%d",
		canonicalVersion,
		precisionDigits, b.LatMin,
		precisionDigits, b.LonMin,
		precisionDigits, b.LatMax,
		precisionDigits, b.LonMax,
		precisionDigits)
}

// ZoneID hashes a canonical string to a fixed-size hex identifier. blake3 is
// deterministic across machines and runs; the design needs collision
// resistance, not secrecy.
func ZoneID(canonical string) string {
	sum := blake3.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// NewZoneDescriptor derives the full descriptor for a detected polygon ring.
func NewZoneDescriptor(ring []geo.Point, cfg Config) (ZoneDescriptor, error) {
	if len(ring) < 3 {
		return ZoneDescriptor{}, errPolygonTooSmall
	}
	cfg = cfg.normalized()

	bbox := BoundsOf(ring)
	canonical := Canonicalize(bbox, cfg.ZonePrecisionDigits)

	polygon := make([]geo.Point, len(ring))
	copy(polygon, ring)

	return ZoneDescriptor{
		ID:         ZoneID(canonical),
		Canonical:  canonical,
		BBox:       bbox,
		Polygon:    polygon,
		AreaM2:     geo.PolygonAreaM2(ring),
		PerimeterM: geo.PolygonPerimeterM(ring),
	}, nil
}
