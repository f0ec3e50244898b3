package run

import (
	"time"

	"github.com/blambuer11/strun-sub000/internal/engine"
	"github.com/blambuer11/strun-sub000/internal/engine/geo"
)

// Run is the persisted record of one tracking session.
type Run struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Mode       string    `json:"mode"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at,omitempty"`
	DistanceM  float64   `json:"distance_m"`
	DurationS  int64     `json:"duration_sec"`
	PointCount int       `json:"point_count"`
	ZoneCount  int       `json:"zone_count"`
	Verified   bool      `json:"verified"`
}

// SampleRequest is the ingest payload from the location provider.
type SampleRequest struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	AccuracyM   float64 `json:"accuracy_m"`
	SpeedMps    float64 `json:"speed_mps,omitempty"`
	HeadingDeg  float64 `json:"heading_deg,omitempty"`
	TimestampMs int64   `json:"timestamp_ms"`
}

func (r SampleRequest) sample() engine.Sample {
	return engine.Sample{
		Lat:         r.Lat,
		Lng:         r.Lng,
		AccuracyM:   r.AccuracyM,
		SpeedMps:    r.SpeedMps,
		HeadingDeg:  r.HeadingDeg,
		TimestampMs: r.TimestampMs,
	}
}

// IngestResponse tells the caller what happened to one sample. Zone is set
// when this sample closed a loop that was claimed.
type IngestResponse struct {
	Accepted  bool       `json:"accepted"`
	Smoothed  *geo.Point `json:"smoothed,omitempty"`
	DeltaM    float64    `json:"delta_m"`
	DistanceM float64    `json:"distance_m"`
	State     string     `json:"state"`
	Zone      *ZoneClaim `json:"zone,omitempty"`
}

// ZoneClaim reports the outcome of a zone candidate: claimed, a duplicate of
// an already registered zone, or rejected by the anti-cheat verdict.
type ZoneClaim struct {
	ZoneID     string   `json:"zone_id"`
	Outcome    string   `json:"outcome"`
	AreaM2     float64  `json:"area_m2"`
	PerimeterM float64  `json:"perimeter_m"`
	Issues     []string `json:"issues,omitempty"`
}

const (
	OutcomeClaimed   = "claimed"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
)

// Summary is the economics-facing report of a finished run.
type Summary struct {
	RunID       string  `json:"run_id"`
	DistanceM   float64 `json:"distance_m"`
	DurationSec int64   `json:"duration_sec"`
	PointCount  int     `json:"point_count"`
	AvgSpeedMps float64 `json:"avg_speed_mps"`
	ZoneCount   int     `json:"zone_count"`
	Verified    bool    `json:"verified"`
}
