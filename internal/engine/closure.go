package engine

import (
	"github.com/blambuer11/strun-sub000/internal/engine/geo"
)

// DetectClosure reports whether the trace has returned near its origin. It is
// meant to run after every accepted sample so a loop is detected as soon as
// it is geometrically true. On closure it returns the polygon ring (raw
// accepted vertices, implicitly closed last-to-first).
func DetectClosure(buf *Buffer, cfg Config) ([]geo.Point, bool) {
	cfg = cfg.normalized()
	smoothed := buf.Smoothed()
	if len(smoothed) < cfg.MinClosurePoints {
		return nil, false
	}
	if geo.DistanceM(smoothed[0], smoothed[len(smoothed)-1]) > cfg.ClosureRadiusM {
		return nil, false
	}
	return buf.Ring(), true
}
