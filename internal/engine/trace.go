package engine

import (
	"github.com/blambuer11/strun-sub000/internal/engine/geo"
)

// AcceptedDelta describes what changed when a sample was accepted into the
// trace.
type AcceptedDelta struct {
	Index     int       `json:"index"`
	Raw       geo.Point `json:"raw"`
	Smoothed  geo.Point `json:"smoothed"`
	DeltaM    float64   `json:"delta_m"`
	TotalM    float64   `json:"total_m"`
	AcceptedN int       `json:"accepted_n"`
}

// Buffer turns a stream of raw samples into a cleaned trace. It drops
// low-accuracy and near-duplicate fixes, keeps a moving-average smoothed
// coordinate per accepted point, and accumulates distance incrementally over
// the smoothed points. The buffer is bounded: past MaxTracePoints the oldest
// entries are evicted, but the cumulative distance is never recomputed from
// the truncated history.
type Buffer struct {
	cfg Config

	samples  []Sample
	smoothed []geo.Point

	totalM   float64
	accepted int
	evicted  int

	droppedAccuracy int
	droppedJitter   int
}

func NewBuffer(cfg Config) *Buffer {
	return &Buffer{cfg: cfg.normalized()}
}

// Accept filters one sample into the buffer. A false return means the sample
// was dropped as noise (bad accuracy or below the movement threshold); that
// is a silent no-op for the caller, counted internally only.
func (b *Buffer) Accept(s Sample) (AcceptedDelta, bool) {
	if s.AccuracyM > b.cfg.MaxAccuracyM {
		b.droppedAccuracy++
		return AcceptedDelta{}, false
	}
	if n := len(b.samples); n > 0 {
		if geo.DistanceM(b.samples[n-1].Point(), s.Point()) < b.cfg.MinMovementM {
			b.droppedJitter++
			return AcceptedDelta{}, false
		}
	}

	b.samples = append(b.samples, s)
	b.smoothed = append(b.smoothed, s.Point())
	b.accepted++

	n := len(b.samples)
	// The previous point now has a successor, so it gets its centered
	// window. The tail and the first point stay raw; endpoints never drift,
	// which keeps the closure check honest.
	if n >= 3 {
		b.smoothed[n-2] = b.centeredAverage(n - 2)
	}

	delta := 0.0
	if n >= 2 {
		delta = geo.DistanceM(b.smoothed[n-2], b.smoothed[n-1])
		b.totalM += delta
	}

	out := AcceptedDelta{
		Index:     b.evicted + n - 1,
		Raw:       s.Point(),
		Smoothed:  b.smoothed[n-1],
		DeltaM:    delta,
		TotalM:    b.totalM,
		AcceptedN: b.accepted,
	}

	if n > b.cfg.MaxTracePoints {
		b.samples = b.samples[1:]
		b.smoothed = b.smoothed[1:]
		b.evicted++
	}
	return out, true
}

// centeredAverage smooths index i over a window of SmoothingWindow points
// centered on it, clamped to the buffer bounds.
func (b *Buffer) centeredAverage(i int) geo.Point {
	half := b.cfg.SmoothingWindow / 2
	lo, hi := i-half, i+half
	if lo < 0 {
		lo = 0
	}
	if hi > len(b.samples)-1 {
		hi = len(b.samples) - 1
	}
	var lat, lng float64
	for j := lo; j <= hi; j++ {
		lat += b.samples[j].Lat
		lng += b.samples[j].Lng
	}
	count := float64(hi - lo + 1)
	return geo.Point{Lat: lat / count, Lng: lng / count}
}

// Samples returns the retained raw samples in order.
func (b *Buffer) Samples() []Sample { return b.samples }

// Smoothed returns the smoothed coordinates, one per retained sample.
func (b *Buffer) Smoothed() []geo.Point { return b.smoothed }

// Ring returns the retained raw coordinates, used as polygon vertices when a
// closure fires. Smoothed rings cut corners and shrink sparse loops, so zone
// geometry always comes from the raw accepted path.
func (b *Buffer) Ring() []geo.Point {
	ring := make([]geo.Point, len(b.samples))
	for i, s := range b.samples {
		ring[i] = s.Point()
	}
	return ring
}

// TotalM returns the cumulative smoothed distance in meters.
func (b *Buffer) TotalM() float64 { return b.totalM }

// AcceptedCount returns how many samples were ever accepted, including
// evicted ones.
func (b *Buffer) AcceptedCount() int { return b.accepted }

// Dropped reports how many samples were discarded, split by reason.
func (b *Buffer) Dropped() (accuracy, jitter int) {
	return b.droppedAccuracy, b.droppedJitter
}

// Len returns the number of retained samples.
func (b *Buffer) Len() int { return len(b.samples) }
