package engine

import (
	"errors"
	"time"

	"github.com/blambuer11/strun-sub000/internal/engine/geo"
)

// State is the session lifecycle phase.
type State int

const (
	StateIdle State = iota
	StateTracking
	StateZoneReady
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTracking:
		return "tracking"
	case StateZoneReady:
		return "zone_ready"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

var (
	ErrNotTracking     = errors.New("session is not tracking")
	ErrAlreadyStarted  = errors.New("session already started")
	ErrNotStarted      = errors.New("session not started")
	ErrAlreadyEnded    = errors.New("session already ended")
	ErrNoCandidate     = errors.New("no zone candidate pending")
	ErrCandidateUnread = errors.New("pending zone candidate must be consumed first")
)

// ZoneCandidate is a detected, threshold-passing loop together with the
// anti-cheat verdict over the whole trace so far. The verdict is advisory;
// the caller decides whether to claim or reject.
type ZoneCandidate struct {
	Descriptor ZoneDescriptor `json:"descriptor"`
	Verdict    Verdict        `json:"verdict"`
	DetectedAt time.Time      `json:"detected_at"`
}

// Summary is the terminal report of a session, emitted regardless of whether
// any zone was claimed.
type Summary struct {
	DistanceM  float64       `json:"distance_m"`
	Duration   time.Duration `json:"duration"`
	PointCount int           `json:"point_count"`
	DroppedBad int           `json:"dropped_bad_accuracy"`
	DroppedJit int           `json:"dropped_jitter"`
	ZonesSeen  int           `json:"zones_seen"`
}

// IngestResult describes the outcome of feeding one sample.
type IngestResult struct {
	Accepted  bool
	Delta     AcceptedDelta
	Candidate *ZoneCandidate
}

// Session is the state machine tying buffer, closure detection, geometry,
// identity and validation together. Exactly one producer feeds Ingest in
// arrival order; independent sessions share no state.
type Session struct {
	cfg Config

	state     State
	buf       *Buffer
	startedAt time.Time
	firstTs   int64
	lastTs    int64

	// armed gates closure detection: it drops when a candidate fires and
	// only rises again once the trace tail leaves the closure radius, so a
	// runner idling at the closure point cannot spam candidates.
	armed      bool
	lastZoneID string
	candidate  *ZoneCandidate
	zonesSeen  int

	now func() time.Time
}

func NewSession(cfg Config) *Session {
	return &Session{cfg: cfg.normalized(), state: StateIdle, now: time.Now}
}

// Start moves Idle to Tracking with a fresh trace.
func (s *Session) Start() error {
	switch s.state {
	case StateIdle:
	case StateEnded:
		return ErrAlreadyEnded
	default:
		return ErrAlreadyStarted
	}
	s.buf = NewBuffer(s.cfg)
	s.state = StateTracking
	s.armed = true
	s.lastZoneID = ""
	s.startedAt = s.now()
	s.firstTs, s.lastTs = 0, 0
	return nil
}

// Ingest feeds one raw sample. Only valid while Tracking; a pending zone
// candidate must be consumed (Resume) or the run stopped first.
func (s *Session) Ingest(sample Sample) (IngestResult, error) {
	switch s.state {
	case StateTracking:
	case StateZoneReady:
		return IngestResult{}, ErrCandidateUnread
	default:
		return IngestResult{}, ErrNotTracking
	}
	if err := sample.Validate(); err != nil {
		return IngestResult{}, err
	}

	delta, ok := s.buf.Accept(sample)
	if !ok {
		return IngestResult{}, nil
	}
	if s.buf.AcceptedCount() == 1 {
		s.firstTs = sample.TimestampMs
	}
	s.lastTs = sample.TimestampMs

	res := IngestResult{Accepted: true, Delta: delta}

	ring, closed := DetectClosure(s.buf, s.cfg)
	if !closed {
		// Re-arm once the tail has moved away from the origin again.
		if !s.armed {
			s.armed = true
		}
		return res, nil
	}
	if !s.armed {
		return res, nil
	}

	desc, err := NewZoneDescriptor(ring, s.cfg)
	if err != nil {
		return res, nil
	}
	if desc.AreaM2 < s.cfg.MinZoneAreaM2 || desc.PerimeterM < s.cfg.MinPerimeterM {
		return res, nil
	}
	if desc.ID == s.lastZoneID {
		return res, nil
	}

	cand := &ZoneCandidate{
		Descriptor: desc,
		Verdict:    Validate(s.buf.Samples(), s.cfg),
		DetectedAt: s.now(),
	}
	s.candidate = cand
	s.lastZoneID = desc.ID
	s.armed = false
	s.zonesSeen++
	s.state = StateZoneReady

	res.Candidate = cand
	return res, nil
}

// Candidate returns the pending zone candidate, if any.
func (s *Session) Candidate() *ZoneCandidate {
	return s.candidate
}

// Resume consumes the pending candidate and re-enters Tracking so the run can
// continue toward further zones.
func (s *Session) Resume() error {
	if s.state != StateZoneReady {
		return ErrNoCandidate
	}
	s.candidate = nil
	s.state = StateTracking
	return nil
}

// Stop finalizes the session from any live state and returns its summary.
func (s *Session) Stop() (Summary, error) {
	switch s.state {
	case StateIdle:
		return Summary{}, ErrNotStarted
	case StateEnded:
		return Summary{}, ErrAlreadyEnded
	}
	s.state = StateEnded
	return s.summary(), nil
}

func (s *Session) summary() Summary {
	accDrop, jitDrop := s.buf.Dropped()
	duration := time.Duration(s.lastTs-s.firstTs) * time.Millisecond
	if duration <= 0 {
		duration = s.now().Sub(s.startedAt)
	}
	return Summary{
		DistanceM:  s.buf.TotalM(),
		Duration:   duration,
		PointCount: s.buf.AcceptedCount(),
		DroppedBad: accDrop,
		DroppedJit: jitDrop,
		ZonesSeen:  s.zonesSeen,
	}
}

// State returns the current lifecycle phase.
func (s *Session) State() State { return s.state }

// DistanceM returns the cumulative distance so far.
func (s *Session) DistanceM() float64 {
	if s.buf == nil {
		return 0
	}
	return s.buf.TotalM()
}

// Smoothed exposes the smoothed trace, e.g. for live display subscribers.
func (s *Session) Smoothed() []geo.Point {
	if s.buf == nil {
		return nil
	}
	return s.buf.Smoothed()
}
