package run

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/blambuer11/strun-sub000/internal/config"
	"github.com/blambuer11/strun-sub000/internal/db"
	"github.com/blambuer11/strun-sub000/internal/engine"
	"github.com/blambuer11/strun-sub000/internal/stream"
	"github.com/blambuer11/strun-sub000/internal/zone"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const sessionShards = 16

var (
	ErrRunNotFound = errors.New("run not found")
	ErrRateLimited = errors.New("sample rate limit exceeded")
)

type liveRun struct {
	session   *engine.Session
	userID    string
	limiter   *rate.Limiter
	zoneCount int
	verified  bool
}

// shard holds a slice of the live sessions. Sharding keeps unrelated users'
// runs off each other's lock.
type shard struct {
	mu   sync.Mutex
	runs map[string]*liveRun
}

type Service struct {
	db     db.Querier
	hub    *stream.Hub
	zones  *zone.Service
	cfg    config.Config
	shards [sessionShards]*shard
}

func NewService(database db.Querier, hub *stream.Hub, zones *zone.Service, cfg config.Config) *Service {
	s := &Service{db: database, hub: hub, zones: zones, cfg: cfg}
	for i := range s.shards {
		s.shards[i] = &shard{runs: map[string]*liveRun{}}
	}
	return s
}

func (s *Service) shardFor(runID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(runID))
	return s.shards[h.Sum32()%sessionShards]
}

// StartRun creates a persisted run row and an in-memory engine session.
func (s *Service) StartRun(ctx context.Context, userID, mode string) (Run, error) {
	if mode != "walk" {
		mode = "run"
	}

	sess := engine.NewSession(s.cfg.Engine(mode))
	if err := sess.Start(); err != nil {
		return Run{}, err
	}

	r := Run{
		ID:       uuid.NewString(),
		UserID:   userID,
		Mode:     mode,
		Status:   "active",
		Verified: true,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO runs (id, user_id, mode, status)
		VALUES ($1,$2,$3,$4)
		RETURNING started_at
	`, r.ID, r.UserID, r.Mode, r.Status)
	if err := row.Scan(&r.StartedAt); err != nil {
		return Run{}, err
	}

	limit := rate.Limit(s.cfg.IngestRatePerSec)
	if limit <= 0 {
		limit = rate.Inf
	}
	burst := s.cfg.IngestBurst
	if burst <= 0 {
		burst = 1
	}

	sh := s.shardFor(r.ID)
	sh.mu.Lock()
	sh.runs[r.ID] = &liveRun{
		session:  sess,
		userID:   userID,
		limiter:  rate.NewLimiter(limit, burst),
		verified: true,
	}
	sh.mu.Unlock()

	return r, nil
}

// Ingest feeds one sample into a live run. Accepted points and zone outcomes
// are mirrored to stream subscribers.
func (s *Service) Ingest(ctx context.Context, runID string, req SampleRequest) (IngestResponse, error) {
	sh := s.shardFor(runID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	live, ok := sh.runs[runID]
	if !ok {
		return IngestResponse{}, ErrRunNotFound
	}
	if !live.limiter.Allow() {
		return IngestResponse{}, ErrRateLimited
	}

	res, err := live.session.Ingest(req.sample())
	if err != nil {
		return IngestResponse{}, err
	}

	out := IngestResponse{
		Accepted:  res.Accepted,
		DistanceM: live.session.DistanceM(),
		State:     live.session.State().String(),
	}
	if !res.Accepted {
		return out, nil
	}
	out.Smoothed = &res.Delta.Smoothed
	out.DeltaM = res.Delta.DeltaM

	if s.hub != nil {
		s.hub.Publish(runID, stream.EventPointAccepted, res.Delta)
	}

	if res.Candidate != nil {
		claim := s.settleCandidate(ctx, runID, live, res.Candidate)
		out.Zone = claim
		out.State = live.session.State().String()
	}
	return out, nil
}

// settleCandidate applies the claim policy to a fresh zone candidate: reject
// on an invalid verdict, skip duplicates already on the ledger, otherwise
// register. The session resumes tracking in every case.
func (s *Service) settleCandidate(ctx context.Context, runID string, live *liveRun, cand *engine.ZoneCandidate) *ZoneClaim {
	claim := &ZoneClaim{
		ZoneID:     cand.Descriptor.ID,
		AreaM2:     cand.Descriptor.AreaM2,
		PerimeterM: cand.Descriptor.PerimeterM,
		Issues:     cand.Verdict.Issues,
	}

	switch {
	case !cand.Verdict.Valid:
		claim.Outcome = OutcomeRejected
		live.verified = false
		s.publish(runID, stream.EventZoneRejected, claim)
	default:
		registered, err := s.zones.Registered(ctx, cand.Descriptor.ID)
		if err == nil && registered {
			claim.Outcome = OutcomeDuplicate
			s.publish(runID, stream.EventZoneDuplicate, claim)
			break
		}
		_, err = s.zones.Claim(ctx, live.userID, runID, cand.Descriptor, cand.Verdict)
		if errors.Is(err, zone.ErrAlreadyClaimed) {
			claim.Outcome = OutcomeDuplicate
			s.publish(runID, stream.EventZoneDuplicate, claim)
			break
		}
		if err != nil {
			claim.Outcome = OutcomeRejected
			claim.Issues = append(claim.Issues, "zone registration failed: "+err.Error())
			s.publish(runID, stream.EventZoneRejected, claim)
			break
		}
		claim.Outcome = OutcomeClaimed
		live.zoneCount++
		s.publish(runID, stream.EventZoneReady, claim)
	}

	_ = live.session.Resume()
	return claim
}

func (s *Service) publish(runID, eventType string, payload any) {
	if s.hub != nil {
		s.hub.Publish(runID, eventType, payload)
	}
}

// StopRun finalizes a live run, persists its totals and returns the summary.
func (s *Service) StopRun(ctx context.Context, runID string) (Summary, error) {
	sh := s.shardFor(runID)
	sh.mu.Lock()
	live, ok := sh.runs[runID]
	if ok {
		delete(sh.runs, runID)
	}
	sh.mu.Unlock()

	if !ok {
		return Summary{}, ErrRunNotFound
	}

	es, err := live.session.Stop()
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{
		RunID:       runID,
		DistanceM:   es.DistanceM,
		DurationSec: int64(es.Duration.Seconds()),
		PointCount:  es.PointCount,
		ZoneCount:   live.zoneCount,
		Verified:    live.verified,
	}
	if sum.DurationSec > 0 {
		sum.AvgSpeedMps = sum.DistanceM / float64(sum.DurationSec)
	}

	_, err = s.db.Exec(ctx, `
		UPDATE runs
		SET status='ended', ended_at=$2, distance_m=$3, duration_sec=$4,
		    point_count=$5, zone_count=$6, verified=$7
		WHERE id=$1
	`, runID, time.Now(), sum.DistanceM, sum.DurationSec, sum.PointCount, sum.ZoneCount, sum.Verified)
	if err != nil {
		return Summary{}, err
	}

	s.publish(runID, stream.EventRunEnded, sum)
	return sum, nil
}

// Summary returns the stored summary of a finished run.
func (s *Service) Summary(ctx context.Context, runID string) (Summary, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, COALESCE(distance_m,0), COALESCE(duration_sec,0),
		       COALESCE(point_count,0), COALESCE(zone_count,0), COALESCE(verified,true)
		FROM runs WHERE id=$1
	`, runID)
	var sum Summary
	if err := row.Scan(&sum.RunID, &sum.DistanceM, &sum.DurationSec, &sum.PointCount, &sum.ZoneCount, &sum.Verified); err != nil {
		return Summary{}, err
	}
	if sum.DurationSec > 0 {
		sum.AvgSpeedMps = sum.DistanceM / float64(sum.DurationSec)
	}
	return sum, nil
}
