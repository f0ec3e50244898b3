package engine

import (
	"fmt"

	"github.com/blambuer11/strun-sub000/internal/engine/geo"
)

// teleportFactor and burstFactor scale MaxSpeedMps for the jump and
// max-instantaneous checks.
const (
	teleportFactor = 1.5
	burstFactor    = 1.2

	poorAccuracyRatio = 0.3
)

// Verdict is the accumulated result of every plausibility check. Valid is
// true only when no check found an issue. Issues keeps every finding so a
// rejected run can be explained, not just refused.
type Verdict struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues,omitempty"`
}

// Validate decides whether a trace is consistent with human locomotion. All
// checks run; nothing short-circuits. The verdict is advisory: the caller
// picks the policy, the validator never mutates state.
func Validate(samples []Sample, cfg Config) Verdict {
	cfg = cfg.normalized()
	var issues []string

	issues = append(issues, instantSpeedIssues(samples, cfg)...)
	issues = append(issues, accuracyIssues(samples, cfg)...)
	issues = append(issues, teleportIssues(samples, cfg)...)
	issues = append(issues, aggregateSpeedIssues(samples, cfg)...)

	return Verdict{Valid: len(issues) == 0, Issues: issues}
}

// instantSpeedIssues counts samples moving above MaxSpeedMps, taking the
// larger of the provider-reported speed and the speed implied by the distance
// from the previous fix. The implied speed matters: a hop just above the limit
// but under the teleport and burst factors would otherwise pass unflagged.
func instantSpeedIssues(samples []Sample, cfg Config) []string {
	over := 0
	for i, s := range samples {
		speed := s.SpeedMps
		if i > 0 {
			elapsed := float64(s.TimestampMs-samples[i-1].TimestampMs) / 1000
			if elapsed > 0 {
				if implied := geo.DistanceM(samples[i-1].Point(), s.Point()) / elapsed; implied > speed {
					speed = implied
				}
			}
		}
		if speed > cfg.MaxSpeedMps {
			over++
		}
	}
	if over == 0 {
		return nil
	}
	ratio := float64(over) / float64(len(samples))
	return []string{fmt.Sprintf("%d of %d samples (%.0f%%) at reported or implied speed above %.1f m/s", over, len(samples), ratio*100, cfg.MaxSpeedMps)}
}

func accuracyIssues(samples []Sample, cfg Config) []string {
	if len(samples) == 0 {
		return nil
	}
	poor := 0
	for _, s := range samples {
		if s.AccuracyM > cfg.MaxAccuracyM {
			poor++
		}
	}
	if ratio := float64(poor) / float64(len(samples)); ratio > poorAccuracyRatio {
		return []string{fmt.Sprintf("poor GPS accuracy: %.0f%% of samples above %.0f m", ratio*100, cfg.MaxAccuracyM)}
	}
	return nil
}

func teleportIssues(samples []Sample, cfg Config) []string {
	var issues []string
	limit := cfg.MaxSpeedMps * teleportFactor
	for i := 1; i < len(samples); i++ {
		elapsed := float64(samples[i].TimestampMs-samples[i-1].TimestampMs) / 1000
		if elapsed <= 0 {
			continue
		}
		speed := geo.DistanceM(samples[i-1].Point(), samples[i].Point()) / elapsed
		if speed > limit {
			issues = append(issues, fmt.Sprintf("teleport at sample %d: implied speed %.1f m/s exceeds %.1f m/s", i, speed, limit))
		}
	}
	return issues
}

func aggregateSpeedIssues(samples []Sample, cfg Config) []string {
	if len(samples) < 2 {
		return nil
	}

	totalDist := 0.0
	maxSpeed := 0.0
	for i := 1; i < len(samples); i++ {
		d := geo.DistanceM(samples[i-1].Point(), samples[i].Point())
		totalDist += d
		elapsed := float64(samples[i].TimestampMs-samples[i-1].TimestampMs) / 1000
		if elapsed > 0 {
			if speed := d / elapsed; speed > maxSpeed {
				maxSpeed = speed
			}
		}
	}

	var issues []string
	totalElapsed := float64(samples[len(samples)-1].TimestampMs-samples[0].TimestampMs) / 1000
	if totalElapsed > 0 {
		if avg := totalDist / totalElapsed; avg > cfg.MaxSpeedMps {
			issues = append(issues, fmt.Sprintf("average speed %.1f m/s exceeds %.1f m/s", avg, cfg.MaxSpeedMps))
		}
	}
	if limit := cfg.MaxSpeedMps * burstFactor; maxSpeed > limit {
		issues = append(issues, fmt.Sprintf("maximum instantaneous speed %.1f m/s exceeds %.1f m/s", maxSpeed, limit))
	}
	return issues
}
