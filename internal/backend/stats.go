package backend

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at         time.Time
	path       string
	durationMs int64
	failed     bool
}

// StatsSnapshot aggregates backend call latency over the rolling window.
type StatsSnapshot struct {
	Count  int     `json:"count"`
	Failed int     `json:"failed"`
	MinMs  int64   `json:"min_ms"`
	MaxMs  int64   `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

// Report is the overall snapshot plus one per request path.
type Report struct {
	StatsSnapshot
	Paths map[string]StatsSnapshot `json:"paths,omitempty"`
}

// LatencyStats tracks recent backend call latencies.
type LatencyStats struct {
	mu      sync.Mutex
	samples []sample
	maxAge  time.Duration
}

func NewLatencyStats(maxAge time.Duration) *LatencyStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &LatencyStats{samples: make([]sample, 0, 256), maxAge: maxAge}
}

// Record adds one call. failed marks transport errors and 5xx replies.
func (s *LatencyStats) Record(path string, durationMs int64, failed bool) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(now)
	s.samples = append(s.samples, sample{at: now, path: path, durationMs: max(durationMs, 0), failed: failed})
}

// Snapshot returns the aggregate over every path.
func (s *LatencyStats) Snapshot() StatsSnapshot {
	return s.Report().StatsSnapshot
}

// Report returns the aggregate and the per-path breakdown.
func (s *LatencyStats) Report() Report {
	now := time.Now()
	s.mu.Lock()
	s.pruneLocked(now)
	live := slices.Clone(s.samples)
	s.mu.Unlock()

	rep := Report{StatsSnapshot: summarize(live)}
	if len(live) == 0 {
		return rep
	}
	byPath := make(map[string][]sample)
	for _, sm := range live {
		byPath[sm.path] = append(byPath[sm.path], sm)
	}
	rep.Paths = make(map[string]StatsSnapshot, len(byPath))
	for p, ss := range byPath {
		rep.Paths[p] = summarize(ss)
	}
	return rep
}

func summarize(samples []sample) StatsSnapshot {
	if len(samples) == 0 {
		return StatsSnapshot{}
	}
	values := make([]int64, 0, len(samples))
	var sum int64
	failed := 0
	for _, sm := range samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
		if sm.failed {
			failed++
		}
	}
	slices.Sort(values)
	return StatsSnapshot{
		Count:  len(values),
		Failed: failed,
		MinMs:  values[0],
		MaxMs:  values[len(values)-1],
		AvgMs:  float64(sum) / float64(len(values)),
		P50Ms:  percentile(values, 50),
		P95Ms:  percentile(values, 95),
		P99Ms:  percentile(values, 99),
	}
}

func (s *LatencyStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	s.samples = slices.DeleteFunc(s.samples, func(sm sample) bool { return sm.at.Before(cutoff) })
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + float64(sorted[lo+1]-sorted[lo])*frac
}
