package stats

import (
	"sort"
	"time"

	"github.com/studiowebux/loadgrid/internal/grid"
)

// LatencySummary aggregates the recorded durations of terminal slots
type LatencySummary struct {
	Samples int
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	P50     time.Duration
	P95     time.Duration
	P99     time.Duration
}

// Latencies computes a latency summary over every terminal slot in the
// snapshot. Returns a zero summary when no request has finished yet.
func Latencies(snap []grid.Slot) LatencySummary {
	durations := make([]time.Duration, 0, len(snap))
	var total time.Duration
	for _, s := range snap {
		if !s.State.Terminal() {
			continue
		}
		durations = append(durations, s.Latency)
		total += s.Latency
	}
	if len(durations) == 0 {
		return LatencySummary{}
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	return LatencySummary{
		Samples: len(durations),
		Min:     durations[0],
		Max:     durations[len(durations)-1],
		Avg:     total / time.Duration(len(durations)),
		P50:     percentile(durations, 50),
		P95:     percentile(durations, 95),
		P99:     percentile(durations, 99),
	}
}

// percentile interpolates linearly between the two nearest ranks.
// durations must be sorted and non-empty.
func percentile(durations []time.Duration, p float64) time.Duration {
	index := (p / 100.0) * float64(len(durations)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(durations) {
		return durations[len(durations)-1]
	}
	weight := index - float64(lower)
	return time.Duration(float64(durations[lower])*(1-weight) + float64(durations[upper])*weight)
}
