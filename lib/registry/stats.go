package registry

import (
	gometrics "github.com/rcrowley/go-metrics"
)

var statNames = []string{"reads", "writes", "scans", "batches", "misses"}

// Stats counts the operations executed against one database.
// The counters live in the registry's metrics registry under "db.<uid>.<name>".
type Stats struct {
	Reads   gometrics.Counter
	Writes  gometrics.Counter
	Scans   gometrics.Counter
	Batches gometrics.Counter
	Misses  gometrics.Counter

	// ValueSizes holds the sizes of all values written since the database was loaded
	ValueSizes *SizeHistogram
}

func newStats(r gometrics.Registry, uid string) *Stats {
	return &Stats{
		Reads:   gometrics.GetOrRegisterCounter(statKey(uid, "reads"), r),
		Writes:  gometrics.GetOrRegisterCounter(statKey(uid, "writes"), r),
		Scans:   gometrics.GetOrRegisterCounter(statKey(uid, "scans"), r),
		Batches: gometrics.GetOrRegisterCounter(statKey(uid, "batches"), r),
		Misses:  gometrics.GetOrRegisterCounter(statKey(uid, "misses"), r),

		ValueSizes: NewSizeHistogram(),
	}
}

// Snapshot returns the current counter values keyed by stat name
func (s *Stats) Snapshot() map[string]int64 {
	return map[string]int64{
		"reads":   s.Reads.Count(),
		"writes":  s.Writes.Count(),
		"scans":   s.Scans.Count(),
		"batches": s.Batches.Count(),
		"misses":  s.Misses.Count(),

		"value_size_avg": s.ValueSizes.Average(),
		"value_size_p50": s.ValueSizes.Percentile(50),
		"value_size_p99": s.ValueSizes.Percentile(99),
	}
}

func unregisterStats(r gometrics.Registry, uid string) {
	for _, name := range statNames {
		r.Unregister(statKey(uid, name))
	}
}

func statKey(uid, name string) string {
	return "db." + uid + "." + name
}
