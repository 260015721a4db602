package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline counters. There is no exposition endpoint in the CLI; the
// counters exist for embedding and for tests that assert on stage
// behavior (segments poured, merges run, bytes written).
var (
	segmentsPoured = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wdedup",
		Subsystem: "wprof",
		Name:      "segments_poured_total",
		Help:      "Leaf profile segments written by the profiler.",
	})
	mergesDone = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wdedup",
		Subsystem: "wmerge",
		Name:      "merges_total",
		Help:      "Pairwise merges executed (replayed merges excluded).",
	})
	profileBytesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wdedup",
		Name:      "profile_bytes_written_total",
		Help:      "Bytes of profile data written across all stages.",
	})
)
