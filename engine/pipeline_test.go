package engine

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// runPipeline drives all three stages on the run's env and returns the
// result word, "" when no singleton exists.
func runPipeline(t *testing.T, r *testRun, plannerName string) string {
	t.Helper()
	segs, err := Profile(r.env, r.input)
	require.NoError(t, err)
	if len(segs) == 0 {
		return ""
	}
	var planner Planner
	if plannerName == "simple" {
		planner = NewSimplePlanner(segs)
	} else {
		planner = NewDPPlanner(segs)
	}
	root, err := Merge(r.env, segs, planner, true)
	require.NoError(t, err)
	w, err := FindFirst(r.env, root)
	require.NoError(t, err)
	return string(w)
}

func TestPipelineFirstSingleton(t *testing.T) {
	// apple repeats; banana at offset 6 beats cherry at 19.
	r := newTestRun(t, "apple banana apple cherry", 1<<20)
	require.Equal(t, "banana", runPipeline(t, r, "dp"))
}

func TestPipelineAllRepeated(t *testing.T) {
	r := newTestRun(t, "a a a a a", 1<<20)
	require.Equal(t, "", runPipeline(t, r, "dp"))
}

func TestPipelineEmptyInput(t *testing.T) {
	r := newTestRun(t, "", 1<<20)
	require.Equal(t, "", runPipeline(t, r, "dp"))
}

func TestPipelineAllSingletons(t *testing.T) {
	// Offset order wins, not lexicographic order.
	r := newTestRun(t, "z y x w", 1<<20)
	require.Equal(t, "z", runPipeline(t, r, "simple"))
}

func TestPipelineTwoSegmentRepeat(t *testing.T) {
	// 10000 distinct words, then one repeat of the 5000th; the memory
	// size makes wprof split the input into exactly two segments, so the
	// duplicate pair lands in different leaves and only the merge can
	// discover it.
	var sb strings.Builder
	for i := 0; i < 10000; i++ {
		fmt.Fprintf(&sb, "w%04d ", i)
	}
	sb.WriteString("w4999")
	r := newTestRun(t, sb.String(), 5100*24)

	segs, err := Profile(r.env, r.input)
	require.NoError(t, err)
	require.Len(t, segs, 2)

	root, err := Merge(r.env, segs, NewDPPlanner(segs), true)
	require.NoError(t, err)
	w, err := FindFirst(r.env, root)
	require.NoError(t, err)
	require.Equal(t, "w0000", string(w))
}

func TestPipelineRestartIsIdempotent(t *testing.T) {
	input := manyWords(600) + " w0123 w0200 w0200"
	r := newTestRun(t, input, MinMemory)
	first := runPipeline(t, r, "simple")

	// Full rerun over the finished working directory: pure replay.
	r.reopen(t, MinMemory)
	require.Equal(t, first, runPipeline(t, r, "simple"))

	// And once more; the log must still validate.
	r.reopen(t, MinMemory)
	require.Equal(t, first, runPipeline(t, r, "simple"))
}

func TestPipelinePlannersAgree(t *testing.T) {
	input := manyWords(600) + " w0007 extra w0300 w0300"
	a := newTestRun(t, input, MinMemory)
	b := newTestRun(t, input, MinMemory)
	require.Equal(t, runPipeline(t, a, "simple"), runPipeline(t, b, "dp"))
}

func TestPipelineLastTokenAtEOF(t *testing.T) {
	// No trailing whitespace: the final token ends exactly at EOF.
	r := newTestRun(t, "alpha beta alpha", 1<<20)
	require.Equal(t, "beta", runPipeline(t, r, "dp"))
}
