package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"wdedup/profile"
)

func nopLogger() zerolog.Logger { return zerolog.Nop() }

// testRun bundles an env with the paths tests keep poking at.
type testRun struct {
	dir   string
	input string
	env   *Env
}

func newTestRun(t *testing.T, input string, memSize int) *testRun {
	t.Helper()
	base := t.TempDir()
	inputPath := filepath.Join(base, "input.txt")
	require.NoError(t, os.WriteFile(inputPath, []byte(input), 0644))
	workdir := filepath.Join(base, "work")
	require.NoError(t, os.Mkdir(workdir, 0755))
	return &testRun{dir: workdir, input: inputPath, env: openTestEnv(t, workdir, memSize)}
}

func openTestEnv(t *testing.T, dir string, memSize int) *Env {
	t.Helper()
	env, err := OpenEnv(dir, memSize, false, nopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { env.Close() })
	return env
}

// reopen simulates a restart: the env is closed and a fresh one replays
// the log in the same working directory.
func (r *testRun) reopen(t *testing.T, memSize int) {
	t.Helper()
	require.NoError(t, r.env.Close())
	r.env = openTestEnv(t, r.dir, memSize)
}

func readSegment(t *testing.T, env *Env, id uint64) []profile.Item {
	t.Helper()
	r, err := env.OpenInput(id)
	require.NoError(t, err)
	defer r.Close()
	var out []profile.Item
	for !r.Empty() {
		it, err := r.Pop()
		require.NoError(t, err)
		out = append(out, profile.Item{
			Word:     append([]byte(nil), it.Word...),
			Repeated: it.Repeated,
			Occur:    it.Occur,
		})
	}
	return out
}

func segmentExists(t *testing.T, env *Env, id uint64) bool {
	t.Helper()
	_, err := os.Stat(env.segPath(id))
	if err == nil {
		return true
	}
	require.True(t, os.IsNotExist(err))
	return false
}
