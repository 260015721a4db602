package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"wdedup/profile"
)

func writeRoot(t *testing.T, env *Env, id uint64, items []profile.Item) {
	t.Helper()
	w, err := env.OpenOutput(id)
	require.NoError(t, err)
	for _, it := range items {
		require.NoError(t, w.PushItem(it))
	}
	_, err = w.Close()
	require.NoError(t, err)
}

func TestFindFirstPicksSmallestOffset(t *testing.T) {
	env := openTestEnv(t, t.TempDir(), MinMemory)
	writeRoot(t, env, 3, []profile.Item{
		{Word: []byte("alpha"), Repeated: true},
		{Word: []byte("beta"), Occur: 90},
		{Word: []byte("gamma"), Occur: 12},
		{Word: []byte("zeta"), Repeated: true},
	})

	got, err := FindFirst(env, 3)
	require.NoError(t, err)
	require.Equal(t, "gamma", string(got))
}

func TestFindFirstAllRepeated(t *testing.T) {
	env := openTestEnv(t, t.TempDir(), MinMemory)
	writeRoot(t, env, 0, []profile.Item{
		{Word: []byte("aa"), Repeated: true},
		{Word: []byte("bb"), Repeated: true},
	})

	got, err := FindFirst(env, 0)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestFindFirstEmptyProfile(t *testing.T) {
	env := openTestEnv(t, t.TempDir(), MinMemory)
	writeRoot(t, env, 0, nil)

	got, err := FindFirst(env, 0)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestFindFirstIsRepeatable(t *testing.T) {
	env := openTestEnv(t, t.TempDir(), MinMemory)
	writeRoot(t, env, 1, []profile.Item{
		{Word: []byte("once"), Occur: 4},
	})

	for i := 0; i < 2; i++ {
		got, err := FindFirst(env, 1)
		require.NoError(t, err)
		require.Equal(t, "once", string(got))
	}
}
