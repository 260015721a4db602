package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"wdedup/fio"
)

func writeProfile(t *testing.T, items []Item) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "0")
	f, err := fio.OpenAppend(path, "profile")
	require.NoError(t, err)
	w := NewWriter(f)
	for _, it := range items {
		require.NoError(t, w.PushItem(it))
	}
	size, err := w.Close()
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(size), info.Size())
	return path
}

func openReader(t *testing.T, path string) *Reader {
	t.Helper()
	f, err := fio.OpenSequential(path, "profile", 0)
	require.NoError(t, err)
	r, err := NewReader(f)
	require.NoError(t, err)
	return r
}

func TestRoundtrip(t *testing.T) {
	items := []Item{
		{Word: []byte("apple"), Repeated: true},
		{Word: []byte("banana"), Occur: 6},
		{Word: []byte("cherry"), Occur: 19},
	}
	r := openReader(t, writeProfile(t, items))
	defer r.Close()

	for _, want := range items {
		require.False(t, r.Empty())
		head := r.Peek()
		require.Equal(t, string(want.Word), string(head.Word))
		got, err := r.Pop()
		require.NoError(t, err)
		require.Equal(t, string(want.Word), string(got.Word))
		require.Equal(t, want.Repeated, got.Repeated)
		if !want.Repeated {
			require.Equal(t, want.Occur, got.Occur)
		}
	}
	require.True(t, r.Empty())
}

func TestPopKeepsWordValidAcrossRefill(t *testing.T) {
	items := []Item{
		{Word: []byte("first"), Occur: 1},
		{Word: []byte("second"), Occur: 2},
	}
	r := openReader(t, writeProfile(t, items))
	defer r.Close()

	got, err := r.Pop()
	require.NoError(t, err)
	// The refill for "second" already happened; "first" must survive it.
	require.Equal(t, "first", string(got.Word))
	require.Equal(t, "second", string(r.Peek().Word))
}

func TestEmptyProfile(t *testing.T) {
	r := openReader(t, writeProfile(t, nil))
	defer r.Close()
	require.True(t, r.Empty())
}

func TestSingletonFilter(t *testing.T) {
	items := []Item{
		{Word: []byte("aa"), Repeated: true},
		{Word: []byte("bb"), Occur: 5},
		{Word: []byte("cc"), Repeated: true},
		{Word: []byte("dd"), Repeated: true},
		{Word: []byte("ee"), Occur: 9},
	}
	path := writeProfile(t, items)
	f, err := fio.OpenSequential(path, "profile", 0)
	require.NoError(t, err)
	r, err := NewReader(f)
	require.NoError(t, err)
	s, err := NewSingletonReader(r)
	require.NoError(t, err)
	defer s.Close()

	var got []string
	for !s.Empty() {
		it, err := s.Pop()
		require.NoError(t, err)
		require.False(t, it.Repeated)
		got = append(got, string(it.Word))
	}
	require.Equal(t, []string{"bb", "ee"}, got)
}

func TestSingletonFilterAllRepeated(t *testing.T) {
	items := []Item{
		{Word: []byte("aa"), Repeated: true},
		{Word: []byte("bb"), Repeated: true},
	}
	path := writeProfile(t, items)
	f, err := fio.OpenSequential(path, "profile", 0)
	require.NoError(t, err)
	r, err := NewReader(f)
	require.NoError(t, err)
	s, err := NewSingletonReader(r)
	require.NoError(t, err)
	defer s.Close()
	require.True(t, s.Empty())
}

func TestCorruptTruncatedRecord(t *testing.T) {
	path := writeProfile(t, []Item{{Word: []byte("whole"), Occur: 3}})
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// Chop into the occur field.
	require.NoError(t, os.WriteFile(path, data[:len(data)-4], 0644))

	f, err := fio.OpenSequential(path, "profile", 0)
	require.NoError(t, err)
	defer f.Close()
	_, err = NewReader(f)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestCorruptBadFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "0")
	require.NoError(t, os.WriteFile(path, []byte("word\x00\x07"), 0644))

	f, err := fio.OpenSequential(path, "profile", 0)
	require.NoError(t, err)
	defer f.Close()
	_, err = NewReader(f)
	require.ErrorIs(t, err, ErrCorrupt)
}
