// Package profile reads and writes profile files: sorted, deduplicated
// streams of (word, repeated, occur) records.
//
// Record encoding: the word bytes, a NUL terminator, one flag byte; flag 0
// (singleton) is followed by the first-occurrence offset as a fixed-width
// little-endian integer, flag 1 (repeated) by nothing.
package profile

import (
	"errors"

	"wdedup/fio"
)

// ErrCorrupt reports a malformed profile file.
var ErrCorrupt = errors.New("profile corrupt")

const (
	flagSingleton = 0
	flagRepeated  = 1
)

// Item is one profile record. Occur is meaningful only when Repeated is
// false.
type Item struct {
	Word     []byte
	Repeated bool
	Occur    uint64
}

// Writer appends profile records to an output file. Records must arrive in
// strictly increasing word order; the writer trusts its callers on that.
type Writer struct {
	f *fio.AppendFile
}

func NewWriter(f *fio.AppendFile) *Writer {
	return &Writer{f: f}
}

// Push appends one record. It satisfies word.Sink.
func (w *Writer) Push(wordBytes []byte, repeated bool, occur uint64) error {
	if err := w.f.Write(wordBytes); err != nil {
		return err
	}
	if err := w.f.WriteByte(0); err != nil {
		return err
	}
	if repeated {
		return w.f.WriteByte(flagRepeated)
	}
	if err := w.f.WriteByte(flagSingleton); err != nil {
		return err
	}
	return w.f.WriteUint64(occur)
}

// PushItem appends it as one record.
func (w *Writer) PushItem(it Item) error {
	return w.Push(it.Word, it.Repeated, it.Occur)
}

// Close syncs and releases the file, returning its final size in bytes.
func (w *Writer) Close() (uint64, error) {
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return 0, err
	}
	size := w.f.Tell()
	return size, w.f.Close()
}
