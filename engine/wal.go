// Package engine drives the three pipeline stages — profiling, merging,
// find-first — over a shared working directory, with a write-ahead log
// that makes every stage restartable.
package engine

import (
	"encoding/binary"
	"errors"
	"fmt"

	"wdedup/fio"
)

// WAL record tags. Each record is one sync unit: it is staged in full and
// pushed to disk with a single write + fsync, so after a crash it is
// either wholly present or wholly absent.
const (
	tagVersion  byte = 'V' // <version string><0x00>, first record of a fresh log
	tagSegment  byte = 'S' // <start:u64><end:u64><size:u64>
	tagProfEnd  byte = 'P'
	tagMerge    byte = 'M' // <left:u64><right:u64><out:u64><size:u64>
	tagMergeEnd byte = 'E' // <root:u64>
)

// ErrLogCorrupt reports a recovery log that does not describe this run:
// an unknown record tag, a torn tail, or replayed values that disagree
// with the stage state. There is no auto-repair; the run aborts.
var ErrLogCorrupt = errors.New("recovery log corrupt")

// ErrVersionMismatch reports a log written by a different build.
var ErrVersionMismatch = errors.New("recovery log version mismatch")

type walRecord struct {
	Tag     byte
	Start   uint64 // tagSegment
	End     uint64
	Left    uint64 // tagMerge
	Right   uint64
	Out     uint64
	Size    uint64
	Root    uint64 // tagMergeEnd
	Version string // tagVersion
}

// walReader replays a log sequentially. next reports eof=true only at a
// record boundary; running dry mid-record is corruption.
type walReader struct {
	f *fio.SequentialFile
}

func (r *walReader) next() (rec walRecord, eof bool, err error) {
	if r.f.EOF() {
		return walRecord{}, true, nil
	}
	tag, err := r.f.ReadByte()
	if err != nil {
		return walRecord{}, false, r.corrupt(err)
	}
	rec.Tag = tag
	switch tag {
	case tagVersion:
		rec.Version, err = r.readString()
	case tagSegment:
		for _, fld := range []*uint64{&rec.Start, &rec.End, &rec.Size} {
			if *fld, err = r.readUint64(); err != nil {
				break
			}
		}
	case tagProfEnd:
		// no payload
	case tagMerge:
		for _, fld := range []*uint64{&rec.Left, &rec.Right, &rec.Out, &rec.Size} {
			if *fld, err = r.readUint64(); err != nil {
				break
			}
		}
	case tagMergeEnd:
		rec.Root, err = r.readUint64()
	default:
		return walRecord{}, false, r.corrupt(fmt.Errorf("unknown record tag %#x", tag))
	}
	if err != nil {
		return walRecord{}, false, err
	}
	return rec, false, nil
}

func (r *walReader) readUint64() (uint64, error) {
	var buf [8]byte
	if err := r.f.Read(buf[:]); err != nil {
		return 0, r.corrupt(err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func (r *walReader) readString() (string, error) {
	var out []byte
	for {
		b, err := r.f.ReadByte()
		if err != nil {
			return "", r.corrupt(err)
		}
		if b == 0 {
			return string(out), nil
		}
		out = append(out, b)
	}
}

func (r *walReader) corrupt(cause error) error {
	return fmt.Errorf("%w: %v", ErrLogCorrupt, cause)
}

func (r *walReader) close() error { return r.f.Close() }

// walWriter appends records, syncing after each so every record is its own
// sync unit. The staging writes cannot fail; Sync reports any I/O error.
type walWriter struct {
	f *fio.AppendFile
}

func (w *walWriter) appendVersion(version string) error {
	w.f.WriteByte(tagVersion)
	w.f.Write([]byte(version))
	w.f.WriteByte(0)
	return w.f.Sync()
}

// appendSegment carries the profile's physical size so a replay can
// rebuild the planner's inputs even after the file itself is collected.
func (w *walWriter) appendSegment(start, end, size uint64) error {
	w.f.WriteByte(tagSegment)
	w.f.WriteUint64(start)
	w.f.WriteUint64(end)
	w.f.WriteUint64(size)
	return w.f.Sync()
}

func (w *walWriter) appendProfEnd() error {
	w.f.WriteByte(tagProfEnd)
	return w.f.Sync()
}

func (w *walWriter) appendMerge(left, right, out, size uint64) error {
	w.f.WriteByte(tagMerge)
	w.f.WriteUint64(left)
	w.f.WriteUint64(right)
	w.f.WriteUint64(out)
	w.f.WriteUint64(size)
	return w.f.Sync()
}

func (w *walWriter) appendMergeEnd(root uint64) error {
	w.f.WriteByte(tagMergeEnd)
	w.f.WriteUint64(root)
	return w.f.Sync()
}

func (w *walWriter) close() error { return w.f.Close() }
