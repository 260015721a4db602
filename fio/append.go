package fio

import (
	"bufio"
	"encoding/binary"
	"os"
)

// AppendFile is a write-only, append-only file in one of two modes.
//
// Buffer mode batches writes through a page-sized buffer; Tell reports the
// logical size including bytes not yet flushed. Log mode stages writes in
// an unbounded buffer and pushes the whole stage to disk in a single write
// followed by fsync on Sync; Tell advances only at Sync. The log mode
// write-then-fsync discipline is what makes a staged record group appear on
// disk entirely or not at all after a crash.
type AppendFile struct {
	f       *os.File
	w       *bufio.Writer // buffer mode
	staged  []byte        // log mode
	logMode bool
	pos     uint64
	path    string
	role    string
}

// OpenAppend opens path for appending in buffer mode, creating it if
// needed.
func OpenAppend(path, role string) (*AppendFile, error) {
	return openAppend(path, role, false)
}

// OpenLog opens path for appending in log mode, creating it if needed.
func OpenLog(path, role string) (*AppendFile, error) {
	return openAppend(path, role, true)
}

func openAppend(path, role string, logMode bool) (*AppendFile, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, wrap(err, path, role)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, wrap(err, path, role)
	}
	a := &AppendFile{
		f:       f,
		logMode: logMode,
		pos:     uint64(info.Size()),
		path:    path,
		role:    role,
	}
	if !logMode {
		a.w = bufio.NewWriterSize(f, pageSize)
	}
	return a, nil
}

// Tell returns the logical byte count: in buffer mode all written bytes, in
// log mode only bytes made durable by Sync.
func (a *AppendFile) Tell() uint64 { return a.pos }

func (a *AppendFile) Write(p []byte) error {
	if a.logMode {
		a.staged = append(a.staged, p...)
		return nil
	}
	n, err := a.w.Write(p)
	a.pos += uint64(n)
	return wrap(err, a.path, a.role)
}

func (a *AppendFile) WriteByte(b byte) error {
	if a.logMode {
		a.staged = append(a.staged, b)
		return nil
	}
	if err := a.w.WriteByte(b); err != nil {
		return wrap(err, a.path, a.role)
	}
	a.pos++
	return nil
}

// WriteUint64 appends v as a fixed-width little-endian integer.
func (a *AppendFile) WriteUint64(v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return a.Write(buf[:])
}

// Sync makes everything written so far durable. In log mode the staged
// bytes go out in one write syscall before the fsync.
func (a *AppendFile) Sync() error {
	if a.logMode {
		if len(a.staged) > 0 {
			n, err := a.f.Write(a.staged)
			if err != nil {
				return wrap(err, a.path, a.role)
			}
			a.pos += uint64(n)
			a.staged = a.staged[:0]
		}
	} else {
		if err := a.w.Flush(); err != nil {
			return wrap(err, a.path, a.role)
		}
	}
	return wrap(a.f.Sync(), a.path, a.role)
}

// Close releases the handle. Buffered bytes are flushed first; log-mode
// staged bytes that were never synced are discarded, which is exactly the
// durability contract a recovery log wants.
func (a *AppendFile) Close() error {
	if !a.logMode {
		if err := a.w.Flush(); err != nil {
			a.f.Close()
			return wrap(err, a.path, a.role)
		}
	}
	return wrap(a.f.Close(), a.path, a.role)
}
