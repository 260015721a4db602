package fio

import (
	"bufio"
	"io"
	"os"
)

// pageSize is the read/write buffer granularity for all files in the
// working set. One page per open file keeps the resident footprint flat no
// matter how many runs a merge touches.
const pageSize = 4096

// SequentialFile is a read-only, forward-only view of a file starting at a
// fixed offset. It exposes the buffered window directly so callers can
// tokenize in place without copying short words.
type SequentialFile struct {
	f    *os.File
	r    *bufio.Reader
	pos  uint64 // absolute offset of the next unread byte
	path string
	role string
}

// OpenSequential opens path read-only, seeks to start, and advises the OS
// of sequential access.
func OpenSequential(path, role string, start uint64) (*SequentialFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrap(err, path, role)
	}
	if start != 0 {
		if _, err := f.Seek(int64(start), io.SeekStart); err != nil {
			f.Close()
			return nil, wrap(err, path, role)
		}
	}
	adviseSequential(f)
	return &SequentialFile{
		f:    f,
		r:    bufio.NewReaderSize(f, pageSize),
		pos:  start,
		path: path,
		role: role,
	}, nil
}

// Tell returns the absolute offset of the next unread byte.
func (s *SequentialFile) Tell() uint64 { return s.pos }

// EOF reports whether no further byte is available. It may read one buffer
// ahead to find out.
func (s *SequentialFile) EOF() bool {
	_, err := s.r.Peek(1)
	return err == io.EOF
}

// Read fills buf completely or fails. Running out of bytes mid-read is
// ErrPrematureEOF: the caller asked for data the file format promised.
func (s *SequentialFile) Read(buf []byte) error {
	n, err := io.ReadFull(s.r, buf)
	s.pos += uint64(n)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return wrap(ErrPrematureEOF, s.path, s.role)
	}
	return wrap(err, s.path, s.role)
}

// ReadByte consumes and returns one byte.
func (s *SequentialFile) ReadByte() (byte, error) {
	b, err := s.r.ReadByte()
	if err == io.EOF {
		return 0, wrap(ErrPrematureEOF, s.path, s.role)
	}
	if err != nil {
		return 0, wrap(err, s.path, s.role)
	}
	s.pos++
	return b, nil
}

// Buffer returns the currently buffered, unconsumed bytes without copying.
// The slice is invalidated by the next Buffer, Skip, Read, or ReadByte
// call. At EOF it fails with ErrPrematureEOF.
func (s *SequentialFile) Buffer() ([]byte, error) {
	if _, err := s.r.Peek(1); err != nil {
		if err == io.EOF {
			return nil, wrap(ErrPrematureEOF, s.path, s.role)
		}
		return nil, wrap(err, s.path, s.role)
	}
	buf, err := s.r.Peek(s.r.Buffered())
	if err != nil {
		return nil, wrap(err, s.path, s.role)
	}
	return buf, nil
}

// Skip consumes n bytes of the last Buffer window. n must not exceed the
// window length.
func (s *SequentialFile) Skip(n int) {
	discarded, _ := s.r.Discard(n)
	s.pos += uint64(discarded)
}

func (s *SequentialFile) Close() error {
	return wrap(s.f.Close(), s.path, s.role)
}
