package engine

import (
	"errors"
	"os"
	"syscall"

	"wdedup/fio"
	"wdedup/word"
)

// ErrInsufficientMemory means a single word did not fit an empty arena.
// There is no way to make progress; the user must rerun with a larger
// --memory-size.
var ErrInsufficientMemory = errors.New("working memory too small for a single word; rerun with a larger --memory-size")

// Segment describes one leaf profile run: the id it is filed under, the
// inclusive input byte range [Start,End] it covers, and the physical size
// of the profile file it produced.
type Segment struct {
	ID    uint64
	Start uint64
	End   uint64
	Size  uint64
}

// Profile scans the input once in bounded memory and produces a contiguous
// sequence of sorted, deduplicated leaf segments, terminating the WAL with
// a wprof.end record. Replay of an existing log re-validates and skips
// work already on disk; a log that already ends the stage makes this a
// pure no-op returning the recorded segments.
func Profile(env *Env, inputPath string) ([]Segment, error) {
	var segs []Segment
	expected := uint64(0)

	if !env.recovered {
	replay:
		for {
			rec, eof, err := env.ilog.next()
			if err != nil {
				return nil, err
			}
			if eof {
				if err := env.RecoveryDone(); err != nil {
					return nil, err
				}
				break replay
			}
			switch rec.Tag {
			case tagSegment:
				if rec.Start != expected {
					return nil, env.LogCorrupt()
				}
				id := uint64(len(segs))
				segs = append(segs, Segment{ID: id, Start: rec.Start, End: rec.End, Size: rec.Size})
				expected = rec.End + 1
			case tagProfEnd:
				env.log.Debug().Int("segments", len(segs)).Msg("wprof already complete, skipping")
				return segs, nil
			default:
				return nil, env.LogCorrupt()
			}
		}
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, &fio.Error{Path: inputPath, Role: "input", Err: err}
	}
	if !info.Mode().IsRegular() {
		errno := syscall.EINVAL
		if info.IsDir() {
			errno = syscall.EISDIR
		}
		return nil, &fio.Error{Path: inputPath, Role: "input", Err: errno}
	}
	if uint64(info.Size()) < expected {
		// The log claims more input than the file holds.
		return nil, env.LogCorrupt()
	}

	in, err := fio.OpenSequential(inputPath, "input", expected)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	tk := &tokenizer{f: in}
	arena := word.NewArena(env.mem)
	var carry []byte
	var carryOff uint64
	haveCarry := false
	segStart := expected

	for {
		pool := word.NewPool(arena)
		if haveCarry {
			if !pool.Insert(carry, carryOff) {
				return nil, ErrInsufficientMemory
			}
			haveCarry = false
		}

		var prevOff uint64
		atEOF := false
		for {
			tok, off, err := tk.next()
			if err != nil {
				return nil, err
			}
			if tok == nil {
				prevOff = in.Tell()
				atEOF = true
				break
			}
			if !pool.Insert(tok, off) {
				if pool.Len() == 0 {
					return nil, ErrInsufficientMemory
				}
				// Resume here next iteration; this token belongs to the
				// next segment.
				carry = append(carry[:0], tok...)
				carryOff = off
				haveCarry = true
				prevOff = off
				break
			}
		}

		if pool.Len() > 0 {
			id := uint64(len(segs))
			out, err := env.OpenOutput(id)
			if err != nil {
				return nil, err
			}
			size, err := pourSegment(pool, out)
			if err != nil {
				return nil, err
			}
			if err := env.olog.appendSegment(segStart, prevOff-1, size); err != nil {
				return nil, err
			}
			segs = append(segs, Segment{ID: id, Start: segStart, End: prevOff - 1, Size: size})
			segmentsPoured.Inc()
			profileBytesWritten.Add(float64(size))
			env.log.Debug().
				Uint64("segment", id).
				Uint64("start", segStart).
				Uint64("end", prevOff-1).
				Uint64("size", size).
				Msg("segment poured")
			segStart = prevOff
		}
		if atEOF {
			break
		}
	}

	if err := env.olog.appendProfEnd(); err != nil {
		return nil, err
	}
	env.log.Info().Int("segments", len(segs)).Msg("wprof done")
	return segs, nil
}

func pourSegment(pool *word.Pool, out interface {
	word.Sink
	Close() (uint64, error)
}) (uint64, error) {
	if err := pool.Pour(out); err != nil {
		out.Close()
		return 0, err
	}
	return out.Close()
}

// tokenizer yields whitespace-delimited tokens with the input offset of
// each token's first byte. Tokens that fit inside the read buffer are
// returned in place; only tokens spanning a buffer boundary are copied
// into the reusable scratch. Either way the slice is valid until the next
// call.
type tokenizer struct {
	f       *fio.SequentialFile
	scratch []byte
}

// next returns (nil, 0, nil) at end of input.
func (t *tokenizer) next() ([]byte, uint64, error) {
	for {
		if t.f.EOF() {
			return nil, 0, nil
		}
		win, err := t.f.Buffer()
		if err != nil {
			return nil, 0, err
		}
		i := 0
		for i < len(win) && isSpace(win[i]) {
			i++
		}
		t.f.Skip(i)
		if i < len(win) {
			break
		}
	}

	off := t.f.Tell()
	t.scratch = t.scratch[:0]
	first := true
	for {
		if t.f.EOF() {
			break
		}
		win, err := t.f.Buffer()
		if err != nil {
			return nil, 0, err
		}
		i := 0
		for i < len(win) && !isSpace(win[i]) {
			i++
		}
		if first && i < len(win) {
			tok := win[:i]
			t.f.Skip(i)
			return tok, off, nil
		}
		t.scratch = append(t.scratch, win[:i]...)
		t.f.Skip(i)
		first = false
		if i < len(win) {
			break
		}
	}
	return t.scratch, off, nil
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}
