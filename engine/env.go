package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"wdedup/fio"
	"wdedup/profile"
)

// Version is the build tag stored as the first record of a fresh recovery
// log. A log carrying a different tag belongs to another build and must
// not be replayed.
const Version = "20250601.0001"

// MinMemory is the smallest usable working-memory size in bytes.
const MinMemory = 4096

const logName = "log"

// Env is the run environment shared by all stages: the working directory,
// the working-memory region, and the single recovery log. It starts in
// replay mode when a prior log exists; a stage that exhausts the log calls
// RecoveryDone to flip it to append mode, and from then on the run is
// live.
type Env struct {
	dir       string
	mem       mmap.MMap
	pinned    bool
	ilog      *walReader
	olog      *walWriter
	recovered bool
	log       zerolog.Logger
}

// OpenEnv maps memSize bytes of working memory (optionally page-pinned)
// and opens or creates the recovery log inside dir. dir must already
// exist and be a directory.
func OpenEnv(dir string, memSize int, pinned bool, logger zerolog.Logger) (*Env, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &fio.Error{Path: dir, Role: "workdir", Err: err}
	}
	if !info.IsDir() {
		return nil, &fio.Error{Path: dir, Role: "workdir", Err: syscall.ENOTDIR}
	}
	if memSize < MinMemory {
		return nil, fmt.Errorf("working memory %d below minimum %d", memSize, MinMemory)
	}

	mem, err := mmap.MapRegion(nil, memSize, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, errors.Wrap(err, "map working memory")
	}
	if pinned {
		if err := pinMemory(mem); err != nil {
			mem.Unmap()
			return nil, errors.Wrap(err, "pin working memory")
		}
	}

	e := &Env{dir: dir, mem: mem, pinned: pinned, log: logger}
	logPath := filepath.Join(dir, logName)
	logInfo, err := os.Stat(logPath)
	switch {
	case os.IsNotExist(err) || (err == nil && logInfo.Size() == 0):
		// Fresh run: open in append mode and stamp the version.
		out, err := fio.OpenLog(logPath, "log")
		if err != nil {
			e.release()
			return nil, err
		}
		e.olog = &walWriter{f: out}
		e.recovered = true
		if err := e.olog.appendVersion(Version); err != nil {
			e.Close()
			return nil, err
		}
	case err != nil:
		e.release()
		return nil, &fio.Error{Path: logPath, Role: "log", Err: err}
	default:
		in, err := fio.OpenSequential(logPath, "log", 0)
		if err != nil {
			e.release()
			return nil, err
		}
		e.ilog = &walReader{f: in}
		rec, eof, err := e.ilog.next()
		if err != nil {
			e.Close()
			return nil, err
		}
		if eof || rec.Tag != tagVersion {
			e.Close()
			return nil, e.LogCorrupt()
		}
		if rec.Version != Version {
			e.Close()
			return nil, errors.Wrapf(ErrVersionMismatch, "log %q, build %q", rec.Version, Version)
		}
		e.log.Info().Str("workdir", dir).Msg("replaying recovery log")
	}
	return e, nil
}

// Recovered reports whether log replay has finished and the log is open
// for appending.
func (e *Env) Recovered() bool { return e.recovered }

// RecoveryDone closes the replay log and reopens it for appending. Stages
// call it the moment replay runs dry.
func (e *Env) RecoveryDone() error {
	if e.recovered {
		return nil
	}
	if err := e.ilog.close(); err != nil {
		return err
	}
	e.ilog = nil
	out, err := fio.OpenLog(filepath.Join(e.dir, logName), "log")
	if err != nil {
		return err
	}
	e.olog = &walWriter{f: out}
	e.recovered = true
	return nil
}

// LogCorrupt returns the standard log-corruption failure for this run.
func (e *Env) LogCorrupt() error {
	return errors.Wrap(ErrLogCorrupt, filepath.Join(e.dir, logName))
}

// Workmem returns the working-memory region.
func (e *Env) Workmem() []byte { return e.mem }

func (e *Env) segPath(id uint64) string {
	return filepath.Join(e.dir, strconv.FormatUint(id, 10))
}

// OpenOutput creates a profile writer for segment id, replacing any
// leftover file of that name from an interrupted run.
func (e *Env) OpenOutput(id uint64) (*profile.Writer, error) {
	if err := e.Remove(id); err != nil {
		return nil, err
	}
	f, err := fio.OpenAppend(e.segPath(id), "profile")
	if err != nil {
		return nil, err
	}
	return profile.NewWriter(f), nil
}

// OpenInput opens segment id for sequential reading.
func (e *Env) OpenInput(id uint64) (*profile.Reader, error) {
	f, err := fio.OpenSequential(e.segPath(id), "profile", 0)
	if err != nil {
		return nil, err
	}
	return profile.NewReader(f)
}

// OpenSingletonInput opens segment id with repeated records filtered out.
func (e *Env) OpenSingletonInput(id uint64) (*profile.SingletonReader, error) {
	r, err := e.OpenInput(id)
	if err != nil {
		return nil, err
	}
	return profile.NewSingletonReader(r)
}

// Remove deletes segment id's file. A file that is already gone is fine.
func (e *Env) Remove(id uint64) error {
	err := os.Remove(e.segPath(id))
	if err != nil && !os.IsNotExist(err) {
		return &fio.Error{Path: e.segPath(id), Role: "profile", Err: err}
	}
	return nil
}

// Close releases the log and the working-memory region.
func (e *Env) Close() error {
	var first error
	if e.ilog != nil {
		first = e.ilog.close()
		e.ilog = nil
	}
	if e.olog != nil {
		if err := e.olog.close(); err != nil && first == nil {
			first = err
		}
		e.olog = nil
	}
	if err := e.release(); err != nil && first == nil {
		first = err
	}
	return first
}

func (e *Env) release() error {
	if e.mem == nil {
		return nil
	}
	if e.pinned {
		_ = unpinMemory(e.mem)
	}
	err := e.mem.Unmap()
	e.mem = nil
	return err
}
