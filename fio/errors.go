package fio

import (
	"errors"
	"fmt"
	"syscall"
)

var ErrPrematureEOF = errors.New("premature end of file")

// Error decorates an underlying I/O failure with the file path and the role
// the file plays in the pipeline ("input", "log", "profile", ...). The role
// is what the operator sees on stderr, so it names the artifact, not the
// syscall.
type Error struct {
	Path string
	Role string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Path, e.Role, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Errno extracts the underlying errno from err, if it carries one.
func Errno(err error) (syscall.Errno, bool) {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno, true
	}
	return 0, false
}

func wrap(err error, path, role string) error {
	if err == nil {
		return nil
	}
	return &Error{Path: path, Role: role, Err: err}
}
