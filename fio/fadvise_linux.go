//go:build linux

package fio

import (
	"os"

	"golang.org/x/sys/unix"
)

func adviseSequential(f *os.File) {
	// Best effort. A kernel that refuses the advice still reads the file.
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
