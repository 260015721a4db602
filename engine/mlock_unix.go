//go:build unix

package engine

import "golang.org/x/sys/unix"

func pinMemory(b []byte) error   { return unix.Mlock(b) }
func unpinMemory(b []byte) error { return unix.Munlock(b) }
