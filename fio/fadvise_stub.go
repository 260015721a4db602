//go:build !linux

package fio

import "os"

func adviseSequential(_ *os.File) {}
