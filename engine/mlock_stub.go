//go:build !unix

package engine

import "errors"

func pinMemory(_ []byte) error   { return errors.New("page pinning is not supported on this platform") }
func unpinMemory(_ []byte) error { return nil }
