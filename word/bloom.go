// Package word holds the in-memory representation of words during
// profiling: a fixed-width key prefix with an optional pooled suffix, the
// arena both live in, and the deduplicating pool built on top.
package word

import (
	"bytes"
	"encoding/binary"
)

// PrefixLen is the number of word bytes folded into the integer prefix.
// Words up to this length compare with a single integer comparison.
const PrefixLen = 8

// Decompose splits w into its integer prefix and reports how many pool
// bytes the suffix needs (including its NUL terminator), zero if w fits
// in the prefix entirely. The prefix is the first PrefixLen bytes
// zero-padded and read big-endian, so numeric prefix order equals
// lexicographic byte order.
func Decompose(w []byte) (pre uint64, poolBytes int) {
	n := len(w)
	if n > PrefixLen {
		n = PrefixLen
	}
	for i := 0; i < n; i++ {
		pre = pre<<8 | uint64(w[i])
	}
	pre <<= uint(8 * (PrefixLen - n))
	if len(w) <= PrefixLen {
		return pre, 0
	}
	return pre, len(w) - PrefixLen + 1
}

// CompareItems orders two items like the words they were decomposed from:
// prefixes numerically, then suffixes byte-wise with "no suffix" first.
func CompareItems(x, y Item, base []byte) int {
	if x.Pre != y.Pre {
		if x.Pre < y.Pre {
			return -1
		}
		return 1
	}
	switch {
	case x.Suf == 0 && y.Suf == 0:
		return 0
	case x.Suf == 0:
		return -1
	case y.Suf == 0:
		return 1
	}
	return bytes.Compare(suffix(base, x.Suf), suffix(base, y.Suf))
}

// AppendWord reconstructs the original word of it into dst: the non-zero
// prefix bytes followed by the pooled suffix, if any.
func AppendWord(dst []byte, it Item, base []byte) []byte {
	var pre [PrefixLen]byte
	binary.BigEndian.PutUint64(pre[:], it.Pre)
	n := PrefixLen
	if i := bytes.IndexByte(pre[:], 0); i >= 0 {
		n = i
	}
	dst = append(dst, pre[:n]...)
	if it.Suf != 0 {
		dst = append(dst, suffix(base, it.Suf)...)
	}
	return dst
}

// suffix returns the NUL-terminated suffix stored at off, without the
// terminator.
func suffix(base []byte, off uint64) []byte {
	s := base[off:]
	if i := bytes.IndexByte(s, 0); i >= 0 {
		return s[:i]
	}
	return s
}
