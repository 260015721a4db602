package word

import "sort"

// Sink receives the sorted, deduplicated output of a pour. The word slice
// is only valid for the duration of the call.
type Sink interface {
	Push(word []byte, repeated bool, occur uint64) error
}

// Pool deduplicates (word, offset) pairs inside an arena. Insert never
// allocates; when the arena fills, the caller pours the pool and starts a
// fresh one over the same region.
//
// This is the sort-based variant: duplicates are kept as separate items
// until Pour sorts and coalesces them.
type Pool struct {
	a *Arena
}

// NewPool resets the arena and returns an empty pool over it.
func NewPool(a *Arena) *Pool {
	a.Reset()
	return &Pool{a: a}
}

// Insert records one occurrence of w at input offset off. It reports false
// iff the arena cannot hold the entry; the arena is unchanged in that
// case.
func (p *Pool) Insert(w []byte, off uint64) bool {
	pre, poolBytes := Decompose(w)
	it, pool, ok := p.a.Alloc(poolBytes)
	if !ok {
		return false
	}
	it.Pre = pre
	it.Occur = off
	if poolBytes > 0 {
		copy(pool, w[PrefixLen:])
		pool[poolBytes-1] = 0
		it.Suf = uint64(p.a.PoolOff())
	}
	return true
}

// Len returns the number of inserted occurrences (not distinct words).
func (p *Pool) Len() int { return p.a.Len() }

// Pour sorts the pool in place and streams it to out: one entry per
// distinct word, flagged repeated when it was inserted more than once,
// carrying the earliest insertion offset otherwise. The pool is spent
// afterwards.
func (p *Pool) Pour(out Sink) error {
	sort.Sort(itemsByKey{p.a})
	items := p.a.Items()
	base := p.a.Base()
	scratch := make([]byte, 0, 64)
	for i := 0; i < len(items); {
		j := i + 1
		occur := items[i].Occur
		for j < len(items) && CompareItems(items[i], items[j], base) == 0 {
			if items[j].Occur < occur {
				occur = items[j].Occur
			}
			j++
		}
		scratch = AppendWord(scratch[:0], items[i], base)
		if err := out.Push(scratch, j-i > 1, occur); err != nil {
			return err
		}
		i = j
	}
	return nil
}

type itemsByKey struct{ a *Arena }

func (s itemsByKey) Len() int { return s.a.n }
func (s itemsByKey) Less(i, j int) bool {
	return CompareItems(s.a.items[i], s.a.items[j], s.a.buf) < 0
}
func (s itemsByKey) Swap(i, j int) {
	s.a.items[i], s.a.items[j] = s.a.items[j], s.a.items[i]
}
