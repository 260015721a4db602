package word

import "unsafe"

// Item is one deduplication entry. Pre and Suf together form the word key
// (see Decompose); Occur is the input-file offset of the occurrence this
// item records. Suf is an offset into the arena region, zero meaning the
// word has no suffix — offset zero can never hold a suffix because the
// item array claims the low end of the region first.
type Item struct {
	Pre   uint64
	Suf   uint64
	Occur uint64
}

const itemSize = int(unsafe.Sizeof(Item{}))

// Arena is a double-ended allocator over a single caller-supplied region.
// Items grow from the low end as a fixed-size array; suffix bytes grow
// down from the high end. Alloc is all-or-nothing: it either claims one
// item slot plus the requested pool bytes, or it leaves the arena
// untouched. Nothing here ever touches the heap.
type Arena struct {
	buf     []byte
	items   []Item // the low end of buf, viewed as items
	n       int
	poolOff int // low edge of the pool; pool occupies buf[poolOff:]
}

// NewArena builds an arena over buf. The region must be 8-byte aligned;
// both mmap regions and heap-allocated slices are.
func NewArena(buf []byte) *Arena {
	var items []Item
	if maxItems := len(buf) / itemSize; maxItems > 0 {
		items = unsafe.Slice((*Item)(unsafe.Pointer(unsafe.SliceData(buf))), maxItems)
	}
	return &Arena{buf: buf, items: items, poolOff: len(buf)}
}

// Alloc claims the next item slot and poolBytes bytes at the pool end. It
// reports false, changing nothing, when the two ends would collide.
func (a *Arena) Alloc(poolBytes int) (*Item, []byte, bool) {
	if (a.n+1)*itemSize+poolBytes > a.poolOff {
		return nil, nil, false
	}
	it := &a.items[a.n]
	*it = Item{} // region is recycled across pours; clear the slot
	a.n++
	var pool []byte
	if poolBytes > 0 {
		a.poolOff -= poolBytes
		pool = a.buf[a.poolOff : a.poolOff+poolBytes]
	}
	return it, pool, true
}

// Len returns the number of allocated items.
func (a *Arena) Len() int { return a.n }

// Items returns the allocated items, in insertion order.
func (a *Arena) Items() []Item { return a.items[:a.n] }

// Base returns the backing region, for resolving Item.Suf offsets.
func (a *Arena) Base() []byte { return a.buf }

// PoolOff returns the current low edge of the suffix pool.
func (a *Arena) PoolOff() int { return a.poolOff }

// Reset drops all items and pool bytes. Items are trivially destructible;
// no per-item cleanup runs.
func (a *Arena) Reset() {
	a.n = 0
	a.poolOff = len(a.buf)
}
