package engine

// Plan is one pairwise merge step: read segments Left and Right, write
// segment ID.
type Plan struct {
	ID    uint64
	Left  uint64
	Right uint64
}

// MergeSegment is a completed merge: its plan plus the physical size of
// the output profile.
type MergeSegment struct {
	Plan Plan
	Size uint64
}

// Planner yields a deterministic sequence of merge plans. Pop fills p and
// reports true while plans remain; once exhausted it sets p.ID to the
// final root and reports false. Push informs the planner of a completed
// merge. Determinism — the same leaves and push history always yield the
// same plan sequence — is what lets the merger validate a replayed log
// against a fresh planner.
//
// Output ids start above the highest leaf id and increase monotonically,
// so the merge tree is cycle-free by construction.
type Planner interface {
	Pop(p *Plan) bool
	Push(seg MergeSegment)
}

// SimplePlanner pairs segments level by level, producing a balanced tree:
// the leaves in ascending id order form the first level, each level's
// outputs (with any odd segment carried over last) form the next.
type SimplePlanner struct {
	cur    []uint64
	next   []uint64
	i      int
	nextID uint64
}

func NewSimplePlanner(leaves []Segment) *SimplePlanner {
	ids := make([]uint64, len(leaves))
	var maxID uint64
	for i, s := range leaves {
		ids[i] = s.ID
		if s.ID > maxID {
			maxID = s.ID
		}
	}
	return &SimplePlanner{cur: ids, nextID: maxID + 1}
}

func (p *SimplePlanner) Pop(out *Plan) bool {
	for {
		if p.i+1 < len(p.cur) {
			*out = Plan{ID: p.nextID, Left: p.cur[p.i], Right: p.cur[p.i+1]}
			p.next = append(p.next, p.nextID)
			p.nextID++
			p.i += 2
			return true
		}
		if p.i < len(p.cur) {
			// Odd segment: carries over to the end of the next level.
			p.next = append(p.next, p.cur[p.i])
			p.i++
		}
		p.cur, p.next = p.next, p.cur[:0]
		p.i = 0
		if len(p.cur) <= 1 {
			out.ID = 0
			if len(p.cur) == 1 {
				out.ID = p.cur[0]
			}
			return false
		}
	}
}

// Push is ignored: the pairing never depends on merge results.
func (p *SimplePlanner) Push(MergeSegment) {}

// DPPlanner minimises total bytes read and written across the whole merge,
// solving the classic contiguous-partition dynamic program over the leaf
// sizes: merging a pair costs twice the combined size (one read of each
// input, one write of the output). Ties break on the leftmost split. The
// whole plan is traced bottom-up at construction; sizes are known from the
// profiler, so Push is ignored.
type DPPlanner struct {
	plans []Plan
	idx   int
	root  uint64
}

func NewDPPlanner(leaves []Segment) *DPPlanner {
	n := len(leaves)
	if n == 0 {
		return &DPPlanner{}
	}
	if n == 1 {
		return &DPPlanner{root: leaves[0].ID}
	}

	// length[i][j] = total leaf bytes in [i,j]; via prefix sums.
	prefix := make([]uint64, n+1)
	for i, s := range leaves {
		prefix[i+1] = prefix[i] + s.Size
	}
	span := func(i, j int) uint64 { return prefix[j+1] - prefix[i] }

	cost := make([][]uint64, n)
	split := make([][]int, n)
	for i := range cost {
		cost[i] = make([]uint64, n)
		split[i] = make([]int, n)
	}
	for width := 2; width <= n; width++ {
		for i := 0; i+width-1 < n; i++ {
			j := i + width - 1
			best := ^uint64(0)
			bestK := i
			for k := i; k < j; k++ {
				c := cost[i][k] + cost[k+1][j] + 2*(span(i, k)+span(k+1, j))
				if c < best {
					best = c
					bestK = k
				}
			}
			cost[i][j] = best
			split[i][j] = bestK
		}
	}

	var maxID uint64
	for _, s := range leaves {
		if s.ID > maxID {
			maxID = s.ID
		}
	}
	p := &DPPlanner{}
	nextID := maxID + 1
	var emit func(i, j int) uint64
	emit = func(i, j int) uint64 {
		if i == j {
			return leaves[i].ID
		}
		k := split[i][j]
		left := emit(i, k)
		right := emit(k+1, j)
		id := nextID
		nextID++
		p.plans = append(p.plans, Plan{ID: id, Left: left, Right: right})
		return id
	}
	p.root = emit(0, n-1)
	return p
}

func (p *DPPlanner) Pop(out *Plan) bool {
	if p.idx < len(p.plans) {
		*out = p.plans[p.idx]
		p.idx++
		return true
	}
	out.ID = p.root
	return false
}

// Push is ignored: leaf sizes are known upfront from the profiler.
func (p *DPPlanner) Push(MergeSegment) {}
