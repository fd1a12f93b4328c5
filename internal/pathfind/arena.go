package pathfind

import (
	"sync"

	"github.com/Faultbox/midgard-nav/pkg/pqueue"
)

const noParent = -1

// slot is the search-scoped record for one node. It is valid only while its
// gen matches the owning arena's.
type slot struct {
	gen       uint32
	g, h      int
	parent    int32
	heapIndex int32
	seq       uint32
	closed    bool
}

func (s *slot) f() int { return s.g + s.h }

// arena holds all per-search state: one slot per node id plus the open set.
// Resetting bumps the generation instead of clearing the slots.
type arena struct {
	slots []slot
	gen   uint32
	seq   uint32
	open  *pqueue.Queue[int32]
}

var arenaPool = sync.Pool{
	New: func() any {
		a := &arena{}
		a.open = pqueue.WithCapacity(64, a.less, a.setIndex)
		return a
	},
}

func acquireArena(nodeCount int) *arena {
	a := arenaPool.Get().(*arena)
	a.reset(nodeCount)
	return a
}

func releaseArena(a *arena) {
	a.open.Reset()
	arenaPool.Put(a)
}

func (a *arena) reset(nodeCount int) {
	if len(a.slots) != nodeCount {
		a.slots = make([]slot, nodeCount)
		a.gen = 0
	}
	a.gen++
	if a.gen == 0 {
		clear(a.slots)
		a.gen = 1
	}
	a.seq = 0
	a.open.Reset()
}

// lookup returns the slot for id if this search has discovered it.
func (a *arena) lookup(id int) (*slot, bool) {
	s := &a.slots[id]
	return s, s.gen == a.gen
}

// discover initialises the slot for id and pushes it onto the open set.
func (a *arena) discover(id, g, h int, parent int32) *slot {
	s := &a.slots[id]
	*s = slot{gen: a.gen, g: g, h: h, parent: parent, heapIndex: -1, seq: a.seq}
	a.seq++
	a.open.Push(int32(id))
	return s
}

// less orders the open set by f, then lower h, then discovery order.
func (a *arena) less(i, j int32) bool {
	si, sj := &a.slots[i], &a.slots[j]
	if fi, fj := si.f(), sj.f(); fi != fj {
		return fi < fj
	}
	if si.h != sj.h {
		return si.h < sj.h
	}
	return si.seq < sj.seq
}

func (a *arena) setIndex(id int32, index int) {
	a.slots[id].heapIndex = int32(index)
}
