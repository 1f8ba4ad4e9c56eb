package pool

// Handle encodes a 32-bit slot index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments on Free to invalidate stale handles.
type Handle uint64

func NewHandle(index uint32, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index))
}

func (h Handle) Index() uint32      { return uint32(h) }
func (h Handle) Generation() uint32 { return uint32(h >> 32) }

// Arena hands out reusable *T slots addressed by generational handles.
// Freed slots are reset and pushed onto a free list for the next Alloc.
// Single-goroutine access only.
type Arena[T any] struct {
	slots       []*T
	generations []uint32
	live        []bool
	freeList    []uint32
	reset       func(*T)
	count       int
}

// NewArena creates an arena. reset is applied to a slot when it is freed;
// it may be nil.
func NewArena[T any](reset func(*T)) *Arena[T] {
	return &Arena[T]{
		slots:       make([]*T, 0, 64),
		generations: make([]uint32, 0, 64),
		live:        make([]bool, 0, 64),
		freeList:    make([]uint32, 0, 16),
		reset:       reset,
	}
}

// Alloc returns a slot, reusing a freed one when available.
func (a *Arena[T]) Alloc() (Handle, *T) {
	a.count++
	if len(a.freeList) > 0 {
		idx := a.freeList[len(a.freeList)-1]
		a.freeList = a.freeList[:len(a.freeList)-1]
		a.live[idx] = true
		return NewHandle(idx, a.generations[idx]), a.slots[idx]
	}
	idx := uint32(len(a.slots))
	slot := new(T)
	a.slots = append(a.slots, slot)
	a.generations = append(a.generations, 0)
	a.live = append(a.live, true)
	return NewHandle(idx, 0), slot
}

// Get resolves a handle. Stale handles (freed, or freed and reused) miss.
func (a *Arena[T]) Get(h Handle) (*T, bool) {
	if !a.Alive(h) {
		return nil, false
	}
	return a.slots[h.Index()], true
}

func (a *Arena[T]) Alive(h Handle) bool {
	idx := h.Index()
	if int(idx) >= len(a.slots) {
		return false
	}
	return a.live[idx] && a.generations[idx] == h.Generation()
}

// Free resets the slot and returns it to the free list. Freeing a stale
// handle is a no-op.
func (a *Arena[T]) Free(h Handle) {
	if !a.Alive(h) {
		return
	}
	idx := h.Index()
	if a.reset != nil {
		a.reset(a.slots[idx])
	}
	a.generations[idx]++
	a.live[idx] = false
	a.freeList = append(a.freeList, idx)
	a.count--
}

// Len returns the number of allocated (not freed) slots.
func (a *Arena[T]) Len() int { return a.count }

// Cap returns the number of slots ever created.
func (a *Arena[T]) Cap() int { return len(a.slots) }
