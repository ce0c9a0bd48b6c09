package pmm

import (
	"cowos/kernel/mm"
	"cowos/kernel/sync"
)

// refCountTable tracks the number of owners of every managed frame. Entry i
// holds the count for frame firstFrame+i. All operations run under a single
// table-wide lock and never touch the free list.
type refCountTable struct {
	lock       sync.Spinlock
	firstFrame mm.Frame
	counts     []int32
}

// init sizes the table to cover frames in [firstFrame, endFrame) with every
// count set to zero.
func (t *refCountTable) init(firstFrame, endFrame mm.Frame) {
	t.lock.Init("ref_counter")
	t.firstFrame = firstFrame
	t.counts = make([]int32, endFrame-firstFrame)
}

// index maps f to its slot in counts. Frames outside the table abort the
// kernel; in that case ok is false and the caller must return without
// touching the table.
func (t *refCountTable) index(f mm.Frame) (idx int, ok bool) {
	if f < t.firstFrame || f-t.firstFrame >= mm.Frame(len(t.counts)) {
		panicFn(errInvalidFrame)
		return 0, false
	}

	return int(f - t.firstFrame), true
}

// initialize sets the count of f to 1; f is about to be handed to its first
// owner.
func (t *refCountTable) initialize(f mm.Frame) {
	idx, ok := t.index(f)
	if !ok {
		return
	}

	t.lock.Acquire()
	t.counts[idx] = 1
	t.lock.Release()
}

// increment adds an owner to f. Adding an owner to a frame that has none
// would resurrect a frame that sits on the free list, so it aborts.
func (t *refCountTable) increment(f mm.Frame) {
	idx, ok := t.index(f)
	if !ok {
		return
	}

	t.lock.Acquire()
	if t.counts[idx] <= 0 {
		t.lock.Release()
		panicFn(errShareFreeFrame)
		return
	}
	t.counts[idx]++
	t.lock.Release()
}

// decrementAndTest removes an owner from f and reports whether that was the
// last one. The decrement and the test happen in the same critical section,
// so for any allocation epoch exactly one caller observes true.
func (t *refCountTable) decrementAndTest(f mm.Frame) bool {
	idx, ok := t.index(f)
	if !ok {
		return false
	}

	t.lock.Acquire()
	if t.counts[idx] <= 0 {
		t.lock.Release()
		panicFn(errRefCountUnderflow)
		return false
	}
	t.counts[idx]--
	last := t.counts[idx] == 0
	t.lock.Release()

	return last
}

// query returns a snapshot of the count for f. The value may be stale as soon
// as the lock is released and must not drive a separate free or allocate
// decision.
func (t *refCountTable) query(f mm.Frame) int {
	idx, ok := t.index(f)
	if !ok {
		return 0
	}

	t.lock.Acquire()
	count := t.counts[idx]
	t.lock.Release()

	return int(count)
}
