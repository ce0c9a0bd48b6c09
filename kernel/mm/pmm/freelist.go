package pmm

import (
	"unsafe"

	"cowos/kernel"
	"cowos/kernel/mm"
	"cowos/kernel/sync"
)

// freeNode is the link stored in the first bytes of every frame on the free
// list. InvalidFrame terminates the list.
type freeNode struct {
	next mm.Frame
}

// freeList is an intrusive LIFO of free frames. The list metadata lives inside
// the free frames themselves; only the head and the length are kept outside.
type freeList struct {
	lock  sync.Spinlock
	head  mm.Frame
	count int

	mem FrameMemory
}

func (l *freeList) init(mem FrameMemory) {
	l.lock.Init("kmem")
	l.head = mm.InvalidFrame
	l.count = 0
	l.mem = mem
}

// push poisons the contents of f and prepends it to the list. The caller must
// guarantee that f has no remaining owners.
func (l *freeList) push(f mm.Frame) {
	addr := l.mem.KernelAddress(f.Address())

	// Fill with junk to catch dangling refs. The frame is private to this
	// call so the fill happens outside the lock.
	kernel.Memset(addr, freePoisonByte, mm.PageSize)
	node := nodeAt(addr)

	l.lock.Acquire()
	node.next = l.head
	l.head = f
	l.count++
	l.lock.Release()
}

// pop removes and returns the head of the list or InvalidFrame if the list is
// empty.
func (l *freeList) pop() mm.Frame {
	l.lock.Acquire()
	f := l.head
	if f.Valid() {
		l.head = nodeAt(l.mem.KernelAddress(f.Address())).next
		l.count--
	}
	l.lock.Release()

	return f
}

// len returns the number of frames currently on the list.
func (l *freeList) len() int {
	l.lock.Acquire()
	n := l.count
	l.lock.Release()

	return n
}

// nodeAt overlays a freeNode on the frame storage at kernel address addr.
//
// UNSAFE: the returned pointer aliases the frame contents. It is only
// meaningful while the frame is on the free list; once a frame is popped its
// bytes belong to the new owner.
func nodeAt(addr uintptr) *freeNode {
	return (*freeNode)(unsafe.Pointer(addr))
}
