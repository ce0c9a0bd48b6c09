package pmm

import (
	"sync/atomic"

	"cowos/kernel"
	"cowos/kernel/kfmt"
	"cowos/kernel/mm"
)

const (
	// freePoisonByte is written over every byte of a frame when it returns
	// to the free list.
	freePoisonByte = byte(0x01)

	// allocFillByte is written over every byte of a frame when it is
	// handed out so that callers reading uninitialized memory see a
	// recognizable pattern.
	allocFillByte = byte(0x05)
)

var (
	// panicFn is mocked by tests.
	panicFn = kfmt.Panic

	errOutOfMemory       = &kernel.Error{Module: "pmm", Message: "out of memory"}
	errInvalidFrame      = &kernel.Error{Module: "pmm", Message: "misaligned or unmanaged frame address"}
	errShareFreeFrame    = &kernel.Error{Module: "pmm", Message: "share of a frame with no owners"}
	errRefCountUnderflow = &kernel.Error{Module: "pmm", Message: "free of a frame with no owners"}
)

// FrameMemory translates physical addresses into addresses the kernel can
// dereference.
type FrameMemory interface {
	KernelAddress(physAddr uintptr) uintptr
}

// Allocator hands out reference-counted physical frames from the range
// [RoundUp(KernelEnd), PhysTop). A frame is either on the free list with no
// owners or allocated with at least one owner.
//
// The free list and the reference-count table are guarded by separate locks.
// No operation holds both at once.
type Allocator struct {
	mem FrameMemory

	// managedStart and managedEnd are page-aligned bounds of the managed
	// physical range.
	managedStart, managedEnd uintptr

	freeList  freeList
	refCounts refCountTable

	allocations atomic.Uint64
	releases    atomic.Uint64
	shares      atomic.Uint64
	outOfMemory atomic.Uint64
}

// New returns an allocator for the physical range described by cfg. The
// allocator starts out with an empty free list; frames become available once
// they are registered with BootstrapRange.
func New(mem FrameMemory, cfg Config) (*Allocator, *kernel.Error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	alloc := &Allocator{
		mem:          mem,
		managedStart: cfg.ManagedStart(),
		managedEnd:   cfg.ManagedEnd(),
	}
	alloc.freeList.init(mem)
	alloc.refCounts.init(
		mm.FrameFromAddress(alloc.managedStart),
		mm.FrameFromAddress(alloc.managedEnd),
	)

	return alloc, nil
}

// AllocFrame removes a frame from the free list and returns it with a
// reference count of 1. The frame contents are filled with a junk pattern.
// If no frames are available, AllocFrame returns errOutOfMemory and leaves
// the allocator untouched.
func (a *Allocator) AllocFrame() (mm.Frame, *kernel.Error) {
	f := a.freeList.pop()
	if !f.Valid() {
		a.outOfMemory.Add(1)
		kfmt.Log.Debug().Int("managed_frames", a.managedFrames()).Msg("pmm: out of memory")
		return mm.InvalidFrame, errOutOfMemory
	}

	a.refCounts.initialize(f)
	kernel.Memset(a.mem.KernelAddress(f.Address()), allocFillByte, mm.PageSize)
	a.allocations.Add(1)

	return f, nil
}

// Free drops one reference to the frame at physAddr. When the last reference
// is dropped the frame is poisoned and returned to the free list. Passing a
// misaligned address or one outside the managed range halts the kernel.
func (a *Allocator) Free(physAddr uintptr) {
	if !a.managed(physAddr) {
		panicFn(errInvalidFrame)
		return
	}

	f := mm.FrameFromAddress(physAddr)
	if !a.refCounts.decrementAndTest(f) {
		return
	}

	a.freeList.push(f)
	a.releases.Add(1)
}

// Share adds a reference to the allocated frame at physAddr. It is called
// when a second mapping of the frame is installed instead of copying it.
func (a *Allocator) Share(physAddr uintptr) {
	if !a.managed(physAddr) {
		panicFn(errInvalidFrame)
		return
	}

	a.refCounts.increment(mm.FrameFromAddress(physAddr))
	a.shares.Add(1)
}

// RefCount returns a snapshot of the reference count of the frame at
// physAddr. A write-fault handler uses it to choose between copying a shared
// frame (count > 1) and writing in place (count == 1). The value may change
// as soon as RefCount returns.
func (a *Allocator) RefCount(physAddr uintptr) int {
	if !a.managed(physAddr) {
		panicFn(errInvalidFrame)
		return 0
	}

	return a.refCounts.query(mm.FrameFromAddress(physAddr))
}

// FreeFrame implements mm.FrameAllocator.
func (a *Allocator) FreeFrame(f mm.Frame) { a.Free(f.Address()) }

// ShareFrame implements mm.FrameAllocator.
func (a *Allocator) ShareFrame(f mm.Frame) { a.Share(f.Address()) }

// FrameRefCount implements mm.FrameAllocator.
func (a *Allocator) FrameRefCount(f mm.Frame) int { return a.RefCount(f.Address()) }

// KernelAddress returns the address at which the kernel can access the
// contents of f.
func (a *Allocator) KernelAddress(f mm.Frame) uintptr {
	if !a.managed(f.Address()) {
		panicFn(errInvalidFrame)
		return 0
	}

	return a.mem.KernelAddress(f.Address())
}

// managed returns true if physAddr is page-aligned and lies inside the
// managed range.
func (a *Allocator) managed(physAddr uintptr) bool {
	return mm.IsPageAligned(physAddr) && physAddr >= a.managedStart && physAddr < a.managedEnd
}

func (a *Allocator) managedFrames() int {
	return int((a.managedEnd - a.managedStart) >> mm.PageShift)
}
