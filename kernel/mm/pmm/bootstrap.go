package pmm

import "cowos/kernel/mm"

// BootstrapRange registers every whole frame in [RoundUp(start), end) with the
// allocator and returns the number of frames registered. Each frame is given
// a single owner and immediately released through Free, so frames enter the
// free list through the same path used at runtime.
//
// BootstrapRange must run once, before the allocator is shared with other
// tasks. Frames outside the managed range halt the kernel.
func (a *Allocator) BootstrapRange(start, end uintptr) int {
	var registered int

	for addr := mm.RoundUp(start); addr+mm.PageSize <= end; addr += mm.PageSize {
		if !a.managed(addr) {
			panicFn(errInvalidFrame)
			return registered
		}

		a.refCounts.initialize(mm.FrameFromAddress(addr))
		a.Free(addr)
		registered++
	}

	return registered
}
