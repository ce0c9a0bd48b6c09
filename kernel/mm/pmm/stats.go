package pmm

// Stats is a point-in-time view of the allocator counters. Fields are read
// independently, so a snapshot taken while other tasks allocate or free may
// not be internally consistent.
type Stats struct {
	// TotalFrames is the number of frames in the managed range.
	TotalFrames int

	// FreeFrames is the number of frames on the free list.
	FreeFrames int

	// Allocations counts successful AllocFrame calls.
	Allocations uint64

	// Releases counts transitions to the free list, including the ones
	// performed by BootstrapRange.
	Releases uint64

	// Shares counts Share calls.
	Shares uint64

	// OutOfMemory counts AllocFrame calls that found the free list empty.
	OutOfMemory uint64
}

// InUse returns the number of frames that are not on the free list.
func (s Stats) InUse() int {
	return s.TotalFrames - s.FreeFrames
}

// Stats returns a snapshot of the allocator counters.
func (a *Allocator) Stats() Stats {
	return Stats{
		TotalFrames: a.managedFrames(),
		FreeFrames:  a.freeList.len(),
		Allocations: a.allocations.Load(),
		Releases:    a.releases.Load(),
		Shares:      a.shares.Load(),
		OutOfMemory: a.outOfMemory.Load(),
	}
}
