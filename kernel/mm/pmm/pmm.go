// Package pmm contains code that manages physical memory frame allocations.
//
// Frames are handed out with a reference count so that a single physical
// frame can back several virtual mappings; this is what allows address
// spaces to be duplicated with copy-on-write sharing instead of eager
// copies.
package pmm

import (
	"cowos/kernel"
	"cowos/kernel/kfmt"
	"cowos/kernel/mm"
)

// Init sets up the kernel physical memory allocation sub-system. It builds an
// allocator for the layout described by cfg, registers every frame between
// the end of the kernel image and cfg.PhysTop and installs the allocator as
// the active mm frame allocator.
//
// Init is the only place where the allocator is constructed and must be
// called exactly once during boot.
func Init(mem FrameMemory, cfg Config) (*Allocator, *kernel.Error) {
	alloc, err := New(mem, cfg)
	if err != nil {
		return nil, err
	}

	registered := alloc.BootstrapRange(cfg.KernelEnd, cfg.PhysTop)
	mm.SetFrameAllocator(alloc)

	alloc.PrintMemoryMap()
	kfmt.Log.Info().Int("frames", registered).Msg("pmm: frame allocator online")

	return alloc, nil
}

// PrintMemoryMap prints the managed physical range and the amount of free
// memory to the kernel console.
func (a *Allocator) PrintMemoryMap() {
	stats := a.Stats()

	kfmt.Printf("[pmm] physical memory map:\n")
	kfmt.Printf("\t[0x%010x - 0x%010x), frames: %d\n", a.managedStart, a.managedEnd, stats.TotalFrames)
	kfmt.Printf("[pmm] free memory: %dKb\n", uint64(stats.FreeFrames)*uint64(mm.PageSize)/1024)
}
