package main

import (
	"cowos/kernel/mm"
	"cowos/kernel/mm/physmem"
	"cowos/kernel/mm/pmm"
)

// machine is a booted simulated machine.
type machine struct {
	cfg   pmm.Config
	arena *physmem.Arena
	alloc *pmm.Allocator
}

// configFromFlags returns the memory layout selected on the command line.
func configFromFlags() pmm.Config {
	return pmm.Config{KernelEnd: uintptr(kernelEnd), PhysTop: uintptr(physTop)}
}

// bootMachine reserves the physical memory described by cfg and runs the
// allocator start-up sequence over it.
func bootMachine(cfg pmm.Config) (*machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	arena, err := physmem.New(cfg.ManagedStart(), cfg.ManagedEnd())
	if err != nil {
		return nil, err
	}

	alloc, err := pmm.Init(arena, cfg)
	if err != nil {
		arena.Close()
		return nil, err
	}

	return &machine{cfg: cfg, arena: arena, alloc: alloc}, nil
}

// shutdown detaches the allocator and releases the simulated memory.
func (m *machine) shutdown() {
	mm.SetFrameAllocator(nil)
	m.arena.Close()
}
