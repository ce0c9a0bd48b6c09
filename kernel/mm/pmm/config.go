package pmm

import (
	"cowos/kernel"
	"cowos/kernel/mm"
)

var errInvalidConfig = &kernel.Error{Module: "pmm", Message: "physical range holds no whole frames"}

// Config describes the physical memory layout handed to the allocator at
// boot.
type Config struct {
	// KernelEnd is the first physical address after the kernel image. It
	// does not need to be page-aligned.
	KernelEnd uintptr

	// PhysTop is the (exclusive) upper bound of the physical memory
	// managed by the allocator.
	PhysTop uintptr
}

// Validate checks that the layout leaves at least one whole frame between
// the end of the kernel image and PhysTop.
func (c Config) Validate() *kernel.Error {
	if c.KernelEnd >= c.PhysTop || c.ManagedStart() >= c.ManagedEnd() {
		return errInvalidConfig
	}

	return nil
}

// ManagedStart returns the address of the first managed frame.
func (c Config) ManagedStart() uintptr {
	return mm.RoundUp(c.KernelEnd)
}

// ManagedEnd returns the page-aligned address just past the last managed
// frame.
func (c Config) ManagedEnd() uintptr {
	return c.PhysTop & ^(mm.PageSize - 1)
}
