// Package physmem provides the storage that backs the physical address range
// managed by the frame allocator. The hosted kernel has no direct map of
// RAM, so an Arena reserves a page-aligned host region and exposes each
// physical address through the kernel address it is mapped at.
package physmem

import (
	"unsafe"

	"cowos/kernel"
	"cowos/kernel/mm"
)

var (
	errInvalidRange = &kernel.Error{Module: "physmem", Message: "physical range must be page-aligned and non-empty"}
	errMapFailed    = &kernel.Error{Module: "physmem", Message: "unable to map physical memory"}
	errUnmapFailed  = &kernel.Error{Module: "physmem", Message: "unable to unmap physical memory"}
)

// Arena maps the physical address range [Base, Top) to kernel-accessible
// storage.
type Arena struct {
	base, top uintptr

	// data holds the backing storage; element i corresponds to physical
	// address base+i. Keeping the slice referenced pins the region.
	data    []byte
	release func() error
}

// New reserves storage for the physical address range [base, top). Both
// bounds must be page-aligned and top must be greater than base.
func New(base, top uintptr) (*Arena, *kernel.Error) {
	if top <= base || !mm.IsPageAligned(base) || !mm.IsPageAligned(top) {
		return nil, errInvalidRange
	}

	data, release, err := mapMemory(int(top - base))
	if err != nil {
		return nil, errMapFailed
	}

	return &Arena{base: base, top: top, data: data, release: release}, nil
}

// Base returns the first physical address backed by the arena.
func (a *Arena) Base() uintptr { return a.base }

// Top returns the physical address just past the end of the arena.
func (a *Arena) Top() uintptr { return a.top }

// Contains returns true if physAddr is backed by the arena.
func (a *Arena) Contains(physAddr uintptr) bool {
	return physAddr >= a.base && physAddr < a.top
}

// KernelAddress returns the address through which the kernel accesses
// physical address physAddr. The caller must ensure that physAddr is backed
// by the arena; the returned address stays valid until Close is called.
func (a *Arena) KernelAddress(physAddr uintptr) uintptr {
	return uintptr(unsafe.Pointer(&a.data[physAddr-a.base]))
}

// Close releases the backing storage. Any kernel addresses handed out by the
// arena become invalid.
func (a *Arena) Close() *kernel.Error {
	if a.release == nil {
		return nil
	}

	err := a.release()
	a.data, a.release = nil, nil
	if err != nil {
		return errUnmapFailed
	}

	return nil
}
