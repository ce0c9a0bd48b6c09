// Package mm defines the physical frame abstraction shared by the memory
// management packages and the registry through which higher layers reach the
// active frame allocator.
package mm

import (
	"math"

	"cowos/kernel"
)

// Frame describes a physical memory page index.
type Frame uintptr

const (
	// InvalidFrame is returned by page allocators when
	// they fail to reserve the requested frame.
	InvalidFrame = Frame(math.MaxUint64)
)

// Valid returns true if this is a valid frame.
func (f Frame) Valid() bool {
	return f != InvalidFrame
}

// Address returns the physical memory address pointed to by this Frame.
func (f Frame) Address() uintptr {
	return uintptr(f) << PageShift
}

// FrameFromAddress returns a Frame that corresponds to
// the given physical address. This function can handle
// both page-aligned and not aligned addresses. in the
// latter case, the input address will be rounded down
// to the frame that contains it.
func FrameFromAddress(physAddr uintptr) Frame {
	return Frame((physAddr & ^(PageSize - 1)) >> PageShift)
}

// RoundUp rounds addr up to the next page boundary. Page-aligned addresses
// are returned unchanged.
func RoundUp(addr uintptr) uintptr {
	return (addr + PageSize - 1) & ^(PageSize - 1)
}

// IsPageAligned returns true if addr lies on a page boundary.
func IsPageAligned(addr uintptr) bool {
	return addr&(PageSize-1) == 0
}

// FrameAllocator is implemented by physical allocators that hand out
// reference-counted frames.
type FrameAllocator interface {
	// AllocFrame reserves a free frame and returns it with a reference
	// count of 1.
	AllocFrame() (Frame, *kernel.Error)

	// FreeFrame drops one reference to f, returning it to the allocator
	// once the last reference is gone.
	FreeFrame(f Frame)

	// ShareFrame adds a reference to an already allocated frame.
	ShareFrame(f Frame)

	// FrameRefCount returns a snapshot of the reference count of f.
	FrameRefCount(f Frame) int

	// KernelAddress returns the address at which the kernel can access
	// the contents of f.
	KernelAddress(f Frame) uintptr
}

var (
	// frameAllocator points to the allocator registered using
	// SetFrameAllocator.
	frameAllocator FrameAllocator
)

// SetFrameAllocator registers the frame allocator that will be used by
// the memory management code when physical frames are allocated, shared or
// released.
func SetFrameAllocator(alloc FrameAllocator) { frameAllocator = alloc }

// AllocFrame allocates a new physical frame using the currently active
// physical frame allocator.
func AllocFrame() (Frame, *kernel.Error) { return frameAllocator.AllocFrame() }

// FreeFrame releases one reference to f using the active allocator.
func FreeFrame(f Frame) { frameAllocator.FreeFrame(f) }

// ShareFrame adds a reference to f using the active allocator.
func ShareFrame(f Frame) { frameAllocator.ShareFrame(f) }

// FrameRefCount returns a snapshot of the reference count for f.
func FrameRefCount(f Frame) int { return frameAllocator.FrameRefCount(f) }

// FrameKernelAddress returns the address at which the kernel can access the
// contents of f.
func FrameKernelAddress(f Frame) uintptr { return frameAllocator.KernelAddress(f) }
