// Package cow implements the frame-level half of copy-on-write address space
// duplication: sharing frames when an address space is duplicated and
// breaking the sharing when one of the owners writes to a shared frame.
//
// The package works on frames only. Updating the page tables that point at
// them is left to the caller.
package cow

import (
	"cowos/kernel"
	"cowos/kernel/mm"
)

// DuplicateFrames adds a reference to each frame mapped by an address space
// that is being duplicated. After the call, both address spaces own the
// frames and must map them read-only until a write fault breaks the sharing.
func DuplicateFrames(frames []mm.Frame) {
	for _, f := range frames {
		mm.ShareFrame(f)
	}
}

// ResolveWriteFault returns the frame that the faulting owner of f may write
// to. If the owner holds the only reference, f itself is returned and can be
// remapped writable. Otherwise the contents of f are copied into a newly
// allocated frame, the owner's reference to f is dropped and the private copy
// is returned.
//
// The reference count is only used to pick between the two outcomes. If
// another owner drops its reference concurrently, the worst case is an
// unnecessary copy; the count can never grow behind the caller's back because
// only an existing owner can share a frame.
func ResolveWriteFault(f mm.Frame) (mm.Frame, *kernel.Error) {
	if mm.FrameRefCount(f) == 1 {
		return f, nil
	}

	private, err := mm.AllocFrame()
	if err != nil {
		return mm.InvalidFrame, err
	}

	kernel.Memcopy(mm.FrameKernelAddress(f), mm.FrameKernelAddress(private), mm.PageSize)
	mm.FreeFrame(f)

	return private, nil
}

// ReleaseFrames drops the references held by an address space that is being
// torn down.
func ReleaseFrames(frames []mm.Frame) {
	for _, f := range frames {
		mm.FreeFrame(f)
	}
}
