package pmm

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"cowos/kernel/mm"
	"cowos/kernel/mm/physmem"
)

// testKernelEnd is deliberately not page-aligned; the first managed frame
// starts at the next page boundary.
const testKernelEnd = uintptr(0x80000123)

// testConfig returns a layout that manages exactly frameCount frames.
func testConfig(frameCount int) Config {
	return Config{
		KernelEnd: testKernelEnd,
		PhysTop:   mm.RoundUp(testKernelEnd) + uintptr(frameCount)*mm.PageSize,
	}
}

// newTestAllocator returns an allocator with an empty free list over
// frameCount frames backed by a physmem arena.
func newTestAllocator(t *testing.T, frameCount int) (*Allocator, Config) {
	t.Helper()

	cfg := testConfig(frameCount)
	arena, err := physmem.New(cfg.ManagedStart(), cfg.ManagedEnd())
	require.Nil(t, err)
	t.Cleanup(func() { arena.Close() })

	alloc, err := New(arena, cfg)
	require.Nil(t, err)

	return alloc, cfg
}

// newBootedAllocator returns an allocator whose managed range has been
// registered with BootstrapRange.
func newBootedAllocator(t *testing.T, frameCount int) (*Allocator, Config) {
	t.Helper()

	alloc, cfg := newTestAllocator(t, frameCount)
	require.Equal(t, frameCount, alloc.BootstrapRange(cfg.KernelEnd, cfg.PhysTop))
	return alloc, cfg
}

// mockPanic turns calls to panicFn into Go panics carrying the reported
// value so that tests can assert on fatal errors.
func mockPanic(t *testing.T) {
	t.Helper()

	origPanicFn := panicFn
	panicFn = func(e interface{}) { panic(e) }
	t.Cleanup(func() { panicFn = origPanicFn })
}

// frames walks the free list and returns its contents in list order.
func (l *freeList) frames() []mm.Frame {
	l.lock.Acquire()
	defer l.lock.Release()

	var out []mm.Frame
	for f := l.head; f.Valid(); f = nodeAt(l.mem.KernelAddress(f.Address())).next {
		out = append(out, f)
	}
	return out
}

// frameBytes returns the contents of f.
func frameBytes(mem FrameMemory, f mm.Frame) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(mem.KernelAddress(f.Address()))), int(mm.PageSize))
}

// requireFilled asserts that every byte in b, starting at offset from, is
// equal to value.
func requireFilled(t *testing.T, b []byte, from int, value byte) {
	t.Helper()

	for i := from; i < len(b); i++ {
		if b[i] != value {
			t.Fatalf("expected byte %d to be 0x%02x; got 0x%02x", i, value, b[i])
		}
	}
}

// requireUnique asserts that no frame appears twice in frames.
func requireUnique(t *testing.T, frames []mm.Frame) {
	t.Helper()

	seen := make(map[mm.Frame]struct{}, len(frames))
	for _, f := range frames {
		if _, dup := seen[f]; dup {
			t.Fatalf("frame 0x%x appears more than once in the free list", f)
		}
		seen[f] = struct{}{}
	}
}
