//go:build !unix

package physmem

import (
	"unsafe"

	"cowos/kernel/mm"
)

// mapMemory allocates size bytes from the Go heap, over-allocating by one page
// so that the returned slice can start on a page boundary.
func mapMemory(size int) ([]byte, func() error, error) {
	raw := make([]byte, size+int(mm.PageSize))
	offset := int(mm.RoundUp(uintptr(unsafe.Pointer(&raw[0]))) - uintptr(unsafe.Pointer(&raw[0])))

	return raw[offset : offset+size : offset+size], func() error { return nil }, nil
}
