package frame_test

import "unsafe"

// uintptrOf returns the virtual address backing a test-only byte slice, to
// stand in for the frame-mapping base on a host running these tests.
func uintptrOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}
