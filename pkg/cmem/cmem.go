// Package cmem allocates the blocks the library hands to foreign callers
// on the C heap. Go memory may not be retained by C code after a call
// returns, so every cell and flat array that outlives a call lives here.
//
// C.malloc aborts the process when the allocator reports failure, which
// is the only failure mode of every function in this package.
package cmem

/*
#include <stdlib.h>
#include <stdint.h>

typedef struct {
	double x;
	double y;
	double z;
} mb_point3;
*/
import "C"

import "unsafe"

// Addr is the address of a C allocation, 0 for none.
type Addr uintptr

// NewPoint3 allocates a point cell holding (x, y, z).
func NewPoint3(x, y, z float64) Addr {
	p := (*C.mb_point3)(C.malloc(C.size_t(C.sizeof_mb_point3)))
	p.x = C.double(x)
	p.y = C.double(y)
	p.z = C.double(z)
	return Addr(unsafe.Pointer(p))
}

// Point3 copies the fields out of the cell at a.
func Point3(a Addr) (x, y, z float64) {
	p := (*C.mb_point3)(unsafe.Pointer(a))
	return float64(p.x), float64(p.y), float64(p.z)
}

// NewFloat32s allocates room for n floats and returns the address and a
// Go view over it. The view is valid until Free(addr).
func NewFloat32s(n int) (Addr, []float32) {
	p := C.malloc(C.size_t(n) * C.size_t(C.sizeof_float))
	return Addr(p), unsafe.Slice((*float32)(p), n)
}

// NewInt32s allocates room for n int32 values and returns the address and
// a Go view over it. The view is valid until Free(addr).
func NewInt32s(n int) (Addr, []int32) {
	p := C.malloc(C.size_t(n) * C.size_t(C.sizeof_int32_t))
	return Addr(p), unsafe.Slice((*int32)(p), n)
}

// Float32s returns a Go view of n floats starting at a.
func Float32s(a Addr, n int) []float32 {
	if a == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(a)), n)
}

// Int32s returns a Go view of n int32 values starting at a.
func Int32s(a Addr, n int) []int32 {
	if a == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(a)), n)
}

// Free releases a block from any New function. Free(0) does nothing.
func Free(a Addr) {
	if a == 0 {
		return
	}
	C.free(unsafe.Pointer(a))
}
