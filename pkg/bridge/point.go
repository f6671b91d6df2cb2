package bridge

import (
	"github.com/chazu/meshbridge/pkg/cmem"
	"github.com/chazu/meshbridge/pkg/liveness"
)

// NewPoint3 allocates a value cell holding (x, y, z) on the C heap.
// Allocation failure aborts the process.
func NewPoint3(x, y, z float64) Handle {
	h := Handle(cmem.NewPoint3(x, y, z))
	track(liveness.KindPoint3, h, 0)
	return h
}

// point3 reads the cell behind h. A null handle reads as the origin.
func point3(h Handle) (x, y, z float64) {
	if h == Null || !checkLive(liveness.KindPoint3, h) {
		return 0, 0, 0
	}
	return cmem.Point3(cmem.Addr(h))
}

// Point3X returns the x field, or 0 for the null handle.
func Point3X(h Handle) float64 {
	x, _, _ := point3(h)
	return x
}

// Point3Y returns the y field, or 0 for the null handle.
func Point3Y(h Handle) float64 {
	_, y, _ := point3(h)
	return y
}

// Point3Z returns the z field, or 0 for the null handle.
func Point3Z(h Handle) float64 {
	_, _, z := point3(h)
	return z
}

// FreePoint3 releases the cell. FreePoint3(Null) does nothing; freeing a
// handle twice is undefined.
func FreePoint3(h Handle) {
	if h == Null || !release(liveness.KindPoint3, h) {
		return
	}
	cmem.Free(cmem.Addr(h))
}
