package bridge

import (
	"github.com/chazu/meshbridge/pkg/cmem"
	"github.com/chazu/meshbridge/pkg/liveness"
)

// ExportPositions copies the mesh positions into a new C block of
// 3*VertexCount floats laid out x0,y0,z0,x1,... Coordinates are narrowed
// to float32. The block does not depend on the mesh and must be released
// with FreePositions. Null yields Null.
func ExportPositions(h Handle) Handle {
	m := meshOf(h)
	if m == nil {
		return Null
	}

	addr, buf := cmem.NewFloat32s(3 * len(m.Positions))
	for i, p := range m.Positions {
		buf[3*i+0] = float32(p.X)
		buf[3*i+1] = float32(p.Y)
		buf[3*i+2] = float32(p.Z)
	}

	b := Handle(addr)
	track(liveness.KindPositions, b, len(buf))
	return b
}

// ExportFaces copies the triangle indices into a new C block of
// 3*FaceCount int32 values, keeping the kernel's winding. The block must
// be released with FreeFaces. Null yields Null.
func ExportFaces(h Handle) Handle {
	m := meshOf(h)
	if m == nil {
		return Null
	}

	addr, buf := cmem.NewInt32s(3 * len(m.Faces))
	for i, f := range m.Faces {
		buf[3*i+0] = int32(f[0])
		buf[3*i+1] = int32(f[1])
		buf[3*i+2] = int32(f[2])
	}

	b := Handle(addr)
	track(liveness.KindFaces, b, len(buf))
	return b
}

// FreePositions releases a block from ExportPositions.
func FreePositions(b Handle) {
	if b == Null || !release(liveness.KindPositions, b) {
		return
	}
	cmem.Free(cmem.Addr(b))
}

// FreeFaces releases a block from ExportFaces.
func FreeFaces(b Handle) {
	if b == Null || !release(liveness.KindFaces, b) {
		return
	}
	cmem.Free(cmem.Addr(b))
}

// Positions returns a Go view of n floats of a live position block.
// The caller supplies n, normally 3*VertexCount of the source mesh.
func Positions(b Handle, n int) []float32 {
	if b == Null || !checkLive(liveness.KindPositions, b) {
		return nil
	}
	return cmem.Float32s(cmem.Addr(b), n)
}

// Indices returns a Go view of n int32 values of a live face block.
func Indices(b Handle, n int) []int32 {
	if b == Null || !checkLive(liveness.KindFaces, b) {
		return nil
	}
	return cmem.Int32s(cmem.Addr(b), n)
}
