package bridge

import (
	"runtime/cgo"

	"go.uber.org/zap"

	"github.com/chazu/meshbridge/pkg/kernel"
	"github.com/chazu/meshbridge/pkg/liveness"
	"github.com/chazu/meshbridge/pkg/tessellate"
)

// CreateCube builds a cube of the given edge length with the configured
// kernel, tessellates it at tessellate.DefaultTolerance and returns a
// handle to the mesh. size is not validated. If the kernel rejects it the
// result is Null.
func CreateCube(size float64) Handle {
	k := CurrentKernel()
	m, err := tessellate.Cube(k, size)
	if err != nil {
		Logger().Warn("create cube failed",
			zap.String("kernel", k.Name()),
			zap.Float64("size", size),
			zap.Error(err))
		return Null
	}
	return newMesh(m)
}

// newMesh parks m behind a cgo handle. The handle is the only reference
// the package keeps.
func newMesh(m *kernel.Mesh) Handle {
	h := Handle(cgo.NewHandle(m))
	track(liveness.KindMesh, h, 0)
	return h
}

// meshOf resolves a live mesh handle; nil for Null.
func meshOf(h Handle) *kernel.Mesh {
	if h == Null || !checkLive(liveness.KindMesh, h) {
		return nil
	}
	return cgo.Handle(h).Value().(*kernel.Mesh)
}

// VertexCount returns the number of positions in the mesh.
func VertexCount(h Handle) int32 {
	m := meshOf(h)
	if m == nil {
		return 0
	}
	return int32(m.VertexCount())
}

// FaceCount returns the number of triangles in the mesh.
func FaceCount(h Handle) int32 {
	m := meshOf(h)
	if m == nil {
		return 0
	}
	return int32(m.FaceCount())
}

// FreeMesh releases the mesh. Buffers exported from it stay valid.
// FreeMesh(Null) does nothing; freeing a handle twice is undefined.
func FreeMesh(h Handle) {
	if h == Null || !release(liveness.KindMesh, h) {
		return
	}
	cgo.Handle(h).Delete()
}
