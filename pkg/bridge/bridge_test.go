package bridge_test

import (
	"sync"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/meshbridge/pkg/bridge"
	"github.com/chazu/meshbridge/pkg/kernel/sdfx"
	"github.com/chazu/meshbridge/pkg/kernel/sweep"
	"github.com/chazu/meshbridge/pkg/liveness"
)

// withLiveness turns on the registry for one test and collects
// violations instead of panicking.
func withLiveness(t *testing.T) (*liveness.Registry, *[]error) {
	t.Helper()

	r, err := bridge.EnableLivenessCheck()
	require.NoError(t, err, "should enable liveness check")

	var (
		mu   sync.Mutex
		errs []error
	)
	bridge.SetViolationHandler(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, err)
	})
	t.Cleanup(func() {
		bridge.SetViolationHandler(nil)
		bridge.DisableLivenessCheck()
	})
	return r, &errs
}

// withSweep selects the sweep kernel, whose counts are exact.
func withSweep(t *testing.T) {
	t.Helper()
	bridge.SetKernel(sweep.New())
}

func TestPoint3RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		x, y, z float64
	}{
		{"origin", 0, 0, 0},
		{"mixed", 1.5, -2.25, 0},
		{"tiny", 5e-324, -5e-324, 1e-300},
		{"huge", 1.7976931348623157e308, -1e308, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := bridge.NewPoint3(tt.x, tt.y, tt.z)
			require.NotEqual(t, bridge.Null, h, "should allocate a cell")
			defer bridge.FreePoint3(h)

			assert.Equal(t, tt.x, bridge.Point3X(h))
			assert.Equal(t, tt.y, bridge.Point3Y(h))
			assert.Equal(t, tt.z, bridge.Point3Z(h))
		})
	}
}

func TestPoint3YExact(t *testing.T) {
	h := bridge.NewPoint3(1.5, -2.25, 0.0)
	defer bridge.FreePoint3(h)

	require.Equal(t, -2.25, bridge.Point3Y(h), "y should survive without precision loss")
}

func TestNullHandles(t *testing.T) {
	assert.Zero(t, bridge.Point3X(bridge.Null))
	assert.Zero(t, bridge.Point3Y(bridge.Null))
	assert.Zero(t, bridge.Point3Z(bridge.Null))

	assert.NotPanics(t, func() {
		bridge.FreePoint3(bridge.Null)
		bridge.FreeMesh(bridge.Null)
		bridge.FreePositions(bridge.Null)
		bridge.FreeFaces(bridge.Null)
	}, "null destroy should be a no-op")

	assert.Zero(t, bridge.VertexCount(bridge.Null))
	assert.Zero(t, bridge.FaceCount(bridge.Null))
	assert.Equal(t, bridge.Null, bridge.ExportPositions(bridge.Null))
	assert.Equal(t, bridge.Null, bridge.ExportFaces(bridge.Null))
}

func TestNullHandlesAreNotTracked(t *testing.T) {
	r, errs := withLiveness(t)

	bridge.FreePoint3(bridge.Null)
	bridge.FreeMesh(bridge.Null)
	_ = bridge.Point3X(bridge.Null)

	assert.Empty(t, *errs, "null handles should never reach the registry")
	assert.Empty(t, r.Entries())
}

func TestCreateCubeMatchesBaseline(t *testing.T) {
	withSweep(t)

	b, err := bridge.LoadBaseline("testdata/baseline.yaml")
	require.NoError(t, err, "should load baseline")
	require.NotEmpty(t, b.Cases)

	got := bridge.RecordBaseline(b.Sizes("sweep"))
	assert.Empty(t, b.Diff(got), "tessellation drifted from the recorded baseline")
}

func TestCreateCubeSize2(t *testing.T) {
	withSweep(t)

	h := bridge.CreateCube(2.0)
	require.NotEqual(t, bridge.Null, h)
	defer bridge.FreeMesh(h)

	assert.Equal(t, int32(24), bridge.VertexCount(h))
	assert.Equal(t, int32(12), bridge.FaceCount(h))

	// counts are repeatable while the handle is live
	for i := 0; i < 3; i++ {
		assert.Equal(t, int32(12), bridge.FaceCount(h))
	}
	assert.Zero(t, bridge.FaceCount(h)%2, "a cube has two triangles per square face")
}

func TestExportedBuffers(t *testing.T) {
	withSweep(t)
	r, errs := withLiveness(t)

	h := bridge.CreateCube(2.0)
	vc := int(bridge.VertexCount(h))
	fc := int(bridge.FaceCount(h))

	pb := bridge.ExportPositions(h)
	fb := bridge.ExportFaces(h)
	require.NotEqual(t, bridge.Null, pb)
	require.NotEqual(t, bridge.Null, fb)

	pe, err := r.Check(liveness.KindPositions, uint64(pb))
	require.NoError(t, err)
	assert.Equal(t, 3*vc, pe.Count, "position block should hold 3 floats per vertex")

	fe, err := r.Check(liveness.KindFaces, uint64(fb))
	require.NoError(t, err)
	assert.Equal(t, 3*fc, fe.Count, "face block should hold 3 indices per face")

	positions := bridge.Positions(pb, 3*vc)
	assert.True(t, lo.EveryBy(positions, func(c float32) bool { return c == 0 || c == 2 }),
		"cube corners should sit on 0 or 2")

	indices := bridge.Indices(fb, 3*fc)
	assert.True(t, lo.EveryBy(indices, func(i int32) bool { return i >= 0 && int(i) < vc }),
		"every index should reference a position")

	bridge.FreePositions(pb)
	bridge.FreeFaces(fb)
	bridge.FreeMesh(h)

	assert.Empty(t, *errs)
	assert.Empty(t, r.Entries(), "nothing should leak")
}

func TestFreeOrderIndependence(t *testing.T) {
	withSweep(t)

	type step func(mesh, pos, faces bridge.Handle)
	freeMesh := func(m, _, _ bridge.Handle) { bridge.FreeMesh(m) }
	freePos := func(_, p, _ bridge.Handle) { bridge.FreePositions(p) }
	freeFaces := func(_, _, f bridge.Handle) { bridge.FreeFaces(f) }

	orders := map[string][]step{
		"mesh-pos-faces": {freeMesh, freePos, freeFaces},
		"mesh-faces-pos": {freeMesh, freeFaces, freePos},
		"pos-mesh-faces": {freePos, freeMesh, freeFaces},
		"pos-faces-mesh": {freePos, freeFaces, freeMesh},
		"faces-mesh-pos": {freeFaces, freeMesh, freePos},
		"faces-pos-mesh": {freeFaces, freePos, freeMesh},
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			r, errs := withLiveness(t)

			m := bridge.CreateCube(2.0)
			n := 3 * int(bridge.VertexCount(m))
			p := bridge.ExportPositions(m)
			f := bridge.ExportFaces(m)
			want := append([]float32(nil), bridge.Positions(p, n)...)

			for i, s := range order {
				s(m, p, f)
				// buffers outlive the mesh
				if i == 0 && name[:4] == "mesh" {
					assert.Equal(t, want, bridge.Positions(p, n))
				}
			}

			assert.Empty(t, *errs)
			assert.Empty(t, r.Entries(), "every allocation should be released exactly once")
		})
	}
}

func TestDoubleFreePanicsByDefault(t *testing.T) {
	withSweep(t)
	_, err := bridge.EnableLivenessCheck()
	require.NoError(t, err)
	t.Cleanup(bridge.DisableLivenessCheck)

	h := bridge.CreateCube(1)
	bridge.FreeMesh(h)

	assert.Panics(t, func() { bridge.FreeMesh(h) }, "second destroy should assert in checked builds")
}

func TestDoubleFreeReported(t *testing.T) {
	_, errs := withLiveness(t)

	p := bridge.NewPoint3(1, 2, 3)
	bridge.FreePoint3(p)
	bridge.FreePoint3(p)

	require.Len(t, *errs, 1)
	assert.ErrorIs(t, (*errs)[0], liveness.ErrDoubleFree)
}

func TestUseAfterFreeReported(t *testing.T) {
	withSweep(t)
	_, errs := withLiveness(t)

	h := bridge.CreateCube(1)
	bridge.FreeMesh(h)

	assert.Zero(t, bridge.VertexCount(h), "checked query on a dead handle should not touch it")
	require.Len(t, *errs, 1)
	assert.ErrorIs(t, (*errs)[0], liveness.ErrDoubleFree)
}

func TestWrongFreeFunctionReported(t *testing.T) {
	withSweep(t)
	r, errs := withLiveness(t)

	h := bridge.CreateCube(1)
	fb := bridge.ExportFaces(h)

	bridge.FreePositions(fb)
	require.Len(t, *errs, 1)
	assert.ErrorIs(t, (*errs)[0], liveness.ErrKindMismatch)
	assert.Equal(t, 1, r.Live(liveness.KindFaces), "rejected free should not release the block")

	bridge.FreeFaces(fb)
	bridge.FreeMesh(h)
	assert.Empty(t, r.Entries())
}

func TestCreateCubeKernelRejection(t *testing.T) {
	bridge.SetKernel(sdfx.New())
	t.Cleanup(func() { bridge.SetKernel(sweep.New()) })

	h := bridge.CreateCube(-1)
	assert.Equal(t, bridge.Null, h, "a rejected size should yield the null handle")
	assert.Zero(t, bridge.VertexCount(h))
	bridge.FreeMesh(h)
}

func TestCreateCubeNonPositivePassThrough(t *testing.T) {
	withSweep(t)

	for _, size := range []float64{0, -2} {
		h := bridge.CreateCube(size)
		require.NotEqual(t, bridge.Null, h, "sweep kernel accepts size %v", size)
		assert.Equal(t, int32(12), bridge.FaceCount(h))
		bridge.FreeMesh(h)
	}
}

func TestDistinctHandlesConcurrently(t *testing.T) {
	withSweep(t)
	r, errs := withLiveness(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := bridge.NewPoint3(float64(i), 0, 0)
			m := bridge.CreateCube(float64(i + 1))
			b := bridge.ExportPositions(m)

			assert.Equal(t, float64(i), bridge.Point3X(p))
			assert.Len(t, bridge.Positions(b, 3*int(bridge.VertexCount(m))), 72)

			bridge.FreeMesh(m)
			bridge.FreePositions(b)
			bridge.FreePoint3(p)
		}(i)
	}
	wg.Wait()

	assert.Empty(t, *errs)
	assert.Empty(t, r.Entries())
}
