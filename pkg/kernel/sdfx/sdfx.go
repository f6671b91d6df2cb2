// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/meshbridge/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// Marching cubes resolution bounds. The cell count is derived from the
// tolerance and clamped to this range.
const (
	minMeshCells = 8
	maxMeshCells = 200
)

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

// Name returns "sdfx".
func (k *SdfxKernel) Name() string { return "sdfx" }

// Cube creates a cube with its minimum corner at the origin, matching the
// sweep kernel's placement. sdf.Box3D centers the box at the origin, so we
// translate by half the edge length. sdfx rejects negative sizes.
func (k *SdfxKernel) Cube(size float64) (kernel.Solid, error) {
	s, err := sdf.Box3D(v3.Vec{X: size, Y: size, Z: size}, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: Box3D(%g): %w", size, err)
	}
	h := size / 2
	m := sdf.Translate3d(v3.Vec{X: h, Y: h, Z: h})
	return &sdfxSolid{s: sdf.Transform3D(s, m)}, nil
}

// meshCells picks a marching cubes resolution so that a cell edge is no
// longer than the tolerance along the largest extent.
func meshCells(s kernel.Solid, tolerance float64) int {
	min, max := s.BoundingBox()
	extent := 0.0
	for i := range min {
		extent = math.Max(extent, max[i]-min[i])
	}
	cells := int(math.Ceil(extent / tolerance))
	if cells < minMeshCells {
		return minMeshCells
	}
	if cells > maxMeshCells {
		return maxMeshCells
	}
	return cells
}

// Tessellate converts a solid to a triangle mesh using marching cubes.
// Marching cubes emits an unindexed triangle soup, so every triangle gets
// three positions of its own.
func (k *SdfxKernel) Tessellate(s kernel.Solid, tolerance float64) (*kernel.Mesh, error) {
	if !(tolerance > 0) {
		return nil, kernel.ErrBadTolerance
	}
	ss, ok := s.(*sdfxSolid)
	if !ok {
		return nil, fmt.Errorf("sdfx: cannot tessellate %T", s)
	}

	renderer := render.NewMarchingCubesUniform(meshCells(s, tolerance))
	triangles := render.ToTriangles(ss.s, renderer)

	soup := make([][3]v3.Vec, 0, len(triangles))
	for _, tri := range triangles {
		soup = append(soup, [3]v3.Vec{tri[0], tri[1], tri[2]})
	}
	return kernel.FromTriangles(soup), nil
}
