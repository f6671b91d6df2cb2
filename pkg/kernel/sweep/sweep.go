// Package sweep implements the kernel.Kernel interface with a small
// boundary-representation modeler built from translational sweeps.
// A vertex swept along a vector becomes an edge, an edge becomes a planar
// face, and a face becomes a closed solid. Solids made this way are
// bounded by planar convex faces, so tessellation is exact.
package sweep

import (
	"fmt"

	"github.com/chazu/meshbridge/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface checks.
var _ kernel.Kernel = (*Kernel)(nil)
var _ kernel.Solid = (*Solid)(nil)

// Edge is a straight segment between two points.
type Edge struct {
	Start, End v3.Vec
}

// Face is a planar polygon. The loop winds counter-clockwise when viewed
// from the side its normal points to.
type Face struct {
	Loop []v3.Vec
}

// Normal returns the unnormalized face normal using Newell's method.
// Degenerate loops return the zero vector.
func (f Face) Normal() v3.Vec {
	var n v3.Vec
	for i, cur := range f.Loop {
		next := f.Loop[(i+1)%len(f.Loop)]
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	return n
}

// reversed returns the face with its loop direction flipped.
func (f Face) reversed() Face {
	loop := make([]v3.Vec, len(f.Loop))
	for i, p := range f.Loop {
		loop[len(loop)-1-i] = p
	}
	return Face{Loop: loop}
}

// translated returns a copy of the face moved by d.
func (f Face) translated(d v3.Vec) Face {
	loop := make([]v3.Vec, len(f.Loop))
	for i, p := range f.Loop {
		loop[i] = p.Add(d)
	}
	return Face{Loop: loop}
}

// Solid is a closed shell of planar faces with outward-facing loops.
type Solid struct {
	Faces []Face
}

// BoundingBox returns the axis-aligned bounding box.
func (s *Solid) BoundingBox() (min, max [3]float64) {
	first := true
	for _, f := range s.Faces {
		for _, p := range f.Loop {
			c := [3]float64{p.X, p.Y, p.Z}
			if first {
				min, max = c, c
				first = false
				continue
			}
			for i := range c {
				if c[i] < min[i] {
					min[i] = c[i]
				}
				if c[i] > max[i] {
					max[i] = c[i]
				}
			}
		}
	}
	return min, max
}

// SweepVertex sweeps the point p along d into an edge.
func SweepVertex(p, d v3.Vec) Edge {
	return Edge{Start: p, End: p.Add(d)}
}

// SweepEdge sweeps e along d into a quadrilateral face.
func SweepEdge(e Edge, d v3.Vec) Face {
	return Face{Loop: []v3.Vec{e.Start, e.End, e.End.Add(d), e.Start.Add(d)}}
}

// SweepFace sweeps f along d into a prism. The source face is re-oriented
// first so that its normal agrees with d; the cap at the origin then faces
// backwards and each side quad faces away from the loop interior.
func SweepFace(f Face, d v3.Vec) *Solid {
	if f.Normal().Dot(d) < 0 {
		f = f.reversed()
	}
	n := len(f.Loop)
	faces := make([]Face, 0, n+2)
	faces = append(faces, f.reversed(), f.translated(d))
	for i := 0; i < n; i++ {
		a := f.Loop[i]
		b := f.Loop[(i+1)%n]
		faces = append(faces, Face{Loop: []v3.Vec{a, b, b.Add(d), a.Add(d)}})
	}
	return &Solid{Faces: faces}
}

// Kernel implements kernel.Kernel with translational sweeps.
type Kernel struct{}

// New returns a new sweep Kernel.
func New() *Kernel {
	return &Kernel{}
}

// Name returns "sweep".
func (k *Kernel) Name() string { return "sweep" }

// Cube sweeps a vertex at the origin along z, the resulting edge along x
// and the resulting face along y. The cube spans [0,size] on every axis.
// Zero and negative sizes are swept as given.
func (k *Kernel) Cube(size float64) (kernel.Solid, error) {
	vertex := v3.Vec{}
	edge := SweepVertex(vertex, v3.Vec{Z: size})
	face := SweepEdge(edge, v3.Vec{X: size})
	return SweepFace(face, v3.Vec{Y: size}), nil
}

// Tessellate fan-triangulates every face. Faces are planar and convex, so
// the triangulation has zero deflection for any positive tolerance. Each
// face keeps its own positions, so a cube yields 4 positions and 2
// triangles per face.
func (k *Kernel) Tessellate(s kernel.Solid, tolerance float64) (*kernel.Mesh, error) {
	if !(tolerance > 0) {
		return nil, kernel.ErrBadTolerance
	}
	solid, ok := s.(*Solid)
	if !ok {
		return nil, fmt.Errorf("sweep: cannot tessellate %T", s)
	}

	mesh := &kernel.Mesh{}
	for _, f := range solid.Faces {
		base := len(mesh.Positions)
		mesh.Positions = append(mesh.Positions, f.Loop...)
		for i := 1; i+1 < len(f.Loop); i++ {
			mesh.Faces = append(mesh.Faces, kernel.Face{base, base + i, base + i + 1})
		}
	}
	return mesh, nil
}
