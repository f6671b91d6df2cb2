// Package kernel defines the abstract geometry kernel interface.
// Implementations (sweep, sdfx, manifold) build solids and triangulate
// them behind this interface. The boundary layer only ever sees a
// Kernel, so backends can be swapped without touching the ABI.
package kernel

import "errors"

// ErrBadTolerance is returned by Tessellate when the deflection tolerance
// is not a positive number.
var ErrBadTolerance = errors.New("kernel: tolerance must be positive")

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation. Solids never
// leave the process boundary; they are consumed by Tessellate.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Name identifies the backend ("sweep", "sdfx", "manifold").
	Name() string

	// Cube builds a cube with the given edge length. The size is not
	// validated here; each backend decides what a non-positive size means.
	Cube(size float64) (Solid, error)

	// Tessellate converts a solid into a triangle mesh whose surface
	// deviates from the solid by at most tolerance.
	Tessellate(s Solid, tolerance float64) (*Mesh, error)
}
