// Package tessellate turns a shape request into a triangle mesh using a
// geometry kernel. The solid built along the way is transient and never
// leaves this package.
package tessellate

import (
	"fmt"

	"github.com/chazu/meshbridge/pkg/kernel"
)

// DefaultTolerance is the deflection tolerance used for every mesh handed
// across the library boundary. Callers cannot change it.
const DefaultTolerance = 0.01

// Shape enumerates the primitives a request can ask for.
type Shape int

const (
	ShapeCube Shape = iota // axis-aligned cube with its min corner at the origin
)

func (s Shape) String() string {
	switch s {
	case ShapeCube:
		return "cube"
	default:
		return "unknown"
	}
}

// Request describes one shape to build.
type Request struct {
	Shape Shape
	Size  float64 // edge length; passed through to the kernel unvalidated
}

// Tessellate builds the requested solid with k and triangulates it at
// DefaultTolerance.
func Tessellate(req Request, k kernel.Kernel) (*kernel.Mesh, error) {
	return TessellateWith(req, k, DefaultTolerance)
}

// TessellateWith is Tessellate with an explicit tolerance. It exists for
// baseline tooling; the boundary layer always uses DefaultTolerance.
func TessellateWith(req Request, k kernel.Kernel, tolerance float64) (*kernel.Mesh, error) {
	var (
		solid kernel.Solid
		err   error
	)

	switch req.Shape {
	case ShapeCube:
		solid, err = k.Cube(req.Size)
	default:
		return nil, fmt.Errorf("tessellate: unsupported shape %v", req.Shape)
	}
	if err != nil {
		return nil, fmt.Errorf("tessellate: %s %s(%g): %w", k.Name(), req.Shape, req.Size, err)
	}

	mesh, err := k.Tessellate(solid, tolerance)
	if err != nil {
		return nil, fmt.Errorf("tessellate: %s tolerance %g: %w", k.Name(), tolerance, err)
	}
	if err := mesh.Validate(); err != nil {
		return nil, fmt.Errorf("tessellate: %s returned a bad mesh: %w", k.Name(), err)
	}
	return mesh, nil
}

// Cube is shorthand for Tessellate(Request{Shape: ShapeCube, Size: size}, k).
func Cube(k kernel.Kernel, size float64) (*kernel.Mesh, error) {
	return Tessellate(Request{Shape: ShapeCube, Size: size}, k)
}
