package kernel

import v3 "github.com/deadsy/sdfx/vec/v3"

// Face is a triangle given as three indices into Mesh.Positions, in the
// winding order produced by the kernel.
type Face [3]int

// Mesh is a triangulated surface at native precision.
// Positions are shared between faces; every index in Faces refers to an
// entry of Positions.
type Mesh struct {
	Positions []v3.Vec
	Faces     []Face
}

// VertexCount returns the number of positions.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// FaceCount returns the number of triangles.
func (m *Mesh) FaceCount() int {
	return len(m.Faces)
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Positions) == 0
}

// Bounds returns the axis-aligned bounds of the positions. An empty mesh
// reports zero bounds.
func (m *Mesh) Bounds() (min, max [3]float64) {
	if m.IsEmpty() {
		return min, max
	}
	p := m.Positions[0]
	min = [3]float64{p.X, p.Y, p.Z}
	max = min
	for _, p := range m.Positions[1:] {
		for i, c := range [3]float64{p.X, p.Y, p.Z} {
			if c < min[i] {
				min[i] = c
			}
			if c > max[i] {
				max[i] = c
			}
		}
	}
	return min, max
}

// addTriangle appends a triangle with three fresh positions and returns
// the index of the new face.
func (m *Mesh) addTriangle(a, b, c v3.Vec) int {
	base := len(m.Positions)
	m.Positions = append(m.Positions, a, b, c)
	m.Faces = append(m.Faces, Face{base, base + 1, base + 2})
	return len(m.Faces) - 1
}

// FromTriangles builds an unwelded mesh from a triangle soup: every
// triangle gets its own three positions.
func FromTriangles(tris [][3]v3.Vec) *Mesh {
	m := &Mesh{
		Positions: make([]v3.Vec, 0, len(tris)*3),
		Faces:     make([]Face, 0, len(tris)),
	}
	for _, t := range tris {
		m.addTriangle(t[0], t[1], t[2])
	}
	return m
}

// Validate reports the first face index that falls outside Positions.
func (m *Mesh) Validate() error {
	n := len(m.Positions)
	for i, f := range m.Faces {
		for j, idx := range f {
			if idx < 0 || idx >= n {
				return &IndexError{Face: i, Corner: j, Index: idx, VertexCount: n}
			}
		}
	}
	return nil
}
