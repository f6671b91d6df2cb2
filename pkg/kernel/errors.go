package kernel

import "fmt"

// IndexError reports a face corner that references a missing position.
type IndexError struct {
	Face        int
	Corner      int
	Index       int
	VertexCount int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("kernel: face %d corner %d: index %d out of range [0, %d)",
		e.Face, e.Corner, e.Index, e.VertexCount)
}
