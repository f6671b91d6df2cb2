package bridge

import (
	"fmt"
	"os"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/chazu/meshbridge/pkg/tessellate"
)

// BaselineCase pins the counts CreateCube produced for one kernel and
// size at the default tolerance.
type BaselineCase struct {
	Kernel   string  `yaml:"kernel"`
	Size     float64 `yaml:"size"`
	Vertices int32   `yaml:"vertices"`
	Faces    int32   `yaml:"faces"`
}

// Baseline is a recorded set of tessellation counts.
type Baseline struct {
	Tolerance float64        `yaml:"tolerance"`
	Cases     []BaselineCase `yaml:"cases"`
}

// RecordBaseline runs CreateCube for every size through the current
// kernel and records the counts. Each mesh is freed before returning.
func RecordBaseline(sizes []float64) Baseline {
	k := CurrentKernel()
	b := Baseline{Tolerance: tessellate.DefaultTolerance}
	for _, size := range sizes {
		h := CreateCube(size)
		b.Cases = append(b.Cases, BaselineCase{
			Kernel:   k.Name(),
			Size:     size,
			Vertices: VertexCount(h),
			Faces:    FaceCount(h),
		})
		FreeMesh(h)
	}
	return b
}

// LoadBaseline reads a baseline file.
func LoadBaseline(path string) (Baseline, error) {
	var b Baseline
	data, err := os.ReadFile(path)
	if err != nil {
		return b, fmt.Errorf("bridge: baseline: %w", err)
	}
	if err := yaml.Unmarshal(data, &b); err != nil {
		return b, fmt.Errorf("bridge: baseline %s: %w", path, err)
	}
	return b, nil
}

// WriteBaseline writes b to path.
func WriteBaseline(path string, b Baseline) error {
	data, err := yaml.Marshal(b)
	if err != nil {
		return fmt.Errorf("bridge: baseline: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("bridge: baseline: %w", err)
	}
	return nil
}

// Diff compares a fresh recording against b and returns one line per
// mismatching case, for the cases whose kernel matches.
func (b Baseline) Diff(got Baseline) []string {
	var out []string
	if got.Tolerance != b.Tolerance {
		out = append(out, fmt.Sprintf("tolerance: recorded %g, now %g", b.Tolerance, got.Tolerance))
	}
	for _, want := range b.Cases {
		for _, c := range got.Cases {
			if c.Kernel != want.Kernel || c.Size != want.Size {
				continue
			}
			if c.Vertices != want.Vertices || c.Faces != want.Faces {
				out = append(out, fmt.Sprintf("%s size %g: recorded %d/%d, now %d/%d",
					want.Kernel, want.Size, want.Vertices, want.Faces, c.Vertices, c.Faces))
			}
		}
	}
	return out
}

// Sizes returns the sizes recorded for the named kernel.
func (b Baseline) Sizes(kernel string) []float64 {
	return lo.FilterMap(b.Cases, func(c BaselineCase, _ int) (float64, bool) {
		return c.Size, c.Kernel == kernel
	})
}
