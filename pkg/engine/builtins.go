package engine

import (
	"fmt"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/meshbridge/pkg/bridge"
	"github.com/chazu/meshbridge/pkg/liveness"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites script source before passing it to zygomys:
//
//  1. ; line comments become // comments, which is what zygomys parses.
//  2. Kebab-case becomes underscores: get-vertices -> get_vertices.
//     zygomys reads a hyphen inside an identifier as subtraction.
//
// Both transformations respect string literal boundaries.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Only when the hyphen sits between identifier characters.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer from a SexpInt.
func toInt(s zygo.Sexp) (int64, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toHandle extracts a handle. Scripts see handles as plain integers, the
// way a foreign caller does.
func toHandle(s zygo.Sexp) (bridge.Handle, error) {
	n, err := toInt(s)
	if err != nil {
		return bridge.Null, err
	}
	if n < 0 {
		return bridge.Null, fmt.Errorf("handle must not be negative, got %d", n)
	}
	return bridge.Handle(n), nil
}

func intSexp(n int64) zygo.Sexp { return &zygo.SexpInt{Val: n} }

func floatSexp(f float64) zygo.Sexp { return &zygo.SexpFloat{Val: f} }

func handleSexp(h bridge.Handle) zygo.Sexp { return intSexp(int64(h)) }

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// builtin is one script function with a fixed number of arguments.
type builtin struct {
	name  string
	arity int
	fn    func(args []zygo.Sexp) (zygo.Sexp, error)
}

// registerBuiltins installs the handle API into a zygomys environment.
// Names match the exported C symbols; scripts may spell them with
// hyphens. Handles pass through the ledger so a script cannot free or
// query something it does not hold. The null handle 0 is passed through
// untouched to exercise the null-handle defaults.
func registerBuiltins(env *zygo.Zlisp, l *ledger) {
	// use checks h against the ledger unless it is the null handle.
	use := func(kind liveness.Kind, h bridge.Handle) (ledgerEntry, error) {
		if h == bridge.Null {
			return ledgerEntry{kind: kind}, nil
		}
		return l.lookup(kind, h)
	}
	free := func(kind liveness.Kind, h bridge.Handle) error {
		if h == bridge.Null {
			return nil
		}
		return l.remove(kind, h)
	}

	point3Field := func(get func(bridge.Handle) float64) func([]zygo.Sexp) (zygo.Sexp, error) {
		return func(args []zygo.Sexp) (zygo.Sexp, error) {
			h, err := toHandle(args[0])
			if err != nil {
				return zygo.SexpNull, err
			}
			if _, err := use(liveness.KindPoint3, h); err != nil {
				return zygo.SexpNull, err
			}
			return floatSexp(get(h)), nil
		}
	}

	meshCount := func(count func(bridge.Handle) int32) func([]zygo.Sexp) (zygo.Sexp, error) {
		return func(args []zygo.Sexp) (zygo.Sexp, error) {
			h, err := toHandle(args[0])
			if err != nil {
				return zygo.SexpNull, err
			}
			if _, err := use(liveness.KindMesh, h); err != nil {
				return zygo.SexpNull, err
			}
			return intSexp(int64(count(h))), nil
		}
	}

	export := func(kind liveness.Kind, exp func(bridge.Handle) bridge.Handle, count func(bridge.Handle) int32) func([]zygo.Sexp) (zygo.Sexp, error) {
		return func(args []zygo.Sexp) (zygo.Sexp, error) {
			h, err := toHandle(args[0])
			if err != nil {
				return zygo.SexpNull, err
			}
			if _, err := use(liveness.KindMesh, h); err != nil {
				return zygo.SexpNull, err
			}
			b := exp(h)
			l.add(kind, b, 3*int(count(h)))
			return handleSexp(b), nil
		}
	}

	destroy := func(kind liveness.Kind) func([]zygo.Sexp) (zygo.Sexp, error) {
		return func(args []zygo.Sexp) (zygo.Sexp, error) {
			h, err := toHandle(args[0])
			if err != nil {
				return zygo.SexpNull, err
			}
			if err := free(kind, h); err != nil {
				return zygo.SexpNull, err
			}
			freeFuncs[kind](h)
			return zygo.SexpNull, nil
		}
	}

	element := func(kind liveness.Kind, read func(bridge.Handle, int, int) zygo.Sexp) func([]zygo.Sexp) (zygo.Sexp, error) {
		return func(args []zygo.Sexp) (zygo.Sexp, error) {
			b, err := toHandle(args[0])
			if err != nil {
				return zygo.SexpNull, err
			}
			if b == bridge.Null {
				return zygo.SexpNull, fmt.Errorf("null %s buffer", kind)
			}
			e, err := l.lookup(kind, b)
			if err != nil {
				return zygo.SexpNull, err
			}
			i, err := toInt(args[1])
			if err != nil {
				return zygo.SexpNull, err
			}
			if i < 0 || i >= int64(e.count) {
				return zygo.SexpNull, fmt.Errorf("index %d out of range [0, %d)", i, e.count)
			}
			return read(b, e.count, int(i)), nil
		}
	}

	builtins := []builtin{
		{"my_add", 2, func(args []zygo.Sexp) (zygo.Sexp, error) {
			x, err := toInt(args[0])
			if err != nil {
				return zygo.SexpNull, err
			}
			y, err := toInt(args[1])
			if err != nil {
				return zygo.SexpNull, err
			}
			return intSexp(int64(int32(x) + int32(y))), nil
		}},

		// (construct-point3 1.5 -2.25 0)
		{"construct_point3", 3, func(args []zygo.Sexp) (zygo.Sexp, error) {
			var xyz [3]float64
			for i := range xyz {
				f, err := toFloat64(args[i])
				if err != nil {
					return zygo.SexpNull, err
				}
				xyz[i] = f
			}
			h := bridge.NewPoint3(xyz[0], xyz[1], xyz[2])
			l.add(liveness.KindPoint3, h, 0)
			return handleSexp(h), nil
		}},
		{"point3_get_x", 1, point3Field(bridge.Point3X)},
		{"point3_get_y", 1, point3Field(bridge.Point3Y)},
		{"point3_get_z", 1, point3Field(bridge.Point3Z)},
		{"point3_free", 1, destroy(liveness.KindPoint3)},

		// (create-cube 2.0)
		{"create_cube", 1, func(args []zygo.Sexp) (zygo.Sexp, error) {
			size, err := toFloat64(args[0])
			if err != nil {
				return zygo.SexpNull, err
			}
			h := bridge.CreateCube(size)
			l.add(liveness.KindMesh, h, 0)
			return handleSexp(h), nil
		}},
		{"get_vertex_count", 1, meshCount(bridge.VertexCount)},
		{"get_face_count", 1, meshCount(bridge.FaceCount)},
		{"free_polygon_mesh", 1, destroy(liveness.KindMesh)},

		{"get_vertices", 1, export(liveness.KindPositions, bridge.ExportPositions, bridge.VertexCount)},
		{"get_faces", 1, export(liveness.KindFaces, bridge.ExportFaces, bridge.FaceCount)},
		{"free_vertices", 1, destroy(liveness.KindPositions)},
		{"free_faces", 1, destroy(liveness.KindFaces)},

		// (vertex-at buf 4) reads one float of a position buffer.
		{"vertex_at", 2, element(liveness.KindPositions, func(b bridge.Handle, n, i int) zygo.Sexp {
			return floatSexp(float64(bridge.Positions(b, n)[i]))
		})},
		// (index-at buf 4) reads one index of a face buffer.
		{"index_at", 2, element(liveness.KindFaces, func(b bridge.Handle, n, i int) zygo.Sexp {
			return intSexp(int64(bridge.Indices(b, n)[i]))
		})},

		// (live-handles) counts what the script still holds.
		{"live_handles", 0, func([]zygo.Sexp) (zygo.Sexp, error) {
			return intSexp(int64(len(l.live))), nil
		}},
	}

	for _, b := range builtins {
		b := b
		env.AddFunction(b.name, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != b.arity {
				return zygo.SexpNull, fmt.Errorf("%s requires %d argument(s), got %d", name, b.arity, len(args))
			}
			res, err := b.fn(args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			return res, nil
		})
	}
}
