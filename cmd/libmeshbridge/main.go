// Command libmeshbridge is the C shared library exposing the meshbridge
// handle API to foreign runtimes.
//
// Build with: go build -buildmode=c-shared -o libmeshbridge.so ./cmd/libmeshbridge
//
// Every handle is an intptr_t. Each construct function has exactly one
// matching free function, and each handle must be freed exactly once:
//
//	construct_point3  -> point3_free
//	create_cube       -> free_polygon_mesh
//	get_vertices      -> free_vertices  (3 * get_vertex_count floats)
//	get_faces         -> free_faces     (3 * get_face_count int32_t)
//
// Buffers are copies and may be freed before or after their mesh.
package main

/*
#include <stdint.h>
*/
import "C"

import (
	"go.uber.org/zap"

	"github.com/chazu/meshbridge/pkg/bridge"
)

// init applies the MESHBRIDGE_* environment when the host loads the
// library. A bad setting falls back to the defaults rather than failing
// the load.
func init() {
	err := bridge.Configure(bridge.ConfigFromEnv())
	if err == nil {
		return
	}
	if l, lerr := zap.NewProduction(); lerr == nil {
		l.Warn("bad meshbridge environment, using defaults", zap.Error(err))
	}
	if err := bridge.Configure(bridge.Config{Kernel: bridge.DefaultKernel}); err != nil {
		panic(err)
	}
}

func handle(h C.intptr_t) bridge.Handle { return bridge.Handle(uintptr(h)) }

func token(h bridge.Handle) C.intptr_t { return C.intptr_t(uintptr(h)) }

//export my_add
func my_add(x, y C.int32_t) C.int32_t {
	return x + y
}

//export construct_point3
func construct_point3(x, y, z C.double) C.intptr_t {
	return token(bridge.NewPoint3(float64(x), float64(y), float64(z)))
}

//export point3_get_x
func point3_get_x(p C.intptr_t) C.double {
	return C.double(bridge.Point3X(handle(p)))
}

//export point3_get_y
func point3_get_y(p C.intptr_t) C.double {
	return C.double(bridge.Point3Y(handle(p)))
}

//export point3_get_z
func point3_get_z(p C.intptr_t) C.double {
	return C.double(bridge.Point3Z(handle(p)))
}

//export point3_free
func point3_free(p C.intptr_t) {
	bridge.FreePoint3(handle(p))
}

//export create_cube
func create_cube(size C.double) C.intptr_t {
	return token(bridge.CreateCube(float64(size)))
}

//export free_polygon_mesh
func free_polygon_mesh(m C.intptr_t) {
	bridge.FreeMesh(handle(m))
}

//export get_vertex_count
func get_vertex_count(m C.intptr_t) C.int32_t {
	return C.int32_t(bridge.VertexCount(handle(m)))
}

//export get_face_count
func get_face_count(m C.intptr_t) C.int32_t {
	return C.int32_t(bridge.FaceCount(handle(m)))
}

//export get_vertices
func get_vertices(m C.intptr_t) C.intptr_t {
	return token(bridge.ExportPositions(handle(m)))
}

//export get_faces
func get_faces(m C.intptr_t) C.intptr_t {
	return token(bridge.ExportFaces(handle(m)))
}

//export free_vertices
func free_vertices(b C.intptr_t) {
	bridge.FreePositions(handle(b))
}

//export free_faces
func free_faces(b C.intptr_t) {
	bridge.FreeFaces(handle(b))
}

func main() {}
