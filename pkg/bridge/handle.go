// Package bridge is the handle-and-buffer core behind the library's C ABI.
//
// Every resource a foreign caller can hold is a Handle: a pointer-sized
// token with an explicit construct call and exactly one matching destroy
// call. Point cells and exported buffers are C heap addresses; meshes are
// runtime/cgo handles, because a Go pointer may not be kept by C code.
// Both fit in an intptr_t and one allocation is only ever named by one of
// them.
//
// A resource moves Uninitialized -> Live -> Destroyed. Queries need Live.
// The package does no lifetime tracking of its own unless the liveness
// check is enabled, in which case misuse is reported to the violation
// handler instead of corrupting memory.
package bridge

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/chazu/meshbridge/pkg/liveness"
)

// Handle is an opaque, pointer-sized token. Zero is the null handle.
type Handle uintptr

// Null is the null handle.
const Null Handle = 0

// ViolationHandler receives lifetime violations found by the liveness
// check. The operation that triggered it is skipped if the handler
// returns.
type ViolationHandler func(error)

var (
	registry  atomic.Pointer[liveness.Registry]
	onViolate atomic.Pointer[ViolationHandler]
)

// EnableLivenessCheck installs a fresh liveness registry and returns it.
// Handles constructed before the call are unknown to the registry, so
// enable it before handing anything out.
func EnableLivenessCheck() (*liveness.Registry, error) {
	r, err := liveness.New()
	if err != nil {
		return nil, err
	}
	registry.Store(r)
	return r, nil
}

// DisableLivenessCheck removes the registry.
func DisableLivenessCheck() {
	registry.Store(nil)
}

// LivenessRegistry returns the active registry, or nil when checking is off.
func LivenessRegistry() *liveness.Registry {
	return registry.Load()
}

// SetViolationHandler replaces the violation handler. A nil handler
// restores the default, which panics with the violation.
func SetViolationHandler(h ViolationHandler) {
	if h == nil {
		onViolate.Store(nil)
		return
	}
	onViolate.Store(&h)
}

func violate(err error) {
	Logger().Error("handle lifetime violation", zap.Error(err))
	if h := onViolate.Load(); h != nil {
		(*h)(err)
		return
	}
	panic(err)
}

func track(kind liveness.Kind, h Handle, count int) {
	r := registry.Load()
	if r == nil || h == Null {
		return
	}
	if err := r.Track(kind, uint64(h), count); err != nil {
		violate(err)
	}
}

func checkLive(kind liveness.Kind, h Handle) bool {
	r := registry.Load()
	if r == nil {
		return true
	}
	if _, err := r.Check(kind, uint64(h)); err != nil {
		violate(err)
		return false
	}
	return true
}

func release(kind liveness.Kind, h Handle) bool {
	r := registry.Load()
	if r == nil {
		return true
	}
	if err := r.Release(kind, uint64(h)); err != nil {
		violate(err)
		return false
	}
	return true
}
