package engine

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/chazu/meshbridge/pkg/bridge"
	"github.com/chazu/meshbridge/pkg/liveness"
)

// Leak is a handle a script constructed and did not free.
type Leak struct {
	Kind   liveness.Kind
	Handle bridge.Handle
}

func (l Leak) String() string {
	return fmt.Sprintf("%s %#x", l.Kind, uintptr(l.Handle))
}

type ledgerEntry struct {
	kind  liveness.Kind
	count int
}

// ledger records the handles one script holds, so builtins can refuse
// dead or mistyped handles before they reach the bridge.
type ledger struct {
	live map[bridge.Handle]ledgerEntry
}

func newLedger() *ledger {
	return &ledger{live: make(map[bridge.Handle]ledgerEntry)}
}

func (l *ledger) add(kind liveness.Kind, h bridge.Handle, count int) {
	if h == bridge.Null {
		return
	}
	l.live[h] = ledgerEntry{kind: kind, count: count}
}

func (l *ledger) lookup(kind liveness.Kind, h bridge.Handle) (ledgerEntry, error) {
	e, ok := l.live[h]
	if !ok {
		return e, fmt.Errorf("%s handle %#x is not live", kind, uintptr(h))
	}
	if e.kind != kind {
		return e, fmt.Errorf("handle %#x is a %s, not a %s", uintptr(h), e.kind, kind)
	}
	return e, nil
}

func (l *ledger) remove(kind liveness.Kind, h bridge.Handle) error {
	if _, err := l.lookup(kind, h); err != nil {
		return err
	}
	delete(l.live, h)
	return nil
}

// freeFuncs maps each kind to its destroy function.
var freeFuncs = map[liveness.Kind]func(bridge.Handle){
	liveness.KindPoint3:    bridge.FreePoint3,
	liveness.KindMesh:      bridge.FreeMesh,
	liveness.KindPositions: bridge.FreePositions,
	liveness.KindFaces:     bridge.FreeFaces,
}

// reclaim frees every handle still in the ledger and returns them in
// handle order.
func (l *ledger) reclaim() []Leak {
	leaks := lo.MapToSlice(l.live, func(h bridge.Handle, e ledgerEntry) Leak {
		return Leak{Kind: e.kind, Handle: h}
	})
	sort.Slice(leaks, func(i, j int) bool { return leaks[i].Handle < leaks[j].Handle })

	for _, leak := range leaks {
		freeFuncs[leak.Kind](leak.Handle)
	}
	clear(l.live)
	return leaks
}
