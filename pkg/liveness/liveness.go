// Package liveness keeps a table of the handles a library has handed out
// and not yet taken back. It turns use-after-free, double free and
// handle-kind confusion into errors during testing. Production builds do
// not consult it.
package liveness

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-memdb"
)

// Kind names the type of resource a handle refers to.
type Kind string

const (
	KindPoint3    Kind = "point3"
	KindMesh      Kind = "mesh"
	KindPositions Kind = "positions"
	KindFaces     Kind = "faces"
)

var (
	// ErrDoubleFree means the handle was destroyed before and has not been
	// handed out again since.
	ErrDoubleFree = errors.New("handle already destroyed")
	// ErrUnknownHandle means the registry never saw the handle.
	ErrUnknownHandle = errors.New("unknown handle")
	// ErrKindMismatch means the handle is live but refers to another kind.
	ErrKindMismatch = errors.New("handle kind mismatch")
	// ErrAlreadyLive means a construct returned a token that is still live.
	ErrAlreadyLive = errors.New("handle already live")
)

// Violation describes one broken lifetime rule.
type Violation struct {
	Op     string // "construct", "query" or "destroy"
	Kind   Kind   // kind the caller claimed
	Token  uint64
	Actual Kind // live kind, set for ErrKindMismatch and ErrAlreadyLive
	Err    error
}

func (v *Violation) Error() string {
	if v.Actual != "" {
		return fmt.Sprintf("liveness: %s %s %#x: %v (live as %s)", v.Op, v.Kind, v.Token, v.Err, v.Actual)
	}
	return fmt.Sprintf("liveness: %s %s %#x: %v", v.Op, v.Kind, v.Token, v.Err)
}

func (v *Violation) Unwrap() error { return v.Err }

// Entry is one live handle.
type Entry struct {
	Token uint64
	Kind  string
	Count int // element count for buffers, 0 otherwise
}

// tombstone marks a destroyed handle until its token is handed out again.
type tombstone struct {
	Token uint64
	Kind  string
}

const (
	tableLive = "live"
	tableDead = "dead"
)

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tableLive: {
			Name: tableLive,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.UintFieldIndex{Field: "Token"},
				},
				"kind": {
					Name:    "kind",
					Indexer: &memdb.StringFieldIndex{Field: "Kind"},
				},
			},
		},
		tableDead: {
			Name: tableDead,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.UintFieldIndex{Field: "Token"},
				},
			},
		},
	},
}

// Registry is safe for concurrent use.
type Registry struct {
	db *memdb.MemDB
}

// New returns an empty Registry.
func New() (*Registry, error) {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("liveness: %w", err)
	}
	return &Registry{db: db}, nil
}

// Track records a freshly constructed handle. count is the element count
// of a buffer and 0 for other kinds.
func (r *Registry) Track(kind Kind, token uint64, count int) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(tableLive, "id", token)
	if err != nil {
		return fmt.Errorf("liveness: %w", err)
	}
	if raw != nil {
		return &Violation{Op: "construct", Kind: kind, Token: token,
			Actual: Kind(raw.(*Entry).Kind), Err: ErrAlreadyLive}
	}

	// The allocator may hand a released address out again.
	if _, err := txn.DeleteAll(tableDead, "id", token); err != nil {
		return fmt.Errorf("liveness: %w", err)
	}
	if err := txn.Insert(tableLive, &Entry{Token: token, Kind: string(kind), Count: count}); err != nil {
		return fmt.Errorf("liveness: %w", err)
	}
	txn.Commit()
	return nil
}

// Check verifies that token is live and of the given kind, and returns
// its entry.
func (r *Registry) Check(kind Kind, token uint64) (Entry, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()
	return r.check(txn, "query", kind, token)
}

func (r *Registry) check(txn *memdb.Txn, op string, kind Kind, token uint64) (Entry, error) {
	raw, err := txn.First(tableLive, "id", token)
	if err != nil {
		return Entry{}, fmt.Errorf("liveness: %w", err)
	}
	if raw == nil {
		dead, err := txn.First(tableDead, "id", token)
		if err != nil {
			return Entry{}, fmt.Errorf("liveness: %w", err)
		}
		if dead != nil {
			return Entry{}, &Violation{Op: op, Kind: kind, Token: token, Err: ErrDoubleFree}
		}
		return Entry{}, &Violation{Op: op, Kind: kind, Token: token, Err: ErrUnknownHandle}
	}

	e := raw.(*Entry)
	if e.Kind != string(kind) {
		return Entry{}, &Violation{Op: op, Kind: kind, Token: token, Actual: Kind(e.Kind), Err: ErrKindMismatch}
	}
	return *e, nil
}

// Release checks token like Check and then moves it to the destroyed set.
// A failed check leaves the registry unchanged.
func (r *Registry) Release(kind Kind, token uint64) error {
	txn := r.db.Txn(true)
	defer txn.Abort()

	e, err := r.check(txn, "destroy", kind, token)
	if err != nil {
		return err
	}
	if _, err := txn.DeleteAll(tableLive, "id", e.Token); err != nil {
		return fmt.Errorf("liveness: %w", err)
	}
	if err := txn.Insert(tableDead, &tombstone{Token: token, Kind: e.Kind}); err != nil {
		return fmt.Errorf("liveness: %w", err)
	}
	txn.Commit()
	return nil
}

// Live returns the number of live handles of the given kind.
func (r *Registry) Live(kind Kind) int {
	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableLive, "kind", string(kind))
	if err != nil {
		return 0
	}
	n := 0
	for obj := it.Next(); obj != nil; obj = it.Next() {
		n++
	}
	return n
}

// Entries returns every live handle.
func (r *Registry) Entries() []Entry {
	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableLive, "id")
	if err != nil {
		return nil
	}
	var out []Entry
	for obj := it.Next(); obj != nil; obj = it.Next() {
		out = append(out, *obj.(*Entry))
	}
	return out
}
