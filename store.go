package frep

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Store is the interning table: a process-wide hash-consing service mapping
// structural keys to canonical nodes. Structurally identical nodes built
// through the public constructors are guaranteed to be the same object.
//
// All methods are safe for concurrent use. Removal is driven purely by
// reference counts: when the last handle to a node is released, the node is
// removed from the table and its children are released in turn.
type Store struct {
	mu    sync.Mutex
	table map[nodeKey]*node

	// serial feeds identity-based keys (free variables, NaN constants,
	// oracle leaves, decoded interior records).
	serial atomic.Uint64

	// Coordinate-axis singletons, pre-interned with a baseline reference
	// that is never released.
	x, y, z *node
}

var (
	defaultStore     *Store
	defaultStoreOnce sync.Once
)

// DefaultStore returns the process-wide interning table, initializing it on
// first use. All package-level constructors operate on it.
func DefaultStore() *Store {
	defaultStoreOnce.Do(func() {
		defaultStore = newStore()
	})
	return defaultStore
}

func newStore() *Store {
	s := &Store{}
	s.init()
	return s
}

func (s *Store) init() {
	s.table = make(map[nodeKey]*node, 64)
	s.x = s.newSingleton(OpVarX)
	s.y = s.newSingleton(OpVarY)
	s.z = s.newSingleton(OpVarZ)
}

// newSingleton pre-interns an axis leaf with its implicit baseline hold, so
// ordinary teardown never removes it.
func (s *Store) newSingleton(op Opcode) *node {
	n := &node{op: op, flags: FlagHasXYZ, store: s}
	n.key = nodeKey{op: op}
	n.refs.Store(1)
	s.table[n.key] = n
	return n
}

// Len reports the number of live nodes in the table, including the three
// axis singletons.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.table)
}

// Reset discards every node and re-creates the axis singletons. It is a
// test hook: calling it while any handle from the old generation is still
// live invalidates that handle.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.init()
}

// nextSerial returns a fresh nonzero identity token.
func (s *Store) nextSerial() uint64 {
	return s.serial.Add(1)
}

// intern returns the canonical node for the key, incrementing its count on
// a hit. On a miss it adopts the node returned by mk, which must be fully
// formed apart from key, store, and count; the new node takes one counted
// reference on each of its children.
func (s *Store) intern(k nodeKey, mk func() *node) *node {
	s.mu.Lock()
	if n, ok := s.table[k]; ok {
		n.refs.Add(1)
		s.mu.Unlock()
		return n
	}
	n := mk()
	n.key = k
	n.store = s
	n.refs.Store(1)
	for i := 0; i < n.arity(); i++ {
		n.kids[i].refs.Add(1)
	}
	s.table[k] = n
	s.mu.Unlock()
	return n
}

// retain adds a counted reference. The caller must already hold one.
func (s *Store) retain(n *node) {
	n.refs.Add(1)
}

// release drops a counted reference. A node reaching zero is removed from
// the table and its children are released iteratively through a worklist,
// so tearing down a deep chain never recurses.
//
// The zero check is re-run under the table lock: a concurrent intern may
// have handed the node out between the decrement and the lock, in which
// case removal is abandoned. Conversely, once a node has been removed, a
// racing intern misses and constructs a fresh node; a removed node is never
// handed out again.
func (s *Store) release(n *node) {
	work := []*node{n}
	for len(work) > 0 {
		n := work[len(work)-1]
		work = work[:len(work)-1]

		switch c := n.refs.Add(-1); {
		case c > 0:
			continue
		case c < 0:
			debugLog.Errorf("refcount underflow on %s node", n.op)
			continue
		}

		s.mu.Lock()
		if n.refs.Load() != 0 || s.table[n.key] != n {
			// Rescued by a concurrent intern, or already torn down.
			s.mu.Unlock()
			continue
		}
		delete(s.table, n.key)
		s.mu.Unlock()

		for i := 0; i < n.arity(); i++ {
			work = append(work, n.kids[i])
		}
		if a := n.affine.Load(); a != nil && a != n {
			work = append(work, a)
		}
	}
}

// CheckIntegrity scans the table for invariant violations: key/node
// mismatches, dead entries, and children that are not themselves live table
// entries. A violation is a programming-error class bug; this exists for
// debug builds and tests.
func (s *Store) CheckIntegrity() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, n := range s.table {
		if n.key != k {
			debugLog.Errorf("interning key mismatch for %s node", n.op)
			return fmt.Errorf("frep: node %s stored under foreign key", n.op)
		}
		if n.refs.Load() < 1 {
			return fmt.Errorf("frep: dead %s node in table", n.op)
		}
		for i := 0; i < n.arity(); i++ {
			kid := n.kids[i]
			if kid == nil {
				return fmt.Errorf("frep: %s node with nil child %d", n.op, i)
			}
			if s.table[kid.key] != kid {
				return fmt.Errorf("frep: %s node references unregistered child", n.op)
			}
		}
	}
	return nil
}
