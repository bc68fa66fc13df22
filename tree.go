package frep

// Tree is a reference-counted handle to an immutable expression node in the
// interning table.
//
// Ownership rules:
//   - Constructors (X, Constant, Add, ...) borrow their operands and return
//     a handle the caller owns; the caller releases it with Release when
//     done. Rewrite passes (Unique, Flatten, CollectAffine, WithConstVars,
//     Optimized) behave the same way.
//   - Accessors (Lhs, Rhs, Arg, Walk) return borrowed handles, valid while
//     the parent handle is held. Borrowed handles must not be released;
//     call Retain to keep one.
//
// The zero Tree is invalid.
type Tree struct {
	n *node
}

// ID is an opaque identity token for a node. Two handles refer to the same
// node exactly when their IDs compare equal. The zero ID is invalid.
type ID *node

// IsValid reports whether the handle refers to a node.
func (t Tree) IsValid() bool {
	return t.n != nil
}

// ID returns the node's identity token.
func (t Tree) ID() ID {
	return ID(t.n)
}

// Op returns the node's opcode.
func (t Tree) Op() Opcode {
	if t.n == nil {
		return OpInvalid
	}
	return t.n.op
}

// Value returns the constant payload. The second result is false unless the
// node is a constant.
func (t Tree) Value() (float64, bool) {
	if t.n == nil || t.n.op != OpConstant {
		return 0, false
	}
	return t.n.value, true
}

// Flags returns the subtree's derived flag bitmask.
func (t Tree) Flags() TreeFlags {
	if t.n == nil {
		return 0
	}
	return t.n.flags
}

// Lhs returns the first child as a borrowed handle, or an invalid Tree for
// leaves.
func (t Tree) Lhs() Tree {
	return t.Arg(0)
}

// Rhs returns the second child as a borrowed handle.
func (t Tree) Rhs() Tree {
	return t.Arg(1)
}

// Arg returns the i'th child as a borrowed handle. Remap nodes have four
// children: target, x-sub, y-sub, z-sub.
func (t Tree) Arg(i int) Tree {
	if t.n == nil || i < 0 || i >= t.n.arity() {
		return Tree{}
	}
	return Tree{t.n.kids[i]}
}

// OracleClause returns the clause of an oracle leaf, or nil.
func (t Tree) OracleClause() OracleClause {
	if t.n == nil {
		return nil
	}
	return t.n.oracle
}

// RefCount reports the node's current reference count. It is inherently
// racy under concurrent use and exists for tests and diagnostics.
func (t Tree) RefCount() int {
	if t.n == nil {
		return 0
	}
	return int(t.n.refs.Load())
}

// Retain returns an additional owned handle to the same node.
func (t Tree) Retain() Tree {
	if t.n != nil {
		t.n.store.retain(t.n)
	}
	return t
}

// Release drops an owned handle. Dropping the last handle removes the node
// from the interning table and releases its children.
func (t Tree) Release() {
	if t.n != nil {
		t.n.store.release(t.n)
	}
}

// Size returns the number of distinct nodes reachable from the root,
// counting shared subtrees once.
func (t Tree) Size() int {
	if t.n == nil {
		return 0
	}
	count := 0
	w := t.Walk()
	for _, ok := w.Next(); ok; _, ok = w.Next() {
		count++
	}
	return count
}

// Optimized returns a canonicalized copy of the tree: deferred remaps are
// resolved, affine chains are collected, and the result is deduplicated
// with identities re-applied.
func (t Tree) Optimized() Tree {
	flat := t.Flatten()
	aff := flat.CollectAffine()
	flat.Release()
	out := aff.Unique()
	aff.Release()
	return out
}
