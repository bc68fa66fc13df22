package frep

import "sync/atomic"

// TreeFlags is a bitmask of properties derived from a subtree's contents.
// Flags are computed at construction and never change, so callers can
// branch on them without traversing the subtree.
type TreeFlags uint8

const (
	// FlagHasXYZ is set if the subtree references any coordinate axis.
	FlagHasXYZ TreeFlags = 1 << iota

	// FlagHasRemap is set if the subtree contains an unflattened remap.
	FlagHasRemap

	// FlagHasOracle is set if the subtree contains an oracle leaf.
	FlagHasOracle

	// FlagHasVar is set if the subtree contains a free variable that has
	// not been frozen by a const-var wrapper.
	FlagHasVar
)

// Has returns true if the flag is set.
func (f TreeFlags) Has(flag TreeFlags) bool {
	return (f & flag) != 0
}

// nodeKey is the structural interning key: opcode, child identities, and
// payload bits. Nodes that must never deduplicate structurally (free
// variables, NaN constants, oracle leaves, and decoded interior records)
// carry a nonzero serial instead, which makes their key unique.
type nodeKey struct {
	op     Opcode
	bits   uint64
	serial uint64
	a, b   *node
	c, d   *node
}

// node is the immutable tagged-variant payload behind a Tree handle. After
// construction only the reference count and the cached affine form change.
type node struct {
	op    Opcode
	flags TreeFlags

	// value is the payload for OpConstant nodes.
	value float64

	// kids holds the children: 1 for unary and const-var, 2 for binary,
	// 4 for remap (target, x-sub, y-sub, z-sub). Unused slots are nil.
	kids [4]*node

	// oracle is the clause for OpOracle nodes.
	oracle OracleClause

	store *Store
	key   nodeKey

	refs atomic.Int32

	// affine caches the collect-affine form. It is populated at most once;
	// a node may cache itself, in which case no reference is held.
	affine atomic.Pointer[node]
}

func (n *node) arity() int {
	return n.op.Args()
}
