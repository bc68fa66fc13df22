package frep

import "math"

// Unique rebuilds the tree bottom-up through the simplifying constructors,
// so that every structurally-equal subtree is represented by one canonical
// interning-table entry and identities that only become visible after
// deduplication (e.g. min(a, a) once two branches collapse) are applied.
//
// Trees built through the public constructors are already canonical;
// Unique matters for decoded trees, whose interior records are interned
// under identity keys with no simplification. NaN constants stay distinct.
func (t Tree) Unique() Tree {
	if t.n == nil {
		return Tree{}
	}
	s := t.n.store
	built := make(map[*node]Tree)

	w := t.Walk()
	for cur, ok := w.Next(); ok; cur, ok = w.Next() {
		n := cur.n
		var r Tree
		switch {
		case n.op == OpConstant:
			if math.IsNaN(n.value) {
				r = cur.Retain()
			} else {
				r = s.constant(n.value)
			}
		case n.arity() == 0:
			// Axes, free variables, and oracle leaves keep their identity.
			r = cur.Retain()
		default:
			args := make([]Tree, n.arity())
			for i := range args {
				args[i] = built[n.kids[i]]
			}
			r = s.rebuildNode(n.op, args)
		}
		built[n] = r
	}

	out := built[t.n].Retain()
	for _, v := range built {
		v.Release()
	}
	return out
}

// rebuildNode constructs a node with the same opcode over new children,
// re-running the identity table.
func (s *Store) rebuildNode(op Opcode, kids []Tree) Tree {
	switch {
	case op.isUnary():
		return s.unary(op, kids[0])
	case op.isBinary():
		return s.binary(op, kids[0], kids[1])
	case op == OpConstVar:
		return s.constVars(kids[0])
	case op == OpRemap:
		r, err := s.remapTree(kids[0], kids[1], kids[2], kids[3])
		if err != nil {
			panic(err) // children of an existing remap are never nil
		}
		return r
	default:
		panic(op)
	}
}
