package frep

// Flatten resolves every deferred remap in the tree: each remap node is
// replaced by its target rebuilt with the coordinate leaves substituted,
// re-running the identity table as replacement nodes are constructed.
// Nested remaps compose in construction order: inner substitutions are
// resolved first, and the outer parameters apply to their result.
//
// Subtrees without remaps pass through unchanged, short-circuited on
// FlagHasRemap.
func (t Tree) Flatten() Tree {
	if t.n == nil {
		return Tree{}
	}
	if !t.n.flags.Has(FlagHasRemap) {
		return t.Retain()
	}
	s := t.n.store
	built := make(map[*node]Tree)

	w := t.Walk()
	for cur, ok := w.Next(); ok; cur, ok = w.Next() {
		n := cur.n
		var r Tree
		switch {
		case !n.flags.Has(FlagHasRemap):
			r = cur.Retain()
		case n.op == OpRemap:
			// Children are already flattened (post-order), so the target
			// and the substitutions are remap-free here.
			r = s.substitute(built[n.kids[0]], built[n.kids[1]], built[n.kids[2]], built[n.kids[3]])
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

// substitute rebuilds target with its coordinate leaves replaced by xs, ys,
// and zs. All four trees must be remap-free. Subtrees that reference no
// coordinate pass through unchanged; oracle leaves participate only if
// their clause advertises position dependence via RemappableClause.
func (s *Store) substitute(target, xs, ys, zs Tree) Tree {
	built := make(map[*node]Tree)

	w := target.Walk()
	for cur, ok := w.Next(); ok; cur, ok = w.Next() {
		n := cur.n
		var r Tree
		switch {
		case n.op == OpVarX:
			r = xs.Retain()
		case n.op == OpVarY:
			r = ys.Retain()
		case n.op == OpVarZ:
			r = zs.Retain()
		case n.op == OpOracle:
			if rc, ok := n.oracle.(RemappableClause); ok {
				if remapped := rc.RemapClause(xs, ys, zs); remapped != nil {
					r, _ = s.oracleTree(remapped)
					break
				}
			}
			r = cur.Retain()
		case !n.flags.Has(FlagHasXYZ), n.arity() == 0:
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

	out := built[target.n].Retain()
	for _, v := range built {
		v.Release()
	}
	return out
}
