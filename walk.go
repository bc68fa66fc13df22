package frep

// Walker produces the distinct nodes reachable from a root, lazily, each
// exactly once, children always before parents. The order is a valid
// topological linearization; tie-breaks among unrelated siblings follow
// lhs-first construction order but are not part of the contract.
//
// Walkers are not restartable and yield borrowed handles: do not release
// them, and keep the root handle live for the duration of the walk.
type Walker struct {
	stack []walkFrame

	// done holds emitted nodes. A node may sit on the stack several times
	// when it is shared by nested parents; only the first pop emits it.
	done map[*node]struct{}
}

type walkFrame struct {
	n        *node
	expanded bool
}

// Walk returns a walker over the tree's reachable node set.
func (t Tree) Walk() *Walker {
	w := &Walker{done: make(map[*node]struct{})}
	if t.n != nil {
		w.stack = append(w.stack, walkFrame{n: t.n})
	}
	return w
}

// Next returns the next node in post-order. The second result is false once
// the walk is exhausted.
func (w *Walker) Next() (Tree, bool) {
	for len(w.stack) > 0 {
		f := &w.stack[len(w.stack)-1]
		if _, ok := w.done[f.n]; ok {
			w.stack = w.stack[:len(w.stack)-1]
			continue
		}
		if f.expanded {
			n := f.n
			w.stack = w.stack[:len(w.stack)-1]
			w.done[n] = struct{}{}
			return Tree{n}, true
		}
		f.expanded = true
		// Push pending children in reverse so the lhs subtree is emitted
		// first. A child queued below by a farther ancestor is pushed again
		// here: emission order must follow the nearest parent, and the
		// leftover frame is dropped at pop time.
		for i := f.n.arity() - 1; i >= 0; i-- {
			kid := f.n.kids[i]
			if _, ok := w.done[kid]; !ok {
				w.stack = append(w.stack, walkFrame{n: kid})
			}
		}
	}
	return Tree{}, false
}
