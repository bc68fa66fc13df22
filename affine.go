package frep

// CollectAffine canonicalizes affine structure throughout the tree: every
// maximal chain of additions and subtractions becomes a flat sum of
// coefficient-weighted terms, with like terms (same node identity) merged,
// a single aggregated constant folded in last, and the chain rebuilt as a
// right-nested binary sum. Subtraction is normalized into addition of a
// negated term, constants distribute through multiplication and division
// by constants, and the pass recurses into the operands of non-affine
// nodes (min, max, unary operators, remaps) so the whole tree is covered.
// A product of a term with itself becomes a square node.
//
// The collected form is cached per node: repeated calls return the same
// handle without recomputation, and the result is its own collected form.
func (t Tree) CollectAffine() Tree {
	if t.n == nil {
		return Tree{}
	}
	c := &affineCtx{s: t.n.store, memo: make(map[*node]Tree)}
	out := c.rewrite(t.n).Retain()
	for _, v := range c.memo {
		v.Release()
	}
	return out
}

// affineCtx memoizes rewrites within one pass so shared subtrees are
// visited once. The memo owns one handle per entry; rewrite returns
// borrowed handles.
type affineCtx struct {
	s    *Store
	memo map[*node]Tree
}

func (c *affineCtx) rewrite(n *node) Tree {
	if r, ok := c.memo[n]; ok {
		return r
	}
	if a := n.affine.Load(); a != nil {
		r := Tree{a}.Retain()
		c.memo[n] = r
		return r
	}

	var res Tree
	switch {
	case affineRoot(n):
		res = c.collect(n)
	case n.arity() == 0:
		res = Tree{n}.Retain()
	case n.op == OpMul:
		a := c.rewrite(n.kids[0])
		b := c.rewrite(n.kids[1])
		if a.n == b.n {
			res = c.s.unary(OpSquare, a)
		} else {
			res = c.s.binary(OpMul, a, b)
		}
	default:
		args := make([]Tree, n.arity())
		for i := range args {
			args[i] = c.rewrite(n.kids[i])
		}
		res = c.s.rebuildNode(n.op, args)
	}

	res = c.cache(n, res)
	c.memo[n] = res
	return res
}

// cache publishes res as n's collected form and returns the handle to keep,
// adopting a concurrent winner if one beat us to it.
func (c *affineCtx) cache(n *node, res Tree) Tree {
	// The collected form is a fixed point.
	res.n.affine.CompareAndSwap(nil, res.n)
	if res.n == n {
		return res
	}
	if n.affine.CompareAndSwap(nil, res.n) {
		// This reference belongs to the cache and is dropped when n is
		// torn down.
		c.s.retain(res.n)
		return res
	}
	winner := Tree{n.affine.Load()}.Retain()
	res.Release()
	return winner
}

// affineRoot reports whether n heads a decomposable affine chain.
func affineRoot(n *node) bool {
	switch n.op {
	case OpAdd, OpSub, OpNeg:
		return true
	case OpMul:
		return n.kids[0].op == OpConstant || n.kids[1].op == OpConstant
	case OpDiv:
		return n.kids[1].op == OpConstant
	}
	return false
}

// collect decomposes the chain rooted at n and rebuilds it canonically.
func (c *affineCtx) collect(n *node) Tree {
	g := &gatherState{c: c, coeffs: make(map[*node]float64)}
	g.gather(n, 1)

	exprs := make([]Tree, 0, len(g.order)+1)
	for _, tn := range g.order {
		coeff := g.coeffs[tn]
		switch {
		case coeff == 0:
			// Cancelled out entirely.
		case coeff == 1:
			exprs = append(exprs, Tree{tn}.Retain())
		case coeff == -1:
			exprs = append(exprs, c.s.unary(OpNeg, Tree{tn}))
		case coeff < 0:
			// Emit as a negated positive-coefficient term so the sum
			// normalizes to subtraction where possible.
			k := c.s.constant(-coeff)
			m := c.s.binary(OpMul, Tree{tn}, k)
			k.Release()
			exprs = append(exprs, c.s.unary(OpNeg, m))
			m.Release()
		default:
			k := c.s.constant(coeff)
			m := c.s.binary(OpMul, Tree{tn}, k)
			k.Release()
			exprs = append(exprs, m)
		}
	}
	if g.konst != 0 || len(exprs) == 0 {
		exprs = append(exprs, c.s.constant(g.konst))
	}

	// Right-balanced pairwise sum.
	acc := exprs[len(exprs)-1]
	for i := len(exprs) - 2; i >= 0; i-- {
		next := c.s.binary(OpAdd, exprs[i], acc)
		acc.Release()
		exprs[i].Release()
		acc = next
	}
	return acc
}

type gatherState struct {
	c      *affineCtx
	coeffs map[*node]float64
	order  []*node
	konst  float64
}

// gather decomposes the affine chain rooted at root into scaled terms.
// Terms are keyed by the identity of their collected form, so like terms
// merge across previously-distinct spellings.
//
// Each chain node is visited once: scales accumulate per node and are
// distributed to children in topological order, so a chain that shares
// subchains (x+x doubled over and over) costs linear work, with the
// subchain's combined coefficient pushed down in one step.
func (g *gatherState) gather(root *node, scale float64) {
	scales := map[*node]float64{root: scale}
	spill := func(n *node, sc float64) {
		if chainNode(n) {
			scales[n] += sc
		} else {
			g.term(n, sc)
		}
	}
	for _, n := range chainOrder(root) {
		sc := scales[n]
		switch n.op {
		case OpConstant:
			g.konst += sc * n.value
		case OpAdd:
			spill(n.kids[0], sc)
			spill(n.kids[1], sc)
		case OpSub:
			spill(n.kids[0], sc)
			spill(n.kids[1], -sc)
		case OpNeg:
			spill(n.kids[0], -sc)
		case OpMul:
			if a, b := n.kids[0], n.kids[1]; a.op == OpConstant {
				spill(b, sc*a.value)
			} else {
				spill(a, sc*b.value)
			}
		case OpDiv:
			spill(n.kids[0], sc/n.kids[1].value)
		}
	}
}

// chainNode reports whether a child continues the additive chain rather
// than terminating it as a term.
func chainNode(n *node) bool {
	return n.op == OpConstant || affineRoot(n)
}

// chainOrder lists the chain's interior nodes with every node ordered
// before its chain children (reverse post-order), each exactly once.
func chainOrder(root *node) []*node {
	var order []*node
	seen := make(map[*node]struct{})
	var visit func(n *node)
	visit = func(n *node) {
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		switch n.op {
		case OpAdd, OpSub:
			for _, kid := range n.kids[:2] {
				if chainNode(kid) {
					visit(kid)
				}
			}
		case OpNeg:
			if kid := n.kids[0]; chainNode(kid) {
				visit(kid)
			}
		case OpMul:
			kid := n.kids[1]
			if n.kids[0].op != OpConstant {
				kid = n.kids[0]
			}
			if chainNode(kid) {
				visit(kid)
			}
		case OpDiv:
			if kid := n.kids[0]; chainNode(kid) {
				visit(kid)
			}
		}
		order = append(order, n)
	}
	visit(root)
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func (g *gatherState) term(n *node, scale float64) {
	r := g.c.rewrite(n)
	if _, ok := g.coeffs[r.n]; !ok {
		g.order = append(g.order, r.n)
	}
	g.coeffs[r.n] += scale
}
