package frep

import (
	"errors"
	"fmt"
	"math"
)

// ErrNilChild is returned by Remap and Oracle when a required child is
// missing. All other constructors always succeed given valid operands.
var ErrNilChild = errors.New("frep: nil child")

// X returns a handle to the x-coordinate singleton leaf.
func X() Tree { return DefaultStore().axis(0) }

// Y returns a handle to the y-coordinate singleton leaf.
func Y() Tree { return DefaultStore().axis(1) }

// Z returns a handle to the z-coordinate singleton leaf.
func Z() Tree { return DefaultStore().axis(2) }

// Constant returns a constant leaf. Equal values yield the same node,
// compared by exact bit pattern, except NaN: every NaN-valued construction
// is a distinct node, so distinct "undefined" markers never merge silently.
func Constant(v float64) Tree { return DefaultStore().constant(v) }

// Var allocates a fresh free variable. Two variables are equal only if they
// are the same node; structural coincidence never makes variables equal.
func Var() Tree { return DefaultStore().variable() }

// Unary constructors.
func Square(t Tree) Tree { return t.n.store.unary(OpSquare, t) }
func Sqrt(t Tree) Tree   { return t.n.store.unary(OpSqrt, t) }
func Neg(t Tree) Tree    { return t.n.store.unary(OpNeg, t) }
func Abs(t Tree) Tree    { return t.n.store.unary(OpAbs, t) }
func Sin(t Tree) Tree    { return t.n.store.unary(OpSin, t) }
func Cos(t Tree) Tree    { return t.n.store.unary(OpCos, t) }
func Tan(t Tree) Tree    { return t.n.store.unary(OpTan, t) }
func Asin(t Tree) Tree   { return t.n.store.unary(OpAsin, t) }
func Acos(t Tree) Tree   { return t.n.store.unary(OpAcos, t) }
func Atan(t Tree) Tree   { return t.n.store.unary(OpAtan, t) }
func Exp(t Tree) Tree    { return t.n.store.unary(OpExp, t) }
func Log(t Tree) Tree    { return t.n.store.unary(OpLog, t) }
func Recip(t Tree) Tree  { return t.n.store.unary(OpRecip, t) }

// Binary constructors. Operands are borrowed; the result is owned by the
// caller.
func Add(a, b Tree) Tree     { return a.n.store.binary(OpAdd, a, b) }
func Sub(a, b Tree) Tree     { return a.n.store.binary(OpSub, a, b) }
func Mul(a, b Tree) Tree     { return a.n.store.binary(OpMul, a, b) }
func Div(a, b Tree) Tree     { return a.n.store.binary(OpDiv, a, b) }
func Min(a, b Tree) Tree     { return a.n.store.binary(OpMin, a, b) }
func Max(a, b Tree) Tree     { return a.n.store.binary(OpMax, a, b) }
func Pow(a, b Tree) Tree     { return a.n.store.binary(OpPow, a, b) }
func NthRoot(a, b Tree) Tree { return a.n.store.binary(OpNthRoot, a, b) }
func Atan2(a, b Tree) Tree   { return a.n.store.binary(OpAtan2, a, b) }
func Mod(a, b Tree) Tree     { return a.n.store.binary(OpMod, a, b) }

// Method forms for fluent composition.
func (t Tree) Add(o Tree) Tree { return t.n.store.binary(OpAdd, t, o) }
func (t Tree) Sub(o Tree) Tree { return t.n.store.binary(OpSub, t, o) }
func (t Tree) Mul(o Tree) Tree { return t.n.store.binary(OpMul, t, o) }
func (t Tree) Div(o Tree) Tree { return t.n.store.binary(OpDiv, t, o) }

// Remap builds a deferred substitution node: the target evaluated with its
// coordinate leaves replaced by xs, ys, and zs. The substitution is not
// applied until Flatten.
func Remap(target, xs, ys, zs Tree) (Tree, error) {
	if target.n == nil {
		return Tree{}, fmt.Errorf("frep: remap target: %w", ErrNilChild)
	}
	return target.n.store.remapTree(target, xs, ys, zs)
}

// Remap is the method form of the package-level Remap.
func (t Tree) Remap(xs, ys, zs Tree) (Tree, error) {
	return Remap(t, xs, ys, zs)
}

// Oracle wraps an opaque clause as a leaf node. Every call allocates a
// distinct node, even for the same clause.
func Oracle(c OracleClause) (Tree, error) {
	return DefaultStore().oracleTree(c)
}

// WithConstVars wraps the tree in a marker node that reports every
// contained free variable as frozen: the result's flags no longer include
// FlagHasVar, while the structure underneath is unchanged. Wrapping an
// already-wrapped tree is representable and interns normally.
func (t Tree) WithConstVars() Tree {
	return t.n.store.constVars(t)
}

func (s *Store) axis(i int) Tree {
	var n *node
	switch i {
	case 0:
		n = s.x
	case 1:
		n = s.y
	default:
		n = s.z
	}
	s.retain(n)
	return Tree{n}
}

func (s *Store) constant(v float64) Tree {
	k := nodeKey{op: OpConstant, bits: math.Float64bits(v)}
	if math.IsNaN(v) {
		// NaN constants are deliberately never deduplicated.
		k.serial = s.nextSerial()
	}
	n := s.intern(k, func() *node {
		return &node{op: OpConstant, value: v}
	})
	return Tree{n}
}

func (s *Store) variable() Tree {
	k := nodeKey{op: OpVarFree, serial: s.nextSerial()}
	n := s.intern(k, func() *node {
		return &node{op: OpVarFree, flags: FlagHasVar}
	})
	return Tree{n}
}

// unary applies the identity table for single-operand opcodes, then
// interns. Operands are already canonical, so identity checks compare node
// identity rather than structure.
func (s *Store) unary(op Opcode, a Tree) Tree {
	n := a.n
	if n == nil {
		panic("frep: unary constructor on invalid tree")
	}

	if n.op == OpConstant {
		return s.constant(foldUnary(op, n.value))
	}

	switch op {
	case OpNeg:
		// -(-a) = a
		if n.op == OpNeg {
			return Tree{n.kids[0]}.Retain()
		}
	case OpAbs:
		// abs is idempotent
		if n.op == OpAbs {
			return a.Retain()
		}
	}

	flags := n.flags
	return Tree{s.intern(nodeKey{op: op, a: n}, func() *node {
		return &node{op: op, flags: flags, kids: [4]*node{n}}
	})}
}

// binary applies constant folding and the fixed identity table, in that
// order, then interns.
func (s *Store) binary(op Opcode, a, b Tree) Tree {
	x, y := a.n, b.n
	if x == nil || y == nil {
		panic("frep: binary constructor on invalid tree")
	}

	if x.op == OpConstant && y.op == OpConstant {
		return s.constant(foldBinary(op, x.value, y.value))
	}

	switch op {
	case OpAdd:
		if constEq(x, 0) {
			return b.Retain()
		}
		if constEq(y, 0) {
			return a.Retain()
		}
		// a + (-b) = a - b, and symmetrically
		if y.op == OpNeg {
			return s.binary(OpSub, a, Tree{y.kids[0]})
		}
		if x.op == OpNeg {
			return s.binary(OpSub, b, Tree{x.kids[0]})
		}
	case OpSub:
		if constEq(y, 0) {
			return a.Retain()
		}
		if constEq(x, 0) {
			return s.unary(OpNeg, b)
		}
	case OpMul:
		if constEq(x, 1) {
			return b.Retain()
		}
		if constEq(y, 1) {
			return a.Retain()
		}
		if constEq(x, 0) || constEq(y, 0) {
			return s.constant(0)
		}
		if constEq(x, -1) {
			return s.unary(OpNeg, b)
		}
		if constEq(y, -1) {
			return s.unary(OpNeg, a)
		}
	case OpPow, OpNthRoot:
		if constEq(y, 1) {
			return a.Retain()
		}
	case OpMin, OpMax:
		// Identity-equal operands, not merely equal-valued.
		if x == y {
			return a.Retain()
		}
	}

	flags := x.flags | y.flags
	return Tree{s.intern(nodeKey{op: op, a: x, b: y}, func() *node {
		return &node{op: op, flags: flags, kids: [4]*node{x, y}}
	})}
}

func (s *Store) remapTree(target, xs, ys, zs Tree) (Tree, error) {
	for _, sub := range []Tree{xs, ys, zs} {
		if sub.n == nil {
			return Tree{}, fmt.Errorf("frep: remap substitution: %w", ErrNilChild)
		}
	}
	t, x, y, z := target.n, xs.n, ys.n, zs.n
	flags := t.flags | x.flags | y.flags | z.flags | FlagHasRemap
	k := nodeKey{op: OpRemap, a: t, b: x, c: y, d: z}
	return Tree{s.intern(k, func() *node {
		return &node{op: OpRemap, flags: flags, kids: [4]*node{t, x, y, z}}
	})}, nil
}

func (s *Store) oracleTree(c OracleClause) (Tree, error) {
	if c == nil {
		return Tree{}, fmt.Errorf("frep: oracle clause: %w", ErrNilChild)
	}
	k := nodeKey{op: OpOracle, serial: s.nextSerial()}
	return Tree{s.intern(k, func() *node {
		return &node{op: OpOracle, flags: FlagHasOracle, oracle: c}
	})}, nil
}

func (s *Store) constVars(t Tree) Tree {
	n := t.n
	if n == nil {
		panic("frep: const-var constructor on invalid tree")
	}
	flags := n.flags &^ FlagHasVar
	return Tree{s.intern(nodeKey{op: OpConstVar, a: n}, func() *node {
		return &node{op: OpConstVar, flags: flags, kids: [4]*node{n}}
	})}
}

// rawNode interns a node under a fresh identity key without running the
// identity table. Deserialization uses it so that decoding reconstructs the
// encoded shape exactly; Unique later folds such nodes into canonical
// structural entries.
func (s *Store) rawNode(op Opcode, kids [4]*node) Tree {
	var flags TreeFlags
	for i := 0; i < op.Args(); i++ {
		flags |= kids[i].flags
	}
	switch op {
	case OpRemap:
		flags |= FlagHasRemap
	case OpConstVar:
		flags &^= FlagHasVar
	}
	k := nodeKey{op: op, serial: s.nextSerial()}
	return Tree{s.intern(k, func() *node {
		return &node{op: op, flags: flags, kids: kids}
	})}
}

func constEq(n *node, v float64) bool {
	return n.op == OpConstant && n.value == v
}

func foldUnary(op Opcode, v float64) float64 {
	switch op {
	case OpSquare:
		return v * v
	case OpSqrt:
		return math.Sqrt(v)
	case OpNeg:
		return -v
	case OpAbs:
		return math.Abs(v)
	case OpSin:
		return math.Sin(v)
	case OpCos:
		return math.Cos(v)
	case OpTan:
		return math.Tan(v)
	case OpAsin:
		return math.Asin(v)
	case OpAcos:
		return math.Acos(v)
	case OpAtan:
		return math.Atan(v)
	case OpExp:
		return math.Exp(v)
	case OpLog:
		return math.Log(v)
	case OpRecip:
		return 1 / v
	default:
		panic(op)
	}
}

func foldBinary(op Opcode, a, b float64) float64 {
	switch op {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpDiv:
		return a / b
	case OpMin:
		return math.Min(a, b)
	case OpMax:
		return math.Max(a, b)
	case OpPow:
		return math.Pow(a, b)
	case OpNthRoot:
		return math.Pow(a, 1/b)
	case OpAtan2:
		return math.Atan2(a, b)
	case OpMod:
		return math.Mod(a, b)
	default:
		panic(op)
	}
}
