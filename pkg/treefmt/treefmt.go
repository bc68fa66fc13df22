// Package treefmt renders expression trees as prefix s-expressions, the
// canonical human-readable form used by tests and tooling: `(+ x 5)`,
// `(- z)`, `(remap (+ y z) y x x)`, `'CubeOracle`.
package treefmt

import (
	"strconv"
	"strings"

	"github.com/spatialkit/frep"
)

// Format returns the prefix form of the tree. Chains of nested additions
// and multiplications are rendered n-ary, so a right-balanced sum prints as
// one flat `(+ ...)` list. Shared subtrees are printed at each occurrence.
func Format(t frep.Tree) string {
	if !t.IsValid() {
		return "<invalid>"
	}
	var b strings.Builder
	write(&b, t)
	return b.String()
}

func write(b *strings.Builder, t frep.Tree) {
	op := t.Op()
	switch op {
	case frep.OpConstant:
		v, _ := t.Value()
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		return
	case frep.OpVarX:
		b.WriteString("x")
		return
	case frep.OpVarY:
		b.WriteString("y")
		return
	case frep.OpVarZ:
		b.WriteString("z")
		return
	case frep.OpVarFree:
		b.WriteString("var-free")
		return
	case frep.OpOracle:
		b.WriteByte('\'')
		b.WriteString(t.OracleClause().Name())
		return
	case frep.OpAdd, frep.OpMul:
		b.WriteByte('(')
		b.WriteString(symbol(op))
		writeChain(b, t, op)
		b.WriteByte(')')
		return
	}

	b.WriteByte('(')
	b.WriteString(symbol(op))
	for i := 0; i < op.Args(); i++ {
		b.WriteByte(' ')
		write(b, t.Arg(i))
	}
	b.WriteByte(')')
}

// writeChain flattens nested occurrences of the same associative opcode.
func writeChain(b *strings.Builder, t frep.Tree, op frep.Opcode) {
	for i := 0; i < 2; i++ {
		arg := t.Arg(i)
		if arg.Op() == op {
			writeChain(b, arg, op)
		} else {
			b.WriteByte(' ')
			write(b, arg)
		}
	}
}

func symbol(op frep.Opcode) string {
	switch op {
	case frep.OpAdd:
		return "+"
	case frep.OpSub, frep.OpNeg:
		return "-"
	case frep.OpMul:
		return "*"
	case frep.OpDiv:
		return "/"
	default:
		return op.String()
	}
}
