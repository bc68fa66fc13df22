// Package eval evaluates expression trees pointwise. Each distinct node is
// computed once per evaluation, so shared subtrees cost a single visit.
package eval

import (
	"fmt"
	"math"

	"github.com/spatialkit/frep"
)

// Vars binds free-variable leaves to values, keyed by node identity.
type Vars map[frep.ID]float64

// Point evaluates the tree at (x, y, z). Trees containing free variables
// need PointVars instead.
func Point(t frep.Tree, x, y, z float64) (float64, error) {
	return PointVars(t, x, y, z, nil)
}

// PointVars evaluates the tree at (x, y, z) with free variables bound by
// vars. Deferred remaps are resolved first; oracle leaves delegate to their
// clause. An unbound free variable is an error.
func PointVars(t frep.Tree, x, y, z float64, vars Vars) (float64, error) {
	if !t.IsValid() {
		return 0, fmt.Errorf("eval: invalid tree")
	}
	if t.Flags().Has(frep.FlagHasRemap) {
		flat := t.Flatten()
		defer flat.Release()
		t = flat
	}

	vals := make(map[frep.ID]float64)
	w := t.Walk()
	for cur, ok := w.Next(); ok; cur, ok = w.Next() {
		var v float64
		switch op := cur.Op(); {
		case op == frep.OpConstant:
			v, _ = cur.Value()
		case op == frep.OpVarX:
			v = x
		case op == frep.OpVarY:
			v = y
		case op == frep.OpVarZ:
			v = z
		case op == frep.OpVarFree:
			bound, ok := vars[cur.ID()]
			if !ok {
				return 0, fmt.Errorf("eval: unbound free variable")
			}
			v = bound
		case op == frep.OpOracle:
			v = cur.OracleClause().Evaluate(x, y, z)
		case op == frep.OpConstVar:
			v = vals[cur.Lhs().ID()]
		case op.Args() == 1:
			v = unary(op, vals[cur.Lhs().ID()])
		default:
			v = binary(op, vals[cur.Lhs().ID()], vals[cur.Rhs().ID()])
		}
		vals[cur.ID()] = v
	}
	return vals[t.ID()], nil
}

func unary(op frep.Opcode, a float64) float64 {
	switch op {
	case frep.OpSquare:
		return a * a
	case frep.OpSqrt:
		return math.Sqrt(a)
	case frep.OpNeg:
		return -a
	case frep.OpAbs:
		return math.Abs(a)
	case frep.OpSin:
		return math.Sin(a)
	case frep.OpCos:
		return math.Cos(a)
	case frep.OpTan:
		return math.Tan(a)
	case frep.OpAsin:
		return math.Asin(a)
	case frep.OpAcos:
		return math.Acos(a)
	case frep.OpAtan:
		return math.Atan(a)
	case frep.OpExp:
		return math.Exp(a)
	case frep.OpLog:
		return math.Log(a)
	case frep.OpRecip:
		return 1 / a
	default:
		panic(op)
	}
}

func binary(op frep.Opcode, a, b float64) float64 {
	switch op {
	case frep.OpAdd:
		return a + b
	case frep.OpSub:
		return a - b
	case frep.OpMul:
		return a * b
	case frep.OpDiv:
		return a / b
	case frep.OpMin:
		return math.Min(a, b)
	case frep.OpMax:
		return math.Max(a, b)
	case frep.OpPow:
		return math.Pow(a, b)
	case frep.OpNthRoot:
		return math.Pow(a, 1/b)
	case frep.OpAtan2:
		return math.Atan2(a, b)
	case frep.OpMod:
		return math.Mod(a, b)
	default:
		panic(op)
	}
}
