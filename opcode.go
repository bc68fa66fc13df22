package frep

import "fmt"

// Opcode identifies the operation performed by a node. The numeric values
// are part of the binary serialization format and must not be reordered.
type Opcode uint8

const (
	OpInvalid Opcode = iota

	// Leaves
	OpConstant
	OpVarX
	OpVarY
	OpVarZ
	OpVarFree

	// Unary operations
	OpSquare
	OpSqrt
	OpNeg
	OpAbs
	OpSin
	OpCos
	OpTan
	OpAsin
	OpAcos
	OpAtan
	OpExp
	OpLog
	OpRecip

	// Binary operations
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMin
	OpMax
	OpPow
	OpNthRoot
	OpAtan2
	OpMod

	// Structural nodes
	OpOracle
	OpRemap
	OpConstVar

	opCount
)

var opcodeNames = [opCount]string{
	OpInvalid:  "invalid",
	OpConstant: "const",
	OpVarX:     "var-x",
	OpVarY:     "var-y",
	OpVarZ:     "var-z",
	OpVarFree:  "var-free",
	OpSquare:   "square",
	OpSqrt:     "sqrt",
	OpNeg:      "neg",
	OpAbs:      "abs",
	OpSin:      "sin",
	OpCos:      "cos",
	OpTan:      "tan",
	OpAsin:     "asin",
	OpAcos:     "acos",
	OpAtan:     "atan",
	OpExp:      "exp",
	OpLog:      "log",
	OpRecip:    "recip",
	OpAdd:      "add",
	OpSub:      "sub",
	OpMul:      "mul",
	OpDiv:      "div",
	OpMin:      "min",
	OpMax:      "max",
	OpPow:      "pow",
	OpNthRoot:  "nth-root",
	OpAtan2:    "atan2",
	OpMod:      "mod",
	OpOracle:   "oracle",
	OpRemap:    "remap",
	OpConstVar: "const-var",
}

func (op Opcode) String() string {
	if op < opCount {
		return opcodeNames[op]
	}
	return fmt.Sprintf("op%d", uint8(op))
}

// ParseOpcode maps a canonical opcode name (as produced by String) back to
// its Opcode. The second result is false for unknown names.
func ParseOpcode(s string) (Opcode, bool) {
	for op, name := range opcodeNames {
		if name == s && Opcode(op) != OpInvalid {
			return Opcode(op), true
		}
	}
	return OpInvalid, false
}

// Args returns the number of child slots for the opcode: 0 for leaves,
// 1 for unary operations and const-var, 2 for binary operations, and 4 for
// remap (target plus the x/y/z substitutions).
func (op Opcode) Args() int {
	switch {
	case op == OpRemap:
		return 4
	case op >= OpAdd && op <= OpMod:
		return 2
	case op >= OpSquare && op <= OpRecip, op == OpConstVar:
		return 1
	default:
		return 0
	}
}

func (op Opcode) valid() bool {
	return op > OpInvalid && op < opCount
}

func (op Opcode) isUnary() bool {
	return op >= OpSquare && op <= OpRecip
}

func (op Opcode) isBinary() bool {
	return op >= OpAdd && op <= OpMod
}
